package platform

import (
	"context"
	"fmt"
	"runtime"

	"github.com/shirou/gopsutil/v4/host"
)

// RealDetector implements Detector using actual platform detection.
type RealDetector struct{}

// NewDetector creates a new platform detector.
func NewDetector() Detector {
	return &RealDetector{}
}

// Detect returns the host's OS, normalized architecture, and Linux
// distribution details. Distribution detection failures are not fatal:
// the distro fields stay empty and OS/arch detection still succeeds.
func (d *RealDetector) Detect(ctx context.Context) (*Info, error) {
	arch, err := normalizeArch(runtime.GOARCH)
	if err != nil {
		return nil, fmt.Errorf("platform detection failed: %w", err)
	}

	info := &Info{
		OS:      runtime.GOOS,
		Arch:    arch,
		ArchRaw: runtime.GOARCH,
	}

	if runtime.GOOS != "linux" {
		return info, nil
	}

	distro, family, version, err := host.PlatformInformationWithContext(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("platform detection cancelled: %w", ctx.Err())
		}
		// Graceful fallback: OS/arch alone is enough to pick assets.
		return info, nil
	}

	if distro = normalizeName(distro); distro != "" {
		info.Distro = distro
		info.Family = mapFamily(family)
		info.Version = normalizeName(version)
	}

	return info, nil
}
