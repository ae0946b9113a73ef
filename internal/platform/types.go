// Package platform provides host platform detection for cellar.
//
// Detected facts drive two things: picking the right release asset when
// an upstream publishes per-architecture archives, and the read-only
// platform table injected into Lua configuration. The package uses
// gopsutil for Linux distribution detection and falls back gracefully
// when detection fails.
package platform

import "context"

// Linux distribution family constants.
// These represent canonical family names for grouping related distributions.
const (
	FamilyDebian  = "debian"  // Debian, Ubuntu, Linux Mint
	FamilyRHEL    = "rhel"    // RHEL, CentOS, Rocky Linux, AlmaLinux
	FamilyFedora  = "fedora"  // Fedora
	FamilySUSE    = "suse"    // openSUSE, SLES
	FamilyArch    = "arch"    // Arch Linux, Manjaro
	FamilyAlpine  = "alpine"  // Alpine Linux
	FamilyGentoo  = "gentoo"  // Gentoo
	FamilyUnknown = "unknown" // Unrecognized distributions
)

// Info contains platform detection information.
type Info struct {
	OS      string // "linux", "darwin", "windows"
	Arch    string // "amd64", "arm64" (normalized)
	ArchRaw string // original GOARCH value
	Distro  string // distro ID (Linux only, e.g. "ubuntu", "arch")
	Family  string // canonical family (e.g. "debian", "rhel")
	Version string // distro version (Linux only, e.g. "22.04")
}

// IsLinux returns true if the platform is Linux.
func (i *Info) IsLinux() bool {
	return i.OS == "linux"
}

// IsMacOS returns true if the platform is macOS.
func (i *Info) IsMacOS() bool {
	return i.OS == "darwin"
}

// IsWindows returns true if the platform is Windows.
func (i *Info) IsWindows() bool {
	return i.OS == "windows"
}

// Detector detects the host platform.
type Detector interface {
	Detect(ctx context.Context) (*Info, error)
}
