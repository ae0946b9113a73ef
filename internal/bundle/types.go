package bundle

import (
	"fmt"
	"time"
)

// Kind identifies the upstream repository a release came from.
// It affects provenance and logging only; the install pipeline treats
// every kind the same way.
type Kind string

const (
	// KindWineGE identifies Wine-GE builds.
	KindWineGE Kind = "wine-ge"
	// KindProtonGE identifies Proton-GE builds.
	KindProtonGE Kind = "proton-ge"
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	return string(k)
}

// ParseKind converts a configuration string into a Kind.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindWineGE, KindProtonGE:
		return Kind(s), nil
	default:
		return "", fmt.Errorf("unknown repository kind: %q", s)
	}
}

// Release describes one installable runtime bundle version.
//
// Releases are produced by the catalog and are owned by the caller. The
// installer mutates nothing in place: a successful install returns an
// updated copy with DiskSize set to the measured on-disk size of the
// installed directory.
type Release struct {
	// Version is unique within its source repository and names the
	// install subdirectory.
	Version string
	// Kind is the upstream repository this release came from.
	Kind Kind
	// DownloadURL points at the release archive. Required.
	DownloadURL string
	// ChecksumURL points at a plain-text checksum manifest that must
	// contain the archive's SHA-512 hex digest. Optional; installs
	// without one succeed but are flagged via the logger.
	ChecksumURL string
	// SignatureURL points at a detached GPG signature of the checksum
	// manifest. Optional; only verified when the manager holds a keyring.
	SignatureURL string
	// DiskSize is the advisory uncompressed size in bytes before
	// installation, and the measured installed size afterwards.
	DiskSize int64
	// ReleasedAt is the upstream publication time, when known.
	ReleasedAt time.Time
}

// State names the pipeline phase a progress update belongs to.
type State string

const (
	// StateDownloading is reported while the archive is being fetched.
	StateDownloading State = "downloading"
	// StateExtracting is reported while the archive is being unpacked.
	StateExtracting State = "extracting"
)

// Progress is a point-in-time snapshot of pipeline progress.
type Progress struct {
	// Percentage is 0-100 of the current phase.
	Percentage float64
	// ETA is the estimated remaining time formatted HH:MM:SS,
	// or "00:00:00" when no estimate is possible.
	ETA string
	// AvgSpeed is the average throughput in bytes per second since the
	// phase started.
	AvgSpeed int64
}

// ProgressFunc receives (state, progress) updates from the pipeline.
// Callbacks for a later phase are never delivered before the earlier
// phase's final update. The pipeline never depends on what the callback
// does; implementations must not block for long.
type ProgressFunc func(state State, p Progress)

// InstallOptions configures one installation pipeline run.
type InstallOptions struct {
	// Release describes what to install. DownloadURL is required.
	Release Release
	// TargetDir is the parent directory that receives the install
	// subdirectory. It must already exist and be a directory.
	TargetDir string
	// Overwrite forces re-installation when the install subdirectory
	// already exists. Without it, an existing install is reused.
	Overwrite bool
	// OnProgress receives progress updates. Optional.
	OnProgress ProgressFunc
}

// InstallResult is the outcome of a successful installation.
type InstallResult struct {
	// Release is the caller's release with DiskSize updated to the
	// measured size of the installed directory.
	Release Release
	// Path is the absolute path of the install subdirectory.
	Path string
}
