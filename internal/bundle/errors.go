package bundle

import (
	"fmt"
)

// The installer reports failures through a closed set of error types so
// callers can match on the failure kind with errors.As instead of
// inspecting message text. Every type wraps the underlying cause where
// one exists, and every failure branch finishes its cleanup before the
// error is returned: the caller never has filesystem work left to do.

// InvalidTargetError reports that the target parent directory does not
// exist or is not a directory.
type InvalidTargetError struct {
	Path string
	Err  error
}

func (e *InvalidTargetError) Error() string {
	return fmt.Sprintf("invalid target directory %s: %v", e.Path, e.Err)
}

func (e *InvalidTargetError) Unwrap() error { return e.Err }

// MissingDownloadLinkError reports a release record without a download URL.
type MissingDownloadLinkError struct {
	Version string
}

func (e *MissingDownloadLinkError) Error() string {
	return fmt.Sprintf("release %s has no download link", e.Version)
}

// DownloadError reports a failed archive or manifest download.
type DownloadError struct {
	Version string
	URL     string
	Err     error
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("download %s for release %s: %v", e.URL, e.Version, e.Err)
}

func (e *DownloadError) Unwrap() error { return e.Err }

// ChecksumMismatchError reports that the archive's SHA-512 digest was not
// found in the checksum manifest, or that the manifest's signature did
// not verify.
type ChecksumMismatchError struct {
	Version string
	Digest  string
	Err     error
}

func (e *ChecksumMismatchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("checksum verification failed for release %s: %v", e.Version, e.Err)
	}
	return fmt.Sprintf("checksum mismatch for release %s: digest %s not in manifest", e.Version, e.Digest)
}

func (e *ChecksumMismatchError) Unwrap() error { return e.Err }

// DirectoryCreationError reports that the install subdirectory could not
// be created, or that an existing install could not be moved aside for
// an overwrite.
type DirectoryCreationError struct {
	Version string
	Path    string
	Err     error
}

func (e *DirectoryCreationError) Error() string {
	return fmt.Sprintf("prepare install directory %s for release %s: %v", e.Path, e.Version, e.Err)
}

func (e *DirectoryCreationError) Unwrap() error { return e.Err }

// ExtractionError reports a failed archive extraction. The partially
// extracted directory has been removed and, for overwrite installs, the
// previous install restored before this error is returned.
type ExtractionError struct {
	Version string
	Err     error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract release %s: %v", e.Version, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// AbortError reports a user-initiated cancellation. It wraps the context
// error, so errors.Is(err, context.Canceled) holds for cancelled runs.
// Aborting is terminal, not a pause: partial downloads and partial
// extractions are removed before this error is returned.
type AbortError struct {
	Version string
	Err     error
}

func (e *AbortError) Error() string {
	return fmt.Sprintf("installation of release %s aborted: %v", e.Version, e.Err)
}

func (e *AbortError) Unwrap() error { return e.Err }

// RollbackError reports the one case where on-disk consistency cannot be
// guaranteed: restoring the previous install from its backup failed
// mid-cleanup. The backup directory named here still holds the previous
// install's contents and requires manual attention.
type RollbackError struct {
	Version    string
	BackupPath string
	Err        error
}

func (e *RollbackError) Error() string {
	return fmt.Sprintf("FATAL: rollback of release %s failed, previous install left at %s: %v",
		e.Version, e.BackupPath, e.Err)
}

func (e *RollbackError) Unwrap() error { return e.Err }
