package bundle

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"

	"github.com/ProtonMail/go-crypto/openpgp" //nolint:staticcheck // Using ProtonMail's maintained fork

	"github.com/calebfourney/cellar/internal/journal"
)

// Manager orchestrates the installation pipeline: download with
// progress, checksum verification, archive extraction, and atomic
// commit/rollback when overwriting an existing installation.
type Manager struct {
	downloader *Downloader
	extractor  *Extractor
	keyring    openpgp.EntityList
	journalDir string
	logger     Logger
}

// Config holds configuration for the bundle manager.
type Config struct {
	// HTTPClient overrides the default HTTP client. Optional.
	HTTPClient *http.Client
	// Keyring enables GPG verification of checksum manifests for
	// releases that carry a signature URL. Optional.
	Keyring openpgp.EntityList
	// JournalDir, when set, receives one JSON journal entry per
	// install run for external tooling. Optional.
	JournalDir string
	// Logger receives pipeline diagnostics. Defaults to a no-op logger.
	Logger Logger
}

// NewManager creates a new bundle manager.
func NewManager(cfg Config) *Manager {
	logger := cfg.Logger
	if logger == nil {
		logger = defaultLogger()
	}

	return &Manager{
		downloader: NewDownloader(cfg.HTTPClient),
		extractor:  NewExtractor(),
		keyring:    cfg.Keyring,
		journalDir: cfg.JournalDir,
		logger:     logger,
	}
}

// InstallPath returns the install subdirectory a release would occupy
// under targetDir.
func (m *Manager) InstallPath(targetDir string, rel Release) string {
	return filepath.Join(targetDir, rel.Version)
}

// IsInstalled reports whether a release's install subdirectory exists
// under targetDir.
func (m *Manager) IsInstalled(targetDir string, rel Release) bool {
	return dirExists(m.InstallPath(targetDir, rel))
}

// Install runs the full installation pipeline for one release:
//
//	validate -> skip-check -> download -> checksum -> extract -> commit
//
// Phases execute strictly in this order. Every failure branch cleans up
// after itself before returning, so the target parent directory is
// always left holding either the previous good install, the new
// install, or nothing at all. The one exception is a failed rollback,
// reported as *RollbackError.
//
// Cancel ctx to abort; an aborted run returns *AbortError and leaves no
// partial state behind.
func (m *Manager) Install(ctx context.Context, opts InstallOptions) (*InstallResult, error) {
	rel := opts.Release
	onProgress := opts.OnProgress
	if onProgress == nil {
		onProgress = func(State, Progress) {}
	}

	// Pre-flight validation, before any side-effecting I/O.
	info, err := os.Stat(opts.TargetDir)
	if err != nil {
		return nil, &InvalidTargetError{Path: opts.TargetDir, Err: err}
	}
	if !info.IsDir() {
		return nil, &InvalidTargetError{Path: opts.TargetDir, Err: fmt.Errorf("not a directory")}
	}
	if rel.DownloadURL == "" {
		return nil, &MissingDownloadLinkError{Version: rel.Version}
	}

	installDir := m.InstallPath(opts.TargetDir, rel)

	// Idempotent skip: an existing install satisfies the request unless
	// the caller explicitly asked to overwrite it.
	if dirExists(installDir) && !opts.Overwrite {
		size, err := folderSize(installDir)
		if err != nil {
			return nil, &InvalidTargetError{Path: installDir, Err: err}
		}
		rel.DiskSize = size
		m.logger.Info("release already installed", "version", rel.Version, "path", installDir)
		return &InstallResult{Release: rel, Path: installDir}, nil
	}

	lock, err := journal.AcquireLock(opts.TargetDir)
	if err != nil {
		return nil, fmt.Errorf("acquire install lock: %w", err)
	}
	defer func() {
		if err := lock.Release(); err != nil {
			m.logger.Warn("release install lock", "error", err)
		}
	}()

	run := journal.New(rel.Version, rel.Kind.String(), opts.TargetDir, opts.Overwrite)
	m.journal(run)

	archivePath := filepath.Join(opts.TargetDir, archiveName(rel.DownloadURL))
	preExisting := dirExists(installDir)

	// Remove any stale archive left by a previous failed run.
	if err := removeIfExists(archivePath); err != nil {
		m.logger.Warn("remove stale archive", "path", archivePath, "error", err)
	}

	// Download phase. No install subdirectory has been created yet, so
	// abort cleanup only removes one that did not exist before this run.
	run.SetPhase(journal.PhaseDownloading, nil)
	m.journal(run)

	if err := m.download(ctx, rel, archivePath, onProgress); err != nil {
		if aborted(ctx, err) {
			return nil, m.abort(run, rel, archivePath, installDir, preExisting, ctxCause(ctx, err))
		}
		m.cleanupArchive(archivePath)
		return nil, m.fail(run, &DownloadError{Version: rel.Version, URL: rel.DownloadURL, Err: err})
	}

	// Checksum phase. Mandatory whenever a manifest URL exists.
	run.SetPhase(journal.PhaseVerifying, nil)
	m.journal(run)

	if err := m.verify(ctx, rel, archivePath); err != nil {
		if aborted(ctx, err) {
			return nil, m.abort(run, rel, archivePath, installDir, preExisting, ctxCause(ctx, err))
		}
		m.cleanupArchive(archivePath)
		return nil, m.fail(run, err)
	}

	// Extraction and commit phase.
	run.SetPhase(journal.PhaseExtracting, nil)
	m.journal(run)

	result, err := m.extractAndCommit(ctx, rel, opts, archivePath, installDir, preExisting, onProgress)
	if err != nil {
		return nil, m.fail(run, err)
	}

	run.SetPhase(journal.PhaseCompleted, nil)
	if m.journalDir != "" {
		if err := run.Remove(m.journalDir); err != nil {
			m.logger.Warn("remove journal entry", "error", err)
		}
	}

	return result, nil
}

// Uninstall removes a release's install subdirectory. Removing a
// release that is not installed is not an error.
func (m *Manager) Uninstall(targetDir string, rel Release) error {
	installDir := m.InstallPath(targetDir, rel)
	if err := os.RemoveAll(installDir); err != nil {
		return fmt.Errorf("remove install directory %s: %w", installDir, err)
	}
	m.logger.Info("release removed", "version", rel.Version, "path", installDir)
	return nil
}

// download streams the release archive into archivePath, translating
// byte counts into (state, progress) updates.
func (m *Manager) download(ctx context.Context, rel Release, archivePath string, onProgress ProgressFunc) error {
	m.logger.Info("downloading release",
		"version", rel.Version, "kind", rel.Kind.String(), "url", rel.DownloadURL)

	tracker := newRateTracker()
	return m.downloader.FetchFile(ctx, rel.DownloadURL, archivePath, rel.DiskSize,
		func(done, total int64) {
			onProgress(StateDownloading, tracker.snapshot(done, total))
		})
}

// verify enforces the checksum manifest when the release has one. An
// unverified install is allowed but flagged through the logger.
func (m *Manager) verify(ctx context.Context, rel Release, archivePath string) error {
	if rel.ChecksumURL == "" {
		m.logger.Warn("release has no checksum manifest, installing unverified",
			"version", rel.Version)
		return nil
	}

	manifest, err := m.downloader.FetchText(ctx, rel.ChecksumURL)
	if err != nil {
		return &DownloadError{Version: rel.Version, URL: rel.ChecksumURL, Err: err}
	}

	if m.keyring != nil && rel.SignatureURL != "" {
		signature, err := m.downloader.FetchText(ctx, rel.SignatureURL)
		if err != nil {
			return &DownloadError{Version: rel.Version, URL: rel.SignatureURL, Err: err}
		}
		if err := verifyManifestSignature(m.keyring, manifest, signature); err != nil {
			return &ChecksumMismatchError{Version: rel.Version, Err: err}
		}
	}

	digest, err := hashFileSHA512(archivePath)
	if err != nil {
		return &ChecksumMismatchError{Version: rel.Version, Err: err}
	}

	if !manifestContains(manifest, digest) {
		return &ChecksumMismatchError{Version: rel.Version, Digest: digest}
	}

	m.logger.Debug("checksum verified", "version", rel.Version, "sha512", digest)
	return nil
}

// extractAndCommit performs the commit half of the pipeline. For
// overwrite installs the existing directory is renamed aside first, so
// the canonical path either gains the fully extracted new install or is
// restored to the previous one.
func (m *Manager) extractAndCommit(ctx context.Context, rel Release, opts InstallOptions,
	archivePath, installDir string, preExisting bool, onProgress ProgressFunc) (*InstallResult, error) {

	backupDir := installDir + "_backup"
	restoreNeeded := false

	if opts.Overwrite && preExisting {
		// A backup directory already present means an earlier overwrite
		// never finished its cleanup; renaming over it would clobber the
		// only rollback copy.
		if dirExists(backupDir) {
			m.cleanupArchive(archivePath)
			return nil, &DirectoryCreationError{Version: rel.Version, Path: backupDir,
				Err: fmt.Errorf("backup directory already exists, a previous overwrite may have been interrupted")}
		}
		if err := os.Rename(installDir, backupDir); err != nil {
			m.cleanupArchive(archivePath)
			return nil, &DirectoryCreationError{Version: rel.Version, Path: backupDir, Err: err}
		}
		restoreNeeded = true
	}

	if err := os.MkdirAll(installDir, 0755); err != nil {
		m.cleanupArchive(archivePath)
		if restoreNeeded {
			if rerr := os.Rename(backupDir, installDir); rerr != nil {
				return nil, &RollbackError{Version: rel.Version, BackupPath: backupDir, Err: rerr}
			}
		}
		return nil, &DirectoryCreationError{Version: rel.Version, Path: installDir, Err: err}
	}

	tracker := newRateTracker()
	err := m.extractor.ExtractTo(ctx, archivePath, installDir, func(done, total int64) {
		onProgress(StateExtracting, tracker.snapshot(done, total))
	})
	if err != nil {
		m.cleanup(archivePath, installDir)
		if restoreNeeded {
			if rerr := os.Rename(backupDir, installDir); rerr != nil {
				return nil, &RollbackError{Version: rel.Version, BackupPath: backupDir, Err: rerr}
			}
		}
		if aborted(ctx, err) {
			return nil, &AbortError{Version: rel.Version, Err: ctxCause(ctx, err)}
		}
		return nil, &ExtractionError{Version: rel.Version, Err: err}
	}

	// Commit: the new install is complete, the backup is superseded.
	if restoreNeeded {
		if err := os.RemoveAll(backupDir); err != nil {
			m.logger.Warn("remove superseded backup", "path", backupDir, "error", err)
		}
	}
	m.cleanupArchive(archivePath)

	size, err := folderSize(installDir)
	if err != nil {
		m.logger.Warn("measure installed size", "path", installDir, "error", err)
	} else {
		rel.DiskSize = size
	}

	m.logger.Info("release installed",
		"version", rel.Version, "path", installDir, "size", rel.DiskSize)

	return &InstallResult{Release: rel, Path: installDir}, nil
}

// abort is the shared abort handler for the download and checksum
// phases: it deletes the archive and, when this run created it, the
// install subdirectory. It never touches a backup directory; before the
// extraction phase no existing install has been displaced, and during
// extraction restoration is handled by extractAndCommit.
func (m *Manager) abort(run *journal.InstallRun, rel Release,
	archivePath, installDir string, preExisting bool, cause error) error {

	m.cleanupArchive(archivePath)
	if !preExisting {
		if err := os.RemoveAll(installDir); err != nil {
			m.logger.Warn("remove install directory", "path", installDir, "error", err)
		}
	}

	abortErr := &AbortError{Version: rel.Version, Err: cause}
	run.SetPhase(journal.PhaseFailed, abortErr)
	m.journal(run)

	m.logger.Info("installation aborted", "version", rel.Version)
	return abortErr
}

// fail records a terminal failure in the journal and passes the error
// through; cleanup has already happened on the failing branch.
func (m *Manager) fail(run *journal.InstallRun, err error) error {
	run.SetPhase(journal.PhaseFailed, err)
	m.journal(run)
	return err
}

// cleanup removes the archive file and partially written install
// directory after a failed or aborted extraction.
func (m *Manager) cleanup(archivePath, installDir string) {
	m.cleanupArchive(archivePath)
	if err := os.RemoveAll(installDir); err != nil {
		m.logger.Warn("remove install directory", "path", installDir, "error", err)
	}
}

// cleanupArchive removes the downloaded archive best-effort.
func (m *Manager) cleanupArchive(archivePath string) {
	if err := removeIfExists(archivePath); err != nil {
		m.logger.Warn("remove archive", "path", archivePath, "error", err)
	}
}

// journal persists the run's current state best-effort; journaling
// never fails an install.
func (m *Manager) journal(run *journal.InstallRun) {
	if m.journalDir == "" {
		return
	}
	if err := run.Save(m.journalDir); err != nil {
		m.logger.Warn("save journal entry", "error", err)
	}
}

// aborted reports whether err represents cooperative cancellation
// rather than an ordinary failure.
func aborted(ctx context.Context, err error) bool {
	return ctx.Err() != nil ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

// ctxCause prefers the context's own error as the abort cause so
// callers can match errors.Is(err, context.Canceled).
func ctxCause(ctx context.Context, err error) error {
	if cerr := ctx.Err(); cerr != nil {
		return cerr
	}
	return err
}

// archiveName derives the on-disk archive filename from the tail of the
// download URL.
func archiveName(downloadURL string) string {
	if u, err := url.Parse(downloadURL); err == nil && u.Path != "" {
		return path.Base(u.Path)
	}
	return path.Base(downloadURL)
}
