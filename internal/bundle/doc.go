// Package bundle installs named, versioned runtime bundles from remote
// release archives into a local directory.
//
// # Pipeline
//
// An installation is a strict linear pipeline:
//
//	validate -> skip-check -> download -> checksum -> extract -> commit
//
// Progress for the download and extraction phases is reported to a
// caller-supplied callback as (state, {percentage, eta, avg speed})
// tuples. Cancelling the context aborts the run cooperatively at the
// next chunked read.
//
// # Failure handling
//
// Every failure mode maps to one typed error and a defined on-disk
// state. Partial downloads and partial extractions are always removed
// before an error is returned. Overwrite installs rename the existing
// install subdirectory to <dir>_backup before extracting, so a failed
// or aborted extraction restores the previous install untouched; the
// backup is discarded only after the new install is complete. The one
// state software cannot repair - a failed restoration rename - is
// surfaced loudly as *RollbackError instead of being swallowed.
//
// # Verification
//
// When a release carries a checksum manifest URL, the archive's SHA-512
// hex digest must appear in the fetched manifest text (substring
// containment; manifests list multiple hashes and filenames). A release
// without a manifest installs with a logged warning. Releases that also
// carry a detached GPG signature over the manifest are verified against
// the manager's keyring when one is configured.
//
// # Usage
//
//	mgr := bundle.NewManager(bundle.Config{Logger: log})
//	res, err := mgr.Install(ctx, bundle.InstallOptions{
//	    Release:   rel,
//	    TargetDir: "/home/user/.local/share/cellar/runners",
//	    OnProgress: func(state bundle.State, p bundle.Progress) {
//	        fmt.Printf("%s %.1f%% eta %s\n", state, p.Percentage, p.ETA)
//	    },
//	})
//
// # Architecture
//
// The package is organized into several components:
//   - Manager: high-level orchestration, commit and rollback
//   - Downloader: single-attempt HTTP streaming with progress
//   - Extractor: tar.gz / tar.xz extraction with progress
//   - checksum helpers: SHA-512 hashing and manifest matching
package bundle
