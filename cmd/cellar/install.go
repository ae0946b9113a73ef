package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/calebfourney/cellar/internal/bundle"
	"github.com/calebfourney/cellar/internal/catalog"
)

// runInstall handles the `cellar install` subcommand
func runInstall(args []string) error {
	showHelp := false
	overwrite := false
	verbose := false
	version := ""

	for _, arg := range args {
		switch arg {
		case "--help", "-h":
			showHelp = true
		case "--overwrite", "-f":
			overwrite = true
		case "--verbose", "-v":
			verbose = true
		default:
			if version == "" {
				version = arg
			}
		}
	}

	if showHelp || version == "" {
		printInstallHelp()
		if version == "" && !showHelp {
			return fmt.Errorf("missing release version argument")
		}
		return nil
	}

	// Ctrl-C aborts the pipeline cooperatively; the installer cleans up
	// partial state before returning.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg, info, err := loadConfig(ctx)
	if err != nil {
		return err
	}

	kinds, err := configuredKinds(cfg)
	if err != nil {
		return err
	}

	logger := &stderrLogger{verbose: verbose}

	fetcher := catalog.NewFetcher(
		catalog.WithPlatform(info),
		catalog.WithLogger(logger),
	)

	releases, err := fetcher.Fetch(ctx, catalog.Query{Kinds: kinds, Count: cfg.CatalogCount})
	if err != nil {
		return err
	}

	rel, ok := findRelease(releases, version)
	if !ok {
		return fmt.Errorf("release %q not found; run `cellar list` to see available versions", version)
	}

	if err := os.MkdirAll(cfg.InstallDir, 0755); err != nil {
		return fmt.Errorf("create install directory: %w", err)
	}

	mgr := bundle.NewManager(bundle.Config{
		JournalDir: cfg.JournalDir(),
		Logger:     logger,
	})

	result, err := mgr.Install(ctx, bundle.InstallOptions{
		Release:    rel,
		TargetDir:  cfg.InstallDir,
		Overwrite:  overwrite,
		OnProgress: renderProgress,
	})
	fmt.Println()
	if err != nil {
		var abort *bundle.AbortError
		if errors.As(err, &abort) {
			return fmt.Errorf("installation cancelled")
		}
		return err
	}

	fmt.Printf("Installed %s to %s (%s on disk)\n",
		result.Release.Version, result.Path, formatBytes(result.Release.DiskSize))

	return nil
}

// findRelease locates a release by version id.
func findRelease(releases []bundle.Release, version string) (bundle.Release, bool) {
	for _, rel := range releases {
		if rel.Version == version {
			return rel, true
		}
	}
	return bundle.Release{}, false
}

// renderProgress draws a single updating progress line.
func renderProgress(state bundle.State, p bundle.Progress) {
	fmt.Printf("\r%-12s %6.2f%%  eta %s  %s/s    ",
		state, p.Percentage, p.ETA, formatBytes(p.AvgSpeed))
}

func printInstallHelp() {
	fmt.Println("Usage: cellar install [options] <version>")
	fmt.Println()
	fmt.Println("Download, verify, and install a release into the install directory.")
	fmt.Println("Installing an already-installed version succeeds without re-downloading")
	fmt.Println("unless --overwrite is given.")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  -f, --overwrite  Replace an existing installation of this version")
	fmt.Println("  -v, --verbose    Show pipeline diagnostics")
	fmt.Println("  -h, --help       Show this help")
}
