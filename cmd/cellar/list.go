package main

import (
	"context"
	"fmt"
	"time"

	"github.com/calebfourney/cellar/internal/catalog"
)

// runList handles the `cellar list` subcommand
func runList(args []string) error {
	showHelp := false
	verbose := false

	for _, arg := range args {
		switch arg {
		case "--help", "-h":
			showHelp = true
		case "--verbose", "-v":
			verbose = true
		}
	}

	if showHelp {
		printListHelp()
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	cfg, info, err := loadConfig(ctx)
	if err != nil {
		return err
	}

	kinds, err := configuredKinds(cfg)
	if err != nil {
		return err
	}

	fetcher := catalog.NewFetcher(
		catalog.WithPlatform(info),
		catalog.WithLogger(&stderrLogger{verbose: verbose}),
	)

	releases, err := fetcher.Fetch(ctx, catalog.Query{Kinds: kinds, Count: cfg.CatalogCount})
	if err != nil {
		return err
	}

	if len(releases) == 0 {
		fmt.Println("No releases found.")
		return nil
	}

	fmt.Printf("%-28s %-12s %-12s %s\n", "VERSION", "KIND", "RELEASED", "SIZE")
	for _, rel := range releases {
		released := ""
		if !rel.ReleasedAt.IsZero() {
			released = rel.ReleasedAt.Format("2006-01-02")
		}
		fmt.Printf("%-28s %-12s %-12s %s\n",
			rel.Version, rel.Kind, released, formatBytes(rel.DiskSize))
	}

	return nil
}

func printListHelp() {
	fmt.Println("Usage: cellar list [options]")
	fmt.Println()
	fmt.Println("List installable releases from the configured repositories.")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  -v, --verbose   Show per-repository fetch diagnostics")
	fmt.Println("  -h, --help      Show this help")
}
