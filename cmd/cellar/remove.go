package main

import (
	"context"
	"fmt"
	"time"

	"github.com/calebfourney/cellar/internal/bundle"
)

// runRemove handles the `cellar remove` subcommand
func runRemove(args []string) error {
	showHelp := false
	version := ""

	for _, arg := range args {
		switch arg {
		case "--help", "-h":
			showHelp = true
		default:
			if version == "" {
				version = arg
			}
		}
	}

	if showHelp {
		printRemoveHelp()
		return nil
	}
	if version == "" {
		printRemoveHelp()
		return fmt.Errorf("missing release version argument")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cfg, _, err := loadConfig(ctx)
	if err != nil {
		return err
	}

	mgr := bundle.NewManager(bundle.Config{Logger: &stderrLogger{}})
	rel := bundle.Release{Version: version}

	if !mgr.IsInstalled(cfg.InstallDir, rel) {
		return fmt.Errorf("release %q is not installed", version)
	}

	if err := mgr.Uninstall(cfg.InstallDir, rel); err != nil {
		return err
	}

	fmt.Printf("Removed %s\n", version)
	return nil
}

func printRemoveHelp() {
	fmt.Println("Usage: cellar remove <version>")
	fmt.Println()
	fmt.Println("Remove an installed release's directory.")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  -h, --help   Show this help")
}
