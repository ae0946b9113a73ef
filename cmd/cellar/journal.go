package main

import (
	"context"
	"fmt"
	"time"

	"github.com/calebfourney/cellar/internal/journal"
)

// runJournal handles the `cellar journal` subcommand
func runJournal(args []string) error {
	for _, arg := range args {
		switch arg {
		case "--help", "-h":
			printJournalHelp()
			return nil
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cfg, _, err := loadConfig(ctx)
	if err != nil {
		return err
	}

	runs, err := journal.List(cfg.JournalDir())
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("No journal entries. All recorded installs completed cleanly.")
		return nil
	}

	fmt.Printf("%-28s %-12s %-12s %s\n", "RELEASE", "KIND", "PHASE", "UPDATED")
	for _, run := range runs {
		fmt.Printf("%-28s %-12s %-12s %s\n",
			run.Release, run.Kind, run.Phase, run.UpdatedAt.Format(time.RFC3339))
		if run.LastError != "" {
			fmt.Printf("    last error: %s\n", run.LastError)
		}
	}

	return nil
}

func printJournalHelp() {
	fmt.Println("Usage: cellar journal")
	fmt.Println()
	fmt.Println("Show journal entries left behind by interrupted or failed installs.")
	fmt.Println("Completed installs remove their entries automatically.")
}
