package main

import (
	"fmt"
	"os"
)

// Version will be set at build time via -ldflags
var Version = "v0.1.0"

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version":
			fmt.Printf("cellar %s\n", Version)
			return
		case "list":
			if err := runList(os.Args[2:]); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			return
		case "install":
			if err := runInstall(os.Args[2:]); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			return
		case "remove":
			if err := runRemove(os.Args[2:]); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			return
		case "journal":
			if err := runJournal(os.Args[2:]); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			return
		}
	}

	// Default: show help
	fmt.Println("cellar - runtime bundle manager")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  cellar --version              Show version information")
	fmt.Println("  cellar list [options]         List installable releases")
	fmt.Println("  cellar install <version>      Download, verify, and install a release")
	fmt.Println("  cellar remove <version>       Remove an installed release")
	fmt.Println("  cellar journal                Show journal entries of interrupted installs")
	fmt.Println()
	fmt.Println("Configuration is read from ~/.config/cellar/cellar.lua when present.")
}

// getCellarDir returns the cellar configuration directory.
func getCellarDir() (string, error) {
	if dir := os.Getenv("CELLAR_DIR"); dir != "" {
		return dir, nil
	}

	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("determine user config directory: %w", err)
	}

	return configDir + string(os.PathSeparator) + "cellar", nil
}
