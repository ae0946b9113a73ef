// Package config loads cellar's declarative Lua configuration.
//
// Configuration is a single cellar.lua file evaluated in a sandboxed
// Lua VM with a read-only platform table injected, so configs can
// branch on OS, architecture, and Linux distribution without running
// arbitrary system code.
package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// DefaultCatalogCount is the number of releases listed per repository
// when the config does not set one.
const DefaultCatalogCount = 15

// Config holds cellar's settings.
type Config struct {
	// InstallDir is the parent directory that receives install
	// subdirectories, one per bundle version.
	InstallDir string
	// Repositories names the enabled upstream repository kinds.
	Repositories []string
	// CatalogCount is how many releases to list per repository.
	CatalogCount int
}

// Default returns the configuration used when no cellar.lua exists.
func Default() *Config {
	return &Config{
		InstallDir:   defaultInstallDir(),
		Repositories: []string{"wine-ge", "proton-ge"},
		CatalogCount: DefaultCatalogCount,
	}
}

// Validate checks the configuration for usability.
func (c *Config) Validate() error {
	if c.InstallDir == "" {
		return fmt.Errorf("install_dir must not be empty")
	}
	if len(c.Repositories) == 0 {
		return fmt.Errorf("at least one repository must be enabled")
	}
	if c.CatalogCount <= 0 {
		return fmt.Errorf("catalog count must be positive, got %d", c.CatalogCount)
	}
	return nil
}

// JournalDir returns the directory that receives install journal
// entries for this configuration.
func (c *Config) JournalDir() string {
	return filepath.Join(c.InstallDir, ".journal")
}

func defaultInstallDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "cellar", "runners")
	}
	return filepath.Join(home, ".local", "share", "cellar", "runners")
}
