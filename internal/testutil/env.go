// Package testutil provides utilities for testing cellar in isolation.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// SetupTestEnv points cellar at isolated temp directories for one test,
// so tests never touch the user's real configuration or installed
// bundles. Cleanup is handled by t.TempDir.
//
// It returns the config directory and the install directory.
func SetupTestEnv(t *testing.T) (configDir, installDir string) {
	t.Helper()

	tmpDir := t.TempDir()
	configDir = filepath.Join(tmpDir, "config")
	installDir = filepath.Join(tmpDir, "runners")

	t.Setenv("CELLAR_DIR", configDir)

	for _, dir := range []string{configDir, installDir} {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			t.Fatalf("failed to create test directory %s: %v", dir, err)
		}
	}

	return configDir, installDir
}

// WriteConfig writes a cellar.lua with the given contents into the
// config directory.
func WriteConfig(t *testing.T, configDir, luaCode string) string {
	t.Helper()

	path := filepath.Join(configDir, "cellar.lua")
	if err := os.WriteFile(path, []byte(luaCode), 0o600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	return path
}
