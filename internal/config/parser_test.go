package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/calebfourney/cellar/internal/platform"
)

// stubDetector returns a fixed platform without touching the host.
type stubDetector struct {
	info *platform.Info
}

func (d *stubDetector) Detect(ctx context.Context) (*platform.Info, error) {
	return d.info, nil
}

func linuxAmd64() *stubDetector {
	return &stubDetector{info: &platform.Info{
		OS:      "linux",
		Arch:    "amd64",
		ArchRaw: "amd64",
		Distro:  "ubuntu",
		Family:  platform.FamilyDebian,
		Version: "22.04",
	}}
}

func TestParseString(t *testing.T) {
	p := NewParser(linuxAmd64())

	cfg, err := p.ParseString(context.Background(), `
		cellar = {
			install_dir = "/opt/runners",
			repositories = { "proton-ge" },
			catalog_count = 5,
		}
	`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.InstallDir != "/opt/runners" {
		t.Errorf("install dir = %s, want /opt/runners", cfg.InstallDir)
	}
	if len(cfg.Repositories) != 1 || cfg.Repositories[0] != "proton-ge" {
		t.Errorf("repositories = %v, want [proton-ge]", cfg.Repositories)
	}
	if cfg.CatalogCount != 5 {
		t.Errorf("catalog count = %d, want 5", cfg.CatalogCount)
	}
}

func TestParseStringDefaults(t *testing.T) {
	p := NewParser(linuxAmd64())

	// An empty cellar table keeps every default.
	cfg, err := p.ParseString(context.Background(), `cellar = {}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := Default()
	if cfg.InstallDir != want.InstallDir {
		t.Errorf("install dir = %s, want default %s", cfg.InstallDir, want.InstallDir)
	}
	if len(cfg.Repositories) != 2 {
		t.Errorf("repositories = %v, want both defaults", cfg.Repositories)
	}
	if cfg.CatalogCount != DefaultCatalogCount {
		t.Errorf("catalog count = %d, want %d", cfg.CatalogCount, DefaultCatalogCount)
	}
}

func TestParseStringPlatformConditional(t *testing.T) {
	p := NewParser(linuxAmd64())

	cfg, err := p.ParseString(context.Background(), `
		cellar = {
			install_dir = platform.when(platform.is_linux, "/linux/runners")
				or "/other/runners",
			repositories = {
				"wine-ge",
				platform.when(platform.is_macos, "proton-ge"),
			},
		}
	`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.InstallDir != "/linux/runners" {
		t.Errorf("install dir = %s, want the linux branch", cfg.InstallDir)
	}
	// The false conditional contributes a nil that is filtered out.
	if len(cfg.Repositories) != 1 || cfg.Repositories[0] != "wine-ge" {
		t.Errorf("repositories = %v, want [wine-ge]", cfg.Repositories)
	}
}

func TestParseStringDistroBranching(t *testing.T) {
	p := NewParser(linuxAmd64())

	cfg, err := p.ParseString(context.Background(), `
		local dir = "/generic"
		if platform.distro and platform.distro.family == "debian" then
			dir = "/debian"
		end
		cellar = { install_dir = dir }
	`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.InstallDir != "/debian" {
		t.Errorf("install dir = %s, want the debian branch", cfg.InstallDir)
	}
}

func TestParseStringErrors(t *testing.T) {
	tests := []struct {
		name    string
		luaCode string
		message string
	}{
		{
			name:    "syntax_error",
			luaCode: `cellar = {`,
			message: "Lua syntax error",
		},
		{
			name:    "missing_cellar_table",
			luaCode: `settings = {}`,
			message: "missing or invalid 'cellar' table",
		},
		{
			name:    "cellar_not_a_table",
			luaCode: `cellar = "oops"`,
			message: "missing or invalid 'cellar' table",
		},
		{
			name:    "empty_install_dir",
			luaCode: `cellar = { install_dir = "" }`,
			message: "config validation failed",
		},
		{
			name:    "invalid_catalog_count",
			luaCode: `cellar = { catalog_count = -3 }`,
			message: "config validation failed",
		},
	}

	p := NewParser(linuxAmd64())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.ParseString(context.Background(), tt.luaCode)

			var parseErr *ParseError
			if !errors.As(err, &parseErr) {
				t.Fatalf("expected ParseError, got %v", err)
			}
			if parseErr.Message != tt.message {
				t.Errorf("message = %q, want %q", parseErr.Message, tt.message)
			}
		})
	}
}

func TestParseStringSandbox(t *testing.T) {
	// Dangerous standard libraries are removed before user code runs.
	tests := []string{
		`cellar = { install_dir = os.getenv("HOME") }`,
		`io.open("/etc/passwd")`,
		`require("socket")`,
		`dofile("/tmp/x.lua")`,
		`load("return 1")()`,
	}

	p := NewParser(linuxAmd64())
	for _, luaCode := range tests {
		if _, err := p.ParseString(context.Background(), luaCode); err == nil {
			t.Errorf("sandboxed VM executed %q without error", luaCode)
		}
	}
}

func TestParseFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cellar.lua")
	luaCode := `cellar = { install_dir = "/opt/runners" }`
	if err := os.WriteFile(path, []byte(luaCode), 0644); err != nil {
		t.Fatal(err)
	}

	p := NewParser(linuxAmd64())
	cfg, err := p.ParseFile(context.Background(), path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.InstallDir != "/opt/runners" {
		t.Errorf("install dir = %s, want /opt/runners", cfg.InstallDir)
	}
}

func TestParseFileMissing(t *testing.T) {
	p := NewParser(linuxAmd64())

	cfg, err := p.ParseFile(context.Background(), filepath.Join(t.TempDir(), "cellar.lua"))
	if err != nil {
		t.Fatalf("missing config file must yield defaults, got error: %v", err)
	}
	if cfg.InstallDir != Default().InstallDir {
		t.Errorf("install dir = %s, want default", cfg.InstallDir)
	}
}

func TestFormatError(t *testing.T) {
	err := &ParseError{
		Message: "Lua syntax error",
		Detail:  "cellar.lua:3: '}' expected\nstack traceback:\n\t[G]: ...",
	}

	short := FormatError(err, false)
	if strings.Contains(short, "stack traceback") {
		t.Errorf("non-verbose output includes traceback: %q", short)
	}

	long := FormatError(err, true)
	if !strings.Contains(long, "stack traceback") {
		t.Errorf("verbose output misses the raw detail: %q", long)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "defaults_valid", mutate: func(c *Config) {}},
		{name: "empty_install_dir", mutate: func(c *Config) { c.InstallDir = "" }, wantErr: true},
		{name: "no_repositories", mutate: func(c *Config) { c.Repositories = nil }, wantErr: true},
		{name: "zero_count", mutate: func(c *Config) { c.CatalogCount = 0 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr && err == nil {
				t.Fatal("expected validation error")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestJournalDir(t *testing.T) {
	cfg := &Config{InstallDir: "/opt/runners"}
	if got := cfg.JournalDir(); got != filepath.Join("/opt/runners", ".journal") {
		t.Errorf("journal dir = %s", got)
	}
}
