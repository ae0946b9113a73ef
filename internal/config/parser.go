package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	lua "github.com/yuin/gopher-lua"

	"github.com/calebfourney/cellar/internal/platform"
)

// Parser represents a Lua config parser with platform detection.
type Parser struct {
	detector platform.Detector
}

// NewParser creates a new config parser with the given platform detector.
func NewParser(detector platform.Detector) *Parser {
	return &Parser{detector: detector}
}

// ParseFile parses a cellar.lua file from disk. A missing file yields
// the default configuration.
func (p *Parser) ParseFile(ctx context.Context, path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}

	return p.ParseString(ctx, string(data))
}

// ParseString parses a Lua config from a string.
// This is useful for testing and in-memory config generation.
func (p *Parser) ParseString(ctx context.Context, luaCode string) (*Config, error) {
	L := newSandboxedVM()
	defer L.Close()

	// Detect platform and inject platform table
	if p.detector != nil {
		platformInfo, err := p.detector.Detect(ctx)
		if err != nil {
			return nil, fmt.Errorf("platform detection failed: %w", err)
		}
		if err := platform.InjectPlatformTable(L, platformInfo); err != nil {
			return nil, fmt.Errorf("inject platform table: %w", err)
		}
	}

	if err := L.DoString(luaCode); err != nil {
		return nil, &ParseError{
			Message: "Lua syntax error",
			Detail:  err.Error(),
		}
	}

	return extractConfig(L)
}

// ParseError represents a config parsing error with friendly message.
type ParseError struct {
	Message string // User-friendly message
	Detail  string // Technical details (raw Lua error)
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %s", e.Message, e.Detail)
}

// extractConfig extracts the config from a Lua state.
// It expects a global "cellar" table with the config structure.
func extractConfig(L *lua.LState) (*Config, error) {
	cellarTable := L.GetGlobal("cellar")
	if cellarTable.Type() != lua.LTTable {
		return nil, &ParseError{
			Message: "missing or invalid 'cellar' table",
			Detail:  fmt.Sprintf("expected table, got %s", cellarTable.Type()),
		}
	}

	config := Default()
	table := cellarTable.(*lua.LTable)

	if dirVal := table.RawGetString("install_dir"); dirVal.Type() == lua.LTString {
		config.InstallDir = dirVal.String()
	}

	if reposVal := table.RawGetString("repositories"); reposVal.Type() == lua.LTTable {
		config.Repositories = extractRepositories(reposVal.(*lua.LTable))
	}

	if countVal := table.RawGetString("catalog_count"); countVal.Type() == lua.LTNumber {
		config.CatalogCount = int(lua.LVAsNumber(countVal))
	}

	if err := config.Validate(); err != nil {
		return nil, &ParseError{
			Message: "config validation failed",
			Detail:  err.Error(),
		}
	}

	return config, nil
}

// extractRepositories extracts the repositories array from a Lua table.
// It filters out nil values from platform conditionals.
func extractRepositories(table *lua.LTable) []string {
	var repos []string

	table.ForEach(func(key, value lua.LValue) {
		// Skip nil values (from conditionals like: platform.when(platform.is_linux, "proton-ge"))
		if value.Type() != lua.LTString {
			return
		}
		repos = append(repos, value.String())
	})

	return repos
}

// FormatError formats a ParseError for user display.
// In verbose mode, show the raw Lua error. Otherwise, show friendly message.
func FormatError(err error, verbose bool) string {
	if parseErr, ok := err.(*ParseError); ok {
		if verbose {
			return fmt.Sprintf("%s\n\nDetails:\n%s", parseErr.Message, parseErr.Detail)
		}
		detail := parseErr.Detail
		if idx := strings.Index(detail, "stack traceback"); idx > 0 {
			detail = strings.TrimSpace(detail[:idx])
		}
		return fmt.Sprintf("%s: %s", parseErr.Message, detail)
	}
	return err.Error()
}
