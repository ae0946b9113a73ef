package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/calebfourney/cellar/internal/bundle"
	"github.com/calebfourney/cellar/internal/config"
	"github.com/calebfourney/cellar/internal/platform"
)

// loadConfig reads cellar.lua from the cellar directory, falling back
// to defaults when the file does not exist.
func loadConfig(ctx context.Context) (*config.Config, *platform.Info, error) {
	cellarDir, err := getCellarDir()
	if err != nil {
		return nil, nil, err
	}

	detector := platform.NewDetector()
	info, err := detector.Detect(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("detect platform: %w", err)
	}

	parser := config.NewParser(detector)
	cfg, err := parser.ParseFile(ctx, filepath.Join(cellarDir, "cellar.lua"))
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %s", config.FormatError(err, false))
	}

	return cfg, info, nil
}

// configuredKinds converts the config's repository names into kinds,
// failing on the first unknown name.
func configuredKinds(cfg *config.Config) ([]bundle.Kind, error) {
	kinds := make([]bundle.Kind, 0, len(cfg.Repositories))
	for _, name := range cfg.Repositories {
		kind, err := bundle.ParseKind(name)
		if err != nil {
			return nil, fmt.Errorf("config repository %q: %w", name, err)
		}
		kinds = append(kinds, kind)
	}
	return kinds, nil
}
