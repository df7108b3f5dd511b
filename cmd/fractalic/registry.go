package main

import (
	"context"
	"path/filepath"

	"github.com/fractalic-ai/fractalic/pkg/config"
	"github.com/fractalic-ai/fractalic/pkg/toolreg"
)

// buildRegistry wires pkg/toolreg's three priority tiers from cfg,
// resolving ManifestsDir/ScriptsDir relative to baseDir when set, and
// defaulting both to "<baseDir>/tools" when the config leaves them empty,
// so the local tool tiers live alongside the document by default.
func buildRegistry(ctx context.Context, cfg *config.Config, baseDir string) (*toolreg.Registry, error) {
	reg := toolreg.New()

	manifestsDir := cfg.ManifestsDir
	if manifestsDir == "" {
		manifestsDir = filepath.Join(baseDir, "tools")
	} else if !filepath.IsAbs(manifestsDir) {
		manifestsDir = filepath.Join(baseDir, manifestsDir)
	}
	if err := reg.LoadManifests(manifestsDir); err != nil {
		return nil, err
	}

	scriptsDir := cfg.ScriptsDir
	if scriptsDir == "" {
		scriptsDir = filepath.Join(baseDir, "tools")
	} else if !filepath.IsAbs(scriptsDir) {
		scriptsDir = filepath.Join(baseDir, scriptsDir)
	}
	if err := reg.DiscoverScripts(scriptsDir); err != nil {
		return nil, err
	}

	var active []config.MCPServer
	for _, s := range cfg.MCPServers {
		if !s.Disabled {
			active = append(active, s)
		}
	}
	if len(active) > 0 {
		if err := reg.ConnectMCPServers(ctx, active); err != nil {
			return nil, err
		}
	}

	return reg, nil
}
