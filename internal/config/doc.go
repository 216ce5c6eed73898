// Package config loads editor settings.
//
// Settings come from layered sources, each overriding the ones before:
//
//	┌─────────────────────────────┐
//	│  4. Environment (FREYA_*)   │  ← Highest priority
//	├─────────────────────────────┤
//	│  3. Explicit --config file  │
//	├─────────────────────────────┤
//	│  2. Project .freya/config   │
//	├─────────────────────────────┤
//	│  1. User config             │  ← ~/.config/freya-editor/config.toml
//	├─────────────────────────────┤
//	│  0. Built-in defaults       │  ← Lowest priority
//	└─────────────────────────────┘
//
// Files may be TOML (.toml) or YAML (.yaml, .yml).
//
// # Basic Usage
//
//	cfg, err := config.Load(config.WithFile(path))
//	if err != nil {
//	    return err
//	}
//	servers := cfg.LSP.ServerTable()
package config
