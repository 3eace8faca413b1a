// Package config holds the engine's user-configurable analysis options,
// loaded from a JSON file under XDG_CONFIG_HOME the same way the collector
// this engine descends from does.
package config

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
)

// Config holds the five options a run tunes (SPEC_FULL.md's ambient config
// section): which extra analyses to run, and where to keep the persistent
// time-map cache.
type Config struct {
	EnableAsynchronous bool   `json:"enable_asynchronous"`
	EnableStatistics   bool   `json:"enable_statistics"`
	EnableCriticalPath bool   `json:"enable_critical_path"`
	EnableDelayAnalysis bool  `json:"enable_delay_analysis"`
	ArchiveDirectory   string `json:"archive_directory"`
}

// Default returns a config with every analysis enabled and the archive
// directory unset (the engine then keeps its caches in memory).
func Default() Config {
	return Config{
		EnableAsynchronous:  true,
		EnableStatistics:    true,
		EnableCriticalPath:  true,
		EnableDelayAnalysis: true,
		ArchiveDirectory:    "",
	}
}

// Path returns ~/.config/waitscope/config.json (or XDG_CONFIG_HOME).
// Returns empty string if home directory cannot be determined.
func Path() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "" // refuse to fall back to /tmp (security risk)
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "waitscope", "config.json")
}

// Load loads config from disk; returns defaults on error.
func Load() Config {
	cfg := Default()
	p := Path()
	if p == "" {
		return cfg
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return cfg
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		log.Printf("waitscope: warning: config parse error: %v", err)
	}
	return cfg
}

// Save writes the config to disk.
func Save(cfg Config) error {
	path := Path()
	if path == "" {
		return fmt.Errorf("cannot determine config directory")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}
