package config

import (
	"path/filepath"
	"testing"
)

func TestDefaultEnablesEveryAnalysis(t *testing.T) {
	cfg := Default()
	if !cfg.EnableAsynchronous || !cfg.EnableStatistics || !cfg.EnableCriticalPath || !cfg.EnableDelayAnalysis {
		t.Errorf("Default() = %+v, want every analysis enabled", cfg)
	}
	if cfg.ArchiveDirectory != "" {
		t.Errorf("Default().ArchiveDirectory = %q, want empty", cfg.ArchiveDirectory)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg := Default()
	cfg.EnableCriticalPath = false
	cfg.ArchiveDirectory = "/tmp/waitscope-archive"

	if err := Save(cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got := Load()
	if got.EnableCriticalPath {
		t.Error("Load() after Save(EnableCriticalPath: false) returned true")
	}
	if got.ArchiveDirectory != cfg.ArchiveDirectory {
		t.Errorf("Load().ArchiveDirectory = %q, want %q", got.ArchiveDirectory, cfg.ArchiveDirectory)
	}
}

func TestPathUsesXDGConfigHome(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	want := filepath.Join(dir, "waitscope", "config.json")
	if got := Path(); got != want {
		t.Errorf("Path() = %q, want %q", got, want)
	}
}

func TestLoadFallsBackToDefaultsWhenFileMissing(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	got := Load()
	want := Default()
	if got != want {
		t.Errorf("Load() with no config file = %+v, want defaults %+v", got, want)
	}
}
