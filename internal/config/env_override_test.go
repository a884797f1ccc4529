package config

import (
	"path/filepath"
	"testing"
)

func TestEnvOverrides(t *testing.T) {
	t.Setenv("DSPIKE_DB", "/tmp/runs-override.db")
	t.Setenv("DSPIKE_LOG_LEVEL", "debug")
	t.Setenv("DSPIKE_TOLERANCE", "1e-12")

	cfg := DefaultConfig()
	if err := cfg.applyEnvOverrides(); err != nil {
		t.Fatalf("applyEnvOverrides failed: %v", err)
	}

	if !cfg.Store.Enabled {
		t.Error("DSPIKE_DB should enable run history")
	}
	if cfg.Store.Path != "/tmp/runs-override.db" {
		t.Errorf("expected store path override, got %s", cfg.Store.Path)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected log level debug, got %s", cfg.Logging.Level)
	}
	if cfg.Solver.Tolerance != 1e-12 {
		t.Errorf("expected tolerance 1e-12, got %v", cfg.Solver.Tolerance)
	}
}

func TestEnvOverrides_BeatFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "dspike.yaml")
	cfg := DefaultConfig()
	cfg.Store.Path = "from-file.db"
	if err := cfg.Save(path); err != nil {
		t.Fatal(err)
	}

	t.Setenv("DSPIKE_DB", "from-env.db")
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Store.Path != "from-env.db" {
		t.Errorf("expected env to win, got %s", loaded.Store.Path)
	}
}

func TestEnvOverrides_InvalidTolerance(t *testing.T) {
	clearEnv(t)
	t.Setenv("DSPIKE_TOLERANCE", "tight")

	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected error for unparsable DSPIKE_TOLERANCE")
	}
}
