package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/quvis/engine/pkg/layout"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDefaults(t *testing.T) {
	cfg := Default()
	if cfg.History.BatchSize != 500 {
		t.Errorf("default batch size = %d, want 500", cfg.History.BatchSize)
	}
	if cfg.History.DecayBase != 1.3 {
		t.Errorf("default decay base = %v, want 1.3", cfg.History.DecayBase)
	}
	if cfg.Layout != layout.DefaultParams() {
		t.Errorf("default layout params = %+v, want %+v", cfg.Layout, layout.DefaultParams())
	}
	if cfg.LogLevel != "INFO" || !cfg.Metrics {
		t.Errorf("defaults = %+v, want INFO log level and metrics on", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate, got %v", err)
	}
}

func TestLoadLayersOverDefaults(t *testing.T) {
	path := writeConfig(t, `
history:
  batch_size: 250
layout:
  iterations: 150
log_level: DEBUG
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.History.BatchSize != 250 {
		t.Errorf("batch size = %d, want 250", cfg.History.BatchSize)
	}
	// Unset keys keep their defaults
	if cfg.History.DecayBase != 1.3 {
		t.Errorf("decay base = %v, want default 1.3", cfg.History.DecayBase)
	}
	if cfg.Layout.Iterations != 150 {
		t.Errorf("iterations = %d, want 150", cfg.Layout.Iterations)
	}
	if cfg.Layout.CoolingFactor != layout.DefaultParams().CoolingFactor {
		t.Errorf("cooling factor = %v, want default", cfg.Layout.CoolingFactor)
	}
	if cfg.LogLevel != "DEBUG" {
		t.Errorf("log level = %q, want DEBUG", cfg.LogLevel)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	cases := []struct {
		name    string
		body    string
		wantErr error
	}{
		{"zero batch size", "history:\n  batch_size: 0\n", ErrBadBatchSize},
		{"decay base one", "history:\n  decay_base: 1.0\n", ErrBadDecayBase},
		{"bad cooling factor", "layout:\n  cooling_factor: 1.5\n", layout.ErrBadCooling},
		{"bad ideal distance", "layout:\n  ideal_distance: -1\n", layout.ErrBadDistance},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.body))
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("Load error = %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected an error for a missing config file")
	}
}

func TestLoadMalformedYAML(t *testing.T) {
	if _, err := Load(writeConfig(t, "history: [not a map")); err == nil {
		t.Error("expected a parse error for malformed YAML")
	}
}
