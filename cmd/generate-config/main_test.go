package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/debemdeboas/draftkeep/internal/config"
)

func TestExampleConfigLoads(t *testing.T) {
	data, err := exampleConfig()
	if err != nil {
		t.Fatalf("exampleConfig failed: %v", err)
	}

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := config.LoadConfig(path)
	if err != nil {
		t.Fatalf("Generated config does not load: %v", err)
	}

	want := &config.Config{}
	config.ApplyDefaults(want)
	if cfg.Storage != want.Storage || cfg.Editor != want.Editor || cfg.Server != want.Server {
		t.Errorf("Expected defaults to round-trip, got %+v", cfg)
	}
}
