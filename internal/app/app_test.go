package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/debemdeboas/draftkeep/internal/config"
)

func TestBootstrap(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := []byte("version: 1\nstorage:\n  backend: fs\n  fs:\n    path: " + filepath.Join(dir, "d.json") + "\nlogging:\n  level: debug\n  format: json\n")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, log, err := Bootstrap(path)
	if err != nil {
		t.Fatalf("Bootstrap failed: %v", err)
	}
	if cfg.Storage.Backend != config.BackendFS {
		t.Errorf("Expected fs backend, got %q", cfg.Storage.Backend)
	}
	if log.GetLevel().String() != "debug" {
		t.Errorf("Expected debug level, got %s", log.GetLevel())
	}
}

func TestBootstrapInvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("storage:\n  backend: tape\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, _, err := Bootstrap(path); err == nil {
		t.Error("Expected invalid backend to fail")
	}
}
