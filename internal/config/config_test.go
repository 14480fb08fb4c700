package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("Failed to write config content: %v", err)
	}
	return path
}

func TestApplyDefaults(t *testing.T) {
	t.Run("Config struct defaults", func(t *testing.T) {
		config := &Config{}
		applyDefaults(config)

		if config.Version != CurrentVersion {
			t.Errorf("Expected version %d, got %d", CurrentVersion, config.Version)
		}
		if config.Storage.Backend != BackendSQLite {
			t.Errorf("Expected backend 'sqlite', got %q", config.Storage.Backend)
		}
		if config.Storage.Compression != "zstd" {
			t.Errorf("Expected compression 'zstd', got %q", config.Storage.Compression)
		}
		if config.Storage.SQLite.Path != "./drafts.db" {
			t.Errorf("Expected sqlite path './drafts.db', got %q", config.Storage.SQLite.Path)
		}
		if config.Storage.FS.Path != "./draft.json" {
			t.Errorf("Expected fs path './draft.json', got %q", config.Storage.FS.Path)
		}
		if config.Storage.S3.Key != "drafts/current.json" {
			t.Errorf("Expected s3 key 'drafts/current.json', got %q", config.Storage.S3.Key)
		}
		if config.Storage.S3.Region != "auto" {
			t.Errorf("Expected s3 region 'auto', got %q", config.Storage.S3.Region)
		}
		if config.Editor.AutosaveDelay != 2*time.Second {
			t.Errorf("Expected autosave delay 2s, got %s", config.Editor.AutosaveDelay)
		}
		if config.Editor.SaveTimeout != 5*time.Second {
			t.Errorf("Expected save timeout 5s, got %s", config.Editor.SaveTimeout)
		}
		if config.Editor.PromptMessage != "Save draft before leaving?" {
			t.Errorf("Unexpected prompt message %q", config.Editor.PromptMessage)
		}
		if config.Server.Port != "12601" {
			t.Errorf("Expected port '12601', got %q", config.Server.Port)
		}
		if config.Preview.SyntaxTheme != "gruvbox" {
			t.Errorf("Expected syntax theme 'gruvbox', got %q", config.Preview.SyntaxTheme)
		}
		if config.Logging.Level != "info" {
			t.Errorf("Expected logging level 'info', got %q", config.Logging.Level)
		}
	})

	t.Run("Custom struct with various field types", func(t *testing.T) {
		type TestStruct struct {
			StringField   string        `default:"test-string"`
			BoolField     bool          `default:"true"`
			IntField      int           `default:"42"`
			Int64Field    int64         `default:"64"`
			DurationField time.Duration `default:"1m30s"`
			Float64Field  float64       `default:"3.14"`
			SliceField    []string      `default:"a,b,c"`
			NoDefault     string
		}

		test := &TestStruct{}
		applyDefaults(test)

		if test.StringField != "test-string" {
			t.Errorf("Expected string field 'test-string', got %q", test.StringField)
		}
		if !test.BoolField {
			t.Error("Expected bool field to be true")
		}
		if test.IntField != 42 {
			t.Errorf("Expected int field 42, got %d", test.IntField)
		}
		if test.Int64Field != 64 {
			t.Errorf("Expected int64 field 64, got %d", test.Int64Field)
		}
		if test.DurationField != 90*time.Second {
			t.Errorf("Expected duration 1m30s, got %s", test.DurationField)
		}
		if test.Float64Field != 3.14 {
			t.Errorf("Expected float64 field 3.14, got %f", test.Float64Field)
		}
		if !reflect.DeepEqual(test.SliceField, []string{"a", "b", "c"}) {
			t.Errorf("Expected slice [a b c], got %v", test.SliceField)
		}
		if test.NoDefault != "" {
			t.Errorf("Expected no default field to be empty, got %q", test.NoDefault)
		}
	})

	t.Run("Invalid default values", func(t *testing.T) {
		type InvalidStruct struct {
			BadBool     bool          `default:"not-a-bool"`
			BadInt      int           `default:"not-an-int"`
			BadDuration time.Duration `default:"soon"`
		}

		test := &InvalidStruct{}
		applyDefaults(test)

		if test.BadBool || test.BadInt != 0 || test.BadDuration != 0 {
			t.Errorf("Expected invalid defaults to leave zero values, got %+v", test)
		}
	})

	t.Run("Non-struct input", func(t *testing.T) {
		stringVar := "test"
		applyDefaults(&stringVar)
		applyDefaults(stringVar)
		applyDefaults(42)
		applyDefaults(nil)
	})
}

func TestLoadConfig(t *testing.T) {
	SetLogger(zerolog.New(os.Stdout).Level(zerolog.ErrorLevel))

	t.Run("Load non-existent config file", func(t *testing.T) {
		originalAppConfig := AppConfig
		defer func() { AppConfig = originalAppConfig }()

		cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
		if err != nil {
			t.Fatalf("Expected no error for non-existent config file, got %v", err)
		}
		if AppConfig != cfg {
			t.Error("Expected AppConfig to be set to the loaded config")
		}
		if cfg.Storage.Backend != BackendSQLite {
			t.Errorf("Expected default backend, got %q", cfg.Storage.Backend)
		}
	})

	t.Run("Load valid config file", func(t *testing.T) {
		path := writeConfig(t, `
version: 1
storage:
  backend: fs
  compression: gzip
  fs:
    path: /tmp/custom-draft.json
editor:
  autosave_delay: 750ms
  save_timeout: 3s
server:
  port: "8080"
`)
		cfg, err := LoadConfig(path)
		if err != nil {
			t.Fatalf("Expected no error loading valid config, got %v", err)
		}

		if cfg.Storage.Backend != BackendFS {
			t.Errorf("Expected backend 'fs', got %q", cfg.Storage.Backend)
		}
		if cfg.Storage.Compression != "gzip" {
			t.Errorf("Expected compression 'gzip', got %q", cfg.Storage.Compression)
		}
		if cfg.Storage.FS.Path != "/tmp/custom-draft.json" {
			t.Errorf("Unexpected fs path %q", cfg.Storage.FS.Path)
		}
		if cfg.Editor.AutosaveDelay != 750*time.Millisecond {
			t.Errorf("Expected autosave delay 750ms, got %s", cfg.Editor.AutosaveDelay)
		}
		if cfg.Editor.SaveTimeout != 3*time.Second {
			t.Errorf("Expected save timeout 3s, got %s", cfg.Editor.SaveTimeout)
		}
		if cfg.Server.Port != "8080" {
			t.Errorf("Expected port '8080', got %q", cfg.Server.Port)
		}
		// Unspecified fields keep their defaults
		if cfg.Server.Host != "127.0.0.1" {
			t.Errorf("Expected default host, got %q", cfg.Server.Host)
		}
		if cfg.Editor.UnloadMessage == "" {
			t.Error("Expected default unload message")
		}
	})

	t.Run("Load invalid YAML file", func(t *testing.T) {
		path := writeConfig(t, "storage:\n  backend: \"sqlite\"\n  invalid yaml syntax [\n")

		_, err := LoadConfig(path)
		if err == nil {
			t.Fatal("Expected error loading invalid config file")
		}
		if !strings.Contains(err.Error(), "failed to parse config file") {
			t.Errorf("Expected parse error, got %v", err)
		}
	})

	t.Run("Environment overrides secrets", func(t *testing.T) {
		t.Setenv(EnvS3AccessKeyID, "AKIA-TEST")
		t.Setenv(EnvS3SecretAccessKey, "secret")
		path := writeConfig(t, "storage:\n  backend: s3\n  s3:\n    bucket: drafts\n")

		cfg, err := LoadConfig(path)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if cfg.Storage.S3.AccessKeyID != "AKIA-TEST" || cfg.Storage.S3.SecretAccessKey != "secret" {
			t.Errorf("Expected env credentials, got %+v", cfg.Storage.S3)
		}
	})
}

func TestValidate(t *testing.T) {
	testCases := []struct {
		name      string
		mutate    func(*Config)
		errorText string
	}{
		{name: "Defaults are valid", mutate: func(*Config) {}},
		{name: "Unsupported version", mutate: func(c *Config) { c.Version = 2 }, errorText: "unsupported configuration version"},
		{name: "Unknown backend", mutate: func(c *Config) { c.Storage.Backend = "indexeddb" }, errorText: "unknown storage backend"},
		{name: "Postgres without DSN", mutate: func(c *Config) { c.Storage.Backend = BackendPostgres }, errorText: "dsn is required"},
		{name: "SQLite without path", mutate: func(c *Config) { c.Storage.SQLite.Path = "" }, errorText: "sqlite.path is required"},
		{name: "SQLite in memory", mutate: func(c *Config) { c.Storage.SQLite.Path = ":memory:" }, errorText: "must be a file"},
		{name: "SQLite path with URI delimiters", mutate: func(c *Config) { c.Storage.SQLite.Path = "./drafts?v=1#a.db" }},
		{name: "S3 without bucket", mutate: func(c *Config) { c.Storage.Backend = BackendS3 }, errorText: "bucket is required"},
		{name: "Zero save timeout", mutate: func(c *Config) { c.Editor.SaveTimeout = 0 }, errorText: "save_timeout"},
		{name: "Negative autosave delay", mutate: func(c *Config) { c.Editor.AutosaveDelay = -time.Second }, errorText: "autosave_delay"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := &Config{}
			ApplyDefaults(cfg)
			tc.mutate(cfg)

			err := cfg.Validate()
			if tc.errorText == "" {
				if err != nil {
					t.Errorf("Expected no error but got: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.errorText) {
				t.Errorf("Expected error containing %q, got %v", tc.errorText, err)
			}
		})
	}
}

func TestDefaultsRoundTripThroughYAML(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	data, err := yaml.Marshal(cfg)
	if err != nil {
		t.Fatalf("Failed to marshal defaults: %v", err)
	}
	if !strings.Contains(string(data), "autosave_delay: 2s") {
		t.Errorf("Expected durations to be written as strings, got:\n%s", data)
	}

	var back Config
	if err := yaml.Unmarshal(data, &back); err != nil {
		t.Fatalf("Failed to parse generated config: %v", err)
	}
	if !reflect.DeepEqual(*cfg, back) {
		t.Errorf("Generated config does not load back to the defaults:\n%+v\n%+v", *cfg, back)
	}
}

func TestPath(t *testing.T) {
	t.Setenv(EnvPath, "")
	if Path() != DefaultPath {
		t.Errorf("Expected %q, got %q", DefaultPath, Path())
	}

	t.Setenv(EnvPath, "/etc/draftkeep.yaml")
	if Path() != "/etc/draftkeep.yaml" {
		t.Errorf("Expected env path, got %q", Path())
	}
}
