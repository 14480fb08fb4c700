package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

var configLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	configLogger = l
}

const (
	CurrentVersion = 1

	DefaultPath = "config.yaml"
	EnvPath     = "DRAFTKEEP_CONFIG"

	EnvS3AccessKeyID     = "DRAFTKEEP_S3_ACCESS_KEY_ID"
	EnvS3SecretAccessKey = "DRAFTKEEP_S3_SECRET_ACCESS_KEY"
	EnvPostgresDSN       = "DRAFTKEEP_POSTGRES_DSN"
)

const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendFS       = "fs"
	BackendS3       = "s3"
)

// Config represents the complete configuration structure
type Config struct {
	Version int           `yaml:"version" default:"1"`
	Storage StorageConfig `yaml:"storage"`
	Editor  EditorConfig  `yaml:"editor"`
	Server  ServerConfig  `yaml:"server"`
	Preview PreviewConfig `yaml:"preview"`
	Logging LoggingConfig `yaml:"logging"`
}

type LoggingConfig struct {
	Level  string `yaml:"level" default:"info"`
	Format string `yaml:"format" default:"console"`
}

type StorageConfig struct {
	Backend     string         `yaml:"backend" default:"sqlite"`
	Compression string         `yaml:"compression" default:"zstd"`
	SQLite      SQLiteConfig   `yaml:"sqlite"`
	Postgres    PostgresConfig `yaml:"postgres"`
	FS          FSConfig       `yaml:"fs"`
	S3          S3Config       `yaml:"s3"`
}

type SQLiteConfig struct {
	Path string `yaml:"path" default:"./drafts.db"`
}

type PostgresConfig struct {
	DSN string `yaml:"dsn" default:""`
}

type FSConfig struct {
	Path string `yaml:"path" default:"./draft.json"`
}

type S3Config struct {
	Bucket          string `yaml:"bucket" default:""`
	Key             string `yaml:"key" default:"drafts/current.json"`
	Endpoint        string `yaml:"endpoint" default:""`
	Region          string `yaml:"region" default:"auto"`
	AccessKeyID     string `yaml:"access_key_id" default:""`
	SecretAccessKey string `yaml:"secret_access_key" default:""`
}

type EditorConfig struct {
	AutosaveDelay time.Duration `yaml:"autosave_delay" default:"2s"`
	SaveTimeout   time.Duration `yaml:"save_timeout" default:"5s"`
	PromptMessage string        `yaml:"prompt_message" default:"Save draft before leaving?"`
	UnloadMessage string        `yaml:"unload_message" default:"You have unsaved changes. Leave anyway?"`
}

type ServerConfig struct {
	Host string `yaml:"host" default:"127.0.0.1"`
	Port string `yaml:"port" default:"12601"`
}

type PreviewConfig struct {
	SyntaxTheme string `yaml:"syntax_theme" default:"gruvbox"`
}

var AppConfig *Config

// Path returns the config file location, honouring DRAFTKEEP_CONFIG.
func Path() string {
	if p := os.Getenv(EnvPath); p != "" {
		return p
	}
	return DefaultPath
}

func LoadConfig(path string) (*Config, error) {
	config := &Config{}

	// Apply default values first
	applyDefaults(config)

	data, err := os.ReadFile(path)
	if err != nil {
		// If file doesn't exist, just use defaults
		configLogger.Info().Str("path", path).Msg("Config file not found, using defaults")
	} else if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyEnv(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	AppConfig = config
	return config, nil
}

func (c *Config) Validate() error {
	if c.Version != CurrentVersion {
		return fmt.Errorf("unsupported configuration version %d", c.Version)
	}

	switch c.Storage.Backend {
	case BackendMemory, BackendFS:
	case BackendSQLite:
		// Each pooled connection to an in-memory database gets its own copy.
		switch c.Storage.SQLite.Path {
		case "":
			return fmt.Errorf("storage.sqlite.path is required for the sqlite backend")
		case ":memory:":
			return fmt.Errorf("storage.sqlite.path must be a file, use the memory backend instead")
		}
	case BackendPostgres:
		if c.Storage.Postgres.DSN == "" {
			return fmt.Errorf("storage.postgres.dsn is required for the postgres backend")
		}
	case BackendS3:
		if c.Storage.S3.Bucket == "" {
			return fmt.Errorf("storage.s3.bucket is required for the s3 backend")
		}
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}

	if c.Editor.SaveTimeout <= 0 {
		return fmt.Errorf("editor.save_timeout must be positive, got %s", c.Editor.SaveTimeout)
	}
	if c.Editor.AutosaveDelay < 0 {
		return fmt.Errorf("editor.autosave_delay must not be negative, got %s", c.Editor.AutosaveDelay)
	}
	return nil
}

func applyEnv(config *Config) {
	if v := os.Getenv(EnvS3AccessKeyID); v != "" {
		config.Storage.S3.AccessKeyID = v
	}
	if v := os.Getenv(EnvS3SecretAccessKey); v != "" {
		config.Storage.S3.SecretAccessKey = v
	}
	if v := os.Getenv(EnvPostgresDSN); v != "" {
		config.Storage.Postgres.DSN = v
	}
}

func ApplyDefaults(config interface{}) {
	applyDefaults(config)
}

var durationType = reflect.TypeOf(time.Duration(0))

func applyDefaults(config interface{}) {
	v := reflect.ValueOf(config)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}

	if v.Kind() != reflect.Struct {
		return
	}

	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldType := t.Field(i)

		if !field.IsValid() || !field.CanSet() {
			continue
		}

		// Recursively apply defaults to nested structs
		if field.Kind() == reflect.Struct {
			applyDefaults(field.Addr().Interface())
			continue
		}

		defaultValue := fieldType.Tag.Get("default")
		if defaultValue == "" {
			continue
		}

		switch field.Kind() {
		case reflect.String:
			field.SetString(defaultValue)
		case reflect.Bool:
			if val, err := strconv.ParseBool(defaultValue); err == nil {
				field.SetBool(val)
			}
		case reflect.Int:
			if val, err := strconv.ParseInt(defaultValue, 10, 64); err == nil {
				field.SetInt(val)
			}
		case reflect.Int64:
			if field.Type() == durationType {
				if val, err := time.ParseDuration(defaultValue); err == nil {
					field.SetInt(int64(val))
				}
			} else if val, err := strconv.ParseInt(defaultValue, 10, 64); err == nil {
				field.SetInt(val)
			}
		case reflect.Float64:
			if val, err := strconv.ParseFloat(defaultValue, 64); err == nil {
				field.SetFloat(val)
			}
		case reflect.Slice:
			if field.Len() == 0 && field.Type().Elem().Kind() == reflect.String {
				parts := strings.Split(defaultValue, ",")
				slice := reflect.MakeSlice(field.Type(), len(parts), len(parts))
				for j, part := range parts {
					slice.Index(j).SetString(strings.TrimSpace(part))
				}
				field.Set(slice)
			}
		default:
			configLogger.Warn().
				Str("field_name", fieldType.Name).
				Str("field_type", field.Kind().String()).
				Msg("Unsupported field type for default value")
		}
	}
}
