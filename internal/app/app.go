// Package app holds the start-up sequence shared by the draftkeep binaries.
package app

import (
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/debemdeboas/draftkeep/internal/config"
	"github.com/debemdeboas/draftkeep/internal/db"
	"github.com/debemdeboas/draftkeep/internal/draft"
	"github.com/debemdeboas/draftkeep/internal/editor"
	"github.com/debemdeboas/draftkeep/internal/guard"
	"github.com/debemdeboas/draftkeep/internal/logger"
	"github.com/debemdeboas/draftkeep/internal/render"
	"github.com/debemdeboas/draftkeep/internal/server"
)

// Bootstrap loads .env and the config file, then builds the root logger and
// hands a component logger to every package.
func Bootstrap(configPath string) (*config.Config, zerolog.Logger, error) {
	envErr := godotenv.Load()

	if configPath == "" {
		configPath = config.Path()
	}
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, zerolog.Nop(), err
	}

	root := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	SetLoggers(root)

	if envErr != nil {
		root.Debug().Err(envErr).Msg("No .env file loaded")
	}
	root.Debug().Str("config", configPath).Str("backend", cfg.Storage.Backend).Msg("Configuration loaded")

	return cfg, root, nil
}

func SetLoggers(root zerolog.Logger) {
	config.SetLogger(logger.Component(root, "config"))
	db.SetLogger(logger.Component(root, "db"))
	draft.SetLogger(logger.Component(root, "draft"))
	editor.SetLogger(logger.Component(root, "editor"))
	guard.SetLogger(logger.Component(root, "guard"))
	render.SetLogger(logger.Component(root, "render"))
	server.SetLogger(logger.Component(root, "server"))
}
