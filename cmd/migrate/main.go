package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/debemdeboas/draftkeep/internal/app"
	"github.com/debemdeboas/draftkeep/internal/config"
	"github.com/debemdeboas/draftkeep/internal/draft"
)

type options struct {
	configPath   string
	from, to     string
	fromLocation string
	toLocation   string
	removeSource bool
}

// withBackend points storage at backend, overriding where it keeps the draft
// when location is set. The location is a file path for sqlite and fs, a DSN
// for postgres and an object key for s3.
func withBackend(storage config.StorageConfig, backend, location string) config.StorageConfig {
	storage.Backend = backend
	if location == "" {
		return storage
	}

	switch backend {
	case config.BackendSQLite:
		storage.SQLite.Path = location
	case config.BackendFS:
		storage.FS.Path = location
	case config.BackendPostgres:
		storage.Postgres.DSN = location
	case config.BackendS3:
		storage.S3.Key = location
	}
	return storage
}

type opener func(ctx context.Context, cfg config.StorageConfig) (draft.Store, error)

func migrate(ctx context.Context, log zerolog.Logger, open opener, storage config.StorageConfig, opts options) error {
	srcCfg := withBackend(storage, opts.from, opts.fromLocation)
	dstCfg := withBackend(storage, opts.to, opts.toLocation)
	if srcCfg == dstCfg {
		return fmt.Errorf("source and destination are the same store")
	}

	src, err := open(ctx, srcCfg)
	if err != nil {
		return fmt.Errorf("error opening source %s: %w", opts.from, err)
	}
	defer src.Close()

	dst, err := open(ctx, dstCfg)
	if err != nil {
		return fmt.Errorf("error opening destination %s: %w", opts.to, err)
	}
	defer dst.Close()

	copied, err := draft.Copy(ctx, src, dst)
	if err != nil {
		return err
	}
	if !copied {
		log.Info().Str("from", opts.from).Msg("No draft to migrate")
		return nil
	}
	log.Info().Str("from", opts.from).Str("to", opts.to).Msg("Draft migrated")

	if opts.removeSource {
		if err := src.Remove(ctx); err != nil {
			return fmt.Errorf("draft copied but source not removed: %w", err)
		}
		log.Info().Str("from", opts.from).Msg("Source draft removed")
	}
	return nil
}

func main() {
	var opts options
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Move the saved draft from one storage backend to another",
		Example: `  migrate --from sqlite --to fs
  migrate --from fs --from-location ./old.json --to s3 --remove-source`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := app.Bootstrap(opts.configPath)
			if err != nil {
				return err
			}
			return migrate(cmd.Context(), log, draft.Open, cfg.Storage, opts)
		},
	}

	cmd.Flags().StringVar(&opts.configPath, "config", "", "Config file")
	cmd.Flags().StringVar(&opts.from, "from", "", "Source backend (memory, sqlite, postgres, fs, s3)")
	cmd.Flags().StringVar(&opts.to, "to", "", "Destination backend")
	cmd.Flags().StringVar(&opts.fromLocation, "from-location", "", "Override the source path, DSN or key")
	cmd.Flags().StringVar(&opts.toLocation, "to-location", "", "Override the destination path, DSN or key")
	cmd.Flags().BoolVar(&opts.removeSource, "remove-source", false, "Delete the draft from the source after copying")
	cmd.MarkFlagRequired("from")
	cmd.MarkFlagRequired("to")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
