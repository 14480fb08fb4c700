package main

import (
	"context"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/debemdeboas/draftkeep/internal/app"
	"github.com/debemdeboas/draftkeep/internal/config"
	"github.com/debemdeboas/draftkeep/internal/draft"
)

// env carries what every subcommand needs. Tests fill it in directly.
type env struct {
	configPath string
	cfg        *config.Config
	log        zerolog.Logger

	open func(ctx context.Context, cfg config.StorageConfig) (draft.Store, error)
	in   io.Reader
	exit func(code int)
}

func (e *env) store(ctx context.Context) (draft.Store, error) {
	return e.open(ctx, e.cfg.Storage)
}

func newRootCmd(e *env) *cobra.Command {
	root := &cobra.Command{
		Use:   "drafts",
		Short: "Inspect and edit the locally saved article draft",
		Long: `drafts works with the single article draft kept by draftkeep.

The draft lives in the storage backend named in the config file and
survives restarts. Saving overwrites it; deleting removes it.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if e.cfg != nil {
				return nil
			}
			cfg, log, err := app.Bootstrap(e.configPath)
			if err != nil {
				return err
			}
			e.cfg, e.log = cfg, log
			return nil
		},
	}
	root.PersistentFlags().StringVar(&e.configPath, "config", "", "Config file (default $"+config.EnvPath+" or "+config.DefaultPath+")")

	root.AddCommand(
		newStatusCmd(e),
		newShowCmd(e),
		newSaveCmd(e),
		newImportCmd(e),
		newDeleteCmd(e),
		newEditCmd(e),
	)
	return root
}

func main() {
	e := &env{
		open: draft.Open,
		in:   os.Stdin,
		exit: os.Exit,
	}
	if err := newRootCmd(e).Execute(); err != nil {
		os.Exit(1)
	}
}
