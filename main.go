package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/debemdeboas/draftkeep/internal/app"
	"github.com/debemdeboas/draftkeep/internal/config"
	"github.com/debemdeboas/draftkeep/internal/draft"
	"github.com/debemdeboas/draftkeep/internal/render"
	"github.com/debemdeboas/draftkeep/internal/server"
	"github.com/debemdeboas/draftkeep/internal/sse"
)

func main() {
	cfg, log, err := app.Bootstrap(config.Path())
	if err != nil {
		fmt.Fprintf(os.Stderr, config.ErrLoadConfigFmt+"\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("Server stopped")
	}
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	store, err := draft.Open(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf(config.ErrOpenStoreFmt, err)
	}
	defer store.Close()

	srv := server.New(store, render.NewPreviewer(cfg.Preview.SyntaxTheme), sse.NewSSEClients())
	addr := net.JoinHostPort(cfg.Server.Host, cfg.Server.Port)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.ListenAndServe(gctx, addr)
	})

	if fsStore, ok := store.(*draft.FSStore); ok {
		g.Go(func() error {
			return relayChanges(gctx, fsStore, srv)
		})
	}

	log.Info().Str("addr", addr).Str("backend", cfg.Storage.Backend).Msg("draftkeep ready")
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

type notifier interface {
	Notify(name, data string)
}

type watcher interface {
	Watch(ctx context.Context) (<-chan draft.Event, error)
}

// relayChanges forwards changes to the draft file, including those made by
// other processes such as the drafts CLI, to connected editors.
func relayChanges(ctx context.Context, w watcher, n notifier) error {
	events, err := w.Watch(ctx)
	if err != nil {
		return err
	}

	for ev := range events {
		n.Notify(sse.EventChanged, ev.Op.String())
	}
	return nil
}
