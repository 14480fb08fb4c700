package draft

import (
	"context"
	"fmt"

	"github.com/debemdeboas/draftkeep/internal/compression"
	"github.com/debemdeboas/draftkeep/internal/config"
	"github.com/debemdeboas/draftkeep/internal/db"
)

// Open builds the store selected by cfg.Backend.
func Open(ctx context.Context, cfg config.StorageConfig) (Store, error) {
	c, err := compression.ForName(cfg.Compression)
	if err != nil {
		return nil, err
	}

	switch cfg.Backend {
	case config.BackendMemory:
		return NewMemoryStore(), nil
	case config.BackendSQLite, "":
		conn := db.NewSQLite(cfg.SQLite.Path)
		if err := conn.InitDB(); err != nil {
			conn.Close()
			return nil, fmt.Errorf("error opening sqlite draft store: %w", err)
		}
		return NewSQLStore(conn, c), nil
	case config.BackendPostgres:
		conn := db.NewPostgres(cfg.Postgres.DSN)
		if err := conn.InitDB(); err != nil {
			return nil, fmt.Errorf("error opening postgres draft store: %w", err)
		}
		return NewSQLStore(conn, c), nil
	case config.BackendFS:
		return NewFSStore(cfg.FS.Path, c), nil
	case config.BackendS3:
		client, err := NewS3Client(ctx, cfg.S3)
		if err != nil {
			return nil, err
		}
		return NewS3Store(client, cfg.S3.Bucket, cfg.S3.Key, c), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
