package draft

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/debemdeboas/draftkeep/internal/compression"
	"github.com/debemdeboas/draftkeep/internal/db"
)

const (
	upsertDraft = `INSERT INTO drafts (id, content, fields, content_hash, saved_at, compression)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET
    content = excluded.content,
    fields = excluded.fields,
    content_hash = excluded.content_hash,
    saved_at = excluded.saved_at,
    compression = excluded.compression`

	selectDraft = `SELECT content, fields, content_hash, saved_at, compression FROM drafts WHERE id = ?`

	deleteDraft = `DELETE FROM drafts WHERE id = ?`
)

// SQLStore keeps the draft as one row of the drafts table.
type SQLStore struct {
	db         db.DB
	compressor compression.Compressor
}

func NewSQLStore(d db.DB, c compression.Compressor) *SQLStore {
	return &SQLStore{
		db:         d,
		compressor: c,
	}
}

func (s *SQLStore) backend() string {
	return string(s.db.Dialect())
}

func (s *SQLStore) Put(ctx context.Context, r *Record) error {
	e, err := encode(r, s.compressor)
	if err != nil {
		return storageErr("put", s.backend(), err)
	}

	var fields sql.NullString
	if e.Fields != nil {
		fields = sql.NullString{String: string(e.Fields), Valid: true}
	}

	err = s.inTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, s.db.Dialect().Rebind(upsertDraft),
			RecordID, e.Content, fields, e.Hash, e.SavedAt, e.Compression)
		return err
	})
	if err != nil {
		return storageErr("put", s.backend(), fmt.Errorf("error saving draft: %w", err))
	}

	draftLogger.Debug().Str("hash", e.Hash).Int("size", len(r.Content)).Msg("Draft saved")
	return nil
}

func (s *SQLStore) Get(ctx context.Context) (*Record, error) {
	var (
		e      encoded
		fields sql.NullString
	)

	row := s.db.Get().QueryRowContext(ctx, s.db.Dialect().Rebind(selectDraft), RecordID)
	err := row.Scan(&e.Content, &fields, &e.Hash, &e.SavedAt, &e.Compression)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, storageErr("get", s.backend(), fmt.Errorf("error scanning draft: %w", err))
	}
	if fields.Valid {
		e.Fields = []byte(fields.String)
	}

	r, err := decode(&e)
	if err != nil {
		return nil, storageErr("get", s.backend(), err)
	}
	return r, nil
}

func (s *SQLStore) Remove(ctx context.Context) error {
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, s.db.Dialect().Rebind(deleteDraft), RecordID)
		return err
	})
	if err != nil {
		return storageErr("remove", s.backend(), fmt.Errorf("error deleting draft: %w", err))
	}

	draftLogger.Debug().Msg("Draft removed")
	return nil
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

func (s *SQLStore) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.Get().BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}
