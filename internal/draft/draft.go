// Package draft persists the single in-progress article draft.
//
// Exactly one record exists at a time, stored under RecordID. Every Put is a
// full overwrite; Remove deletes the record entirely and is idempotent. All
// backends encode records the same way, so a draft written through one
// backend reads back identically through another.
package draft

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"time"

	"github.com/rs/zerolog"

	"github.com/debemdeboas/draftkeep/internal/util"
)

// RecordID is the fixed key of the single draft slot.
const RecordID = "current"

// Keys that belong to the record itself and cannot be used as auxiliary fields.
const (
	FieldID      = "id"
	FieldContent = "content"
)

var ErrNotFound = errors.New("draft: not found")

var draftLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	draftLogger = l
}

// now is replaced in tests.
var now = func() time.Time { return time.Now().UTC() }

type Record struct {
	ID      string
	Content []byte
	Fields  map[string]any

	SavedAt time.Time
	// Hash is the sha256 of Content.
	Hash string
}

// NewRecord builds a record from content and auxiliary fields.
func NewRecord(content []byte, fields map[string]any) *Record {
	return &Record{
		ID:      RecordID,
		Content: content,
		Fields:  fields,
	}
}

// Field returns an auxiliary field.
func (r *Record) Field(name string) (any, bool) {
	v, ok := r.Fields[name]
	return v, ok
}

// View merges the record into one map: every auxiliary field plus "id" and
// "content".
func (r *Record) View() map[string]any {
	view := make(map[string]any, len(r.Fields)+2)
	maps.Copy(view, r.Fields)
	view[FieldID] = r.ID
	view[FieldContent] = append([]byte(nil), r.Content...)
	return view
}

// Title is the front matter title or first heading of the content, unless a
// "title" field is set.
func (r *Record) Title() string {
	if title, ok := r.Fields["title"].(string); ok && title != "" {
		return title
	}
	return util.Title(r.Content)
}

// Store is single-slot draft persistence. Each call is its own transaction.
type Store interface {
	// Put overwrites the slot with r, stamping r.ID, r.SavedAt and r.Hash.
	Put(ctx context.Context, r *Record) error
	// Get returns ErrNotFound when the slot is empty. Other errors are
	// storage faults.
	Get(ctx context.Context) (*Record, error)
	// Remove empties the slot. Removing an empty slot is not an error.
	Remove(ctx context.Context) error
	Close() error
}

// Exists reports whether the store holds a draft.
func Exists(ctx context.Context, s Store) (bool, error) {
	_, err := s.Get(ctx)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}

type StorageError struct {
	Op      string
	Backend string
	Err     error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("draft %s on %s: %v", e.Op, e.Backend, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func storageErr(op, backend string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Op: op, Backend: backend, Err: err}
}

// stamp prepares r for writing and returns the fields that will be stored.
func stamp(r *Record) map[string]any {
	r.ID = RecordID
	r.SavedAt = now()
	r.Hash = util.ContentHash(r.Content)

	fields := make(map[string]any, len(r.Fields))
	for k, v := range r.Fields {
		if k == FieldID || k == FieldContent {
			draftLogger.Debug().Str("field", k).Msg("Dropping reserved auxiliary field")
			continue
		}
		fields[k] = v
	}
	return fields
}
