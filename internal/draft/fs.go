package draft

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/debemdeboas/draftkeep/internal/compression"
)

// FSStore keeps the draft as one JSON document on disk. Writes go to a temp
// file that is renamed over the document, so readers never see a partial draft.
type FSStore struct {
	path       string
	compressor compression.Compressor
}

func NewFSStore(path string, c compression.Compressor) *FSStore {
	return &FSStore{
		path:       path,
		compressor: c,
	}
}

func (s *FSStore) Path() string {
	return s.path
}

func (s *FSStore) Put(ctx context.Context, r *Record) error {
	if err := ctx.Err(); err != nil {
		return storageErr("put", "fs", err)
	}

	e, err := encode(r, s.compressor)
	if err != nil {
		return storageErr("put", "fs", err)
	}
	data, err := marshalEnvelope(e)
	if err != nil {
		return storageErr("put", "fs", err)
	}

	if err := writeAtomic(s.path, data); err != nil {
		return storageErr("put", "fs", err)
	}

	draftLogger.Debug().Str("path", s.path).Str("hash", e.Hash).Msg("Draft saved")
	return nil
}

func (s *FSStore) Get(ctx context.Context) (*Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, storageErr("get", "fs", err)
	}

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, storageErr("get", "fs", err)
	}

	e, err := unmarshalEnvelope(data)
	if err != nil {
		return nil, storageErr("get", "fs", err)
	}
	r, err := decode(e)
	if err != nil {
		return nil, storageErr("get", "fs", err)
	}
	return r, nil
}

func (s *FSStore) Remove(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return storageErr("remove", "fs", err)
	}

	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return storageErr("remove", "fs", err)
	}
	return nil
}

func (s *FSStore) Close() error {
	return nil
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}

	return os.Rename(tmpPath, path)
}

type EventOp int

const (
	EventSaved EventOp = iota + 1
	EventRemoved
)

func (op EventOp) String() string {
	switch op {
	case EventSaved:
		return "saved"
	case EventRemoved:
		return "deleted"
	default:
		return "unknown"
	}
}

type Event struct {
	Op EventOp
	At time.Time
}

// Watch reports changes to the draft document made by any process, this one
// included. The channel is closed once ctx is done.
func (s *FSStore) Watch(ctx context.Context) (<-chan Event, error) {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, storageErr("watch", "fs", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, storageErr("watch", "fs", err)
	}
	// The directory is watched because the document is replaced by rename.
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, storageErr("watch", "fs", fmt.Errorf("error watching %s: %w", dir, err))
	}

	target := filepath.Clean(s.path)
	events := make(chan Event, 8)

	go func() {
		defer close(events)
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != target {
					continue
				}

				var op EventOp
				switch {
				case ev.Has(fsnotify.Create), ev.Has(fsnotify.Write):
					op = EventSaved
				case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
					op = EventRemoved
				default:
					continue
				}

				select {
				case events <- Event{Op: op, At: now()}:
				case <-ctx.Done():
					return
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				draftLogger.Warn().Err(err).Str("path", s.path).Msg("Draft watcher error")
			}
		}
	}()

	return events, nil
}
