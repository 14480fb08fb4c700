package draft

import (
	"context"

	"github.com/debemdeboas/draftkeep/internal/cache"
	"github.com/debemdeboas/draftkeep/internal/compression"
)

// MemoryStore keeps the draft for the lifetime of the process.
type MemoryStore struct {
	slot       *cache.Cache[string, *encoded]
	compressor compression.Compressor
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		slot:       cache.NewCache[string, *encoded](),
		compressor: compression.NoneCompressor{},
	}
}

func (m *MemoryStore) Put(ctx context.Context, r *Record) error {
	if err := ctx.Err(); err != nil {
		return storageErr("put", "memory", err)
	}

	e, err := encode(r, m.compressor)
	if err != nil {
		return storageErr("put", "memory", err)
	}
	m.slot.Set(RecordID, e)
	return nil
}

func (m *MemoryStore) Get(ctx context.Context) (*Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, storageErr("get", "memory", err)
	}

	e, ok := m.slot.Get(RecordID)
	if !ok {
		return nil, ErrNotFound
	}

	r, err := decode(e)
	return r, storageErr("get", "memory", err)
}

func (m *MemoryStore) Remove(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return storageErr("remove", "memory", err)
	}

	m.slot.Delete(RecordID)
	return nil
}

func (m *MemoryStore) Close() error {
	return nil
}
