package editor

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/debemdeboas/draftkeep/internal/draft"
)

var editorLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	editorLogger = l
}

type Option func(*Controller)

// WithWarning sets the hook that receives save and delete failures.
func WithWarning(fn func(error)) Option {
	return func(c *Controller) {
		c.warn = fn
	}
}

// Controller manages the draft lifecycle for one editing session: the presence
// check on mount, saving, importing and deleting.
type Controller struct {
	id    string
	store draft.Store
	ed    Editor

	getFields func() map[string]any
	setFields func(map[string]any)
	warn      func(error)

	mountOnce sync.Once

	mu          sync.Mutex
	hasDraft    bool
	subscribers map[uint64]func(bool)
	nextSub     uint64
}

func NewController(store draft.Store, ed Editor, opts ...Option) *Controller {
	c := &Controller{
		id:          uuid.New().String(),
		store:       store,
		ed:          ed,
		subscribers: make(map[uint64]func(bool)),
	}
	c.getFields, c.setFields = fieldAccessors(ed)

	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ID identifies the session in logs.
func (c *Controller) ID() string {
	return c.id
}

// Mount checks the store for a draft. Only the first call touches the store;
// later calls return the current flag. A storage fault counts as no draft.
func (c *Controller) Mount(ctx context.Context) bool {
	c.mountOnce.Do(func() {
		ok, err := draft.Exists(ctx, c.store)
		if err != nil {
			editorLogger.Warn().Err(err).Str("session", c.id).Msg("Draft presence check failed, assuming no draft")
			ok = false
		}
		editorLogger.Debug().Str("session", c.id).Bool("has_draft", ok).Msg("Editor mounted")
		c.setHasDraft(ok)
	})
	return c.HasDraft()
}

func (c *Controller) HasDraft() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hasDraft
}

// Subscribe registers fn to be called with the new value whenever the draft
// flag changes. The returned func removes the subscription.
func (c *Controller) Subscribe(fn func(bool)) (cancel func()) {
	c.mu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subscribers[id] = fn
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.subscribers, id)
			c.mu.Unlock()
		})
	}
}

func (c *Controller) setHasDraft(v bool) {
	c.mu.Lock()
	if c.hasDraft == v {
		c.mu.Unlock()
		return
	}
	c.hasDraft = v
	subs := make([]func(bool), 0, len(c.subscribers))
	for _, fn := range c.subscribers {
		subs = append(subs, fn)
	}
	c.mu.Unlock()

	for _, fn := range subs {
		fn(v)
	}
}

// ImportDraft loads the stored draft into the editor. The stored draft is left
// in place. It reports false, without touching the editor, when there is none.
func (c *Controller) ImportDraft(ctx context.Context) (bool, error) {
	r, err := c.store.Get(ctx)
	if errors.Is(err, draft.ErrNotFound) {
		editorLogger.Debug().Str("session", c.id).Msg("No draft to import")
		return false, nil
	}
	if err != nil {
		c.report(err, "Error importing draft")
		return false, err
	}

	c.ed.SetContent(r.Content)
	if c.setFields != nil {
		c.setFields(r.View())
	}
	c.setHasDraft(true)

	editorLogger.Info().Str("session", c.id).Str("hash", r.Hash).Time("saved_at", r.SavedAt).Msg("Draft imported")
	return true, nil
}

// DeleteDraft removes the stored draft. On failure the flag is unchanged.
func (c *Controller) DeleteDraft(ctx context.Context) error {
	if err := c.store.Remove(ctx); err != nil {
		c.report(err, "Error deleting draft")
		return err
	}

	c.setHasDraft(false)
	editorLogger.Info().Str("session", c.id).Msg("Draft deleted")
	return nil
}

// SaveCurrent snapshots the editor and overwrites the stored draft with it.
func (c *Controller) SaveCurrent(ctx context.Context) error {
	var fields map[string]any
	if c.getFields != nil {
		fields = c.getFields()
	}

	r := draft.NewRecord(c.ed.Content(), fields)
	if err := c.store.Put(ctx, r); err != nil {
		c.report(err, "Error saving draft")
		return err
	}

	c.setHasDraft(true)
	editorLogger.Info().Str("session", c.id).Str("hash", r.Hash).Int("size", len(r.Content)).Msg("Draft saved")
	return nil
}

func (c *Controller) report(err error, msg string) {
	editorLogger.Error().Err(err).Str("session", c.id).Msg(msg)
	if c.warn != nil {
		c.warn(err)
	}
}
