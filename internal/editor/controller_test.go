package editor

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"

	"github.com/debemdeboas/draftkeep/internal/compression"
	"github.com/debemdeboas/draftkeep/internal/db"
	"github.com/debemdeboas/draftkeep/internal/draft"
)

func TestMain(m *testing.M) {
	SetLogger(zerolog.New(io.Discard))
	draft.SetLogger(zerolog.New(io.Discard))
	db.SetLogger(zerolog.New(io.Discard))
	os.Exit(m.Run())
}

// fakeEditor implements Editor, FieldsGetter and FieldsSetter.
type fakeEditor struct {
	mu      sync.Mutex
	content []byte
	fields  map[string]any
	view    map[string]any
}

func (e *fakeEditor) Content() []byte {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.content
}

func (e *fakeEditor) SetContent(b []byte) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.content = b
}

func (e *fakeEditor) Fields() map[string]any {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.fields
}

func (e *fakeEditor) SetFields(view map[string]any) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.view = view
}

// contentOnly implements only Editor.
type contentOnly struct {
	content []byte
}

func (e *contentOnly) Content() []byte     { return e.content }
func (e *contentOnly) SetContent(b []byte) { e.content = b }

// faultyStore wraps a store and fails the selected operations.
type faultyStore struct {
	draft.Store
	getErr, putErr, removeErr error
	gets                      atomic.Int32
}

func (f *faultyStore) Get(ctx context.Context) (*draft.Record, error) {
	f.gets.Add(1)
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.Store.Get(ctx)
}

func (f *faultyStore) Put(ctx context.Context, r *draft.Record) error {
	if f.putErr != nil {
		return f.putErr
	}
	return f.Store.Put(ctx, r)
}

func (f *faultyStore) Remove(ctx context.Context) error {
	if f.removeErr != nil {
		return f.removeErr
	}
	return f.Store.Remove(ctx)
}

func TestController_Mount(t *testing.T) {
	ctx := context.Background()

	t.Run("Empty store", func(t *testing.T) {
		c := NewController(draft.NewMemoryStore(), &fakeEditor{})
		if c.Mount(ctx) {
			t.Error("Expected no draft on empty store")
		}
	})

	t.Run("Existing draft", func(t *testing.T) {
		store := draft.NewMemoryStore()
		if err := store.Put(ctx, draft.NewRecord([]byte("x"), nil)); err != nil {
			t.Fatal(err)
		}
		c := NewController(store, &fakeEditor{})
		if !c.Mount(ctx) || !c.HasDraft() {
			t.Error("Expected draft to be detected")
		}
	})

	t.Run("Probes the store once", func(t *testing.T) {
		store := &faultyStore{Store: draft.NewMemoryStore()}
		c := NewController(store, &fakeEditor{})
		c.Mount(ctx)
		c.Mount(ctx)
		c.Mount(ctx)
		if n := store.gets.Load(); n != 1 {
			t.Errorf("Expected 1 Get, got %d", n)
		}
	})

	t.Run("Storage fault means no draft", func(t *testing.T) {
		store := &faultyStore{Store: draft.NewMemoryStore(), getErr: errors.New("locked")}
		c := NewController(store, &fakeEditor{})
		if c.Mount(ctx) {
			t.Error("Expected fault to read as no draft")
		}
	})
}

func TestController_ImportDraft(t *testing.T) {
	ctx := context.Background()

	t.Run("Empty store leaves editor untouched", func(t *testing.T) {
		ed := &fakeEditor{content: []byte("typing")}
		c := NewController(draft.NewMemoryStore(), ed)

		ok, err := c.ImportDraft(ctx)
		if err != nil || ok {
			t.Fatalf("Expected (false, nil), got (%v, %v)", ok, err)
		}
		if string(ed.content) != "typing" || ed.view != nil {
			t.Errorf("Expected editor untouched, got content=%q view=%v", ed.content, ed.view)
		}
	})

	t.Run("Restores content and fields without removing the draft", func(t *testing.T) {
		store := draft.NewMemoryStore()
		if err := store.Put(ctx, draft.NewRecord([]byte("X"), map[string]any{"title": "T"})); err != nil {
			t.Fatal(err)
		}
		ed := &fakeEditor{}
		c := NewController(store, ed)

		ok, err := c.ImportDraft(ctx)
		if err != nil || !ok {
			t.Fatalf("Expected (true, nil), got (%v, %v)", ok, err)
		}
		if string(ed.content) != "X" {
			t.Errorf("Expected content 'X', got %q", ed.content)
		}
		want := map[string]any{"title": "T", "id": draft.RecordID, "content": []byte("X")}
		if diff := cmp.Diff(want, ed.view); diff != "" {
			t.Errorf("Fields view mismatch (-want +got):\n%s", diff)
		}

		if ok, _ := draft.Exists(ctx, store); !ok {
			t.Error("Expected draft to remain after import")
		}
	})

	t.Run("Content-only editor", func(t *testing.T) {
		store := draft.NewMemoryStore()
		if err := store.Put(ctx, draft.NewRecord([]byte("body"), map[string]any{"title": "T"})); err != nil {
			t.Fatal(err)
		}
		ed := &contentOnly{}

		if _, err := NewController(store, ed).ImportDraft(ctx); err != nil {
			t.Fatal(err)
		}
		if string(ed.content) != "body" {
			t.Errorf("Expected 'body', got %q", ed.content)
		}
	})

	t.Run("Storage fault is returned", func(t *testing.T) {
		boom := errors.New("boom")
		var warned error
		c := NewController(&faultyStore{Store: draft.NewMemoryStore(), getErr: boom}, &fakeEditor{},
			WithWarning(func(err error) { warned = err }))

		ok, err := c.ImportDraft(ctx)
		if ok || !errors.Is(err, boom) || !errors.Is(warned, boom) {
			t.Errorf("Expected fault to surface, got ok=%v err=%v warned=%v", ok, err, warned)
		}
	})
}

func TestController_SaveCurrent(t *testing.T) {
	ctx := context.Background()

	t.Run("Merges content and fields", func(t *testing.T) {
		store := draft.NewMemoryStore()
		ed := &fakeEditor{content: []byte("hello"), fields: map[string]any{"title": "Greeting", "category": "misc"}}
		c := NewController(store, ed)

		if err := c.SaveCurrent(ctx); err != nil {
			t.Fatalf("SaveCurrent failed: %v", err)
		}
		if !c.HasDraft() {
			t.Error("Expected HasDraft after save")
		}

		r, err := store.Get(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if string(r.Content) != "hello" || r.Fields["title"] != "Greeting" || r.Fields["category"] != "misc" {
			t.Errorf("Unexpected record %+v", r)
		}
	})

	t.Run("No fields getter saves content only", func(t *testing.T) {
		store := draft.NewMemoryStore()
		c := NewController(store, Funcs{GetContent: func() []byte { return []byte("only") }})

		if err := c.SaveCurrent(ctx); err != nil {
			t.Fatal(err)
		}
		r, err := store.Get(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if string(r.Content) != "only" || len(r.Fields) != 0 {
			t.Errorf("Expected content-only record, got %+v", r)
		}
	})

	t.Run("Failure leaves flag and warns", func(t *testing.T) {
		boom := errors.New("quota")
		var warned int
		c := NewController(&faultyStore{Store: draft.NewMemoryStore(), putErr: boom}, &fakeEditor{},
			WithWarning(func(error) { warned++ }))

		if err := c.SaveCurrent(ctx); !errors.Is(err, boom) {
			t.Errorf("Expected %v, got %v", boom, err)
		}
		if c.HasDraft() || warned != 1 {
			t.Errorf("Expected flag false and one warning, got %v/%d", c.HasDraft(), warned)
		}
	})
}

func TestController_DeleteDraft(t *testing.T) {
	ctx := context.Background()

	t.Run("Later mount sees no draft", func(t *testing.T) {
		store := draft.NewMemoryStore()
		c := NewController(store, &fakeEditor{content: []byte("x")})
		if err := c.SaveCurrent(ctx); err != nil {
			t.Fatal(err)
		}
		if err := c.DeleteDraft(ctx); err != nil {
			t.Fatalf("DeleteDraft failed: %v", err)
		}
		if c.HasDraft() {
			t.Error("Expected flag cleared")
		}
		if NewController(store, &fakeEditor{}).Mount(ctx) {
			t.Error("Expected a new session to find no draft")
		}
	})

	t.Run("Fault keeps the flag", func(t *testing.T) {
		store := &faultyStore{Store: draft.NewMemoryStore()}
		c := NewController(store, &fakeEditor{content: []byte("x")})
		if err := c.SaveCurrent(ctx); err != nil {
			t.Fatal(err)
		}
		store.removeErr = errors.New("read-only")

		if err := c.DeleteDraft(ctx); err == nil {
			t.Fatal("Expected error")
		}
		if !c.HasDraft() {
			t.Error("Expected flag to stay set after failed delete")
		}
	})
}

func TestController_Subscribe(t *testing.T) {
	ctx := context.Background()
	c := NewController(draft.NewMemoryStore(), &fakeEditor{content: []byte("x")})

	var got []bool
	cancel := c.Subscribe(func(v bool) { got = append(got, v) })

	c.Mount(ctx)
	if err := c.SaveCurrent(ctx); err != nil {
		t.Fatal(err)
	}
	if err := c.SaveCurrent(ctx); err != nil {
		t.Fatal(err)
	}
	if err := c.DeleteDraft(ctx); err != nil {
		t.Fatal(err)
	}
	cancel()
	cancel()
	if err := c.SaveCurrent(ctx); err != nil {
		t.Fatal(err)
	}

	if diff := cmp.Diff([]bool{true, false}, got); diff != "" {
		t.Errorf("Notifications mismatch (-want +got):\n%s", diff)
	}
}

func TestController_SurvivesRestart(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "drafts.db")

	open := func() draft.Store {
		conn := db.NewSQLite(path)
		if err := conn.InitDB(); err != nil {
			t.Fatalf("Failed to open database: %v", err)
		}
		return draft.NewSQLStore(conn, compression.ZstdCompressor{})
	}

	store := open()
	ed := &fakeEditor{content: []byte("# Unfinished\n\nmore to come"), fields: map[string]any{"category": "essays"}}
	if err := NewController(store, ed).SaveCurrent(ctx); err != nil {
		t.Fatalf("SaveCurrent failed: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatal(err)
	}

	store = open()
	defer store.Close()
	restored := &fakeEditor{}
	c := NewController(store, restored)
	if !c.Mount(ctx) {
		t.Fatal("Expected draft after reopening")
	}
	if ok, err := c.ImportDraft(ctx); !ok || err != nil {
		t.Fatalf("ImportDraft = (%v, %v)", ok, err)
	}
	if string(restored.content) != "# Unfinished\n\nmore to come" {
		t.Errorf("Unexpected content %q", restored.content)
	}
	if restored.view["category"] != "essays" {
		t.Errorf("Expected category field, got %v", restored.view)
	}
}

func TestFuncsAdapter(t *testing.T) {
	ctx := context.Background()
	store := draft.NewMemoryStore()
	if err := store.Put(ctx, draft.NewRecord([]byte("restored"), map[string]any{"title": "T"})); err != nil {
		t.Fatal(err)
	}

	var content []byte
	var fields map[string]any
	c := NewController(store, Funcs{
		GetContent: func() []byte { return content },
		PutContent: func(b []byte) { content = b },
		SetFields:  func(v map[string]any) { fields = v },
	})

	ok, err := c.ImportDraft(ctx)
	if err != nil || !ok {
		t.Fatalf("Expected import to succeed, got %v/%v", ok, err)
	}
	if string(content) != "restored" || fields["title"] != "T" {
		t.Errorf("Expected content and fields restored, got %q/%v", content, fields)
	}

	t.Run("Nil accessors are no-ops", func(t *testing.T) {
		var f Funcs
		f.SetContent([]byte("dropped"))
		if f.Content() != nil {
			t.Errorf("Expected nil content, got %q", f.Content())
		}
	})
}
