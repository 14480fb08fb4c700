// Package guard asks the user to save the draft before leaving the editor.
//
// A Guard installs a navigation blocker on a Router and, optionally, an unload
// hook on an UnloadRegistry. Navigation always proceeds once the prompt is
// answered and any save has settled.
package guard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	DefaultSaveTimeout   = 5 * time.Second
	DefaultPromptMessage = "Save draft before leaving?"
	DefaultUnloadMessage = "You have unsaved changes. Leave anyway?"
)

var ErrAlreadyMounted = errors.New("guard: already mounted")

var guardLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	guardLogger = l
}

type Transition struct {
	From, To string
}

// Blocker runs before a route change. Returning false cancels it.
type Blocker func(ctx context.Context, t Transition) bool

type Router interface {
	Block(b Blocker) (unblock func())
}

type Prompter interface {
	Confirm(ctx context.Context, msg string) (bool, error)
}

// UnloadRegistry runs hooks synchronously right before teardown. A hook
// returns the warning to show and must not block.
type UnloadRegistry interface {
	OnUnload(fn func() string) (unregister func())
}

type Saver interface {
	SaveCurrent(ctx context.Context) error
}

type State int

const (
	Idle State = iota
	Guarding
	PromptingSave
	Saving
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Guarding:
		return "guarding"
	case PromptingSave:
		return "prompting_save"
	case Saving:
		return "saving"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

type Option func(*Guard)

func WithUnload(reg UnloadRegistry) Option {
	return func(g *Guard) { g.unload = reg }
}

// WithSaveTimeout bounds how long navigation waits for the save.
func WithSaveTimeout(d time.Duration) Option {
	return func(g *Guard) {
		if d > 0 {
			g.saveTimeout = d
		}
	}
}

func WithPromptMessage(msg string) Option {
	return func(g *Guard) {
		if msg != "" {
			g.promptMsg = msg
		}
	}
}

func WithUnloadMessage(msg string) Option {
	return func(g *Guard) {
		if msg != "" {
			g.unloadMsg = msg
		}
	}
}

// WithWarning sets the hook that receives failed saves.
func WithWarning(fn func(error)) Option {
	return func(g *Guard) { g.warn = fn }
}

type Guard struct {
	id       string
	saver    Saver
	router   Router
	prompter Prompter
	unload   UnloadRegistry

	saveTimeout time.Duration
	promptMsg   string
	unloadMsg   string
	warn        func(error)

	// nav serialises blockers so only one prompt is open at a time.
	nav sync.Mutex

	mu         sync.Mutex
	state      State
	unblock    func()
	unregister func()
}

func New(saver Saver, router Router, prompter Prompter, opts ...Option) *Guard {
	g := &Guard{
		id:          uuid.New().String(),
		saver:       saver,
		router:      router,
		prompter:    prompter,
		saveTimeout: DefaultSaveTimeout,
		promptMsg:   DefaultPromptMessage,
		unloadMsg:   DefaultUnloadMessage,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *Guard) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Mount installs the navigation blocker and the unload hook.
func (g *Guard) Mount() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state != Idle {
		return ErrAlreadyMounted
	}

	g.unblock = g.router.Block(g.block)
	if g.unload != nil {
		g.unregister = g.unload.OnUnload(g.onUnload)
	}
	g.state = Guarding

	guardLogger.Debug().Str("guard", g.id).Bool("unload_hook", g.unload != nil).Msg("Guard mounted")
	return nil
}

// Unmount removes everything Mount installed. It is a no-op on an idle guard.
func (g *Guard) Unmount() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state == Idle {
		return
	}
	if g.unblock != nil {
		g.unblock()
		g.unblock = nil
	}
	if g.unregister != nil {
		g.unregister()
		g.unregister = nil
	}
	g.state = Idle

	guardLogger.Debug().Str("guard", g.id).Msg("Guard unmounted")
}

func (g *Guard) advance(from, to State) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state != from {
		return false
	}
	g.state = to
	return true
}

func (g *Guard) block(ctx context.Context, t Transition) bool {
	g.nav.Lock()
	defer g.nav.Unlock()

	if !g.advance(Guarding, PromptingSave) {
		return true
	}

	save, err := g.prompter.Confirm(ctx, g.promptMsg)
	if err != nil {
		guardLogger.Warn().Err(err).Str("guard", g.id).Msg("Save prompt failed, leaving without saving")
		save = false
	}
	if !save {
		g.advance(PromptingSave, Guarding)
		guardLogger.Debug().Str("guard", g.id).Str("from", t.From).Str("to", t.To).Msg("Leaving without saving")
		return true
	}

	// A confirmed save still runs if Unmount raced the prompt.
	tracked := g.advance(PromptingSave, Saving)
	if !tracked {
		guardLogger.Warn().Str("guard", g.id).Str("to", t.To).Msg("Guard unmounted during prompt, saving confirmed draft anyway")
	}

	start := time.Now()
	if err := g.save(ctx); err != nil {
		guardLogger.Error().Err(err).Str("guard", g.id).Str("to", t.To).Msg("Error saving draft before navigation")
		if g.warn != nil {
			g.warn(err)
		}
	} else {
		guardLogger.Info().Str("guard", g.id).Str("to", t.To).Dur("took", time.Since(start)).Msg("Draft saved before navigation")
	}

	if tracked {
		g.advance(Saving, Guarding)
	}
	return true
}

// save waits for the saver at most saveTimeout, even if the saver ignores ctx.
func (g *Guard) save(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, g.saveTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- g.saver.SaveCurrent(ctx)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return fmt.Errorf("save did not finish: %w", ctx.Err())
	}
}

func (g *Guard) onUnload() string {
	guardLogger.Debug().Str("guard", g.id).Msg("Unload intercepted")
	return g.unloadMsg
}
