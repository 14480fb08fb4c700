package guard

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"slices"
	"sync"
	"syscall"
)

// SignalUnload is an UnloadRegistry for terminal programs. Teardown is a
// termination signal; hook messages are written to out before onExit runs.
type SignalUnload struct {
	out     io.Writer
	onExit  func()
	signals []os.Signal

	mu    sync.Mutex
	hooks map[uint64]func() string
	order []uint64
	next  uint64
	fired bool
}

// NewSignalUnload listens for SIGINT and SIGTERM unless signals are given.
func NewSignalUnload(out io.Writer, onExit func(), signals ...os.Signal) *SignalUnload {
	if len(signals) == 0 {
		signals = []os.Signal{os.Interrupt, syscall.SIGTERM}
	}
	return &SignalUnload{
		out:     out,
		onExit:  onExit,
		signals: signals,
		hooks:   make(map[uint64]func() string),
	}
}

func (s *SignalUnload) OnUnload(fn func() string) (unregister func()) {
	s.mu.Lock()
	id := s.next
	s.next++
	s.hooks[id] = fn
	s.order = append(s.order, id)
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.hooks, id)
			s.order = slices.DeleteFunc(s.order, func(v uint64) bool { return v == id })
		})
	}
}

// Hooks returns the number of registered hooks.
func (s *SignalUnload) Hooks() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.hooks)
}

// Listen blocks until a signal arrives or ctx is done. It always returns nil.
func (s *SignalUnload) Listen(ctx context.Context) error {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, s.signals...)
	defer signal.Stop(ch)

	select {
	case <-ctx.Done():
	case sig := <-ch:
		guardLogger.Info().Str("signal", sig.String()).Msg("Termination signal received")
		s.Fire()
	}
	return nil
}

// Fire runs the hooks and then onExit. Only the first call has any effect.
func (s *SignalUnload) Fire() {
	s.mu.Lock()
	if s.fired {
		s.mu.Unlock()
		return
	}
	s.fired = true
	hooks := make([]func() string, 0, len(s.order))
	for _, id := range s.order {
		hooks = append(hooks, s.hooks[id])
	}
	s.mu.Unlock()

	for _, fn := range hooks {
		if msg := fn(); msg != "" && s.out != nil {
			fmt.Fprintln(s.out, msg)
		}
	}
	if s.onExit != nil {
		s.onExit()
	}
}
