package guard

import (
	"context"
	"slices"
	"sync"
)

// Navigator is an in-process Router that keeps the current route and the
// history of visited routes.
type Navigator struct {
	// nav serialises route changes.
	nav sync.Mutex

	mu       sync.Mutex
	current  string
	history  []string
	blockers map[uint64]Blocker
	order    []uint64
	next     uint64
}

func NewNavigator(start string) *Navigator {
	return &Navigator{
		current:  start,
		history:  []string{start},
		blockers: make(map[uint64]Blocker),
	}
}

func (n *Navigator) Block(b Blocker) (unblock func()) {
	n.mu.Lock()
	id := n.next
	n.next++
	n.blockers[id] = b
	n.order = append(n.order, id)
	n.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			n.mu.Lock()
			defer n.mu.Unlock()
			delete(n.blockers, id)
			n.order = slices.DeleteFunc(n.order, func(v uint64) bool { return v == id })
		})
	}
}

// Blockers returns the number of installed blockers.
func (n *Navigator) Blockers() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.blockers)
}

// Navigate runs every blocker in installation order and only then moves to
// the new route. It reports false if a blocker cancelled the change.
func (n *Navigator) Navigate(ctx context.Context, to string) (bool, error) {
	n.nav.Lock()
	defer n.nav.Unlock()

	n.mu.Lock()
	t := Transition{From: n.current, To: to}
	blockers := make([]Blocker, 0, len(n.order))
	for _, id := range n.order {
		blockers = append(blockers, n.blockers[id])
	}
	n.mu.Unlock()

	for _, b := range blockers {
		if !b(ctx, t) {
			guardLogger.Debug().Str("from", t.From).Str("to", t.To).Msg("Navigation cancelled")
			return false, nil
		}
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}

	n.mu.Lock()
	n.current = to
	n.history = append(n.history, to)
	n.mu.Unlock()

	guardLogger.Debug().Str("from", t.From).Str("to", t.To).Msg("Navigated")
	return true, nil
}

func (n *Navigator) Current() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.current
}

func (n *Navigator) History() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return slices.Clone(n.history)
}
