package editor

import (
	"context"
	"sync"
	"time"
)

// Autosaver debounces SaveCurrent: a save runs once the editor has been quiet
// for the configured delay.
type Autosaver struct {
	c     *Controller
	delay time.Duration

	// OnError receives failed autosaves. Set it before the first Touch.
	OnError func(error)

	mu      sync.Mutex
	timer   *time.Timer
	stopped bool
	running sync.WaitGroup
}

// NewAutosaver returns an autosaver for c. A delay of zero or less disables
// timed saves; Flush still works.
func NewAutosaver(c *Controller, delay time.Duration) *Autosaver {
	return &Autosaver{
		c:     c,
		delay: delay,
	}
}

// Touch marks the editor as changed and restarts the countdown.
func (a *Autosaver) Touch() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.stopped || a.delay <= 0 {
		return
	}
	a.cancelLocked()

	a.running.Add(1)
	var t *time.Timer
	t = time.AfterFunc(a.delay, func() {
		defer a.running.Done()

		a.mu.Lock()
		if a.timer == t {
			a.timer = nil
		}
		a.mu.Unlock()

		a.save(context.Background())
	})
	a.timer = t
}

// Pending reports whether a save is scheduled.
func (a *Autosaver) Pending() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.timer != nil
}

// Flush cancels the scheduled save and saves now.
func (a *Autosaver) Flush(ctx context.Context) error {
	a.mu.Lock()
	a.cancelLocked()
	a.mu.Unlock()

	return a.save(ctx)
}

// Stop cancels the scheduled save and waits for one already running.
func (a *Autosaver) Stop() {
	a.mu.Lock()
	a.stopped = true
	a.cancelLocked()
	a.mu.Unlock()

	a.running.Wait()
}

func (a *Autosaver) cancelLocked() {
	if a.timer == nil {
		return
	}
	if a.timer.Stop() {
		a.running.Done()
	}
	a.timer = nil
}

func (a *Autosaver) save(ctx context.Context) error {
	err := a.c.SaveCurrent(ctx)
	if err != nil {
		editorLogger.Warn().Err(err).Str("session", a.c.ID()).Msg("Autosave failed")
		if a.OnError != nil {
			a.OnError(err)
		}
	}
	return err
}
