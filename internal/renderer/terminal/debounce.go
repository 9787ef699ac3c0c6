package terminal

import (
	"context"
	"sync"
	"time"

	tea "charm.land/bubbletea/v2"
)

type debounceState struct {
	ctx    context.Context
	cancel context.CancelFunc
}

// debouncer runs only the latest of a burst of commands.
type debouncer struct {
	mu      sync.Mutex
	current *debounceState
}

// Debounce waits for duration before running cmd; a newer call cancels the
// previous one.
func (d *debouncer) Debounce(duration time.Duration, cmd tea.Cmd) tea.Cmd {
	if cmd == nil {
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	state := &debounceState{ctx: ctx, cancel: cancel}

	d.mu.Lock()
	if d.current != nil {
		d.current.cancel()
	}
	d.current = state
	d.mu.Unlock()

	return func() tea.Msg {
		defer func() {
			d.mu.Lock()
			if d.current == state {
				d.current = nil
			}
			d.mu.Unlock()
			state.cancel()
		}()

		timer := time.NewTimer(duration)
		defer timer.Stop()

		select {
		case <-timer.C:
		case <-state.ctx.Done():
			return nil
		}

		d.mu.Lock()
		latest := d.current
		d.mu.Unlock()
		if latest != state {
			return nil
		}
		return cmd()
	}
}

// Cancel drops the pending command, if any.
func (d *debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.current != nil {
		d.current.cancel()
		d.current = nil
	}
}
