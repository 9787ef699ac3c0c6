// Package tour steps the selection through every entity on a timer.
package tour

import (
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/idursun/mapview/internal/scene"
)

type stepMsg struct {
	timeout scene.Timeout
}

type Tour struct {
	store    *scene.Store
	interval time.Duration
	loop     bool
}

func New(store *scene.Store, interval time.Duration, loop bool) *Tour {
	return &Tour{store: store, interval: interval, loop: loop}
}

func (t *Tour) SetInterval(interval time.Duration) {
	t.interval = interval
}

func (t *Tour) SetLoop(loop bool) {
	t.loop = loop
}

func (t *Tour) Active() bool {
	return t.store.GetState().OnTour()
}

// Start begins the tour at the entity after the current selection, wrapping
// to the first one when the last entity is selected.
func (t *Tour) Start() tea.Cmd {
	state := t.store.GetState()
	if state.OnTour() || state.Len() == 0 {
		return nil
	}
	next := state.IndexOf(state.Selected()) + 1
	if next >= state.Len() {
		next = 0
	}
	t.store.Dispatch(scene.TourStarted{})
	return t.step(next)
}

func (t *Tour) Stop() {
	if t.Active() {
		t.store.Dispatch(scene.TourStopped{})
	}
}

func (t *Tour) Toggle() tea.Cmd {
	if t.Active() {
		t.Stop()
		return nil
	}
	return t.Start()
}

// Update advances the tour. A step only counts while the tour is still on and
// the selection is still the one the step was scheduled for.
func (t *Tour) Update(msg tea.Msg) tea.Cmd {
	step, ok := msg.(stepMsg)
	if !ok {
		return nil
	}
	state := t.store.GetState()
	if !state.OnTour() || state.Timeout() != step.timeout {
		return nil
	}
	return t.step(state.IndexOf(state.Selected()) + 1)
}

func (t *Tour) step(index int) tea.Cmd {
	state := t.store.GetState()
	if index >= state.Len() {
		if !t.loop {
			t.store.Dispatch(scene.TourStopped{})
			return nil
		}
		index = 0
	}
	timeout := scene.NewTimeout()
	t.store.Dispatch(scene.SelectEntity{Entity: state.At(index), Timeout: timeout})
	return tea.Tick(t.interval, func(time.Time) tea.Msg {
		return stepMsg{timeout: timeout}
	})
}
