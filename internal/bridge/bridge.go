// Package bridge connects the scene store to a renderer. Renderer events turn
// into dispatched actions, and selection changes observed on the store turn
// into renderer commands.
package bridge

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/idursun/mapview/internal/renderer"
	"github.com/idursun/mapview/internal/scene"
	"github.com/idursun/mapview/internal/watch"
)

type Options struct {
	GoTo renderer.GoToOptions
	// AutoDeselect clears a click selection after this long. Zero disables it.
	AutoDeselect time.Duration
	Layer        renderer.LayerSpec
	Logger       *slog.Logger
}

// InteractionMsg reports that the user started or stopped moving the view.
type InteractionMsg struct {
	Active bool
}

type hitTestedMsg struct {
	seq  uint64
	hits []renderer.Hit
	err  error
}

type highlightAcquiredMsg struct {
	generation uint64
	id         scene.EntityID
	handle     renderer.Highlight
	err        error
}

type cameraSettledMsg struct {
	generation uint64
	id         scene.EntityID
	err        error
}

type autoDeselectMsg struct {
	timeout scene.Timeout
}

type Bridge struct {
	store    *scene.Store
	renderer renderer.Renderer
	options  Options
	logger   *slog.Logger

	// generation changes on every observed selection transition; async
	// completions carrying an older generation are stale.
	generation uint64
	clickSeq   uint64
	highlight  renderer.Highlight
	pending    []tea.Cmd

	interacting bool
	// interactions collects renderer notifications until the next Flush.
	interactionsMu sync.Mutex
	interactions   []bool

	unsubscribe func()
	stopWatch   func()
}

// New registers the layer with the renderer and starts observing both sides.
func New(store *scene.Store, r renderer.Renderer, options Options) (*Bridge, error) {
	logger := options.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	b := &Bridge{
		store:    store,
		renderer: r,
		options:  options,
		logger:   logger.With(slog.String("component", "bridge")),
	}
	if err := r.AddLayer(options.Layer); err != nil {
		return nil, err
	}
	b.unsubscribe = watch.Attach[*scene.State, *scene.Entity](store, scene.SelectedField, b.selectedChanged)
	b.stopWatch = r.WatchInteraction(func(active bool) {
		b.interactionsMu.Lock()
		b.interactions = append(b.interactions, active)
		b.interactionsMu.Unlock()
	})
	return b, nil
}

// Close stops observing the store and the renderer and removes the current
// highlight.
func (b *Bridge) Close() {
	if b.unsubscribe != nil {
		b.unsubscribe()
	}
	if b.stopWatch != nil {
		b.stopWatch()
	}
	b.generation++
	b.removeHighlight()
}

// SetTiming replaces the camera options and the auto-deselect delay used for
// later selections.
func (b *Bridge) SetTiming(goTo renderer.GoToOptions, autoDeselect time.Duration) {
	b.options.GoTo = goTo
	b.options.AutoDeselect = autoDeselect
}

func (b *Bridge) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case renderer.ClickMsg:
		b.clickSeq++
		seq := b.clickSeq
		future := b.renderer.HitTest(msg.Event)
		b.queue(func() tea.Msg {
			hits, err := future.Await()
			return hitTestedMsg{seq: seq, hits: hits, err: err}
		})
	case hitTestedMsg:
		b.hitTested(msg)
	case InteractionMsg:
		b.interactionChanged(msg.Active)
	case highlightAcquiredMsg:
		b.highlightAcquired(msg)
	case cameraSettledMsg:
		b.cameraSettled(msg)
	case autoDeselectMsg:
		state := b.store.GetState()
		if !msg.timeout.IsZero() && state.Timeout() == msg.timeout {
			b.logger.Debug("auto deselect", slog.String("timeout", msg.timeout.String()))
			b.store.Dispatch(scene.Deselect())
		}
	}
	return b.Flush()
}

// Flush applies renderer notifications received since the last call and
// returns the commands that await pending renderer work.
func (b *Bridge) Flush() tea.Cmd {
	b.interactionsMu.Lock()
	interactions := b.interactions
	b.interactions = nil
	b.interactionsMu.Unlock()
	for _, active := range interactions {
		b.interactionChanged(active)
	}

	if len(b.pending) == 0 {
		return nil
	}
	cmds := b.pending
	b.pending = nil
	return tea.Batch(cmds...)
}

// Select makes e the selection, or clears it when e is nil. An active tour is
// stopped first.
func (b *Bridge) Select(e *scene.Entity) {
	if b.store.GetState().OnTour() {
		b.store.Dispatch(scene.TourStopped{})
	}
	action := scene.SelectEntity{Entity: e}
	if e != nil && b.options.AutoDeselect > 0 {
		action.Timeout = scene.NewTimeout()
		timeout := action.Timeout
		b.queue(tea.Tick(b.options.AutoDeselect, func(time.Time) tea.Msg {
			return autoDeselectMsg{timeout: timeout}
		}))
	}
	b.store.Dispatch(action)
}

// SelectNext moves the selection delta places through the collection,
// wrapping at both ends.
func (b *Bridge) SelectNext(delta int) {
	state := b.store.GetState()
	n := state.Len()
	if n == 0 || delta == 0 {
		return
	}
	i := state.IndexOf(state.Selected())
	switch {
	case i < 0 && delta > 0:
		i = delta - 1
	case i < 0:
		i = n + delta
	default:
		i += delta
	}
	i = ((i % n) + n) % n
	b.Select(state.At(i))
}

func (b *Bridge) hitTested(msg hitTestedMsg) {
	if msg.seq != b.clickSeq {
		return
	}
	if msg.err != nil {
		b.logger.Warn("hit test failed", slog.Any("err", msg.err))
		return
	}
	state := b.store.GetState()
	var target *scene.Entity
	for _, hit := range msg.hits {
		if !hit.HasRecord {
			continue
		}
		if e, ok := state.Entity(hit.EntityID); ok {
			target = e
		}
		break
	}
	b.Select(target)
}

func (b *Bridge) interactionChanged(active bool) {
	wasActive := b.interacting
	b.interacting = active
	if !active || wasActive {
		return
	}
	state := b.store.GetState()
	if state.OnTour() {
		b.store.Dispatch(scene.TourStopped{})
	}
	if b.store.GetState().Selected() != nil {
		b.store.Dispatch(scene.Deselect())
	}
}

func (b *Bridge) selectedChanged(newValue, oldValue *scene.Entity, _ string) {
	b.generation++
	generation := b.generation

	if oldValue != nil {
		b.removeHighlight()
		b.renderer.ClosePopup()
	}
	if newValue == nil {
		return
	}

	id := newValue.ID
	highlight := b.renderer.Highlight(id)
	camera := b.renderer.GoTo(renderer.Target{EntityID: id, Location: newValue.Location}, b.options.GoTo)
	b.queue(
		func() tea.Msg {
			handle, err := highlight.Await()
			return highlightAcquiredMsg{generation: generation, id: id, handle: handle, err: err}
		},
		func() tea.Msg {
			err := camera.Wait()
			return cameraSettledMsg{generation: generation, id: id, err: err}
		},
	)
}

func (b *Bridge) highlightAcquired(msg highlightAcquiredMsg) {
	if msg.err != nil {
		b.logger.Warn("highlight failed", slog.Int("id", int(msg.id)), slog.Any("err", msg.err))
		return
	}
	if msg.handle == nil {
		return
	}
	if msg.generation != b.generation {
		msg.handle.Remove()
		return
	}
	b.removeHighlight()
	b.highlight = msg.handle
}

func (b *Bridge) cameraSettled(msg cameraSettledMsg) {
	if msg.err != nil {
		if errors.Is(msg.err, renderer.ErrInterrupted) {
			b.logger.Debug("camera interrupted", slog.Int("id", int(msg.id)))
		} else {
			b.logger.Warn("camera failed", slog.Int("id", int(msg.id)), slog.Any("err", msg.err))
		}
		return
	}
	if msg.generation != b.generation {
		return
	}
	selected := b.store.GetState().Selected()
	if selected == nil || selected.ID != msg.id {
		return
	}
	b.renderer.OpenPopup(popupFor(selected), selected.Location)
}

// removeHighlight tolerates a highlight that was never acquired.
func (b *Bridge) removeHighlight() {
	if b.highlight == nil {
		return
	}
	b.highlight.Remove()
	b.highlight = nil
}

func (b *Bridge) queue(cmds ...tea.Cmd) {
	b.pending = append(b.pending, cmds...)
}

func popupFor(e *scene.Entity) renderer.Popup {
	content := e.Description
	if content == "" {
		content = e.Country
	}
	return renderer.Popup{Title: e.Name, Content: content}
}
