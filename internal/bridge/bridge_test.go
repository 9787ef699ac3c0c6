package bridge

import (
	"errors"
	"testing"
	"time"

	"github.com/idursun/mapview/internal/renderer"
	"github.com/idursun/mapview/internal/scene"
	"github.com/idursun/mapview/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	store    *scene.Store
	renderer *test.FakeRenderer
	bridge   *Bridge
}

func newFixture(t *testing.T, configure ...func(*test.FakeRenderer, *Options)) *fixture {
	t.Helper()
	state, err := scene.NewState([]scene.Entity{
		{ID: 1, Name: "Bern", Country: "Switzerland", Description: "Federal city"},
		{ID: 2, Name: "Vienna", Country: "Austria"},
		{ID: 3, Name: "Prague", Country: "Czechia"},
	})
	require.NoError(t, err)

	r := test.NewFakeRenderer()
	options := Options{
		GoTo:  renderer.GoToOptions{Zoom: 5},
		Layer: renderer.LayerSpec{Title: "Capitals"},
	}
	for _, c := range configure {
		c(r, &options)
	}
	s := scene.NewStore(state, nil)
	b, err := New(s, r, options)
	require.NoError(t, err)
	t.Cleanup(b.Close)
	return &fixture{store: s, renderer: r, bridge: b}
}

func (f *fixture) entity(i int) *scene.Entity {
	return f.store.GetState().At(i)
}

// settle runs the pending commands to completion.
func (f *fixture) settle() {
	test.Drain(f.bridge.Update, f.bridge.Flush())
}

func TestNew_RegistersLayer(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, []string{"addLayer:Capitals"}, f.renderer.Calls())
}

func TestNew_LayerError(t *testing.T) {
	state, err := scene.NewState(nil)
	require.NoError(t, err)
	r := test.NewFakeRenderer()
	r.AddLayerErr = errors.New("boom")

	_, err = New(scene.NewStore(state, nil), r, Options{})
	assert.ErrorContains(t, err, "boom")
}

func TestSelectionTransitions(t *testing.T) {
	f := newFixture(t)
	f.renderer.Reset()

	f.store.Dispatch(scene.SelectEntity{Entity: f.entity(0)})
	f.settle()
	assert.Equal(t, []string{"highlight:1", "goTo:1", "openPopup:Bern"}, f.renderer.Calls())

	f.renderer.Reset()
	f.store.Dispatch(scene.SelectEntity{Entity: f.entity(1)})
	f.settle()
	assert.Equal(t, []string{"removeHighlight:1", "closePopup", "highlight:2", "goTo:2", "openPopup:Vienna"}, f.renderer.Calls())

	f.renderer.Reset()
	f.store.Dispatch(scene.Deselect())
	f.settle()
	assert.Equal(t, []string{"removeHighlight:2", "closePopup"}, f.renderer.Calls())
}

func TestSelectingSameEntityIssuesNothing(t *testing.T) {
	f := newFixture(t)
	f.store.Dispatch(scene.SelectEntity{Entity: f.entity(0)})
	f.settle()
	f.renderer.Reset()

	f.store.Dispatch(scene.SelectEntity{Entity: f.entity(0)})
	f.store.Dispatch(scene.TourStarted{})
	f.settle()

	assert.Empty(t, f.renderer.Calls())
}

func TestClick_StopsTourBeforeSelecting(t *testing.T) {
	f := newFixture(t)
	f.store.Dispatch(scene.TourStarted{})

	var seen []string
	unsubscribe := f.store.Subscribe(func() {
		s := f.store.GetState()
		name := "none"
		if s.Selected() != nil {
			name = s.Selected().Name
		}
		seen = append(seen, name+"/"+map[bool]string{true: "tour", false: "idle"}[s.OnTour()])
	})
	defer unsubscribe()

	f.renderer.SetHits(renderer.Hit{Layer: "Capitals", EntityID: 3, HasRecord: true})
	test.Drain(f.bridge.Update, f.bridge.Update(renderer.ClickMsg{Event: renderer.PointerEvent{X: 4, Y: 2}}))

	state := f.store.GetState()
	assert.False(t, state.OnTour())
	assert.Same(t, f.entity(2), state.Selected())
	assert.Equal(t, []string{"none/idle", "Prague/idle"}, seen)
}

func TestClick_FirstHitWithRecordWins(t *testing.T) {
	f := newFixture(t)
	f.renderer.SetHits(
		renderer.Hit{Layer: "labels"},
		renderer.Hit{Layer: "Capitals", EntityID: 2, HasRecord: true},
		renderer.Hit{Layer: "Capitals", EntityID: 3, HasRecord: true},
	)

	test.Drain(f.bridge.Update, f.bridge.Update(renderer.ClickMsg{}))

	assert.Same(t, f.entity(1), f.store.GetState().Selected())
}

func TestClick_EmptySpaceDeselects(t *testing.T) {
	f := newFixture(t)
	f.store.Dispatch(scene.SelectEntity{Entity: f.entity(0)})
	f.settle()

	f.renderer.SetHits()
	test.Drain(f.bridge.Update, f.bridge.Update(renderer.ClickMsg{}))

	assert.Nil(t, f.store.GetState().Selected())
}

func TestClick_HitOutsideCollectionDeselects(t *testing.T) {
	f := newFixture(t)
	f.store.Dispatch(scene.SelectEntity{Entity: f.entity(0)})
	f.settle()

	f.renderer.SetHits(renderer.Hit{Layer: "Capitals", EntityID: 42, HasRecord: true})
	test.Drain(f.bridge.Update, f.bridge.Update(renderer.ClickMsg{}))

	assert.Nil(t, f.store.GetState().Selected())
}

func TestClick_HitTestErrorLeavesState(t *testing.T) {
	f := newFixture(t)
	f.store.Dispatch(scene.SelectEntity{Entity: f.entity(0)})
	f.settle()
	before := f.store.GetState()

	f.renderer.HitTestErr = errors.New("no view")
	test.Drain(f.bridge.Update, f.bridge.Update(renderer.ClickMsg{}))

	assert.Same(t, before, f.store.GetState())
}

func TestClick_OnlyLatestHitTestApplies(t *testing.T) {
	f := newFixture(t)

	f.renderer.SetHits(renderer.Hit{EntityID: 1, HasRecord: true})
	first := f.bridge.Update(renderer.ClickMsg{})
	f.renderer.SetHits(renderer.Hit{EntityID: 2, HasRecord: true})
	second := f.bridge.Update(renderer.ClickMsg{})

	test.Drain(f.bridge.Update, second)
	test.Drain(f.bridge.Update, first)

	assert.Same(t, f.entity(1), f.store.GetState().Selected())
}

func TestStaleCameraDoesNotOpenPopup(t *testing.T) {
	f := newFixture(t, func(r *test.FakeRenderer, _ *Options) { r.HoldCamera = true })
	f.renderer.Reset()

	f.store.Dispatch(scene.SelectEntity{Entity: f.entity(0)})
	forA := f.bridge.Flush()
	f.store.Dispatch(scene.SelectEntity{Entity: f.entity(1)})
	forB := f.bridge.Flush()

	f.renderer.ResolveCamera(1)
	f.renderer.ResolveCamera(0)
	test.Drain(f.bridge.Update, forB)
	test.Drain(f.bridge.Update, forA)

	assert.Equal(t, []string{"openPopup:Vienna"}, f.renderer.CallsWithPrefix("openPopup"))
}

func TestCameraSettlingAfterDeselectIsDiscarded(t *testing.T) {
	f := newFixture(t, func(r *test.FakeRenderer, _ *Options) { r.HoldCamera = true })

	f.store.Dispatch(scene.SelectEntity{Entity: f.entity(0)})
	pending := f.bridge.Flush()
	f.store.Dispatch(scene.Deselect())

	f.renderer.ResolveCamera(0)
	test.Drain(f.bridge.Update, pending)

	assert.Empty(t, f.renderer.CallsWithPrefix("openPopup"))
}

func TestCameraErrorSkipsPopup(t *testing.T) {
	f := newFixture(t, func(r *test.FakeRenderer, _ *Options) { r.HoldCamera = true })

	f.store.Dispatch(scene.SelectEntity{Entity: f.entity(0)})
	pending := f.bridge.Flush()
	f.renderer.RejectCamera(0, renderer.ErrInterrupted)
	test.Drain(f.bridge.Update, pending)

	assert.Empty(t, f.renderer.CallsWithPrefix("openPopup"))
	assert.Same(t, f.entity(0), f.store.GetState().Selected())
}

func TestStaleHighlightIsRemovedOnArrival(t *testing.T) {
	f := newFixture(t, func(r *test.FakeRenderer, _ *Options) { r.HoldHighlights = true })
	f.renderer.Reset()

	f.store.Dispatch(scene.SelectEntity{Entity: f.entity(0)})
	forA := f.bridge.Flush()
	f.store.Dispatch(scene.SelectEntity{Entity: f.entity(1)})
	forB := f.bridge.Flush()

	require.Equal(t, 2, f.renderer.ResolveHighlights())
	test.Drain(f.bridge.Update, forA)
	test.Drain(f.bridge.Update, forB)

	assert.Equal(t, []string{"removeHighlight:1"}, f.renderer.CallsWithPrefix("removeHighlight"))

	f.store.Dispatch(scene.Deselect())
	f.settle()
	assert.Equal(t, []string{"removeHighlight:1", "removeHighlight:2"}, f.renderer.CallsWithPrefix("removeHighlight"))
}

func TestDeselectBeforeHighlightArrives(t *testing.T) {
	f := newFixture(t, func(r *test.FakeRenderer, _ *Options) { r.HoldHighlights = true })

	f.store.Dispatch(scene.SelectEntity{Entity: f.entity(0)})
	pending := f.bridge.Flush()

	assert.NotPanics(t, func() { f.store.Dispatch(scene.Deselect()) })
	assert.Empty(t, f.renderer.CallsWithPrefix("removeHighlight"))

	f.renderer.ResolveHighlights()
	test.Drain(f.bridge.Update, pending)
	assert.Equal(t, []string{"removeHighlight:1"}, f.renderer.CallsWithPrefix("removeHighlight"))
}

func TestInteractionStart(t *testing.T) {
	tests := []struct {
		name  string
		setup func(f *fixture)
	}{
		{
			name:  "clears selection",
			setup: func(f *fixture) { f.store.Dispatch(scene.SelectEntity{Entity: f.entity(0)}) },
		},
		{
			name: "stops tour",
			setup: func(f *fixture) {
				f.store.Dispatch(scene.TourStarted{})
				f.store.Dispatch(scene.SelectEntity{Entity: f.entity(2)})
			},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			tc.setup(f)
			f.settle()

			f.renderer.SetInteracting(true)
			f.settle()

			state := f.store.GetState()
			assert.Nil(t, state.Selected())
			assert.False(t, state.OnTour())
		})
	}
}

func TestInteraction_OnlyIdleToActiveCounts(t *testing.T) {
	f := newFixture(t)
	f.renderer.SetInteracting(true)
	f.settle()

	f.store.Dispatch(scene.SelectEntity{Entity: f.entity(0)})
	f.renderer.SetInteracting(true)
	f.settle()
	assert.NotNil(t, f.store.GetState().Selected(), "still active, no new transition")

	f.renderer.SetInteracting(false)
	f.renderer.SetInteracting(true)
	f.settle()
	assert.Nil(t, f.store.GetState().Selected())
}

func TestInteraction_IdleWithoutSelectionDispatchesNothing(t *testing.T) {
	f := newFixture(t)
	before := f.store.GetState()

	f.bridge.Update(InteractionMsg{Active: true})

	assert.Same(t, before, f.store.GetState())
}

func TestSelect_AutoDeselect(t *testing.T) {
	f := newFixture(t, func(_ *test.FakeRenderer, o *Options) { o.AutoDeselect = time.Millisecond })

	f.bridge.Select(f.entity(0))
	require.False(t, f.store.GetState().Timeout().IsZero())
	f.settle()

	assert.Nil(t, f.store.GetState().Selected())
}

func TestSelect_AutoDeselectIgnoresReplacedSelection(t *testing.T) {
	f := newFixture(t, func(_ *test.FakeRenderer, o *Options) { o.AutoDeselect = time.Millisecond })

	f.bridge.Select(f.entity(0))
	first := f.bridge.Flush()
	f.store.Dispatch(scene.SelectEntity{Entity: f.entity(1)})
	test.Drain(f.bridge.Update, first)

	assert.Same(t, f.entity(1), f.store.GetState().Selected())
}

func TestSelectNext(t *testing.T) {
	f := newFixture(t)

	f.bridge.SelectNext(1)
	assert.Same(t, f.entity(0), f.store.GetState().Selected())
	f.bridge.SelectNext(1)
	assert.Same(t, f.entity(1), f.store.GetState().Selected())
	f.bridge.SelectNext(-2)
	assert.Same(t, f.entity(2), f.store.GetState().Selected())
	f.bridge.SelectNext(1)
	assert.Same(t, f.entity(0), f.store.GetState().Selected())

	f.store.Dispatch(scene.Deselect())
	f.bridge.SelectNext(-1)
	assert.Same(t, f.entity(2), f.store.GetState().Selected())
}

func TestClose_StopsObserving(t *testing.T) {
	f := newFixture(t)
	f.store.Dispatch(scene.SelectEntity{Entity: f.entity(0)})
	f.settle()
	f.bridge.Close()
	f.renderer.Reset()

	f.store.Dispatch(scene.SelectEntity{Entity: f.entity(1)})
	f.renderer.SetInteracting(true)
	f.settle()

	assert.Empty(t, f.renderer.Calls())
	assert.Same(t, f.entity(1), f.store.GetState().Selected())
}
