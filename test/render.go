package test

import (
	"fmt"
	"strings"
	"sync"

	"github.com/idursun/mapview/internal/renderer"
	"github.com/idursun/mapview/internal/scene"
)

var _ renderer.Renderer = (*FakeRenderer)(nil)

// FakeRenderer records every call it receives as a short string such as
// "highlight:1" or "closePopup". Highlights and camera moves settle at once
// unless held.
type FakeRenderer struct {
	mu sync.Mutex

	calls    []string
	layers   []renderer.LayerSpec
	hits     []renderer.Hit
	watchers map[int]func(bool)
	nextID   int

	HoldHighlights bool
	HoldCamera     bool
	AddLayerErr    error
	HitTestErr     error

	highlights []heldHighlight
	cameras    []*renderer.Promise[struct{}]
}

type heldHighlight struct {
	id      scene.EntityID
	promise *renderer.Promise[renderer.Highlight]
}

type fakeHighlight struct {
	r  *FakeRenderer
	id scene.EntityID
}

func (h *fakeHighlight) Remove() {
	h.r.record("removeHighlight:%d", h.id)
}

func NewFakeRenderer() *FakeRenderer {
	return &FakeRenderer{watchers: map[int]func(bool){}}
}

func (r *FakeRenderer) record(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, fmt.Sprintf(format, args...))
}

// Calls returns the recorded calls in order.
func (r *FakeRenderer) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

// Reset forgets the recorded calls.
func (r *FakeRenderer) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = nil
}

func (r *FakeRenderer) Layers() []renderer.LayerSpec {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]renderer.LayerSpec(nil), r.layers...)
}

// SetHits sets the result of the next hit tests.
func (r *FakeRenderer) SetHits(hits ...renderer.Hit) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hits = hits
}

// SetInteracting notifies every interaction watcher.
func (r *FakeRenderer) SetInteracting(active bool) {
	r.mu.Lock()
	watchers := make([]func(bool), 0, len(r.watchers))
	for i := 0; i < r.nextID; i++ {
		if w, ok := r.watchers[i]; ok {
			watchers = append(watchers, w)
		}
	}
	r.mu.Unlock()
	for _, w := range watchers {
		w(active)
	}
}

// ResolveHighlights settles every held highlight, oldest first.
func (r *FakeRenderer) ResolveHighlights() int {
	r.mu.Lock()
	held := r.highlights
	r.highlights = nil
	r.mu.Unlock()
	for _, h := range held {
		h.promise.Resolve(&fakeHighlight{r: r, id: h.id})
	}
	return len(held)
}

// ResolveCamera settles the held camera move at index i.
func (r *FakeRenderer) ResolveCamera(i int) {
	r.mu.Lock()
	p := r.cameras[i]
	r.mu.Unlock()
	p.Resolve(struct{}{})
}

// RejectCamera fails the held camera move at index i.
func (r *FakeRenderer) RejectCamera(i int, err error) {
	r.mu.Lock()
	p := r.cameras[i]
	r.mu.Unlock()
	p.Reject(err)
}

func (r *FakeRenderer) AddLayer(spec renderer.LayerSpec) error {
	if r.AddLayerErr != nil {
		return r.AddLayerErr
	}
	r.record("addLayer:%s", spec.Title)
	r.mu.Lock()
	r.layers = append(r.layers, spec)
	r.mu.Unlock()
	return nil
}

func (r *FakeRenderer) HitTest(event renderer.PointerEvent) renderer.Future[[]renderer.Hit] {
	r.record("hitTest:%d,%d", event.X, event.Y)
	if r.HitTestErr != nil {
		return renderer.Rejected[[]renderer.Hit](r.HitTestErr)
	}
	r.mu.Lock()
	hits := append([]renderer.Hit(nil), r.hits...)
	r.mu.Unlock()
	return renderer.Resolved(hits)
}

func (r *FakeRenderer) WatchInteraction(fn func(active bool)) (stop func()) {
	r.mu.Lock()
	id := r.nextID
	r.nextID++
	r.watchers[id] = fn
	r.mu.Unlock()
	return func() {
		r.mu.Lock()
		delete(r.watchers, id)
		r.mu.Unlock()
	}
}

func (r *FakeRenderer) Highlight(id scene.EntityID) renderer.Future[renderer.Highlight] {
	r.record("highlight:%d", id)
	if !r.HoldHighlights {
		return renderer.Resolved[renderer.Highlight](&fakeHighlight{r: r, id: id})
	}
	p := renderer.NewPromise[renderer.Highlight]()
	r.mu.Lock()
	r.highlights = append(r.highlights, heldHighlight{id: id, promise: p})
	r.mu.Unlock()
	return p.Future()
}

func (r *FakeRenderer) GoTo(target renderer.Target, _ renderer.GoToOptions) renderer.Future[struct{}] {
	r.record("goTo:%d", target.EntityID)
	if !r.HoldCamera {
		return renderer.Resolved(struct{}{})
	}
	p := renderer.NewPromise[struct{}]()
	r.mu.Lock()
	r.cameras = append(r.cameras, p)
	r.mu.Unlock()
	return p.Future()
}

func (r *FakeRenderer) OpenPopup(content renderer.Popup, _ scene.Location) {
	r.record("openPopup:%s", content.Title)
}

func (r *FakeRenderer) ClosePopup() {
	r.record("closePopup")
}

// CallsWithPrefix filters Calls to those starting with prefix.
func (r *FakeRenderer) CallsWithPrefix(prefix string) []string {
	var out []string
	for _, c := range r.Calls() {
		if strings.HasPrefix(c, prefix) {
			out = append(out, c)
		}
	}
	return out
}
