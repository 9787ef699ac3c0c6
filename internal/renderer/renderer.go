// Package renderer describes the scene renderer the rest of the program talks
// to. Drawing, projection and styling are the renderer's business; callers
// only see the operations below.
package renderer

import (
	"errors"
	"time"

	"github.com/idursun/mapview/internal/scene"
)

// ErrInterrupted rejects a camera animation that was superseded by a newer
// one or by the user moving the view.
var ErrInterrupted = errors.New("renderer: animation interrupted")

var ErrUnknownEntity = errors.New("renderer: entity is not in any layer")

// PointerEvent is a primary interaction at a view position.
type PointerEvent struct {
	X int
	Y int
}

// ClickMsg is emitted by a renderer when the user clicks the view.
type ClickMsg struct {
	Event PointerEvent
}

// Hit is one result of a hit test. Hits without a record are scene features
// that carry no entity, such as labels of other layers.
type Hit struct {
	Layer     string
	EntityID  scene.EntityID
	HasRecord bool
}

// Highlight is a visual mark on an entity; it stays until removed.
type Highlight interface {
	Remove()
}

type Target struct {
	EntityID scene.EntityID
	Location scene.Location
}

type GoToOptions struct {
	Zoom     float64
	Duration time.Duration
}

type Popup struct {
	Title   string
	Content string
}

type Renderer interface {
	// AddLayer registers a data layer; its entities become hit-testable.
	AddLayer(spec LayerSpec) error
	// HitTest resolves a pointer event to the features under it, topmost first.
	HitTest(event PointerEvent) Future[[]Hit]
	// WatchInteraction calls fn whenever the user starts or stops moving the
	// view. The returned function stops the notifications.
	WatchInteraction(fn func(active bool)) (stop func())
	Highlight(id scene.EntityID) Future[Highlight]
	// GoTo animates the camera and settles when the animation ends.
	GoTo(target Target, options GoToOptions) Future[struct{}]
	OpenPopup(content Popup, location scene.Location)
	ClosePopup()
}
