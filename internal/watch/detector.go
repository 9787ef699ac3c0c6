// Package watch turns "the store changed" notifications into "this field
// changed" callbacks.
package watch

// Field names one value of a state type and how to read it.
type Field[S any, T comparable] struct {
	Name string
	Get  func(S) T
}

// Callback receives a field transition.
type Callback[T any] func(newValue, oldValue T, field string)

// Source is the part of a store a detector needs.
type Source[S any] interface {
	GetState() S
	Subscribe(listener func()) (unsubscribe func())
}

// Detector compares a field against the value seen on the previous
// notification. Values are compared with ==, so pointer fields change only
// when they point somewhere else.
type Detector[S any, T comparable] struct {
	accessor func() S
	field    Field[S, T]
	initial  T
}

// New reads the field once so that the first notification only fires when the
// value moved away from what it was at construction.
func New[S any, T comparable](accessor func() S, field Field[S, T]) *Detector[S, T] {
	return &Detector[S, T]{
		accessor: accessor,
		field:    field,
		initial:  field.Get(accessor()),
	}
}

// NewUnprimed starts from the zero value of T instead of reading the field.
func NewUnprimed[S any, T comparable](accessor func() S, field Field[S, T]) *Detector[S, T] {
	return &Detector[S, T]{accessor: accessor, field: field}
}

// Wrap returns a store listener that calls f only when the field changed.
// Each wrapped listener keeps its own cursor.
func (d *Detector[S, T]) Wrap(f Callback[T]) func() {
	oldValue := d.initial
	return func() {
		newValue := d.field.Get(d.accessor())
		if newValue == oldValue {
			return
		}
		previous := oldValue
		f(newValue, previous, d.field.Name)
		oldValue = newValue
	}
}

// Attach subscribes a primed detector for field to src.
func Attach[S any, T comparable](src Source[S], field Field[S, T], f Callback[T]) (unsubscribe func()) {
	return src.Subscribe(New(src.GetState, field).Wrap(f))
}
