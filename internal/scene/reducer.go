package scene

import (
	"log/slog"

	"github.com/idursun/mapview/internal/store"
	"github.com/idursun/mapview/internal/watch"
)

// Reduce computes the state that follows action. It never modifies s, and it
// returns s itself for anything it does not handle.
//
// A SelectEntity naming an entity outside the collection is not handled:
// the selection can only ever point at the collection's own records.
func Reduce(s *State, action Action) *State {
	switch a := action.(type) {
	case SelectEntity:
		var selected *Entity
		if a.Entity != nil {
			e, ok := s.Entity(a.Entity.ID)
			if !ok {
				return s
			}
			selected = e
		}
		next := *s
		next.selected = selected
		next.timeout = a.Timeout
		return &next
	case TourStarted:
		next := *s
		next.onTour = true
		return &next
	case TourStopped:
		next := *s
		next.onTour = false
		return &next
	}
	return s
}

type Store = store.Store[*State, Action]

func NewStore(initial *State, logger *slog.Logger) *Store {
	return store.New(Reduce, initial, store.WithLogger(logger))
}

var (
	SelectedField = watch.Field[*State, *Entity]{Name: "selected", Get: (*State).Selected}
	OnTourField   = watch.Field[*State, bool]{Name: "onTour", Get: (*State).OnTour}
)
