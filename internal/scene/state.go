package scene

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var ErrDuplicateID = errors.New("duplicate entity id")

// Timeout is an opaque handle tied to the current selection. The zero value
// means no handle.
type Timeout uuid.UUID

var NoTimeout Timeout

func NewTimeout() Timeout {
	return Timeout(uuid.New())
}

func (t Timeout) IsZero() bool {
	return t == NoTimeout
}

func (t Timeout) String() string {
	if t.IsZero() {
		return "none"
	}
	return uuid.UUID(t).String()
}

// collection is shared by every State derived from the same NewState call and
// is never modified after construction.
type collection struct {
	items []*Entity
	index map[EntityID]int
}

// State is one version of the application state. It is never modified after
// construction; Reduce returns a new value instead.
type State struct {
	selected *Entity
	onTour   bool
	timeout  Timeout
	entities *collection
}

// NewState builds the initial state. Entities are copied, so later changes to
// the argument do not leak into the state.
func NewState(entities []Entity) (*State, error) {
	c := &collection{
		items: make([]*Entity, 0, len(entities)),
		index: make(map[EntityID]int, len(entities)),
	}
	for _, e := range entities {
		if _, ok := c.index[e.ID]; ok {
			return nil, fmt.Errorf("%w: %d", ErrDuplicateID, e.ID)
		}
		entity := e
		c.index[e.ID] = len(c.items)
		c.items = append(c.items, &entity)
	}
	return &State{entities: c}, nil
}

func (s *State) Selected() *Entity {
	return s.selected
}

func (s *State) OnTour() bool {
	return s.onTour
}

func (s *State) Timeout() Timeout {
	return s.timeout
}

// Entities returns the entity collection in its original order.
func (s *State) Entities() []*Entity {
	items := make([]*Entity, len(s.entities.items))
	copy(items, s.entities.items)
	return items
}

func (s *State) Len() int {
	return len(s.entities.items)
}

func (s *State) At(i int) *Entity {
	return s.entities.items[i]
}

// Entity looks an entity up by id.
func (s *State) Entity(id EntityID) (*Entity, bool) {
	i, ok := s.entities.index[id]
	if !ok {
		return nil, false
	}
	return s.entities.items[i], true
}

// IndexOf returns the position of e in the collection, or -1.
func (s *State) IndexOf(e *Entity) int {
	if e == nil {
		return -1
	}
	i, ok := s.entities.index[e.ID]
	if !ok {
		return -1
	}
	return i
}

// Contains reports whether e is the collection's own record, not merely one
// with the same id.
func (s *State) Contains(e *Entity) bool {
	i := s.IndexOf(e)
	return i >= 0 && s.entities.items[i] == e
}

// Equal compares two states field by field. Both must come from the same
// NewState call to be equal.
func (s *State) Equal(other *State) bool {
	if s == other {
		return true
	}
	if s == nil || other == nil {
		return false
	}
	return s.selected == other.selected &&
		s.onTour == other.onTour &&
		s.timeout == other.timeout &&
		s.entities == other.entities
}
