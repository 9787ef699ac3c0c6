package scene

// Action describes an intended state change. The set of actions is closed:
// only types in this package implement it.
type Action interface {
	isAction()
}

// SelectEntity selects Entity, or clears the selection when Entity is nil.
// Timeout replaces the state's handle; leaving it zero clears the handle.
type SelectEntity struct {
	Entity  *Entity
	Timeout Timeout
}

func (SelectEntity) isAction() {}

type TourStarted struct{}

func (TourStarted) isAction() {}

type TourStopped struct{}

func (TourStopped) isAction() {}

// Deselect is SelectEntity with no entity.
func Deselect() SelectEntity {
	return SelectEntity{}
}
