package renderer

import (
	"strconv"

	"github.com/idursun/mapview/internal/scene"
)

type GeometryType string

const GeometryPoint GeometryType = "point"

type FieldType string

const (
	FieldInteger FieldType = "integer"
	FieldString  FieldType = "string"
)

type Field struct {
	Name  string
	Alias string
	Type  FieldType
}

// UniqueValue styles every entity whose id modulo the renderer's Modulo equals
// Value.
type UniqueValue struct {
	Value int
	Label string
	Color string
}

type UniqueValueRenderer struct {
	Modulo int
	Values []UniqueValue
}

// Symbol picks the style for an entity id. ok is false when no value matches.
func (r UniqueValueRenderer) Symbol(id scene.EntityID) (UniqueValue, bool) {
	if r.Modulo <= 0 {
		return UniqueValue{}, false
	}
	key := int(id) % r.Modulo
	if key < 0 {
		key += r.Modulo
	}
	for _, v := range r.Values {
		if v.Value == key {
			return v, true
		}
	}
	return UniqueValue{}, false
}

type LayerSpec struct {
	Title            string
	Geometry         GeometryType
	Fields           []Field
	LabelField       string
	Renderer         UniqueValueRenderer
	HighlightColor   string
	// HighlightOpacity is within [0, 1]; zero only swaps the marker.
	HighlightOpacity float64
	Entities         []*scene.Entity
}

// EntityFields are the attribute fields every entity layer carries.
var EntityFields = []Field{
	{Name: "id", Alias: "ID", Type: FieldInteger},
	{Name: "name", Alias: "Name", Type: FieldString},
	{Name: "country", Alias: "Country", Type: FieldString},
	{Name: "description", Alias: "Description", Type: FieldString},
}

// Label returns the value of the label field for e.
func (l LayerSpec) Label(e *scene.Entity) string {
	switch l.LabelField {
	case "country":
		return e.Country
	case "description":
		return e.Description
	case "id":
		return strconv.Itoa(int(e.ID))
	default:
		return e.Name
	}
}
