// Package entities reads the entity collection from GeoJSON, TOML or YAML
// files.
package entities

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	json "github.com/goccy/go-json"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/idursun/mapview/internal/scene"
)

var (
	ErrUnknownFormat = errors.New("unknown entity file format")
	ErrDuplicateID   = errors.New("duplicate entity id")
	ErrGeometry      = errors.New("unsupported geometry")
	ErrInvalidID     = errors.New("entity id is not a whole number")
)

//go:embed default/capitals.toml
var defaultFS embed.FS

type Format string

const (
	FormatGeoJSON Format = "geojson"
	FormatTOML    Format = "toml"
	FormatYAML    Format = "yaml"
)

// FormatOf picks the format from the file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".geojson":
		return FormatGeoJSON, nil
	case ".toml":
		return FormatTOML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownFormat, path)
}

// record is an entity as read from a file; ID is nil when the file has none.
type record struct {
	ID          *int    `toml:"id" yaml:"id"`
	Name        string  `toml:"name" yaml:"name"`
	Country     string  `toml:"country" yaml:"country"`
	Description string  `toml:"description" yaml:"description"`
	Lon         float64 `toml:"lon" yaml:"lon"`
	Lat         float64 `toml:"lat" yaml:"lat"`
}

// Default returns the embedded national capitals.
func Default() ([]scene.Entity, error) {
	data, err := defaultFS.ReadFile("default/capitals.toml")
	if err != nil {
		return nil, err
	}
	records, err := decode(FormatTOML, data)
	if err != nil {
		return nil, fmt.Errorf("embedded capitals: %w", err)
	}
	return assign(records)
}

// LoadFile reads a single entity file.
func LoadFile(path string) ([]scene.Entity, error) {
	records, err := readFile(path)
	if err != nil {
		return nil, err
	}
	return assign(records)
}

// Load reads every file concurrently and joins the results in argument
// order. Entities without an id get the next free id, in file order.
func Load(ctx context.Context, paths []string) ([]scene.Entity, error) {
	results := make([][]record, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			records, err := readFile(path)
			if err != nil {
				return err
			}
			results[i] = records
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []record
	for _, records := range results {
		all = append(all, records...)
	}
	return assign(all)
}

func readFile(path string) ([]record, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	records, err := decode(format, data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return records, nil
}

// decode parses data in the given format.
func decode(format Format, data []byte) ([]record, error) {
	switch format {
	case FormatGeoJSON:
		return decodeGeoJSON(data)
	case FormatTOML:
		var doc struct {
			Entity []record `toml:"entity"`
		}
		if _, err := toml.NewDecoder(bytes.NewReader(data)).Decode(&doc); err != nil {
			return nil, err
		}
		return doc.Entity, nil
	case FormatYAML:
		var doc struct {
			Entities []record `yaml:"entities"`
		}
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, err
		}
		return doc.Entities, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
}

type featureCollection struct {
	Type     string    `json:"type"`
	Features []feature `json:"features"`
}

type feature struct {
	ID         json.RawMessage `json:"id"`
	Geometry   *geometry       `json:"geometry"`
	Properties map[string]any  `json:"properties"`
}

type geometry struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
}

func decodeGeoJSON(data []byte) ([]record, error) {
	var fc featureCollection
	if err := json.Unmarshal(data, &fc); err != nil {
		return nil, err
	}
	if fc.Type != "FeatureCollection" {
		return nil, fmt.Errorf("%w: geojson type %q, want FeatureCollection", ErrUnknownFormat, fc.Type)
	}
	records := make([]record, 0, len(fc.Features))
	for i, f := range fc.Features {
		if f.Geometry == nil || f.Geometry.Type != "Point" || len(f.Geometry.Coordinates) < 2 {
			return nil, fmt.Errorf("feature %d: %w", i, ErrGeometry)
		}
		r := record{
			Name:        stringProperty(f.Properties, "name", "CITY_NAME"),
			Country:     stringProperty(f.Properties, "country", "CNTRY_NAME"),
			Description: stringProperty(f.Properties, "description"),
			Lon:         f.Geometry.Coordinates[0],
			Lat:         f.Geometry.Coordinates[1],
		}
		id, err := featureID(f)
		if err != nil {
			return nil, fmt.Errorf("feature %d: %w", i, err)
		}
		r.ID = id
		records = append(records, r)
	}
	return records, nil
}

func stringProperty(props map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := props[k].(string); ok {
			return s
		}
	}
	return ""
}

// featureID prefers the numeric feature id over the id and OBJECTID
// properties. String ids are not entity ids and are skipped.
func featureID(f feature) (*int, error) {
	var raw any
	if len(f.ID) > 0 {
		if err := json.Unmarshal(f.ID, &raw); err != nil {
			return nil, err
		}
	}
	if n, ok := raw.(float64); ok {
		return wholeNumber(n)
	}
	for _, k := range []string{"id", "OBJECTID"} {
		if n, ok := f.Properties[k].(float64); ok {
			return wholeNumber(n)
		}
	}
	return nil, nil
}

func wholeNumber(n float64) (*int, error) {
	if n != math.Trunc(n) || math.IsInf(n, 0) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidID, n)
	}
	id := int(n)
	return &id, nil
}

func assign(records []record) ([]scene.Entity, error) {
	used := make(map[int]bool, len(records))
	next := 1
	for _, r := range records {
		if r.ID == nil {
			continue
		}
		if used[*r.ID] {
			return nil, fmt.Errorf("%w: %d (%s)", ErrDuplicateID, *r.ID, r.Name)
		}
		used[*r.ID] = true
		next = max(next, *r.ID+1)
	}

	entities := make([]scene.Entity, 0, len(records))
	for _, r := range records {
		var id int
		if r.ID != nil {
			id = *r.ID
		} else {
			id = next
			next++
		}
		entities = append(entities, scene.Entity{
			ID:          scene.EntityID(id),
			Name:        r.Name,
			Country:     r.Country,
			Description: r.Description,
			Location:    scene.Location{Lon: r.Lon, Lat: r.Lat},
		})
	}
	return entities, nil
}
