// Package geo loads the province boundary file and answers geometry
// lookups for the dashboard: ordered features for the choropleth join
// and point-in-polygon hit tests for map clicks.
package geo

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	geom "github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
	"github.com/twpayne/go-geom/xy"

	apperrors "github.com/devatlas/devatlas/internal/errors"
)

// Feature is one province boundary entry.
type Feature struct {
	// ID is the numeric province identifier (ID_1 in the boundary file).
	ID int
	// Name is the canonical province name (NAME_1 in the boundary file).
	Name string
	// Geometry is the Polygon or MultiPolygon boundary in WGS84.
	Geometry geom.T
	// Centroid is a representative interior point used for tooltips.
	Centroid geom.Coord
}

// Store holds boundary features in file insertion order. It is
// immutable after Parse and safe for concurrent readers.
type Store struct {
	features []Feature
	byID     map[int]int
	byName   map[string]int
}

// Load reads and parses the boundary file at path.
func Load(path string) (*Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperrors.E(apperrors.KindMissingFile, fmt.Sprintf("open boundary file %s: %v", path, err))
	}
	defer f.Close()
	return Parse(f)
}

// Parse decodes a GeoJSON FeatureCollection into a Store. Feature order
// is preserved exactly as written in the file.
func Parse(r io.Reader) (*Store, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, apperrors.E(apperrors.KindMissingFile, fmt.Sprintf("read boundary file: %v", err))
	}

	var fc geojson.FeatureCollection
	if err := json.Unmarshal(raw, &fc); err != nil {
		return nil, apperrors.E(apperrors.KindMissingFile, fmt.Sprintf("decode boundary geojson: %v", err))
	}
	if len(fc.Features) == 0 {
		return nil, apperrors.E(apperrors.KindMissingFile, "boundary file has no features")
	}

	store := &Store{
		byID:   make(map[int]int, len(fc.Features)),
		byName: make(map[string]int, len(fc.Features)),
	}
	for i, feature := range fc.Features {
		if feature == nil || feature.Geometry == nil {
			return nil, apperrors.E(apperrors.KindMissingFile, fmt.Sprintf("boundary feature %d has no geometry", i))
		}
		switch feature.Geometry.(type) {
		case *geom.Polygon, *geom.MultiPolygon:
		default:
			return nil, apperrors.E(apperrors.KindMissingFile,
				fmt.Sprintf("boundary feature %d: unsupported geometry %T", i, feature.Geometry))
		}

		id, err := propertyID(feature.Properties)
		if err != nil {
			return nil, apperrors.E(apperrors.KindMissingFile, fmt.Sprintf("boundary feature %d: %v", i, err))
		}
		name := propertyName(feature.Properties)
		if name == "" {
			return nil, apperrors.E(apperrors.KindMissingFile, fmt.Sprintf("boundary feature %d: NAME_1 is missing", i))
		}
		if _, exists := store.byID[id]; exists {
			return nil, apperrors.E(apperrors.KindMissingFile, fmt.Sprintf("duplicate province id %d", id))
		}

		centroid, err := xy.Centroid(feature.Geometry)
		if err != nil {
			return nil, apperrors.E(apperrors.KindMissingFile, fmt.Sprintf("centroid for province %q: %v", name, err))
		}

		store.byID[id] = len(store.features)
		store.byName[name] = len(store.features)
		store.features = append(store.features, Feature{
			ID:       id,
			Name:     name,
			Geometry: feature.Geometry,
			Centroid: centroid,
		})
	}
	return store, nil
}

// Features returns boundary entries in insertion order. The returned
// slice is shared and must not be mutated.
func (s *Store) Features() []Feature {
	if s == nil {
		return nil
	}
	return s.features
}

// Len returns the number of boundary entries.
func (s *Store) Len() int {
	if s == nil {
		return 0
	}
	return len(s.features)
}

// ByID returns the boundary entry for a province id.
func (s *Store) ByID(id int) (Feature, bool) {
	if s == nil {
		return Feature{}, false
	}
	idx, ok := s.byID[id]
	if !ok {
		return Feature{}, false
	}
	return s.features[idx], true
}

// ByName returns the boundary entry for a canonical province name.
func (s *Store) ByName(name string) (Feature, bool) {
	if s == nil {
		return Feature{}, false
	}
	idx, ok := s.byName[strings.TrimSpace(name)]
	if !ok {
		return Feature{}, false
	}
	return s.features[idx], true
}

// Locate returns the province containing the given WGS84 coordinate,
// resolving map clicks to a focused province. The second return is
// false when the point falls outside every boundary.
func (s *Store) Locate(lng, lat float64) (Feature, bool) {
	if s == nil {
		return Feature{}, false
	}
	point := geom.Coord{lng, lat}
	for _, feature := range s.features {
		if !feature.Geometry.Bounds().OverlapsPoint(geom.XY, point) {
			continue
		}
		if geometryContains(feature.Geometry, point) {
			return feature, true
		}
	}
	return Feature{}, false
}

func geometryContains(g geom.T, point geom.Coord) bool {
	switch gg := g.(type) {
	case *geom.Polygon:
		return polygonContains(gg, point)
	case *geom.MultiPolygon:
		for i := 0; i < gg.NumPolygons(); i++ {
			if polygonContains(gg.Polygon(i), point) {
				return true
			}
		}
	}
	return false
}

func polygonContains(polygon *geom.Polygon, point geom.Coord) bool {
	if polygon.NumLinearRings() == 0 {
		return false
	}
	if !xy.IsPointInRing(polygon.Layout(), point, polygon.LinearRing(0).FlatCoords()) {
		return false
	}
	// Interior rings are holes.
	for i := 1; i < polygon.NumLinearRings(); i++ {
		if xy.IsPointInRing(polygon.Layout(), point, polygon.LinearRing(i).FlatCoords()) {
			return false
		}
	}
	return true
}

func propertyID(properties map[string]any) (int, error) {
	value, ok := properties["ID_1"]
	if !ok {
		return 0, fmt.Errorf("ID_1 is missing")
	}
	switch v := value.(type) {
	case float64:
		return int(v), nil
	case int:
		return v, nil
	case string:
		id, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, fmt.Errorf("ID_1 %q is not numeric", v)
		}
		return id, nil
	default:
		return 0, fmt.Errorf("ID_1 has unsupported type %T", value)
	}
}

func propertyName(properties map[string]any) string {
	value, ok := properties["NAME_1"]
	if !ok {
		return ""
	}
	name, _ := value.(string)
	return strings.TrimSpace(name)
}
