package dataset

import (
	"github.com/devatlas/devatlas/internal/geo"
	"github.com/devatlas/devatlas/internal/indicator"
)

// Row is one display record produced by the join: a province and its
// value for the active selection. Missing rows keep their geometry and
// are rendered in a distinguishable no-data state, never omitted.
type Row struct {
	ProvinceID int
	Name       string
	Value      float64
	Missing    bool
}

// JoinResult carries the merged display records plus provinces that
// appear in the indicator file without a matching boundary. Orphans
// are excluded from the map but still listed in the raw table.
type JoinResult struct {
	Rows    []Row
	Orphans []Row
	// Min and Max span the non-missing mapped values, for the color
	// scale. Orphans are not drawn and do not stretch the scale.
	Min float64
	Max float64
}

// Join merges boundary features with indicator values for the resolved
// key and year. Output order is the geo store's insertion order, so
// repeated calls with identical inputs are byte-identical. Every
// boundary feature yields exactly one row.
func Join(geoStore *geo.Store, indStore *indicator.Store, key Key, year int) JoinResult {
	features := geoStore.Features()
	result := JoinResult{Rows: make([]Row, 0, len(features))}

	first := true
	for _, feature := range features {
		row := Row{ProvinceID: feature.ID, Name: feature.Name, Missing: true}
		if value, ok := indStore.Value(feature.ID, key.Sector, key.Code, year); ok {
			row.Value = value
			row.Missing = false
			if first || value < result.Min {
				result.Min = value
			}
			if first || value > result.Max {
				result.Max = value
			}
			first = false
		}
		result.Rows = append(result.Rows, row)
	}

	for _, id := range indStore.AllProvinceIDs() {
		if _, ok := geoStore.ByID(id); ok {
			continue
		}
		row := Row{ProvinceID: id, Name: indStore.ProvinceName(id), Missing: true}
		if value, ok := indStore.Value(id, key.Sector, key.Code, year); ok {
			row.Value = value
			row.Missing = false
		}
		result.Orphans = append(result.Orphans, row)
	}
	return result
}
