package dataset

import (
	"github.com/devatlas/devatlas/internal/indicator"
)

// Point is one year on a trend series. Missing points render as gaps,
// never as zero, so data unavailability stays visible.
type Point struct {
	Year    int
	Value   float64
	Missing bool
}

// TrendResult aligns the national series and the optional focused
// province series over the closed year axis.
type TrendResult struct {
	Years    []int
	National []Point
	Province []Point
	// ProvinceName labels the province series when focused.
	ProvinceName string
}

// Trend computes the national average series for the resolved key
// and, when focusID is non-zero, the focused province's own series.
// The national point for a year is the arithmetic mean of all
// non-missing observations across provinces; a year with zero
// observations is itself missing.
func Trend(indStore *indicator.Store, key Key, focusID int) TrendResult {
	years := indStore.Years()
	result := TrendResult{
		Years:    years,
		National: make([]Point, 0, len(years)),
	}

	for _, year := range years {
		sum := 0.0
		count := 0
		for _, id := range indStore.AllProvinceIDs() {
			if value, ok := indStore.Value(id, key.Sector, key.Code, year); ok {
				sum += value
				count++
			}
		}
		point := Point{Year: year, Missing: true}
		if count > 0 {
			point.Value = sum / float64(count)
			point.Missing = false
		}
		result.National = append(result.National, point)
	}

	if focusID != 0 {
		result.ProvinceName = indStore.ProvinceName(focusID)
		result.Province = make([]Point, 0, len(years))
		for _, year := range years {
			point := Point{Year: year, Missing: true}
			if value, ok := indStore.Value(focusID, key.Sector, key.Code, year); ok {
				point.Value = value
				point.Missing = false
			}
			result.Province = append(result.Province, point)
		}
	}
	return result
}
