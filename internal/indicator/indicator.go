// Package indicator loads the development indicator workbook and
// answers observation lookups keyed by (province, sector,
// sub-indicator, year).
//
// Workbook layout, carried over from the source material:
//
//   - sheet "Index": one row per sub-indicator with columns
//     "sector" (optional), "index code" and "index" (data sheet name);
//   - sheet "Location ID": columns "ID_1" and "NAME_1";
//   - one data sheet per sub-indicator: column "ID_1" plus one column
//     per 4-digit year. Blank or non-numeric cells are missing
//     observations.
package indicator

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	apperrors "github.com/devatlas/devatlas/internal/errors"
)

const (
	indexSheet    = "Index"
	locationSheet = "Location ID"

	// DefaultSector groups codes from workbooks whose Index sheet
	// carries no sector column.
	DefaultSector = "General"
)

// Indicator describes one sub-indicator.
type Indicator struct {
	// Sector is the top-level grouping, e.g. "Education".
	Sector string
	// Code is the sub-indicator code, e.g. "Index02-9".
	Code string
	// Label is the display label shown next to the code.
	Label string
	// Sheet is the workbook sheet holding the observations.
	Sheet string
}

type indicatorKey struct {
	sector string
	code   string
}

type obsKey struct {
	provinceID int
	sector     string
	code       string
	year       int
}

// Store holds the parsed workbook. It is immutable after Parse and
// safe for concurrent readers.
type Store struct {
	sectors       []string
	codesBySector map[string][]string
	indicators    map[indicatorKey]Indicator
	years         []int
	provinceIDs   []int
	allProvinces  []int
	provinceSeen  map[int]struct{}
	provinceNames map[int]string
	observations  map[obsKey]float64
}

// Load reads and parses the workbook at path.
func Load(path string) (*Store, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, apperrors.E(apperrors.KindMissingFile, fmt.Sprintf("open indicator workbook %s: %v", path, err))
	}
	defer f.Close()
	return parseWorkbook(f)
}

// Parse decodes an xlsx workbook from r.
func Parse(r io.Reader) (*Store, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, apperrors.E(apperrors.KindMissingFile, fmt.Sprintf("read indicator workbook: %v", err))
	}
	defer f.Close()
	return parseWorkbook(f)
}

func parseWorkbook(f *excelize.File) (*Store, error) {
	store := &Store{
		codesBySector: make(map[string][]string),
		indicators:    make(map[indicatorKey]Indicator),
		provinceSeen:  make(map[int]struct{}),
		provinceNames: make(map[int]string),
		observations:  make(map[obsKey]float64),
	}

	if err := store.parseIndex(f); err != nil {
		return nil, err
	}
	if err := store.parseLocations(f); err != nil {
		return nil, err
	}

	yearSet := make(map[int]struct{})
	for _, sector := range store.sectors {
		for _, code := range store.codesBySector[sector] {
			ind := store.indicators[indicatorKey{sector: sector, code: code}]
			if err := store.parseDataSheet(f, ind, yearSet); err != nil {
				return nil, err
			}
		}
	}
	if len(yearSet) == 0 {
		return nil, apperrors.E(apperrors.KindMissingFile, "indicator workbook has no year columns")
	}
	for year := range yearSet {
		store.years = append(store.years, year)
	}
	sort.Ints(store.years)

	return store, nil
}

func (s *Store) parseIndex(f *excelize.File) error {
	rows, err := f.GetRows(indexSheet)
	if err != nil {
		return apperrors.E(apperrors.KindMissingFile, fmt.Sprintf("indicator workbook: missing %q sheet", indexSheet))
	}
	if len(rows) < 2 {
		return apperrors.E(apperrors.KindMissingFile, fmt.Sprintf("%q sheet has no entries", indexSheet))
	}

	header := headerIndex(rows[0])
	codeCol, ok := header["index code"]
	if !ok {
		return apperrors.E(apperrors.KindMissingFile, `"Index" sheet needs an "index code" column`)
	}
	sheetCol, ok := header["index"]
	if !ok {
		return apperrors.E(apperrors.KindMissingFile, `"Index" sheet needs an "index" column`)
	}
	sectorCol, hasSector := header["sector"]

	for _, row := range rows[1:] {
		code := cell(row, codeCol)
		sheet := cell(row, sheetCol)
		if code == "" || sheet == "" {
			continue
		}
		sector := DefaultSector
		if hasSector {
			if value := cell(row, sectorCol); value != "" {
				sector = value
			}
		}
		key := indicatorKey{sector: sector, code: code}
		if _, exists := s.indicators[key]; exists {
			return apperrors.E(apperrors.KindMissingFile,
				fmt.Sprintf("duplicate sub-indicator %q in sector %q", code, sector))
		}
		if _, seen := s.codesBySector[sector]; !seen {
			s.sectors = append(s.sectors, sector)
		}
		s.codesBySector[sector] = append(s.codesBySector[sector], code)
		s.indicators[key] = Indicator{Sector: sector, Code: code, Label: sheet, Sheet: sheet}
	}
	if len(s.indicators) == 0 {
		return apperrors.E(apperrors.KindMissingFile, fmt.Sprintf("%q sheet has no entries", indexSheet))
	}
	return nil
}

func (s *Store) parseLocations(f *excelize.File) error {
	rows, err := f.GetRows(locationSheet)
	if err != nil {
		return apperrors.E(apperrors.KindMissingFile, fmt.Sprintf("indicator workbook: missing %q sheet", locationSheet))
	}
	if len(rows) < 2 {
		return apperrors.E(apperrors.KindMissingFile, fmt.Sprintf("%q sheet has no entries", locationSheet))
	}

	header := headerIndex(rows[0])
	idCol, ok := header["id_1"]
	if !ok {
		return apperrors.E(apperrors.KindMissingFile, `"Location ID" sheet needs an "ID_1" column`)
	}
	nameCol, ok := header["name_1"]
	if !ok {
		return apperrors.E(apperrors.KindMissingFile, `"Location ID" sheet needs a "NAME_1" column`)
	}

	for _, row := range rows[1:] {
		idText := cell(row, idCol)
		name := cell(row, nameCol)
		if idText == "" || name == "" {
			continue
		}
		id, err := strconv.Atoi(idText)
		if err != nil {
			return apperrors.E(apperrors.KindMissingFile, fmt.Sprintf("location id %q is not numeric", idText))
		}
		if _, exists := s.provinceNames[id]; exists {
			continue
		}
		s.provinceIDs = append(s.provinceIDs, id)
		s.provinceNames[id] = name
		s.trackProvince(id)
	}
	return nil
}

// trackProvince records a province id the first time it is seen,
// preserving encounter order so derived iterations stay deterministic.
func (s *Store) trackProvince(id int) {
	if _, seen := s.provinceSeen[id]; seen {
		return
	}
	s.provinceSeen[id] = struct{}{}
	s.allProvinces = append(s.allProvinces, id)
}

func (s *Store) parseDataSheet(f *excelize.File, ind Indicator, yearSet map[int]struct{}) error {
	rows, err := f.GetRows(ind.Sheet)
	if err != nil {
		return apperrors.E(apperrors.KindMissingFile,
			fmt.Sprintf("sub-indicator %s: missing data sheet %q", ind.Code, ind.Sheet))
	}
	if len(rows) < 2 {
		return nil
	}

	header := headerIndex(rows[0])
	idCol, ok := header["id_1"]
	if !ok {
		return apperrors.E(apperrors.KindMissingFile,
			fmt.Sprintf("data sheet %q needs an \"ID_1\" column", ind.Sheet))
	}

	yearCols := make(map[int]int)
	for i, label := range rows[0] {
		year, ok := parseYear(label)
		if !ok {
			continue
		}
		yearCols[i] = year
		yearSet[year] = struct{}{}
	}
	if len(yearCols) == 0 {
		return apperrors.E(apperrors.KindMissingFile,
			fmt.Sprintf("data sheet %q has no year columns", ind.Sheet))
	}

	for _, row := range rows[1:] {
		idText := cell(row, idCol)
		if idText == "" {
			continue
		}
		id, err := strconv.Atoi(idText)
		if err != nil {
			continue
		}
		s.trackProvince(id)
		for col, year := range yearCols {
			text := cell(row, col)
			if text == "" {
				continue
			}
			value, err := strconv.ParseFloat(text, 64)
			if err != nil {
				continue
			}
			s.observations[obsKey{provinceID: id, sector: ind.Sector, code: ind.Code, year: year}] = value
		}
	}
	return nil
}

// Sectors returns sector names in workbook order.
func (s *Store) Sectors() []string {
	return s.sectors
}

// Codes returns sub-indicator codes for a sector, in workbook order.
func (s *Store) Codes(sector string) []string {
	return s.codesBySector[sector]
}

// Indicator returns metadata for a (sector, code) pair. Code alone is
// ambiguous across sectors; both parts are always required.
func (s *Store) Indicator(sector, code string) (Indicator, bool) {
	ind, ok := s.indicators[indicatorKey{sector: sector, code: code}]
	return ind, ok
}

// Years returns the closed year set, ascending.
func (s *Store) Years() []int {
	return s.years
}

// HasYear reports whether the year belongs to the closed set.
func (s *Store) HasYear(year int) bool {
	for _, y := range s.years {
		if y == year {
			return true
		}
	}
	return false
}

// Value returns the observation for (province, sector, code, year).
func (s *Store) Value(provinceID int, sector, code string, year int) (float64, bool) {
	value, ok := s.observations[obsKey{provinceID: provinceID, sector: sector, code: code, year: year}]
	return value, ok
}

// ProvinceIDs returns province ids in "Location ID" row order.
func (s *Store) ProvinceIDs() []int {
	return s.provinceIDs
}

// AllProvinceIDs returns every province id referenced by the workbook:
// the location sheet ids first, then ids that only appear in data
// sheets, in first-seen order.
func (s *Store) AllProvinceIDs() []int {
	return s.allProvinces
}

// ProvinceName returns the canonical name for a province id, falling
// back to a synthetic label for ids absent from the location sheet.
func (s *Store) ProvinceName(id int) string {
	if name, ok := s.provinceNames[id]; ok {
		return name
	}
	return fmt.Sprintf("Province %d", id)
}

func headerIndex(row []string) map[string]int {
	index := make(map[string]int, len(row))
	for i, label := range row {
		label = strings.ToLower(strings.TrimSpace(label))
		if label == "" {
			continue
		}
		if _, exists := index[label]; !exists {
			index[label] = i
		}
	}
	return index
}

func cell(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[col])
}

func parseYear(label string) (int, bool) {
	label = strings.TrimSpace(label)
	if len(label) != 4 {
		return 0, false
	}
	year, err := strconv.Atoi(label)
	if err != nil {
		return 0, false
	}
	return year, true
}
