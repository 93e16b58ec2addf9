package indicator

import (
	"bytes"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	apperrors "github.com/devatlas/devatlas/internal/errors"
)

// buildWorkbook assembles an in-memory xlsx mirroring the production
// layout: Index + Location ID sheets and one data sheet per code.
func buildWorkbook(t *testing.T) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	set := func(sheet, cell string, value any) {
		t.Helper()
		if err := f.SetCellValue(sheet, cell, value); err != nil {
			t.Fatalf("set %s!%s: %v", sheet, cell, err)
		}
	}
	newSheet := func(name string) {
		t.Helper()
		if _, err := f.NewSheet(name); err != nil {
			t.Fatalf("new sheet %s: %v", name, err)
		}
	}

	newSheet(indexSheet)
	set(indexSheet, "A1", "sector")
	set(indexSheet, "B1", "index code")
	set(indexSheet, "C1", "index")
	set(indexSheet, "A2", "Education")
	set(indexSheet, "B2", "Index02-9")
	set(indexSheet, "C2", "Literacy Rate")
	set(indexSheet, "A3", "Health")
	set(indexSheet, "B3", "Index05-2")
	set(indexSheet, "C3", "Hospital Beds")

	newSheet(locationSheet)
	set(locationSheet, "A1", "ID_1")
	set(locationSheet, "B1", "NAME_1")
	set(locationSheet, "A2", 7)
	set(locationSheet, "B2", "Tehran")
	set(locationSheet, "A3", 21)
	set(locationSheet, "B3", "Qom")
	set(locationSheet, "A4", 11)
	set(locationSheet, "B4", "Hormozgan")

	newSheet("Literacy Rate")
	set("Literacy Rate", "A1", "ID_1")
	set("Literacy Rate", "B1", "2019")
	set("Literacy Rate", "C1", "2020")
	set("Literacy Rate", "D1", "2021")
	set("Literacy Rate", "E1", "2022")
	set("Literacy Rate", "F1", "2023")
	set("Literacy Rate", "A2", 7)
	set("Literacy Rate", "B2", 88.5)
	set("Literacy Rate", "C2", 89.1)
	set("Literacy Rate", "D2", 90.2)
	// 2022 intentionally blank for Tehran.
	set("Literacy Rate", "F2", 91.0)
	set("Literacy Rate", "A3", 21)
	set("Literacy Rate", "B3", 84.0)
	set("Literacy Rate", "C3", 84.6)
	set("Literacy Rate", "D3", 85.8)
	set("Literacy Rate", "E3", 86.0)
	set("Literacy Rate", "F3", 86.3)
	// Province 99 has observations but no boundary and no location row.
	set("Literacy Rate", "A4", 99)
	set("Literacy Rate", "D4", 70.0)

	newSheet("Hospital Beds")
	set("Hospital Beds", "A1", "ID_1")
	set("Hospital Beds", "B1", "2019")
	set("Hospital Beds", "C1", "2020")
	set("Hospital Beds", "D1", "2021")
	set("Hospital Beds", "E1", "2022")
	set("Hospital Beds", "F1", "2023")
	set("Hospital Beds", "A2", 7)
	set("Hospital Beds", "B2", 1.8)
	set("Hospital Beds", "C2", 1.9)
	set("Hospital Beds", "D2", 2.0)
	set("Hospital Beds", "E2", 2.1)
	set("Hospital Beds", "F2", 2.2)

	if err := f.DeleteSheet("Sheet1"); err != nil {
		t.Fatalf("delete default sheet: %v", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	return buf
}

func mustParse(t *testing.T) *Store {
	t.Helper()
	store, err := Parse(buildWorkbook(t))
	if err != nil {
		t.Fatalf("parse workbook: %v", err)
	}
	return store
}

func TestParseCatalog(t *testing.T) {
	store := mustParse(t)

	sectors := store.Sectors()
	if len(sectors) != 2 || sectors[0] != "Education" || sectors[1] != "Health" {
		t.Fatalf("sectors = %v", sectors)
	}
	codes := store.Codes("Education")
	if len(codes) != 1 || codes[0] != "Index02-9" {
		t.Fatalf("education codes = %v", codes)
	}
	ind, ok := store.Indicator("Education", "Index02-9")
	if !ok {
		t.Fatal("expected Education/Index02-9")
	}
	if ind.Label != "Literacy Rate" || ind.Sheet != "Literacy Rate" {
		t.Fatalf("indicator = %+v", ind)
	}
	// The composite key is required: the code alone under the wrong
	// sector must not resolve.
	if _, ok := store.Indicator("Health", "Index02-9"); ok {
		t.Fatal("Index02-9 must not resolve under Health")
	}
}

func TestParseYears(t *testing.T) {
	store := mustParse(t)

	years := store.Years()
	want := []int{2019, 2020, 2021, 2022, 2023}
	if len(years) != len(want) {
		t.Fatalf("years = %v, want %v", years, want)
	}
	for i := range want {
		if years[i] != want[i] {
			t.Fatalf("years = %v, want %v", years, want)
		}
	}
	if !store.HasYear(2021) {
		t.Fatal("2021 should be in the closed set")
	}
	if store.HasYear(2018) {
		t.Fatal("2018 should not be in the closed set")
	}
}

func TestValueLookup(t *testing.T) {
	store := mustParse(t)

	value, ok := store.Value(7, "Education", "Index02-9", 2021)
	if !ok || value != 90.2 {
		t.Fatalf("Value(7, 2021) = %v, %t", value, ok)
	}
	// Blank cell is a missing observation, not zero.
	if _, ok := store.Value(7, "Education", "Index02-9", 2022); ok {
		t.Fatal("Tehran 2022 should be missing")
	}
	if _, ok := store.Value(7, "Health", "Index02-9", 2021); ok {
		t.Fatal("wrong sector should miss")
	}
}

func TestProvinceNames(t *testing.T) {
	store := mustParse(t)

	ids := store.ProvinceIDs()
	if len(ids) != 3 || ids[0] != 7 || ids[1] != 21 || ids[2] != 11 {
		t.Fatalf("province ids = %v", ids)
	}
	if got := store.ProvinceName(21); got != "Qom" {
		t.Fatalf("ProvinceName(21) = %q", got)
	}
	if got := store.ProvinceName(99); got != "Province 99" {
		t.Fatalf("ProvinceName(99) = %q", got)
	}
}

func TestParseDeterministic(t *testing.T) {
	first := mustParse(t)
	second := mustParse(t)

	if len(first.Sectors()) != len(second.Sectors()) {
		t.Fatal("sector catalogs differ between identical loads")
	}
	for id := range first.provinceNames {
		if first.provinceNames[id] != second.provinceNames[id] {
			t.Fatalf("province %d differs between identical loads", id)
		}
	}
	for key, value := range first.observations {
		other, ok := second.observations[key]
		if !ok || other != value {
			t.Fatalf("observation %+v differs between identical loads", key)
		}
	}
	if len(first.observations) != len(second.observations) {
		t.Fatal("observation counts differ between identical loads")
	}
}

func TestParseMissingSheets(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("write workbook: %v", err)
	}

	_, err = Parse(buf)
	if err == nil {
		t.Fatal("expected error for empty workbook")
	}
	if apperrors.KindOf(err) != apperrors.KindMissingFile {
		t.Fatalf("expected missing file kind, got %q", apperrors.KindOf(err))
	}
	if !strings.Contains(err.Error(), "Index") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestParseIndexWithoutSectorColumn(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()

	for _, step := range []struct {
		sheet, cell string
		value       any
	}{
		{indexSheet, "A1", "index code"}, {indexSheet, "B1", "index"},
		{indexSheet, "A2", "Index01-1"}, {indexSheet, "B2", "Data"},
		{locationSheet, "A1", "ID_1"}, {locationSheet, "B1", "NAME_1"},
		{locationSheet, "A2", 7}, {locationSheet, "B2", "Tehran"},
		{"Data", "A1", "ID_1"}, {"Data", "B1", "2019"},
		{"Data", "A2", 7}, {"Data", "B2", 1.5},
	} {
		if _, err := f.NewSheet(step.sheet); err != nil {
			t.Fatalf("new sheet %s: %v", step.sheet, err)
		}
		if err := f.SetCellValue(step.sheet, step.cell, step.value); err != nil {
			t.Fatalf("set %s!%s: %v", step.sheet, step.cell, err)
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("write workbook: %v", err)
	}

	store, err := Parse(buf)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(store.Sectors()) != 1 || store.Sectors()[0] != DefaultSector {
		t.Fatalf("sectors = %v, want [%s]", store.Sectors(), DefaultSector)
	}
}
