package dashboard

import (
	"context"
	"fmt"
	"strconv"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/devatlas/devatlas/internal/dataset"
	"github.com/devatlas/devatlas/internal/indicator"
	"github.com/devatlas/devatlas/internal/services/dashboard/templates"
)

const pageTitle = "Provincial Development Indicators"

// missingCell marks absent observations in the table.
const missingCell = "—"

const uploadListLimit = 5

var numberPrinter = message.NewPrinter(language.English)

func formatValue(value float64) string {
	return numberPrinter.Sprintf("%.1f", value)
}

// focusName resolves the focused province's display name, preferring
// the boundary file's canonical spelling.
func (a *App) focusName(store *indicator.Store, selection dataset.Selection) string {
	if !selection.Focused() {
		return ""
	}
	if feature, ok := a.geo.ByID(selection.FocusID); ok {
		return feature.Name
	}
	return store.ProvinceName(selection.FocusID)
}

// indicatorLabel builds the heading for the active indicator.
func indicatorLabel(store *indicator.Store, selection dataset.Selection) string {
	ind, ok := store.Indicator(selection.Sector, selection.Code)
	if !ok {
		return fmt.Sprintf("%s / %s", selection.Sector, selection.Code)
	}
	if ind.Label == "" {
		return ind.Code
	}
	return fmt.Sprintf("%s (%s)", ind.Label, ind.Code)
}

func buildControls(store *indicator.Store, selection dataset.Selection, focusName string) templates.Controls {
	controls := templates.Controls{
		Reverse:   selection.Reverse,
		FocusName: focusName,
	}
	for _, sector := range store.Sectors() {
		controls.Sectors = append(controls.Sectors, templates.Option{
			Value:    sector,
			Label:    sector,
			Selected: sector == selection.Sector,
		})
	}
	for _, code := range store.Codes(selection.Sector) {
		label := code
		if ind, ok := store.Indicator(selection.Sector, code); ok && ind.Label != "" {
			label = fmt.Sprintf("%s (%s)", ind.Label, code)
		}
		controls.Codes = append(controls.Codes, templates.Option{
			Value:    code,
			Label:    label,
			Selected: code == selection.Code,
		})
	}
	for _, year := range store.Years() {
		value := strconv.Itoa(year)
		controls.Years = append(controls.Years, templates.Option{
			Value:    value,
			Label:    value,
			Selected: year == selection.Year,
		})
	}
	for _, palette := range PaletteNames() {
		controls.Palettes = append(controls.Palettes, templates.Option{
			Value:    palette,
			Label:    palette,
			Selected: palette == selection.Palette,
		})
	}
	return controls
}

// buildTable lays out one row per boundary province in boundary order,
// then orphan provinces (observations without a boundary) last.
func (a *App) buildTable(store *indicator.Store, selection dataset.Selection) templates.Table {
	years := store.Years()
	table := templates.Table{Years: years}

	rowFor := func(id int, name string, orphan bool) templates.TableRow {
		row := templates.TableRow{ProvinceID: id, Name: name, Orphan: orphan}
		for _, year := range years {
			if value, ok := store.Value(id, selection.Sector, selection.Code, year); ok {
				row.Values = append(row.Values, formatValue(value))
			} else {
				row.Values = append(row.Values, missingCell)
			}
		}
		return row
	}

	for _, feature := range a.geo.Features() {
		table.Rows = append(table.Rows, rowFor(feature.ID, feature.Name, false))
	}
	for _, id := range store.AllProvinceIDs() {
		if _, ok := a.geo.ByID(id); ok {
			continue
		}
		table.Rows = append(table.Rows, rowFor(id, store.ProvinceName(id), true))
	}
	return table
}

func (a *App) buildUploads(ctx context.Context) []templates.UploadEntry {
	if a.catalog == nil {
		return nil
	}
	uploads, err := a.catalog.ListUploads(ctx, uploadListLimit)
	if err != nil {
		a.logger.Printf("list upload catalog: %v", err)
		return nil
	}
	entries := make([]templates.UploadEntry, 0, len(uploads))
	for _, upload := range uploads {
		entries = append(entries, templates.UploadEntry{
			Filename:   upload.Filename,
			UploadedAt: upload.UploadedAt.Format("2006-01-02 15:04"),
			Provinces:  upload.Provinces,
			Indicators: upload.Indicators,
		})
	}
	return entries
}

// buildPageView assembles the full page model for the active session.
func (a *App) buildPageView(ctx context.Context, selection dataset.Selection, warnings []string) templates.PageView {
	store := a.indicators.Load()
	focusName := a.focusName(store, selection)
	return templates.PageView{
		Title:          pageTitle,
		IndicatorLabel: indicatorLabel(store, selection),
		Warnings:       warnings,
		Controls:       buildControls(store, selection, focusName),
		Table:          a.buildTable(store, selection),
		Uploads:        a.buildUploads(ctx),
		ChartVersion:   a.chartVersion.Load(),
	}
}
