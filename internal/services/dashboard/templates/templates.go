// Package templates renders the dashboard page. Components are plain
// templ.ComponentFunc values so handlers can compose and stream them
// without an extra template compilation step.
package templates

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/a-h/templ"
)

// Option is one entry of a dropdown control.
type Option struct {
	// Value is the form value submitted for this entry.
	Value string
	// Label is the visible text.
	Label string
	// Selected marks the active entry.
	Selected bool
}

// Controls carries the state of the selection form.
type Controls struct {
	Sectors  []Option
	Codes    []Option
	Years    []Option
	Palettes []Option
	// Reverse flips the choropleth ramp.
	Reverse bool
	// FocusName labels the focused province, empty when unfocused.
	FocusName string
}

// TableRow is one province line of the raw data table.
type TableRow struct {
	ProvinceID int
	Name       string
	// Values holds one formatted cell per year column; missing cells
	// are the em-dash placeholder.
	Values []string
	// Orphan marks provinces with observations but no boundary.
	Orphan bool
}

// Table is the raw data table for the active indicator.
type Table struct {
	Years []int
	Rows  []TableRow
}

// UploadEntry is one catalog line on the about panel.
type UploadEntry struct {
	Filename   string
	UploadedAt string
	Provinces  int
	Indicators int
}

// PageView is everything the dashboard page needs.
type PageView struct {
	Title          string
	IndicatorLabel string
	Warnings       []string
	Controls       Controls
	Table          Table
	Uploads        []UploadEntry
	// ChartVersion busts the trend image cache after state changes.
	ChartVersion int64
}

type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) writef(format string, args ...any) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}

func esc(s string) string {
	return templ.EscapeString(s)
}

// Page renders the full dashboard document.
func Page(view PageView) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		ew := &errWriter{w: w}
		ew.writef("<!DOCTYPE html><html lang=\"en\"><head>")
		ew.writef("<meta charset=\"utf-8\"><meta name=\"viewport\" content=\"width=device-width, initial-scale=1\">")
		ew.writef("<title>%s</title>", esc(view.Title))
		ew.writef("<link rel=\"stylesheet\" href=\"https://unpkg.com/leaflet@1.9.4/dist/leaflet.css\">")
		ew.writef("<link rel=\"stylesheet\" href=\"/static/style.css\">")
		ew.writef("<script src=\"https://unpkg.com/leaflet@1.9.4/dist/leaflet.js\"></script>")
		ew.writef("<script src=\"/static/app.js\" defer></script>")
		ew.writef("</head><body>")
		ew.writef("<header><h1>%s</h1></header>", esc(view.Title))
		if ew.err != nil {
			return ew.err
		}
		if err := Warnings(view.Warnings).Render(ctx, w); err != nil {
			return err
		}
		if err := ControlsForm(view.Controls).Render(ctx, w); err != nil {
			return err
		}
		ew.writef("<main>")
		ew.writef("<section id=\"map-panel\"><div id=\"map\"></div></section>")
		ew.writef("<section id=\"chart-panel\"><h2>%s</h2>", esc(view.IndicatorLabel))
		ew.writef("<img id=\"trend-chart\" src=\"/chart/trend.png?v=%d\" alt=\"Trend chart\">", view.ChartVersion)
		ew.writef("</section>")
		if ew.err != nil {
			return ew.err
		}
		if err := DataTable(view.Table).Render(ctx, w); err != nil {
			return err
		}
		ew.writef("</main>")
		if err := UploadPanel(view.Uploads).Render(ctx, w); err != nil {
			return err
		}
		ew.writef("</body></html>")
		return ew.err
	})
}

// Warnings renders inline warning banners, one per message.
func Warnings(messages []string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if len(messages) == 0 {
			return nil
		}
		ew := &errWriter{w: w}
		ew.writef("<div id=\"warnings\">")
		for _, message := range messages {
			ew.writef("<p class=\"banner warning\">%s</p>", esc(message))
		}
		ew.writef("</div>")
		return ew.err
	})
}

// ControlsForm renders the selection form. Every control submits the
// whole form so the server recomputes from one consistent state.
func ControlsForm(controls Controls) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		ew := &errWriter{w: w}
		ew.writef("<form id=\"controls\" method=\"post\" action=\"/select\">")
		writeSelect(ew, "sector", "Sector", controls.Sectors)
		writeSelect(ew, "code", "Sub-indicator", controls.Codes)
		writeSelect(ew, "year", "Year", controls.Years)
		writeSelect(ew, "palette", "Color scheme", controls.Palettes)
		checked := ""
		if controls.Reverse {
			checked = " checked"
		}
		ew.writef("<label class=\"toggle\"><input type=\"checkbox\" name=\"reverse\" value=\"1\" onchange=\"this.form.submit()\"%s> Reverse colors</label>", checked)
		ew.writef("<noscript><button type=\"submit\">Apply</button></noscript>")
		ew.writef("</form>")
		if controls.FocusName != "" {
			ew.writef("<form id=\"focus-state\" method=\"post\" action=\"/reset\">")
			ew.writef("<span class=\"focus-label\">Focused: %s</span>", esc(controls.FocusName))
			ew.writef("<button type=\"submit\">Reset</button>")
			ew.writef("</form>")
		}
		return ew.err
	})
}

func writeSelect(ew *errWriter, name, label string, options []Option) {
	ew.writef("<label>%s <select name=\"%s\" onchange=\"this.form.submit()\">", esc(label), esc(name))
	for _, option := range options {
		selected := ""
		if option.Selected {
			selected = " selected"
		}
		ew.writef("<option value=\"%s\"%s>%s</option>", esc(option.Value), selected, esc(option.Label))
	}
	ew.writef("</select></label>")
}

// DataTable renders the raw province-by-year table, orphan rows last.
func DataTable(table Table) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		ew := &errWriter{w: w}
		ew.writef("<section id=\"table-panel\"><h2>Raw data</h2><table><thead><tr><th>Province</th>")
		for _, year := range table.Years {
			ew.writef("<th>%s</th>", strconv.Itoa(year))
		}
		ew.writef("</tr></thead><tbody>")
		for _, row := range table.Rows {
			class := ""
			if row.Orphan {
				class = " class=\"orphan\""
			}
			ew.writef("<tr%s><td>%s</td>", class, esc(row.Name))
			for _, value := range row.Values {
				ew.writef("<td>%s</td>", esc(value))
			}
			ew.writef("</tr>")
		}
		ew.writef("</tbody></table></section>")
		return ew.err
	})
}

// UploadPanel renders the workbook replacement form and the catalog of
// previous uploads.
func UploadPanel(uploads []UploadEntry) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		ew := &errWriter{w: w}
		ew.writef("<aside id=\"upload-panel\"><h2>Dataset</h2>")
		ew.writef("<form method=\"post\" action=\"/upload\" enctype=\"multipart/form-data\">")
		ew.writef("<input type=\"file\" name=\"workbook\" accept=\".xlsx\" required>")
		ew.writef("<button type=\"submit\">Replace workbook</button>")
		ew.writef("</form>")
		if len(uploads) > 0 {
			ew.writef("<ul class=\"uploads\">")
			for _, upload := range uploads {
				ew.writef("<li>%s (%d provinces, %d indicators) %s</li>",
					esc(upload.Filename), upload.Provinces, upload.Indicators, esc(upload.UploadedAt))
			}
			ew.writef("</ul>")
		}
		ew.writef("</aside>")
		return ew.err
	})
}
