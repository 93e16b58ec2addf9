package dashboard

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/twpayne/go-geom/encoding/geojson"
	"go.opentelemetry.io/otel"

	"github.com/devatlas/devatlas/internal/chart"
	"github.com/devatlas/devatlas/internal/dataset"
	apperrors "github.com/devatlas/devatlas/internal/errors"
	"github.com/devatlas/devatlas/internal/indicator"
	"github.com/devatlas/devatlas/internal/platform/timeouts"
	"github.com/devatlas/devatlas/internal/services/dashboard/platform/httpx"
	"github.com/devatlas/devatlas/internal/services/dashboard/storage"
	"github.com/devatlas/devatlas/internal/services/dashboard/templates"
)

const maxUploadBytes = 32 << 20

var tracer = otel.Tracer("devatlas/dashboard")

// resolve looks up the selection's indicator key. Warning-level
// failures come back as banner messages and leave the zero key in
// place; joins against the zero key yield an all-missing map, which is
// the required fallback. Non-warning failures are returned as errors.
func resolve(store *indicator.Store, selection dataset.Selection) (dataset.Key, []string, error) {
	key, err := dataset.Resolve(store, selection.Sector, selection.Code, selection.Year)
	switch {
	case err == nil:
		return key, nil, nil
	case apperrors.IsWarning(err):
		return key, []string{err.Error()}, nil
	default:
		return key, nil, err
	}
}

func (a *App) handleIndex(w http.ResponseWriter, r *http.Request) {
	_, selection, err := a.selectionFor(w, r)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	store := a.indicators.Load()
	_, warnings, err := resolve(store, selection)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}

	view := a.buildPageView(r.Context(), selection, warnings)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.Page(view).Render(r.Context(), w); err != nil {
		a.logger.Printf("render dashboard page: %v", err)
	}
}

type scalePayload struct {
	Min          float64 `json:"min"`
	Max          float64 `json:"max"`
	Palette      string  `json:"palette"`
	Reverse      bool    `json:"reverse"`
	MissingColor string  `json:"missingColor"`
}

type choroplethPayload struct {
	Features *geojson.FeatureCollection `json:"features"`
	Scale    scalePayload               `json:"scale"`
	Year     int                        `json:"year"`
	Warnings []string                   `json:"warnings,omitempty"`
}

func (a *App) handleChoropleth(w http.ResponseWriter, r *http.Request) {
	_, span := tracer.Start(r.Context(), "dashboard.choropleth")
	defer span.End()

	_, selection, err := a.selectionFor(w, r)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	store := a.indicators.Load()
	key, warnings, err := resolve(store, selection)
	if err != nil {
		httpx.WriteJSONError(w, apperrors.HTTPStatus(err), err.Error())
		return
	}
	joined := dataset.Join(a.geo, store, key, selection.Year)

	features := make([]*geojson.Feature, 0, len(joined.Rows))
	for i, row := range joined.Rows {
		feature := a.geo.Features()[i]
		properties := map[string]any{
			"id":       row.ProvinceID,
			"name":     row.Name,
			"missing":  row.Missing,
			"focused":  selection.FocusID == row.ProvinceID,
			"color":    MissingColor,
			"centroid": []float64{feature.Centroid.X(), feature.Centroid.Y()},
		}
		if !row.Missing {
			properties["value"] = row.Value
			properties["display"] = formatValue(row.Value)
			properties["color"] = ScaleColor(selection.Palette, row.Value, joined.Min, joined.Max, selection.Reverse)
		}
		features = append(features, &geojson.Feature{
			ID:         strconv.Itoa(row.ProvinceID),
			Geometry:   feature.Geometry,
			Properties: properties,
		})
	}

	payload := choroplethPayload{
		Features: &geojson.FeatureCollection{Features: features},
		Scale: scalePayload{
			Min:          joined.Min,
			Max:          joined.Max,
			Palette:      selection.Palette,
			Reverse:      selection.Reverse,
			MissingColor: MissingColor,
		},
		Year:     selection.Year,
		Warnings: warnings,
	}
	if err := httpx.WriteJSON(w, http.StatusOK, payload); err != nil {
		a.logger.Printf("write choropleth: %v", err)
	}
}

type pointPayload struct {
	Year    int     `json:"year"`
	Value   float64 `json:"value"`
	Missing bool    `json:"missing"`
}

type trendPayload struct {
	Years        []int          `json:"years"`
	National     []pointPayload `json:"national"`
	Province     []pointPayload `json:"province,omitempty"`
	ProvinceName string         `json:"provinceName,omitempty"`
	Warnings     []string       `json:"warnings,omitempty"`
}

func trendPoints(points []dataset.Point) []pointPayload {
	out := make([]pointPayload, 0, len(points))
	for _, point := range points {
		out = append(out, pointPayload{Year: point.Year, Value: point.Value, Missing: point.Missing})
	}
	return out
}

func (a *App) handleTrend(w http.ResponseWriter, r *http.Request) {
	_, span := tracer.Start(r.Context(), "dashboard.trend")
	defer span.End()

	_, selection, err := a.selectionFor(w, r)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	store := a.indicators.Load()
	key, warnings, err := resolve(store, selection)
	if err != nil {
		httpx.WriteJSONError(w, apperrors.HTTPStatus(err), err.Error())
		return
	}
	trend := dataset.Trend(store, key, selection.FocusID)

	payload := trendPayload{
		Years:        trend.Years,
		National:     trendPoints(trend.National),
		ProvinceName: trend.ProvinceName,
		Warnings:     warnings,
	}
	if len(trend.Province) > 0 {
		payload.Province = trendPoints(trend.Province)
	}
	if err := httpx.WriteJSON(w, http.StatusOK, payload); err != nil {
		a.logger.Printf("write trend: %v", err)
	}
}

func (a *App) handleTrendChart(w http.ResponseWriter, r *http.Request) {
	_, span := tracer.Start(r.Context(), "dashboard.trend_chart")
	defer span.End()

	_, selection, err := a.selectionFor(w, r)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	store := a.indicators.Load()
	key, _, err := resolve(store, selection)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	trend := dataset.Trend(store, key, selection.FocusID)

	png, err := chart.RenderTrend(trend, indicatorLabel(store, selection))
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	if _, err := w.Write(png); err != nil {
		a.logger.Printf("write trend chart: %v", err)
	}
}

type tableRowPayload struct {
	ProvinceID int        `json:"provinceId"`
	Name       string     `json:"name"`
	Values     []*float64 `json:"values"`
	Orphan     bool       `json:"orphan"`
}

type tablePayload struct {
	Years []int             `json:"years"`
	Rows  []tableRowPayload `json:"rows"`
}

func (a *App) handleTable(w http.ResponseWriter, r *http.Request) {
	_, selection, err := a.selectionFor(w, r)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	store := a.indicators.Load()
	years := store.Years()

	rowFor := func(id int, name string, orphan bool) tableRowPayload {
		row := tableRowPayload{ProvinceID: id, Name: name, Orphan: orphan}
		for _, year := range years {
			if value, ok := store.Value(id, selection.Sector, selection.Code, year); ok {
				v := value
				row.Values = append(row.Values, &v)
			} else {
				row.Values = append(row.Values, nil)
			}
		}
		return row
	}

	payload := tablePayload{Years: years}
	for _, feature := range a.geo.Features() {
		payload.Rows = append(payload.Rows, rowFor(feature.ID, feature.Name, false))
	}
	for _, id := range store.AllProvinceIDs() {
		if _, ok := a.geo.ByID(id); ok {
			continue
		}
		payload.Rows = append(payload.Rows, rowFor(id, store.ProvinceName(id), true))
	}
	if err := httpx.WriteJSON(w, http.StatusOK, payload); err != nil {
		a.logger.Printf("write table: %v", err)
	}
}

func (a *App) handleSelect(w http.ResponseWriter, r *http.Request) {
	id, selection, err := a.selectionFor(w, r)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	if err := r.ParseForm(); err != nil {
		httpx.WriteError(w, apperrors.E(apperrors.KindInvalidInput, "malformed selection form"))
		return
	}
	store := a.indicators.Load()

	sector := strings.TrimSpace(r.PostFormValue("sector"))
	code := strings.TrimSpace(r.PostFormValue("code"))
	if sector != "" && sector != selection.Sector {
		// Sector switch: the submitted code belongs to the previous
		// sector's dropdown, so snap to the new sector's first code.
		if _, ok := store.Indicator(sector, code); !ok {
			if codes := store.Codes(sector); len(codes) > 0 {
				code = codes[0]
			}
		}
	}
	if sector != "" && code != "" {
		selection = selection.WithIndicator(sector, code)
	}
	if yearValue := strings.TrimSpace(r.PostFormValue("year")); yearValue != "" {
		if year, err := strconv.Atoi(yearValue); err == nil {
			selection = selection.WithYear(year)
		}
	}
	if palette := strings.TrimSpace(r.PostFormValue("palette")); ValidPalette(palette) {
		selection.Palette = palette
	}
	selection.Reverse = r.PostFormValue("reverse") != ""

	a.sessions.put(id, selection)
	a.chartVersion.Add(1)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

type focusPayload struct {
	Located    bool   `json:"located"`
	Focused    bool   `json:"focused"`
	ProvinceID int    `json:"provinceId,omitempty"`
	Name       string `json:"name,omitempty"`
}

func (a *App) handleFocus(w http.ResponseWriter, r *http.Request) {
	id, selection, err := a.selectionFor(w, r)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	if err := r.ParseForm(); err != nil {
		_ = httpx.WriteJSONError(w, http.StatusBadRequest, "malformed focus form")
		return
	}
	lng, lngErr := strconv.ParseFloat(r.PostFormValue("lng"), 64)
	lat, latErr := strconv.ParseFloat(r.PostFormValue("lat"), 64)
	if lngErr != nil || latErr != nil {
		_ = httpx.WriteJSONError(w, http.StatusBadRequest, "focus requires numeric lng and lat")
		return
	}

	feature, ok := a.geo.Locate(lng, lat)
	if !ok {
		// Clicks outside every boundary leave the selection unchanged.
		_ = httpx.WriteJSON(w, http.StatusOK, focusPayload{Located: false, Focused: selection.Focused()})
		return
	}

	selection = selection.Focus(feature.ID)
	a.sessions.put(id, selection)
	a.chartVersion.Add(1)
	payload := focusPayload{
		Located:    true,
		Focused:    selection.FocusID == feature.ID,
		ProvinceID: feature.ID,
		Name:       feature.Name,
	}
	if err := httpx.WriteJSON(w, http.StatusOK, payload); err != nil {
		a.logger.Printf("write focus: %v", err)
	}
}

func (a *App) handleReset(w http.ResponseWriter, r *http.Request) {
	id, selection, err := a.selectionFor(w, r)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	a.sessions.put(id, selection.Reset())
	a.chartVersion.Add(1)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (a *App) handleUpload(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "dashboard.upload")
	defer span.End()

	_, selection, err := a.selectionFor(w, r)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		a.renderUploadFailure(w, r, selection, "workbook upload is too large or malformed")
		return
	}
	file, header, err := r.FormFile("workbook")
	if err != nil {
		a.renderUploadFailure(w, r, selection, "workbook file is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		a.renderUploadFailure(w, r, selection, "read uploaded workbook: "+err.Error())
		return
	}

	replacement, err := indicator.Parse(bytes.NewReader(data))
	if err != nil {
		// A bad workbook never displaces the active store.
		a.renderUploadFailure(w, r, selection, err.Error())
		return
	}

	a.indicators.Store(replacement)
	a.sessions.clear()
	a.chartVersion.Add(1)

	if a.catalog != nil {
		sum := sha256.Sum256(data)
		recordCtx, cancel := context.WithTimeout(ctx, timeouts.Upload)
		defer cancel()
		_, err := a.catalog.RecordUpload(recordCtx, storage.Upload{
			Filename:   header.Filename,
			SHA256:     hex.EncodeToString(sum[:]),
			SizeBytes:  int64(len(data)),
			Provinces:  len(replacement.AllProvinceIDs()),
			Indicators: indicatorCount(replacement),
		})
		if err != nil {
			a.logger.Printf("record upload %q: %v", header.Filename, err)
		}
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func indicatorCount(store *indicator.Store) int {
	count := 0
	for _, sector := range store.Sectors() {
		count += len(store.Codes(sector))
	}
	return count
}

// renderUploadFailure re-renders the page with a banner; the previous
// workbook stays active.
func (a *App) renderUploadFailure(w http.ResponseWriter, r *http.Request, selection dataset.Selection, message string) {
	view := a.buildPageView(r.Context(), selection, []string{message})
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusUnprocessableEntity)
	if err := templates.Page(view).Render(r.Context(), w); err != nil {
		a.logger.Printf("render upload failure page: %v", err)
	}
}
