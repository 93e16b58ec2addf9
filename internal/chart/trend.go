// Package chart renders the trend comparison as a PNG line chart:
// the national average series plus, when a province is focused, the
// province's own series.
package chart

import (
	"bytes"
	"fmt"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/devatlas/devatlas/internal/dataset"
)

var (
	nationalColor = drawing.Color{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff}
	provinceColor = drawing.Color{R: 0xff, G: 0x7f, B: 0x0e, A: 0xff}
)

// RenderTrend draws the trend chart for a computed TrendResult.
// Missing years split a series into separate segments so gaps stay
// visible; nothing is interpolated across them.
func RenderTrend(trend dataset.TrendResult, title string) ([]byte, error) {
	var series []chart.Series

	for _, segment := range segments(trend.National) {
		series = append(series, chart.ContinuousSeries{
			Name:    "National Average",
			XValues: segment.xs,
			YValues: segment.ys,
			Style: chart.Style{
				StrokeColor: nationalColor,
				StrokeWidth: 2.5,
				DotColor:    nationalColor,
				DotWidth:    4,
			},
		})
	}
	for _, segment := range segments(trend.Province) {
		series = append(series, chart.ContinuousSeries{
			Name:    trend.ProvinceName,
			XValues: segment.xs,
			YValues: segment.ys,
			Style: chart.Style{
				StrokeColor:     provinceColor,
				StrokeWidth:     2.5,
				StrokeDashArray: []float64{5, 3},
				DotColor:        provinceColor,
				DotWidth:        4,
			},
		})
	}
	if len(series) == 0 {
		return nil, fmt.Errorf("trend has no drawable points")
	}

	ticks := make([]chart.Tick, 0, len(trend.Years))
	for _, year := range trend.Years {
		ticks = append(ticks, chart.Tick{Value: float64(year), Label: fmt.Sprintf("%d", year)})
	}

	graph := chart.Chart{
		Title:  title,
		Width:  900,
		Height: 400,
		Background: chart.Style{
			Padding: chart.Box{Top: 24, Left: 16, Right: 16, Bottom: 12},
		},
		XAxis: chart.XAxis{
			Name:  "Year",
			Ticks: ticks,
		},
		YAxis: chart.YAxis{
			Name: "Value",
		},
		Series: series,
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render trend chart: %w", err)
	}
	return buf.Bytes(), nil
}

type segment struct {
	xs []float64
	ys []float64
}

// segments splits a series at missing years. Single-point segments are
// padded with a near-duplicate x so the renderer still draws a dot.
func segments(points []dataset.Point) []segment {
	var out []segment
	var current segment
	flush := func() {
		if len(current.xs) == 0 {
			return
		}
		if len(current.xs) == 1 {
			current.xs = append(current.xs, current.xs[0]+1e-3)
			current.ys = append(current.ys, current.ys[0])
		}
		out = append(out, current)
		current = segment{}
	}
	for _, point := range points {
		if point.Missing {
			flush()
			continue
		}
		current.xs = append(current.xs, float64(point.Year))
		current.ys = append(current.ys, point.Value)
	}
	flush()
	return out
}
