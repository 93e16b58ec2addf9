package templates

import (
	"context"
	"strings"
	"testing"
)

func render(t *testing.T, view PageView) string {
	t.Helper()
	var sb strings.Builder
	if err := Page(view).Render(context.Background(), &sb); err != nil {
		t.Fatalf("render: %v", err)
	}
	return sb.String()
}

func TestPageEscapesUserVisibleText(t *testing.T) {
	html := render(t, PageView{
		Title:          "Provincial <Dashboard>",
		IndicatorLabel: "Literacy & Rate",
	})
	if strings.Contains(html, "<Dashboard>") {
		t.Fatal("title was not escaped")
	}
	if !strings.Contains(html, "Provincial &lt;Dashboard&gt;") {
		t.Fatal("expected escaped title")
	}
	if !strings.Contains(html, "Literacy &amp; Rate") {
		t.Fatal("expected escaped indicator label")
	}
}

func TestPageRendersWarnings(t *testing.T) {
	html := render(t, PageView{
		Warnings: []string{"no data for Education / Index02-9 in 2023"},
	})
	if !strings.Contains(html, `class="banner warning"`) {
		t.Fatal("expected warning banner")
	}
	if !strings.Contains(html, "Index02-9") {
		t.Fatal("expected warning text")
	}
}

func TestPageOmitsWarningContainerWhenClean(t *testing.T) {
	html := render(t, PageView{})
	if strings.Contains(html, `id="warnings"`) {
		t.Fatal("expected no warning container")
	}
}

func TestControlsFormMarksSelectedOptions(t *testing.T) {
	html := render(t, PageView{
		Controls: Controls{
			Sectors: []Option{
				{Value: "Education", Label: "Education", Selected: true},
				{Value: "Health", Label: "Health"},
			},
			Years: []Option{{Value: "2021", Label: "2021", Selected: true}},
		},
	})
	if !strings.Contains(html, `<option value="Education" selected>Education</option>`) {
		t.Fatal("expected selected sector option")
	}
	if !strings.Contains(html, `<option value="Health">Health</option>`) {
		t.Fatal("expected unselected sector option")
	}
}

func TestControlsFormShowsFocusReset(t *testing.T) {
	html := render(t, PageView{Controls: Controls{FocusName: "Tehran"}})
	if !strings.Contains(html, "Focused: Tehran") {
		t.Fatal("expected focus label")
	}
	if !strings.Contains(html, `action="/reset"`) {
		t.Fatal("expected reset form")
	}

	unfocused := render(t, PageView{})
	if strings.Contains(unfocused, `id="focus-state"`) {
		t.Fatal("expected no focus form when unfocused")
	}
}

func TestDataTableRendersOrphanRows(t *testing.T) {
	html := render(t, PageView{
		Table: Table{
			Years: []int{2019, 2020},
			Rows: []TableRow{
				{ProvinceID: 7, Name: "Tehran", Values: []string{"90.0", "91.5"}},
				{ProvinceID: 99, Name: "Province 99", Values: []string{"70.0", "—"}, Orphan: true},
			},
		},
	})
	if !strings.Contains(html, "<th>2019</th><th>2020</th>") {
		t.Fatal("expected year headers")
	}
	if !strings.Contains(html, `<tr class="orphan"><td>Province 99</td>`) {
		t.Fatal("expected orphan row class")
	}
}

func TestUploadPanelListsCatalog(t *testing.T) {
	html := render(t, PageView{
		Uploads: []UploadEntry{
			{Filename: "indicators.xlsx", UploadedAt: "2025-06-01", Provinces: 31, Indicators: 14},
		},
	})
	if !strings.Contains(html, "indicators.xlsx (31 provinces, 14 indicators) 2025-06-01") {
		t.Fatal("expected upload catalog entry")
	}
}
