package chart

import (
	"bytes"
	"testing"

	"github.com/devatlas/devatlas/internal/dataset"
)

var pngMagic = []byte{0x89, 'P', 'N', 'G'}

func TestRenderTrendProducesPNG(t *testing.T) {
	trend := dataset.TrendResult{
		Years: []int{2019, 2020, 2021, 2022, 2023},
		National: []dataset.Point{
			{Year: 2019, Value: 86.0},
			{Year: 2020, Value: 87.0},
			{Year: 2021, Value: 88.0},
			{Year: 2022, Missing: true},
			{Year: 2023, Value: 89.0},
		},
		Province: []dataset.Point{
			{Year: 2019, Value: 88.0},
			{Year: 2020, Value: 89.0},
			{Year: 2021, Value: 90.0},
			{Year: 2022, Missing: true},
			{Year: 2023, Value: 91.0},
		},
		ProvinceName: "Tehran",
	}

	png, err := RenderTrend(trend, "Index02-9 - Trend Over Years")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !bytes.HasPrefix(png, pngMagic) {
		t.Fatalf("expected PNG output, got prefix %v", png[:4])
	}
}

func TestRenderTrendAllMissing(t *testing.T) {
	trend := dataset.TrendResult{
		Years: []int{2019, 2020},
		National: []dataset.Point{
			{Year: 2019, Missing: true},
			{Year: 2020, Missing: true},
		},
	}

	if _, err := RenderTrend(trend, "empty"); err == nil {
		t.Fatal("expected error when nothing is drawable")
	}
}

func TestSegmentsSplitAtGaps(t *testing.T) {
	points := []dataset.Point{
		{Year: 2019, Value: 1},
		{Year: 2020, Value: 2},
		{Year: 2021, Missing: true},
		{Year: 2022, Value: 4},
		{Year: 2023, Value: 5},
	}

	got := segments(points)
	if len(got) != 2 {
		t.Fatalf("segments = %d, want 2", len(got))
	}
	if len(got[0].xs) != 2 || got[0].xs[1] != 2020 {
		t.Fatalf("first segment = %+v", got[0])
	}
	if len(got[1].xs) != 2 || got[1].xs[0] != 2022 {
		t.Fatalf("second segment = %+v", got[1])
	}
}

func TestSegmentsPadSinglePoint(t *testing.T) {
	points := []dataset.Point{
		{Year: 2019, Missing: true},
		{Year: 2020, Value: 3},
		{Year: 2021, Missing: true},
	}

	got := segments(points)
	if len(got) != 1 {
		t.Fatalf("segments = %d, want 1", len(got))
	}
	if len(got[0].xs) != 2 || got[0].ys[0] != got[0].ys[1] {
		t.Fatalf("single point segment should be padded, got %+v", got[0])
	}
}
