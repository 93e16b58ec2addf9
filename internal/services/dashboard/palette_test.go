package dashboard

import (
	"reflect"
	"testing"
)

func TestPaletteNamesStableOrder(t *testing.T) {
	want := []string{"Blues", "Greens", "Reds"}
	if got := PaletteNames(); !reflect.DeepEqual(got, want) {
		t.Fatalf("palette names = %v, want %v", got, want)
	}
}

func TestScaleColorEndpoints(t *testing.T) {
	low := ScaleColor("Reds", 0, 0, 100, false)
	high := ScaleColor("Reds", 100, 0, 100, false)
	if low != "#fee0d2" {
		t.Fatalf("low end = %q, want #fee0d2", low)
	}
	if high != "#99000d" {
		t.Fatalf("high end = %q, want #99000d", high)
	}
}

func TestScaleColorReverseFlipsRamp(t *testing.T) {
	straight := ScaleColor("Blues", 0, 0, 100, false)
	reversed := ScaleColor("Blues", 100, 0, 100, true)
	if straight != reversed {
		t.Fatalf("reversed high = %q, want %q", reversed, straight)
	}
}

func TestScaleColorDegenerateScale(t *testing.T) {
	got := ScaleColor("Greens", 42, 42, 42, false)
	if got != "#006d2c" {
		t.Fatalf("degenerate scale = %q, want dark end #006d2c", got)
	}
}

func TestScaleColorClampsOutOfRange(t *testing.T) {
	below := ScaleColor("Reds", -10, 0, 100, false)
	if below != "#fee0d2" {
		t.Fatalf("below range = %q, want #fee0d2", below)
	}
	above := ScaleColor("Reds", 200, 0, 100, false)
	if above != "#99000d" {
		t.Fatalf("above range = %q, want #99000d", above)
	}
}

func TestScaleColorUnknownPaletteFallsBack(t *testing.T) {
	got := ScaleColor("Purples", 100, 0, 100, false)
	if got != ScaleColor(DefaultPalette, 100, 0, 100, false) {
		t.Fatalf("unknown palette = %q, want default ramp", got)
	}
}
