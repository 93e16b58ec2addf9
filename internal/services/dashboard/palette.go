package dashboard

import (
	"fmt"
	"sort"
)

// MissingColor fills provinces without data for the active selection.
const MissingColor = "#f0f0f0"

// DefaultPalette seeds new sessions.
const DefaultPalette = "Reds"

type ramp struct {
	low  [3]uint8
	high [3]uint8
}

var palettes = map[string]ramp{
	"Reds":   {low: [3]uint8{0xfe, 0xe0, 0xd2}, high: [3]uint8{0x99, 0x00, 0x0d}},
	"Blues":  {low: [3]uint8{0xde, 0xeb, 0xf7}, high: [3]uint8{0x08, 0x45, 0x94}},
	"Greens": {low: [3]uint8{0xe5, 0xf5, 0xe0}, high: [3]uint8{0x00, 0x6d, 0x2c}},
}

// PaletteNames lists the selectable palettes in stable order.
func PaletteNames() []string {
	names := make([]string, 0, len(palettes))
	for name := range palettes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ValidPalette reports whether name is a known palette.
func ValidPalette(name string) bool {
	_, ok := palettes[name]
	return ok
}

// ScaleColor maps value within [min, max] onto the named ramp and
// returns a hex color. Reverse flips the ramp. A degenerate scale
// (min == max) pins to the dark end so a lone mapped value still
// stands out against missing provinces.
func ScaleColor(palette string, value, min, max float64, reverse bool) string {
	r, ok := palettes[palette]
	if !ok {
		r = palettes[DefaultPalette]
	}
	t := 1.0
	if max > min {
		t = (value - min) / (max - min)
	}
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	if reverse {
		t = 1 - t
	}
	lerp := func(a, b uint8) uint8 {
		return uint8(float64(a) + (float64(b)-float64(a))*t + 0.5)
	}
	return fmt.Sprintf("#%02x%02x%02x",
		lerp(r.low[0], r.high[0]),
		lerp(r.low[1], r.high[1]),
		lerp(r.low[2], r.high[2]),
	)
}
