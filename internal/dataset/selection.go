package dataset

// Selection is the transient per-session UI state. The zero FocusID
// means no province is focused.
type Selection struct {
	Sector  string
	Code    string
	Year    int
	FocusID int
	// Palette and Reverse carry the choropleth color controls.
	Palette string
	Reverse bool
}

// Focused reports whether a province is currently focused.
func (s Selection) Focused() bool {
	return s.FocusID != 0
}

// Focus applies a map click: clicking an unfocused province focuses
// it, clicking the focused province again unfocuses it. Returns the
// updated selection.
func (s Selection) Focus(provinceID int) Selection {
	if provinceID == 0 {
		return s
	}
	if s.FocusID == provinceID {
		s.FocusID = 0
		return s
	}
	s.FocusID = provinceID
	return s
}

// Reset clears the focus, restoring the exact pre-focus state. The
// sector, code, year and color controls are untouched.
func (s Selection) Reset() Selection {
	s.FocusID = 0
	return s
}

// WithIndicator changes the active sector/code, preserving focus.
func (s Selection) WithIndicator(sector, code string) Selection {
	s.Sector = sector
	s.Code = code
	return s
}

// WithYear changes the active year, preserving focus.
func (s Selection) WithYear(year int) Selection {
	s.Year = year
	return s
}
