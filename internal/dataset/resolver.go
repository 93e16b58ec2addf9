// Package dataset implements the dashboard core: resolving a
// sector/sub-indicator/year selection, joining indicator values onto
// boundary features, and building trend series. All operations are
// pure functions over the immutable geo and indicator stores.
package dataset

import (
	"fmt"

	apperrors "github.com/devatlas/devatlas/internal/errors"
	"github.com/devatlas/devatlas/internal/indicator"
)

// Key identifies a resolved sub-indicator. Codes can repeat across
// sectors, so the sector is always part of the identity.
type Key struct {
	Sector string
	Code   string
}

// Resolve validates a (sector, code, year) request against the
// indicator store and returns the resolved key. Failures are
// warning-level NotFound conditions: callers render a banner and fall
// back to no-data styling rather than failing the page.
func Resolve(store *indicator.Store, sector, code string, year int) (Key, error) {
	if store == nil {
		return Key{}, apperrors.E(apperrors.KindUnavailable, "indicator store is not loaded")
	}
	if _, ok := store.Indicator(sector, code); !ok {
		return Key{}, apperrors.E(apperrors.KindMissingColumn,
			fmt.Sprintf("no data for sub-indicator %q in sector %q", code, sector))
	}
	if !store.HasYear(year) {
		return Key{}, apperrors.E(apperrors.KindMissingColumn,
			fmt.Sprintf("year %d is outside the data range", year))
	}
	return Key{Sector: sector, Code: code}, nil
}
