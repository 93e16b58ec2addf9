// Package errors defines typed application errors for the dashboard.
package errors

import (
	stderrors "errors"
	"net/http"
	"strings"
)

// Kind classifies application failures for consistent HTTP mapping.
type Kind string

const (
	KindUnknown      Kind = "unknown"
	KindInvalidInput Kind = "invalid_input"
	KindNotFound     Kind = "not_found"
	KindUnavailable  Kind = "unavailable"

	// KindMissingFile marks an absent or unreadable boundary or
	// indicator source file.
	KindMissingFile Kind = "missing_file"
	// KindMissingColumn marks a sector/sub-indicator/year request with
	// no matching data. Recoverable: the map falls back to no-data
	// styling.
	KindMissingColumn Kind = "missing_column"
	// KindProvinceMismatch marks an indicator province with no matching
	// boundary (or vice versa). Recoverable: excluded from the map,
	// still listed in the table.
	KindProvinceMismatch Kind = "province_mismatch"
)

// Error is a typed dashboard application failure.
type Error struct {
	Kind    Kind
	Message string
}

// Error renders the human-readable message.
func (e Error) Error() string {
	if e.Message == "" {
		return string(e.Kind)
	}
	return e.Message
}

// E builds a typed Error.
func E(kind Kind, message string) error {
	return Error{Kind: kind, Message: strings.TrimSpace(message)}
}

// KindOf extracts the Kind from an error, or KindUnknown.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	var appErr Error
	if !stderrors.As(err, &appErr) {
		return KindUnknown
	}
	return appErr.Kind
}

// IsWarning reports whether the error is recoverable and should render
// as an inline warning banner rather than a failed page.
func IsWarning(err error) bool {
	switch KindOf(err) {
	case KindMissingColumn, KindProvinceMismatch:
		return true
	default:
		return false
	}
}

// HTTPStatus maps an error to an HTTP status code.
func HTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}
	var appErr Error
	if !stderrors.As(err, &appErr) {
		return http.StatusInternalServerError
	}
	switch appErr.Kind {
	case KindInvalidInput:
		return http.StatusBadRequest
	case KindNotFound, KindMissingColumn:
		return http.StatusNotFound
	case KindUnavailable, KindMissingFile:
		return http.StatusServiceUnavailable
	case KindProvinceMismatch:
		return http.StatusOK
	default:
		return http.StatusInternalServerError
	}
}
