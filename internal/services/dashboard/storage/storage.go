// Package storage defines the persistence contract for the dashboard's
// upload catalog: a record of every replacement indicator workbook the
// service accepted.
package storage

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound indicates a requested record is missing.
var ErrNotFound = errors.New("record not found")

// Upload is one accepted replacement workbook.
type Upload struct {
	ID         int64
	Filename   string
	SHA256     string
	SizeBytes  int64
	Provinces  int
	Indicators int
	UploadedAt time.Time
}

// CatalogStore persists upload records.
type CatalogStore interface {
	RecordUpload(ctx context.Context, upload Upload) (int64, error)
	ListUploads(ctx context.Context, limit int) ([]Upload, error)
	Close() error
}
