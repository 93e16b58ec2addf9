// Package sqlite implements the upload catalog on a local SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/devatlas/devatlas/internal/platform/storage/sqlitemigrate"
	"github.com/devatlas/devatlas/internal/services/dashboard/storage"
	"github.com/devatlas/devatlas/internal/services/dashboard/storage/sqlite/migrations"
)

const defaultListLimit = 50

// Store persists upload records in SQLite.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the catalog database at path and applies
// pending migrations.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("catalog path is required")
	}
	dsn := path + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open catalog database: %w", err)
	}
	if err := sqlitemigrate.Apply(db, migrations.FS, "."); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate catalog database: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// RecordUpload inserts one upload record and returns its id.
func (s *Store) RecordUpload(ctx context.Context, upload storage.Upload) (int64, error) {
	uploadedAt := upload.UploadedAt
	if uploadedAt.IsZero() {
		uploadedAt = time.Now().UTC()
	}
	result, err := s.db.ExecContext(ctx, `
INSERT INTO uploads (filename, sha256, size_bytes, provinces, indicators, uploaded_at)
VALUES (?, ?, ?, ?, ?, ?)`,
		upload.Filename,
		upload.SHA256,
		upload.SizeBytes,
		upload.Provinces,
		upload.Indicators,
		uploadedAt.UnixMilli(),
	)
	if err != nil {
		return 0, fmt.Errorf("insert upload: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("upload id: %w", err)
	}
	return id, nil
}

// ListUploads returns the most recent uploads, newest first.
func (s *Store) ListUploads(ctx context.Context, limit int) ([]storage.Upload, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT id, filename, sha256, size_bytes, provinces, indicators, uploaded_at
FROM uploads
ORDER BY uploaded_at DESC, id DESC
LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list uploads: %w", err)
	}
	defer rows.Close()

	var uploads []storage.Upload
	for rows.Next() {
		var upload storage.Upload
		var uploadedAt int64
		if err := rows.Scan(
			&upload.ID,
			&upload.Filename,
			&upload.SHA256,
			&upload.SizeBytes,
			&upload.Provinces,
			&upload.Indicators,
			&uploadedAt,
		); err != nil {
			return nil, fmt.Errorf("scan upload: %w", err)
		}
		upload.UploadedAt = time.UnixMilli(uploadedAt).UTC()
		uploads = append(uploads, upload)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate uploads: %w", err)
	}
	return uploads, nil
}
