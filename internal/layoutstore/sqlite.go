// Package layoutstore provides durable seating.Persister backends.
package layoutstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/iliyamo/wedding-seating/internal/layoutstore/migrations"
	"github.com/iliyamo/wedding-seating/internal/seating"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLite keeps layout blobs in a single-file SQLite database.
type SQLite struct {
	db  *sql.DB
	now func() time.Time
}

// OpenSQLite opens path (or ":memory:") and brings the schema up to date.
func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open layout database: %w", err)
	}
	// One writer keeps ":memory:" databases on a single connection.
	db.SetMaxOpenConns(1)
	if err := migrations.MigrateUp(db); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLite{db: db, now: time.Now}, nil
}

func (s *SQLite) Load(ctx context.Context, key string) ([]byte, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT data FROM layout_blobs WHERE blob_key = ?`, key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, seating.ErrBlobNotFound
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (s *SQLite) Save(ctx context.Context, key string, data []byte) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO layout_blobs (blob_key, data, updated_at) VALUES (?, ?, ?)
ON CONFLICT(blob_key) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		key, data, s.now().UTC())
	return err
}

func (s *SQLite) Close() error { return s.db.Close() }

var _ seating.Persister = (*SQLite)(nil)
