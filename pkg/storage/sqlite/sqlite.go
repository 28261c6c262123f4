// Package sqlite persists dashboard layouts in an embedded SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/goliatone/go-dashboard-editor/components/dashboard"
)

const schema = `CREATE TABLE IF NOT EXISTS dashboard_layouts (
	storage_key    TEXT PRIMARY KEY,
	dashboard_type TEXT NOT NULL,
	payload        TEXT NOT NULL,
	updated_at     TIMESTAMP NOT NULL
)`

// Storage implements dashboard.LayoutStorage on a single table keyed by
// dashboard.LayoutKey.
type Storage struct {
	db  *sql.DB
	now func() time.Time
}

var _ dashboard.LayoutStorage = (*Storage)(nil)

// Open opens (or creates) the database at path and ensures the schema exists.
func Open(ctx context.Context, path string) (*Storage, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite.Open: %w", err)
	}
	// One writer keeps SQLITE_BUSY out of concurrent saves.
	db.SetMaxOpenConns(1)
	s, err := New(ctx, db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an existing handle and migrates the schema.
func New(ctx context.Context, db *sql.DB) (*Storage, error) {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, fmt.Errorf("sqlite.New: migrate: %w", err)
	}
	return &Storage{db: db, now: time.Now}, nil
}

// Close closes the database.
func (s *Storage) Close() error {
	return s.db.Close()
}

// LoadLayout implements dashboard.LayoutStorage.
func (s *Storage) LoadLayout(ctx context.Context, dashboardType string) (dashboard.DashboardLayout, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM dashboard_layouts WHERE storage_key = ?`,
		dashboard.LayoutKey(dashboardType),
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return dashboard.DashboardLayout{}, dashboard.ErrNotFound
	}
	if err != nil {
		return dashboard.DashboardLayout{}, fmt.Errorf("sqlite.LoadLayout: %w", err)
	}
	return dashboard.DecodeLayout([]byte(payload))
}

// SaveLayout implements dashboard.LayoutStorage. The last write wins.
func (s *Storage) SaveLayout(ctx context.Context, layout dashboard.DashboardLayout) error {
	data, err := dashboard.EncodeLayout(layout)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO dashboard_layouts (storage_key, dashboard_type, payload, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(storage_key) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`,
		dashboard.LayoutKey(layout.DashboardType), layout.DashboardType, string(data), s.now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("sqlite.SaveLayout: %w", err)
	}
	return nil
}

// DeleteLayout implements dashboard.LayoutStorage.
func (s *Storage) DeleteLayout(ctx context.Context, dashboardType string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM dashboard_layouts WHERE storage_key = ?`, dashboard.LayoutKey(dashboardType)); err != nil {
		return fmt.Errorf("sqlite.DeleteLayout: %w", err)
	}
	return nil
}

// ListLayouts implements dashboard.LayoutStorage.
func (s *Storage) ListLayouts(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT dashboard_type FROM dashboard_layouts ORDER BY dashboard_type`)
	if err != nil {
		return nil, fmt.Errorf("sqlite.ListLayouts: %w", err)
	}
	defer rows.Close()
	out := []string{}
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("sqlite.ListLayouts: scan: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite.ListLayouts: %w", err)
	}
	return out, nil
}

// UpdatedAt reports when a layout was last saved.
func (s *Storage) UpdatedAt(ctx context.Context, dashboardType string) (time.Time, error) {
	var at time.Time
	err := s.db.QueryRowContext(ctx,
		`SELECT updated_at FROM dashboard_layouts WHERE storage_key = ?`,
		dashboard.LayoutKey(dashboardType),
	).Scan(&at)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, dashboard.ErrNotFound
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("sqlite.UpdatedAt: %w", err)
	}
	return at, nil
}
