// Package postgres persists dashboard layouts in PostgreSQL through pgx.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/goliatone/go-dashboard-editor/components/dashboard"
)

// Schema creates the layouts table. Migrate runs it.
const Schema = `CREATE TABLE IF NOT EXISTS dashboard_layouts (
	storage_key    TEXT PRIMARY KEY,
	dashboard_type TEXT NOT NULL,
	payload        JSONB NOT NULL,
	updated_at     TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// DB is the subset of *pgxpool.Pool the storage uses.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Storage implements dashboard.LayoutStorage on PostgreSQL.
type Storage struct {
	db   DB
	pool *pgxpool.Pool
}

var _ dashboard.LayoutStorage = (*Storage)(nil)

// New connects a pool to dsn, pings it and migrates the schema.
func New(ctx context.Context, dsn string, maxConns int32) (*Storage, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres.New: parse config: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres.New: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres.New: ping: %w", err)
	}
	s := &Storage{db: pool, pool: pool}
	if err := s.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// NewWithDB wraps an existing connection or pool.
func NewWithDB(db DB) *Storage {
	return &Storage{db: db}
}

// Migrate creates the layouts table when missing.
func (s *Storage) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("postgres.Migrate: %w", err)
	}
	return nil
}

// Close releases the pool opened by New.
func (s *Storage) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// LoadLayout implements dashboard.LayoutStorage.
func (s *Storage) LoadLayout(ctx context.Context, dashboardType string) (dashboard.DashboardLayout, error) {
	var payload []byte
	err := s.db.QueryRow(ctx,
		`SELECT payload FROM dashboard_layouts WHERE storage_key = $1`,
		dashboard.LayoutKey(dashboardType),
	).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return dashboard.DashboardLayout{}, dashboard.ErrNotFound
	}
	if err != nil {
		return dashboard.DashboardLayout{}, fmt.Errorf("postgres.LoadLayout: %w", err)
	}
	return dashboard.DecodeLayout(payload)
}

// SaveLayout implements dashboard.LayoutStorage. Concurrent saves resolve last-write-wins.
func (s *Storage) SaveLayout(ctx context.Context, layout dashboard.DashboardLayout) error {
	data, err := dashboard.EncodeLayout(layout)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(ctx,
		`INSERT INTO dashboard_layouts (storage_key, dashboard_type, payload, updated_at)
		 VALUES ($1, $2, $3, now())
		 ON CONFLICT (storage_key) DO UPDATE SET payload = EXCLUDED.payload, updated_at = now()`,
		dashboard.LayoutKey(layout.DashboardType), layout.DashboardType, data,
	)
	if err != nil {
		return fmt.Errorf("postgres.SaveLayout: %w", err)
	}
	return nil
}

// DeleteLayout implements dashboard.LayoutStorage.
func (s *Storage) DeleteLayout(ctx context.Context, dashboardType string) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM dashboard_layouts WHERE storage_key = $1`, dashboard.LayoutKey(dashboardType)); err != nil {
		return fmt.Errorf("postgres.DeleteLayout: %w", err)
	}
	return nil
}

// ListLayouts implements dashboard.LayoutStorage.
func (s *Storage) ListLayouts(ctx context.Context) ([]string, error) {
	var types []string
	err := s.db.QueryRow(ctx,
		`SELECT COALESCE(array_agg(dashboard_type ORDER BY dashboard_type), '{}') FROM dashboard_layouts`,
	).Scan(&types)
	if err != nil {
		return nil, fmt.Errorf("postgres.ListLayouts: %w", err)
	}
	if types == nil {
		types = []string{}
	}
	return types, nil
}
