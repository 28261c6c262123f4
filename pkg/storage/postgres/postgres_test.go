package postgres

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-dashboard-editor/components/dashboard"
)

// fakeDB emulates the handful of statements the storage issues.
type fakeDB struct {
	mu      sync.Mutex
	rows    map[string][]byte
	types   map[string]string
	execErr error
	stmts   []string
}

func newFakeDB() *fakeDB {
	return &fakeDB{rows: map[string][]byte{}, types: map[string]string{}}
}

func (f *fakeDB) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stmts = append(f.stmts, sql)
	if f.execErr != nil {
		return pgconn.CommandTag{}, f.execErr
	}
	switch {
	case strings.HasPrefix(sql, "CREATE TABLE"):
		return pgconn.NewCommandTag("CREATE TABLE"), nil
	case strings.HasPrefix(sql, "INSERT"):
		key := args[0].(string)
		f.types[key] = args[1].(string)
		f.rows[key] = append([]byte(nil), args[2].([]byte)...)
		return pgconn.NewCommandTag("INSERT 0 1"), nil
	case strings.HasPrefix(sql, "DELETE"):
		key := args[0].(string)
		delete(f.rows, key)
		delete(f.types, key)
		return pgconn.NewCommandTag("DELETE 1"), nil
	}
	return pgconn.CommandTag{}, errors.New("unexpected statement")
}

func (f *fakeDB) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch {
	case strings.HasPrefix(sql, "SELECT payload"):
		data, ok := f.rows[args[0].(string)]
		if !ok {
			return fakeRow{err: pgx.ErrNoRows}
		}
		return fakeRow{values: []any{append([]byte(nil), data...)}}
	case strings.Contains(sql, "array_agg"):
		types := make([]string, 0, len(f.types))
		for _, t := range f.types {
			types = append(types, t)
		}
		sort.Strings(types)
		return fakeRow{values: []any{types}}
	}
	return fakeRow{err: errors.New("unexpected query")}
}

type fakeRow struct {
	values []any
	err    error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	for i, d := range dest {
		switch p := d.(type) {
		case *[]byte:
			*p = r.values[i].([]byte)
		case *[]string:
			*p = r.values[i].([]string)
		default:
			return errors.New("unsupported scan target")
		}
	}
	return nil
}

func TestStorageRoundTrip(t *testing.T) {
	ctx := context.Background()
	db := newFakeDB()
	s := NewWithDB(db)
	require.NoError(t, s.Migrate(ctx))

	_, err := s.LoadLayout(ctx, "jobs")
	require.ErrorIs(t, err, dashboard.ErrNotFound)

	layout := dashboard.DashboardLayout{
		DashboardType: "jobs",
		Widgets: []dashboard.WidgetInstance{
			{ID: "a", WidgetType: "open-jobs", GridArea: dashboard.GridArea{W: 6, H: 4}, Props: dashboard.Props{"limit": float64(5)}, IsVisible: true},
		},
	}
	require.NoError(t, s.SaveLayout(ctx, layout))
	got, err := s.LoadLayout(ctx, "jobs")
	require.NoError(t, err)
	assert.Equal(t, layout, got)
	assert.Contains(t, db.rows, "dashboard-layout:jobs")
}

func TestStorageListAndDelete(t *testing.T) {
	ctx := context.Background()
	s := NewWithDB(newFakeDB())

	types, err := s.ListLayouts(ctx)
	require.NoError(t, err)
	assert.Empty(t, types)

	for _, typ := range []string{"rpo", "jobs"} {
		require.NoError(t, s.SaveLayout(ctx, dashboard.DashboardLayout{DashboardType: typ}))
	}
	types, err = s.ListLayouts(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"jobs", "rpo"}, types)

	require.NoError(t, s.DeleteLayout(ctx, "jobs"))
	_, err = s.LoadLayout(ctx, "jobs")
	require.ErrorIs(t, err, dashboard.ErrNotFound)
}

func TestStorageWrapsDriverErrors(t *testing.T) {
	ctx := context.Background()
	db := newFakeDB()
	db.execErr = errors.New("connection reset")
	s := NewWithDB(db)

	err := s.SaveLayout(ctx, dashboard.DashboardLayout{DashboardType: "jobs"})
	require.ErrorContains(t, err, "postgres.SaveLayout")
	require.ErrorIs(t, err, db.execErr)

	require.Error(t, s.SaveLayout(ctx, dashboard.DashboardLayout{}), "layouts without a type are rejected before the driver")
}

func TestStorageCorruptPayload(t *testing.T) {
	ctx := context.Background()
	db := newFakeDB()
	db.rows[dashboard.LayoutKey("jobs")] = []byte(`{"dashboardType":"jobs","widgets":[{"id":"a","gridArea":{"x":-1,"y":0,"w":1,"h":1}}]}`)
	s := NewWithDB(db)

	_, err := s.LoadLayout(ctx, "jobs")
	require.ErrorIs(t, err, dashboard.ErrInvalidGridArea)
}
