package remote

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dashboard "github.com/goliatone/go-dashboard-editor/components/dashboard"
	"github.com/goliatone/go-dashboard-editor/components/dashboard/httpapi"
)

func TestNewRequiresBaseURL(t *testing.T) {
	_, err := New(Config{})
	require.Error(t, err)
}

func TestStorageRequestShape(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, "admin,hr", r.Header.Get("X-User-Roles"))
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/layouts/jobs":
			_ = json.NewEncoder(w).Encode(map[string]any{
				"stored": true,
				"layout": map[string]any{"dashboardType": "jobs", "widgets": []any{}},
			})
		case r.Method == http.MethodGet && r.URL.Path == "/layouts/rpo":
			_ = json.NewEncoder(w).Encode(map[string]any{
				"stored": false,
				"layout": map[string]any{"dashboardType": "rpo", "widgets": []any{}},
			})
		case r.Method == http.MethodGet && r.URL.Path == "/layouts":
			_ = json.NewEncoder(w).Encode(map[string]any{"dashboardTypes": []string{"jobs"}})
		default:
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte(`{"error":"boom"}`))
		}
	}))
	t.Cleanup(server.Close)

	s, err := New(Config{BaseURL: server.URL + "/layouts/", APIKey: "secret", Roles: []string{"admin", "hr"}})
	require.NoError(t, err)
	ctx := context.Background()

	layout, err := s.LoadLayout(ctx, "jobs")
	require.NoError(t, err)
	assert.Equal(t, "jobs", layout.DashboardType)

	_, err = s.LoadLayout(ctx, "rpo")
	require.ErrorIs(t, err, dashboard.ErrNotFound)

	types, err := s.ListLayouts(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"jobs"}, types)

	err = s.DeleteLayout(ctx, "jobs")
	var status *StatusError
	require.True(t, errors.As(err, &status))
	assert.Equal(t, http.StatusBadGateway, status.Status)
}

func TestStorageAgainstLayoutEndpoints(t *testing.T) {
	origin := dashboard.NewService(dashboard.Options{Storage: dashboard.NewMemoryStorage()})
	t.Cleanup(origin.Close)
	server := httptest.NewServer(httpapi.NewRouter(httpapi.NewHandlers(origin, nil), httpapi.RouterOptions{}))
	t.Cleanup(server.Close)

	s, err := New(Config{BaseURL: server.URL + "/api/dashboard/layouts"})
	require.NoError(t, err)
	ctx := context.Background()

	_, err = s.LoadLayout(ctx, "overview")
	require.ErrorIs(t, err, dashboard.ErrNotFound)

	def := dashboard.BuiltinDefaults(origin.Registry()).DefaultLayout("overview")
	def.DashboardType = "overview"
	require.NoError(t, s.SaveLayout(ctx, def))

	got, err := s.LoadLayout(ctx, "overview")
	require.NoError(t, err)
	assert.Equal(t, def.Widgets, got.Widgets)

	types, err := s.ListLayouts(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"overview"}, types)

	require.NoError(t, s.DeleteLayout(ctx, "overview"))
	types, err = s.ListLayouts(ctx)
	require.NoError(t, err)
	assert.Empty(t, types)
}
