package queries

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dashboard "github.com/goliatone/go-dashboard-editor/components/dashboard"
)

type stubCatalogService struct {
	calls   int
	locales dashboard.Locales
}

func (s *stubCatalogService) Catalog(locales dashboard.Locales) []dashboard.CatalogEntry {
	s.calls++
	s.locales = locales
	return []dashboard.CatalogEntry{{Code: "open-jobs"}}
}

func TestCatalogQuery(t *testing.T) {
	service := &stubCatalogService{}
	entries, err := NewCatalogQuery(service).Query(context.Background(), CatalogInput{Locales: dashboard.Locales{"es-mx", "en"}})
	require.NoError(t, err)
	assert.Equal(t, 1, service.calls)
	assert.Equal(t, dashboard.Locales{"es-mx", "en"}, service.locales)
	assert.Len(t, entries, 1)
}

func TestSessionStateQuery(t *testing.T) {
	ctx := context.Background()
	svc := dashboard.NewService(dashboard.Options{Storage: dashboard.NewMemoryStorage()})
	defer svc.Close()
	sess, err := svc.OpenSession(ctx, dashboard.ViewerContext{}, dashboard.DashboardRPO)
	require.NoError(t, err)

	state, err := NewSessionStateQuery(svc).Query(ctx, SessionStateInput{SessionID: sess.ID})
	require.NoError(t, err)
	assert.Equal(t, dashboard.DashboardRPO, state.DashboardType)
	assert.False(t, state.EditMode)
	assert.Len(t, state.Layout.Widgets, 3)

	_, err = NewSessionStateQuery(svc).Query(ctx, SessionStateInput{SessionID: "missing"})
	require.ErrorIs(t, err, dashboard.ErrSessionNotFound)
}

func TestStoredLayoutAndListQueries(t *testing.T) {
	ctx := context.Background()
	svc := dashboard.NewService(dashboard.Options{Storage: dashboard.NewMemoryStorage()})
	defer svc.Close()

	got, err := NewStoredLayoutQuery(svc).Query(ctx, dashboard.DashboardAnalytics)
	require.NoError(t, err)
	assert.False(t, got.Stored)
	assert.Len(t, got.Layout.Widgets, 3)

	_, err = svc.SeedLayouts(ctx, dashboard.DashboardAnalytics)
	require.NoError(t, err)
	got, err = NewStoredLayoutQuery(svc).Query(ctx, dashboard.DashboardAnalytics)
	require.NoError(t, err)
	assert.True(t, got.Stored)

	types, err := NewListLayoutsQuery(svc).Query(ctx, struct{}{})
	require.NoError(t, err)
	assert.Equal(t, []string{dashboard.DashboardAnalytics}, types)
}
