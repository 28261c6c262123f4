package goadmin_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dashboardpkg "github.com/goliatone/go-dashboard-editor/pkg/dashboard"
	"github.com/goliatone/go-dashboard-editor/pkg/goadmin"
)

type stubMenuBuilder struct {
	items []goadmin.MenuItem
	codes []string
	err   error
}

func (s *stubMenuBuilder) EnsureMenuItem(_ context.Context, code string, item goadmin.MenuItem) error {
	if s.err != nil {
		return s.err
	}
	s.codes = append(s.codes, code)
	s.items = append(s.items, item)
	return nil
}

func TestAdminBootstrapSeedsMenuAndLayouts(t *testing.T) {
	ctx := context.Background()
	builder := &stubMenuBuilder{}
	service := dashboardpkg.NewInMemoryService()
	t.Cleanup(service.Close)

	admin, err := goadmin.New(goadmin.Config{
		EnableDashboard: true,
		Service:         service,
		MenuBuilder:     builder,
		SeedLayouts:     true,
		MenuItems:       map[string]goadmin.MenuItem{"rpo": {Label: "Partners"}},
	})
	require.NoError(t, err)
	require.NoError(t, admin.Bootstrap(ctx))

	require.Len(t, builder.items, len(dashboardpkg.DashboardTypes()))
	assert.Equal(t, []string{"admin.main"}, unique(builder.codes))
	assert.Equal(t, goadmin.MenuItem{Label: "Overview", Route: "admin.dashboard.overview", Icon: "home", Position: 1}, builder.items[0])
	assert.Equal(t, "Partners", builder.items[3].Label)
	assert.Equal(t, "layout", builder.items[3].Icon)

	stored, err := service.ListLayouts(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, dashboardpkg.DashboardTypes(), stored)
	assert.Same(t, service, admin.Dashboard())
}

func TestAdminBootstrapPropagatesMenuErrors(t *testing.T) {
	service := dashboardpkg.NewInMemoryService()
	t.Cleanup(service.Close)
	boom := errors.New("menu unavailable")
	admin, err := goadmin.New(goadmin.Config{
		EnableDashboard: true,
		Service:         service,
		MenuBuilder:     &stubMenuBuilder{err: boom},
		DashboardTypes:  []string{"jobs"},
	})
	require.NoError(t, err)
	require.ErrorIs(t, admin.Bootstrap(context.Background()), boom)
}

func TestAdminRequiresServiceWhenEnabled(t *testing.T) {
	_, err := goadmin.New(goadmin.Config{EnableDashboard: true})
	require.Error(t, err)
}

func TestAdminDisabledSkipsBootstrap(t *testing.T) {
	builder := &stubMenuBuilder{}
	admin, err := goadmin.New(goadmin.Config{
		EnableDashboard: false,
		MenuBuilder:     builder,
	})
	require.NoError(t, err)
	require.NoError(t, admin.Bootstrap(context.Background()))
	assert.Empty(t, builder.items)
	assert.Nil(t, admin.Dashboard())
}

func unique(in []string) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, s := range in {
		if _, ok := seen[s]; !ok {
			seen[s] = struct{}{}
			out = append(out, s)
		}
	}
	return out
}
