package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-dashboard-editor/components/dashboard"
	"github.com/goliatone/go-dashboard-editor/pkg/config"
	"github.com/goliatone/go-dashboard-editor/pkg/storage/sqlite"
)

func testRuntime(t *testing.T, cfg *config.Config) *runtime {
	t.Helper()
	rt, err := newRuntime(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = rt.Close() })
	return rt
}

func TestOpenStorageDrivers(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	cfg := config.Default()
	cfg.Storage.Driver = config.DriverMemory
	s, closer, err := openStorage(ctx, cfg, nil)
	require.NoError(t, err)
	assert.IsType(t, &dashboard.MemoryStorage{}, s)
	assert.Nil(t, closer)

	cfg.Storage.Driver = config.DriverFile
	cfg.Storage.Path = filepath.Join(dir, "layouts")
	s, _, err = openStorage(ctx, cfg, nil)
	require.NoError(t, err)
	assert.IsType(t, &dashboard.FileStorage{}, s)

	cfg.Storage.Driver = config.DriverSQLite
	cfg.Storage.Path = filepath.Join(dir, "layouts.db")
	s, closer, err = openStorage(ctx, cfg, nil)
	require.NoError(t, err)
	assert.IsType(t, &sqlite.Storage{}, s)
	require.NoError(t, closer())

	cfg.Storage.Driver = config.DriverRedis
	_, _, err = openStorage(ctx, cfg, nil)
	require.Error(t, err)

	cfg.Storage.Driver = "mongo"
	_, _, err = openStorage(ctx, cfg, nil)
	require.Error(t, err)
}

func TestRuntimeAppliesEditorRoles(t *testing.T) {
	cfg := config.Default()
	cfg.Storage.Driver = config.DriverMemory
	cfg.EditorRoles = []string{"hr-admin"}
	rt := testRuntime(t, cfg)

	ctx := context.Background()
	session, err := rt.service.OpenSession(ctx, dashboard.ViewerContext{UserID: "u1"}, "overview")
	require.NoError(t, err)
	_, err = rt.service.SetEditMode(ctx, dashboard.ViewerContext{UserID: "u1"}, session.ID, true)
	require.ErrorIs(t, err, dashboard.ErrForbidden)
	_, err = rt.service.SetEditMode(ctx, dashboard.ViewerContext{UserID: "u2", Roles: []string{"hr-admin"}}, session.ID, true)
	require.NoError(t, err)
}

func TestRuntimeRejectsMissingManifest(t *testing.T) {
	cfg := config.Default()
	cfg.Storage.Driver = config.DriverMemory
	cfg.ManifestPaths = []string{filepath.Join(t.TempDir(), "missing.yaml")}
	_, err := newRuntime(context.Background(), cfg, zerolog.Nop())
	require.Error(t, err)
}

func TestLayoutCommandsRoundTrip(t *testing.T) {
	ctx := context.Background()
	cfg := config.Default()
	cfg.Storage.Driver = config.DriverSQLite
	cfg.Storage.Path = filepath.Join(t.TempDir(), "layouts.db")
	rt := testRuntime(t, cfg)

	var out bytes.Buffer
	require.NoError(t, seedLayouts(ctx, rt, []string{"overview", "jobs"}, &out))
	assert.Equal(t, "seeded overview\nseeded jobs\n", out.String())

	out.Reset()
	require.NoError(t, listLayouts(ctx, rt, &out))
	assert.Equal(t, "jobs\noverview\n", out.String())

	exported := filepath.Join(t.TempDir(), "layouts.toml")
	f, err := os.Create(exported)
	require.NoError(t, err)
	require.NoError(t, exportLayouts(ctx, rt, nil, "toml", f))
	require.NoError(t, f.Close())

	out.Reset()
	require.NoError(t, resetLayouts(ctx, rt, []string{"overview", "jobs"}, &out))
	types, err := rt.service.ListLayouts(ctx)
	require.NoError(t, err)
	assert.Empty(t, types)

	out.Reset()
	require.NoError(t, importLayouts(ctx, rt, exported, "", &out))
	assert.Contains(t, out.String(), "imported jobs (5 widgets)")
	assert.Contains(t, out.String(), "imported overview (2 widgets)")

	layout, stored, err := rt.service.ExportLayout(ctx, "overview")
	require.NoError(t, err)
	assert.True(t, stored)
	assert.Len(t, layout.Widgets, 2)
}

func TestExportFallsBackToBuiltinTypes(t *testing.T) {
	cfg := config.Default()
	cfg.Storage.Driver = config.DriverMemory
	rt := testRuntime(t, cfg)

	var out bytes.Buffer
	require.NoError(t, exportLayouts(context.Background(), rt, nil, "json", &out))
	layouts, err := dashboard.DecodeDefaults(&out, "json")
	require.NoError(t, err)
	require.Len(t, layouts, len(dashboard.DefaultDashboardTypes()))
	for i, typ := range dashboard.DefaultDashboardTypes() {
		assert.Equal(t, typ, layouts[i].DashboardType)
	}
}

func TestImportRejectsUnknownWidgetType(t *testing.T) {
	cfg := config.Default()
	cfg.Storage.Driver = config.DriverMemory
	rt := testRuntime(t, cfg)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`layouts:
  - dashboardType: overview
    widgets:
      - id: w1
        widgetType: not-a-widget
        gridArea: {x: 0, y: 0, w: 2, h: 2}
        props: {}
        isVisible: true
`), 0o600))
	var out bytes.Buffer
	err := importLayouts(context.Background(), rt, path, "", &out)
	var unknown *dashboard.UnknownWidgetTypeError
	require.ErrorAs(t, err, &unknown)
	assert.Empty(t, out.String())
}

func TestGlobalsLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dashboard.yaml")
	require.NoError(t, os.WriteFile(path, []byte("storage:\n  driver: memory\nlog:\n  level: debug\n"), 0o600))
	g := &globals{Config: path}
	var out bytes.Buffer
	require.NoError(t, (&layoutSeedCmd{Types: []string{"rpo"}}).Run(context.Background(), g, &out))
	assert.Equal(t, "seeded rpo\n", out.String())
}
