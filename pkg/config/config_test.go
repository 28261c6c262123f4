package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dashboard.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, RouterChi, cfg.Server.Router)
	assert.Equal(t, DriverFile, cfg.Storage.Driver)
	assert.Equal(t, 12, cfg.Grid.Columns)
	assert.Equal(t, 100, cfg.History.Limit)
	assert.Equal(t, 30*time.Minute, cfg.Sessions.TTL)
	assert.False(t, cfg.NeedsRedis())
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
server:
  addr: ":9090"
  router: fiber
  read_timeout: 5s
storage:
  driver: sqlite
  path: /tmp/layouts.db
grid:
  columns: 16
  rows: 0
  cell_width: 60
  cell_height: 60
  gap: 8
sessions:
  ttl: 10m
editor_roles: [admin, hr-manager]
manifest_paths: [widgets.yaml]
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, RouterFiber, cfg.Server.Router)
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 30*time.Second, cfg.Server.WriteTimeout)
	assert.Equal(t, DriverSQLite, cfg.Storage.Driver)
	assert.Equal(t, 16, cfg.Grid.Columns)
	assert.Equal(t, float64(8), cfg.Grid.Gap)
	assert.Equal(t, 10*time.Minute, cfg.Sessions.TTL)
	assert.Equal(t, []string{"admin", "hr-manager"}, cfg.EditorRoles)
	assert.Equal(t, []string{"widgets.yaml"}, cfg.ManifestPaths)
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	path := writeConfig(t, "server:\n  adress: \":1\"\n")
	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadEmptyFile(t *testing.T) {
	cfg, err := Load(writeConfig(t, ""))
	require.NoError(t, err)
	assert.Equal(t, Default().Server.Addr, cfg.Server.Addr)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "storage:\n  driver: memory\n")
	t.Setenv("DASHBOARD_STORAGE_DRIVER", "redis")
	t.Setenv("DASHBOARD_REDIS_NAMESPACE", "hrm:")
	t.Setenv("DASHBOARD_HISTORY_LIMIT", "20")
	t.Setenv("DASHBOARD_CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("DASHBOARD_SESSION_TTL", "90s")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, DriverRedis, cfg.Storage.Driver)
	assert.Equal(t, "hrm:", cfg.Redis.Namespace)
	assert.Equal(t, 20, cfg.History.Limit)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.CORSOrigins)
	assert.Equal(t, 90*time.Second, cfg.Sessions.TTL)
	assert.True(t, cfg.NeedsRedis())
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{name: "unknown driver", env: map[string]string{"DASHBOARD_STORAGE_DRIVER": "mongo"}, want: "unknown storage driver"},
		{name: "postgres needs dsn", env: map[string]string{"DASHBOARD_STORAGE_DRIVER": "postgres"}, want: "storage.dsn"},
		{name: "remote needs url", env: map[string]string{"DASHBOARD_STORAGE_DRIVER": "remote"}, want: "storage.remote_url"},
		{name: "bad router", env: map[string]string{"DASHBOARD_SERVER_ROUTER": "gin"}, want: "server.router"},
		{name: "bad level", env: map[string]string{"DASHBOARD_LOG_LEVEL": "loud"}, want: "log.level"},
		{name: "bad format", env: map[string]string{"DASHBOARD_LOG_FORMAT": "xml"}, want: "log.format"},
		{name: "zero columns", env: map[string]string{"DASHBOARD_GRID_COLUMNS": "0"}, want: "grid.columns"},
		{name: "zero history", env: map[string]string{"DASHBOARD_HISTORY_LIMIT": "0"}, want: "history.limit"},
		{name: "non numeric", env: map[string]string{"DASHBOARD_REDIS_DB": "one"}, want: "DASHBOARD_REDIS_DB"},
		{name: "bad duration", env: map[string]string{"DASHBOARD_SESSION_TTL": "soon"}, want: "DASHBOARD_SESSION_TTL"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			_, err := Load("")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestGetEnvList(t *testing.T) {
	tests := []struct {
		name     string
		setVal   *string
		fallback []string
		want     []string
	}{
		{name: "fallback when unset", fallback: []string{"x"}, want: []string{"x"}},
		{name: "trims and drops blanks", setVal: strPtr(" a ,, b "), want: []string{"a", "b"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			key := "DASHBOARD_TEST_LIST_" + strings.ToUpper(strings.ReplaceAll(tc.name, " ", "_"))
			if tc.setVal != nil {
				t.Setenv(key, *tc.setVal)
			}
			assert.Equal(t, tc.want, getEnvList(key, tc.fallback))
		})
	}
}

func TestLogConfigLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := LogConfig{Level: "warn", Format: "json"}.Logger(&buf)
	assert.Equal(t, zerolog.WarnLevel, logger.GetLevel())
	logger.Info().Msg("hidden")
	logger.Warn().Msg("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"message":"shown"`)
}
