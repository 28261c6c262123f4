// Package config loads dashboardd settings from a YAML file with DASHBOARD_*
// environment overrides.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-dashboard-editor/components/dashboard"
)

// Storage drivers.
const (
	DriverMemory   = "memory"
	DriverFile     = "file"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
	DriverRemote   = "remote"
)

// Router flavours for the HTTP surface.
const (
	RouterChi   = "chi"
	RouterFiber = "fiber"
)

// Config holds all dashboardd configuration.
type Config struct {
	Server        ServerConfig   `yaml:"server"`
	Storage       StorageConfig  `yaml:"storage"`
	Redis         RedisConfig    `yaml:"redis"`
	Log           LogConfig      `yaml:"log"`
	Grid          dashboard.Grid `yaml:"grid"`
	History       HistoryConfig  `yaml:"history"`
	Sessions      SessionsConfig `yaml:"sessions"`
	EditorRoles   []string       `yaml:"editor_roles"`
	ManifestPaths []string       `yaml:"manifest_paths"`
	DefaultsPaths []string       `yaml:"defaults_paths"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr         string        `yaml:"addr"`
	Router       string        `yaml:"router"`
	BasePath     string        `yaml:"base_path"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	CORSOrigins  []string      `yaml:"cors_origins"`
}

// StorageConfig selects and configures the layout backend.
type StorageConfig struct {
	Driver       string `yaml:"driver"`
	Path         string `yaml:"path"`
	DSN          string `yaml:"dsn"`
	MaxConns     int    `yaml:"max_conns"`
	RemoteURL    string `yaml:"remote_url"`
	RemoteAPIKey string `yaml:"remote_api_key"` //nolint:gosec // remote backend credential
}

// RedisConfig holds Redis connection settings used by the redis driver and the
// event relay.
type RedisConfig struct {
	Addr      string `yaml:"addr"`
	Password  string `yaml:"password"` //nolint:gosec // Redis connection config
	DB        int    `yaml:"db"`
	Namespace string `yaml:"namespace"`
	Relay     bool   `yaml:"relay"`
	Channel   string `yaml:"channel"`
}

// LogConfig controls the zerolog output.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// HistoryConfig bounds the undo stack.
type HistoryConfig struct {
	Limit int `yaml:"limit"`
}

// SessionsConfig controls idle session eviction.
type SessionsConfig struct {
	TTL           time.Duration `yaml:"ttl"`
	SweepInterval time.Duration `yaml:"sweep_interval"`
}

// Default returns settings suitable for local development.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:         ":8080",
			Router:       RouterChi,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			CORSOrigins:  []string{"*"},
		},
		Storage: StorageConfig{
			Driver:   DriverFile,
			Path:     "data/layouts",
			MaxConns: 10,
		},
		Redis: RedisConfig{
			Addr: "localhost:6379",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Grid:    dashboard.DefaultGrid(),
		History: HistoryConfig{Limit: 100},
		Sessions: SessionsConfig{
			TTL:           30 * time.Minute,
			SweepInterval: time.Minute,
		},
	}
}

// Load reads path (when non-empty) over the defaults, then applies environment
// overrides and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("config.Load: %w", err)
		}
		defer f.Close()
		if err := cfg.decode(f); err != nil {
			return nil, fmt.Errorf("config.Load: %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	return cfg, nil
}

func (c *Config) decode(r io.Reader) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func (c *Config) applyEnv() error {
	var err error
	c.Server.Addr = getEnv("DASHBOARD_SERVER_ADDR", c.Server.Addr)
	c.Server.Router = getEnv("DASHBOARD_SERVER_ROUTER", c.Server.Router)
	c.Server.BasePath = getEnv("DASHBOARD_SERVER_BASE_PATH", c.Server.BasePath)
	if c.Server.ReadTimeout, err = getEnvDuration("DASHBOARD_SERVER_READ_TIMEOUT", c.Server.ReadTimeout); err != nil {
		return err
	}
	if c.Server.WriteTimeout, err = getEnvDuration("DASHBOARD_SERVER_WRITE_TIMEOUT", c.Server.WriteTimeout); err != nil {
		return err
	}
	c.Server.CORSOrigins = getEnvList("DASHBOARD_CORS_ORIGINS", c.Server.CORSOrigins)

	c.Storage.Driver = getEnv("DASHBOARD_STORAGE_DRIVER", c.Storage.Driver)
	c.Storage.Path = getEnv("DASHBOARD_STORAGE_PATH", c.Storage.Path)
	c.Storage.DSN = getEnv("DASHBOARD_STORAGE_DSN", c.Storage.DSN)
	if c.Storage.MaxConns, err = getEnvInt("DASHBOARD_STORAGE_MAX_CONNS", c.Storage.MaxConns); err != nil {
		return err
	}
	c.Storage.RemoteURL = getEnv("DASHBOARD_STORAGE_REMOTE_URL", c.Storage.RemoteURL)
	c.Storage.RemoteAPIKey = getEnv("DASHBOARD_STORAGE_REMOTE_API_KEY", c.Storage.RemoteAPIKey)

	c.Redis.Addr = getEnv("DASHBOARD_REDIS_ADDR", c.Redis.Addr)
	c.Redis.Password = getEnv("DASHBOARD_REDIS_PASSWORD", c.Redis.Password)
	if c.Redis.DB, err = getEnvInt("DASHBOARD_REDIS_DB", c.Redis.DB); err != nil {
		return err
	}
	c.Redis.Namespace = getEnv("DASHBOARD_REDIS_NAMESPACE", c.Redis.Namespace)
	if c.Redis.Relay, err = getEnvBool("DASHBOARD_REDIS_RELAY", c.Redis.Relay); err != nil {
		return err
	}
	c.Redis.Channel = getEnv("DASHBOARD_REDIS_CHANNEL", c.Redis.Channel)

	c.Log.Level = getEnv("DASHBOARD_LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnv("DASHBOARD_LOG_FORMAT", c.Log.Format)

	if c.Grid.Columns, err = getEnvInt("DASHBOARD_GRID_COLUMNS", c.Grid.Columns); err != nil {
		return err
	}
	if c.Grid.Rows, err = getEnvInt("DASHBOARD_GRID_ROWS", c.Grid.Rows); err != nil {
		return err
	}
	if c.History.Limit, err = getEnvInt("DASHBOARD_HISTORY_LIMIT", c.History.Limit); err != nil {
		return err
	}
	if c.Sessions.TTL, err = getEnvDuration("DASHBOARD_SESSION_TTL", c.Sessions.TTL); err != nil {
		return err
	}
	if c.Sessions.SweepInterval, err = getEnvDuration("DASHBOARD_SESSION_SWEEP_INTERVAL", c.Sessions.SweepInterval); err != nil {
		return err
	}
	c.EditorRoles = getEnvList("DASHBOARD_EDITOR_ROLES", c.EditorRoles)
	c.ManifestPaths = getEnvList("DASHBOARD_MANIFEST_PATHS", c.ManifestPaths)
	c.DefaultsPaths = getEnvList("DASHBOARD_DEFAULTS_PATHS", c.DefaultsPaths)
	return nil
}

// validate checks required fields and value bounds.
func (c *Config) validate() error {
	switch c.Server.Router {
	case RouterChi, RouterFiber:
	default:
		return fmt.Errorf("server.router must be %q or %q, got %q", RouterChi, RouterFiber, c.Server.Router)
	}
	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server.read_timeout must be positive, got %s", c.Server.ReadTimeout)
	}
	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server.write_timeout must be positive, got %s", c.Server.WriteTimeout)
	}

	switch c.Storage.Driver {
	case DriverMemory, DriverRedis:
	case DriverFile, DriverSQLite:
		if c.Storage.Path == "" {
			return fmt.Errorf("storage.path is required for the %s driver", c.Storage.Driver)
		}
	case DriverPostgres:
		if c.Storage.DSN == "" {
			return errors.New("storage.dsn is required for the postgres driver")
		}
		if c.Storage.MaxConns < 1 {
			return fmt.Errorf("storage.max_conns must be >= 1, got %d", c.Storage.MaxConns)
		}
	case DriverRemote:
		if c.Storage.RemoteURL == "" {
			return errors.New("storage.remote_url is required for the remote driver")
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}

	if _, err := zerolog.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	if c.Log.Format != "json" && c.Log.Format != "text" {
		return fmt.Errorf("log.format must be json or text, got %q", c.Log.Format)
	}
	if c.Grid.Columns < 1 {
		return fmt.Errorf("grid.columns must be >= 1, got %d", c.Grid.Columns)
	}
	if c.Grid.Rows < 0 {
		return fmt.Errorf("grid.rows must be >= 0, got %d", c.Grid.Rows)
	}
	if c.History.Limit < 1 {
		return fmt.Errorf("history.limit must be >= 1, got %d", c.History.Limit)
	}
	if c.Sessions.TTL < 0 {
		return fmt.Errorf("sessions.ttl must not be negative, got %s", c.Sessions.TTL)
	}
	return nil
}

// NeedsRedis reports whether a redis client is required.
func (c *Config) NeedsRedis() bool {
	return c.Storage.Driver == DriverRedis || c.Redis.Relay
}

// Logger builds the process logger described by the log section.
func (c LogConfig) Logger(w io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(c.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	if c.Format == "text" {
		w = zerolog.ConsoleWriter{Out: w}
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parsing %s=%q as int: %w", key, v, err)
	}
	return n, nil
}

func getEnvBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("parsing %s=%q as bool: %w", key, v, err)
	}
	return b, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("parsing %s=%q as duration: %w", key, v, err)
	}
	return d, nil
}

func getEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parts := strings.Split(v, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
