package main

import (
	"context"
	"errors"
	"fmt"
	"math"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/goliatone/go-dashboard-editor/components/dashboard"
	"github.com/goliatone/go-dashboard-editor/pkg/config"
	"github.com/goliatone/go-dashboard-editor/pkg/storage/postgres"
	redisstore "github.com/goliatone/go-dashboard-editor/pkg/storage/redis"
	"github.com/goliatone/go-dashboard-editor/pkg/storage/remote"
	"github.com/goliatone/go-dashboard-editor/pkg/storage/sqlite"
)

// runtime is the wired service graph shared by serve and the layout commands.
type runtime struct {
	cfg       *config.Config
	logger    zerolog.Logger
	storage   dashboard.LayoutStorage
	service   *dashboard.Service
	broadcast *dashboard.BroadcastHook
	relay     *redisstore.Relay
	telemetry dashboard.LogTelemetry
	closers   []func() error
}

func newRuntime(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*runtime, error) {
	rt := &runtime{
		cfg:       cfg,
		logger:    logger,
		broadcast: dashboard.NewBroadcastHook(),
		telemetry: dashboard.LogTelemetry{Logger: logger},
	}
	rt.closers = append(rt.closers, func() error { rt.broadcast.Close(); return nil })

	var client *goredis.Client
	if cfg.NeedsRedis() {
		c, err := redisstore.Connect(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			rt.Close()
			return nil, err
		}
		client = c
		rt.closers = append(rt.closers, client.Close)
	}

	storage, closeStorage, err := openStorage(ctx, cfg, client)
	if err != nil {
		rt.Close()
		return nil, err
	}
	rt.storage = storage
	if closeStorage != nil {
		rt.closers = append(rt.closers, closeStorage)
	}

	registry, err := buildRegistry(cfg.ManifestPaths)
	if err != nil {
		rt.Close()
		return nil, err
	}
	var defaults dashboard.LayoutDefaults = dashboard.BuiltinDefaults(registry)
	if len(cfg.DefaultsPaths) > 0 {
		fd, err := dashboard.LoadDefaultsFiles(defaults, cfg.DefaultsPaths...)
		if err != nil {
			rt.Close()
			return nil, err
		}
		defaults = fd
	}

	hooks := dashboard.MultiHook{rt.broadcast}
	if cfg.Redis.Relay {
		rt.relay = redisstore.NewRelay(redisstore.NewPubSub(client), cfg.Redis.Channel, &logger)
		hooks = append(hooks, rt.relay)
	}

	rt.service = dashboard.NewService(dashboard.Options{
		Storage:      storage,
		Registry:     registry,
		Defaults:     defaults,
		Grid:         cfg.Grid,
		HistoryLimit: cfg.History.Limit,
		SessionTTL:   cfg.Sessions.TTL,
		Authorizer:   dashboard.RoleAuthorizer(cfg.EditorRoles),
		Telemetry:    rt.telemetry,
		Notifier:     dashboard.LogNotifier{Logger: logger},
		Hook:         hooks,
		Logger:       &logger,
	})
	rt.closers = append(rt.closers, func() error { rt.service.Close(); return nil })
	return rt, nil
}

// Close releases resources in reverse order of acquisition.
func (rt *runtime) Close() error {
	var err error
	for i := len(rt.closers) - 1; i >= 0; i-- {
		err = errors.Join(err, rt.closers[i]())
	}
	rt.closers = nil
	return err
}

func openStorage(ctx context.Context, cfg *config.Config, client *goredis.Client) (dashboard.LayoutStorage, func() error, error) {
	switch cfg.Storage.Driver {
	case config.DriverMemory:
		return dashboard.NewMemoryStorage(), nil, nil
	case config.DriverFile:
		s, err := dashboard.NewFileStorage(cfg.Storage.Path)
		return s, nil, err
	case config.DriverSQLite:
		s, err := sqlite.Open(ctx, cfg.Storage.Path)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	case config.DriverPostgres:
		if cfg.Storage.MaxConns > math.MaxInt32 {
			return nil, nil, fmt.Errorf("storage.max_conns %d out of int32 range", cfg.Storage.MaxConns)
		}
		s, err := postgres.New(ctx, cfg.Storage.DSN, int32(cfg.Storage.MaxConns)) //nolint:gosec // bounds checked above
		if err != nil {
			return nil, nil, err
		}
		return s, func() error { s.Close(); return nil }, nil
	case config.DriverRedis:
		if client == nil {
			return nil, nil, errors.New("redis driver requires a redis client")
		}
		return redisstore.NewStorage(client, cfg.Redis.Namespace), nil, nil
	case config.DriverRemote:
		s, err := remote.New(remote.Config{BaseURL: cfg.Storage.RemoteURL, APIKey: cfg.Storage.RemoteAPIKey})
		return s, nil, err
	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

func buildRegistry(manifests []string) (*dashboard.Registry, error) {
	registry := dashboard.NewRegistry()
	for _, path := range manifests {
		if _, err := registry.LoadManifestFile(path); err != nil {
			return nil, err
		}
	}
	return registry, nil
}
