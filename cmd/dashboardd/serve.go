package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	router "github.com/goliatone/go-router"

	"github.com/goliatone/go-dashboard-editor/components/dashboard/gorouter"
	"github.com/goliatone/go-dashboard-editor/components/dashboard/httpapi"
	"github.com/goliatone/go-dashboard-editor/pkg/config"
)

type serveCmd struct {
	Addr   string `help:"Listen address (overrides server.addr)."`
	Router string `enum:",chi,fiber" default:"" help:"HTTP stack: chi or fiber (overrides server.router)."`
	Seed   bool   `help:"Store default layouts for every built-in dashboard type before serving."`
}

func (cmd *serveCmd) Run(ctx context.Context, g *globals) error {
	cfg, err := g.load()
	if err != nil {
		return err
	}
	if cmd.Addr != "" {
		cfg.Server.Addr = cmd.Addr
	}
	if cmd.Router != "" {
		cfg.Server.Router = cmd.Router
	}
	logger := cfg.Log.Logger(os.Stdout)

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	rt, err := newRuntime(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer rt.Close()

	if cmd.Seed {
		seeded, err := rt.service.SeedLayouts(ctx)
		if err != nil {
			logger.Warn().Err(err).Msg("seeding layouts")
		}
		logger.Info().Strs("dashboard_types", seeded).Msg("seeded default layouts")
	}

	if cfg.Sessions.TTL > 0 {
		go rt.service.Sessions().RunSweeper(ctx, cfg.Sessions.SweepInterval)
	}
	if rt.relay != nil {
		go func() {
			if err := rt.relay.Run(ctx, rt.broadcast); err != nil {
				logger.Error().Err(err).Msg("layout relay stopped")
			}
		}()
	}

	handlers := httpapi.NewHandlers(rt.service, rt.telemetry)
	switch cfg.Server.Router {
	case config.RouterFiber:
		return serveFiber(ctx, cfg, rt, handlers)
	default:
		return serveChi(ctx, cfg, rt, handlers)
	}
}

func serveChi(ctx context.Context, cfg *config.Config, rt *runtime, handlers *httpapi.Handlers) error {
	srv := &http.Server{
		Addr: cfg.Server.Addr,
		Handler: httpapi.NewRouter(handlers, httpapi.RouterOptions{
			BasePath:       cfg.Server.BasePath,
			AllowedOrigins: cfg.Server.CORSOrigins,
			Events:         rt.broadcast,
		}),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		rt.logger.Info().Str("addr", cfg.Server.Addr).Str("router", config.RouterChi).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	rt.logger.Info().Msg("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	// Hijacked websocket connections are not tracked by Shutdown.
	rt.broadcast.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	rt.logger.Info().Msg("stopped")
	return nil
}

func serveFiber(ctx context.Context, cfg *config.Config, rt *runtime, handlers *httpapi.Handlers) error {
	server := router.NewFiberAdapter()
	if err := gorouter.Register(gorouter.Config[*fiber.App]{
		Router:    server.Router(),
		API:       handlers,
		Broadcast: rt.broadcast,
		BasePath:  cfg.Server.BasePath,
	}); err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		rt.logger.Info().Str("addr", cfg.Server.Addr).Str("router", config.RouterFiber).Msg("starting server")
		if err := server.Serve(cfg.Server.Addr); err != nil {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	rt.logger.Info().Msg("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	rt.broadcast.Close()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	rt.logger.Info().Msg("stopped")
	return nil
}
