package main

import (
	"context"
	"io"
	"os"

	"github.com/alecthomas/kong"

	"github.com/goliatone/go-dashboard-editor/pkg/config"
)

type globals struct {
	Config string `short:"c" type:"path" env:"DASHBOARD_CONFIG" help:"YAML configuration file."`
}

func (g *globals) load() (*config.Config, error) {
	return config.Load(g.Config)
}

type cli struct {
	globals

	Serve  serveCmd  `cmd:"" help:"Run the dashboard editor HTTP API."`
	Layout layoutCmd `cmd:"" help:"Inspect and manage stored layouts."`
}

func main() {
	var app cli
	ctx := kong.Parse(&app,
		kong.Name("dashboardd"),
		kong.Description("Dashboard layout editor service."),
		kong.UsageOnError(),
		kong.Bind(&app.globals),
		kong.BindTo(context.Background(), (*context.Context)(nil)),
		kong.BindTo(os.Stdout, (*io.Writer)(nil)),
	)
	ctx.FatalIfErrorf(ctx.Run())
}
