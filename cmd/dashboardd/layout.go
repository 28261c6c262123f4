package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/goliatone/go-dashboard-editor/components/dashboard"
	"github.com/goliatone/go-dashboard-editor/components/dashboard/commands"
	"github.com/goliatone/go-dashboard-editor/components/dashboard/queries"
)

type layoutCmd struct {
	List   layoutListCmd   `cmd:"" help:"List dashboard types with a stored layout."`
	Export layoutExportCmd `cmd:"" help:"Write stored layouts (or defaults) as a seed document."`
	Import layoutImportCmd `cmd:"" help:"Replace stored layouts from a seed document."`
	Reset  layoutResetCmd  `cmd:"" help:"Delete stored layouts so the defaults apply again."`
	Seed   layoutSeedCmd   `cmd:"" help:"Store the default layout for types that have nothing saved."`
}

// withRuntime builds a runtime with logs on stderr so command output stays clean.
func withRuntime(ctx context.Context, g *globals, fn func(*runtime) error) error {
	cfg, err := g.load()
	if err != nil {
		return err
	}
	rt, err := newRuntime(ctx, cfg, cfg.Log.Logger(os.Stderr))
	if err != nil {
		return err
	}
	defer rt.Close()
	return fn(rt)
}

type layoutListCmd struct{}

func (cmd *layoutListCmd) Run(ctx context.Context, g *globals, out io.Writer) error {
	return withRuntime(ctx, g, func(rt *runtime) error {
		return listLayouts(ctx, rt, out)
	})
}

func listLayouts(ctx context.Context, rt *runtime, out io.Writer) error {
	types, err := queries.NewListLayoutsQuery(rt.service).Query(ctx, struct{}{})
	if err != nil {
		return err
	}
	for _, t := range types {
		fmt.Fprintln(out, t)
	}
	return nil
}

type layoutExportCmd struct {
	Type   []string `short:"t" help:"Dashboard types to export (defaults to every stored type, or the built-in types when nothing is stored)."`
	Format string   `short:"f" enum:"yaml,json,toml" default:"yaml" help:"Output format."`
	Out    string   `short:"o" type:"path" help:"Output file (defaults to stdout)."`
}

func (cmd *layoutExportCmd) Run(ctx context.Context, g *globals, out io.Writer) error {
	return withRuntime(ctx, g, func(rt *runtime) error {
		if cmd.Out == "" {
			return exportLayouts(ctx, rt, cmd.Type, cmd.Format, out)
		}
		f, err := os.Create(cmd.Out) //nolint:gosec
		if err != nil {
			return fmt.Errorf("dashboardd: create %s: %w", cmd.Out, err)
		}
		if err := exportLayouts(ctx, rt, cmd.Type, cmd.Format, f); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	})
}

func exportLayouts(ctx context.Context, rt *runtime, types []string, format string, out io.Writer) error {
	if len(types) == 0 {
		stored, err := rt.service.ListLayouts(ctx)
		if err != nil {
			return err
		}
		types = stored
	}
	if len(types) == 0 {
		types = dashboard.DefaultDashboardTypes()
	}
	query := queries.NewStoredLayoutQuery(rt.service)
	layouts := make([]dashboard.DashboardLayout, 0, len(types))
	for _, t := range types {
		stored, err := query.Query(ctx, t)
		if err != nil {
			return err
		}
		layouts = append(layouts, stored.Layout)
	}
	return dashboard.EncodeDefaults(out, format, layouts)
}

type layoutImportCmd struct {
	File   string `arg:"" type:"existingfile" help:"Seed document (.yaml, .json or .toml)."`
	Format string `short:"f" enum:",yaml,yml,json,toml" default:"" help:"Input format (defaults to the file extension)."`
}

func (cmd *layoutImportCmd) Run(ctx context.Context, g *globals, out io.Writer) error {
	return withRuntime(ctx, g, func(rt *runtime) error {
		return importLayouts(ctx, rt, cmd.File, cmd.Format, out)
	})
}

func importLayouts(ctx context.Context, rt *runtime, path, format string, out io.Writer) error {
	if format == "" {
		format = strings.TrimPrefix(filepath.Ext(path), ".")
	}
	f, err := os.Open(path) //nolint:gosec
	if err != nil {
		return fmt.Errorf("dashboardd: open %s: %w", path, err)
	}
	defer f.Close()
	layouts, err := dashboard.DecodeDefaults(f, format)
	if err != nil {
		return fmt.Errorf("dashboardd: %s: %w", path, err)
	}
	cmd := commands.NewImportLayoutCommand(rt.service, rt.telemetry)
	for _, layout := range layouts {
		if err := cmd.Execute(ctx, commands.ImportLayoutInput{Layout: layout}); err != nil {
			return fmt.Errorf("dashboardd: import %s: %w", layout.DashboardType, err)
		}
		fmt.Fprintf(out, "imported %s (%d widgets)\n", layout.DashboardType, len(layout.Widgets))
	}
	return nil
}

type layoutResetCmd struct {
	Types []string `arg:"" help:"Dashboard types to reset."`
}

func (cmd *layoutResetCmd) Run(ctx context.Context, g *globals, out io.Writer) error {
	return withRuntime(ctx, g, func(rt *runtime) error {
		return resetLayouts(ctx, rt, cmd.Types, out)
	})
}

func resetLayouts(ctx context.Context, rt *runtime, types []string, out io.Writer) error {
	cmd := commands.NewDeleteLayoutCommand(rt.service, rt.telemetry)
	for _, t := range types {
		if err := cmd.Execute(ctx, commands.DeleteLayoutInput{DashboardType: t}); err != nil {
			return err
		}
		fmt.Fprintf(out, "reset %s\n", t)
	}
	return nil
}

type layoutSeedCmd struct {
	Types []string `arg:"" optional:"" help:"Dashboard types to seed (defaults to every built-in type)."`
}

func (cmd *layoutSeedCmd) Run(ctx context.Context, g *globals, out io.Writer) error {
	return withRuntime(ctx, g, func(rt *runtime) error {
		return seedLayouts(ctx, rt, cmd.Types, out)
	})
}

func seedLayouts(ctx context.Context, rt *runtime, types []string, out io.Writer) error {
	var seeded []string
	err := commands.NewSeedLayoutsCommand(rt.service, rt.telemetry).Execute(ctx, commands.SeedLayoutsInput{
		DashboardTypes: types,
		Seeded:         &seeded,
	})
	for _, t := range seeded {
		fmt.Fprintf(out, "seeded %s\n", t)
	}
	return err
}
