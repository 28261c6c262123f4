package goadmin

import (
	"context"
	"errors"
	"fmt"

	dashboardpkg "github.com/goliatone/go-dashboard-editor/pkg/dashboard"
)

// MenuBuilder ensures dashboard entries exist within the admin navigation.
type MenuBuilder interface {
	EnsureMenuItem(ctx context.Context, menuCode string, item MenuItem) error
}

// MenuItem captures dashboard link metadata.
type MenuItem struct {
	Label    string
	Route    string
	Icon     string
	Position int
}

// Config wires the editor service into an admin shell.
type Config struct {
	EnableDashboard bool
	MenuCode        string
	MenuBuilder     MenuBuilder
	Service         *dashboardpkg.Service
	// DashboardTypes gets one menu entry each. Defaults to the built-in pages.
	DashboardTypes []string
	// MenuItems overrides the generated entry for a dashboard type.
	MenuItems map[string]MenuItem
	// SeedLayouts stores default layouts for DashboardTypes during Bootstrap.
	SeedLayouts bool
}

// Admin exposes helpers for go-admin style applications.
type Admin struct {
	cfg Config
}

var defaultMenuItems = map[string]MenuItem{
	"overview":  {Label: "Overview", Icon: "home"},
	"jobs":      {Label: "Jobs", Icon: "briefcase"},
	"employees": {Label: "Employees", Icon: "users"},
	"rpo":       {Label: "RPO", Icon: "handshake"},
	"analytics": {Label: "Analytics", Icon: "chart-bar"},
}

// New creates an Admin helper that can seed dashboard menus.
func New(cfg Config) (*Admin, error) {
	if cfg.EnableDashboard && cfg.Service == nil {
		return nil, errors.New("goadmin: dashboard service is required when enabled")
	}
	if cfg.MenuCode == "" {
		cfg.MenuCode = "admin.main"
	}
	if len(cfg.DashboardTypes) == 0 {
		cfg.DashboardTypes = dashboardpkg.DashboardTypes()
	}
	return &Admin{cfg: cfg}, nil
}

// Dashboard exposes the configured dashboard service when enabled.
func (a *Admin) Dashboard() *dashboardpkg.Service {
	if !a.cfg.EnableDashboard {
		return nil
	}
	return a.cfg.Service
}

// MenuItems returns the navigation entries Bootstrap installs, in order.
func (a *Admin) MenuItems() []MenuItem {
	items := make([]MenuItem, 0, len(a.cfg.DashboardTypes))
	for i, t := range a.cfg.DashboardTypes {
		item, ok := a.cfg.MenuItems[t]
		if !ok {
			item = defaultMenuItems[t]
		}
		if item.Label == "" {
			item.Label = t
		}
		if item.Route == "" {
			item.Route = "admin.dashboard." + t
		}
		if item.Icon == "" {
			item.Icon = "layout"
		}
		if item.Position == 0 {
			item.Position = i + 1
		}
		items = append(items, item)
	}
	return items
}

// Bootstrap seeds menu entries, and default layouts when configured, once
// dashboard support is enabled.
func (a *Admin) Bootstrap(ctx context.Context) error {
	if !a.cfg.EnableDashboard {
		return nil
	}
	if a.cfg.SeedLayouts {
		if _, err := a.cfg.Service.SeedLayouts(ctx, a.cfg.DashboardTypes...); err != nil {
			return fmt.Errorf("goadmin: seed layouts: %w", err)
		}
	}
	if a.cfg.MenuBuilder == nil {
		return nil
	}
	for _, item := range a.MenuItems() {
		if err := a.cfg.MenuBuilder.EnsureMenuItem(ctx, a.cfg.MenuCode, item); err != nil {
			return fmt.Errorf("goadmin: menu item %s: %w", item.Route, err)
		}
	}
	return nil
}
