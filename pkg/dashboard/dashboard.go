// Package dashboard is the public entry point for embedding the layout editor.
package dashboard

import (
	core "github.com/goliatone/go-dashboard-editor/components/dashboard"
)

// Service exposes the underlying components/dashboard.Service type.
type Service = core.Service

// Options re-export for convenience.
type Options = core.Options

// Layout is a dashboard page's widget placements.
type Layout = core.DashboardLayout

// Widget is one placed widget.
type Widget = core.WidgetInstance

// Storage persists layouts.
type Storage = core.LayoutStorage

// NewService proxies to the internal constructor.
func NewService(opts Options) *Service {
	return core.NewService(opts)
}

// NewInMemoryService builds a service over in-memory storage, useful for demos and tests.
func NewInMemoryService() *Service {
	return core.NewService(Options{Storage: core.NewMemoryStorage()})
}

// DashboardTypes lists the built-in dashboard pages.
func DashboardTypes() []string {
	return core.DefaultDashboardTypes()
}
