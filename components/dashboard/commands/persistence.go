package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
	dashboard "github.com/goliatone/go-dashboard-editor/components/dashboard"
)

// authorizer gates storage-wide commands. Inputs without a viewer come from
// trusted callers such as the CLI and skip the check.
type authorizer interface {
	Authorize(ctx context.Context, viewer dashboard.ViewerContext, dashboardTypes ...string) error
}

func authorize(ctx context.Context, svc authorizer, viewer *dashboard.ViewerContext, dashboardTypes ...string) error {
	if viewer == nil {
		return nil
	}
	return svc.Authorize(ctx, *viewer, dashboardTypes...)
}

// SaveLayoutInput persists the session's current layout.
type SaveLayoutInput struct {
	SessionID string `json:"sessionId"`
}

// SaveLayoutCommand wraps Store.Save. Failures surface as *dashboard.PersistenceWriteError
// and leave the in-memory layout and its history untouched.
type SaveLayoutCommand struct {
	service   sessionEditor
	telemetry Telemetry
}

// NewSaveLayoutCommand creates the command.
func NewSaveLayoutCommand(service sessionEditor, telemetry Telemetry) *SaveLayoutCommand {
	return &SaveLayoutCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[SaveLayoutInput] = (*SaveLayoutCommand)(nil)

// Execute saves the layout.
func (c *SaveLayoutCommand) Execute(ctx context.Context, msg SaveLayoutInput) error {
	return edit(c.service, msg.SessionID, func(sess *dashboard.Session) error {
		if err := sess.Store.Save(ctx); err != nil {
			return err
		}
		record(ctx, c.telemetry, "dashboard.command.save", msg.SessionID, map[string]any{
			"dashboard_type": sess.Store.DashboardType(),
		})
		return nil
	})
}

// LoadLayoutInput switches the session to another dashboard type, as when the user
// navigates between dashboard pages.
type LoadLayoutInput struct {
	SessionID     string `json:"sessionId"`
	DashboardType string `json:"dashboardType"`
}

type sessionGetter interface {
	Session(id string) (*dashboard.Session, error)
}

// LoadLayoutCommand wraps Store.Load. Loading is allowed outside edit mode.
type LoadLayoutCommand struct {
	service   sessionGetter
	telemetry Telemetry
}

// NewLoadLayoutCommand creates the command.
func NewLoadLayoutCommand(service sessionGetter, telemetry Telemetry) *LoadLayoutCommand {
	return &LoadLayoutCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[LoadLayoutInput] = (*LoadLayoutCommand)(nil)

// Execute loads the layout, falling back to the default when nothing usable is stored.
func (c *LoadLayoutCommand) Execute(ctx context.Context, msg LoadLayoutInput) error {
	if c.service == nil {
		return errMissingService
	}
	if msg.SessionID == "" {
		return errMissingSessionID
	}
	sess, err := c.service.Session(msg.SessionID)
	if err != nil {
		return err
	}
	if sess.Store.DashboardType() != msg.DashboardType {
		// edit rights are per dashboard type; the viewer re-enters edit mode
		sess.SetEditMode(false)
	}
	sess.Drag.Cancel()
	if err := sess.Store.Load(ctx, msg.DashboardType); err != nil {
		return err
	}
	record(ctx, c.telemetry, "dashboard.command.load", msg.SessionID, map[string]any{
		"dashboard_type": msg.DashboardType,
	})
	return nil
}

// SeedLayoutsInput seeds storage with default layouts. Seeded receives the types
// that were written when set.
type SeedLayoutsInput struct {
	DashboardTypes []string                 `json:"dashboardTypes,omitempty"`
	Viewer         *dashboard.ViewerContext `json:"-"`
	Seeded         *[]string                `json:"-"`
}

type layoutSeeder interface {
	authorizer
	SeedLayouts(ctx context.Context, dashboardTypes ...string) ([]string, error)
}

// SeedLayoutsCommand writes defaults for dashboard types with nothing stored.
type SeedLayoutsCommand struct {
	service   layoutSeeder
	telemetry Telemetry
}

// NewSeedLayoutsCommand creates the command.
func NewSeedLayoutsCommand(service layoutSeeder, telemetry Telemetry) *SeedLayoutsCommand {
	return &SeedLayoutsCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[SeedLayoutsInput] = (*SeedLayoutsCommand)(nil)

// Execute seeds the layouts.
func (c *SeedLayoutsCommand) Execute(ctx context.Context, msg SeedLayoutsInput) error {
	if c.service == nil {
		return errMissingService
	}
	types := msg.DashboardTypes
	if len(types) == 0 {
		types = dashboard.DefaultDashboardTypes()
	}
	if err := authorize(ctx, c.service, msg.Viewer, types...); err != nil {
		return err
	}
	seeded, err := c.service.SeedLayouts(ctx, msg.DashboardTypes...)
	if msg.Seeded != nil {
		*msg.Seeded = seeded
	}
	c.telemetry.Record(ctx, "dashboard.command.seed", map[string]any{"seeded": seeded})
	return err
}

// ImportLayoutInput replaces the stored layout for a dashboard type.
type ImportLayoutInput struct {
	Layout dashboard.DashboardLayout `json:"layout"`
	Viewer *dashboard.ViewerContext  `json:"-"`
}

type layoutImporter interface {
	authorizer
	ImportLayout(ctx context.Context, layout dashboard.DashboardLayout) error
}

// ImportLayoutCommand wraps Service.ImportLayout.
type ImportLayoutCommand struct {
	service   layoutImporter
	telemetry Telemetry
}

// NewImportLayoutCommand creates the command.
func NewImportLayoutCommand(service layoutImporter, telemetry Telemetry) *ImportLayoutCommand {
	return &ImportLayoutCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[ImportLayoutInput] = (*ImportLayoutCommand)(nil)

// Execute validates and stores the layout.
func (c *ImportLayoutCommand) Execute(ctx context.Context, msg ImportLayoutInput) error {
	if c.service == nil {
		return errMissingService
	}
	if err := authorize(ctx, c.service, msg.Viewer, msg.Layout.DashboardType); err != nil {
		return err
	}
	if err := c.service.ImportLayout(ctx, msg.Layout); err != nil {
		return err
	}
	c.telemetry.Record(ctx, "dashboard.command.import", map[string]any{
		"dashboard_type": msg.Layout.DashboardType,
		"widgets":        len(msg.Layout.Widgets),
	})
	return nil
}

// DeleteLayoutInput drops the stored layout for a dashboard type.
type DeleteLayoutInput struct {
	DashboardType string                   `json:"dashboardType"`
	Viewer        *dashboard.ViewerContext `json:"-"`
}

type layoutDeleter interface {
	authorizer
	DeleteStoredLayout(ctx context.Context, dashboardType string) error
}

// DeleteLayoutCommand wraps Service.DeleteStoredLayout.
type DeleteLayoutCommand struct {
	service   layoutDeleter
	telemetry Telemetry
}

// NewDeleteLayoutCommand creates the command.
func NewDeleteLayoutCommand(service layoutDeleter, telemetry Telemetry) *DeleteLayoutCommand {
	return &DeleteLayoutCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[DeleteLayoutInput] = (*DeleteLayoutCommand)(nil)

// Execute deletes the stored layout.
func (c *DeleteLayoutCommand) Execute(ctx context.Context, msg DeleteLayoutInput) error {
	if c.service == nil {
		return errMissingService
	}
	if msg.DashboardType == "" {
		return errors.New("delete layout command requires dashboard type")
	}
	if err := authorize(ctx, c.service, msg.Viewer, msg.DashboardType); err != nil {
		return err
	}
	if err := c.service.DeleteStoredLayout(ctx, msg.DashboardType); err != nil {
		return err
	}
	c.telemetry.Record(ctx, "dashboard.command.delete", map[string]any{"dashboard_type": msg.DashboardType})
	return nil
}
