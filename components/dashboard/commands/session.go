package commands

import (
	"context"

	gocommand "github.com/goliatone/go-command"
	dashboard "github.com/goliatone/go-dashboard-editor/components/dashboard"
)

// OpenSessionInput mounts a dashboard page. SessionID receives the new id when set.
type OpenSessionInput struct {
	Viewer        dashboard.ViewerContext `json:"viewer"`
	DashboardType string                  `json:"dashboardType"`
	SessionID     *string                 `json:"-"`
}

type sessionOpener interface {
	OpenSession(ctx context.Context, viewer dashboard.ViewerContext, dashboardType string) (*dashboard.Session, error)
}

// OpenSessionCommand wraps Service.OpenSession.
type OpenSessionCommand struct {
	service   sessionOpener
	telemetry Telemetry
}

// NewOpenSessionCommand creates the command.
func NewOpenSessionCommand(service sessionOpener, telemetry Telemetry) *OpenSessionCommand {
	return &OpenSessionCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[OpenSessionInput] = (*OpenSessionCommand)(nil)

// Execute opens the session and loads its layout.
func (c *OpenSessionCommand) Execute(ctx context.Context, msg OpenSessionInput) error {
	if c.service == nil {
		return errMissingService
	}
	sess, err := c.service.OpenSession(ctx, msg.Viewer, msg.DashboardType)
	if err != nil {
		return err
	}
	if msg.SessionID != nil {
		*msg.SessionID = sess.ID
	}
	record(ctx, c.telemetry, "dashboard.command.open_session", sess.ID, map[string]any{
		"dashboard_type": msg.DashboardType,
	})
	return nil
}

// CloseSessionInput unmounts a dashboard page.
type CloseSessionInput struct {
	SessionID string `json:"sessionId"`
}

type sessionCloser interface {
	CloseSession(ctx context.Context, id string) error
}

// CloseSessionCommand wraps Service.CloseSession.
type CloseSessionCommand struct {
	service   sessionCloser
	telemetry Telemetry
}

// NewCloseSessionCommand creates the command.
func NewCloseSessionCommand(service sessionCloser, telemetry Telemetry) *CloseSessionCommand {
	return &CloseSessionCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[CloseSessionInput] = (*CloseSessionCommand)(nil)

// Execute closes the session, dropping any in-flight drag.
func (c *CloseSessionCommand) Execute(ctx context.Context, msg CloseSessionInput) error {
	if c.service == nil {
		return errMissingService
	}
	if msg.SessionID == "" {
		return errMissingSessionID
	}
	if err := c.service.CloseSession(ctx, msg.SessionID); err != nil {
		return err
	}
	record(ctx, c.telemetry, "dashboard.command.close_session", msg.SessionID, nil)
	return nil
}

// SetEditModeInput toggles the toolbar's edit switch.
type SetEditModeInput struct {
	SessionID string                  `json:"sessionId"`
	Viewer    dashboard.ViewerContext `json:"viewer"`
	Enabled   bool                    `json:"enabled"`
}

type editModeSetter interface {
	SetEditMode(ctx context.Context, viewer dashboard.ViewerContext, sessionID string, on bool) (*dashboard.Session, error)
}

// SetEditModeCommand wraps Service.SetEditMode.
type SetEditModeCommand struct {
	service   editModeSetter
	telemetry Telemetry
}

// NewSetEditModeCommand creates the command.
func NewSetEditModeCommand(service editModeSetter, telemetry Telemetry) *SetEditModeCommand {
	return &SetEditModeCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[SetEditModeInput] = (*SetEditModeCommand)(nil)

// Execute switches edit mode on or off.
func (c *SetEditModeCommand) Execute(ctx context.Context, msg SetEditModeInput) error {
	if c.service == nil {
		return errMissingService
	}
	if msg.SessionID == "" {
		return errMissingSessionID
	}
	if _, err := c.service.SetEditMode(ctx, msg.Viewer, msg.SessionID, msg.Enabled); err != nil {
		return err
	}
	record(ctx, c.telemetry, "dashboard.command.edit_mode", msg.SessionID, map[string]any{"enabled": msg.Enabled})
	return nil
}
