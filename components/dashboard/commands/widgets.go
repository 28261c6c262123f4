package commands

import (
	"context"

	gocommand "github.com/goliatone/go-command"
	dashboard "github.com/goliatone/go-dashboard-editor/components/dashboard"
)

// AddWidgetInput adds a widget from the registry. Created receives the new instance when set.
type AddWidgetInput struct {
	SessionID  string                    `json:"sessionId"`
	WidgetType string                    `json:"widgetType"`
	Props      dashboard.Props           `json:"props,omitempty"`
	GridArea   *dashboard.GridArea       `json:"gridArea,omitempty"`
	Hidden     bool                      `json:"hidden,omitempty"`
	Created    *dashboard.WidgetInstance `json:"-"`
}

// AddWidgetCommand wraps Store.AddWidgetWith.
type AddWidgetCommand struct {
	service   sessionEditor
	telemetry Telemetry
}

// NewAddWidgetCommand creates the command.
func NewAddWidgetCommand(service sessionEditor, telemetry Telemetry) *AddWidgetCommand {
	return &AddWidgetCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[AddWidgetInput] = (*AddWidgetCommand)(nil)

// Execute adds the widget. Unknown widget types return *dashboard.UnknownWidgetTypeError
// after the session's notifier has been told.
func (c *AddWidgetCommand) Execute(ctx context.Context, msg AddWidgetInput) error {
	return edit(c.service, msg.SessionID, func(sess *dashboard.Session) error {
		inst, err := sess.Store.AddWidgetWith(ctx, dashboard.AddWidgetRequest{
			WidgetType: msg.WidgetType,
			Props:      msg.Props,
			GridArea:   msg.GridArea,
			Hidden:     msg.Hidden,
		})
		if err != nil {
			return err
		}
		if msg.Created != nil {
			*msg.Created = inst
		}
		record(ctx, c.telemetry, "dashboard.command.add_widget", msg.SessionID, map[string]any{
			"widget_type": msg.WidgetType,
			"widget_id":   inst.ID,
		})
		return nil
	})
}

// RemoveWidgetInput removes a widget. Absent ids are a no-op.
type RemoveWidgetInput struct {
	SessionID string `json:"sessionId"`
	WidgetID  string `json:"widgetId"`
}

// RemoveWidgetCommand wraps Store.RemoveWidget.
type RemoveWidgetCommand struct {
	service   sessionEditor
	telemetry Telemetry
}

// NewRemoveWidgetCommand creates the command.
func NewRemoveWidgetCommand(service sessionEditor, telemetry Telemetry) *RemoveWidgetCommand {
	return &RemoveWidgetCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[RemoveWidgetInput] = (*RemoveWidgetCommand)(nil)

// Execute removes the widget.
func (c *RemoveWidgetCommand) Execute(ctx context.Context, msg RemoveWidgetInput) error {
	return edit(c.service, msg.SessionID, func(sess *dashboard.Session) error {
		removed := sess.Store.RemoveWidget(ctx, msg.WidgetID)
		record(ctx, c.telemetry, "dashboard.command.remove_widget", msg.SessionID, map[string]any{
			"widget_id": msg.WidgetID,
			"removed":   removed,
		})
		return nil
	})
}

// UpdateWidgetInput merges changes into a widget. Absent ids are a no-op.
type UpdateWidgetInput struct {
	SessionID string                  `json:"sessionId"`
	WidgetID  string                  `json:"widgetId"`
	Changes   dashboard.WidgetChanges `json:"changes"`
}

// UpdateWidgetCommand wraps Store.UpdateWidget.
type UpdateWidgetCommand struct {
	service   sessionEditor
	telemetry Telemetry
}

// NewUpdateWidgetCommand creates the command.
func NewUpdateWidgetCommand(service sessionEditor, telemetry Telemetry) *UpdateWidgetCommand {
	return &UpdateWidgetCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[UpdateWidgetInput] = (*UpdateWidgetCommand)(nil)

// Execute applies the partial update.
func (c *UpdateWidgetCommand) Execute(ctx context.Context, msg UpdateWidgetInput) error {
	return edit(c.service, msg.SessionID, func(sess *dashboard.Session) error {
		found, err := sess.Store.UpdateWidget(ctx, msg.WidgetID, msg.Changes)
		if err != nil {
			return err
		}
		record(ctx, c.telemetry, "dashboard.command.update_widget", msg.SessionID, map[string]any{
			"widget_id": msg.WidgetID,
			"found":     found,
		})
		return nil
	})
}

// UpdateLayoutInput replaces the widget collection in one history step.
type UpdateLayoutInput struct {
	SessionID string                     `json:"sessionId"`
	Widgets   []dashboard.WidgetInstance `json:"widgets"`
}

// UpdateLayoutCommand wraps Store.UpdateLayout.
type UpdateLayoutCommand struct {
	service   sessionEditor
	telemetry Telemetry
}

// NewUpdateLayoutCommand creates the command.
func NewUpdateLayoutCommand(service sessionEditor, telemetry Telemetry) *UpdateLayoutCommand {
	return &UpdateLayoutCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[UpdateLayoutInput] = (*UpdateLayoutCommand)(nil)

// Execute replaces the layout.
func (c *UpdateLayoutCommand) Execute(ctx context.Context, msg UpdateLayoutInput) error {
	return edit(c.service, msg.SessionID, func(sess *dashboard.Session) error {
		if err := sess.Store.UpdateLayout(ctx, msg.Widgets); err != nil {
			return err
		}
		record(ctx, c.telemetry, "dashboard.command.update_layout", msg.SessionID, map[string]any{
			"widgets": len(msg.Widgets),
		})
		return nil
	})
}
