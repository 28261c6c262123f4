package commands

import (
	"context"

	gocommand "github.com/goliatone/go-command"
	dashboard "github.com/goliatone/go-dashboard-editor/components/dashboard"
)

// HistoryInput targets the session whose history is stepped.
type HistoryInput struct {
	SessionID string `json:"sessionId"`
}

// UndoCommand steps the session's layout one snapshot back. An empty past is a no-op.
type UndoCommand struct {
	service   sessionEditor
	telemetry Telemetry
}

// NewUndoCommand creates the command.
func NewUndoCommand(service sessionEditor, telemetry Telemetry) *UndoCommand {
	return &UndoCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[HistoryInput] = (*UndoCommand)(nil)

// Execute undoes the last mutation.
func (c *UndoCommand) Execute(ctx context.Context, msg HistoryInput) error {
	return edit(c.service, msg.SessionID, func(sess *dashboard.Session) error {
		sess.Drag.Cancel()
		applied := sess.Store.Undo(ctx)
		record(ctx, c.telemetry, "dashboard.command.undo", msg.SessionID, map[string]any{"applied": applied})
		return nil
	})
}

// RedoCommand re-applies the most recently undone snapshot. An empty future is a no-op.
type RedoCommand struct {
	service   sessionEditor
	telemetry Telemetry
}

// NewRedoCommand creates the command.
func NewRedoCommand(service sessionEditor, telemetry Telemetry) *RedoCommand {
	return &RedoCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[HistoryInput] = (*RedoCommand)(nil)

// Execute redoes the last undone mutation.
func (c *RedoCommand) Execute(ctx context.Context, msg HistoryInput) error {
	return edit(c.service, msg.SessionID, func(sess *dashboard.Session) error {
		sess.Drag.Cancel()
		applied := sess.Store.Redo(ctx)
		record(ctx, c.telemetry, "dashboard.command.redo", msg.SessionID, map[string]any{"applied": applied})
		return nil
	})
}

// ResetCommand replaces the layout with the dashboard type's default. The reset is
// undoable and is not persisted until the next save.
type ResetCommand struct {
	service   sessionEditor
	telemetry Telemetry
}

// NewResetCommand creates the command.
func NewResetCommand(service sessionEditor, telemetry Telemetry) *ResetCommand {
	return &ResetCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[HistoryInput] = (*ResetCommand)(nil)

// Execute resets the layout.
func (c *ResetCommand) Execute(ctx context.Context, msg HistoryInput) error {
	return edit(c.service, msg.SessionID, func(sess *dashboard.Session) error {
		sess.Drag.Cancel()
		sess.Store.Reset(ctx)
		record(ctx, c.telemetry, "dashboard.command.reset", msg.SessionID, nil)
		return nil
	})
}
