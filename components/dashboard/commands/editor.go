package commands

import (
	"context"
	"errors"

	dashboard "github.com/goliatone/go-dashboard-editor/components/dashboard"
)

var (
	errMissingService   = errors.New("commands: service is required")
	errMissingSessionID = errors.New("commands: session id is required")
)

// sessionEditor runs a mutation against a session that is in edit mode.
type sessionEditor interface {
	Edit(sessionID string, fn func(*dashboard.Session) error) error
}

func edit(editor sessionEditor, sessionID string, fn func(*dashboard.Session) error) error {
	if editor == nil {
		return errMissingService
	}
	if sessionID == "" {
		return errMissingSessionID
	}
	return editor.Edit(sessionID, fn)
}

func record(ctx context.Context, t Telemetry, event, sessionID string, payload map[string]any) {
	if payload == nil {
		payload = map[string]any{}
	}
	payload["session_id"] = sessionID
	t.Record(ctx, event, payload)
}
