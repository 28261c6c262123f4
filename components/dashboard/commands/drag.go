package commands

import (
	"context"

	gocommand "github.com/goliatone/go-command"
	dashboard "github.com/goliatone/go-dashboard-editor/components/dashboard"
)

// PointerDownInput presses the pointer on a widget's drag handle or resize corner.
// Feedback receives the resulting state when set.
type PointerDownInput struct {
	SessionID string                  `json:"sessionId"`
	WidgetID  string                  `json:"widgetId"`
	Mode      dashboard.DragMode      `json:"mode,omitempty"`
	Point     dashboard.Point         `json:"point"`
	Feedback  *dashboard.DragFeedback `json:"-"`
}

// PointerDownCommand starts a gesture.
type PointerDownCommand struct {
	service sessionEditor
}

// NewPointerDownCommand creates the command.
func NewPointerDownCommand(service sessionEditor) *PointerDownCommand {
	return &PointerDownCommand{service: service}
}

var _ gocommand.Commander[PointerDownInput] = (*PointerDownCommand)(nil)

// Execute starts the gesture.
func (c *PointerDownCommand) Execute(_ context.Context, msg PointerDownInput) error {
	return edit(c.service, msg.SessionID, func(sess *dashboard.Session) error {
		fb, err := sess.Drag.PointerDown(msg.WidgetID, msg.Mode, msg.Point)
		if msg.Feedback != nil {
			*msg.Feedback = fb
		}
		return err
	})
}

// PointerMoveInput moves the pointer during a gesture.
type PointerMoveInput struct {
	SessionID string                  `json:"sessionId"`
	Point     dashboard.Point         `json:"point"`
	Feedback  *dashboard.DragFeedback `json:"-"`
}

// PointerMoveCommand updates drag feedback. It never mutates the layout.
type PointerMoveCommand struct {
	service sessionEditor
}

// NewPointerMoveCommand creates the command.
func NewPointerMoveCommand(service sessionEditor) *PointerMoveCommand {
	return &PointerMoveCommand{service: service}
}

var _ gocommand.Commander[PointerMoveInput] = (*PointerMoveCommand)(nil)

// Execute moves the pointer.
func (c *PointerMoveCommand) Execute(_ context.Context, msg PointerMoveInput) error {
	return edit(c.service, msg.SessionID, func(sess *dashboard.Session) error {
		fb := sess.Drag.PointerMove(msg.Point)
		if msg.Feedback != nil {
			*msg.Feedback = fb
		}
		return nil
	})
}

// PointerUpInput releases the pointer. Result receives the drop outcome when set.
type PointerUpInput struct {
	SessionID string                `json:"sessionId"`
	Point     dashboard.Point       `json:"point"`
	Result    *dashboard.DropResult `json:"-"`
}

// PointerUpCommand ends a gesture, committing at most one layout mutation.
type PointerUpCommand struct {
	service   sessionEditor
	telemetry Telemetry
}

// NewPointerUpCommand creates the command.
func NewPointerUpCommand(service sessionEditor, telemetry Telemetry) *PointerUpCommand {
	return &PointerUpCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[PointerUpInput] = (*PointerUpCommand)(nil)

// Execute drops the widget. Invalid targets return *dashboard.InvalidDropTargetError.
func (c *PointerUpCommand) Execute(ctx context.Context, msg PointerUpInput) error {
	return edit(c.service, msg.SessionID, func(sess *dashboard.Session) error {
		result, err := sess.Drag.PointerUp(ctx, msg.Point)
		if msg.Result != nil {
			*msg.Result = result
		}
		if err != nil {
			return err
		}
		if result.Committed {
			record(ctx, c.telemetry, "dashboard.command.drop", msg.SessionID, map[string]any{
				"widget_id": result.WidgetID,
			})
		}
		return nil
	})
}

// CancelDragInput abandons the gesture, as on Escape or focus loss.
type CancelDragInput struct {
	SessionID string `json:"sessionId"`
}

// CancelDragCommand cancels the gesture. It is allowed outside edit mode so a
// toggle-off racing a drag always settles to idle.
type CancelDragCommand struct {
	service sessionGetter
}

// NewCancelDragCommand creates the command.
func NewCancelDragCommand(service sessionGetter) *CancelDragCommand {
	return &CancelDragCommand{service: service}
}

var _ gocommand.Commander[CancelDragInput] = (*CancelDragCommand)(nil)

// Execute cancels the gesture.
func (c *CancelDragCommand) Execute(_ context.Context, msg CancelDragInput) error {
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
	sess.Drag.Cancel()
	return nil
}
