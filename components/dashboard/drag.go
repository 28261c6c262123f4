package dashboard

import (
	"context"
	"fmt"
	"math"
	"sync"
)

// DragState is the state of a pointer gesture.
type DragState int

const (
	// DragIdle means no gesture is active.
	DragIdle DragState = iota
	// DragPending means the pointer is down but has not moved past the activation distance.
	DragPending
	// DragDragging means the gesture is active and hovering the origin cell.
	DragDragging
	// DragDroppingOver means the gesture is active and hovering a different target cell.
	DragDroppingOver
)

func (s DragState) String() string {
	switch s {
	case DragIdle:
		return "idle"
	case DragPending:
		return "pending"
	case DragDragging:
		return "dragging"
	case DragDroppingOver:
		return "dropping_over"
	default:
		return fmt.Sprintf("drag_state(%d)", int(s))
	}
}

// MarshalText renders the state name for JSON payloads.
func (s DragState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses a state name produced by MarshalText.
func (s *DragState) UnmarshalText(text []byte) error {
	for _, candidate := range []DragState{DragIdle, DragPending, DragDragging, DragDroppingOver} {
		if candidate.String() == string(text) {
			*s = candidate
			return nil
		}
	}
	return fmt.Errorf("dashboard: unknown drag state %q", text)
}

// DragMode selects whether a gesture moves or resizes a widget.
type DragMode string

const (
	DragMove   DragMode = "move"
	DragResize DragMode = "resize"
)

// DefaultActivationDistance is the pointer travel in pixels before a press becomes a drag.
const DefaultActivationDistance = 5.0

// DragOptions configures a DragController.
type DragOptions struct {
	ActivationDistance float64
	Grid               *Grid
	Telemetry          Telemetry
}

// DragFeedback is the visual-only state reported while the pointer moves.
type DragFeedback struct {
	State     DragState `json:"state"`
	WidgetID  string    `json:"widgetId,omitempty"`
	Mode      DragMode  `json:"mode,omitempty"`
	Origin    GridArea  `json:"origin"`
	Candidate GridArea  `json:"candidate"`
	Valid     bool      `json:"valid"`
	Conflict  string    `json:"conflict,omitempty"`
}

// DropResult describes how a gesture ended.
type DropResult struct {
	WidgetID  string   `json:"widgetId,omitempty"`
	From      GridArea `json:"from"`
	To        GridArea `json:"to"`
	Committed bool     `json:"committed"`
}

// DragController turns pointer gestures into at most one store mutation per gesture.
// Intermediate moves only update feedback; the store changes on a valid PointerUp.
type DragController struct {
	mu        sync.Mutex
	store     *Store
	grid      Grid
	activate  float64
	telemetry Telemetry

	state     DragState
	widgetID  string
	mode      DragMode
	origin    GridArea
	start     Point
	candidate GridArea
	conflict  string
	valid     bool
}

// NewDragController binds a controller to store. The store's grid is used unless
// opts.Grid overrides it.
func NewDragController(store *Store, opts DragOptions) *DragController {
	grid := store.Grid()
	if opts.Grid != nil {
		grid = opts.Grid.normalized()
	}
	activate := opts.ActivationDistance
	if activate < 0 {
		activate = 0
	} else if activate == 0 {
		activate = DefaultActivationDistance
	}
	return &DragController{
		store:     store,
		grid:      grid,
		activate:  activate,
		telemetry: normalizeTelemetry(opts.Telemetry),
	}
}

// State returns the current gesture state.
func (d *DragController) State() DragState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Feedback returns the latest feedback without moving the pointer.
func (d *DragController) Feedback() DragFeedback {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.feedback()
}

// PointerDown starts a gesture on widgetID at p.
func (d *DragController) PointerDown(widgetID string, mode DragMode, p Point) (DragFeedback, error) {
	if mode == "" {
		mode = DragMove
	}
	if mode != DragMove && mode != DragResize {
		return DragFeedback{}, fmt.Errorf("dashboard: unknown drag mode %q", mode)
	}
	w, ok := d.store.Widget(widgetID)
	if !ok {
		return DragFeedback{}, fmt.Errorf("%w: %s", ErrWidgetNotFound, widgetID)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state != DragIdle {
		return d.feedback(), ErrDragInProgress
	}
	d.state = DragPending
	d.widgetID = widgetID
	d.mode = mode
	d.origin = w.GridArea
	d.start = p
	d.candidate = w.GridArea
	d.conflict = ""
	d.valid = true
	return d.feedback(), nil
}

// PointerMove updates the candidate area. It never mutates the store.
func (d *DragController) PointerMove(p Point) DragFeedback {
	d.mu.Lock()
	defer d.mu.Unlock()
	switch d.state {
	case DragIdle:
		return d.feedback()
	case DragPending:
		if math.Hypot(p.X-d.start.X, p.Y-d.start.Y) < d.activate {
			return d.feedback()
		}
		d.state = DragDragging
	}
	d.track(p)
	return d.feedback()
}

// PointerUp ends the gesture. A press that never activated, or a drop back onto the
// origin, ends without a mutation. A drop outside the grid or over another visible
// widget returns *InvalidDropTargetError and leaves the layout untouched.
func (d *DragController) PointerUp(ctx context.Context, p Point) (DropResult, error) {
	d.mu.Lock()
	state := d.state
	if state == DragIdle {
		d.mu.Unlock()
		return DropResult{}, nil
	}
	if state == DragPending && math.Hypot(p.X-d.start.X, p.Y-d.start.Y) >= d.activate {
		state = DragDragging
	}
	if state == DragPending {
		result := DropResult{WidgetID: d.widgetID, From: d.origin, To: d.origin}
		d.reset()
		d.mu.Unlock()
		return result, nil
	}
	d.track(p)
	widgetID, from, to := d.widgetID, d.origin, d.candidate
	valid, conflict := d.valid, d.conflict
	d.reset()
	d.mu.Unlock()

	result := DropResult{WidgetID: widgetID, From: from, To: from}
	if to == from {
		return result, nil
	}
	if !valid {
		d.telemetry.Record(ctx, "dashboard.drag.rejected", map[string]any{
			"widget_id": widgetID,
			"conflict":  conflict,
		})
		return result, &InvalidDropTargetError{WidgetID: widgetID, Target: to, Conflict: conflict}
	}
	found, err := d.store.UpdateWidget(ctx, widgetID, WidgetChanges{GridArea: &to})
	if err != nil {
		return result, err
	}
	if !found {
		return result, fmt.Errorf("%w: %s", ErrWidgetNotFound, widgetID)
	}
	result.To = to
	result.Committed = true
	d.telemetry.Record(ctx, "dashboard.drag.commit", map[string]any{
		"widget_id": widgetID,
		"x":         to.X,
		"y":         to.Y,
		"w":         to.W,
		"h":         to.H,
	})
	return result, nil
}

// Cancel abandons the gesture (Escape key). The store is never touched.
func (d *DragController) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.reset()
}

// Blur handles focus loss mid-gesture the same way as Cancel.
func (d *DragController) Blur() { d.Cancel() }

func (d *DragController) track(p Point) {
	cx, cy := d.grid.SnapDelta(p.X-d.start.X, p.Y-d.start.Y)
	next := d.origin
	switch d.mode {
	case DragResize:
		next.W += cx
		next.H += cy
	default:
		next.X += cx
		next.Y += cy
	}
	d.candidate = next
	d.conflict = ""
	d.valid = d.grid.Contains(next)
	if d.valid {
		if id, hit := Collision(d.store.Snapshot().Widgets, d.widgetID, next); hit {
			d.valid = false
			d.conflict = id
		}
	}
	if next == d.origin {
		d.state = DragDragging
	} else {
		d.state = DragDroppingOver
	}
}

func (d *DragController) reset() {
	d.state = DragIdle
	d.widgetID = ""
	d.mode = ""
	d.origin = GridArea{}
	d.start = Point{}
	d.candidate = GridArea{}
	d.conflict = ""
	d.valid = false
}

func (d *DragController) feedback() DragFeedback {
	return DragFeedback{
		State:     d.state,
		WidgetID:  d.widgetID,
		Mode:      d.mode,
		Origin:    d.origin,
		Candidate: d.candidate,
		Valid:     d.valid,
		Conflict:  d.conflict,
	}
}
