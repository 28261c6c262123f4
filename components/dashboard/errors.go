package dashboard

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned by LayoutStorage implementations when no layout is stored.
	ErrNotFound = errors.New("dashboard: layout not found")
	// ErrReadOnly is returned when a mutation is attempted outside edit mode.
	ErrReadOnly = errors.New("dashboard: layout is read-only outside edit mode")
	// ErrSessionNotFound is returned when a session id is unknown or expired.
	ErrSessionNotFound = errors.New("dashboard: session not found")
	// ErrInvalidGridArea is returned for negative coordinates or empty spans.
	ErrInvalidGridArea = errors.New("dashboard: grid area must be non-negative with positive span")
	// ErrDuplicateWidgetID is returned when a layout repeats a widget id.
	ErrDuplicateWidgetID = errors.New("dashboard: duplicate widget id")
	// ErrStoreClosed is returned by a store after Close.
	ErrStoreClosed = errors.New("dashboard: store closed")
	// ErrWidgetNotFound is returned when a gesture or command names an absent widget.
	ErrWidgetNotFound = errors.New("dashboard: widget not found")
	// ErrForbidden is returned when the viewer may not edit a dashboard type.
	ErrForbidden = errors.New("dashboard: viewer may not edit this dashboard")
	// ErrDragInProgress is returned by PointerDown while another gesture is active.
	ErrDragInProgress = errors.New("dashboard: drag already in progress")

	errMissingStorage       = errors.New("dashboard: layout storage not configured")
	errMissingDashboardType = errors.New("dashboard: dashboard type is required")
)

// UnknownWidgetTypeError reports an addWidget call for an unregistered type.
type UnknownWidgetTypeError struct {
	WidgetType string
}

func (e *UnknownWidgetTypeError) Error() string {
	return fmt.Sprintf("dashboard: unknown widget type %q", e.WidgetType)
}

// PersistenceReadError reports a layout that could not be read or decoded.
type PersistenceReadError struct {
	DashboardType string
	Err           error
}

func (e *PersistenceReadError) Error() string {
	return fmt.Sprintf("dashboard: read layout %s: %v", e.DashboardType, e.Err)
}

func (e *PersistenceReadError) Unwrap() error { return e.Err }

// PersistenceWriteError reports a save that did not reach storage. In-memory edits are kept.
type PersistenceWriteError struct {
	DashboardType string
	Err           error
}

func (e *PersistenceWriteError) Error() string {
	return fmt.Sprintf("dashboard: write layout %s: %v", e.DashboardType, e.Err)
}

func (e *PersistenceWriteError) Unwrap() error { return e.Err }

// InvalidDropTargetError reports a drag that ended outside the grid or over another widget.
type InvalidDropTargetError struct {
	WidgetID string
	Target   GridArea
	Conflict string
}

func (e *InvalidDropTargetError) Error() string {
	if e.Conflict != "" {
		return fmt.Sprintf("dashboard: drop of %s at (%d,%d) overlaps %s", e.WidgetID, e.Target.X, e.Target.Y, e.Conflict)
	}
	return fmt.Sprintf("dashboard: drop of %s at (%d,%d) is outside the grid", e.WidgetID, e.Target.X, e.Target.Y)
}
