package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/goliatone/go-dashboard-editor/components/dashboard"
)

// ErrorBody is the JSON payload written for failed requests.
type ErrorBody struct {
	Error    string              `json:"error"`
	Code     string              `json:"code"`
	Conflict string              `json:"conflict,omitempty"`
	Target   *dashboard.GridArea `json:"target,omitempty"`
}

type badRequestError struct{ err error }

func (e badRequestError) Error() string { return e.err.Error() }
func (e badRequestError) Unwrap() error { return e.err }

// Classify maps a dashboard error onto an HTTP status and a stable error code.
func Classify(err error) (int, string) {
	var (
		badRequest  badRequestError
		unknownType *dashboard.UnknownWidgetTypeError
		invalidDrop *dashboard.InvalidDropTargetError
		readErr     *dashboard.PersistenceReadError
		writeErr    *dashboard.PersistenceWriteError
		schemaErr   *jsonschema.ValidationError
	)
	switch {
	case errors.As(err, &badRequest):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, dashboard.ErrSessionNotFound):
		return http.StatusNotFound, "session_not_found"
	case errors.Is(err, dashboard.ErrWidgetNotFound):
		return http.StatusNotFound, "widget_not_found"
	case errors.Is(err, dashboard.ErrNotFound):
		return http.StatusNotFound, "layout_not_found"
	case errors.Is(err, dashboard.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, dashboard.ErrReadOnly):
		return http.StatusConflict, "read_only"
	case errors.Is(err, dashboard.ErrDragInProgress):
		return http.StatusConflict, "drag_in_progress"
	case errors.Is(err, dashboard.ErrStoreClosed):
		return http.StatusGone, "session_closed"
	case errors.As(err, &unknownType):
		return http.StatusUnprocessableEntity, "unknown_widget_type"
	case errors.As(err, &invalidDrop):
		return http.StatusUnprocessableEntity, "invalid_drop_target"
	case errors.Is(err, dashboard.ErrInvalidGridArea), errors.Is(err, dashboard.ErrDuplicateWidgetID):
		return http.StatusUnprocessableEntity, "invalid_layout"
	case errors.As(err, &schemaErr):
		return http.StatusUnprocessableEntity, "invalid_props"
	case errors.As(err, &writeErr), errors.As(err, &readErr):
		return http.StatusBadGateway, "persistence_failure"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

// NewErrorBody classifies err and builds the payload written for it.
func NewErrorBody(err error) (int, ErrorBody) {
	status, code := Classify(err)
	body := ErrorBody{Error: err.Error(), Code: code}
	var invalidDrop *dashboard.InvalidDropTargetError
	if errors.As(err, &invalidDrop) {
		target := invalidDrop.Target
		body.Conflict = invalidDrop.Conflict
		body.Target = &target
	}
	return status, body
}

// BadRequest marks err as a malformed request.
func BadRequest(err error) error { return badRequestError{err: err} }

func writeError(w http.ResponseWriter, err error) {
	status, body := NewErrorBody(err)
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
