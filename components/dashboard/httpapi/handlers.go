package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	gocommand "github.com/goliatone/go-command"

	"github.com/goliatone/go-dashboard-editor/components/dashboard"
	"github.com/goliatone/go-dashboard-editor/components/dashboard/commands"
	"github.com/goliatone/go-dashboard-editor/components/dashboard/queries"
)

// Handlers exposes HTTP endpoints backed by shared commands and queries.
type Handlers struct {
	Open         gocommand.Commander[commands.OpenSessionInput]
	Close        gocommand.Commander[commands.CloseSessionInput]
	EditMode     gocommand.Commander[commands.SetEditModeInput]
	Load         gocommand.Commander[commands.LoadLayoutInput]
	Add          gocommand.Commander[commands.AddWidgetInput]
	Remove       gocommand.Commander[commands.RemoveWidgetInput]
	Update       gocommand.Commander[commands.UpdateWidgetInput]
	UpdateLayout gocommand.Commander[commands.UpdateLayoutInput]
	Undo         gocommand.Commander[commands.HistoryInput]
	Redo         gocommand.Commander[commands.HistoryInput]
	Reset        gocommand.Commander[commands.HistoryInput]
	Save         gocommand.Commander[commands.SaveLayoutInput]
	PointerDown  gocommand.Commander[commands.PointerDownInput]
	PointerMove  gocommand.Commander[commands.PointerMoveInput]
	PointerUp    gocommand.Commander[commands.PointerUpInput]
	Cancel       gocommand.Commander[commands.CancelDragInput]
	Seed         gocommand.Commander[commands.SeedLayoutsInput]
	Import       gocommand.Commander[commands.ImportLayoutInput]
	Delete       gocommand.Commander[commands.DeleteLayoutInput]

	State   gocommand.Querier[queries.SessionStateInput, dashboard.SessionState]
	Catalog gocommand.Querier[queries.CatalogInput, []dashboard.CatalogEntry]
	Stored  gocommand.Querier[string, queries.StoredLayout]
	List    gocommand.Querier[struct{}, []string]
}

// NewHandlers wires every endpoint to the commands and queries of svc.
func NewHandlers(svc *dashboard.Service, telemetry commands.Telemetry) *Handlers {
	return &Handlers{
		Open:         commands.NewOpenSessionCommand(svc, telemetry),
		Close:        commands.NewCloseSessionCommand(svc, telemetry),
		EditMode:     commands.NewSetEditModeCommand(svc, telemetry),
		Load:         commands.NewLoadLayoutCommand(svc, telemetry),
		Add:          commands.NewAddWidgetCommand(svc, telemetry),
		Remove:       commands.NewRemoveWidgetCommand(svc, telemetry),
		Update:       commands.NewUpdateWidgetCommand(svc, telemetry),
		UpdateLayout: commands.NewUpdateLayoutCommand(svc, telemetry),
		Undo:         commands.NewUndoCommand(svc, telemetry),
		Redo:         commands.NewRedoCommand(svc, telemetry),
		Reset:        commands.NewResetCommand(svc, telemetry),
		Save:         commands.NewSaveLayoutCommand(svc, telemetry),
		PointerDown:  commands.NewPointerDownCommand(svc),
		PointerMove:  commands.NewPointerMoveCommand(svc),
		PointerUp:    commands.NewPointerUpCommand(svc, telemetry),
		Cancel:       commands.NewCancelDragCommand(svc),
		Seed:         commands.NewSeedLayoutsCommand(svc, telemetry),
		Import:       commands.NewImportLayoutCommand(svc, telemetry),
		Delete:       commands.NewDeleteLayoutCommand(svc, telemetry),
		State:        queries.NewSessionStateQuery(svc),
		Catalog:      queries.NewCatalogQuery(svc),
		Stored:       queries.NewStoredLayoutQuery(svc),
		List:         queries.NewListLayoutsQuery(svc),
	}
}

// MutationResponse is returned by every session endpoint. Only the field matching
// the operation is set besides State.
type MutationResponse struct {
	State    dashboard.SessionState    `json:"state"`
	Widget   *dashboard.WidgetInstance `json:"widget,omitempty"`
	Feedback *dashboard.DragFeedback   `json:"feedback,omitempty"`
	Drop     *dashboard.DropResult     `json:"drop,omitempty"`
}

// Viewer headers carry the identity resolved by an upstream auth proxy.
const (
	HeaderUserID = "X-User-ID"
	HeaderRoles  = "X-User-Roles"
)

// ViewerFromRequest reads the viewer from the identity headers and the locale
// preference from the locale query parameter or Accept-Language.
func ViewerFromRequest(r *http.Request) dashboard.ViewerContext {
	viewer := dashboard.ViewerContext{UserID: r.Header.Get(HeaderUserID)}
	for _, role := range strings.Split(r.Header.Get(HeaderRoles), ",") {
		if role = strings.TrimSpace(role); role != "" {
			viewer.Roles = append(viewer.Roles, role)
		}
	}
	viewer.Locales = dashboard.ParseLocales(r.URL.Query().Get("locale"))
	if len(viewer.Locales) == 0 {
		viewer.Locales = dashboard.ParseLocales(r.Header.Get("Accept-Language"))
	}
	viewer.Locale = viewer.Locales.Primary()
	return viewer
}

// decodeBody decodes an optional JSON body into v. An empty body leaves v untouched.
func decodeBody(r *http.Request, v any) error {
	if r.Body == nil {
		return nil
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return badRequestError{err: fmt.Errorf("decode body: %w", err)}
	}
	return nil
}

func (h *Handlers) respond(w http.ResponseWriter, r *http.Request, status int, sessionID string, resp MutationResponse) {
	state, err := h.State.Query(r.Context(), queries.SessionStateInput{SessionID: sessionID, DrainNotices: true})
	if err != nil {
		writeError(w, err)
		return
	}
	resp.State = state
	writeJSON(w, status, resp)
}

type openSessionBody struct {
	DashboardType string `json:"dashboardType"`
	EditMode      bool   `json:"editMode"`
}

// HandleOpenSession mounts a dashboard page and returns its initial state.
func (h *Handlers) HandleOpenSession(w http.ResponseWriter, r *http.Request) {
	var payload openSessionBody
	if err := decodeBody(r, &payload); err != nil {
		writeError(w, err)
		return
	}
	if payload.DashboardType == "" {
		writeError(w, badRequestError{err: errors.New("dashboardType is required")})
		return
	}
	viewer := ViewerFromRequest(r)
	var id string
	if err := h.Open.Execute(r.Context(), commands.OpenSessionInput{Viewer: viewer, DashboardType: payload.DashboardType, SessionID: &id}); err != nil {
		writeError(w, err)
		return
	}
	if payload.EditMode {
		if err := h.EditMode.Execute(r.Context(), commands.SetEditModeInput{SessionID: id, Viewer: viewer, Enabled: true}); err != nil {
			_ = h.Close.Execute(r.Context(), commands.CloseSessionInput{SessionID: id})
			writeError(w, err)
			return
		}
	}
	h.respond(w, r, http.StatusCreated, id, MutationResponse{})
}

// HandleGetSession returns the session state and drains its notices.
func (h *Handlers) HandleGetSession(w http.ResponseWriter, r *http.Request, sessionID string) {
	h.respond(w, r, http.StatusOK, sessionID, MutationResponse{})
}

// HandleCloseSession unmounts a page.
func (h *Handlers) HandleCloseSession(w http.ResponseWriter, r *http.Request, sessionID string) {
	if err := h.Close.Execute(r.Context(), commands.CloseSessionInput{SessionID: sessionID}); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type editModeBody struct {
	Enabled bool `json:"enabled"`
}

// HandleSetEditMode toggles edit mode.
func (h *Handlers) HandleSetEditMode(w http.ResponseWriter, r *http.Request, sessionID string) {
	var payload editModeBody
	if err := decodeBody(r, &payload); err != nil {
		writeError(w, err)
		return
	}
	input := commands.SetEditModeInput{SessionID: sessionID, Viewer: ViewerFromRequest(r), Enabled: payload.Enabled}
	if err := h.EditMode.Execute(r.Context(), input); err != nil {
		writeError(w, err)
		return
	}
	h.respond(w, r, http.StatusOK, sessionID, MutationResponse{})
}

type loadBody struct {
	DashboardType string `json:"dashboardType"`
}

// HandleLoadLayout switches the session to another dashboard type.
func (h *Handlers) HandleLoadLayout(w http.ResponseWriter, r *http.Request, sessionID string) {
	var payload loadBody
	if err := decodeBody(r, &payload); err != nil {
		writeError(w, err)
		return
	}
	if payload.DashboardType == "" {
		writeError(w, badRequestError{err: errors.New("dashboardType is required")})
		return
	}
	if err := h.Load.Execute(r.Context(), commands.LoadLayoutInput{SessionID: sessionID, DashboardType: payload.DashboardType}); err != nil {
		writeError(w, err)
		return
	}
	h.respond(w, r, http.StatusOK, sessionID, MutationResponse{})
}

// HandleAddWidget adds a widget from the catalogue.
func (h *Handlers) HandleAddWidget(w http.ResponseWriter, r *http.Request, sessionID string) {
	var payload dashboard.AddWidgetRequest
	if err := decodeBody(r, &payload); err != nil {
		writeError(w, err)
		return
	}
	var created dashboard.WidgetInstance
	input := commands.AddWidgetInput{
		SessionID:  sessionID,
		WidgetType: payload.WidgetType,
		Props:      payload.Props,
		GridArea:   payload.GridArea,
		Hidden:     payload.Hidden,
		Created:    &created,
	}
	if err := h.Add.Execute(r.Context(), input); err != nil {
		writeError(w, err)
		return
	}
	h.respond(w, r, http.StatusCreated, sessionID, MutationResponse{Widget: &created})
}

// HandleUpdateWidget applies a partial update to a widget.
func (h *Handlers) HandleUpdateWidget(w http.ResponseWriter, r *http.Request, sessionID, widgetID string) {
	var changes dashboard.WidgetChanges
	if err := decodeBody(r, &changes); err != nil {
		writeError(w, err)
		return
	}
	input := commands.UpdateWidgetInput{SessionID: sessionID, WidgetID: widgetID, Changes: changes}
	if err := h.Update.Execute(r.Context(), input); err != nil {
		writeError(w, err)
		return
	}
	h.respond(w, r, http.StatusOK, sessionID, MutationResponse{})
}

// HandleRemoveWidget removes a widget.
func (h *Handlers) HandleRemoveWidget(w http.ResponseWriter, r *http.Request, sessionID, widgetID string) {
	if err := h.Remove.Execute(r.Context(), commands.RemoveWidgetInput{SessionID: sessionID, WidgetID: widgetID}); err != nil {
		writeError(w, err)
		return
	}
	h.respond(w, r, http.StatusOK, sessionID, MutationResponse{})
}

type layoutBody struct {
	Widgets []dashboard.WidgetInstance `json:"widgets"`
}

// HandleUpdateLayout replaces the session's widget collection.
func (h *Handlers) HandleUpdateLayout(w http.ResponseWriter, r *http.Request, sessionID string) {
	var payload layoutBody
	if err := decodeBody(r, &payload); err != nil {
		writeError(w, err)
		return
	}
	if err := h.UpdateLayout.Execute(r.Context(), commands.UpdateLayoutInput{SessionID: sessionID, Widgets: payload.Widgets}); err != nil {
		writeError(w, err)
		return
	}
	h.respond(w, r, http.StatusOK, sessionID, MutationResponse{})
}

// HandleHistory returns a handler for the toolbar's undo, redo and reset buttons.
func (h *Handlers) HandleHistory(cmd gocommand.Commander[commands.HistoryInput]) func(http.ResponseWriter, *http.Request, string) {
	return func(w http.ResponseWriter, r *http.Request, sessionID string) {
		if err := cmd.Execute(r.Context(), commands.HistoryInput{SessionID: sessionID}); err != nil {
			writeError(w, err)
			return
		}
		h.respond(w, r, http.StatusOK, sessionID, MutationResponse{})
	}
}

// HandleSave persists the session's layout.
func (h *Handlers) HandleSave(w http.ResponseWriter, r *http.Request, sessionID string) {
	if err := h.Save.Execute(r.Context(), commands.SaveLayoutInput{SessionID: sessionID}); err != nil {
		writeError(w, err)
		return
	}
	h.respond(w, r, http.StatusOK, sessionID, MutationResponse{})
}

type pointerBody struct {
	WidgetID string             `json:"widgetId"`
	Mode     dashboard.DragMode `json:"mode"`
	Point    dashboard.Point    `json:"point"`
}

// HandlePointerDown starts a gesture.
func (h *Handlers) HandlePointerDown(w http.ResponseWriter, r *http.Request, sessionID string) {
	var payload pointerBody
	if err := decodeBody(r, &payload); err != nil {
		writeError(w, err)
		return
	}
	var fb dashboard.DragFeedback
	input := commands.PointerDownInput{SessionID: sessionID, WidgetID: payload.WidgetID, Mode: payload.Mode, Point: payload.Point, Feedback: &fb}
	if err := h.PointerDown.Execute(r.Context(), input); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, fb)
}

// HandlePointerMove reports feedback for the pointer position without touching the layout.
func (h *Handlers) HandlePointerMove(w http.ResponseWriter, r *http.Request, sessionID string) {
	var payload pointerBody
	if err := decodeBody(r, &payload); err != nil {
		writeError(w, err)
		return
	}
	var fb dashboard.DragFeedback
	if err := h.PointerMove.Execute(r.Context(), commands.PointerMoveInput{SessionID: sessionID, Point: payload.Point, Feedback: &fb}); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, fb)
}

// HandlePointerUp ends a gesture.
func (h *Handlers) HandlePointerUp(w http.ResponseWriter, r *http.Request, sessionID string) {
	var payload pointerBody
	if err := decodeBody(r, &payload); err != nil {
		writeError(w, err)
		return
	}
	var result dashboard.DropResult
	if err := h.PointerUp.Execute(r.Context(), commands.PointerUpInput{SessionID: sessionID, Point: payload.Point, Result: &result}); err != nil {
		writeError(w, err)
		return
	}
	h.respond(w, r, http.StatusOK, sessionID, MutationResponse{Drop: &result})
}

// HandleCancelDrag abandons the gesture.
func (h *Handlers) HandleCancelDrag(w http.ResponseWriter, r *http.Request, sessionID string) {
	if err := h.Cancel.Execute(r.Context(), commands.CancelDragInput{SessionID: sessionID}); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleCatalog lists the widget catalogue for the viewer's locale.
func (h *Handlers) HandleCatalog(w http.ResponseWriter, r *http.Request) {
	entries, err := h.Catalog.Query(r.Context(), queries.CatalogInput{Locales: ViewerFromRequest(r).Preferences()})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// HandleListLayouts lists dashboard types with a stored layout.
func (h *Handlers) HandleListLayouts(w http.ResponseWriter, r *http.Request) {
	types, err := h.List.Query(r.Context(), struct{}{})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"dashboardTypes": types})
}

// HandleExportLayout returns the stored layout or the default for dashboardType.
func (h *Handlers) HandleExportLayout(w http.ResponseWriter, r *http.Request, dashboardType string) {
	stored, err := h.Stored.Query(r.Context(), dashboardType)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stored)
}

// HandleImportLayout replaces the stored layout for dashboardType.
func (h *Handlers) HandleImportLayout(w http.ResponseWriter, r *http.Request, dashboardType string) {
	viewer := ViewerFromRequest(r)
	var layout dashboard.DashboardLayout
	if err := decodeBody(r, &layout); err != nil {
		writeError(w, err)
		return
	}
	if layout.DashboardType == "" {
		layout.DashboardType = dashboardType
	}
	if layout.DashboardType != dashboardType {
		writeError(w, badRequestError{err: fmt.Errorf("layout is for %q, not %q", layout.DashboardType, dashboardType)})
		return
	}
	if err := h.Import.Execute(r.Context(), commands.ImportLayoutInput{Layout: layout, Viewer: &viewer}); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleDeleteLayout drops the stored layout for dashboardType.
func (h *Handlers) HandleDeleteLayout(w http.ResponseWriter, r *http.Request, dashboardType string) {
	viewer := ViewerFromRequest(r)
	if err := h.Delete.Execute(r.Context(), commands.DeleteLayoutInput{DashboardType: dashboardType, Viewer: &viewer}); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type seedBody struct {
	DashboardTypes []string `json:"dashboardTypes"`
}

// HandleSeedLayouts stores defaults for dashboard types that have nothing saved.
func (h *Handlers) HandleSeedLayouts(w http.ResponseWriter, r *http.Request) {
	viewer := ViewerFromRequest(r)
	var payload seedBody
	if err := decodeBody(r, &payload); err != nil {
		writeError(w, err)
		return
	}
	var seeded []string
	if err := h.Seed.Execute(r.Context(), commands.SeedLayoutsInput{DashboardTypes: payload.DashboardTypes, Viewer: &viewer, Seeded: &seeded}); err != nil {
		writeError(w, err)
		return
	}
	if seeded == nil {
		seeded = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"seeded": seeded})
}
