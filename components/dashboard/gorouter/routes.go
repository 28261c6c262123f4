package gorouter

import (
	"encoding/json"
	"errors"
	"net/http"

	gocommand "github.com/goliatone/go-command"
	router "github.com/goliatone/go-router"

	"github.com/goliatone/go-dashboard-editor/components/dashboard"
	"github.com/goliatone/go-dashboard-editor/components/dashboard/commands"
	"github.com/goliatone/go-dashboard-editor/components/dashboard/httpapi"
	"github.com/goliatone/go-dashboard-editor/components/dashboard/queries"
)

// ViewerResolver converts a router.Context into a dashboard.ViewerContext.
type ViewerResolver func(router.Context) dashboard.ViewerContext

// Config wires go-router with the dashboard editor commands and the layout broadcast.
type Config[T any] struct {
	Router         router.Router[T]
	API            *httpapi.Handlers
	Broadcast      *dashboard.BroadcastHook
	ViewerResolver ViewerResolver
	BasePath       string
	Routes         RouteConfig
}

// RouteConfig customizes the relative paths used for dashboard endpoints.
type RouteConfig struct {
	Catalog   string
	Sessions  string
	Session   string
	Layouts   string
	Layout    string
	WebSocket string
}

// Register mounts the editor routes (sessions, widgets, history, drag, layouts, WebSocket)
// on a go-router router.
func Register[T any](cfg Config[T]) error {
	if cfg.Router == nil {
		return errors.New("gorouter: router is required")
	}
	if cfg.API == nil {
		return errors.New("gorouter: api handlers are required")
	}
	routes := defaultRouteConfig(cfg.Routes)
	base := cfg.BasePath
	if base == "" {
		base = "/admin"
	}
	resolver := cfg.ViewerResolver
	if resolver == nil {
		resolver = defaultViewerResolver
	}
	api := cfg.API
	group := cfg.Router.Group(base)

	group.Get(routes.Catalog, router.WrapHandler(func(ctx router.Context) error {
		entries, err := api.Catalog.Query(ctx.Context(), queries.CatalogInput{Locales: resolver(ctx).Preferences()})
		if err != nil {
			return respondError(ctx, err)
		}
		return ctx.JSON(http.StatusOK, entries)
	}))

	group.Post(routes.Sessions, router.WrapHandler(func(ctx router.Context) error {
		var payload struct {
			DashboardType string `json:"dashboardType"`
			EditMode      bool   `json:"editMode"`
		}
		if err := decode(ctx, &payload); err != nil {
			return respondError(ctx, err)
		}
		if payload.DashboardType == "" {
			return respondError(ctx, httpapi.BadRequest(errors.New("dashboardType is required")))
		}
		viewer := resolver(ctx)
		var id string
		if err := api.Open.Execute(ctx.Context(), commands.OpenSessionInput{Viewer: viewer, DashboardType: payload.DashboardType, SessionID: &id}); err != nil {
			return respondError(ctx, err)
		}
		if payload.EditMode {
			if err := api.EditMode.Execute(ctx.Context(), commands.SetEditModeInput{SessionID: id, Viewer: viewer, Enabled: true}); err != nil {
				_ = api.Close.Execute(ctx.Context(), commands.CloseSessionInput{SessionID: id})
				return respondError(ctx, err)
			}
		}
		return respondState(ctx, api, http.StatusCreated, id, httpapi.MutationResponse{})
	}))

	session := routes.Session
	group.Get(session, sessionHandler(func(ctx router.Context, id string) error {
		return respondState(ctx, api, http.StatusOK, id, httpapi.MutationResponse{})
	}))
	group.Delete(session, sessionHandler(func(ctx router.Context, id string) error {
		if err := api.Close.Execute(ctx.Context(), commands.CloseSessionInput{SessionID: id}); err != nil {
			return respondError(ctx, err)
		}
		return ctx.JSON(http.StatusOK, map[string]string{"status": "closed"})
	}))
	group.Put(session+"/edit", sessionHandler(func(ctx router.Context, id string) error {
		var payload struct {
			Enabled bool `json:"enabled"`
		}
		if err := decode(ctx, &payload); err != nil {
			return respondError(ctx, err)
		}
		input := commands.SetEditModeInput{SessionID: id, Viewer: resolver(ctx), Enabled: payload.Enabled}
		return mutate(ctx, api, id, api.EditMode.Execute(ctx.Context(), input))
	}))
	group.Put(session+"/dashboard", sessionHandler(func(ctx router.Context, id string) error {
		var payload commands.LoadLayoutInput
		if err := decode(ctx, &payload); err != nil {
			return respondError(ctx, err)
		}
		payload.SessionID = id
		return mutate(ctx, api, id, api.Load.Execute(ctx.Context(), payload))
	}))
	group.Put(session+"/layout", sessionHandler(func(ctx router.Context, id string) error {
		var payload commands.UpdateLayoutInput
		if err := decode(ctx, &payload); err != nil {
			return respondError(ctx, err)
		}
		payload.SessionID = id
		return mutate(ctx, api, id, api.UpdateLayout.Execute(ctx.Context(), payload))
	}))
	group.Post(session+"/widgets", sessionHandler(func(ctx router.Context, id string) error {
		var payload dashboard.AddWidgetRequest
		if err := decode(ctx, &payload); err != nil {
			return respondError(ctx, err)
		}
		var created dashboard.WidgetInstance
		err := api.Add.Execute(ctx.Context(), commands.AddWidgetInput{
			SessionID:  id,
			WidgetType: payload.WidgetType,
			Props:      payload.Props,
			GridArea:   payload.GridArea,
			Hidden:     payload.Hidden,
			Created:    &created,
		})
		if err != nil {
			return respondError(ctx, err)
		}
		return respondState(ctx, api, http.StatusCreated, id, httpapi.MutationResponse{Widget: &created})
	}))
	group.Patch(session+"/widgets/:widget", sessionHandler(func(ctx router.Context, id string) error {
		var changes dashboard.WidgetChanges
		if err := decode(ctx, &changes); err != nil {
			return respondError(ctx, err)
		}
		input := commands.UpdateWidgetInput{SessionID: id, WidgetID: ctx.Param("widget"), Changes: changes}
		return mutate(ctx, api, id, api.Update.Execute(ctx.Context(), input))
	}))
	group.Delete(session+"/widgets/:widget", sessionHandler(func(ctx router.Context, id string) error {
		input := commands.RemoveWidgetInput{SessionID: id, WidgetID: ctx.Param("widget")}
		return mutate(ctx, api, id, api.Remove.Execute(ctx.Context(), input))
	}))
	registerHistory(group, api, session+"/undo", api.Undo)
	registerHistory(group, api, session+"/redo", api.Redo)
	registerHistory(group, api, session+"/reset", api.Reset)
	group.Post(session+"/save", sessionHandler(func(ctx router.Context, id string) error {
		return mutate(ctx, api, id, api.Save.Execute(ctx.Context(), commands.SaveLayoutInput{SessionID: id}))
	}))

	registerDrag(group, api, session)
	registerLayouts(group, api, resolver, routes)

	if cfg.Broadcast != nil {
		registerWebSocket(group, cfg.Broadcast, routes.WebSocket)
	}
	return nil
}

func registerHistory[T any](r router.Router[T], api *httpapi.Handlers, path string, cmd gocommand.Commander[commands.HistoryInput]) {
	r.Post(path, sessionHandler(func(ctx router.Context, id string) error {
		return mutate(ctx, api, id, cmd.Execute(ctx.Context(), commands.HistoryInput{SessionID: id}))
	}))
}

type pointerPayload struct {
	WidgetID string             `json:"widgetId"`
	Mode     dashboard.DragMode `json:"mode"`
	Point    dashboard.Point    `json:"point"`
}

func registerDrag[T any](r router.Router[T], api *httpapi.Handlers, session string) {
	r.Post(session+"/drag/down", sessionHandler(func(ctx router.Context, id string) error {
		var payload pointerPayload
		if err := decode(ctx, &payload); err != nil {
			return respondError(ctx, err)
		}
		var fb dashboard.DragFeedback
		input := commands.PointerDownInput{SessionID: id, WidgetID: payload.WidgetID, Mode: payload.Mode, Point: payload.Point, Feedback: &fb}
		if err := api.PointerDown.Execute(ctx.Context(), input); err != nil {
			return respondError(ctx, err)
		}
		return ctx.JSON(http.StatusOK, fb)
	}))
	r.Post(session+"/drag/move", sessionHandler(func(ctx router.Context, id string) error {
		var payload pointerPayload
		if err := decode(ctx, &payload); err != nil {
			return respondError(ctx, err)
		}
		var fb dashboard.DragFeedback
		if err := api.PointerMove.Execute(ctx.Context(), commands.PointerMoveInput{SessionID: id, Point: payload.Point, Feedback: &fb}); err != nil {
			return respondError(ctx, err)
		}
		return ctx.JSON(http.StatusOK, fb)
	}))
	r.Post(session+"/drag/up", sessionHandler(func(ctx router.Context, id string) error {
		var payload pointerPayload
		if err := decode(ctx, &payload); err != nil {
			return respondError(ctx, err)
		}
		var result dashboard.DropResult
		if err := api.PointerUp.Execute(ctx.Context(), commands.PointerUpInput{SessionID: id, Point: payload.Point, Result: &result}); err != nil {
			return respondError(ctx, err)
		}
		return respondState(ctx, api, http.StatusOK, id, httpapi.MutationResponse{Drop: &result})
	}))
	r.Post(session+"/drag/cancel", sessionHandler(func(ctx router.Context, id string) error {
		if err := api.Cancel.Execute(ctx.Context(), commands.CancelDragInput{SessionID: id}); err != nil {
			return respondError(ctx, err)
		}
		return ctx.JSON(http.StatusOK, map[string]string{"status": "cancelled"})
	}))
}

func registerLayouts[T any](r router.Router[T], api *httpapi.Handlers, resolver ViewerResolver, routes RouteConfig) {
	r.Get(routes.Layouts, router.WrapHandler(func(ctx router.Context) error {
		types, err := api.List.Query(ctx.Context(), struct{}{})
		if err != nil {
			return respondError(ctx, err)
		}
		return ctx.JSON(http.StatusOK, map[string]any{"dashboardTypes": types})
	}))
	r.Post(routes.Layouts+"/seed", router.WrapHandler(func(ctx router.Context) error {
		var payload commands.SeedLayoutsInput
		if err := decode(ctx, &payload); err != nil {
			return respondError(ctx, err)
		}
		viewer := resolver(ctx)
		seeded := []string{}
		payload.Viewer = &viewer
		payload.Seeded = &seeded
		if err := api.Seed.Execute(ctx.Context(), payload); err != nil {
			return respondError(ctx, err)
		}
		return ctx.JSON(http.StatusOK, map[string]any{"seeded": seeded})
	}))
	r.Get(routes.Layout, router.WrapHandler(func(ctx router.Context) error {
		stored, err := api.Stored.Query(ctx.Context(), ctx.Param("type"))
		if err != nil {
			return respondError(ctx, err)
		}
		return ctx.JSON(http.StatusOK, stored)
	}))
	r.Put(routes.Layout, router.WrapHandler(func(ctx router.Context) error {
		var layout dashboard.DashboardLayout
		if err := decode(ctx, &layout); err != nil {
			return respondError(ctx, err)
		}
		dashboardType := ctx.Param("type")
		if layout.DashboardType == "" {
			layout.DashboardType = dashboardType
		}
		if layout.DashboardType != dashboardType {
			return respondError(ctx, httpapi.BadRequest(errors.New("layout dashboard type does not match the route")))
		}
		viewer := resolver(ctx)
		if err := api.Import.Execute(ctx.Context(), commands.ImportLayoutInput{Layout: layout, Viewer: &viewer}); err != nil {
			return respondError(ctx, err)
		}
		return ctx.JSON(http.StatusOK, map[string]string{"status": "imported"})
	}))
	r.Delete(routes.Layout, router.WrapHandler(func(ctx router.Context) error {
		viewer := resolver(ctx)
		input := commands.DeleteLayoutInput{DashboardType: ctx.Param("type"), Viewer: &viewer}
		if err := api.Delete.Execute(ctx.Context(), input); err != nil {
			return respondError(ctx, err)
		}
		return ctx.JSON(http.StatusOK, map[string]string{"status": "deleted"})
	}))
}

func registerWebSocket[T any](r router.Router[T], hook *dashboard.BroadcastHook, path string) {
	cfg := router.DefaultWebSocketConfig()
	r.WebSocket(path, cfg, func(ws router.WebSocketContext) error {
		events, cancel := hook.Subscribe("")
		defer cancel()
		for {
			select {
			case event, ok := <-events:
				if !ok {
					return nil
				}
				if err := ws.WriteJSON(event); err != nil {
					return err
				}
			case <-ws.Context().Done():
				return ws.Close()
			}
		}
	})
}

func sessionHandler(fn func(router.Context, string) error) router.HandlerFunc {
	return router.WrapHandler(func(ctx router.Context) error {
		id := ctx.Param("session")
		if id == "" {
			return respondError(ctx, httpapi.BadRequest(errors.New("session id is required")))
		}
		return fn(ctx, id)
	})
}

func mutate(ctx router.Context, api *httpapi.Handlers, sessionID string, err error) error {
	if err != nil {
		return respondError(ctx, err)
	}
	return respondState(ctx, api, http.StatusOK, sessionID, httpapi.MutationResponse{})
}

func respondState(ctx router.Context, api *httpapi.Handlers, status int, sessionID string, resp httpapi.MutationResponse) error {
	state, err := api.State.Query(ctx.Context(), queries.SessionStateInput{SessionID: sessionID, DrainNotices: true})
	if err != nil {
		return respondError(ctx, err)
	}
	resp.State = state
	return ctx.JSON(status, resp)
}

func decode(ctx router.Context, v any) error {
	body := ctx.Body()
	if len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, v); err != nil {
		return httpapi.BadRequest(err)
	}
	return nil
}

func defaultViewerResolver(ctx router.Context) dashboard.ViewerContext {
	var viewer dashboard.ViewerContext
	if v, ok := ctx.Locals("user_id").(string); ok {
		viewer.UserID = v
	}
	if roles, ok := ctx.Locals("roles").([]string); ok {
		viewer.Roles = roles
	}
	viewer.Locales = inferLocales(ctx)
	viewer.Locale = viewer.Locales.Primary()
	return viewer
}

// inferLocales prefers a locale set by upstream middleware, then the locale
// query parameter, then Accept-Language.
func inferLocales(ctx router.Context) dashboard.Locales {
	if locale, ok := ctx.Locals("locale").(string); ok && locale != "" {
		return dashboard.ParseLocales(locale)
	}
	if locales := dashboard.ParseLocales(ctx.Query("locale")); len(locales) > 0 {
		return locales
	}
	return dashboard.ParseLocales(ctx.Header("Accept-Language"))
}

func respondError(ctx router.Context, err error) error {
	status, body := httpapi.NewErrorBody(err)
	return ctx.JSON(status, body)
}

func defaultRouteConfig(routes RouteConfig) RouteConfig {
	if routes.Catalog == "" {
		routes.Catalog = "/dashboard/catalog"
	}
	if routes.Sessions == "" {
		routes.Sessions = "/dashboard/sessions"
	}
	if routes.Session == "" {
		routes.Session = routes.Sessions + "/:session"
	}
	if routes.Layouts == "" {
		routes.Layouts = "/dashboard/layouts"
	}
	if routes.Layout == "" {
		routes.Layout = routes.Layouts + "/:type"
	}
	if routes.WebSocket == "" {
		routes.WebSocket = "/dashboard/ws"
	}
	return routes
}
