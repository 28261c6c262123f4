package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"github.com/goliatone/go-dashboard-editor/components/dashboard"
)

// RouterOptions configures NewRouter.
type RouterOptions struct {
	// BasePath prefixes every route. Defaults to /api/dashboard.
	BasePath string
	// AllowedOrigins feeds the CORS middleware. Empty allows any origin.
	AllowedOrigins []string
	// Events streams layout changes over websocket and SSE when set.
	Events *dashboard.BroadcastHook
}

// NewRouter mounts the handlers on a chi router.
func NewRouter(h *Handlers, opts RouterOptions) chi.Router {
	base := opts.BasePath
	if base == "" {
		base = "/api/dashboard"
	}
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	router := chi.NewRouter()
	router.Use(chimw.RequestID)
	router.Use(chimw.RealIP)
	router.Use(chimw.Recoverer)
	router.Use(cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Accept-Language", "Content-Type", HeaderUserID, HeaderRoles, "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}).Handler)

	router.Route(base, func(r chi.Router) {
		r.Get("/catalog", h.HandleCatalog)

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", h.HandleOpenSession)
			r.Route("/{sessionID}", func(r chi.Router) {
				r.Get("/", withSession(h.HandleGetSession))
				r.Delete("/", withSession(h.HandleCloseSession))
				r.Put("/edit", withSession(h.HandleSetEditMode))
				r.Put("/dashboard", withSession(h.HandleLoadLayout))
				r.Put("/layout", withSession(h.HandleUpdateLayout))
				r.Post("/widgets", withSession(h.HandleAddWidget))
				r.Patch("/widgets/{widgetID}", withWidget(h.HandleUpdateWidget))
				r.Delete("/widgets/{widgetID}", withWidget(h.HandleRemoveWidget))
				r.Post("/undo", withSession(h.HandleHistory(h.Undo)))
				r.Post("/redo", withSession(h.HandleHistory(h.Redo)))
				r.Post("/reset", withSession(h.HandleHistory(h.Reset)))
				r.Post("/save", withSession(h.HandleSave))
				r.Post("/drag/down", withSession(h.HandlePointerDown))
				r.Post("/drag/move", withSession(h.HandlePointerMove))
				r.Post("/drag/up", withSession(h.HandlePointerUp))
				r.Post("/drag/cancel", withSession(h.HandleCancelDrag))
			})
		})

		r.Route("/layouts", func(r chi.Router) {
			r.Get("/", h.HandleListLayouts)
			r.Post("/seed", h.HandleSeedLayouts)
			r.Get("/{dashboardType}", withDashboardType(h.HandleExportLayout))
			r.Put("/{dashboardType}", withDashboardType(h.HandleImportLayout))
			r.Delete("/{dashboardType}", withDashboardType(h.HandleDeleteLayout))
		})

		if opts.Events != nil {
			r.Get("/events/ws", opts.Events.ServeWebSocket)
			r.Get("/events/sse", opts.Events.ServeSSE)
		}
	})
	return router
}

func withSession(fn func(http.ResponseWriter, *http.Request, string)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fn(w, r, chi.URLParam(r, "sessionID"))
	}
}

func withWidget(fn func(http.ResponseWriter, *http.Request, string, string)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fn(w, r, chi.URLParam(r, "sessionID"), chi.URLParam(r, "widgetID"))
	}
}

func withDashboardType(fn func(http.ResponseWriter, *http.Request, string)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fn(w, r, chi.URLParam(r, "dashboardType"))
	}
}
