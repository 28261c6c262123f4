package dashboard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// ViewerContext carries the user requesting an edit session.
type ViewerContext struct {
	UserID  string   `json:"user_id"`
	Roles   []string `json:"roles"`
	Locale  string   `json:"locale"`
	Locales Locales  `json:"locales,omitempty"`
}

// Preferences returns the viewer's locale preference, falling back to Locale.
func (v ViewerContext) Preferences() Locales {
	if len(v.Locales) > 0 {
		return v.Locales
	}
	return ParseLocales(v.Locale)
}

// Authorizer decides whether a viewer may enter edit mode on a dashboard type.
type Authorizer interface {
	CanEdit(ctx context.Context, viewer ViewerContext, dashboardType string) bool
}

// AuthorizerFunc adapts a function into an Authorizer.
type AuthorizerFunc func(ctx context.Context, viewer ViewerContext, dashboardType string) bool

// CanEdit implements Authorizer.
func (f AuthorizerFunc) CanEdit(ctx context.Context, viewer ViewerContext, dashboardType string) bool {
	return f(ctx, viewer, dashboardType)
}

// RoleAuthorizer allows editing to viewers holding any of the listed roles.
// An empty list allows everyone.
type RoleAuthorizer []string

// CanEdit implements Authorizer.
func (r RoleAuthorizer) CanEdit(_ context.Context, viewer ViewerContext, _ string) bool {
	if len(r) == 0 {
		return true
	}
	for _, want := range r {
		for _, have := range viewer.Roles {
			if want == have {
				return true
			}
		}
	}
	return false
}

// Options configures the dashboard Service. Every collaborator is provided via
// interface so applications can swap implementations.
type Options struct {
	Storage      LayoutStorage
	Registry     *Registry
	Validator    PropsValidator
	Defaults     LayoutDefaults
	Grid         Grid
	HistoryLimit int
	Drag         DragOptions
	SessionTTL   time.Duration
	Authorizer   Authorizer
	Telemetry    Telemetry
	Notifier     Notifier
	Hook         LayoutHook
	Logger       *zerolog.Logger
}

// Service is the entry point transports use: it owns the widget registry, the
// storage backend and the open editing sessions.
type Service struct {
	opts     Options
	sessions *Sessions
	logger   zerolog.Logger
}

// NewService builds a Service instance with safe defaults.
func NewService(opts Options) *Service {
	if opts.Registry == nil {
		opts.Registry = NewRegistry()
	}
	if opts.Validator == nil {
		opts.Validator = NewJSONSchemaValidator()
	}
	if opts.Defaults == nil {
		opts.Defaults = BuiltinDefaults(opts.Registry)
	}
	if opts.Authorizer == nil {
		opts.Authorizer = RoleAuthorizer(nil)
	}
	if opts.Hook == nil {
		opts.Hook = noopLayoutHook{}
	}
	opts.Telemetry = normalizeTelemetry(opts.Telemetry)
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	drag := opts.Drag
	if drag.Telemetry == nil {
		drag.Telemetry = opts.Telemetry
	}
	sessions := NewSessions(SessionOptions{
		Store: StoreOptions{
			Storage:      opts.Storage,
			Catalog:      opts.Registry,
			Validator:    opts.Validator,
			Defaults:     opts.Defaults,
			Grid:         opts.Grid,
			HistoryLimit: opts.HistoryLimit,
			Telemetry:    opts.Telemetry,
			Notifier:     opts.Notifier,
			Hook:         opts.Hook,
			Logger:       &logger,
		},
		Drag:   drag,
		TTL:    opts.SessionTTL,
		Logger: &logger,
	})
	return &Service{opts: opts, sessions: sessions, logger: logger}
}

// Registry returns the widget registry.
func (s *Service) Registry() *Registry { return s.opts.Registry }

// Sessions returns the session manager.
func (s *Service) Sessions() *Sessions { return s.sessions }

// Grid returns the configured grid geometry.
func (s *Service) Grid() Grid { return s.opts.Grid.normalized() }

// OpenSession mounts a dashboard page for viewer.
func (s *Service) OpenSession(ctx context.Context, viewer ViewerContext, dashboardType string) (*Session, error) {
	if dashboardType == "" {
		return nil, errMissingDashboardType
	}
	sess, err := s.sessions.Open(ctx, dashboardType)
	if err != nil {
		return nil, err
	}
	s.opts.Telemetry.Record(ctx, "dashboard.session.open", map[string]any{
		"session_id":     sess.ID,
		"dashboard_type": dashboardType,
		"viewer":         viewer.UserID,
	})
	return sess, nil
}

// Session looks up an open session.
func (s *Service) Session(id string) (*Session, error) {
	return s.sessions.Get(id)
}

// CloseSession unmounts a page.
func (s *Service) CloseSession(ctx context.Context, id string) error {
	if err := s.sessions.Close(id); err != nil {
		return err
	}
	s.opts.Telemetry.Record(ctx, "dashboard.session.close", map[string]any{"session_id": id})
	return nil
}

// SetEditMode toggles edit mode on a session. Entering edit mode requires the authorizer's consent.
func (s *Service) SetEditMode(ctx context.Context, viewer ViewerContext, sessionID string, on bool) (*Session, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}
	if on && !s.opts.Authorizer.CanEdit(ctx, viewer, sess.Store.DashboardType()) {
		return nil, ErrForbidden
	}
	sess.SetEditMode(on)
	s.opts.Telemetry.Record(ctx, "dashboard.session.edit_mode", map[string]any{
		"session_id": sessionID,
		"edit_mode":  on,
		"viewer":     viewer.UserID,
	})
	return sess, nil
}

// Authorize returns ErrForbidden unless viewer may edit every listed dashboard type.
func (s *Service) Authorize(ctx context.Context, viewer ViewerContext, dashboardTypes ...string) error {
	for _, t := range dashboardTypes {
		if !s.opts.Authorizer.CanEdit(ctx, viewer, t) {
			s.logger.Warn().Str("viewer", viewer.UserID).Str("dashboard_type", t).Msg("edit refused")
			return fmt.Errorf("%w: %s", ErrForbidden, t)
		}
	}
	return nil
}

// Edit runs fn against a session that is in edit mode.
func (s *Service) Edit(sessionID string, fn func(*Session) error) error {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return err
	}
	if err := sess.RequireEdit(); err != nil {
		return err
	}
	return fn(sess)
}

// CatalogEntry is a widget definition as shown in the add-widget menu.
type CatalogEntry struct {
	Code          string   `json:"code"`
	Name          string   `json:"name"`
	Description   string   `json:"description,omitempty"`
	Category      string   `json:"category,omitempty"`
	CategoryLabel string   `json:"category_label,omitempty"`
	Component     string   `json:"component"`
	DefaultSize   Size     `json:"default_size"`
	Permissions   []string `json:"permissions,omitempty"`
}

// Catalog lists the registered widgets with names and category labels resolved
// for the viewer's locale preference.
func (s *Service) Catalog(locales Locales) []CatalogEntry {
	reg := s.opts.Registry
	return localizeCatalog(locales, reg.Definitions(), reg.categoryLabels(), reg.ComponentMetadata)
}

// ExportLayout returns the stored layout for dashboardType, or its default when nothing is stored.
func (s *Service) ExportLayout(ctx context.Context, dashboardType string) (DashboardLayout, bool, error) {
	if s.opts.Storage == nil {
		return DashboardLayout{}, false, errMissingStorage
	}
	layout, err := s.opts.Storage.LoadLayout(ctx, dashboardType)
	if errors.Is(err, ErrNotFound) {
		def := s.opts.Defaults.DefaultLayout(dashboardType)
		def.DashboardType = dashboardType
		return def, false, nil
	}
	if err != nil {
		return DashboardLayout{}, false, &PersistenceReadError{DashboardType: dashboardType, Err: err}
	}
	return layout, true, nil
}

// ImportLayout validates a layout against the registry and writes it to storage,
// replacing whatever was saved. Open sessions keep their in-memory copy.
func (s *Service) ImportLayout(ctx context.Context, layout DashboardLayout) error {
	if s.opts.Storage == nil {
		return errMissingStorage
	}
	if err := ValidateLayout(layout); err != nil {
		return err
	}
	layout = layout.Clone()
	for i, w := range layout.Widgets {
		def, ok := s.opts.Registry.Lookup(w.WidgetType)
		if !ok {
			return &UnknownWidgetTypeError{WidgetType: w.WidgetType}
		}
		props, err := normalizeProps(w.Props)
		if err != nil {
			return fmt.Errorf("dashboard: widget %s: %w", w.ID, err)
		}
		if props == nil {
			props = Props{}
		}
		if err := s.opts.Validator.Validate(def, props); err != nil {
			return err
		}
		layout.Widgets[i].Props = props
	}
	if err := s.opts.Storage.SaveLayout(ctx, layout); err != nil {
		return &PersistenceWriteError{DashboardType: layout.DashboardType, Err: err}
	}
	s.logger.Info().Str("dashboard_type", layout.DashboardType).Int("widgets", len(layout.Widgets)).Msg("layout imported")
	if err := s.opts.Hook.LayoutChanged(ctx, LayoutEvent{
		DashboardType: layout.DashboardType,
		Reason:        ReasonSave,
		Widgets:       layout.Widgets,
	}); err != nil {
		s.logger.Warn().Err(err).Msg("layout hook failed")
	}
	return nil
}

// DeleteStoredLayout removes the saved layout so the next load falls back to the default.
func (s *Service) DeleteStoredLayout(ctx context.Context, dashboardType string) error {
	if s.opts.Storage == nil {
		return errMissingStorage
	}
	if err := s.opts.Storage.DeleteLayout(ctx, dashboardType); err != nil {
		return &PersistenceWriteError{DashboardType: dashboardType, Err: err}
	}
	return nil
}

// ListLayouts lists dashboard types with a saved layout.
func (s *Service) ListLayouts(ctx context.Context) ([]string, error) {
	if s.opts.Storage == nil {
		return nil, errMissingStorage
	}
	return s.opts.Storage.ListLayouts(ctx)
}

// SeedLayouts saves the default layout of every given type that has nothing stored yet.
func (s *Service) SeedLayouts(ctx context.Context, dashboardTypes ...string) ([]string, error) {
	if len(dashboardTypes) == 0 {
		dashboardTypes = DefaultDashboardTypes()
	}
	var seeded []string
	var seedErr error
	for _, t := range dashboardTypes {
		_, stored, err := s.ExportLayout(ctx, t)
		if err != nil {
			seedErr = errors.Join(seedErr, err)
			continue
		}
		if stored {
			continue
		}
		def := s.opts.Defaults.DefaultLayout(t)
		def.DashboardType = t
		if err := s.opts.Storage.SaveLayout(ctx, def); err != nil {
			seedErr = errors.Join(seedErr, fmt.Errorf("seed %s: %w", t, err))
			continue
		}
		seeded = append(seeded, t)
	}
	return seeded, seedErr
}

// Close closes every open session.
func (s *Service) Close() {
	s.sessions.CloseAll()
}
