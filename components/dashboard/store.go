package dashboard

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// LayoutDefaults supplies the built-in layout of a dashboard type.
type LayoutDefaults interface {
	DefaultLayout(dashboardType string) DashboardLayout
}

// LayoutDefaultsFunc adapts a function into LayoutDefaults.
type LayoutDefaultsFunc func(dashboardType string) DashboardLayout

// DefaultLayout implements LayoutDefaults.
func (f LayoutDefaultsFunc) DefaultLayout(dashboardType string) DashboardLayout {
	return f(dashboardType)
}

// BuiltinDefaults returns the shipped default layouts resolved against catalog.
func BuiltinDefaults(catalog WidgetCatalog) LayoutDefaults {
	return LayoutDefaultsFunc(func(dashboardType string) DashboardLayout {
		return DefaultLayout(catalog, dashboardType)
	})
}

// StoreOptions configures a Store. Every collaborator is optional except Storage.
type StoreOptions struct {
	Storage      LayoutStorage
	Catalog      WidgetCatalog
	Validator    PropsValidator
	Defaults     LayoutDefaults
	Grid         Grid
	IDs          func() string
	HistoryLimit int
	Telemetry    Telemetry
	Notifier     Notifier
	Hook         LayoutHook
	Logger       *zerolog.Logger
	SessionID    string
}

// Store is the single authority over one dashboard page's layout and its undo/redo
// history. Build one per mounted page; nothing else mutates the layout.
type Store struct {
	mu      sync.Mutex
	opts    StoreOptions
	logger  zerolog.Logger
	layout  DashboardLayout
	history *History
	loaded  bool
	closed  bool

	editSeq  uint64
	savedSeq uint64
	saveGen  uint64
}

// NewStore builds a Store with safe defaults.
func NewStore(opts StoreOptions) *Store {
	if opts.Catalog == nil {
		opts.Catalog = NewRegistry()
	}
	if opts.Validator == nil {
		opts.Validator = NewJSONSchemaValidator()
	}
	if opts.Defaults == nil {
		opts.Defaults = BuiltinDefaults(opts.Catalog)
	}
	if opts.IDs == nil {
		opts.IDs = func() string { return uuid.NewString() }
	}
	if opts.Notifier == nil {
		opts.Notifier = noopNotifier{}
	}
	if opts.Hook == nil {
		opts.Hook = noopLayoutHook{}
	}
	opts.Grid = opts.Grid.normalized()
	opts.Telemetry = normalizeTelemetry(opts.Telemetry)
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	return &Store{
		opts:    opts,
		logger:  logger.With().Str("component", "layout_store").Logger(),
		layout:  DashboardLayout{Widgets: []WidgetInstance{}},
		history: NewHistory(opts.HistoryLimit),
	}
}

// OpenStore builds a Store and loads the layout for dashboardType.
func OpenStore(ctx context.Context, opts StoreOptions, dashboardType string) (*Store, error) {
	store := NewStore(opts)
	if err := store.Load(ctx, dashboardType); err != nil {
		return nil, err
	}
	return store, nil
}

// Grid returns the grid geometry the store places widgets on.
func (s *Store) Grid() Grid { return s.opts.Grid }

// Catalog returns the widget catalogue used by the store.
func (s *Store) Catalog() WidgetCatalog { return s.opts.Catalog }

// Load reads the saved layout for dashboardType, falling back to the built-in
// default when nothing is stored. Read or decode failures never fail the call:
// the default (or, when reloading the same type, the current in-memory layout)
// is kept and a notice is emitted. Switching to another type clears history.
func (s *Store) Load(ctx context.Context, dashboardType string) error {
	if dashboardType == "" {
		return errMissingDashboardType
	}
	if s.opts.Storage == nil {
		return errMissingStorage
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrStoreClosed
	}
	s.mu.Unlock()

	stored, err := s.opts.Storage.LoadLayout(ctx, dashboardType)

	var notice *Notice
	s.mu.Lock()
	switch {
	case err == nil:
		stored.DashboardType = dashboardType
		s.replaceLoaded(stored)
	case errors.Is(err, ErrNotFound):
		s.replaceLoaded(s.defaultLayout(dashboardType))
	default:
		readErr := &PersistenceReadError{DashboardType: dashboardType, Err: err}
		notice = &Notice{
			Level:         NoticeWarning,
			Kind:          NoticePersistenceReadFailure,
			DashboardType: dashboardType,
			Message:       readErr.Error(),
		}
		if !(s.loaded && s.layout.DashboardType == dashboardType) {
			s.replaceLoaded(s.defaultLayout(dashboardType))
		}
	}
	snapshot := s.layout.Clone()
	s.mu.Unlock()

	if notice != nil {
		s.logger.Warn().Err(err).Str("dashboard_type", dashboardType).Msg("layout read failed, using fallback")
		s.opts.Notifier.Notify(ctx, *notice)
	}
	s.recordTelemetry(ctx, "dashboard.layout.load", map[string]any{
		"dashboard_type": dashboardType,
		"widgets":        len(snapshot.Widgets),
		"fallback":       err != nil,
	})
	s.emitLayout(ctx, ReasonLoad, snapshot)
	return nil
}

func (s *Store) replaceLoaded(layout DashboardLayout) {
	layout = layout.Clone()
	s.layout = layout
	s.history.Clear()
	s.loaded = true
	s.editSeq++
	s.savedSeq = s.editSeq
}

func (s *Store) defaultLayout(dashboardType string) DashboardLayout {
	layout := s.opts.Defaults.DefaultLayout(dashboardType)
	layout.DashboardType = dashboardType
	if layout.Widgets == nil {
		layout.Widgets = []WidgetInstance{}
	}
	return layout
}

// AddWidgetRequest optionally overrides the registry defaults of a new widget.
type AddWidgetRequest struct {
	WidgetType string    `json:"widgetType"`
	Props      Props     `json:"props,omitempty"`
	GridArea   *GridArea `json:"gridArea,omitempty"`
	Hidden     bool      `json:"hidden,omitempty"`
}

// AddWidget adds a widget of the given type with registry defaults. Unknown types
// are a no-op reported through the notifier; the bool reports whether a widget was added.
func (s *Store) AddWidget(ctx context.Context, widgetType string) (WidgetInstance, bool) {
	inst, err := s.AddWidgetWith(ctx, AddWidgetRequest{WidgetType: widgetType})
	if err != nil {
		return WidgetInstance{}, false
	}
	return inst, true
}

// AddWidgetWith adds a widget, merging req.Props over the registry defaults and
// placing it at req.GridArea or the top-left-most free cell.
func (s *Store) AddWidgetWith(ctx context.Context, req AddWidgetRequest) (WidgetInstance, error) {
	def, ok := s.opts.Catalog.Lookup(req.WidgetType)
	if !ok {
		unknown := &UnknownWidgetTypeError{WidgetType: req.WidgetType}
		s.logger.Warn().Str("widget_type", req.WidgetType).Msg("add widget ignored")
		s.opts.Notifier.Notify(ctx, Notice{
			Level:         NoticeWarning,
			Kind:          NoticeUnknownWidgetType,
			DashboardType: s.DashboardType(),
			Message:       unknown.Error(),
		})
		return WidgetInstance{}, unknown
	}
	props := mergeProps(def.DefaultProps, req.Props)
	props, err := normalizeProps(props)
	if err != nil {
		return WidgetInstance{}, err
	}
	if props == nil {
		props = Props{}
	}
	if err := s.opts.Validator.Validate(def, props); err != nil {
		return WidgetInstance{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return WidgetInstance{}, ErrStoreClosed
	}
	var area GridArea
	if req.GridArea != nil {
		if !req.GridArea.Valid() {
			return WidgetInstance{}, ErrInvalidGridArea
		}
		area = *req.GridArea
	} else {
		area = s.opts.Grid.FirstFit(s.layout.Widgets, def.DefaultSize)
	}
	inst := WidgetInstance{
		ID:         s.freshID(),
		WidgetType: def.Code,
		GridArea:   area,
		Props:      props,
		IsVisible:  !req.Hidden,
	}
	s.record()
	s.layout.Widgets = append(s.layout.Widgets, inst)
	s.recordTelemetry(ctx, "dashboard.widget.add", map[string]any{
		"dashboard_type": s.layout.DashboardType,
		"widget_type":    def.Code,
		"widget_id":      inst.ID,
	})
	return inst.Clone(), nil
}

func (s *Store) freshID() string {
	for {
		id := s.opts.IDs()
		if id == "" {
			continue
		}
		if _, taken := s.layout.Widget(id); !taken {
			return id
		}
	}
}

// RemoveWidget deletes the widget with id. Absent ids are a no-op and record no history.
func (s *Store) RemoveWidget(ctx context.Context, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	idx := s.indexOf(id)
	if idx < 0 {
		return false
	}
	s.record()
	widgets := make([]WidgetInstance, 0, len(s.layout.Widgets)-1)
	widgets = append(widgets, s.layout.Widgets[:idx]...)
	widgets = append(widgets, s.layout.Widgets[idx+1:]...)
	s.layout.Widgets = widgets
	s.recordTelemetry(ctx, "dashboard.widget.remove", map[string]any{
		"dashboard_type": s.layout.DashboardType,
		"widget_id":      id,
	})
	return true
}

// WidgetChanges is a partial update of a widget. Props are merged key by key;
// a nil value removes the key.
type WidgetChanges struct {
	GridArea  *GridArea `json:"gridArea,omitempty"`
	Props     Props     `json:"props,omitempty"`
	IsVisible *bool     `json:"isVisible,omitempty"`
}

// UpdateWidget merges changes into the widget with id. It returns false for absent
// ids. Changes that leave the widget as it was record no history.
func (s *Store) UpdateWidget(ctx context.Context, id string, changes WidgetChanges) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false, ErrStoreClosed
	}
	idx := s.indexOf(id)
	if idx < 0 {
		return false, nil
	}
	current := s.layout.Widgets[idx]
	next := current.Clone()
	if changes.GridArea != nil {
		if !changes.GridArea.Valid() {
			return true, ErrInvalidGridArea
		}
		next.GridArea = *changes.GridArea
	}
	if changes.IsVisible != nil {
		next.IsVisible = *changes.IsVisible
	}
	if changes.Props != nil {
		merged, err := normalizeProps(mergeProps(current.Props, changes.Props))
		if err != nil {
			return true, err
		}
		if merged == nil {
			merged = Props{}
		}
		if def, ok := s.opts.Catalog.Lookup(current.WidgetType); ok {
			if err := s.opts.Validator.Validate(def, merged); err != nil {
				return true, err
			}
		}
		next.Props = merged
	}
	if reflect.DeepEqual(current, next) {
		return true, nil
	}
	s.record()
	s.layout.Widgets[idx] = next
	s.recordTelemetry(ctx, "dashboard.widget.update", map[string]any{
		"dashboard_type": s.layout.DashboardType,
		"widget_id":      id,
	})
	return true, nil
}

// UpdateLayout replaces the whole widget collection, typically after a gesture
// that touched several widgets. It records a single history entry.
func (s *Store) UpdateLayout(ctx context.Context, widgets []WidgetInstance) error {
	if err := validateWidgets(widgets); err != nil {
		return err
	}
	next := make([]WidgetInstance, len(widgets))
	for i, w := range widgets {
		props, err := normalizeProps(w.Props)
		if err != nil {
			return fmt.Errorf("dashboard: widget %s: %w", w.ID, err)
		}
		if props == nil {
			props = Props{}
		}
		if def, ok := s.opts.Catalog.Lookup(w.WidgetType); ok {
			if err := s.opts.Validator.Validate(def, props); err != nil {
				return err
			}
		}
		w.Props = props
		next[i] = w
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreClosed
	}
	s.record()
	s.layout.Widgets = next
	s.recordTelemetry(ctx, "dashboard.layout.update", map[string]any{
		"dashboard_type": s.layout.DashboardType,
		"widgets":        len(next),
	})
	return nil
}

// Undo restores the previous snapshot. It reports false when there is nothing to undo.
func (s *Store) Undo(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	prev, ok := s.history.Undo(s.layout)
	if !ok {
		return false
	}
	s.layout = prev
	s.editSeq++
	s.recordTelemetry(ctx, "dashboard.layout.undo", map[string]any{"dashboard_type": s.layout.DashboardType})
	return true
}

// Redo re-applies the most recently undone snapshot.
func (s *Store) Redo(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	next, ok := s.history.Redo(s.layout)
	if !ok {
		return false
	}
	s.layout = next
	s.editSeq++
	s.recordTelemetry(ctx, "dashboard.layout.redo", map[string]any{"dashboard_type": s.layout.DashboardType})
	return true
}

// Save writes the current layout to storage. History is untouched. The write runs
// outside the store lock; concurrent saves are last-write-wins and only the latest
// completed save clears the dirty flag. On failure the in-memory edits stay live.
func (s *Store) Save(ctx context.Context) error {
	if s.opts.Storage == nil {
		return errMissingStorage
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrStoreClosed
	}
	if s.layout.DashboardType == "" {
		s.mu.Unlock()
		return errMissingDashboardType
	}
	snapshot := s.layout.Clone()
	seq := s.editSeq
	s.saveGen++
	gen := s.saveGen
	s.mu.Unlock()

	if err := s.opts.Storage.SaveLayout(ctx, snapshot); err != nil {
		writeErr := &PersistenceWriteError{DashboardType: snapshot.DashboardType, Err: err}
		s.logger.Error().Err(err).Str("dashboard_type", snapshot.DashboardType).Msg("layout save failed")
		s.opts.Notifier.Notify(ctx, Notice{
			Level:         NoticeError,
			Kind:          NoticePersistenceWriteFailure,
			DashboardType: snapshot.DashboardType,
			Message:       writeErr.Error(),
		})
		return writeErr
	}

	s.mu.Lock()
	if gen == s.saveGen {
		s.savedSeq = seq
	}
	s.recordTelemetry(ctx, "dashboard.layout.save", map[string]any{
		"dashboard_type": snapshot.DashboardType,
		"widgets":        len(snapshot.Widgets),
	})
	s.mu.Unlock()
	s.emitLayout(ctx, ReasonSave, snapshot)
	return nil
}

// Reset restores the built-in default layout. The pre-reset state is recorded so
// Reset can be undone; nothing is persisted until Save.
func (s *Store) Reset(ctx context.Context) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.record()
	s.layout = s.defaultLayout(s.layout.DashboardType).Clone()
	snapshot := s.layout.Clone()
	s.mu.Unlock()

	s.recordTelemetry(ctx, "dashboard.layout.reset", map[string]any{"dashboard_type": snapshot.DashboardType})
	s.emitLayout(ctx, ReasonReset, snapshot)
}

// Snapshot returns a deep copy of the current layout.
func (s *Store) Snapshot() DashboardLayout {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.layout.Clone()
}

// Widget returns a copy of the widget with id.
func (s *Store) Widget(id string) (WidgetInstance, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.layout.Widget(id)
	return w.Clone(), ok
}

// DashboardType returns the type of the loaded layout.
func (s *Store) DashboardType() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.layout.DashboardType
}

// CanUndo reports whether Undo would change the layout.
func (s *Store) CanUndo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.CanUndo()
}

// CanRedo reports whether Redo would change the layout.
func (s *Store) CanRedo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.CanRedo()
}

// HistoryDepth returns the sizes of the undo and redo stacks.
func (s *Store) HistoryDepth() (past, future int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.Depth()
}

// HistorySnapshots returns copies of the undo and redo stacks.
func (s *Store) HistorySnapshots() (past, future []DashboardLayout) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.Past(), s.history.Future()
}

// Dirty reports whether the layout changed since the last load or completed save.
func (s *Store) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.editSeq != s.savedSeq
}

// Close tears the store down. Later mutations are ignored or fail with ErrStoreClosed.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.history.Clear()
}

// record pushes the pre-mutation state; callers hold s.mu and mutate right after.
func (s *Store) record() {
	s.history.Record(s.layout)
	s.editSeq++
}

func (s *Store) indexOf(id string) int {
	for i, w := range s.layout.Widgets {
		if w.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) recordTelemetry(ctx context.Context, event string, payload map[string]any) {
	if s.opts.SessionID != "" {
		payload["session_id"] = s.opts.SessionID
	}
	s.opts.Telemetry.Record(ctx, event, payload)
}

func (s *Store) emitLayout(ctx context.Context, reason string, layout DashboardLayout) {
	event := LayoutEvent{
		DashboardType: layout.DashboardType,
		SessionID:     s.opts.SessionID,
		Reason:        reason,
		Widgets:       layout.Widgets,
	}
	if err := s.opts.Hook.LayoutChanged(ctx, event); err != nil {
		s.logger.Warn().Err(err).Str("reason", reason).Msg("layout hook failed")
	}
}

func mergeProps(base, changes Props) Props {
	if base == nil && changes == nil {
		return nil
	}
	out := base.Clone()
	if out == nil {
		out = Props{}
	}
	for k, v := range changes {
		if v == nil {
			delete(out, k)
			continue
		}
		out[k] = cloneValue(v)
	}
	return out
}

type noopLayoutHook struct{}

func (noopLayoutHook) LayoutChanged(context.Context, LayoutEvent) error { return nil }
