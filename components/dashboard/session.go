package dashboard

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// DefaultSessionTTL evicts sessions that have not been touched for this long.
const DefaultSessionTTL = 30 * time.Minute

// SessionOptions configures a Sessions manager. Store is the template every
// session's store is built from; SessionID and Notifier are filled per session.
type SessionOptions struct {
	Store  StoreOptions
	Drag   DragOptions
	TTL    time.Duration
	Now    func() time.Time
	IDs    func() string
	Logger *zerolog.Logger
}

// Session is one mounted dashboard page: its store, its drag controller and its edit mode.
type Session struct {
	ID      string
	Store   *Store
	Drag    *DragController
	Notices *NoticeQueue

	mu       sync.Mutex
	editMode bool
	editType string
	lastSeen time.Time
}

// EditMode reports whether layout mutations are allowed. Edit mode is granted for
// one dashboard type; loading another type drops it.
func (s *Session) EditMode() bool {
	current := s.Store.DashboardType()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.editMode && s.editType != current {
		s.editMode = false
		s.editType = ""
	}
	return s.editMode
}

// SetEditMode toggles edit mode for the dashboard type currently loaded. Leaving
// edit mode abandons any in-flight gesture.
func (s *Session) SetEditMode(on bool) {
	current := s.Store.DashboardType()
	s.mu.Lock()
	s.editMode = on
	s.editType = ""
	if on {
		s.editType = current
	}
	s.mu.Unlock()
	if !on {
		s.Drag.Cancel()
	}
}

// RequireEdit returns ErrReadOnly outside edit mode.
func (s *Session) RequireEdit() error {
	if !s.EditMode() {
		return ErrReadOnly
	}
	return nil
}

// LastSeen returns the last time the session was opened or looked up.
func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// SessionState is the toolbar and canvas view of a session.
type SessionState struct {
	SessionID     string          `json:"sessionId"`
	DashboardType string          `json:"dashboardType"`
	EditMode      bool            `json:"editMode"`
	Layout        DashboardLayout `json:"layout"`
	CanUndo       bool            `json:"canUndo"`
	CanRedo       bool            `json:"canRedo"`
	Dirty         bool            `json:"dirty"`
	Drag          DragFeedback    `json:"drag"`
	Notices       []Notice        `json:"notices,omitempty"`
}

// State snapshots the session. Queued notices are handed over and cleared when drain is set.
func (s *Session) State(drain bool) SessionState {
	state := SessionState{
		SessionID:     s.ID,
		DashboardType: s.Store.DashboardType(),
		EditMode:      s.EditMode(),
		Layout:        s.Store.Snapshot(),
		CanUndo:       s.Store.CanUndo(),
		CanRedo:       s.Store.CanRedo(),
		Dirty:         s.Store.Dirty(),
		Drag:          s.Drag.Feedback(),
	}
	if drain {
		state.Notices = s.Notices.Drain()
	}
	return state
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) close() {
	s.Drag.Cancel()
	s.Store.Close()
}

// Sessions tracks open dashboard pages. Each page gets its own Store; there is no
// shared layout state between sessions other than storage.
type Sessions struct {
	mu       sync.RWMutex
	opts     SessionOptions
	logger   zerolog.Logger
	sessions map[string]*Session
}

// NewSessions builds a manager with safe defaults.
func NewSessions(opts SessionOptions) *Sessions {
	if opts.TTL <= 0 {
		opts.TTL = DefaultSessionTTL
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.IDs == nil {
		opts.IDs = func() string { return uuid.NewString() }
	}
	if opts.Store.Catalog == nil {
		opts.Store.Catalog = NewRegistry()
	}
	if opts.Store.Validator == nil {
		opts.Store.Validator = NewJSONSchemaValidator()
	}
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	if opts.Store.Logger == nil {
		opts.Store.Logger = &logger
	}
	return &Sessions{
		opts:     opts,
		logger:   logger.With().Str("component", "sessions").Logger(),
		sessions: make(map[string]*Session),
	}
}

// Catalog returns the widget catalogue shared by every session.
func (m *Sessions) Catalog() WidgetCatalog { return m.opts.Store.Catalog }

// Storage returns the layout storage shared by every session.
func (m *Sessions) Storage() LayoutStorage { return m.opts.Store.Storage }

// Open mounts a page for dashboardType and loads its layout.
func (m *Sessions) Open(ctx context.Context, dashboardType string) (*Session, error) {
	id := m.opts.IDs()
	notices := &NoticeQueue{}
	storeOpts := m.opts.Store
	storeOpts.SessionID = id
	storeOpts.Notifier = MultiNotifier{m.opts.Store.Notifier, notices}
	store, err := OpenStore(ctx, storeOpts, dashboardType)
	if err != nil {
		return nil, err
	}
	sess := &Session{
		ID:       id,
		Store:    store,
		Drag:     NewDragController(store, m.opts.Drag),
		Notices:  notices,
		lastSeen: m.opts.Now(),
	}
	m.mu.Lock()
	m.sessions[id] = sess
	m.mu.Unlock()
	m.logger.Debug().Str("session_id", id).Str("dashboard_type", dashboardType).Msg("session opened")
	return sess, nil
}

// Get returns an open session and marks it as recently used.
func (m *Sessions) Get(id string) (*Session, error) {
	m.mu.RLock()
	sess, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	sess.touch(m.opts.Now())
	return sess, nil
}

// Close unmounts a session. Any in-flight drag is dropped without a commit.
func (m *Sessions) Close(id string) error {
	m.mu.Lock()
	sess, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}
	sess.close()
	m.logger.Debug().Str("session_id", id).Msg("session closed")
	return nil
}

// Sweep closes sessions idle for longer than the TTL and returns how many were evicted.
func (m *Sessions) Sweep(now time.Time) int {
	var expired []*Session
	m.mu.Lock()
	for id, sess := range m.sessions {
		if now.Sub(sess.LastSeen()) > m.opts.TTL {
			expired = append(expired, sess)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()
	for _, sess := range expired {
		if sess.Store.Dirty() {
			m.logger.Info().Str("session_id", sess.ID).Msg("evicting session with unsaved edits")
		}
		sess.close()
	}
	return len(expired)
}

// RunSweeper calls Sweep every interval until ctx is done.
func (m *Sessions) RunSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = m.opts.TTL / 2
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := m.Sweep(m.opts.Now()); n > 0 {
				m.logger.Debug().Int("evicted", n).Msg("session sweep")
			}
		}
	}
}

// IDs lists open session ids in sorted order.
func (m *Sessions) IDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// CloseAll closes every session.
func (m *Sessions) CloseAll() {
	m.mu.Lock()
	all := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()
	for _, sess := range all {
		sess.close()
	}
}
