package dashboard

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

// NoticeLevel ranks user-visible notices.
type NoticeLevel string

const (
	NoticeWarning NoticeLevel = "warning"
	NoticeError   NoticeLevel = "error"
)

// Notice kinds map to the recoverable failures of the editor.
const (
	NoticeUnknownWidgetType       = "unknown_widget_type"
	NoticePersistenceReadFailure  = "persistence_read_failure"
	NoticePersistenceWriteFailure = "persistence_write_failure"
)

// Notice is a non-blocking message surfaced to the user.
type Notice struct {
	Level         NoticeLevel `json:"level"`
	Kind          string      `json:"kind"`
	DashboardType string      `json:"dashboardType,omitempty"`
	Message       string      `json:"message"`
}

// Notifier receives user-visible notices from stores.
type Notifier interface {
	Notify(ctx context.Context, notice Notice)
}

type noopNotifier struct{}

func (noopNotifier) Notify(context.Context, Notice) {}

// NotifierFunc adapts a function into a Notifier.
type NotifierFunc func(ctx context.Context, notice Notice)

// Notify implements Notifier.
func (f NotifierFunc) Notify(ctx context.Context, notice Notice) { f(ctx, notice) }

// MultiNotifier fans a notice out to every non-nil notifier.
type MultiNotifier []Notifier

// Notify implements Notifier.
func (m MultiNotifier) Notify(ctx context.Context, notice Notice) {
	for _, n := range m {
		if n != nil {
			n.Notify(ctx, notice)
		}
	}
}

// NoticeQueue buffers notices until a transport drains them into a response.
type NoticeQueue struct {
	mu      sync.Mutex
	notices []Notice
}

// Notify implements Notifier.
func (q *NoticeQueue) Notify(_ context.Context, notice Notice) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.notices = append(q.notices, notice)
}

// Drain returns and clears the buffered notices.
func (q *NoticeQueue) Drain() []Notice {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.notices
	q.notices = nil
	return out
}

// LogNotifier logs notices at warn/error level.
type LogNotifier struct {
	Logger zerolog.Logger
}

// Notify implements Notifier.
func (n LogNotifier) Notify(_ context.Context, notice Notice) {
	evt := n.Logger.Warn()
	if notice.Level == NoticeError {
		evt = n.Logger.Error()
	}
	evt.Str("kind", notice.Kind).Str("dashboard_type", notice.DashboardType).Msg(notice.Message)
}
