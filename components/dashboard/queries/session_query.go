package queries

import (
	"context"

	gocommand "github.com/goliatone/go-command"
	dashboard "github.com/goliatone/go-dashboard-editor/components/dashboard"
)

// SessionStateInput identifies the session to snapshot.
type SessionStateInput struct {
	SessionID    string
	DrainNotices bool
}

type sessionService interface {
	Session(id string) (*dashboard.Session, error)
}

// SessionStateQuery returns the layout, history flags and drag feedback of a session.
type SessionStateQuery struct {
	service sessionService
}

// NewSessionStateQuery builds the query.
func NewSessionStateQuery(service sessionService) *SessionStateQuery {
	return &SessionStateQuery{service: service}
}

var _ gocommand.Querier[SessionStateInput, dashboard.SessionState] = (*SessionStateQuery)(nil)

// Query snapshots the session.
func (q *SessionStateQuery) Query(_ context.Context, input SessionStateInput) (dashboard.SessionState, error) {
	sess, err := q.service.Session(input.SessionID)
	if err != nil {
		return dashboard.SessionState{}, err
	}
	return sess.State(input.DrainNotices), nil
}
