package queries

import (
	"context"

	gocommand "github.com/goliatone/go-command"
	dashboard "github.com/goliatone/go-dashboard-editor/components/dashboard"
)

// StoredLayout is a persisted layout, or the default when Stored is false.
type StoredLayout struct {
	Layout dashboard.DashboardLayout `json:"layout"`
	Stored bool                      `json:"stored"`
}

type exportService interface {
	ExportLayout(ctx context.Context, dashboardType string) (dashboard.DashboardLayout, bool, error)
}

// StoredLayoutQuery reads a dashboard type's layout straight from storage.
type StoredLayoutQuery struct {
	service exportService
}

// NewStoredLayoutQuery builds the query.
func NewStoredLayoutQuery(service exportService) *StoredLayoutQuery {
	return &StoredLayoutQuery{service: service}
}

var _ gocommand.Querier[string, StoredLayout] = (*StoredLayoutQuery)(nil)

// Query loads the layout for dashboardType.
func (q *StoredLayoutQuery) Query(ctx context.Context, dashboardType string) (StoredLayout, error) {
	layout, stored, err := q.service.ExportLayout(ctx, dashboardType)
	if err != nil {
		return StoredLayout{}, err
	}
	return StoredLayout{Layout: layout, Stored: stored}, nil
}

type listService interface {
	ListLayouts(ctx context.Context) ([]string, error)
}

// ListLayoutsQuery lists dashboard types with a saved layout.
type ListLayoutsQuery struct {
	service listService
}

// NewListLayoutsQuery builds the query.
func NewListLayoutsQuery(service listService) *ListLayoutsQuery {
	return &ListLayoutsQuery{service: service}
}

var _ gocommand.Querier[struct{}, []string] = (*ListLayoutsQuery)(nil)

// Query lists the stored dashboard types.
func (q *ListLayoutsQuery) Query(ctx context.Context, _ struct{}) ([]string, error) {
	return q.service.ListLayouts(ctx)
}
