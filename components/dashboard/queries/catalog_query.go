package queries

import (
	"context"

	gocommand "github.com/goliatone/go-command"
	dashboard "github.com/goliatone/go-dashboard-editor/components/dashboard"
)

// CatalogInput carries the viewer's locale preference used for names and category labels.
type CatalogInput struct {
	Locales dashboard.Locales
}

type catalogService interface {
	Catalog(locales dashboard.Locales) []dashboard.CatalogEntry
}

// CatalogQuery lists the widgets offered by the add-widget menu.
type CatalogQuery struct {
	service catalogService
}

// NewCatalogQuery builds the query.
func NewCatalogQuery(service catalogService) *CatalogQuery {
	return &CatalogQuery{service: service}
}

var _ gocommand.Querier[CatalogInput, []dashboard.CatalogEntry] = (*CatalogQuery)(nil)

// Query lists the catalogue.
func (q *CatalogQuery) Query(_ context.Context, input CatalogInput) ([]dashboard.CatalogEntry, error) {
	return q.service.Catalog(input.Locales), nil
}
