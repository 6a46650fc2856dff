// Package catalog defines the entity-search backend for suggestions.
package catalog

import (
	"context"

	"github.com/weboliver/collectsearch/internal/models"
)

// Filters restricts a catalog search to a parent context. Zero values mean
// unfiltered. An empty query combined with a filter is a wildcard browse:
// all children of that parent, capped by limit.
type Filters struct {
	SetName  string `json:"set_name,omitempty"`
	Category string `json:"category,omitempty"`
}

// Searcher exposes one search call per entity kind. Implementations return
// candidate suggestions in their own order; client-side ranking reorders
// them. A rejected call is treated uniformly as a fetch failure upstream.
type Searcher interface {
	SearchSets(ctx context.Context, query string, f Filters, limit int) ([]models.Suggestion, error)
	SearchCards(ctx context.Context, query string, f Filters, limit int) ([]models.Suggestion, error)
	SearchProducts(ctx context.Context, query string, f Filters, limit int) ([]models.Suggestion, error)
	SearchCategories(ctx context.Context, query string, f Filters, limit int) ([]models.Suggestion, error)
	SearchSetProducts(ctx context.Context, query string, f Filters, limit int) ([]models.Suggestion, error)
}

// Search dispatches to the call matching kind.
func Search(ctx context.Context, s Searcher, kind models.Kind, query string, f Filters, limit int) ([]models.Suggestion, error) {
	switch kind {
	case models.KindSet:
		return s.SearchSets(ctx, query, f, limit)
	case models.KindCard:
		return s.SearchCards(ctx, query, f, limit)
	case models.KindProduct:
		return s.SearchProducts(ctx, query, f, limit)
	case models.KindCategory:
		return s.SearchCategories(ctx, query, f, limit)
	case models.KindSetProduct:
		return s.SearchSetProducts(ctx, query, f, limit)
	default:
		return nil, nil
	}
}
