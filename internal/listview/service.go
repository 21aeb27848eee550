package listview

import (
	"context"

	"go-freight/internal/common/models"
)

// IDEnumerator lists every identifier matching a filter, unpaged.
type IDEnumerator interface {
	EnumerateIDs(ctx context.Context, criteria models.FilterCriteria) ([]string, error)
}

// SearchService is the backend search contract for one resource.
type SearchService[T any] interface {
	IDEnumerator

	// Search returns one page (1-based) of records matching criteria.
	Search(ctx context.Context, criteria models.FilterCriteria, page, limit int) (models.PageResult[T], error)

	// Resolve returns the full records for exactly the logical items described
	// by req.
	Resolve(ctx context.Context, req models.ResolveRequest) ([]T, error)
}

// IDFunc extracts the primary identifier of a row.
type IDFunc[T any] func(T) string
