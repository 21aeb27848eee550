package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"go-freight/internal/common/models"
	"go-freight/internal/listview"
)

// SearchClient is a listview.SearchService over the list endpoints of one
// resource.
type SearchClient[T any] struct {
	client   *Client
	resource string
}

var _ listview.SearchService[models.Record] = (*SearchClient[models.Record])(nil)

func NewSearchClient[T any](c *Client, resource string) *SearchClient[T] {
	return &SearchClient[T]{client: c, resource: resource}
}

func (s *SearchClient[T]) path(suffix string) string {
	return "/api/lists/" + url.PathEscape(s.resource) + suffix
}

func (s *SearchClient[T]) Search(ctx context.Context, criteria models.FilterCriteria, page, limit int) (models.PageResult[T], error) {
	q := criteria.QueryParams()
	q.Set(models.ParamPage, strconv.Itoa(page))
	q.Set(models.ParamLimit, strconv.Itoa(limit))

	var out models.PageResult[T]
	if err := s.client.do(ctx, http.MethodGet, s.path(""), q, nil, &out); err != nil {
		return models.PageResult[T]{}, fmt.Errorf("search %s: %w", s.resource, err)
	}
	return out, nil
}

func (s *SearchClient[T]) EnumerateIDs(ctx context.Context, criteria models.FilterCriteria) ([]string, error) {
	var out struct {
		IDs []string `json:"ids"`
	}
	if err := s.client.do(ctx, http.MethodGet, s.path("/ids"), criteria.QueryParams(), nil, &out); err != nil {
		return nil, fmt.Errorf("enumerate %s: %w", s.resource, err)
	}
	return out.IDs, nil
}

func (s *SearchClient[T]) Resolve(ctx context.Context, req models.ResolveRequest) ([]T, error) {
	var out struct {
		Data []T `json:"data"`
	}
	if err := s.client.do(ctx, http.MethodPost, s.path("/resolve"), nil, req, &out); err != nil {
		return nil, fmt.Errorf("resolve %s: %w", s.resource, err)
	}
	return out.Data, nil
}
