package main

import (
	"context"
	"fmt"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"

	"go-freight/internal/client"
	"go-freight/internal/common/models"
	"go-freight/internal/config"
	"go-freight/internal/features/listing"
	"go-freight/internal/listview"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
)

// MockListing serves CN-0001..CN-00NN; odd numbers are booked, even delivered.
type MockListing struct {
	records []models.Record
}

func newMockListing(n int) *MockListing {
	m := &MockListing{}
	for i := 1; i <= n; i++ {
		status := "delivered"
		if i%2 == 1 {
			status = "booked"
		}
		m.records = append(m.records, models.Record{
			"id":        fmt.Sprintf("%024x", i),
			"cn_number": fmt.Sprintf("CN-%04d", i),
			"status":    status,
		})
	}
	return m
}

func (m *MockListing) match(c models.FilterCriteria) []models.Record {
	var out []models.Record
	for _, r := range m.records {
		if c.Search != "" && !strings.Contains(r["cn_number"].(string), c.Search) {
			continue
		}
		if want := c.Categories["status"]; len(want) > 0 && !slices.Contains(want, r["status"].(string)) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func (m *MockListing) Search(ctx context.Context, resource string, c models.FilterCriteria, page, limit int) (models.PageResult[models.Record], error) {
	all := m.match(c)
	start := min((page-1)*limit, len(all))
	end := min(start+limit, len(all))
	return models.PageResult[models.Record]{
		Items:      append([]models.Record{}, all[start:end]...),
		TotalItems: int64(len(all)),
		TotalPages: models.TotalPagesFor(int64(len(all)), limit),
	}, nil
}

func (m *MockListing) EnumerateIDs(ctx context.Context, resource string, c models.FilterCriteria) ([]string, error) {
	ids := []string{}
	for _, r := range m.match(c) {
		ids = append(ids, r.ID())
	}
	return ids, nil
}

func (m *MockListing) Resolve(ctx context.Context, resource string, req models.ResolveRequest) ([]models.Record, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	var out []models.Record
	if req.Filters == nil {
		for _, r := range m.records {
			if slices.Contains(req.IDs, r.ID()) {
				out = append(out, r)
			}
		}
		return out, nil
	}
	for _, r := range m.match(*req.Filters) {
		if !slices.Contains(req.ExcludeIDs, r.ID()) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *MockListing) Get(ctx context.Context, resource, id string) (models.Record, error) {
	return nil, listing.ErrNotFound
}
func (m *MockListing) SoftDelete(ctx context.Context, resource string, ids []string, userID string) (int64, error) {
	return int64(len(ids)), nil
}
func (m *MockListing) MarkExcluded(ctx context.Context, resource string, ids []string, userID string) (int64, error) {
	return int64(len(ids)), nil
}

// useTestServer points the CLI globals at a listing API backed by svc.
func useTestServer(t *testing.T, svc listing.ListingService) {
	t.Helper()
	app := fiber.New()
	listing.NewListingApi(listing.NewListingController(svc), &config.Config{SkipAuth: true}).Setup(app)
	srv := httptest.NewServer(adaptor.FiberApp(app))
	t.Cleanup(srv.Close)

	prevAPI, prevResource, prevPageSize := api, resource, pageSize
	api = client.New(srv.URL, "")
	resource = "consignments"
	pageSize = 10
	t.Cleanup(func() { api, resource, pageSize = prevAPI, prevResource, prevPageSize })
}

func TestBuildSelectionCountMatchesServer(t *testing.T) {
	booked := models.FilterCriteria{}.WithCategory("status", "booked")

	tests := []struct {
		name     string
		criteria models.FilterCriteria
		flags    selectionFlags
		want     int64
	}{
		{
			name:     "all matching",
			criteria: booked,
			flags:    selectionFlags{all: true},
			want:     15,
		},
		{
			// CN-0011, 13, 15, 17 and 19 are the booked records matching CN-001
			name:     "exclude by search inside the selection",
			criteria: booked,
			flags:    selectionFlags{all: true, excludeFiltered: []string{"search=CN-001"}},
			want:     10,
		},
		{
			name:     "exclude by a wider category",
			criteria: booked,
			flags:    selectionFlags{all: true, excludeFiltered: []string{"status=booked,delivered", "search=CN-002"}},
			want:     10,
		},
		{
			name:     "manual selection minus filter",
			criteria: models.FilterCriteria{},
			flags: selectionFlags{
				ids:             []string{fmt.Sprintf("%024x", 1), fmt.Sprintf("%024x", 2), fmt.Sprintf("%024x", 12)},
				excludeFiltered: []string{"search=CN-001"},
			},
			want: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newMockListing(30)
			useTestServer(t, svc)

			res, err := buildSelection(context.Background(), tt.criteria, &tt.flags)
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if res.Count != tt.want {
				t.Errorf("Expected count %d, got %d", tt.want, res.Count)
			}

			resolved, err := svc.Resolve(context.Background(), resource, res.Request())
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if int64(len(resolved)) != res.Count {
				t.Errorf("Expected the server to resolve the %d records shown, got %d", res.Count, len(resolved))
			}
		})
	}
}

func TestBuildSelectionRejectsDisjointExclusion(t *testing.T) {
	useTestServer(t, newMockListing(30))
	criteria := models.FilterCriteria{}.WithCategory("status", "booked")
	flags := selectionFlags{all: true, excludeFiltered: []string{"status=delivered"}}

	if _, err := buildSelection(context.Background(), criteria, &flags); err == nil {
		t.Error("Expected an error for an exclusion outside the selection")
	}
}

func TestBuildSelectionNothingToExclude(t *testing.T) {
	useTestServer(t, newMockListing(30))
	criteria := models.FilterCriteria{}.WithCategory("status", "booked")
	flags := selectionFlags{all: true, excludeFiltered: []string{"search=CN-9"}}

	res, err := buildSelection(context.Background(), criteria, &flags)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if res.Count != 15 || len(res.ExcludeIDs) != 0 {
		t.Errorf("Expected the selection untouched, got count %d excluding %v", res.Count, res.ExcludeIDs)
	}
	if res.Mode != listview.ModeAllMatching {
		t.Errorf("Expected all-matching mode, got %s", res.Mode)
	}
}

func TestNarrowCriteria(t *testing.T) {
	base := models.FilterCriteria{}.WithCategory("status", "booked", "in_transit").WithCategory("origin", "Chennai, TN")

	tests := []struct {
		name    string
		base    models.FilterCriteria
		terms   []string
		want    models.FilterCriteria
		wantErr bool
	}{
		{
			name:  "adds search to the selection filter",
			base:  base,
			terms: []string{"search=CN-001"},
			want:  base.WithSearch("CN-001"),
		},
		{
			name:  "intersects a category already filtered",
			base:  base,
			terms: []string{"status=booked,delivered"},
			want:  base.WithCategory("status", "booked"),
		},
		{
			name:  "adds a new category",
			base:  base,
			terms: []string{"destination=Madurai"},
			want:  base.WithCategory("destination", "Madurai"),
		},
		{
			name:    "disjoint category",
			base:    base,
			terms:   []string{"status=delivered"},
			wantErr: true,
		},
		{
			name:    "different search",
			base:    base.WithSearch("balaji"),
			terms:   []string{"search=kaveri"},
			wantErr: true,
		},
		{
			name:    "malformed term",
			base:    base,
			terms:   []string{"status"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := narrowCriteria(tt.base, tt.terms)
			if tt.wantErr {
				if err == nil {
					t.Errorf("Expected an error, got %s", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("Expected %s, got %s", tt.want, got)
			}
		})
	}

	before := base.Clone()
	_, _ = narrowCriteria(base, []string{"status=booked"})
	if !base.Equal(before) {
		t.Errorf("Expected base untouched, got %s", base)
	}
}
