package main

import (
	"testing"
	"time"

	"go-freight/internal/common/models"
)

func TestApplyFilterFlags(t *testing.T) {
	saved := models.FilterCriteria{}.WithCategory("origin", "Chennai").WithSearch("balaji")

	tests := []struct {
		name    string
		base    models.FilterCriteria
		search  string
		from    string
		to      string
		filters []string
		want    models.FilterCriteria
		wantErr bool
	}{
		{
			name:    "flags only",
			search:  "CN-00",
			filters: []string{"status=booked,in_transit"},
			want:    models.FilterCriteria{Search: "CN-00"}.WithCategory("status", "booked", "in_transit"),
		},
		{
			name:    "flags override saved filter",
			base:    saved,
			search:  "kaveri",
			filters: []string{"origin=Madurai"},
			want:    models.FilterCriteria{}.WithCategory("origin", "Madurai").WithSearch("kaveri"),
		},
		{
			name: "date range",
			from: "2024-03-01",
			to:   "2024-03-31",
			want: models.FilterCriteria{}.WithDateRange(
				time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
				time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)),
		},
		{
			name:    "search as filter key",
			filters: []string{"search=Vel Steel"},
			want:    models.FilterCriteria{Search: "Vel Steel"},
		},
		{name: "bad filter syntax", filters: []string{"status"}, wantErr: true},
		{name: "bad date", from: "01/03/2024", wantErr: true},
		{name: "reversed range", from: "2024-03-31", to: "2024-03-01", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := applyFilterFlags(tt.base, tt.search, tt.from, tt.to, tt.filters)
			if tt.wantErr {
				if err == nil {
					t.Errorf("Expected error, got %v", got)
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
}

func TestApplyFilterFlagsLeavesBaseUntouched(t *testing.T) {
	base := models.FilterCriteria{}.WithCategory("status", "booked")
	if _, err := applyFilterFlags(base, "x", "", "", []string{"status=delivered"}); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if got := base.Categories["status"]; len(got) != 1 || got[0] != "booked" {
		t.Errorf("Expected base unchanged, got %v", got)
	}
}

func TestFormatCell(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{nil, ""},
		{"2024-03-05T00:00:00Z", "2024-03-05"},
		{"Chennai", "Chennai"},
		{float64(1234567), "1,234,567"},
		{true, "true"},
	}
	for _, tt := range tests {
		if got := formatCell(tt.in); got != tt.want {
			t.Errorf("formatCell(%v): expected %q, got %q", tt.in, tt.want, got)
		}
	}
}
