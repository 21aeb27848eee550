package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go-freight/internal/common/models"

	"github.com/spf13/cobra"
)

// filterFlags are the criteria flags shared by every command that lists.
type filterFlags struct {
	search  string
	from    string
	to      string
	filters []string
	saved   string
}

func (f *filterFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.search, "search", "s", "", "free text search")
	cmd.Flags().StringVar(&f.from, "from", "", "first day, YYYY-MM-DD")
	cmd.Flags().StringVar(&f.to, "to", "", "last day, YYYY-MM-DD")
	cmd.Flags().StringArrayVarP(&f.filters, "filter", "f", nil, "category filter key=v1,v2 (repeatable)")
	cmd.Flags().StringVar(&f.saved, "saved", "", "start from a saved filter")
}

// criteria builds the filter, starting from the saved filter if one was named.
func (f *filterFlags) criteria(ctx context.Context) (models.FilterCriteria, error) {
	var base models.FilterCriteria
	if f.saved != "" {
		var err error
		if base, err = api.SavedFilter(ctx, resource, f.saved); err != nil {
			return models.FilterCriteria{}, fmt.Errorf("saved filter %q: %w", f.saved, err)
		}
	}
	return applyFilterFlags(base, f.search, f.from, f.to, f.filters)
}

func applyFilterFlags(base models.FilterCriteria, search, from, to string, filters []string) (models.FilterCriteria, error) {
	c := base.Clone()
	if search != "" {
		c = c.WithSearch(search)
	}

	if from != "" || to != "" {
		start, end := c.DateFrom, c.DateTo
		var err error
		if from != "" {
			if start, err = time.Parse(models.DateLayout, from); err != nil {
				return models.FilterCriteria{}, fmt.Errorf("invalid --from %q: %w", from, err)
			}
		}
		if to != "" {
			if end, err = time.Parse(models.DateLayout, to); err != nil {
				return models.FilterCriteria{}, fmt.Errorf("invalid --to %q: %w", to, err)
			}
		}
		c = c.WithDateRange(start, end)
	}

	for _, raw := range filters {
		key, vals, ok := strings.Cut(raw, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return models.FilterCriteria{}, fmt.Errorf("invalid --filter %q, want key=v1,v2", raw)
		}
		if key == models.ParamSearch {
			c = c.WithSearch(strings.TrimSpace(vals))
			continue
		}
		c = c.WithCategory(key, strings.Split(vals, ",")...)
	}

	if err := c.Validate(); err != nil {
		return models.FilterCriteria{}, err
	}
	return c, nil
}

// narrowCriteria adds the --exclude-filtered terms on top of base so the
// result only matches records base matches. A category already in base keeps
// the values both sides allow; a second, different search cannot be combined.
func narrowCriteria(base models.FilterCriteria, terms []string) (models.FilterCriteria, error) {
	c := base.Clone()
	for _, raw := range terms {
		key, vals, ok := strings.Cut(raw, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return models.FilterCriteria{}, fmt.Errorf("invalid --exclude-filtered %q, want key=v1,v2", raw)
		}

		if key == models.ParamSearch {
			search := strings.TrimSpace(vals)
			if c.Search != "" && !strings.EqualFold(c.Search, search) {
				return models.FilterCriteria{}, fmt.Errorf("--exclude-filtered %q cannot replace the search %q of the selection", raw, c.Search)
			}
			c = c.WithSearch(search)
			continue
		}

		values := strings.Split(vals, ",")
		if have, ok := c.Categories[key]; ok {
			values = intersect(have, values)
			if len(values) == 0 {
				return models.FilterCriteria{}, fmt.Errorf("--exclude-filtered %q matches nothing in the selection", raw)
			}
		}
		c = c.WithCategory(key, values...)
	}
	return c, nil
}

func intersect(have, want []string) []string {
	allowed := make(map[string]bool, len(have))
	for _, v := range have {
		allowed[strings.TrimSpace(v)] = true
	}
	var out []string
	for _, v := range want {
		if v = strings.TrimSpace(v); allowed[v] {
			out = append(out, v)
		}
	}
	return out
}
