package models

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"
)

// DateLayout is the wire format for the inclusive date range bounds.
const DateLayout = "2006-01-02"

// Reserved query parameter names. Everything else in a list query string is
// treated as a categorical filter.
const (
	ParamSearch = "search"
	ParamFrom   = "from"
	ParamTo     = "to"
	ParamPage   = "page"
	ParamLimit  = "limit"
)

var ErrInvalidDateRange = errors.New("date range start is after its end")

// FilterCriteria is the set of active filter dimensions of a list screen.
// Treat it as a value: the With* helpers return modified copies and never
// touch the receiver. The zero value matches every record.
type FilterCriteria struct {
	Search     string              `json:"search,omitempty" bson:"search,omitempty"`
	DateFrom   time.Time           `json:"date_from,omitempty" bson:"date_from,omitempty"`
	DateTo     time.Time           `json:"date_to,omitempty" bson:"date_to,omitempty"`
	Categories map[string][]string `json:"categories,omitempty" bson:"categories,omitempty"`
}

// IsEmpty reports whether no filter dimension is set.
func (f FilterCriteria) IsEmpty() bool {
	if strings.TrimSpace(f.Search) != "" || !f.DateFrom.IsZero() || !f.DateTo.IsZero() {
		return false
	}
	for _, vals := range f.Categories {
		if len(nonBlank(vals)) > 0 {
			return false
		}
	}
	return true
}

// Equal compares two criteria structurally. Category value order, blank
// values and surrounding whitespace in the search text are ignored.
func (f FilterCriteria) Equal(o FilterCriteria) bool {
	a, b := f.normalized(), o.normalized()
	if a.Search != b.Search || !a.DateFrom.Equal(b.DateFrom) || !a.DateTo.Equal(b.DateTo) {
		return false
	}
	if len(a.Categories) != len(b.Categories) {
		return false
	}
	for k, av := range a.Categories {
		bv, ok := b.Categories[k]
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if av[i] != bv[i] {
				return false
			}
		}
	}
	return true
}

// Clone returns a deep copy.
func (f FilterCriteria) Clone() FilterCriteria {
	out := FilterCriteria{Search: f.Search, DateFrom: f.DateFrom, DateTo: f.DateTo}
	if len(f.Categories) > 0 {
		out.Categories = make(map[string][]string, len(f.Categories))
		for k, v := range f.Categories {
			out.Categories[k] = append([]string(nil), v...)
		}
	}
	return out
}

func (f FilterCriteria) WithSearch(search string) FilterCriteria {
	out := f.Clone()
	out.Search = search
	return out
}

// WithDateRange sets the inclusive range; a zero bound leaves that side open.
func (f FilterCriteria) WithDateRange(from, to time.Time) FilterCriteria {
	out := f.Clone()
	out.DateFrom = truncateDay(from)
	out.DateTo = truncateDay(to)
	return out
}

// WithCategory sets the values of one categorical filter. No values removes it.
func (f FilterCriteria) WithCategory(key string, values ...string) FilterCriteria {
	out := f.Clone()
	values = nonBlank(values)
	if len(values) == 0 {
		delete(out.Categories, key)
		if len(out.Categories) == 0 {
			out.Categories = nil
		}
		return out
	}
	if out.Categories == nil {
		out.Categories = make(map[string][]string)
	}
	out.Categories[key] = values
	return out
}

// Validate checks the date range ordering.
func (f FilterCriteria) Validate() error {
	if !f.DateFrom.IsZero() && !f.DateTo.IsZero() && f.DateFrom.After(f.DateTo) {
		return ErrInvalidDateRange
	}
	return nil
}

// QueryParams encodes the criteria for a list request. Dimensions at their
// default value are omitted instead of being sent as match-all values, and
// each category value is its own repeated parameter.
func (f FilterCriteria) QueryParams() url.Values {
	n := f.normalized()
	params := url.Values{}
	if n.Search != "" {
		params.Set(ParamSearch, n.Search)
	}
	if !n.DateFrom.IsZero() {
		params.Set(ParamFrom, n.DateFrom.Format(DateLayout))
	}
	if !n.DateTo.IsZero() {
		params.Set(ParamTo, n.DateTo.Format(DateLayout))
	}
	for k, vals := range n.Categories {
		for _, v := range vals {
			params.Add(k, v)
		}
	}
	return params
}

// ParseFilterCriteria is the inverse of QueryParams. Reserved keys (page,
// limit and any listed in skip) are not treated as categories.
func ParseFilterCriteria(params url.Values, skip ...string) (FilterCriteria, error) {
	reserved := map[string]bool{ParamSearch: true, ParamFrom: true, ParamTo: true, ParamPage: true, ParamLimit: true}
	for _, s := range skip {
		reserved[s] = true
	}

	var f FilterCriteria
	f.Search = strings.TrimSpace(params.Get(ParamSearch))

	var err error
	if v := strings.TrimSpace(params.Get(ParamFrom)); v != "" {
		if f.DateFrom, err = time.Parse(DateLayout, v); err != nil {
			return FilterCriteria{}, fmt.Errorf("invalid 'from' date %q: %w", v, err)
		}
	}
	if v := strings.TrimSpace(params.Get(ParamTo)); v != "" {
		if f.DateTo, err = time.Parse(DateLayout, v); err != nil {
			return FilterCriteria{}, fmt.Errorf("invalid 'to' date %q: %w", v, err)
		}
	}

	for k, raw := range params {
		if reserved[k] {
			continue
		}
		f = f.WithCategory(k, raw...)
	}

	if err := f.Validate(); err != nil {
		return FilterCriteria{}, err
	}
	return f, nil
}

// String renders a compact, stable description for logs and CLI output.
func (f FilterCriteria) String() string {
	if f.IsEmpty() {
		return "(all)"
	}
	return f.QueryParams().Encode()
}

func (f FilterCriteria) normalized() FilterCriteria {
	out := FilterCriteria{
		Search:   strings.TrimSpace(f.Search),
		DateFrom: truncateDay(f.DateFrom),
		DateTo:   truncateDay(f.DateTo),
	}
	for k, v := range f.Categories {
		vals := nonBlank(v)
		if len(vals) == 0 {
			continue
		}
		sort.Strings(vals)
		if out.Categories == nil {
			out.Categories = make(map[string][]string)
		}
		out.Categories[k] = vals
	}
	return out
}

func nonBlank(vals []string) []string {
	var out []string
	seen := make(map[string]bool, len(vals))
	for _, v := range vals {
		v = strings.TrimSpace(v)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

func truncateDay(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// PageResult is one page of a paged search.
type PageResult[T any] struct {
	Items      []T   `json:"data"`
	TotalItems int64 `json:"total"`
	TotalPages int   `json:"pages"`
}

// TotalPagesFor returns ceil(total/limit), 0 for an empty result.
func TotalPagesFor(total int64, limit int) int {
	if total <= 0 || limit <= 0 {
		return 0
	}
	return int((total + int64(limit) - 1) / int64(limit))
}

// ResolveRequest is the payload of a bulk-resolve call: either an explicit id
// list, or a filter to re-execute server side minus the excluded ids.
type ResolveRequest struct {
	IDs        []string        `json:"ids,omitempty" bson:"ids,omitempty"`
	Filters    *FilterCriteria `json:"filters,omitempty" bson:"filters,omitempty"`
	ExcludeIDs []string        `json:"exclude_ids,omitempty" bson:"exclude_ids,omitempty"`
}

var (
	ErrAmbiguousResolve = errors.New("resolve request must carry either ids or filters, not both")
	ErrEmptyResolve     = errors.New("resolve request carries neither ids nor filters")
)

// Validate enforces that exactly one of the two forms is used.
func (r ResolveRequest) Validate() error {
	hasIDs := len(r.IDs) > 0
	hasFilter := r.Filters != nil
	switch {
	case hasIDs && hasFilter:
		return ErrAmbiguousResolve
	case !hasIDs && !hasFilter:
		return ErrEmptyResolve
	case hasIDs && len(r.ExcludeIDs) > 0:
		return ErrAmbiguousResolve
	}
	return nil
}
