package listview

import (
	"context"
	"errors"
	"sync"
	"time"

	"go-freight/internal/common/models"

	"go.uber.org/zap"
)

// Config tunes a Screen.
type Config struct {
	PageSize    int
	QuietPeriod time.Duration
	Logger      *zap.Logger
	// OnUpdate runs after every applied page load (success or failure). It
	// must not block for long; it is the render hook.
	OnUpdate func()
}

// Screen is the state owned by one list screen: filter input, the committed
// query, the visible page and the selection. Construct one per mounted list
// and Close it on teardown, which aborts every pending request.
type Screen[T any] struct {
	svc    SearchService[T]
	idOf   IDFunc[T]
	logger *zap.Logger
	notify func()

	ctx    context.Context
	cancel context.CancelFunc

	query    *DebouncedQuery
	fetcher  *PageFetcher[T]
	engine   *SelectionEngine
	resolver *BulkResolver[T]

	mu       sync.Mutex
	raw      models.FilterCriteria
	page     int
	pageSize int
	rows     []T
	total    int64
	pages    int
	totalFor models.FilterCriteria
	loaded   bool
	lastErr  error
	closed   bool
}

// NewScreen mounts a screen over svc. Nothing is fetched until Load, SetPage
// or a filter commit.
func NewScreen[T any](svc SearchService[T], idOf IDFunc[T], cfg Config) *Screen[T] {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	pageSize := cfg.PageSize
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Screen[T]{
		svc:      svc,
		idOf:     idOf,
		logger:   logger,
		notify:   cfg.OnUpdate,
		ctx:      ctx,
		cancel:   cancel,
		fetcher:  NewPageFetcher[T](svc, logger),
		engine:   NewSelectionEngine(logger),
		resolver: NewBulkResolver[T](svc, logger),
		page:     1,
		pageSize: pageSize,
	}
	s.query = NewDebouncedQuery(models.FilterCriteria{}, cfg.QuietPeriod, s.onCommit, logger)
	return s
}

// SetFilter records a raw filter edit. The list reloads from page 1 once the
// input has been quiet for the debounce period.
func (s *Screen[T]) SetFilter(c models.FilterCriteria) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.raw = c.Clone()
	s.mu.Unlock()
	s.query.Update(c)
}

// ClearFilters resets the filter to match everything, commits immediately
// and starts a fresh selection.
func (s *Screen[T]) ClearFilters() {
	s.engine.Clear()
	s.SetFilter(models.FilterCriteria{})
	s.query.Flush()
}

// CommitNow skips the remaining quiet period of a pending edit.
func (s *Screen[T]) CommitNow() { s.query.Flush() }

func (s *Screen[T]) onCommit(models.FilterCriteria) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.page = 1
	s.mu.Unlock()

	if err := s.Load(); err != nil && !errors.Is(err, ErrRequestCanceled) {
		s.logger.Debug("load after filter commit failed", zap.Error(err))
	}
}

// Load fetches the current page for the committed filter and blocks until it
// is applied or superseded.
func (s *Screen[T]) Load() error {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return ErrScreenClosed
	}
	return s.fetcher.FetchCurrent(s.ctx, s.currentQuery, s.apply)
}

// currentQuery reads the page to load. It runs when the request starts, so
// concurrent page and filter changes always leave the newest state loading.
func (s *Screen[T]) currentQuery() PageQuery {
	s.mu.Lock()
	defer s.mu.Unlock()
	return PageQuery{Criteria: s.query.Committed(), Page: s.page, PageSize: s.pageSize}
}

// SetPage moves to page n (1-based) and loads it.
func (s *Screen[T]) SetPage(n int) error {
	if n < 1 {
		n = 1
	}
	s.mu.Lock()
	s.page = n
	s.mu.Unlock()
	return s.Load()
}

// Retry reloads the current page after a network failure.
func (s *Screen[T]) Retry() error { return s.Load() }

func (s *Screen[T]) apply(q PageQuery, res models.PageResult[T], err error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.rows = res.Items
	s.total = res.TotalItems
	s.pages = res.TotalPages
	s.totalFor = q.Criteria.Clone()
	s.loaded = err == nil
	s.lastErr = err
	notify := s.notify
	s.mu.Unlock()

	if notify != nil {
		notify()
	}
}

// Rows returns the visible page.
func (s *Screen[T]) Rows() []T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]T(nil), s.rows...)
}

// VisibleIDs returns the ids of the visible page in display order.
func (s *Screen[T]) VisibleIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.rows))
	for _, r := range s.rows {
		ids = append(ids, s.idOf(r))
	}
	return ids
}

func (s *Screen[T]) Page() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.page
}

func (s *Screen[T]) PageSize() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pageSize
}

// TotalItems is the server-reported total of the last applied page.
func (s *Screen[T]) TotalItems() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total
}

func (s *Screen[T]) TotalPages() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pages
}

// Err is the failure of the last applied load, nil after a success.
func (s *Screen[T]) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Filter returns the raw, possibly uncommitted, filter input.
func (s *Screen[T]) Filter() models.FilterCriteria {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.raw.Clone()
}

// Committed returns the filter the list is currently queried with.
func (s *Screen[T]) Committed() models.FilterCriteria { return s.query.Committed() }

// Selection exposes the selection engine for checkbox rendering.
func (s *Screen[T]) Selection() *SelectionEngine { return s.engine }

func (s *Screen[T]) Toggle(id string, checked bool) { s.engine.Toggle(id, checked) }

func (s *Screen[T]) IsSelected(id string) bool { return s.engine.IsSelected(id) }

// ToggleVisiblePage checks or unchecks every row of the visible page.
func (s *Screen[T]) ToggleVisiblePage(checked bool) {
	s.engine.ToggleVisiblePage(s.VisibleIDs(), checked)
}

// IsAllSelected drives the checked state of the page checkbox.
func (s *Screen[T]) IsAllSelected() bool { return s.engine.IsAllSelected(s.VisibleIDs()) }

// IsIndeterminateForVisiblePage drives the indeterminate page checkbox.
func (s *Screen[T]) IsIndeterminateForVisiblePage() bool {
	return s.engine.IsIndeterminate(s.VisibleIDs())
}

// SelectAllMatching selects every item matching the filter of the last
// applied page, using that page's server total. The snapshot stays frozen
// across later filter edits until ClearSelection.
func (s *Screen[T]) SelectAllMatching() error {
	s.mu.Lock()
	if !s.loaded {
		s.mu.Unlock()
		return ErrEmptyUniverse
	}
	criteria, total := s.totalFor.Clone(), s.total
	s.mu.Unlock()
	return s.engine.EnterAllMatching(criteria, total)
}

// ClearSelection drops the selection entirely.
func (s *Screen[T]) ClearSelection() { s.engine.Clear() }

// ExcludeByActiveCriteria deselects everything matching the live committed
// filter (or the visible page when no filter is active).
func (s *Screen[T]) ExcludeByActiveCriteria() (int, error) {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return 0, ErrScreenClosed
	}
	return s.engine.ExcludeByActiveCriteria(s.ctx, s.query.Committed(), s.VisibleIDs(), s.svc)
}

// FinalCount is the logical selected count.
func (s *Screen[T]) FinalCount() int64 { return s.engine.FinalCount() }

// Resolve describes the selection as a bulk action payload.
func (s *Screen[T]) Resolve() (Resolution, error) { return s.resolver.Resolve(s.engine.State()) }

// FetchSelected loads the full records of the selection from the server.
func (s *Screen[T]) FetchSelected() ([]T, Resolution, error) {
	return s.resolver.Fetch(s.ctx, s.engine)
}

// Close tears the screen down: pending commits are dropped and in-flight
// requests aborted. A closed screen cannot be reused.
func (s *Screen[T]) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	s.query.Stop()
	s.cancel()
	s.fetcher.Cancel()
}
