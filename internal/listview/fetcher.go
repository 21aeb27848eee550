package listview

import (
	"context"
	"errors"
	"sync"

	"go-freight/internal/common/models"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"go.uber.org/zap"
)

// DefaultPageSize is used when a query carries no page size.
const DefaultPageSize = 10

// PageQuery identifies one page of a filtered list.
type PageQuery struct {
	Criteria models.FilterCriteria
	Page     int
	PageSize int
}

func (q PageQuery) normalized() PageQuery {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 {
		q.PageSize = DefaultPageSize
	}
	return q
}

// request is the cancellation token of one in-flight fetch.
type request struct {
	seq    uint64
	token  string
	cancel context.CancelFunc
}

// PageFetcher loads pages from a SearchService with at most one request in
// flight. Starting a fetch cancels the previous one, and a superseded
// request's outcome is dropped after checking its token under the lock.
type PageFetcher[T any] struct {
	svc    SearchService[T]
	logger *zap.Logger

	mu       sync.Mutex
	seq      uint64
	inflight *request
}

func NewPageFetcher[T any](svc SearchService[T], logger *zap.Logger) *PageFetcher[T] {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PageFetcher[T]{svc: svc, logger: logger}
}

// Fetch loads q and hands the outcome to apply, unless the request was
// superseded or cancelled meanwhile, in which case apply is not called and
// ErrRequestCanceled is returned. On failure apply receives an empty page and
// a *NetworkError. apply runs with the fetcher lock held, so no newer request
// can start while it mutates state; it must not call back into the fetcher.
func (f *PageFetcher[T]) Fetch(ctx context.Context, q PageQuery, apply func(models.PageResult[T], error)) error {
	return f.FetchCurrent(ctx, func() PageQuery { return q }, func(_ PageQuery, res models.PageResult[T], err error) {
		if apply != nil {
			apply(res, err)
		}
	})
}

// FetchCurrent is Fetch for a query read from caller state. query runs in the
// same critical section that starts the request, so the request started last
// always carries the latest state. query must not call back into the fetcher.
func (f *PageFetcher[T]) FetchCurrent(ctx context.Context, query func() PageQuery, apply func(PageQuery, models.PageResult[T], error)) error {
	req, reqCtx, q := f.begin(ctx, query)
	defer req.cancel()

	res, err := f.svc.Search(reqCtx, q.Criteria, q.Page, q.PageSize)

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.inflight != req || reqCtx.Err() != nil {
		if f.inflight == req {
			f.inflight = nil
		}
		f.logger.Debug("dropping superseded page response",
			zap.String("token", req.token), zap.Int("page", q.Page))
		return ErrRequestCanceled
	}
	f.inflight = nil

	if err != nil {
		if errors.Is(err, context.Canceled) {
			return ErrRequestCanceled
		}
		netErr := &NetworkError{Op: "page search", Err: err}
		f.logger.Warn("page fetch failed",
			zap.String("token", req.token), zap.Int("page", q.Page), zap.Error(err))
		if apply != nil {
			apply(q, models.PageResult[T]{}, netErr)
		}
		return netErr
	}

	if res.TotalItems < 0 {
		res.TotalItems = 0
	}
	if res.TotalPages < 0 {
		res.TotalPages = 0
	}
	if apply != nil {
		apply(q, res, nil)
	}
	return nil
}

// Cancel aborts the in-flight request, if any.
func (f *PageFetcher[T]) Cancel() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.inflight != nil {
		f.inflight.cancel()
		f.inflight = nil
	}
}

// InFlight reports whether a request is outstanding.
func (f *PageFetcher[T]) InFlight() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.inflight != nil
}

func (f *PageFetcher[T]) begin(parent context.Context, query func() PageQuery) (*request, context.Context, PageQuery) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.inflight != nil {
		f.inflight.cancel()
	}
	f.seq++
	ctx, cancel := context.WithCancel(parent)
	req := &request{seq: f.seq, token: newToken(), cancel: cancel}
	f.inflight = req
	return req, ctx, query().normalized()
}

func newToken() string {
	id, err := gonanoid.New(10)
	if err != nil {
		return ""
	}
	return id
}
