package listview

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go-freight/internal/common/models"
)

func waitPage(t *testing.T, seen <-chan int, want int) {
	t.Helper()
	select {
	case got := <-seen:
		if got != want {
			t.Fatalf("Expected request for page %d, got %d", want, got)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for page %d request", want)
	}
}

func TestFetcherAppliesOnlyLatestRequest(t *testing.T) {
	for _, order := range [][2]int{{1, 2}, {2, 1}} {
		svc := newGatedService(30)
		f := NewPageFetcher[shipment](svc, nil)

		var mu sync.Mutex
		var applied []int
		apply := func(page int) func(models.PageResult[shipment], error) {
			return func(models.PageResult[shipment], error) {
				mu.Lock()
				applied = append(applied, page)
				mu.Unlock()
			}
		}

		errs := make(chan error, 2)
		results := map[int]chan error{1: make(chan error, 1), 2: make(chan error, 1)}
		go func() {
			results[1] <- f.Fetch(context.Background(), PageQuery{Page: 1, PageSize: 10}, apply(1))
		}()
		waitPage(t, svc.seen, 1)
		go func() {
			results[2] <- f.Fetch(context.Background(), PageQuery{Page: 2, PageSize: 10}, apply(2))
		}()
		waitPage(t, svc.seen, 2)

		for _, page := range order {
			close(svc.gate(page))
			errs <- <-results[page]
		}
		close(errs)

		var got []error
		for err := range errs {
			got = append(got, err)
		}
		mu.Lock()
		if len(applied) != 1 || applied[0] != 2 {
			t.Errorf("order %v: expected only page 2 applied, got %v", order, applied)
		}
		mu.Unlock()

		for i, page := range order {
			if page == 1 && !errors.Is(got[i], ErrRequestCanceled) {
				t.Errorf("order %v: expected page 1 superseded, got %v", order, got[i])
			}
			if page == 2 && got[i] != nil {
				t.Errorf("order %v: unexpected page 2 error: %v", order, got[i])
			}
		}
		if f.InFlight() {
			t.Errorf("order %v: expected no request in flight", order)
		}
	}
}

func TestFetcherNetworkErrorClearsPage(t *testing.T) {
	svc := newMemService(5)
	svc.failNext = errBackendDown
	f := NewPageFetcher[shipment](svc, nil)

	var gotRes models.PageResult[shipment]
	var gotErr error
	calls := 0
	err := f.Fetch(context.Background(), PageQuery{}, func(res models.PageResult[shipment], err error) {
		calls++
		gotRes, gotErr = res, err
	})

	var netErr *NetworkError
	if !errors.As(err, &netErr) || !netErr.Retryable() {
		t.Fatalf("Expected retryable *NetworkError, got %v", err)
	}
	if calls != 1 || gotErr == nil || len(gotRes.Items) != 0 || gotRes.TotalItems != 0 {
		t.Errorf("Expected one apply with an empty page and the error, got %d calls, %+v, %v", calls, gotRes, gotErr)
	}

	// retry succeeds
	err = f.Fetch(context.Background(), PageQuery{}, func(res models.PageResult[shipment], err error) {
		gotRes, gotErr = res, err
	})
	if err != nil || gotErr != nil {
		t.Fatalf("Unexpected error on retry: %v / %v", err, gotErr)
	}
	if gotRes.TotalItems != 5 || len(gotRes.Items) != 5 {
		t.Errorf("Expected 5 items, got %d of %d", len(gotRes.Items), gotRes.TotalItems)
	}
}

func TestFetcherCancelDropsResponse(t *testing.T) {
	svc := newGatedService(5)
	f := NewPageFetcher[shipment](svc, nil)

	done := make(chan error, 1)
	applied := false
	go func() {
		done <- f.Fetch(context.Background(), PageQuery{Page: 1}, func(models.PageResult[shipment], error) { applied = true })
	}()
	waitPage(t, svc.seen, 1)
	f.Cancel()
	close(svc.gate(1))

	if err := <-done; !errors.Is(err, ErrRequestCanceled) {
		t.Errorf("Expected ErrRequestCanceled, got %v", err)
	}
	if applied {
		t.Error("Expected cancelled response not to be applied")
	}
}

func TestPageQueryDefaults(t *testing.T) {
	q := PageQuery{Page: -3}.normalized()
	if q.Page != 1 || q.PageSize != DefaultPageSize {
		t.Errorf("Expected page 1 size %d, got %+v", DefaultPageSize, q)
	}
}
