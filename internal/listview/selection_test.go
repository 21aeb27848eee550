package listview

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"go-freight/internal/common/models"
)

func TestSelectionCountNeverNegative(t *testing.T) {
	e := NewSelectionEngine(nil)
	if err := e.EnterAllMatching(models.FilterCriteria{}, 2); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	for _, id := range []string{"a", "b", "c", "d"} {
		e.Toggle(id, false)
	}
	if got := e.FinalCount(); got != 0 {
		t.Errorf("Expected count 0, got %d", got)
	}

	e.Clear()
	e.Toggle("a", false)
	e.Toggle("a", true)
	e.Toggle("a", false)
	e.Toggle("a", false)
	if got := e.FinalCount(); got != 0 {
		t.Errorf("Expected count 0 after repeated unchecks, got %d", got)
	}
}

func TestSelectionModeExclusivity(t *testing.T) {
	svc := newMemService(20)
	e := NewSelectionEngine(nil)
	filtered := models.FilterCriteria{}.WithCategory("status", "open")

	steps := []func(){
		func() { e.Toggle("CN-0001", true) },
		func() { e.ToggleVisiblePage([]string{"CN-0002", "CN-0003"}, true) },
		func() { _, _ = e.ExcludeByActiveCriteria(context.Background(), filtered, nil, svc) },
		func() { _ = e.EnterAllMatching(models.FilterCriteria{}, 20) },
		func() { e.Toggle("CN-0004", false) },
		func() { _, _ = e.ExcludeByActiveCriteria(context.Background(), filtered, nil, svc) },
		func() { e.Clear() },
	}
	for i, step := range steps {
		step()
		if err := e.State().Validate(); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}
}

func TestToggleIsIdempotent(t *testing.T) {
	once := NewSelectionEngine(nil)
	once.Toggle("x", true)

	twice := NewSelectionEngine(nil)
	twice.Toggle("x", true)
	twice.Toggle("x", true)

	if !once.State().Equal(twice.State()) {
		t.Errorf("Expected equal states, got %+v and %+v", once.State(), twice.State())
	}
}

func TestSelectAllThenClearRestoresInitialState(t *testing.T) {
	e := NewSelectionEngine(nil)
	initial := e.State()

	if err := e.EnterAllMatching(models.FilterCriteria{Search: "abc"}, 10); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	e.Toggle("a", false)
	e.Clear()

	if !e.State().Equal(initial) {
		t.Errorf("Expected initial state after clear, got %+v", e.State())
	}
	if e.Mode() != ModeManual {
		t.Errorf("Expected manual mode, got %s", e.Mode())
	}
}

func TestToggleVisiblePageSelectsEveryRow(t *testing.T) {
	page := []string{"a", "b", "c"}

	for _, mode := range []Mode{ModeManual, ModeAllMatching} {
		e := NewSelectionEngine(nil)
		if mode == ModeAllMatching {
			_ = e.EnterAllMatching(models.FilterCriteria{}, 10)
			e.Toggle("b", false)
		}
		e.ToggleVisiblePage(page, true)
		for _, id := range page {
			if !e.IsSelected(id) {
				t.Errorf("%s: expected %s selected", mode, id)
			}
		}
		if !e.IsAllSelected(page) {
			t.Errorf("%s: expected page checkbox checked", mode)
		}
	}
}

func TestPageCheckboxStates(t *testing.T) {
	e := NewSelectionEngine(nil)
	page := []string{"a", "b"}

	if e.IsAllSelected(nil) {
		t.Error("Expected empty page to render unchecked")
	}
	if e.IsIndeterminate(page) {
		t.Error("Expected no indeterminate state with nothing selected")
	}
	e.Toggle("a", true)
	if !e.IsIndeterminate(page) || e.IsAllSelected(page) {
		t.Error("Expected indeterminate page checkbox")
	}
	e.Toggle("b", true)
	if e.IsIndeterminate(page) || !e.IsAllSelected(page) {
		t.Error("Expected checked page checkbox")
	}
}

func TestEnterAllMatchingEmptyUniverse(t *testing.T) {
	e := NewSelectionEngine(nil)
	e.Toggle("a", true)

	err := e.EnterAllMatching(models.FilterCriteria{Search: "zzz"}, 0)
	if !errors.Is(err, ErrEmptyUniverse) {
		t.Fatalf("Expected ErrEmptyUniverse, got %v", err)
	}
	if e.Mode() != ModeManual || e.FinalCount() != 1 {
		t.Errorf("Expected selection unchanged, got mode %s count %d", e.Mode(), e.FinalCount())
	}
}

func TestEnterAllMatchingKeepsFrozenSnapshot(t *testing.T) {
	e := NewSelectionEngine(nil)
	_ = e.EnterAllMatching(models.FilterCriteria{}, 500)
	e.Toggle("a", false)

	if err := e.EnterAllMatching(models.FilterCriteria{Search: "ABC"}, 3); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	st := e.State()
	if st.Snapshot.TotalAtCapture != 500 || !st.Snapshot.Criteria.IsEmpty() {
		t.Errorf("Expected original snapshot, got %+v", st.Snapshot)
	}
	if e.FinalCount() != 499 {
		t.Errorf("Expected count 499, got %d", e.FinalCount())
	}
}

func TestExcludeByActiveCriteria(t *testing.T) {
	openOnly := models.FilterCriteria{}.WithCategory("status", "open")

	tests := []struct {
		name      string
		setup     func(*SelectionEngine)
		live      models.FilterCriteria
		visible   []string
		wantErr   error
		wantCount int64
		wantMode  Mode
	}{
		{
			name:      "all matching excludes every enumerated id",
			setup:     func(e *SelectionEngine) { _ = e.EnterAllMatching(models.FilterCriteria{}, 20) },
			live:      openOnly,
			wantCount: 10,
			wantMode:  ModeAllMatching,
		},
		{
			name: "manual drops matching inclusions only",
			setup: func(e *SelectionEngine) {
				e.ToggleVisiblePage([]string{"CN-0001", "CN-0002", "CN-0003"}, true)
			},
			live:      openOnly,
			wantCount: 1,
			wantMode:  ModeManual,
		},
		{
			name:    "no matches",
			setup:   func(e *SelectionEngine) { e.Toggle("CN-0001", true) },
			live:    models.FilterCriteria{Search: "nothing-like-this"},
			wantErr: ErrNoMatches,
			// selection untouched
			wantCount: 1,
			wantMode:  ModeManual,
		},
		{
			name:      "no filter excludes visible page",
			setup:     func(e *SelectionEngine) { _ = e.EnterAllMatching(models.FilterCriteria{}, 20) },
			visible:   []string{"CN-0001", "CN-0002"},
			wantCount: 18,
			wantMode:  ModeAllMatching,
		},
		{
			name:      "no filter and nothing selected on page",
			setup:     func(e *SelectionEngine) { e.Toggle("CN-0009", true) },
			visible:   []string{"CN-0001", "CN-0002"},
			wantErr:   ErrNothingToExclude,
			wantCount: 1,
			wantMode:  ModeManual,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newMemService(20)
			e := NewSelectionEngine(nil)
			tt.setup(e)

			_, err := e.ExcludeByActiveCriteria(context.Background(), tt.live, tt.visible, svc)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Expected error %v, got %v", tt.wantErr, err)
			}
			if got := e.FinalCount(); got != tt.wantCount {
				t.Errorf("Expected count %d, got %d", tt.wantCount, got)
			}
			if got := e.Mode(); got != tt.wantMode {
				t.Errorf("Expected mode %s, got %s", tt.wantMode, got)
			}
			if err := e.State().Validate(); err != nil {
				t.Errorf("Invalid state: %v", err)
			}
		})
	}
}

func TestExcludeByActiveCriteriaNetworkFailure(t *testing.T) {
	svc := newMemService(5)
	svc.failNext = errBackendDown
	e := NewSelectionEngine(nil)
	_ = e.EnterAllMatching(models.FilterCriteria{}, 5)

	_, err := e.ExcludeByActiveCriteria(context.Background(), models.FilterCriteria{Search: "CN"}, nil, svc)
	var netErr *NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("Expected *NetworkError, got %v", err)
	}
	if !errors.Is(err, errBackendDown) {
		t.Errorf("Expected wrapped backend error, got %v", err)
	}
	if e.FinalCount() != 5 {
		t.Errorf("Expected untouched count 5, got %d", e.FinalCount())
	}
}

func TestResolveManualIsOrderIndependent(t *testing.T) {
	r := NewBulkResolver[shipment](newMemService(0), nil)

	a := NewSelectionEngine(nil)
	for _, id := range []string{"c", "a", "b"} {
		a.Toggle(id, true)
	}
	b := NewSelectionEngine(nil)
	for _, id := range []string{"b", "c", "a"} {
		b.Toggle(id, true)
	}

	ra, err := r.Resolve(a.State())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	rb, _ := r.Resolve(b.State())

	want := []string{"a", "b", "c"}
	if !reflect.DeepEqual(ra.IDs, want) || !reflect.DeepEqual(rb.IDs, want) {
		t.Errorf("Expected %v, got %v and %v", want, ra.IDs, rb.IDs)
	}
	req := ra.Request()
	if req.Filters != nil || len(req.ExcludeIDs) != 0 {
		t.Errorf("Expected id-only request, got %+v", req)
	}
}

func TestResolveAllMatching(t *testing.T) {
	criteria := models.FilterCriteria{}.WithCategory("destination", "Chennai")
	e := NewSelectionEngine(nil)
	_ = e.EnterAllMatching(criteria, 50)
	e.Toggle("y", false)
	e.Toggle("x", false)

	if got := e.FinalCount(); got != 48 {
		t.Fatalf("Expected count 48, got %d", got)
	}

	res, err := NewBulkResolver[shipment](newMemService(0), nil).Resolve(e.State())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !res.Criteria.Equal(criteria) {
		t.Errorf("Expected snapshot criteria %s, got %s", criteria, res.Criteria)
	}
	if !reflect.DeepEqual(res.ExcludeIDs, []string{"x", "y"}) {
		t.Errorf("Expected excludes [x y], got %v", res.ExcludeIDs)
	}
	if res.IDs != nil {
		t.Errorf("Expected no explicit ids, got %v", res.IDs)
	}
	if res.Count != 48 {
		t.Errorf("Expected resolution count 48, got %d", res.Count)
	}
}

func TestResolveEmptySelection(t *testing.T) {
	_, err := NewBulkResolver[shipment](newMemService(0), nil).Resolve(NewSelectionEngine(nil).State())
	if !errors.Is(err, ErrEmptySelection) {
		t.Errorf("Expected ErrEmptySelection, got %v", err)
	}
	if !IsNotice(err) {
		t.Error("Expected empty selection to be a notice")
	}
}

func TestFetchSelectedCountMismatch(t *testing.T) {
	svc := newMemService(10)
	svc.dropOne = true
	e := NewSelectionEngine(nil)
	_ = e.EnterAllMatching(models.FilterCriteria{}, 10)

	records, _, err := NewBulkResolver[shipment](svc, nil).Fetch(context.Background(), e)
	if !errors.Is(err, ErrCountMismatch) {
		t.Fatalf("Expected ErrCountMismatch, got %v", err)
	}
	if len(records) != 9 {
		t.Errorf("Expected the 9 returned records to be passed through, got %d", len(records))
	}
}

func TestFetchSelectedAllMatchingRoundTrip(t *testing.T) {
	svc := newMemService(10)
	e := NewSelectionEngine(nil)
	_ = e.EnterAllMatching(models.FilterCriteria{}, 10)
	e.Toggle("CN-0003", false)

	records, res, err := NewBulkResolver[shipment](svc, nil).Fetch(context.Background(), e)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(records) != 9 || res.Count != 9 {
		t.Errorf("Expected 9 records, got %d (count %d)", len(records), res.Count)
	}
	if svc.lastReq.Filters == nil || !reflect.DeepEqual(svc.lastReq.ExcludeIDs, []string{"CN-0003"}) {
		t.Errorf("Expected filter request excluding CN-0003, got %+v", svc.lastReq)
	}
}
