package listview

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"go-freight/internal/common/models"

	"go.uber.org/zap"
)

// Mode is the selection mode of a list.
type Mode int

const (
	// ModeManual tracks an explicit set of included ids.
	ModeManual Mode = iota
	// ModeAllMatching selects a frozen filter universe minus excluded ids.
	ModeAllMatching
)

func (m Mode) String() string {
	switch m {
	case ModeManual:
		return "manual"
	case ModeAllMatching:
		return "all_matching"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// SelectionSnapshot is captured once, when "select all matching" is invoked.
type SelectionSnapshot struct {
	Criteria       models.FilterCriteria
	TotalAtCapture int64
}

type idSet map[string]struct{}

func (s idSet) sorted() []string {
	out := make([]string, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func (s idSet) clone() idSet {
	out := make(idSet, len(s))
	for id := range s {
		out[id] = struct{}{}
	}
	return out
}

// SelectionState is the authoritative selection model.
//
// In ModeManual, Snapshot is nil and ExcludedIDs is empty.
// In ModeAllMatching, Snapshot is set and IncludedIDs is empty.
type SelectionState struct {
	Mode        Mode
	IncludedIDs map[string]struct{}
	ExcludedIDs map[string]struct{}
	Snapshot    *SelectionSnapshot
}

func newSelectionState() SelectionState {
	return SelectionState{
		Mode:        ModeManual,
		IncludedIDs: idSet{},
		ExcludedIDs: idSet{},
	}
}

// Count is the logical number of selected items. It is derived on every call.
func (s SelectionState) Count() int64 {
	if s.Mode == ModeAllMatching {
		if s.Snapshot == nil {
			return 0
		}
		n := s.Snapshot.TotalAtCapture - int64(len(s.ExcludedIDs))
		if n < 0 {
			return 0
		}
		return n
	}
	return int64(len(s.IncludedIDs))
}

// Included returns the included ids in sorted order.
func (s SelectionState) Included() []string { return idSet(s.IncludedIDs).sorted() }

// Excluded returns the excluded ids in sorted order.
func (s SelectionState) Excluded() []string { return idSet(s.ExcludedIDs).sorted() }

// Validate reports a violation of the mode invariants.
func (s SelectionState) Validate() error {
	switch s.Mode {
	case ModeManual:
		if s.Snapshot != nil || len(s.ExcludedIDs) > 0 {
			return errors.New("manual selection must not carry a snapshot or exclusions")
		}
	case ModeAllMatching:
		if s.Snapshot == nil || len(s.IncludedIDs) > 0 {
			return errors.New("all-matching selection needs a snapshot and no inclusions")
		}
	default:
		return fmt.Errorf("unknown selection mode %d", s.Mode)
	}
	return nil
}

// Equal compares two states by value.
func (s SelectionState) Equal(o SelectionState) bool {
	if s.Mode != o.Mode || !sameSet(s.IncludedIDs, o.IncludedIDs) || !sameSet(s.ExcludedIDs, o.ExcludedIDs) {
		return false
	}
	if (s.Snapshot == nil) != (o.Snapshot == nil) {
		return false
	}
	if s.Snapshot == nil {
		return true
	}
	return s.Snapshot.TotalAtCapture == o.Snapshot.TotalAtCapture && s.Snapshot.Criteria.Equal(o.Snapshot.Criteria)
}

func (s SelectionState) clone() SelectionState {
	out := SelectionState{
		Mode:        s.Mode,
		IncludedIDs: idSet(s.IncludedIDs).clone(),
		ExcludedIDs: idSet(s.ExcludedIDs).clone(),
	}
	if s.Snapshot != nil {
		out.Snapshot = &SelectionSnapshot{
			Criteria:       s.Snapshot.Criteria.Clone(),
			TotalAtCapture: s.Snapshot.TotalAtCapture,
		}
	}
	return out
}

func sameSet(a, b map[string]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for id := range a {
		if _, ok := b[id]; !ok {
			return false
		}
	}
	return true
}

// SelectionEngine tracks which logical items are selected, independent of the
// page currently rendered. It holds identifiers and counts only.
type SelectionEngine struct {
	logger *zap.Logger

	mu    sync.Mutex
	state SelectionState
}

func NewSelectionEngine(logger *zap.Logger) *SelectionEngine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SelectionEngine{logger: logger, state: newSelectionState()}
}

// Toggle checks or unchecks one row. In all-matching mode checking means
// "not excluded", so the operation edits the exclusion set instead.
func (e *SelectionEngine) Toggle(id string, checked bool) {
	if id == "" {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.toggleLocked(id, checked)
}

// ToggleVisiblePage applies Toggle to every id of the rendered page.
func (e *SelectionEngine) ToggleVisiblePage(ids []string, checked bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, id := range ids {
		if id != "" {
			e.toggleLocked(id, checked)
		}
	}
}

func (e *SelectionEngine) toggleLocked(id string, checked bool) {
	switch e.state.Mode {
	case ModeAllMatching:
		if checked {
			delete(e.state.ExcludedIDs, id)
		} else {
			e.state.ExcludedIDs[id] = struct{}{}
		}
	default:
		if checked {
			e.state.IncludedIDs[id] = struct{}{}
		} else {
			delete(e.state.IncludedIDs, id)
		}
	}
}

func (e *SelectionEngine) IsSelected(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.isSelectedLocked(id)
}

func (e *SelectionEngine) isSelectedLocked(id string) bool {
	if e.state.Mode == ModeAllMatching {
		_, excluded := e.state.ExcludedIDs[id]
		return !excluded
	}
	_, ok := e.state.IncludedIDs[id]
	return ok
}

// IsAllSelected reports whether the page checkbox renders as checked: the
// page is non-empty and every visible id is selected.
func (e *SelectionEngine) IsAllSelected(visible []string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := e.countSelectedLocked(visible)
	return len(visible) > 0 && n == len(visible)
}

// IsIndeterminate reports whether some, but not all, visible ids are selected.
func (e *SelectionEngine) IsIndeterminate(visible []string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := e.countSelectedLocked(visible)
	return n > 0 && n < len(visible)
}

func (e *SelectionEngine) countSelectedLocked(visible []string) int {
	n := 0
	for _, id := range visible {
		if e.isSelectedLocked(id) {
			n++
		}
	}
	return n
}

// EnterAllMatching switches to all-matching mode over the committed filter,
// whose server-reported total is total. Already being in that mode is a
// no-op: the snapshot is only replaced through Clear.
func (e *SelectionEngine) EnterAllMatching(committed models.FilterCriteria, total int64) error {
	if total <= 0 {
		return ErrEmptyUniverse
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state.Mode == ModeAllMatching {
		return nil
	}
	e.state = SelectionState{
		Mode:        ModeAllMatching,
		IncludedIDs: idSet{},
		ExcludedIDs: idSet{},
		Snapshot: &SelectionSnapshot{
			Criteria:       committed.Clone(),
			TotalAtCapture: total,
		},
	}
	e.logger.Debug("selected all matching",
		zap.Stringer("criteria", committed), zap.Int64("total", total))
	return nil
}

// Clear resets to an empty manual selection.
func (e *SelectionEngine) Clear() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state = newSelectionState()
}

// ExcludeByActiveCriteria deselects items by the live committed filter.
//
// With an active filter, every id the server enumerates for live is
// excluded (all-matching) or dropped from the inclusions (manual); zero ids
// yields ErrNoMatches. Without a filter the universe cannot be enumerated, so
// only the visible page is considered: in all-matching mode its not yet
// excluded ids, in manual mode its selected ids; an empty set yields
// ErrNothingToExclude.
//
// The enumeration result is applied to whatever the state is when it
// arrives, since exclusion tracks identifiers, not page membership. It
// returns how many ids changed state.
func (e *SelectionEngine) ExcludeByActiveCriteria(ctx context.Context, live models.FilterCriteria, visible []string, enumerator IDEnumerator) (int, error) {
	if live.IsEmpty() {
		return e.excludeVisible(visible)
	}

	ids, err := enumerator.EnumerateIDs(ctx, live)
	if err != nil {
		if errors.Is(err, context.Canceled) || ctx.Err() != nil {
			return 0, ErrRequestCanceled
		}
		e.logger.Warn("id enumeration failed", zap.Stringer("criteria", live), zap.Error(err))
		return 0, &NetworkError{Op: "id enumeration", Err: err}
	}
	if len(ids) == 0 {
		return 0, ErrNoMatches
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	changed := 0
	for _, id := range ids {
		if id == "" {
			continue
		}
		if e.state.Mode == ModeAllMatching {
			if _, ok := e.state.ExcludedIDs[id]; !ok {
				e.state.ExcludedIDs[id] = struct{}{}
				changed++
			}
			continue
		}
		if _, ok := e.state.IncludedIDs[id]; ok {
			delete(e.state.IncludedIDs, id)
			changed++
		}
	}
	e.logger.Debug("excluded by filter",
		zap.Stringer("criteria", live), zap.Int("matched", len(ids)), zap.Int("changed", changed))
	return changed, nil
}

func (e *SelectionEngine) excludeVisible(visible []string) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var relevant []string
	for _, id := range visible {
		if id == "" {
			continue
		}
		if e.state.Mode == ModeAllMatching {
			if _, ok := e.state.ExcludedIDs[id]; !ok {
				relevant = append(relevant, id)
			}
		} else if _, ok := e.state.IncludedIDs[id]; ok {
			relevant = append(relevant, id)
		}
	}
	if len(relevant) == 0 {
		return 0, ErrNothingToExclude
	}
	for _, id := range relevant {
		e.toggleLocked(id, false)
	}
	return len(relevant), nil
}

// FinalCount is the logical selected count used for labels and for enabling
// bulk actions.
func (e *SelectionEngine) FinalCount() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Count()
}

func (e *SelectionEngine) Mode() Mode {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Mode
}

// State returns a deep copy of the current selection.
func (e *SelectionEngine) State() SelectionState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.clone()
}
