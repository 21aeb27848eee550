package listview

import (
	"sync"
	"time"

	"go-freight/internal/common/models"

	"go.uber.org/zap"
)

// DefaultQuietPeriod is how long filter input must stay unchanged before it
// is committed.
const DefaultQuietPeriod = 500 * time.Millisecond

// DebouncedQuery turns a stream of raw filter edits into committed values.
// Every Update restarts the quiet period (trailing edge); only the last value
// of a burst is committed.
type DebouncedQuery struct {
	quiet    time.Duration
	onCommit func(models.FilterCriteria)
	logger   *zap.Logger

	mu        sync.Mutex
	committed models.FilterCriteria
	pending   *models.FilterCriteria
	timer     *time.Timer
	gen       uint64
	stopped   bool
}

// NewDebouncedQuery starts with initial as the committed value. onCommit runs
// on the timer goroutine after each commit, outside the internal lock.
func NewDebouncedQuery(initial models.FilterCriteria, quiet time.Duration, onCommit func(models.FilterCriteria), logger *zap.Logger) *DebouncedQuery {
	if quiet <= 0 {
		quiet = DefaultQuietPeriod
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DebouncedQuery{
		quiet:     quiet,
		onCommit:  onCommit,
		logger:    logger,
		committed: initial.Clone(),
	}
}

// Update records a raw edit and (re)schedules the commit.
func (d *DebouncedQuery) Update(c models.FilterCriteria) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}

	v := c.Clone()
	d.pending = &v
	d.gen++
	gen := d.gen

	// A timer that already fired is neutralised by the generation check in fire.
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.quiet, func() { d.fire(gen) })
}

// Flush commits a pending value immediately.
func (d *DebouncedQuery) Flush() {
	d.mu.Lock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.mu.Unlock()
	d.fire(0)
}

// Stop cancels any pending commit. Later updates are ignored.
func (d *DebouncedQuery) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	d.pending = nil
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

// Committed returns the latest committed criteria.
func (d *DebouncedQuery) Committed() models.FilterCriteria {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.committed.Clone()
}

// Pending reports whether an edit is waiting for its quiet period to elapse.
func (d *DebouncedQuery) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending != nil
}

// fire commits the pending value. gen 0 forces the commit (Flush).
func (d *DebouncedQuery) fire(gen uint64) {
	d.mu.Lock()
	if d.stopped || d.pending == nil || (gen != 0 && gen != d.gen) {
		d.mu.Unlock()
		return
	}
	d.committed = *d.pending
	d.pending = nil
	d.timer = nil
	committed := d.committed.Clone()
	d.mu.Unlock()

	d.logger.Debug("filter committed", zap.Stringer("criteria", committed))
	if d.onCommit != nil {
		d.onCommit(committed)
	}
}
