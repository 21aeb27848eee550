package listview

import (
	"context"
	"errors"
	"fmt"

	"go-freight/internal/common/models"

	"go.uber.org/zap"
)

// Resolution is the concrete payload a bulk action needs.
type Resolution struct {
	Mode Mode
	// IDs is the explicit id list of a manual selection, sorted.
	IDs []string
	// Criteria and ExcludeIDs describe an all-matching selection.
	Criteria   models.FilterCriteria
	ExcludeIDs []string
	// Count is the logical selected count at resolution time.
	Count int64
}

// Request converts the resolution to the bulk-resolve wire payload.
func (r Resolution) Request() models.ResolveRequest {
	if r.Mode == ModeAllMatching {
		c := r.Criteria.Clone()
		return models.ResolveRequest{Filters: &c, ExcludeIDs: append([]string(nil), r.ExcludeIDs...)}
	}
	return models.ResolveRequest{IDs: append([]string(nil), r.IDs...)}
}

// Resolver fetches full records for a resolve request.
type Resolver[T any] interface {
	Resolve(ctx context.Context, req models.ResolveRequest) ([]T, error)
}

// BulkResolver turns a selection into ids or a server-side filter
// descriptor. It never enumerates the universe client side.
type BulkResolver[T any] struct {
	svc    Resolver[T]
	logger *zap.Logger
}

func NewBulkResolver[T any](svc Resolver[T], logger *zap.Logger) *BulkResolver[T] {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BulkResolver[T]{svc: svc, logger: logger}
}

// Resolve describes state as a bulk action payload.
func (b *BulkResolver[T]) Resolve(state SelectionState) (Resolution, error) {
	if err := state.Validate(); err != nil {
		return Resolution{}, err
	}
	count := state.Count()
	if count <= 0 {
		return Resolution{}, ErrEmptySelection
	}
	if state.Mode == ModeAllMatching {
		return Resolution{
			Mode:       ModeAllMatching,
			Criteria:   state.Snapshot.Criteria.Clone(),
			ExcludeIDs: state.Excluded(),
			Count:      count,
		}, nil
	}
	return Resolution{Mode: ModeManual, IDs: state.Included(), Count: count}, nil
}

// Fetch resolves the engine's current selection and loads the records from
// the server. The number of records returned must equal the count computed
// just before resolution; anything else is reported as ErrCountMismatch.
func (b *BulkResolver[T]) Fetch(ctx context.Context, engine *SelectionEngine) ([]T, Resolution, error) {
	res, err := b.Resolve(engine.State())
	if err != nil {
		return nil, Resolution{}, err
	}

	records, err := b.svc.Resolve(ctx, res.Request())
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, res, ErrRequestCanceled
		}
		return nil, res, &NetworkError{Op: "bulk resolve", Err: err}
	}

	if int64(len(records)) != res.Count {
		b.logger.Error("bulk resolve count mismatch",
			zap.Stringer("mode", res.Mode),
			zap.Int64("expected", res.Count),
			zap.Int("received", len(records)))
		return records, res, fmt.Errorf("%w: expected %d, received %d", ErrCountMismatch, res.Count, len(records))
	}
	return records, res, nil
}
