package bulk_operation

import (
	"context"
	"fmt"
	"time"

	"go-freight/internal/common/models"
	"go-freight/internal/config"
	"go-freight/internal/features/listing"
	"go-freight/internal/logger"

	"go.uber.org/zap"
)

// batchSize is how many records are changed per write and per progress event.
const batchSize = 100

type BulkOperationService interface {
	// Prepare validates and records a new operation without running it.
	Prepare(ctx context.Context, resource string, action BulkAction, req BulkRequest, userID, requestID string) (*BulkOperation, error)
	// Execute resolves the selection and applies the action. The manifest is
	// only produced for print.
	Execute(ctx context.Context, op *BulkOperation) (*Manifest, error)
	GetOperation(ctx context.Context, id, userID string) (*BulkOperation, error)
	ListOperations(ctx context.Context, q OperationQuery) ([]BulkOperation, error)
	PurgeFinished(ctx context.Context) (int64, error)
	Subscribe(id string) (<-chan BulkOperation, func())
}

type BulkOperationServiceImpl struct {
	BulkRepo BulkOperationRepository
	Listing  listing.ListingService
	Hub      *ProgressHub
	Config   *config.Config
	Logger   *zap.Logger
	now      func() time.Time
}

func NewBulkOperationService(
	bulkRepo BulkOperationRepository,
	listingService listing.ListingService,
	hub *ProgressHub,
	cfg *config.Config,
	log *zap.Logger,
) BulkOperationService {
	return &BulkOperationServiceImpl{
		BulkRepo: bulkRepo,
		Listing:  listingService,
		Hub:      hub,
		Config:   cfg,
		Logger:   log,
		now:      time.Now,
	}
}

func (s *BulkOperationServiceImpl) Prepare(ctx context.Context, resource string, action BulkAction, req BulkRequest, userID, requestID string) (*BulkOperation, error) {
	if !action.Valid() {
		return nil, fmt.Errorf("%w %q", ErrInvalidAction, action)
	}
	if _, err := listing.LookupResource(resource); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	op := &BulkOperation{
		Resource:      resource,
		Action:        action,
		Request:       req.ResolveRequest,
		ExpectedCount: req.ExpectedCount,
		Status:        BulkStatusPending,
		UserID:        userID,
		RequestID:     requestID,
	}
	if err := s.BulkRepo.Create(ctx, op); err != nil {
		return nil, err
	}
	return op, nil
}

func (s *BulkOperationServiceImpl) Execute(ctx context.Context, op *BulkOperation) (*Manifest, error) {
	log := s.Logger.With(
		zap.String(logger.FieldResource, op.Resource),
		zap.String(logger.FieldUserID, op.UserID),
		zap.String(logger.FieldRequestID, op.RequestID),
		zap.String("action", string(op.Action)),
		zap.String("operation_id", op.ID.Hex()),
	)

	op.Status = BulkStatusProcessing
	s.save(ctx, op)

	records, err := s.Listing.Resolve(ctx, op.Resource, op.Request)
	if err != nil {
		return nil, s.fail(ctx, op, log, err)
	}
	op.ResolvedCount = int64(len(records))

	if op.ExpectedCount > 0 && op.ResolvedCount != op.ExpectedCount {
		err := fmt.Errorf("%w: expected %d, resolved %d", ErrCountMismatch, op.ExpectedCount, op.ResolvedCount)
		log.Error("bulk selection count mismatch",
			zap.Int64("expected", op.ExpectedCount), zap.Int64("resolved", op.ResolvedCount))
		return nil, s.fail(ctx, op, log, err)
	}

	var manifest *Manifest
	switch op.Action {
	case BulkActionPrint:
		schema, _ := listing.LookupResource(op.Resource)
		manifest, err = RenderManifest(schema, records, s.now())
		if err != nil {
			return nil, s.fail(ctx, op, log, err)
		}
		op.FileName = manifest.FileName
		op.ProcessedCount = op.ResolvedCount
		op.SuccessCount = op.ResolvedCount
	default:
		s.applyInBatches(ctx, op, records)
	}

	op.Status = BulkStatusCompleted
	completed := s.now()
	op.CompletedAt = &completed
	s.save(ctx, op)

	log.Info("bulk operation completed",
		zap.Int64("resolved", op.ResolvedCount),
		zap.Int64("succeeded", op.SuccessCount),
		zap.Int64("failed", op.ErrorCount))
	return manifest, nil
}

func (s *BulkOperationServiceImpl) applyInBatches(ctx context.Context, op *BulkOperation, records []models.Record) {
	for start := 0; start < len(records); start += batchSize {
		end := min(start+batchSize, len(records))
		ids := make([]string, 0, end-start)
		for _, rec := range records[start:end] {
			ids = append(ids, rec.ID())
		}

		var changed int64
		var err error
		if op.Action == BulkActionDelete {
			changed, err = s.Listing.SoftDelete(ctx, op.Resource, ids, op.UserID)
		} else {
			changed, err = s.Listing.MarkExcluded(ctx, op.Resource, ids, op.UserID)
		}

		batch := int64(len(ids))
		op.ProcessedCount += batch
		if err != nil {
			op.ErrorCount += batch
			op.Errors = append(op.Errors, BulkError{Message: err.Error()})
		} else {
			op.SuccessCount += changed
			// Records changed concurrently by someone else are reported, not retried.
			if skipped := batch - changed; skipped > 0 {
				op.ErrorCount += skipped
				op.Errors = append(op.Errors, BulkError{Message: fmt.Sprintf("%d records were already gone", skipped)})
			}
		}
		s.save(ctx, op)
	}
}

func (s *BulkOperationServiceImpl) fail(ctx context.Context, op *BulkOperation, log *zap.Logger, cause error) error {
	op.Status = BulkStatusFailed
	op.Errors = append(op.Errors, BulkError{Message: cause.Error()})
	completed := s.now()
	op.CompletedAt = &completed
	s.save(ctx, op)
	log.Warn("bulk operation failed", zap.Error(cause))
	return cause
}

// save persists and publishes the operation. Persistence errors are logged
// only; the action itself has already taken effect.
func (s *BulkOperationServiceImpl) save(ctx context.Context, op *BulkOperation) {
	if err := s.BulkRepo.SaveProgress(ctx, op); err != nil {
		s.Logger.Warn("failed to persist bulk operation", zap.String("operation_id", op.ID.Hex()), zap.Error(err))
	}
	if s.Hub != nil {
		s.Hub.Publish(*op)
	}
}

func (s *BulkOperationServiceImpl) GetOperation(ctx context.Context, id, userID string) (*BulkOperation, error) {
	op, err := s.BulkRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if userID != "" && op.UserID != userID {
		return nil, ErrForbidden
	}
	return op, nil
}

// maxListedOperations caps ListOperations when the query sets no limit.
const maxListedOperations = 50

func (s *BulkOperationServiceImpl) ListOperations(ctx context.Context, q OperationQuery) ([]BulkOperation, error) {
	if q.Resource != "" {
		if _, err := listing.LookupResource(q.Resource); err != nil {
			return nil, err
		}
	}
	if q.Limit <= 0 || q.Limit > maxListedOperations {
		q.Limit = maxListedOperations
	}
	return s.BulkRepo.Find(ctx, q)
}

// PurgeFinished deletes finished operations older than the retention period.
func (s *BulkOperationServiceImpl) PurgeFinished(ctx context.Context) (int64, error) {
	cutoff := s.now().AddDate(0, 0, -s.Config.BulkRetentionDays)
	n, err := s.BulkRepo.DeleteFinishedBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	s.Logger.Info("purged bulk operations", zap.Int64("count", n), zap.Time("cutoff", cutoff))
	return n, nil
}

func (s *BulkOperationServiceImpl) Subscribe(id string) (<-chan BulkOperation, func()) {
	return s.Hub.Subscribe(id)
}
