package listing

import (
	"context"
	"fmt"

	"go-freight/internal/common/models"
	"go-freight/internal/config"
	"go-freight/internal/logger"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// DefaultLimit is the page size used when the request carries none.
const DefaultLimit = 10

type ListingService interface {
	Search(ctx context.Context, resource string, criteria models.FilterCriteria, page, limit int) (models.PageResult[models.Record], error)
	EnumerateIDs(ctx context.Context, resource string, criteria models.FilterCriteria) ([]string, error)
	Resolve(ctx context.Context, resource string, req models.ResolveRequest) ([]models.Record, error)
	Get(ctx context.Context, resource, id string) (models.Record, error)
	SoftDelete(ctx context.Context, resource string, ids []string, userID string) (int64, error)
	MarkExcluded(ctx context.Context, resource string, ids []string, userID string) (int64, error)
}

type ListingServiceImpl struct {
	Repo   ListingRepository
	Config *config.Config
	Logger *zap.Logger
}

func NewListingService(repo ListingRepository, cfg *config.Config, log *zap.Logger) ListingService {
	return &ListingServiceImpl{
		Repo:   repo,
		Config: cfg,
		Logger: log,
	}
}

func (s *ListingServiceImpl) Search(ctx context.Context, resource string, criteria models.FilterCriteria, page, limit int) (models.PageResult[models.Record], error) {
	schema, filter, err := s.prepare(resource, criteria)
	if err != nil {
		return models.PageResult[models.Record]{}, err
	}

	page, limit = s.clampPage(page, limit)
	total, err := s.Repo.Count(ctx, schema, filter)
	if err != nil {
		return models.PageResult[models.Record]{}, fmt.Errorf("count %s: %w", resource, err)
	}

	items := []models.Record{}
	offset := int64(page-1) * int64(limit)
	if offset < total {
		items, err = s.Repo.List(ctx, schema, filter, int64(limit), offset)
		if err != nil {
			return models.PageResult[models.Record]{}, fmt.Errorf("list %s: %w", resource, err)
		}
		if items == nil {
			items = []models.Record{}
		}
	}

	return models.PageResult[models.Record]{
		Items:      items,
		TotalItems: total,
		TotalPages: models.TotalPagesFor(total, limit),
	}, nil
}

// EnumerateIDs returns every id matching criteria, refusing result sets larger
// than the configured enumeration cap.
func (s *ListingServiceImpl) EnumerateIDs(ctx context.Context, resource string, criteria models.FilterCriteria) ([]string, error) {
	schema, filter, err := s.prepare(resource, criteria)
	if err != nil {
		return nil, err
	}

	max := int64(s.Config.MaxEnumerateIDs)
	ids, err := s.Repo.ListIDs(ctx, schema, filter, max+1)
	if err != nil {
		return nil, fmt.Errorf("enumerate %s: %w", resource, err)
	}
	if int64(len(ids)) > max {
		s.Logger.Warn("id enumeration over limit",
			zap.String(logger.FieldResource, resource),
			zap.Stringer("criteria", criteria),
			zap.Int64("limit", max))
		return nil, fmt.Errorf("%w (limit %d)", ErrTooManyIDs, max)
	}
	if ids == nil {
		ids = []string{}
	}
	return ids, nil
}

// Resolve returns the records a bulk action applies to: either the listed ids
// that still exist, or everything matching the filter minus the exclusions.
func (s *ListingServiceImpl) Resolve(ctx context.Context, resource string, req models.ResolveRequest) ([]models.Record, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	schema, err := LookupResource(resource)
	if err != nil {
		return nil, err
	}
	max := int64(s.Config.MaxResolveItems)

	if req.Filters == nil {
		if int64(len(req.IDs)) > max {
			return nil, fmt.Errorf("%w (limit %d)", ErrTooManyItems, max)
		}
		ids, err := ParseObjectIDs(req.IDs)
		if err != nil {
			return nil, err
		}
		return s.Repo.Find(ctx, schema, ActiveByIDs(ids), 0)
	}

	filter, err := BuildFilter(schema, *req.Filters)
	if err != nil {
		return nil, err
	}
	excluded, err := ParseObjectIDs(req.ExcludeIDs)
	if err != nil {
		return nil, err
	}
	filter = ExcludingIDs(filter, excluded)

	total, err := s.Repo.Count(ctx, schema, filter)
	if err != nil {
		return nil, fmt.Errorf("count %s: %w", resource, err)
	}
	if total > max {
		return nil, fmt.Errorf("%w: %d matches (limit %d)", ErrTooManyItems, total, max)
	}
	return s.Repo.Find(ctx, schema, filter, max)
}

func (s *ListingServiceImpl) Get(ctx context.Context, resource, id string) (models.Record, error) {
	schema, err := LookupResource(resource)
	if err != nil {
		return nil, err
	}
	ids, err := ParseObjectIDs([]string{id})
	if err != nil {
		return nil, err
	}
	return s.Repo.Get(ctx, schema, ids[0])
}

func (s *ListingServiceImpl) SoftDelete(ctx context.Context, resource string, ids []string, userID string) (int64, error) {
	schema, oids, err := s.targets(resource, ids)
	if err != nil {
		return 0, err
	}
	n, err := s.Repo.SoftDelete(ctx, schema, oids, userID)
	if err != nil {
		return 0, err
	}
	s.Logger.Info("records deleted",
		zap.String(logger.FieldResource, resource),
		zap.String(logger.FieldUserID, userID),
		zap.Int64("count", n))
	return n, nil
}

func (s *ListingServiceImpl) MarkExcluded(ctx context.Context, resource string, ids []string, userID string) (int64, error) {
	schema, oids, err := s.targets(resource, ids)
	if err != nil {
		return 0, err
	}
	n, err := s.Repo.MarkExcluded(ctx, schema, oids, userID)
	if err != nil {
		return 0, err
	}
	s.Logger.Info("records excluded",
		zap.String(logger.FieldResource, resource),
		zap.String(logger.FieldUserID, userID),
		zap.Int64("count", n))
	return n, nil
}

func (s *ListingServiceImpl) prepare(resource string, criteria models.FilterCriteria) (ResourceSchema, bson.M, error) {
	schema, err := LookupResource(resource)
	if err != nil {
		return ResourceSchema{}, nil, err
	}
	filter, err := BuildFilter(schema, criteria)
	if err != nil {
		return ResourceSchema{}, nil, err
	}
	return schema, filter, nil
}

func (s *ListingServiceImpl) targets(resource string, ids []string) (ResourceSchema, []primitive.ObjectID, error) {
	schema, err := LookupResource(resource)
	if err != nil {
		return ResourceSchema{}, nil, err
	}
	oids, err := ParseObjectIDs(ids)
	if err != nil {
		return ResourceSchema{}, nil, err
	}
	return schema, oids, nil
}

func (s *ListingServiceImpl) clampPage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	if max := s.Config.MaxPageSize; max > 0 && limit > max {
		limit = max
	}
	return page, limit
}
