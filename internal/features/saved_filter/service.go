package saved_filter

import (
	"context"
	"strings"

	"go-freight/internal/features/listing"
	"go-freight/pkg/utils"
)

type SavedFilterService interface {
	CreateFilter(ctx context.Context, filter *SavedFilter) error
	GetFilter(ctx context.Context, id string) (*SavedFilter, error)
	// GetFilterByName finds one of the user's filters by name or slug.
	GetFilterByName(ctx context.Context, userID, resource, name string) (*SavedFilter, error)
	UpdateFilter(ctx context.Context, filter *SavedFilter, userID string) error
	DeleteFilter(ctx context.Context, id, userID string) error
	GetUserFilters(ctx context.Context, userID, resource string) ([]SavedFilter, error)
	GetPublicFilters(ctx context.Context, resource string) ([]SavedFilter, error)
}

type SavedFilterServiceImpl struct {
	FilterRepo SavedFilterRepository
}

func NewSavedFilterService(filterRepo SavedFilterRepository) SavedFilterService {
	return &SavedFilterServiceImpl{
		FilterRepo: filterRepo,
	}
}

func (s *SavedFilterServiceImpl) CreateFilter(ctx context.Context, filter *SavedFilter) error {
	if err := s.validate(filter); err != nil {
		return err
	}
	return s.FilterRepo.Create(ctx, filter)
}

func (s *SavedFilterServiceImpl) GetFilter(ctx context.Context, id string) (*SavedFilter, error) {
	return s.FilterRepo.Get(ctx, id)
}

func (s *SavedFilterServiceImpl) GetFilterByName(ctx context.Context, userID, resource, name string) (*SavedFilter, error) {
	filter, err := s.FilterRepo.FindBySlug(ctx, userID, resource, utils.Slugify(name))
	if isNotFound(err) {
		return nil, listing.ErrNotFound
	}
	return filter, err
}

func (s *SavedFilterServiceImpl) UpdateFilter(ctx context.Context, filter *SavedFilter, userID string) error {
	existing, err := s.FilterRepo.Get(ctx, filter.ID.Hex())
	if err != nil {
		return err
	}
	if existing.UserID != userID {
		return ErrNotOwner
	}

	// Owner and resource never change.
	filter.UserID = existing.UserID
	filter.Resource = existing.Resource
	filter.CreatedAt = existing.CreatedAt
	if err := s.validate(filter); err != nil {
		return err
	}
	return s.FilterRepo.Update(ctx, filter)
}

func (s *SavedFilterServiceImpl) DeleteFilter(ctx context.Context, id, userID string) error {
	filter, err := s.FilterRepo.Get(ctx, id)
	if err != nil {
		return err
	}
	if filter.UserID != userID {
		return ErrNotOwner
	}
	return s.FilterRepo.Delete(ctx, id)
}

func (s *SavedFilterServiceImpl) GetUserFilters(ctx context.Context, userID, resource string) ([]SavedFilter, error) {
	return s.FilterRepo.FindByUser(ctx, userID, resource)
}

func (s *SavedFilterServiceImpl) GetPublicFilters(ctx context.Context, resource string) ([]SavedFilter, error) {
	return s.FilterRepo.FindPublic(ctx, resource)
}

// validate normalizes the name and checks the criteria against the resource
// schema, so a stored filter can always be applied later.
func (s *SavedFilterServiceImpl) validate(filter *SavedFilter) error {
	filter.Name = strings.TrimSpace(filter.Name)
	filter.Slug = utils.Slugify(filter.Name)
	if filter.Slug == "" {
		return ErrNameRequired
	}
	schema, err := listing.LookupResource(filter.Resource)
	if err != nil {
		return err
	}
	if err := filter.Criteria.Validate(); err != nil {
		return err
	}
	_, err = listing.BuildFilter(schema, filter.Criteria)
	return err
}
