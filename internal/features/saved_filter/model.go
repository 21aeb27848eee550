package saved_filter

import (
	"errors"
	"time"

	"go-freight/internal/common/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrNameRequired  = errors.New("filter name is required")
	ErrDuplicateName = errors.New("a filter with this name already exists")
	ErrNotOwner      = errors.New("filter belongs to another user")
)

// SavedFilter is a named set of list criteria for one resource.
type SavedFilter struct {
	ID          primitive.ObjectID    `json:"id" bson:"_id,omitempty"`
	Name        string                `json:"name" bson:"name"`
	Slug        string                `json:"slug" bson:"slug"`
	Description string                `json:"description,omitempty" bson:"description,omitempty"`
	Resource    string                `json:"resource" bson:"resource"`
	UserID      string                `json:"user_id" bson:"user_id"`
	IsPublic    bool                  `json:"is_public" bson:"is_public"`
	Criteria    models.FilterCriteria `json:"criteria" bson:"criteria"`
	CreatedAt   time.Time             `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time             `json:"updated_at" bson:"updated_at"`
}
