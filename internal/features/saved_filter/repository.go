package saved_filter

import (
	"context"
	"errors"
	"time"

	"go-freight/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type SavedFilterRepository interface {
	Create(ctx context.Context, filter *SavedFilter) error
	Get(ctx context.Context, id string) (*SavedFilter, error)
	FindBySlug(ctx context.Context, userID, resource, slug string) (*SavedFilter, error)
	Update(ctx context.Context, filter *SavedFilter) error
	Delete(ctx context.Context, id string) error
	FindByUser(ctx context.Context, userID, resource string) ([]SavedFilter, error)
	FindPublic(ctx context.Context, resource string) ([]SavedFilter, error)
	EnsureIndexes(ctx context.Context) error
}

type SavedFilterRepositoryImpl struct {
	collection *mongo.Collection
}

func NewSavedFilterRepository(db *database.MongodbDB) SavedFilterRepository {
	return &SavedFilterRepositoryImpl{
		collection: db.DB.Collection("saved_filters"),
	}
}

func (r *SavedFilterRepositoryImpl) Create(ctx context.Context, filter *SavedFilter) error {
	if filter.ID.IsZero() {
		filter.ID = primitive.NewObjectID()
	}
	now := time.Now()
	filter.CreatedAt = now
	filter.UpdatedAt = now

	_, err := r.collection.InsertOne(ctx, filter)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicateName
	}
	return err
}

func (r *SavedFilterRepositoryImpl) Get(ctx context.Context, id string) (*SavedFilter, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, err
	}
	return r.findOne(ctx, bson.M{"_id": objID})
}

func (r *SavedFilterRepositoryImpl) FindBySlug(ctx context.Context, userID, resource, slug string) (*SavedFilter, error) {
	return r.findOne(ctx, bson.M{"user_id": userID, "resource": resource, "slug": slug})
}

func (r *SavedFilterRepositoryImpl) findOne(ctx context.Context, query bson.M) (*SavedFilter, error) {
	var filter SavedFilter
	if err := r.collection.FindOne(ctx, query).Decode(&filter); err != nil {
		return nil, err
	}
	return &filter, nil
}

func (r *SavedFilterRepositoryImpl) Update(ctx context.Context, filter *SavedFilter) error {
	filter.UpdatedAt = time.Now()
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": filter.ID}, bson.M{"$set": bson.M{
		"name":        filter.Name,
		"slug":        filter.Slug,
		"description": filter.Description,
		"is_public":   filter.IsPublic,
		"criteria":    filter.Criteria,
		"updated_at":  filter.UpdatedAt,
	}})
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicateName
	}
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

func (r *SavedFilterRepositoryImpl) Delete(ctx context.Context, id string) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return err
	}

	_, err = r.collection.DeleteOne(ctx, bson.M{"_id": objID})
	return err
}

func (r *SavedFilterRepositoryImpl) FindByUser(ctx context.Context, userID, resource string) ([]SavedFilter, error) {
	return r.find(ctx, bson.M{"user_id": userID, "resource": resource})
}

func (r *SavedFilterRepositoryImpl) FindPublic(ctx context.Context, resource string) ([]SavedFilter, error) {
	return r.find(ctx, bson.M{"is_public": true, "resource": resource})
}

func (r *SavedFilterRepositoryImpl) find(ctx context.Context, query bson.M) ([]SavedFilter, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	cursor, err := r.collection.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	filters := []SavedFilter{}
	if err = cursor.All(ctx, &filters); err != nil {
		return nil, err
	}
	return filters, nil
}

// EnsureIndexes makes names unique per user and resource.
func (r *SavedFilterRepositoryImpl) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "resource", Value: 1}, {Key: "slug", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

func isNotFound(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}
