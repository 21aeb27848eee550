package listing

import (
	"context"
	"errors"
	"time"

	"go-freight/internal/common/models"
	"go-freight/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type ListingRepository interface {
	List(ctx context.Context, schema ResourceSchema, filter bson.M, limit, offset int64) ([]models.Record, error)
	Count(ctx context.Context, schema ResourceSchema, filter bson.M) (int64, error)
	ListIDs(ctx context.Context, schema ResourceSchema, filter bson.M, max int64) ([]string, error)
	Find(ctx context.Context, schema ResourceSchema, filter bson.M, max int64) ([]models.Record, error)
	Get(ctx context.Context, schema ResourceSchema, id primitive.ObjectID) (models.Record, error)
	SoftDelete(ctx context.Context, schema ResourceSchema, ids []primitive.ObjectID, userID string) (int64, error)
	MarkExcluded(ctx context.Context, schema ResourceSchema, ids []primitive.ObjectID, userID string) (int64, error)
	InsertMany(ctx context.Context, schema ResourceSchema, docs []bson.M) (int, error)
	EnsureIndexes(ctx context.Context) error
}

type ListingRepositoryImpl struct {
	DB *mongo.Database
}

func NewListingRepository(mongodb *database.MongodbDB) ListingRepository {
	return &ListingRepositoryImpl{DB: mongodb.DB}
}

func (r *ListingRepositoryImpl) collection(schema ResourceSchema) *mongo.Collection {
	return r.DB.Collection(schema.Collection)
}

// sortOrder is newest first for dated resources, alphabetical otherwise. _id
// breaks ties so paging is stable.
func sortOrder(schema ResourceSchema) bson.D {
	dir := -1
	if schema.SortField == "name" {
		dir = 1
	}
	return bson.D{{Key: schema.SortField, Value: dir}, {Key: "_id", Value: dir}}
}

func (r *ListingRepositoryImpl) List(ctx context.Context, schema ResourceSchema, filter bson.M, limit, offset int64) ([]models.Record, error) {
	opts := options.Find().
		SetSort(sortOrder(schema)).
		SetLimit(limit).
		SetSkip(offset)
	return r.find(ctx, schema, filter, opts)
}

func (r *ListingRepositoryImpl) Count(ctx context.Context, schema ResourceSchema, filter bson.M) (int64, error) {
	return r.collection(schema).CountDocuments(ctx, filter)
}

func (r *ListingRepositoryImpl) ListIDs(ctx context.Context, schema ResourceSchema, filter bson.M, max int64) ([]string, error) {
	opts := options.Find().
		SetProjection(bson.M{"_id": 1}).
		SetSort(sortOrder(schema))
	if max > 0 {
		opts.SetLimit(max)
	}

	cursor, err := r.collection(schema).Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var ids []string
	for cursor.Next(ctx) {
		var doc struct {
			ID primitive.ObjectID `bson:"_id"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		ids = append(ids, doc.ID.Hex())
	}
	return ids, cursor.Err()
}

func (r *ListingRepositoryImpl) Find(ctx context.Context, schema ResourceSchema, filter bson.M, max int64) ([]models.Record, error) {
	opts := options.Find().SetSort(sortOrder(schema))
	if max > 0 {
		opts.SetLimit(max)
	}
	return r.find(ctx, schema, filter, opts)
}

func (r *ListingRepositoryImpl) Get(ctx context.Context, schema ResourceSchema, id primitive.ObjectID) (models.Record, error) {
	var doc bson.M
	err := r.collection(schema).FindOne(ctx, bson.M{"_id": id, FieldDeleted: bson.M{"$ne": true}}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return toRecord(doc), nil
}

func (r *ListingRepositoryImpl) SoftDelete(ctx context.Context, schema ResourceSchema, ids []primitive.ObjectID, userID string) (int64, error) {
	res, err := r.collection(schema).UpdateMany(ctx,
		bson.M{"_id": bson.M{"$in": ids}, FieldDeleted: bson.M{"$ne": true}},
		bson.M{"$set": bson.M{
			FieldDeleted:   true,
			FieldDeletedAt: time.Now(),
			FieldDeletedBy: userID,
		}},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

func (r *ListingRepositoryImpl) MarkExcluded(ctx context.Context, schema ResourceSchema, ids []primitive.ObjectID, userID string) (int64, error) {
	res, err := r.collection(schema).UpdateMany(ctx,
		ActiveByIDs(ids),
		bson.M{"$set": bson.M{
			FieldExcludedAt: time.Now(),
			FieldExcludedBy: userID,
		}},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

func (r *ListingRepositoryImpl) InsertMany(ctx context.Context, schema ResourceSchema, docs []bson.M) (int, error) {
	if len(docs) == 0 {
		return 0, nil
	}
	batch := make([]interface{}, 0, len(docs))
	for _, d := range docs {
		if _, ok := d[FieldCreatedAt]; !ok {
			d[FieldCreatedAt] = time.Now()
		}
		batch = append(batch, d)
	}
	res, err := r.collection(schema).InsertMany(ctx, batch)
	if err != nil {
		return 0, err
	}
	return len(res.InsertedIDs), nil
}

// EnsureIndexes creates the sort and filter indexes of every resource.
func (r *ListingRepositoryImpl) EnsureIndexes(ctx context.Context) error {
	for _, schema := range Resources() {
		indexes := []mongo.IndexModel{
			{Keys: sortOrder(schema)},
		}
		if schema.DateField != "" && schema.DateField != schema.SortField {
			indexes = append(indexes, mongo.IndexModel{Keys: bson.D{{Key: schema.DateField, Value: 1}}})
		}
		for _, cat := range schema.Categories {
			indexes = append(indexes, mongo.IndexModel{Keys: bson.D{{Key: cat.Field, Value: 1}}})
		}
		if _, err := r.collection(schema).Indexes().CreateMany(ctx, indexes); err != nil {
			return err
		}
	}
	return nil
}

func (r *ListingRepositoryImpl) find(ctx context.Context, schema ResourceSchema, filter bson.M, opts *options.FindOptions) ([]models.Record, error) {
	cursor, err := r.collection(schema).Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []bson.M
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	records := make([]models.Record, 0, len(docs))
	for _, d := range docs {
		records = append(records, toRecord(d))
	}
	return records, nil
}

// toRecord exposes the ObjectID as a hex "id" and drops bookkeeping fields.
func toRecord(doc bson.M) models.Record {
	rec := models.Record{}
	for k, v := range doc {
		switch k {
		case "_id", FieldDeleted, FieldDeletedAt, FieldDeletedBy:
			continue
		}
		rec[k] = v
	}
	if oid, ok := doc["_id"].(primitive.ObjectID); ok {
		rec["id"] = oid.Hex()
	}
	return rec
}
