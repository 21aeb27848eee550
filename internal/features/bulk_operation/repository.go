package bulk_operation

import (
	"context"
	"time"

	"go-freight/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// OperationQuery narrows an operation listing. Empty fields match anything
// except UserID, which is always applied.
type OperationQuery struct {
	UserID   string
	Resource string
	Status   BulkOperationStatus
	Limit    int
}

type BulkOperationRepository interface {
	Create(ctx context.Context, op *BulkOperation) error
	Get(ctx context.Context, id string) (*BulkOperation, error)
	SaveProgress(ctx context.Context, op *BulkOperation) error
	Find(ctx context.Context, q OperationQuery) ([]BulkOperation, error)
	DeleteFinishedBefore(ctx context.Context, cutoff time.Time) (int64, error)
	EnsureIndexes(ctx context.Context) error
}

type BulkOperationRepositoryImpl struct {
	ops *mongo.Collection
}

func NewBulkOperationRepository(db *database.MongodbDB) BulkOperationRepository {
	return &BulkOperationRepositoryImpl{ops: db.DB.Collection("bulk_operations")}
}

func (r *BulkOperationRepositoryImpl) EnsureIndexes(ctx context.Context) error {
	_, err := r.ops.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: 1}}},
	})
	return err
}

func (r *BulkOperationRepositoryImpl) Create(ctx context.Context, op *BulkOperation) error {
	if op.ID.IsZero() {
		op.ID = primitive.NewObjectID()
	}
	op.CreatedAt = time.Now()
	op.UpdatedAt = op.CreatedAt
	if op.Status == "" {
		op.Status = BulkStatusPending
	}
	_, err := r.ops.InsertOne(ctx, op)
	return err
}

func (r *BulkOperationRepositoryImpl) Get(ctx context.Context, id string) (*BulkOperation, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, err
	}
	op := &BulkOperation{}
	if err := r.ops.FindOne(ctx, bson.M{"_id": oid}).Decode(op); err != nil {
		return nil, err
	}
	return op, nil
}

// SaveProgress writes the counters, status and outcome of op. The request
// and ownership fields are immutable once created.
func (r *BulkOperationRepositoryImpl) SaveProgress(ctx context.Context, op *BulkOperation) error {
	op.UpdatedAt = time.Now()
	set := bson.M{
		"status":          op.Status,
		"resolved_count":  op.ResolvedCount,
		"processed_count": op.ProcessedCount,
		"success_count":   op.SuccessCount,
		"error_count":     op.ErrorCount,
		"errors":          op.Errors,
		"updated_at":      op.UpdatedAt,
	}
	if op.FileName != "" {
		set["file_name"] = op.FileName
	}
	if op.CompletedAt != nil {
		set["completed_at"] = op.CompletedAt
	}
	res, err := r.ops.UpdateByID(ctx, op.ID, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

func (r *BulkOperationRepositoryImpl) Find(ctx context.Context, q OperationQuery) ([]BulkOperation, error) {
	filter := bson.M{"user_id": q.UserID}
	if q.Resource != "" {
		filter["resource"] = q.Resource
	}
	if q.Status != "" {
		filter["status"] = q.Status
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if q.Limit > 0 {
		opts.SetLimit(int64(q.Limit))
	}

	cursor, err := r.ops.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	ops := []BulkOperation{}
	if err := cursor.All(ctx, &ops); err != nil {
		return nil, err
	}
	return ops, nil
}

// DeleteFinishedBefore removes completed and failed operations older than cutoff.
func (r *BulkOperationRepositoryImpl) DeleteFinishedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.ops.DeleteMany(ctx, bson.M{
		"status":     bson.M{"$in": bson.A{BulkStatusCompleted, BulkStatusFailed}},
		"created_at": bson.M{"$lt": cutoff},
	})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
