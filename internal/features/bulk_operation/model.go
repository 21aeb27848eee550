package bulk_operation

import (
	"errors"
	"time"

	"go-freight/internal/common/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrInvalidAction = errors.New("invalid bulk action")
	// ErrCountMismatch means the server resolved a different number of records
	// than the client showed the user; nothing was changed.
	ErrCountMismatch = errors.New("resolved record count does not match expected count")
	ErrForbidden     = errors.New("operation belongs to another user")
)

type BulkAction string

const (
	BulkActionPrint   BulkAction = "print"
	BulkActionExclude BulkAction = "exclude"
	BulkActionDelete  BulkAction = "delete"
)

func (a BulkAction) Valid() bool {
	switch a {
	case BulkActionPrint, BulkActionExclude, BulkActionDelete:
		return true
	}
	return false
}

type BulkOperationStatus string

const (
	BulkStatusPending    BulkOperationStatus = "pending"
	BulkStatusProcessing BulkOperationStatus = "processing"
	BulkStatusCompleted  BulkOperationStatus = "completed"
	BulkStatusFailed     BulkOperationStatus = "failed"
)

type BulkError struct {
	RecordID string `json:"record_id,omitempty" bson:"record_id,omitempty"`
	Message  string `json:"message" bson:"message"`
}

// BulkOperation is the audit record of one bulk action over a selection.
type BulkOperation struct {
	ID             primitive.ObjectID    `json:"id" bson:"_id,omitempty"`
	Resource       string                `json:"resource" bson:"resource"`
	Action         BulkAction            `json:"action" bson:"action"`
	Request        models.ResolveRequest `json:"request" bson:"request"`
	ExpectedCount  int64                 `json:"expected_count" bson:"expected_count"`
	ResolvedCount  int64                 `json:"resolved_count" bson:"resolved_count"`
	ProcessedCount int64                 `json:"processed_count" bson:"processed_count"`
	SuccessCount   int64                 `json:"success_count" bson:"success_count"`
	ErrorCount     int64                 `json:"error_count" bson:"error_count"`
	Errors         []BulkError           `json:"errors,omitempty" bson:"errors,omitempty"`
	Status         BulkOperationStatus   `json:"status" bson:"status"`
	FileName       string                `json:"file_name,omitempty" bson:"file_name,omitempty"`
	UserID         string                `json:"user_id" bson:"user_id"`
	RequestID      string                `json:"request_id,omitempty" bson:"request_id,omitempty"`
	CreatedAt      time.Time             `json:"created_at" bson:"created_at"`
	UpdatedAt      time.Time             `json:"updated_at" bson:"updated_at"`
	CompletedAt    *time.Time            `json:"completed_at,omitempty" bson:"completed_at,omitempty"`
}

// Terminal reports whether the operation has finished, either way.
func (op *BulkOperation) Terminal() bool {
	return op.Status == BulkStatusCompleted || op.Status == BulkStatusFailed
}

// BulkRequest is the body of a bulk action call. ExpectedCount is the
// selection count the client displayed; zero skips the check.
type BulkRequest struct {
	models.ResolveRequest
	ExpectedCount int64 `json:"expected_count,omitempty"`
}

// Manifest is the rendered output of a print action.
type Manifest struct {
	FileName string
	Content  []byte
}
