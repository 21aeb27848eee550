package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ContextKey string

const (
	RequestIDKey ContextKey = "request_id"
)

// Log is one application log line persisted by the DB log writer.
type Log struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	AppID        string             `bson:"app_id" json:"app_id"`
	Message      string             `bson:"message" json:"message"`
	LogLevelId   int                `bson:"log_level_id" json:"log_level_id"`
	Caller       string             `bson:"caller,omitempty" json:"caller,omitempty"`
	IpAddress    string             `bson:"ip_address,omitempty" json:"ip_address,omitempty"`
	UserID       string             `bson:"user_id,omitempty" json:"user_id,omitempty"`
	RequestID    string             `bson:"request_id,omitempty" json:"request_id,omitempty"`
	Resource     string             `bson:"resource,omitempty" json:"resource,omitempty"`
	CreatedOnUtc time.Time          `bson:"created_on_utc" json:"created_on_utc"`
}

// Record is the generic shape of a freight document (consignment note, trip
// sheet, party) as stored and served by the listing API.
type Record map[string]any

// ID returns the record's hex id, or "" when missing.
func (r Record) ID() string {
	switch v := r["_id"].(type) {
	case primitive.ObjectID:
		return v.Hex()
	case string:
		return v
	}
	if v, ok := r["id"].(string); ok {
		return v
	}
	return ""
}
