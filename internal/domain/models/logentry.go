// internal/domain/models/logentry.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Log entry categories.
const (
	LogCategoryAuth  = "auth"
	LogCategoryAdmin = "admin"
)

// LogEntry is one audit record in the logs collection: who did what to
// which organization, with free-form detail fields.
type LogEntry struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Timestamp time.Time          `bson:"timestamp" json:"timestamp"`

	OrganizationID *primitive.ObjectID `bson:"organization_id,omitempty" json:"organization_id,omitempty"`

	Category string `bson:"category" json:"category"`
	Action   string `bson:"action" json:"action"`

	Actor   string `bson:"actor,omitempty" json:"actor,omitempty"` // admin email
	Success bool   `bson:"success" json:"success"`
	IP      string `bson:"ip,omitempty" json:"ip,omitempty"`

	Detail map[string]string `bson:"detail,omitempty" json:"detail,omitempty"`
}
