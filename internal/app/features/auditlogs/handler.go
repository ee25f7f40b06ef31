// internal/app/features/auditlogs/handler.go

// Package auditlogs serves the per-organization audit trail that the
// rest of the API appends to.
package auditlogs

import (
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves audit log queries.
type Handler struct {
	DB  *mongo.Database
	Log *zap.Logger
}

// NewHandler constructs an audit log handler.
func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{DB: db, Log: logger}
}
