// internal/app/features/exporttemplates/handler.go
package exporttemplates

import (
	"github.com/civicatlas/notifyhub/internal/app/system/auditlog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the mapping product's export template layouts, stored on
// the organization under atlasConfig.exportTemplates.
type Handler struct {
	DB       *mongo.Database
	Log      *zap.Logger
	AuditLog *auditlog.Logger
}

// NewHandler constructs an Export Templates handler.
func NewHandler(db *mongo.Database, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		DB:       db,
		Log:      logger,
		AuditLog: audit,
	}
}
