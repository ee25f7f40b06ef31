// internal/app/features/emailtemplates/handler.go
package emailtemplates

import (
	"github.com/civicatlas/notifyhub/internal/app/system/auditlog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the shared template library plus the stateless validate
// and preview endpoints the template editor calls while typing.
type Handler struct {
	DB       *mongo.Database
	Log      *zap.Logger
	AuditLog *auditlog.Logger
}

// NewHandler constructs an Email Templates handler.
func NewHandler(db *mongo.Database, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		DB:       db,
		Log:      logger,
		AuditLog: audit,
	}
}
