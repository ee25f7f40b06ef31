// internal/app/features/notifications/handler.go
package notifications

import (
	"github.com/civicatlas/notifyhub/internal/app/system/auditlog"
	"github.com/civicatlas/notifyhub/internal/app/system/mailer"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the notification editor API. Notifications are embedded
// in their organization's document; every write replaces the whole array
// under the revision guard (see organizationstore.ReplaceNotifications).
type Handler struct {
	DB       *mongo.Database
	Log      *zap.Logger
	AuditLog *auditlog.Logger
	Mailer   *mailer.Mailer
}

// NewHandler constructs a Notifications handler.
func NewHandler(db *mongo.Database, audit *auditlog.Logger, m *mailer.Mailer, logger *zap.Logger) *Handler {
	return &Handler{
		DB:       db,
		Log:      logger,
		AuditLog: audit,
		Mailer:   m,
	}
}
