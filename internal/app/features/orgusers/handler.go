// internal/app/features/orgusers/handler.go

// Package orgusers manages an organization's roster: listing and editing
// member users, inviting new ones (singly or by CSV), and the public
// invitation-accept endpoint. Every seat-granting path runs through the
// license seat check, counting pending invitations as occupied seats.
package orgusers

import (
	invitationstore "github.com/civicatlas/notifyhub/internal/app/store/invitations"
	"github.com/civicatlas/notifyhub/internal/app/system/auditlog"
	"github.com/civicatlas/notifyhub/internal/app/system/mailer"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler carries the roster endpoints' dependencies.
type Handler struct {
	DB          *mongo.Database
	Log         *zap.Logger
	AuditLog    *auditlog.Logger
	Mailer      *mailer.Mailer
	Invitations *invitationstore.Store

	// AcceptBaseURL is the public site root; invitation emails link to
	// it. Empty means emails carry a bare token instead of a link.
	AcceptBaseURL string
}

// NewHandler constructs an org roster handler.
func NewHandler(db *mongo.Database, audit *auditlog.Logger, m *mailer.Mailer, inv *invitationstore.Store, acceptBaseURL string, logger *zap.Logger) *Handler {
	return &Handler{
		DB:            db,
		Log:           logger,
		AuditLog:      audit,
		Mailer:        m,
		Invitations:   inv,
		AcceptBaseURL: acceptBaseURL,
	}
}
