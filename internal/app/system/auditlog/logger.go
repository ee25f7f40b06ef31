// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"net"
	"net/http"
	"strconv"

	logstore "github.com/civicatlas/notifyhub/internal/app/store/logs"
	"github.com/civicatlas/notifyhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Config holds audit logging configuration.
type Config struct {
	// Auth controls logging for authentication events (login, logout).
	// Values: "all" (MongoDB + zap), "db" (MongoDB only), "log" (zap only), "off" (disabled)
	Auth string
	// Admin controls logging for console action events (org, license,
	// notification, template, and invitation changes).
	// Values: "all" (MongoDB + zap), "db" (MongoDB only), "log" (zap only), "off" (disabled)
	Admin string
}

// Logger provides convenience methods for recording audit events.
// It writes to both MongoDB (via logstore.Store) and structured logs (via zap).
type Logger struct {
	store  *logstore.Store
	zapLog *zap.Logger
	config Config
}

// New creates a new audit Logger.
func New(store *logstore.Store, zapLog *zap.Logger, config Config) *Logger {
	return &Logger{
		store:  store,
		zapLog: zapLog,
		config: config,
	}
}

// clientIP extracts the client IP from the request.
func clientIP(r *http.Request) string {
	// Check X-Forwarded-For header first (for reverse proxies)
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return xff
	}
	// Check X-Real-IP header
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	// Fall back to RemoteAddr without the port
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// logToZap logs the entry to zap with consistent structure.
func (l *Logger) logToZap(e models.LogEntry) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", e.Category),
		zap.String("action", e.Action),
		zap.Bool("success", e.Success),
		zap.String("ip", e.IP),
	}

	if e.Actor != "" {
		fields = append(fields, zap.String("actor", e.Actor))
	}
	if e.OrganizationID != nil {
		fields = append(fields, zap.String("organization_id", e.OrganizationID.Hex()))
	}
	for k, v := range e.Detail {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if e.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

// Log records an audit entry based on configuration.
// If the logger is nil, this is a no-op (allows tests to use nil audit logger).
// Logging destination is controlled by config: "all", "db", "log", or "off".
func (l *Logger) Log(ctx context.Context, e models.LogEntry) {
	if l == nil {
		return
	}

	// Determine which config setting applies based on entry category
	var setting string
	switch e.Category {
	case models.LogCategoryAuth:
		setting = l.config.Auth
	case models.LogCategoryAdmin:
		setting = l.config.Admin
	default:
		setting = "all" // Default to logging everything for unknown categories
	}

	// Check if logging is disabled for this category
	if setting == "off" {
		return
	}

	// Log to zap if configured
	if setting == "all" || setting == "log" {
		l.logToZap(e)
	}

	// Log to MongoDB if configured
	if setting == "all" || setting == "db" {
		if err := l.store.Append(ctx, e); err != nil {
			l.zapLog.Error("failed to store audit entry",
				zap.Error(err),
				zap.String("action", e.Action),
			)
		}
	}
}

// --- Authentication Events ---

// LoginSuccess logs a successful admin login.
func (l *Logger) LoginSuccess(ctx context.Context, r *http.Request, email string) {
	l.Log(ctx, models.LogEntry{
		Category: models.LogCategoryAuth,
		Action:   logstore.ActionLoginSuccess,
		Actor:    email,
		IP:       clientIP(r),
		Success:  true,
	})
}

// LoginFailedWrongPassword logs a failed login due to wrong password.
func (l *Logger) LoginFailedWrongPassword(ctx context.Context, r *http.Request, email string) {
	l.Log(ctx, models.LogEntry{
		Category: models.LogCategoryAuth,
		Action:   logstore.ActionLoginFailed,
		Actor:    email,
		IP:       clientIP(r),
		Success:  false,
		Detail:   map[string]string{"reason": "wrong password"},
	})
}

// LoginFailedAdminNotFound logs a failed login where no admin matched the email.
func (l *Logger) LoginFailedAdminNotFound(ctx context.Context, r *http.Request, email string) {
	l.Log(ctx, models.LogEntry{
		Category: models.LogCategoryAuth,
		Action:   logstore.ActionLoginFailedNoAdmin,
		Actor:    email,
		IP:       clientIP(r),
		Success:  false,
		Detail:   map[string]string{"reason": "admin not found"},
	})
}

// LoginFailedAdminDisabled logs a failed login against a disabled admin account.
func (l *Logger) LoginFailedAdminDisabled(ctx context.Context, r *http.Request, email string) {
	l.Log(ctx, models.LogEntry{
		Category: models.LogCategoryAuth,
		Action:   logstore.ActionLoginFailedLocked,
		Actor:    email,
		IP:       clientIP(r),
		Success:  false,
		Detail:   map[string]string{"reason": "admin disabled"},
	})
}

// LoginRateLimited logs a login attempt rejected by the rate limiter.
func (l *Logger) LoginRateLimited(ctx context.Context, r *http.Request, email string) {
	l.Log(ctx, models.LogEntry{
		Category: models.LogCategoryAuth,
		Action:   logstore.ActionLoginRateLimited,
		Actor:    email,
		IP:       clientIP(r),
		Success:  false,
		Detail:   map[string]string{"reason": "rate limit exceeded"},
	})
}

// Logout logs an admin logout.
func (l *Logger) Logout(ctx context.Context, r *http.Request, email string) {
	l.Log(ctx, models.LogEntry{
		Category: models.LogCategoryAuth,
		Action:   logstore.ActionLogout,
		Actor:    email,
		IP:       clientIP(r),
		Success:  true,
	})
}

// --- Console Events ---

// OrgCreated logs when an admin creates an organization.
func (l *Logger) OrgCreated(ctx context.Context, r *http.Request, actor string, orgID primitive.ObjectID, orgName string) {
	l.Log(ctx, models.LogEntry{
		Category:       models.LogCategoryAdmin,
		Action:         logstore.ActionOrgCreated,
		Actor:          actor,
		OrganizationID: &orgID,
		IP:             clientIP(r),
		Success:        true,
		Detail:         map[string]string{"org_name": orgName},
	})
}

// OrgUpdated logs when an admin updates an organization's settings.
func (l *Logger) OrgUpdated(ctx context.Context, r *http.Request, actor string, orgID primitive.ObjectID, fieldsChanged string) {
	l.Log(ctx, models.LogEntry{
		Category:       models.LogCategoryAdmin,
		Action:         logstore.ActionOrgUpdated,
		Actor:          actor,
		OrganizationID: &orgID,
		IP:             clientIP(r),
		Success:        true,
		Detail:         map[string]string{"fields_changed": fieldsChanged},
	})
}

// OrgDeleted logs when an admin deletes an organization.
func (l *Logger) OrgDeleted(ctx context.Context, r *http.Request, actor string, orgID primitive.ObjectID, orgName string) {
	l.Log(ctx, models.LogEntry{
		Category:       models.LogCategoryAdmin,
		Action:         logstore.ActionOrgDeleted,
		Actor:          actor,
		OrganizationID: &orgID,
		IP:             clientIP(r),
		Success:        true,
		Detail:         map[string]string{"org_name": orgName},
	})
}

// LicenseChanged logs when a superadmin changes a product license.
func (l *Logger) LicenseChanged(ctx context.Context, r *http.Request, actor string, orgID primitive.ObjectID, product, tier string) {
	l.Log(ctx, models.LogEntry{
		Category:       models.LogCategoryAdmin,
		Action:         logstore.ActionLicenseChanged,
		Actor:          actor,
		OrganizationID: &orgID,
		IP:             clientIP(r),
		Success:        true,
		Detail: map[string]string{
			"product": product,
			"tier":    tier,
		},
	})
}

// NotificationsSaved logs a successful notification-set replacement.
func (l *Logger) NotificationsSaved(ctx context.Context, r *http.Request, actor string, orgID primitive.ObjectID, count int, rev int64) {
	l.Log(ctx, models.LogEntry{
		Category:       models.LogCategoryAdmin,
		Action:         logstore.ActionNotificationsSaved,
		Actor:          actor,
		OrganizationID: &orgID,
		IP:             clientIP(r),
		Success:        true,
		Detail: map[string]string{
			"count": strconv.Itoa(count),
			"rev":   strconv.FormatInt(rev, 10),
		},
	})
}

// NotificationTestSent logs a test send of a single notification.
func (l *Logger) NotificationTestSent(ctx context.Context, r *http.Request, actor string, orgID primitive.ObjectID, notificationID, recipient string) {
	l.Log(ctx, models.LogEntry{
		Category:       models.LogCategoryAdmin,
		Action:         logstore.ActionNotificationTestSent,
		Actor:          actor,
		OrganizationID: &orgID,
		IP:             clientIP(r),
		Success:        true,
		Detail: map[string]string{
			"notification_id": notificationID,
			"recipient":       recipient,
		},
	})
}

// TemplateCreated logs when an admin creates an email template.
func (l *Logger) TemplateCreated(ctx context.Context, r *http.Request, actor string, templateID primitive.ObjectID, name string) {
	l.Log(ctx, models.LogEntry{
		Category: models.LogCategoryAdmin,
		Action:   logstore.ActionTemplateCreated,
		Actor:    actor,
		IP:       clientIP(r),
		Success:  true,
		Detail: map[string]string{
			"template_id":   templateID.Hex(),
			"template_name": name,
		},
	})
}

// TemplateUpdated logs when an admin updates an email template.
func (l *Logger) TemplateUpdated(ctx context.Context, r *http.Request, actor string, templateID primitive.ObjectID, name string) {
	l.Log(ctx, models.LogEntry{
		Category: models.LogCategoryAdmin,
		Action:   logstore.ActionTemplateUpdated,
		Actor:    actor,
		IP:       clientIP(r),
		Success:  true,
		Detail: map[string]string{
			"template_id":   templateID.Hex(),
			"template_name": name,
		},
	})
}

// TemplateDeleted logs when an admin deletes an email template.
func (l *Logger) TemplateDeleted(ctx context.Context, r *http.Request, actor string, templateID primitive.ObjectID, name string) {
	l.Log(ctx, models.LogEntry{
		Category: models.LogCategoryAdmin,
		Action:   logstore.ActionTemplateDeleted,
		Actor:    actor,
		IP:       clientIP(r),
		Success:  true,
		Detail: map[string]string{
			"template_id":   templateID.Hex(),
			"template_name": name,
		},
	})
}

// ExportTemplatesSaved logs a replacement of an organization's map export templates.
func (l *Logger) ExportTemplatesSaved(ctx context.Context, r *http.Request, actor string, orgID primitive.ObjectID, count int) {
	l.Log(ctx, models.LogEntry{
		Category:       models.LogCategoryAdmin,
		Action:         logstore.ActionExportTemplatesSaved,
		Actor:          actor,
		OrganizationID: &orgID,
		IP:             clientIP(r),
		Success:        true,
		Detail:         map[string]string{"count": strconv.Itoa(count)},
	})
}

// InvitationSent logs when an admin invites a user into an organization.
func (l *Logger) InvitationSent(ctx context.Context, r *http.Request, actor string, orgID primitive.ObjectID, email, role string) {
	l.Log(ctx, models.LogEntry{
		Category:       models.LogCategoryAdmin,
		Action:         logstore.ActionInvitationSent,
		Actor:          actor,
		OrganizationID: &orgID,
		IP:             clientIP(r),
		Success:        true,
		Detail: map[string]string{
			"email": email,
			"role":  role,
		},
	})
}

// InvitationAccepted logs when an invitee redeems an invitation token.
// The invitee is the actor; accepts are token-authenticated, not session-authenticated.
func (l *Logger) InvitationAccepted(ctx context.Context, r *http.Request, orgID primitive.ObjectID, email string) {
	l.Log(ctx, models.LogEntry{
		Category:       models.LogCategoryAdmin,
		Action:         logstore.ActionInvitationAccepted,
		Actor:          email,
		OrganizationID: &orgID,
		IP:             clientIP(r),
		Success:        true,
		Detail:         map[string]string{"email": email},
	})
}

// MemberUpdated logs when an admin edits an organization member.
func (l *Logger) MemberUpdated(ctx context.Context, r *http.Request, actor string, orgID primitive.ObjectID, email string) {
	l.Log(ctx, models.LogEntry{
		Category:       models.LogCategoryAdmin,
		Action:         logstore.ActionMemberUpdated,
		Actor:          actor,
		OrganizationID: &orgID,
		IP:             clientIP(r),
		Success:        true,
		Detail:         map[string]string{"email": email},
	})
}

// MemberRemoved logs when an admin removes an organization member.
func (l *Logger) MemberRemoved(ctx context.Context, r *http.Request, actor string, orgID primitive.ObjectID, email string) {
	l.Log(ctx, models.LogEntry{
		Category:       models.LogCategoryAdmin,
		Action:         logstore.ActionMemberRemoved,
		Actor:          actor,
		OrganizationID: &orgID,
		IP:             clientIP(r),
		Success:        true,
		Detail:         map[string]string{"email": email},
	})
}
