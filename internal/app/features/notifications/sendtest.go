// internal/app/features/notifications/sendtest.go
package notifications

import (
	"html/template"
	"net/http"

	emailtemplatestore "github.com/civicatlas/notifyhub/internal/app/store/emailtemplates"
	"github.com/civicatlas/notifyhub/internal/app/system/auth"
	"github.com/civicatlas/notifyhub/internal/app/system/emailtmpl"
	"github.com/civicatlas/notifyhub/internal/app/system/errtext"
	"github.com/civicatlas/notifyhub/internal/app/system/httpjson"
	"github.com/civicatlas/notifyhub/internal/app/system/mailer"
	"github.com/civicatlas/notifyhub/internal/app/system/notifdoc"
	"github.com/civicatlas/notifyhub/internal/app/system/orgutil"
	"github.com/civicatlas/notifyhub/internal/app/system/timeouts"
	"github.com/civicatlas/notifyhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// HandleSendTest processes POST /api/orgs/{orgID}/notifications/{id}/test.
// It renders the notification with the deterministic sample context and
// mails it to the requesting admin, "[Test] "-prefixed.
func (h *Handler) HandleSendTest(w http.ResponseWriter, r *http.Request) {
	admin, sessOK := auth.CurrentAdmin(r)
	if !sessOK {
		httpjson.Error(w, http.StatusUnauthorized, "sign in required")
		return
	}
	if h.Mailer == nil || !h.Mailer.Enabled() {
		httpjson.Error(w, http.StatusServiceUnavailable, "email sending is not configured")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Upstream(), h.Log, "notification test send")
	defer cancel()

	org, err := orgutil.ResolveActiveOrgFromHex(ctx, h.DB, chi.URLParam(r, "orgID"))
	if err != nil {
		h.respondOrgError(w, err)
		return
	}

	idx := org.FindNotification(chi.URLParam(r, "id"))
	if idx < 0 {
		httpjson.Error(w, http.StatusNotFound, "notification not found")
		return
	}
	n := notifdoc.Normalize(org.Notifications[idx], &org).Notification

	email := h.buildTestMessage(r, org, n)
	email = mailer.BuildTestEmail(email, admin.Email)

	if err := h.Mailer.Send(ctx, email); err != nil {
		h.Log.Warn("test send failed", zap.Error(err),
			zap.String("org_id", org.ID.Hex()), zap.String("notification_id", n.ID))
		httpjson.Error(w, http.StatusBadGateway, errtext.FriendlyErr(err))
		return
	}

	h.AuditLog.NotificationTestSent(ctx, r, admin.Email, org.ID, n.ID, admin.Email)

	httpjson.Respond(w, http.StatusOK, map[string]any{"sent": true, "to": admin.Email})
}

// buildTestMessage renders the notification's email with sample data: the
// custom template when present, a referenced library template when one
// resolves, otherwise the built-in digest layout.
func (h *Handler) buildTestMessage(r *http.Request, org models.Organization, n models.Notification) mailer.Email {
	tpl := h.resolveTemplate(r, n)
	sctx := emailtmpl.SampleContext(n, tpl)

	if tpl.HTML != "" {
		subject := n.Message.Subject
		if subject == "" {
			subject = sctx["subject"]
		}
		return mailer.Email{
			Subject:  subject,
			HTMLBody: emailtmpl.Render(tpl.HTML, sctx),
			TextBody: sctx["intro"],
		}
	}

	return mailer.BuildDigestEmail(mailer.DigestEmailData{
		OrganizationName: org.Name,
		NotificationName: sctx["notificationName"],
		Intro:            n.Message.Intro,
		RecordCount:      sctx["recordCount"],
		DateRange:        sctx["dateRange"],
		RecordsTable:     template.HTML(sctx["recordsTable"]),
	})
}

// resolveTemplate picks the template for a send: the embedded custom
// template wins, then a library template referenced by id. A dangling or
// malformed reference falls back to the built-in digest rather than
// failing the send.
func (h *Handler) resolveTemplate(r *http.Request, n models.Notification) models.CustomTemplate {
	if n.CustomTemplate != nil {
		return *n.CustomTemplate
	}
	if n.EmailTemplateID == "" {
		return models.CustomTemplate{}
	}

	oid, err := primitive.ObjectIDFromHex(n.EmailTemplateID)
	if err != nil {
		h.Log.Warn("notification references a malformed template id",
			zap.String("notification_id", n.ID), zap.String("template_id", n.EmailTemplateID))
		return models.CustomTemplate{}
	}
	t, err := emailtemplatestore.New(h.DB).GetByID(r.Context(), oid)
	if err != nil {
		h.Log.Warn("notification references a missing template",
			zap.String("notification_id", n.ID), zap.String("template_id", n.EmailTemplateID))
		return models.CustomTemplate{}
	}
	return t.AsCustomTemplate()
}
