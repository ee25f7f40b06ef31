// internal/app/features/notifications/edit.go
package notifications

import (
	"net/http"

	"github.com/civicatlas/notifyhub/internal/app/system/auth"
	"github.com/civicatlas/notifyhub/internal/app/system/httpjson"
	"github.com/civicatlas/notifyhub/internal/app/system/limits"
	"github.com/civicatlas/notifyhub/internal/app/system/notifdoc"
	"github.com/civicatlas/notifyhub/internal/app/system/orgutil"
	"github.com/civicatlas/notifyhub/internal/app/system/timeouts"
	"github.com/civicatlas/notifyhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// HandleUpdate processes PUT /api/orgs/{orgID}/notifications/{id}. The
// path id is authoritative; an id in the body is overwritten by it.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var req saveRequest
	if err := httpjson.DecodeLimit(r, &req, limits.MaxNotificationSetSize); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "notification update")
	defer cancel()

	org, err := orgutil.ResolveActiveOrgFromHex(ctx, h.DB, chi.URLParam(r, "orgID"))
	if err != nil {
		h.respondOrgError(w, err)
		return
	}

	id := chi.URLParam(r, "id")
	idx := org.FindNotification(id)
	if idx < 0 {
		httpjson.Error(w, http.StatusNotFound, "notification not found")
		return
	}

	req.Notification.ID = id
	res := notifdoc.Normalize(req.Notification, &org)
	refreshSpatialFilter(&res.Notification)

	notifications := append([]models.Notification{}, org.Notifications...)
	notifications[idx] = res.Notification

	newRev, ok := h.replaceNotifications(ctx, w, org, req.Rev, notifications)
	if !ok {
		return
	}

	if a, sessOK := auth.CurrentAdmin(r); sessOK {
		h.AuditLog.NotificationsSaved(ctx, r, a.Email, org.ID, len(notifications), newRev)
	}

	httpjson.Respond(w, http.StatusOK, buildSaveResponse(res, newRev))
}
