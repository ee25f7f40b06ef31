// internal/app/features/notifications/new.go
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

// HandleCreate processes POST /api/orgs/{orgID}/notifications. The new
// document is appended to the organization's array under the revision
// guard; a duplicate id is refused before the write.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req saveRequest
	if err := httpjson.DecodeLimit(r, &req, limits.MaxNotificationSetSize); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "notification create")
	defer cancel()

	org, err := orgutil.ResolveActiveOrgFromHex(ctx, h.DB, chi.URLParam(r, "orgID"))
	if err != nil {
		h.respondOrgError(w, err)
		return
	}

	res := notifdoc.Normalize(req.Notification, &org)
	refreshSpatialFilter(&res.Notification)

	if org.FindNotification(res.Notification.ID) >= 0 {
		httpjson.Error(w, http.StatusConflict, "a notification with this id already exists")
		return
	}

	notifications := append(append([]models.Notification{}, org.Notifications...), res.Notification)
	newRev, ok := h.replaceNotifications(ctx, w, org, req.Rev, notifications)
	if !ok {
		return
	}

	if a, sessOK := auth.CurrentAdmin(r); sessOK {
		h.AuditLog.NotificationsSaved(ctx, r, a.Email, org.ID, len(notifications), newRev)
	}

	httpjson.Respond(w, http.StatusCreated, buildSaveResponse(res, newRev))
}
