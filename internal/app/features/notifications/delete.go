// internal/app/features/notifications/delete.go
package notifications

import (
	"net/http"
	"strconv"

	"github.com/civicatlas/notifyhub/internal/app/system/auth"
	"github.com/civicatlas/notifyhub/internal/app/system/httpjson"
	"github.com/civicatlas/notifyhub/internal/app/system/orgutil"
	"github.com/civicatlas/notifyhub/internal/app/system/timeouts"
	"github.com/civicatlas/notifyhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// HandleDelete processes DELETE /api/orgs/{orgID}/notifications/{id}?rev=N.
// Deletes go through the same revision guard as saves; the expected
// revision rides a query parameter because DELETE carries no body.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	rev, err := strconv.ParseInt(r.URL.Query().Get("rev"), 10, 64)
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "rev query parameter is required")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "notification delete")
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

	notifications := append([]models.Notification{}, org.Notifications[:idx]...)
	notifications = append(notifications, org.Notifications[idx+1:]...)

	newRev, ok := h.replaceNotifications(ctx, w, org, rev, notifications)
	if !ok {
		return
	}

	if a, sessOK := auth.CurrentAdmin(r); sessOK {
		h.AuditLog.NotificationsSaved(ctx, r, a.Email, org.ID, len(notifications), newRev)
	}

	httpjson.Respond(w, http.StatusOK, map[string]any{"rev": newRev})
}
