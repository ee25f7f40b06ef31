// internal/app/features/notifications/view.go
package notifications

import (
	"net/http"

	"github.com/civicatlas/notifyhub/internal/app/system/httpjson"
	"github.com/civicatlas/notifyhub/internal/app/system/notifdoc"
	"github.com/civicatlas/notifyhub/internal/app/system/orgutil"
	"github.com/civicatlas/notifyhub/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
)

// HandleGet serves GET /api/orgs/{orgID}/notifications/{id}. The response
// is the same envelope a save returns, so the editor has one load path.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "notification view")
	defer cancel()

	org, err := orgutil.ResolveOrgFromHex(ctx, h.DB, chi.URLParam(r, "orgID"))
	if err != nil {
		h.respondOrgError(w, err)
		return
	}

	idx := org.FindNotification(chi.URLParam(r, "id"))
	if idx < 0 {
		httpjson.Error(w, http.StatusNotFound, "notification not found")
		return
	}

	res := notifdoc.Normalize(org.Notifications[idx], &org)
	httpjson.Respond(w, http.StatusOK, buildSaveResponse(res, org.NotificationsRev))
}
