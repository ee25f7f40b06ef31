// internal/app/features/notifications/list.go
package notifications

import (
	"net/http"

	"github.com/civicatlas/notifyhub/internal/app/system/httpjson"
	"github.com/civicatlas/notifyhub/internal/app/system/notifdoc"
	"github.com/civicatlas/notifyhub/internal/app/system/orgutil"
	"github.com/civicatlas/notifyhub/internal/app/system/timeouts"
	"github.com/civicatlas/notifyhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type listResponse struct {
	OrganizationID primitive.ObjectID    `json:"organizationId"`
	Rev            int64                 `json:"rev"`
	Notifications  []models.Notification `json:"notifications"`
}

// HandleList serves GET /api/orgs/{orgID}/notifications. Documents are
// normalized on the way out, so legacy shapes (isPublic, bare display
// fields) never reach the client.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "notification list")
	defer cancel()

	org, err := orgutil.ResolveOrgFromHex(ctx, h.DB, chi.URLParam(r, "orgID"))
	if err != nil {
		h.respondOrgError(w, err)
		return
	}

	out := make([]models.Notification, 0, len(org.Notifications))
	for _, n := range org.Notifications {
		out = append(out, notifdoc.Normalize(n, &org).Notification)
	}

	httpjson.Respond(w, http.StatusOK, listResponse{
		OrganizationID: org.ID,
		Rev:            org.NotificationsRev,
		Notifications:  out,
	})
}
