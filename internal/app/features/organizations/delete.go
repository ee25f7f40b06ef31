// internal/app/features/organizations/delete.go
package organizations

import (
	"net/http"

	invitationstore "github.com/civicatlas/notifyhub/internal/app/store/invitations"
	organizationstore "github.com/civicatlas/notifyhub/internal/app/store/organizations"
	userstore "github.com/civicatlas/notifyhub/internal/app/store/users"
	"github.com/civicatlas/notifyhub/internal/app/system/auth"
	"github.com/civicatlas/notifyhub/internal/app/system/httpjson"
	"github.com/civicatlas/notifyhub/internal/app/system/orgutil"
	"github.com/civicatlas/notifyhub/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// HandleDelete processes DELETE /api/orgs/{orgID}. The organization's users
// and invitations go with it; audit log entries stay.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "org delete")
	defer cancel()

	org, err := orgutil.ResolveOrgFromHex(ctx, h.DB, chi.URLParam(r, "orgID"))
	if err != nil {
		h.respondOrgError(w, err)
		return
	}

	if _, err := organizationstore.New(h.DB).Delete(ctx, org.ID); err != nil {
		h.Log.Error("org delete failed", zap.Error(err), zap.String("org_id", org.ID.Hex()))
		httpjson.Error(w, http.StatusInternalServerError, "failed to delete organization")
		return
	}

	// Orphan cleanup is best effort; the org itself is already gone.
	if err := userstore.New(h.DB).DeleteByOrganization(ctx, org.ID); err != nil {
		h.Log.Warn("org delete: user cleanup failed", zap.Error(err), zap.String("org_id", org.ID.Hex()))
	}
	if err := invitationstore.New(h.DB, 0).DeleteByOrganization(ctx, org.ID); err != nil {
		h.Log.Warn("org delete: invitation cleanup failed", zap.Error(err), zap.String("org_id", org.ID.Hex()))
	}

	if a, ok := auth.CurrentAdmin(r); ok {
		h.AuditLog.OrgDeleted(ctx, r, a.Email, org.ID, org.Name)
	}

	w.WriteHeader(http.StatusNoContent)
}
