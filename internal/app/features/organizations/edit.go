// internal/app/features/organizations/edit.go
package organizations

import (
	"net/http"
	"strings"

	organizationstore "github.com/civicatlas/notifyhub/internal/app/store/organizations"
	"github.com/civicatlas/notifyhub/internal/app/system/auth"
	"github.com/civicatlas/notifyhub/internal/app/system/httpjson"
	"github.com/civicatlas/notifyhub/internal/app/system/orgutil"
	"github.com/civicatlas/notifyhub/internal/app/system/timeouts"
	"github.com/civicatlas/notifyhub/internal/app/system/timezones"
	"github.com/civicatlas/notifyhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// HandleUpdate processes PUT /api/orgs/{orgID}. Disabled organizations stay
// editable so they can be reactivated.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "org update")
	defer cancel()

	org, err := orgutil.ResolveOrgFromHex(ctx, h.DB, chi.URLParam(r, "orgID"))
	if err != nil {
		h.respondOrgError(w, err)
		return
	}

	var req orgWriteRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.trim()

	if req.Name == "" {
		httpjson.Error(w, http.StatusUnprocessableEntity, "organization name is required")
		return
	}
	if len(req.Name) > maxOrgNameLen {
		httpjson.Error(w, http.StatusUnprocessableEntity, "organization name is too long")
		return
	}
	if req.TimeZone != "" && !timezones.Valid(req.TimeZone) {
		httpjson.Error(w, http.StatusUnprocessableEntity, "unknown time zone")
		return
	}
	if req.Status != "" && req.Status != models.StatusActive && req.Status != models.StatusDisabled {
		httpjson.Error(w, http.StatusUnprocessableEntity, `status must be "active" or "disabled"`)
		return
	}

	store := organizationstore.New(h.DB)
	err = store.Update(ctx, org.ID, models.Organization{
		Name:        req.Name,
		City:        req.City,
		State:       req.State,
		TimeZone:    req.TimeZone,
		ContactInfo: req.ContactInfo,
		Status:      req.Status,
	})
	if err != nil {
		if err == organizationstore.ErrDuplicateOrganization {
			httpjson.Error(w, http.StatusConflict, "an organization with that name already exists")
			return
		}
		h.Log.Error("org update failed", zap.Error(err), zap.String("org_id", org.ID.Hex()))
		httpjson.Error(w, http.StatusInternalServerError, "failed to update organization")
		return
	}

	updated, err := store.GetByID(ctx, org.ID)
	if err != nil {
		h.Log.Error("org reload after update failed", zap.Error(err), zap.String("org_id", org.ID.Hex()))
		httpjson.Error(w, http.StatusInternalServerError, "failed to load organization")
		return
	}

	if a, ok := auth.CurrentAdmin(r); ok {
		h.AuditLog.OrgUpdated(ctx, r, a.Email, org.ID, changedFields(org, updated))
	}

	httpjson.Respond(w, http.StatusOK, toOrgResponse(updated))
}

// changedFields names the fields that differ between the stored org and its
// updated copy, for the audit trail.
func changedFields(before, after models.Organization) string {
	var changed []string
	if before.Name != after.Name {
		changed = append(changed, "name")
	}
	if before.City != after.City {
		changed = append(changed, "city")
	}
	if before.State != after.State {
		changed = append(changed, "state")
	}
	if before.TimeZone != after.TimeZone {
		changed = append(changed, "time_zone")
	}
	if before.ContactInfo != after.ContactInfo {
		changed = append(changed, "contact_info")
	}
	if before.Status != after.Status {
		changed = append(changed, "status")
	}
	return strings.Join(changed, ",")
}
