// internal/app/features/organizations/new.go
package organizations

import (
	"net/http"
	"strings"

	organizationstore "github.com/civicatlas/notifyhub/internal/app/store/organizations"
	"github.com/civicatlas/notifyhub/internal/app/system/auth"
	"github.com/civicatlas/notifyhub/internal/app/system/httpjson"
	"github.com/civicatlas/notifyhub/internal/app/system/timeouts"
	"github.com/civicatlas/notifyhub/internal/app/system/timezones"
	"github.com/civicatlas/notifyhub/internal/domain/models"
	"go.uber.org/zap"
)

const maxOrgNameLen = 200

// orgWriteRequest is the body for creating or updating an organization.
type orgWriteRequest struct {
	Name        string `json:"name"`
	City        string `json:"city"`
	State       string `json:"state"`
	TimeZone    string `json:"time_zone"`
	ContactInfo string `json:"contact_info"`
	Status      string `json:"status"`
}

func (req *orgWriteRequest) trim() {
	req.Name = strings.TrimSpace(req.Name)
	req.City = strings.TrimSpace(req.City)
	req.State = strings.TrimSpace(req.State)
	req.TimeZone = strings.TrimSpace(req.TimeZone)
	req.ContactInfo = strings.TrimSpace(req.ContactInfo)
	req.Status = strings.ToLower(strings.TrimSpace(req.Status))
}

// HandleCreate processes POST /api/orgs.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
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
	if req.TimeZone == "" || !timezones.Valid(req.TimeZone) {
		httpjson.Error(w, http.StatusUnprocessableEntity, "a valid time zone is required")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "org create")
	defer cancel()

	org, err := organizationstore.New(h.DB).Create(ctx, models.Organization{
		Name:        req.Name,
		City:        req.City,
		State:       req.State,
		TimeZone:    req.TimeZone,
		ContactInfo: req.ContactInfo,
	})
	if err != nil {
		if err == organizationstore.ErrDuplicateOrganization {
			httpjson.Error(w, http.StatusConflict, "an organization with that name already exists")
			return
		}
		h.Log.Error("org create failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "failed to create organization")
		return
	}

	if a, ok := auth.CurrentAdmin(r); ok {
		h.AuditLog.OrgCreated(ctx, r, a.Email, org.ID, org.Name)
	}

	httpjson.Respond(w, http.StatusCreated, toOrgResponse(org))
}
