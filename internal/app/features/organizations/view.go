// internal/app/features/organizations/view.go
package organizations

import (
	"net/http"
	"time"

	"github.com/civicatlas/notifyhub/internal/app/system/httpjson"
	"github.com/civicatlas/notifyhub/internal/app/system/orgutil"
	"github.com/civicatlas/notifyhub/internal/app/system/timeouts"
	"github.com/civicatlas/notifyhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// orgResponse is the org detail the console shows. Notifications travel
// through their own endpoints; the detail carries only their count so the
// payload stays small for orgs with large notification sets.
type orgResponse struct {
	ID          primitive.ObjectID `json:"id"`
	Name        string             `json:"name"`
	City        string             `json:"city,omitempty"`
	State       string             `json:"state,omitempty"`
	TimeZone    string             `json:"time_zone,omitempty"`
	ContactInfo string             `json:"contact_info,omitempty"`
	Status      string             `json:"status"`

	License *models.LicenseInfo `json:"license,omitempty"`

	NotificationCount int   `json:"notification_count"`
	NotificationsRev  int64 `json:"notificationsRev"`

	ExportTemplateCount int `json:"export_template_count"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toOrgResponse(org models.Organization) orgResponse {
	resp := orgResponse{
		ID:                org.ID,
		Name:              org.Name,
		City:              org.City,
		State:             org.State,
		TimeZone:          org.TimeZone,
		ContactInfo:       org.ContactInfo,
		Status:            org.Status,
		License:           org.License,
		NotificationCount: len(org.Notifications),
		NotificationsRev:  org.NotificationsRev,
		CreatedAt:         org.CreatedAt,
		UpdatedAt:         org.UpdatedAt,
	}
	if org.AtlasConfig != nil {
		resp.ExportTemplateCount = len(org.AtlasConfig.ExportTemplates)
	}
	return resp
}

// HandleView serves GET /api/orgs/{orgID}.
func (h *Handler) HandleView(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "org view")
	defer cancel()

	org, err := orgutil.ResolveOrgFromHex(ctx, h.DB, chi.URLParam(r, "orgID"))
	if err != nil {
		h.respondOrgError(w, err)
		return
	}

	httpjson.Respond(w, http.StatusOK, toOrgResponse(org))
}

// respondOrgError maps org resolution failures onto API statuses.
func (h *Handler) respondOrgError(w http.ResponseWriter, err error) {
	switch {
	case err == orgutil.ErrBadOrgID:
		httpjson.Error(w, http.StatusBadRequest, "invalid organization id")
	case err == orgutil.ErrOrgNotFound:
		httpjson.Error(w, http.StatusNotFound, "organization not found")
	case err == orgutil.ErrOrgNotActive:
		httpjson.Error(w, http.StatusConflict, "organization is not active")
	default:
		h.Log.Error("org lookup failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "failed to load organization")
	}
}
