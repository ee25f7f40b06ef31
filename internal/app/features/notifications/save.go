// internal/app/features/notifications/save.go
//
// Shared save plumbing. A save request carries the revision the client
// loaded; the write is compare-and-swap on that revision, so two admins
// editing the same organization cannot silently clobber each other.
package notifications

import (
	"context"
	"net/http"
	"strings"

	organizationstore "github.com/civicatlas/notifyhub/internal/app/store/organizations"
	"github.com/civicatlas/notifyhub/internal/app/system/geofence"
	"github.com/civicatlas/notifyhub/internal/app/system/httpjson"
	"github.com/civicatlas/notifyhub/internal/app/system/notifdoc"
	"github.com/civicatlas/notifyhub/internal/app/system/orgutil"
	"github.com/civicatlas/notifyhub/internal/app/system/queryfilter"
	"github.com/civicatlas/notifyhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// saveRequest is the body for creating or updating a notification.
type saveRequest struct {
	// Rev is the organization revision the client loaded. The save is
	// refused with 409 when the stored revision has moved past it.
	Rev          int64               `json:"rev"`
	Notification models.Notification `json:"notification"`
}

// saveResponse returns the normalized document plus everything the editor
// needs to reconcile its state after a save or load.
type saveResponse struct {
	Notification models.Notification `json:"notification"`
	Rev          int64               `json:"rev"`

	// AccessDowngraded reports that "public" was requested but the org's
	// tier forced the document private.
	AccessDowngraded bool              `json:"accessDowngraded"`
	Problems         notifdoc.Problems `json:"problems,omitempty"`

	// WhereClause is the compiled attribute filter, so the editor shows
	// exactly what the data source will be asked.
	WhereClause string `json:"whereClause"`
}

func buildSaveResponse(res notifdoc.Result, rev int64) saveResponse {
	return saveResponse{
		Notification:     res.Notification,
		Rev:              rev,
		AccessDowngraded: res.AccessDowngraded,
		Problems:         res.Problems,
		WhereClause:      queryfilter.Compile(res.Notification.Source.QueryConfig),
	}
}

// refreshSpatialFilter re-serializes the geofence so the buffer geometry
// is always recomputed from the current filter geometry. A value that
// cannot be parsed or has no filter feature is left as the editor wrote
// it; Normalize already attached the editor hint for those.
func refreshSpatialFilter(n *models.Notification) {
	raw := strings.TrimSpace(n.Source.SpatialFilter)
	if raw == "" || raw == "null" {
		n.Source.SpatialFilter = ""
		return
	}
	parsed, err := geofence.Deserialize(raw)
	if err != nil {
		return
	}
	if parsed.Empty() {
		n.Source.SpatialFilter = ""
		return
	}
	if parsed.Filter == nil {
		return
	}
	var cfg geofence.BufferConfig
	if parsed.BufferConfig != nil {
		cfg = *parsed.BufferConfig
	}
	out, err := geofence.Serialize(parsed.Filter, cfg)
	if err != nil {
		return
	}
	n.Source.SpatialFilter = out
}

// replaceNotifications runs the CAS write and maps its failure modes onto
// API responses. Returns the new revision and false when a response has
// already been written.
func (h *Handler) replaceNotifications(ctx context.Context, w http.ResponseWriter, org models.Organization, expectedRev int64, notifications []models.Notification) (int64, bool) {
	newRev, err := organizationstore.New(h.DB).ReplaceNotifications(ctx, org.ID, expectedRev, notifications)
	if err != nil {
		switch err {
		case organizationstore.ErrStaleRevision:
			httpjson.Error(w, http.StatusConflict, "notifications were changed by someone else; reload and try again")
		case mongo.ErrNoDocuments:
			httpjson.Error(w, http.StatusNotFound, "organization not found")
		default:
			h.Log.Error("notification save failed", zap.Error(err), zap.String("org_id", org.ID.Hex()))
			httpjson.Error(w, http.StatusInternalServerError, "failed to save notifications")
		}
		return 0, false
	}
	return newRev, true
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
