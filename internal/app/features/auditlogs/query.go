// internal/app/features/auditlogs/query.go
package auditlogs

import (
	"net/http"
	"strconv"
	"time"

	logstore "github.com/civicatlas/notifyhub/internal/app/store/logs"
	"github.com/civicatlas/notifyhub/internal/app/system/httpjson"
	"github.com/civicatlas/notifyhub/internal/app/system/orgutil"
	"github.com/civicatlas/notifyhub/internal/app/system/timeouts"
	"github.com/civicatlas/notifyhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const maxPageSize = 500

// HandleQuery serves GET /api/orgs/{orgID}/logs. Filters come from
// query parameters: category, action, start, end (RFC 3339), limit,
// offset. Entries come back newest first.
func (h *Handler) HandleQuery(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "audit log query")
	defer cancel()

	org, err := orgutil.ResolveOrgFromHex(ctx, h.DB, chi.URLParam(r, "orgID"))
	if err != nil {
		h.respondOrgError(w, err)
		return
	}

	q := r.URL.Query()
	filter := logstore.QueryFilter{
		OrganizationID: &org.ID,
		Category:       q.Get("category"),
		Action:         q.Get("action"),
	}

	if v := q.Get("start"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			httpjson.Error(w, http.StatusBadRequest, "start must be an RFC 3339 timestamp")
			return
		}
		filter.StartTime = &t
	}
	if v := q.Get("end"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			httpjson.Error(w, http.StatusBadRequest, "end must be an RFC 3339 timestamp")
			return
		}
		filter.EndTime = &t
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n < 1 {
			httpjson.Error(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		if n > maxPageSize {
			n = maxPageSize
		}
		filter.Limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n < 0 {
			httpjson.Error(w, http.StatusBadRequest, "offset must be a non-negative integer")
			return
		}
		filter.Offset = n
	}

	store := logstore.New(h.DB)
	entries, err := store.Query(ctx, filter)
	if err != nil {
		h.Log.Error("audit log query failed", zap.Error(err), zap.String("org_id", org.ID.Hex()))
		httpjson.Error(w, http.StatusInternalServerError, "failed to query logs")
		return
	}
	if entries == nil {
		entries = []models.LogEntry{}
	}

	total, err := store.CountByFilter(ctx, filter)
	if err != nil {
		h.Log.Error("audit log count failed", zap.Error(err), zap.String("org_id", org.ID.Hex()))
		httpjson.Error(w, http.StatusInternalServerError, "failed to query logs")
		return
	}

	httpjson.Respond(w, http.StatusOK, map[string]any{
		"organizationId": org.ID,
		"entries":        entries,
		"total":          total,
	})
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
