// internal/app/features/organizations/list.go
package organizations

import (
	"net/http"

	"github.com/civicatlas/notifyhub/internal/app/system/httpjson"
	"github.com/civicatlas/notifyhub/internal/app/system/normalize"
	"github.com/civicatlas/notifyhub/internal/app/system/timeouts"
	"go.uber.org/zap"

	"github.com/civicatlas/notifyhub/internal/app/system/orgutil"
)

// HandleList serves GET /api/orgs.
//
// Query parameters: search (case-folded name prefix), after/before (keyset
// cursors from a previous page).
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	search := normalize.QueryParam(r.URL.Query().Get("search"))
	after := r.URL.Query().Get("after")
	before := r.URL.Query().Get("before")

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "org list")
	defer cancel()

	data, err := orgutil.FetchOrgList(ctx, h.DB, h.Log, search, after, before)
	if err != nil {
		h.Log.Error("org list fetch failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "failed to load organizations")
		return
	}

	httpjson.Respond(w, http.StatusOK, data)
}
