// internal/app/features/aisuggest/suggest.go
package aisuggest

import (
	"net/http"

	"github.com/civicatlas/notifyhub/internal/app/system/genai"
	"github.com/civicatlas/notifyhub/internal/app/system/httpjson"
	"github.com/civicatlas/notifyhub/internal/app/system/timeouts"
	"go.uber.org/zap"
)

type suggestRequest struct {
	LayerName string            `json:"layerName"`
	Fields    []genai.LayerField `json:"fields"`
}

// HandleSuggestFields processes POST /api/ai/suggest-fields. Model
// trouble never surfaces as an error; the heuristic answer comes back
// instead.
func (h *Handler) HandleSuggestFields(w http.ResponseWriter, r *http.Request) {
	var req suggestRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Upstream(), h.Log, "field suggestion")
	defer cancel()

	suggestions, err := h.Client.SuggestFields(ctx, req.LayerName, req.Fields)
	if err != nil {
		// SuggestFields degrades internally; an error here means the
		// request itself was unusable.
		h.Log.Warn("field suggestion failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "failed to rank fields")
		return
	}
	if suggestions == nil {
		suggestions = []genai.FieldSuggestion{}
	}

	httpjson.Respond(w, http.StatusOK, map[string]any{"suggestions": suggestions})
}
