// internal/app/features/timezones/handler.go

// Package timezones serves the zone list the organization settings
// screen offers. The list is embedded, so the endpoint needs no store.
package timezones

import (
	"net/http"

	"github.com/civicatlas/notifyhub/internal/app/system/httpjson"
	tzdata "github.com/civicatlas/notifyhub/internal/app/system/timezones"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Handler serves the time zone catalog.
type Handler struct {
	Log *zap.Logger
}

// NewHandler constructs a time zone handler.
func NewHandler(logger *zap.Logger) *Handler {
	return &Handler{Log: logger}
}

// Routes mounts the catalog endpoint. Mounted under /api/timezones.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.HandleList)
	return r
}

// HandleList serves GET /api/timezones: the curated zones grouped by
// region, in display order.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	groups, err := tzdata.Groups()
	if err != nil {
		h.Log.Error("time zone list unavailable", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "failed to load time zones")
		return
	}
	httpjson.Respond(w, http.StatusOK, map[string]any{"groups": groups})
}
