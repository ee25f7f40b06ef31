// internal/app/features/aisuggest/routes.go
package aisuggest

import (
	"github.com/civicatlas/notifyhub/internal/app/system/auth"
	"github.com/civicatlas/notifyhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the suggestion endpoint. Mounted under /api/ai.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Use(auth.RequireSignedIn)
	r.Use(auth.RequireRole(models.RoleAdmin, models.RoleSuperAdmin))

	r.Post("/suggest-fields", h.HandleSuggestFields)

	return r
}
