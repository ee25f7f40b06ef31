// internal/app/features/exporttemplates/routes.go
package exporttemplates

import (
	"github.com/civicatlas/notifyhub/internal/app/system/auth"
	"github.com/civicatlas/notifyhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the export template endpoints. Mounted under
// /api/orgs/{orgID}/atlas/templates.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Use(auth.RequireSignedIn)
	r.Use(auth.RequireRole(models.RoleAdmin, models.RoleSuperAdmin))

	r.Get("/", h.HandleList)
	r.Put("/", h.HandleReplaceAll)
	r.Get("/{templateID}", h.HandleGet)
	r.Put("/{templateID}", h.HandleUpsert)

	return r
}
