// internal/app/features/arcgisproxy/routes.go
package arcgisproxy

import (
	"github.com/civicatlas/notifyhub/internal/app/system/auth"
	"github.com/civicatlas/notifyhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the proxy endpoints. Mounted under /api/arcgis.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Use(auth.RequireSignedIn)
	r.Use(auth.RequireRole(models.RoleAdmin, models.RoleSuperAdmin))

	r.Post("/metadata", h.HandleMetadata)
	r.Post("/query", h.HandleQuery)
	r.Post("/proxy", h.HandleProxy)
	r.Post("/token", h.HandleToken)
	r.Post("/json", h.HandleJSON)

	return r
}
