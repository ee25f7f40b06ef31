// internal/app/features/auditlogs/routes.go
package auditlogs

import (
	"github.com/civicatlas/notifyhub/internal/app/system/auth"
	"github.com/civicatlas/notifyhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the audit log endpoints. Mounted under
// /api/orgs/{orgID}/logs.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Use(auth.RequireSignedIn)
	r.Use(auth.RequireRole(models.RoleAdmin, models.RoleSuperAdmin))

	r.Get("/", h.HandleQuery)

	return r
}
