// internal/app/features/organizations/routes.go
package organizations

import (
	"github.com/civicatlas/notifyhub/internal/app/system/auth"
	"github.com/civicatlas/notifyhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the organization endpoints under /api/orgs.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	// Admins and superadmins manage organizations.
	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireSignedIn)
		pr.Use(auth.RequireRole(models.RoleAdmin, models.RoleSuperAdmin))

		pr.Get("/", h.HandleList)
		pr.Post("/", h.HandleCreate)
		pr.Get("/{orgID}", h.HandleView)
		pr.Put("/{orgID}", h.HandleUpdate)
		pr.Delete("/{orgID}", h.HandleDelete)

		pr.Get("/{orgID}/license", h.HandleLicenseView)
	})

	// Only superadmins change license tiers.
	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireSignedIn)
		pr.Use(auth.RequireRole(models.RoleSuperAdmin))

		pr.Put("/{orgID}/license/{product}", h.HandleLicenseUpdate)
	})

	return r
}
