// internal/app/features/emailtemplates/routes.go
package emailtemplates

import (
	"github.com/civicatlas/notifyhub/internal/app/system/auth"
	"github.com/civicatlas/notifyhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the template endpoints under /api/templates.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Use(auth.RequireSignedIn)
	r.Use(auth.RequireRole(models.RoleAdmin, models.RoleSuperAdmin))

	r.Get("/", h.HandleList)
	r.Post("/", h.HandleCreate)
	r.Post("/validate", h.HandleValidate)
	r.Post("/preview", h.HandlePreview)
	r.Get("/{templateID}", h.HandleView)
	r.Put("/{templateID}", h.HandleUpdate)
	r.Delete("/{templateID}", h.HandleDelete)

	return r
}
