// internal/app/features/orgusers/routes.go
package orgusers

import (
	"github.com/civicatlas/notifyhub/internal/app/system/auth"
	"github.com/civicatlas/notifyhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// UserRoutes mounts the org roster endpoints. Mounted under
// /api/orgs/{orgID}/users.
func UserRoutes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Use(auth.RequireSignedIn)
	r.Use(auth.RequireRole(models.RoleAdmin, models.RoleSuperAdmin))

	r.Get("/", h.HandleListUsers)
	r.Put("/{userID}", h.HandleUpdateUser)
	r.Delete("/{userID}", h.HandleDeleteUser)

	return r
}

// InvitationRoutes mounts the org-scoped invitation endpoints. Mounted
// under /api/orgs/{orgID}/invitations.
func InvitationRoutes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Use(auth.RequireSignedIn)
	r.Use(auth.RequireRole(models.RoleAdmin, models.RoleSuperAdmin))

	r.Get("/", h.HandleListInvitations)
	r.Post("/", h.HandleCreateInvitation)
	r.Post("/import", h.HandleImport)

	return r
}

// AcceptRoutes mounts the public invitation endpoints: no session, the
// token is the credential. Mounted under /api/invitations.
func AcceptRoutes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Get("/{token}", h.HandleInvitationInfo)
	r.Post("/{token}/accept", h.HandleAccept)

	return r
}
