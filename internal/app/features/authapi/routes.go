// internal/app/features/authapi/routes.go
package authapi

import (
	"github.com/civicatlas/notifyhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes returns the session endpoints, mounted under /api in bootstrap.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Post("/login", h.HandleLogin)
	r.Post("/logout", h.HandleLogout)

	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireSignedIn)
		pr.Get("/me", h.HandleMe)
	})

	return r
}
