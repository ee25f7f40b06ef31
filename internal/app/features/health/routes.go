// internal/app/features/health/routes.go
package health

import "github.com/go-chi/chi/v5"

// Routes mounts the liveness endpoint. Mounted under /health, outside
// the authenticated API tree.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.Serve)

	return r
}
