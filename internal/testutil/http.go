package testutil

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/civicatlas/notifyhub/internal/app/system/auth"
	"github.com/civicatlas/notifyhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
// Repeated calls accumulate parameters on the same route context.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		rctx = chi.NewRouteContext()
		r = r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
	}
	rctx.URLParams.Add(key, value)
	return r
}

// AdminSession returns a SessionAdmin with the admin role.
func AdminSession() *auth.SessionAdmin {
	return &auth.SessionAdmin{
		ID:    primitive.NewObjectID().Hex(),
		Name:  "Test Admin",
		Email: "admin@test.com",
		Role:  models.RoleAdmin,
	}
}

// SuperAdminSession returns a SessionAdmin with the superadmin role.
func SuperAdminSession() *auth.SessionAdmin {
	return &auth.SessionAdmin{
		ID:    primitive.NewObjectID().Hex(),
		Name:  "Test Superadmin",
		Email: "superadmin@test.com",
		Role:  models.RoleSuperAdmin,
	}
}

// WithAdmin adds an admin to the request context for testing authenticated
// handlers. This bypasses the session middleware and injects the admin
// directly.
func WithAdmin(r *http.Request, a *auth.SessionAdmin) *http.Request {
	return auth.WithTestAdmin(r, a)
}

// NewJSONRequest creates an HTTP request carrying a JSON body.
func NewJSONRequest(method, target, body string) *http.Request {
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, target, nil)
	} else {
		r = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	r.Header.Set("Content-Type", "application/json")
	return r
}
