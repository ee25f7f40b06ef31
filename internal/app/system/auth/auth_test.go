package auth_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/civicatlas/notifyhub/internal/app/system/auth"
	"go.uber.org/zap"
)

func initTestStore(t *testing.T) {
	t.Helper()
	err := auth.InitSessionStore("test-session-key-must-be-32-chars-long", "", false, zap.NewNop())
	if err != nil {
		t.Fatalf("failed to init session store: %v", err)
	}
}

func TestRequireSignedIn_NoAdmin_Returns401(t *testing.T) {
	handler := auth.RequireSignedIn(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("protected content"))
	}))

	req := httptest.NewRequest("GET", "/api/orgs", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected status %d, got %d", http.StatusUnauthorized, rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "unauthorized") {
		t.Errorf("expected error body, got %q", rec.Body.String())
	}
}

func TestRequireSignedIn_WithAdmin_Proceeds(t *testing.T) {
	called := false
	handler := auth.RequireSignedIn(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}))

	req := withTestAdmin(httptest.NewRequest("GET", "/api/orgs", nil), "admin")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if !called {
		t.Error("expected handler to be called")
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
}

func TestRequireRole_NoAdmin_Returns401(t *testing.T) {
	handler := auth.RequireRole("superadmin")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("PUT", "/api/orgs/x/license/notify", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected status %d, got %d", http.StatusUnauthorized, rec.Code)
	}
}

func TestRequireRole_WrongRole_Returns403(t *testing.T) {
	handler := auth.RequireRole("superadmin")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := withTestAdmin(httptest.NewRequest("PUT", "/api/orgs/x/license/notify", nil), "admin")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("expected status %d, got %d", http.StatusForbidden, rec.Code)
	}
}

func TestRequireRole_MultipleRoles(t *testing.T) {
	handler := auth.RequireRole("admin", "superadmin")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		role     string
		expected int
	}{
		{"admin", http.StatusOK},
		{"superadmin", http.StatusOK},
		{"viewer", http.StatusForbidden},
		{"editor", http.StatusForbidden},
	}

	for _, tc := range tests {
		t.Run(tc.role, func(t *testing.T) {
			req := withTestAdmin(httptest.NewRequest("GET", "/api/orgs", nil), tc.role)
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			if rec.Code != tc.expected {
				t.Errorf("role %q: expected status %d, got %d", tc.role, tc.expected, rec.Code)
			}
		})
	}
}

func TestRequireRole_CaseInsensitive(t *testing.T) {
	handler := auth.RequireRole("admin")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := withTestAdmin(httptest.NewRequest("GET", "/api/orgs", nil), "ADMIN")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected status %d for uppercase role, got %d", http.StatusOK, rec.Code)
	}
}

func TestCurrentAdmin_NoAdmin(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)

	admin, ok := auth.CurrentAdmin(req)

	if ok {
		t.Error("expected ok to be false when no admin in context")
	}
	if admin != nil {
		t.Error("expected admin to be nil when no admin in context")
	}
}

func TestSessionRoundTrip(t *testing.T) {
	initTestStore(t)

	admin := &auth.SessionAdmin{
		ID:    "507f1f77bcf86cd799439011",
		Name:  "Console Admin",
		Email: "admin@example.org",
		Role:  "superadmin",
	}

	// Sign in and capture the cookie.
	signinRec := httptest.NewRecorder()
	signinReq := httptest.NewRequest("POST", "/api/login", nil)
	if err := auth.SignIn(signinRec, signinReq, admin); err != nil {
		t.Fatalf("SignIn failed: %v", err)
	}
	cookies := signinRec.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("SignIn set no cookies")
	}

	// Replay the cookie through the middleware.
	var got *auth.SessionAdmin
	handler := auth.LoadSessionAdmin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = auth.CurrentAdmin(r)
	}))

	req := httptest.NewRequest("GET", "/api/me", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if got == nil {
		t.Fatal("expected admin to round-trip through the session")
	}
	if got.Email != admin.Email {
		t.Errorf("Email = %q, want %q", got.Email, admin.Email)
	}
	if got.Role != admin.Role {
		t.Errorf("Role = %q, want %q", got.Role, admin.Role)
	}
	if !got.IsSuperAdmin() {
		t.Error("expected IsSuperAdmin to be true")
	}
}

func TestSignOutClearsSession(t *testing.T) {
	initTestStore(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/logout", nil)
	if err := auth.SignOut(rec, req); err != nil {
		t.Fatalf("SignOut failed: %v", err)
	}

	var sessionCookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == auth.SessionName {
			sessionCookie = c
		}
	}
	if sessionCookie == nil {
		t.Fatal("SignOut set no session cookie")
	}
	if sessionCookie.MaxAge != -1 {
		t.Errorf("MaxAge = %d, want -1", sessionCookie.MaxAge)
	}
}

// withTestAdmin injects a SessionAdmin into the request context for testing.
// This simulates what LoadSessionAdmin middleware does.
func withTestAdmin(r *http.Request, role string) *http.Request {
	admin := &auth.SessionAdmin{
		ID:    "507f1f77bcf86cd799439011", // Valid ObjectID hex
		Name:  "Test Admin",
		Email: "test@example.com",
		Role:  role,
	}
	return auth.WithTestAdmin(r, admin)
}
