// internal/app/features/authapi/handler.go
package authapi

import (
	"net/http"
	"strings"

	adminstore "github.com/civicatlas/notifyhub/internal/app/store/admins"
	"github.com/civicatlas/notifyhub/internal/app/system/auditlog"
	"github.com/civicatlas/notifyhub/internal/app/system/auth"
	"github.com/civicatlas/notifyhub/internal/app/system/httpjson"
	"github.com/civicatlas/notifyhub/internal/app/system/normalize"
	"github.com/civicatlas/notifyhub/internal/app/system/ratelimit"
	"github.com/civicatlas/notifyhub/internal/app/system/timeouts"
	"github.com/civicatlas/notifyhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Handler serves the console's session endpoints: login, logout, and the
// current-admin lookup the SPA calls on startup.
type Handler struct {
	DB       *mongo.Database
	Log      *zap.Logger
	AuditLog *auditlog.Logger
	Limiter  *ratelimit.LoginLimiter
}

func NewHandler(db *mongo.Database, audit *auditlog.Logger, limiter *ratelimit.LoginLimiter, logger *zap.Logger) *Handler {
	return &Handler{
		DB:       db,
		Log:      logger,
		AuditLog: audit,
		Limiter:  limiter,
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// adminResponse is the session principal as the SPA sees it.
type adminResponse struct {
	ID       string `json:"id"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

func toAdminResponse(a *auth.SessionAdmin) adminResponse {
	return adminResponse{
		ID:       a.ID,
		FullName: a.Name,
		Email:    a.Email,
		Role:     a.Role,
	}
}

// HandleLogin processes POST /api/login.
//
// Wrong email and wrong password return the same message so the endpoint
// does not confirm which admin accounts exist; the audit log records the
// real reason.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	email := normalize.Email(req.Email)
	if email == "" || req.Password == "" {
		httpjson.Error(w, http.StatusBadRequest, "email and password are required")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "login")
	defer cancel()

	if allowed, reason := h.Limiter.Check(r, email); !allowed {
		h.AuditLog.LoginRateLimited(ctx, r, email)
		h.Log.Warn("login rate limited",
			zap.String("email", email),
			zap.String("reason", reason))
		httpjson.Error(w, http.StatusTooManyRequests, "too many login attempts; try again later")
		return
	}

	admins := adminstore.New(h.DB)
	admin, err := admins.GetByEmail(ctx, email)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			h.AuditLog.LoginFailedAdminNotFound(ctx, r, email)
			httpjson.Error(w, http.StatusUnauthorized, "invalid email or password")
			return
		}
		h.Log.Error("login lookup failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "login failed")
		return
	}

	if admin.Status == models.StatusDisabled {
		h.AuditLog.LoginFailedAdminDisabled(ctx, r, email)
		httpjson.Error(w, http.StatusForbidden, "this account is disabled")
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(req.Password)) != nil {
		h.AuditLog.LoginFailedWrongPassword(ctx, r, email)
		httpjson.Error(w, http.StatusUnauthorized, "invalid email or password")
		return
	}

	principal := &auth.SessionAdmin{
		ID:    admin.ID.Hex(),
		Name:  admin.FullName,
		Email: admin.Email,
		Role:  admin.Role,
	}
	if err := auth.SignIn(w, r, principal); err != nil {
		h.Log.Error("session write failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "login failed")
		return
	}

	// A successful login clears the email's failure window so a shared
	// office IP does not lock the account's real owner out.
	h.Limiter.ResetEmail(email)

	if err := admins.TouchLastLogin(ctx, admin.ID); err != nil {
		h.Log.Warn("last-login update failed", zap.Error(err))
	}
	h.AuditLog.LoginSuccess(ctx, r, email)

	httpjson.Respond(w, http.StatusOK, toAdminResponse(principal))
}

// HandleLogout processes POST /api/logout. Logging out an anonymous
// request succeeds quietly.
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if a, ok := auth.CurrentAdmin(r); ok {
		ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "logout")
		defer cancel()
		h.AuditLog.Logout(ctx, r, a.Email)
	}
	if err := auth.SignOut(w, r); err != nil {
		h.Log.Warn("session clear failed", zap.Error(err))
	}
	httpjson.Respond(w, http.StatusNoContent, nil)
}

// HandleMe serves GET /api/me for the signed-in admin.
func (h *Handler) HandleMe(w http.ResponseWriter, r *http.Request) {
	a, ok := auth.CurrentAdmin(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	// Sessions issued before emails were normalized at login may still
	// carry surrounding whitespace.
	a.Email = strings.TrimSpace(a.Email)
	httpjson.Respond(w, http.StatusOK, toAdminResponse(a))
}
