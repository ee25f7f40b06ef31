package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/civicatlas/notifyhub/internal/app/system/httpjson"
	"github.com/civicatlas/notifyhub/internal/domain/models"
	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"
)

/*─────────────────────────────────────────────────────────────────────────────*
| Session constants & globals                                                |
*─────────────────────────────────────────────────────────────────────────────*/

const (
	SessionName = "notifyhub-session"

	isAuthKey  = "is_authenticated"
	adminID    = "admin_id"
	adminName  = "admin_name"
	adminEmail = "admin_email"
	adminRole  = "admin_role"
)

// Store is initialised once via InitSessionStore.
var Store *sessions.CookieStore

/*─────────────────────────────────────────────────────────────────────────────*
| Current-Admin helper                                                       |
*─────────────────────────────────────────────────────────────────────────────*/

// SessionAdmin is what we cache in the session & inject into r.Context().
type SessionAdmin struct {
	ID    string
	Name  string
	Email string
	Role  string
}

// IsSuperAdmin reports whether the admin may change licensing.
func (a *SessionAdmin) IsSuperAdmin() bool {
	return a != nil && a.Role == models.RoleSuperAdmin
}

type ctxKey string

const currentAdminKey ctxKey = "currentAdmin"

// CurrentAdmin returns the admin & “found?” flag.
func CurrentAdmin(r *http.Request) (*SessionAdmin, bool) {
	a, ok := r.Context().Value(currentAdminKey).(*SessionAdmin)
	return a, ok
}

// LoadSessionAdmin injects the admin into context if they are logged in.
// If the session store has not been initialized yet, it is a no-op.
func LoadSessionAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// If the session store isn't configured yet, just continue.
		if Store == nil {
			next.ServeHTTP(w, r)
			return
		}

		sess, _ := Store.Get(r, SessionName)

		if isAuth, _ := sess.Values[isAuthKey].(bool); isAuth {
			a := &SessionAdmin{
				ID:    getString(sess, adminID),
				Name:  getString(sess, adminName),
				Email: getString(sess, adminEmail),
				Role:  getString(sess, adminRole),
			}
			r = withAdmin(r, a)
		}
		next.ServeHTTP(w, r)
	})
}

// RequireSignedIn ensures there is an admin in context (set by
// LoadSessionAdmin). The console is a JSON API, so an anonymous request
// gets a 401 with an error body rather than a login redirect.
func RequireSignedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentAdmin(r); ok {
			next.ServeHTTP(w, r)
			return
		}
		httpjson.Error(w, http.StatusUnauthorized, "unauthorized")
	})
}

// RequireRole ensures there is an admin with one of the allowed roles in
// context: 401 when anonymous, 403 when signed in with the wrong role.
func RequireRole(allowed ...string) func(http.Handler) http.Handler {
	set := make(map[string]struct{}, len(allowed))
	for _, role := range allowed {
		set[strings.ToLower(strings.TrimSpace(role))] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			a, ok := CurrentAdmin(r)
			if !ok {
				httpjson.Error(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			if _, has := set[strings.ToLower(a.Role)]; !has {
				httpjson.Error(w, http.StatusForbidden, "forbidden")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| Sign-in / sign-out                                                         |
*─────────────────────────────────────────────────────────────────────────────*/

// SignIn writes the admin into the session cookie.
func SignIn(w http.ResponseWriter, r *http.Request, a *SessionAdmin) error {
	if Store == nil {
		return fmt.Errorf("session store not initialized")
	}
	sess, err := Store.Get(r, SessionName)
	if err != nil {
		// Get still hands back a usable fresh session; a decode failure
		// just means the browser sent a cookie from a rotated key.
		if scErr, ok := err.(securecookie.Error); ok && scErr.IsDecode() {
			zap.L().Warn("session cookie invalid, using fresh session", zap.Error(err))
		} else {
			zap.L().Error("session store error, using fresh session", zap.Error(err))
		}
	}
	sess.Values[isAuthKey] = true
	sess.Values[adminID] = a.ID
	sess.Values[adminName] = a.Name
	sess.Values[adminEmail] = a.Email
	sess.Values[adminRole] = a.Role
	return sess.Save(r, w)
}

// SignOut clears the session cookie. Signing out an anonymous request is
// not an error.
func SignOut(w http.ResponseWriter, r *http.Request) error {
	if Store == nil {
		return nil
	}
	sess, _ := Store.Get(r, SessionName)
	sess.Values = map[any]any{}
	sess.Options.MaxAge = -1
	return sess.Save(r, w)
}

// InitSessionStore initializes the global session Store using the provided
// session key and domain. The `secure` flag controls whether cookies are
// marked Secure and which SameSite mode is used.
//
// In production (secure=true), cookies should be Secure + SameSite=None
// (for cross-site use with HTTPS).
// In local dev over http://localhost, use secure=false so cookies are accepted.
func InitSessionStore(sessionKey, domain string, secure bool, logger *zap.Logger) error {
	if sessionKey == "" {
		return fmt.Errorf("session key is empty; provide ≥32 random chars")
	}
	if len(sessionKey) < 32 {
		logger.Warn("session key is short; 32+ chars recommended",
			zap.Int("length", len(sessionKey)))
	}

	store := sessions.NewCookieStore([]byte(sessionKey))
	opts := &sessions.Options{
		Domain:   domain,
		Path:     "/",
		Secure:   secure,
		HttpOnly: true,
	}

	// SameSite handling: in prod with Secure cookies, we use None
	// so cookies can be sent in cross-site contexts. In dev, Lax is fine.
	if secure {
		opts.SameSite = http.SameSiteNoneMode
	} else {
		opts.SameSite = http.SameSiteLaxMode
	}

	store.Options = opts
	Store = store

	logger.Info("session store initialized",
		zap.Bool("secure", secure),
		zap.String("domain", domain))

	return nil
}

// WithTestAdmin injects an admin directly into the request context,
// bypassing the session store. Test use only.
func WithTestAdmin(r *http.Request, a *SessionAdmin) *http.Request {
	return withAdmin(r, a)
}

// helpers

func withAdmin(r *http.Request, a *SessionAdmin) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), currentAdminKey, a))
}

// getString safely extracts a string from a session value.
func getString(s *sessions.Session, key string) string {
	if v, ok := s.Values[key].(string); ok {
		return v
	}
	return ""
}
