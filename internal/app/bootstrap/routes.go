// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	aisuggestfeature "github.com/civicatlas/notifyhub/internal/app/features/aisuggest"
	arcgisproxyfeature "github.com/civicatlas/notifyhub/internal/app/features/arcgisproxy"
	auditlogsfeature "github.com/civicatlas/notifyhub/internal/app/features/auditlogs"
	authapifeature "github.com/civicatlas/notifyhub/internal/app/features/authapi"
	emailtemplatesfeature "github.com/civicatlas/notifyhub/internal/app/features/emailtemplates"
	exporttemplatesfeature "github.com/civicatlas/notifyhub/internal/app/features/exporttemplates"
	healthfeature "github.com/civicatlas/notifyhub/internal/app/features/health"
	notificationsfeature "github.com/civicatlas/notifyhub/internal/app/features/notifications"
	organizationsfeature "github.com/civicatlas/notifyhub/internal/app/features/organizations"
	orgusersfeature "github.com/civicatlas/notifyhub/internal/app/features/orgusers"
	timezonesfeature "github.com/civicatlas/notifyhub/internal/app/features/timezones"
	invitationstore "github.com/civicatlas/notifyhub/internal/app/store/invitations"
	logstore "github.com/civicatlas/notifyhub/internal/app/store/logs"
	"github.com/civicatlas/notifyhub/internal/app/system/arcgis"
	"github.com/civicatlas/notifyhub/internal/app/system/auditlog"
	"github.com/civicatlas/notifyhub/internal/app/system/auth"
	"github.com/civicatlas/notifyhub/internal/app/system/genai"
	"github.com/civicatlas/notifyhub/internal/app/system/mailer"
	"github.com/civicatlas/notifyhub/internal/app/system/ratelimit"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed. At this point you have access to:
//   - coreCfg: WAFFLE core configuration (ports, env, timeouts, etc.)
//   - appCfg: app-specific configuration defined in AppConfig
//   - deps: any DB or backend clients bundled in DBDeps
//   - logger: the fully configured zap.Logger for this app
//
// NotifyHub is a JSON API for a browser SPA: this builds the shared
// collaborators (audit logger, ArcGIS client, generation client, mailer,
// invitation store), applies the session middleware, and mounts one
// feature router per surface.
//
// Routing note: organizations owns /api/orgs/{orgID} itself, so the
// org-scoped subresources (notifications, atlas templates, users,
// invitations, logs) are mounted at static child paths. chi tries those
// branches first and falls back to the organizations router for the
// rest, which keeps GET /api/orgs/{orgID} and the subresource paths out
// of each other's way.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	if err := auth.InitSessionStore(appCfg.SessionKey, appCfg.SessionDomain, secure, logger); err != nil {
		logger.Error("session store init failed", zap.Error(err))
		return nil, err
	}

	db := deps.MongoDatabase

	// Shared collaborators. Handlers receive these instead of building
	// their own so there is one HTTP client, and one token cache, per
	// upstream.
	audit := auditlog.New(logstore.New(db), logger, auditlog.Config{
		Auth:  appCfg.AuditLogAuth,
		Admin: appCfg.AuditLogAdmin,
	})

	var tokenCache arcgis.TokenCache
	if deps.Redis != nil {
		tokenCache = arcgis.NewRedisTokenCache(deps.Redis, logger)
	} else {
		tokenCache = arcgis.NewMemoryTokenCache()
	}
	arcgisClient := arcgis.New(logger, tokenCache, appCfg.ArcGISTimeout)

	genaiClient := genai.New(logger, appCfg.GenAIEndpoint, appCfg.GenAIAPIKey, appCfg.GenAITimeout)

	mail := mailer.New(logger, mailer.Config{
		APIKey:      appCfg.MailerAPIKey,
		SenderName:  appCfg.MailerSenderName,
		SenderEmail: appCfg.MailerSenderEmail,
		BaseURL:     appCfg.MailerBaseURL,
	})

	invitations := invitationstore.New(db, appCfg.InviteExpiry)

	r := chi.NewRouter()

	// Global auth middleware: loads the signed-in admin into context so
	// handlers can use auth.CurrentAdmin(r).
	r.Use(auth.LoadSessionAdmin)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// Org-scoped subresources; static children of /api/orgs/{orgID}.
	notifHandler := notificationsfeature.NewHandler(db, audit, mail, logger)
	r.Mount("/api/orgs/{orgID}/notifications", notificationsfeature.Routes(notifHandler))

	exportHandler := exporttemplatesfeature.NewHandler(db, audit, logger)
	r.Mount("/api/orgs/{orgID}/atlas/templates", exporttemplatesfeature.Routes(exportHandler))

	orgUsersHandler := orgusersfeature.NewHandler(db, audit, mail, invitations, appCfg.AcceptBaseURL, logger)
	r.Mount("/api/orgs/{orgID}/users", orgusersfeature.UserRoutes(orgUsersHandler))
	r.Mount("/api/orgs/{orgID}/invitations", orgusersfeature.InvitationRoutes(orgUsersHandler))

	logsHandler := auditlogsfeature.NewHandler(db, logger)
	r.Mount("/api/orgs/{orgID}/logs", auditlogsfeature.Routes(logsHandler))

	// Organization CRUD and licensing own the rest of /api/orgs.
	orgHandler := organizationsfeature.NewHandler(db, audit, logger)
	r.Mount("/api/orgs", organizationsfeature.Routes(orgHandler))

	// Invitation acceptance is public; the token is the credential.
	r.Mount("/api/invitations", orgusersfeature.AcceptRoutes(orgUsersHandler))

	// Shared email template library
	tmplHandler := emailtemplatesfeature.NewHandler(db, audit, logger)
	r.Mount("/api/templates", emailtemplatesfeature.Routes(tmplHandler))

	// Upstream adapters
	arcgisHandler := arcgisproxyfeature.NewHandler(arcgisClient, logger)
	r.Mount("/api/arcgis", arcgisproxyfeature.Routes(arcgisHandler))

	aiHandler := aisuggestfeature.NewHandler(genaiClient, logger)
	r.Mount("/api/ai", aisuggestfeature.Routes(aiHandler))

	tzHandler := timezonesfeature.NewHandler(logger)
	r.Mount("/api/timezones", timezonesfeature.Routes(tzHandler))

	// Session endpoints (/api/login, /api/logout, /api/me) fall through
	// the static branches above.
	authHandler := authapifeature.NewHandler(db, audit, ratelimit.NewLoginLimiter(), logger)
	r.Mount("/api", authapifeature.Routes(authHandler))

	return r, nil
}
