// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"net/mail"
	"time"

	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// appConfigKeys defines the configuration keys for NotifyHub.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, session_key, etc.
//   - Environment variables: NOTIFYHUB_MONGO_URI, NOTIFYHUB_SESSION_KEY, etc.
//   - Command-line flags: --mongo_uri, --session_key, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "notify_hub", Desc: "MongoDB database name"},
	{Name: "session_key", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "Session signing key (must be strong in production)"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},

	// Transactional email provider
	{Name: "mailer_api_key", Default: "", Desc: "Email provider API key (blank disables outbound mail)"},
	{Name: "mailer_sender_name", Default: "NotifyHub", Desc: "From display name for outbound mail"},
	{Name: "mailer_sender_email", Default: "", Desc: "From email address for outbound mail"},
	{Name: "mailer_base_url", Default: "", Desc: "Email provider endpoint override (blank uses the provider default)"},

	// Invitation links in email point at the browser console
	{Name: "accept_base_url", Default: "http://localhost:3000", Desc: "Console base URL for invitation links"},

	// Upstream ArcGIS
	{Name: "arcgis_timeout", Default: "30s", Desc: "Timeout for upstream ArcGIS requests (e.g., 30s, 2m)"},

	// Generation endpoint for field suggestions
	{Name: "genai_endpoint", Default: "", Desc: "Generation endpoint URL (blank disables remote suggestions)"},
	{Name: "genai_api_key", Default: "", Desc: "Generation endpoint API key"},
	{Name: "genai_timeout", Default: "30s", Desc: "Timeout for generation requests"},

	// Optional Redis for the ArcGIS token cache
	{Name: "redis_addr", Default: "", Desc: "Redis address for the ArcGIS token cache (blank uses in-process cache)"},
	{Name: "redis_password", Default: "", Desc: "Redis password"},
	{Name: "redis_db", Default: 0, Desc: "Redis database number"},

	// First-run console operator
	{Name: "superadmin_email", Default: "", Desc: "Email of the first superadmin (created when the admins collection is empty)"},
	{Name: "superadmin_password", Default: "", Desc: "Password of the first superadmin"},

	// Invitations
	{Name: "invite_expiry", Default: "168h", Desc: "Invitation lifetime (e.g., 168h for 7 days)"},
	{Name: "invite_cleanup_interval", Default: "1h", Desc: "How often expired invitations are swept"},

	// Audit logging settings
	{Name: "audit_log_auth", Default: "all", Desc: "Auth event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_admin", Default: "all", Desc: "Admin event logging: 'all' (db+log), 'db', 'log', or 'off'"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// It is called early in startup so that both WAFFLE and the app have
// access to configuration before any backends or handlers are built.
// CoreConfig comes from the shared WAFFLE layer; AppConfig is specific
// to this app and can be extended as the app grows.
//
// WAFFLE's config.LoadWithAppConfig handles:
//   - Loading from .env files
//   - Loading from config.yaml/json/toml files
//   - Reading environment variables (WAFFLE_* for core, NOTIFYHUB_* for app)
//   - Parsing command-line flags
//   - Merging with precedence: flags > env > files > defaults
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "NOTIFYHUB", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:      appValues.String("mongo_uri"),
		MongoDatabase: appValues.String("mongo_database"),
		SessionKey:    appValues.String("session_key"),
		SessionDomain: appValues.String("session_domain"),

		MailerAPIKey:      appValues.String("mailer_api_key"),
		MailerSenderName:  appValues.String("mailer_sender_name"),
		MailerSenderEmail: appValues.String("mailer_sender_email"),
		MailerBaseURL:     appValues.String("mailer_base_url"),

		AcceptBaseURL: appValues.String("accept_base_url"),

		ArcGISTimeout: appValues.Duration("arcgis_timeout", 30*time.Second),

		GenAIEndpoint: appValues.String("genai_endpoint"),
		GenAIAPIKey:   appValues.String("genai_api_key"),
		GenAITimeout:  appValues.Duration("genai_timeout", 30*time.Second),

		RedisAddr:     appValues.String("redis_addr"),
		RedisPassword: appValues.String("redis_password"),
		RedisDB:       appValues.Int("redis_db"),

		SuperAdminEmail:    appValues.String("superadmin_email"),
		SuperAdminPassword: appValues.String("superadmin_password"),

		InviteExpiry:          appValues.Duration("invite_expiry", 7*24*time.Hour),
		InviteCleanupInterval: appValues.Duration("invite_cleanup_interval", time.Hour),

		AuditLogAuth:  appValues.String("audit_log_auth"),
		AuditLogAdmin: appValues.String("audit_log_admin"),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
// This is the right place to enforce required fields or invariants that
// involve both the core and app configs.
//
// NotifyHub validates the MongoDB URI format to catch configuration
// errors early, before attempting to connect, and checks that partial
// mailer or superadmin settings don't slip through half-configured.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}

	// A mailer with a key but no sender can never send; fail loudly at
	// startup instead of 503ing the first test send.
	if appCfg.MailerAPIKey != "" && appCfg.MailerSenderEmail == "" {
		return fmt.Errorf("mailer_api_key is set but mailer_sender_email is empty")
	}
	if appCfg.MailerSenderEmail != "" {
		if _, err := mail.ParseAddress(appCfg.MailerSenderEmail); err != nil {
			return fmt.Errorf("mailer_sender_email %q is not a valid address: %w", appCfg.MailerSenderEmail, err)
		}
	}

	if appCfg.SuperAdminEmail != "" && appCfg.SuperAdminPassword == "" {
		return fmt.Errorf("superadmin_email is set but superadmin_password is empty")
	}

	switch appCfg.AuditLogAuth {
	case "all", "db", "log", "off":
	default:
		return fmt.Errorf("audit_log_auth must be 'all', 'db', 'log', or 'off'; got %q", appCfg.AuditLogAuth)
	}
	switch appCfg.AuditLogAdmin {
	case "all", "db", "log", "off":
	default:
		return fmt.Errorf("audit_log_admin must be 'all', 'db', 'log', or 'off'; got %q", appCfg.AuditLogAdmin)
	}

	return nil
}
