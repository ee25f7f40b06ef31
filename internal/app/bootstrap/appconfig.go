// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). They represent *app-level*
// configuration, not WAFFLE core configuration.
//
// WAFFLE's CoreConfig handles framework-level settings like:
//   - HTTP/HTTPS ports and TLS configuration
//   - Logging level and format
//   - CORS settings
//   - Request body size limits
//   - Database connection timeouts
//
// AppConfig is where everything specific to NotifyHub lives: the Mongo
// connection, session cookies, the email provider, upstream ArcGIS and
// generation endpoints, and first-run seeding.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI      string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase string // Database name within MongoDB

	// Session management configuration
	SessionKey    string // Secret key for signing session cookies (must be strong in production)
	SessionDomain string // Cookie domain (blank means current host)

	// Transactional email provider
	MailerAPIKey      string // Provider API key (blank disables outbound mail)
	MailerSenderName  string // From display name (e.g., NotifyHub)
	MailerSenderEmail string // From email address (e.g., noreply@notifyhub.app)
	MailerBaseURL     string // Provider endpoint override (blank uses the provider default)

	// Base URL of the browser console: invitation links in email point here.
	AcceptBaseURL string // e.g., "https://console.notifyhub.app"

	// Upstream ArcGIS requests (metadata, query, token minting)
	ArcGISTimeout time.Duration

	// Generation endpoint for field suggestions. Blank endpoint or key
	// disables remote calls; the heuristic ranking still answers.
	GenAIEndpoint string
	GenAIAPIKey   string
	GenAITimeout  time.Duration

	// Optional Redis for the ArcGIS token cache. Blank address means the
	// in-process TTL cache is used instead.
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// First-run console operator: created on startup when the admins
	// collection is empty and both values are set.
	SuperAdminEmail    string
	SuperAdminPassword string

	// Invitation lifetime and how often the cleanup worker sweeps
	// expired, unaccepted invitations.
	InviteExpiry          time.Duration
	InviteCleanupInterval time.Duration

	// Audit logging modes: "all" (db+log), "db", "log", or "off"
	AuditLogAuth  string
	AuditLogAdmin string
}
