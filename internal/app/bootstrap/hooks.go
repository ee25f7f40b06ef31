// internal/app/bootstrap/hooks.go
package bootstrap

import (
	"github.com/dalemusser/waffle/app"
)

// Hooks hands the console's lifecycle to waffle: config load and
// validation, Mongo and Redis connections, index reconciliation,
// superadmin seeding, then the HTTP handler.
var Hooks = app.Hooks[AppConfig, DBDeps]{
	Name:           "notifyhub",
	LoadConfig:     LoadConfig,
	ValidateConfig: ValidateConfig,
	ConnectDB:      ConnectDB,
	EnsureSchema:   EnsureSchema,
	Startup:        Startup,
	BuildHandler:   BuildHandler,
	Shutdown:       Shutdown,
}
