// internal/app/features/arcgisproxy/handler.go

// Package arcgisproxy fronts the admin console's ArcGIS traffic. The
// browser never talks to an ArcGIS server directly; requests come here
// with optional credentials and the proxy forwards them server-side, so
// service passwords stay out of the client and CORS never applies.
package arcgisproxy

import (
	"github.com/civicatlas/notifyhub/internal/app/system/arcgis"
	"go.uber.org/zap"
)

// Handler carries the proxy endpoints' dependencies.
type Handler struct {
	Client *arcgis.Client
	Log    *zap.Logger
}

// NewHandler constructs an ArcGIS proxy handler.
func NewHandler(client *arcgis.Client, logger *zap.Logger) *Handler {
	return &Handler{Client: client, Log: logger}
}
