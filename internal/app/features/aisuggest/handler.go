// internal/app/features/aisuggest/handler.go

// Package aisuggest ranks a layer's fields for the notification editor's
// digest table. A model does the ranking when one is configured; the
// local heuristic answers otherwise, so the endpoint always produces
// something usable.
package aisuggest

import (
	"github.com/civicatlas/notifyhub/internal/app/system/genai"
	"go.uber.org/zap"
)

// Handler carries the suggestion endpoint's dependencies.
type Handler struct {
	Client *genai.Client
	Log    *zap.Logger
}

// NewHandler constructs a field-suggestion handler.
func NewHandler(client *genai.Client, logger *zap.Logger) *Handler {
	return &Handler{Client: client, Log: logger}
}
