// internal/app/features/emailtemplates/preview.go
package emailtemplates

import (
	"net/http"

	"github.com/civicatlas/notifyhub/internal/app/system/emailtmpl"
	"github.com/civicatlas/notifyhub/internal/app/system/httpjson"
	"github.com/civicatlas/notifyhub/internal/app/system/limits"
	"github.com/civicatlas/notifyhub/internal/domain/models"
)

// editorRequest is the body for the validate and preview endpoints: the
// template being edited plus the notification it is edited against. The
// notification may be zero; it only supplies advisory context.
type editorRequest struct {
	Template     models.CustomTemplate `json:"template"`
	Notification models.Notification   `json:"notification"`
}

// HandleValidate processes POST /api/templates/validate. The validation
// result is the payload; an invalid template is still a 200.
func (h *Handler) HandleValidate(w http.ResponseWriter, r *http.Request) {
	var req editorRequest
	if err := httpjson.DecodeLimit(r, &req, limits.MaxTemplateBodySize); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	emailtmpl.FillTheme(&req.Template.Theme)
	httpjson.Respond(w, http.StatusOK, emailtmpl.ValidateTemplate(req.Template, req.Notification))
}

// HandlePreview processes POST /api/templates/preview: renders the
// template against the deterministic sample context.
func (h *Handler) HandlePreview(w http.ResponseWriter, r *http.Request) {
	var req editorRequest
	if err := httpjson.DecodeLimit(r, &req, limits.MaxTemplateBodySize); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	emailtmpl.FillTheme(&req.Template.Theme)
	sctx := emailtmpl.SampleContext(req.Notification, req.Template)

	httpjson.Respond(w, http.StatusOK, map[string]any{
		"html":    emailtmpl.Render(req.Template.HTML, sctx),
		"context": sctx,
	})
}
