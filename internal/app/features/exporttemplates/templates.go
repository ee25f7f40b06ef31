// internal/app/features/exporttemplates/templates.go
package exporttemplates

import (
	"context"
	"net/http"

	organizationstore "github.com/civicatlas/notifyhub/internal/app/store/organizations"
	"github.com/civicatlas/notifyhub/internal/app/system/auth"
	"github.com/civicatlas/notifyhub/internal/app/system/exporttmpl"
	"github.com/civicatlas/notifyhub/internal/app/system/httpjson"
	"github.com/civicatlas/notifyhub/internal/app/system/limits"
	"github.com/civicatlas/notifyhub/internal/app/system/orgutil"
	"github.com/civicatlas/notifyhub/internal/app/system/timeouts"
	"github.com/civicatlas/notifyhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// sanitizeTemplates mints missing ids, clamps element geometry onto the
// page, and collects per-template validation problems keyed by id.
// Problems are editor hints; clamped templates save regardless.
func sanitizeTemplates(templates []models.ExportTemplate) ([]models.ExportTemplate, map[string]exporttmpl.Problems) {
	problems := make(map[string]exporttmpl.Problems)
	out := make([]models.ExportTemplate, 0, len(templates))
	for _, t := range templates {
		if t.ID == "" {
			t.ID = uuid.NewString()
		}
		for i, e := range t.Elements {
			t.Elements[i] = exporttmpl.ClampElement(e)
		}
		if p := exporttmpl.Validate(t); len(p) > 0 {
			problems[t.ID] = p
		}
		out = append(out, t)
	}
	return out, problems
}

func orgTemplates(org models.Organization) []models.ExportTemplate {
	if org.AtlasConfig == nil || org.AtlasConfig.ExportTemplates == nil {
		return []models.ExportTemplate{}
	}
	return org.AtlasConfig.ExportTemplates
}

// HandleList serves GET /api/orgs/{orgID}/atlas/templates.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "export template list")
	defer cancel()

	org, err := orgutil.ResolveOrgFromHex(ctx, h.DB, chi.URLParam(r, "orgID"))
	if err != nil {
		h.respondOrgError(w, err)
		return
	}

	httpjson.Respond(w, http.StatusOK, map[string]any{
		"organizationId": org.ID,
		"templates":      orgTemplates(org),
	})
}

// HandleGet serves GET /api/orgs/{orgID}/atlas/templates/{templateID}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "export template view")
	defer cancel()

	org, err := orgutil.ResolveOrgFromHex(ctx, h.DB, chi.URLParam(r, "orgID"))
	if err != nil {
		h.respondOrgError(w, err)
		return
	}

	id := chi.URLParam(r, "templateID")
	for _, t := range orgTemplates(org) {
		if t.ID == id {
			httpjson.Respond(w, http.StatusOK, t)
			return
		}
	}
	httpjson.Error(w, http.StatusNotFound, "export template not found")
}

type replaceAllRequest struct {
	Templates []models.ExportTemplate `json:"templates"`
}

// HandleReplaceAll processes PUT /api/orgs/{orgID}/atlas/templates,
// replacing the organization's whole template set.
func (h *Handler) HandleReplaceAll(w http.ResponseWriter, r *http.Request) {
	var req replaceAllRequest
	if err := httpjson.DecodeLimit(r, &req, limits.MaxJSONBodySize); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "export template save")
	defer cancel()

	org, err := orgutil.ResolveActiveOrgFromHex(ctx, h.DB, chi.URLParam(r, "orgID"))
	if err != nil {
		h.respondOrgError(w, err)
		return
	}

	templates, problems := sanitizeTemplates(req.Templates)
	if !h.saveTemplates(ctx, w, r, org, templates) {
		return
	}

	httpjson.Respond(w, http.StatusOK, map[string]any{
		"templates": templates,
		"problems":  problems,
	})
}

// HandleUpsert processes PUT /api/orgs/{orgID}/atlas/templates/{templateID}:
// replaces the matching template, or appends it when the id is new. The
// path id is authoritative.
func (h *Handler) HandleUpsert(w http.ResponseWriter, r *http.Request) {
	var tpl models.ExportTemplate
	if err := httpjson.DecodeLimit(r, &tpl, limits.MaxJSONBodySize); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	tpl.ID = chi.URLParam(r, "templateID")

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "export template save")
	defer cancel()

	org, err := orgutil.ResolveActiveOrgFromHex(ctx, h.DB, chi.URLParam(r, "orgID"))
	if err != nil {
		h.respondOrgError(w, err)
		return
	}

	sanitized, problems := sanitizeTemplates([]models.ExportTemplate{tpl})
	tpl = sanitized[0]

	templates := orgTemplates(org)
	replaced := false
	for i, t := range templates {
		if t.ID == tpl.ID {
			templates[i] = tpl
			replaced = true
			break
		}
	}
	if !replaced {
		templates = append(templates, tpl)
	}

	if !h.saveTemplates(ctx, w, r, org, templates) {
		return
	}

	httpjson.Respond(w, http.StatusOK, map[string]any{
		"template": tpl,
		"problems": problems[tpl.ID],
	})
}

// saveTemplates writes the template set and audits. Returns false when a
// response has already been written.
func (h *Handler) saveTemplates(ctx context.Context, w http.ResponseWriter, r *http.Request, org models.Organization, templates []models.ExportTemplate) bool {
	if err := organizationstore.New(h.DB).UpdateAtlasTemplates(ctx, org.ID, templates); err != nil {
		if err == mongo.ErrNoDocuments {
			httpjson.Error(w, http.StatusNotFound, "organization not found")
			return false
		}
		h.Log.Error("export template save failed", zap.Error(err), zap.String("org_id", org.ID.Hex()))
		httpjson.Error(w, http.StatusInternalServerError, "failed to save export templates")
		return false
	}

	if a, ok := auth.CurrentAdmin(r); ok {
		h.AuditLog.ExportTemplatesSaved(ctx, r, a.Email, org.ID, len(templates))
	}
	return true
}

// respondOrgError maps org resolution failures onto API statuses.
func (h *Handler) respondOrgError(w http.ResponseWriter, err error) {
	switch {
	case err == orgutil.ErrBadOrgID:
		httpjson.Error(w, http.StatusBadRequest, "invalid organization id")
	case err == orgutil.ErrOrgNotFound:
		httpjson.Error(w, http.StatusNotFound, "organization not found")
	case err == orgutil.ErrOrgNotActive:
		httpjson.Error(w, http.StatusConflict, "organization is not active")
	default:
		h.Log.Error("org lookup failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "failed to load organization")
	}
}
