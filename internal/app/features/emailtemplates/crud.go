// internal/app/features/emailtemplates/crud.go
package emailtemplates

import (
	"net/http"

	emailtemplatestore "github.com/civicatlas/notifyhub/internal/app/store/emailtemplates"
	"github.com/civicatlas/notifyhub/internal/app/system/auth"
	"github.com/civicatlas/notifyhub/internal/app/system/emailtmpl"
	"github.com/civicatlas/notifyhub/internal/app/system/httpjson"
	"github.com/civicatlas/notifyhub/internal/app/system/limits"
	"github.com/civicatlas/notifyhub/internal/app/system/timeouts"
	"github.com/civicatlas/notifyhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// templateWriteRequest is the body for creating or updating a shared
// template.
type templateWriteRequest struct {
	Name        string                     `json:"name"`
	Description string                     `json:"description"`
	HTML        string                     `json:"html"`
	IncludeCSV  bool                       `json:"includeCSV"`
	Theme       models.TemplateTheme       `json:"theme"`
	Statistics  []models.TemplateStatistic `json:"statistics"`
}

// asTemplate converts the request into the stored form, filling theme gaps
// with the default palette before validation sees them.
func (req *templateWriteRequest) asTemplate() models.EmailTemplate {
	emailtmpl.FillTheme(&req.Theme)
	return models.EmailTemplate{
		Name:        req.Name,
		Description: req.Description,
		HTML:        req.HTML,
		IncludeCSV:  req.IncludeCSV,
		Theme:       req.Theme,
		Statistics:  req.Statistics,
	}
}

// templateResponse pairs a stored template with its validation, so the
// editor can surface warnings after a save.
type templateResponse struct {
	Template   models.EmailTemplate `json:"template"`
	Validation emailtmpl.Validation `json:"validation"`
}

// HandleList serves GET /api/templates.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "template list")
	defer cancel()

	templates, err := emailtemplatestore.New(h.DB).List(ctx)
	if err != nil {
		h.Log.Error("template list failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "failed to load templates")
		return
	}
	if templates == nil {
		templates = []models.EmailTemplate{}
	}
	httpjson.Respond(w, http.StatusOK, map[string]any{"templates": templates})
}

// HandleCreate processes POST /api/templates. Invalid templates are
// refused; the validation payload explains why.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req templateWriteRequest
	if err := httpjson.DecodeLimit(r, &req, limits.MaxTemplateBodySize); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	t := req.asTemplate()
	if t.Name == "" {
		httpjson.Error(w, http.StatusUnprocessableEntity, "template name is required")
		return
	}
	v := emailtmpl.ValidateTemplate(asCustomTemplate(t), models.Notification{})
	if !v.IsValid {
		httpjson.Respond(w, http.StatusUnprocessableEntity, v)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "template create")
	defer cancel()

	admin, _ := auth.CurrentAdmin(r)
	t.CreatedBy = admin.Email

	created, err := emailtemplatestore.New(h.DB).Create(ctx, t)
	if err != nil {
		if err == emailtemplatestore.ErrDuplicateName {
			httpjson.Error(w, http.StatusConflict, "a template with that name already exists")
			return
		}
		h.Log.Error("template create failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "failed to create template")
		return
	}

	h.AuditLog.TemplateCreated(ctx, r, admin.Email, created.ID, created.Name)

	httpjson.Respond(w, http.StatusCreated, templateResponse{Template: created, Validation: v})
}

// HandleView serves GET /api/templates/{templateID}.
func (h *Handler) HandleView(w http.ResponseWriter, r *http.Request) {
	oid, err := primitive.ObjectIDFromHex(chi.URLParam(r, "templateID"))
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid template id")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "template view")
	defer cancel()

	t, err := emailtemplatestore.New(h.DB).GetByID(ctx, oid)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			httpjson.Error(w, http.StatusNotFound, "template not found")
			return
		}
		h.Log.Error("template load failed", zap.Error(err), zap.String("template_id", oid.Hex()))
		httpjson.Error(w, http.StatusInternalServerError, "failed to load template")
		return
	}
	httpjson.Respond(w, http.StatusOK, t)
}

// HandleUpdate processes PUT /api/templates/{templateID}.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	oid, err := primitive.ObjectIDFromHex(chi.URLParam(r, "templateID"))
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid template id")
		return
	}

	var req templateWriteRequest
	if err := httpjson.DecodeLimit(r, &req, limits.MaxTemplateBodySize); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	t := req.asTemplate()
	if t.Name == "" {
		httpjson.Error(w, http.StatusUnprocessableEntity, "template name is required")
		return
	}
	v := emailtmpl.ValidateTemplate(asCustomTemplate(t), models.Notification{})
	if !v.IsValid {
		httpjson.Respond(w, http.StatusUnprocessableEntity, v)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "template update")
	defer cancel()

	store := emailtemplatestore.New(h.DB)
	if err := store.Update(ctx, oid, t); err != nil {
		switch err {
		case emailtemplatestore.ErrDuplicateName:
			httpjson.Error(w, http.StatusConflict, "a template with that name already exists")
		case mongo.ErrNoDocuments:
			httpjson.Error(w, http.StatusNotFound, "template not found")
		default:
			h.Log.Error("template update failed", zap.Error(err), zap.String("template_id", oid.Hex()))
			httpjson.Error(w, http.StatusInternalServerError, "failed to update template")
		}
		return
	}

	updated, err := store.GetByID(ctx, oid)
	if err != nil {
		h.Log.Error("template reload after update failed", zap.Error(err), zap.String("template_id", oid.Hex()))
		httpjson.Error(w, http.StatusInternalServerError, "failed to load template")
		return
	}

	if a, ok := auth.CurrentAdmin(r); ok {
		h.AuditLog.TemplateUpdated(ctx, r, a.Email, oid, updated.Name)
	}

	httpjson.Respond(w, http.StatusOK, templateResponse{Template: *updated, Validation: v})
}

// HandleDelete processes DELETE /api/templates/{templateID}. Notifications
// referencing the deleted template fall back to the built-in digest.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	oid, err := primitive.ObjectIDFromHex(chi.URLParam(r, "templateID"))
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid template id")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "template delete")
	defer cancel()

	store := emailtemplatestore.New(h.DB)
	t, err := store.GetByID(ctx, oid)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			httpjson.Error(w, http.StatusNotFound, "template not found")
			return
		}
		h.Log.Error("template load failed", zap.Error(err), zap.String("template_id", oid.Hex()))
		httpjson.Error(w, http.StatusInternalServerError, "failed to load template")
		return
	}

	if _, err := store.Delete(ctx, oid); err != nil {
		h.Log.Error("template delete failed", zap.Error(err), zap.String("template_id", oid.Hex()))
		httpjson.Error(w, http.StatusInternalServerError, "failed to delete template")
		return
	}

	if a, ok := auth.CurrentAdmin(r); ok {
		h.AuditLog.TemplateDeleted(ctx, r, a.Email, oid, t.Name)
	}

	w.WriteHeader(http.StatusNoContent)
}

func asCustomTemplate(t models.EmailTemplate) models.CustomTemplate {
	return models.CustomTemplate{
		HTML:       t.HTML,
		IncludeCSV: t.IncludeCSV,
		Theme:      t.Theme,
		Statistics: t.Statistics,
	}
}
