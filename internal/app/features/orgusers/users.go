// internal/app/features/orgusers/users.go
package orgusers

import (
	"net/http"
	"net/mail"
	"strings"

	userstore "github.com/civicatlas/notifyhub/internal/app/store/users"
	"github.com/civicatlas/notifyhub/internal/app/system/auth"
	"github.com/civicatlas/notifyhub/internal/app/system/httpjson"
	"github.com/civicatlas/notifyhub/internal/app/system/limits"
	"github.com/civicatlas/notifyhub/internal/app/system/normalize"
	"github.com/civicatlas/notifyhub/internal/app/system/orgutil"
	"github.com/civicatlas/notifyhub/internal/app/system/timeouts"
	"github.com/civicatlas/notifyhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// HandleListUsers serves GET /api/orgs/{orgID}/users. Optional query
// params: q narrows by name prefix (email prefix when the query contains
// '@'), status filters active|disabled.
func (h *Handler) HandleListUsers(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "org user list")
	defer cancel()

	org, err := orgutil.ResolveOrgFromHex(ctx, h.DB, chi.URLParam(r, "orgID"))
	if err != nil {
		h.respondOrgError(w, err)
		return
	}

	query := strings.TrimSpace(r.URL.Query().Get("q"))
	status := strings.TrimSpace(r.URL.Query().Get("status"))
	switch status {
	case "", models.StatusActive, models.StatusDisabled:
	default:
		httpjson.Error(w, http.StatusUnprocessableEntity, `status must be "active" or "disabled"`)
		return
	}

	store := userstore.New(h.DB)
	var users []models.User
	if query == "" && status == "" {
		users, err = store.ListByOrganization(ctx, org.ID)
	} else {
		users, err = store.SearchByOrganization(ctx, org.ID, query, status)
	}
	if err != nil {
		h.Log.Error("user list failed", zap.Error(err), zap.String("org_id", org.ID.Hex()))
		httpjson.Error(w, http.StatusInternalServerError, "failed to list users")
		return
	}
	if users == nil {
		users = []models.User{}
	}

	httpjson.Respond(w, http.StatusOK, map[string]any{
		"organizationId": org.ID,
		"users":          users,
	})
}

type memberWriteRequest struct {
	FullName string    `json:"full_name"`
	Email    string    `json:"email"`
	Role     string    `json:"role"`
	Status   string    `json:"status"`
	Products *[]string `json:"products"`
}

// HandleUpdateUser processes PUT /api/orgs/{orgID}/users/{userID}. Blank
// fields keep their stored values; granting a new product seat runs the
// same license check as an invitation.
func (h *Handler) HandleUpdateUser(w http.ResponseWriter, r *http.Request) {
	var req memberWriteRequest
	if err := httpjson.DecodeLimit(r, &req, limits.MaxJSONBodySize); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	userID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "userID"))
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid user id")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "org user update")
	defer cancel()

	org, err := orgutil.ResolveActiveOrgFromHex(ctx, h.DB, chi.URLParam(r, "orgID"))
	if err != nil {
		h.respondOrgError(w, err)
		return
	}

	users := userstore.New(h.DB)
	existing, err := users.GetByID(ctx, userID)
	if err != nil || existing == nil || existing.OrganizationID != org.ID {
		httpjson.Error(w, http.StatusNotFound, "user not found")
		return
	}

	upd := userstore.MemberUpdate{
		FullName: existing.FullName,
		Email:    existing.Email,
		Role:     existing.Role,
		Status:   existing.Status,
		Products: existing.Products,
	}
	if upd.Status == "" {
		upd.Status = models.StatusActive
	}
	if s := normalize.Name(req.FullName); s != "" {
		upd.FullName = s
	}
	if s := normalize.Email(req.Email); s != "" {
		if addr, err := mail.ParseAddress(s); err != nil || addr.Address != s {
			httpjson.Error(w, http.StatusUnprocessableEntity, "invalid email address")
			return
		}
		upd.Email = s
	}
	if s := normalize.Role(req.Role); s != "" {
		upd.Role = s
	}
	if s := normalize.Status(req.Status); s != "" {
		upd.Status = s
	}
	if req.Products != nil {
		upd.Products = *req.Products
	}

	if msg := validateMemberUpdate(upd); msg != "" {
		httpjson.Error(w, http.StatusUnprocessableEntity, msg)
		return
	}

	// Newly granted product seats count against the license.
	for _, product := range addedProducts(existing.Products, upd.Products) {
		seats, ok := h.seatUsage(ctx, w, &org, product)
		if !ok {
			return
		}
		if !seats.Allowed {
			httpjson.Error(w, http.StatusConflict, seatLimitMessage(product))
			return
		}
	}

	if err := users.UpdateMember(ctx, org.ID, userID, upd); err != nil {
		if err == userstore.ErrDuplicateEmail {
			httpjson.Error(w, http.StatusConflict, "a user with this email already exists")
			return
		}
		h.Log.Error("user update failed", zap.Error(err), zap.String("user_id", userID.Hex()))
		httpjson.Error(w, http.StatusInternalServerError, "failed to update user")
		return
	}

	updated, err := users.GetByID(ctx, userID)
	if err != nil {
		h.Log.Error("user reload failed", zap.Error(err), zap.String("user_id", userID.Hex()))
		httpjson.Error(w, http.StatusInternalServerError, "failed to load user")
		return
	}

	if a, ok := auth.CurrentAdmin(r); ok {
		h.AuditLog.MemberUpdated(ctx, r, a.Email, org.ID, updated.Email)
	}

	httpjson.Respond(w, http.StatusOK, map[string]any{"user": updated})
}

// HandleDeleteUser processes DELETE /api/orgs/{orgID}/users/{userID},
// freeing the member's product seats.
func (h *Handler) HandleDeleteUser(w http.ResponseWriter, r *http.Request) {
	userID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "userID"))
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid user id")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "org user delete")
	defer cancel()

	org, err := orgutil.ResolveActiveOrgFromHex(ctx, h.DB, chi.URLParam(r, "orgID"))
	if err != nil {
		h.respondOrgError(w, err)
		return
	}

	users := userstore.New(h.DB)
	existing, err := users.GetByID(ctx, userID)
	if err != nil || existing == nil || existing.OrganizationID != org.ID {
		httpjson.Error(w, http.StatusNotFound, "user not found")
		return
	}

	n, err := users.DeleteMember(ctx, org.ID, userID)
	if err != nil {
		h.Log.Error("user delete failed", zap.Error(err), zap.String("user_id", userID.Hex()))
		httpjson.Error(w, http.StatusInternalServerError, "failed to delete user")
		return
	}
	if n == 0 {
		httpjson.Error(w, http.StatusNotFound, "user not found")
		return
	}

	if a, ok := auth.CurrentAdmin(r); ok {
		h.AuditLog.MemberRemoved(ctx, r, a.Email, org.ID, existing.Email)
	}

	w.WriteHeader(http.StatusNoContent)
}

func validateMemberUpdate(upd userstore.MemberUpdate) string {
	if strings.TrimSpace(upd.FullName) == "" {
		return "full_name is required"
	}
	if upd.Email == "" {
		return "email is required"
	}
	switch upd.Role {
	case "owner", "editor", "viewer":
	default:
		return "role must be owner, editor, or viewer"
	}
	switch upd.Status {
	case models.StatusActive, models.StatusDisabled:
	default:
		return "status must be active or disabled"
	}
	for _, p := range upd.Products {
		switch p {
		case models.ProductNotify, models.ProductAtlas:
		default:
			return "products may only contain notify or atlas"
		}
	}
	return ""
}

// addedProducts returns products in after that are not in before.
func addedProducts(before, after []string) []string {
	had := make(map[string]bool, len(before))
	for _, p := range before {
		had[p] = true
	}
	var added []string
	for _, p := range after {
		if !had[p] {
			added = append(added, p)
		}
	}
	return added
}
