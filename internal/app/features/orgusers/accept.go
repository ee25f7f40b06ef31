// internal/app/features/orgusers/accept.go
package orgusers

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	invitationstore "github.com/civicatlas/notifyhub/internal/app/store/invitations"
	userstore "github.com/civicatlas/notifyhub/internal/app/store/users"
	"github.com/civicatlas/notifyhub/internal/app/system/httpjson"
	"github.com/civicatlas/notifyhub/internal/app/system/orgutil"
	"github.com/civicatlas/notifyhub/internal/app/system/timeouts"
	"github.com/civicatlas/notifyhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// HandleInvitationInfo serves GET /api/invitations/{token}: enough about
// the invitation for the accept page to show what is being joined,
// before the invitee commits.
func (h *Handler) HandleInvitationInfo(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "invitation info")
	defer cancel()

	inv, err := h.Invitations.GetByToken(ctx, chi.URLParam(r, "token"))
	if err != nil {
		if err == invitationstore.ErrNotFound {
			httpjson.Error(w, http.StatusNotFound, "invitation not found")
			return
		}
		h.Log.Error("invitation lookup failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "failed to load invitation")
		return
	}

	orgName, err := orgutil.GetOrgName(ctx, h.DB, inv.OrganizationID)
	if err != nil {
		h.Log.Error("organization lookup failed", zap.Error(err), zap.String("org_id", inv.OrganizationID.Hex()))
		httpjson.Error(w, http.StatusInternalServerError, "failed to load invitation")
		return
	}
	if orgName == "" {
		// The org is gone; the invitation is no longer meaningful.
		httpjson.Error(w, http.StatusNotFound, "invitation not found")
		return
	}

	now := time.Now()
	httpjson.Respond(w, http.StatusOK, map[string]any{
		"organizationName": orgName,
		"email":            inv.Email,
		"full_name":        inv.FullName,
		"role":             inv.Role,
		"products":         inv.Products,
		"expires_at":       inv.ExpiresAt,
		"accepted":         inv.AcceptedAt != nil,
		"expired":          inv.AcceptedAt == nil && !now.Before(inv.ExpiresAt),
	})
}

type acceptRequest struct {
	FullName string `json:"full_name"`
}

// HandleAccept processes POST /api/invitations/{token}/accept. The token
// is the credential; no session is involved. Accepting burns the
// invitation and creates the member user with the invited role and
// product seats.
func (h *Handler) HandleAccept(w http.ResponseWriter, r *http.Request) {
	var req acceptRequest
	if err := httpjson.Decode(r, &req); err != nil && !errors.Is(err, io.EOF) {
		httpjson.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "invitation accept")
	defer cancel()

	inv, err := h.Invitations.Accept(ctx, chi.URLParam(r, "token"))
	if err != nil {
		switch err {
		case invitationstore.ErrNotFound:
			httpjson.Error(w, http.StatusNotFound, "invitation not found")
		case invitationstore.ErrAlreadyAccepted:
			httpjson.Error(w, http.StatusConflict, "invitation was already accepted")
		case invitationstore.ErrExpired:
			httpjson.Error(w, http.StatusGone, "invitation has expired")
		default:
			h.Log.Error("invitation accept failed", zap.Error(err))
			httpjson.Error(w, http.StatusInternalServerError, "failed to accept invitation")
		}
		return
	}

	name := strings.TrimSpace(req.FullName)
	if name == "" {
		name = inv.FullName
	}
	if name == "" {
		// Last resort: the mailbox name reads better than a blank.
		name = inv.Email
		if i := strings.IndexByte(inv.Email, '@'); i > 0 {
			name = inv.Email[:i]
		}
	}

	user, err := userstore.New(h.DB).Create(ctx, models.User{
		FullName:       name,
		Email:          inv.Email,
		Role:           inv.Role,
		Status:         models.StatusActive,
		OrganizationID: inv.OrganizationID,
		Products:       inv.Products,
	})
	if err != nil {
		if err == userstore.ErrDuplicateEmail {
			httpjson.Error(w, http.StatusConflict, "a user with this email already exists")
			return
		}
		h.Log.Error("user create from invitation failed", zap.Error(err), zap.String("email", inv.Email))
		httpjson.Error(w, http.StatusInternalServerError, "failed to create user")
		return
	}

	h.AuditLog.InvitationAccepted(ctx, r, inv.OrganizationID, inv.Email)

	httpjson.Respond(w, http.StatusCreated, map[string]any{"user": user})
}
