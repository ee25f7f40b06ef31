// internal/app/features/orgusers/invite.go
package orgusers

import (
	"context"
	"fmt"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/civicatlas/notifyhub/internal/app/policy/licensepolicy"
	userstore "github.com/civicatlas/notifyhub/internal/app/store/users"
	"github.com/civicatlas/notifyhub/internal/app/system/auth"
	"github.com/civicatlas/notifyhub/internal/app/system/httpjson"
	"github.com/civicatlas/notifyhub/internal/app/system/limits"
	"github.com/civicatlas/notifyhub/internal/app/system/mailer"
	"github.com/civicatlas/notifyhub/internal/app/system/normalize"
	"github.com/civicatlas/notifyhub/internal/app/system/orgutil"
	"github.com/civicatlas/notifyhub/internal/app/system/timeouts"
	"github.com/civicatlas/notifyhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// HandleListInvitations serves GET /api/orgs/{orgID}/invitations.
func (h *Handler) HandleListInvitations(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "invitation list")
	defer cancel()

	org, err := orgutil.ResolveOrgFromHex(ctx, h.DB, chi.URLParam(r, "orgID"))
	if err != nil {
		h.respondOrgError(w, err)
		return
	}

	invs, err := h.Invitations.ListByOrganization(ctx, org.ID)
	if err != nil {
		h.Log.Error("invitation list failed", zap.Error(err), zap.String("org_id", org.ID.Hex()))
		httpjson.Error(w, http.StatusInternalServerError, "failed to list invitations")
		return
	}

	now := time.Now()
	rows := make([]invitationRow, 0, len(invs))
	for _, inv := range invs {
		rows = append(rows, invitationRow{Invitation: inv, Pending: inv.Pending(now)})
	}

	httpjson.Respond(w, http.StatusOK, map[string]any{
		"organizationId": org.ID,
		"invitations":    rows,
	})
}

type invitationRow struct {
	models.Invitation
	Pending bool `json:"pending"`
}

type inviteRequest struct {
	FullName string   `json:"full_name"`
	Email    string   `json:"email"`
	Role     string   `json:"role"`
	Products []string `json:"products"`
}

// HandleCreateInvitation processes POST /api/orgs/{orgID}/invitations.
// Role defaults to viewer and products to notify, mirroring the CSV
// importer's defaults.
func (h *Handler) HandleCreateInvitation(w http.ResponseWriter, r *http.Request) {
	var req inviteRequest
	if err := httpjson.DecodeLimit(r, &req, limits.MaxJSONBodySize); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	email := normalize.Email(req.Email)
	if email == "" {
		httpjson.Error(w, http.StatusUnprocessableEntity, "email is required")
		return
	}
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		httpjson.Error(w, http.StatusUnprocessableEntity, "invalid email address")
		return
	}
	role := normalize.Role(req.Role)
	if role == "" {
		role = "viewer"
	}
	switch role {
	case "owner", "editor", "viewer":
	default:
		httpjson.Error(w, http.StatusUnprocessableEntity, "role must be owner, editor, or viewer")
		return
	}
	products := req.Products
	if len(products) == 0 {
		products = []string{models.ProductNotify}
	}
	for _, p := range products {
		switch p {
		case models.ProductNotify, models.ProductAtlas:
		default:
			httpjson.Error(w, http.StatusUnprocessableEntity, "products may only contain notify or atlas")
			return
		}
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "invitation create")
	defer cancel()

	org, err := orgutil.ResolveActiveOrgFromHex(ctx, h.DB, chi.URLParam(r, "orgID"))
	if err != nil {
		h.respondOrgError(w, err)
		return
	}

	exists, err := userstore.New(h.DB).EmailExists(ctx, email)
	if err != nil {
		h.Log.Error("email lookup failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "failed to check email")
		return
	}
	if exists {
		httpjson.Error(w, http.StatusConflict, "a user with this email already exists")
		return
	}

	for _, product := range products {
		seats, ok := h.seatUsage(ctx, w, &org, product)
		if !ok {
			return
		}
		if !seats.Allowed {
			httpjson.Error(w, http.StatusConflict, seatLimitMessage(product))
			return
		}
	}

	actor, _ := auth.CurrentAdmin(r)
	inv := models.Invitation{
		OrganizationID: org.ID,
		Email:          email,
		FullName:       req.FullName,
		Role:           role,
		Products:       products,
	}
	if actor != nil {
		inv.InvitedBy = actor.Email
	}

	created, err := h.Invitations.Create(ctx, inv)
	if err != nil {
		h.Log.Error("invitation create failed", zap.Error(err), zap.String("org_id", org.ID.Hex()))
		httpjson.Error(w, http.StatusInternalServerError, "failed to create invitation")
		return
	}

	emailSent := h.sendInvitationEmail(ctx, org, created)

	if actor != nil {
		h.AuditLog.InvitationSent(ctx, r, actor.Email, org.ID, created.Email, created.Role)
	}

	httpjson.Respond(w, http.StatusCreated, map[string]any{
		"invitation": invitationRow{Invitation: created, Pending: true},
		"emailSent":  emailSent,
	})
}

// sendInvitationEmail delivers the invite. Failure never rolls back the
// invitation; the caller reports emailSent so the admin can resend.
func (h *Handler) sendInvitationEmail(ctx context.Context, org models.Organization, inv models.Invitation) bool {
	if h.Mailer == nil || !h.Mailer.Enabled() {
		return false
	}

	inviter := inv.InvitedBy
	if inviter == "" {
		inviter = org.Name
	}
	msg := mailer.BuildInvitationEmail(mailer.InvitationEmailData{
		OrganizationName: org.Name,
		InviterEmail:     inviter,
		AcceptURL:        h.acceptURL(inv.Token),
		ExpiresIn:        expiresInText(h.Invitations.Expiry()),
	})
	msg.To = []string{inv.Email}

	if err := h.Mailer.Send(ctx, msg); err != nil {
		h.Log.Warn("invitation email failed",
			zap.Error(err),
			zap.String("email", inv.Email),
			zap.String("org_id", org.ID.Hex()))
		return false
	}
	return true
}

func (h *Handler) acceptURL(token string) string {
	base := strings.TrimRight(h.AcceptBaseURL, "/")
	if base == "" {
		return token
	}
	return base + "/invitations/accept?token=" + token
}

func expiresInText(d time.Duration) string {
	days := int(d.Hours() / 24)
	switch {
	case days == 1:
		return "1 day"
	case days > 1:
		return fmt.Sprintf("%d days", days)
	default:
		return fmt.Sprintf("%d hours", int(d.Hours()))
	}
}

// seatUsage computes current seat occupancy for a product: seated users
// plus pending invitations. Returns ok=false after writing an error
// response.
func (h *Handler) seatUsage(ctx context.Context, w http.ResponseWriter, org *models.Organization, product string) (licensepolicy.Seats, bool) {
	used, err := userstore.New(h.DB).CountSeats(ctx, org.ID, product)
	if err != nil {
		h.Log.Error("seat count failed", zap.Error(err), zap.String("product", product))
		httpjson.Error(w, http.StatusInternalServerError, "failed to check seat usage")
		return licensepolicy.Seats{}, false
	}
	pending, err := h.Invitations.CountPending(ctx, org.ID, product)
	if err != nil {
		h.Log.Error("pending invite count failed", zap.Error(err), zap.String("product", product))
		httpjson.Error(w, http.StatusInternalServerError, "failed to check seat usage")
		return licensepolicy.Seats{}, false
	}
	return licensepolicy.CanAddUser(org, product, int(used+pending)), true
}

func seatLimitMessage(product string) string {
	return "the " + product + " seat limit for this organization's license has been reached"
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
