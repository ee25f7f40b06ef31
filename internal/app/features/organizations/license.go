// internal/app/features/organizations/license.go
package organizations

import (
	"net/http"
	"time"

	"github.com/civicatlas/notifyhub/internal/app/policy/licensepolicy"
	invitationstore "github.com/civicatlas/notifyhub/internal/app/store/invitations"
	organizationstore "github.com/civicatlas/notifyhub/internal/app/store/organizations"
	userstore "github.com/civicatlas/notifyhub/internal/app/store/users"
	"github.com/civicatlas/notifyhub/internal/app/system/auth"
	"github.com/civicatlas/notifyhub/internal/app/system/httpjson"
	"github.com/civicatlas/notifyhub/internal/app/system/orgutil"
	"github.com/civicatlas/notifyhub/internal/app/system/timeouts"
	"github.com/civicatlas/notifyhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// productLicenseStatus is one product's licensing picture: the resolved
// limits, the stored record (nil when the org rides the defaults), and the
// seat usage counted against the tier.
type productLicenseStatus struct {
	Limits         licensepolicy.Limits   `json:"limits"`
	License        *models.ProductLicense `json:"license,omitempty"`
	UsedSeats      int64                  `json:"usedSeats"`
	PendingInvites int64                  `json:"pendingInvites"`
	Seats          licensepolicy.Seats    `json:"seats"`
}

type licenseResponse struct {
	OrganizationID primitive.ObjectID              `json:"organizationId"`
	Products       map[string]productLicenseStatus `json:"products"`
	Catalog        []licensepolicy.Limits          `json:"catalog"`
}

// HandleLicenseView serves GET /api/orgs/{orgID}/license: both products'
// limits plus seat usage. Pending invitations hold seats the same as users.
func (h *Handler) HandleLicenseView(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "license view")
	defer cancel()

	org, err := orgutil.ResolveOrgFromHex(ctx, h.DB, chi.URLParam(r, "orgID"))
	if err != nil {
		h.respondOrgError(w, err)
		return
	}

	users := userstore.New(h.DB)
	invites := invitationstore.New(h.DB, 0)

	resp := licenseResponse{
		OrganizationID: org.ID,
		Products:       make(map[string]productLicenseStatus, 2),
		Catalog:        licensepolicy.Catalog(),
	}
	for _, product := range []string{models.ProductNotify, models.ProductAtlas} {
		used, err := users.CountSeats(ctx, org.ID, product)
		if err != nil {
			h.Log.Error("license view: seat count failed", zap.Error(err), zap.String("product", product))
			httpjson.Error(w, http.StatusInternalServerError, "failed to load license status")
			return
		}
		pending, err := invites.CountPending(ctx, org.ID, product)
		if err != nil {
			h.Log.Error("license view: pending count failed", zap.Error(err), zap.String("product", product))
			httpjson.Error(w, http.StatusInternalServerError, "failed to load license status")
			return
		}
		resp.Products[product] = productLicenseStatus{
			Limits:         licensepolicy.ProductLicenseLimits(&org, product),
			License:        org.License.Product(product),
			UsedSeats:      used,
			PendingInvites: pending,
			Seats:          licensepolicy.CanAddUser(&org, product, int(used+pending)),
		}
	}

	httpjson.Respond(w, http.StatusOK, resp)
}

type licenseUpdateRequest struct {
	Type string `json:"type"`
}

// HandleLicenseUpdate processes PUT /api/orgs/{orgID}/license/{product}.
// Superadmin only (enforced by the route group). Only canonical tier names
// are accepted; legacy aliases are read-side compatibility, not input.
func (h *Handler) HandleLicenseUpdate(w http.ResponseWriter, r *http.Request) {
	product := chi.URLParam(r, "product")
	if err := licensepolicy.ValidateProduct(product); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "unknown product")
		return
	}

	var req licenseUpdateRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	tier, err := licensepolicy.ValidateTier(req.Type)
	if err != nil {
		httpjson.Error(w, http.StatusUnprocessableEntity, `license type must be "pilot" or "production"`)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "license update")
	defer cancel()

	org, err := orgutil.ResolveOrgFromHex(ctx, h.DB, chi.URLParam(r, "orgID"))
	if err != nil {
		h.respondOrgError(w, err)
		return
	}

	actor, _ := auth.CurrentAdmin(r)
	lic := models.ProductLicense{
		Type:      tier,
		UpdatedAt: time.Now().UTC(),
		UpdatedBy: actor.Email,
	}
	if err := organizationstore.New(h.DB).SetProductLicense(ctx, org.ID, product, lic); err != nil {
		if err == mongo.ErrNoDocuments {
			httpjson.Error(w, http.StatusNotFound, "organization not found")
			return
		}
		h.Log.Error("license update failed", zap.Error(err),
			zap.String("org_id", org.ID.Hex()), zap.String("product", product))
		httpjson.Error(w, http.StatusInternalServerError, "failed to update license")
		return
	}

	h.AuditLog.LicenseChanged(ctx, r, actor.Email, org.ID, product, tier)

	// Patch the in-memory copy so the response reflects the new tier.
	if org.License == nil {
		org.License = &models.LicenseInfo{}
	}
	switch product {
	case models.ProductNotify:
		org.License.Notify = &lic
	case models.ProductAtlas:
		org.License.Atlas = &lic
	}

	httpjson.Respond(w, http.StatusOK, map[string]any{
		"product": product,
		"license": lic,
		"limits":  licensepolicy.ProductLicenseLimits(&org, product),
	})
}
