// Package licensepolicy maps an organization and product to a license tier
// and the fixed limits that tier carries.
//
// Tier rules:
//   - Tiers are pilot and production; limits are constants, never
//     per-organization overrides.
//   - Legacy tier names still found in stored documents normalize as
//     personal→pilot, team→pilot, professional→production,
//     organization→production.
//   - An organization with no license record for a product falls back to
//     the organization-wide legacy license.type, then to pilot.
//   - Pilot caps users per product and forbids public notifications;
//     production is unlimited and allows public.
package licensepolicy

import (
	"errors"
	"strings"

	"github.com/civicatlas/notifyhub/internal/domain/models"
)

// Canonical tier names.
const (
	TierPilot      = "pilot"
	TierProduction = "production"
)

const pilotMaxUsers = 5

var (
	ErrInvalidProduct     = errors.New("invalid product")
	ErrInvalidLicenseType = errors.New("invalid license type")
)

// Limits describes the fixed constraints of a license tier.
type Limits struct {
	Type        string `json:"type"`
	Label       string `json:"label"`
	MaxUsers    *int   `json:"maxUsers"` // nil means unlimited
	AllowPublic bool   `json:"allowPublic"`
}

// Seats reports whether an organization has room for another user under
// its current tier. Limit and Remaining are nil when the tier is unlimited.
type Seats struct {
	Allowed     bool   `json:"allowed"`
	Limit       *int   `json:"limit"`
	Remaining   *int   `json:"remaining"`
	LicenseType string `json:"licenseType"`
}

// ValidateProduct reports ErrInvalidProduct unless product is one of the
// known product identifiers.
func ValidateProduct(product string) error {
	switch product {
	case models.ProductNotify, models.ProductAtlas:
		return nil
	default:
		return ErrInvalidProduct
	}
}

// ValidateTier returns the canonical form of tier, or ErrInvalidLicenseType
// when tier is not a settable tier name. Only canonical names are accepted
// for writes; legacy aliases are read-side compatibility only.
func ValidateTier(tier string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(tier)) {
	case TierPilot:
		return TierPilot, nil
	case TierProduction:
		return TierProduction, nil
	default:
		return "", ErrInvalidLicenseType
	}
}

// normalizeTier maps a stored tier string, including legacy aliases, to a
// canonical tier. Unknown strings return "".
func normalizeTier(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case TierPilot, "personal", "team":
		return TierPilot
	case TierProduction, "professional", "organization":
		return TierProduction
	default:
		return ""
	}
}

// ProductLicenseType resolves the canonical tier for one product of an
// organization. Resolution order: the product's own license record, the
// organization-wide legacy license.type, then pilot. Unknown tier strings
// also resolve to pilot, the restrictive default.
func ProductLicenseType(org *models.Organization, product string) string {
	if org == nil || org.License == nil {
		return TierPilot
	}
	if pl := org.License.Product(product); pl != nil && pl.Type != "" {
		if t := normalizeTier(pl.Type); t != "" {
			return t
		}
		return TierPilot
	}
	if org.License.Type != "" {
		if t := normalizeTier(org.License.Type); t != "" {
			return t
		}
	}
	return TierPilot
}

// ProductLicenseLimits returns the limits for the organization's resolved
// tier on the given product.
func ProductLicenseLimits(org *models.Organization, product string) Limits {
	return tierLimits(ProductLicenseType(org, product))
}

// CanHavePublic reports whether the organization's tier on the given
// product allows public notifications.
func CanHavePublic(org *models.Organization, product string) bool {
	return ProductLicenseLimits(org, product).AllowPublic
}

// CanAddUser reports whether the organization can take one more user for
// the given product, given how many it already has.
func CanAddUser(org *models.Organization, product string, currentCount int) Seats {
	limits := ProductLicenseLimits(org, product)
	if limits.MaxUsers == nil {
		return Seats{Allowed: true, LicenseType: limits.Type}
	}
	limit := *limits.MaxUsers
	remaining := limit - currentCount
	if remaining < 0 {
		remaining = 0
	}
	return Seats{
		Allowed:     currentCount < limit,
		Limit:       &limit,
		Remaining:   &remaining,
		LicenseType: limits.Type,
	}
}

// Catalog lists the settable tiers with their limits, in display order.
func Catalog() []Limits {
	return []Limits{
		tierLimits(TierPilot),
		tierLimits(TierProduction),
	}
}

func tierLimits(tier string) Limits {
	switch tier {
	case TierProduction:
		return Limits{
			Type:        TierProduction,
			Label:       "Production",
			MaxUsers:    nil,
			AllowPublic: true,
		}
	default:
		max := pilotMaxUsers
		return Limits{
			Type:        TierPilot,
			Label:       "Pilot",
			MaxUsers:    &max,
			AllowPublic: false,
		}
	}
}
