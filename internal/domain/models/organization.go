// internal/domain/models/organization.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Product keys for per-product licensing. Every license-aware code path
// takes one of these, never a free-form string.
const (
	ProductNotify = "notify"
	ProductAtlas  = "atlas"
)

// Organization is a tenant. Notifications are embedded documents: a save
// replaces the whole notifications array (guarded by NotificationsRev,
// see organizationstore.ReplaceNotifications).
//
// Sub-document field names under license, notifications, and atlasConfig
// are camelCase because they are the document contract the browser client
// already reads and writes; service-owned fields follow the usual
// snake_case convention.
type Organization struct {
	ID          primitive.ObjectID `bson:"_id" json:"id"`
	Name        string             `bson:"name" json:"name"`
	NameCI      string             `bson:"name_ci" json:"-"` // lowercase, diacritics-stripped
	City        string             `bson:"city,omitempty" json:"city,omitempty"`
	State       string             `bson:"state,omitempty" json:"state,omitempty"`
	TimeZone    string             `bson:"time_zone,omitempty" json:"time_zone,omitempty"`
	ContactInfo string             `bson:"contact_info,omitempty" json:"contact_info,omitempty"`
	Status      string             `bson:"status" json:"status"`

	License *LicenseInfo `bson:"license,omitempty" json:"license,omitempty"`

	Notifications    []Notification `bson:"notifications" json:"notifications"`
	NotificationsRev int64          `bson:"notifications_rev" json:"notificationsRev"`

	AtlasConfig *AtlasConfig `bson:"atlasConfig,omitempty" json:"atlasConfig,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// LicenseInfo holds per-product license records plus the legacy single
// license type that predates per-product licensing. Readers must go through
// licensepolicy.ProductLicenseType rather than touching fields directly.
type LicenseInfo struct {
	// Type is the legacy org-wide license type ("personal", "professional",
	// ...). Still present on older documents; never written anymore.
	Type string `bson:"type,omitempty" json:"type,omitempty"`

	Notify *ProductLicense `bson:"notify,omitempty" json:"notify,omitempty"`
	Atlas  *ProductLicense `bson:"atlas,omitempty" json:"atlas,omitempty"`
}

// Product returns the license record for the given product key, or nil.
func (li *LicenseInfo) Product(product string) *ProductLicense {
	if li == nil {
		return nil
	}
	switch product {
	case ProductNotify:
		return li.Notify
	case ProductAtlas:
		return li.Atlas
	default:
		return nil
	}
}

// ProductLicense is one product's license record on an organization.
type ProductLicense struct {
	Type      string    `bson:"type" json:"type"`
	UpdatedAt time.Time `bson:"updatedAt,omitempty" json:"updatedAt,omitempty"`
	UpdatedBy string    `bson:"updatedBy,omitempty" json:"updatedBy,omitempty"`
}

// AtlasConfig holds the mapping product's per-org configuration.
type AtlasConfig struct {
	ExportTemplates []ExportTemplate `bson:"exportTemplates,omitempty" json:"exportTemplates,omitempty"`
}

// FindNotification returns the index of the notification with the given id,
// or -1 when absent.
func (o *Organization) FindNotification(id string) int {
	for i := range o.Notifications {
		if o.Notifications[i].ID == id {
			return i
		}
	}
	return -1
}
