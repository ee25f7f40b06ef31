// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is an organization member: someone who receives digests and, with
// the editor/owner role, manages the org's notifications through the SPA.
// Seat limits (licensepolicy.CanAddUser) count users per product.
type User struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FullName   string             `bson:"full_name" json:"full_name"`
	FullNameCI string             `bson:"full_name_ci" json:"-"`

	// Email is stored normalized (lowercased, trimmed), so equality and the
	// unique index are case-insensitive by construction.
	Email string `bson:"email" json:"email"`

	Role   string `bson:"role" json:"role"` // owner | editor | viewer
	Status string `bson:"status,omitempty" json:"status,omitempty"`

	OrganizationID primitive.ObjectID `bson:"organization_id" json:"organization_id"`

	// Products lists which product seats this user occupies
	// ("notify", "atlas").
	Products []string `bson:"products,omitempty" json:"products,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// HasProduct reports whether the user occupies a seat for the product.
func (u *User) HasProduct(product string) bool {
	for _, p := range u.Products {
		if p == product {
			return true
		}
	}
	return false
}
