// internal/domain/models/invitation.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Invitation is a pending offer of an organization seat. Pending
// invitations count toward the product seat limit so a pilot org cannot
// oversubscribe by inviting; expired ones are swept by the cleanup worker.
type Invitation struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OrganizationID primitive.ObjectID `bson:"organization_id" json:"organization_id"`

	// Email is stored normalized (lowercased, trimmed).
	Email string `bson:"email" json:"email"`

	// FullName is the invitee's name from the roster; the accept flow may
	// override it.
	FullName string `bson:"full_name,omitempty" json:"full_name,omitempty"`

	Role string `bson:"role" json:"role"`

	Products []string `bson:"products,omitempty" json:"products,omitempty"`

	Token     string    `bson:"token" json:"-"`
	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"`

	InvitedBy  string     `bson:"invited_by,omitempty" json:"invited_by,omitempty"`
	AcceptedAt *time.Time `bson:"accepted_at,omitempty" json:"accepted_at,omitempty"`
	CreatedAt  time.Time  `bson:"created_at" json:"created_at"`
}

// Pending reports whether the invitation still holds a seat: not yet
// accepted and not expired at the given time.
func (inv *Invitation) Pending(now time.Time) bool {
	return inv.AcceptedAt == nil && now.Before(inv.ExpiresAt)
}
