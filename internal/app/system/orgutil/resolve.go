// internal/app/system/orgutil/resolve.go
package orgutil

import (
	"context"
	"errors"

	"github.com/civicatlas/notifyhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Resolution errors. Handlers map these to 4xx responses; anything else
// coming out of a resolve call is an infrastructure failure.
var (
	ErrBadOrgID     = errors.New("invalid organization id")
	ErrOrgNotFound  = errors.New("organization not found")
	ErrOrgNotActive = errors.New("organization not active")
)

// IsExpectedOrgError reports whether err is a client-caused resolution
// failure (bad ID, missing org, disabled org) rather than a database error.
func IsExpectedOrgError(err error) bool {
	return errors.Is(err, ErrBadOrgID) ||
		errors.Is(err, ErrOrgNotFound) ||
		errors.Is(err, ErrOrgNotActive)
}

// ResolveOrgFromHex parses an organization ID from a URL segment and loads
// the full document. Returns ErrBadOrgID for malformed hex and
// ErrOrgNotFound when no document matches.
func ResolveOrgFromHex(ctx context.Context, db *mongo.Database, hex string) (models.Organization, error) {
	oid, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return models.Organization{}, ErrBadOrgID
	}

	var org models.Organization
	err = db.Collection("organizations").FindOne(ctx, bson.M{"_id": oid}).Decode(&org)
	if err == mongo.ErrNoDocuments {
		return models.Organization{}, ErrOrgNotFound
	}
	if err != nil {
		return models.Organization{}, err
	}
	return org, nil
}

// ResolveActiveOrgFromHex is ResolveOrgFromHex plus a status check.
// Use it for operations that should be refused on disabled organizations
// (notification saves, invitations). Returns ErrOrgNotActive when the
// organization exists but is not active.
func ResolveActiveOrgFromHex(ctx context.Context, db *mongo.Database, hex string) (models.Organization, error) {
	org, err := ResolveOrgFromHex(ctx, db, hex)
	if err != nil {
		return models.Organization{}, err
	}
	if org.Status != models.StatusActive {
		return models.Organization{}, ErrOrgNotActive
	}
	return org, nil
}

// GetOrgName returns the organization's name, or "" when the ID is zero or
// no document matches. Lookup failures other than a missing document are
// returned as errors.
func GetOrgName(ctx context.Context, db *mongo.Database, id primitive.ObjectID) (string, error) {
	if id.IsZero() {
		return "", nil
	}

	var doc struct {
		Name string `bson:"name"`
	}
	err := db.Collection("organizations").FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return doc.Name, nil
}
