package testutil

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"testing"
	"time"

	"github.com/civicatlas/notifyhub/internal/app/system/normalize"
	"github.com/civicatlas/notifyhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"
)

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateOrganization creates a test organization with the given name.
// Returns the created organization with its generated ID.
func (f *Fixtures) CreateOrganization(ctx context.Context, name string) models.Organization {
	f.t.Helper()

	now := time.Now().UTC()
	org := models.Organization{
		ID:            primitive.NewObjectID(),
		Name:          name,
		NameCI:        text.Fold(name),
		City:          "Test City",
		State:         "TS",
		TimeZone:      "America/New_York",
		Status:        models.StatusActive,
		Notifications: []models.Notification{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	_, err := f.db.Collection("organizations").InsertOne(ctx, org)
	if err != nil {
		f.t.Fatalf("failed to create test organization: %v", err)
	}

	return org
}

// CreateOrganizationWithLicense creates a test organization carrying a
// license record for the given product and tier.
func (f *Fixtures) CreateOrganizationWithLicense(ctx context.Context, name, product, tier string) models.Organization {
	f.t.Helper()

	now := time.Now().UTC()
	org := models.Organization{
		ID:            primitive.NewObjectID(),
		Name:          name,
		NameCI:        text.Fold(name),
		TimeZone:      "America/New_York",
		Status:        models.StatusActive,
		Notifications: []models.Notification{},
		License:       &models.LicenseInfo{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	lic := &models.ProductLicense{Type: tier, UpdatedAt: now}
	switch product {
	case models.ProductAtlas:
		org.License.Atlas = lic
	default:
		org.License.Notify = lic
	}

	_, err := f.db.Collection("organizations").InsertOne(ctx, org)
	if err != nil {
		f.t.Fatalf("failed to create test organization: %v", err)
	}

	return org
}

// CreateUser creates a test org member holding seats for the given
// products.
func (f *Fixtures) CreateUser(ctx context.Context, fullName, email string, orgID primitive.ObjectID, products ...string) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	user := models.User{
		ID:             primitive.NewObjectID(),
		FullName:       fullName,
		FullNameCI:     text.Fold(fullName),
		Email:          normalize.Email(email),
		Role:           "viewer",
		Status:         models.StatusActive,
		OrganizationID: orgID,
		Products:       products,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	_, err := f.db.Collection("users").InsertOne(ctx, user)
	if err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}

	return user
}

// CreateAdmin creates a console admin with the given role whose password
// is "test-password".
func (f *Fixtures) CreateAdmin(ctx context.Context, fullName, email, role string) models.Admin {
	f.t.Helper()

	// MinCost keeps fixture creation fast; these hashes never leave tests.
	hash, err := bcrypt.GenerateFromPassword([]byte("test-password"), bcrypt.MinCost)
	if err != nil {
		f.t.Fatalf("failed to hash fixture password: %v", err)
	}

	now := time.Now().UTC()
	admin := models.Admin{
		ID:           primitive.NewObjectID(),
		FullName:     fullName,
		FullNameCI:   text.Fold(fullName),
		Email:        normalize.Email(email),
		PasswordHash: string(hash),
		Role:         role,
		Status:       models.StatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	_, err = f.db.Collection("admins").InsertOne(ctx, admin)
	if err != nil {
		f.t.Fatalf("failed to create test admin: %v", err)
	}

	return admin
}

// CreateInvitation creates a pending invitation for the given address.
func (f *Fixtures) CreateInvitation(ctx context.Context, orgID primitive.ObjectID, email string, products ...string) models.Invitation {
	f.t.Helper()

	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		f.t.Fatalf("failed to generate invitation token: %v", err)
	}

	now := time.Now().UTC()
	inv := models.Invitation{
		ID:             primitive.NewObjectID(),
		OrganizationID: orgID,
		Email:          normalize.Email(email),
		Role:           "viewer",
		Products:       products,
		Token:          hex.EncodeToString(raw),
		ExpiresAt:      now.Add(7 * 24 * time.Hour),
		CreatedAt:      now,
	}

	_, err := f.db.Collection("invitations").InsertOne(ctx, inv)
	if err != nil {
		f.t.Fatalf("failed to create test invitation: %v", err)
	}

	return inv
}
