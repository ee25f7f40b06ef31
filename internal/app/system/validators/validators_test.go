package validators_test

import (
	"strings"
	"testing"
	"time"

	"github.com/civicatlas/notifyhub/internal/app/system/validators"
	"github.com/civicatlas/notifyhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestEnsureAll(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	// EnsureAll should succeed on a clean database
	err := validators.EnsureAll(ctx, db)
	if err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}
}

func TestEnsureAll_Idempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	// First call
	err := validators.EnsureAll(ctx, db)
	if err != nil {
		t.Fatalf("First EnsureAll failed: %v", err)
	}

	// Second call should also succeed (idempotent)
	err = validators.EnsureAll(ctx, db)
	if err != nil {
		t.Fatalf("Second EnsureAll failed: %v", err)
	}
}

func TestEnsureAll_CreatesCollections(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	err := validators.EnsureAll(ctx, db)
	if err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	// Verify collections exist
	expectedCollections := []string{
		"organizations",
		"users",
		"admins",
		"invitations",
		"email_templates",
		"logs",
	}

	names, err := db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		t.Fatalf("ListCollectionNames failed: %v", err)
	}

	collMap := make(map[string]bool)
	for _, name := range names {
		collMap[name] = true
	}

	for _, expected := range expectedCollections {
		if !collMap[expected] {
			t.Errorf("expected collection %q to exist", expected)
		}
	}
}

func TestUsersValidator_RequiredFields(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	err := validators.EnsureAll(ctx, db)
	if err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	// Try to insert user without required fields - should fail
	_, err = db.Collection("users").InsertOne(ctx, bson.M{
		"email": "partial@example.com",
	})
	if err == nil {
		t.Error("expected validation error when inserting user without required fields")
	}
}

func TestUsersValidator_ValidUser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	err := validators.EnsureAll(ctx, db)
	if err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	// Insert valid user - should succeed
	_, err = db.Collection("users").InsertOne(ctx, bson.M{
		"full_name":       "Test User",
		"full_name_ci":    "test user",
		"email":           "valid.user@example.com",
		"organization_id": primitive.NewObjectID(),
		"role":            "viewer",
		"status":          "active",
		"products":        bson.A{"notify"},
	})
	if err != nil {
		t.Errorf("Insert valid user failed: %v", err)
	}
}

func TestUsersValidator_InvalidRole(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	err := validators.EnsureAll(ctx, db)
	if err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	// Try to insert user with invalid role - should fail
	_, err = db.Collection("users").InsertOne(ctx, bson.M{
		"full_name":       "Test User",
		"full_name_ci":    "test user",
		"email":           "badrole@example.com",
		"organization_id": primitive.NewObjectID(),
		"role":            "superuser",
		"status":          "active",
	})
	if err == nil {
		t.Error("expected validation error when inserting user with invalid role")
	}
}

func TestUsersValidator_InvalidProduct(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	err := validators.EnsureAll(ctx, db)
	if err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	// Try to insert user with an unknown product seat - should fail
	_, err = db.Collection("users").InsertOne(ctx, bson.M{
		"full_name":       "Test User",
		"full_name_ci":    "test user",
		"email":           "badproduct@example.com",
		"organization_id": primitive.NewObjectID(),
		"role":            "viewer",
		"products":        bson.A{"premium"},
	})
	if err == nil {
		t.Error("expected validation error when inserting user with unknown product")
	}
}

func TestUsersValidator_AllValidRoles(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	err := validators.EnsureAll(ctx, db)
	if err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	orgID := primitive.NewObjectID()
	validRoles := []string{"owner", "editor", "viewer"}

	for _, role := range validRoles {
		// Include unique email to avoid duplicate key error on unique index
		_, err = db.Collection("users").InsertOne(ctx, bson.M{
			"full_name":       "Test " + role,
			"full_name_ci":    "test " + role,
			"email":           role + "@example.com",
			"organization_id": orgID,
			"role":            role,
			"status":          "active",
		})
		if err != nil {
			t.Errorf("Insert user with role %q failed: %v", role, err)
		}
	}
}

func TestOrganizationsValidator_RequiredFields(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	err := validators.EnsureAll(ctx, db)
	if err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	// Try to insert org without required fields - should fail
	_, err = db.Collection("organizations").InsertOne(ctx, bson.M{
		"city": "Test City",
	})
	if err == nil {
		t.Error("expected validation error when inserting organization without required fields")
	}
}

func TestOrganizationsValidator_ValidOrg(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	err := validators.EnsureAll(ctx, db)
	if err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	// Insert valid org - should succeed
	_, err = db.Collection("organizations").InsertOne(ctx, bson.M{
		"name":      "Test Org",
		"name_ci":   "test org",
		"status":    "active",
		"time_zone": "America/New_York",
	})
	if err != nil {
		t.Errorf("Insert valid organization failed: %v", err)
	}
}

func TestOrganizationsValidator_DisabledStatus(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	err := validators.EnsureAll(ctx, db)
	if err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	// Disabled is a legitimate status; the validator must accept it.
	_, err = db.Collection("organizations").InsertOne(ctx, bson.M{
		"name":    "Dormant Org",
		"name_ci": "dormant org",
		"status":  "disabled",
	})
	if err != nil {
		t.Errorf("Insert disabled organization failed: %v", err)
	}
}

func TestAdminsValidator_RequiredFields(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	err := validators.EnsureAll(ctx, db)
	if err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	// Try to insert admin without required fields - should fail
	_, err = db.Collection("admins").InsertOne(ctx, bson.M{
		"email": "admin@example.com",
	})
	if err == nil {
		t.Error("expected validation error when inserting admin without required fields")
	}
}

func TestAdminsValidator_ValidAdmin(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	err := validators.EnsureAll(ctx, db)
	if err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	// Insert valid admin - should succeed
	_, err = db.Collection("admins").InsertOne(ctx, bson.M{
		"full_name":     "Console Admin",
		"email":         "console@example.com",
		"password_hash": "$2a$10$abcdefghijklmnopqrstuv",
		"role":          "admin",
		"status":        "active",
	})
	if err != nil {
		t.Errorf("Insert valid admin failed: %v", err)
	}
}

func TestAdminsValidator_InvalidRole(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	err := validators.EnsureAll(ctx, db)
	if err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	// Try to insert admin with invalid role - should fail
	_, err = db.Collection("admins").InsertOne(ctx, bson.M{
		"full_name": "Console Admin",
		"email":     "badrole.admin@example.com",
		"role":      "operator",
		"status":    "active",
	})
	if err == nil {
		t.Error("expected validation error when inserting admin with invalid role")
	}
}

func TestInvitationsValidator_RequiredFields(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	err := validators.EnsureAll(ctx, db)
	if err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	// Try to insert invitation without required fields - should fail
	_, err = db.Collection("invitations").InsertOne(ctx, bson.M{
		"email": "invitee@example.com",
	})
	if err == nil {
		t.Error("expected validation error when inserting invitation without required fields")
	}
}

func TestInvitationsValidator_ValidInvitation(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	err := validators.EnsureAll(ctx, db)
	if err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	// Insert valid invitation - should succeed
	_, err = db.Collection("invitations").InsertOne(ctx, bson.M{
		"organization_id": primitive.NewObjectID(),
		"email":           "invitee@example.com",
		"role":            "editor",
		"token":           strings.Repeat("ab", 32),
		"expires_at":      time.Now().Add(72 * time.Hour),
		"created_at":      time.Now(),
	})
	if err != nil {
		t.Errorf("Insert valid invitation failed: %v", err)
	}
}

func TestEmailTemplatesValidator_RequiredFields(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	err := validators.EnsureAll(ctx, db)
	if err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	// Try to insert template without required fields - should fail
	_, err = db.Collection("email_templates").InsertOne(ctx, bson.M{
		"description": "Missing everything else",
	})
	if err == nil {
		t.Error("expected validation error when inserting email template without required fields")
	}
}

func TestEmailTemplatesValidator_ValidTemplate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	err := validators.EnsureAll(ctx, db)
	if err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	// Insert valid template - should succeed
	_, err = db.Collection("email_templates").InsertOne(ctx, bson.M{
		"name":       "Weekly Digest",
		"name_ci":    "weekly digest",
		"html":       "<html><body>{{content}}</body></html>",
		"includeCSV": false,
	})
	if err != nil {
		t.Errorf("Insert valid email template failed: %v", err)
	}
}

func TestLogs_NoValidator(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	err := validators.EnsureAll(ctx, db)
	if err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	// logs has no validator, so any document should be accepted
	_, err = db.Collection("logs").InsertOne(ctx, bson.M{
		"any_field": "any_value",
	})
	if err != nil {
		t.Errorf("Insert to logs should succeed (no validator): %v", err)
	}
}
