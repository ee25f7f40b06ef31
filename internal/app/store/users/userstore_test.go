package userstore_test

import (
	"testing"

	userstore "github.com/civicatlas/notifyhub/internal/app/store/users"
	"github.com/civicatlas/notifyhub/internal/domain/models"
	"github.com/civicatlas/notifyhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestStore_Create(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	org := fixtures.CreateOrganization(ctx, "Test Org")

	user := models.User{
		FullName:       "Member User",
		Email:          "Member@Example.COM",
		Role:           "viewer",
		OrganizationID: org.ID,
		Products:       []string{"notify"},
	}

	created, err := store.Create(ctx, user)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// Verify ID was assigned
	if created.ID == primitive.NilObjectID {
		t.Error("expected ID to be assigned")
	}

	// Verify normalized fields
	if created.FullNameCI == "" {
		t.Error("expected FullNameCI to be set")
	}
	if created.Email != "member@example.com" {
		t.Errorf("expected normalized email, got %q", created.Email)
	}

	// Verify timestamps
	if created.CreatedAt.IsZero() {
		t.Error("expected CreatedAt to be set")
	}
	if created.UpdatedAt.IsZero() {
		t.Error("expected UpdatedAt to be set")
	}

	// Verify default status
	if created.Status != "active" {
		t.Errorf("expected status 'active', got %q", created.Status)
	}
}

func TestStore_Create_WithoutOrg(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	user := models.User{
		FullName: "Member User",
		Email:    "member@example.com",
		Role:     "viewer",
		// No OrganizationID
	}

	_, err := store.Create(ctx, user)
	if err == nil {
		t.Fatal("expected error when creating user without org")
	}
}

func TestStore_Create_InvalidRole(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	org := fixtures.CreateOrganization(ctx, "Test Org")

	user := models.User{
		FullName:       "Test User",
		Email:          "test@example.com",
		Role:           "invalid_role",
		OrganizationID: org.ID,
	}

	_, err := store.Create(ctx, user)
	if err == nil {
		t.Fatal("expected error for invalid role")
	}
}

func TestStore_Create_InvalidProduct(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	org := fixtures.CreateOrganization(ctx, "Test Org")

	user := models.User{
		FullName:       "Test User",
		Email:          "test@example.com",
		Role:           "viewer",
		OrganizationID: org.ID,
		Products:       []string{"notify", "mystery"},
	}

	_, err := store.Create(ctx, user)
	if err == nil {
		t.Fatal("expected error for unknown product")
	}
}

func TestStore_Create_DuplicateEmail(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	org := fixtures.CreateOrganization(ctx, "Test Org")

	user1 := models.User{
		FullName:       "User One",
		Email:          "duplicate@example.com",
		Role:           "viewer",
		OrganizationID: org.ID,
	}

	_, err := store.Create(ctx, user1)
	if err != nil {
		t.Fatalf("first Create failed: %v", err)
	}

	// Same address, different case: must still collide.
	user2 := models.User{
		FullName:       "User Two",
		Email:          "DUPLICATE@example.com",
		Role:           "viewer",
		OrganizationID: org.ID,
	}

	_, err = store.Create(ctx, user2)
	if err != userstore.ErrDuplicateEmail {
		t.Errorf("expected ErrDuplicateEmail, got %v", err)
	}
}

func TestStore_GetByID_NotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fakeID := primitive.NewObjectID()
	_, err := store.GetByID(ctx, fakeID)
	if err != mongo.ErrNoDocuments {
		t.Errorf("expected mongo.ErrNoDocuments, got %v", err)
	}
}

func TestStore_GetByEmail(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	org := fixtures.CreateOrganization(ctx, "Test Org")

	user := models.User{
		FullName:       "Email Test User",
		Email:          "FindMe@Example.COM",
		Role:           "viewer",
		OrganizationID: org.ID,
	}

	created, err := store.Create(ctx, user)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// Search with different case
	found, err := store.GetByEmail(ctx, "findme@example.com")
	if err != nil {
		t.Fatalf("GetByEmail failed: %v", err)
	}

	if found.ID != created.ID {
		t.Errorf("ID: got %v, want %v", found.ID, created.ID)
	}
}

func TestStore_ListByOrganization(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	org := fixtures.CreateOrganization(ctx, "Org A")
	other := fixtures.CreateOrganization(ctx, "Org B")

	fixtures.CreateUser(ctx, "Zoe Adams", "zoe@example.com", org.ID)
	fixtures.CreateUser(ctx, "Amy Brooks", "amy@example.com", org.ID)
	fixtures.CreateUser(ctx, "Outsider", "out@example.com", other.ID)

	users, err := store.ListByOrganization(ctx, org.ID)
	if err != nil {
		t.Fatalf("ListByOrganization failed: %v", err)
	}

	if len(users) != 2 {
		t.Fatalf("expected 2 users, got %d", len(users))
	}
	// Sorted by folded name
	if users[0].FullName != "Amy Brooks" || users[1].FullName != "Zoe Adams" {
		t.Errorf("unexpected order: %q, %q", users[0].FullName, users[1].FullName)
	}
}

func TestStore_CountSeats(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	org := fixtures.CreateOrganization(ctx, "Org A")
	other := fixtures.CreateOrganization(ctx, "Org B")

	fixtures.CreateUser(ctx, "One", "one@example.com", org.ID, "notify")
	fixtures.CreateUser(ctx, "Two", "two@example.com", org.ID, "notify", "atlas")
	fixtures.CreateUser(ctx, "Three", "three@example.com", org.ID, "atlas")
	fixtures.CreateUser(ctx, "Elsewhere", "else@example.com", other.ID, "notify")

	count, err := store.CountSeats(ctx, org.ID, "notify")
	if err != nil {
		t.Fatalf("CountSeats failed: %v", err)
	}
	if count != 2 {
		t.Errorf("notify seats: got %d, want 2", count)
	}

	count, err = store.CountSeats(ctx, org.ID, "atlas")
	if err != nil {
		t.Fatalf("CountSeats failed: %v", err)
	}
	if count != 2 {
		t.Errorf("atlas seats: got %d, want 2", count)
	}
}

func TestStore_UpdateMember(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	org := fixtures.CreateOrganization(ctx, "Test Org")

	member, err := store.Create(ctx, models.User{
		FullName:       "Original Name",
		Email:          "original@example.com",
		Role:           "viewer",
		OrganizationID: org.ID,
		Products:       []string{"notify"},
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	upd := userstore.MemberUpdate{
		FullName: "Updated Name",
		Email:    "Updated@Example.com",
		Role:     "editor",
		Status:   "disabled",
		Products: []string{"notify", "atlas"},
	}

	if err := store.UpdateMember(ctx, org.ID, member.ID, upd); err != nil {
		t.Fatalf("UpdateMember failed: %v", err)
	}

	found, err := store.GetByID(ctx, member.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}

	if found.FullName != "Updated Name" {
		t.Errorf("FullName: got %q, want %q", found.FullName, "Updated Name")
	}
	if found.Email != "updated@example.com" {
		t.Errorf("Email: got %q, want %q", found.Email, "updated@example.com")
	}
	if found.Role != "editor" {
		t.Errorf("Role: got %q, want %q", found.Role, "editor")
	}
	if found.Status != "disabled" {
		t.Errorf("Status: got %q, want %q", found.Status, "disabled")
	}
	if len(found.Products) != 2 {
		t.Errorf("Products: got %v, want two seats", found.Products)
	}
}

func TestStore_UpdateMember_WrongOrg(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	org := fixtures.CreateOrganization(ctx, "Org A")
	other := fixtures.CreateOrganization(ctx, "Org B")
	member := fixtures.CreateUser(ctx, "Member", "member@example.com", org.ID)

	upd := userstore.MemberUpdate{
		FullName: "Hijacked",
		Email:    "member@example.com",
		Role:     "viewer",
		Status:   "active",
	}

	// Update scoped to the wrong org must not touch the user.
	if err := store.UpdateMember(ctx, other.ID, member.ID, upd); err != nil {
		t.Fatalf("UpdateMember failed: %v", err)
	}

	found, err := store.GetByID(ctx, member.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if found.FullName != "Member" {
		t.Errorf("expected name unchanged, got %q", found.FullName)
	}
}

func TestStore_DeleteMember(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	org := fixtures.CreateOrganization(ctx, "Test Org")
	member := fixtures.CreateUser(ctx, "Delete Me", "delete@example.com", org.ID)

	count, err := store.DeleteMember(ctx, org.ID, member.ID)
	if err != nil {
		t.Fatalf("DeleteMember failed: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 deleted, got %d", count)
	}

	// Verify deletion
	_, err = store.GetByID(ctx, member.ID)
	if err != mongo.ErrNoDocuments {
		t.Errorf("expected mongo.ErrNoDocuments after delete, got %v", err)
	}
}

func TestStore_DeleteMember_WrongOrg(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	org := fixtures.CreateOrganization(ctx, "Org A")
	other := fixtures.CreateOrganization(ctx, "Org B")
	member := fixtures.CreateUser(ctx, "Keep Me", "keep@example.com", org.ID)

	count, err := store.DeleteMember(ctx, other.ID, member.ID)
	if err != nil {
		t.Fatalf("DeleteMember failed: %v", err)
	}
	if count != 0 {
		t.Errorf("expected 0 deleted (wrong org), got %d", count)
	}

	// Verify user still exists
	if _, err := store.GetByID(ctx, member.ID); err != nil {
		t.Errorf("user should still exist: %v", err)
	}
}

func TestStore_EmailExists(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	org := fixtures.CreateOrganization(ctx, "Test Org")
	fixtures.CreateUser(ctx, "User One", "user1@example.com", org.ID)

	exists, err := store.EmailExists(ctx, "user1@example.com")
	if err != nil {
		t.Fatalf("EmailExists failed: %v", err)
	}
	if !exists {
		t.Error("expected true for a seated member's email")
	}

	// Lookup normalizes, so case and padding must not hide the match.
	exists, err = store.EmailExists(ctx, "  USER1@Example.com ")
	if err != nil {
		t.Fatalf("EmailExists failed: %v", err)
	}
	if !exists {
		t.Error("expected true for a differently-cased email")
	}

	exists, err = store.EmailExists(ctx, "nobody@example.com")
	if err != nil {
		t.Fatalf("EmailExists failed: %v", err)
	}
	if exists {
		t.Error("expected false for an unseated email")
	}
}
