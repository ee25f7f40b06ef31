package organizationstore_test

import (
	"testing"

	organizationstore "github.com/civicatlas/notifyhub/internal/app/store/organizations"
	"github.com/civicatlas/notifyhub/internal/domain/models"
	"github.com/civicatlas/notifyhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestStore_Create(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := organizationstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	org := models.Organization{
		Name:     "Test Organization",
		City:     "New York",
		State:    "NY",
		TimeZone: "America/New_York",
	}

	created, err := store.Create(ctx, org)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// Verify ID was assigned
	if created.ID == primitive.NilObjectID {
		t.Error("expected ID to be assigned")
	}

	// Verify normalized fields
	if created.NameCI == "" {
		t.Error("expected NameCI to be set")
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

	// A fresh org starts with an empty notifications array at revision 0.
	if created.Notifications == nil {
		t.Error("expected Notifications to be initialized")
	}
	if created.NotificationsRev != 0 {
		t.Errorf("expected NotificationsRev 0, got %d", created.NotificationsRev)
	}
}

func TestStore_Create_DuplicateName(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := organizationstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	org := models.Organization{
		Name:     "Duplicate Test",
		City:     "Boston",
		State:    "MA",
		TimeZone: "America/New_York",
	}

	// Create first org
	_, err := store.Create(ctx, org)
	if err != nil {
		t.Fatalf("first Create failed: %v", err)
	}

	// Try to create duplicate
	_, err = store.Create(ctx, org)
	if err != organizationstore.ErrDuplicateOrganization {
		t.Errorf("expected ErrDuplicateOrganization, got %v", err)
	}
}

func TestStore_GetByID(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := organizationstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	// Create an organization first
	org := models.Organization{
		Name:        "GetByID Test",
		City:        "Chicago",
		State:       "IL",
		TimeZone:    "America/Chicago",
		ContactInfo: "test@example.com",
	}
	created, err := store.Create(ctx, org)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// Retrieve by ID
	found, err := store.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}

	// Verify fields match
	if found.Name != created.Name {
		t.Errorf("Name: got %q, want %q", found.Name, created.Name)
	}
	if found.City != created.City {
		t.Errorf("City: got %q, want %q", found.City, created.City)
	}
	if found.State != created.State {
		t.Errorf("State: got %q, want %q", found.State, created.State)
	}
	if found.TimeZone != created.TimeZone {
		t.Errorf("TimeZone: got %q, want %q", found.TimeZone, created.TimeZone)
	}
	if found.ContactInfo != created.ContactInfo {
		t.Errorf("ContactInfo: got %q, want %q", found.ContactInfo, created.ContactInfo)
	}
}

func TestStore_GetByID_NotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := organizationstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	// Try to get a non-existent organization
	fakeID := primitive.NewObjectID()
	_, err := store.GetByID(ctx, fakeID)
	if err != mongo.ErrNoDocuments {
		t.Errorf("expected mongo.ErrNoDocuments, got %v", err)
	}
}

func TestStore_Create_CaseInsensitiveName(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := organizationstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	org := models.Organization{
		Name:     "Cité de Montréal",
		TimeZone: "America/Toronto",
	}

	created, err := store.Create(ctx, org)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// Folded name is lowercase with diacritics stripped
	if created.NameCI != "cite de montreal" {
		t.Errorf("NameCI: got %q, want %q", created.NameCI, "cite de montreal")
	}
}

func TestStore_ReplaceNotifications(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := organizationstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, models.Organization{Name: "CAS Org"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	notifications := []models.Notification{
		{ID: "permits-weekly", Name: "Weekly Permits", Type: "weekly"},
	}

	rev, err := store.ReplaceNotifications(ctx, created.ID, 0, notifications)
	if err != nil {
		t.Fatalf("ReplaceNotifications failed: %v", err)
	}
	if rev != 1 {
		t.Errorf("expected revision 1, got %d", rev)
	}

	found, err := store.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if found.NotificationsRev != 1 {
		t.Errorf("stored revision: got %d, want 1", found.NotificationsRev)
	}
	if len(found.Notifications) != 1 || found.Notifications[0].ID != "permits-weekly" {
		t.Errorf("unexpected notifications: %+v", found.Notifications)
	}

	// A second save against the new revision succeeds
	rev, err = store.ReplaceNotifications(ctx, created.ID, 1, nil)
	if err != nil {
		t.Fatalf("second ReplaceNotifications failed: %v", err)
	}
	if rev != 2 {
		t.Errorf("expected revision 2, got %d", rev)
	}

	// nil replacement is stored as an empty array, not null
	found, err = store.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if found.Notifications == nil {
		t.Error("expected empty notifications array, got nil")
	}
	if len(found.Notifications) != 0 {
		t.Errorf("expected 0 notifications, got %d", len(found.Notifications))
	}
}

func TestStore_ReplaceNotifications_StaleRevision(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := organizationstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, models.Organization{Name: "Stale Org"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// First writer wins
	if _, err := store.ReplaceNotifications(ctx, created.ID, 0, nil); err != nil {
		t.Fatalf("first save failed: %v", err)
	}

	// Second writer still holds revision 0
	_, err = store.ReplaceNotifications(ctx, created.ID, 0, []models.Notification{
		{ID: "late", Name: "Late Writer", Type: "daily"},
	})
	if err != organizationstore.ErrStaleRevision {
		t.Errorf("expected ErrStaleRevision, got %v", err)
	}

	// The losing write must not have touched the document
	found, err := store.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if len(found.Notifications) != 0 {
		t.Errorf("stale write modified notifications: %+v", found.Notifications)
	}
}

func TestStore_ReplaceNotifications_MissingOrg(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := organizationstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, err := store.ReplaceNotifications(ctx, primitive.NewObjectID(), 0, nil)
	if err != mongo.ErrNoDocuments {
		t.Errorf("expected mongo.ErrNoDocuments, got %v", err)
	}
}

func TestStore_SetProductLicense(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := organizationstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, models.Organization{Name: "License Org"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	lic := models.ProductLicense{Type: "production", UpdatedBy: "root@example.com"}
	if err := store.SetProductLicense(ctx, created.ID, models.ProductNotify, lic); err != nil {
		t.Fatalf("SetProductLicense failed: %v", err)
	}

	found, err := store.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if found.License == nil || found.License.Notify == nil {
		t.Fatal("expected notify license to be set")
	}
	if found.License.Notify.Type != "production" {
		t.Errorf("license type: got %q, want %q", found.License.Notify.Type, "production")
	}
	if found.License.Notify.UpdatedBy != "root@example.com" {
		t.Errorf("UpdatedBy: got %q", found.License.Notify.UpdatedBy)
	}
	// The other product is untouched
	if found.License.Atlas != nil {
		t.Errorf("atlas license should be unset, got %+v", found.License.Atlas)
	}
}

func TestStore_SetProductLicense_UnknownProduct(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := organizationstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, models.Organization{Name: "Bad Product Org"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	err = store.SetProductLicense(ctx, created.ID, "payroll", models.ProductLicense{Type: "pilot"})
	if err == nil {
		t.Fatal("expected error for unknown product")
	}
}

func TestStore_SetProductLicense_MissingOrg(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := organizationstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	err := store.SetProductLicense(ctx, primitive.NewObjectID(), models.ProductNotify, models.ProductLicense{Type: "pilot"})
	if err != mongo.ErrNoDocuments {
		t.Errorf("expected mongo.ErrNoDocuments, got %v", err)
	}
}

func TestStore_UpdateAtlasTemplates(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := organizationstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, models.Organization{Name: "Atlas Org"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	templates := []models.ExportTemplate{
		{ID: "letter-map", Name: "Letter Map", Kind: models.ExportKindMap, PageSize: "letter"},
	}
	if err := store.UpdateAtlasTemplates(ctx, created.ID, templates); err != nil {
		t.Fatalf("UpdateAtlasTemplates failed: %v", err)
	}

	found, err := store.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if found.AtlasConfig == nil {
		t.Fatal("expected atlasConfig to be set")
	}
	if len(found.AtlasConfig.ExportTemplates) != 1 {
		t.Fatalf("expected 1 template, got %d", len(found.AtlasConfig.ExportTemplates))
	}
	if found.AtlasConfig.ExportTemplates[0].ID != "letter-map" {
		t.Errorf("template ID: got %q", found.AtlasConfig.ExportTemplates[0].ID)
	}
}

func TestStore_Update(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := organizationstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, models.Organization{
		Name:     "Before",
		City:     "Springfield",
		TimeZone: "America/Chicago",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// Seed a notification so we can prove Update leaves it alone.
	if _, err := store.ReplaceNotifications(ctx, created.ID, 0, []models.Notification{
		{ID: "keep", Name: "Keeper", Type: "daily"},
	}); err != nil {
		t.Fatalf("ReplaceNotifications failed: %v", err)
	}

	err = store.Update(ctx, created.ID, models.Organization{Name: "After", State: "IL"})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	found, err := store.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if found.Name != "After" {
		t.Errorf("Name: got %q, want %q", found.Name, "After")
	}
	if found.State != "IL" {
		t.Errorf("State: got %q, want %q", found.State, "IL")
	}
	// Empty fields in the update must not clear stored values
	if found.City != "Springfield" {
		t.Errorf("City: got %q, want unchanged %q", found.City, "Springfield")
	}
	// Update never touches the notifications array or its revision
	if len(found.Notifications) != 1 || found.NotificationsRev != 1 {
		t.Errorf("Update touched notifications: rev=%d n=%d", found.NotificationsRev, len(found.Notifications))
	}
}
