package emailtemplatestore_test

import (
	"testing"

	emailtemplatestore "github.com/civicatlas/notifyhub/internal/app/store/emailtemplates"
	"github.com/civicatlas/notifyhub/internal/domain/models"
	"github.com/civicatlas/notifyhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func sampleTemplate(name string) models.EmailTemplate {
	return models.EmailTemplate{
		Name:        name,
		Description: "weekly permit digest",
		HTML:        `<html><body>{{intro}}<table>{{records}}</table></body></html>`,
		IncludeCSV:  true,
		Theme: models.TemplateTheme{
			PrimaryColor:    "#1F5C99",
			BackgroundColor: "#F5F7FA",
		},
	}
}

func TestStore_Create(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := emailtemplatestore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, sampleTemplate("  Permit Digest  "))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if created.ID == primitive.NilObjectID {
		t.Error("expected ID to be assigned")
	}
	if created.Name != "Permit Digest" {
		t.Errorf("expected trimmed name, got %q", created.Name)
	}
	if created.NameCI != "permit digest" {
		t.Errorf("NameCI: got %q", created.NameCI)
	}
	if created.CreatedAt.IsZero() || created.UpdatedAt.IsZero() {
		t.Error("expected timestamps to be set")
	}
}

func TestStore_Create_EmptyName(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := emailtemplatestore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.Create(ctx, sampleTemplate("   ")); err == nil {
		t.Fatal("expected error for empty name")
	}
}

func TestStore_Create_DuplicateName(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := emailtemplatestore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.Create(ctx, sampleTemplate("Shared Layout")); err != nil {
		t.Fatalf("first Create failed: %v", err)
	}

	// Case-folded collision
	_, err := store.Create(ctx, sampleTemplate("SHARED layout"))
	if err != emailtemplatestore.ErrDuplicateName {
		t.Errorf("expected ErrDuplicateName, got %v", err)
	}
}

func TestStore_List(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := emailtemplatestore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	for _, name := range []string{"Zoning Updates", "Animal Services", "Permit Digest"} {
		if _, err := store.Create(ctx, sampleTemplate(name)); err != nil {
			t.Fatalf("Create %q failed: %v", name, err)
		}
	}

	templates, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(templates) != 3 {
		t.Fatalf("expected 3 templates, got %d", len(templates))
	}

	want := []string{"Animal Services", "Permit Digest", "Zoning Updates"}
	for i, name := range want {
		if templates[i].Name != name {
			t.Errorf("position %d: got %q, want %q", i, templates[i].Name, name)
		}
	}
}

func TestStore_Update(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := emailtemplatestore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, sampleTemplate("Before"))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	upd := sampleTemplate("After")
	upd.HTML = `<html><body>{{records}}</body></html>`
	upd.IncludeCSV = false
	if err := store.Update(ctx, created.ID, upd); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	found, err := store.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if found.Name != "After" {
		t.Errorf("Name: got %q, want %q", found.Name, "After")
	}
	if found.IncludeCSV {
		t.Error("expected IncludeCSV to be false after update")
	}
	if found.UpdatedAt.Equal(found.CreatedAt) {
		t.Error("expected UpdatedAt to move")
	}
}

func TestStore_Update_NotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := emailtemplatestore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	err := store.Update(ctx, primitive.NewObjectID(), sampleTemplate("Ghost"))
	if err != mongo.ErrNoDocuments {
		t.Errorf("expected mongo.ErrNoDocuments, got %v", err)
	}
}

func TestStore_Update_DuplicateName(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := emailtemplatestore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.Create(ctx, sampleTemplate("Alpha")); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	other, err := store.Create(ctx, sampleTemplate("Beta"))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// Renaming onto a name another template holds trips the unique index.
	if err := store.Update(ctx, other.ID, sampleTemplate("ALPHA")); err != emailtemplatestore.ErrDuplicateName {
		t.Errorf("expected ErrDuplicateName, got %v", err)
	}
}

func TestStore_Delete(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := emailtemplatestore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, sampleTemplate("Delete Me"))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	count, err := store.Delete(ctx, created.ID)
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 deleted, got %d", count)
	}

	if _, err := store.GetByID(ctx, created.ID); err != mongo.ErrNoDocuments {
		t.Errorf("expected mongo.ErrNoDocuments after delete, got %v", err)
	}
}
