package auditlog_test

import (
	"net/http/httptest"
	"testing"

	logstore "github.com/civicatlas/notifyhub/internal/app/store/logs"
	"github.com/civicatlas/notifyhub/internal/app/system/auditlog"
	"github.com/civicatlas/notifyhub/internal/domain/models"
	"github.com/civicatlas/notifyhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func TestLogger_NilLogger(t *testing.T) {
	// nil logger should be a no-op (not panic)
	var logger *auditlog.Logger
	ctx, cancel := testutil.TestContext()
	defer cancel()
	req := httptest.NewRequest("GET", "/", nil)

	// These should all be no-ops, not panic
	logger.Log(ctx, models.LogEntry{Action: "test"})
	logger.LoginSuccess(ctx, req, "admin@example.com")
	logger.Logout(ctx, req, "admin@example.com")
}

func TestLogger_Log_ConfigOff(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := logstore.New(db)
	zapLog := zap.NewNop()
	ctx, cancel := testutil.TestContext()
	defer cancel()

	logger := auditlog.New(store, zapLog, auditlog.Config{
		Auth:  "off",
		Admin: "off",
	})

	logger.Log(ctx, models.LogEntry{
		Category: models.LogCategoryAuth,
		Action:   logstore.ActionLoginSuccess,
		Success:  true,
	})

	// Verify nothing was logged to DB
	entries, err := store.Query(ctx, logstore.QueryFilter{})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(entries) != 0 {
		t.Error("expected no entries when config is 'off'")
	}
}

func TestLogger_Log_ConfigDB(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := logstore.New(db)
	zapLog := zap.NewNop()
	ctx, cancel := testutil.TestContext()
	defer cancel()

	logger := auditlog.New(store, zapLog, auditlog.Config{
		Auth:  "db",
		Admin: "db",
	})

	logger.Log(ctx, models.LogEntry{
		Category: models.LogCategoryAuth,
		Action:   logstore.ActionLoginSuccess,
		Actor:    "admin@example.com",
		Success:  true,
	})

	// Verify entry was logged to DB
	entries, err := store.Query(ctx, logstore.QueryFilter{Category: models.LogCategoryAuth})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("expected 1 entry, got %d", len(entries))
	}
}

func TestLogger_Log_ConfigAll(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := logstore.New(db)
	zapLog := zap.NewNop()
	ctx, cancel := testutil.TestContext()
	defer cancel()

	logger := auditlog.New(store, zapLog, auditlog.Config{
		Auth:  "all",
		Admin: "all",
	})

	logger.Log(ctx, models.LogEntry{
		Category: models.LogCategoryAuth,
		Action:   logstore.ActionLoginSuccess,
		Actor:    "admin@example.com",
		Success:  true,
	})

	// Verify entry was logged to DB
	entries, err := store.Query(ctx, logstore.QueryFilter{Category: models.LogCategoryAuth})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("expected 1 entry, got %d", len(entries))
	}
}

func TestLogger_LoginSuccess(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := logstore.New(db)
	zapLog := zap.NewNop()
	ctx, cancel := testutil.TestContext()
	defer cancel()

	logger := auditlog.New(store, zapLog, auditlog.Config{
		Auth: "db",
	})

	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "192.168.1.1:12345"
	req.Header.Set("User-Agent", "TestBrowser/1.0")

	logger.LoginSuccess(ctx, req, "chief@townhall.gov")

	entries, err := store.Query(ctx, logstore.QueryFilter{Action: logstore.ActionLoginSuccess})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}

	entry := entries[0]
	if entry.Actor != "chief@townhall.gov" {
		t.Errorf("Actor: got %q, want %q", entry.Actor, "chief@townhall.gov")
	}
	if !entry.Success {
		t.Error("expected Success to be true")
	}
}

func TestLogger_LoginFailedAdminNotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := logstore.New(db)
	zapLog := zap.NewNop()
	ctx, cancel := testutil.TestContext()
	defer cancel()

	logger := auditlog.New(store, zapLog, auditlog.Config{
		Auth: "db",
	})

	req := httptest.NewRequest("GET", "/", nil)
	logger.LoginFailedAdminNotFound(ctx, req, "unknown@example.com")

	entries, err := store.Query(ctx, logstore.QueryFilter{Category: models.LogCategoryAuth})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}

	entry := entries[0]
	if entry.Action != logstore.ActionLoginFailedNoAdmin {
		t.Errorf("Action: got %q, want %q", entry.Action, logstore.ActionLoginFailedNoAdmin)
	}
	if entry.Success {
		t.Error("expected Success to be false")
	}
	if entry.Detail["reason"] != "admin not found" {
		t.Errorf("reason: got %q, want %q", entry.Detail["reason"], "admin not found")
	}
}

func TestLogger_Logout(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := logstore.New(db)
	zapLog := zap.NewNop()
	ctx, cancel := testutil.TestContext()
	defer cancel()

	logger := auditlog.New(store, zapLog, auditlog.Config{
		Auth: "db",
	})

	req := httptest.NewRequest("GET", "/", nil)
	logger.Logout(ctx, req, "chief@townhall.gov")

	entries, err := store.Query(ctx, logstore.QueryFilter{Action: logstore.ActionLogout})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].Actor != "chief@townhall.gov" {
		t.Errorf("Actor: got %q, want %q", entries[0].Actor, "chief@townhall.gov")
	}
}

func TestLogger_OrgCreated(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := logstore.New(db)
	zapLog := zap.NewNop()
	ctx, cancel := testutil.TestContext()
	defer cancel()

	orgID := primitive.NewObjectID()
	logger := auditlog.New(store, zapLog, auditlog.Config{
		Admin: "db",
	})

	req := httptest.NewRequest("GET", "/", nil)
	logger.OrgCreated(ctx, req, "chief@townhall.gov", orgID, "City of Ferndale")

	entries, err := store.Query(ctx, logstore.QueryFilter{OrganizationID: &orgID})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}

	entry := entries[0]
	if entry.Action != logstore.ActionOrgCreated {
		t.Errorf("Action: got %q, want %q", entry.Action, logstore.ActionOrgCreated)
	}
	if entry.Actor != "chief@townhall.gov" {
		t.Errorf("Actor: got %q, want %q", entry.Actor, "chief@townhall.gov")
	}
	if entry.Detail["org_name"] != "City of Ferndale" {
		t.Errorf("org_name: got %q, want %q", entry.Detail["org_name"], "City of Ferndale")
	}
}

func TestLogger_AuthCategoryFilteredByConfig(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := logstore.New(db)
	zapLog := zap.NewNop()
	ctx, cancel := testutil.TestContext()
	defer cancel()

	// Auth = off, Admin = db
	logger := auditlog.New(store, zapLog, auditlog.Config{
		Auth:  "off",
		Admin: "db",
	})

	req := httptest.NewRequest("GET", "/", nil)

	// Auth event should be skipped
	logger.LoginSuccess(ctx, req, "chief@townhall.gov")

	// Admin event should be logged
	orgID := primitive.NewObjectID()
	logger.OrgCreated(ctx, req, "chief@townhall.gov", orgID, "City of Ferndale")

	authEntries, _ := store.Query(ctx, logstore.QueryFilter{Category: models.LogCategoryAuth})
	if len(authEntries) != 0 {
		t.Error("expected no auth entries when auth config is 'off'")
	}

	adminEntries, _ := store.Query(ctx, logstore.QueryFilter{Category: models.LogCategoryAdmin})
	if len(adminEntries) != 1 {
		t.Errorf("expected 1 admin entry, got %d", len(adminEntries))
	}
}

func TestClientIP_XForwardedFor(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := logstore.New(db)
	zapLog := zap.NewNop()
	ctx, cancel := testutil.TestContext()
	defer cancel()

	logger := auditlog.New(store, zapLog, auditlog.Config{
		Auth: "db",
	})

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.195")
	req.Header.Set("X-Real-IP", "192.168.1.1")
	req.RemoteAddr = "127.0.0.1:12345"

	logger.LoginSuccess(ctx, req, "chief@townhall.gov")

	entries, _ := store.Query(ctx, logstore.QueryFilter{})
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}

	// X-Forwarded-For should take precedence
	if entries[0].IP != "203.0.113.195" {
		t.Errorf("IP: got %q, want %q", entries[0].IP, "203.0.113.195")
	}
}

func TestClientIP_XRealIP(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := logstore.New(db)
	zapLog := zap.NewNop()
	ctx, cancel := testutil.TestContext()
	defer cancel()

	logger := auditlog.New(store, zapLog, auditlog.Config{
		Auth: "db",
	})

	req := httptest.NewRequest("GET", "/", nil)
	// No X-Forwarded-For
	req.Header.Set("X-Real-IP", "192.168.1.100")
	req.RemoteAddr = "127.0.0.1:12345"

	logger.LoginSuccess(ctx, req, "chief@townhall.gov")

	entries, _ := store.Query(ctx, logstore.QueryFilter{})
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}

	// X-Real-IP should be used when no X-Forwarded-For
	if entries[0].IP != "192.168.1.100" {
		t.Errorf("IP: got %q, want %q", entries[0].IP, "192.168.1.100")
	}
}

func TestClientIP_RemoteAddr(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := logstore.New(db)
	zapLog := zap.NewNop()
	ctx, cancel := testutil.TestContext()
	defer cancel()

	logger := auditlog.New(store, zapLog, auditlog.Config{
		Auth: "db",
	})

	req := httptest.NewRequest("GET", "/", nil)
	// No proxy headers
	req.RemoteAddr = "10.0.0.5:12345"

	logger.LoginSuccess(ctx, req, "chief@townhall.gov")

	entries, _ := store.Query(ctx, logstore.QueryFilter{})
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}

	// Should fall back to RemoteAddr (port stripped)
	if entries[0].IP != "10.0.0.5" {
		t.Errorf("IP: got %q, want %q", entries[0].IP, "10.0.0.5")
	}
}
