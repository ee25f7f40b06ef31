package arcgisproxy_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/civicatlas/notifyhub/internal/app/features/arcgisproxy"
	"github.com/civicatlas/notifyhub/internal/app/system/arcgis"
	"github.com/civicatlas/notifyhub/internal/testutil"
	"go.uber.org/zap"
)

func newTestHandler() *arcgisproxy.Handler {
	client := arcgis.New(zap.NewNop(), arcgis.NewMemoryTokenCache(), 0)
	return arcgisproxy.NewHandler(client, zap.NewNop())
}

func TestHandleMetadata_Passthrough(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("f") != "json" {
			t.Errorf("expected f=json, got query %q", r.URL.RawQuery)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"name":"Permits","fields":[{"name":"STATUS"}]}`))
	}))
	defer upstream.Close()

	h := newTestHandler()
	req := testutil.NewJSONRequest("POST", "/api/arcgis/metadata",
		`{"serviceUrl": "`+upstream.URL+`/FeatureServer/0"}`)
	req = testutil.WithAdmin(req, testutil.AdminSession())
	rec := httptest.NewRecorder()

	h.HandleMetadata(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"Permits"`) {
		t.Errorf("upstream body should pass through, got %s", rec.Body.String())
	}
}

func TestHandleMetadata_MissingURL(t *testing.T) {
	h := newTestHandler()
	req := testutil.NewJSONRequest("POST", "/api/arcgis/metadata", `{}`)
	req = testutil.WithAdmin(req, testutil.AdminSession())
	rec := httptest.NewRecorder()

	h.HandleMetadata(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected status %d, got %d: %s", http.StatusUnprocessableEntity, rec.Code, rec.Body.String())
	}
}

func TestHandleQuery_ForwardsWhere(t *testing.T) {
	var gotWhere, gotOutFields string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/query") {
			t.Errorf("expected /query path, got %q", r.URL.Path)
		}
		_ = r.ParseForm()
		gotWhere = r.Form.Get("where")
		gotOutFields = r.Form.Get("outFields")
		_, _ = w.Write([]byte(`{"features":[]}`))
	}))
	defer upstream.Close()

	h := newTestHandler()
	req := testutil.NewJSONRequest("POST", "/api/arcgis/query",
		`{"serviceUrl": "`+upstream.URL+`/FeatureServer/0", "where": "STATUS = 'Active'", "outFields": "STATUS,NAME"}`)
	req = testutil.WithAdmin(req, testutil.AdminSession())
	rec := httptest.NewRecorder()

	h.HandleQuery(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}
	if gotWhere != "STATUS = 'Active'" {
		t.Errorf("where: got %q", gotWhere)
	}
	if gotOutFields != "STATUS,NAME" {
		t.Errorf("outFields: got %q", gotOutFields)
	}
}

func TestHandleQuery_ArcGISLevelError(t *testing.T) {
	// ArcGIS reports auth failures inside a 200 body; the proxy must
	// still surface them as upstream failures.
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error":{"code":499,"message":"Token Required"}}`))
	}))
	defer upstream.Close()

	h := newTestHandler()
	req := testutil.NewJSONRequest("POST", "/api/arcgis/query",
		`{"serviceUrl": "`+upstream.URL+`/FeatureServer/0"}`)
	req = testutil.WithAdmin(req, testutil.AdminSession())
	rec := httptest.NewRecorder()

	h.HandleQuery(rec, req)

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected status %d, got %d: %s", http.StatusBadGateway, rec.Code, rec.Body.String())
	}
	var resp struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if !strings.Contains(resp.Error, "username and password") {
		t.Errorf("expected the friendly auth message, got %q", resp.Error)
	}
}

func TestHandleToken(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "generateToken") {
			t.Errorf("expected generateToken path, got %q", r.URL.Path)
		}
		_ = r.ParseForm()
		if r.Form.Get("username") != "gis-admin" {
			t.Errorf("username: got %q", r.Form.Get("username"))
		}
		_, _ = w.Write([]byte(`{"token":"abc123","expires":1700000000000}`))
	}))
	defer upstream.Close()

	h := newTestHandler()
	req := testutil.NewJSONRequest("POST", "/api/arcgis/token",
		`{"serviceUrl": "`+upstream.URL+`/arcgis/rest/services/Permits/FeatureServer", "username": "gis-admin", "password": "secret"}`)
	req = testutil.WithAdmin(req, testutil.AdminSession())
	rec := httptest.NewRecorder()

	h.HandleToken(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}
	var resp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if resp.Token != "abc123" {
		t.Errorf("token: got %q", resp.Token)
	}
}

func TestHandleToken_MissingCredentials(t *testing.T) {
	h := newTestHandler()
	req := testutil.NewJSONRequest("POST", "/api/arcgis/token",
		`{"serviceUrl": "https://gis.example.com/FeatureServer"}`)
	req = testutil.WithAdmin(req, testutil.AdminSession())
	rec := httptest.NewRecorder()

	h.HandleToken(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected status %d, got %d: %s", http.StatusUnprocessableEntity, rec.Code, rec.Body.String())
	}
}

func TestHandleJSON_RejectsNonJSON(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>not json</html>`))
	}))
	defer upstream.Close()

	h := newTestHandler()
	req := testutil.NewJSONRequest("POST", "/api/arcgis/json",
		`{"url": "`+upstream.URL+`/layer.json"}`)
	req = testutil.WithAdmin(req, testutil.AdminSession())
	rec := httptest.NewRecorder()

	h.HandleJSON(rec, req)

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected status %d, got %d: %s", http.StatusBadGateway, rec.Code, rec.Body.String())
	}
}
