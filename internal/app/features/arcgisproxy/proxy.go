// internal/app/features/arcgisproxy/proxy.go
package arcgisproxy

import (
	"net/http"
	"strings"

	"github.com/civicatlas/notifyhub/internal/app/system/arcgis"
	"github.com/civicatlas/notifyhub/internal/app/system/errtext"
	"github.com/civicatlas/notifyhub/internal/app/system/httpjson"
	"github.com/civicatlas/notifyhub/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// proxyRequest is the shared request body. serviceUrl and url are
// aliases; the editor sends whichever reads better for the operation.
type proxyRequest struct {
	ServiceURL string `json:"serviceUrl"`
	URL        string `json:"url"`
	Username   string `json:"username"`
	Password   string `json:"password"`
	Token      string `json:"token"`

	// Query narrowing, used by /query only.
	Where             string `json:"where"`
	OutFields         string `json:"outFields"`
	ReturnCountOnly   bool   `json:"returnCountOnly"`
	ResultRecordCount int    `json:"resultRecordCount"`
}

func (p *proxyRequest) target() string {
	if u := strings.TrimSpace(p.ServiceURL); u != "" {
		return u
	}
	return strings.TrimSpace(p.URL)
}

func (p *proxyRequest) creds() arcgis.Credentials {
	return arcgis.Credentials{
		Username: p.Username,
		Password: p.Password,
		Token:    p.Token,
	}
}

// decodeTarget reads the body and insists on a target URL. Returns
// ok=false after writing the error response.
func (h *Handler) decodeTarget(w http.ResponseWriter, r *http.Request) (proxyRequest, bool) {
	var req proxyRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid request body")
		return req, false
	}
	if req.target() == "" {
		httpjson.Error(w, http.StatusUnprocessableEntity, "serviceUrl is required")
		return req, false
	}
	return req, true
}

// respondUpstream writes the raw ArcGIS JSON through, or the friendly
// error text with 502 when the upstream call failed.
func (h *Handler) respondUpstream(w http.ResponseWriter, body []byte, err error, op, target string) {
	if err != nil {
		h.Log.Warn("arcgis "+op+" failed", zap.Error(err), zap.String("url", target))
		httpjson.Error(w, http.StatusBadGateway, errtext.FriendlyErr(err))
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// HandleMetadata serves POST /api/arcgis/metadata: <serviceUrl>?f=json.
func (h *Handler) HandleMetadata(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeTarget(w, r)
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Upstream(), h.Log, "arcgis metadata")
	defer cancel()

	body, err := h.Client.Metadata(ctx, req.target(), req.creds())
	h.respondUpstream(w, body, err, "metadata", req.target())
}

// HandleQuery serves POST /api/arcgis/query: <serviceUrl>/query with the
// given where clause and outFields.
func (h *Handler) HandleQuery(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeTarget(w, r)
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Upstream(), h.Log, "arcgis query")
	defer cancel()

	body, err := h.Client.Query(ctx, req.target(), req.creds(), arcgis.QueryParams{
		Where:             req.Where,
		OutFields:         req.OutFields,
		ReturnCountOnly:   req.ReturnCountOnly,
		ResultRecordCount: req.ResultRecordCount,
	})
	h.respondUpstream(w, body, err, "query", req.target())
}

// HandleProxy serves POST /api/arcgis/proxy: an arbitrary ArcGIS URL
// fetched with token injection.
func (h *Handler) HandleProxy(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeTarget(w, r)
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Upstream(), h.Log, "arcgis proxy")
	defer cancel()

	body, err := h.Client.Proxy(ctx, req.target(), req.creds())
	h.respondUpstream(w, body, err, "proxy", req.target())
}

// HandleToken serves POST /api/arcgis/token, minting (or reusing) a
// token for the server hosting serviceUrl.
func (h *Handler) HandleToken(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeTarget(w, r)
	if !ok {
		return
	}
	if req.Username == "" || req.Password == "" {
		httpjson.Error(w, http.StatusUnprocessableEntity, "username and password are required")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Upstream(), h.Log, "arcgis token")
	defer cancel()

	token, err := h.Client.GenerateToken(ctx, req.target(), req.Username, req.Password)
	if err != nil {
		h.Log.Warn("arcgis token failed", zap.Error(err), zap.String("url", req.target()))
		httpjson.Error(w, http.StatusBadGateway, errtext.FriendlyErr(err))
		return
	}

	httpjson.Respond(w, http.StatusOK, map[string]string{"token": token})
}

// HandleJSON serves POST /api/arcgis/json: a raw unauthenticated JSON
// fetch, used to harvest pasted layer definitions.
func (h *Handler) HandleJSON(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeTarget(w, r)
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Upstream(), h.Log, "arcgis json")
	defer cancel()

	body, err := h.Client.FetchJSON(ctx, req.target())
	h.respondUpstream(w, body, err, "json", req.target())
}
