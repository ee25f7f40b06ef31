// Package arcgis talks to ArcGIS REST endpoints on behalf of the admin
// console: service metadata, feature queries, raw passthrough fetches, and
// token generation with caching.
//
// Responses pass through as raw JSON. ArcGIS reports most failures as an
// {"error": {...}} body under HTTP 200; those are detected here and
// returned as errors so callers can translate them for the admin. Nothing
// retries automatically.
package arcgis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
)

var jsonCodec = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	defaultTimeout   = 30 * time.Second
	maxResponseBytes = 8 << 20

	// Tokens are minted for 60 minutes and cached slightly shorter so a
	// cached token is never handed out already expired.
	tokenLifetimeMinutes = 60
	tokenCacheTTL        = 55 * time.Minute
)

// Credentials selects how a request authenticates: an explicit token wins,
// then username/password (minting a token), then anonymous.
type Credentials struct {
	Username string
	Password string
	Token    string
}

// QueryParams narrows a feature query.
type QueryParams struct {
	Where             string
	OutFields         string
	ReturnCountOnly   bool
	ResultRecordCount int
}

// Client is the ArcGIS REST client. Safe for concurrent use.
type Client struct {
	http   *http.Client
	tokens TokenCache
	logger *zap.Logger
}

// New builds a client. cache may be nil, which disables token caching.
func New(logger *zap.Logger, cache TokenCache, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if cache == nil {
		cache = noopTokenCache{}
	}
	return &Client{
		http:   &http.Client{Timeout: timeout},
		tokens: cache,
		logger: logger,
	}
}

// Metadata fetches <serviceURL>?f=json.
func (c *Client) Metadata(ctx context.Context, serviceURL string, creds Credentials) ([]byte, error) {
	token, err := c.resolveToken(ctx, serviceURL, creds)
	if err != nil {
		return nil, err
	}
	return c.get(ctx, serviceURL, url.Values{"f": {"json"}}, token)
}

// Query runs <serviceURL>/query. An empty where selects everything and an
// empty outFields becomes "*".
func (c *Client) Query(ctx context.Context, serviceURL string, creds Credentials, q QueryParams) ([]byte, error) {
	token, err := c.resolveToken(ctx, serviceURL, creds)
	if err != nil {
		return nil, err
	}

	where := q.Where
	if where == "" {
		where = "1=1"
	}
	outFields := q.OutFields
	if outFields == "" {
		outFields = "*"
	}

	form := url.Values{
		"where":     {where},
		"outFields": {outFields},
		"f":         {"json"},
	}
	if q.ReturnCountOnly {
		form.Set("returnCountOnly", "true")
	}
	if q.ResultRecordCount > 0 {
		form.Set("resultRecordCount", strconv.Itoa(q.ResultRecordCount))
	}
	if token != "" {
		form.Set("token", token)
	}

	// POST keeps long where clauses out of the URL.
	endpoint := strings.TrimRight(serviceURL, "/") + "/query"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build query request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req)
}

// Proxy fetches an arbitrary ArcGIS URL, injecting a token when one is
// available. The URL's own query parameters are preserved.
func (c *Client) Proxy(ctx context.Context, rawURL string, creds Credentials) ([]byte, error) {
	token, err := c.resolveToken(ctx, rawURL, creds)
	if err != nil {
		return nil, err
	}
	return c.get(ctx, rawURL, nil, token)
}

// FetchJSON fetches a raw JSON document with no auth, used to harvest
// layer definitions the admin pastes in.
func (c *Client) FetchJSON(ctx context.Context, rawURL string) ([]byte, error) {
	body, err := c.get(ctx, rawURL, nil, "")
	if err != nil {
		return nil, err
	}
	var probe any
	if err := jsonCodec.Unmarshal(body, &probe); err != nil {
		return nil, fmt.Errorf("response is not JSON: %w", err)
	}
	return body, nil
}

// GenerateToken mints (or returns a cached) token for the server that
// hosts serviceURL.
func (c *Client) GenerateToken(ctx context.Context, serviceURL, username, password string) (string, error) {
	endpoint := TokenEndpoint(serviceURL)
	key := credentialKey(endpoint, username, password)

	if tok, ok := c.tokens.Get(ctx, key); ok {
		return tok, nil
	}

	form := url.Values{
		"username":   {username},
		"password":   {password},
		"client":     {"requestip"},
		"expiration": {strconv.Itoa(tokenLifetimeMinutes)},
		"f":          {"json"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	body, err := c.do(req)
	if err != nil {
		return "", err
	}

	var parsed struct {
		Token string `json:"token"`
	}
	if err := jsonCodec.Unmarshal(body, &parsed); err != nil || parsed.Token == "" {
		return "", fmt.Errorf("token response unreadable")
	}

	c.tokens.Set(ctx, key, parsed.Token, tokenCacheTTL)
	return parsed.Token, nil
}

// TokenEndpoint derives the generateToken URL for a service URL. ArcGIS
// Server exposes it beside the services root.
func TokenEndpoint(serviceURL string) string {
	lower := strings.ToLower(serviceURL)
	if i := strings.Index(lower, "/rest/services"); i >= 0 {
		return serviceURL[:i] + "/tokens/generateToken"
	}
	u, err := url.Parse(serviceURL)
	if err != nil || u.Host == "" {
		return serviceURL
	}
	return u.Scheme + "://" + u.Host + "/arcgis/tokens/generateToken"
}

func (c *Client) resolveToken(ctx context.Context, serviceURL string, creds Credentials) (string, error) {
	if creds.Token != "" {
		return creds.Token, nil
	}
	if creds.Username == "" {
		return "", nil
	}
	return c.GenerateToken(ctx, serviceURL, creds.Username, creds.Password)
}

func (c *Client) get(ctx context.Context, rawURL string, extra url.Values, token string) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}
	q := u.Query()
	for k, vs := range extra {
		for _, v := range vs {
			q.Set(k, v)
		}
	}
	if token != "" {
		q.Set("token", token)
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	return c.do(req)
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	// Token values never go to the log.
	c.logger.Debug("arcgis request",
		zap.String("method", req.Method),
		zap.String("host", req.URL.Host),
		zap.String("path", req.URL.Path))

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, snippet(body))
	}
	if err := arcgisLevelError(body); err != nil {
		return nil, err
	}
	return body, nil
}

// arcgisLevelError detects the {"error": {...}} body ArcGIS returns with
// HTTP 200.
func arcgisLevelError(body []byte) error {
	var probe struct {
		Error *struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := jsonCodec.Unmarshal(body, &probe); err != nil || probe.Error == nil {
		return nil
	}
	msg := probe.Error.Message
	if msg == "" {
		msg = "unknown error"
	}
	return fmt.Errorf("arcgis error %d: %s", probe.Error.Code, msg)
}

func snippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}

func credentialKey(endpoint, username, password string) string {
	sum := sha256.Sum256([]byte(endpoint + "\x00" + username + "\x00" + password))
	return hex.EncodeToString(sum[:])
}
