// Package genai is a thin adapter over a hosted text-generation endpoint.
// The model is an untrusted text source: responses are size-capped, parsed,
// and clamped before use, and every caller has a non-AI fallback path.
package genai

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
)

var jsonCodec = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	defaultTimeout   = 45 * time.Second
	maxResponseBytes = 2 << 20
	maxSuggestions   = 6
)

// LayerField is one field from an ArcGIS layer definition.
type LayerField struct {
	Name  string `json:"name"`
	Alias string `json:"alias,omitempty"`
	Type  string `json:"type,omitempty"`
}

// FieldSuggestion ranks one field for display in an email digest.
type FieldSuggestion struct {
	Name   string `json:"name"`
	Reason string `json:"reason,omitempty"`
}

// Client calls the generation endpoint. A zero-configured client is valid
// and simply reports Enabled() == false.
type Client struct {
	http     *http.Client
	endpoint string
	apiKey   string
	logger   *zap.Logger
}

// New builds a client for the given endpoint URL and API key. Either may
// be empty, which disables remote calls.
func New(logger *zap.Logger, endpoint, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		http:     &http.Client{Timeout: timeout},
		endpoint: endpoint,
		apiKey:   apiKey,
		logger:   logger,
	}
}

// Enabled reports whether the client is configured to make remote calls.
func (c *Client) Enabled() bool {
	return c.endpoint != "" && c.apiKey != ""
}

// Complete sends a prompt and returns the first candidate's text.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	if !c.Enabled() {
		return "", fmt.Errorf("generation endpoint not configured")
	}

	payload := map[string]any{
		"contents": []any{
			map[string]any{
				"parts": []any{map[string]any{"text": prompt}},
			},
		},
		"generationConfig": map[string]any{
			"temperature":     0.2,
			"maxOutputTokens": 1024,
		},
	}
	body, err := jsonCodec.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	endpoint, err := url.Parse(c.endpoint)
	if err != nil {
		return "", fmt.Errorf("parse endpoint: %w", err)
	}
	q := endpoint.Query()
	q.Set("key", c.apiKey)
	endpoint.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), strings.NewReader(string(body)))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("HTTP %d from generation endpoint", resp.StatusCode)
	}

	var parsed struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := jsonCodec.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("empty completion")
	}

	text := parsed.Candidates[0].Content.Parts[0].Text
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("empty completion")
	}
	return text, nil
}

// ExtractJSON pulls the first top-level JSON object or array out of model
// output, tolerating markdown fences and surrounding prose.
func ExtractJSON(text string) ([]byte, error) {
	s := strings.TrimSpace(text)

	// Drop ``` fences, with or without a language tag.
	if strings.HasPrefix(s, "```") {
		s = s[3:]
		if i := strings.IndexByte(s, '\n'); i >= 0 {
			s = s[i+1:]
		}
		if i := strings.LastIndex(s, "```"); i >= 0 {
			s = s[:i]
		}
		s = strings.TrimSpace(s)
	}

	start := strings.IndexAny(s, "[{")
	if start < 0 {
		return nil, fmt.Errorf("no JSON value in output")
	}

	end, err := matchBracket(s, start)
	if err != nil {
		return nil, err
	}

	candidate := s[start : end+1]
	var probe any
	if err := jsonCodec.Unmarshal([]byte(candidate), &probe); err != nil {
		return nil, fmt.Errorf("invalid JSON in output: %w", err)
	}
	return []byte(candidate), nil
}

// matchBracket returns the index of the bracket closing s[start],
// skipping brackets inside string literals.
func matchBracket(s string, start int) (int, error) {
	open := s[start]
	var closer byte = '}'
	if open == '[' {
		closer = ']'
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		ch := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case open:
			depth++
		case closer:
			depth--
			if depth == 0 {
				return i, nil
			}
		}
	}
	return 0, fmt.Errorf("unterminated JSON value in output")
}

// SuggestFields asks the model to rank layer fields for an email digest.
// Any failure, including a disabled client, degrades to the local
// heuristic ranking so the endpoint never errors on model trouble.
func (c *Client) SuggestFields(ctx context.Context, layerName string, fields []LayerField) ([]FieldSuggestion, error) {
	if len(fields) == 0 {
		return nil, nil
	}
	if !c.Enabled() {
		return HeuristicSuggestions(fields), nil
	}

	text, err := c.Complete(ctx, suggestionPrompt(layerName, fields))
	if err != nil {
		c.logger.Warn("field suggestion fell back to heuristic", zap.Error(err))
		return HeuristicSuggestions(fields), nil
	}

	raw, err := ExtractJSON(text)
	if err != nil {
		c.logger.Warn("field suggestion output unreadable", zap.Error(err))
		return HeuristicSuggestions(fields), nil
	}

	var suggested []FieldSuggestion
	if err := jsonCodec.Unmarshal(raw, &suggested); err != nil {
		c.logger.Warn("field suggestion output unreadable", zap.Error(err))
		return HeuristicSuggestions(fields), nil
	}

	valid := filterToKnownFields(suggested, fields)
	if len(valid) == 0 {
		return HeuristicSuggestions(fields), nil
	}
	return valid, nil
}

func suggestionPrompt(layerName string, fields []LayerField) string {
	var b strings.Builder
	b.WriteString("You choose which fields of a GIS layer belong in an email digest table for residents.\n")
	fmt.Fprintf(&b, "Layer: %s\nFields:\n", layerName)
	for _, f := range fields {
		fmt.Fprintf(&b, "- %s", f.Name)
		if f.Alias != "" && !strings.EqualFold(f.Alias, f.Name) {
			fmt.Fprintf(&b, " (alias %q)", f.Alias)
		}
		if f.Type != "" {
			fmt.Fprintf(&b, " [%s]", f.Type)
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "Reply with only a JSON array of at most %d objects, best first, shaped like "+
		`[{"name":"FIELD","reason":"short reason"}]. Use only field names from the list.`, maxSuggestions)
	return b.String()
}

// filterToKnownFields keeps suggestions whose name matches an actual
// layer field (case-insensitive), canonicalized and deduplicated.
func filterToKnownFields(suggested []FieldSuggestion, fields []LayerField) []FieldSuggestion {
	byLower := make(map[string]string, len(fields))
	for _, f := range fields {
		byLower[strings.ToLower(f.Name)] = f.Name
	}

	seen := make(map[string]bool)
	var out []FieldSuggestion
	for _, s := range suggested {
		canonical, ok := byLower[strings.ToLower(strings.TrimSpace(s.Name))]
		if !ok || seen[canonical] {
			continue
		}
		seen[canonical] = true
		out = append(out, FieldSuggestion{Name: canonical, Reason: strings.TrimSpace(s.Reason)})
		if len(out) == maxSuggestions {
			break
		}
	}
	return out
}
