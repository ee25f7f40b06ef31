package genai

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
)

func completionBody(text string) string {
	payload := map[string]any{
		"candidates": []any{
			map[string]any{
				"content": map[string]any{
					"parts": []any{map[string]any{"text": text}},
				},
			},
		},
	}
	out, _ := jsonCodec.MarshalToString(payload)
	return out
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{
			name: "bare object",
			in:   `{"a":1}`,
			want: `{"a":1}`,
		},
		{
			name: "fenced array",
			in:   "```json\n[{\"name\":\"STATUS\"}]\n```",
			want: `[{"name":"STATUS"}]`,
		},
		{
			name: "fence without language tag",
			in:   "```\n{\"a\":true}\n```",
			want: `{"a":true}`,
		},
		{
			name: "surrounding prose",
			in:   "Here are the fields:\n[1,2,3]\nHope that helps!",
			want: `[1,2,3]`,
		},
		{
			name: "brackets inside strings",
			in:   `{"a":"}{","b":"[\""}`,
			want: `{"a":"}{","b":"[\""}`,
		},
		{
			name:    "no json at all",
			in:      "I could not produce a list.",
			wantErr: true,
		},
		{
			name:    "unterminated value",
			in:      `{"a":`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractJSON(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ExtractJSON(%q) error = nil, want error", tt.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("ExtractJSON(%q) error: %v", tt.in, err)
			}
			if string(got) != tt.want {
				t.Errorf("ExtractJSON(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestHeuristicSuggestions(t *testing.T) {
	fields := []LayerField{
		{Name: "OBJECTID", Type: "esriFieldTypeOID"},
		{Name: "STATUS", Type: "esriFieldTypeString"},
		{Name: "SHAPE", Type: "esriFieldTypeGeometry"},
		{Name: "SITE_ADDRESS", Type: "esriFieldTypeString"},
		{Name: "CREATED_DATE", Type: "esriFieldTypeDate"},
		{Name: "NOTES", Type: "esriFieldTypeString"},
		{Name: "PARCEL_ID", Type: "esriFieldTypeString"},
	}

	got := HeuristicSuggestions(fields)

	if len(got) != 4 {
		t.Fatalf("HeuristicSuggestions() returned %d fields, want 4: %+v", len(got), got)
	}
	if got[0].Name != "STATUS" {
		t.Errorf("top suggestion = %q, want %q", got[0].Name, "STATUS")
	}
	for _, s := range got {
		switch s.Name {
		case "OBJECTID", "SHAPE", "PARCEL_ID":
			t.Errorf("suggestion includes %q, want it excluded", s.Name)
		}
	}
}

func TestSuggestFieldsUsesModelOutput(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("key") == "" {
			t.Error("request is missing the api key")
		}
		body, _ := io.ReadAll(r.Body)
		if !strings.Contains(string(body), "contents") {
			t.Errorf("request body = %s, want contents payload", body)
		}
		io.WriteString(w, completionBody("```json\n[{\"name\":\"status\",\"reason\":\"current state\"},{\"name\":\"bogus\"}]\n```"))
	}))
	defer srv.Close()

	c := New(zap.NewNop(), srv.URL, "test-key", 5*time.Second)
	fields := []LayerField{
		{Name: "STATUS", Type: "esriFieldTypeString"},
		{Name: "OBJECTID", Type: "esriFieldTypeOID"},
	}

	got, err := c.SuggestFields(context.Background(), "Permits", fields)
	if err != nil {
		t.Fatalf("SuggestFields() error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("SuggestFields() returned %d suggestions, want 1: %+v", len(got), got)
	}
	if got[0].Name != "STATUS" {
		t.Errorf("suggestion name = %q, want canonical %q", got[0].Name, "STATUS")
	}
	if got[0].Reason != "current state" {
		t.Errorf("suggestion reason = %q, want %q", got[0].Reason, "current state")
	}
}

func TestSuggestFieldsFallsBackOnServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New(zap.NewNop(), srv.URL, "test-key", 5*time.Second)
	fields := []LayerField{{Name: "STATUS", Type: "esriFieldTypeString"}}

	got, err := c.SuggestFields(context.Background(), "Permits", fields)
	if err != nil {
		t.Fatalf("SuggestFields() error = %v, want heuristic fallback", err)
	}
	if len(got) != 1 || got[0].Name != "STATUS" {
		t.Errorf("fallback suggestions = %+v, want STATUS", got)
	}
}

func TestSuggestFieldsDisabledClient(t *testing.T) {
	c := New(zap.NewNop(), "", "", 0)
	if c.Enabled() {
		t.Fatal("Enabled() = true for unconfigured client")
	}

	got, err := c.SuggestFields(context.Background(), "Permits",
		[]LayerField{{Name: "ADDRESS", Type: "esriFieldTypeString"}})
	if err != nil {
		t.Fatalf("SuggestFields() error: %v", err)
	}
	if len(got) != 1 || got[0].Name != "ADDRESS" {
		t.Errorf("suggestions = %+v, want heuristic ADDRESS", got)
	}
}

func TestCompleteEmptyCandidates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"candidates":[]}`)
	}))
	defer srv.Close()

	c := New(zap.NewNop(), srv.URL, "test-key", 5*time.Second)
	if _, err := c.Complete(context.Background(), "hello"); err == nil {
		t.Error("Complete() error = nil, want empty-completion error")
	}
}
