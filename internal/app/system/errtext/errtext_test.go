package errtext

import (
	"errors"
	"strings"
	"testing"
)

func TestFriendly(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		wantPart string
	}{
		{"network", "TypeError: Failed to fetch", "Couldn't connect"},
		{"cors", "blocked by CORS policy", "Couldn't connect"},
		{"dial", "dial tcp 10.0.0.5:443: connection refused", "Couldn't connect"},
		{"401 status", "HTTP 401: token required", "Access denied"},
		{"unauthorized word", "Unauthorized request", "Access denied"},
		{"invalid credentials", "Invalid username or password.", "Access denied"},
		{"403", "status 403 Forbidden", "don't have permission"},
		{"404", "requested resource not found (404)", "could not be found"},
		{"500", "500 Internal Server Error", "server error"},
		{"timeout", "context deadline exceeded", "timed out"},
		{"timed out text", "request timed out after 30s", "timed out"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Friendly(tt.raw)
			if !strings.Contains(got, tt.wantPart) {
				t.Errorf("Friendly(%q) = %q, want substring %q", tt.raw, got, tt.wantPart)
			}
			if got == tt.raw {
				t.Errorf("Friendly(%q) passed raw text through, want translation", tt.raw)
			}
		})
	}
}

func TestFriendlyPassthrough(t *testing.T) {
	raw := "field OBJECTID does not accept null values"
	if got := Friendly(raw); got != raw {
		t.Errorf("Friendly(%q) = %q, want unchanged", raw, got)
	}
	if got := Friendly(""); got != "" {
		t.Errorf("Friendly(\"\") = %q, want empty", got)
	}
}

func TestFriendlyFirstMatchWins(t *testing.T) {
	// Mixed signals: the auth rule outranks the server-error rule.
	got := Friendly("500 response body: {\"error\": \"unauthorized\"}")
	if !strings.Contains(got, "Access denied") {
		t.Errorf("Friendly mixed = %q, want access-denied message", got)
	}
}

func TestFriendlyErr(t *testing.T) {
	if got := FriendlyErr(nil); got != "" {
		t.Errorf("FriendlyErr(nil) = %q, want empty", got)
	}
	if got := FriendlyErr(errors.New("connection refused")); !strings.Contains(got, "Couldn't connect") {
		t.Errorf("FriendlyErr = %q", got)
	}
}
