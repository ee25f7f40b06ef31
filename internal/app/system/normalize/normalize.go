// Package normalize canonicalizes user-supplied strings before they reach
// validation or storage. Every handler that accepts form or JSON input runs
// the relevant field through one of these helpers so the stores can rely on
// a single representation.
package normalize

import "strings"

// Email lowercases and trims an email address. Emails are matched
// case-insensitively everywhere, so the canonical form is lowercase.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims surrounding whitespace but preserves case.
func Name(s string) string {
	return strings.TrimSpace(s)
}

// Status lowercases and trims an account status value.
func Status(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Role lowercases and trims a role value.
func Role(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// QueryParam trims a free-text query parameter, preserving case so search
// terms keep their original form.
func QueryParam(s string) string {
	return strings.TrimSpace(s)
}
