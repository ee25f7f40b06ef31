// internal/app/system/limits/limits.go
package limits

// Request body size limits for the JSON API, applied with
// http.MaxBytesReader before decoding. They prevent memory exhaustion
// from oversized requests.
const (
	// MaxJSONBodySize is the ceiling for ordinary API bodies: logins,
	// organization edits, license changes, invitations.
	MaxJSONBodySize = 1 << 20 // 1 MB

	// MaxNotificationSetSize is the ceiling for notification set saves.
	// A set carries every notification with all of its message variants,
	// so it gets more headroom than ordinary bodies.
	MaxNotificationSetSize = 2 << 20 // 2 MB

	// MaxTemplateBodySize is the ceiling for email template saves and
	// previews, which include the full HTML body.
	MaxTemplateBodySize = 1 << 20 // 1 MB
)
