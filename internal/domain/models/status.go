// internal/domain/models/status.go
package models

// Status values shared by organizations, users, and admins.
const (
	StatusActive   = "active"
	StatusDisabled = "disabled"
)
