package model

import (
	"strings"
	"time"
)

// Account is an authenticated user of the platform.
type Account struct {
	ID               int64
	DisplayName      string
	Email            string
	Handle           string // always stored lower-case
	CredentialSecret string // bcrypt hash
	Level            int
	ExperiencePoints int
	IsPrivileged     bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Initial progress values for new accounts
const (
	InitialLevel            = 1
	InitialExperiencePoints = 0
)

// NormalizeHandle returns the stored form of a handle
func NormalizeHandle(handle string) string {
	return strings.ToLower(strings.TrimSpace(handle))
}

// NormalizeEmail returns the form of an email used for uniqueness checks
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// DisplayNameFor builds the display name for an account linked to r
func DisplayNameFor(r *StudentRecord) string {
	return strings.TrimSpace(r.FirstName) + " " + strings.TrimSpace(r.LastName)
}
