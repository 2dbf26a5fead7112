package authx

import "time"

// User represents a person who has signed in to OpenShred with their Google
// account.
type User struct {
	// ID is the unique identifier OpenShred assigned to the user.
	ID string `json:"id"`
	// Email is the address of the user's Google account.
	Email string `json:"email"`
	// GoogleID is the identifier of the user's Google account.
	GoogleID string `json:"google_id"`
	// IsAdmin indicates whether the user may use administrative functions.
	IsAdmin bool `json:"is_admin"`
	// LastScanAt is the time of the user's most recent mailbox scan, if any.
	LastScanAt *time.Time `json:"last_scan_at,omitempty"`
	// Created is the time the user first signed in.
	Created time.Time `json:"created_at"`
	// Updated is the time the user's record last changed.
	Updated time.Time `json:"updated_at"`
}
