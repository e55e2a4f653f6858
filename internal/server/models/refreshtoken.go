package models

import "time"

// RefreshToken is the single live refresh token for an identity. The table
// is unique on UserID; issuing a new token overwrites the row.
type RefreshToken struct {
	UserID    string
	Token     string
	ExpiresAt time.Time
}
