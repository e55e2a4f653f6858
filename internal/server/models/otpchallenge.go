package models

import "time"

// OtpChallenge is the single pending one-time-password challenge for an
// identity. Only the SHA-256 digest of the code is stored; the plaintext
// exists solely in the delivery email. Unique on UserID, so a later
// challenge always supersedes the earlier one.
type OtpChallenge struct {
	UserID    string
	HashOtp   string
	ExpiresAt time.Time
	Consumed  bool
}
