package models

import "time"

// User is a registered identity. The role is not stored on this row; it is
// resolved through the user_roles link so role changes never leave a stale
// copy behind.
type User struct {
	ID           string
	Name         string
	Email        string
	Phone        string
	PasswordHash string
	CreatedAt    time.Time
}
