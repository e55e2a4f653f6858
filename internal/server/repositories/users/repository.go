// Package users declares the repository contract for identity rows.
package users

import (
	"context"

	"github.com/inkstone/identity/internal/server/models"
)

// Repository defines persistence operations for identities.
type Repository interface {
	// Create inserts a new identity. It returns common.ErrorAlreadyExists
	// when the email is already registered.
	Create(ctx context.Context, user *models.User) (*models.User, error)

	// GetByEmail returns the identity registered under email, or
	// common.ErrorNotFound.
	GetByEmail(ctx context.Context, email string) (*models.User, error)

	// GetByID returns the identity with the given id, or common.ErrorNotFound.
	GetByID(ctx context.Context, id string) (*models.User, error)

	// UpdatePassword replaces the stored password hash.
	UpdatePassword(ctx context.Context, userID string, passwordHash string) error
}
