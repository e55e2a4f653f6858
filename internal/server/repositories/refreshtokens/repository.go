// Package refreshtokens declares the server-side repository contract for
// the single live refresh token kept per identity.
package refreshtokens

import (
	"context"
	"time"

	"github.com/inkstone/identity/internal/server/models"
)

// Repository defines operations on the refresh-token row. The table is
// unique on user id, so Upsert is the only write path for issuance and the
// stored row always equals the last-issued token.
type Repository interface {
	// Upsert stores token as the identity's live refresh token,
	// overwriting any prior row.
	Upsert(ctx context.Context, userID string, token string, expiresAt time.Time) error

	// FindByUser returns the identity's stored refresh token row.
	// Implementations return common.ErrorNotFound when no row exists.
	FindByUser(ctx context.Context, userID string) (*models.RefreshToken, error)

	// Delete removes the row matching both user id and token string.
	// It returns common.ErrorNotFound when nothing matched, which is the
	// tie-break outcome for a concurrent rotation race.
	Delete(ctx context.Context, userID string, token string) error
}
