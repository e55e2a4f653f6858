// Package otpchallenges declares the repository contract for the single
// pending OTP challenge kept per identity.
package otpchallenges

import (
	"context"
	"time"

	"github.com/inkstone/identity/internal/server/models"
)

// Repository defines operations on OTP challenge rows. The table is unique
// on user id: issuing a new challenge always supersedes the previous one,
// whatever flow created it.
type Repository interface {
	// Upsert stores hashOtp as the identity's pending challenge,
	// resetting consumed to false.
	Upsert(ctx context.Context, userID string, hashOtp string, expiresAt time.Time) error

	// FindActive returns the identity's unconsumed challenge, or
	// common.ErrorNotFound. Consumed rows are filtered out, which is what
	// makes a second verify of the same code fail.
	FindActive(ctx context.Context, userID string) (*models.OtpChallenge, error)

	// MarkConsumed flags the identity's pending challenge as consumed.
	// The write is conditional on consumed = false; zero matched rows
	// return common.ErrorNotFound, so of two racing consumers exactly
	// one succeeds.
	MarkConsumed(ctx context.Context, userID string) error
}
