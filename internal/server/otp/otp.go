// Package otp implements the one-time-password challenge manager used by
// the password-reset and role-upgrade flows. Codes are 6-digit numerics;
// only their SHA-256 digest is ever persisted.
package otp

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/inkstone/identity/internal/common"
	"github.com/inkstone/identity/internal/dbx"
	"github.com/inkstone/identity/internal/server/repositories/repomanager"
)

const (
	codeMin = 100000
	codeMax = 999999
)

// Manager generates, stores, and verifies single-use numeric challenges.
// Persistence is delegated to the otpchallenges repository; the one-row-
// per-identity unique key means a new challenge always supersedes the old
// one, whichever flow issued it.
type Manager struct {
	db       dbx.DBTX
	rm       repomanager.RepositoryManager
	validity time.Duration
	now      func() time.Time
}

// NewManager constructs a Manager issuing challenges valid for validity.
func NewManager(db dbx.DBTX, rm repomanager.RepositoryManager, validity time.Duration) *Manager {
	return &Manager{db: db, rm: rm, validity: validity, now: time.Now}
}

// IssueChallenge generates a fresh code for the identity and upserts its
// digest with a new expiry, resetting the consumed flag. The plaintext code
// is returned to the caller for delivery only and is never stored.
func (m *Manager) IssueChallenge(ctx context.Context, userID string) (string, error) {
	code, err := generateCode()
	if err != nil {
		return "", fmt.Errorf("error generating otp: %w", err)
	}

	repo := m.rm.OtpChallenges(m.db)
	if err := repo.Upsert(ctx, userID, hashCode(code), m.now().Add(m.validity)); err != nil {
		return "", fmt.Errorf("error storing otp challenge: %w", err)
	}

	return code, nil
}

// VerifyChallenge checks the submitted code against the identity's pending
// challenge and consumes it on success. Failure modes are distinct:
// common.ErrorNotFound when no unconsumed challenge exists (a replayed
// verify, or a concurrent verify that consumed the row first),
// common.ErrOtpExpired past the validity window, and
// common.ErrOtpMismatch for a wrong code. Expiry is checked before
// equality; an expired challenge is never valid even if the code matches.
func (m *Manager) VerifyChallenge(ctx context.Context, userID string, submittedCode string) error {
	repo := m.rm.OtpChallenges(m.db)

	challenge, err := repo.FindActive(ctx, userID)
	if err != nil {
		return err
	}

	if challenge.ExpiresAt.Before(m.now()) {
		return common.ErrOtpExpired
	}

	if subtle.ConstantTimeCompare([]byte(hashCode(submittedCode)), []byte(challenge.HashOtp)) != 1 {
		return common.ErrOtpMismatch
	}

	// the conditional write is the single-use tie-break: of two racing
	// verifies of the same code, only one consumes the row
	if err := repo.MarkConsumed(ctx, userID); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrorNotFound
		}
		return fmt.Errorf("error consuming otp challenge: %w", err)
	}

	return nil
}

func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(codeMax-codeMin+1))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+codeMin), nil
}

func hashCode(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}
