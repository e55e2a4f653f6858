package otpchallenges

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/inkstone/identity/internal/common"
	"github.com/inkstone/identity/internal/dbx"
	"github.com/inkstone/identity/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Upsert(ctx context.Context, userID string, hashOtp string, expiresAt time.Time) error {
	query := `
		INSERT INTO otp_challenges (user_id, hash_otp, expires_at, consumed)
		VALUES ($1, $2, $3, false)
		ON CONFLICT (user_id)
		DO UPDATE SET hash_otp = excluded.hash_otp, expires_at = excluded.expires_at, consumed = false
	`
	if _, err := r.db.ExecContext(ctx, query, userID, hashOtp, expiresAt); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) FindActive(ctx context.Context, userID string) (*models.OtpChallenge, error) {
	query := `
		SELECT user_id, hash_otp, expires_at, consumed
		FROM otp_challenges
		WHERE user_id = $1 AND consumed = false
	`
	challenge := &models.OtpChallenge{}
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&challenge.UserID, &challenge.HashOtp, &challenge.ExpiresAt, &challenge.Consumed)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return challenge, nil
}

// MarkConsumed flips the challenge to consumed, conditional on it still
// being unconsumed. Zero rows affected means a concurrent verify already
// consumed it (or nothing was pending) and maps to common.ErrorNotFound.
func (r *PostgresRepository) MarkConsumed(ctx context.Context, userID string) error {
	query := `
		UPDATE otp_challenges
		SET consumed = true
		WHERE user_id = $1 AND consumed = false
	`
	res, err := r.db.ExecContext(ctx, query, userID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
