// Package services contains server-side business logic. This file implements
// IdentityService, which orchestrates registration, login, refresh rotation,
// sign-out, OTP-driven password reset, and the user→author role upgrade.
package services

import (
	"context"
	"crypto/subtle"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/inkstone/identity/internal/common"
	"github.com/inkstone/identity/internal/dbx"
	"github.com/inkstone/identity/internal/notify"
	"github.com/inkstone/identity/internal/server/auth"
	"github.com/inkstone/identity/internal/server/config"
	"github.com/inkstone/identity/internal/server/models"
	"github.com/inkstone/identity/internal/server/otp"
	"github.com/inkstone/identity/internal/server/repositories/repomanager"
)

// TokenPair bundles a short-lived access token and a long-lived refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// ResetRequestedMessage is returned by RequestPasswordReset whether or not
// the email is registered, so the response never leaks account existence.
const ResetRequestedMessage = "If the address is registered, a one-time code has been sent"

// IdentityService provides the credential lifecycle operations. Role and
// permission sets are re-derived from the store on every token issuance,
// never cached on the identity.
type IdentityService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	issuer      *auth.Issuer
	otp         *otp.Manager
	notifier    notify.Notifier

	authorUpgradeSecret string
	bcryptCost          int
}

// NewIdentityService constructs an IdentityService from its collaborators
// and server config.
func NewIdentityService(db *sql.DB, m repomanager.RepositoryManager, issuer *auth.Issuer, otpManager *otp.Manager, notifier notify.Notifier, cfg *config.Config) *IdentityService {
	cost := cfg.BcryptCost
	if cost < bcrypt.DefaultCost {
		cost = bcrypt.DefaultCost
	}
	return &IdentityService{
		db:                  db,
		repomanager:         m,
		issuer:              issuer,
		otp:                 otpManager,
		notifier:            notifier,
		authorUpgradeSecret: cfg.AuthorUpgradeSecret,
		bcryptCost:          cost,
	}
}

// Register creates a new identity with the default role and returns its
// first token pair. Duplicate emails yield common.ErrorAlreadyExists.
func (s *IdentityService) Register(ctx context.Context, name, email, phone, password string) (*TokenPair, error) {
	if name == "" || email == "" || password == "" {
		return nil, fmt.Errorf("%w: name, email and password are required", common.ErrorValidation)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, common.ErrorInternal
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		Phone:        phone,
		PasswordHash: string(hash),
	}

	var pair *TokenPair
	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := s.repomanager.Users(tx).Create(ctx, user); err != nil {
			if errors.Is(err, common.ErrorAlreadyExists) {
				return common.ErrorAlreadyExists
			}
			return fmt.Errorf("error creating user: %w", err)
		}

		rolesRepo := s.repomanager.Roles(tx)
		role, err := rolesRepo.GetByName(ctx, common.RoleUser)
		if err != nil {
			return fmt.Errorf("error loading default role: %w", err)
		}
		if err := rolesRepo.Assign(ctx, user.ID, role.ID); err != nil {
			return fmt.Errorf("error assigning default role: %w", err)
		}

		var genErr error
		pair, genErr = s.generateTokenPair(ctx, user.ID, tx)
		return genErr
	}); err != nil {
		return nil, err
	}

	return pair, nil
}

// Login verifies the email/password pair and, on success, returns a new
// token pair scoped to the identity's current role and permission set.
func (s *IdentityService) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password are required", common.ErrorValidation)
	}

	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, common.ErrorInternal
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, common.ErrorInvalidCredential
	}

	return s.generateTokenPairTx(ctx, user.ID)
}

// RefreshTokens rotates a refresh token: the presented token must verify
// with purpose "refresh" AND match the stored row exactly. The consumed row
// is deleted and a fresh pair issued inside one transaction, so replaying
// the old token always fails with common.ErrInvalidToken.
func (s *IdentityService) RefreshTokens(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.issuer.Verify(refreshToken, auth.PurposeRefresh)
	if err != nil {
		return nil, err
	}

	stored, err := s.repomanager.RefreshTokens(s.db).FindByUser(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrInvalidToken
		}
		return nil, fmt.Errorf("error searching refresh token: %w", err)
	}
	if subtle.ConstantTimeCompare([]byte(stored.Token), []byte(refreshToken)) != 1 {
		return nil, common.ErrInvalidToken
	}

	var pair *TokenPair
	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		// conditional delete is the concurrency tie-break: of two racing
		// rotations, exactly one sees the row
		if err := s.repomanager.RefreshTokens(tx).Delete(ctx, claims.UserID, refreshToken); err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.ErrInvalidToken
			}
			return fmt.Errorf("error deleting refresh token: %w", err)
		}
		var genErr error
		pair, genErr = s.generateTokenPair(ctx, claims.UserID, tx)
		return genErr
	}); err != nil {
		return nil, err
	}
	return pair, nil
}

// SignOut deletes the identity's stored refresh row. A missing row is
// reported as common.ErrorNotFound; callers may treat it as already
// signed out.
func (s *IdentityService) SignOut(ctx context.Context, userID, refreshToken string) error {
	return s.repomanager.RefreshTokens(s.db).Delete(ctx, userID, refreshToken)
}

// RequestPasswordReset issues an OTP challenge and emails it to the given
// address. An unknown email still produces the generic confirmation message
// and no further action. A delivery failure surfaces as
// common.ErrorNotification, never as a lookup failure.
func (s *IdentityService) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	if email == "" {
		return "", fmt.Errorf("%w: email is required", common.ErrorValidation)
	}

	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return ResetRequestedMessage, nil
		}
		return "", common.ErrorInternal
	}

	code, err := s.otp.IssueChallenge(ctx, user.ID)
	if err != nil {
		return "", common.ErrorInternal
	}

	if err := s.sendOtpMail(ctx, user.Email, "Your password reset code", code); err != nil {
		return "", err
	}

	return ResetRequestedMessage, nil
}

// VerifyResetOtp checks the submitted code and, on success, returns a
// short-lived reset token. The token, not the OTP, is the capability for
// the final password change.
func (s *IdentityService) VerifyResetOtp(ctx context.Context, email, code string) (string, error) {
	if email == "" || code == "" {
		return "", fmt.Errorf("%w: email and otp are required", common.ErrorValidation)
	}

	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", common.ErrorNotFound
		}
		return "", common.ErrorInternal
	}

	if err := s.otp.VerifyChallenge(ctx, user.ID, code); err != nil {
		return "", err
	}

	resetToken, err := s.issuer.IssueReset(user.ID)
	if err != nil {
		return "", common.ErrorInternal
	}
	return resetToken, nil
}

// CompletePasswordReset verifies the reset token and stores the new
// password. Any outstanding OTP state for the identity is consumed
// afterwards so a half-completed flow cannot be resumed.
func (s *IdentityService) CompletePasswordReset(ctx context.Context, resetToken, newPassword string) error {
	if newPassword == "" {
		return fmt.Errorf("%w: new password is required", common.ErrorValidation)
	}

	claims, err := s.issuer.Verify(resetToken, auth.PurposeReset)
	if err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.bcryptCost)
	if err != nil {
		return common.ErrorInternal
	}

	if err := s.repomanager.Users(s.db).UpdatePassword(ctx, claims.UserID, string(hash)); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrorNotFound
		}
		return fmt.Errorf("%w: %v", common.ErrorPersistence, err)
	}

	// nothing pending is fine here: the verify step normally consumed the
	// challenge already
	if err := s.repomanager.OtpChallenges(s.db).MarkConsumed(ctx, claims.UserID); err != nil && !errors.Is(err, common.ErrorNotFound) {
		return fmt.Errorf("%w: %v", common.ErrorPersistence, err)
	}

	return nil
}

// RequestRoleUpgrade gates the author upgrade behind the operator secret
// and, when it matches, issues an OTP challenge exactly as the reset flow
// does. The single challenge slot means an in-flight reset OTP is
// superseded.
func (s *IdentityService) RequestRoleUpgrade(ctx context.Context, userID, secretKey string) error {
	if subtle.ConstantTimeCompare([]byte(secretKey), []byte(s.authorUpgradeSecret)) != 1 {
		return common.ErrorForbidden
	}

	user, err := s.repomanager.Users(s.db).GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrorNotFound
		}
		return common.ErrorInternal
	}

	code, err := s.otp.IssueChallenge(ctx, user.ID)
	if err != nil {
		return common.ErrorInternal
	}

	return s.sendOtpMail(ctx, user.Email, "Your author upgrade code", code)
}

// CompleteRoleUpgrade verifies the OTP, reassigns the identity's role link
// to author, and returns a fresh token pair carrying the new role and
// permission set. The OTP is consumed before the role write: if the write
// then fails the error is common.ErrorPersistence and the caller must
// restart from RequestRoleUpgrade rather than replay the code.
func (s *IdentityService) CompleteRoleUpgrade(ctx context.Context, userID, code string) (*TokenPair, error) {
	if err := s.otp.VerifyChallenge(ctx, userID, code); err != nil {
		return nil, err
	}

	var pair *TokenPair
	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		rolesRepo := s.repomanager.Roles(tx)
		role, err := rolesRepo.GetByName(ctx, common.RoleAuthor)
		if err != nil {
			return err
		}
		if err := rolesRepo.Assign(ctx, userID, role.ID); err != nil {
			return err
		}

		pair, err = s.generateTokenPair(ctx, userID, tx)
		return err
	}); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorPersistence, err)
	}

	return pair, nil
}

// --- helpers below ---

func (s *IdentityService) generateTokenPairTx(ctx context.Context, userID string) (*TokenPair, error) {
	var pair *TokenPair
	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var genErr error
		pair, genErr = s.generateTokenPair(ctx, userID, tx)
		return genErr
	}); err != nil {
		return nil, err
	}
	return pair, nil
}

// generateTokenPair re-derives the identity's role and permissions, signs a
// fresh access+refresh pair, and overwrites the stored refresh row.
func (s *IdentityService) generateTokenPair(ctx context.Context, userID string, tx dbx.DBTX) (*TokenPair, error) {
	grant, err := s.repomanager.Roles(tx).ResolveForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error resolving role: %w", err)
	}

	access, err := s.issuer.IssueAccess(userID, grant.Role, grant.Permissions)
	if err != nil {
		return nil, common.ErrorInternal
	}

	refresh, expiresAt, err := s.issuer.IssueRefresh(userID)
	if err != nil {
		return nil, common.ErrorInternal
	}

	if err := s.repomanager.RefreshTokens(tx).Upsert(ctx, userID, refresh, expiresAt); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorPersistence, err)
	}

	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (s *IdentityService) sendOtpMail(ctx context.Context, email, subject, code string) error {
	body := fmt.Sprintf("Your one-time code is %s. It expires shortly; do not share it.", code)
	if err := s.notifier.Send(ctx, email, subject, body); err != nil {
		return fmt.Errorf("%w: %v", common.ErrorNotification, err)
	}
	return nil
}
