// Package auth implements the token issuer: signed, time-limited JWTs
// carrying identity, role, and permission claims plus a purpose tag.
// Signing and verification are pure; persistence of refresh tokens is the
// lifecycle service's concern.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/inkstone/identity/internal/common"
	"github.com/inkstone/identity/internal/server/config"
)

// Purpose tags a token with the single flow it is valid for. A token signed
// for one purpose never verifies for another: each purpose has its own
// secret, and Verify additionally checks the embedded tag.
type Purpose string

const (
	PurposeAccess  Purpose = "access"
	PurposeRefresh Purpose = "refresh"
	PurposeReset   Purpose = "reset"
)

// Claims are the signed assertions embedded in every token. Role and
// Permissions are only populated on access tokens.
type Claims struct {
	jwt.RegisteredClaims
	UserID      string   `json:"user_id"`
	Role        string   `json:"role,omitempty"`
	Permissions []string `json:"permissions,omitempty"`
	Purpose     Purpose  `json:"purpose"`
}

type purposeKey struct {
	secret   []byte
	validity time.Duration
}

// Issuer signs and verifies purpose-tagged tokens. It holds no mutable
// state and is safe for concurrent use.
type Issuer struct {
	keys map[Purpose]purposeKey
}

// NewIssuer builds an Issuer from the per-purpose secrets and lifetimes in cfg.
func NewIssuer(cfg *config.Config) *Issuer {
	return &Issuer{
		keys: map[Purpose]purposeKey{
			PurposeAccess:  {secret: []byte(cfg.AccessTokenSecret), validity: cfg.AccessTokenValidityDuration},
			PurposeRefresh: {secret: []byte(cfg.RefreshTokenSecret), validity: cfg.RefreshTokenValidityDuration},
			PurposeReset:   {secret: []byte(cfg.ResetTokenSecret), validity: cfg.ResetTokenValidityDuration},
		},
	}
}

// IssueAccess signs a short-lived access token embedding the identity's
// current role and permission set.
func (i *Issuer) IssueAccess(userID, role string, permissions []string) (string, error) {
	return i.sign(Claims{
		UserID:      userID,
		Role:        role,
		Permissions: permissions,
		Purpose:     PurposeAccess,
	})
}

// IssueRefresh signs a refresh token and returns it with its expiry so the
// caller can persist the row the token must match on rotation.
func (i *Issuer) IssueRefresh(userID string) (string, time.Time, error) {
	expiresAt := time.Now().Add(i.keys[PurposeRefresh].validity)
	token, err := i.sign(Claims{
		UserID:  userID,
		Purpose: PurposeRefresh,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	})
	return token, expiresAt, err
}

// IssueReset signs a password-reset token. Nothing is persisted; validity
// is proven by signature and expiry alone.
func (i *Issuer) IssueReset(userID string) (string, error) {
	return i.sign(Claims{
		UserID:  userID,
		Purpose: PurposeReset,
	})
}

func (i *Issuer) sign(claims Claims) (string, error) {
	key := i.keys[claims.Purpose]
	if claims.ExpiresAt == nil {
		claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(key.validity))
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(key.secret)
}

// Verify checks signature, expiry, and the embedded purpose tag. It returns
// common.ErrTokenExpired for a well-signed but stale token and
// common.ErrInvalidToken for everything else (bad signature, malformed
// input, purpose mismatch), so callers can branch on the two cases.
func (i *Issuer) Verify(tokenString string, expected Purpose) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return i.keys[expected].secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, common.ErrInvalidToken
	}

	if !token.Valid || claims.Purpose != expected {
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}
