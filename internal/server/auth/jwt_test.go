package auth

import (
	"testing"
	"time"

	"github.com/inkstone/identity/internal/common"
	"github.com/inkstone/identity/internal/server/config"
)

func newTestIssuer() *Issuer {
	cfg := &config.Config{
		AccessTokenSecret:            "access-secret",
		RefreshTokenSecret:           "refresh-secret",
		ResetTokenSecret:             "reset-secret",
		AccessTokenValidityDuration:  time.Hour,
		RefreshTokenValidityDuration: 2 * time.Hour,
		ResetTokenValidityDuration:   10 * time.Minute,
	}
	return NewIssuer(cfg)
}

func TestIssueAccess_VerifyRoundTrip(t *testing.T) {
	t.Parallel()

	i := newTestIssuer()

	tok, err := i.IssueAccess("user-123", "user", []string{"book:read", "comment:write"})
	if err != nil {
		t.Fatalf("IssueAccess error: %v", err)
	}

	claims, err := i.Verify(tok, PurposeAccess)
	if err != nil {
		t.Fatalf("Verify error: %v", err)
	}
	if claims.UserID != "user-123" {
		t.Fatalf("userID mismatch: got %q", claims.UserID)
	}
	if claims.Role != "user" {
		t.Fatalf("role mismatch: got %q", claims.Role)
	}
	if len(claims.Permissions) != 2 || claims.Permissions[0] != "book:read" {
		t.Fatalf("permissions mismatch: %v", claims.Permissions)
	}
}

func TestIssueRefresh_ReturnsExpiry(t *testing.T) {
	t.Parallel()

	i := newTestIssuer()

	tok, expiresAt, err := i.IssueRefresh("u1")
	if err != nil {
		t.Fatalf("IssueRefresh error: %v", err)
	}
	if tok == "" {
		t.Fatalf("empty refresh token")
	}
	if until := time.Until(expiresAt); until < time.Hour || until > 2*time.Hour {
		t.Fatalf("unexpected expiry window: %v", until)
	}

	claims, err := i.Verify(tok, PurposeRefresh)
	if err != nil {
		t.Fatalf("Verify error: %v", err)
	}
	if claims.UserID != "u1" {
		t.Fatalf("userID mismatch: got %q", claims.UserID)
	}
}

func TestVerify_Expired(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{
		AccessTokenSecret:           "s",
		AccessTokenValidityDuration: -1 * time.Second,
	}
	i := NewIssuer(cfg)

	tok, err := i.IssueAccess("u1", "user", nil)
	if err != nil {
		t.Fatalf("IssueAccess error: %v", err)
	}

	_, err = i.Verify(tok, PurposeAccess)
	if err != common.ErrTokenExpired {
		t.Fatalf("expected common.ErrTokenExpired, got %v", err)
	}
}

func TestVerify_CrossPurposeRejected(t *testing.T) {
	t.Parallel()

	i := newTestIssuer()

	resetTok, err := i.IssueReset("u1")
	if err != nil {
		t.Fatalf("IssueReset error: %v", err)
	}

	// a reset token must never be accepted where an access token is expected
	if _, err := i.Verify(resetTok, PurposeAccess); err != common.ErrInvalidToken {
		t.Fatalf("expected common.ErrInvalidToken, got %v", err)
	}

	refreshTok, _, err := i.IssueRefresh("u1")
	if err != nil {
		t.Fatalf("IssueRefresh error: %v", err)
	}
	if _, err := i.Verify(refreshTok, PurposeReset); err != common.ErrInvalidToken {
		t.Fatalf("expected common.ErrInvalidToken, got %v", err)
	}
}

func TestVerify_SamePurposeSameSecretStillChecked(t *testing.T) {
	t.Parallel()

	// if two purposes share a secret, the embedded purpose tag is the
	// only guard and it must still reject
	cfg := &config.Config{
		AccessTokenSecret:            "shared",
		RefreshTokenSecret:           "shared",
		AccessTokenValidityDuration:  time.Hour,
		RefreshTokenValidityDuration: time.Hour,
	}
	i := NewIssuer(cfg)

	tok, err := i.IssueAccess("u1", "user", nil)
	if err != nil {
		t.Fatalf("IssueAccess error: %v", err)
	}
	if _, err := i.Verify(tok, PurposeRefresh); err != common.ErrInvalidToken {
		t.Fatalf("expected common.ErrInvalidToken, got %v", err)
	}
}

func TestVerify_WrongSecret(t *testing.T) {
	t.Parallel()

	i := newTestIssuer()
	other := NewIssuer(&config.Config{
		AccessTokenSecret:           "different",
		AccessTokenValidityDuration: time.Hour,
	})

	tok, err := other.IssueAccess("u2", "user", nil)
	if err != nil {
		t.Fatalf("IssueAccess error: %v", err)
	}

	if _, err := i.Verify(tok, PurposeAccess); err != common.ErrInvalidToken {
		t.Fatalf("expected common.ErrInvalidToken, got %v", err)
	}
}

func TestVerify_MalformedString(t *testing.T) {
	t.Parallel()

	i := newTestIssuer()
	if _, err := i.Verify("not.a.jwt", PurposeAccess); err != common.ErrInvalidToken {
		t.Fatalf("expected common.ErrInvalidToken, got %v", err)
	}
}
