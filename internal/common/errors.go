// Package common defines shared constants and sentinel errors used across
// the identity service. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Input validation.
	ErrorValidation = errors.New("validation error")

	// Credential checks. Deliberately generic so callers cannot tell
	// which field was wrong.
	ErrorInvalidCredential = errors.New("invalid credentials")

	// Token lifecycle errors. Expired and invalid are distinct so clients
	// can choose between a silent refresh and a forced re-login.
	ErrTokenExpired = errors.New("token expired")
	ErrInvalidToken = errors.New("invalid token")

	// OTP challenge errors.
	ErrOtpExpired  = errors.New("otp expired")
	ErrOtpMismatch = errors.New("otp is incorrect")

	// Authorization errors.
	ErrorForbidden = errors.New("forbidden")

	// Service-level errors.
	ErrorPersistence  = errors.New("persistence error")
	ErrorNotification = errors.New("notification delivery error")
	ErrorInternal     = errors.New("internal error")
)
