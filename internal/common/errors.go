// Package common defines shared constants and sentinel errors used across
// client and server layers of authkeeper. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// ErrUnavailable marks a retryable store or deadline failure.
	ErrUnavailable = errors.New("store unavailable")
	// ErrVersionConflict accompanies ErrUnavailable when an optimistic
	// update kept losing to concurrent writers.
	ErrVersionConflict = errors.New("version conflict")

	// Service-level errors (generic/internal flow control).
	ErrorInternal         = errors.New("internal error")
	ErrValidation         = errors.New("validation error")
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrConfiguration is returned by constructors that refuse to start
	// with missing or malformed settings.
	ErrConfiguration = errors.New("configuration error")

	// Token errors.
	ErrInvalidToken  = errors.New("invalid token")
	ErrTokenExpired  = errors.New("token expired")
	ErrWrongAudience = errors.New("wrong token audience")

	// Verification challenge outcomes. A nil error from a verify call is
	// the only success.
	ErrChallengeNotFound = errors.New("verification challenge not found")
	ErrCodeAlreadyUsed   = errors.New("verification code already used")
	ErrCodeExpired       = errors.New("verification code expired")
	ErrAttemptsExhausted = errors.New("verification attempts exhausted")
	ErrCodeMismatch      = errors.New("verification code mismatch")
)
