// Package common defines shared constants and sentinel errors used across
// the server and client layers of gophauth. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrValidation     = errors.New("validation error")

	// Credential errors.
	ErrUnknownUser      = errors.New("unknown user")
	ErrBadCredentials   = errors.New("bad credentials")
	ErrUsernameTaken    = errors.New("username already registered")
	ErrPasswordMismatch = errors.New("password confirmation does not match")

	// Auth errors (missing, malformed or forged token).
	ErrMissingAuthHeader = errors.New("missing or malformed authorization header")
	ErrInvalidToken      = errors.New("invalid token")
	ErrSubjectMismatch   = errors.New("token subject mismatch")

	// Token lifecycle errors.
	ErrTokenExpired = errors.New("token expired")
	ErrTokenRevoked = errors.New("token revoked")
)
