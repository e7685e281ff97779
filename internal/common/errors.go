// Package common defines shared constants and sentinel errors used across
// the service, repository and transport layers. Callers should use errors.Is
// to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorForbidden    = errors.New("forbidden")

	// User errors.
	ErrUserNotFound          = errors.New("user not found")
	ErrPasswordMismatch      = errors.New("password does not match")
	ErrDuplicateUserIdentity = errors.New("duplicate email or nickname")

	// Feature lifecycle errors.
	ErrFeatureNotFound      = errors.New("user feature not found")
	ErrFeatureAlreadyExists = errors.New("user feature already exists")
	ErrFeatureShapeMismatch = errors.New("user feature shape mismatch")

	// Embedding/codec errors.
	ErrUnsupportedProtocol = errors.New("unsupported protocol")
	ErrUnsupportedDType    = errors.New("unsupported dtype")
	ErrInvalidVectorLength = errors.New("invalid vector length")
	ErrEmbeddingProvider   = errors.New("embedding provider error")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")

	// Token lifecycle errors.
	ErrTokenExpired        = errors.New("token expired")
	ErrRefreshTokenExpired = errors.New("refresh token expired")
)
