// Package common defines shared constants and sentinel errors used across
// secretbin components. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")
	// ErrTokenTaken signals a share token collision on insert. The storage
	// unique constraint is the authoritative guard; callers regenerate and retry.
	ErrTokenTaken = errors.New("share token already taken")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")

	// Share lifecycle gates, reported in priority order
	// expired > used > disabled > not accessible.
	ErrShareExpired       = errors.New("share link has expired")
	ErrShareUsed          = errors.New("share link has already been used")
	ErrShareDisabled      = errors.New("share link has been disabled")
	ErrShareNotAccessible = errors.New("share link is no longer accessible")

	// ErrDecryption covers wrong-key and corrupted-blob failures. Messages
	// wrapping it must never include cipher or key material.
	ErrDecryption = errors.New("decryption failed")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")

	// Token lifecycle errors.
	ErrTokenExpired        = errors.New("token expired")
	ErrRefreshTokenExpired = errors.New("refresh token expired")
)
