// Package common defines shared constants and sentinel errors used across
// LocalSync components. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Engine input validation. Keys are opaque but must be non-empty.
	ErrEmptyKey = errors.New("empty key")

	// Startup misconfiguration: durable storage required but no DSN given.
	ErrNotDurable = errors.New("durable storage required but not configured")

	// Blob storage was not configured; upload/download endpoints are off.
	ErrBlobNotConfigured = errors.New("blob storage not configured")

	// Auth errors for the admin surface (invalid or malformed token).
	ErrorUnauthorized = errors.New("unauthorized")
	ErrInvalidToken   = errors.New("invalid token")
)
