// Package cache holds the backend's short-lived state: the list of bearer
// tokens revoked by logout before their natural expiry.
package cache

import (
	"context"
	"time"
)

// RevocationList remembers revoked token ids until the tokens would have
// expired anyway.
type RevocationList interface {
	// Revoke marks a token id as revoked until the given time. Revoking an
	// already expired token is a no-op.
	Revoke(ctx context.Context, tokenID string, until time.Time) error

	// IsRevoked reports whether a token id has been revoked.
	IsRevoked(ctx context.Context, tokenID string) (bool, error)

	// Ping checks if the backing store is healthy
	Ping(ctx context.Context) error

	// Close closes the backing store
	Close() error
}

// Common errors
var (
	ErrCacheClosed = NewCacheError("cache is closed", false)
)

// CacheError represents a cache-specific error
type CacheError struct {
	Message    string
	Retryable  bool
	Underlying error
}

// NewCacheError creates a new cache error
func NewCacheError(message string, retryable bool) *CacheError {
	return &CacheError{
		Message:   message,
		Retryable: retryable,
	}
}

// Error implements the error interface
func (e *CacheError) Error() string {
	if e.Underlying != nil {
		return e.Message + ": " + e.Underlying.Error()
	}
	return e.Message
}

// Unwrap returns the underlying error
func (e *CacheError) Unwrap() error {
	return e.Underlying
}

// WithError returns a copy of the error carrying an underlying cause
func (e *CacheError) WithError(err error) *CacheError {
	cp := *e
	cp.Underlying = err
	return &cp
}

// IsRetryable returns whether the error is retryable
func (e *CacheError) IsRetryable() bool {
	return e.Retryable
}
