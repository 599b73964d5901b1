package driven

import (
	"context"
	"errors"
	"time"
)

// ErrEncryptionKeyNotSet is returned by encrypted cache stores when
// SPEECHGATE_SECRET_KEY has not been configured.
var ErrEncryptionKeyNotSet = errors.New("encryption key not configured: set SPEECHGATE_SECRET_KEY")

// CacheEntry is a stored value with its absolute expiry.
type CacheEntry struct {
	Value     string
	ExpiresAt time.Time
}

// CacheStore defines the driven port for the credential cache medium.
// Implementations must replace entries atomically: a reader sees either the
// previous entry or the new one, never a mix.
type CacheStore interface {
	// Get returns the entry stored under key. found is false when no entry
	// exists. Expired entries may be returned; callers compare ExpiresAt.
	Get(ctx context.Context, key string) (entry CacheEntry, found bool, err error)

	// Set stores or replaces the entry under key.
	Set(ctx context.Context, key, value string, expiresAt time.Time) error

	// Delete removes the entry under key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}
