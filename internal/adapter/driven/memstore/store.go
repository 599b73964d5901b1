// Package memstore provides a process-local CacheStore backed by an
// httpcache.MemoryCache.
package memstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gregjones/httpcache"

	"github.com/ericfisherdev/speechgate/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.CacheStore = (*Store)(nil)

type entry struct {
	Value     string    `json:"value"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Store keeps cache entries in memory. Contents do not survive a restart.
type Store struct {
	cache *httpcache.MemoryCache
}

// New creates an empty Store.
func New() *Store {
	return &Store{cache: httpcache.NewMemoryCache()}
}

// Get returns the entry stored under key. Expired entries are still returned;
// the caller decides whether they are usable.
func (s *Store) Get(_ context.Context, key string) (driven.CacheEntry, bool, error) {
	raw, ok := s.cache.Get(key)
	if !ok {
		return driven.CacheEntry{}, false, nil
	}

	var e entry
	if err := json.Unmarshal(raw, &e); err != nil {
		return driven.CacheEntry{}, false, fmt.Errorf("decode cache entry %q: %w", key, err)
	}
	return driven.CacheEntry{Value: e.Value, ExpiresAt: e.ExpiresAt}, true, nil
}

// Set stores value under key, replacing any previous entry.
func (s *Store) Set(_ context.Context, key, value string, expiresAt time.Time) error {
	raw, err := json.Marshal(entry{Value: value, ExpiresAt: expiresAt})
	if err != nil {
		return fmt.Errorf("encode cache entry %q: %w", key, err)
	}
	s.cache.Set(key, raw)
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (s *Store) Delete(_ context.Context, key string) error {
	s.cache.Delete(key)
	return nil
}
