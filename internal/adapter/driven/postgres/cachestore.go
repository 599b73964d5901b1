// Package postgres implements the CacheStore port on PostgreSQL so several
// processes can share one cached speech credential.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ericfisherdev/speechgate/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.CacheStore = (*CacheStore)(nil)

const schema = `
	CREATE TABLE IF NOT EXISTS speechgate_cache_entries (
		key        TEXT PRIMARY KEY,
		value      TEXT NOT NULL,
		expires_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)
`

// CacheStore stores cache entries in the speechgate_cache_entries table.
type CacheStore struct {
	pool *pgxpool.Pool
}

// NewPool connects to dsn and verifies the connection.
func NewPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("create pgx pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return pool, nil
}

// NewCacheStore creates a CacheStore on pool. Call EnsureSchema once before use.
func NewCacheStore(pool *pgxpool.Pool) *CacheStore {
	return &CacheStore{pool: pool}
}

// EnsureSchema creates the cache table if it does not exist.
func (s *CacheStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create cache table: %w", err)
	}
	return nil
}

// Get returns the entry stored under key. found is false when no row exists.
func (s *CacheStore) Get(ctx context.Context, key string) (driven.CacheEntry, bool, error) {
	query := `
		SELECT value, expires_at
		FROM speechgate_cache_entries
		WHERE key = $1
	`
	var entry driven.CacheEntry
	err := s.pool.QueryRow(ctx, query, key).Scan(&entry.Value, &entry.ExpiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return driven.CacheEntry{}, false, nil
	}
	if err != nil {
		return driven.CacheEntry{}, false, fmt.Errorf("get cache entry %q: %w", key, err)
	}
	return entry, true, nil
}

// Set upserts value under key, replacing any existing entry.
func (s *CacheStore) Set(ctx context.Context, key, value string, expiresAt time.Time) error {
	query := `
		INSERT INTO speechgate_cache_entries (key, value, expires_at, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (key) DO UPDATE
		SET value = EXCLUDED.value, expires_at = EXCLUDED.expires_at, updated_at = now()
	`
	if _, err := s.pool.Exec(ctx, query, key, value, expiresAt); err != nil {
		return fmt.Errorf("set cache entry %q: %w", key, err)
	}
	return nil
}

// Delete removes the entry for key. Deleting a missing key is not an error.
func (s *CacheStore) Delete(ctx context.Context, key string) error {
	query := `DELETE FROM speechgate_cache_entries WHERE key = $1`
	if _, err := s.pool.Exec(ctx, query, key); err != nil {
		return fmt.Errorf("delete cache entry %q: %w", key, err)
	}
	return nil
}
