package sqlite

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/ericfisherdev/speechgate/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.CacheStore = (*CacheStore)(nil)

// expiresLayout is fixed width so expires_at compares correctly as text.
const expiresLayout = "2006-01-02T15:04:05.000000000Z"

// CacheStore is the SQLite implementation of the CacheStore port.
// Values are encrypted with AES-256-GCM before write and decrypted after read,
// since they carry bearer tokens.
type CacheStore struct {
	db  *DB
	key []byte // 32-byte AES-256 key; nil disables the store.
}

// NewCacheStore creates a CacheStore. key must be 32 bytes for AES-256-GCM,
// or nil, in which case every operation returns driven.ErrEncryptionKeyNotSet.
func NewCacheStore(db *DB, key []byte) *CacheStore {
	return &CacheStore{db: db, key: key}
}

// Set stores or replaces the entry for key.
func (s *CacheStore) Set(ctx context.Context, key, value string, expiresAt time.Time) error {
	encrypted, err := s.encrypt(value)
	if err != nil {
		return err
	}

	const query = `INSERT OR REPLACE INTO cache_entries (key, value, expires_at, updated_at) VALUES (?, ?, ?, CURRENT_TIMESTAMP)`
	_, err = s.db.Writer.ExecContext(ctx, query, key, encrypted, expiresAt.UTC().Format(expiresLayout))
	if err != nil {
		return fmt.Errorf("set cache entry %q: %w", key, err)
	}
	return nil
}

// Get retrieves the entry for key. found is false when no row exists.
func (s *CacheStore) Get(ctx context.Context, key string) (driven.CacheEntry, bool, error) {
	if s.key == nil {
		return driven.CacheEntry{}, false, driven.ErrEncryptionKeyNotSet
	}

	const query = `SELECT value, expires_at FROM cache_entries WHERE key = ?`
	var encrypted, expiresAt string
	err := s.db.Reader.QueryRowContext(ctx, query, key).Scan(&encrypted, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return driven.CacheEntry{}, false, nil
	}
	if err != nil {
		return driven.CacheEntry{}, false, fmt.Errorf("get cache entry %q: %w", key, err)
	}

	value, err := s.decrypt(encrypted)
	if err != nil {
		return driven.CacheEntry{}, false, fmt.Errorf("decrypt cache entry %q: %w", key, err)
	}

	expires, err := parseTime(expiresAt)
	if err != nil {
		return driven.CacheEntry{}, false, fmt.Errorf("parse expires_at for %q: %w", key, err)
	}

	return driven.CacheEntry{Value: value, ExpiresAt: expires}, true, nil
}

// Delete removes the entry for key.
func (s *CacheStore) Delete(ctx context.Context, key string) error {
	const query = `DELETE FROM cache_entries WHERE key = ?`
	if _, err := s.db.Writer.ExecContext(ctx, query, key); err != nil {
		return fmt.Errorf("delete cache entry %q: %w", key, err)
	}
	return nil
}

// PurgeExpired removes entries that expired before now and returns how many
// rows were deleted.
func (s *CacheStore) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	const query = `DELETE FROM cache_entries WHERE expires_at < ?`
	res, err := s.db.Writer.ExecContext(ctx, query, now.UTC().Format(expiresLayout))
	if err != nil {
		return 0, fmt.Errorf("purge expired cache entries: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("purge expired cache entries: rows affected: %w", err)
	}
	return n, nil
}

// encrypt returns base64(nonce || ciphertext || tag).
func (s *CacheStore) encrypt(plaintext string) (string, error) {
	if s.key == nil {
		return "", driven.ErrEncryptionKeyNotSet
	}

	gcm, err := s.gcm()
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("rand nonce: %w", err)
	}

	sealed := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

func (s *CacheStore) decrypt(encoded string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("base64 decode: %w", err)
	}

	gcm, err := s.gcm()
	if err != nil {
		return "", err
	}

	nonceSize := gcm.NonceSize()
	if len(data) < nonceSize {
		return "", errors.New("ciphertext too short")
	}

	nonce, ciphertext := data[:nonceSize], data[nonceSize:]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("gcm.Open: %w", err)
	}
	return string(plaintext), nil
}

func (s *CacheStore) gcm() (cipher.AEAD, error) {
	block, err := aes.NewCipher(s.key)
	if err != nil {
		return nil, fmt.Errorf("aes.NewCipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("cipher.NewGCM: %w", err)
	}
	return gcm, nil
}

// parseTime accepts both the RFC 3339 values written by Set and SQLite's
// CURRENT_TIMESTAMP layout.
func parseTime(s string) (time.Time, error) {
	formats := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02 15:04:05",
	}

	for _, format := range formats {
		if t, err := time.Parse(format, s); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("unrecognized time format: %s", s)
}
