package sqlite

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/speechgate/internal/domain/port/driven"
)

var testKey = bytes.Repeat([]byte{0x42}, 32)

func TestCacheStore_SetAndGet(t *testing.T) {
	db := setupTestDB(t)
	store := NewCacheStore(db, testKey)
	ctx := context.Background()
	expires := time.Date(2026, 5, 4, 10, 9, 0, 123000000, time.UTC)

	require.NoError(t, store.Set(ctx, "speech-token", "eastus:abc123", expires))

	got, found, err := store.Get(ctx, "speech-token")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "eastus:abc123", got.Value)
	assert.True(t, expires.Equal(got.ExpiresAt), "got %s", got.ExpiresAt)
}

func TestCacheStore_GetMissing(t *testing.T) {
	db := setupTestDB(t)
	store := NewCacheStore(db, testKey)

	_, found, err := store.Get(context.Background(), "speech-token")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestCacheStore_UpsertOverwrites(t *testing.T) {
	db := setupTestDB(t)
	store := NewCacheStore(db, testKey)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, store.Set(ctx, "speech-token", "eastus:old", now))
	require.NoError(t, store.Set(ctx, "speech-token", "eastus:new", now.Add(time.Minute)))

	got, found, err := store.Get(ctx, "speech-token")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "eastus:new", got.Value)
}

func TestCacheStore_Delete(t *testing.T) {
	db := setupTestDB(t)
	store := NewCacheStore(db, testKey)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "speech-token", "eastus:abc", time.Now()))
	require.NoError(t, store.Delete(ctx, "speech-token"))

	_, found, err := store.Get(ctx, "speech-token")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestCacheStore_ValueEncryptedAtRest(t *testing.T) {
	db := setupTestDB(t)
	store := NewCacheStore(db, testKey)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "speech-token", "eastus:super-secret-token", time.Now()))

	var raw string
	err := db.Reader.QueryRowContext(ctx, `SELECT value FROM cache_entries WHERE key = ?`, "speech-token").Scan(&raw)
	require.NoError(t, err)
	assert.NotContains(t, raw, "super-secret-token")
}

func TestCacheStore_WrongKeyFailsToDecrypt(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, NewCacheStore(db, testKey).Set(ctx, "speech-token", "eastus:abc", time.Now()))

	other := NewCacheStore(db, bytes.Repeat([]byte{0x07}, 32))
	_, found, err := other.Get(ctx, "speech-token")
	assert.Error(t, err)
	assert.False(t, found)
}

func TestCacheStore_NilKey(t *testing.T) {
	db := setupTestDB(t)
	store := NewCacheStore(db, nil)
	ctx := context.Background()

	err := store.Set(ctx, "speech-token", "eastus:abc", time.Now())
	assert.ErrorIs(t, err, driven.ErrEncryptionKeyNotSet)

	_, _, err = store.Get(ctx, "speech-token")
	assert.ErrorIs(t, err, driven.ErrEncryptionKeyNotSet)
}

func TestCacheStore_PurgeExpired(t *testing.T) {
	db := setupTestDB(t)
	store := NewCacheStore(db, testKey)
	ctx := context.Background()
	now := time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

	require.NoError(t, store.Set(ctx, "stale", "eastus:a", now.Add(-time.Minute)))
	require.NoError(t, store.Set(ctx, "fresh", "eastus:b", now.Add(time.Minute)))

	n, err := store.PurgeExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, found, err := store.Get(ctx, "stale")
	require.NoError(t, err)
	assert.False(t, found)

	_, found, err = store.Get(ctx, "fresh")
	require.NoError(t, err)
	assert.True(t, found)
}
