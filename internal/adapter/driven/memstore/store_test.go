package memstore_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/speechgate/internal/adapter/driven/memstore"
)

func TestStore_SetAndGet(t *testing.T) {
	store := memstore.New()
	ctx := context.Background()
	expires := time.Date(2026, 3, 1, 12, 9, 0, 0, time.UTC)

	require.NoError(t, store.Set(ctx, "speech-token", "eastus:abc123", expires))

	got, found, err := store.Get(ctx, "speech-token")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "eastus:abc123", got.Value)
	assert.True(t, expires.Equal(got.ExpiresAt))
}

func TestStore_GetMissing(t *testing.T) {
	store := memstore.New()

	_, found, err := store.Get(context.Background(), "nope")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestStore_SetOverwrites(t *testing.T) {
	store := memstore.New()
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, store.Set(ctx, "k", "eastus:old", now))
	require.NoError(t, store.Set(ctx, "k", "westus:new", now.Add(time.Minute)))

	got, found, err := store.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "westus:new", got.Value)
}

func TestStore_Delete(t *testing.T) {
	store := memstore.New()
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "k", "eastus:abc", time.Now()))
	require.NoError(t, store.Delete(ctx, "k"))
	require.NoError(t, store.Delete(ctx, "k"))

	_, found, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestStore_ExpiredEntryStillReturned(t *testing.T) {
	store := memstore.New()
	ctx := context.Background()
	past := time.Now().Add(-time.Hour)

	require.NoError(t, store.Set(ctx, "k", "eastus:stale", past))

	got, found, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, found)
	assert.True(t, got.ExpiresAt.Before(time.Now()))
}
