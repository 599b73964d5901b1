package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/speechgate/internal/metrics"
)

func TestFlushMetrics_WritesUntilCancelled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "speechgate.prom")
	m := metrics.New()
	m.CacheLookup("hit")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		flushMetrics(ctx, m, path, 5*time.Millisecond)
		close(done)
	}()

	require.Eventually(t, func() bool {
		_, err := os.Stat(path)
		return err == nil
	}, 2*time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("flushMetrics did not return after cancel")
	}

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "speechgate_credential_cache_lookups_total")
}
