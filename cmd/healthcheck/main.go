// Command healthcheck exits 0 when the speechgate server answers its health
// endpoint and the configured cache backend is reachable. It is meant for
// container HEALTHCHECK probes.
package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/ericfisherdev/speechgate/internal/adapter/driven/postgres"
	sqliteadapter "github.com/ericfisherdev/speechgate/internal/adapter/driven/sqlite"
	"github.com/ericfisherdev/speechgate/internal/config"
)

func main() {
	os.Exit(check())
}

func check() int {
	cfg, err := config.Load()
	if err != nil {
		return 1
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := probeServer(ctx, &http.Client{Timeout: 2 * time.Second}, loopbackAddr(cfg.ListenAddr)); err != nil {
		return 1
	}
	if err := probeBackend(ctx, cfg); err != nil {
		return 1
	}
	return 0
}

func probeServer(ctx context.Context, client *http.Client, addr string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("http://%s/api/v1/health", addr), nil)
	if err != nil {
		return err
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	_ = resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health status %d", resp.StatusCode)
	}
	return nil
}

// probeBackend opens the store named by cfg.CacheBackend and closes it again.
// The memory backend has nothing to reach and always passes.
func probeBackend(ctx context.Context, cfg *config.Config) error {
	switch cfg.CacheBackend {
	case config.BackendSQLite:
		db, err := sqliteadapter.NewDB(ctx, cfg.DBPath)
		if err != nil {
			return err
		}
		return db.Close()
	case config.BackendPostgres:
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		pool.Close()
		return nil
	default:
		return nil
	}
}

// loopbackAddr rewrites a bind-all listen address to loopback, since the
// probe runs inside the same container as the server.
func loopbackAddr(raw string) string {
	host, port, err := net.SplitHostPort(raw)
	if err != nil {
		return "127.0.0.1:8080"
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}
	return net.JoinHostPort(host, port)
}
