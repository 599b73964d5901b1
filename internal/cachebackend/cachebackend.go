// Package cachebackend opens the CacheStore selected by configuration.
package cachebackend

import (
	"context"
	"log/slog"
	"time"

	"github.com/ericfisherdev/speechgate/internal/adapter/driven/memstore"
	"github.com/ericfisherdev/speechgate/internal/adapter/driven/postgres"
	sqliteadapter "github.com/ericfisherdev/speechgate/internal/adapter/driven/sqlite"
	"github.com/ericfisherdev/speechgate/internal/config"
	"github.com/ericfisherdev/speechgate/internal/domain/port/driven"
)

// Open builds the CacheStore named by cfg.CacheBackend. The returned func
// releases the store's resources and is never nil on success.
func Open(ctx context.Context, cfg *config.Config) (driven.CacheStore, func(), error) {
	switch cfg.CacheBackend {
	case config.BackendSQLite:
		db, err := sqliteadapter.Open(ctx, cfg.DBPath)
		if err != nil {
			return nil, nil, err
		}
		slog.Info("database opened", "path", cfg.DBPath)

		store := sqliteadapter.NewCacheStore(db, cfg.SecretKey)
		if n, err := store.PurgeExpired(ctx, time.Now()); err != nil {
			slog.Warn("failed to purge expired cache entries", "error", err)
		} else if n > 0 {
			slog.Debug("purged expired cache entries", "count", n)
		}

		return store, func() {
			if err := db.Close(); err != nil {
				slog.Error("error closing database", "error", err)
			}
		}, nil

	case config.BackendPostgres:
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		store := postgres.NewCacheStore(pool)
		if err := store.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		slog.Info("postgres cache store ready")
		return store, pool.Close, nil

	default:
		return memstore.New(), func() {}, nil
	}
}
