// Command speechgate serves cached Azure Speech credentials and synthesis
// over HTTP so browser clients never hold the subscription key.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	"github.com/ericfisherdev/speechgate/internal/adapter/driven/azurespeech"
	httphandler "github.com/ericfisherdev/speechgate/internal/adapter/driving/http"
	"github.com/ericfisherdev/speechgate/internal/application"
	"github.com/ericfisherdev/speechgate/internal/cachebackend"
	"github.com/ericfisherdev/speechgate/internal/config"
	"github.com/ericfisherdev/speechgate/internal/metrics"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load configuration (fail fast on missing required env vars).
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.ValidateSpeak(); err != nil {
		return err
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel})))
	slog.Info("config loaded",
		"listen_addr", cfg.ListenAddr,
		"speech_region", cfg.SpeechRegion,
		"cache_backend", cfg.CacheBackend,
		"token_ttl", cfg.TokenTTL,
	)

	// 2. Setup signal-based context (SIGINT, SIGTERM).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Open the cache store.
	store, closeStore, err := cachebackend.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	// 4. Wire services.
	m := metrics.New()
	clock := application.SystemClock()
	issuer := azurespeech.NewTokenIssuer(cfg.SpeechKey, cfg.SpeechRegion)
	credentials := application.NewCredentialCache(store, issuer, cfg.SpeechRegion, cfg.CacheKey, cfg.TokenTTL, clock, m)
	speech := application.NewSpeechService(credentials, azurespeech.NewSynthesizer())

	// 5. Register routes.
	h := httphandler.NewHandler(credentials, speech, clock, slog.Default())
	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           httphandler.NewServeMux(h, slog.Default()),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("http server starting", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	// 6. Periodically flush metrics to the textfile collector.
	if cfg.MetricsFile != "" {
		go flushMetrics(ctx, m, cfg.MetricsFile, 15*time.Second)
	}

	// 7. Wait for shutdown signal or a listener failure.
	select {
	case <-ctx.Done():
		slog.Info("shutting down")
	case err := <-serveErr:
		if err != nil {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http server shutdown error", "error", err)
	}
	if cfg.MetricsFile != "" {
		if err := m.WriteTextfile(cfg.MetricsFile); err != nil {
			slog.Error("failed to write metrics", "path", cfg.MetricsFile, "error", err)
		}
	}

	slog.Info("shutdown complete")
	return nil
}

func flushMetrics(ctx context.Context, m *metrics.Metrics, path string, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := m.WriteTextfile(path); err != nil {
				slog.Warn("failed to write metrics", "path", path, "error", err)
			}
		}
	}
}
