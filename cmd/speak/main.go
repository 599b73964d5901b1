// Command speak resolves a cached Azure Speech credential and synthesizes text
// to an audio file.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	"github.com/ericfisherdev/speechgate/internal/adapter/driven/azurespeech"
	"github.com/ericfisherdev/speechgate/internal/application"
	"github.com/ericfisherdev/speechgate/internal/cachebackend"
	"github.com/ericfisherdev/speechgate/internal/config"
	"github.com/ericfisherdev/speechgate/internal/domain/model"
	"github.com/ericfisherdev/speechgate/internal/metrics"
)

// errUsage marks argument errors, which exit with status 2.
var errUsage = errors.New("usage")

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, errUsage) {
			os.Exit(2)
		}
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

type options struct {
	text      string
	voice     string
	out       string
	tokenOnly bool
}

func parseArgs(args []string) (options, error) {
	fs := flag.NewFlagSet("speak", flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "usage: speak [flags] <text>")
		fs.PrintDefaults()
	}

	var opts options
	fs.StringVar(&opts.voice, "voice", azurespeech.DefaultVoice, "neural voice name")
	fs.StringVar(&opts.out, "out", "out.wav", "audio output file")
	fs.BoolVar(&opts.tokenOnly, "token-only", false, "print the cached region:token value instead of synthesizing")

	if err := fs.Parse(args); err != nil {
		return options{}, fmt.Errorf("%w: %v", errUsage, err)
	}

	opts.text = strings.TrimSpace(strings.Join(fs.Args(), " "))
	if opts.text == "" && !opts.tokenOnly {
		fs.Usage()
		return options{}, fmt.Errorf("%w: text is required", errUsage)
	}
	return opts, nil
}

func run(args []string, stdout io.Writer) error {
	opts, err := parseArgs(args)
	if err != nil {
		return err
	}

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
		"speech_region", cfg.SpeechRegion,
		"cache_backend", cfg.CacheBackend,
		"cache_key", cfg.CacheKey,
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

	m := metrics.New()
	defer func() {
		if cfg.MetricsFile == "" {
			return
		}
		if err := m.WriteTextfile(cfg.MetricsFile); err != nil {
			slog.Error("failed to write metrics", "path", cfg.MetricsFile, "error", err)
		}
	}()

	// 4. Wire services.
	issuer := azurespeech.NewTokenIssuer(cfg.SpeechKey, cfg.SpeechRegion)
	credentials := application.NewCredentialCache(
		store, issuer, cfg.SpeechRegion, cfg.CacheKey, cfg.TokenTTL, application.SystemClock(), m,
	)

	if opts.tokenOnly {
		cred, err := credentials.Resolve(ctx)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(stdout, model.FormatCredentialValue(cred.Region, cred.Token))
		return err
	}

	speech := application.NewSpeechService(credentials, azurespeech.NewSynthesizer())
	result, err := speech.Speak(ctx, model.SynthesisRequest{Text: opts.text, Voice: opts.voice})
	if err != nil {
		return err
	}

	if err := os.WriteFile(opts.out, result.Audio, 0o644); err != nil {
		return fmt.Errorf("write audio to %s: %w", opts.out, err)
	}
	slog.Info("audio written", "path", opts.out, "bytes", len(result.Audio))
	return nil
}
