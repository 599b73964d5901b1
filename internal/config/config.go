// Package config loads application configuration from environment variables.
package config

import (
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/ericfisherdev/speechgate/internal/application"
)

// Cache backends accepted by SPEECHGATE_CACHE_BACKEND.
const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// Config holds the application configuration loaded from environment variables.
// Both commands share it; each validates only the fields it needs.
type Config struct {
	// Speech credential cache.
	SpeechRegion string
	SpeechKey    string
	TokenTTL     time.Duration
	CacheKey     string
	CacheBackend string
	DBPath       string
	DatabaseURL  string
	SecretKey    []byte // 32 bytes when set; nil otherwise.

	// Transcription job orchestration.
	AWSRegion          string
	AWSAccessKeyID     string // Optional; the SDK default chain applies when empty.
	AWSSecretAccessKey string
	OutputBucket       string
	PollInterval       time.Duration
	WaitTimeout        time.Duration // 0 means wait until the caller's context ends.

	ListenAddr  string
	MetricsFile string
	LogLevel    slog.Level
}

// Load reads SPEECHGATE_* environment variables, applies defaults and
// returns a Config. Values that are present but malformed are errors;
// missing values required by a single command are checked by
// ValidateTranscribe and ValidateSpeak.
func Load() (*Config, error) {
	cfg := &Config{
		SpeechRegion:       os.Getenv("SPEECHGATE_SPEECH_REGION"),
		SpeechKey:          os.Getenv("SPEECHGATE_SPEECH_KEY"),
		TokenTTL:           application.DefaultTokenTTL,
		CacheKey:           application.DefaultCacheKey,
		CacheBackend:       BackendMemory,
		DBPath:             "speechgate.db",
		DatabaseURL:        os.Getenv("SPEECHGATE_DATABASE_URL"),
		AWSRegion:          os.Getenv("SPEECHGATE_AWS_REGION"),
		AWSAccessKeyID:     os.Getenv("SPEECHGATE_AWS_ACCESS_KEY_ID"),
		AWSSecretAccessKey: os.Getenv("SPEECHGATE_AWS_SECRET_ACCESS_KEY"),
		OutputBucket:       os.Getenv("SPEECHGATE_OUTPUT_BUCKET"),
		PollInterval:       application.DefaultPollInterval,
		ListenAddr:         "127.0.0.1:8080",
		MetricsFile:        os.Getenv("SPEECHGATE_METRICS_FILE"),
		LogLevel:           slog.LevelInfo,
	}

	var err error
	if cfg.TokenTTL, err = positiveDuration("SPEECHGATE_TOKEN_TTL", cfg.TokenTTL); err != nil {
		return nil, err
	}
	if cfg.PollInterval, err = positiveDuration("SPEECHGATE_POLL_INTERVAL", cfg.PollInterval); err != nil {
		return nil, err
	}

	if v, ok := os.LookupEnv("SPEECHGATE_WAIT_TIMEOUT"); ok && v != "" {
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("SPEECHGATE_WAIT_TIMEOUT has invalid duration %q: %w", v, err)
		}
		if parsed < 0 {
			return nil, fmt.Errorf("SPEECHGATE_WAIT_TIMEOUT must not be negative, got %s", parsed)
		}
		cfg.WaitTimeout = parsed
	}

	if v, ok := os.LookupEnv("SPEECHGATE_CACHE_KEY"); ok && v != "" {
		cfg.CacheKey = v
	}

	if v, ok := os.LookupEnv("SPEECHGATE_LISTEN_ADDR"); ok && v != "" {
		cfg.ListenAddr = v
	}

	if v, ok := os.LookupEnv("SPEECHGATE_DB_PATH"); ok && v != "" {
		cfg.DBPath = v
	}

	if v, ok := os.LookupEnv("SPEECHGATE_CACHE_BACKEND"); ok && v != "" {
		backend := strings.ToLower(strings.TrimSpace(v))
		switch backend {
		case BackendMemory, BackendSQLite, BackendPostgres:
			cfg.CacheBackend = backend
		default:
			return nil, fmt.Errorf("SPEECHGATE_CACHE_BACKEND must be one of memory, sqlite, postgres; got %q", v)
		}
	}

	if v, ok := os.LookupEnv("SPEECHGATE_SECRET_KEY"); ok && v != "" {
		key, err := hex.DecodeString(v)
		if err != nil {
			return nil, fmt.Errorf("SPEECHGATE_SECRET_KEY must be hex encoded: %w", err)
		}
		if len(key) != 32 {
			return nil, fmt.Errorf("SPEECHGATE_SECRET_KEY must decode to 32 bytes, got %d", len(key))
		}
		cfg.SecretKey = key
	}

	if v, ok := os.LookupEnv("SPEECHGATE_LOG_LEVEL"); ok && v != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(v)); err != nil {
			return nil, fmt.Errorf("SPEECHGATE_LOG_LEVEL has invalid level %q: %w", v, err)
		}
	}

	return cfg, nil
}

func positiveDuration(name string, def time.Duration) (time.Duration, error) {
	v, ok := os.LookupEnv(name)
	if !ok || v == "" {
		return def, nil
	}
	parsed, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s has invalid duration %q: %w", name, v, err)
	}
	if parsed <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %s", name, parsed)
	}
	return parsed, nil
}

// ValidateTranscribe reports missing settings needed by the transcribe command.
func (c *Config) ValidateTranscribe() error {
	if c.AWSRegion == "" {
		return fmt.Errorf("SPEECHGATE_AWS_REGION is required")
	}
	if (c.AWSAccessKeyID == "") != (c.AWSSecretAccessKey == "") {
		return fmt.Errorf("SPEECHGATE_AWS_ACCESS_KEY_ID and SPEECHGATE_AWS_SECRET_ACCESS_KEY must be set together")
	}
	return nil
}

// ValidateSpeak reports missing settings needed by the speak and server commands,
// including the ones implied by the selected cache backend.
func (c *Config) ValidateSpeak() error {
	var missing []string
	if c.SpeechRegion == "" {
		missing = append(missing, "SPEECHGATE_SPEECH_REGION")
	}
	if c.SpeechKey == "" {
		missing = append(missing, "SPEECHGATE_SPEECH_KEY")
	}
	switch c.CacheBackend {
	case BackendSQLite:
		if c.SecretKey == nil {
			missing = append(missing, "SPEECHGATE_SECRET_KEY")
		}
	case BackendPostgres:
		if c.DatabaseURL == "" {
			missing = append(missing, "SPEECHGATE_DATABASE_URL")
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	return nil
}
