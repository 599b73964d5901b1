// Command transcribe submits a media file to Amazon Transcribe, waits for the
// job to finish and prints the transcript location.
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
	"syscall"

	"github.com/google/uuid"
	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	"github.com/ericfisherdev/speechgate/internal/adapter/driven/awstranscribe"
	"github.com/ericfisherdev/speechgate/internal/application"
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
	jobID     string
	mediaURI  string
	jobOpts   model.JobOptions
	outputKey string
}

func parseArgs(args []string) (options, error) {
	fs := flag.NewFlagSet("transcribe", flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "usage: transcribe [flags] <media-uri>")
		fs.PrintDefaults()
	}

	var opts options
	fs.StringVar(&opts.jobID, "job-id", "", "job name; a random UUID when empty")
	fs.StringVar(&opts.jobOpts.LanguageCode, "language", "", "language code such as en-US; identified automatically when empty")
	fs.StringVar(&opts.jobOpts.MediaFormat, "format", "", "media format such as wav or mp3")
	fs.StringVar(&opts.outputKey, "output-key", "", "object key for the transcript in the output bucket")

	if err := fs.Parse(args); err != nil {
		return options{}, fmt.Errorf("%w: %v", errUsage, err)
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return options{}, fmt.Errorf("%w: expected exactly one media URI", errUsage)
	}

	opts.mediaURI = fs.Arg(0)
	if opts.jobID == "" {
		opts.jobID = uuid.NewString()
	}
	opts.jobOpts.OutputKey = opts.outputKey
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
	if err := cfg.ValidateTranscribe(); err != nil {
		return err
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel})))
	slog.Info("config loaded",
		"aws_region", cfg.AWSRegion,
		"output_bucket", cfg.OutputBucket,
		"poll_interval", cfg.PollInterval,
		"wait_timeout", cfg.WaitTimeout,
	)

	// 2. Setup signal-based context (SIGINT, SIGTERM).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Wire adapters.
	client, err := awstranscribe.NewClient(cfg.AWSRegion, cfg.AWSAccessKeyID, cfg.AWSSecretAccessKey)
	if err != nil {
		return err
	}

	m := metrics.New()
	defer func() {
		if cfg.MetricsFile == "" {
			return
		}
		if err := m.WriteTextfile(cfg.MetricsFile); err != nil {
			slog.Error("failed to write metrics", "path", cfg.MetricsFile, "error", err)
		}
	}()

	// 4. Submit and wait.
	orch := application.NewJobOrchestrator(client, cfg.PollInterval, cfg.WaitTimeout, application.SystemClock(), m)

	opts.jobOpts.OutputBucket = cfg.OutputBucket
	slog.Info("submitting transcription job", "job_id", opts.jobID, "media_uri", opts.mediaURI)

	locator, err := orch.SubmitAndWait(ctx, opts.jobID, opts.mediaURI, opts.jobOpts)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(stdout, locator)
	return err
}
