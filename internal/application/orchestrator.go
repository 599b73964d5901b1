// Package application contains use-case orchestration services.
package application

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/ericfisherdev/speechgate/internal/domain/model"
	"github.com/ericfisherdev/speechgate/internal/domain/port/driven"
	"github.com/ericfisherdev/speechgate/internal/metrics"
)

// DefaultPollInterval is the delay between status polls when none is configured.
const DefaultPollInterval = time.Second

// JobOrchestrator submits a transcription job and polls the job service until
// the job reaches a terminal state. It manages one job per SubmitAndWait call
// and keeps no state between calls.
type JobOrchestrator struct {
	jobs         driven.JobService
	pollInterval time.Duration
	waitTimeout  time.Duration
	clock        Clock
	metrics      *metrics.Metrics
}

// NewJobOrchestrator creates a JobOrchestrator. A non-positive pollInterval
// falls back to DefaultPollInterval. waitTimeout bounds each SubmitAndWait call
// in addition to the caller's context; zero means no bound.
func NewJobOrchestrator(
	jobs driven.JobService,
	pollInterval time.Duration,
	waitTimeout time.Duration,
	clock Clock,
	m *metrics.Metrics,
) *JobOrchestrator {
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}
	if clock == nil {
		clock = SystemClock()
	}
	return &JobOrchestrator{
		jobs:         jobs,
		pollInterval: pollInterval,
		waitTimeout:  waitTimeout,
		clock:        clock,
		metrics:      m,
	}
}

// SubmitAndWait submits the job and blocks until it completes, fails, or the
// context ends. On COMPLETED it returns the job's result locator. Every other
// outcome is a *model.JobError:
//   - JobErrorFailed when the remote job fails (not retried),
//   - JobErrorTransient when a submit or poll call errors,
//   - JobErrorUnknownStatus when the service reports an unrecognised status,
//   - JobErrorTimeout when ctx (or the configured wait timeout) expires.
func (o *JobOrchestrator) SubmitAndWait(ctx context.Context, jobID, inputLocator string, opts model.JobOptions) (string, error) {
	if o.waitTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.waitTimeout)
		defer cancel()
	}

	start := o.clock.Now()

	err := o.jobs.Submit(ctx, driven.SubmitRequest{
		JobID:        jobID,
		InputLocator: inputLocator,
		Options:      opts,
	})
	if err != nil {
		return "", o.fail(start, o.callError(ctx, jobID, "submit", err))
	}
	o.metrics.JobSubmitted()
	slog.Info("transcription job submitted", "job_id", jobID, "input", inputLocator)

	for poll := 1; ; poll++ {
		job, err := o.jobs.GetStatus(ctx, jobID)
		o.metrics.JobPolled()
		if err != nil {
			return "", o.fail(start, o.callError(ctx, jobID, "poll", err))
		}

		switch job.Status {
		case model.JobStatusCompleted:
			slog.Info("transcription job completed",
				"job_id", jobID,
				"polls", poll,
				"result", job.ResultLocator,
			)
			o.metrics.JobFinished("completed", o.clock.Now().Sub(start).Seconds())
			return job.ResultLocator, nil

		case model.JobStatusFailed:
			return "", o.fail(start, &model.JobError{
				Kind:   model.JobErrorFailed,
				JobID:  jobID,
				Op:     "poll",
				Reason: job.FailureReason,
			})

		case model.JobStatusSubmitted, model.JobStatusInProgress:
			slog.Debug("waiting for transcription job", "job_id", jobID, "status", string(job.Status), "poll", poll)

		default:
			return "", o.fail(start, &model.JobError{
				Kind:   model.JobErrorUnknownStatus,
				JobID:  jobID,
				Op:     "poll",
				Reason: string(job.Status),
			})
		}

		select {
		case <-ctx.Done():
			return "", o.fail(start, &model.JobError{
				Kind:  model.JobErrorTimeout,
				JobID: jobID,
				Op:    "wait",
				Err:   ctx.Err(),
			})
		case <-o.clock.After(o.pollInterval):
		}
	}
}

// callError classifies a failed remote call. A call that failed because the
// context ended is a timeout, anything else is transient.
func (o *JobOrchestrator) callError(ctx context.Context, jobID, op string, err error) *model.JobError {
	kind := model.JobErrorTransient
	if ctx.Err() != nil || errors.Is(err, context.DeadlineExceeded) {
		kind = model.JobErrorTimeout
	}
	return &model.JobError{Kind: kind, JobID: jobID, Op: op, Err: err}
}

// fail logs and records a terminal error, then returns it.
func (o *JobOrchestrator) fail(start time.Time, err *model.JobError) error {
	slog.Error("transcription job did not complete",
		"job_id", err.JobID,
		"kind", err.Kind.String(),
		"op", err.Op,
		"reason", err.Reason,
		"error", err.Err,
	)
	o.metrics.JobFinished(err.Kind.String(), o.clock.Now().Sub(start).Seconds())
	return err
}
