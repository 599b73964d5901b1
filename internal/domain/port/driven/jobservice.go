package driven

import (
	"context"

	"github.com/ericfisherdev/speechgate/internal/domain/model"
)

// SubmitRequest is a single transcription job submission.
type SubmitRequest struct {
	JobID        string
	InputLocator string
	Options      model.JobOptions
}

// JobService defines the driven port for an asynchronous transcription service.
type JobService interface {
	// Submit starts a job. The service rejects duplicate job IDs.
	Submit(ctx context.Context, req SubmitRequest) error

	// GetStatus returns the job as currently reported by the service. Status
	// values the adapter cannot map are returned unchanged so the caller can
	// reject them.
	GetStatus(ctx context.Context, jobID string) (model.TranscriptionJob, error)
}
