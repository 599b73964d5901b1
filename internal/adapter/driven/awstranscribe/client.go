// Package awstranscribe implements the JobService port on Amazon Transcribe
// using aws-sdk-go.
package awstranscribe

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/transcribeservice"
	"github.com/aws/aws-sdk-go/service/transcribeservice/transcribeserviceiface"

	"github.com/ericfisherdev/speechgate/internal/domain/model"
	"github.com/ericfisherdev/speechgate/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.JobService = (*Client)(nil)

// Client implements driven.JobService against the Transcribe API.
type Client struct {
	api transcribeserviceiface.TranscribeServiceAPI
}

// NewClient creates a Client for region. Static credentials are used when
// accessKey and secretKey are both set; otherwise the SDK's default chain
// (environment, shared config, instance role) applies.
func NewClient(region, accessKey, secretKey string) (*Client, error) {
	cfg := aws.NewConfig().WithRegion(region)
	if accessKey != "" && secretKey != "" {
		cfg = cfg.WithCredentials(credentials.NewStaticCredentials(accessKey, secretKey, ""))
	}

	sess, err := session.NewSession(cfg)
	if err != nil {
		return nil, fmt.Errorf("create aws session: %w", err)
	}

	return &Client{api: transcribeservice.New(sess)}, nil
}

// NewClientWithAPI creates a Client around an existing Transcribe API
// implementation. Intended for tests.
func NewClientWithAPI(api transcribeserviceiface.TranscribeServiceAPI) *Client {
	return &Client{api: api}
}

// Submit starts a transcription job named req.JobID.
func (c *Client) Submit(ctx context.Context, req driven.SubmitRequest) error {
	input := &transcribeservice.StartTranscriptionJobInput{
		TranscriptionJobName: aws.String(req.JobID),
		Media: &transcribeservice.Media{
			MediaFileUri: aws.String(req.InputLocator),
		},
	}
	if req.Options.LanguageCode != "" {
		input.LanguageCode = aws.String(req.Options.LanguageCode)
	} else {
		input.IdentifyLanguage = aws.Bool(true)
	}
	if req.Options.MediaFormat != "" {
		input.MediaFormat = aws.String(req.Options.MediaFormat)
	}
	if req.Options.OutputBucket != "" {
		input.OutputBucketName = aws.String(req.Options.OutputBucket)
	}
	if req.Options.OutputKey != "" {
		input.OutputKey = aws.String(req.Options.OutputKey)
	}

	out, err := c.api.StartTranscriptionJobWithContext(ctx, input)
	if err != nil {
		return fmt.Errorf("start transcription job %s: %w", req.JobID, err)
	}

	if out != nil && out.TranscriptionJob != nil {
		slog.Debug("transcribe job started",
			"job_id", req.JobID,
			"remote_status", aws.StringValue(out.TranscriptionJob.TranscriptionJobStatus),
		)
	}
	return nil
}

// GetStatus fetches the job and maps it to the domain model.
func (c *Client) GetStatus(ctx context.Context, jobID string) (model.TranscriptionJob, error) {
	out, err := c.api.GetTranscriptionJobWithContext(ctx, &transcribeservice.GetTranscriptionJobInput{
		TranscriptionJobName: aws.String(jobID),
	})
	if err != nil {
		return model.TranscriptionJob{}, fmt.Errorf("get transcription job %s: %w", jobID, err)
	}
	if out.TranscriptionJob == nil {
		return model.TranscriptionJob{}, fmt.Errorf("get transcription job %s: empty response", jobID)
	}

	return mapJob(jobID, out.TranscriptionJob), nil
}

// mapJob converts a Transcribe job to a domain TranscriptionJob. Statuses
// outside Transcribe's documented set are passed through unchanged.
func mapJob(jobID string, j *transcribeservice.TranscriptionJob) model.TranscriptionJob {
	job := model.TranscriptionJob{
		ID:     jobID,
		Status: mapStatus(aws.StringValue(j.TranscriptionJobStatus)),
	}

	switch job.Status {
	case model.JobStatusCompleted:
		if j.Transcript != nil {
			job.ResultLocator = aws.StringValue(j.Transcript.TranscriptFileUri)
		}
	case model.JobStatusFailed:
		job.FailureReason = aws.StringValue(j.FailureReason)
	}

	return job
}

// mapStatus translates Transcribe's status vocabulary. QUEUED is the service's
// name for a submitted job that has not started.
func mapStatus(s string) model.JobStatus {
	switch s {
	case transcribeservice.TranscriptionJobStatusQueued:
		return model.JobStatusSubmitted
	case transcribeservice.TranscriptionJobStatusInProgress:
		return model.JobStatusInProgress
	case transcribeservice.TranscriptionJobStatusCompleted:
		return model.JobStatusCompleted
	case transcribeservice.TranscriptionJobStatusFailed:
		return model.JobStatusFailed
	default:
		return model.JobStatus(s)
	}
}
