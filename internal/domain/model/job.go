package model

// JobStatus represents the remote service's state for a transcription job.
type JobStatus string

const (
	JobStatusSubmitted  JobStatus = "SUBMITTED"
	JobStatusInProgress JobStatus = "IN_PROGRESS"
	JobStatusCompleted  JobStatus = "COMPLETED"
	JobStatusFailed     JobStatus = "FAILED"
)

// IsKnown reports whether s is one of the four statuses the orchestrator
// understands.
func (s JobStatus) IsKnown() bool {
	switch s {
	case JobStatusSubmitted, JobStatusInProgress, JobStatusCompleted, JobStatusFailed:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether no further transition can occur from s.
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// TranscriptionJob is a snapshot of a job as last reported by the job service.
// ResultLocator is set only for COMPLETED jobs, FailureReason only for FAILED ones.
type TranscriptionJob struct {
	ID            string
	Status        JobStatus
	ResultLocator string
	FailureReason string
}

// JobOptions are pass-through submission parameters. They are validated only
// by the remote service.
type JobOptions struct {
	LanguageCode string
	MediaFormat  string
	OutputBucket string
	OutputKey    string
}
