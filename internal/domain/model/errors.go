package model

import (
	"errors"
	"fmt"
)

// JobErrorKind classifies why SubmitAndWait did not return a result locator.
type JobErrorKind int

const (
	// JobErrorTransient means a submit or poll call failed at the transport or
	// service level.
	JobErrorTransient JobErrorKind = iota
	// JobErrorFailed means the remote job reached FAILED.
	JobErrorFailed
	// JobErrorUnknownStatus means the service reported a status outside the
	// known set.
	JobErrorUnknownStatus
	// JobErrorTimeout means the caller's deadline expired or the wait was
	// cancelled.
	JobErrorTimeout
)

// Sentinels matched by JobError.Is, so callers can write
// errors.Is(err, model.ErrJobFailed).
var (
	ErrJobTransient     = errors.New("job service call failed")
	ErrJobFailed        = errors.New("job failed")
	ErrJobUnknownStatus = errors.New("unknown job status")
	ErrJobTimeout       = errors.New("job wait timed out")
	ErrIssuanceFailed   = errors.New("token issuance failed")
)

// String returns a short name for the kind.
func (k JobErrorKind) String() string {
	switch k {
	case JobErrorTransient:
		return "transient"
	case JobErrorFailed:
		return "failed"
	case JobErrorUnknownStatus:
		return "unknown_status"
	case JobErrorTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

func (k JobErrorKind) sentinel() error {
	switch k {
	case JobErrorTransient:
		return ErrJobTransient
	case JobErrorFailed:
		return ErrJobFailed
	case JobErrorUnknownStatus:
		return ErrJobUnknownStatus
	case JobErrorTimeout:
		return ErrJobTimeout
	default:
		return nil
	}
}

// JobError is returned by the job orchestrator. Op names the remote call
// ("submit" or "poll") that was in flight. Reason carries the service-reported
// failure reason for JobErrorFailed and the raw status for JobErrorUnknownStatus.
type JobError struct {
	Kind   JobErrorKind
	JobID  string
	Op     string
	Reason string
	Err    error
}

func (e *JobError) Error() string {
	msg := fmt.Sprintf("job %q: %s", e.JobID, e.Kind)
	if e.Op != "" {
		msg += " during " + e.Op
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause, if any.
func (e *JobError) Unwrap() error {
	return e.Err
}

// Is matches the sentinel for e.Kind.
func (e *JobError) Is(target error) bool {
	s := e.Kind.sentinel()
	return s != nil && target == s
}

// AuthError is returned when the token issuer rejects or fails a request.
// Payload holds the service-reported body, StatusCode the HTTP status when one
// was received (0 for transport errors).
type AuthError struct {
	Region     string
	StatusCode int
	Payload    string
	Err        error
}

func (e *AuthError) Error() string {
	msg := fmt.Sprintf("issue token for region %q", e.Region)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(": status %d", e.StatusCode)
	}
	if e.Payload != "" {
		msg += ": " + e.Payload
	}
	if e.Err != nil && e.Payload == "" {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause, if any.
func (e *AuthError) Unwrap() error {
	return e.Err
}

// Is matches ErrIssuanceFailed.
func (e *AuthError) Is(target error) bool {
	return target == ErrIssuanceFailed
}
