// Package metrics exposes Prometheus counters for job polling and credential
// resolution. Commands are short-lived, so metrics are written to a
// node-exporter textfile on exit rather than served over HTTP.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics contains all Prometheus metrics for speechgate. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	JobsSubmitted prometheus.Counter
	JobPolls      prometheus.Counter
	JobOutcomes   *prometheus.CounterVec
	JobWait       prometheus.Histogram

	CacheLookups       *prometheus.CounterVec
	TokenIssuances     *prometheus.CounterVec
	CacheWriteFailures prometheus.Counter
}

// New creates and registers all metrics on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		JobsSubmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "speechgate_jobs_submitted_total",
			Help: "Total number of transcription jobs submitted",
		}),
		JobPolls: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "speechgate_job_polls_total",
			Help: "Total number of job status polls issued",
		}),
		JobOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "speechgate_job_outcomes_total",
			Help: "Transcription jobs by outcome",
		}, []string{"outcome"}),
		JobWait: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "speechgate_job_wait_seconds",
			Help:    "Wall-clock time from submission to terminal state",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "speechgate_credential_cache_lookups_total",
			Help: "Credential cache lookups by result",
		}, []string{"result"}),
		TokenIssuances: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "speechgate_token_issuances_total",
			Help: "Token issuance calls by result",
		}, []string{"result"}),
		CacheWriteFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "speechgate_credential_cache_write_failures_total",
			Help: "Refreshed credentials that could not be written to the cache",
		}),
	}

	reg.MustRegister(
		m.JobsSubmitted,
		m.JobPolls,
		m.JobOutcomes,
		m.JobWait,
		m.CacheLookups,
		m.TokenIssuances,
		m.CacheWriteFailures,
	)
	return m
}

// Registry returns the registry holding all speechgate metrics.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// WriteTextfile writes all metrics in the Prometheus text format to path,
// atomically replacing any existing file.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics textfile %s: %w", path, err)
	}
	return nil
}

// JobSubmitted counts a job submission.
func (m *Metrics) JobSubmitted() {
	if m == nil {
		return
	}
	m.JobsSubmitted.Inc()
}

// JobPolled counts one status poll.
func (m *Metrics) JobPolled() {
	if m == nil {
		return
	}
	m.JobPolls.Inc()
}

// JobFinished records the terminal outcome of SubmitAndWait and, when
// waitSeconds is positive, the time spent waiting.
func (m *Metrics) JobFinished(outcome string, waitSeconds float64) {
	if m == nil {
		return
	}
	m.JobOutcomes.WithLabelValues(outcome).Inc()
	if waitSeconds > 0 {
		m.JobWait.Observe(waitSeconds)
	}
}

// CacheLookup records a credential cache lookup. result is "hit", "miss",
// "expired" or "error".
func (m *Metrics) CacheLookup(result string) {
	if m == nil {
		return
	}
	m.CacheLookups.WithLabelValues(result).Inc()
}

// TokenIssued records a token issuance call. result is "success" or "failure".
func (m *Metrics) TokenIssued(result string) {
	if m == nil {
		return
	}
	m.TokenIssuances.WithLabelValues(result).Inc()
}

// CacheWriteFailed counts a credential that could not be written to the cache.
func (m *Metrics) CacheWriteFailed() {
	if m == nil {
		return
	}
	m.CacheWriteFailures.Inc()
}
