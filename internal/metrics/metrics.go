// Package metrics defines and registers the Prometheus collectors for the
// Atlas API. Default is registered with the global registry and is what the
// services record into.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	namespace = "atlas"
)

type Metrics struct {
	// VotesTotal counts accepted votes, partitioned by outcome.
	VotesTotal *prometheus.CounterVec

	// VotesRateLimitedTotal counts votes rejected by the per-user limit.
	VotesRateLimitedTotal prometheus.Counter

	// RateLimiterFailOpenTotal counts votes allowed because the limiter
	// could not be consulted.
	RateLimiterFailOpenTotal prometheus.Counter

	// PromptWritesTotal counts prompt mutations, partitioned by operation
	// (create, update, delete, unflag, review).
	PromptWritesTotal *prometheus.CounterVec

	// ChildWriteFailuresTotal counts variable/variant replacements that
	// failed after the parent prompt was written.
	ChildWriteFailuresTotal *prometheus.CounterVec

	// ReviewQueueSize reports the length of the last review queue built.
	ReviewQueueSize prometheus.Gauge

	// HTTPRequestDuration observes request latency in seconds.
	HTTPRequestDuration *prometheus.HistogramVec
}

var Default = NewMetrics(prometheus.DefaultRegisterer)

// NewMetrics creates a Metrics instance and registers all collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		VotesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "votes_total",
				Help:      "Total number of accepted prompt votes.",
			},
			[]string{"outcome"},
		),

		VotesRateLimitedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "votes_rate_limited_total",
				Help:      "Total number of votes rejected by the per-user rate limit.",
			},
		),

		RateLimiterFailOpenTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "vote_rate_limiter_fail_open_total",
				Help:      "Total number of votes allowed because the rate limiter was unavailable.",
			},
		),

		PromptWritesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "prompt_writes_total",
				Help:      "Total number of prompt mutations.",
			},
			[]string{"operation"},
		),

		ChildWriteFailuresTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "prompt_child_write_failures_total",
				Help:      "Total number of failed variable or variant replacements.",
			},
			[]string{"kind"},
		),

		ReviewQueueSize: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "review_queue_size",
				Help:      "Number of prompts in the most recently built review queue.",
			},
		),

		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency in seconds.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route", "status"},
		),
	}

	reg.MustRegister(
		m.VotesTotal,
		m.VotesRateLimitedTotal,
		m.RateLimiterFailOpenTotal,
		m.PromptWritesTotal,
		m.ChildWriteFailuresTotal,
		m.ReviewQueueSize,
		m.HTTPRequestDuration,
	)

	return m
}
