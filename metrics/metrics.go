// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "amplify_http_requests_total",
			Help: "HTTP requests by route template, method and status code",
		},
		[]string{"route", "method", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "amplify_http_request_duration_seconds",
			Help:    "HTTP request latency by route template and method",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)

	// MatchResponsesTotal counts /matches/me answers; outcome is "matched" or "empty".
	MatchResponsesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "amplify_match_responses_total",
			Help: "Match responses by requesting role and outcome",
		},
		[]string{"role", "outcome"},
	)

	MatchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "amplify_match_duration_seconds",
			Help:    "Time spent fetching candidates and ranking matches",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"role"},
	)

	TranscriptionJobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "amplify_transcription_jobs_total",
			Help: "Finished transcription jobs by final status",
		},
		[]string{"status"},
	)

	EmailsSentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "amplify_emails_sent_total",
			Help: "Outgoing emails by kind and result",
		},
		[]string{"kind", "result"},
	)
)
