// Ticketbridge - Helpdesk Ticket to Work Board Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ticketbridge

// Package metrics holds the Prometheus instrumentation for sync passes,
// remote API calls and circuit breakers. A pass is a short-lived batch job,
// so metrics are delivered to a Pushgateway at the end of the run instead of
// being scraped.
package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
)

var (
	// Sync Pass Metrics
	ItemsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticketbridge_items_total",
			Help: "Total number of items handled by a sync pass, by outcome",
		},
		[]string{"pass", "outcome"}, // outcome: created, updated, unchanged, skipped_duplicate, not_found, failed, planned
	)

	RunDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ticketbridge_run_duration_seconds",
			Help:    "Duration of sync passes in seconds",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200},
		},
		[]string{"pass"},
	)

	RunLastSuccess = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ticketbridge_last_success_timestamp",
			Help: "Unix timestamp of the last pass that completed without a fatal error",
		},
		[]string{"pass"},
	)

	RunFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticketbridge_run_failures_total",
			Help: "Total number of passes aborted by a fatal setup error",
		},
		[]string{"pass"},
	)

	// Remote API Metrics
	RemoteCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ticketbridge_remote_call_duration_seconds",
			Help:    "Duration of calls to the ticketing and board services",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service", "operation"},
	)

	RemoteCallErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticketbridge_remote_call_errors_total",
			Help: "Total number of failed calls to the ticketing and board services",
		},
		[]string{"service", "operation"},
	)

	RateLimitRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticketbridge_rate_limit_retries_total",
			Help: "Total number of retries after an HTTP 429 response",
		},
		[]string{"service"},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerConsecutiveFailures = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_consecutive_failures",
			Help: "Current number of consecutive failures",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)
)

// RecordPass records the outcome counts and duration of a completed pass.
func RecordPass(pass string, outcomes map[string]int, duration time.Duration) {
	for outcome, n := range outcomes {
		if n > 0 {
			ItemsProcessed.WithLabelValues(pass, outcome).Add(float64(n))
		}
	}
	RunDuration.WithLabelValues(pass).Observe(duration.Seconds())
	RunLastSuccess.WithLabelValues(pass).Set(float64(time.Now().Unix()))
}

// RecordPassFailure records a pass aborted before it produced a summary.
func RecordPassFailure(pass string, duration time.Duration) {
	RunDuration.WithLabelValues(pass).Observe(duration.Seconds())
	RunFailures.WithLabelValues(pass).Inc()
}

// RecordRemoteCall records one call to a remote service.
func RecordRemoteCall(service, operation string, duration time.Duration, err error) {
	RemoteCallDuration.WithLabelValues(service, operation).Observe(duration.Seconds())
	if err != nil {
		RemoteCallErrors.WithLabelValues(service, operation).Inc()
	}
}

// RecordRateLimitRetry records a retry after HTTP 429.
func RecordRateLimitRetry(service string) {
	RateLimitRetries.WithLabelValues(service).Inc()
}

// Push delivers every registered metric to the Pushgateway at url under the
// given job name, replacing the previous push for that job.
func Push(ctx context.Context, url, job string) error {
	pusher := push.New(url, job).Gatherer(prometheus.DefaultGatherer)
	if err := pusher.PushContext(ctx); err != nil {
		return fmt.Errorf("failed to push metrics to %s: %w", url, err)
	}
	return nil
}
