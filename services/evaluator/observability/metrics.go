// Copyright (C) 2025 Attestix Labs (eng@attestix.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package observability provides Prometheus metrics for the evaluator
// service.
//
// # Description
//
// Metrics cover the three request paths:
//   - Evaluation counters by classification, with a risk-score histogram
//   - Arena run counters by termination reason, with an iteration histogram
//   - Hybrid blend fallbacks
//
// # Integration
//
// Metrics are exposed via the /metrics endpoint. Use with Prometheus +
// Grafana for dashboards and alerting.
//
// # Thread Safety
//
// All metric operations are thread-safe via Prometheus's internal locking.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// =============================================================================
// Metric Definitions
// =============================================================================

// Namespace for all metrics
const metricsNamespace = "redline"

// Subsystem for evaluator metrics
const evaluatorSubsystem = "evaluator"

// EvaluatorMetrics holds all Prometheus metrics for the evaluator
// service. Initialize once at startup via InitMetrics().
type EvaluatorMetrics struct {
	// EvaluationsTotal counts evaluations by classification.
	// Labels: classification (QUALIFYING, NON_QUALIFYING)
	EvaluationsTotal *prometheus.CounterVec

	// RiskScore observes the distribution of risk scores.
	RiskScore prometheus.Histogram

	// ArenaRunsTotal counts completed arena runs by outcome.
	// Labels: termination_reason (target_reached, max_iterations_reached, generator_failed)
	ArenaRunsTotal *prometheus.CounterVec

	// ArenaIterations observes how many iterations each run consumed.
	ArenaIterations prometheus.Histogram

	// HybridFallbacksTotal counts blend requests that fell back to the
	// rule score because the semantic judge failed.
	HybridFallbacksTotal prometheus.Counter

	// ErrorsTotal counts request errors by endpoint and error code.
	// Labels: endpoint, error_code (bad_request, generator_failed, internal)
	ErrorsTotal *prometheus.CounterVec
}

// DefaultMetrics is the singleton instance of EvaluatorMetrics.
// Initialized by InitMetrics().
var DefaultMetrics *EvaluatorMetrics

// InitMetrics creates and registers all Prometheus metrics. Call once
// at application startup; a second call panics on duplicate
// registration.
func InitMetrics() *EvaluatorMetrics {
	DefaultMetrics = &EvaluatorMetrics{
		EvaluationsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: evaluatorSubsystem,
				Name:      "evaluations_total",
				Help:      "Total number of narrative evaluations by classification",
			},
			[]string{"classification"},
		),

		RiskScore: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: evaluatorSubsystem,
				Name:      "risk_score",
				Help:      "Distribution of evaluation risk scores",
				Buckets:   prometheus.LinearBuckets(0, 10, 11),
			},
		),

		ArenaRunsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: evaluatorSubsystem,
				Name:      "arena_runs_total",
				Help:      "Total number of arena runs by termination reason",
			},
			[]string{"termination_reason"},
		),

		ArenaIterations: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: evaluatorSubsystem,
				Name:      "arena_iterations",
				Help:      "Iterations consumed per arena run",
				Buckets:   prometheus.LinearBuckets(1, 1, 10),
			},
		),

		HybridFallbacksTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: evaluatorSubsystem,
				Name:      "hybrid_fallbacks_total",
				Help:      "Hybrid blend requests that fell back to the rule score",
			},
		),

		ErrorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: evaluatorSubsystem,
				Name:      "errors_total",
				Help:      "Request errors by endpoint and error code",
			},
			[]string{"endpoint", "error_code"},
		),
	}
	return DefaultMetrics
}

// =============================================================================
// Recording Helpers
// =============================================================================

// RecordEvaluation records one completed evaluation. Safe to call
// when metrics are uninitialized (unit tests).
func RecordEvaluation(classification string, riskScore int) {
	if DefaultMetrics == nil {
		return
	}
	DefaultMetrics.EvaluationsTotal.WithLabelValues(classification).Inc()
	DefaultMetrics.RiskScore.Observe(float64(riskScore))
}

// RecordArenaRun records one completed or failed arena run.
func RecordArenaRun(terminationReason string, iterations int) {
	if DefaultMetrics == nil {
		return
	}
	DefaultMetrics.ArenaRunsTotal.WithLabelValues(terminationReason).Inc()
	if iterations > 0 {
		DefaultMetrics.ArenaIterations.Observe(float64(iterations))
	}
}

// RecordHybridFallback records a blend that lost its judge.
func RecordHybridFallback() {
	if DefaultMetrics == nil {
		return
	}
	DefaultMetrics.HybridFallbacksTotal.Inc()
}

// RecordError records a request error.
func RecordError(endpoint, errorCode string) {
	if DefaultMetrics == nil {
		return
	}
	DefaultMetrics.ErrorsTotal.WithLabelValues(endpoint, errorCode).Inc()
}
