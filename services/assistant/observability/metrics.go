// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package observability provides metrics and instrumentation for the assistant.
//
// # Description
//
// This package implements Prometheus metrics for monitoring chat turn
// processing. Metrics include:
//   - Turn counters and duration histograms (by status)
//   - Retrieval candidate histograms
//   - Telemetry write failure counters
//   - Upstream provider error counters (by provider)
//
// # Integration
//
// Metrics are exposed via /metrics endpoint. Use with Prometheus + Grafana
// for dashboards and alerting.
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
const metricsNamespace = "aleutian"

// Subsystem for assistant metrics
const assistantSubsystem = "assistant"

// AssistantMetrics holds all Prometheus metrics for chat turn processing.
//
// # Description
//
// Provides counters and histograms for monitoring turn throughput, latency,
// and retrieval behavior. Initialize once at startup via InitMetrics().
//
// # Thread Safety
//
// All operations are thread-safe.
type AssistantMetrics struct {
	// TurnsTotal counts completed chat turns.
	// Labels: status (success, error)
	TurnsTotal *prometheus.CounterVec

	// TurnDurationSeconds measures end-to-end turn duration.
	// Labels: status (success, error)
	TurnDurationSeconds *prometheus.HistogramVec

	// RetrievedArticles measures how many articles each turn retrieved.
	RetrievedArticles prometheus.Histogram

	// TelemetryFailuresTotal counts swallowed telemetry write failures.
	TelemetryFailuresTotal prometheus.Counter

	// ProviderErrorsTotal counts upstream provider failures.
	// Labels: provider (embedding, generation)
	ProviderErrorsTotal *prometheus.CounterVec

	// RateLimitedTotal counts requests rejected by the rate limiter.
	RateLimitedTotal prometheus.Counter
}

// DefaultMetrics is the singleton instance of AssistantMetrics.
// Initialized by InitMetrics().
var DefaultMetrics *AssistantMetrics

// InitMetrics initializes the default metrics instance.
//
// # Description
//
// Creates and registers all Prometheus metrics. Should be called once
// at application startup, after Prometheus registry is available.
//
// # Limitations
//
//   - Panics if called twice (duplicate registration).
func InitMetrics() *AssistantMetrics {
	DefaultMetrics = &AssistantMetrics{
		TurnsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: assistantSubsystem,
				Name:      "turns_total",
				Help:      "Total number of chat turns by status",
			},
			[]string{"status"},
		),

		TurnDurationSeconds: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: assistantSubsystem,
				Name:      "turn_duration_seconds",
				Help:      "End-to-end chat turn duration in seconds",
				Buckets:   []float64{0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0},
			},
			[]string{"status"},
		),

		RetrievedArticles: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: assistantSubsystem,
				Name:      "retrieved_articles",
				Help:      "Number of ranked articles returned per turn",
				Buckets:   []float64{0, 1, 2, 3, 4, 6, 8},
			},
		),

		TelemetryFailuresTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: assistantSubsystem,
				Name:      "telemetry_failures_total",
				Help:      "Total telemetry writes that failed and were discarded",
			},
		),

		ProviderErrorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: assistantSubsystem,
				Name:      "provider_errors_total",
				Help:      "Total upstream provider call failures by provider",
			},
			[]string{"provider"},
		),

		RateLimitedTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: assistantSubsystem,
				Name:      "rate_limited_total",
				Help:      "Total requests rejected by the rate limiter",
			},
		),
	}

	return DefaultMetrics
}
