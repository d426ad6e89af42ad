// Copyright (C) 2025 Mentora Labs (oss@mentora.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package observability provides Prometheus metrics for the tutor service.
//
// Metrics cover the chat transition loop (signals in, outcomes out), every
// generator invocation by purpose, retrieval quality, and live session count.
// They are exposed on /metrics; all operations are thread-safe via
// Prometheus's internal locking.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "mentora"
const tutorSubsystem = "tutor"

// TutorMetrics holds all Prometheus metrics for the tutoring loop.
type TutorMetrics struct {
	// TransitionsTotal counts chat transitions.
	// Labels: signal (start, end, skip, hint, answer), outcome
	// (success, error).
	TransitionsTotal *prometheus.CounterVec

	// GeneratorCallsTotal counts LLM invocations.
	// Labels: purpose (score, reflection, hint, reference, summary),
	// status (success, error).
	GeneratorCallsTotal *prometheus.CounterVec

	// AccuracyScores observes the clamped accuracy of each submitted attempt.
	AccuracyScores prometheus.Histogram

	// RetrievedPassages observes how many passages each retrieval returned.
	RetrievedPassages prometheus.Histogram

	// ActiveSessions tracks live state machines in the registry.
	ActiveSessions prometheus.Gauge
}

// DefaultMetrics is the singleton instance, set by InitMetrics. All recorder
// helpers below are no-ops while it is nil, so tests need no setup.
var DefaultMetrics *TutorMetrics

// InitMetrics creates and registers all tutor metrics. Call once at startup.
func InitMetrics() *TutorMetrics {
	m := &TutorMetrics{
		TransitionsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: tutorSubsystem,
			Name:      "transitions_total",
			Help:      "Chat transitions by signal and outcome.",
		}, []string{"signal", "outcome"}),
		GeneratorCallsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: tutorSubsystem,
			Name:      "generator_calls_total",
			Help:      "LLM invocations by purpose and status.",
		}, []string{"purpose", "status"}),
		AccuracyScores: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: tutorSubsystem,
			Name:      "accuracy_scores",
			Help:      "Accuracy of submitted attempts.",
			Buckets:   prometheus.LinearBuckets(0, 10, 11),
		}),
		RetrievedPassages: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: tutorSubsystem,
			Name:      "retrieved_passages",
			Help:      "Passages returned per retrieval.",
			Buckets:   []float64{0, 1, 2, 3, 5, 10},
		}),
		ActiveSessions: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: tutorSubsystem,
			Name:      "active_sessions",
			Help:      "Live tutoring sessions in the registry.",
		}),
	}
	DefaultMetrics = m
	return m
}

// RecordTransition increments the transition counter.
func RecordTransition(signal, outcome string) {
	if DefaultMetrics == nil {
		return
	}
	DefaultMetrics.TransitionsTotal.WithLabelValues(signal, outcome).Inc()
}

// RecordGeneratorCall increments the generator counter.
func RecordGeneratorCall(purpose, status string) {
	if DefaultMetrics == nil {
		return
	}
	DefaultMetrics.GeneratorCallsTotal.WithLabelValues(purpose, status).Inc()
}

// ObserveAccuracy records one attempt's accuracy.
func ObserveAccuracy(accuracy int) {
	if DefaultMetrics == nil {
		return
	}
	DefaultMetrics.AccuracyScores.Observe(float64(accuracy))
}

// ObserveRetrievedPassages records one retrieval's passage count.
func ObserveRetrievedPassages(n int) {
	if DefaultMetrics == nil {
		return
	}
	DefaultMetrics.RetrievedPassages.Observe(float64(n))
}

// SetActiveSessions publishes the registry size.
func SetActiveSessions(n int) {
	if DefaultMetrics == nil {
		return
	}
	DefaultMetrics.ActiveSessions.Set(float64(n))
}
