// Package metrics exposes Prometheus collectors for the assistant service.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/onecard-labs/cardassist/internal/dialogue"
)

var (
	turnsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assistant_turns_total",
			Help: "Total number of dialogue turns labeled by matched rule and status",
		},
		[]string{"rule", "status"},
	)
	turnDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "assistant_turn_duration_seconds",
			Help:    "Duration of dialogue turns in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"rule"},
	)
	intentTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assistant_intent_transitions_total",
			Help: "Total number of pending-intent transitions",
		},
		[]string{"from", "to"},
	)
	fallbackRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assistant_fallback_requests_total",
			Help: "Total number of remote fallback chat calls by status",
		},
		[]string{"status"},
	)
	errorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assistant_errors_total",
			Help: "Total number of errors split by code and severity",
		},
		[]string{"code", "severity"},
	)
	activeSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "assistant_active_sessions",
			Help: "Current number of live chat sessions",
		},
	)
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests by method, path, and status",
		},
		[]string{"method", "path", "status"},
	)
	httpRequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

func init() {
	dialogue.RegisterTransitionRecorder(RecordIntentTransition)
}

// RecordTurn increments turn counters and records duration.
func RecordTurn(rule, status string, duration time.Duration) {
	if rule == "" {
		rule = "unknown"
	}
	if status == "" {
		status = "unknown"
	}

	turnsTotal.WithLabelValues(rule, status).Inc()
	turnDurationSeconds.WithLabelValues(rule).Observe(duration.Seconds())
}

// RecordIntentTransition counts a pending-intent change.
func RecordIntentTransition(from, to string) {
	intentTransitionsTotal.WithLabelValues(from, to).Inc()
}

// RecordFallback counts one remote fallback call.
func RecordFallback(status string) {
	fallbackRequestsTotal.WithLabelValues(status).Inc()
}

// RecordError counts an application error occurrence.
func RecordError(code, severity string) {
	if code == "" {
		code = "unknown"
	}
	errorsTotal.WithLabelValues(code, severity).Inc()
}

// RecordHTTPRequest counts one served HTTP request.
func RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, path).Observe(duration.Seconds())
}

// SessionOpened increments the live session gauge.
func SessionOpened() { activeSessions.Inc() }

// SessionClosed decrements the live session gauge.
func SessionClosed() { activeSessions.Dec() }
