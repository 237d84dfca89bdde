// Package metrics provides Prometheus metrics for ConnWatch.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	namespace = "connwatch"
)

// HTTP metrics
var (
	// HTTPRequestsTotal counts HTTP requests by method, path, and status.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration tracks HTTP request latency.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)

	// HTTPRequestsInFlight tracks concurrent HTTP requests.
	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_in_flight",
			Help:      "Number of HTTP requests currently being processed",
		},
	)
)

// Event metrics
var (
	// EventsTotal counts recorded connectivity transitions by status.
	EventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "events",
			Name:      "total",
			Help:      "Total connectivity transitions recorded",
		},
		[]string{"status"},
	)

	// StoreEntries tracks the number of entries currently in the store.
	StoreEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "entries",
			Help:      "Number of log entries currently in the in-memory store",
		},
	)
)

// Persistence metrics
var (
	// FlushTotal counts snapshot flushes to the canonical file.
	FlushTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "persist",
			Name:      "flush_total",
			Help:      "Total snapshot flushes to the canonical database file",
		},
	)

	// FlushErrorsTotal counts failed flushes.
	FlushErrorsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "persist",
			Name:      "flush_errors_total",
			Help:      "Total failed snapshot flushes",
		},
	)

	// ArchiveTotal counts archive files written.
	ArchiveTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "persist",
			Name:      "archive_total",
			Help:      "Total backup archive files written",
		},
	)

	// ArchiveErrorsTotal counts failed archive writes.
	ArchiveErrorsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "persist",
			Name:      "archive_errors_total",
			Help:      "Total failed backup archive writes",
		},
	)

	// SnapshotBytes tracks the size of the most recent snapshot.
	SnapshotBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "persist",
			Name:      "snapshot_bytes",
			Help:      "Size in bytes of the most recently written snapshot",
		},
	)

	// LastFlushTimestamp records when the canonical file was last written.
	LastFlushTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "persist",
			Name:      "last_flush_timestamp_seconds",
			Help:      "Unix timestamp of the last successful flush",
		},
	)
)

// Probe metrics
var (
	// ProbesTotal counts connectivity probes by outcome.
	ProbesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "probe",
			Name:      "total",
			Help:      "Total connectivity probes by outcome",
		},
		[]string{"outcome"},
	)
)

// Notification metrics
var (
	// NotificationsTotal counts dispatched backup notifications.
	NotificationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notify",
			Name:      "total",
			Help:      "Total backup notifications dispatched",
		},
	)

	// NotificationsDroppedTotal counts notifications dropped by rate limiting.
	NotificationsDroppedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notify",
			Name:      "dropped_total",
			Help:      "Total backup notifications dropped due to rate limiting",
		},
	)
)
