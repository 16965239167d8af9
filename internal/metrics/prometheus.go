package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for the ingestion service

var (
	// API call metrics
	APICallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "footysync_api_calls_total",
			Help: "Total number of Sportmonks API calls",
		},
		[]string{"endpoint", "status"},
	)

	APICallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "footysync_api_call_duration_seconds",
			Help:    "Duration of API calls in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	APIRetriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "footysync_api_retries_total",
			Help: "Total number of retried API calls",
		},
		[]string{"endpoint"},
	)

	RatePausesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "footysync_rate_pauses_total",
			Help: "Total number of quota-driven pauses",
		},
		[]string{"endpoint"},
	)

	// Sync metrics
	SyncRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "footysync_sync_runs_total",
			Help: "Total number of sync runs",
		},
		[]string{"entity", "status"},
	)

	SyncDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "footysync_sync_duration_seconds",
			Help:    "Duration of sync runs in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"entity"},
	)

	RowsUpserted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "footysync_rows_upserted_total",
			Help: "Total number of rows upserted per table",
		},
		[]string{"table"},
	)

	CursorLastID = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "footysync_cursor_last_id",
			Help: "Last synchronized id per entity stream",
		},
		[]string{"entity"},
	)

	LockContentionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "footysync_lock_contentions_total",
			Help: "Total number of runs skipped because the lock was held",
		},
		[]string{"name"},
	)

	LastSuccessfulSync = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "footysync_last_successful_sync_timestamp",
			Help: "Timestamp of last successful sync per entity",
		},
		[]string{"entity"},
	)

	// Error metrics
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "footysync_errors_total",
			Help: "Total number of errors",
		},
		[]string{"component", "error_type"},
	)

	// System metrics
	SystemUptime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "footysync_system_uptime_seconds",
			Help: "System uptime in seconds",
		},
	)
)

// RecordAPICall records an API call metric
func RecordAPICall(endpoint, status string, duration float64) {
	APICallsTotal.WithLabelValues(endpoint, status).Inc()
	APICallDuration.WithLabelValues(endpoint).Observe(duration)
}

// RecordRetry records a retried API call
func RecordRetry(endpoint string) {
	APIRetriesTotal.WithLabelValues(endpoint).Inc()
}

// RecordRatePause records a quota-driven pause
func RecordRatePause(endpoint string) {
	RatePausesTotal.WithLabelValues(endpoint).Inc()
}

// RecordSyncRun records a completed sync run
func RecordSyncRun(entity, status string, duration float64) {
	SyncRunsTotal.WithLabelValues(entity, status).Inc()
	SyncDuration.WithLabelValues(entity).Observe(duration)

	if status == "success" {
		LastSuccessfulSync.WithLabelValues(entity).SetToCurrentTime()
	}
}

// RecordUpsert records rows written to a table
func RecordUpsert(table string, count int) {
	RowsUpserted.WithLabelValues(table).Add(float64(count))
}

// RecordCursor records the advanced cursor position for an entity
func RecordCursor(entity string, lastID int64) {
	CursorLastID.WithLabelValues(entity).Set(float64(lastID))
}

// RecordLockContention records a run skipped due to a held lock
func RecordLockContention(name string) {
	LockContentionsTotal.WithLabelValues(name).Inc()
}

// RecordError records an error
func RecordError(component, errorType string) {
	ErrorsTotal.WithLabelValues(component, errorType).Inc()
}
