package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"footysync/ingestion/internal/metrics"
)

// Run statuses. Lock contention is a noop, not a failure.
const (
	RunSuccess = "success"
	RunError   = "error"
	RunNoop    = "noop"
)

// RunRecord is one row of the append-only ingestion_runs audit log: one
// row per invocation attempt that reached lock acquisition.
type RunRecord struct {
	Entity       string
	Status       string
	StartedAt    time.Time
	FinishedAt   time.Time
	Processed    int
	ErrorMessage string
	Details      map[string]any
}

// RunLog appends run records for observability.
type RunLog struct {
	db *Database
}

// Insert appends a run record. The audit trail must never take a run
// down with it, so failures are logged and swallowed.
func (l *RunLog) Insert(ctx context.Context, rec RunRecord) {
	if rec.FinishedAt.IsZero() {
		rec.FinishedAt = time.Now().UTC()
	}

	var details any
	if rec.Details != nil {
		encoded, err := json.Marshal(rec.Details)
		if err != nil {
			log.Warn().Err(err).Str("entity", rec.Entity).Msg("Failed to encode run details")
		} else {
			details = string(encoded)
		}
	}

	var errMsg any
	if rec.ErrorMessage != "" {
		errMsg = rec.ErrorMessage
	}

	query := `
		INSERT INTO ingestion_runs (
			id, entity, status, started_at, finished_at,
			processed_count, error_message, details
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := l.db.Pool.Exec(ctx, query,
		uuid.NewString(), rec.Entity, rec.Status, rec.StartedAt, rec.FinishedAt,
		rec.Processed, errMsg, details,
	)
	if err != nil {
		log.Error().Err(err).Str("entity", rec.Entity).Msg("Failed to insert ingestion run log")
		metrics.RecordError("run_log", "insert")
		return
	}

	metrics.RecordSyncRun(rec.Entity, rec.Status, rec.FinishedAt.Sub(rec.StartedAt).Seconds())
}
