package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"footysync/ingestion/internal/metrics"
)

// Cursor is the last synchronized position of one entity stream. A zero
// Cursor means "sync from the beginning".
type Cursor struct {
	LastID        int64
	LastTimestamp string
}

// Advance returns the cursor moved forward to the observed position,
// never backward. last_id must be monotonically non-decreasing across
// runs even when an out-of-order upstream page reports a lower maximum.
func (c Cursor) Advance(observedID int64, observedTS string) Cursor {
	next := c
	if observedID > next.LastID {
		next.LastID = observedID
	}
	if observedTS != "" {
		next.LastTimestamp = observedTS
	}
	return next
}

// CursorStore persists delta cursors in the ingestion_state table, one
// row per entity stream.
type CursorStore struct {
	db *Database
}

// Get retrieves the cursor for an entity. An absent entity yields the
// zero cursor.
func (s *CursorStore) Get(ctx context.Context, entity string) (Cursor, error) {
	query := `
		SELECT COALESCE(last_id, 0), COALESCE(last_timestamp, '')
		FROM ingestion_state
		WHERE entity = $1
	`

	var cursor Cursor
	err := s.db.Pool.QueryRow(ctx, query, entity).Scan(&cursor.LastID, &cursor.LastTimestamp)
	if errors.Is(err, pgx.ErrNoRows) {
		return Cursor{}, nil
	}
	if err != nil {
		return Cursor{}, fmt.Errorf("failed to read ingestion state for %s: %w", entity, err)
	}

	return cursor, nil
}

// Set upserts the cursor for an entity, last-write-wins. Callers must
// only pass cursors computed via Advance so last_id never regresses.
func (s *CursorStore) Set(ctx context.Context, entity string, cursor Cursor) error {
	query := `
		INSERT INTO ingestion_state (entity, last_id, last_timestamp)
		VALUES ($1, $2, NULLIF($3, ''))
		ON CONFLICT (entity) DO UPDATE SET
			last_id = EXCLUDED.last_id,
			last_timestamp = EXCLUDED.last_timestamp
	`

	if _, err := s.db.Pool.Exec(ctx, query, entity, cursor.LastID, cursor.LastTimestamp); err != nil {
		return fmt.Errorf("failed to update ingestion state for %s: %w", entity, err)
	}

	metrics.RecordCursor(entity, cursor.LastID)
	return nil
}
