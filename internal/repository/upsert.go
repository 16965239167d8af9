package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"footysync/ingestion/internal/mapper"
	"footysync/ingestion/internal/metrics"
)

// DefaultChunkSize bounds the rows bound into a single upsert statement.
const DefaultChunkSize = 500

// UpsertWriter writes normalized rows in bounded, independently
// idempotent chunks. A failed chunk aborts the call immediately; chunks
// already written stay committed, and a retried run safely re-applies
// them. Every column in the table spec is bound explicitly (absent map
// keys become NULL), so a repeated upsert can never preserve stale column
// values from a differently-shaped row.
type UpsertWriter struct {
	db        *Database
	chunkSize int
}

// Upsert writes rows to the spec's table in chunks, resolving conflicts
// on the spec's conflict key.
func (w *UpsertWriter) Upsert(ctx context.Context, spec TableSpec, rows []mapper.Row) error {
	if len(rows) == 0 {
		return nil
	}

	chunkSize := w.chunkSize
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}

	for start := 0; start < len(rows); start += chunkSize {
		end := start + chunkSize
		if end > len(rows) {
			end = len(rows)
		}
		chunk := rows[start:end]

		query := buildUpsertSQL(spec, len(chunk))
		args := bindRows(spec, chunk)

		if _, err := w.db.Pool.Exec(ctx, query, args...); err != nil {
			return fmt.Errorf("upsert into %s failed: %w", spec.Name, err)
		}

		log.Debug().
			Str("table", spec.Name).
			Int("rows", len(chunk)).
			Msg("Chunk upserted")
	}

	metrics.RecordUpsert(spec.Name, len(rows))
	return nil
}

// buildUpsertSQL renders a multi-row INSERT ... ON CONFLICT DO UPDATE for
// the spec. Conflict-key columns are excluded from the update clause.
func buildUpsertSQL(spec TableSpec, rowCount int) string {
	cols := make([]string, len(spec.Columns))
	for i, col := range spec.Columns {
		cols[i] = quoteIdent(col)
	}

	values := make([]string, rowCount)
	placeholder := 1
	for row := 0; row < rowCount; row++ {
		params := make([]string, len(spec.Columns))
		for i := range spec.Columns {
			params[i] = fmt.Sprintf("$%d", placeholder)
			placeholder++
		}
		values[row] = "(" + strings.Join(params, ", ") + ")"
	}

	conflictCols := make([]string, len(spec.ConflictKey))
	isKey := make(map[string]bool, len(spec.ConflictKey))
	for i, col := range spec.ConflictKey {
		conflictCols[i] = quoteIdent(col)
		isKey[col] = true
	}

	var updates []string
	for _, col := range spec.Columns {
		if isKey[col] {
			continue
		}
		updates = append(updates, fmt.Sprintf("%s = EXCLUDED.%s", quoteIdent(col), quoteIdent(col)))
	}

	return fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES %s ON CONFLICT (%s) DO UPDATE SET %s",
		quoteIdent(spec.Name),
		strings.Join(cols, ", "),
		strings.Join(values, ", "),
		strings.Join(conflictCols, ", "),
		strings.Join(updates, ", "),
	)
}

// bindRows flattens the chunk into positional arguments matching
// buildUpsertSQL's placeholder order. Missing keys bind nil.
func bindRows(spec TableSpec, rows []mapper.Row) []any {
	args := make([]any, 0, len(rows)*len(spec.Columns))
	for _, row := range rows {
		for _, col := range spec.Columns {
			args = append(args, row[col])
		}
	}
	return args
}

func quoteIdent(name string) string {
	return `"` + name + `"`
}
