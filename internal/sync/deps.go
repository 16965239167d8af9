package sync

import (
	"context"
	"time"

	"footysync/ingestion/internal/client"
	"footysync/ingestion/internal/mapper"
	"footysync/ingestion/internal/repository"
)

// Locker is the single-flight guard seam.
type Locker interface {
	Acquire(ctx context.Context, name string) (bool, error)
	Release(ctx context.Context, name string)
}

// Fetcher is the slice of the Sportmonks client the orchestrators use.
type Fetcher interface {
	CollectFixturesAfter(ctx context.Context, startAfter int64, limit int, trail *client.Trail) ([]map[string]any, int64, error)
	CollectFixturesBetween(ctx context.Context, fromDate, toDate string, trail *client.Trail) ([]map[string]any, error)
	FetchFixturesMulti(ctx context.Context, ids []int64, include string, trail *client.Trail) ([]map[string]any, error)
	FetchRefereesMulti(ctx context.Context, ids []int64, trail *client.Trail) ([]map[string]any, error)
}

// RowWriter persists normalized rows.
type RowWriter interface {
	Upsert(ctx context.Context, spec repository.TableSpec, rows []mapper.Row) error
}

// CursorStore persists delta cursors.
type CursorStore interface {
	Get(ctx context.Context, entity string) (repository.Cursor, error)
	Set(ctx context.Context, entity string, cursor repository.Cursor) error
}

// RunLogger appends to the run audit log.
type RunLogger interface {
	Insert(ctx context.Context, rec repository.RunRecord)
}

// FixtureQuerier resolves enrichment working sets.
type FixtureQuerier interface {
	RecentIDs(ctx context.Context, since, until time.Time, limit int) ([]int64, error)
	MissingIDs(ctx context.Context, targets []string, since time.Time, limit int) ([]int64, error)
}

// Result summarizes one orchestrator invocation. Noop results (lock
// contention, empty working set) are successful outcomes, not errors.
type Result struct {
	Status    string
	Message   string
	Processed int
	Details   map[string]any
}

// Noop reports whether the run ended without doing work.
func (r Result) Noop() bool {
	return r.Status == repository.RunNoop
}

func batchIDs(ids []int64, size int) [][]int64 {
	if size <= 0 {
		size = 1
	}
	var batches [][]int64
	for start := 0; start < len(ids); start += size {
		end := start + size
		if end > len(ids) {
			end = len(ids)
		}
		batches = append(batches, ids[start:end])
	}
	return batches
}

func fixtureID(fixture map[string]any) int64 {
	if id, ok := fixture["id"].(float64); ok {
		return int64(id)
	}
	return 0
}
