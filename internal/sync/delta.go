package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"footysync/ingestion/internal/client"
	"footysync/ingestion/internal/mapper"
	"footysync/ingestion/internal/metrics"
	"footysync/ingestion/internal/repository"
)

const (
	deltaEntity = "fixtures"
	deltaLock   = "delta_sync"
)

// deltaDetailTargets are the nested relations swept alongside the delta
// pass itself; the rest of the relations belong to enrichment.
var deltaDetailTargets = []string{"fixture_events", "fixture_statistics"}

// DeltaOptions tunes one delta pass.
type DeltaOptions struct {
	Limit       int
	BatchSize   int
	DaysBack    int
	DaysForward int
}

// DeltaRequest carries per-invocation overrides for a manually
// triggered pass. Zero values defer to the configured options and the
// stored cursor.
type DeltaRequest struct {
	// StartAfter overrides the stored cursor position for this pass.
	// The persisted cursor still only moves forward.
	StartAfter int64 `json:"start_after"`

	// Limit overrides the configured collection limit.
	Limit int `json:"limit"`

	// FromDate/ToDate (YYYY-MM-DD) pin the date window explicitly
	// instead of deriving it from the day offsets.
	FromDate string `json:"from_date"`
	ToDate   string `json:"to_date"`

	// DaysBack/DaysForward override the configured day offsets for
	// this pass when positive.
	DaysBack    int `json:"days_back"`
	DaysForward int `json:"days_forward"`
}

// Delta is the incremental catch-up orchestrator: it advances the
// fixtures cursor past everything upstream has added or touched since
// the last run, then sweeps events and statistics for the collected
// fixtures.
type Delta struct {
	Fetcher Fetcher
	Writer  RowWriter
	Cursors CursorStore
	Runs    RunLogger
	Lock    Locker
	Opts    DeltaOptions
}

// Run executes one delta pass. Lock contention and an empty upstream
// are noop results, not errors.
func (d *Delta) Run(ctx context.Context, req DeltaRequest) (Result, error) {
	started := time.Now().UTC()
	runTS := started.Format(time.RFC3339)

	acquired, err := d.Lock.Acquire(ctx, deltaLock)
	if err != nil {
		log.Error().Err(err).Msg("Delta sync lock acquisition failed")
		metrics.RecordError(deltaEntity, "lock")
		d.Runs.Insert(ctx, repository.RunRecord{
			Entity:    deltaEntity,
			Status:    repository.RunNoop,
			StartedAt: started,
			Details:   map[string]any{"reason": "lock_error", "error": err.Error()},
		})
		return Result{Status: repository.RunNoop, Message: "Lock unavailable"}, nil
	}
	if !acquired {
		metrics.RecordLockContention(deltaLock)
		d.Runs.Insert(ctx, repository.RunRecord{
			Entity:    deltaEntity,
			Status:    repository.RunNoop,
			StartedAt: started,
			Details:   map[string]any{"reason": "concurrent_lock"},
		})
		return Result{Status: repository.RunNoop, Message: "Already running"}, nil
	}
	defer d.Lock.Release(ctx, deltaLock)

	trail := &client.Trail{}
	res, err := d.run(ctx, req, started, runTS, trail)
	if err != nil {
		metrics.RecordError(deltaEntity, "run")
		d.Runs.Insert(ctx, repository.RunRecord{
			Entity:       deltaEntity,
			Status:       repository.RunError,
			StartedAt:    started,
			Processed:    res.Processed,
			ErrorMessage: err.Error(),
			Details:      map[string]any{"http": trail.HTTP},
		})
		return Result{Status: repository.RunError, Message: err.Error()}, err
	}

	if res.Details == nil {
		res.Details = map[string]any{}
	}
	res.Details["http"] = trail.HTTP
	d.Runs.Insert(ctx, repository.RunRecord{
		Entity:    deltaEntity,
		Status:    res.Status,
		StartedAt: started,
		Processed: res.Processed,
		Details:   res.Details,
	})
	return res, nil
}

func (d *Delta) run(ctx context.Context, req DeltaRequest, started time.Time, runTS string, trail *client.Trail) (Result, error) {
	cursor, err := d.Cursors.Get(ctx, deltaEntity)
	if err != nil {
		return Result{}, err
	}

	startAfter := cursor.LastID
	if req.StartAfter > 0 {
		startAfter = req.StartAfter
	}
	limit := d.Opts.Limit
	if req.Limit > 0 {
		limit = req.Limit
	}

	fixtures, lastID, err := d.Fetcher.CollectFixturesAfter(ctx, startAfter, limit, trail)
	if err != nil {
		return Result{}, err
	}

	// A recent date window catches in-place updates to fixtures the id
	// cursor already passed (score corrections, reschedules).
	from, to := d.window(req, started)
	if from != "" {
		window, err := d.Fetcher.CollectFixturesBetween(ctx, from, to, trail)
		if err != nil {
			return Result{}, err
		}
		fixtures = mergeFixtures(fixtures, window)
	}

	if len(fixtures) == 0 {
		log.Info().Int64("last_id", cursor.LastID).Msg("Delta sync found no new fixtures")
		return Result{
			Status:  repository.RunNoop,
			Message: "No new fixtures",
			Details: map[string]any{"last_id": cursor.LastID},
		}, nil
	}

	rows := make([]mapper.Row, 0, len(fixtures))
	ids := make([]int64, 0, len(fixtures))
	maxID := lastID
	maxTS := ""
	for _, fixture := range fixtures {
		row := mapper.Fixture(fixture, runTS)
		rows = append(rows, row)
		if ts, ok := row["starting_at"].(string); ok && ts > maxTS {
			maxTS = ts
		}
		if id := fixtureID(fixture); id > 0 {
			ids = append(ids, id)
			if id > maxID {
				maxID = id
			}
		}
	}
	if err := d.Writer.Upsert(ctx, repository.FixturesTable, rows); err != nil {
		return Result{}, err
	}

	detailCounts, err := d.sweepDetails(ctx, ids, runTS, trail)
	if err != nil {
		return Result{}, err
	}

	// The cursor moves strictly after all writes so an aborted run
	// re-collects the same window instead of skipping it.
	next := cursor.Advance(maxID, maxTS)
	if err := d.Cursors.Set(ctx, deltaEntity, next); err != nil {
		return Result{}, err
	}

	details := map[string]any{
		"fixtures": len(fixtures),
		"last_id":  next.LastID,
	}
	for name, count := range detailCounts {
		details[name] = count
	}

	log.Info().
		Int("fixtures", len(fixtures)).
		Int64("last_id", next.LastID).
		Dur("elapsed", time.Since(started)).
		Msg("Delta sync complete")

	return Result{
		Status:    repository.RunSuccess,
		Message:   fmt.Sprintf("Synced %d fixtures", len(fixtures)),
		Processed: len(fixtures),
		Details:   details,
	}, nil
}

// sweepDetails refetches the collected fixtures in batches with the
// events and statistics includes and upserts the nested rows.
func (d *Delta) sweepDetails(ctx context.Context, ids []int64, runTS string, trail *client.Trail) (map[string]int, error) {
	resolved := ResolveTargets(deltaDetailTargets)
	include := IncludeExpression(resolved)

	batchSize := d.Opts.BatchSize
	if batchSize <= 0 || batchSize > client.MaxMultiBatch {
		batchSize = client.MaxMultiBatch
	}

	collected := map[string][]mapper.Row{}
	for _, batch := range batchIDs(ids, batchSize) {
		detailed, err := d.Fetcher.FetchFixturesMulti(ctx, batch, include, trail)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch fixture details: %w", err)
		}
		for _, fixture := range detailed {
			for _, target := range resolved {
				collected[target.Name] = append(collected[target.Name], target.Collect(fixture, runTS)...)
			}
		}
	}

	counts := map[string]int{}
	for _, target := range resolved {
		rows := mapper.DedupeBy(collected[target.Name], target.DedupeKey)
		if err := d.Writer.Upsert(ctx, target.Table, rows); err != nil {
			return nil, err
		}
		counts[target.Name] = len(rows)
	}
	return counts, nil
}

// window resolves the date-window bounds for this pass. Explicit dates
// win, then per-request day offsets, then the configured offsets. An
// empty from disables the window.
func (d *Delta) window(req DeltaRequest, started time.Time) (from, to string) {
	if req.FromDate != "" && req.ToDate != "" {
		return req.FromDate, req.ToDate
	}
	daysBack := d.Opts.DaysBack
	if req.DaysBack > 0 {
		daysBack = req.DaysBack
	}
	daysForward := d.Opts.DaysForward
	if req.DaysForward > 0 {
		daysForward = req.DaysForward
	}
	if daysBack <= 0 && daysForward <= 0 {
		return "", ""
	}
	return started.AddDate(0, 0, -daysBack).Format("2006-01-02"),
		started.AddDate(0, 0, daysForward).Format("2006-01-02")
}

// mergeFixtures unions the two collections, keeping the delta page's
// version when a fixture appears in both.
func mergeFixtures(primary, window []map[string]any) []map[string]any {
	seen := make(map[int64]bool, len(primary))
	for _, fixture := range primary {
		if id := fixtureID(fixture); id > 0 {
			seen[id] = true
		}
	}
	for _, fixture := range window {
		if id := fixtureID(fixture); id > 0 && !seen[id] {
			seen[id] = true
			primary = append(primary, fixture)
		}
	}
	return primary
}
