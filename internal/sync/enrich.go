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
	enrichEntity = "fixture_enrichment"
	enrichLock   = "fixture_enrichment"
)

// ModeMissing selects fixtures lacking rows in at least one requested
// relation instead of the recently-updated window.
const ModeMissing = "missing"

// EnrichOptions tunes one enrichment pass.
type EnrichOptions struct {
	Limit       int
	BatchSize   int
	DaysBack    int
	DaysForward int
}

// EnrichRequest scopes one enrichment invocation. All fields are
// optional; the zero request enriches the recent window across every
// target.
type EnrichRequest struct {
	// FixtureIDs pins the working set explicitly, bypassing selection.
	FixtureIDs []int64 `json:"fixture_ids"`

	// RefereeIDs switches to direct referee-master sync; no fixtures
	// are touched.
	RefereeIDs []int64 `json:"referee_ids"`

	// Targets restricts which relations are enriched. Empty means all.
	Targets []string `json:"targets"`

	// Mode selects the working-set strategy when FixtureIDs is empty.
	Mode string `json:"mode"`

	// Limit, DaysBack and DaysForward override the configured bounds
	// for this invocation when positive.
	Limit       int `json:"limit"`
	DaysBack    int `json:"days_back"`
	DaysForward int `json:"days_forward"`
}

// Enricher backfills nested fixture relations for a bounded working
// set, and doubles as the direct referee-master sync.
type Enricher struct {
	Fetcher  Fetcher
	Writer   RowWriter
	Fixtures FixtureQuerier
	Runs     RunLogger
	Lock     Locker
	Opts     EnrichOptions
}

// Run executes one enrichment pass.
func (e *Enricher) Run(ctx context.Context, req EnrichRequest) (Result, error) {
	started := time.Now().UTC()
	runTS := started.Format(time.RFC3339)

	acquired, err := e.Lock.Acquire(ctx, enrichLock)
	if err != nil {
		log.Error().Err(err).Msg("Enrichment lock acquisition failed")
		metrics.RecordError(enrichEntity, "lock")
		e.Runs.Insert(ctx, repository.RunRecord{
			Entity:    enrichEntity,
			Status:    repository.RunNoop,
			StartedAt: started,
			Details:   map[string]any{"reason": "lock_error", "error": err.Error()},
		})
		return Result{Status: repository.RunNoop, Message: "Lock unavailable"}, nil
	}
	if !acquired {
		metrics.RecordLockContention(enrichLock)
		e.Runs.Insert(ctx, repository.RunRecord{
			Entity:    enrichEntity,
			Status:    repository.RunNoop,
			StartedAt: started,
			Details:   map[string]any{"reason": "concurrent_lock"},
		})
		return Result{Status: repository.RunNoop, Message: "Already running"}, nil
	}
	defer e.Lock.Release(ctx, enrichLock)

	trail := &client.Trail{}
	res, err := e.run(ctx, req, runTS, trail)
	if err != nil {
		metrics.RecordError(enrichEntity, "run")
		e.Runs.Insert(ctx, repository.RunRecord{
			Entity:       enrichEntity,
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
	e.Runs.Insert(ctx, repository.RunRecord{
		Entity:    enrichEntity,
		Status:    res.Status,
		StartedAt: started,
		Processed: res.Processed,
		Details:   res.Details,
	})
	return res, nil
}

func (e *Enricher) run(ctx context.Context, req EnrichRequest, runTS string, trail *client.Trail) (Result, error) {
	if len(req.RefereeIDs) > 0 {
		return e.syncReferees(ctx, req.RefereeIDs, runTS, trail)
	}

	resolved := ResolveTargets(req.Targets)

	ids, source, err := e.workingSet(ctx, req, resolved)
	if err != nil {
		return Result{}, err
	}
	if len(ids) == 0 {
		log.Info().Str("source", source).Msg("Enrichment found no fixtures")
		return Result{
			Status:  repository.RunNoop,
			Message: "No fixtures to enrich",
			Details: map[string]any{"source": source},
		}, nil
	}

	include := IncludeExpression(resolved)
	batchSize := e.Opts.BatchSize
	if batchSize <= 0 || batchSize > client.MaxMultiBatch {
		batchSize = client.MaxMultiBatch
	}

	collected := map[string][]mapper.Row{}
	var refMasters []mapper.Row
	var refLookup []int64
	wantReferees := false
	for _, target := range resolved {
		if target.Name == "fixture_referees" {
			wantReferees = true
		}
	}

	for _, batch := range batchIDs(ids, batchSize) {
		detailed, err := e.Fetcher.FetchFixturesMulti(ctx, batch, include, trail)
		if err != nil {
			return Result{}, fmt.Errorf("failed to fetch fixtures for enrichment: %w", err)
		}
		for _, fixture := range detailed {
			for _, target := range resolved {
				collected[target.Name] = append(collected[target.Name], target.Collect(fixture, runTS)...)
			}
			if wantReferees {
				masters, lookup := collectRefereeMasters(fixture, runTS)
				refMasters = append(refMasters, masters...)
				refLookup = append(refLookup, lookup...)
			}
		}
	}

	// Referee master rows must exist before the link rows reference
	// them. Nested referee entries often carry only ids; those are
	// backfilled from the referees endpoint.
	if wantReferees {
		backfilled, err := e.backfillReferees(ctx, refLookup, runTS, trail)
		if err != nil {
			return Result{}, err
		}
		masters := mapper.DedupeBy(append(refMasters, backfilled...), func(row mapper.Row) string {
			return fmt.Sprint(row["id"])
		})
		if err := e.Writer.Upsert(ctx, repository.RefereesTable, masters); err != nil {
			return Result{}, err
		}
	}

	details := map[string]any{
		"fixtures": len(ids),
		"source":   source,
	}
	for _, target := range resolved {
		rows := mapper.DedupeBy(collected[target.Name], target.DedupeKey)
		if err := e.Writer.Upsert(ctx, target.Table, rows); err != nil {
			return Result{}, err
		}
		details[target.Name] = len(rows)
	}

	log.Info().
		Int("fixtures", len(ids)).
		Str("source", source).
		Msg("Enrichment complete")

	return Result{
		Status:    repository.RunSuccess,
		Message:   fmt.Sprintf("Enriched %d fixtures", len(ids)),
		Processed: len(ids),
		Details:   details,
	}, nil
}

// workingSet resolves the fixture ids to enrich. Explicit ids win, then
// the missing-data probe, then the recent-updates window.
func (e *Enricher) workingSet(ctx context.Context, req EnrichRequest, resolved []Target) ([]int64, string, error) {
	limit := e.Opts.Limit
	if req.Limit > 0 {
		limit = req.Limit
	}

	if len(req.FixtureIDs) > 0 {
		ids := req.FixtureIDs
		if len(ids) > limit {
			ids = ids[:limit]
		}
		return ids, "explicit", nil
	}

	daysBack := e.Opts.DaysBack
	if req.DaysBack > 0 {
		daysBack = req.DaysBack
	}
	daysForward := e.Opts.DaysForward
	if req.DaysForward > 0 {
		daysForward = req.DaysForward
	}

	since := time.Now().UTC().AddDate(0, 0, -daysBack)
	if req.Mode == ModeMissing {
		names := make([]string, len(resolved))
		for i, target := range resolved {
			names[i] = target.Name
		}
		ids, err := e.Fixtures.MissingIDs(ctx, names, since, limit)
		return ids, ModeMissing, err
	}

	until := time.Now().UTC().AddDate(0, 0, daysForward)
	ids, err := e.Fixtures.RecentIDs(ctx, since, until, limit)
	return ids, "recent", err
}

// syncReferees is the direct mode: upsert referee master records by id,
// no fixture involvement.
func (e *Enricher) syncReferees(ctx context.Context, ids []int64, runTS string, trail *client.Trail) (Result, error) {
	var rows []mapper.Row
	for _, batch := range batchIDs(ids, client.MaxMultiBatch) {
		referees, err := e.Fetcher.FetchRefereesMulti(ctx, batch, trail)
		if err != nil {
			return Result{}, fmt.Errorf("failed to fetch referees: %w", err)
		}
		for _, ref := range referees {
			rows = append(rows, mapper.RefereeMaster(ref, runTS))
		}
	}

	rows = mapper.DedupeBy(rows, func(row mapper.Row) string {
		return fmt.Sprint(row["id"])
	})
	if err := e.Writer.Upsert(ctx, repository.RefereesTable, rows); err != nil {
		return Result{}, err
	}

	return Result{
		Status:    repository.RunSuccess,
		Message:   fmt.Sprintf("Synced %d referees", len(rows)),
		Processed: len(rows),
		Details:   map[string]any{"referees": len(rows)},
	}, nil
}

// collectRefereeMasters extracts master rows for a fixture's main
// referees. Entries without a resolvable name are returned as lookup
// ids instead of rows.
func collectRefereeMasters(fixture map[string]any, runTS string) ([]mapper.Row, []int64) {
	var rows []mapper.Row
	var lookup []int64
	for _, ref := range mainReferees(fixture) {
		payload := ref
		nested, hasNested := ref["referee"].(map[string]any)
		if hasNested {
			payload = nested
		}
		row := mapper.RefereeMaster(payload, runTS)
		if row["name"] == nil && row["display_name"] == nil {
			if id, ok := refereeIDOf(ref).(float64); ok {
				lookup = append(lookup, int64(id))
			}
			continue
		}
		if !hasNested {
			// Link-shaped entry: make sure the master id is the
			// referee's, not the link record's.
			row["id"] = refereeIDOf(ref)
		}
		rows = append(rows, row)
	}
	return rows, lookup
}

// backfillReferees fetches master records for referees whose nested
// payload had no name.
func (e *Enricher) backfillReferees(ctx context.Context, ids []int64, runTS string, trail *client.Trail) ([]mapper.Row, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	seen := map[int64]bool{}
	var unique []int64
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			unique = append(unique, id)
		}
	}

	var rows []mapper.Row
	for _, batch := range batchIDs(unique, client.MaxMultiBatch) {
		referees, err := e.Fetcher.FetchRefereesMulti(ctx, batch, trail)
		if err != nil {
			return nil, fmt.Errorf("failed to backfill referees: %w", err)
		}
		for _, ref := range referees {
			rows = append(rows, mapper.RefereeMaster(ref, runTS))
		}
	}
	return rows, nil
}
