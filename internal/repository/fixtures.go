package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// FixtureStore resolves enrichment working sets from the fixtures table.
type FixtureStore struct {
	db *Database
}

// relationTables maps an enrichment target to the table probed by the
// missing-data query. Targets are validated against the sync package's
// allow-list before they reach this query, and the table names here are
// our own constants, so interpolating them is safe.
var relationTables = map[string]string{
	"fixture_participants":   FixtureParticipantsTable.Name,
	"fixture_scores":         FixtureScoresTable.Name,
	"fixture_periods":        FixturePeriodsTable.Name,
	"fixture_lineups":        FixtureLineupsTable.Name,
	"fixture_lineup_details": FixtureLineupDetailsTable.Name,
	"fixture_odds":           FixtureOddsTable.Name,
	"fixture_weather":        FixtureWeatherTable.Name,
	"fixture_events":         FixtureEventsTable.Name,
	"fixture_statistics":     FixtureStatisticsTable.Name,
	"fixture_referees":       FixtureRefereesTable.Name,
}

// RecentIDs returns the most recently updated fixtures starting within
// the window, newest update first.
func (s *FixtureStore) RecentIDs(ctx context.Context, since, until time.Time, limit int) ([]int64, error) {
	query := `
		SELECT id
		FROM fixtures
		WHERE starting_at >= $1 AND starting_at <= $2
		ORDER BY updated_at DESC
		LIMIT $3
	`

	rows, err := s.db.Pool.Query(ctx, query, since, until, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get fixtures to enrich: %w", err)
	}
	defer rows.Close()

	ids, err := scanIDs(rows)
	if err != nil {
		return nil, err
	}

	log.Debug().Int("count", len(ids)).Msg("Resolved recent fixtures")
	return ids, nil
}

// MissingIDs returns fixtures starting since the given time that lack
// rows in at least one of the requested relation tables. This is the
// self-healing path: a fixture only partially enriched by a failed run
// keeps being selected until every requested relation has rows.
func (s *FixtureStore) MissingIDs(ctx context.Context, targets []string, since time.Time, limit int) ([]int64, error) {
	var probes []string
	for _, target := range targets {
		table, ok := relationTables[target]
		if !ok {
			continue
		}
		probes = append(probes, fmt.Sprintf(
			"NOT EXISTS (SELECT 1 FROM %s r WHERE r.fixture_id = f.id)", table,
		))
	}
	if len(probes) == 0 {
		return nil, nil
	}

	query := fmt.Sprintf(`
		SELECT f.id
		FROM fixtures f
		WHERE f.starting_at >= $1
		  AND (%s)
		ORDER BY f.starting_at DESC
		LIMIT $2
	`, strings.Join(probes, " OR "))

	rows, err := s.db.Pool.Query(ctx, query, since, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get missing fixtures: %w", err)
	}
	defer rows.Close()

	ids, err := scanIDs(rows)
	if err != nil {
		return nil, err
	}

	log.Debug().
		Int("count", len(ids)).
		Strs("targets", targets).
		Msg("Resolved fixtures missing enrichment")
	return ids, nil
}

type rowScanner interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanIDs(rows rowScanner) ([]int64, error) {
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan fixture id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating fixture ids: %w", err)
	}
	return ids, nil
}
