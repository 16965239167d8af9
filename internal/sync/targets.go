// Package sync contains the orchestrators for the three ingestion modes:
// delta catch-up, per-fixture enrichment, and reference seeding.
package sync

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"footysync/ingestion/internal/mapper"
	"footysync/ingestion/internal/repository"
)

// Target is one enrichable fixture relation: the include tokens that
// pull its payload into a fixture lookup, the table its rows land in,
// the dedupe identity of a row, and the collector that turns one raw
// fixture into rows.
type Target struct {
	Name      string
	Includes  []string
	Table     repository.TableSpec
	DedupeKey func(mapper.Row) string
	Collect   func(fixture map[string]any, runTS string) []mapper.Row

	// Requires names targets whose include tokens must ride along so
	// this target's nested parents appear in the payload; the parent
	// relation itself is only written when requested.
	Requires []string
}

// targetOrder fixes upsert ordering so FK parents land before children
// within one batch.
var targetOrder = []string{
	"fixture_participants",
	"fixture_scores",
	"fixture_periods",
	"fixture_lineups",
	"fixture_lineup_details",
	"fixture_odds",
	"fixture_weather",
	"fixture_events",
	"fixture_statistics",
	"fixture_referees",
}

var targets = map[string]Target{
	"fixture_events": {
		Name:      "fixture_events",
		Includes:  []string{"events"},
		Table:     repository.FixtureEventsTable,
		DedupeKey: idKey("id"),
		Collect: func(fixture map[string]any, runTS string) []mapper.Row {
			var rows []mapper.Row
			for _, event := range listField(fixture, "events") {
				rows = append(rows, mapper.Event(event, runTS))
			}
			return rows
		},
	},
	"fixture_statistics": {
		Name:      "fixture_statistics",
		Includes:  []string{"statistics.type"},
		Table:     repository.FixtureStatisticsTable,
		DedupeKey: idKey("id"),
		Collect: func(fixture map[string]any, runTS string) []mapper.Row {
			var rows []mapper.Row
			for _, stat := range listField(fixture, "statistics") {
				rows = append(rows, mapper.Statistic(stat, runTS))
			}
			return rows
		},
	},
	"fixture_participants": {
		Name:      "fixture_participants",
		Includes:  []string{"participants"},
		Table:     repository.FixtureParticipantsTable,
		DedupeKey: idKey("fixture_id", "participant_id"),
		Collect: func(fixture map[string]any, runTS string) []mapper.Row {
			var rows []mapper.Row
			for _, participant := range listField(fixture, "participants") {
				rows = append(rows, mapper.Participant(participant, fixture["id"], runTS))
			}
			return rows
		},
	},
	"fixture_scores": {
		Name:      "fixture_scores",
		Includes:  []string{"scores"},
		Table:     repository.FixtureScoresTable,
		DedupeKey: idKey("id"),
		Collect: func(fixture map[string]any, runTS string) []mapper.Row {
			var rows []mapper.Row
			for _, score := range listField(fixture, "scores") {
				rows = append(rows, mapper.Score(score, fixture["id"], runTS))
			}
			return rows
		},
	},
	"fixture_periods": {
		Name:      "fixture_periods",
		Includes:  []string{"periods"},
		Table:     repository.FixturePeriodsTable,
		DedupeKey: idKey("id"),
		Collect: func(fixture map[string]any, runTS string) []mapper.Row {
			var rows []mapper.Row
			for _, period := range listField(fixture, "periods") {
				rows = append(rows, mapper.Period(period, runTS))
			}
			return rows
		},
	},
	"fixture_lineups": {
		Name:      "fixture_lineups",
		Includes:  []string{"lineups.player"},
		Table:     repository.FixtureLineupsTable,
		DedupeKey: idKey("id"),
		Collect: func(fixture map[string]any, runTS string) []mapper.Row {
			var rows []mapper.Row
			for _, lineup := range listField(fixture, "lineups") {
				rows = append(rows, mapper.Lineup(lineup, runTS))
			}
			return rows
		},
	},
	"fixture_lineup_details": {
		Name:      "fixture_lineup_details",
		Includes:  []string{"lineups.details.player"},
		Table:     repository.FixtureLineupDetailsTable,
		DedupeKey: idKey("id"),
		Requires:  []string{"fixture_lineups"},
		Collect: func(fixture map[string]any, runTS string) []mapper.Row {
			var rows []mapper.Row
			for _, lineup := range listField(fixture, "lineups") {
				for _, detail := range listField(lineup, "details") {
					rows = append(rows, mapper.LineupDetail(detail, fixture["id"], lineup["id"], runTS))
				}
			}
			return rows
		},
	},
	"fixture_odds": {
		Name:      "fixture_odds",
		Includes:  []string{"odds"},
		Table:     repository.FixtureOddsTable,
		DedupeKey: idKey("id"),
		Collect: func(fixture map[string]any, runTS string) []mapper.Row {
			var rows []mapper.Row
			for _, odd := range listField(fixture, "odds") {
				rows = append(rows, mapper.Odds(odd, fixture["id"], runTS))
			}
			return rows
		},
	},
	"fixture_weather": {
		Name:      "fixture_weather",
		Includes:  []string{"weatherReport"},
		Table:     repository.FixtureWeatherTable,
		DedupeKey: idKey("fixture_id"),
		Collect: func(fixture map[string]any, runTS string) []mapper.Row {
			report, ok := fixture["weatherreport"].(map[string]any)
			if !ok {
				report, ok = fixture["weatherReport"].(map[string]any)
			}
			if !ok {
				return nil
			}
			return []mapper.Row{mapper.Weather(report, fixture["id"], runTS)}
		},
	},
	"fixture_referees": {
		Name:      "fixture_referees",
		Includes:  []string{"referees"},
		Table:     repository.FixtureRefereesTable,
		DedupeKey: idKey("fixture_id", "referee_id"),
		Collect: func(fixture map[string]any, runTS string) []mapper.Row {
			var rows []mapper.Row
			for _, ref := range mainReferees(fixture) {
				rows = append(rows, mapper.FixtureReferee(refereeIDOf(ref), fixture["id"], runTS))
			}
			return rows
		},
	},
}

// mainRefereeTypeID is the Sportmonks type for the match referee; other
// entries (assistants, VAR, fourth official) are ignored.
const mainRefereeTypeID = 6

func mainReferees(fixture map[string]any) []map[string]any {
	var mains []map[string]any
	for _, ref := range listField(fixture, "referees") {
		if id, ok := ref["type_id"].(float64); ok && int(id) == mainRefereeTypeID {
			mains = append(mains, ref)
		}
	}
	return mains
}

func refereeIDOf(ref map[string]any) any {
	if id, ok := ref["referee_id"]; ok && id != nil {
		return id
	}
	return ref["id"]
}

// ResolveTargets normalizes a requested target list into ordered
// targets. Unknown names are dropped with a warning rather than failing
// the run; an empty request, or one whose names were all dropped,
// resolves every target.
func ResolveTargets(names []string) []Target {
	requested := map[string]bool{}
	for _, name := range names {
		if _, ok := targets[name]; !ok {
			log.Warn().Str("target", name).Msg("Unknown enrichment target, skipping")
			continue
		}
		requested[name] = true
	}
	if len(requested) == 0 {
		for name := range targets {
			requested[name] = true
		}
	}

	var resolved []Target
	for _, name := range targetOrder {
		if requested[name] {
			resolved = append(resolved, targets[name])
		}
	}
	return resolved
}

// IncludeExpression builds the include parameter covering every
// resolved target plus the tokens of its Requires parents. Tokens are
// deduplicated; order follows targetOrder.
func IncludeExpression(resolved []Target) string {
	seen := map[string]bool{}
	expr := ""
	add := func(tokens []string) {
		for _, token := range tokens {
			if seen[token] {
				continue
			}
			seen[token] = true
			if expr != "" {
				expr += ";"
			}
			expr += token
		}
	}
	for _, target := range resolved {
		for _, dep := range target.Requires {
			add(targets[dep].Includes)
		}
		add(target.Includes)
	}
	return expr
}

// idKey builds a dedupe key from the named row columns.
func idKey(cols ...string) func(mapper.Row) string {
	return func(row mapper.Row) string {
		key := ""
		for i, col := range cols {
			if i > 0 {
				key += "|"
			}
			key += fmt.Sprint(row[col])
		}
		return key
	}
}

func listField(m map[string]any, key string) []map[string]any {
	raw, ok := m[key].([]any)
	if !ok {
		return nil
	}
	items := make([]map[string]any, 0, len(raw))
	for _, entry := range raw {
		if item, ok := entry.(map[string]any); ok {
			items = append(items, item)
		}
	}
	return items
}
