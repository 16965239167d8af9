package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"footysync/ingestion/internal/mapper"
)

func TestBuildUpsertSQL(t *testing.T) {
	spec := TableSpec{
		Name:        "fixture_participants",
		Columns:     []string{"fixture_id", "participant_id", "location", "updated_at"},
		ConflictKey: []string{"fixture_id", "participant_id"},
	}

	sql := buildUpsertSQL(spec, 2)

	assert.Contains(t, sql, `INSERT INTO "fixture_participants" ("fixture_id", "participant_id", "location", "updated_at")`)
	assert.Contains(t, sql, "($1, $2, $3, $4), ($5, $6, $7, $8)", "placeholders are numbered across rows")
	assert.Contains(t, sql, `ON CONFLICT ("fixture_id", "participant_id") DO UPDATE SET`)
	assert.Contains(t, sql, `"location" = EXCLUDED."location"`)
	assert.NotContains(t, sql, `"fixture_id" = EXCLUDED."fixture_id"`,
		"conflict key columns are excluded from the update clause")
}

func TestBindRows(t *testing.T) {
	spec := TableSpec{
		Name:        "t",
		Columns:     []string{"id", "name", "score"},
		ConflictKey: []string{"id"},
	}
	rows := []mapper.Row{
		{"id": int64(1), "name": "a", "score": 2.5},
		{"id": int64(2), "name": "b"}, // score absent
	}

	args := bindRows(spec, rows)
	require.Len(t, args, 6, "every column of every row is bound")
	assert.Equal(t, int64(1), args[0])
	assert.Equal(t, "a", args[1])
	assert.Equal(t, 2.5, args[2])
	assert.Equal(t, int64(2), args[3])
	assert.Nil(t, args[5], "absent keys bind NULL, wiping any stale value on conflict")
}

func TestTableSpecs_ConflictKeyInColumns(t *testing.T) {
	specs := []TableSpec{
		FixturesTable, FixtureEventsTable, FixtureStatisticsTable,
		FixtureParticipantsTable, FixtureScoresTable, FixturePeriodsTable,
		FixtureLineupsTable, FixtureLineupDetailsTable, FixtureOddsTable,
		FixtureWeatherTable, FixtureRefereesTable, RefereesTable,
		ContinentsTable, CountriesTable, RegionsTable, CitiesTable,
		CoreTypesTable, VenuesTable, LeaguesTable, SeasonsTable,
		StatesTable, StagesTable, RoundsTable, TeamsTable, PlayersTable,
	}

	for _, spec := range specs {
		cols := map[string]bool{}
		for _, col := range spec.Columns {
			cols[col] = true
		}
		for _, key := range spec.ConflictKey {
			assert.True(t, cols[key], "%s: conflict key %q must be a bound column", spec.Name, key)
		}
		assert.True(t, cols["updated_at"], "%s: every table carries updated_at", spec.Name)
	}
}
