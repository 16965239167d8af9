package sync

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func targetNames(resolved []Target) []string {
	names := make([]string, len(resolved))
	for i, target := range resolved {
		names[i] = target.Name
	}
	return names
}

func TestResolveTargets_EmptyMeansAll(t *testing.T) {
	resolved := ResolveTargets(nil)
	assert.Equal(t, targetOrder, targetNames(resolved), "empty request resolves every target in order")
}

func TestResolveTargets_UnknownDropped(t *testing.T) {
	resolved := ResolveTargets([]string{"fixture_events", "fixture_bogus"})
	assert.Equal(t, []string{"fixture_events"}, targetNames(resolved))
}

func TestResolveTargets_AllUnknownFallsBackToAll(t *testing.T) {
	resolved := ResolveTargets([]string{"fixture_bogus", "fixture_nonsense"})
	assert.Equal(t, targetOrder, targetNames(resolved),
		"dropping every unknown name leaves the default full set, not an empty run")
}

func TestResolveTargets_DependencyNotWritten(t *testing.T) {
	resolved := ResolveTargets([]string{"fixture_lineup_details"})
	assert.Equal(t, []string{"fixture_lineup_details"}, targetNames(resolved),
		"parent lineups ride along in the include expression, not the write set")
}

func TestIncludeExpression(t *testing.T) {
	resolved := ResolveTargets([]string{"fixture_events", "fixture_statistics"})
	assert.Equal(t, "events;statistics.type", IncludeExpression(resolved))

	resolved = ResolveTargets([]string{"fixture_lineup_details"})
	assert.Equal(t, "lineups.player;lineups.details.player", IncludeExpression(resolved))

	resolved = ResolveTargets([]string{"fixture_weather"})
	assert.Equal(t, "weatherReport", IncludeExpression(resolved))
}

func TestTargetCollect_LineupDetails(t *testing.T) {
	fixture := map[string]any{
		"id": 19134492.0,
		"lineups": []any{
			map[string]any{
				"id":        1.0,
				"player_id": 580.0,
				"details": []any{
					map[string]any{"id": 11.0, "type_id": 118.0},
					map[string]any{"id": 12.0, "type_id": 119.0},
				},
			},
		},
	}

	rows := targets["fixture_lineup_details"].Collect(fixture, "2024-05-01T00:00:00Z")
	require.Len(t, rows, 2)
	assert.Equal(t, 19134492.0, rows[0]["fixture_id"])
	assert.Equal(t, 1.0, rows[0]["lineup_id"], "detail rows carry the parent lineup id")
}

func TestTargetCollect_MainRefereeOnly(t *testing.T) {
	fixture := map[string]any{
		"id": 19134492.0,
		"referees": []any{
			map[string]any{"referee_id": 3.0, "type_id": 6.0},
			map[string]any{"referee_id": 4.0, "type_id": 7.0}, // assistant
			map[string]any{"referee_id": 5.0, "type_id": 8.0}, // fourth official
		},
	}

	rows := targets["fixture_referees"].Collect(fixture, "2024-05-01T00:00:00Z")
	require.Len(t, rows, 1, "only the main referee produces a link row")
	assert.Equal(t, 3.0, rows[0]["referee_id"])
	assert.Equal(t, "main", rows[0]["role"])
}

func TestTargetCollect_WeatherBothCasings(t *testing.T) {
	report := map[string]any{"humidity": 60.0}
	lower := map[string]any{"id": 1.0, "weatherreport": report}
	upper := map[string]any{"id": 2.0, "weatherReport": report}

	assert.Len(t, targets["fixture_weather"].Collect(lower, "ts"), 1)
	assert.Len(t, targets["fixture_weather"].Collect(upper, "ts"), 1)
	assert.Empty(t, targets["fixture_weather"].Collect(map[string]any{"id": 3.0}, "ts"),
		"no report, no row")
}

func TestTargetDedupeKeys(t *testing.T) {
	key := targets["fixture_participants"].DedupeKey
	a := key(map[string]any{"fixture_id": 1.0, "participant_id": 2.0})
	b := key(map[string]any{"fixture_id": 1.0, "participant_id": 2.0})
	c := key(map[string]any{"fixture_id": 1.0, "participant_id": 3.0})
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}
