package mapper

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToFloat(t *testing.T) {
	assert.Nil(t, ToFloat(nil), "nil should stay nil")
	assert.Nil(t, ToFloat(""), "empty string should become nil")
	assert.Nil(t, ToFloat("abc"), "non-numeric string should become nil")
	assert.Nil(t, ToFloat(math.NaN()), "NaN should become nil")
	assert.Nil(t, ToFloat(math.Inf(1)), "Inf should become nil")
	assert.Equal(t, 1.5, ToFloat(1.5), "float should pass through")
	assert.Equal(t, 2.5, ToFloat("2.5"), "numeric string should parse")
	assert.Equal(t, float64(3), ToFloat(3), "int should convert")
}

func TestToInt(t *testing.T) {
	assert.Nil(t, ToInt(nil), "nil should stay nil")
	assert.Nil(t, ToInt("x"), "non-numeric should become nil")
	assert.Equal(t, int64(42), ToInt(42.0), "JSON number should truncate to int64")
	assert.Equal(t, int64(7), ToInt(7.9), "fractional part is truncated")
	assert.Equal(t, int64(10), ToInt("10"), "numeric string should parse")
}

func TestToBool(t *testing.T) {
	assert.Nil(t, ToBool(nil), "nil should stay nil")
	assert.Nil(t, ToBool("maybe"), "unrecognized string should become nil")
	assert.Equal(t, true, ToBool(true))
	assert.Equal(t, false, ToBool(0.0))
	assert.Equal(t, true, ToBool(1.0))
	assert.Equal(t, true, ToBool("Yes"))
	assert.Equal(t, true, ToBool("t"))
	assert.Equal(t, false, ToBool("FALSE"))
	assert.Equal(t, false, ToBool("n"))
}

func TestBoolOr(t *testing.T) {
	assert.True(t, BoolOr(nil, true), "nil should take default")
	assert.False(t, BoolOr("garbage", false), "unrecognized should take default")
	assert.False(t, BoolOr("false", true), "explicit value wins over default")
}

func TestToTimestamp(t *testing.T) {
	assert.Nil(t, ToTimestamp(nil))
	assert.Nil(t, ToTimestamp(""))
	assert.Equal(t, "2024-05-01T18:30:00", ToTimestamp("2024-05-01 18:30:00"),
		"space separator should be rewritten to T")
	assert.Equal(t, "2024-05-01T18:30:00Z", ToTimestamp("2024-05-01T18:30:00Z"),
		"already-T form should pass through")
}

func TestStatValue(t *testing.T) {
	numeric, text := StatValue(map[string]any{"data": map[string]any{"value": 3.0}})
	assert.Equal(t, 3.0, numeric)
	assert.Equal(t, "3", text, "whole values should not carry a trailing .0")

	numeric, text = StatValue(map[string]any{"data": map[string]any{"avg": 7.25}})
	assert.Equal(t, 7.25, numeric)
	assert.Equal(t, "7.25", text)

	// value wins over count when both are present
	numeric, _ = StatValue(map[string]any{"data": map[string]any{
		"count": 9.0,
		"value": 4.0,
	}})
	assert.Equal(t, 4.0, numeric, "value has priority over count")

	// count wins over total
	numeric, _ = StatValue(map[string]any{"data": map[string]any{
		"total": 20.0,
		"count": 5.0,
	}})
	assert.Equal(t, 5.0, numeric, "count has priority over total")

	// non-numeric payload still projects as text
	numeric, text = StatValue(map[string]any{"data": map[string]any{"value": "45%"}})
	assert.Nil(t, numeric, "non-numeric value has no numeric projection")
	assert.Equal(t, "45%", text)

	numeric, text = StatValue(map[string]any{})
	assert.Nil(t, numeric)
	assert.Nil(t, text)
}

func TestDedupeBy(t *testing.T) {
	rows := []Row{
		{"id": "1", "v": "first"},
		{"id": "2", "v": "second"},
		{"id": "1", "v": "dup"},
	}

	deduped := DedupeBy(rows, func(r Row) string { return r["id"].(string) })
	require.Len(t, deduped, 2, "duplicate key should be dropped")
	assert.Equal(t, "first", deduped[0]["v"], "first occurrence wins")
	assert.Equal(t, "second", deduped[1]["v"], "order is preserved")
}
