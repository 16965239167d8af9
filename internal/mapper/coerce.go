// Package mapper converts raw upstream records into normalized rows ready
// for the upsert writer. All functions are pure: the upstream payload is
// untyped JSON and every field goes through explicit coercion, so a
// malformed value becomes NULL instead of poisoning a batch.
package mapper

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Row is a normalized destination row keyed by column name. A nil value
// (or an absent key) is written as SQL NULL.
type Row map[string]any

// ToFloat coerces a raw value to float64. Missing, empty and non-finite
// values yield nil, never NaN or 0.
func ToFloat(v any) any {
	switch val := v.(type) {
	case nil:
		return nil
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return nil
		}
		return val
	case float32:
		return ToFloat(float64(val))
	case int:
		return float64(val)
	case int64:
		return float64(val)
	case string:
		if val == "" {
			return nil
		}
		num, err := strconv.ParseFloat(val, 64)
		if err != nil || math.IsNaN(num) || math.IsInf(num, 0) {
			return nil
		}
		return num
	default:
		return nil
	}
}

// ToInt coerces a raw value to int64, truncating fractional parts the way
// the upstream encodes integers as JSON numbers.
func ToInt(v any) any {
	f := ToFloat(v)
	if f == nil {
		return nil
	}
	return int64(f.(float64))
}

// ToBool accepts boolean, numeric (0/non-zero) and string forms
// ("true"/"t"/"1"/"yes"/"y" and their negations, case-insensitive).
// Unrecognized values yield nil.
func ToBool(v any) any {
	switch val := v.(type) {
	case nil:
		return nil
	case bool:
		return val
	case float64:
		return val != 0
	case int:
		return val != 0
	case int64:
		return val != 0
	case string:
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "true", "1", "t", "yes", "y":
			return true
		case "false", "0", "f", "no", "n":
			return false
		}
		return nil
	default:
		return nil
	}
}

// BoolOr coerces like ToBool but substitutes def for nil. Used where the
// destination column is NOT NULL with a default.
func BoolOr(v any, def bool) bool {
	b := ToBool(v)
	if b == nil {
		return def
	}
	return b.(bool)
}

// ToTimestamp normalizes upstream date-times. The API returns
// "2024-01-02 15:04:05"; the space separator is rewritten to the standard
// T form. Values already in T form pass through unchanged.
func ToTimestamp(v any) any {
	s, ok := v.(string)
	if !ok || s == "" {
		return nil
	}
	if strings.Contains(s, "T") {
		return s
	}
	return strings.Replace(s, " ", "T", 1)
}

// StatValue extracts the payload of a nested statistic record. The data
// object carries exactly one of value, count, total or avg depending on
// the statistic type; they are inspected in that priority order and the
// first present value is projected both numerically (when convertible)
// and as text so downstream queries never re-parse the nested document.
func StatValue(stat map[string]any) (numeric any, text any) {
	data, ok := stat["data"].(map[string]any)
	if !ok {
		return nil, nil
	}
	var value any
	for _, key := range []string{"value", "count", "total", "avg"} {
		if v, present := data[key]; present && v != nil {
			value = v
			break
		}
	}
	if value == nil {
		return nil, nil
	}
	if f, ok := value.(float64); ok {
		return ToFloat(f), formatNumber(f)
	}
	return ToFloat(value), fmt.Sprintf("%v", value)
}

// formatNumber renders a JSON number without a trailing ".0" for whole
// values, matching the upstream's own text representation.
func formatNumber(f float64) string {
	if f == math.Trunc(f) && !math.IsInf(f, 0) {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// DedupeBy removes rows whose computed key repeats within the batch,
// preserving first-seen order. A single upstream response can repeat a
// nested relation across included parents, and duplicate keys in one
// batch violate the store's batch-uniqueness constraint.
func DedupeBy(rows []Row, keyOf func(Row) string) []Row {
	seen := make(map[string]struct{}, len(rows))
	result := make([]Row, 0, len(rows))
	for _, row := range rows {
		key := keyOf(row)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		result = append(result, row)
	}
	return result
}

// field returns the first present, non-nil value among the named keys.
func field(m map[string]any, keys ...string) any {
	for _, key := range keys {
		if v, ok := m[key]; ok && v != nil {
			return v
		}
	}
	return nil
}
