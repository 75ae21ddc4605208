package util

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cast"
)

var dateKeyHints = []string{"date", "asof", "from", "to", "start", "end"}

// LooksLikeDateKey reports whether a parameter name hints at a date value.
func LooksLikeDateKey(key string) bool {
	k := strings.ToLower(key)
	for _, h := range dateKeyHints {
		if strings.Contains(k, h) {
			return true
		}
	}
	return false
}

// EnsureNumericParams keeps the values that convert to finite floats.
// Skipped keys are returned sorted.
func EnsureNumericParams(raw map[string]interface{}) (map[string]float64, []string) {
	out := make(map[string]float64, len(raw))
	var skipped []string
	for k, v := range raw {
		if v == nil {
			skipped = append(skipped, k)
			continue
		}
		f, err := cast.ToFloat64E(v)
		if err != nil || !IsFinite(f) {
			skipped = append(skipped, k)
			continue
		}
		out[k] = f
	}
	sort.Strings(skipped)
	return out, skipped
}

// ParseDateParams parses values whose key hints at a date.
// Strings use ParseDate or ParseTime, numbers are unix seconds, and
// time.Time passes through. Other types are an error.
func ParseDateParams(raw map[string]interface{}) (map[string]time.Time, error) {
	out := make(map[string]time.Time)
	for k, v := range raw {
		if v == nil || !LooksLikeDateKey(k) {
			continue
		}
		switch x := v.(type) {
		case time.Time:
			out[k] = x.UTC()
		case string:
			t, ok := ParseDate(x)
			if !ok {
				t, ok = ParseTime(x)
			}
			if !ok {
				return nil, fmt.Errorf("param %s: unparseable date %q", k, x)
			}
			out[k] = t
		case int, int32, int64, float32, float64, uint, uint32, uint64:
			sec, err := cast.ToInt64E(x)
			if err != nil {
				return nil, fmt.Errorf("param %s: %w", k, err)
			}
			out[k] = time.Unix(sec, 0).UTC()
		default:
			return nil, fmt.Errorf("param %s: unsupported date type %T", k, v)
		}
	}
	return out, nil
}

// SplitParams separates date-hinted parameters from numeric ones.
// Date-hinted keys never appear in the numeric map.
func SplitParams(raw map[string]interface{}) (numeric map[string]float64, dates map[string]time.Time, skipped []string, err error) {
	dates, err = ParseDateParams(raw)
	if err != nil {
		return nil, nil, nil, err
	}
	rest := make(map[string]interface{}, len(raw))
	for k, v := range raw {
		if LooksLikeDateKey(k) {
			continue
		}
		rest[k] = v
	}
	numeric, skipped = EnsureNumericParams(rest)
	return numeric, dates, skipped, nil
}
