package util

import (
	"math"
	"strings"
	"time"

	"github.com/spf13/cast"
)

// CoerceNumeric converts an arbitrary scalar to float64.
// It reports false for nil, non-numeric strings and strings shaped like a
// calendar date (e.g. "2025-01-01"), even when the date parts are digits.
func CoerceNumeric(v interface{}) (float64, bool) {
	switch x := v.(type) {
	case nil:
		return 0, false
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case string:
		return coerceString(x)
	case []byte:
		return coerceString(string(x))
	case time.Time, *time.Time, time.Duration:
		return 0, false
	}

	f, err := cast.ToFloat64E(v)
	if err != nil {
		return 0, false
	}
	return f, true
}

// CoerceFinite is CoerceNumeric restricted to finite results.
func CoerceFinite(v interface{}) (float64, bool) {
	f, ok := CoerceNumeric(v)
	if !ok || !IsFinite(f) {
		return 0, false
	}
	return f, true
}

// ParseNumber parses an ordinary numeric cell (no date heuristic).
func ParseNumber(v interface{}) (float64, bool) {
	switch x := v.(type) {
	case nil:
		return 0, false
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return 0, false
		}
		f, err := cast.ToFloat64E(s)
		return f, err == nil
	case []byte:
		return ParseNumber(string(x))
	case time.Time:
		return 0, false
	}
	f, err := cast.ToFloat64E(v)
	return f, err == nil
}

// LooksLikeDate reports whether s has the 4/2/2 calendar shape, e.g.
// 2025-01-01 or 2025/01/01. Both separators must be the same character.
func LooksLikeDate(s string) bool {
	if len(s) != 10 {
		return false
	}
	sep := s[4]
	if sep != '-' && sep != '/' && sep != '.' {
		return false
	}
	if s[7] != sep || strings.Count(s, string(sep)) != 2 {
		return false
	}
	return true
}

// IsFinite reports whether f is neither NaN nor ±Inf.
func IsFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// FiniteOr returns f when finite, otherwise def.
func FiniteOr(f, def float64) float64 {
	if IsFinite(f) {
		return f
	}
	return def
}

func coerceString(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" || LooksLikeDate(s) {
		return 0, false
	}
	f, err := cast.ToFloat64E(s)
	if err != nil {
		return 0, false
	}
	return f, true
}
