package util

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCoerceNumeric(t *testing.T) {
	tests := []struct {
		name  string
		in    interface{}
		want  float64
		valid bool
	}{
		{"float", 1.5, 1.5, true},
		{"int", 42, 42, true},
		{"int64", int64(-7), -7, true},
		{"uint8", uint8(3), 3, true},
		{"float32", float32(0.25), 0.25, true},
		{"numeric string", "3.14", 3.14, true},
		{"padded string", "  -2.5 ", -2.5, true},
		{"exponent", "1e-3", 0.001, true},
		{"json number", json.Number("12.5"), 12.5, true},
		{"dash date", "2025-01-01", 0, false},
		{"slash date", "2025/01/01", 0, false},
		{"dotted date", "2025.01.01", 0, false},
		{"mixed separators", "2025-01/01", 0, false},
		{"text", "abc", 0, false},
		{"empty", "", 0, false},
		{"nil", nil, 0, false},
		{"time", time.Now(), 0, false},
		{"bytes", []byte("7"), 7, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := CoerceNumeric(tt.in)
			assert.Equal(t, tt.valid, ok)
			if tt.valid {
				assert.InDelta(t, tt.want, got, 1e-12)
			}
		})
	}
}

func TestCoerceNumericNeverPanics(t *testing.T) {
	inputs := []interface{}{struct{}{}, []int{1}, map[string]int{}, make(chan int), "--", "1-2-3", "9999999999"}
	for _, in := range inputs {
		assert.NotPanics(t, func() { _, _ = CoerceNumeric(in) })
	}
}

func TestLooksLikeDate(t *testing.T) {
	assert.True(t, LooksLikeDate("2025-01-01"))
	assert.True(t, LooksLikeDate("1999/12/31"))
	assert.False(t, LooksLikeDate("2025-1-1"))
	assert.False(t, LooksLikeDate("12345-6789"))
	assert.False(t, LooksLikeDate("2025-01-011"))
	assert.False(t, LooksLikeDate("0.12345678"))
}

func TestCoerceFinite(t *testing.T) {
	_, ok := CoerceFinite(math.NaN())
	assert.False(t, ok)
	_, ok = CoerceFinite("inf")
	assert.False(t, ok)
	v, ok := CoerceFinite("0.5")
	assert.True(t, ok)
	assert.Equal(t, 0.5, v)
}

func TestParseNumberIgnoresDateHeuristic(t *testing.T) {
	v, ok := ParseNumber(" 101.5 ")
	assert.True(t, ok)
	assert.Equal(t, 101.5, v)

	_, ok = ParseNumber("n/a")
	assert.False(t, ok)
	_, ok = ParseNumber(nil)
	assert.False(t, ok)
}

func TestFiniteOr(t *testing.T) {
	assert.Equal(t, 0.0, FiniteOr(math.Inf(1), 0))
	assert.Equal(t, 2.0, FiniteOr(2, 0))
}
