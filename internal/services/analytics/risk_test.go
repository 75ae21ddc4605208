package analytics

import (
	"math"
	"testing"
	"time"

	"StratLab/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func series(sym string, returns ...float64) []models.ReturnObservation {
	out := make([]models.ReturnObservation, len(returns))
	for i, r := range returns {
		out[i] = models.ReturnObservation{
			Date:   time.Date(2025, 1, i+2, 0, 0, 0, 0, time.UTC),
			Symbol: sym,
			Price:  100,
			Return: r,
		}
	}
	return out
}

func tableOf(groups ...[]models.ReturnObservation) models.CleanedTable {
	var t models.CleanedTable
	for _, g := range groups {
		t.Rows = append(t.Rows, g...)
	}
	return t
}

func TestVaRESZeroVariance(t *testing.T) {
	v, es := VaRES([]float64{0, 0, 0, 0}, 0.99)
	assert.Equal(t, 0.0, v)
	assert.Equal(t, 0.0, es)
}

func TestVaRESConstantLoss(t *testing.T) {
	v, es := VaRES([]float64{-0.02}, 0.99)
	assert.InDelta(t, 0.02, v, 1e-12)
	assert.InDelta(t, 0.02, es, 1e-12)
}

func TestVaRESEmpty(t *testing.T) {
	v, es := VaRES(nil, 0.99)
	assert.Zero(t, v)
	assert.Zero(t, es)
}

func TestVaRESAnalytic(t *testing.T) {
	sample := []float64{0.01, -0.02, 0.015, -0.005, 0.003, -0.012, 0.02, -0.001}
	mu := 0.0
	for _, x := range sample {
		mu += x
	}
	mu /= float64(len(sample))
	ss := 0.0
	for _, x := range sample {
		ss += (x - mu) * (x - mu)
	}
	sigma := math.Sqrt(ss / float64(len(sample)-1))

	const z = 2.3263478740408408
	phi := math.Exp(-z*z/2) / math.Sqrt(2*math.Pi)

	v, es := VaRES(sample, 0.99)
	assert.InDelta(t, -(mu - z*sigma), v, 1e-9)
	assert.InDelta(t, -(mu - sigma*phi/0.01), es, 1e-9)
}

func TestVaRESOrdering(t *testing.T) {
	sample := []float64{0.012, 0.004, 0.02, -0.003, 0.009, 0.015, 0.001}
	for _, level := range []float64{0.9, 0.95, 0.99, 0.999} {
		v, es := VaRES(sample, level)
		assert.GreaterOrEqual(t, v, 0.0)
		assert.GreaterOrEqual(t, es, 0.0)
		assert.GreaterOrEqual(t, es, v, "level %v", level)
	}
}

func TestComputeRiskPerSymbol(t *testing.T) {
	r := NewParametricRisk(nil)
	table := tableOf(
		series("AAA", 0.01, -0.02, 0.005),
		series("BBB", 0, 0, 0),
		series("CCC", -0.01),
	)

	recs := r.ComputeRisk(table, 0.99)
	require.Len(t, recs, 3)
	assert.Equal(t, "AAA", recs[0].Symbol)
	assert.Greater(t, recs[0].VaR, 0.0)
	assert.GreaterOrEqual(t, recs[0].ES, recs[0].VaR)
	assert.Equal(t, models.RiskRecord{Symbol: "BBB"}, recs[1])
	assert.InDelta(t, 0.01, recs[2].VaR, 1e-12)
	assert.InDelta(t, 0.01, recs[2].ES, 1e-12)
}

func TestComputeRiskSkipsNonFiniteReturns(t *testing.T) {
	r := NewParametricRisk(nil)
	table := tableOf(series("AAA", math.NaN(), math.Inf(1)), series("BBB", 0.01, math.NaN()))

	recs := r.ComputeRisk(table, 0.99)
	require.Len(t, recs, 1)
	assert.Equal(t, "BBB", recs[0].Symbol)
	assert.Zero(t, recs[0].VaR)
}

func TestComputeRiskBadLevelFallsBack(t *testing.T) {
	r := NewParametricRisk(nil)
	table := tableOf(series("AAA", 0.01, -0.02, 0.005))

	want := r.ComputeRisk(table, DefaultConfidenceLevel)
	assert.Equal(t, want, r.ComputeRisk(table, 1.5))
	assert.Equal(t, want, r.ComputeRisk(table, 0))
}

func TestComputeRiskEmptyTable(t *testing.T) {
	recs := NewParametricRisk(nil).ComputeRisk(models.CleanedTable{}, 0.99)
	assert.Empty(t, recs)
}
