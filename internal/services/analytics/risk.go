package analytics

import (
	"math"

	"StratLab/internal/domain/models"
	"StratLab/pkg/logger"
	"StratLab/pkg/util"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// DefaultConfidenceLevel is used when a caller passes a level outside (0, 1).
const DefaultConfidenceLevel = 0.99

// ParametricRisk estimates one-period Gaussian VaR and ES per symbol.
type ParametricRisk struct {
	logger *logger.Logger
}

// NewParametricRisk creates a ParametricRisk.
func NewParametricRisk(lgr *logger.Logger) *ParametricRisk {
	return &ParametricRisk{logger: logger.OrNop(lgr)}
}

// ComputeRisk returns one record per symbol that has at least one valid
// return, in table order.
func (p *ParametricRisk) ComputeRisk(table models.CleanedTable, level float64) []models.RiskRecord {
	if level <= 0 || level >= 1 || math.IsNaN(level) {
		p.logger.Warn("confidence level out of range, using default",
			logger.Float64("level", level),
			logger.Float64("default", DefaultConfidenceLevel))
		level = DefaultConfidenceLevel
	}

	groups := table.Groups()
	out := make([]models.RiskRecord, 0, len(groups))
	for _, sym := range table.Symbols() {
		sample := finiteReturns(groups[sym])
		if len(sample) == 0 {
			continue
		}
		v, es := VaRES(sample, level)
		out = append(out, models.RiskRecord{Symbol: sym, VaR: v, ES: es})
	}
	return out
}

// VaRES computes parametric VaR and ES as non-negative loss magnitudes.
// An empty sample gives zero; a zero-variance sample gives max(0, -mean).
func VaRES(sample []float64, level float64) (float64, float64) {
	if len(sample) == 0 {
		return 0, 0
	}

	mu := stat.Mean(sample, nil)
	sigma := 0.0
	if len(sample) > 1 {
		sigma = stat.StdDev(sample, nil)
	}
	if sigma == 0 || !util.IsFinite(sigma) {
		loss := math.Max(0, -mu)
		return loss, loss
	}

	tail := 1 - level
	z := math.Abs(distuv.UnitNormal.Quantile(tail))
	v := math.Max(0, -(mu - z*sigma))
	es := math.Max(0, -(mu - sigma*distuv.UnitNormal.Prob(z)/tail))
	return v, es
}

// finiteReturns re-validates returns before they enter any statistic.
func finiteReturns(rows []models.ReturnObservation) []float64 {
	out := make([]float64, 0, len(rows))
	for _, r := range rows {
		if f, ok := util.CoerceFinite(r.Return); ok {
			out = append(out, f)
		}
	}
	return out
}
