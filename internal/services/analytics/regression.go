package analytics

import (
	"StratLab/internal/domain/models"
	"StratLab/pkg/logger"
	"StratLab/pkg/util"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// DefaultMarketSymbol is the benchmark regressed against when none is configured.
const DefaultMarketSymbol = "SPY"

// FactorRegression fits r_sym = alpha + beta * r_market per symbol on the
// fully aligned return matrix.
type FactorRegression struct {
	logger *logger.Logger
}

// NewFactorRegression creates a FactorRegression.
func NewFactorRegression(lgr *logger.Logger) *FactorRegression {
	return &FactorRegression{logger: logger.OrNop(lgr)}
}

// Regress returns one record per non-market column. When market is not a
// column the first column stands in and the diagnostics say so. Fewer than
// two columns or no aligned dates yield no records.
func (f *FactorRegression) Regress(table models.CleanedTable, market string) ([]models.RegressionRecord, models.AlignmentDiagnostics) {
	if market == "" {
		market = DefaultMarketSymbol
	}
	wide := PivotAligned(table)

	diag := models.AlignmentDiagnostics{
		RequestedMarket: market,
		MarketSymbol:    market,
		Columns:         wide.Columns,
		DatesTotal:      wide.DatesTotal,
		AlignedDates:    wide.Rows(),
		Clamped:         []string{},
	}

	if _, ok := wide.Column(market); !ok && len(wide.Columns) > 0 {
		diag.MarketSymbol = wide.Columns[0]
		diag.MarketFallback = true
		f.logger.Warn("market symbol not found, using fallback",
			logger.String("requested", market),
			logger.String("market", diag.MarketSymbol))
	}

	if len(wide.Columns) < 2 || wide.Rows() == 0 {
		return []models.RegressionRecord{}, diag
	}

	x, _ := wide.Column(diag.MarketSymbol)
	out := make([]models.RegressionRecord, 0, len(wide.Columns)-1)
	for i, sym := range wide.Columns {
		if sym == diag.MarketSymbol {
			continue
		}
		rec := fitOLS(x, wide.Values[i])
		rec.Symbol = sym
		if rec.Clamped {
			diag.Clamped = append(diag.Clamped, sym)
		}
		out = append(out, rec)
	}

	if len(diag.Clamped) > 0 {
		f.logger.Warn("degenerate regression clamped",
			logger.String("market", diag.MarketSymbol),
			logger.Strings("symbols", diag.Clamped))
	}
	return out, diag
}

// fitOLS regresses y on x with an intercept. A constant or too-short
// regressor, or any non-finite coefficient, falls back to beta=0 with
// alpha=mean(y) and marks the record as clamped.
func fitOLS(x, y []float64) models.RegressionRecord {
	var rec models.RegressionRecord
	n := len(x)

	degenerate := n < 2 || floats.Max(x) == floats.Min(x)
	if !degenerate {
		rec.Alpha, rec.Beta = stat.LinearRegression(x, y, nil, false)
	}
	if degenerate || !util.IsFinite(rec.Alpha) || !util.IsFinite(rec.Beta) {
		rec.Alpha = stat.Mean(y, nil)
		rec.Beta = 0
		rec.Clamped = true
	}

	if n < 2 {
		return rec
	}
	resid := make([]float64, n)
	for i := range x {
		resid[i] = y[i] - (rec.Alpha + rec.Beta*x[i])
	}
	v := util.FiniteOr(stat.Variance(resid, nil), 0)
	if v < 0 {
		v = 0
	}
	rec.ResidualVariance = v
	return rec
}
