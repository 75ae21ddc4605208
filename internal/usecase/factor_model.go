package usecase

import (
	"fmt"
	"sort"
	"time"

	"StratLab/internal/domain/models"
	domsvc "StratLab/internal/domain/service"
	"StratLab/internal/services/analytics"
	"StratLab/pkg/logger"
	"StratLab/pkg/util"

	"golang.org/x/sync/errgroup"
)

// FactorModelConfig holds the pipeline defaults.
type FactorModelConfig struct {
	MarketSymbol    string
	ConfidenceLevel float64
}

// FactorModel sequences load, risk and regression and packages the result.
// It holds no per-run state and is safe for concurrent use.
type FactorModel struct {
	loader domsvc.TableLoader
	risk   domsvc.RiskEstimator
	factor domsvc.FactorRegressor
	cfg    FactorModelConfig
	logger *logger.Logger
}

// NewFactorModel creates a FactorModel. Zero config values take the
// package defaults.
func NewFactorModel(
	loader domsvc.TableLoader,
	risk domsvc.RiskEstimator,
	factor domsvc.FactorRegressor,
	cfg FactorModelConfig,
	lgr *logger.Logger,
) *FactorModel {
	if cfg.MarketSymbol == "" {
		cfg.MarketSymbol = analytics.DefaultMarketSymbol
	}
	if !(cfg.ConfidenceLevel > 0 && cfg.ConfidenceLevel < 1) {
		cfg.ConfidenceLevel = analytics.DefaultConfidenceLevel
	}
	return &FactorModel{
		loader: loader,
		risk:   risk,
		factor: factor,
		cfg:    cfg,
		logger: logger.OrNop(lgr).Component("factor_model"),
	}
}

// Run executes the pipeline on source. It never panics and never returns
// an error: failures come back as a result with Error set.
func (m *FactorModel) Run(source string, params models.Params) (res models.AnalysisResult) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err := &models.StageError{Stage: "pipeline", Err: fmt.Errorf("panic: %v", r)}
			m.logger.Error("pipeline panicked", logger.String("source", source), logger.Error(err))
			res = models.NewErrorResult(err.Error())
		}
	}()

	res, err := m.run(source, params)
	if err != nil {
		m.logger.Error("pipeline failed",
			logger.String("source", source),
			logger.Error(err),
			logger.Duration("elapsed", time.Since(start)))
		return models.NewErrorResult(err.Error())
	}

	m.logger.Info("pipeline completed",
		logger.String("source", source),
		logger.Int("symbols", len(res.Summary.Data)),
		logger.Int("rows_rejected", res.Diagnostics.RowsRejected),
		logger.Duration("elapsed", time.Since(start)))
	return res
}

func (m *FactorModel) run(source string, params models.Params) (models.AnalysisResult, error) {
	table, err := m.loader.LoadAndClean(source)
	if err != nil {
		return models.AnalysisResult{}, err
	}

	if lambda := params.Lambda(); lambda != 0 {
		m.logger.Debug("shrinkage coefficient is reserved and not applied", logger.Float64("lambda", lambda))
	}
	level := params.Level(m.cfg.ConfidenceLevel)

	var (
		risk []models.RiskRecord
		regs []models.RegressionRecord
		diag models.AlignmentDiagnostics
		g    errgroup.Group
	)
	g.Go(guard("risk", func() {
		risk = m.risk.ComputeRisk(table, level)
	}))
	g.Go(guard("regression", func() {
		regs, diag = m.factor.Regress(table, m.cfg.MarketSymbol)
	}))
	if err := g.Wait(); err != nil {
		return models.AnalysisResult{}, err
	}

	return Package(table, risk, regs, diag), nil
}

// guard turns a panic inside fn into a StageError for stage.
func guard(stage string, fn func()) func() error {
	return func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = &models.StageError{Stage: stage, Err: fmt.Errorf("panic: %v", r)}
			}
		}()
		fn()
		return nil
	}
}

// Package inner-joins risk and regression records on symbol and builds the
// JSON-safe result. Rows are ordered by symbol and the chart series follow
// the same order. Non-finite values are written as 0.
func Package(
	table models.CleanedTable,
	risk []models.RiskRecord,
	regs []models.RegressionRecord,
	diag models.AlignmentDiagnostics,
) models.AnalysisResult {
	res := models.NewEmptyResult()
	res.Summary.Schema.Fields = models.SummaryFields()

	bySymbol := make(map[string]models.RegressionRecord, len(regs))
	for _, r := range regs {
		bySymbol[r.Symbol] = r
	}

	for _, rr := range risk {
		reg, ok := bySymbol[rr.Symbol]
		if !ok {
			continue
		}
		res.Summary.Data = append(res.Summary.Data, models.SummaryRecord{
			Symbol:      rr.Symbol,
			Beta:        util.FiniteOr(reg.Beta, 0),
			VaR:         util.FiniteOr(rr.VaR, 0),
			ES:          util.FiniteOr(rr.ES, 0),
			ResidualVar: util.FiniteOr(reg.ResidualVariance, 0),
		})
	}
	sort.Slice(res.Summary.Data, func(i, j int) bool {
		return res.Summary.Data[i].Symbol < res.Summary.Data[j].Symbol
	})

	for _, rec := range res.Summary.Data {
		res.VaRSeries.X = append(res.VaRSeries.X, rec.Symbol)
		res.VaRSeries.Y = append(res.VaRSeries.Y, rec.VaR)
		res.BetaSeries.X = append(res.BetaSeries.X, rec.Symbol)
		res.BetaSeries.Y = append(res.BetaSeries.Y, rec.Beta)
	}

	res.Diagnostics = models.Diagnostics{
		MarketSymbol:   diag.MarketSymbol,
		MarketFallback: diag.MarketFallback,
		AlignedDates:   diag.AlignedDates,
		RowsRead:       table.Stats.RowsRead,
		RowsRejected:   table.Stats.RowsRejected,
		Symbols:        table.Stats.Symbols,
		Clamped:        diag.Clamped,
	}
	if res.Diagnostics.Clamped == nil {
		res.Diagnostics.Clamped = []string{}
	}
	return res
}
