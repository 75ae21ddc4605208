package service

import (
	"StratLab/internal/domain/models"
)

// TableLoader reads a source and produces the cleaned return table.
type TableLoader interface {
	LoadAndClean(source string) (models.CleanedTable, error)
}

// RiskEstimator computes per-symbol VaR and ES at a confidence level.
type RiskEstimator interface {
	ComputeRisk(table models.CleanedTable, level float64) []models.RiskRecord
}

// FactorRegressor fits each symbol's returns against a market symbol.
type FactorRegressor interface {
	Regress(table models.CleanedTable, market string) ([]models.RegressionRecord, models.AlignmentDiagnostics)
}
