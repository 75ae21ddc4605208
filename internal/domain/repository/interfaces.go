package repository

import (
	"context"

	"StratLab/internal/domain/models"
)

// TableReader decodes a tabular source into untyped cells.
type TableReader interface {
	Read(source string) (models.RawTable, error)
}

// TaskStore persists task status and results for polling.
type TaskStore interface {
	Save(ctx context.Context, t *models.Task) error
	Get(ctx context.Context, id string) (*models.Task, error)
}

// EventPublisher announces terminal analysis outcomes.
type EventPublisher interface {
	PublishCompleted(ctx context.Context, ev models.AnalysisCompletedEvent) error
	Close() error
}

// Metrics records pipeline and task telemetry.
type Metrics interface {
	RecordRun(status string)
	RecordTask(state string)
	RecordRowsRejected(n int)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
}
