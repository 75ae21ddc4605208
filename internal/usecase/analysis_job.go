package usecase

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"StratLab/internal/domain/models"
	domrepo "StratLab/internal/domain/repository"
	"StratLab/pkg/logger"
	"StratLab/pkg/queue"
	"StratLab/pkg/util"
)

// FactorAnalysisJob runs queued analyses and records their outcome.
type FactorAnalysisJob struct {
	model     *FactorModel
	store     domrepo.TaskStore
	publisher domrepo.EventPublisher
	metrics   domrepo.Metrics
	logger    *logger.Logger
}

func NewFactorAnalysisJob(
	model *FactorModel,
	store domrepo.TaskStore,
	publisher domrepo.EventPublisher,
	metrics domrepo.Metrics,
	lgr *logger.Logger,
) *FactorAnalysisJob {
	return &FactorAnalysisJob{
		model:     model,
		store:     store,
		publisher: publisher,
		metrics:   metrics,
		logger:    logger.OrNop(lgr).Component("factor_analysis_job"),
	}
}

func (j *FactorAnalysisJob) Name() string { return "factor_analysis" }

func (j *FactorAnalysisJob) Type() string { return AnalysisTaskType }

// Handle returns an error only for infrastructure failures, which the queue
// retries. A malformed payload is permanent.
func (j *FactorAnalysisJob) Handle(ctx context.Context, payload interface{}) error {
	p, err := queue.ParsePayload[models.AnalysisTaskPayload](payload)
	if err != nil {
		return queue.Permanent(err)
	}
	if p.TaskID == "" {
		return queue.Permanent(fmt.Errorf("payload without task id"))
	}

	task, err := j.store.Get(ctx, p.TaskID)
	switch {
	case errors.Is(err, models.ErrTaskNotFound):
		task = &models.Task{ID: p.TaskID, Path: p.Path, CreatedAt: time.Now().UTC()}
	case err != nil:
		return err
	case task.State.Terminal():
		j.logger.Info("task already finished, skipping", logger.String("task_id", task.ID))
		return nil
	}

	now := time.Now().UTC()
	task.State = models.TaskStarted
	task.Attempts = queue.AttemptFromContext(ctx)
	task.StartedAt = &now
	if err := j.store.Save(ctx, task); err != nil {
		return err
	}
	j.metrics.RecordTask(string(models.TaskStarted))

	if _, err := os.Stat(p.Path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return j.finish(ctx, task, models.TaskFailure, nil, models.ErrSourceNotFound.Error())
		}
		return fmt.Errorf("stat %s: %w", p.Path, err)
	}

	params, skipped := util.EnsureNumericParams(withoutDateKeys(p.Params))
	if len(skipped) > 0 {
		j.logger.Debug("non-numeric params dropped",
			logger.String("task_id", task.ID),
			logger.Strings("keys", skipped))
	}
	task.Params = params

	start := time.Now()
	res := j.model.Run(p.Path, params)
	j.metrics.RecordLatency("task", time.Since(start).Seconds())
	if res.Failed() {
		j.metrics.RecordRun("error")
	} else {
		j.metrics.RecordRun("ok")
		j.metrics.RecordRowsRejected(res.Diagnostics.RowsRejected)
	}

	return j.finish(ctx, task, models.TaskSuccess, &res, "")
}

func (j *FactorAnalysisJob) finish(ctx context.Context, task *models.Task, state models.TaskState, res *models.AnalysisResult, msg string) error {
	now := time.Now().UTC()
	task.State = state
	task.Result = res
	task.Error = msg
	task.FinishedAt = &now
	if err := j.store.Save(ctx, task); err != nil {
		return err
	}
	j.metrics.RecordTask(string(state))

	ev := models.AnalysisCompletedEvent{
		TaskID:     task.ID,
		State:      state,
		Path:       task.Path,
		Symbols:    []string{},
		Error:      msg,
		FinishedAt: now,
	}
	if res != nil {
		ev.Error = res.Error
		for _, rec := range res.Summary.Data {
			ev.Symbols = append(ev.Symbols, rec.Symbol)
		}
	}
	if err := j.publisher.PublishCompleted(ctx, ev); err != nil {
		j.metrics.RecordError("event_publish")
		j.logger.Warn("publish completion event", logger.String("task_id", task.ID), logger.Error(err))
	}

	j.logger.Info("analysis finished",
		logger.String("task_id", task.ID),
		logger.String("state", string(state)),
		logger.Int("attempt", task.Attempts))
	return nil
}

func withoutDateKeys(raw map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(raw))
	for k, v := range raw {
		if !util.LooksLikeDateKey(k) {
			out[k] = v
		}
	}
	return out
}
