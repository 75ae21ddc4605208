package usecase

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"StratLab/internal/domain/models"
	domrepo "StratLab/internal/domain/repository"
	"StratLab/pkg/logger"
	"StratLab/pkg/queue"
	"StratLab/pkg/util"

	"github.com/google/uuid"
)

// AnalysisTaskType is the queue message type handled by FactorAnalysisJob.
const AnalysisTaskType = "analysis.factor"

// AnalysisServiceConfig holds the request-facing limits.
type AnalysisServiceConfig struct {
	UploadDir         string
	AllowedExtensions []string
}

// AnalysisService is the entry point used by the HTTP handlers.
type AnalysisService struct {
	model   *FactorModel
	probe   *DataProbe
	store   domrepo.TaskStore
	queue   queue.QueueService
	metrics domrepo.Metrics
	cfg     AnalysisServiceConfig
	logger  *logger.Logger
}

func NewAnalysisService(
	model *FactorModel,
	probe *DataProbe,
	store domrepo.TaskStore,
	q queue.QueueService,
	metrics domrepo.Metrics,
	cfg AnalysisServiceConfig,
	lgr *logger.Logger,
) *AnalysisService {
	return &AnalysisService{
		model:   model,
		probe:   probe,
		store:   store,
		queue:   q,
		metrics: metrics,
		cfg:     cfg,
		logger:  logger.OrNop(lgr).Component("analysis_service"),
	}
}

// PreparedParams is the cleaned form of a caller's parameter map.
type PreparedParams struct {
	Numeric models.Params
	Dates   map[string]time.Time
	Skipped []string
}

// PrepareParams drops non-numeric values and validates the known keys.
func PrepareParams(raw map[string]interface{}) (PreparedParams, error) {
	numeric, dates, skipped, err := util.SplitParams(raw)
	if err != nil {
		return PreparedParams{}, fmt.Errorf("%w: %v", ErrInvalidParams, err)
	}
	if v, ok := numeric[models.ParamLambda]; ok && (v < 0 || v > 1) {
		return PreparedParams{}, fmt.Errorf("%w: lambda must be in [0,1], got %g", ErrInvalidParams, v)
	}
	if v, ok := numeric[models.ParamLevel]; ok && (v <= 0 || v >= 1) {
		return PreparedParams{}, fmt.Errorf("%w: level must be in (0,1), got %g", ErrInvalidParams, v)
	}
	return PreparedParams{Numeric: numeric, Dates: dates, Skipped: skipped}, nil
}

// ResolvePath maps a caller path onto the upload directory. Relative paths
// are joined to it; absolute paths must already lie inside it.
func (s *AnalysisService) ResolvePath(p string) (string, error) {
	p = strings.TrimSpace(p)
	if p == "" {
		return "", fmt.Errorf("%w: empty path", ErrInvalidPath)
	}
	root, err := filepath.Abs(s.cfg.UploadDir)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidPath, err)
	}
	full := p
	if !filepath.IsAbs(full) {
		full = filepath.Join(root, full)
	}
	full = filepath.Clean(full)

	rel, err := filepath.Rel(root, full)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrInvalidPath, p)
	}
	return full, nil
}

// AllowedExtension reports whether path's extension is accepted.
func (s *AnalysisService) AllowedExtension(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, a := range s.cfg.AllowedExtensions {
		if strings.EqualFold(a, ext) {
			return true
		}
	}
	return false
}

// RunSync runs the pipeline in the caller's goroutine. Only path, extension
// and parameter validation produce an error; pipeline failures are carried
// in the result.
func (s *AnalysisService) RunSync(ctx context.Context, path string, raw map[string]interface{}) (models.AnalysisResult, error) {
	full, err := s.ResolvePath(path)
	if err != nil {
		return models.AnalysisResult{}, err
	}
	if !s.AllowedExtension(full) {
		return models.AnalysisResult{}, fmt.Errorf("%w: %s", ErrExtensionNotAllowed, filepath.Ext(full))
	}
	params, err := PrepareParams(raw)
	if err != nil {
		return models.AnalysisResult{}, err
	}
	if len(params.Skipped) > 0 {
		s.logger.Debug("non-numeric params dropped", logger.Strings("keys", params.Skipped))
	}
	return s.Execute(full, params.Numeric), nil
}

// Execute runs the pipeline on an already resolved path and records metrics.
func (s *AnalysisService) Execute(path string, params models.Params) models.AnalysisResult {
	start := time.Now()
	res := s.model.Run(path, params)
	s.metrics.RecordLatency("pipeline", time.Since(start).Seconds())
	if res.Failed() {
		s.metrics.RecordRun("error")
		s.metrics.RecordError("pipeline")
	} else {
		s.metrics.RecordRun("ok")
		s.metrics.RecordRowsRejected(res.Diagnostics.RowsRejected)
	}
	return res
}

// Submit validates the request, stores a PENDING task and enqueues it.
func (s *AnalysisService) Submit(ctx context.Context, path string, raw map[string]interface{}) (*models.Task, error) {
	full, err := s.ResolvePath(path)
	if err != nil {
		return nil, err
	}
	if !s.AllowedExtension(full) {
		return nil, fmt.Errorf("%w: %s", ErrExtensionNotAllowed, filepath.Ext(full))
	}
	if _, err := os.Stat(full); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, models.ErrSourceNotFound
		}
		return nil, fmt.Errorf("stat %s: %w", full, err)
	}
	params, err := PrepareParams(raw)
	if err != nil {
		return nil, err
	}

	task := &models.Task{
		ID:        uuid.NewString(),
		State:     models.TaskPending,
		Path:      full,
		Params:    params.Numeric,
		Dates:     params.Dates,
		Skipped:   params.Skipped,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.Save(ctx, task); err != nil {
		s.metrics.RecordError("task_store")
		return nil, err
	}

	payload := models.AnalysisTaskPayload{TaskID: task.ID, Path: full, Params: raw}
	if err := s.queue.PublishMessage(ctx, AnalysisTaskType, payload); err != nil {
		s.metrics.RecordError("queue")
		now := time.Now().UTC()
		task.State = models.TaskFailure
		task.Error = fmt.Sprintf("enqueue failed: %v", err)
		task.FinishedAt = &now
		if serr := s.store.Save(ctx, task); serr != nil {
			s.logger.Error("save failed task", logger.String("task_id", task.ID), logger.Error(serr))
		}
		return nil, fmt.Errorf("enqueue task: %w", err)
	}

	s.metrics.RecordTask(string(models.TaskPending))
	s.logger.Info("analysis submitted",
		logger.String("task_id", task.ID),
		logger.String("path", full),
		logger.Any("params", params.Numeric))
	return task, nil
}

// Status returns the stored task.
func (s *AnalysisService) Status(ctx context.Context, id string) (*models.Task, error) {
	return s.store.Get(ctx, id)
}

// Probe runs the data loading probe on a caller path.
func (s *AnalysisService) Probe(path string, sample int) models.DataProbe {
	full, err := s.ResolvePath(path)
	if err != nil {
		return models.DataProbe{Error: err.Error(), CheckedAt: time.Now().UTC()}
	}
	return s.probe.Probe(full, sample)
}
