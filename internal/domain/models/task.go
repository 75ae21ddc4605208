package models

import "time"

// TaskState is the lifecycle state of a queued analysis.
type TaskState string

const (
	TaskPending TaskState = "PENDING"
	TaskStarted TaskState = "STARTED"
	TaskSuccess TaskState = "SUCCESS"
	TaskFailure TaskState = "FAILURE"
)

// Terminal reports whether no further transitions are expected.
func (s TaskState) Terminal() bool {
	return s == TaskSuccess || s == TaskFailure
}

// Task is the tracked record of one asynchronous analysis.
type Task struct {
	ID         string               `json:"id"`
	State      TaskState            `json:"state"`
	Path       string               `json:"path"`
	Params     map[string]float64   `json:"params"`
	Dates      map[string]time.Time `json:"dates,omitempty"`
	Skipped    []string             `json:"skipped_params,omitempty"`
	Result     *AnalysisResult      `json:"result,omitempty"`
	Error      string               `json:"error,omitempty"`
	Attempts   int                  `json:"attempts"`
	CreatedAt  time.Time            `json:"created_at"`
	StartedAt  *time.Time           `json:"started_at,omitempty"`
	FinishedAt *time.Time           `json:"finished_at,omitempty"`
}

// AnalysisTaskPayload is the queue message body for a factor analysis.
// Params are the caller's raw values; the worker filters them again.
type AnalysisTaskPayload struct {
	TaskID string                 `json:"task_id"`
	Path   string                 `json:"path"`
	Params map[string]interface{} `json:"params"`
}

// AnalysisCompletedEvent is published when a task reaches a terminal state.
type AnalysisCompletedEvent struct {
	TaskID     string    `json:"task_id"`
	State      TaskState `json:"state"`
	Path       string    `json:"path"`
	Symbols    []string  `json:"symbols"`
	Error      string    `json:"error,omitempty"`
	FinishedAt time.Time `json:"finished_at"`
}
