package models

import (
	"errors"
	"fmt"
)

var (
	// ErrSourceUnreadable means the source could not be decoded as a table.
	ErrSourceUnreadable = errors.New("source unreadable")
	// ErrUnsupportedFormat means the source extension has no reader.
	ErrUnsupportedFormat = errors.New("unsupported format")
	// ErrMissingColumn means a required Date/Symbol/Px column is absent.
	ErrMissingColumn = errors.New("missing required column")
	// ErrSourceNotFound means the source path does not exist.
	ErrSourceNotFound = errors.New("data file not found")
	// ErrComputation wraps unexpected failures inside a pipeline stage.
	ErrComputation = errors.New("computation failed")
	// ErrTaskNotFound means no task is stored under the given id.
	ErrTaskNotFound = errors.New("task not found")
)

// DataError reports a failure to read a tabular source.
type DataError struct {
	Op     string
	Source string
	Err    error
}

func (e *DataError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Source, e.Err)
}

// Unwrap returns the underlying error.
func (e *DataError) Unwrap() error {
	return e.Err
}

// Is matches ErrSourceUnreadable for every DataError so callers can test
// the category without knowing the concrete cause.
func (e *DataError) Is(target error) bool {
	return target == ErrSourceUnreadable
}

// NewDataError builds a DataError for op on source.
func NewDataError(op, source string, err error) *DataError {
	return &DataError{Op: op, Source: source, Err: err}
}

// StageError is an unexpected failure raised inside a named stage.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

// Unwrap returns the underlying error.
func (e *StageError) Unwrap() error {
	return e.Err
}

// Is matches ErrComputation.
func (e *StageError) Is(target error) bool {
	return target == ErrComputation
}
