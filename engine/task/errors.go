package task

import (
	"fmt"
	"strings"
)

// -----------------------------------------------------------------------------
// ValidationError
// -----------------------------------------------------------------------------

// ValidationError reports missing or malformed parameters. It is returned
// before a task performs any side effect, so the caller can correct the
// input and retry.
type ValidationError struct {
	TaskKind string
	Fields   []string
}

func NewValidationError(kind string, fields ...string) *ValidationError {
	return &ValidationError{TaskKind: kind, Fields: fields}
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return fmt.Sprintf("invalid parameters for task %q", e.TaskKind)
	}
	return fmt.Sprintf(
		"invalid parameters for task %q: missing or invalid fields: %s",
		e.TaskKind,
		strings.Join(e.Fields, ", "),
	)
}

// -----------------------------------------------------------------------------
// NotFoundError
// -----------------------------------------------------------------------------

// NotFoundError reports a lookup for a task name the registry does not
// know. Known carries the sorted list of registered names so an operator
// can spot typos without a second round trip.
type NotFoundError struct {
	Name  string
	Known []string
}

func (e *NotFoundError) Error() string {
	if len(e.Known) == 0 {
		return fmt.Sprintf("task %q not registered (registry is empty)", e.Name)
	}
	return fmt.Sprintf(
		"task %q not registered (known tasks: %s)",
		e.Name,
		strings.Join(e.Known, ", "),
	)
}

// -----------------------------------------------------------------------------
// ExecutionError
// -----------------------------------------------------------------------------

// ExecutionError wraps any failure raised from inside a task run.
type ExecutionError struct {
	TaskKind string
	Err      error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("task %q execution failed: %s", e.TaskKind, e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}
