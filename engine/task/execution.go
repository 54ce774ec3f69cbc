package task

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/taskwing/taskwing/engine/core"
	"github.com/taskwing/taskwing/pkg/logger"
)

// Execution is the bookkeeping record for one task invocation. Status is
// always derived from the timestamps and the recorded error, never stored.
type Execution struct {
	ID        core.ID     `json:"id"`
	TaskKind  string      `json:"task_kind"`
	StartTime *time.Time  `json:"start_time,omitempty"`
	EndTime   *time.Time  `json:"end_time,omitempty"`
	Output    core.Output `json:"output,omitempty"`
	Err       *core.Error `json:"error,omitempty"`
}

func NewExecution(kind string) *Execution {
	return &Execution{ID: core.MustNewID(), TaskKind: kind}
}

func (e *Execution) Status() core.StatusType {
	switch {
	case e.StartTime == nil:
		return core.StatusPending
	case e.EndTime == nil:
		return core.StatusRunning
	case e.Err != nil:
		return core.StatusFailed
	default:
		return core.StatusSuccess
	}
}

// Duration is queryable mid-run: while only the start timestamp is set it
// reports the time elapsed so far.
func (e *Execution) Duration() time.Duration {
	switch {
	case e.StartTime == nil:
		return 0
	case e.EndTime == nil:
		return time.Since(*e.StartTime)
	default:
		return e.EndTime.Sub(*e.StartTime)
	}
}

func (e *Execution) start() {
	now := time.Now()
	e.StartTime = &now
}

func (e *Execution) finish(output core.Output, err error) {
	now := time.Now()
	e.EndTime = &now
	if err != nil {
		e.Output = nil
		e.Err = core.NewError(err, errorCode(err), nil)
		return
	}
	e.Err = nil
	e.Output = output
}

func errorCode(err error) string {
	var vErr *ValidationError
	var xErr *ExecutionError
	switch {
	case errors.As(err, &vErr):
		return "VALIDATION"
	case errors.As(err, &xErr):
		return "EXECUTION"
	default:
		return ""
	}
}

// -----------------------------------------------------------------------------
// Execute
// -----------------------------------------------------------------------------

// Execute is the single entry point for running a task outside a workflow.
// It drives the full lifecycle: validate, BeforeRun, Run, AfterRun, with
// the OnError hook invoked on any failure. The returned Execution always
// reflects the final state, also when err is non-nil.
func Execute(ctx context.Context, t Task) (*Execution, error) {
	log := logger.FromContext(ctx)
	exec := NewExecution(t.Kind())
	exec.start()
	if err := t.ValidateParams(ctx); err != nil {
		notifyError(ctx, t, err)
		exec.finish(nil, err)
		log.Debug("task validation failed", "task", t.Kind(), "error", err)
		return exec, err
	}
	output, err := runWithHooks(ctx, t)
	if err != nil {
		wrapped := &ExecutionError{TaskKind: t.Kind(), Err: err}
		notifyError(ctx, t, wrapped)
		exec.finish(nil, wrapped)
		log.Debug("task failed", "task", t.Kind(), "duration", exec.Duration(), "error", err)
		return exec, wrapped
	}
	exec.finish(output, nil)
	log.Debug("task completed", "task", t.Kind(), "duration", exec.Duration())
	return exec, nil
}

func runWithHooks(ctx context.Context, t Task) (core.Output, error) {
	if br, ok := t.(BeforeRunner); ok {
		if err := br.BeforeRun(ctx); err != nil {
			return nil, fmt.Errorf("before-run hook: %w", err)
		}
	}
	output, err := t.Run(ctx)
	if err != nil {
		return nil, err
	}
	if ar, ok := t.(AfterRunner); ok {
		if err := ar.AfterRun(ctx, output); err != nil {
			return nil, fmt.Errorf("after-run hook: %w", err)
		}
	}
	return output, nil
}

func notifyError(ctx context.Context, t Task, err error) {
	if eh, ok := t.(ErrorHook); ok {
		eh.OnError(ctx, err)
	}
}
