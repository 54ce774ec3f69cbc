package workflow

import (
	"time"

	"github.com/taskwing/taskwing/engine/core"
)

type Status string

const (
	StatusCompleted Status = "completed"
	StatusPartial   Status = "partial"
	StatusFailed    Status = "failed"
)

// Result is the aggregated outcome of one workflow execution. Per-step
// failures live in Errors; the execution itself only errors on structural
// problems found before any step ran.
type Result struct {
	WorkflowName   string                 `json:"workflow_name"`
	ExecID         core.ID                `json:"exec_id"`
	Status         Status                 `json:"status"`
	StepsCompleted []string               `json:"steps_completed"`
	StepsSkipped   []string               `json:"steps_skipped,omitempty"`
	StepResults    map[string]core.Output `json:"step_results"`
	Errors         []string               `json:"errors,omitempty"`
	Duration       time.Duration          `json:"duration"`
}

func newResult(workflowName string) *Result {
	return &Result{
		WorkflowName:   workflowName,
		ExecID:         core.MustNewID(),
		StepsCompleted: []string{},
		StepResults:    make(map[string]core.Output),
		Errors:         []string{},
	}
}

// TotalDuration reports wall-clock seconds for the whole run, including
// skipped and never-started steps.
func (r *Result) TotalDuration() float64 {
	return r.Duration.Seconds()
}

func (r *Result) finalize(start time.Time) {
	r.Duration = time.Since(start)
	switch {
	case len(r.Errors) == 0:
		r.Status = StatusCompleted
	case len(r.StepsCompleted) > 0:
		r.Status = StatusPartial
	default:
		r.Status = StatusFailed
	}
}
