package builtin

import (
	"context"

	"github.com/taskwing/taskwing/engine/core"
	"github.com/taskwing/taskwing/engine/task"
)

// Echo returns its own parameters as its result. Used for wiring checks
// and as the seam for tests that need a predictable task.
type Echo struct {
	task.Base
}

func NewEcho(params core.Input) (task.Task, error) {
	return &Echo{Base: task.NewBase(TaskEcho, params)}, nil
}

func (t *Echo) Run(_ context.Context) (core.Output, error) {
	out := make(core.Output, len(t.Params))
	for k, v := range t.Params {
		out[k] = v
	}
	return out, nil
}
