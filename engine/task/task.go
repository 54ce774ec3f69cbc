package task

import (
	"context"
	"fmt"
	"sort"

	"github.com/taskwing/taskwing/engine/core"
)

// Constructor builds a task instance bound to the given parameters.
// Implementations must not start any work.
type Constructor func(params core.Input) (Task, error)

// Task is the contract every executable unit implements. ValidateParams
// must succeed before Run is invoked; Run performs the unit of work and
// returns its result map.
type Task interface {
	Kind() string
	ValidateParams(ctx context.Context) error
	Run(ctx context.Context) (core.Output, error)
}

// Optional lifecycle hooks, detected by type assertion. A task that wants
// a hook implements the interface; everything else pays nothing.
type (
	BeforeRunner interface {
		BeforeRun(ctx context.Context) error
	}
	AfterRunner interface {
		AfterRun(ctx context.Context, output core.Output) error
	}
	ErrorHook interface {
		OnError(ctx context.Context, err error)
	}
)

// -----------------------------------------------------------------------------
// Base
// -----------------------------------------------------------------------------

// Base carries the state shared by most task implementations: the bound
// parameter map and the declared required-parameter names. Embed it and
// override ValidateParams for checks beyond presence.
type Base struct {
	TaskKind string
	Params   core.Input
	Required []string
}

func NewBase(kind string, params core.Input, required ...string) Base {
	return Base{TaskKind: kind, Params: params, Required: required}
}

func (b *Base) Kind() string {
	return b.TaskKind
}

// ValidateParams fails with a *ValidationError listing every required
// parameter absent from Params.
func (b *Base) ValidateParams(_ context.Context) error {
	var missing []string
	for _, name := range b.Required {
		if _, ok := b.Params[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return NewValidationError(b.TaskKind, missing...)
	}
	return nil
}

func (b *Base) Param(key string) (any, bool) {
	v, ok := b.Params[key]
	return v, ok
}

// StringParam returns the parameter as a string, or def when absent or of
// another type.
func (b *Base) StringParam(key, def string) string {
	if v, ok := b.Params[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return def
}

func (b *Base) MapParam(key string) map[string]any {
	if v, ok := b.Params[key]; ok {
		switch m := v.(type) {
		case map[string]any:
			return m
		case core.Input:
			return m.AsMap()
		}
	}
	return nil
}

// FuncTask adapts a bare function into a Task. Handy for tests and for
// hosts that register closures instead of full types.
type FuncTask struct {
	Base
	Fn func(ctx context.Context, params core.Input) (core.Output, error)
}

func NewFuncTask(kind string, params core.Input, fn func(context.Context, core.Input) (core.Output, error)) *FuncTask {
	return &FuncTask{Base: NewBase(kind, params), Fn: fn}
}

func (t *FuncTask) Run(ctx context.Context) (core.Output, error) {
	if t.Fn == nil {
		return nil, fmt.Errorf("task %q has no run function", t.TaskKind)
	}
	return t.Fn(ctx, t.Params)
}
