package task

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskwing/taskwing/engine/core"
)

type hookedTask struct {
	Base
	calls          []string
	failValidation bool
	failRun        bool
	failAfter      bool
}

func (t *hookedTask) ValidateParams(ctx context.Context) error {
	t.calls = append(t.calls, "validate")
	if t.failValidation {
		return NewValidationError(t.TaskKind, "target")
	}
	return t.Base.ValidateParams(ctx)
}

func (t *hookedTask) BeforeRun(_ context.Context) error {
	t.calls = append(t.calls, "before")
	return nil
}

func (t *hookedTask) Run(_ context.Context) (core.Output, error) {
	t.calls = append(t.calls, "run")
	if t.failRun {
		return nil, errors.New("run exploded")
	}
	return core.Output{"ok": true}, nil
}

func (t *hookedTask) AfterRun(_ context.Context, _ core.Output) error {
	t.calls = append(t.calls, "after")
	if t.failAfter {
		return errors.New("after hook exploded")
	}
	return nil
}

func (t *hookedTask) OnError(_ context.Context, _ error) {
	t.calls = append(t.calls, "onerror")
}

func TestExecute(t *testing.T) {
	t.Run("Should drive the full lifecycle in order on success", func(t *testing.T) {
		tk := &hookedTask{Base: NewBase("probe", core.Input{"target": "localhost"})}
		exec, err := Execute(context.Background(), tk)
		require.NoError(t, err)
		assert.Equal(t, []string{"validate", "before", "run", "after"}, tk.calls)
		assert.Equal(t, core.StatusSuccess, exec.Status())
		assert.Equal(t, core.Output{"ok": true}, exec.Output)
		assert.Nil(t, exec.Err)
		require.NotNil(t, exec.StartTime)
		require.NotNil(t, exec.EndTime)
	})
	t.Run("Should never run the task when validation fails", func(t *testing.T) {
		tk := &hookedTask{Base: NewBase("probe", core.Input{}), failValidation: true}
		exec, err := Execute(context.Background(), tk)
		require.Error(t, err)
		var vErr *ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Equal(t, []string{"target"}, vErr.Fields)
		assert.Equal(t, []string{"validate", "onerror"}, tk.calls)
		assert.Equal(t, core.StatusFailed, exec.Status())
		assert.Nil(t, exec.Output)
		require.NotNil(t, exec.Err)
	})
	t.Run("Should wrap run failures and invoke the error hook", func(t *testing.T) {
		tk := &hookedTask{Base: NewBase("probe", nil), failRun: true}
		exec, err := Execute(context.Background(), tk)
		require.Error(t, err)
		var xErr *ExecutionError
		require.ErrorAs(t, err, &xErr)
		assert.Equal(t, "probe", xErr.TaskKind)
		assert.Contains(t, xErr.Error(), "run exploded")
		assert.Equal(t, []string{"validate", "before", "run", "onerror"}, tk.calls)
		assert.Equal(t, core.StatusFailed, exec.Status())
		assert.Nil(t, exec.Output)
	})
	t.Run("Should treat a failing after-run hook as an execution failure", func(t *testing.T) {
		tk := &hookedTask{Base: NewBase("probe", nil), failAfter: true}
		exec, err := Execute(context.Background(), tk)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "after hook exploded")
		assert.Equal(t, core.StatusFailed, exec.Status())
	})
	t.Run("Should work for tasks without any hooks", func(t *testing.T) {
		tk := NewFuncTask("plain", core.Input{"n": 1}, func(_ context.Context, p core.Input) (core.Output, error) {
			return core.Output{"n": p["n"]}, nil
		})
		exec, err := Execute(context.Background(), tk)
		require.NoError(t, err)
		assert.Equal(t, core.StatusSuccess, exec.Status())
		assert.Equal(t, 1, exec.Output["n"])
	})
}

func TestExecution_Status(t *testing.T) {
	t.Run("Should derive status from timestamps and error", func(t *testing.T) {
		exec := NewExecution("probe")
		assert.Equal(t, core.StatusPending, exec.Status())
		assert.Equal(t, time.Duration(0), exec.Duration())
		exec.start()
		assert.Equal(t, core.StatusRunning, exec.Status())
		time.Sleep(time.Millisecond)
		assert.Positive(t, exec.Duration(), "duration must be queryable mid-run")
		exec.finish(core.Output{"done": true}, nil)
		assert.Equal(t, core.StatusSuccess, exec.Status())
		assert.Positive(t, exec.Duration())
	})
	t.Run("Should keep result and error mutually exclusive", func(t *testing.T) {
		exec := NewExecution("probe")
		exec.start()
		exec.finish(core.Output{"partial": true}, errors.New("late failure"))
		assert.Equal(t, core.StatusFailed, exec.Status())
		assert.Nil(t, exec.Output)
		require.NotNil(t, exec.Err)
	})
}

func TestBase_ValidateParams(t *testing.T) {
	t.Run("Should list every missing required parameter sorted", func(t *testing.T) {
		b := NewBase("scan", core.Input{"present": 1}, "zeta", "alpha", "present")
		err := b.ValidateParams(context.Background())
		require.Error(t, err)
		var vErr *ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Equal(t, []string{"alpha", "zeta"}, vErr.Fields)
	})
	t.Run("Should pass when all required parameters are present", func(t *testing.T) {
		b := NewBase("scan", core.Input{"target": "x", "ports": "1-80"}, "target", "ports")
		assert.NoError(t, b.ValidateParams(context.Background()))
	})
}
