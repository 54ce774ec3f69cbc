package builtin

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/google/shlex"

	"github.com/taskwing/taskwing/engine/core"
	"github.com/taskwing/taskwing/engine/task"
)

// Command runs a local executable and captures its output. There is no
// sandboxing; hosts that need isolation wrap the engine, not this task.
//
// Parameters: command (required, split shell-style), dir, env (map of
// string), timeout (duration string). A non-zero exit status fails the
// task unless allow_failure is true, in which case the exit code is part
// of the result instead.
type Command struct {
	task.Base
}

func NewCommand(params core.Input) (task.Task, error) {
	return &Command{Base: task.NewBase(TaskCommand, params, "command")}, nil
}

func (t *Command) ValidateParams(ctx context.Context) error {
	if err := t.Base.ValidateParams(ctx); err != nil {
		return err
	}
	parts, err := shlex.Split(t.StringParam("command", ""))
	if err != nil || len(parts) == 0 {
		return task.NewValidationError(t.TaskKind, "command")
	}
	if raw := t.StringParam("timeout", ""); raw != "" {
		if _, err := time.ParseDuration(raw); err != nil {
			return task.NewValidationError(t.TaskKind, "timeout")
		}
	}
	return nil
}

func (t *Command) Run(ctx context.Context) (core.Output, error) {
	parts, err := shlex.Split(t.StringParam("command", ""))
	if err != nil {
		return nil, fmt.Errorf("failed to split command line: %w", err)
	}
	if raw := t.StringParam("timeout", ""); raw != "" {
		timeout, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid timeout %q: %w", raw, err)
		}
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	cmd := exec.CommandContext(ctx, parts[0], parts[1:]...)
	cmd.Dir = t.StringParam("dir", "")
	cmd.Env = os.Environ()
	for k, v := range t.MapParam("env") {
		if s, ok := v.(string); ok {
			cmd.Env = append(cmd.Env, k+"="+s)
		}
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	runErr := cmd.Run()
	exitCode := 0
	if runErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(runErr, &exitErr) {
			return nil, fmt.Errorf("failed to run %q: %w", parts[0], runErr)
		}
		exitCode = exitErr.ExitCode()
	}
	allowFailure, _ := t.Param("allow_failure")
	if exitCode != 0 && allowFailure != true {
		return nil, fmt.Errorf("command %q exited with code %d: %s",
			parts[0], exitCode, strings.TrimSpace(stderr.String()))
	}
	return core.Output{
		"exit_code": exitCode,
		"stdout":    stdout.String(),
		"stderr":    stderr.String(),
	}, nil
}
