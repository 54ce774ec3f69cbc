package workflow

import (
	"context"
	"fmt"
	"maps"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/taskwing/taskwing/engine/core"
	"github.com/taskwing/taskwing/engine/task"
	"github.com/taskwing/taskwing/pkg/logger"
)

// ConditionPolicy decides what happens when a step condition cannot be
// evaluated (bad reference, type mismatch, cost limit). The source system
// silently executed the step; here the policy is explicit configuration.
type ConditionPolicy string

const (
	// ConditionFailOpen logs the evaluation failure and executes the
	// step anyway, preserving forward progress. Default.
	ConditionFailOpen ConditionPolicy = "fail-open"
	// ConditionFailClosed treats the evaluation failure as a step
	// failure, subject to the workflow's continue_on_error policy.
	ConditionFailClosed ConditionPolicy = "fail-closed"
	// ConditionSkip skips the step as if the condition were false.
	ConditionSkip ConditionPolicy = "skip"
)

// Engine executes workflow definitions against an injected task registry.
// Safe for concurrent use; each Execute call keeps its own state.
type Engine struct {
	registry    *task.Registry
	evaluator   *task.CELEvaluator
	policy      ConditionPolicy
	maxParallel int
	stepTimeout time.Duration
}

type Option func(*Engine)

func WithConditionPolicy(p ConditionPolicy) Option {
	return func(e *Engine) {
		e.policy = p
	}
}

// WithMaxParallel allows up to n ready steps to run concurrently. With
// n <= 1 steps run strictly sequentially in resolved order.
func WithMaxParallel(n int) Option {
	return func(e *Engine) {
		e.maxParallel = n
	}
}

// WithStepTimeout bounds each step run; zero means no timeout.
func WithStepTimeout(d time.Duration) Option {
	return func(e *Engine) {
		e.stepTimeout = d
	}
}

func WithEvaluator(ev *task.CELEvaluator) Option {
	return func(e *Engine) {
		e.evaluator = ev
	}
}

func New(registry *task.Registry, opts ...Option) (*Engine, error) {
	if registry == nil {
		return nil, fmt.Errorf("registry must not be nil")
	}
	e := &Engine{
		registry:    registry,
		policy:      ConditionFailOpen,
		maxParallel: 1,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.evaluator == nil {
		ev, err := task.NewCELEvaluator()
		if err != nil {
			return nil, fmt.Errorf("failed to create condition evaluator: %w", err)
		}
		e.evaluator = ev
	}
	return e, nil
}

// LoadDefinition parses and validates a workflow definition file.
func (e *Engine) LoadDefinition(path string) (*Config, error) {
	return Load(path)
}

// Execute runs the workflow to completion and returns the aggregated
// result. Per-step failures are converted into Result.Errors entries and
// never returned as an error; only structural problems (invalid
// definition, dependency cycle) fail the call, and those are detected
// before any step executes. contextParams are shared inputs merged
// beneath every step's declared parameters.
func (e *Engine) Execute(ctx context.Context, cfg *Config, contextParams core.Input) (*Result, error) {
	start := time.Now()
	if cfg == nil {
		return nil, fmt.Errorf("workflow definition must not be nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid workflow definition: %w", err)
	}
	waves, err := resolveOrder(cfg.Steps)
	if err != nil {
		return nil, err
	}
	log := logger.FromContext(ctx).With("workflow", cfg.Name)
	ctx = logger.ContextWithLogger(ctx, log)
	log.Info("executing workflow",
		"steps", len(cfg.Steps),
		"continue_on_error", cfg.ContinueOnError,
		"max_parallel", e.maxParallel)
	result := newResult(cfg.Name)
	if e.maxParallel > 1 {
		e.runWaves(ctx, cfg, waves, contextParams, result)
	} else {
		e.runSequential(ctx, cfg, flattenWaves(waves), contextParams, result)
	}
	result.finalize(start)
	log.Info("workflow finished",
		"status", result.Status,
		"completed", len(result.StepsCompleted),
		"skipped", len(result.StepsSkipped),
		"errors", len(result.Errors),
		"duration", result.Duration)
	return result, nil
}

func (e *Engine) runSequential(
	ctx context.Context,
	cfg *Config,
	order []int,
	contextParams core.Input,
	result *Result,
) {
	for _, idx := range order {
		step := &cfg.Steps[idx]
		outcome := e.executeStep(ctx, step, contextParams, result.StepResults)
		if e.record(ctx, cfg, step, outcome, result) {
			return
		}
	}
}

// runWaves executes each wave of ready steps concurrently, bounded by
// maxParallel, and joins before the next wave. Outcomes are recorded in
// declaration order so results stay deterministic. On a failure with
// continue_on_error disabled, steps already running finish and no further
// wave starts.
func (e *Engine) runWaves(
	ctx context.Context,
	cfg *Config,
	waves [][]int,
	contextParams core.Input,
	result *Result,
) {
	for _, wave := range waves {
		snapshot := maps.Clone(result.StepResults)
		outcomes := make([]stepOutcome, len(wave))
		g := new(errgroup.Group)
		g.SetLimit(e.maxParallel)
		for wi, idx := range wave {
			g.Go(func() error {
				outcomes[wi] = e.executeStep(ctx, &cfg.Steps[idx], contextParams, snapshot)
				return nil
			})
		}
		// Goroutines report through the outcomes slice, never as errors.
		_ = g.Wait()
		halt := false
		for wi, idx := range wave {
			if e.record(ctx, cfg, &cfg.Steps[idx], outcomes[wi], result) {
				halt = true
			}
		}
		if halt {
			return
		}
	}
}

type stepOutcome struct {
	skipped bool
	output  core.Output
	err     error
}

func (e *Engine) executeStep(
	ctx context.Context,
	step *StepConfig,
	contextParams core.Input,
	results map[string]core.Output,
) stepOutcome {
	if step.Condition != "" {
		run, outcome := e.evaluateCondition(ctx, step, results)
		if !run {
			return outcome
		}
	}
	params, err := e.buildParams(ctx, step, contextParams, results)
	if err != nil {
		return stepOutcome{err: err}
	}
	t, err := e.registry.Create(step.Task, params)
	if err != nil {
		return stepOutcome{err: err}
	}
	stepCtx := ctx
	if e.stepTimeout > 0 {
		var cancel context.CancelFunc
		stepCtx, cancel = context.WithTimeout(ctx, e.stepTimeout)
		defer cancel()
	}
	if err := t.ValidateParams(stepCtx); err != nil {
		return stepOutcome{err: err}
	}
	output, err := t.Run(stepCtx)
	if err != nil {
		return stepOutcome{err: err}
	}
	return stepOutcome{output: output}
}

// evaluateCondition applies the configured policy when evaluation itself
// fails. A condition that cleanly evaluates to false always skips.
func (e *Engine) evaluateCondition(
	ctx context.Context,
	step *StepConfig,
	results map[string]core.Output,
) (run bool, outcome stepOutcome) {
	log := logger.FromContext(ctx)
	data := make(map[string]any, len(results))
	for name, output := range results {
		data[name] = output.AsMap()
	}
	ok, err := e.evaluator.Evaluate(ctx, step.Condition, data)
	if err != nil {
		switch e.policy {
		case ConditionFailClosed:
			return false, stepOutcome{err: fmt.Errorf("condition evaluation failed: %w", err)}
		case ConditionSkip:
			log.Warn("condition evaluation failed, skipping step",
				"step", step.Name, "condition", step.Condition, "error", err)
			return false, stepOutcome{skipped: true}
		default:
			log.Warn("condition evaluation failed, executing step anyway",
				"step", step.Name, "condition", step.Condition, "error", err)
			return true, stepOutcome{}
		}
	}
	if !ok {
		return false, stepOutcome{skipped: true}
	}
	return true, stepOutcome{}
}

// buildParams assembles the step's effective parameters: shared context
// first, the step's declared parameters on top, then resolved output
// mappings. Declared parameters are deep-copied so a task mutating its
// inputs cannot corrupt the definition.
func (e *Engine) buildParams(
	ctx context.Context,
	step *StepConfig,
	contextParams core.Input,
	results map[string]core.Output,
) (core.Input, error) {
	params := core.Input{}
	if err := params.Merge(contextParams); err != nil {
		return nil, fmt.Errorf("failed to merge shared context: %w", err)
	}
	declared, err := step.Params.DeepCopy()
	if err != nil {
		return nil, fmt.Errorf("failed to copy step parameters: %w", err)
	}
	if err := params.Merge(declared); err != nil {
		return nil, fmt.Errorf("failed to merge step parameters: %w", err)
	}
	applyOutputMappings(ctx, step, results, params)
	return params, nil
}

// record folds one outcome into the result and reports whether execution
// must halt.
func (e *Engine) record(
	ctx context.Context,
	cfg *Config,
	step *StepConfig,
	outcome stepOutcome,
	result *Result,
) (halt bool) {
	log := logger.FromContext(ctx)
	switch {
	case outcome.skipped:
		result.StepsSkipped = append(result.StepsSkipped, step.Name)
		log.Debug("step skipped", "step", step.Name)
		return false
	case outcome.err != nil:
		result.Errors = append(result.Errors, fmt.Sprintf("%s failed: %s", step.Name, outcome.err))
		log.Error("step failed", "step", step.Name, "task", step.Task, "error", outcome.err)
		return !cfg.ContinueOnError
	default:
		result.StepsCompleted = append(result.StepsCompleted, step.Name)
		result.StepResults[step.Name] = outcome.output
		log.Debug("step completed", "step", step.Name, "task", step.Task)
		return false
	}
}
