package task

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/dgraph-io/ristretto/v2"
	"github.com/google/cel-go/cel"
)

const (
	defaultCostLimit = uint64(1000)
	defaultCacheSize = int64(1024)
)

// CELEvaluator evaluates boolean CEL expressions against a map of named
// values. CEL is side-effect free and cost-limited, so untrusted workflow
// conditions cannot run arbitrary code or loop forever. Compiled programs
// are cached per expression and variable set.
type CELEvaluator struct {
	env          *cel.Env
	costLimit    uint64
	cacheSize    int64
	programCache *ristretto.Cache[string, cel.Program]
}

type CELOption func(*CELEvaluator)

func WithCostLimit(limit uint64) CELOption {
	return func(e *CELEvaluator) {
		e.costLimit = limit
	}
}

func WithCacheSize(size int64) CELOption {
	return func(e *CELEvaluator) {
		e.cacheSize = size
	}
}

func NewCELEvaluator(opts ...CELOption) (*CELEvaluator, error) {
	e := &CELEvaluator{
		costLimit: defaultCostLimit,
		cacheSize: defaultCacheSize,
	}
	for _, opt := range opts {
		opt(e)
	}
	env, err := cel.NewEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}
	e.env = env
	cache, err := ristretto.NewCache(&ristretto.Config[string, cel.Program]{
		NumCounters: e.cacheSize * 10,
		MaxCost:     e.cacheSize,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create program cache: %w", err)
	}
	e.programCache = cache
	return e, nil
}

// Evaluate compiles (or fetches from cache) the expression with every key
// of data declared as a dyn variable, then evaluates it. The result must
// be a boolean; anything else is an error.
func (e *CELEvaluator) Evaluate(ctx context.Context, expression string, data map[string]any) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, fmt.Errorf("context canceled before evaluation: %w", err)
	}
	prg, err := e.program(expression, data)
	if err != nil {
		return false, err
	}
	out, _, err := prg.ContextEval(ctx, data)
	if err != nil {
		if strings.Contains(err.Error(), "cost limit") {
			return false, fmt.Errorf("expression exceeded cost limit of %d: %w", e.costLimit, err)
		}
		return false, fmt.Errorf("expression evaluation failed: %w", err)
	}
	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("expression must evaluate to a boolean, got %s", out.Type().TypeName())
	}
	return result, nil
}

// ValidateExpression checks the expression parses. Variable references are
// not checked because the variable set is only known at evaluation time.
func (e *CELEvaluator) ValidateExpression(expression string) error {
	if _, iss := e.env.Parse(expression); iss != nil && iss.Err() != nil {
		return fmt.Errorf("invalid expression, compilation failed: %w", iss.Err())
	}
	return nil
}

func (e *CELEvaluator) program(expression string, data map[string]any) (cel.Program, error) {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	cacheKey := expression + "\x00" + strings.Join(keys, "\x00")
	if prg, ok := e.programCache.Get(cacheKey); ok {
		return prg, nil
	}
	vars := make([]cel.EnvOption, 0, len(keys))
	for _, k := range keys {
		vars = append(vars, cel.Variable(k, cel.DynType))
	}
	env, err := e.env.Extend(vars...)
	if err != nil {
		return nil, fmt.Errorf("failed to extend CEL environment: %w", err)
	}
	ast, iss := env.Compile(expression)
	if iss != nil && iss.Err() != nil {
		return nil, fmt.Errorf("expression compilation failed: %w", iss.Err())
	}
	prg, err := env.Program(
		ast,
		cel.CostLimit(e.costLimit),
		cel.EvalOptions(cel.OptOptimize, cel.OptTrackCost),
		cel.InterruptCheckFrequency(100),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to plan CEL program: %w", err)
	}
	e.programCache.Set(cacheKey, prg, 1)
	return prg, nil
}
