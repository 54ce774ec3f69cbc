package workflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/taskwing/taskwing/engine/core"
	"github.com/taskwing/taskwing/pkg/logger"
)

// applyOutputMappings resolves every declared mapping of the step against
// the results collected so far and writes the values into params. A
// mapping that cannot be resolved is logged and skipped; it never fails
// the step, so one missing optional field does not poison the run.
func applyOutputMappings(
	ctx context.Context,
	step *StepConfig,
	results map[string]core.Output,
	params core.Input,
) {
	log := logger.FromContext(ctx)
	for source, dest := range step.OutputMapping {
		value, err := resolveOutputRef(source, results)
		if err != nil {
			log.Warn("skipping unresolvable output mapping",
				"step", step.Name, "source", source, "dest", dest, "error", err)
			continue
		}
		params[dest] = value
	}
}

// resolveOutputRef resolves "<sourceStep>.<dotted.path>" against the
// collected step results, walking the dotted path through nested maps.
func resolveOutputRef(ref string, results map[string]core.Output) (any, error) {
	stepName, path, found := strings.Cut(ref, ".")
	if !found {
		return nil, fmt.Errorf("mapping %q has no field path", ref)
	}
	output, ok := results[stepName]
	if !ok {
		return nil, fmt.Errorf("step %q has no recorded result", stepName)
	}
	return lookupPath(output.AsMap(), path)
}

func lookupPath(m map[string]any, path string) (any, error) {
	segments := strings.Split(path, ".")
	var current any = m
	for i, segment := range segments {
		node, ok := current.(map[string]any)
		if !ok {
			if typed, isOutput := current.(core.Output); isOutput {
				node = typed.AsMap()
			} else {
				return nil, fmt.Errorf(
					"field %q is not a map, cannot descend into %q",
					strings.Join(segments[:i], "."), segment)
			}
		}
		current, ok = node[segment]
		if !ok {
			return nil, fmt.Errorf("field %q not found", strings.Join(segments[:i+1], "."))
		}
	}
	return current, nil
}
