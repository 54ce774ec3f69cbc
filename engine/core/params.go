package core

import (
	"fmt"

	"dario.cat/mergo"
	"github.com/mohae/deepcopy"
)

// Input is the parameter map handed to a task at construction time.
// Output is the result map a task produces. Both are plain string-keyed
// maps so that they round-trip through YAML and JSON unchanged.
type (
	Input  map[string]any
	Output map[string]any
)

func (i Input) AsMap() map[string]any {
	return map[string]any(i)
}

func (o Output) AsMap() map[string]any {
	return map[string]any(o)
}

// DeepCopy returns a copy that shares no nested maps or slices with the
// original, so a task mutating its parameters cannot leak into other steps.
func (i Input) DeepCopy() (Input, error) {
	if i == nil {
		return nil, nil
	}
	copied, err := deepCopyMap(i)
	if err != nil {
		return nil, fmt.Errorf("failed to copy input: %w", err)
	}
	return Input(copied), nil
}

func (o Output) DeepCopy() (Output, error) {
	if o == nil {
		return nil, nil
	}
	copied, err := deepCopyMap(o)
	if err != nil {
		return nil, fmt.Errorf("failed to copy output: %w", err)
	}
	return Output(copied), nil
}

// Merge overlays other on top of i, overriding existing keys.
func (i *Input) Merge(other Input) error {
	if other == nil {
		return nil
	}
	if *i == nil {
		*i = make(Input, len(other))
	}
	dst := map[string]any(*i)
	if err := mergo.Merge(&dst, map[string]any(other), mergo.WithOverride); err != nil {
		return fmt.Errorf("failed to merge input: %w", err)
	}
	*i = Input(dst)
	return nil
}

func deepCopyMap(m map[string]any) (map[string]any, error) {
	copied, ok := deepcopy.Copy(m).(map[string]any)
	if !ok {
		return nil, fmt.Errorf("failed to copy map")
	}
	return copied, nil
}
