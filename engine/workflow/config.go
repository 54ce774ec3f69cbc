package workflow

import (
	"errors"
	"fmt"
	"os"

	"dario.cat/mergo"
	"gopkg.in/yaml.v3"

	"github.com/taskwing/taskwing/engine/core"
)

// Config is one workflow definition: a named, ordered list of steps with
// dependencies. It is immutable during execution.
type Config struct {
	Name            string       `json:"name"                        yaml:"name"`
	Description     string       `json:"description,omitempty"       yaml:"description,omitempty"`
	ContinueOnError bool         `json:"continue_on_error,omitempty" yaml:"continue_on_error,omitempty"`
	Steps           []StepConfig `json:"steps"                       yaml:"steps"`
}

// StepConfig schedules one task invocation inside a workflow.
// OutputMapping keys have the form "<sourceStep>.<dotted.path>" and name
// the destination parameter as value. Condition is a CEL expression over
// prior step results; empty means always run.
type StepConfig struct {
	Name          string            `json:"name"                     yaml:"name"`
	Task          string            `json:"task"                     yaml:"task"`
	Params        core.Input        `json:"params,omitempty"         yaml:"params,omitempty"`
	DependsOn     []string          `json:"depends_on,omitempty"     yaml:"depends_on,omitempty"`
	OutputMapping map[string]string `json:"output_mapping,omitempty" yaml:"output_mapping,omitempty"`
	Condition     string            `json:"condition,omitempty"      yaml:"condition,omitempty"`
}

// Load reads and validates a workflow definition from a YAML (or JSON,
// which YAML subsumes) file.
func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workflow file: %w", err)
	}
	defer file.Close()
	var config Config
	decoder := yaml.NewDecoder(file)
	if err := decoder.Decode(&config); err != nil {
		return nil, fmt.Errorf("failed to decode workflow definition: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func FromYAML(data []byte) (*Config, error) {
	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to decode workflow definition: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate checks the structural rules that must hold before execution:
// named workflow, uniquely named steps, every step bound to a task, and
// dependencies referencing steps that exist.
func (c *Config) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("workflow name must not be empty")
	}
	seen := make(map[string]struct{}, len(c.Steps))
	for i := range c.Steps {
		step := &c.Steps[i]
		if step.Name == "" {
			return fmt.Errorf("step %d has no name", i)
		}
		if step.Task == "" {
			return fmt.Errorf("step %q has no task", step.Name)
		}
		if _, dup := seen[step.Name]; dup {
			return fmt.Errorf("duplicate step name %q", step.Name)
		}
		seen[step.Name] = struct{}{}
	}
	for i := range c.Steps {
		step := &c.Steps[i]
		for _, dep := range step.DependsOn {
			if _, ok := seen[dep]; !ok {
				return fmt.Errorf("step %q depends on unknown step %q", step.Name, dep)
			}
			if dep == step.Name {
				return fmt.Errorf("step %q depends on itself", step.Name)
			}
		}
	}
	return nil
}

func (c *Config) Merge(other any) error {
	otherConfig, ok := other.(*Config)
	if !ok {
		return fmt.Errorf("failed to merge workflow configs: %w", errors.New("invalid type for merge"))
	}
	return mergo.Merge(c, otherConfig, mergo.WithOverride)
}

func (c *Config) Step(name string) *StepConfig {
	for i := range c.Steps {
		if c.Steps[i].Name == name {
			return &c.Steps[i]
		}
	}
	return nil
}
