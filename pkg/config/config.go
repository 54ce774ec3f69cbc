package config

import (
	"time"

	"github.com/taskwing/taskwing/engine/workflow"
)

// Config holds the process-level engine settings. Workflow definitions
// are not configuration; they are loaded per run by the workflow package.
type Config struct {
	Log    LogConfig    `koanf:"log"`
	Engine EngineConfig `koanf:"engine"`
}

type LogConfig struct {
	Level  string `koanf:"level"  validate:"omitempty,oneof=debug info warn error"`
	JSON   bool   `koanf:"json"`
	Source bool   `koanf:"source"`
}

type EngineConfig struct {
	// ConditionPolicy is the default behavior when a step condition
	// cannot be evaluated. See workflow.ConditionPolicy.
	ConditionPolicy string `koanf:"condition_policy" validate:"omitempty,oneof=fail-open fail-closed skip"`
	// MaxParallel caps concurrently running steps; 1 means sequential.
	MaxParallel int `koanf:"max_parallel" validate:"gte=1"`
	// StepTimeout bounds each step run; zero disables the timeout.
	StepTimeout time.Duration `koanf:"step_timeout" validate:"gte=0"`
}

func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level: "info",
		},
		Engine: EngineConfig{
			ConditionPolicy: string(workflow.ConditionFailOpen),
			MaxParallel:     1,
		},
	}
}

// EngineOptions translates the settings into workflow engine options.
func (c *Config) EngineOptions() []workflow.Option {
	opts := []workflow.Option{
		workflow.WithConditionPolicy(workflow.ConditionPolicy(c.Engine.ConditionPolicy)),
		workflow.WithMaxParallel(c.Engine.MaxParallel),
	}
	if c.Engine.StepTimeout > 0 {
		opts = append(opts, workflow.WithStepTimeout(c.Engine.StepTimeout))
	}
	return opts
}
