package config

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

const envPrefix = "TASKWING_"

// envToPath maps environment variables to config paths explicitly, so
// multi-word keys like max_parallel never get mis-split on underscores.
var envToPath = map[string]string{
	"TASKWING_LOG_LEVEL":               "log.level",
	"TASKWING_LOG_JSON":                "log.json",
	"TASKWING_LOG_SOURCE":              "log.source",
	"TASKWING_ENGINE_CONDITION_POLICY": "engine.condition_policy",
	"TASKWING_ENGINE_MAX_PARALLEL":     "engine.max_parallel",
	"TASKWING_ENGINE_STEP_TIMEOUT":     "engine.step_timeout",
}

// Load builds the configuration from defaults overlaid with TASKWING_*
// environment variables, then validates it.
func Load(_ context.Context) (*Config, error) {
	k := koanf.New(".")
	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}
	if err := k.Load(env.Provider(".", env.Opt{
		Prefix: envPrefix,
		TransformFunc: func(key, value string) (string, any) {
			if path, ok := envToPath[key]; ok {
				return path, value
			}
			// Unknown TASKWING_ variables are ignored.
			return "", nil
		},
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}
	var config Config
	if err := k.UnmarshalWithConf("", &config, koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			WeaklyTypedInput: true,
			Result:           &config,
			TagName:          "koanf",
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
			),
		},
	}); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := validator.New().Struct(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &config, nil
}
