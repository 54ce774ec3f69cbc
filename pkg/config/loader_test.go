package config

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("Should return defaults without environment overrides", func(t *testing.T) {
		cfg, err := Load(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "info", cfg.Log.Level)
		assert.False(t, cfg.Log.JSON)
		assert.Equal(t, "fail-open", cfg.Engine.ConditionPolicy)
		assert.Equal(t, 1, cfg.Engine.MaxParallel)
		assert.Equal(t, time.Duration(0), cfg.Engine.StepTimeout)
	})
	t.Run("Should apply environment overrides", func(t *testing.T) {
		t.Setenv("TASKWING_LOG_LEVEL", "debug")
		t.Setenv("TASKWING_LOG_JSON", "true")
		t.Setenv("TASKWING_ENGINE_CONDITION_POLICY", "fail-closed")
		t.Setenv("TASKWING_ENGINE_MAX_PARALLEL", "4")
		t.Setenv("TASKWING_ENGINE_STEP_TIMEOUT", "45s")
		cfg, err := Load(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "debug", cfg.Log.Level)
		assert.True(t, cfg.Log.JSON)
		assert.Equal(t, "fail-closed", cfg.Engine.ConditionPolicy)
		assert.Equal(t, 4, cfg.Engine.MaxParallel)
		assert.Equal(t, 45*time.Second, cfg.Engine.StepTimeout)
	})
	t.Run("Should ignore unknown TASKWING_ variables", func(t *testing.T) {
		t.Setenv("TASKWING_SOMETHING_ELSE", "value")
		cfg, err := Load(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, cfg.Engine.MaxParallel)
	})
	t.Run("Should reject an invalid log level", func(t *testing.T) {
		t.Setenv("TASKWING_LOG_LEVEL", "verbose")
		_, err := Load(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid configuration")
	})
	t.Run("Should reject an invalid condition policy", func(t *testing.T) {
		t.Setenv("TASKWING_ENGINE_CONDITION_POLICY", "maybe")
		_, err := Load(context.Background())
		require.Error(t, err)
	})
	t.Run("Should reject max_parallel below one", func(t *testing.T) {
		t.Setenv("TASKWING_ENGINE_MAX_PARALLEL", "0")
		_, err := Load(context.Background())
		require.Error(t, err)
	})
}

func TestConfig_EngineOptions(t *testing.T) {
	t.Run("Should omit the step timeout option when unset", func(t *testing.T) {
		cfg := Default()
		assert.Len(t, cfg.EngineOptions(), 2)
	})
	t.Run("Should include the step timeout option when set", func(t *testing.T) {
		cfg := Default()
		cfg.Engine.StepTimeout = time.Minute
		assert.Len(t, cfg.EngineOptions(), 3)
	})
}
