package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaults(t *testing.T) {
	cfg := New()

	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, "webpilot", cfg.Logger.ServiceName)
	assert.Equal(t, 2, cfg.Engine.MaxAttempts)
	assert.Equal(t, 5*time.Minute, cfg.Engine.TaskTimeout)
	assert.Equal(t, time.Second, cfg.Planner.PerStepDuration)
	assert.True(t, cfg.Browser.Headless)
	assert.False(t, cfg.Store.Enabled)

	require.Contains(t, cfg.LLM.Models, cfg.LLM.DefaultFastModel)
	require.Contains(t, cfg.LLM.Models, cfg.LLM.DefaultPowerfulModel)
	require.NoError(t, cfg.Validate())
}

func TestFromViperOverrides(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	v.Set("engine.max_attempts", 3)
	v.Set("llm.models.local.provider", "ollama")
	v.Set("llm.models.local.model", "llama3")
	v.Set("llm.models.local.endpoint", "http://localhost:11434")
	v.Set("llm.default_fast_model", "local")
	v.Set("llm.default_powerful_model", "local")

	cfg, err := FromViper(v)
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.Engine.MaxAttempts)
	assert.Equal(t, ProviderOllama, cfg.LLM.Models["local"].Provider)
}

func TestValidateRejectsBadConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero attempts", func(c *Config) { c.Engine.MaxAttempts = 0 }},
		{"no models", func(c *Config) { c.LLM.Models = nil }},
		{"missing fast model", func(c *Config) { c.LLM.DefaultFastModel = "nope" }},
		{"missing powerful model", func(c *Config) { c.LLM.DefaultPowerfulModel = "nope" }},
		{"bad provider", func(c *Config) {
			m := c.LLM.Models[c.LLM.DefaultFastModel]
			m.Provider = "spooky"
			c.LLM.Models[c.LLM.DefaultFastModel] = m
		}},
		{"zero step duration", func(c *Config) { c.Planner.PerStepDuration = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := New()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestStoreDSN(t *testing.T) {
	s := StoreConfig{Host: "db", Port: 5433, User: "u", Password: "p", DBName: "tasks", SSLMode: "disable"}
	assert.Equal(t, "postgres://u:p@db:5433/tasks?sslmode=disable", s.DSN())
}
