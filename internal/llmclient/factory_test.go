package llmclient

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/voidwalkr/webpilot/internal/config"
)

func ollamaModels() map[string]config.LLMModelConfig {
	return map[string]config.LLMModelConfig{
		"small": {Provider: config.ProviderOllama, Model: "llama3"},
		"big":   {Provider: config.ProviderOllama, Model: "llama3:70b"},
	}
}

func TestNewClientBuildsRouter(t *testing.T) {
	client, err := NewClient(config.LLMConfig{
		DefaultFastModel:     "small",
		DefaultPowerfulModel: "big",
		Models:               ollamaModels(),
	}, zap.NewNop())
	require.NoError(t, err)

	_, ok := client.(*Router)
	assert.True(t, ok, "expected a *Router without rate limiting")
	assert.True(t, client.IsConfigured())
}

func TestNewClientWrapsRateLimiter(t *testing.T) {
	client, err := NewClient(config.LLMConfig{
		DefaultFastModel:     "small",
		DefaultPowerfulModel: "big",
		RequestsPerMinute:    30,
		Models:               ollamaModels(),
	}, zap.NewNop())
	require.NoError(t, err)

	_, ok := client.(*RateLimitedClient)
	assert.True(t, ok, "expected a rate limited wrapper")
}

func TestNewClientErrors(t *testing.T) {
	logger := zap.NewNop()

	_, err := NewClient(config.LLMConfig{}, logger)
	assert.Error(t, err, "no models configured")

	_, err = NewClient(config.LLMConfig{
		DefaultFastModel:     "missing",
		DefaultPowerfulModel: "big",
		Models:               ollamaModels(),
	}, logger)
	assert.Error(t, err, "fast model not defined")

	_, err = NewClient(config.LLMConfig{
		DefaultFastModel:     "small",
		DefaultPowerfulModel: "big",
		Models: map[string]config.LLMModelConfig{
			"small": {Provider: "mystery"},
			"big":   {Provider: config.ProviderOllama, Model: "llama3"},
		},
	}, logger)
	assert.Error(t, err, "unknown provider")

	_, err = NewClient(config.LLMConfig{
		DefaultFastModel:     "small",
		DefaultPowerfulModel: "big",
		Models: map[string]config.LLMModelConfig{
			"small": {Provider: config.ProviderGemini, Model: "gemini-2.5-flash"},
			"big":   {Provider: config.ProviderOllama, Model: "llama3"},
		},
	}, logger)
	assert.Error(t, err, "gemini without api key")
}
