// internal/llmclient/factory.go
package llmclient

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/voidwalkr/webpilot/internal/config"
)

// NewClient builds the tiered router from configuration: one client per
// configured model, wired into fast/powerful tiers, optionally wrapped in a
// shared rate limiter.
func NewClient(cfg config.LLMConfig, logger *zap.Logger) (LLMClient, error) {
	if len(cfg.Models) == 0 {
		return nil, fmt.Errorf("no LLM models configured under llm.models")
	}

	instantiated := make(map[string]LLMClient, len(cfg.Models))
	for name, modelCfg := range cfg.Models {
		client, err := newProviderClient(modelCfg, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create LLM client for model %q: %w", name, err)
		}
		instantiated[name] = client
		logger.Info("Instantiated LLM client",
			zap.String("name", name),
			zap.String("provider", string(modelCfg.Provider)),
			zap.String("model", modelCfg.Model))
	}

	fastClient, ok := instantiated[cfg.DefaultFastModel]
	if !ok {
		return nil, fmt.Errorf("default fast model %q not found in defined models", cfg.DefaultFastModel)
	}
	powerfulClient, ok := instantiated[cfg.DefaultPowerfulModel]
	if !ok {
		return nil, fmt.Errorf("default powerful model %q not found in defined models", cfg.DefaultPowerfulModel)
	}

	router, err := NewRouter(logger, fastClient, powerfulClient)
	if err != nil {
		return nil, err
	}

	if cfg.RequestsPerMinute > 0 {
		return NewRateLimitedClient(router, cfg.RequestsPerMinute), nil
	}
	return router, nil
}

func newProviderClient(cfg config.LLMModelConfig, logger *zap.Logger) (LLMClient, error) {
	switch cfg.Provider {
	case config.ProviderGemini:
		return NewGeminiClient(cfg, logger)
	case config.ProviderOpenAI:
		return NewOpenAIClient(cfg, logger)
	case config.ProviderAnthropic:
		return NewAnthropicClient(cfg, logger)
	case config.ProviderOllama:
		return NewOllamaClient(cfg, logger)
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", cfg.Provider)
	}
}
