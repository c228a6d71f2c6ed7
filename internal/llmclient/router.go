// internal/llmclient/router.go
package llmclient

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/voidwalkr/webpilot/api/schemas"
)

// Router implements LLMClient and dispatches each request to the client
// serving the requested model tier. Decomposition and classification
// prompts ride the fast tier; step planning rides the powerful tier.
type Router struct {
	logger  *zap.Logger
	clients map[schemas.ModelTier]LLMClient
}

// NewRouter creates a router with the given clients per tier.
func NewRouter(logger *zap.Logger, fastClient, powerfulClient LLMClient) (*Router, error) {
	if fastClient == nil {
		return nil, fmt.Errorf("fast tier client cannot be nil")
	}
	if powerfulClient == nil {
		return nil, fmt.Errorf("powerful tier client cannot be nil")
	}

	return &Router{
		logger: logger.Named("llm_router"),
		clients: map[schemas.ModelTier]LLMClient{
			schemas.TierFast:     fastClient,
			schemas.TierPowerful: powerfulClient,
		},
	}, nil
}

func (r *Router) pick(tier schemas.ModelTier) (LLMClient, error) {
	if tier == "" {
		tier = schemas.TierPowerful
	}
	client, ok := r.clients[tier]
	if !ok {
		return nil, fmt.Errorf("no LLM client configured for tier: %s", tier)
	}
	r.logger.Debug("Routing LLM request", zap.String("tier", string(tier)))
	return client, nil
}

func (r *Router) GenerateText(ctx context.Context, req schemas.GenerationRequest) (schemas.GenerationResult, error) {
	client, err := r.pick(req.Tier)
	if err != nil {
		return schemas.GenerationResult{}, err
	}
	return client.GenerateText(ctx, req)
}

func (r *Router) GenerateJSON(ctx context.Context, req schemas.GenerationRequest) (schemas.GenerationResult, error) {
	client, err := r.pick(req.Tier)
	if err != nil {
		return schemas.GenerationResult{}, err
	}
	return client.GenerateJSON(ctx, req)
}

// IsConfigured is true only when every tier can reach its service.
func (r *Router) IsConfigured() bool {
	for _, client := range r.clients {
		if !client.IsConfigured() {
			return false
		}
	}
	return true
}
