// internal/llmclient/ratelimit.go
package llmclient

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/voidwalkr/webpilot/api/schemas"
)

// RateLimitedClient wraps an LLMClient with a shared token-bucket limiter
// so concurrent tasks cannot stampede a provider's quota.
type RateLimitedClient struct {
	inner   LLMClient
	limiter *rate.Limiter
}

// NewRateLimitedClient wraps inner, allowing requestsPerMinute sustained
// calls with a burst of one.
func NewRateLimitedClient(inner LLMClient, requestsPerMinute float64) *RateLimitedClient {
	return &RateLimitedClient{
		inner:   inner,
		limiter: rate.NewLimiter(rate.Limit(requestsPerMinute/60.0), 1),
	}
}

func (c *RateLimitedClient) GenerateText(ctx context.Context, req schemas.GenerationRequest) (schemas.GenerationResult, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return schemas.GenerationResult{}, err
	}
	return c.inner.GenerateText(ctx, req)
}

func (c *RateLimitedClient) GenerateJSON(ctx context.Context, req schemas.GenerationRequest) (schemas.GenerationResult, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return schemas.GenerationResult{}, err
	}
	return c.inner.GenerateJSON(ctx, req)
}

func (c *RateLimitedClient) IsConfigured() bool {
	return c.inner.IsConfigured()
}
