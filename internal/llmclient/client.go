// internal/llmclient/client.go
package llmclient

import (
	"context"

	"github.com/voidwalkr/webpilot/api/schemas"
)

// LLMClient defines the interface for interacting with a language model
// service. It abstracts the concrete provider (Gemini, OpenAI, Anthropic,
// Ollama) away from the planning core.
type LLMClient interface {
	// GenerateText sends the request and returns free-form text content.
	GenerateText(ctx context.Context, req schemas.GenerationRequest) (schemas.GenerationResult, error)

	// GenerateJSON is GenerateText with JSON output mode enforced where the
	// provider supports it; Content is expected to be a JSON string.
	GenerateJSON(ctx context.Context, req schemas.GenerationRequest) (schemas.GenerationResult, error)

	// IsConfigured reports whether the client has everything it needs to
	// reach its backing service.
	IsConfigured() bool
}
