// internal/llmclient/ollama.go
package llmclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/voidwalkr/webpilot/api/schemas"
	"github.com/voidwalkr/webpilot/internal/config"
)

// OllamaClient implements LLMClient against a local Ollama server. No API
// key is involved; reachability of the endpoint is the only requirement.
type OllamaClient struct {
	endpoint   string
	httpClient *http.Client
	logger     *zap.Logger
	config     config.LLMModelConfig
}

type ollamaChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaChatRequest struct {
	Model    string              `json:"model"`
	Messages []ollamaChatMessage `json:"messages"`
	Stream   bool                `json:"stream"`
	Format   string              `json:"format,omitempty"`
	Options  map[string]any      `json:"options,omitempty"`
}

type ollamaChatResponse struct {
	Message         ollamaChatMessage `json:"message"`
	DoneReason      string            `json:"done_reason"`
	PromptEvalCount int               `json:"prompt_eval_count"`
	EvalCount       int               `json:"eval_count"`
}

// NewOllamaClient initializes the client.
func NewOllamaClient(cfg config.LLMModelConfig, logger *zap.Logger) (*OllamaClient, error) {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = "http://localhost:11434"
	}
	endpoint = strings.TrimSuffix(endpoint, "/") + "/api/chat"

	return &OllamaClient{
		endpoint: endpoint,
		config:   cfg,
		httpClient: &http.Client{
			Timeout: cfg.APITimeout,
		},
		logger: logger.Named("llm_client.ollama"),
	}, nil
}

func (c *OllamaClient) IsConfigured() bool {
	return c.endpoint != "" && c.config.Model != ""
}

func (c *OllamaClient) GenerateText(ctx context.Context, req schemas.GenerationRequest) (schemas.GenerationResult, error) {
	return c.generate(ctx, req)
}

func (c *OllamaClient) GenerateJSON(ctx context.Context, req schemas.GenerationRequest) (schemas.GenerationResult, error) {
	req.Options.ForceJSONFormat = true
	return c.generate(ctx, req)
}

// generate does a single round-trip; a local server either answers or is
// down, so the remote-API backoff dance buys nothing here.
func (c *OllamaClient) generate(ctx context.Context, req schemas.GenerationRequest) (schemas.GenerationResult, error) {
	payload := ollamaChatRequest{
		Model:  c.config.Model,
		Stream: false,
		Options: map[string]any{
			"temperature": float64(req.Options.Temperature),
		},
	}
	if req.SystemPrompt != "" {
		payload.Messages = append(payload.Messages, ollamaChatMessage{Role: "system", Content: req.SystemPrompt})
	}
	payload.Messages = append(payload.Messages, ollamaChatMessage{Role: "user", Content: req.UserPrompt})
	if req.Options.ForceJSONFormat {
		payload.Format = "json"
	}
	if req.Options.MaxTokens > 0 {
		payload.Options["num_predict"] = req.Options.MaxTokens
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return schemas.GenerationResult{}, fmt.Errorf("failed to marshal request payload: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewBuffer(body))
	if err != nil {
		return schemas.GenerationResult{}, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return schemas.GenerationResult{}, fmt.Errorf("failed to execute HTTP request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return schemas.GenerationResult{}, fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		c.logger.Error("Ollama returned error status", zap.Int("status", resp.StatusCode), zap.String("response", string(respBody)))
		return schemas.GenerationResult{}, fmt.Errorf("ollama error: status %d, body: %s", resp.StatusCode, string(respBody))
	}

	var chatResp ollamaChatResponse
	if err := json.Unmarshal(respBody, &chatResp); err != nil {
		return schemas.GenerationResult{}, fmt.Errorf("failed to decode response payload: %w", err)
	}

	return schemas.GenerationResult{
		Content:      chatResp.Message.Content,
		FinishReason: chatResp.DoneReason,
		Usage: schemas.TokenUsage{
			PromptTokens:     chatResp.PromptEvalCount,
			CompletionTokens: chatResp.EvalCount,
			TotalTokens:      chatResp.PromptEvalCount + chatResp.EvalCount,
		},
	}, nil
}
