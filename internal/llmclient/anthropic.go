// internal/llmclient/anthropic.go
package llmclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/voidwalkr/webpilot/api/schemas"
	"github.com/voidwalkr/webpilot/internal/config"
)

const anthropicVersion = "2023-06-01"

// AnthropicClient implements LLMClient against the Anthropic messages API.
type AnthropicClient struct {
	apiKey     string
	endpoint   string
	httpClient *http.Client
	logger     *zap.Logger
	config     config.LLMModelConfig
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	Temperature float64            `json:"temperature,omitempty"`
	System      string             `json:"system,omitempty"`
	Messages    []anthropicMessage `json:"messages"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// NewAnthropicClient initializes the client.
func NewAnthropicClient(cfg config.LLMModelConfig, logger *zap.Logger) (*AnthropicClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic API key is required")
	}

	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = "https://api.anthropic.com/v1/messages"
	}

	return &AnthropicClient{
		apiKey:   cfg.APIKey,
		endpoint: endpoint,
		config:   cfg,
		httpClient: &http.Client{
			Timeout: cfg.APITimeout,
		},
		logger: logger.Named("llm_client.anthropic"),
	}, nil
}

func (c *AnthropicClient) IsConfigured() bool {
	return c.apiKey != "" && c.endpoint != ""
}

func (c *AnthropicClient) GenerateText(ctx context.Context, req schemas.GenerationRequest) (schemas.GenerationResult, error) {
	return c.generate(ctx, req)
}

// GenerateJSON has no dedicated output mode on this API; the system prompt
// carries the JSON-only instruction instead.
func (c *AnthropicClient) GenerateJSON(ctx context.Context, req schemas.GenerationRequest) (schemas.GenerationResult, error) {
	if !strings.Contains(req.SystemPrompt, "JSON") {
		req.SystemPrompt = strings.TrimSpace(req.SystemPrompt + "\nRespond ONLY with a single valid JSON value, no markdown fences.")
	}
	return c.generate(ctx, req)
}

func (c *AnthropicClient) generate(ctx context.Context, req schemas.GenerationRequest) (schemas.GenerationResult, error) {
	maxTokens := req.Options.MaxTokens
	if maxTokens == 0 {
		maxTokens = c.config.MaxTokens
	}
	if maxTokens == 0 {
		maxTokens = 4096
	}

	payload := anthropicRequest{
		Model:       c.config.Model,
		MaxTokens:   maxTokens,
		Temperature: float64(req.Options.Temperature),
		System:      req.SystemPrompt,
		Messages: []anthropicMessage{
			{Role: "user", Content: req.UserPrompt},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return schemas.GenerationResult{}, fmt.Errorf("failed to marshal request payload: %w", err)
	}

	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = 2 * time.Minute
	b.MaxInterval = 30 * time.Second

	var result schemas.GenerationResult

	operation := func() error {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewBuffer(body))
		if err != nil {
			return backoff.Permanent(fmt.Errorf("failed to create HTTP request: %w", err))
		}
		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.Header.Set("x-api-key", c.apiKey)
		httpReq.Header.Set("anthropic-version", anthropicVersion)

		startTime := time.Now()
		resp, err := c.httpClient.Do(httpReq)
		if err != nil {
			c.logger.Warn("Network error during LLM request, retrying...", zap.Error(err))
			return fmt.Errorf("failed to execute HTTP request: %w", err)
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("failed to read response body: %w", err)
		}

		if resp.StatusCode != http.StatusOK {
			return c.handleAPIError(resp.StatusCode, respBody)
		}

		var msgResp anthropicResponse
		if err := json.Unmarshal(respBody, &msgResp); err != nil {
			return backoff.Permanent(fmt.Errorf("failed to decode response payload: %w", err))
		}
		if len(msgResp.Content) == 0 {
			return backoff.Permanent(fmt.Errorf("anthropic API returned empty content"))
		}

		c.logger.Info("LLM generation complete (Anthropic)",
			zap.Duration("duration", time.Since(startTime)),
			zap.Int("input_tokens", msgResp.Usage.InputTokens),
			zap.Int("output_tokens", msgResp.Usage.OutputTokens),
		)

		result = schemas.GenerationResult{
			Content:      msgResp.Content[0].Text,
			FinishReason: msgResp.StopReason,
			Usage: schemas.TokenUsage{
				PromptTokens:     msgResp.Usage.InputTokens,
				CompletionTokens: msgResp.Usage.OutputTokens,
				TotalTokens:      msgResp.Usage.InputTokens + msgResp.Usage.OutputTokens,
			},
		}
		return nil
	}

	if err := backoff.Retry(operation, backoff.WithContext(b, ctx)); err != nil {
		return schemas.GenerationResult{}, err
	}
	return result, nil
}

func (c *AnthropicClient) handleAPIError(statusCode int, body []byte) error {
	c.logger.Error("Anthropic API returned error status", zap.Int("status", statusCode), zap.String("response", string(body)))
	err := fmt.Errorf("anthropic API error: status %d, body: %s", statusCode, string(body))

	switch statusCode {
	case http.StatusTooManyRequests, http.StatusServiceUnavailable, http.StatusInternalServerError, 529:
		return err
	default:
		return backoff.Permanent(err)
	}
}
