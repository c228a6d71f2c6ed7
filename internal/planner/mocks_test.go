package planner

import (
	"context"
	"sync"

	"github.com/voidwalkr/webpilot/api/schemas"
)

// mockLLM is a scripted LLMService: it replies with queued responses in
// order, repeating the last one when the queue runs dry.
type mockLLM struct {
	mu         sync.Mutex
	responses  []string
	errs       []error
	calls      int
	requests   []schemas.GenerationRequest
	configured bool
}

func newMockLLM(responses ...string) *mockLLM {
	return &mockLLM{responses: responses, configured: true}
}

func (m *mockLLM) GenerateJSON(_ context.Context, req schemas.GenerationRequest) (schemas.GenerationResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := m.calls
	m.calls++
	m.requests = append(m.requests, req)

	if idx < len(m.errs) && m.errs[idx] != nil {
		return schemas.GenerationResult{}, m.errs[idx]
	}
	if len(m.responses) == 0 {
		return schemas.GenerationResult{}, nil
	}
	if idx >= len(m.responses) {
		idx = len(m.responses) - 1
	}
	return schemas.GenerationResult{Content: m.responses[idx], FinishReason: "stop"}, nil
}

func (m *mockLLM) IsConfigured() bool { return m.configured }

func (m *mockLLM) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}
