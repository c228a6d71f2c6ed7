package llmclient

import (
	"context"
	"sync"

	"github.com/voidwalkr/webpilot/api/schemas"
)

// mockClient is a hand-rolled LLMClient for router and limiter tests.
type mockClient struct {
	mu         sync.Mutex
	calls      int
	lastReq    schemas.GenerationRequest
	result     schemas.GenerationResult
	err        error
	configured bool
}

func (m *mockClient) record(req schemas.GenerationRequest) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.lastReq = req
}

func (m *mockClient) GenerateText(_ context.Context, req schemas.GenerationRequest) (schemas.GenerationResult, error) {
	m.record(req)
	return m.result, m.err
}

func (m *mockClient) GenerateJSON(_ context.Context, req schemas.GenerationRequest) (schemas.GenerationResult, error) {
	m.record(req)
	return m.result, m.err
}

func (m *mockClient) IsConfigured() bool { return m.configured }

func (m *mockClient) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}
