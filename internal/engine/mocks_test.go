package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/voidwalkr/webpilot/api/schemas"
	"github.com/voidwalkr/webpilot/internal/browser"
)

// mockSession is a scripted stand-in for a browser tab. failures maps a
// call key ("CLICK #x", "NAVIGATE https://...") to how many times that call
// should fail before succeeding.
type mockSession struct {
	mu       sync.Mutex
	id       string
	calls    []string
	failures map[string]int
	captures int
	closed   bool

	extractPayload string
	screenshot     []byte
	pageState      *schemas.PageState
}

func newMockSession() *mockSession {
	return &mockSession{
		id:             "mock-session",
		failures:       map[string]int{},
		extractPayload: "extracted text",
		screenshot:     []byte{0x89, 'P', 'N', 'G'},
		pageState: &schemas.PageState{
			URL:   "https://start.test",
			Title: "Start",
		},
	}
}

func (m *mockSession) attempt(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, key)
	if remaining := m.failures[key]; remaining > 0 {
		m.failures[key] = remaining - 1
		return fmt.Errorf("simulated failure for %s", key)
	}
	return nil
}

func (m *mockSession) callLog() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.calls))
	copy(out, m.calls)
	return out
}

func (m *mockSession) captureCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.captures
}

func (m *mockSession) ID() string { return m.id }

func (m *mockSession) Navigate(ctx context.Context, url string) error {
	return m.attempt("NAVIGATE " + url)
}

func (m *mockSession) Click(ctx context.Context, selector string) error {
	return m.attempt("CLICK " + selector)
}

func (m *mockSession) Type(ctx context.Context, selector, text string) error {
	return m.attempt("TYPE " + selector)
}

func (m *mockSession) Fill(ctx context.Context, selector, text string) error {
	return m.attempt("FILL " + selector)
}

func (m *mockSession) WaitForElement(ctx context.Context, selector string, timeout time.Duration) error {
	return m.attempt("WAIT " + selector)
}

func (m *mockSession) Scroll(ctx context.Context, direction string, amount int) error {
	return m.attempt("SCROLL " + direction)
}

func (m *mockSession) TakeScreenshot(ctx context.Context) ([]byte, error) {
	if err := m.attempt("SCREENSHOT"); err != nil {
		return nil, err
	}
	return m.screenshot, nil
}

func (m *mockSession) ExtractData(ctx context.Context, selector string) (string, error) {
	if err := m.attempt("EXTRACT " + selector); err != nil {
		return "", err
	}
	return m.extractPayload, nil
}

func (m *mockSession) GetCurrentURL(ctx context.Context) (string, error) {
	return m.pageState.URL, nil
}

func (m *mockSession) GetPageTitle(ctx context.Context) (string, error) {
	return m.pageState.Title, nil
}

func (m *mockSession) GetPageContent(ctx context.Context) (string, error) {
	return m.pageState.Content, nil
}

func (m *mockSession) CapturePageState(ctx context.Context) (*schemas.PageState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.captures++
	state := *m.pageState
	state.CapturedAt = time.Now().UTC()
	return &state, nil
}

func (m *mockSession) Close(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// mockFactory hands out the same session, or an error.
type mockFactory struct {
	session browser.Session
	err     error
}

func (f *mockFactory) NewSession(ctx context.Context) (browser.Session, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.session, nil
}

// mockStepPlanner returns scripted plans in order, repeating the last one.
type mockStepPlanner struct {
	mu         sync.Mutex
	plans      []*schemas.ActionPlan
	err        error
	objectives []string
}

func (p *mockStepPlanner) CreatePlan(ctx context.Context, objective string, taskCtx *schemas.TaskContext, pageState *schemas.PageState) (*schemas.ActionPlan, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return nil, p.err
	}
	p.objectives = append(p.objectives, objective)
	idx := len(p.objectives) - 1
	if idx >= len(p.plans) {
		idx = len(p.plans) - 1
	}
	return p.plans[idx], nil
}

// mockTaskPlanner scripts the hierarchical decision and result.
type mockTaskPlanner struct {
	hierarchical bool
	plan         *schemas.HierarchicalPlan
	err          error
}

func (p *mockTaskPlanner) ShouldUseHierarchicalPlanning(instruction string) bool {
	return p.hierarchical
}

func (p *mockTaskPlanner) CreateHierarchicalPlan(ctx context.Context, instruction string, taskCtx *schemas.TaskContext) (*schemas.HierarchicalPlan, error) {
	if p.err != nil {
		return nil, p.err
	}
	return p.plan, nil
}

func flatPlan(objective string, steps ...schemas.ActionStep) *schemas.ActionPlan {
	return &schemas.ActionPlan{
		ID:        "plan-" + objective,
		Objective: objective,
		Steps:     steps,
	}
}
