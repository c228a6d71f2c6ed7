package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/voidwalkr/webpilot/api/schemas"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestRunAllPreservesInputOrder(t *testing.T) {
	session := newMockSession()
	step := &mockStepPlanner{plans: []*schemas.ActionPlan{
		flatPlan("any", schemas.ActionStep{Type: schemas.ActionExtract}),
	}}
	eng := newTestEngine(session, step, &mockTaskPlanner{})
	runner := NewRunner(zap.NewNop(), eng, 2)

	instructions := []string{"read page one", "read page two", "read page three"}
	results := runner.RunAll(context.Background(), instructions, Options{})

	require.Len(t, results, len(instructions))
	for i, r := range results {
		assert.True(t, r.Success, "task %d", i)
		assert.NotEmpty(t, r.Steps, "task %d", i)
	}
}

func TestRunAllReportsPerTaskFailures(t *testing.T) {
	session := newMockSession()
	session.failures["NAVIGATE https://down.test"] = 100

	step := &mockStepPlanner{plans: []*schemas.ActionPlan{
		flatPlan("any", schemas.ActionStep{Type: schemas.ActionNavigate, URL: "https://down.test"}),
	}}
	eng := newTestEngine(session, step, &mockTaskPlanner{})
	runner := NewRunner(zap.NewNop(), eng, 0)

	results := runner.RunAll(context.Background(), []string{"a", "b"}, Options{})

	require.Len(t, results, 2)
	for _, r := range results {
		assert.False(t, r.Success)
		assert.NotEmpty(t, r.Error)
	}
}

func TestRunAllEmptyInput(t *testing.T) {
	eng := newTestEngine(newMockSession(), &mockStepPlanner{plans: []*schemas.ActionPlan{flatPlan("x")}}, &mockTaskPlanner{})
	runner := NewRunner(zap.NewNop(), eng, 4)

	results := runner.RunAll(context.Background(), nil, Options{})
	assert.Empty(t, results)
}
