package planner

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/voidwalkr/webpilot/api/schemas"
)

func newHierarchicalPlanner(llm LLMService) *HierarchicalPlanner {
	ap := NewActionPlanner(zap.NewNop(), llm, plannerCfg())
	return NewHierarchicalPlanner(zap.NewNop(), llm, ap)
}

func TestShouldUseHierarchicalPlanning(t *testing.T) {
	h := newHierarchicalPlanner(newMockLLM())

	cases := []struct {
		instruction string
		want        bool
	}{
		{"Click the login button", false},
		{"Navigate to X and then fill out the form with user details", true},
		{"Navigate to https://example.com and take a screenshot, then click the first link", true},
		{"Search for cats and dogs", false},
		{"Open the settings page, then enable dark mode and verify the theme changed", true},
		{"", false},
		{"and then", false},
		{"Scroll down", false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, h.ShouldUseHierarchicalPlanning(tc.instruction), tc.instruction)
	}
}

func TestShouldUseHierarchicalPlanningNeverCallsModel(t *testing.T) {
	llm := newMockLLM()
	h := newHierarchicalPlanner(llm)

	h.ShouldUseHierarchicalPlanning("Navigate to X and then fill out the form")
	assert.Empty(t, llm.requests)
}

func TestCreateHierarchicalPlanInvariants(t *testing.T) {
	llm := newMockLLM(
		`{"subObjectives": ["Navigate to the store", "Add the item to the cart", "Check out"], "planningStrategy": "sequential", "reasoning": "three stages"}`,
		`{"steps": [{"action": "NAVIGATE", "url": "https://store.test"}]}`,
		`{"steps": [{"action": "CLICK", "selector": "#add-to-cart"}]}`,
		`{"steps": [{"action": "CLICK", "selector": "#checkout"}, {"action": "EXTRACT"}]}`,
	)
	h := newHierarchicalPlanner(llm)

	hp, err := h.CreateHierarchicalPlan(context.Background(), "buy the item", &schemas.TaskContext{})
	require.NoError(t, err)

	require.Len(t, hp.SubPlans, 3)
	require.Len(t, hp.GlobalPlan.Steps, len(hp.SubPlans))
	for i, step := range hp.GlobalPlan.Steps {
		assert.Equal(t, schemas.ActionExecuteSubPlan, step.Type)
		assert.Equal(t, i, step.SubPlanIndex)
	}

	assert.Equal(t, "buy the item", hp.GlobalObjective)
	assert.Equal(t, schemas.StrategySequential, hp.PlanningStrategy)
	assert.Equal(t, "Navigate to the store", hp.SubPlans[0].Objective)
	assert.Equal(t, schemas.ActionNavigate, hp.SubPlans[0].Steps[0].Type)
	require.Len(t, hp.SubPlans[2].Steps, 2)
}

func TestCreateHierarchicalPlanFallbackDecomposition(t *testing.T) {
	llm := newMockLLM(
		"the model rambled instead of emitting JSON",
		`{"steps": [{"action": "EXTRACT"}]}`,
	)
	h := newHierarchicalPlanner(llm)

	hp, err := h.CreateHierarchicalPlan(context.Background(), "do the whole thing", nil)
	require.NoError(t, err)

	// Unusable decomposition collapses to a single sub-objective: the
	// instruction itself.
	require.Len(t, hp.SubPlans, 1)
	require.Len(t, hp.GlobalPlan.Steps, 1)
	assert.Equal(t, "do the whole thing", hp.GlobalPlan.Steps[0].Description)
	assert.True(t, hp.GlobalPlan.Metadata.UsedFallback)
	assert.Equal(t, schemas.StrategySequential, hp.PlanningStrategy)
}

func TestCreateHierarchicalPlanUsesFastTierForDecomposition(t *testing.T) {
	llm := newMockLLM(
		`{"subObjectives": ["step one", "step two"], "planningStrategy": "sequential"}`,
		`{"steps": [{"action": "WAIT"}]}`,
		`{"steps": [{"action": "WAIT"}]}`,
	)
	h := newHierarchicalPlanner(llm)

	_, err := h.CreateHierarchicalPlan(context.Background(), "a and b", nil)
	require.NoError(t, err)

	require.GreaterOrEqual(t, len(llm.requests), 3)
	assert.Equal(t, schemas.TierFast, llm.requests[0].Tier)
	assert.Equal(t, schemas.TierPowerful, llm.requests[1].Tier)
}

func TestCreateHierarchicalPlanUnconfiguredService(t *testing.T) {
	llm := newMockLLM()
	llm.configured = false
	h := newHierarchicalPlanner(llm)

	_, err := h.CreateHierarchicalPlan(context.Background(), "anything", nil)
	assert.ErrorIs(t, err, ErrLLMNotConfigured)
}
