package planner

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voidwalkr/webpilot/api/schemas"
)

func sampleSteps(n int) []schemas.ActionStep {
	steps := make([]schemas.ActionStep, n)
	for i := range steps {
		steps[i] = schemas.ActionStep{Type: schemas.ActionClick, Selector: "#x"}
	}
	return steps
}

func TestBuildPlanBasics(t *testing.T) {
	b := NewPlanBuilder(500 * time.Millisecond)
	state := &schemas.PageState{URL: "https://example.com", Title: "Example"}

	plan := b.BuildPlan("log in", sampleSteps(3), schemas.PlanMetadata{Reasoning: "r"}, state)

	assert.NotEmpty(t, plan.ID)
	assert.Equal(t, "log in", plan.Objective)
	assert.Equal(t, 1500*time.Millisecond, plan.EstimatedDuration)
	assert.Equal(t, "https://example.com", plan.Context.URL)
	assert.Equal(t, "Example", plan.Context.Title)
	assert.Equal(t, 0, plan.Context.CurrentStep)
	assert.Equal(t, 3, plan.Context.TotalSteps)
	assert.Equal(t, "r", plan.Metadata.Reasoning)
	assert.False(t, plan.CreatedAt.IsZero())
}

func TestBuildPlanUniqueIDs(t *testing.T) {
	b := NewPlanBuilder(0)
	a := b.BuildPlan("x", sampleSteps(1), schemas.PlanMetadata{}, nil)
	c := b.BuildPlan("x", sampleSteps(1), schemas.PlanMetadata{}, nil)
	assert.NotEqual(t, a.ID, c.ID)
}

func TestBuildPlanDefaultDuration(t *testing.T) {
	b := NewPlanBuilder(0)
	plan := b.BuildPlan("x", sampleSteps(2), schemas.PlanMetadata{}, nil)
	assert.Equal(t, 2*DefaultPerStepDuration, plan.EstimatedDuration)
}

func TestBuildPlanNilPageState(t *testing.T) {
	b := NewPlanBuilder(time.Second)
	plan := b.BuildPlan("x", sampleSteps(1), schemas.PlanMetadata{}, nil)
	assert.Empty(t, plan.Context.URL)
	assert.Equal(t, 1, plan.Context.TotalSteps)
}

func TestBuildAdaptedPlanPreservesLineage(t *testing.T) {
	b := NewPlanBuilder(time.Second)
	original := b.BuildPlan("buy milk", sampleSteps(2), schemas.PlanMetadata{Reasoning: "v1"}, &schemas.PageState{URL: "https://shop.test", Title: "Shop"})
	original.Priority = 7
	original.Dependencies = []string{"dep-1"}

	adapted := b.BuildAdaptedPlan(original, sampleSteps(4), "page changed")

	require.NotEqual(t, original.ID, adapted.ID)
	assert.Equal(t, original.ID, adapted.Metadata.AdaptedFrom)
	assert.Equal(t, "buy milk", adapted.Objective)
	assert.Equal(t, 7, adapted.Priority)
	assert.Equal(t, []string{"dep-1"}, adapted.Dependencies)
	assert.Equal(t, "page changed", adapted.Metadata.Reasoning)
	assert.Equal(t, 4*time.Second, adapted.EstimatedDuration)
	assert.Equal(t, "https://shop.test", adapted.Context.URL)
	assert.Equal(t, 4, adapted.Context.TotalSteps)
}
