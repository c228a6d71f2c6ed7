package planner

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/voidwalkr/webpilot/api/schemas"
)

func newParser() *ResponseParser {
	return NewResponseParser(zap.NewNop())
}

func TestParseGlobalPlanResponseValid(t *testing.T) {
	text := `{"subObjectives": ["go to site", "fill form"], "planningStrategy": "sequential", "reasoning": "two stages"}`

	got := newParser().ParseGlobalPlanResponse(text, "whole instruction")

	assert.Equal(t, []string{"go to site", "fill form"}, got.SubObjectives)
	assert.Equal(t, schemas.StrategySequential, got.PlanningStrategy)
	assert.Equal(t, "two stages", got.Reasoning)
	assert.False(t, got.UsedFallback)
}

func TestParseGlobalPlanResponseFenced(t *testing.T) {
	text := "```json\n{\"subObjectives\": [\"a\"], \"planningStrategy\": \"parallel\", \"reasoning\": \"r\"}\n```"

	got := newParser().ParseGlobalPlanResponse(text, "fb")

	assert.Equal(t, []string{"a"}, got.SubObjectives)
	assert.Equal(t, schemas.StrategyParallel, got.PlanningStrategy)
	assert.False(t, got.UsedFallback)
}

func TestParseGlobalPlanResponseFallbacks(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"not json", "not json at all"},
		{"empty objectives", `{"subObjectives": [], "planningStrategy": "sequential"}`},
		{"blank objective", `{"subObjectives": ["ok", "  "], "planningStrategy": "sequential"}`},
		{"wrong shape", `{"steps": ["a"]}`},
		{"empty string", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := newParser().ParseGlobalPlanResponse(tt.text, "do X")

			assert.Equal(t, []string{"do X"}, got.SubObjectives)
			assert.Equal(t, schemas.StrategySequential, got.PlanningStrategy)
			assert.Equal(t, FallbackReasoning, got.Reasoning)
			assert.True(t, got.UsedFallback)
		})
	}
}

func TestParseGlobalPlanResponseUnknownStrategyNormalized(t *testing.T) {
	text := `{"subObjectives": ["a"], "planningStrategy": "quantum", "reasoning": "r"}`
	got := newParser().ParseGlobalPlanResponse(text, "fb")

	assert.Equal(t, schemas.StrategySequential, got.PlanningStrategy)
	assert.False(t, got.UsedFallback)
}

func TestParseGlobalPlanResponseRoundTrip(t *testing.T) {
	original := schemas.GlobalPlanInstruction{
		SubObjectives:    []string{"one", "two", "three"},
		PlanningStrategy: schemas.StrategySequential,
		Reasoning:        "because",
	}

	serialized, err := json.Marshal(original)
	require.NoError(t, err)

	reparsed := newParser().ParseGlobalPlanResponse(string(serialized), "unused")

	if diff := cmp.Diff(original, reparsed); diff != "" {
		t.Fatalf("round-trip mismatch (-want +got):\n%s", diff)
	}
}

func TestParsePlanStepsValid(t *testing.T) {
	text := `{"reasoning": "login flow", "steps": [
		{"action": "NAVIGATE", "url": "https://example.com"},
		{"action": "click", "selector": "#login", "description": "open login"}
	]}`

	resp, ok := newParser().ParsePlanSteps(text)
	require.True(t, ok)

	assert.Equal(t, "login flow", resp.Reasoning)
	require.Len(t, resp.Steps, 2)
	assert.Equal(t, "NAVIGATE", resp.Steps[0].label())
	assert.Equal(t, "#login", resp.Steps[1].Selector)
}

func TestParsePlanStepsBareArray(t *testing.T) {
	text := `[{"type": "CLICK", "selector": ".btn"}]`

	resp, ok := newParser().ParsePlanSteps(text)
	require.True(t, ok)
	require.Len(t, resp.Steps, 1)
	assert.Equal(t, "CLICK", resp.Steps[0].label())
}

func TestParsePlanStepsLabelSynonymFields(t *testing.T) {
	text := `{"steps": [{"type": "TYPE", "selector": "#q", "value": "cats"}]}`

	resp, ok := newParser().ParsePlanSteps(text)
	require.True(t, ok)
	assert.Equal(t, "cats", resp.Steps[0].payloadText())
}

func TestParsePlanStepsRejectsUnusable(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"not json", "total garbage"},
		{"no steps", `{"reasoning": "hm", "steps": []}`},
		{"only unlabeled steps", `{"steps": [{"description": "mystery"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := newParser().ParsePlanSteps(tt.text)
			assert.False(t, ok)
		})
	}
}

func TestParsePlanStepsDiscardsUnlabeledKeepsRest(t *testing.T) {
	text := `{"steps": [{"description": "no label"}, {"action": "WAIT"}]}`

	resp, ok := newParser().ParsePlanSteps(text)
	require.True(t, ok)
	require.Len(t, resp.Steps, 1)
	assert.Equal(t, "WAIT", resp.Steps[0].label())
}
