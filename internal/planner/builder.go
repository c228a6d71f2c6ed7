// internal/planner/builder.go
package planner

import (
	"time"

	"github.com/google/uuid"

	"github.com/voidwalkr/webpilot/api/schemas"
)

// DefaultPerStepDuration feeds plan duration estimates when no explicit
// value is configured.
const DefaultPerStepDuration = time.Second

// PlanBuilder assembles validated steps and metadata into immutable
// ActionPlan values.
type PlanBuilder struct {
	perStepDuration time.Duration
}

// NewPlanBuilder creates a PlanBuilder. A non-positive duration falls back
// to the default.
func NewPlanBuilder(perStepDuration time.Duration) *PlanBuilder {
	if perStepDuration <= 0 {
		perStepDuration = DefaultPerStepDuration
	}
	return &PlanBuilder{perStepDuration: perStepDuration}
}

// BuildPlan creates a fresh plan with a unique id, a derived duration
// estimate and a snapshot of where the plan was created.
func (b *PlanBuilder) BuildPlan(objective string, steps []schemas.ActionStep, meta schemas.PlanMetadata, pageState *schemas.PageState) *schemas.ActionPlan {
	plan := &schemas.ActionPlan{
		ID:                uuid.NewString(),
		Objective:         objective,
		Steps:             steps,
		EstimatedDuration: time.Duration(len(steps)) * b.perStepDuration,
		Metadata:          meta,
		CreatedAt:         time.Now().UTC(),
		Context: schemas.PlanContext{
			CurrentStep: 0,
			TotalSteps:  len(steps),
		},
	}
	if pageState != nil {
		plan.Context.URL = pageState.URL
		plan.Context.Title = pageState.Title
	}
	return plan
}

// BuildAdaptedPlan derives a revised plan from an existing one, keeping the
// objective, priority and dependencies and stamping the lineage so a
// mid-execution revision stays traceable to its origin.
func (b *PlanBuilder) BuildAdaptedPlan(original *schemas.ActionPlan, newSteps []schemas.ActionStep, reasoning string) *schemas.ActionPlan {
	return &schemas.ActionPlan{
		ID:                uuid.NewString(),
		Objective:         original.Objective,
		Steps:             newSteps,
		EstimatedDuration: time.Duration(len(newSteps)) * b.perStepDuration,
		Dependencies:      original.Dependencies,
		Priority:          original.Priority,
		CreatedAt:         time.Now().UTC(),
		Context: schemas.PlanContext{
			URL:         original.Context.URL,
			Title:       original.Context.Title,
			CurrentStep: 0,
			TotalSteps:  len(newSteps),
		},
		Metadata: schemas.PlanMetadata{
			Reasoning:   reasoning,
			AdaptedFrom: original.ID,
		},
	}
}
