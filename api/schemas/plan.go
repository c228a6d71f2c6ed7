package schemas

import "time"

// -- Plan Schemas --

// ActionType defines the closed set of primitive browser actions a plan step
// may request, plus the composite EXECUTE_SUB_PLAN marker used by
// hierarchical plans.
type ActionType string

const (
	ActionNavigate   ActionType = "NAVIGATE"
	ActionClick      ActionType = "CLICK"
	ActionTypeText   ActionType = "TYPE"
	ActionFill       ActionType = "FILL"
	ActionWait       ActionType = "WAIT"
	ActionScreenshot ActionType = "SCREENSHOT"
	ActionScroll     ActionType = "SCROLL"
	ActionExtract    ActionType = "EXTRACT"

	// ActionExecuteSubPlan references a sibling sub-plan by index instead of
	// embedding it, keeping the plan graph flat.
	ActionExecuteSubPlan ActionType = "EXECUTE_SUB_PLAN"
)

// ActionStep is a single instruction to the browser capability interface.
type ActionStep struct {
	Type        ActionType     `json:"type"`
	Description string         `json:"description"`
	Selector    string         `json:"selector,omitempty"`
	URL         string         `json:"url,omitempty"`
	Text        string         `json:"text,omitempty"`
	// SubPlanIndex is only meaningful for EXECUTE_SUB_PLAN steps.
	SubPlanIndex int                    `json:"sub_plan_index,omitempty"`
	Parameters   map[string]interface{} `json:"parameters,omitempty"`
}

// PlanContext snapshots where the plan was created and how far it has run.
type PlanContext struct {
	URL         string `json:"url"`
	Title       string `json:"title"`
	CurrentStep int    `json:"current_step"`
	TotalSteps  int    `json:"total_steps"`
}

// PlanMetadata carries provenance for a plan: why the model chose these
// steps, whether the deterministic fallback was substituted, which declared
// steps were dropped for having unknown action labels, and the id of the
// plan this one was adapted from (if any).
type PlanMetadata struct {
	Reasoning    string   `json:"reasoning"`
	UsedFallback bool     `json:"used_fallback,omitempty"`
	DroppedSteps []string `json:"dropped_steps,omitempty"`
	AdaptedFrom  string   `json:"adapted_from,omitempty"`
}

// ActionPlan is an ordered, non-empty sequence of steps for one objective.
type ActionPlan struct {
	ID                string        `json:"id"`
	Objective         string        `json:"objective"`
	Steps             []ActionStep  `json:"steps"`
	EstimatedDuration time.Duration `json:"estimated_duration"`
	Dependencies      []string      `json:"dependencies,omitempty"`
	Priority          int           `json:"priority"`
	Context           PlanContext   `json:"context"`
	Metadata          PlanMetadata  `json:"metadata"`
	CreatedAt         time.Time     `json:"created_at"`
}

// PlanningStrategy labels how sub-plans of a hierarchical plan relate.
// Only sequential execution semantics are implemented; "parallel" is
// accepted from the model as a label and recorded verbatim.
type PlanningStrategy string

const (
	StrategySequential PlanningStrategy = "sequential"
	StrategyParallel   PlanningStrategy = "parallel"
)

// GlobalPlanInstruction is the model's decomposition of a complex
// instruction into ordered sub-objectives. SubObjectives is never empty and
// never contains empty strings once validated.
type GlobalPlanInstruction struct {
	SubObjectives    []string         `json:"subObjectives"`
	PlanningStrategy PlanningStrategy `json:"planningStrategy"`
	Reasoning        string           `json:"reasoning"`
	// UsedFallback is set when the deterministic fallback replaced an
	// unusable model response. Excluded from JSON so a round-trip of a valid
	// instruction compares equal.
	UsedFallback bool `json:"-"`
}

// HierarchicalPlan couples a synthetic global plan of EXECUTE_SUB_PLAN
// markers with the concrete sub-plans they reference. Invariant:
// len(SubPlans) == len(GlobalPlan.Steps).
type HierarchicalPlan struct {
	GlobalObjective  string           `json:"global_objective"`
	GlobalPlan       *ActionPlan      `json:"global_plan"`
	SubPlans         []*ActionPlan    `json:"sub_plans"`
	PlanningStrategy PlanningStrategy `json:"planning_strategy"`
}
