// internal/planner/hierarchical.go
package planner

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/voidwalkr/webpilot/api/schemas"
)

// HierarchicalPlanner classifies instructions as simple or complex,
// decomposes complex ones into ordered sub-objectives and builds one
// ActionPlan per sub-objective through the ActionPlanner.
type HierarchicalPlanner struct {
	logger        *zap.Logger
	llm           LLMService
	parser        *ResponseParser
	actionPlanner *ActionPlanner
}

// NewHierarchicalPlanner creates a HierarchicalPlanner sharing the given
// ActionPlanner for sub-plan construction.
func NewHierarchicalPlanner(logger *zap.Logger, llm LLMService, actionPlanner *ActionPlanner) *HierarchicalPlanner {
	return &HierarchicalPlanner{
		logger:        logger.Named("hierarchical_planner"),
		llm:           llm,
		parser:        NewResponseParser(logger),
		actionPlanner: actionPlanner,
	}
}

// clauseSeparator splits an instruction on coordinating conjunctions.
var clauseSeparator = regexp.MustCompile(`(?i)\s*(?:,\s*)?\b(?:and then|then|and)\b\s+`)

// imperativeVerbs anchors clause counting: only fragments that start with
// a browsing verb count as distinct sub-tasks, so "search for cats and
// dogs" stays a single clause.
var imperativeVerbs = map[string]bool{
	"navigate": true, "go": true, "open": true, "visit": true, "load": true,
	"click": true, "press": true, "tap": true, "select": true, "choose": true,
	"type": true, "enter": true, "fill": true, "write": true, "input": true,
	"search": true, "find": true, "look": true,
	"take": true, "capture": true, "screenshot": true,
	"scroll": true, "wait": true, "submit": true, "login": true, "log": true,
	"extract": true, "read": true, "collect": true, "download": true,
	"check": true, "verify": true, "close": true, "sign": true,
}

// ShouldUseHierarchicalPlanning is a deterministic textual heuristic: an
// instruction is complex when coordinating conjunctions join at least two
// distinct imperative clauses. It never calls the model.
func (h *HierarchicalPlanner) ShouldUseHierarchicalPlanning(instruction string) bool {
	parts := clauseSeparator.Split(strings.TrimSpace(instruction), -1)
	if len(parts) < 2 {
		return false
	}

	clauses := 0
	for _, part := range parts {
		fields := strings.Fields(strings.ToLower(part))
		if len(fields) == 0 {
			continue
		}
		if imperativeVerbs[strings.Trim(fields[0], ".,;:!?")] {
			clauses++
		}
	}
	return clauses >= 2
}

const decompositionSystemPrompt = `You are the planning core of 'webpilot', an autonomous browser task agent.
Decompose the given instruction into an ordered list of self-contained sub-objectives.
Each sub-objective must be achievable with a short sequence of browser actions.
Respond ONLY with a single JSON object:
{"subObjectives": ["...", "..."], "planningStrategy": "sequential", "reasoning": "..."}`

// CreateHierarchicalPlan decomposes the instruction and builds one sub-plan
// per sub-objective, in order, against the context state as it exists when
// each sub-plan is built. The returned plan always satisfies
// len(SubPlans) == len(GlobalPlan.Steps) with every global step an
// EXECUTE_SUB_PLAN marker.
func (h *HierarchicalPlanner) CreateHierarchicalPlan(ctx context.Context, instruction string, taskCtx *schemas.TaskContext) (*schemas.HierarchicalPlan, error) {
	if !h.llm.IsConfigured() {
		return nil, ErrLLMNotConfigured
	}

	res, err := h.llm.GenerateJSON(ctx, schemas.GenerationRequest{
		SystemPrompt: decompositionSystemPrompt,
		UserPrompt:   fmt.Sprintf("Instruction: %s\n\nDecompose it now.", instruction),
		Tier:         schemas.TierFast,
		Options: schemas.GenerationOptions{
			Temperature:     0.2,
			ForceJSONFormat: true,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("llm decomposition failed: %w", err)
	}

	global := h.parser.ParseGlobalPlanResponse(res.Content, instruction)
	if global.UsedFallback {
		h.logger.Warn("Decomposition fell back to the whole instruction", zap.String("instruction", instruction))
	} else {
		h.logger.Info("Instruction decomposed",
			zap.Int("sub_objectives", len(global.SubObjectives)),
			zap.String("strategy", string(global.PlanningStrategy)))
	}

	subPlans := make([]*schemas.ActionPlan, 0, len(global.SubObjectives))
	globalSteps := make([]schemas.ActionStep, 0, len(global.SubObjectives))
	for i, objective := range global.SubObjectives {
		var pageState *schemas.PageState
		if taskCtx != nil {
			pageState = taskCtx.CurrentState
		}
		subPlan, err := h.actionPlanner.CreatePlan(ctx, objective, taskCtx, pageState)
		if err != nil {
			return nil, fmt.Errorf("failed to build sub-plan %d (%q): %w", i, objective, err)
		}
		subPlans = append(subPlans, subPlan)
		globalSteps = append(globalSteps, schemas.ActionStep{
			Type:         schemas.ActionExecuteSubPlan,
			Description:  objective,
			SubPlanIndex: i,
		})
	}

	globalPlan := h.actionPlanner.builder.BuildPlan(instruction, globalSteps, schemas.PlanMetadata{
		Reasoning:    global.Reasoning,
		UsedFallback: global.UsedFallback,
	}, nil)

	return &schemas.HierarchicalPlan{
		GlobalObjective:  instruction,
		GlobalPlan:       globalPlan,
		SubPlans:         subPlans,
		PlanningStrategy: global.PlanningStrategy,
	}, nil
}
