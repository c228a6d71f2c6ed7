// internal/planner/planner.go
package planner

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/voidwalkr/webpilot/api/schemas"
	"github.com/voidwalkr/webpilot/internal/config"
	"github.com/voidwalkr/webpilot/internal/extractor"
	"github.com/voidwalkr/webpilot/internal/llmutil"
)

// LLMService is the slice of the language-model client the planners
// consume. Satisfied by llmclient.LLMClient.
type LLMService interface {
	GenerateJSON(ctx context.Context, req schemas.GenerationRequest) (schemas.GenerationResult, error)
	IsConfigured() bool
}

// ErrLLMNotConfigured is returned when no plan can be produced because the
// language-model service is unreachable. This is the one planning failure
// that surfaces instead of degrading to a fallback.
var ErrLLMNotConfigured = fmt.Errorf("language model service is not configured")

// ActionPlanner produces a single-level ActionPlan for one objective.
type ActionPlanner struct {
	logger    *zap.Logger
	llm       LLMService
	extractor *extractor.ContentExtractor
	parser    *ResponseParser
	builder   *PlanBuilder
	cfg       config.PlannerConfig
}

// NewActionPlanner creates a fully wired ActionPlanner.
func NewActionPlanner(logger *zap.Logger, llm LLMService, cfg config.PlannerConfig) *ActionPlanner {
	return &ActionPlanner{
		logger:    logger.Named("action_planner"),
		llm:       llm,
		extractor: extractor.New(logger),
		parser:    NewResponseParser(logger),
		builder:   NewPlanBuilder(cfg.PerStepDuration),
		cfg:       cfg,
	}
}

const planSystemPrompt = `You are the planning core of 'webpilot', an autonomous browser task agent.
You turn one objective into an ordered list of concrete browser actions.
Respond ONLY with a single JSON object of this shape:
{"reasoning": "...", "steps": [{"action": "...", "description": "...", "selector": "...", "url": "...", "text": "..."}]}
Available actions:
- NAVIGATE: load a URL ("url" required)
- CLICK: click the element matching "selector"
- TYPE: type "text" into the element matching "selector" (keystroke by keystroke)
- FILL: set the value of the element matching "selector" to "text" directly
- WAIT: wait for the element matching "selector" to appear, or a fixed duration via {"parameters":{"duration_ms":1000}}
- SCREENSHOT: capture the viewport
- SCROLL: scroll the page ({"parameters":{"direction":"down"}} or an "amount" in pixels)
- EXTRACT: read data from the page, optionally scoped by "selector"
Rules:
1. Use precise CSS selectors taken from the page structure you are given.
2. Emit the minimal step sequence that achieves the objective.
3. Never invent selectors for elements the page structure does not show.`

// CreatePlan is total with respect to model output: malformed or empty
// replies degrade to a deterministic single-step fallback plan. Only a
// transport-level LLM failure yields an error. The returned plan always
// has at least one step.
func (p *ActionPlanner) CreatePlan(ctx context.Context, objective string, taskCtx *schemas.TaskContext, pageState *schemas.PageState) (*schemas.ActionPlan, error) {
	if !p.llm.IsConfigured() {
		return nil, ErrLLMNotConfigured
	}

	res, err := p.llm.GenerateJSON(ctx, schemas.GenerationRequest{
		SystemPrompt: planSystemPrompt,
		UserPrompt:   p.buildUserPrompt(objective, taskCtx, pageState),
		Tier:         schemas.TierPowerful,
		Options: schemas.GenerationOptions{
			Temperature:     0.2,
			ForceJSONFormat: true,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("llm generation failed: %w", err)
	}

	resp, ok := p.parser.ParsePlanSteps(res.Content)
	if !ok {
		p.logger.Warn("Unusable plan response, substituting fallback plan", zap.String("objective", objective))
		return p.fallbackPlan(objective, pageState, nil), nil
	}

	steps, dropped := p.mapSteps(resp.Steps)
	if len(steps) == 0 {
		p.logger.Warn("All declared steps were dropped, substituting fallback plan",
			zap.String("objective", objective), zap.Strings("dropped", dropped))
		return p.fallbackPlan(objective, pageState, dropped), nil
	}

	reasoning := resp.Reasoning
	if reasoning == "" {
		reasoning = "model-provided plan"
	}
	return p.builder.BuildPlan(objective, steps, schemas.PlanMetadata{
		Reasoning:    reasoning,
		DroppedSteps: dropped,
	}, pageState), nil
}

// AdaptPlan revises an existing plan against fresh page state, preserving
// lineage through the builder. Used when mid-execution replanning is
// requested by the engine.
func (p *ActionPlanner) AdaptPlan(ctx context.Context, original *schemas.ActionPlan, taskCtx *schemas.TaskContext, pageState *schemas.PageState) (*schemas.ActionPlan, error) {
	fresh, err := p.CreatePlan(ctx, original.Objective, taskCtx, pageState)
	if err != nil {
		return nil, err
	}
	adapted := p.builder.BuildAdaptedPlan(original, fresh.Steps, fresh.Metadata.Reasoning)
	adapted.Metadata.UsedFallback = fresh.Metadata.UsedFallback
	adapted.Metadata.DroppedSteps = fresh.Metadata.DroppedSteps
	return adapted, nil
}

// mapSteps normalizes raw model steps through the action type mapper.
// Steps with unknown labels are dropped and reported, not fatal.
func (p *ActionPlanner) mapSteps(raw []rawStep) ([]schemas.ActionStep, []string) {
	steps := make([]schemas.ActionStep, 0, len(raw))
	var dropped []string

	for _, r := range raw {
		actionType, err := MapActionType(r.label())
		if err != nil {
			p.logger.Warn("Dropping step with unknown action type",
				zap.String("label", r.label()), zap.String("description", r.Description))
			dropped = append(dropped, r.label())
			continue
		}

		step := schemas.ActionStep{
			Type:        actionType,
			Description: r.Description,
			Selector:    r.Selector,
			URL:         r.URL,
			Text:        r.payloadText(),
			Parameters:  r.Parameters,
		}
		if step.Description == "" {
			step.Description = strings.TrimSpace(string(actionType) + " " + step.Selector + step.URL)
		}
		if step.Type == schemas.ActionNavigate && step.URL == "" {
			step.URL = r.payloadText()
		}
		steps = append(steps, step)
	}
	return steps, dropped
}

// fallbackPlan is the guaranteed-valid single-step plan: observe the page.
func (p *ActionPlanner) fallbackPlan(objective string, pageState *schemas.PageState, dropped []string) *schemas.ActionPlan {
	return p.builder.BuildPlan(objective, []schemas.ActionStep{
		{
			Type:        schemas.ActionExtract,
			Description: "Observe the current page",
		},
	}, schemas.PlanMetadata{
		Reasoning:    FallbackReasoning,
		UsedFallback: true,
		DroppedSteps: dropped,
	}, pageState)
}

func (p *ActionPlanner) buildUserPrompt(objective string, taskCtx *schemas.TaskContext, pageState *schemas.PageState) string {
	var sb strings.Builder
	sb.WriteString("Objective: ")
	sb.WriteString(objective)
	sb.WriteString("\n")

	if taskCtx != nil && len(taskCtx.Constraints) > 0 {
		sb.WriteString("Constraints:\n")
		for _, c := range taskCtx.Constraints {
			sb.WriteString("- ")
			sb.WriteString(c)
			sb.WriteString("\n")
		}
	}

	if pageState != nil {
		sb.WriteString(fmt.Sprintf("\nCurrent page: %s (%s)\n", pageState.URL, pageState.Title))
		if pageState.Content != "" {
			maxChars := p.cfg.MaxContentChars
			if maxChars <= 0 {
				maxChars = 8000
			}
			compact := p.extractor.ExtractStructuredContent(pageState.Content)
			sb.WriteString("Page structure:\n")
			sb.WriteString(llmutil.Truncate(compact, maxChars))
			sb.WriteString("\n")
		}
	}

	if summary := p.summarizeHistory(taskCtx); summary != "" {
		sb.WriteString("\nRecently executed steps:\n")
		sb.WriteString(summary)
	}

	sb.WriteString("\nProduce the action plan JSON now.")
	return sb.String()
}

func (p *ActionPlanner) summarizeHistory(taskCtx *schemas.TaskContext) string {
	if taskCtx == nil || len(taskCtx.History) == 0 {
		return ""
	}

	tail := p.cfg.HistoryTail
	if tail <= 0 {
		tail = 10
	}
	entries := taskCtx.History
	if len(entries) > tail {
		entries = entries[len(entries)-tail:]
	}

	var sb strings.Builder
	for _, h := range entries {
		outcome := "ok"
		if !h.Succeeded {
			outcome = "FAILED: " + h.Error
		}
		target := h.Step.Selector
		if target == "" {
			target = h.Step.URL
		}
		sb.WriteString(fmt.Sprintf("- %s %s => %s\n", h.Step.Type, target, outcome))
	}
	return sb.String()
}
