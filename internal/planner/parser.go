// internal/planner/parser.go
package planner

import (
	"strings"

	"go.uber.org/zap"

	"github.com/voidwalkr/webpilot/api/schemas"
	"github.com/voidwalkr/webpilot/internal/llmutil"
)

// FallbackReasoning marks structures substituted when model output failed
// validation. Tests assert on it; keep it stable.
const FallbackReasoning = "fallback"

// rawStep is the loosely-typed step shape models emit. Label synonyms
// ("action" vs "type", "value" vs "text") are folded here so the rest of
// the planner deals with one shape.
type rawStep struct {
	Action      string                 `json:"action"`
	Type        string                 `json:"type"`
	Description string                 `json:"description"`
	Selector    string                 `json:"selector"`
	URL         string                 `json:"url"`
	Text        string                 `json:"text"`
	Value       string                 `json:"value"`
	Parameters  map[string]interface{} `json:"parameters"`
}

// label returns whichever of action/type the model populated.
func (s rawStep) label() string {
	if s.Action != "" {
		return s.Action
	}
	return s.Type
}

// payloadText returns whichever of text/value the model populated.
func (s rawStep) payloadText() string {
	if s.Text != "" {
		return s.Text
	}
	return s.Value
}

// planResponse is the expected JSON shape of a step-planning reply.
type planResponse struct {
	Steps     []rawStep `json:"steps"`
	Reasoning string    `json:"reasoning"`
}

// ResponseParser turns raw model text into validated planning structures.
// Every method is total: malformed input yields a deterministic fallback,
// never an error.
type ResponseParser struct {
	logger *zap.Logger
}

// NewResponseParser creates a ResponseParser.
func NewResponseParser(logger *zap.Logger) *ResponseParser {
	return &ResponseParser{logger: logger.Named("response_parser")}
}

// ParseGlobalPlanResponse decodes a decomposition reply into a
// GlobalPlanInstruction. On any failure (decode error, wrong shape, empty
// or non-string sub-objectives) it returns the deterministic fallback: the
// original instruction as the single sub-objective, sequential strategy.
func (p *ResponseParser) ParseGlobalPlanResponse(text, fallbackInstruction string) schemas.GlobalPlanInstruction {
	fallback := schemas.GlobalPlanInstruction{
		SubObjectives:    []string{fallbackInstruction},
		PlanningStrategy: schemas.StrategySequential,
		Reasoning:        FallbackReasoning,
		UsedFallback:     true,
	}

	decoded, err := llmutil.ParseJSONResponse[schemas.GlobalPlanInstruction](text)
	if err != nil {
		p.logger.Warn("Global plan response was not valid JSON, using fallback",
			zap.Error(err), zap.String("raw", llmutil.Truncate(text, 200)))
		return fallback
	}

	if len(decoded.SubObjectives) == 0 {
		p.logger.Warn("Global plan response had no sub-objectives, using fallback")
		return fallback
	}
	for _, obj := range decoded.SubObjectives {
		if strings.TrimSpace(obj) == "" {
			p.logger.Warn("Global plan response contained an empty sub-objective, using fallback")
			return fallback
		}
	}

	switch decoded.PlanningStrategy {
	case schemas.StrategySequential, schemas.StrategyParallel:
	default:
		decoded.PlanningStrategy = schemas.StrategySequential
	}
	decoded.UsedFallback = false
	return *decoded
}

// ParsePlanSteps decodes a step-planning reply. The boolean reports whether
// a usable step list came back; callers substitute their own fallback plan
// when it is false. Steps with a blank label are discarded here; unknown
// labels are left for the action type mapper so the drop is observable in
// plan metadata.
func (p *ResponseParser) ParsePlanSteps(text string) (planResponse, bool) {
	decoded, err := llmutil.ParseJSONResponse[planResponse](text)
	if err != nil {
		// Some models reply with a bare step array instead of an object.
		if steps, arrErr := llmutil.ParseJSONResponse[[]rawStep](text); arrErr == nil && len(*steps) > 0 {
			return planResponse{Steps: *steps}, true
		}
		p.logger.Warn("Plan response was not valid JSON",
			zap.Error(err), zap.String("raw", llmutil.Truncate(text, 200)))
		return planResponse{}, false
	}

	usable := decoded.Steps[:0]
	for _, s := range decoded.Steps {
		if strings.TrimSpace(s.label()) == "" {
			p.logger.Warn("Discarding plan step without an action label", zap.String("description", s.Description))
			continue
		}
		usable = append(usable, s)
	}
	decoded.Steps = usable

	if len(decoded.Steps) == 0 {
		p.logger.Warn("Plan response contained no usable steps")
		return planResponse{}, false
	}
	return *decoded, true
}
