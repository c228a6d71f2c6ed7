// internal/planner/mapper.go
package planner

import (
	"fmt"
	"strings"

	"github.com/voidwalkr/webpilot/api/schemas"
)

// UnknownActionTypeError signals that a model-declared action label has no
// mapping into the closed ActionType set.
type UnknownActionTypeError struct {
	Label string
}

func (e *UnknownActionTypeError) Error() string {
	return fmt.Sprintf("unknown action type %q", e.Label)
}

// actionSynonyms normalizes the labels models actually emit onto the closed
// enumeration. Keys are lower-case with spaces and dashes folded to
// underscores.
var actionSynonyms = map[string]schemas.ActionType{
	"navigate": schemas.ActionNavigate,
	"goto":     schemas.ActionNavigate,
	"go_to":    schemas.ActionNavigate,
	"open":     schemas.ActionNavigate,
	"visit":    schemas.ActionNavigate,

	"click":        schemas.ActionClick,
	"press":        schemas.ActionClick,
	"tap":          schemas.ActionClick,
	"click_button": schemas.ActionClick,

	"type":       schemas.ActionTypeText,
	"input":      schemas.ActionTypeText,
	"input_text": schemas.ActionTypeText,
	"enter_text": schemas.ActionTypeText,

	"fill":      schemas.ActionFill,
	"fill_form": schemas.ActionFill,
	"set_value": schemas.ActionFill,

	"wait":           schemas.ActionWait,
	"wait_for":       schemas.ActionWait,
	"wait_for_async": schemas.ActionWait,
	"pause":          schemas.ActionWait,
	"sleep":          schemas.ActionWait,

	"screenshot":      schemas.ActionScreenshot,
	"take_screenshot": schemas.ActionScreenshot,
	"capture":         schemas.ActionScreenshot,

	"scroll":      schemas.ActionScroll,
	"scroll_down": schemas.ActionScroll,
	"scroll_up":   schemas.ActionScroll,

	"extract":      schemas.ActionExtract,
	"extract_data": schemas.ActionExtract,
	"read":         schemas.ActionExtract,
	"observe":      schemas.ActionExtract,

	"execute_sub_plan": schemas.ActionExecuteSubPlan,
}

// MapActionType normalizes a free-form action label (arbitrary case,
// synonyms) to an ActionType. Unknown labels return an
// *UnknownActionTypeError; the caller decides the drop policy.
func MapActionType(label string) (schemas.ActionType, error) {
	normalized := strings.ToLower(strings.TrimSpace(label))
	normalized = strings.NewReplacer(" ", "_", "-", "_").Replace(normalized)

	if t, ok := actionSynonyms[normalized]; ok {
		return t, nil
	}
	return "", &UnknownActionTypeError{Label: label}
}
