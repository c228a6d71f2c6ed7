package planner

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voidwalkr/webpilot/api/schemas"
)

func TestMapActionTypeCanonicalLabels(t *testing.T) {
	tests := map[string]schemas.ActionType{
		"NAVIGATE":   schemas.ActionNavigate,
		"CLICK":      schemas.ActionClick,
		"TYPE":       schemas.ActionTypeText,
		"FILL":       schemas.ActionFill,
		"WAIT":       schemas.ActionWait,
		"SCREENSHOT": schemas.ActionScreenshot,
		"SCROLL":     schemas.ActionScroll,
		"EXTRACT":    schemas.ActionExtract,
	}

	for label, want := range tests {
		got, err := MapActionType(label)
		require.NoError(t, err, label)
		assert.Equal(t, want, got, label)
	}
}

func TestMapActionTypeSynonymsAndCase(t *testing.T) {
	tests := map[string]schemas.ActionType{
		"goto":            schemas.ActionNavigate,
		"Go To":           schemas.ActionNavigate,
		"open":            schemas.ActionNavigate,
		"press":           schemas.ActionClick,
		"input_text":      schemas.ActionTypeText,
		"INPUT-TEXT":      schemas.ActionTypeText,
		"fill_form":       schemas.ActionFill,
		"wait_for_async":  schemas.ActionWait,
		"take screenshot": schemas.ActionScreenshot,
		"scroll_down":     schemas.ActionScroll,
		"extract_data":    schemas.ActionExtract,
		"  Click  ":       schemas.ActionClick,
	}

	for label, want := range tests {
		got, err := MapActionType(label)
		require.NoError(t, err, label)
		assert.Equal(t, want, got, label)
	}
}

func TestMapActionTypeUnknownLabel(t *testing.T) {
	_, err := MapActionType("teleport")
	require.Error(t, err)

	var unknownErr *UnknownActionTypeError
	require.True(t, errors.As(err, &unknownErr))
	assert.Equal(t, "teleport", unknownErr.Label)
	assert.Contains(t, err.Error(), "teleport")
}
