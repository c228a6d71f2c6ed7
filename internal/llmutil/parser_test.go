package llmutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type samplePlan struct {
	Objective string   `json:"objective"`
	Steps     []string `json:"steps"`
}

func TestParseJSONResponsePlain(t *testing.T) {
	got, err := ParseJSONResponse[samplePlan](`{"objective":"login","steps":["a","b"]}`)
	require.NoError(t, err)
	assert.Equal(t, "login", got.Objective)
	assert.Len(t, got.Steps, 2)
}

func TestParseJSONResponseFenced(t *testing.T) {
	response := "```json\n{\"objective\": \"search\", \"steps\": [\"x\"]}\n```"
	got, err := ParseJSONResponse[samplePlan](response)
	require.NoError(t, err)
	assert.Equal(t, "search", got.Objective)
}

func TestParseJSONResponseFencedNoLanguageTag(t *testing.T) {
	response := "```\n{\"objective\": \"go\", \"steps\": []}\n```"
	got, err := ParseJSONResponse[samplePlan](response)
	require.NoError(t, err)
	assert.Equal(t, "go", got.Objective)
}

func TestParseJSONResponseConversationalPadding(t *testing.T) {
	response := `Sure! Here is the plan you asked for: {"objective":"pad","steps":["s"]} Hope that helps.`
	got, err := ParseJSONResponse[samplePlan](response)
	require.NoError(t, err)
	assert.Equal(t, "pad", got.Objective)
}

func TestParseJSONResponseArray(t *testing.T) {
	response := "```json\n[\"one\", \"two\"]\n```"
	got, err := ParseJSONResponse[[]string](response)
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two"}, *got)
}

func TestParseJSONResponseGarbage(t *testing.T) {
	_, err := ParseJSONResponse[samplePlan]("not json at all")
	require.Error(t, err)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", Truncate("abc", 10))
	assert.Equal(t, "ab...", Truncate("abcdef", 2))
	assert.Equal(t, "", Truncate("abc", 0))
}
