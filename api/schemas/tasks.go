package schemas

import "time"

// -- Task Schemas --

// HistoryEntry is one executed step with its outcome, appended to the task
// context as execution progresses. The history is append-only.
type HistoryEntry struct {
	Step      ActionStep    `json:"step"`
	Succeeded bool          `json:"succeeded"`
	Attempts  int           `json:"attempts"`
	Duration  time.Duration `json:"duration"`
	Error     string        `json:"error,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
}

// TaskContext is the mutable execution state for one task run. It is
// created per ExecuteTask call and discarded when the task completes; the
// engine is the only writer (history appends and CurrentState replacement).
type TaskContext struct {
	ID           string            `json:"id"`
	Objective    string            `json:"objective"`
	Constraints  []string          `json:"constraints,omitempty"`
	Variables    map[string]string `json:"variables,omitempty"`
	History      []HistoryEntry    `json:"history"`
	CurrentState *PageState        `json:"current_state,omitempty"`
	// URL and Title mirror CurrentState for convenience.
	URL   string `json:"url,omitempty"`
	Title string `json:"title,omitempty"`
}

// SetState replaces the current page snapshot and refreshes the mirrors.
func (c *TaskContext) SetState(state *PageState) {
	c.CurrentState = state
	if state != nil {
		c.URL = state.URL
		c.Title = state.Title
	}
}

// AppendHistory records an executed step outcome.
func (c *TaskContext) AppendHistory(entry HistoryEntry) {
	c.History = append(c.History, entry)
}

// StepResult is the per-step outcome reported in a TaskResult.
type StepResult struct {
	Step      ActionStep    `json:"step"`
	Succeeded bool          `json:"succeeded"`
	Attempts  int           `json:"attempts"`
	Duration  time.Duration `json:"duration"`
	Error     string        `json:"error,omitempty"`
}

// TaskResult is the structured, JSON-serializable outcome of one task.
// Error is populated iff Success is false.
type TaskResult struct {
	Success       bool          `json:"success"`
	Steps         []StepResult  `json:"steps"`
	ExtractedData interface{}   `json:"extracted_data,omitempty"`
	Error         string        `json:"error,omitempty"`
	Duration      time.Duration `json:"duration"`
	Screenshots   [][]byte      `json:"screenshots,omitempty"`
}
