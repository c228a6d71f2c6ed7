// internal/engine/engine.go
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/voidwalkr/webpilot/api/schemas"
	"github.com/voidwalkr/webpilot/internal/browser"
	"github.com/voidwalkr/webpilot/internal/config"
)

// timeoutError is the stable error string surfaced when a task is cut off
// by its deadline or cancellation.
const timeoutError = "timeout"

// StepPlanner produces a flat plan for one objective.
type StepPlanner interface {
	CreatePlan(ctx context.Context, objective string, taskCtx *schemas.TaskContext, pageState *schemas.PageState) (*schemas.ActionPlan, error)
}

// TaskPlanner classifies instructions and decomposes complex ones.
type TaskPlanner interface {
	ShouldUseHierarchicalPlanning(instruction string) bool
	CreateHierarchicalPlan(ctx context.Context, instruction string, taskCtx *schemas.TaskContext) (*schemas.HierarchicalPlan, error)
}

// SessionFactory hands out isolated browser sessions. Satisfied by
// *browser.Manager.
type SessionFactory interface {
	NewSession(ctx context.Context) (browser.Session, error)
}

// Options tunes one ExecuteTask call. Zero values fall back to the engine
// configuration.
type Options struct {
	// Timeout bounds the whole task. Zero means the configured task timeout.
	Timeout time.Duration
	// Retries is the total attempts per step (first try included). Zero
	// means the configured bound.
	Retries int
}

// ActionEngine turns one natural-language instruction into an executed,
// structured TaskResult. It is the sole entry point other packages call.
type ActionEngine struct {
	logger   *zap.Logger
	cfg      config.EngineConfig
	planner  StepPlanner
	hier     TaskPlanner
	sessions SessionFactory
}

// NewActionEngine creates a fully wired engine.
func NewActionEngine(logger *zap.Logger, cfg config.EngineConfig, planner StepPlanner, hier TaskPlanner, sessions SessionFactory) *ActionEngine {
	return &ActionEngine{
		logger:   logger.Named("action_engine"),
		cfg:      cfg,
		planner:  planner,
		hier:     hier,
		sessions: sessions,
	}
}

// stepOutcome accumulates what one plan's execution produced.
type stepOutcome struct {
	results     []schemas.StepResult
	extracted   interface{}
	screenshots [][]byte
}

// ExecuteTask runs the full pipeline for one instruction: snapshot, plan,
// execute, report. It never returns a Go error for task-level failures;
// every outcome is a TaskResult, with Success=false and Error set on any
// failure path.
func (e *ActionEngine) ExecuteTask(ctx context.Context, instruction string, taskCtx *schemas.TaskContext, opts Options) schemas.TaskResult {
	start := time.Now()

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = e.cfg.TaskTimeout
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	session, err := e.sessions.NewSession(ctx)
	if err != nil {
		return e.failure(nil, start, fmt.Errorf("failed to open browser session: %w", err))
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := session.Close(closeCtx); err != nil {
			e.logger.Warn("Error closing session.", zap.Error(err))
		}
	}()

	if taskCtx == nil {
		taskCtx = &schemas.TaskContext{
			ID:        uuid.NewString(),
			Objective: instruction,
		}
	}
	if taskCtx.ID == "" {
		taskCtx.ID = uuid.NewString()
	}
	if taskCtx.Objective == "" {
		taskCtx.Objective = instruction
	}
	e.refreshState(ctx, session, taskCtx)

	outcome := &stepOutcome{}
	execErr := e.executePlanned(ctx, instruction, taskCtx, session, opts, outcome)

	result := schemas.TaskResult{
		Steps:         outcome.results,
		ExtractedData: outcome.extracted,
		Screenshots:   outcome.screenshots,
		Duration:      time.Since(start),
	}
	if execErr != nil {
		result.Success = false
		result.Error = errorMessage(execErr)
		e.logger.Warn("Task failed.",
			zap.String("task_id", taskCtx.ID),
			zap.String("error", result.Error),
			zap.Int("steps_executed", len(result.Steps)))
		return result
	}

	result.Success = true
	e.logger.Info("Task completed.",
		zap.String("task_id", taskCtx.ID),
		zap.Int("steps", len(result.Steps)),
		zap.Duration("duration", result.Duration))
	return result
}

// executePlanned picks the planning mode and drives execution.
func (e *ActionEngine) executePlanned(ctx context.Context, instruction string, taskCtx *schemas.TaskContext, session browser.Session, opts Options, outcome *stepOutcome) error {
	if e.hier.ShouldUseHierarchicalPlanning(instruction) {
		hp, err := e.hier.CreateHierarchicalPlan(ctx, instruction, taskCtx)
		if err != nil {
			return fmt.Errorf("planning failed: %w", err)
		}
		e.logger.Info("Executing hierarchical plan.",
			zap.String("task_id", taskCtx.ID),
			zap.Int("sub_plans", len(hp.SubPlans)))
		return e.executeSteps(ctx, hp.GlobalPlan.Steps, hp.SubPlans, taskCtx, session, opts, outcome)
	}

	plan, err := e.planner.CreatePlan(ctx, instruction, taskCtx, taskCtx.CurrentState)
	if err != nil {
		return fmt.Errorf("planning failed: %w", err)
	}
	e.logger.Info("Executing plan.",
		zap.String("task_id", taskCtx.ID),
		zap.String("plan_id", plan.ID),
		zap.Int("steps", len(plan.Steps)))
	return e.executeSteps(ctx, plan.Steps, nil, taskCtx, session, opts, outcome)
}

// executeSteps runs steps in document order, fail-fast. subPlans is the
// arena EXECUTE_SUB_PLAN steps index into; sub-plan steps themselves run
// with a nil arena, which enforces the single nesting level.
func (e *ActionEngine) executeSteps(ctx context.Context, steps []schemas.ActionStep, subPlans []*schemas.ActionPlan, taskCtx *schemas.TaskContext, session browser.Session, opts Options, outcome *stepOutcome) error {
	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return err
		}

		if step.Type == schemas.ActionExecuteSubPlan {
			if step.SubPlanIndex < 0 || step.SubPlanIndex >= len(subPlans) {
				return fmt.Errorf("step references sub-plan %d but only %d exist", step.SubPlanIndex, len(subPlans))
			}
			if err := e.executeSteps(ctx, subPlans[step.SubPlanIndex].Steps, nil, taskCtx, session, opts, outcome); err != nil {
				return err
			}
			continue
		}

		if err := e.executeStep(ctx, step, taskCtx, session, opts, outcome); err != nil {
			return err
		}
	}
	return nil
}

// executeStep runs one primitive step with bounded retries, recording the
// outcome in both the task history and the result list.
func (e *ActionEngine) executeStep(ctx context.Context, step schemas.ActionStep, taskCtx *schemas.TaskContext, session browser.Session, opts Options, outcome *stepOutcome) error {
	maxAttempts := opts.Retries
	if maxAttempts <= 0 {
		maxAttempts = e.cfg.MaxAttempts
	}
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	start := time.Now()
	var lastErr error
	attempts := 0

	for attempts < maxAttempts {
		if err := ctx.Err(); err != nil {
			lastErr = err
			break
		}
		if attempts > 0 {
			// Never reattempt against a stale view of the page.
			e.refreshState(ctx, session, taskCtx)
		}
		attempts++

		lastErr = e.dispatch(ctx, step, session, outcome)
		if lastErr == nil {
			break
		}
		e.logger.Warn("Step attempt failed.",
			zap.String("task_id", taskCtx.ID),
			zap.String("action", string(step.Type)),
			zap.Int("attempt", attempts),
			zap.Int("max_attempts", maxAttempts),
			zap.Error(lastErr))
	}

	duration := time.Since(start)
	entry := schemas.HistoryEntry{
		Step:      step,
		Succeeded: lastErr == nil,
		Attempts:  attempts,
		Duration:  duration,
		Timestamp: time.Now().UTC(),
	}
	result := schemas.StepResult{
		Step:      step,
		Succeeded: lastErr == nil,
		Attempts:  attempts,
		Duration:  duration,
	}
	if lastErr != nil {
		entry.Error = errorMessage(lastErr)
		result.Error = entry.Error
	}
	taskCtx.AppendHistory(entry)
	outcome.results = append(outcome.results, result)

	if lastErr != nil {
		return fmt.Errorf("step %q failed after %d attempt(s): %w", step.Type, attempts, lastErr)
	}

	if mutatesDOM(step.Type) {
		e.refreshState(ctx, session, taskCtx)
	}
	return nil
}

// dispatch maps one step to the browser capability that implements it.
func (e *ActionEngine) dispatch(ctx context.Context, step schemas.ActionStep, session browser.Session, outcome *stepOutcome) error {
	if e.cfg.StepTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.StepTimeout)
		defer cancel()
	}

	switch step.Type {
	case schemas.ActionNavigate:
		return session.Navigate(ctx, step.URL)
	case schemas.ActionClick:
		return session.Click(ctx, step.Selector)
	case schemas.ActionTypeText:
		return session.Type(ctx, step.Selector, step.Text)
	case schemas.ActionFill:
		return session.Fill(ctx, step.Selector, step.Text)
	case schemas.ActionWait:
		return e.executeWait(ctx, step, session)
	case schemas.ActionScreenshot:
		shot, err := session.TakeScreenshot(ctx)
		if err != nil {
			return err
		}
		outcome.screenshots = append(outcome.screenshots, shot)
		return nil
	case schemas.ActionScroll:
		direction, amount := scrollParams(step)
		return session.Scroll(ctx, direction, amount)
	case schemas.ActionExtract:
		data, err := session.ExtractData(ctx, step.Selector)
		if err != nil {
			return err
		}
		outcome.extracted = data
		return nil
	default:
		return fmt.Errorf("unsupported action type %q", step.Type)
	}
}

// executeWait waits for a selector when one is given, otherwise sleeps for
// the duration_ms parameter.
func (e *ActionEngine) executeWait(ctx context.Context, step schemas.ActionStep, session browser.Session) error {
	if step.Selector != "" {
		return session.WaitForElement(ctx, step.Selector, e.cfg.StepTimeout)
	}

	delay := time.Second
	if ms, ok := numberParam(step.Parameters, "duration_ms"); ok && ms > 0 {
		delay = time.Duration(ms) * time.Millisecond
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// refreshState re-captures the page snapshot. Failure is non-fatal: the
// planner and retries simply see the previous snapshot.
func (e *ActionEngine) refreshState(ctx context.Context, session browser.Session, taskCtx *schemas.TaskContext) {
	state, err := session.CapturePageState(ctx)
	if err != nil {
		e.logger.Warn("Failed to capture page state.", zap.String("task_id", taskCtx.ID), zap.Error(err))
		return
	}
	taskCtx.SetState(state)
}

func (e *ActionEngine) failure(results []schemas.StepResult, start time.Time, err error) schemas.TaskResult {
	return schemas.TaskResult{
		Success:  false,
		Steps:    results,
		Error:    errorMessage(err),
		Duration: time.Since(start),
	}
}

// mutatesDOM reports whether a step can change the page, requiring a fresh
// snapshot. Pure reads skip the re-capture cost.
func mutatesDOM(t schemas.ActionType) bool {
	switch t {
	case schemas.ActionNavigate, schemas.ActionClick, schemas.ActionTypeText, schemas.ActionFill:
		return true
	}
	return false
}

// errorMessage normalizes cancellation into the stable "timeout" string the
// result contract promises.
func errorMessage(err error) string {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return timeoutError
	}
	return err.Error()
}

func scrollParams(step schemas.ActionStep) (string, int) {
	direction := "down"
	if d, ok := step.Parameters["direction"].(string); ok && d != "" {
		direction = d
	}
	amount := 0
	if n, ok := numberParam(step.Parameters, "amount"); ok {
		amount = int(n)
	}
	return direction, amount
}

// numberParam reads a numeric parameter regardless of how the JSON decoder
// typed it.
func numberParam(params map[string]interface{}, key string) (float64, bool) {
	v, ok := params[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
