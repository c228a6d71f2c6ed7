// internal/engine/runner.go
package engine

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/voidwalkr/webpilot/api/schemas"
)

// Runner executes independent tasks concurrently. Each task gets its own
// session and TaskContext; tasks share nothing mutable.
type Runner struct {
	logger *zap.Logger
	engine *ActionEngine
	limit  int
}

// NewRunner creates a runner bounded to limit concurrent tasks. A limit
// below 1 means unbounded.
func NewRunner(logger *zap.Logger, engine *ActionEngine, limit int) *Runner {
	return &Runner{
		logger: logger.Named("task_runner"),
		engine: engine,
		limit:  limit,
	}
}

// RunAll executes every instruction and returns results in input order.
// Individual task failures are reported inside the corresponding
// TaskResult, never as a Go error.
func (r *Runner) RunAll(ctx context.Context, instructions []string, opts Options) []schemas.TaskResult {
	results := make([]schemas.TaskResult, len(instructions))

	g, gctx := errgroup.WithContext(ctx)
	if r.limit > 0 {
		g.SetLimit(r.limit)
	}

	for i, instruction := range instructions {
		g.Go(func() error {
			r.logger.Info("Starting task.", zap.Int("index", i), zap.String("instruction", instruction))
			results[i] = r.engine.ExecuteTask(gctx, instruction, nil, opts)
			return nil
		})
	}

	// Goroutines never return errors; Wait is purely a join.
	_ = g.Wait()
	return results
}
