// internal/store/store.go
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"github.com/voidwalkr/webpilot/api/schemas"
)

// DBPool abstracts pgxpool.Pool so the store can be tested with pgxmock.
type DBPool interface {
	Ping(ctx context.Context) error
	Begin(ctx context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Store archives finished task results in PostgreSQL. The engine works
// without it; archiving is opt-in.
type Store struct {
	pool DBPool
	log  *zap.Logger
}

// New creates a store instance and verifies the connection.
func New(ctx context.Context, pool DBPool, logger *zap.Logger) (*Store, error) {
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &Store{
		pool: pool,
		log:  logger.Named("store"),
	}, nil
}

const insertTaskSQL = `
	INSERT INTO task_results (id, instruction, success, error, duration_ms, extracted_data, completed_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7);
`

const insertStepSQL = `
	INSERT INTO task_steps (task_id, position, action, description, selector, url, succeeded, attempts, duration_ms, error)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);
`

// SaveTaskResult persists one result and its per-step breakdown in a single
// transaction.
func (s *Store) SaveTaskResult(ctx context.Context, taskID, instruction string, result schemas.TaskResult) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if rollbackErr := tx.Rollback(ctx); rollbackErr != nil && !errors.Is(rollbackErr, pgx.ErrTxClosed) {
			s.log.Error("Failed to rollback transaction", zap.Error(rollbackErr))
		}
	}()

	extracted, err := json.Marshal(result.ExtractedData)
	if err != nil || len(extracted) == 0 || string(extracted) == "null" {
		extracted = json.RawMessage("{}")
	}

	if _, err := tx.Exec(ctx, insertTaskSQL,
		taskID, instruction, result.Success, result.Error,
		result.Duration.Milliseconds(), extracted, time.Now().UTC(),
	); err != nil {
		return fmt.Errorf("failed to insert task result: %w", err)
	}

	batch := &pgx.Batch{}
	for i, step := range result.Steps {
		batch.Queue(insertStepSQL,
			taskID, i, string(step.Step.Type), step.Step.Description,
			step.Step.Selector, step.Step.URL, step.Succeeded,
			step.Attempts, step.Duration.Milliseconds(), step.Error,
		)
	}
	if batch.Len() > 0 {
		br := tx.SendBatch(ctx, batch)
		if br == nil {
			return fmt.Errorf("failed to send step batch: batch results is nil")
		}
		for i := 0; i < batch.Len(); i++ {
			if _, err := br.Exec(); err != nil {
				_ = br.Close()
				return fmt.Errorf("failed to insert step %d: %w", i, err)
			}
		}
		if err := br.Close(); err != nil {
			return fmt.Errorf("failed to close step batch: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.log.Debug("Task result archived.",
		zap.String("task_id", taskID),
		zap.Bool("success", result.Success),
		zap.Int("steps", len(result.Steps)))
	return nil
}

// ArchivedTask is one row of the task_results table.
type ArchivedTask struct {
	ID          string
	Instruction string
	Success     bool
	Error       string
	DurationMS  int64
	CompletedAt time.Time
}

// RecentTasks returns the newest archived results, most recent first.
func (s *Store) RecentTasks(ctx context.Context, limit int) ([]ArchivedTask, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `
		SELECT id, instruction, success, error, duration_ms, completed_at
		FROM task_results
		ORDER BY completed_at DESC
		LIMIT $1;
	`
	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query task results: %w", err)
	}
	defer rows.Close()

	var tasks []ArchivedTask
	for rows.Next() {
		var t ArchivedTask
		if err := rows.Scan(&t.ID, &t.Instruction, &t.Success, &t.Error, &t.DurationMS, &t.CompletedAt); err != nil {
			return nil, fmt.Errorf("failed to scan task row: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during row iteration: %w", err)
	}
	return tasks, nil
}
