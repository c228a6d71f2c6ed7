// File: cmd/history.go
package cmd

import (
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/voidwalkr/webpilot/internal/observability"
	"github.com/voidwalkr/webpilot/internal/store"
)

// newHistoryCmd creates the `history` command: list archived task results.
func newHistoryCmd() *cobra.Command {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Lists recently archived task results",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cfg.Store.Enabled {
				return fmt.Errorf("the task archive is disabled; enable it with store.enabled=true")
			}

			ctx := cmd.Context()
			logger := observability.GetLogger()

			pool, err := pgxpool.New(ctx, cfg.Store.DSN())
			if err != nil {
				return fmt.Errorf("failed to connect to task archive: %w", err)
			}
			defer pool.Close()

			archive, err := store.New(ctx, pool, logger)
			if err != nil {
				return fmt.Errorf("failed to initialize task archive: %w", err)
			}

			limit, _ := cmd.Flags().GetInt("limit")
			tasks, err := archive.RecentTasks(ctx, limit)
			if err != nil {
				return err
			}
			if len(tasks) == 0 {
				cmd.Println("No archived tasks.")
				return nil
			}

			for _, t := range tasks {
				status := "ok"
				if !t.Success {
					status = "FAILED: " + t.Error
				}
				cmd.Printf("%s  %-40q  %s  (%s)\n",
					t.CompletedAt.Format(time.RFC3339), t.Instruction, status,
					time.Duration(t.DurationMS)*time.Millisecond)
			}
			return nil
		},
	}

	historyCmd.Flags().Int("limit", 20, "maximum number of tasks to list")
	return historyCmd
}
