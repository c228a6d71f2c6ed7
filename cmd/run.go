// File: cmd/run.go
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/voidwalkr/webpilot/api/schemas"
	"github.com/voidwalkr/webpilot/internal/browser"
	"github.com/voidwalkr/webpilot/internal/config"
	"github.com/voidwalkr/webpilot/internal/engine"
	"github.com/voidwalkr/webpilot/internal/llmclient"
	"github.com/voidwalkr/webpilot/internal/observability"
	"github.com/voidwalkr/webpilot/internal/planner"
	"github.com/voidwalkr/webpilot/internal/store"
)

// newRunCmd creates the `run` command: execute one or more instructions.
func newRunCmd() *cobra.Command {
	runCmd := &cobra.Command{
		Use:   "run [instructions...]",
		Short: "Executes natural-language browser instructions",
		Args:  cobra.MinimumNArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if err := viper.BindPFlag("engine.task_timeout", cmd.Flags().Lookup("timeout")); err != nil {
				return err
			}
			if err := viper.BindPFlag("engine.max_attempts", cmd.Flags().Lookup("retries")); err != nil {
				return err
			}
			return viper.BindPFlags(cmd.Flags())
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()

			// Flags were bound in PreRunE, after the root command loaded the
			// config; re-resolve so flag overrides take precedence.
			loaded, err := config.FromViper(viper.GetViper())
			if err != nil {
				return fmt.Errorf("failed to apply flag overrides: %w", err)
			}
			cfg = loaded

			llm, err := llmclient.NewClient(cfg.LLM, logger)
			if err != nil {
				return fmt.Errorf("failed to build language model client: %w", err)
			}

			manager := browser.NewManager(cfg.Browser, logger)
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
				defer cancel()
				if err := manager.Shutdown(shutdownCtx); err != nil {
					logger.Warn("Browser shutdown reported an error", zap.Error(err))
				}
			}()

			actionPlanner := planner.NewActionPlanner(logger, llm, cfg.Planner)
			hierPlanner := planner.NewHierarchicalPlanner(logger, llm, actionPlanner)
			eng := engine.NewActionEngine(logger, cfg.Engine, actionPlanner, hierPlanner, manager)

			var archive *store.Store
			if cfg.Store.Enabled {
				pool, err := pgxpool.New(ctx, cfg.Store.DSN())
				if err != nil {
					return fmt.Errorf("failed to connect to task archive: %w", err)
				}
				defer pool.Close()
				archive, err = store.New(ctx, pool, logger)
				if err != nil {
					return fmt.Errorf("failed to initialize task archive: %w", err)
				}
			}

			runner := engine.NewRunner(logger, eng, cfg.Engine.MaxConcurrentTasks)
			results := runner.RunAll(ctx, args, engine.Options{})

			failed := 0
			for i, result := range results {
				if archive != nil {
					if err := archive.SaveTaskResult(ctx, uuid.NewString(), args[i], result); err != nil {
						logger.Warn("Failed to archive task result", zap.Error(err))
					}
				}
				if err := printResult(cmd, result); err != nil {
					return err
				}
				if !result.Success {
					failed++
				}
			}

			if failed > 0 {
				return fmt.Errorf("%d of %d task(s) failed", failed, len(results))
			}
			return nil
		},
	}

	runCmd.Flags().Duration("timeout", 0, "per-task timeout (0 uses the configured default)")
	runCmd.Flags().Int("retries", 0, "attempts per step (0 uses the configured default)")
	return runCmd
}

func printResult(cmd *cobra.Command, result schemas.TaskResult) error {
	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize task result: %w", err)
	}
	cmd.Println(string(out))
	return nil
}
