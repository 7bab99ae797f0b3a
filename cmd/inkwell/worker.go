package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	sdkworker "go.temporal.io/sdk/worker"

	"github.com/inkwell-ai/inkwell/internal/contract"
	"github.com/inkwell-ai/inkwell/internal/worker"
	"github.com/inkwell-ai/inkwell/pkg/events"
)

// workerCmd runs the Temporal worker hosting the batch workflow and its
// activities.
var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Run the episode generation worker",
	Long: `Starts a Temporal worker that hosts the batch workflow and the
episode generation activities. The worker connects to the configured LLM
endpoint and persistence backend at startup and runs until interrupted.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
		slog.SetDefault(logger)

		llmClient, err := worker.InitializeLLMClient(cfg.LLM)
		if err != nil {
			return err
		}

		st, err := worker.InitializeStore(context.Background(), cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return err
		}

		deps := worker.BuildDependencies(llmClient, st, contract.StaticConstraintSource{}, cfg.GenerationDefaults())

		tc, err := dialTemporal(cfg)
		if err != nil {
			return err
		}
		defer tc.Close()

		// Generation calls dominate activity time; a small pool keeps
		// concurrent batches within the external generator's rate limits.
		w := sdkworker.New(tc, cfg.Temporal.TaskQueue, sdkworker.Options{
			MaxConcurrentActivityExecutionSize: 4,
		})
		worker.RegisterAll(w, deps, events.NewNoOpEventSink())

		logger.Info("worker starting",
			"task_queue", cfg.Temporal.TaskQueue,
			"temporal", cfg.Temporal.HostPort)
		if err := w.Run(sdkworker.InterruptCh()); err != nil {
			return fmt.Errorf("worker stopped: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(workerCmd)
}
