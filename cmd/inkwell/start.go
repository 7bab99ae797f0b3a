package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.temporal.io/sdk/client"

	"github.com/inkwell-ai/inkwell/internal/domain"
	"github.com/inkwell-ai/inkwell/internal/workflow"
)

// startCmd launches a batch workflow over an episode range.
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start a batch over an episode range",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		batchID, _ := cmd.Flags().GetString("batch")
		seriesID, _ := cmd.Flags().GetString("series")
		first, _ := cmd.Flags().GetInt("first")
		last, _ := cmd.Flags().GetInt("last")

		req := domain.BatchRequest{
			BatchID:   batchID,
			Range:     domain.EpisodeRange{First: first, Last: last},
			Narrative: domain.NarrativeContext{SeriesID: seriesID},
			Config:    cfg.GenerationDefaults(),
		}
		if err := req.Validate(); err != nil {
			return err
		}

		tc, err := dialTemporal(cfg)
		if err != nil {
			return err
		}
		defer tc.Close()

		run, err := tc.ExecuteWorkflow(context.Background(), client.StartWorkflowOptions{
			ID:        batchWorkflowID(batchID),
			TaskQueue: cfg.Temporal.TaskQueue,
		}, workflow.BatchWorkflow, req)
		if err != nil {
			return fmt.Errorf("start batch %s: %w", batchID, err)
		}

		fmt.Printf("batch %s started: workflow %s run %s\n", batchID, run.GetID(), run.GetRunID())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(startCmd)

	startCmd.Flags().String("batch", "", "Batch identifier")
	startCmd.Flags().String("series", "", "Series identifier for narrative context")
	startCmd.Flags().Int("first", 1, "First episode index (inclusive)")
	startCmd.Flags().Int("last", 1, "Last episode index (inclusive)")
	_ = startCmd.MarkFlagRequired("batch")
	_ = startCmd.MarkFlagRequired("series")
}
