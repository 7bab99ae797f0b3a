package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/inkwell-ai/inkwell/internal/workflow"
)

// pauseCmd asks a running batch to pause at the next episode boundary.
var pauseCmd = &cobra.Command{
	Use:   "pause",
	Short: "Pause a running batch at the next episode boundary",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		batchID, _ := cmd.Flags().GetString("batch")

		tc, err := dialTemporal(cfg)
		if err != nil {
			return err
		}
		defer tc.Close()

		if err := tc.SignalWorkflow(context.Background(), batchWorkflowID(batchID), "", workflow.SignalPause, nil); err != nil {
			return fmt.Errorf("pause batch %s: %w", batchID, err)
		}
		fmt.Printf("batch %s pause requested\n", batchID)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(pauseCmd)

	pauseCmd.Flags().String("batch", "", "Batch identifier")
	_ = pauseCmd.MarkFlagRequired("batch")
}
