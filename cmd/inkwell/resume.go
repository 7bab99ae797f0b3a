package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/inkwell-ai/inkwell/internal/workflow"
)

// resumeCmd restarts a paused batch. The workflow recomputes its start
// position so completed episodes are never re-attempted.
var resumeCmd = &cobra.Command{
	Use:   "resume",
	Short: "Resume a paused batch",
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

		if err := tc.SignalWorkflow(context.Background(), batchWorkflowID(batchID), "", workflow.SignalResume, nil); err != nil {
			return fmt.Errorf("resume batch %s: %w", batchID, err)
		}
		fmt.Printf("batch %s resume requested\n", batchID)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(resumeCmd)

	resumeCmd.Flags().String("batch", "", "Batch identifier")
	_ = resumeCmd.MarkFlagRequired("batch")
}
