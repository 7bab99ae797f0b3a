package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/inkwell-ai/inkwell/internal/domain"
	"github.com/inkwell-ai/inkwell/internal/workflow"
)

// statusCmd queries a batch workflow for its current state.
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show a batch's current state",
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

		resp, err := tc.QueryWorkflow(context.Background(), batchWorkflowID(batchID), "", workflow.QueryState)
		if err != nil {
			return fmt.Errorf("query batch %s: %w", batchID, err)
		}

		var state domain.BatchState
		if err := resp.Get(&state); err != nil {
			return fmt.Errorf("decode batch state: %w", err)
		}

		out, err := json.MarshalIndent(state, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().String("batch", "", "Batch identifier")
	_ = statusCmd.MarkFlagRequired("batch")
}
