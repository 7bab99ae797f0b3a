package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.temporal.io/sdk/client"

	"github.com/inkwell-ai/inkwell/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "inkwell",
	Short: "Inkwell generates serialized drama episodes in validated batches",
	Long: `Inkwell drives contract-based episode generation: each episode is
generated slot by slot against a structural contract, validated, escalated
through retry variants, and assembled. Batches run as durable Temporal
workflows that can be paused, resumed, and inspected.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to the YAML configuration file")
}

// loadConfig reads the configuration named by the persistent flag.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	return config.Load(path)
}

// dialTemporal connects to the Temporal frontend from the loaded config.
func dialTemporal(cfg *config.Config) (client.Client, error) {
	c, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to temporal at %s: %w", cfg.Temporal.HostPort, err)
	}
	return c, nil
}

// batchWorkflowID is the deterministic workflow ID for a batch, shared by
// start, pause, resume, and status.
func batchWorkflowID(batchID string) string {
	return "batch-" + batchID
}
