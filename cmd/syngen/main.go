package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/syngen-dev/syngen/internal/config"
	"github.com/syngen-dev/syngen/internal/logging"
)

var version = "0.1.0-dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "syngen",
		Short: "Synthetic tabular dataset generator",
		Long: `syngen generates synthetic tabular datasets from declarative definitions.

A definition file describes features (distributions, correlations, lags,
outliers, missing data) and a target expression; syngen produces a
reproducible CSV for it. The same definition and seed always yield the
same file.`,
	}

	// Global flags
	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON")
	rootCmd.PersistentFlags().String("log-level", "", "Log verbosity: info, debug, or trace")

	rootCmd.AddCommand(
		newVersionCmd(),
		newValidateCmd(),
		newGenerateCmd(),
		newBatchCmd(),
		newCatalogCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				json.NewEncoder(os.Stdout).Encode(map[string]string{"version": version})
			} else {
				fmt.Printf("syngen version %s\n", version)
			}
		},
	}
}

// loadTool loads the tool config and builds the operational logger, applying
// the --log-level flag on top of file and environment settings.
func loadTool(cmd *cobra.Command) (*config.ToolConfig, *slog.Logger, error) {
	toolCfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		toolCfg.Logging.Level = level
	}
	if err := toolCfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid tool config: %w", err)
	}
	return toolCfg, logging.NewLogger(toolCfg.Logging.Level, os.Stderr), nil
}
