package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/syngen-dev/syngen/internal/catalog"
	"github.com/syngen-dev/syngen/internal/config"
	"github.com/syngen-dev/syngen/internal/engine"
	"github.com/syngen-dev/syngen/internal/logging"
	"github.com/syngen-dev/syngen/internal/spec"
)

func newGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate <definition-file>",
		Short: "Generate a dataset CSV from a definition",
		Long: `Generate a synthetic dataset from a definition file and write it as CSV.

The run is fully reproducible: the definition's random_seed drives every
random draw, so the same definition always produces the same file. Each
run is recorded in the catalog unless disabled.

Examples:
  syngen generate weather.json
  syngen generate weather.json --output /data/weather.csv
  syngen generate weather.json --seed 99 --no-catalog`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output, _ := cmd.Flags().GetString("output")
			seed, _ := cmd.Flags().GetInt64("seed")
			noCatalog, _ := cmd.Flags().GetBool("no-catalog")
			jsonOut, _ := cmd.Flags().GetBool("json")

			toolCfg, log, err := loadTool(cmd)
			if err != nil {
				return err
			}

			cfg, err := spec.LoadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to load definition: %w", err)
			}
			if cmd.Flags().Changed("seed") {
				cfg.RandomSeed = seed
			}

			result, err := runGeneration(cfg, toolCfg, log, output, noCatalog)
			if err != nil {
				var verr *engine.ValidationError
				if errors.As(err, &verr) && !jsonOut {
					for _, v := range verr.Violations {
						fmt.Fprintf(os.Stderr, "error: %s\n", v)
					}
					return fmt.Errorf("%s: %d validation errors", args[0], len(verr.Violations))
				}
				return err
			}

			return printResult(result, jsonOut)
		},
	}

	cmd.Flags().StringP("output", "o", "", "Output CSV path (default <output-dir>/<dataset>.csv)")
	cmd.Flags().Int64("seed", 0, "Override the definition's random seed")
	cmd.Flags().Bool("no-catalog", false, "Skip recording the run in the catalog")

	return cmd
}

// generationResult is what one run reports back to the user.
type generationResult struct {
	Report      *engine.Report `json:"report"`
	OutputPath  string         `json:"output_path"`
	ContentHash string         `json:"content_hash"`
}

// runGeneration runs the pipeline for cfg and writes the CSV, recording the
// run in the catalog when enabled.
func runGeneration(cfg *spec.Config, toolCfg *config.ToolConfig, log *slog.Logger, output string, noCatalog bool) (*generationResult, error) {
	tbl, report, err := engine.New(log).Generate(cfg)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := tbl.WriteCSV(&buf); err != nil {
		return nil, fmt.Errorf("failed to encode CSV: %w", err)
	}

	if output == "" {
		output = filepath.Join(toolCfg.Output.Dir, cfg.Name+".csv")
	}
	if dir := filepath.Dir(output); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := os.WriteFile(output, buf.Bytes(), 0644); err != nil {
		return nil, fmt.Errorf("failed to write CSV: %w", err)
	}

	hash := catalog.Hash(buf.Bytes())
	log.Info("wrote dataset", "path", output, "bytes", buf.Len(), "hash", hash[:12])

	if toolCfg.Catalog.Path != "" {
		tracer := logging.NewTraceLogger(filepath.Dir(toolCfg.Catalog.Path), toolCfg.Logging.Level)
		tracer.Log(logging.Event{
			Stage:      "generate",
			Dataset:    report.Dataset,
			Seed:       report.Seed,
			Rows:       report.Rows,
			Columns:    report.Columns,
			TimeSeries: report.TimeSeries,
			Warnings:   len(report.Warnings),
			Hash:       hash,
			Output:     output,
		})
		tracer.Close()
	}

	if toolCfg.Catalog.Enabled && !noCatalog {
		if err := recordRun(toolCfg.Catalog.Path, report, output, hash); err != nil {
			// A catalog failure should not discard a generated file.
			log.Warn("failed to record run in catalog", "error", err)
		}
	}

	return &generationResult{Report: report, OutputPath: output, ContentHash: hash}, nil
}

func recordRun(path string, report *engine.Report, output, hash string) error {
	cat, err := catalog.Open(path)
	if err != nil {
		return err
	}
	defer cat.Close()

	return cat.Record(context.Background(), &catalog.Run{
		Dataset:     report.Dataset,
		Seed:        report.Seed,
		Rows:        report.Rows,
		Columns:     report.Columns,
		ContentHash: hash,
		OutputPath:  output,
	})
}

func printResult(result *generationResult, jsonOut bool) error {
	if jsonOut {
		return json.NewEncoder(os.Stdout).Encode(result)
	}

	r := result.Report
	fmt.Printf("%s: %d rows x %d columns -> %s\n", r.Dataset, r.Rows, r.Columns, result.OutputPath)
	for _, c := range r.Correlations {
		fmt.Printf("  correlation %s~%s: requested %.2f, realized %.2f\n",
			c.FeatureA, c.FeatureB, c.Requested, c.Realized)
	}
	for _, w := range r.Warnings {
		fmt.Printf("  warning: %s\n", w)
	}
	return nil
}
