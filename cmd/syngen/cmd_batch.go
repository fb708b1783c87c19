package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/syngen-dev/syngen/internal/spec"
)

func newBatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch <definitions-dir>",
		Short: "Generate datasets for every definition in a directory",
		Long: `Generate a CSV for every definition file in a directory.

Files ending in .json, .yaml, or .yml are treated as definitions.
Datasets whose output CSV already exists are skipped unless --force is
given, so an interrupted batch can be resumed cheaply. A definition
that fails does not stop the rest of the batch.

Examples:
  syngen batch ./definitions
  syngen batch ./definitions --force`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			force, _ := cmd.Flags().GetBool("force")
			noCatalog, _ := cmd.Flags().GetBool("no-catalog")
			outDir, _ := cmd.Flags().GetString("output-dir")
			jsonOut, _ := cmd.Flags().GetBool("json")

			toolCfg, log, err := loadTool(cmd)
			if err != nil {
				return err
			}
			if outDir != "" {
				toolCfg.Output.Dir = outDir
			}

			paths, err := definitionFiles(args[0])
			if err != nil {
				return err
			}
			if len(paths) == 0 {
				return fmt.Errorf("no definition files found in %s", args[0])
			}

			summary := batchSummary{}
			for _, path := range paths {
				cfg, err := spec.LoadFile(path)
				if err != nil {
					log.Error("failed to load definition", "path", path, "error", err)
					summary.add(path, "", "failed", err)
					continue
				}

				output := filepath.Join(toolCfg.Output.Dir, cfg.Name+".csv")
				if !force {
					if _, err := os.Stat(output); err == nil {
						log.Info("output exists, skipping", "dataset", cfg.Name, "path", output)
						summary.add(path, cfg.Name, "skipped", nil)
						continue
					}
				}

				if _, err := runGeneration(cfg, toolCfg, log, output, noCatalog); err != nil {
					log.Error("generation failed", "dataset", cfg.Name, "error", err)
					summary.add(path, cfg.Name, "failed", err)
					continue
				}
				summary.add(path, cfg.Name, "generated", nil)
			}

			if jsonOut {
				if err := json.NewEncoder(os.Stdout).Encode(summary); err != nil {
					return err
				}
			} else {
				for _, e := range summary.Entries {
					line := fmt.Sprintf("%s: %s", e.Definition, e.Status)
					if e.Error != "" {
						line += " (" + e.Error + ")"
					}
					fmt.Println(line)
				}
				fmt.Printf("%d generated, %d skipped, %d failed\n",
					summary.Generated, summary.Skipped, summary.Failed)
			}

			if summary.Failed > 0 {
				return fmt.Errorf("%d of %d definitions failed", summary.Failed, len(paths))
			}
			return nil
		},
	}

	cmd.Flags().Bool("force", false, "Regenerate datasets whose output CSV already exists")
	cmd.Flags().Bool("no-catalog", false, "Skip recording runs in the catalog")
	cmd.Flags().StringP("output-dir", "o", "", "Directory for generated CSVs (default from tool config)")

	return cmd
}

type batchEntry struct {
	Definition string `json:"definition"`
	Dataset    string `json:"dataset,omitempty"`
	Status     string `json:"status"`
	Error      string `json:"error,omitempty"`
}

type batchSummary struct {
	Entries   []batchEntry `json:"entries"`
	Generated int          `json:"generated"`
	Skipped   int          `json:"skipped"`
	Failed    int          `json:"failed"`
}

func (s *batchSummary) add(path, dataset, status string, err error) {
	e := batchEntry{Definition: path, Dataset: dataset, Status: status}
	if err != nil {
		e.Error = err.Error()
	}
	s.Entries = append(s.Entries, e)
	switch status {
	case "generated":
		s.Generated++
	case "skipped":
		s.Skipped++
	case "failed":
		s.Failed++
	}
}

// definitionFiles lists definition files in dir, sorted for a stable batch
// order.
func definitionFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read definitions directory: %w", err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".json", ".yaml", ".yml":
			paths = append(paths, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(paths)
	return paths, nil
}
