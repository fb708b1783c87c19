package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/syngen-dev/syngen/internal/catalog"
)

func newCatalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect the generation run catalog",
	}
	cmd.AddCommand(newCatalogListCmd())
	return cmd
}

func newCatalogListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded generation runs",
		Long: `List generation runs recorded in the catalog, newest first.

Each entry carries the dataset name, seed, table shape, the SHA-256 of
the written CSV, and where it was written.

Examples:
  syngen catalog list
  syngen catalog list --dataset weather --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			dataset, _ := cmd.Flags().GetString("dataset")
			jsonOut, _ := cmd.Flags().GetBool("json")

			toolCfg, _, err := loadTool(cmd)
			if err != nil {
				return err
			}
			if toolCfg.Catalog.Path == "" {
				return fmt.Errorf("no catalog path configured")
			}

			cat, err := catalog.Open(toolCfg.Catalog.Path)
			if err != nil {
				return fmt.Errorf("failed to open catalog: %w", err)
			}
			defer cat.Close()

			runs, err := cat.List(context.Background(), dataset)
			if err != nil {
				return err
			}

			if jsonOut {
				if runs == nil {
					runs = []catalog.Run{}
				}
				return json.NewEncoder(os.Stdout).Encode(runs)
			}

			if len(runs) == 0 {
				fmt.Println("no recorded runs")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tDATASET\tSEED\tROWS\tCOLS\tHASH\tCREATED\tOUTPUT")
			for _, run := range runs {
				fmt.Fprintf(w, "%d\t%s\t%d\t%d\t%d\t%s\t%s\t%s\n",
					run.ID, run.Dataset, run.Seed, run.Rows, run.Columns,
					run.ContentHash[:12], run.CreatedAt.Format(time.RFC3339), run.OutputPath)
			}
			return w.Flush()
		},
	}

	cmd.Flags().String("dataset", "", "Only list runs for this dataset")

	return cmd
}
