package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/syngen-dev/syngen/internal/spec"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <definition-file>",
		Short: "Validate a dataset definition without generating",
		Long: `Validate a dataset definition file and report every violation.

All problems are collected in one pass, so a definition with several
mistakes reports them all instead of failing on the first.

Examples:
  syngen validate weather.json
  syngen validate --json sales.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")

			cfg, err := spec.LoadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to load definition: %w", err)
			}

			violations := spec.Validate(cfg)
			errs := spec.Errors(violations)
			warnings := spec.Warnings(violations)

			if jsonOut {
				out := map[string]any{
					"dataset": cfg.Name,
					"valid":   len(errs) == 0,
				}
				if len(violations) > 0 {
					out["violations"] = violations
				}
				if err := json.NewEncoder(os.Stdout).Encode(out); err != nil {
					return err
				}
			} else {
				for _, v := range errs {
					fmt.Printf("error: %s\n", v)
				}
				for _, v := range warnings {
					fmt.Printf("warning: %s\n", v)
				}
				if len(errs) == 0 {
					fmt.Printf("%s: valid (%d features, %d rows)\n", cfg.Name, len(cfg.Features), cfg.NRows)
				}
			}

			if len(errs) > 0 {
				return fmt.Errorf("%s: %d validation errors", args[0], len(errs))
			}
			return nil
		},
	}
}
