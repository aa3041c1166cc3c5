package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"chartcap/internal/export"
)

func newLinesCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "lines",
		Short: "Show the last exported annotation snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			data, err := os.ReadFile(cfg.ExportPath())
			if err != nil {
				if os.IsNotExist(err) {
					fmt.Fprintln(cmd.OutOrStdout(), "No annotation snapshot exported yet")
					return nil
				}
				return fmt.Errorf("read snapshot: %w", err)
			}
			var snapshot export.Snapshot
			if err := json.Unmarshal(data, &snapshot); err != nil {
				return fmt.Errorf("parse snapshot %s: %w", cfg.ExportPath(), err)
			}

			stdout := cmd.OutOrStdout()
			fmt.Fprintf(stdout, "%s (as of %s)\n", snapshot.Symbol, snapshot.Timestamp)
			if len(snapshot.Lines) == 0 {
				fmt.Fprintln(stdout, "No price levels drawn")
				return nil
			}
			rows := make([][]string, 0, len(snapshot.Lines))
			for _, line := range snapshot.Lines {
				rows = append(rows, []string{
					line.Name,
					fmt.Sprintf("%.2f", line.Price),
					line.Color,
				})
			}
			fmt.Fprintln(stdout, renderTable(
				[]string{"Name", "Price", "Color"},
				rows,
				[]columnAlignment{alignLeft, alignRight, alignLeft},
			))
			return nil
		},
	}
}
