package cmd

import (
	"encoding/json"
	"fmt"

	statusadapter "github.com/bnema/adforge/internal/adapters/render/status"
	"github.com/spf13/cobra"
)

func newHistoryCmd(app *app) *cobra.Command {
	var limit int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List finished ad sessions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			records, err := app.history.List(cmd.Context())
			if err != nil {
				return fmt.Errorf("load history: %w", err)
			}
			if limit > 0 && len(records) > limit {
				records = records[len(records)-limit:]
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(records)
			}

			rendered, err := app.historyRenderer(records, statusadapter.RenderOptions{Now: app.now()})
			if err != nil {
				return fmt.Errorf("render history: %w", err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
			return err
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Show at most this many runs (0 for all)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print history as JSON")

	return cmd
}
