package cmd

import (
	"fmt"

	"github.com/mark3labs/tokencount/internal/counter"
	"github.com/mark3labs/tokencount/internal/ui"
	"github.com/spf13/cobra"
)

var modelsJSON bool

var modelsCmd = &cobra.Command{
	Use:   "models [provider]",
	Short: "List priced models and their price per 1,000 input tokens",
	Long: `List the priced models of one provider, or of all providers.

Prices come from the built-in catalogue, extended or overridden by
--pricing-file when one is given.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := counter.LoadPricing(settings())
		if err != nil {
			return err
		}

		rows, err := ui.ModelRows(reg, args...)
		if err != nil {
			return err
		}

		if modelsJSON {
			out := make([]ModelResponse, 0, len(rows))
			for _, row := range rows {
				out = append(out, ModelResponse{ID: row.ID, Name: row.Name, PricePer1K: row.PricePer1K})
			}
			return writeJSON(cmd.OutOrStdout(), out)
		}

		fmt.Fprint(cmd.OutOrStdout(), ui.NewRenderer(0, ui.GetTheme()).RenderModels(rows))
		return nil
	},
}

func init() {
	modelsCmd.Flags().BoolVar(&modelsJSON, "json", false, "print the models as JSON")
	rootCmd.AddCommand(modelsCmd)
}
