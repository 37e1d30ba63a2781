package cmd

import (
	"fmt"

	"github.com/mark3labs/tokencount/internal/counter"
	"github.com/mark3labs/tokencount/internal/ui"
	"github.com/spf13/cobra"
)

var showWidth int

var showCmd = &cobra.Command{
	Use:   "show <text> <provider> <model>",
	Short: "Render the tokens of a text with colors in the terminal",
	Long: `Count the tokens of a text and render them in the terminal, one
background color per token, followed by the count and the input price.

Characters that belong to no token are shown dimmed. The command exits with
a non-zero status when counting fails.`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		s := settings()
		c, err := buildCounter(s, newLogger(cmd.ErrOrStderr(), s))
		if err != nil {
			return err
		}

		req := counter.Request{Text: args[0], Provider: args[1], Model: args[2]}
		res := c.Count(cmd.Context(), req)

		r := ui.NewRenderer(showWidth, ui.GetTheme())
		fmt.Fprint(cmd.OutOrStdout(), r.RenderResult(req, res))
		if !res.Success {
			return fmt.Errorf("counting failed: %s", res.Error)
		}
		return nil
	},
}

func init() {
	showCmd.Flags().IntVar(&showWidth, "width", 0, "wrap width (default is the terminal width)")
	rootCmd.AddCommand(showCmd)
}
