package cmd

import (
	"github.com/mark3labs/mcp-go/server"
	"github.com/mark3labs/tokencount/internal/builtin"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the token counter as an MCP server over stdio",
	Long: `Serve the token counter as an MCP server over stdio.

Tools:
  count_tokens  {text, provider, model} -> the JSON result of the root command
  list_models   {provider}              -> priced models of a provider`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s := settings()
		logger := newLogger(cmd.ErrOrStderr(), s)
		c, err := buildCounter(s, logger)
		if err != nil {
			return err
		}

		wrapper, err := builtin.NewRegistry().CreateServer(builtin.TokenCountServerName, c, cmd.Root().Version)
		if err != nil {
			return err
		}
		logger.Debug("serving MCP over stdio")
		return server.ServeStdio(wrapper.GetServer())
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
