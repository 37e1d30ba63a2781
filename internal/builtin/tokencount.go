package builtin

import (
	"context"
	"sort"

	"github.com/bytedance/sonic"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/mark3labs/tokencount/internal/counter"
)

// TokenCountServerName is the registry name of the token counting server.
const TokenCountServerName = "tokencount"

// NewTokenCountServer creates an MCP server exposing count_tokens and
// list_models tools.
func NewTokenCountServer(c *counter.Counter, version string) *server.MCPServer {
	s := server.NewMCPServer(TokenCountServerName, version, server.WithToolCapabilities(false))

	providers := c.Pricing().GetSupportedProviders()

	countTool := mcp.NewTool("count_tokens",
		mcp.WithDescription("Count the tokens of a text for an LLM provider and model, and estimate the input price in USD. "+
			"Returns the token count, the price and a character-to-token visualization as JSON."),
		mcp.WithString("text",
			mcp.Required(),
			mcp.Description("The text to tokenize"),
		),
		mcp.WithString("provider",
			mcp.Required(),
			mcp.Description("The tokenizer family"),
			mcp.Enum(providers...),
		),
		mcp.WithString("model",
			mcp.Required(),
			mcp.Description("The model ID used for pricing, e.g. llama-3.1-8b or claude-3-opus"),
		),
	)
	s.AddTool(countTool, countTokensHandler(c))

	listTool := mcp.NewTool("list_models",
		mcp.WithDescription("List the priced models of a provider with their price per 1,000 input tokens"),
		mcp.WithString("provider",
			mcp.Required(),
			mcp.Description("The provider to list"),
			mcp.Enum(providers...),
		),
	)
	s.AddTool(listTool, listModelsHandler(c))

	return s
}

func countTokensHandler(c *counter.Counter) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		text, err := request.RequireString("text")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		provider, err := request.RequireString("provider")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		model, err := request.RequireString("model")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		res := c.Count(ctx, counter.Request{Text: text, Provider: provider, Model: model})
		data, err := sonic.ConfigStd.Marshal(res)
		if err != nil {
			return nil, err
		}
		if !res.Success {
			return mcp.NewToolResultError(string(data)), nil
		}
		return mcp.NewToolResultText(string(data)), nil
	}
}

type modelPrice struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	PricePer1K float64 `json:"pricePer1K"`
}

func listModelsHandler(c *counter.Counter) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		provider, err := request.RequireString("provider")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		catalogue, err := c.Pricing().GetModelsForProvider(provider)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		out := make([]modelPrice, 0, len(catalogue))
		for _, m := range catalogue {
			out = append(out, modelPrice{ID: m.ID, Name: m.Name, PricePer1K: m.Cost.Input})
		}
		sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

		data, err := sonic.ConfigStd.Marshal(out)
		if err != nil {
			return nil, err
		}
		return mcp.NewToolResultText(string(data)), nil
	}
}
