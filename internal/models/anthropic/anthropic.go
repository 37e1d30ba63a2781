// Package anthropic counts tokens through Anthropic's hosted token counting
// endpoint. The endpoint returns a count only, so sequences produced here
// carry no token surfaces.
package anthropic

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/mark3labs/tokencount/internal/tokens"
)

const (
	// DefaultCountModel is the model whose tokenizer counts the text.
	DefaultCountModel = "claude-3-5-sonnet-20241022"
	// DefaultSystemPrompt is counted along with the user text.
	DefaultSystemPrompt = "You are a helpful assistant"

	tokenCountingBeta = "token-counting-2024-11-01"
)

// Config configures a Counter.
type Config struct {
	APIKey string
	// BaseURL overrides https://api.anthropic.com.
	BaseURL string
	// CountModel is sent as the request model; the model requested by the
	// caller only selects the price.
	CountModel   string
	SystemPrompt string
	HTTPClient   *http.Client
}

// Counter calls the messages/count_tokens endpoint.
type Counter struct {
	client       anthropic.Client
	countModel   string
	systemPrompt string
}

// New creates a Counter. It fails when no API key is configured.
func New(cfg *Config) (*Counter, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("anthropic API key is required")
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithHeader("anthropic-beta", tokenCountingBeta),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}

	countModel := cfg.CountModel
	if countModel == "" {
		countModel = DefaultCountModel
	}

	return &Counter{
		client:       anthropic.NewClient(opts...),
		countModel:   countModel,
		systemPrompt: cfg.SystemPrompt,
	}, nil
}

// Encode implements tokens.Tokenizer.
func (c *Counter) Encode(ctx context.Context, text, _ string) (*tokens.Sequence, error) {
	params := anthropic.MessageCountTokensParams{
		Model: anthropic.Model(c.countModel),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(text)),
		},
	}
	if c.systemPrompt != "" {
		params.System = anthropic.MessageCountTokensParamsSystemUnion{
			OfString: anthropic.String(c.systemPrompt),
		}
	}

	res, err := c.client.Messages.CountTokens(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("anthropic token count failed: %w", err)
	}
	return tokens.NewCountOnlySequence(int(res.InputTokens)), nil
}
