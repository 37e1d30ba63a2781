// Package google counts tokens with the Gemini API countTokens method.
package google

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/mark3labs/tokencount/internal/tokens"
	"google.golang.org/genai"
)

// Config configures a Counter.
type Config struct {
	APIKey string
	// BaseURL overrides the Gemini API endpoint.
	BaseURL    string
	HTTPClient *http.Client
}

// Counter counts tokens for Gemini models. Like Anthropic's endpoint it
// reports a count only.
type Counter struct {
	client *genai.Client
}

// New creates a Counter. It fails when no API key is configured.
func New(ctx context.Context, cfg *Config) (*Counter, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("google API key is required")
	}

	cc := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: cfg.HTTPClient,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &Counter{client: client}, nil
}

// Encode implements tokens.Tokenizer. The requested model does the counting.
func (c *Counter) Encode(ctx context.Context, text, model string) (*tokens.Sequence, error) {
	res, err := c.client.Models.CountTokens(ctx, model, genai.Text(text), nil)
	if err != nil {
		return nil, fmt.Errorf("gemini token count failed: %w", err)
	}
	return tokens.NewCountOnlySequence(int(res.TotalTokens)), nil
}
