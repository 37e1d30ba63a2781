// Package counter turns a (text, provider, model) request into a token count,
// a price and a character-level visualization.
package counter

import (
	"context"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mark3labs/tokencount/internal/models"
	"github.com/mark3labs/tokencount/internal/tokens"
)

// Counter is the entry point shared by the CLI, the HTTP server, the MCP
// server and the SDK. It is safe for concurrent use.
type Counter struct {
	registry *Registry
	pricing  *models.ModelsRegistry
	logger   *log.Logger
}

// New creates a Counter. A nil pricing registry uses the built-in catalogue
// and a nil logger discards output.
func New(registry *Registry, pricing *models.ModelsRegistry, logger *log.Logger) *Counter {
	if pricing == nil {
		pricing = models.GetGlobalRegistry()
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Counter{registry: registry, pricing: pricing, logger: logger}
}

// Pricing returns the price catalogue used by c.
func (c *Counter) Pricing() *models.ModelsRegistry {
	return c.pricing
}

// Loaded returns the names of the providers whose tokenizer is constructed,
// in sorted order.
func (c *Counter) Loaded() []string {
	providers := c.registry.Loaded()
	names := make([]string, len(providers))
	for i, p := range providers {
		names[i] = string(p)
	}
	sort.Strings(names)
	return names
}

// Count counts req. Every failure, including a panic inside a tokenizer, is
// reported as a failure envelope.
func (c *Counter) Count(ctx context.Context, req Request) (res Result) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			res = Fail(fmt.Sprintf("tokenizer panic: %v", r))
		}
		c.logger.Debug("count",
			"provider", req.Provider, "model", req.Model, "chars", len(req.Text),
			"success", res.Success, "tokens", res.TokenCount, "elapsed", time.Since(start))
	}()

	provider, err := models.ParseProvider(req.Provider)
	if err != nil {
		return Fail(err.Error())
	}

	tok, err := c.registry.Get(ctx, provider)
	if err != nil {
		c.logger.Warn("tokenizer unavailable", "provider", provider, "err", err)
		return Fail(err.Error())
	}

	seq, err := tok.Encode(ctx, req.Text, req.Model)
	if err != nil {
		return Fail(err.Error())
	}

	return Result{
		Success:       true,
		TokenCount:    seq.Count,
		Price:         c.pricing.Price(req.Provider, req.Model, seq.Count),
		Visualization: Visualize(req.Text, seq),
	}
}

// Visualize aligns the characters of text with the tokens of seq.
func Visualize(text string, seq *tokens.Sequence) Visualization {
	switch seq.Strategy {
	case tokens.StrategyTiling:
		surfaces := seq.Surfaces()
		return Visualization{
			Text:        text,
			Tokens:      surfaces,
			TokenIDs:    seq.IDs(),
			CharToToken: tokens.Tile(text, surfaces),
		}
	case tokens.StrategyReconstructed:
		fragments, charMap := tokens.Reconcile(seq.Reconstructed, seq.Marker)
		return Visualization{
			Text:        seq.Reconstructed,
			Tokens:      fragments,
			TokenIDs:    seq.IDs(),
			CharToToken: charMap,
		}
	default:
		return Visualization{
			Text:        text,
			Tokens:      []string{},
			TokenIDs:    []int{},
			CharToToken: tokens.CharMap{},
		}
	}
}
