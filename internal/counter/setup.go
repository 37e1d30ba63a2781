package counter

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/mark3labs/tokencount/internal/config"
	"github.com/mark3labs/tokencount/internal/models"
	"github.com/mark3labs/tokencount/internal/tokens"
)

// NewFromSettings builds a Counter whose tokenizers are configured from s.
// A configured pricing file is applied over the built-in catalogue.
// Tokenizers are constructed lazily on their first request.
func NewFromSettings(s *config.Settings, logger *log.Logger) (*Counter, error) {
	pricing, err := LoadPricing(s)
	if err != nil {
		return nil, err
	}
	if logger != nil && s.PricingFile != "" {
		logger.Debug("pricing overlay applied", "file", s.PricingFile)
	}

	build := func(ctx context.Context, p models.Provider) (tokens.Tokenizer, error) {
		if logger != nil {
			logger.Debug("initializing tokenizer", "provider", p)
		}
		return models.CreateTokenizer(ctx, models.ProviderConfigFromSettings(p, s, logger))
	}
	return New(NewRegistry(build), pricing, logger), nil
}

// LoadPricing returns the built-in catalogue with the configured pricing
// file applied over it.
func LoadPricing(s *config.Settings) (*models.ModelsRegistry, error) {
	pricing := models.GetGlobalRegistry()
	if s.PricingFile == "" {
		return pricing, nil
	}
	file, err := models.LoadPricingFile(s.PricingFile)
	if err != nil {
		return nil, err
	}
	return pricing.WithPricing(file)
}
