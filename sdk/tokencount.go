package sdk

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/mark3labs/tokencount/internal/config"
	"github.com/mark3labs/tokencount/internal/counter"
	"github.com/spf13/viper"
)

// TokenCount provides programmatic access to the token counter. It resolves
// configuration the same way the CLI does and caches tokenizers across calls.
// A TokenCount is safe for concurrent use.
type TokenCount struct {
	counter *counter.Counter
}

// Options configures TokenCount creation. All fields are optional and fall
// back to the CLI defaults, the config file and TOKENCOUNT_* variables.
type Options struct {
	ConfigFile  string // Config file path (default is $HOME/.tokencount.yml)
	PricingFile string // YAML prices applied over the built-in catalogue
	HubCacheDir string // Cache directory for Hugging Face downloads
	HubLocalDir string // Serve tokenizer files from <dir>/<repo>/<file>
	Logger      *log.Logger
	Debug       bool
}

// New creates a TokenCount. Tokenizers are loaded on their first use, so
// New only fails on configuration errors.
func New(opts *Options) (*TokenCount, error) {
	if opts == nil {
		opts = &Options{}
	}

	// A private viper instance keeps SDK users isolated from the CLI globals.
	v := viper.New()
	config.SetDefaults(v)
	if err := config.LoadConfigWithEnvSubstitution(v, opts.ConfigFile); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if opts.PricingFile != "" {
		v.Set(config.KeyPricingFile, opts.PricingFile)
	}
	if opts.HubCacheDir != "" {
		v.Set(config.KeyHubCacheDir, opts.HubCacheDir)
	}
	if opts.HubLocalDir != "" {
		v.Set(config.KeyHubLocalDir, opts.HubLocalDir)
	}
	if opts.Debug {
		v.Set(config.KeyDebug, true)
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	s := config.FromViper(v)
	if s.Debug {
		logger.SetLevel(log.DebugLevel)
	}

	c, err := counter.NewFromSettings(s, logger)
	if err != nil {
		return nil, err
	}
	return &TokenCount{counter: c}, nil
}

// Count tokenizes text for provider and prices it for model. Failures are
// reported in the returned Result, never as a Go error.
func (t *TokenCount) Count(ctx context.Context, text, provider, model string) Result {
	return t.counter.Count(ctx, counter.Request{Text: text, Provider: provider, Model: model})
}

// Models returns the priced models of a provider.
func (t *TokenCount) Models(provider string) ([]Model, error) {
	catalogue, err := t.counter.Pricing().GetModelsForProvider(provider)
	if err != nil {
		return nil, err
	}
	out := make([]Model, 0, len(catalogue))
	for _, m := range catalogue {
		out = append(out, m)
	}
	sortModels(out)
	return out, nil
}

// Providers returns the supported provider names in sorted order.
func (t *TokenCount) Providers() []string {
	return t.counter.Pricing().GetSupportedProviders()
}

// Loaded returns the providers whose tokenizers are initialized.
func (t *TokenCount) Loaded() []string {
	return t.counter.Loaded()
}
