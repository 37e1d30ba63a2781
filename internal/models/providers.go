package models

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/mark3labs/tokencount/internal/config"
	"github.com/mark3labs/tokencount/internal/models/anthropic"
	"github.com/mark3labs/tokencount/internal/models/cohere"
	"github.com/mark3labs/tokencount/internal/models/google"
	"github.com/mark3labs/tokencount/internal/models/huggingface"
	"github.com/mark3labs/tokencount/internal/models/llama"
	"github.com/mark3labs/tokencount/internal/models/mistral"
	"github.com/mark3labs/tokencount/internal/models/openai"
	"github.com/mark3labs/tokencount/internal/tokens"
)

// ProviderConfig holds the configuration needed to construct a tokenizer for
// one provider. Zero values select the built-in defaults.
type ProviderConfig struct {
	Provider Provider

	// ProviderAPIKey overrides the credential read from the environment for
	// remote providers.
	ProviderAPIKey string
	// BaseURL overrides the remote provider endpoint.
	BaseURL string

	// HubToken overrides the Hugging Face token read from the environment.
	HubToken    string
	HubCacheDir string
	// HubLocalDir serves tokenizer files from disk instead of the Hub.
	HubLocalDir string
	// Repo and File override the Hub location of a local tokenizer.
	Repo string
	File string

	// CountModel and SystemPrompt apply to Anthropic only.
	CountModel   string
	SystemPrompt string

	TLSSkipVerify bool
	// HTTPClient is used for remote providers; when nil one is built from
	// TLSSkipVerify.
	HTTPClient *http.Client
	// Fetcher resolves tokenizer files; when nil one is built from the Hub
	// settings.
	Fetcher huggingface.Fetcher
	Logger  *log.Logger
}

// Factory constructs the tokenizer of one provider.
type Factory func(ctx context.Context, cfg *ProviderConfig) (tokens.Tokenizer, error)

// factories is the closed dispatch table of supported providers.
var factories = map[Provider]Factory{
	ProviderAnthropic: createAnthropicTokenizer,
	ProviderGoogle:    createGoogleTokenizer,
	ProviderOpenAI:    createOpenAITokenizer,
	ProviderLlama:     createLlamaTokenizer,
	ProviderCohere:    createCohereTokenizer,
	ProviderMistral:   createMistralTokenizer,
}

// CreateTokenizer constructs the tokenizer for cfg.Provider. Construction may
// download vocabulary files, so callers are expected to cache the result.
func CreateTokenizer(ctx context.Context, cfg *ProviderConfig) (tokens.Tokenizer, error) {
	factory, ok := factories[cfg.Provider]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedProvider, cfg.Provider)
	}
	return factory(ctx, cfg)
}

// ProviderConfigFromSettings builds the configuration of provider from
// process settings.
func ProviderConfigFromSettings(provider Provider, s *config.Settings, logger *log.Logger) *ProviderConfig {
	cfg := &ProviderConfig{
		Provider:      provider,
		HubCacheDir:   s.HubCacheDir,
		HubLocalDir:   s.HubLocalDir,
		TLSSkipVerify: s.TLSSkipVerify,
		Logger:        logger,
	}
	switch provider {
	case ProviderAnthropic:
		cfg.BaseURL = s.AnthropicBaseURL
		cfg.CountModel = s.AnthropicCountModel
		cfg.SystemPrompt = s.AnthropicSystemPrompt
	case ProviderGoogle:
		cfg.BaseURL = s.GoogleBaseURL
	case ProviderCohere:
		cfg.Repo = s.CohereRepo
	case ProviderLlama:
		cfg.Repo = s.LlamaRepo
	case ProviderMistral:
		cfg.Repo = s.MistralRepo
		cfg.File = s.MistralFile
	}
	return cfg
}

func (cfg *ProviderConfig) httpClient() *http.Client {
	if cfg.HTTPClient != nil {
		return cfg.HTTPClient
	}
	client := createHTTPClientWithTLSConfig(cfg.TLSSkipVerify)
	if cfg.Logger != nil {
		client.Transport = NewLoggingTransport(client.Transport, cfg.Logger, string(cfg.Provider))
	}
	return client
}

func (cfg *ProviderConfig) fetcher() huggingface.Fetcher {
	if cfg.Fetcher != nil {
		return cfg.Fetcher
	}
	if cfg.HubLocalDir != "" {
		return &huggingface.LocalFetcher{Dir: cfg.HubLocalDir}
	}
	token := cfg.HubToken
	if token == "" {
		token = LookupEnv(huggingface.TokenEnvVars)
	}
	return &huggingface.HubFetcher{Token: token, CacheDir: cfg.HubCacheDir}
}

func (cfg *ProviderConfig) fetch(ctx context.Context, defaultRepo, defaultFile string) (string, error) {
	repo, file := cfg.Repo, cfg.File
	if repo == "" {
		repo = defaultRepo
	}
	if file == "" {
		file = defaultFile
	}
	if cfg.Logger != nil {
		cfg.Logger.Debug("resolving tokenizer file", "provider", cfg.Provider, "repo", repo, "file", file)
	}
	return cfg.fetcher().Fetch(ctx, repo, file)
}

func createAnthropicTokenizer(_ context.Context, cfg *ProviderConfig) (tokens.Tokenizer, error) {
	apiKey, err := resolveAPIKey(ProviderAnthropic, cfg.ProviderAPIKey)
	if err != nil {
		return nil, err
	}

	systemPrompt := cfg.SystemPrompt
	if systemPrompt == "" {
		systemPrompt = anthropic.DefaultSystemPrompt
	}
	return anthropic.New(&anthropic.Config{
		APIKey:       apiKey,
		BaseURL:      cfg.BaseURL,
		CountModel:   cfg.CountModel,
		SystemPrompt: systemPrompt,
		HTTPClient:   cfg.httpClient(),
	})
}

func createGoogleTokenizer(ctx context.Context, cfg *ProviderConfig) (tokens.Tokenizer, error) {
	apiKey, err := resolveAPIKey(ProviderGoogle, cfg.ProviderAPIKey)
	if err != nil {
		return nil, err
	}
	return google.New(ctx, &google.Config{
		APIKey:     apiKey,
		BaseURL:    cfg.BaseURL,
		HTTPClient: cfg.httpClient(),
	})
}

func createOpenAITokenizer(_ context.Context, _ *ProviderConfig) (tokens.Tokenizer, error) {
	return openai.New(nil), nil
}

func createLlamaTokenizer(ctx context.Context, cfg *ProviderConfig) (tokens.Tokenizer, error) {
	path, err := cfg.fetch(ctx, llama.DefaultRepo, llama.RankFile)
	if err != nil {
		return nil, err
	}
	return llama.NewFromFile(path)
}

func createCohereTokenizer(ctx context.Context, cfg *ProviderConfig) (tokens.Tokenizer, error) {
	path, err := cfg.fetch(ctx, cohere.DefaultRepo, cohere.TokenizerFile)
	if err != nil {
		return nil, err
	}
	return cohere.NewFromFile(path)
}

func createMistralTokenizer(ctx context.Context, cfg *ProviderConfig) (tokens.Tokenizer, error) {
	path, err := cfg.fetch(ctx, mistral.DefaultRepo, mistral.DefaultFile)
	if err != nil {
		return nil, err
	}
	return mistral.NewFromFile(path)
}

// resolveAPIKey returns override when set, or the first credential variable
// of provider found in the environment.
func resolveAPIKey(provider Provider, override string) (string, error) {
	registry := GetGlobalRegistry()
	if err := registry.ValidateEnvironment(string(provider), override); err != nil {
		return "", err
	}
	if override != "" {
		return override, nil
	}
	envVars, err := registry.GetRequiredEnvVars(string(provider))
	if err != nil {
		return "", err
	}
	return LookupEnv(envVars), nil
}

// createHTTPClientWithTLSConfig creates an HTTP client with optional TLS skip verify
func createHTTPClientWithTLSConfig(skipVerify bool) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if skipVerify {
		transport.TLSClientConfig = &tls.Config{
			InsecureSkipVerify: true,
		}
	}
	return &http.Client{Transport: transport}
}
