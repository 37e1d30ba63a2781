package models

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
)

// ErrUnsupportedProvider is returned for provider identifiers outside the
// closed set of providers this tool can tokenize for.
var ErrUnsupportedProvider = errors.New("unsupported provider")

// Provider identifies an LLM vendor or tokenizer family.
type Provider string

const (
	ProviderAnthropic Provider = "anthropic"
	ProviderCohere    Provider = "cohere"
	ProviderLlama     Provider = "llama"
	ProviderMistral   Provider = "mistral"
	ProviderOpenAI    Provider = "openai"
	ProviderGoogle    Provider = "google"
)

// ParseProvider validates a provider identifier. The error message has the
// form "unsupported provider: <name>" and wraps ErrUnsupportedProvider.
func ParseProvider(name string) (Provider, error) {
	p := Provider(name)
	if _, ok := factories[p]; !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedProvider, name)
	}
	return p, nil
}

// ModelsRegistry is the read-only catalogue of providers, their models and
// the price per 1,000 input tokens of each model. It also records which
// environment variables hold a provider's credentials.
type ModelsRegistry struct {
	// providers maps provider IDs to their information and priced models
	providers map[string]ProviderInfo
}

// NewModelsRegistry creates a registry populated with the built-in catalogue.
func NewModelsRegistry() *ModelsRegistry {
	return &ModelsRegistry{
		providers: GetModelsData(),
	}
}

// ValidateModel checks whether a model is priced for a given provider and
// returns its catalogue entry.
//
// Parameters:
//   - provider: The provider ID (e.g., "anthropic", "llama")
//   - modelID: The model ID (e.g., "claude-3-opus", "llama-3.1-8b")
//
// Returns:
//   - *ModelInfo: The catalogue entry, including its price
//   - error: Returns an error if the provider is unsupported or the model is not catalogued
func (r *ModelsRegistry) ValidateModel(provider, modelID string) (*ModelInfo, error) {
	providerInfo, exists := r.providers[provider]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedProvider, provider)
	}

	modelInfo, exists := providerInfo.Models[modelID]
	if !exists {
		return nil, fmt.Errorf("model %s not found for provider %s", modelID, provider)
	}

	return &modelInfo, nil
}

// GetRequiredEnvVars returns the environment variables that may hold the
// provider's credentials. Local tokenizers without gated downloads return an
// empty list.
//
// Example:
//
//	For "anthropic", returns ["ANTHROPIC_API_KEY"]
//	For "google", returns ["GOOGLE_API_KEY", "GEMINI_API_KEY"]
func (r *ModelsRegistry) GetRequiredEnvVars(provider string) ([]string, error) {
	providerInfo, exists := r.providers[provider]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedProvider, provider)
	}

	return providerInfo.Env, nil
}

// ValidateEnvironment checks that at least one of the provider's credential
// variables is set, unless apiKey already carries a key.
func (r *ModelsRegistry) ValidateEnvironment(provider string, apiKey string) error {
	envVars, err := r.GetRequiredEnvVars(provider)
	if err != nil {
		return err
	}

	if apiKey != "" || len(envVars) == 0 {
		return nil
	}

	if LookupEnv(envVars) != "" {
		return nil
	}

	return fmt.Errorf("missing required environment variables for %s: %s (at least one required)",
		provider, strings.Join(envVars, ", "))
}

// LookupEnv returns the value of the first non-empty variable in names.
func LookupEnv(names []string) string {
	for _, name := range names {
		if v := os.Getenv(name); v != "" {
			return v
		}
	}
	return ""
}

// SuggestModels returns up to 5 catalogued model IDs that partially match
// invalidModel, for typo hints in the CLI.
func (r *ModelsRegistry) SuggestModels(provider, invalidModel string) []string {
	providerInfo, exists := r.providers[provider]
	if !exists {
		return nil
	}

	var suggestions []string
	invalidLower := strings.ToLower(invalidModel)

	for _, modelID := range sortedKeys(providerInfo.Models) {
		modelInfo := providerInfo.Models[modelID]
		modelIDLower := strings.ToLower(modelID)
		modelNameLower := strings.ToLower(modelInfo.Name)

		if strings.Contains(modelIDLower, invalidLower) ||
			strings.Contains(modelNameLower, invalidLower) ||
			strings.Contains(invalidLower, strings.ToLower(strings.Split(modelID, "-")[0])) {
			suggestions = append(suggestions, modelID)
		}
	}

	if len(suggestions) > 5 {
		suggestions = suggestions[:5]
	}

	return suggestions
}

// GetSupportedProviders returns the catalogued provider IDs in sorted order.
func (r *ModelsRegistry) GetSupportedProviders() []string {
	providers := make([]string, 0, len(r.providers))
	for providerID := range r.providers {
		providers = append(providers, providerID)
	}
	sort.Strings(providers)
	return providers
}

// GetProvider returns the catalogue entry for a provider.
func (r *ModelsRegistry) GetProvider(provider string) (ProviderInfo, error) {
	providerInfo, exists := r.providers[provider]
	if !exists {
		return ProviderInfo{}, fmt.Errorf("%w: %s", ErrUnsupportedProvider, provider)
	}
	return providerInfo, nil
}

// GetModelsForProvider returns all catalogued models of a provider.
func (r *ModelsRegistry) GetModelsForProvider(provider string) (map[string]ModelInfo, error) {
	providerInfo, exists := r.providers[provider]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedProvider, provider)
	}

	return providerInfo.Models, nil
}

// Global registry instance
var globalRegistry = NewModelsRegistry()

// GetGlobalRegistry returns the registry built from the static catalogue.
// Callers that apply a pricing file get their own copy from WithPricing.
func GetGlobalRegistry() *ModelsRegistry {
	return globalRegistry
}

func sortedKeys(models map[string]ModelInfo) []string {
	keys := make([]string, 0, len(models))
	for k := range models {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
