package models

// Kind tells whether a provider tokenizes locally or through a hosted API.
type Kind string

const (
	KindRemote Kind = "remote"
	KindLocal  Kind = "local"
)

// ProviderInfo describes a provider and the models priced for it.
type ProviderInfo struct {
	ID     string               `json:"id" yaml:"id"`
	Name   string               `json:"name" yaml:"name"`
	Kind   Kind                 `json:"kind" yaml:"kind"`
	Env    []string             `json:"env" yaml:"env"`
	Models map[string]ModelInfo `json:"models" yaml:"models"`
}

// ModelInfo is one priced model.
type ModelInfo struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
	Cost Cost   `json:"cost" yaml:"cost"`
}

// Cost holds the USD price of a model.
type Cost struct {
	// Input is the price per 1,000 input tokens.
	Input float64 `json:"input" yaml:"input"`
}

func model(id, name string, per1K float64) ModelInfo {
	return ModelInfo{ID: id, Name: name, Cost: Cost{Input: per1K}}
}

// GetModelsData returns a fresh copy of the built-in catalogue.
func GetModelsData() map[string]ProviderInfo {
	return map[string]ProviderInfo{
		string(ProviderAnthropic): {
			ID:   string(ProviderAnthropic),
			Name: "Anthropic",
			Kind: KindRemote,
			Env:  []string{"ANTHROPIC_API_KEY"},
			Models: map[string]ModelInfo{
				"claude-3-opus":     model("claude-3-opus", "Claude 3 Opus", 0.015),
				"claude-3-5-sonnet": model("claude-3-5-sonnet", "Claude 3.5 Sonnet", 0.003),
				"claude-3.5-haiku":  model("claude-3.5-haiku", "Claude 3.5 Haiku", 0.00025),
			},
		},
		string(ProviderCohere): {
			ID:   string(ProviderCohere),
			Name: "Cohere",
			Kind: KindLocal,
			Env:  []string{},
			Models: map[string]ModelInfo{
				"command-r+":    model("command-r+", "Command R+", 0.003),
				"command-r":     model("command-r", "Command R", 0.0005),
				"command-light": model("command-light", "Command Light", 0.0003),
			},
		},
		string(ProviderLlama): {
			ID:   string(ProviderLlama),
			Name: "Meta Llama",
			Kind: KindLocal,
			Env:  []string{},
			Models: map[string]ModelInfo{
				"llama-3.2-90b": model("llama-3.2-90b", "Llama 3.2 90B", 0.002),
				"llama-3.2-11b": model("llama-3.2-11b", "Llama 3.2 11B", 0.00035),
				"llama-3.2-3b":  model("llama-3.2-3b", "Llama 3.2 3B", 0.00015),
				"llama-3.2-1b":  model("llama-3.2-1b", "Llama 3.2 1B", 0.0001),
				"llama-3.1-70b": model("llama-3.1-70b", "Llama 3.1 70B", 0.00099),
				"llama-3.1-8b":  model("llama-3.1-8b", "Llama 3.1 8B", 0.00022),
				"llama-3-70b":   model("llama-3-70b", "Llama 3 70B", 0.00265),
				"llama-3-8b":    model("llama-3-8b", "Llama 3 8B", 0.0003),
			},
		},
		string(ProviderMistral): {
			ID:   string(ProviderMistral),
			Name: "Mistral",
			Kind: KindLocal,
			Env:  []string{},
			Models: map[string]ModelInfo{
				"mistral-large-2": model("mistral-large-2", "Mistral Large 2", 0.0004),
			},
		},
		string(ProviderOpenAI): {
			ID:   string(ProviderOpenAI),
			Name: "OpenAI",
			Kind: KindLocal,
			Env:  []string{},
			Models: map[string]ModelInfo{
				"gpt-4o":        model("gpt-4o", "GPT-4o", 0.0025),
				"gpt-4o-mini":   model("gpt-4o-mini", "GPT-4o mini", 0.00015),
				"gpt-4-turbo":   model("gpt-4-turbo", "GPT-4 Turbo", 0.01),
				"gpt-3.5-turbo": model("gpt-3.5-turbo", "GPT-3.5 Turbo", 0.0005),
			},
		},
		string(ProviderGoogle): {
			ID:   string(ProviderGoogle),
			Name: "Google",
			Kind: KindRemote,
			Env:  []string{"GOOGLE_API_KEY", "GEMINI_API_KEY"},
			Models: map[string]ModelInfo{
				"gemini-1.5-pro":   model("gemini-1.5-pro", "Gemini 1.5 Pro", 0.00125),
				"gemini-1.5-flash": model("gemini-1.5-flash", "Gemini 1.5 Flash", 0.000075),
				"gemini-2.0-flash": model("gemini-2.0-flash", "Gemini 2.0 Flash", 0.0001),
			},
		},
	}
}
