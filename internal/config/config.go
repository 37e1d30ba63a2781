package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment variables that override settings,
// e.g. TOKENCOUNT_PRICING_FILE. Credentials are not settings: they are read
// from their provider-specific variables only.
const EnvPrefix = "TOKENCOUNT"

// Setting keys.
const (
	KeyAnthropicBaseURL      = "anthropic-base-url"
	KeyAnthropicCountModel   = "anthropic-count-model"
	KeyAnthropicSystemPrompt = "anthropic-system-prompt"
	KeyGoogleBaseURL         = "google-base-url"
	KeyHubCacheDir           = "hub-cache-dir"
	KeyHubLocalDir           = "hub-local-dir"
	KeyCohereRepo            = "cohere-repo"
	KeyLlamaRepo             = "llama-repo"
	KeyMistralRepo           = "mistral-repo"
	KeyMistralFile           = "mistral-file"
	KeyPricingFile           = "pricing-file"
	KeyTLSSkipVerify         = "tls-skip-verify"
	KeyAddr                  = "addr"
	KeyDebug                 = "debug"
)

// Settings is the resolved, non-secret configuration of a process.
type Settings struct {
	AnthropicBaseURL      string
	AnthropicCountModel   string
	AnthropicSystemPrompt string
	GoogleBaseURL         string
	HubCacheDir           string
	// HubLocalDir, when set, serves tokenizer files from <dir>/<repo>/<file>
	// instead of downloading them.
	HubLocalDir   string
	CohereRepo    string
	LlamaRepo     string
	MistralRepo   string
	MistralFile   string
	PricingFile   string
	TLSSkipVerify bool
	Addr          string
	Debug         bool
}

// SetDefaults registers default values and environment bindings on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyAnthropicCountModel, "claude-3-5-sonnet-20241022")
	v.SetDefault(KeyAnthropicSystemPrompt, "You are a helpful assistant")
	v.SetDefault(KeyAddr, ":8080")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
}

// LoadConfigWithEnvSubstitution reads a config file into v after replacing
// ${env://VAR} references. An empty path searches $HOME/.tokencount.{yml,yaml,json}
// and silently continues when none exists.
func LoadConfigWithEnvSubstitution(v *viper.Viper, configFile string) error {
	path := configFile
	if path == "" {
		path = findDefaultConfig()
		if path == "" {
			return nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	content := string(data)
	if HasEnvVars(content) {
		substituter := &EnvSubstituter{}
		if content, err = substituter.SubstituteEnvVars(content); err != nil {
			return fmt.Errorf("config file %s: %w", path, err)
		}
	}

	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "yml" {
		ext = "yaml"
	}
	if ext == "" {
		return errors.New("config file must have a .yml, .yaml or .json extension")
	}
	v.SetConfigType(ext)
	if err := v.ReadConfig(bytes.NewReader([]byte(content))); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func findDefaultConfig() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	for _, name := range []string{".tokencount.yml", ".tokencount.yaml", ".tokencount.json"} {
		path := filepath.Join(home, name)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// FromViper resolves Settings from v.
func FromViper(v *viper.Viper) *Settings {
	return &Settings{
		AnthropicBaseURL:      v.GetString(KeyAnthropicBaseURL),
		AnthropicCountModel:   v.GetString(KeyAnthropicCountModel),
		AnthropicSystemPrompt: v.GetString(KeyAnthropicSystemPrompt),
		GoogleBaseURL:         v.GetString(KeyGoogleBaseURL),
		HubCacheDir:           v.GetString(KeyHubCacheDir),
		HubLocalDir:           v.GetString(KeyHubLocalDir),
		CohereRepo:            v.GetString(KeyCohereRepo),
		LlamaRepo:             v.GetString(KeyLlamaRepo),
		MistralRepo:           v.GetString(KeyMistralRepo),
		MistralFile:           v.GetString(KeyMistralFile),
		PricingFile:           v.GetString(KeyPricingFile),
		TLSSkipVerify:         v.GetBool(KeyTLSSkipVerify),
		Addr:                  v.GetString(KeyAddr),
		Debug:                 v.GetBool(KeyDebug),
	}
}
