package models

import (
	"fmt"
	"math"
	"os"

	"github.com/mark3labs/tokencount/internal/config"
	"gopkg.in/yaml.v3"
)

// pricePrecision is the number of decimal places prices are rounded to.
const pricePrecision = 1e6

// RoundPrice rounds a USD amount to 6 decimal places, half away from zero.
func RoundPrice(v float64) float64 {
	return math.Round(v*pricePrecision) / pricePrecision
}

// Rate returns the price per 1,000 tokens of a model, if it is catalogued.
func (r *ModelsRegistry) Rate(provider, model string) (float64, bool) {
	providerInfo, ok := r.providers[provider]
	if !ok {
		return 0, false
	}
	modelInfo, ok := providerInfo.Models[model]
	if !ok {
		return 0, false
	}
	return modelInfo.Cost.Input, true
}

// Price computes round((tokenCount/1000) * rate, 6). Unknown providers or
// models cost 0 so that unpriced models never fail a request.
func (r *ModelsRegistry) Price(provider, model string, tokenCount int) float64 {
	rate, ok := r.Rate(provider, model)
	if !ok || tokenCount <= 0 {
		return 0
	}
	return RoundPrice(float64(tokenCount) / 1000 * rate)
}

// PricingFile is the YAML layout of a pricing overlay:
//
//	providers:
//	  llama:
//	    llama-3.3-70b: 0.00059
//	  anthropic:
//	    claude-3-opus: ${env://OPUS_PRICE:-0.015}
type PricingFile struct {
	Providers map[string]map[string]float64 `yaml:"providers"`
}

// LoadPricingFile reads a pricing overlay. ${env://VAR} and
// ${env://VAR:-default} references are substituted before parsing.
func LoadPricingFile(path string) (*PricingFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read pricing file: %w", err)
	}

	content := string(data)
	if config.HasEnvVars(content) {
		substituter := &config.EnvSubstituter{}
		content, err = substituter.SubstituteEnvVars(content)
		if err != nil {
			return nil, fmt.Errorf("pricing file %s: %w", path, err)
		}
	}

	var file PricingFile
	if err := yaml.Unmarshal([]byte(content), &file); err != nil {
		return nil, fmt.Errorf("failed to parse pricing file %s: %w", path, err)
	}
	return &file, nil
}

// WithPricing returns a copy of the registry with the overlay's prices added
// or replaced. Overlays may only name known providers, and prices must not be
// negative.
func (r *ModelsRegistry) WithPricing(file *PricingFile) (*ModelsRegistry, error) {
	out := &ModelsRegistry{providers: make(map[string]ProviderInfo, len(r.providers))}
	for id, info := range r.providers {
		models := make(map[string]ModelInfo, len(info.Models))
		for modelID, m := range info.Models {
			models[modelID] = m
		}
		info.Models = models
		out.providers[id] = info
	}
	if file == nil {
		return out, nil
	}

	for providerID, prices := range file.Providers {
		info, ok := out.providers[providerID]
		if !ok {
			return nil, fmt.Errorf("pricing file: %w: %s", ErrUnsupportedProvider, providerID)
		}
		for modelID, price := range prices {
			if price < 0 || math.IsNaN(price) || math.IsInf(price, 0) {
				return nil, fmt.Errorf("pricing file: invalid price %v for %s/%s", price, providerID, modelID)
			}
			m, exists := info.Models[modelID]
			if !exists {
				m = ModelInfo{ID: modelID, Name: modelID}
			}
			m.Cost.Input = price
			info.Models[modelID] = m
		}
	}
	return out, nil
}
