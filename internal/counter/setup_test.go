package counter

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/mark3labs/tokencount/internal/config"
)

func TestNewFromSettingsAppliesPricing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prices.yml")
	if err := os.WriteFile(path, []byte("providers:\n  openai:\n    gpt-4o: 0.005\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	c, err := NewFromSettings(&config.Settings{PricingFile: path}, nil)
	if err != nil {
		t.Fatalf("NewFromSettings() error = %v", err)
	}
	if got := c.Pricing().Price("openai", "gpt-4o", 1000); got != 0.005 {
		t.Errorf("Price = %v, want 0.005", got)
	}
}

func TestNewFromSettingsBadPricingFile(t *testing.T) {
	if _, err := NewFromSettings(&config.Settings{PricingFile: filepath.Join(t.TempDir(), "missing.yml")}, nil); err == nil {
		t.Error("expected an error for a missing pricing file")
	}
}

func TestNewFromSettingsMissingCredentials(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")

	c, err := NewFromSettings(&config.Settings{}, nil)
	if err != nil {
		t.Fatal(err)
	}
	res := c.Count(context.Background(), Request{Text: "Hi", Provider: "anthropic", Model: "claude-3-opus"})
	if res.Success {
		t.Fatal("expected failure without credentials")
	}
	if res.Error == "" {
		t.Error("expected an error message")
	}
}
