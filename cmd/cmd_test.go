package cmd

import (
	"context"
	"errors"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/mark3labs/tokencount/internal/config"
	"github.com/mark3labs/tokencount/internal/counter"
	"github.com/mark3labs/tokencount/internal/models"
	"github.com/mark3labs/tokencount/internal/tokens"
)

// wordTokenizer emits one token per byte pair, so "Hello world" tiles into
// six tokens.
type wordTokenizer struct{}

func (wordTokenizer) Encode(_ context.Context, text, _ string) (*tokens.Sequence, error) {
	var toks []tokens.Token
	for i := 0; i < len(text); i += 2 {
		end := min(i+2, len(text))
		toks = append(toks, tokens.Token{ID: i, Text: text[i:end]})
	}
	return tokens.NewTiledSequence(toks), nil
}

func newTestCounter(t *testing.T) *counter.Counter {
	t.Helper()
	reg := counter.NewRegistry(func(_ context.Context, p models.Provider) (tokens.Tokenizer, error) {
		if p == models.ProviderAnthropic {
			return nil, errors.New("missing API key")
		}
		return wordTokenizer{}, nil
	})
	return counter.New(reg, nil, nil)
}

// useTestCounter replaces buildCounter for the duration of the test and
// isolates the command from any config file in the user's home.
func useTestCounter(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	prev := buildCounter
	buildCounter = func(*config.Settings, *log.Logger) (*counter.Counter, error) {
		return newTestCounter(t), nil
	}
	t.Cleanup(func() { buildCounter = prev })
}
