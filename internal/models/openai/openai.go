// Package openai tokenizes text locally with the tiktoken encodings used by
// OpenAI models.
package openai

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/mark3labs/tokencount/internal/tokens"
	"github.com/pkoukk/tiktoken-go"
)

// DefaultEncoding is used for models without a known encoding.
const DefaultEncoding = "cl100k_base"

// modelEncodings maps model names, and model name prefixes, to encodings.
var modelEncodings = map[string]string{
	"gpt-4o":        "o200k_base",
	"gpt-4o-mini":   "o200k_base",
	"o1":            "o200k_base",
	"o3":            "o200k_base",
	"gpt-4-turbo":   "cl100k_base",
	"gpt-4":         "cl100k_base",
	"gpt-3.5-turbo": "cl100k_base",
}

// EncodingFor returns the tiktoken encoding name for a model. Exact names win
// over the longest matching prefix; unknown models fall back to
// DefaultEncoding.
func EncodingFor(model string) string {
	if enc, ok := modelEncodings[model]; ok {
		return enc
	}
	best := ""
	for prefix := range modelEncodings {
		if strings.HasPrefix(model, prefix) && len(prefix) > len(best) {
			best = prefix
		}
	}
	if best != "" {
		return modelEncodings[best]
	}
	return DefaultEncoding
}

// Loader returns a tiktoken encoding by name.
type Loader func(encoding string) (*tiktoken.Tiktoken, error)

// Tokenizer encodes text with the encoding of the requested model. Encodings
// are loaded on first use and shared by all models using them.
type Tokenizer struct {
	load Loader

	mu        sync.RWMutex
	encodings map[string]*tiktoken.Tiktoken
}

// New creates a Tokenizer. A nil loader uses tiktoken.GetEncoding, which
// downloads the BPE ranks on first use unless they are cached.
func New(load Loader) *Tokenizer {
	if load == nil {
		load = tiktoken.GetEncoding
	}
	return &Tokenizer{
		load:      load,
		encodings: make(map[string]*tiktoken.Tiktoken),
	}
}

func (t *Tokenizer) encoding(name string) (*tiktoken.Tiktoken, error) {
	t.mu.RLock()
	enc, ok := t.encodings[name]
	t.mu.RUnlock()
	if ok {
		return enc, nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if enc, ok := t.encodings[name]; ok {
		return enc, nil
	}
	enc, err := t.load(name)
	if err != nil {
		return nil, fmt.Errorf("failed to load tiktoken encoding %s: %w", name, err)
	}
	t.encodings[name] = enc
	return enc, nil
}

// Encode implements tokens.Tokenizer.
func (t *Tokenizer) Encode(ctx context.Context, text, model string) (*tokens.Sequence, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	enc, err := t.encoding(EncodingFor(model))
	if err != nil {
		return nil, err
	}
	return EncodeWith(enc, text), nil
}

// EncodeWith encodes text with enc and decodes every id on its own, so the
// surfaces hold the exact bytes of each token. Special tokens are encoded as
// ordinary text.
func EncodeWith(enc *tiktoken.Tiktoken, text string) *tokens.Sequence {
	ids := enc.Encode(text, nil, nil)
	toks := make([]tokens.Token, len(ids))
	for i, id := range ids {
		toks[i] = tokens.Token{ID: id, Text: enc.Decode([]int{id})}
	}
	return tokens.NewTiledSequence(toks)
}
