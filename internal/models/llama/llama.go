// Package llama tokenizes text with the Llama 3 BPE vocabulary. The vocabulary
// is the tiktoken rank file published with the Meta-Llama-3 checkpoints.
package llama

import (
	"context"
	"fmt"

	"github.com/mark3labs/tokencount/internal/models/openai"
	"github.com/mark3labs/tokencount/internal/tokens"
	"github.com/pkoukk/tiktoken-go"
)

const (
	// DefaultRepo is the Hub repository holding the tokenizer.
	DefaultRepo = "meta-llama/Meta-Llama-3-8B"
	// RankFile is the path of the rank file inside DefaultRepo.
	RankFile = "original/tokenizer.model"

	// Pattern is the pre-tokenization regular expression of Llama 3.
	Pattern = `(?i:'s|'t|'re|'ve|'m|'ll|'d)|[^\r\n\p{L}\p{N}]?\p{L}+|\p{N}{1,3}| ?[^\s\p{L}\p{N}]+[\r\n]*|\s*[\r\n]+|\s+(?!\S)|\s+`

	numSpecialTokens = 256
)

// specialTokens lists the Llama 3 control tokens in id order after the
// mergeable ranks.
func specialTokens(base int) map[string]int {
	names := []string{
		"<|begin_of_text|>",
		"<|end_of_text|>",
		"<|reserved_special_token_0|>",
		"<|reserved_special_token_1|>",
		"<|reserved_special_token_2|>",
		"<|reserved_special_token_3|>",
		"<|start_header_id|>",
		"<|end_header_id|>",
		"<|reserved_special_token_4|>",
		"<|eot_id|>",
	}
	for i := 5; len(names) < numSpecialTokens; i++ {
		names = append(names, fmt.Sprintf("<|reserved_special_token_%d|>", i))
	}

	special := make(map[string]int, len(names))
	for i, name := range names {
		special[name] = base + i
	}
	return special
}

// NewEncoding builds a tiktoken encoding from mergeable ranks using the
// Llama 3 pattern and special tokens.
func NewEncoding(ranks map[string]int) (*tiktoken.Tiktoken, error) {
	special := specialTokens(len(ranks))
	bpe, err := tiktoken.NewCoreBPE(ranks, special, Pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to build llama BPE: %w", err)
	}

	specialSet := make(map[string]any, len(special))
	for name := range special {
		specialSet[name] = true
	}
	return tiktoken.NewTiktoken(bpe, &tiktoken.Encoding{
		Name:           "llama3",
		PatStr:         Pattern,
		MergeableRanks: ranks,
		SpecialTokens:  special,
	}, specialSet), nil
}

// Tokenizer encodes text with a loaded Llama 3 vocabulary. No begin-of-text
// token is added.
type Tokenizer struct {
	enc *tiktoken.Tiktoken
}

// NewFromFile loads the rank file at path: one "<base64 token> <rank>" pair
// per line, the format tiktoken publishes its own encodings in.
func NewFromFile(path string) (*Tokenizer, error) {
	ranks, err := tiktoken.NewDefaultBpeLoader().LoadTiktokenBpe(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load llama tokenizer: %w", err)
	}
	if len(ranks) == 0 {
		return nil, fmt.Errorf("failed to load llama tokenizer: %s has no ranks", path)
	}
	enc, err := NewEncoding(ranks)
	if err != nil {
		return nil, err
	}
	return &Tokenizer{enc: enc}, nil
}

// Encode implements tokens.Tokenizer. Every Llama model shares one vocabulary,
// so model is ignored.
func (t *Tokenizer) Encode(ctx context.Context, text, _ string) (*tokens.Sequence, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return openai.EncodeWith(t.enc, text), nil
}
