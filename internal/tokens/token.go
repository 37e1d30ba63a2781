package tokens

import "context"

// Token is a single unit of a tokenizer's vocabulary. ID is specific to the
// provider's vocabulary and Text is the human-readable surface form, which may
// still contain tokenizer marker characters.
type Token struct {
	ID   int
	Text string
}

// Strategy selects how the characters of a text are attributed to tokens.
type Strategy int

const (
	// StrategyNone is used when the tokenizer only reports a count.
	StrategyNone Strategy = iota
	// StrategyTiling is used when token surfaces concatenate to the input text.
	StrategyTiling
	// StrategyReconstructed is used when only a marker-delimited debug string
	// of the tokenization is available.
	StrategyReconstructed
)

// String returns the strategy name used in logs.
func (s Strategy) String() string {
	switch s {
	case StrategyTiling:
		return "tiling"
	case StrategyReconstructed:
		return "reconstructed"
	default:
		return "none"
	}
}

// Sequence is the ordered result of encoding one text with one provider.
type Sequence struct {
	// Tokens holds the encoded tokens in text order. It is empty for
	// tokenizers that only expose a count.
	Tokens []Token
	// Count is the number of tokens the provider charges for.
	Count int
	// Strategy tells the alignment engine how to map characters to tokens.
	Strategy Strategy
	// Reconstructed is the tokenizer's debug rendering of the text, with
	// control markers already stripped. Only used by StrategyReconstructed.
	Reconstructed string
	// Marker is the word-boundary symbol used in Reconstructed.
	Marker string
}

// NewTiledSequence builds a sequence whose token surfaces tile the input text.
func NewTiledSequence(toks []Token) *Sequence {
	return &Sequence{Tokens: toks, Count: len(toks), Strategy: StrategyTiling}
}

// NewReconstructedSequence builds a sequence aligned through a reconstructed
// debug string and its boundary marker.
func NewReconstructedSequence(toks []Token, reconstructed, marker string) *Sequence {
	return &Sequence{
		Tokens:        toks,
		Count:         len(toks),
		Strategy:      StrategyReconstructed,
		Reconstructed: reconstructed,
		Marker:        marker,
	}
}

// NewCountOnlySequence builds a sequence for tokenizers that only return a
// token count, such as hosted counting endpoints.
func NewCountOnlySequence(count int) *Sequence {
	return &Sequence{Count: count, Strategy: StrategyNone}
}

// IDs returns the token ids in order. The result is never nil.
func (s *Sequence) IDs() []int {
	ids := make([]int, len(s.Tokens))
	for i, t := range s.Tokens {
		ids[i] = t.ID
	}
	return ids
}

// Surfaces returns the token surface texts in order. The result is never nil.
func (s *Sequence) Surfaces() []string {
	texts := make([]string, len(s.Tokens))
	for i, t := range s.Tokens {
		texts[i] = t.Text
	}
	return texts
}

// Tokenizer is the capability every provider adapter implements. Encode must
// not mutate the receiver, so a single instance can serve concurrent callers.
type Tokenizer interface {
	Encode(ctx context.Context, text, model string) (*Sequence, error)
}
