// Package mistral tokenizes text as a single-turn Mistral chat request using
// the v3 SentencePiece vocabulary.
package mistral

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/eliben/go-sentencepiece"
	"github.com/mark3labs/tokencount/internal/tokens"
)

const (
	// DefaultRepo is the Hub repository holding the tokenizer.
	DefaultRepo = "mistralai/Mistral-7B-Instruct-v0.3"
	// DefaultFile is the v3 SentencePiece model inside DefaultRepo.
	DefaultFile = "tokenizer.model.v3"

	// Marker is SentencePiece's word boundary symbol.
	Marker = "▁"

	bosPiece     = "<s>"
	instPiece    = "[INST]"
	endInstPiece = "[/INST]"
	defaultBOSID = 1
	instID       = 3
	endInstID    = 4
)

var controlPieces = strings.NewReplacer(bosPiece, "", instPiece, "", endInstPiece, "")

// pieceEncoder is the part of a SentencePiece processor used here.
type pieceEncoder interface {
	Encode(text string) []sentencepiece.Token
}

// Tokenizer wraps the user text in [INST] markers the way Mistral's chat
// template does, and reports every token of the request.
type Tokenizer struct {
	sp    pieceEncoder
	bosID int
	norm  normalizerOptions
}

// NewFromFile loads a SentencePiece model file. The processor only encodes
// models whose normalizer neither adds a dummy prefix nor folds whitespace,
// so those flags are switched off in the loaded copy and applied here.
func NewFromFile(path string) (*Tokenizer, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load mistral tokenizer: %w", err)
	}
	model, norm, err := stripNormalizer(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to load mistral tokenizer: malformed model %s: %w", path, err)
	}
	proc, err := sentencepiece.NewProcessor(bytes.NewReader(model))
	if err != nil {
		return nil, fmt.Errorf("failed to load mistral tokenizer: %w", err)
	}
	bos := defaultBOSID
	if info := proc.ModelInfo(); info != nil && info.BeginningOfSentenceID >= 0 {
		bos = info.BeginningOfSentenceID
	}
	return &Tokenizer{sp: proc, bosID: bos, norm: norm}, nil
}

// Encode implements tokens.Tokenizer. The sequence carries the reconstructed
// debug string with control markers removed, for marker-based alignment.
func (t *Tokenizer) Encode(ctx context.Context, text, _ string) (*tokens.Sequence, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var pieces []sentencepiece.Token
	if normalized := t.norm.apply(text); normalized != "" {
		pieces = t.sp.Encode(normalized)
	}
	toks := make([]tokens.Token, 0, len(pieces)+3)
	toks = append(toks,
		tokens.Token{ID: t.bosID, Text: bosPiece},
		tokens.Token{ID: instID, Text: instPiece},
	)
	for _, p := range pieces {
		toks = append(toks, tokens.Token{ID: p.ID, Text: p.Text})
	}
	toks = append(toks, tokens.Token{ID: endInstID, Text: endInstPiece})

	var debug strings.Builder
	for _, tok := range toks {
		debug.WriteString(tok.Text)
	}

	return tokens.NewReconstructedSequence(toks, Reconstruct(debug.String()), Marker), nil
}

// Reconstruct strips the control markers from a debug rendering.
func Reconstruct(debug string) string {
	return controlPieces.Replace(debug)
}
