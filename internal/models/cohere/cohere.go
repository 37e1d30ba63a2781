// Package cohere tokenizes text with the Hugging Face tokenizer published for
// Cohere's multilingual models.
package cohere

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/mark3labs/tokencount/internal/tokens"
	"github.com/sugarme/tokenizer/pretrained"
	"github.com/tidwall/gjson"
)

const (
	// DefaultRepo is the Hub repository holding the tokenizer.
	DefaultRepo = "Cohere/multilingual-22-12"
	// TokenizerFile is the tokenizer definition inside DefaultRepo.
	TokenizerFile = "tokenizer.json"
)

// encodeFunc returns the ids and raw vocabulary strings of text, without
// special tokens.
type encodeFunc func(text string) ([]int, []string, error)

// Tokenizer encodes text and turns vocabulary strings into the exact text
// fragments they cover.
type Tokenizer struct {
	encode encodeFunc
	norm   *Normalizer
}

// NewFromFile loads a tokenizer.json file.
func NewFromFile(path string) (*Tokenizer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read cohere tokenizer: %w", err)
	}
	tk, err := pretrained.FromFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load cohere tokenizer: %w", err)
	}

	encode := func(text string) ([]int, []string, error) {
		en, err := tk.EncodeSingle(text, false)
		if err != nil {
			return nil, nil, err
		}
		return en.Ids, en.Tokens, nil
	}
	return &Tokenizer{encode: encode, norm: NewNormalizer(data)}, nil
}

// Encode implements tokens.Tokenizer. All Cohere models share the vocabulary.
func (t *Tokenizer) Encode(ctx context.Context, text, _ string) (*tokens.Sequence, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ids, raw, err := t.encode(text)
	if err != nil {
		return nil, fmt.Errorf("cohere encode failed: %w", err)
	}
	if len(ids) != len(raw) {
		return nil, fmt.Errorf("cohere encode returned %d ids for %d tokens", len(ids), len(raw))
	}

	startsWithSpace := strings.HasPrefix(text, " ")
	toks := make([]tokens.Token, len(ids))
	for i, id := range ids {
		toks[i] = tokens.Token{ID: id, Text: t.norm.Surface(raw[i], i == 0 && !startsWithSpace)}
	}
	return tokens.NewTiledSequence(toks), nil
}

// Normalizer converts vocabulary strings to the text they decode to, based on
// the decoder declared in tokenizer.json.
type Normalizer struct {
	byteLevel    bool
	byteFallback bool
	metaspace    string
	wordPiece    string
}

// NewNormalizer inspects the decoder section of a tokenizer.json document.
// Unknown decoders leave vocabulary strings unchanged.
func NewNormalizer(tokenizerJSON []byte) *Normalizer {
	n := &Normalizer{}
	decoder := gjson.GetBytes(tokenizerJSON, "decoder")
	if decoder.Get("type").String() == "Sequence" {
		decoder.Get("decoders").ForEach(func(_, d gjson.Result) bool {
			n.apply(d)
			return true
		})
	} else {
		n.apply(decoder)
	}

	if !n.byteLevel && n.metaspace == "" && n.wordPiece == "" {
		// Some files omit the decoder; the pre-tokenizer tells the same story.
		pre := gjson.GetBytes(tokenizerJSON, "pre_tokenizer")
		switch pre.Get("type").String() {
		case "ByteLevel":
			n.byteLevel = true
		case "Metaspace":
			n.metaspace = stringOr(pre.Get("replacement"), "▁")
		}
	}
	if gjson.GetBytes(tokenizerJSON, "model.byte_fallback").Bool() {
		n.byteFallback = true
	}
	return n
}

func (n *Normalizer) apply(d gjson.Result) {
	switch d.Get("type").String() {
	case "ByteLevel":
		n.byteLevel = true
	case "Metaspace":
		n.metaspace = stringOr(d.Get("replacement"), "▁")
	case "Replace":
		if d.Get("pattern.String").String() == "▁" && d.Get("content").String() == " " {
			n.metaspace = "▁"
		}
	case "WordPiece":
		n.wordPiece = stringOr(d.Get("prefix"), "##")
	case "ByteFallback":
		n.byteFallback = true
	}
}

func stringOr(r gjson.Result, def string) string {
	if r.Exists() && r.String() != "" {
		return r.String()
	}
	return def
}

// Surface returns the text fragment a vocabulary string stands for. first
// marks the first token of a text that does not begin with a space, whose
// prefix space is synthetic in Metaspace vocabularies.
func (n *Normalizer) Surface(tok string, first bool) string {
	if n.byteFallback {
		if b, ok := fallbackByte(tok); ok {
			return string([]byte{b})
		}
	}
	switch {
	case n.byteLevel:
		return decodeByteLevel(tok)
	case n.metaspace != "":
		s := strings.ReplaceAll(tok, n.metaspace, " ")
		if first {
			s = strings.TrimPrefix(s, " ")
		}
		return s
	case n.wordPiece != "":
		return strings.TrimPrefix(tok, n.wordPiece)
	}
	return tok
}

// fallbackByte parses byte-fallback tokens of the form <0xAB>.
func fallbackByte(tok string) (byte, bool) {
	if len(tok) != 6 || !strings.HasPrefix(tok, "<0x") || tok[5] != '>' {
		return 0, false
	}
	v, err := strconv.ParseUint(tok[3:5], 16, 8)
	if err != nil {
		return 0, false
	}
	return byte(v), true
}

// byteDecoder inverts the GPT-2 mapping of bytes to printable runes.
var byteDecoder = func() map[rune]byte {
	m := make(map[rune]byte, 256)
	n := 0
	for b := 0; b < 256; b++ {
		printable := (b >= '!' && b <= '~') || (b >= 0xA1 && b <= 0xAC) || (b >= 0xAE && b <= 0xFF)
		if printable {
			m[rune(b)] = byte(b)
			continue
		}
		m[rune(256+n)] = byte(b)
		n++
	}
	return m
}()

func decodeByteLevel(tok string) string {
	out := make([]byte, 0, len(tok))
	for _, r := range tok {
		if b, ok := byteDecoder[r]; ok {
			out = append(out, b)
			continue
		}
		out = utf8.AppendRune(out, r)
	}
	return string(out)
}
