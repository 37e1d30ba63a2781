package mistral

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/eliben/go-sentencepiece"
	"github.com/mark3labs/tokencount/internal/tokens"
	"google.golang.org/protobuf/encoding/protowire"
)

type fakeProcessor map[string][]sentencepiece.Token

func (f fakeProcessor) Encode(text string) []sentencepiece.Token {
	return f[text]
}

func TestTokenizerEncode(t *testing.T) {
	tok := &Tokenizer{
		bosID: 1,
		sp: fakeProcessor{
			"Hello world": {
				{ID: 23325, Text: "▁Hello"},
				{ID: 2294, Text: "▁world"},
			},
		},
	}

	seq, err := tok.Encode(context.Background(), "Hello world", "mistral-large-2")
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	if seq.Strategy != tokens.StrategyReconstructed {
		t.Fatalf("Strategy = %v, want reconstructed", seq.Strategy)
	}
	if seq.Count != 5 {
		t.Errorf("Count = %d, want 5", seq.Count)
	}
	wantIDs := []int{1, 3, 23325, 2294, 4}
	for i, id := range seq.IDs() {
		if id != wantIDs[i] {
			t.Errorf("id[%d] = %d, want %d", i, id, wantIDs[i])
		}
	}
	if seq.Reconstructed != "▁Hello▁world" {
		t.Errorf("Reconstructed = %q", seq.Reconstructed)
	}
	if seq.Marker != Marker {
		t.Errorf("Marker = %q", seq.Marker)
	}

	frags, m := tokens.Reconcile(seq.Reconstructed, seq.Marker)
	if len(frags) != 2 || frags[0] != "Hello" || frags[1] != "world" {
		t.Errorf("fragments = %q", frags)
	}
	u := tokens.Unassigned
	want := tokens.CharMap{u, 0, 0, 0, 0, 0, u, 1, 1, 1, 1, 1}
	if len(m) != len(want) {
		t.Fatalf("len(map) = %d, want %d", len(m), len(want))
	}
	for i := range want {
		if m[i] != want[i] {
			t.Fatalf("map = %v, want %v", m, want)
		}
	}
}

func TestTokenizerEncodeEmpty(t *testing.T) {
	tok := &Tokenizer{bosID: 1, sp: fakeProcessor{}}

	seq, err := tok.Encode(context.Background(), "", "mistral-large-2")
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if seq.Count != 3 {
		t.Errorf("Count = %d, want 3", seq.Count)
	}
	if seq.Reconstructed != "" {
		t.Errorf("Reconstructed = %q, want empty", seq.Reconstructed)
	}
}

func TestReconstruct(t *testing.T) {
	if got := Reconstruct("<s>[INST]▁Hi[/INST]"); got != "▁Hi" {
		t.Errorf("Reconstruct() = %q", got)
	}
}

// Piece types from sentencepiece_model.proto.
const (
	pieceNormal  = 1
	pieceUnknown = 2
	pieceControl = 3
)

type testPiece struct {
	text  string
	score float32
	typ   uint64
}

// testVocab merges "▁Hello" and "▁world" through intermediate pieces, with
// the same ids as the first pieces of the v3 vocabulary for <unk> and <s>.
var testVocab = []testPiece{
	{"<unk>", 0, pieceUnknown},
	{"<s>", 0, pieceControl},
	{"</s>", 0, pieceControl},
	{"▁", 0, pieceNormal},
	{"H", 0, pieceNormal},
	{"e", 0, pieceNormal},
	{"l", 0, pieceNormal},
	{"o", 0, pieceNormal},
	{"w", 0, pieceNormal},
	{"r", 0, pieceNormal},
	{"d", 0, pieceNormal},
	{"ll", -1, pieceNormal},
	{"He", -2, pieceNormal},
	{"llo", -3, pieceNormal},
	{"Hello", -4, pieceNormal},
	{"▁Hello", -5, pieceNormal},
	{"▁w", -6, pieceNormal},
	{"or", -7, pieceNormal},
	{"▁wor", -8, pieceNormal},
	{"ld", -9, pieceNormal},
	{"▁world", -10, pieceNormal},
}

// buildModel serializes a BPE ModelProto over testVocab. A nil normalizer
// leaves the NormalizerSpec out entirely.
func buildModel(normalizer []byte) []byte {
	var b []byte
	for _, p := range testVocab {
		var sp []byte
		sp = protowire.AppendTag(sp, 1, protowire.BytesType)
		sp = protowire.AppendString(sp, p.text)
		sp = protowire.AppendTag(sp, 2, protowire.Fixed32Type)
		sp = protowire.AppendFixed32(sp, math.Float32bits(p.score))
		sp = protowire.AppendTag(sp, 3, protowire.VarintType)
		sp = protowire.AppendVarint(sp, p.typ)

		b = protowire.AppendTag(b, 1, protowire.BytesType)
		b = protowire.AppendBytes(b, sp)
	}

	var trainer []byte
	trainer = protowire.AppendTag(trainer, 3, protowire.VarintType)
	trainer = protowire.AppendVarint(trainer, 2) // BPE
	b = protowire.AppendTag(b, 2, protowire.BytesType)
	b = protowire.AppendBytes(b, trainer)

	if normalizer != nil {
		b = protowire.AppendTag(b, normalizerSpecField, protowire.BytesType)
		b = protowire.AppendBytes(b, normalizer)
	}
	return b
}

func normalizerSpec(addDummyPrefix, removeExtraWhitespaces bool) []byte {
	var b []byte
	b = protowire.AppendTag(b, 1, protowire.BytesType)
	b = protowire.AppendString(b, "identity")
	b = protowire.AppendTag(b, addDummyPrefixField, protowire.VarintType)
	b = protowire.AppendVarint(b, protowire.EncodeBool(addDummyPrefix))
	b = protowire.AppendTag(b, removeExtraSpaceField, protowire.VarintType)
	b = protowire.AppendVarint(b, protowire.EncodeBool(removeExtraWhitespaces))
	return b
}

func writeModel(t *testing.T, model []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), DefaultFile)
	if err := os.WriteFile(path, model, 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestNewFromFileNormalizer(t *testing.T) {
	tests := []struct {
		name  string
		model []byte
		text  string
		want  normalizerOptions
	}{
		{
			name:  "dummy prefix",
			model: buildModel(normalizerSpec(true, false)),
			text:  "Hello world",
			want:  normalizerOptions{addDummyPrefix: true},
		},
		{
			name:  "proto defaults",
			model: buildModel(nil),
			text:  "  Hello   world ",
			want:  normalizerOptions{addDummyPrefix: true, removeExtraWhitespaces: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tok, err := NewFromFile(writeModel(t, tt.model))
			if err != nil {
				t.Fatalf("NewFromFile() error = %v", err)
			}
			if tok.norm != tt.want {
				t.Errorf("normalizer = %+v, want %+v", tok.norm, tt.want)
			}

			seq, err := tok.Encode(context.Background(), tt.text, "mistral-large-2")
			if err != nil {
				t.Fatalf("Encode() error = %v", err)
			}
			wantIDs := []int{1, 3, 15, 20, 4}
			ids := seq.IDs()
			if len(ids) != len(wantIDs) {
				t.Fatalf("ids = %v, want %v", ids, wantIDs)
			}
			for i := range wantIDs {
				if ids[i] != wantIDs[i] {
					t.Fatalf("ids = %v, want %v", ids, wantIDs)
				}
			}
			if seq.Reconstructed != "▁Hello▁world" {
				t.Errorf("Reconstructed = %q", seq.Reconstructed)
			}
		})
	}
}

func TestNewFromFileWithoutDummyPrefix(t *testing.T) {
	tok, err := NewFromFile(writeModel(t, buildModel(normalizerSpec(false, false))))
	if err != nil {
		t.Fatalf("NewFromFile() error = %v", err)
	}

	seq, err := tok.Encode(context.Background(), "Hello", "mistral-large-2")
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	ids := seq.IDs()
	if len(ids) != 4 || ids[2] != 14 {
		t.Errorf("ids = %v, want [1 3 14 4]", ids)
	}

	seq, err = tok.Encode(context.Background(), "", "mistral-large-2")
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if seq.Count != 3 {
		t.Errorf("Count = %d, want 3 for empty text", seq.Count)
	}
}

func TestNewFromFileMalformed(t *testing.T) {
	if _, err := NewFromFile(writeModel(t, []byte{0x0a, 0xff})); err == nil {
		t.Error("expected an error for a truncated model")
	}
	if _, err := NewFromFile(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("expected an error for a missing file")
	}
}

func TestNormalizerOptionsApply(t *testing.T) {
	tests := []struct {
		opts normalizerOptions
		in   string
		want string
	}{
		{normalizerOptions{}, " a  b ", " a  b "},
		{normalizerOptions{addDummyPrefix: true}, "a b", " a b"},
		{normalizerOptions{addDummyPrefix: true}, "", ""},
		{normalizerOptions{removeExtraWhitespaces: true}, "  a   b  ", "a b"},
		{normalizerOptions{addDummyPrefix: true, removeExtraWhitespaces: true}, "   ", ""},
		{normalizerOptions{removeExtraWhitespaces: true}, "a\n b", "a\n b"},
	}
	for _, tt := range tests {
		if got := tt.opts.apply(tt.in); got != tt.want {
			t.Errorf("%+v.apply(%q) = %q, want %q", tt.opts, tt.in, got, tt.want)
		}
	}
}
