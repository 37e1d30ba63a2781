package cohere

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/mark3labs/tokencount/internal/tokens"
)

func TestNewNormalizer(t *testing.T) {
	tests := []struct {
		name string
		json string
		want Normalizer
	}{
		{
			name: "byte level decoder",
			json: `{"decoder":{"type":"ByteLevel"}}`,
			want: Normalizer{byteLevel: true},
		},
		{
			name: "metaspace decoder",
			json: `{"decoder":{"type":"Metaspace","replacement":"▁"}}`,
			want: Normalizer{metaspace: "▁"},
		},
		{
			name: "sequence with byte fallback",
			json: `{"decoder":{"type":"Sequence","decoders":[{"type":"Replace","pattern":{"String":"▁"},"content":" "},{"type":"ByteFallback"}]}}`,
			want: Normalizer{metaspace: "▁", byteFallback: true},
		},
		{
			name: "wordpiece decoder",
			json: `{"decoder":{"type":"WordPiece","prefix":"##"}}`,
			want: Normalizer{wordPiece: "##"},
		},
		{
			name: "pre tokenizer fallback",
			json: `{"decoder":null,"pre_tokenizer":{"type":"ByteLevel"}}`,
			want: Normalizer{byteLevel: true},
		},
		{
			name: "model byte fallback",
			json: `{"decoder":{"type":"Metaspace"},"model":{"byte_fallback":true}}`,
			want: Normalizer{metaspace: "▁", byteFallback: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewNormalizer([]byte(tt.json))
			if *got != tt.want {
				t.Errorf("NewNormalizer() = %+v, want %+v", *got, tt.want)
			}
		})
	}
}

func TestSurface(t *testing.T) {
	tests := []struct {
		name  string
		norm  Normalizer
		tok   string
		first bool
		want  string
	}{
		{"byte level space", Normalizer{byteLevel: true}, "Ġworld", false, " world"},
		{"byte level newline", Normalizer{byteLevel: true}, "Ċ", false, "\n"},
		{"byte level multibyte", Normalizer{byteLevel: true}, "Ã©", false, "é"},
		{"metaspace inner", Normalizer{metaspace: "▁"}, "▁world", false, " world"},
		{"metaspace first", Normalizer{metaspace: "▁"}, "▁Hello", true, "Hello"},
		{"wordpiece continuation", Normalizer{wordPiece: "##"}, "##ing", false, "ing"},
		{"byte fallback", Normalizer{metaspace: "▁", byteFallback: true}, "<0x0A>", false, "\n"},
		{"no decoder", Normalizer{}, "abc", false, "abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.norm.Surface(tt.tok, tt.first); got != tt.want {
				t.Errorf("Surface(%q) = %q, want %q", tt.tok, got, tt.want)
			}
		})
	}
}

func TestTokenizerEncode(t *testing.T) {
	tok := &Tokenizer{
		norm: &Normalizer{metaspace: "▁"},
		encode: func(text string) ([]int, []string, error) {
			return []int{35378, 8999}, []string{"▁Hello", "▁world"}, nil
		},
	}

	seq, err := tok.Encode(context.Background(), "Hello world", "command-r")
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if got := strings.Join(seq.Surfaces(), ""); got != "Hello world" {
		t.Errorf("joined surfaces = %q, want %q", got, "Hello world")
	}
	m := tokens.Tile("Hello world", seq.Surfaces())
	want := tokens.CharMap{0, 0, 0, 0, 0, 1, 1, 1, 1, 1, 1}
	for i := range want {
		if m[i] != want[i] {
			t.Fatalf("Tile() = %v, want %v", m, want)
		}
	}
}

func TestTokenizerEncodeErrors(t *testing.T) {
	failing := &Tokenizer{
		norm: &Normalizer{},
		encode: func(string) ([]int, []string, error) {
			return nil, nil, errors.New("boom")
		},
	}
	if _, err := failing.Encode(context.Background(), "x", "command-r"); err == nil {
		t.Error("expected encode error to surface")
	}

	mismatched := &Tokenizer{
		norm: &Normalizer{},
		encode: func(string) ([]int, []string, error) {
			return []int{1, 2}, []string{"x"}, nil
		},
	}
	if _, err := mismatched.Encode(context.Background(), "x", "command-r"); err == nil {
		t.Error("expected an error for mismatched ids and tokens")
	}
}

func TestNewFromFile(t *testing.T) {
	tests := []struct {
		name     string
		file     string
		surfaces []string
		ids      []int
	}{
		{
			name:     "byte level BPE",
			file:     "tokenizer.json",
			surfaces: []string{"Hello", " world"},
			ids:      []int{11, 16},
		},
		{
			name:     "metaspace BPE",
			file:     "tokenizer_metaspace.json",
			surfaces: []string{"Hello", " world"},
			ids:      []int{12, 17},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tok, err := NewFromFile(filepath.Join("testdata", tt.file))
			if err != nil {
				t.Fatalf("NewFromFile() error = %v", err)
			}

			seq, err := tok.Encode(context.Background(), "Hello world", "command-r")
			if err != nil {
				t.Fatalf("Encode() error = %v", err)
			}
			if got := seq.Surfaces(); !reflect.DeepEqual(got, tt.surfaces) {
				t.Errorf("surfaces = %q, want %q", got, tt.surfaces)
			}
			if got := seq.IDs(); !reflect.DeepEqual(got, tt.ids) {
				t.Errorf("ids = %v, want %v", got, tt.ids)
			}
			m := tokens.Tile("Hello world", seq.Surfaces())
			want := tokens.CharMap{0, 0, 0, 0, 0, 1, 1, 1, 1, 1, 1}
			if !reflect.DeepEqual(m, want) {
				t.Errorf("Tile() = %v, want %v", m, want)
			}
		})
	}
}

func TestNewFromFileMissing(t *testing.T) {
	if _, err := NewFromFile(filepath.Join(t.TempDir(), TokenizerFile)); err == nil {
		t.Error("expected an error for a missing file")
	}
}
