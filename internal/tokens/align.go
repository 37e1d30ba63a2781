package tokens

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Tile aligns text with token surfaces that concatenate back to it.
//
// The walk keeps a byte cursor into text. Each surface must match the text at
// the cursor; the bytes it covers are owned by that token and the cursor
// advances by the surface length. Surfaces are compared as bytes, so a
// byte-level token holding half of a multi-byte character still tiles, and a
// character is owned by the token holding its first byte.
//
// Whitespace in text that no surface covers (tokenizers that drop spaces
// between words) is skipped and left Unassigned. Any other mismatch, a cursor
// overrun, or a missing token list for a non-empty text makes the whole map
// Unassigned.
func Tile(text string, surfaces []string) CharMap {
	n := utf8.RuneCountInString(text)
	if n == 0 || len(surfaces) == 0 {
		return NewCharMap(n)
	}

	owner := make([]int, len(text))
	for i := range owner {
		owner[i] = Unassigned
	}

	cursor := 0
	for idx, surface := range surfaces {
		if surface == "" {
			continue
		}
		for !strings.HasPrefix(text[cursor:], surface) {
			if !skipSpace(text, &cursor) {
				return NewCharMap(n)
			}
		}
		for b := cursor; b < cursor+len(surface); b++ {
			owner[b] = idx
		}
		cursor += len(surface)
	}
	for cursor < len(text) {
		if !skipSpace(text, &cursor) {
			return NewCharMap(n)
		}
	}

	m := make(CharMap, 0, n)
	for b := range text {
		m = append(m, owner[b])
	}
	return m
}

// skipSpace advances cursor past one whitespace character. It reports false
// when the cursor is at the end of text or not on whitespace.
func skipSpace(text string, cursor *int) bool {
	if *cursor >= len(text) {
		return false
	}
	r, size := utf8.DecodeRuneInString(text[*cursor:])
	if r == utf8.RuneError || !unicode.IsSpace(r) {
		return false
	}
	*cursor += size
	return true
}

// Reconcile aligns a reconstructed tokenizer string that does not reproduce
// the input text exactly. It returns the surface fragments (the reconstructed
// string split on marker, empty pieces dropped) and a map from every character
// of reconstructed to a fragment index.
//
// Marker characters are Unassigned. Every other character is attributed to
// the first fragment that is a prefix of the string at that position; when no
// fragment matches, the previously matched index is kept. The scan advances
// one character at a time, so a fragment keeps owning characters until
// another fragment matches.
func Reconcile(reconstructed, marker string) ([]string, CharMap) {
	fragments := SplitFragments(reconstructed, marker)
	n := utf8.RuneCountInString(reconstructed)
	if len(fragments) == 0 {
		return fragments, NewCharMap(n)
	}

	m := make(CharMap, 0, n)
	current := 0
	for i := 0; i < len(reconstructed); {
		rest := reconstructed[i:]
		_, size := utf8.DecodeRuneInString(rest)
		if marker != "" && strings.HasPrefix(rest, marker) {
			m = append(m, Unassigned)
			i += size
			continue
		}
		for idx, fragment := range fragments {
			if strings.HasPrefix(rest, fragment) {
				current = idx
				break
			}
		}
		m = append(m, current)
		i += size
	}
	return fragments, m
}

// SplitFragments splits s on marker and drops empty pieces. The result is
// never nil.
func SplitFragments(s, marker string) []string {
	if marker == "" {
		if s == "" {
			return []string{}
		}
		return []string{s}
	}
	parts := strings.Split(s, marker)
	fragments := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			fragments = append(fragments, p)
		}
	}
	return fragments
}
