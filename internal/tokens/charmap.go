package tokens

import (
	"bytes"
	"strconv"

	"github.com/bytedance/sonic"
)

// Unassigned marks a character that no token could be attributed to.
const Unassigned = -1

// CharMap maps each character of a text to a token index, or Unassigned.
// It encodes to JSON as an array of integers with null for Unassigned.
type CharMap []int

// NewCharMap returns a map of n entries, all Unassigned.
func NewCharMap(n int) CharMap {
	m := make(CharMap, n)
	for i := range m {
		m[i] = Unassigned
	}
	return m
}

// AssignedCount returns the number of entries that point at a token.
func (m CharMap) AssignedCount() int {
	n := 0
	for _, idx := range m {
		if idx != Unassigned {
			n++
		}
	}
	return n
}

// MarshalJSON implements json.Marshaler.
func (m CharMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(len(m)*3 + 2)
	buf.WriteByte('[')
	for i, idx := range m {
		if i > 0 {
			buf.WriteByte(',')
		}
		if idx == Unassigned {
			buf.WriteString("null")
			continue
		}
		buf.WriteString(strconv.Itoa(idx))
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (m *CharMap) UnmarshalJSON(data []byte) error {
	var raw []*int
	if err := sonic.ConfigStd.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(CharMap, len(raw))
	for i, v := range raw {
		if v == nil {
			out[i] = Unassigned
			continue
		}
		out[i] = *v
	}
	*m = out
	return nil
}
