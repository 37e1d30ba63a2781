package mistral

import (
	"strings"

	"google.golang.org/protobuf/encoding/protowire"
)

// Field numbers in sentencepiece_model.proto.
const (
	normalizerSpecField   = 3 // ModelProto.normalizer_spec
	addDummyPrefixField   = 3 // NormalizerSpec.add_dummy_prefix
	removeExtraSpaceField = 4 // NormalizerSpec.remove_extra_whitespaces
)

// normalizerOptions are the NormalizerSpec flags applied before encoding.
type normalizerOptions struct {
	addDummyPrefix         bool
	removeExtraWhitespaces bool
}

// apply normalizes text the way SentencePiece does before splitting it into
// pieces. Spaces are left as spaces; the processor escapes them.
func (o normalizerOptions) apply(text string) string {
	if o.removeExtraWhitespaces {
		text = strings.Join(strings.FieldsFunc(text, func(r rune) bool { return r == ' ' }), " ")
	}
	if o.addDummyPrefix && text != "" {
		text = " " + text
	}
	return text
}

// stripNormalizer rewrites a serialized ModelProto so its NormalizerSpec has
// add_dummy_prefix and remove_extra_whitespaces explicitly off, and returns
// the values the model declared. Absent flags take their proto2 default of
// true. A model without a NormalizerSpec gets one.
func stripNormalizer(model []byte) ([]byte, normalizerOptions, error) {
	out := make([]byte, 0, len(model)+8)
	var spec []byte
	for b := model; len(b) > 0; {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, normalizerOptions{}, protowire.ParseError(n)
		}
		m := protowire.ConsumeFieldValue(num, typ, b[n:])
		if m < 0 {
			return nil, normalizerOptions{}, protowire.ParseError(m)
		}
		if num == normalizerSpecField && typ == protowire.BytesType {
			v, _ := protowire.ConsumeBytes(b[n:])
			// Repeated occurrences of a message field merge, which on the
			// wire is concatenation.
			spec = append(spec, v...)
		} else {
			out = append(out, b[:n+m]...)
		}
		b = b[n+m:]
	}

	patched, opts, err := stripNormalizerSpec(spec)
	if err != nil {
		return nil, normalizerOptions{}, err
	}
	out = protowire.AppendTag(out, normalizerSpecField, protowire.BytesType)
	out = protowire.AppendBytes(out, patched)
	return out, opts, nil
}

func stripNormalizerSpec(spec []byte) ([]byte, normalizerOptions, error) {
	opts := normalizerOptions{addDummyPrefix: true, removeExtraWhitespaces: true}
	out := make([]byte, 0, len(spec)+4)
	for b := spec; len(b) > 0; {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, opts, protowire.ParseError(n)
		}
		m := protowire.ConsumeFieldValue(num, typ, b[n:])
		if m < 0 {
			return nil, opts, protowire.ParseError(m)
		}
		switch {
		case num == addDummyPrefixField && typ == protowire.VarintType:
			v, _ := protowire.ConsumeVarint(b[n:])
			opts.addDummyPrefix = v != 0
		case num == removeExtraSpaceField && typ == protowire.VarintType:
			v, _ := protowire.ConsumeVarint(b[n:])
			opts.removeExtraWhitespaces = v != 0
		default:
			out = append(out, b[:n+m]...)
		}
		b = b[n+m:]
	}

	out = protowire.AppendTag(out, addDummyPrefixField, protowire.VarintType)
	out = protowire.AppendVarint(out, 0)
	out = protowire.AppendTag(out, removeExtraSpaceField, protowire.VarintType)
	out = protowire.AppendVarint(out, 0)
	return out, opts, nil
}
