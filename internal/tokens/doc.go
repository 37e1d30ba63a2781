// Package tokens defines the provider-neutral token model and the character
// alignment engine used to visualize tokenization results.
//
// Provider adapters normalize their tokenizer output into a Sequence. The
// alignment engine then maps every character (Unicode code point) of the
// visualized text to the index of the token that owns it:
//   - Tile handles sequences whose surface texts concatenate back to the
//     original text (byte-level BPE, tiktoken, Metaspace pieces)
//   - Reconcile handles tokenizers that only expose a reconstructed debug
//     string with word-boundary markers (SentencePiece chat encodings)
//
// Alignment is best-effort: it never fails, and degrades to a map of
// Unassigned entries when the tokens cannot be reconciled with the text.
package tokens
