// Package constraintapi defines the Engine/State contract shared by every
// constraint implementation (the hand-rolled passthrough/fixedseq engines in
// package decode, and the compiled regex/lark engines in their own
// packages) so those packages don't need to import package decode itself.
package constraintapi

import "github.com/litert-lm/litertlm-go/internal/decode/bitmap"

// State is an opaque, immutable handle into an Engine's progress. Clone
// returns an independent handle that may be advanced without affecting the
// original.
type State interface {
	Clone() State
}

// Engine is a pure function from "state so far" to "which tokens are
// allowed next," plus a pure transition function for accepting one token.
type Engine interface {
	Start() State
	VocabSize() uint32
	IsTerminal(s State) bool
	ComputeBitmap(s State) (bitmap.Bitmap, error)
	ComputeNext(s State, token uint32) (State, error)
}

// Tokenizer is the slice of vocabulary information a compiled engine needs:
// how many tokens there are, what bytes each one decodes to (so a grammar
// over bytes can be driven by discrete token ids), and how to turn a string
// into token ids.
type Tokenizer interface {
	VocabSize() uint32
	TokenBytes(id uint32) ([]byte, error)
	Encode(text string) ([]uint32, error)
}
