package decode

import (
	"fmt"

	"github.com/litert-lm/litertlm-go/internal/decode/jsonschema"
	"github.com/litert-lm/litertlm-go/internal/decode/lark"
	"github.com/litert-lm/litertlm-go/internal/decode/regex"
)

// ConstraintKind discriminates the union of ways a Constraint can be
// requested from a Factory.
type ConstraintKind int

const (
	// KindExternal wraps an already-built Engine (e.g. one handed in by an
	// embedding application rather than compiled from text here).
	KindExternal ConstraintKind = iota
	// KindRegex compiles a regular expression into a byte-level NFA engine.
	KindRegex
	// KindLark compiles a restricted Lark grammar fragment (see
	// internal/toolcompile) into the same NFA representation as KindRegex.
	KindLark
	// KindJsonSchema compiles a JSON Schema document's `type` keyword into
	// the same NFA representation as KindRegex.
	KindJsonSchema
	// KindInternal asks for an unconstrained Passthrough engine.
	KindInternal
)

// ConstraintArg is a tagged union selecting which kind of Constraint to
// build; only the field matching Kind is read.
type ConstraintArg struct {
	Kind       ConstraintKind
	External   Engine
	Regex      string
	Lark       string
	JsonSchema string
}

// Factory builds Engines that are aware of a specific tokenizer's
// vocabulary, so regex/grammar compilation can work in terms of real token
// ids instead of raw codepoints.
type Factory struct {
	tok Tokenizer
	eos uint32
}

// NewFactory builds a Factory over tok, inferring the model's EOS token id
// from the given candidate stop sequences (as recorded in the archive's
// LlmMetadata).
func NewFactory(tok Tokenizer, stopSequences []string) (*Factory, error) {
	eos, err := inferEOS(tok, stopSequences)
	if err != nil {
		return nil, err
	}
	return &Factory{tok: tok, eos: eos}, nil
}

// NewFactoryFromTokenIDs is the same construction as NewFactory, but for
// callers (such as the C ABI bridge, which receives token ids a host already
// tokenized) that have stop sequences as token id lists rather than strings.
func NewFactoryFromTokenIDs(tok Tokenizer, stopSequences [][]uint32) (*Factory, error) {
	for _, seq := range stopSequences {
		if len(seq) == 1 {
			return &Factory{tok: tok, eos: seq[0]}, nil
		}
	}
	return nil, fmt.Errorf("could not infer a single-token EOS from %d stop token sequences", len(stopSequences))
}

// EOS returns the inferred end-of-sequence token id.
func (f *Factory) EOS() uint32 { return f.eos }

// CreateConstraint builds a Constraint for the requested arg.
func (f *Factory) CreateConstraint(arg ConstraintArg) (*Constraint, error) {
	switch arg.Kind {
	case KindExternal:
		if arg.External == nil {
			return nil, fmt.Errorf("ConstraintArg.Kind=KindExternal requires a non-nil Engine")
		}
		return Start(arg.External), nil

	case KindInternal:
		return Start(NewPassthrough(f.tok.VocabSize())), nil

	case KindRegex:
		eng, err := regex.CompileString(arg.Regex, f.tok, f.eos)
		if err != nil {
			return nil, fmt.Errorf("compile regex %q: %w", arg.Regex, err)
		}
		return Start(eng), nil

	case KindLark:
		eng, err := lark.Compile(arg.Lark, f.tok, f.eos)
		if err != nil {
			return nil, fmt.Errorf("compile grammar: %w", err)
		}
		return Start(eng), nil

	case KindJsonSchema:
		eng, err := jsonschema.Compile(arg.JsonSchema, f.tok, f.eos)
		if err != nil {
			return nil, fmt.Errorf("compile json schema: %w", err)
		}
		return Start(eng), nil

	default:
		return nil, fmt.Errorf("unknown ConstraintArg.Kind %d", arg.Kind)
	}
}
