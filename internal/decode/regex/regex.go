// Package regex translates a parsed regexp/syntax AST into the byte-level
// automaton.Fragment that automaton.Engine drives. There's no third-party
// grammar library anywhere in the retrieval pack this repo was built
// against, so regexp/syntax — already a stdlib dependency of the Go
// toolchain itself — is the grounding for turning text patterns into an
// explicit state machine; see DESIGN.md.
package regex

import (
	"fmt"
	"regexp/syntax"
	"unicode/utf8"

	"github.com/litert-lm/litertlm-go/internal/decode/automaton"
	"github.com/litert-lm/litertlm-go/internal/decode/constraintapi"
)

// CompileString parses pattern and compiles it, a convenience for callers
// (such as the lark package) that assemble a regex textually rather than
// building a syntax.Regexp tree by hand.
func CompileString(pattern string, tok constraintapi.Tokenizer, eos uint32) (constraintapi.Engine, error) {
	re, err := syntax.Parse(pattern, syntax.Perl)
	if err != nil {
		return nil, fmt.Errorf("parse %q: %w", pattern, err)
	}
	return Compile(re, tok, eos)
}

// Compile builds an Engine that accepts strings matching re, encoded as
// whatever byte sequence tok's vocabulary would tokenize them into.
func Compile(re *syntax.Regexp, tok constraintapi.Tokenizer, eos uint32) (constraintapi.Engine, error) {
	b := &builder{frag: automaton.NewFragment(0)}
	start := b.newState()
	end, err := b.build(re, start)
	if err != nil {
		return nil, err
	}
	b.frag.Start = start
	b.frag.Accept[end] = true
	return automaton.NewNFAEngine(b.frag, tok, eos), nil
}

type builder struct {
	frag *automaton.Fragment
}

func (b *builder) newState() int {
	s := b.frag.NumNodes
	b.frag.NumNodes++
	return s
}

// build compiles re into the fragment starting at `from`, returning the
// state reached once re has matched.
func (b *builder) build(re *syntax.Regexp, from int) (int, error) {
	switch re.Op {
	case syntax.OpLiteral:
		cur := from
		for _, r := range re.Rune {
			next := b.newState()
			b.addRune(cur, next, r)
			cur = next
		}
		return cur, nil

	case syntax.OpCharClass:
		next := b.newState()
		for i := 0; i+1 < len(re.Rune); i += 2 {
			b.addRuneRange(from, next, re.Rune[i], re.Rune[i+1])
		}
		return next, nil

	case syntax.OpAnyChar, syntax.OpAnyCharNotNL:
		next := b.newState()
		b.frag.AddEdge(from, next, automaton.ByteRange{Lo: 0x00, Hi: 0xff})
		return next, nil

	case syntax.OpConcat:
		cur := from
		for _, sub := range re.Sub {
			var err error
			cur, err = b.build(sub, cur)
			if err != nil {
				return 0, err
			}
		}
		return cur, nil

	case syntax.OpAlternate:
		end := b.newState()
		for _, sub := range re.Sub {
			subEnd, err := b.build(sub, from)
			if err != nil {
				return 0, err
			}
			b.frag.AddEpsilon(subEnd, end)
		}
		return end, nil

	case syntax.OpStar, syntax.OpPlus, syntax.OpQuest:
		return b.buildRepeat(re, from)

	case syntax.OpCapture:
		return b.build(re.Sub[0], from)

	case syntax.OpEmptyMatch, syntax.OpBeginLine, syntax.OpEndLine, syntax.OpBeginText, syntax.OpEndText:
		return from, nil

	default:
		return 0, fmt.Errorf("unsupported regex construct %v", re.Op)
	}
}

// buildRepeat compiles star/plus/quest with a standard Thompson
// construction: each introduces a fresh join state linked by real epsilon
// edges, which automaton.Engine resolves via epsilon-closure at simulation
// time rather than by approximating them as merged states at build time.
func (b *builder) buildRepeat(re *syntax.Regexp, from int) (int, error) {
	switch re.Op {
	case syntax.OpQuest:
		subEnd, err := b.build(re.Sub[0], from)
		if err != nil {
			return 0, err
		}
		end := b.newState()
		b.frag.AddEpsilon(from, end)
		b.frag.AddEpsilon(subEnd, end)
		return end, nil

	case syntax.OpStar:
		loopStart := b.newState()
		b.frag.AddEpsilon(from, loopStart)
		subEnd, err := b.build(re.Sub[0], loopStart)
		if err != nil {
			return 0, err
		}
		b.frag.AddEpsilon(subEnd, loopStart)
		end := b.newState()
		b.frag.AddEpsilon(loopStart, end)
		return end, nil

	case syntax.OpPlus:
		subEnd, err := b.build(re.Sub[0], from)
		if err != nil {
			return 0, err
		}
		loopStart := b.newState()
		b.frag.AddEpsilon(subEnd, loopStart)
		subEnd2, err := b.build(re.Sub[0], loopStart)
		if err != nil {
			return 0, err
		}
		b.frag.AddEpsilon(subEnd2, loopStart)
		end := b.newState()
		b.frag.AddEpsilon(loopStart, end)
		return end, nil
	}
	return 0, fmt.Errorf("unreachable repeat op %v", re.Op)
}

func (b *builder) addRune(from, to int, r rune) {
	if r < utf8.RuneSelf {
		b.frag.AddEdge(from, to, automaton.ByteRange{Lo: byte(r), Hi: byte(r)})
		return
	}
	var buf [utf8.UTFMax]byte
	n := utf8.EncodeRune(buf[:], r)
	cur := from
	for i := 0; i < n; i++ {
		next := to
		if i < n-1 {
			next = b.newState()
		}
		b.frag.AddEdge(cur, next, automaton.ByteRange{Lo: buf[i], Hi: buf[i]})
		cur = next
	}
}

func (b *builder) addRuneRange(from, to int, lo, hi rune) {
	if lo <= 0x7f && hi <= 0x7f {
		b.frag.AddEdge(from, to, automaton.ByteRange{Lo: byte(lo), Hi: byte(hi)})
		return
	}
	for r := lo; r <= hi && r-lo < 256; r++ {
		b.addRune(from, to, r)
	}
}
