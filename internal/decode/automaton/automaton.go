// Package automaton is the byte-level NFA shared by the regex and lark
// grammar compilers: both produce a Fragment (start state + transition
// table + accepting states), and NewNFAEngine turns a Fragment into a
// constraintapi.Engine that drives the automaton one whole token at a time.
package automaton

import (
	"fmt"

	"github.com/litert-lm/litertlm-go/internal/decode/bitmap"
	"github.com/litert-lm/litertlm-go/internal/decode/constraintapi"
)

// ByteRange matches any byte in [Lo, Hi].
type ByteRange struct {
	Lo, Hi byte
}

// Edge is one NFA transition, taken on any byte matching one of Ranges.
type Edge struct {
	From, To int
	Ranges   []ByteRange
}

// Fragment is a Thompson-style NFA over bytes.
type Fragment struct {
	Start    int
	Accept   map[int]bool
	NumNodes int
	Edges    []Edge
	Epsilons map[int][]int
}

// NewFragment allocates an empty Fragment with n states, none accepting.
func NewFragment(n int) *Fragment {
	return &Fragment{NumNodes: n, Accept: map[int]bool{}, Epsilons: map[int][]int{}}
}

// AddEdge records a transition on a byte range.
func (f *Fragment) AddEdge(from, to int, ranges ...ByteRange) {
	f.Edges = append(f.Edges, Edge{From: from, To: to, Ranges: ranges})
}

// AddEpsilon records a zero-width transition, taken without consuming a
// byte. Thompson construction (alternation, star/plus/quest) relies on
// these; epsilonClosure resolves them at simulation time.
func (f *Fragment) AddEpsilon(from, to int) {
	f.Epsilons[from] = append(f.Epsilons[from], to)
}

// epsilonClosure returns every state reachable from positions via zero or
// more epsilon transitions.
func (f *Fragment) epsilonClosure(positions map[int]bool) map[int]bool {
	closed := make(map[int]bool, len(positions))
	stack := make([]int, 0, len(positions))
	for p := range positions {
		closed[p] = true
		stack = append(stack, p)
	}
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, to := range f.Epsilons[p] {
			if !closed[to] {
				closed[to] = true
				stack = append(stack, to)
			}
		}
	}
	return closed
}

func (f *Fragment) outgoing(state int) []Edge {
	var out []Edge
	for _, e := range f.Edges {
		if e.From == state {
			out = append(out, e)
		}
	}
	return out
}

func (f *Fragment) matches(state int, b byte) []int {
	var next []int
	for _, e := range f.outgoing(state) {
		for _, r := range e.Ranges {
			if b >= r.Lo && b <= r.Hi {
				next = append(next, e.To)
				break
			}
		}
	}
	return next
}

// nfaState is the NFA's current position set, or one of two absorbing
// states: errored (a token broke the grammar) or done (EOS accepted).
type nfaState struct {
	positions map[int]bool
	errored   bool
	done      bool
}

func (s *nfaState) Clone() constraintapi.State {
	cp := &nfaState{positions: make(map[int]bool, len(s.positions)), errored: s.errored, done: s.done}
	for p := range s.positions {
		cp.positions[p] = true
	}
	return cp
}

// Engine drives a Fragment token-by-token: ComputeNext feeds every byte of
// the token's decoded form through the automaton and rejects the token
// (moving to an errored sink) if any byte has no valid transition.
type Engine struct {
	frag      *Fragment
	tok       constraintapi.Tokenizer
	eos       uint32
	vocabSize uint32
}

// NewNFAEngine builds a constraintapi.Engine around a compiled Fragment.
func NewNFAEngine(frag *Fragment, tok constraintapi.Tokenizer, eos uint32) *Engine {
	return &Engine{frag: frag, tok: tok, eos: eos, vocabSize: tok.VocabSize()}
}

func (e *Engine) Start() constraintapi.State {
	return &nfaState{positions: e.frag.epsilonClosure(map[int]bool{e.frag.Start: true})}
}

func (e *Engine) VocabSize() uint32 { return e.vocabSize }

func (e *Engine) IsTerminal(s constraintapi.State) bool {
	st := s.(*nfaState)
	if st.done {
		return true
	}
	if st.errored {
		return false
	}
	for p := range st.positions {
		if e.frag.Accept[p] {
			return true
		}
	}
	return false
}

func (e *Engine) advanceByte(positions map[int]bool, b byte) map[int]bool {
	next := map[int]bool{}
	for p := range positions {
		for _, to := range e.frag.matches(p, b) {
			next[to] = true
		}
	}
	return e.frag.epsilonClosure(next)
}

func (e *Engine) accepts(positions map[int]bool, tokBytes []byte) bool {
	if len(tokBytes) == 0 {
		return false
	}
	cur := positions
	for _, b := range tokBytes {
		cur = e.advanceByte(cur, b)
		if len(cur) == 0 {
			return false
		}
	}
	return true
}

func (e *Engine) ComputeBitmap(s constraintapi.State) (bitmap.Bitmap, error) {
	st := s.(*nfaState)
	if st.done {
		return bitmap.SingleAllowed{N: int(e.vocabSize), Allowed: int(e.eos)}, nil
	}
	if st.errored {
		return bitmap.SingleAllowed{N: int(e.vocabSize), Allowed: -1}, nil
	}

	dense := bitmap.NewDenseBits(int(e.vocabSize))
	if e.IsTerminal(s) {
		dense.Set(int(e.eos), true)
	}
	for id := uint32(0); id < e.vocabSize; id++ {
		tokBytes, err := e.tok.TokenBytes(id)
		if err != nil {
			return nil, err
		}
		if e.accepts(st.positions, tokBytes) {
			dense.Set(int(id), true)
		}
	}
	return dense, nil
}

func (e *Engine) ComputeNext(s constraintapi.State, token uint32) (constraintapi.State, error) {
	st := s.(*nfaState)
	if st.done || st.errored {
		return st, nil
	}
	if token == e.eos {
		if e.IsTerminal(s) {
			return &nfaState{done: true}, nil
		}
		return &nfaState{errored: true}, nil
	}

	tokBytes, err := e.tok.TokenBytes(token)
	if err != nil {
		return nil, fmt.Errorf("automaton.Engine.ComputeNext: %w", err)
	}
	cur := st.positions
	for _, b := range tokBytes {
		cur = e.advanceByte(cur, b)
		if len(cur) == 0 {
			return &nfaState{errored: true}, nil
		}
	}
	return &nfaState{positions: cur}, nil
}
