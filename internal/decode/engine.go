// Package decode implements the constraint state machine that narrows which
// tokens a sampler may emit at each decoding step, plus the factory that
// builds a concrete Engine from a grammar/regex/schema/tool-call request.
package decode

import (
	"github.com/litert-lm/litertlm-go/internal/decode/bitmap"
	"github.com/litert-lm/litertlm-go/internal/decode/constraintapi"
)

// State is an opaque, immutable handle into an Engine's progress. Clone
// returns an independent handle that may be advanced without affecting the
// original — callers rely on this when exploring more than one continuation
// from the same point (e.g. beam search).
type State = constraintapi.State

// Engine is the contract every constraint implementation satisfies: a pure
// function from "state so far" to "which tokens are allowed next," and a
// pure transition function for accepting one more token.
//
// ComputeBitmap must not mutate s. ComputeNext must not mutate s; it returns
// a new State reflecting the transition.
type Engine = constraintapi.Engine

// Constraint bundles an Engine with the State it's currently in, which is
// the unit CreateConstraint hands back to a decoding loop.
type Constraint struct {
	Engine Engine
	State  State
}

// Start creates a fresh Constraint at the engine's initial state.
func Start(e Engine) *Constraint {
	return &Constraint{Engine: e, State: e.Start()}
}

// IsTerminal reports whether the constraint is in an accepting state. A
// terminal state is not absorbing in general (see Accept).
func (c *Constraint) IsTerminal() bool { return c.Engine.IsTerminal(c.State) }

// ComputeBitmap returns which vocabulary entries are allowed from the
// current state.
func (c *Constraint) ComputeBitmap() (bitmap.Bitmap, error) {
	return c.Engine.ComputeBitmap(c.State)
}

// Accept advances the constraint by one token, in place. The built-in
// engines do not return an error for a token the grammar cannot take; they
// move to an errored state that is not terminal and stays errored, and this
// happens from a terminal state too (FixedSeq after its last token, the NFA
// engine in an accepting state it can still extend). Only the NFA engine's
// state after EOS keeps itself for any further token.
func (c *Constraint) Accept(token uint32) error {
	next, err := c.Engine.ComputeNext(c.State, token)
	if err != nil {
		return err
	}
	c.State = next
	return nil
}

// Clone returns an independent Constraint sharing the same Engine (and
// therefore the same compiled grammar) but with its own State.
func (c *Constraint) Clone() *Constraint {
	return &Constraint{Engine: c.Engine, State: c.State.Clone()}
}
