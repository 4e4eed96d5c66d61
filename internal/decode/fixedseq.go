package decode

import (
	"github.com/litert-lm/litertlm-go/internal/decode/bitmap"
	"github.com/litert-lm/litertlm-go/internal/litertlmerr"
)

// FixedSeq accepts exactly one pre-declared token sequence and nothing else;
// it exists to exercise the Engine contract in tests without compiling a
// real grammar, playing the role a throwaway fake engine plays elsewhere.
type FixedSeq struct {
	vocabSize uint32
	sequence  []uint32
}

// NewFixedSeq builds an Engine that accepts only seq, in order.
func NewFixedSeq(vocabSize uint32, seq []uint32) *FixedSeq {
	return &FixedSeq{vocabSize: vocabSize, sequence: append([]uint32(nil), seq...)}
}

type fixedSeqState struct {
	pos     int
	errored bool
}

func (s *fixedSeqState) Clone() State { cp := *s; return &cp }

func (f *FixedSeq) Start() State      { return &fixedSeqState{} }
func (f *FixedSeq) VocabSize() uint32 { return f.vocabSize }

func (f *FixedSeq) IsTerminal(s State) bool {
	st := s.(*fixedSeqState)
	return !st.errored && st.pos == len(f.sequence)
}

func (f *FixedSeq) ComputeBitmap(s State) (bitmap.Bitmap, error) {
	st := s.(*fixedSeqState)
	if st.errored {
		return nil, litertlmerr.New(litertlmerr.FailedPrecondition, "FixedSeq.ComputeBitmap", "constraint already errored")
	}
	if st.pos == len(f.sequence) {
		return bitmap.SingleAllowed{N: int(f.vocabSize), Allowed: -1}, nil
	}
	return bitmap.SingleAllowed{N: int(f.vocabSize), Allowed: int(f.sequence[st.pos])}, nil
}

func (f *FixedSeq) ComputeNext(s State, token uint32) (State, error) {
	st := s.(*fixedSeqState)
	if st.errored || st.pos == len(f.sequence) {
		return &fixedSeqState{pos: st.pos, errored: true}, nil
	}
	if token != f.sequence[st.pos] {
		return &fixedSeqState{pos: st.pos, errored: true}, nil
	}
	return &fixedSeqState{pos: st.pos + 1}, nil
}
