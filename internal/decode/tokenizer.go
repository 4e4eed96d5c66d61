package decode

import (
	"fmt"

	"github.com/daulet/tokenizers"

	"github.com/litert-lm/litertlm-go/internal/decode/constraintapi"
)

// Tokenizer is the slice of vocabulary information the constraint engines
// need: how big the vocabulary is, what bytes each token decodes to (so a
// grammar compiled over bytes can be driven by discrete token ids), and how
// to turn a prompt/tool string into token ids.
type Tokenizer = constraintapi.Tokenizer

// HFTokenizer adapts github.com/daulet/tokenizers to the Tokenizer
// interface, caching each token's decoded bytes since ComputeBitmap calls
// TokenBytes on every vocabulary entry, every step.
type HFTokenizer struct {
	tk        *tokenizers.Tokenizer
	vocabSize uint32
	byteCache [][]byte
}

// NewHFTokenizer loads a tokenizer.json (as extracted from a container's HF
// tokenizer section) and precomputes the byte form of every token.
func NewHFTokenizer(tokenizerJSONPath string) (*HFTokenizer, error) {
	tk, err := tokenizers.FromFile(tokenizerJSONPath)
	if err != nil {
		return nil, fmt.Errorf("load tokenizer: %w", err)
	}

	vocabSize := uint32(tk.VocabSize())
	cache := make([][]byte, vocabSize)
	for id := uint32(0); id < vocabSize; id++ {
		cache[id] = []byte(tk.Decode([]uint32{id}, false))
	}

	return &HFTokenizer{tk: tk, vocabSize: vocabSize, byteCache: cache}, nil
}

// Close releases the underlying Rust tokenizer.
func (t *HFTokenizer) Close() { t.tk.Close() }

func (t *HFTokenizer) VocabSize() uint32 { return t.vocabSize }

func (t *HFTokenizer) TokenBytes(id uint32) ([]byte, error) {
	if id >= t.vocabSize {
		return nil, fmt.Errorf("token id %d out of range [0,%d)", id, t.vocabSize)
	}
	return t.byteCache[id], nil
}

func (t *HFTokenizer) Encode(text string) ([]uint32, error) {
	enc := t.tk.EncodeWithOptions(text, false)
	return enc.IDs, nil
}

// inferEOS locates the vocabulary id for one of the candidate stop
// sequences, preferring earlier entries in the list — the factory uses this
// when the archive's metadata names several acceptable stop strings but the
// engine needs one concrete id to recognize as "done."
func inferEOS(tok Tokenizer, stopSequences []string) (uint32, error) {
	for _, stop := range stopSequences {
		ids, err := tok.Encode(stop)
		if err != nil {
			continue
		}
		if len(ids) == 1 {
			return ids[0], nil
		}
	}
	return 0, fmt.Errorf("could not infer a single-token EOS from stop sequences %v", stopSequences)
}
