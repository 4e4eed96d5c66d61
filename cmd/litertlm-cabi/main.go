// Command litertlm-cabi is not a CLI entry point in the usual sense: built
// with `go build -buildmode=c-shared` (or c-archive), it exports the stable
// C ABI a host process links against when it can't embed the Go runtime
// directly. Opaque handles stand in for the Provider/Constraint pointers a
// C caller holds; Go-side state never crosses the boundary as a real
// pointer, only as a lookup key, since cgo forbids C code from retaining a
// Go pointer past the call that handed it out.
package main

/*
#include <stdint.h>

typedef struct litertlm_cabi_options {
    const char* code_fence_start;
    const char* code_fence_end;
    const char* open_quote;
    const char* close_quote;
    const char* function_resp_start;
    int mode;
} litertlm_cabi_options;
*/
import "C"

import (
	"os"
	"sync"
	"unsafe"

	"github.com/litert-lm/litertlm-go/internal/decode"
	"github.com/litert-lm/litertlm-go/internal/toolcompile"
)

func main() {} // required by -buildmode=c-shared/c-archive; unused.

var (
	handleMu   sync.Mutex
	nextHandle uint64
	providers  = map[uint64]*decode.Factory{}
	constrs    = map[uint64]*decode.Constraint{}
)

func newHandle() uint64 {
	handleMu.Lock()
	defer handleMu.Unlock()
	nextHandle++
	return nextHandle
}

// create loads a tokenizer from serialized_sp_model and infers the model's
// EOS id from the flattened stop-token-id lists, returning an opaque
// Provider handle (0 means failure).
//
//export create
func create(serializedSPModel *C.char, length C.int, stopTokenIDs *C.uint32_t, stopLengths *C.int, numLists C.int) C.uintptr_t {
	modelBytes := C.GoBytes(unsafe.Pointer(serializedSPModel), length)

	f, err := os.CreateTemp("", "litertlm-cabi-tokenizer-*")
	if err != nil {
		return 0
	}
	defer os.Remove(f.Name())
	if _, err := f.Write(modelBytes); err != nil {
		f.Close()
		return 0
	}
	f.Close()

	// The ABI's serialized_sp_model slot carries a serialized tokenizer;
	// parsing the SentencePiece wire format itself is out of scope (see
	// DESIGN.md), so the bytes are handed to the same HF tokenizer loader
	// the rest of this repo uses, as a tokenizer.json payload.
	tok, err := decode.NewHFTokenizer(f.Name())
	if err != nil {
		return 0
	}

	ids := unsafe.Slice((*uint32)(unsafe.Pointer(stopTokenIDs)), int(totalLen(stopLengths, numLists)))
	lengths := unsafe.Slice((*int32)(unsafe.Pointer(stopLengths)), int(numLists))
	var seqs [][]uint32
	off := 0
	for _, n := range lengths {
		seqs = append(seqs, ids[off:off+int(n)])
		off += int(n)
	}

	factory, err := decode.NewFactoryFromTokenIDs(tok, seqs)
	if err != nil {
		tok.Close()
		return 0
	}

	h := newHandle()
	handleMu.Lock()
	providers[h] = factory
	handleMu.Unlock()
	return C.uintptr_t(h)
}

func totalLen(lengths *C.int, numLists C.int) int32 {
	s := unsafe.Slice((*int32)(unsafe.Pointer(lengths)), int(numLists))
	var total int32
	for _, n := range s {
		total += n
	}
	return total
}

// create_constraint_from_tools compiles jsonTools (a JSON array of tool
// schemas) into a grammar per options.mode and returns an opaque Constraint
// handle (0 means failure).
//
//export create_constraint_from_tools
func create_constraint_from_tools(provider C.uintptr_t, jsonTools *C.char, options C.litertlm_cabi_options) C.uintptr_t {
	handleMu.Lock()
	factory, ok := providers[uint64(provider)]
	handleMu.Unlock()
	if !ok {
		return 0
	}

	v, err := toolcompile.ParseOrdered([]byte(C.GoString(jsonTools)))
	if err != nil || v.Kind != toolcompile.KindArray {
		return 0
	}
	tools := v.Array

	ctrl := toolcompile.ControlTokens{
		CodeFenceStart:    C.GoString(options.code_fence_start),
		CodeFenceEnd:      C.GoString(options.code_fence_end),
		OpenQuote:         C.GoString(options.open_quote),
		CloseQuote:        C.GoString(options.close_quote),
		FunctionRespStart: C.GoString(options.function_resp_start),
	}
	mode := toolcompile.Mode(options.mode)

	grammar, err := toolcompile.FormatToolsAsLarkGrammar(tools, ctrl, mode)
	if err != nil {
		return 0
	}

	c, err := factory.CreateConstraint(decode.ConstraintArg{Kind: decode.KindLark, Lark: grammar})
	if err != nil {
		return 0
	}

	h := newHandle()
	handleMu.Lock()
	constrs[h] = c
	handleMu.Unlock()
	return C.uintptr_t(h)
}

// compute_bitmap fills out (a caller-owned buffer of at least
// ceil(vocab_size/8) bytes) with the dense allowed-token bitmap for
// constraint's current state. Supplements the four ABI functions spec.md
// names, since a Constraint handle with no way to drive decoding would be
// useless to a host.
//
//export compute_bitmap
func compute_bitmap(constraint C.uintptr_t, out *C.uint8_t, outLen C.int) C.int {
	handleMu.Lock()
	c, ok := constrs[uint64(constraint)]
	handleMu.Unlock()
	if !ok {
		return -1
	}
	bm, err := c.ComputeBitmap()
	if err != nil {
		return -1
	}
	need := (bm.Size() + 7) / 8
	if need > int(outLen) {
		return -1
	}
	dst := unsafe.Slice((*byte)(unsafe.Pointer(out)), int(outLen))
	for i := range dst[:need] {
		dst[i] = 0
	}
	for i := 0; i < bm.Size(); i++ {
		if bm.Get(i) {
			dst[i/8] |= 1 << uint(i%8)
		}
	}
	return C.int(need)
}

// accept_token advances constraint by one token id, returning 0 on success.
//
//export accept_token
func accept_token(constraint C.uintptr_t, token C.uint32_t) C.int {
	handleMu.Lock()
	c, ok := constrs[uint64(constraint)]
	handleMu.Unlock()
	if !ok {
		return -1
	}
	if err := c.Accept(uint32(token)); err != nil {
		return -1
	}
	return 0
}

//export destroy_constraint
func destroy_constraint(constraint C.uintptr_t) {
	handleMu.Lock()
	delete(constrs, uint64(constraint))
	handleMu.Unlock()
}

//export destroy_provider
func destroy_provider(provider C.uintptr_t) {
	handleMu.Lock()
	delete(providers, uint64(provider))
	handleMu.Unlock()
}
