// Package container implements the LiteRTLM archive format: a small fixed
// preamble, a FlatBuffers header describing every section, and the section
// payloads themselves, each block-aligned to BlockSize bytes.
package container

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/litert-lm/litertlm-go/internal/container/fbschema"
	"github.com/litert-lm/litertlm-go/internal/litertlmerr"
	"github.com/litert-lm/litertlm-go/internal/section"
)

// Magic is the fixed 8-byte identifier at the start of every archive.
var Magic = [8]byte{'L', 'I', 'T', 'E', 'R', 'T', 'L', 'M'}

// BlockSize is the alignment granularity for the header and every section
// payload.
const BlockSize = 16384

// headerBeginOffset is where the FlatBuffers header payload starts.
const headerBeginOffset = 32

// headerEndOffsetFieldOffset is where header_end_offset lives in the fixed
// preamble.
const headerEndOffsetFieldOffset = 24

// Version identifies the archive format revision written by this package.
type Version struct {
	Major, Minor, Patch uint32
}

// DefaultVersion is stamped on every archive this package writes.
var DefaultVersion = Version{Major: 1, Minor: 0, Patch: 0}

// pendingSection couples a section's stream with the metadata it's tagged
// with before the header is built.
type pendingSection struct {
	dataType fbschema.AnySectionDataType
	stream   section.Stream
	metadata []fbschema.KeyValuePair
}

// Writer accumulates sections and serializes them into a single archive.
type Writer struct {
	version         Version
	systemMetadata  []fbschema.KeyValuePair
	sections        []pendingSection
}

// NewWriter creates an empty archive writer using DefaultVersion.
func NewWriter() *Writer {
	return &Writer{version: DefaultVersion}
}

// SetSystemMetadata replaces the archive-level key/value pairs (e.g. the
// author tag injected by the writer CLI).
func (w *Writer) SetSystemMetadata(kvs []fbschema.KeyValuePair) {
	w.systemMetadata = kvs
}

// AddSection queues a section for writing. metadata may be nil.
func (w *Writer) AddSection(dataType fbschema.AnySectionDataType, stream section.Stream, metadata []fbschema.KeyValuePair) {
	w.sections = append(w.sections, pendingSection{dataType: dataType, stream: stream, metadata: metadata})
}

// WriteTo serializes the archive to path.
func (w *Writer) WriteTo(path string) error {
	for i := range w.sections {
		if err := w.sections[i].stream.Prepare(); err != nil {
			return fmt.Errorf("prepare section %d: %w", i, err)
		}
	}

	sizes := make([]uint64, len(w.sections))
	for i := range w.sections {
		sz, err := w.sections[i].stream.Size()
		if err != nil {
			return fmt.Errorf("size section %d: %w", i, err)
		}
		sizes[i] = sz
	}

	// First pass: encode the header with placeholder offsets just to learn
	// its size. Offsets are fixed-width uint64 fields, but the FlatBuffers
	// builder omits a field equal to its default of zero, so the placeholder
	// is BlockSize: nonzero like every real offset (no section starts before
	// BlockSize), so the real values don't change how many bytes the header
	// takes.
	placeholderOffsets := make([]uint64, len(w.sections))
	for i := range placeholderOffsets {
		placeholderOffsets[i] = BlockSize
	}
	placeholder := w.buildHeader(placeholderOffsets, placeholderOffsets)
	headerLen := len(fbschema.Encode(placeholder))

	headerEnd := alignUp(headerBeginOffset+uint64(headerLen), BlockSize)
	if headerEnd > BlockSize {
		return litertlmerr.New(litertlmerr.Internal, "container.Writer.WriteTo",
			"header (%d bytes) does not fit in the first %d-byte block", headerLen, BlockSize)
	}

	begin := make([]uint64, len(w.sections))
	end := make([]uint64, len(w.sections))
	cur := headerEnd
	for i, sz := range sizes {
		begin[i] = cur
		end[i] = cur + sz
		cur = alignUp(end[i], BlockSize)
	}

	header := w.buildHeader(begin, end)
	headerBytes := fbschema.Encode(header)
	if uint64(len(headerBytes)) != uint64(headerLen) {
		return litertlmerr.New(litertlmerr.Internal, "container.Writer.WriteTo",
			"header size changed between passes: %d vs %d", headerLen, len(headerBytes))
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	bw := &binaryWriter{w: f}
	bw.write(Magic)
	bw.writeU32(w.version.Major)
	bw.writeU32(w.version.Minor)
	bw.writeU32(w.version.Patch)
	bw.write([4]byte{}) // reserved
	bw.writeU64(headerEnd)
	if bw.err != nil {
		return fmt.Errorf("write preamble: %w", bw.err)
	}
	if int64(headerBeginOffset) != mustTell(f) {
		return litertlmerr.New(litertlmerr.Internal, "container.Writer.WriteTo", "preamble size drifted")
	}

	if _, err := f.Write(headerBytes); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if err := writeZeroPad(f, headerBeginOffset+uint64(len(headerBytes)), headerEnd); err != nil {
		return fmt.Errorf("pad header: %w", err)
	}

	for i, ps := range w.sections {
		if _, err := io.Copy(f, ps.stream.Reader()); err != nil {
			return fmt.Errorf("write section %d: %w", i, err)
		}
		if err := ps.stream.Finalize(); err != nil {
			return fmt.Errorf("finalize section %d: %w", i, err)
		}
		if err := writeZeroPad(f, end[i], alignUp(end[i], BlockSize)); err != nil {
			return fmt.Errorf("pad section %d: %w", i, err)
		}
	}

	return nil
}

func (w *Writer) buildHeader(begin, end []uint64) fbschema.Header {
	h := fbschema.Header{SystemMetadata: w.systemMetadata}
	h.Sections = make([]fbschema.Section, len(w.sections))
	for i, ps := range w.sections {
		h.Sections[i] = fbschema.Section{
			Items:       ps.metadata,
			BeginOffset: begin[i],
			EndOffset:   end[i],
			DataType:    ps.dataType,
		}
	}
	return h
}

func alignUp(v, block uint64) uint64 {
	rem := v % block
	if rem == 0 {
		return v
	}
	return v + (block - rem)
}

func writeZeroPad(f *os.File, from, to uint64) error {
	if to <= from {
		return nil
	}
	n := to - from
	zeros := make([]byte, min(n, 64*1024))
	for n > 0 {
		chunk := zeros
		if uint64(len(chunk)) > n {
			chunk = chunk[:n]
		}
		written, err := f.Write(chunk)
		if err != nil {
			return err
		}
		n -= uint64(written)
	}
	return nil
}

func min(a, b uint64) uint64 {
	if a < b {
		return a
	}
	return b
}

func mustTell(f *os.File) int64 {
	off, err := f.Seek(0, io.SeekCurrent)
	if err != nil {
		return -1
	}
	return off
}

// binaryWriter wraps an io.Writer and accumulates the first error, same
// pattern used for the archive preamble's fixed-width fields.
type binaryWriter struct {
	w   io.Writer
	err error
}

func (bw *binaryWriter) write(v interface{}) {
	if bw.err != nil {
		return
	}
	bw.err = binary.Write(bw.w, binary.LittleEndian, v)
}
func (bw *binaryWriter) writeU32(v uint32) { bw.write(v) }
func (bw *binaryWriter) writeU64(v uint64) { bw.write(v) }
