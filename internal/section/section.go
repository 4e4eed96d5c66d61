// Package section implements the streaming payload sources that a
// container.Writer consumes: plain files, in-memory blobs, serialized proto
// messages, and a zlib-compressed wrapper over any of the above.
package section

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"io"
	"os"

	"google.golang.org/protobuf/proto"

	"github.com/litert-lm/litertlm-go/internal/litertlmerr"
)

// chunkSize is the buffer size used when draining a stream into the zlib
// writer.
const chunkSize = 16 * 1024

// Stream is a lazily-materialized section payload. Callers must call
// Prepare before Reader/Size and Finalize once done, in that order.
type Stream interface {
	Prepare() error
	Reader() io.Reader
	Size() (uint64, error)
	Finalize() error
}

// FileStream reads a whole file into memory on Prepare.
type FileStream struct {
	Path string
	buf  []byte
}

func (s *FileStream) Prepare() error {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return litertlmerr.Wrap(litertlmerr.NotFound, "FileStream.Prepare", err)
	}
	s.buf = data
	return nil
}

func (s *FileStream) Reader() io.Reader   { return bytes.NewReader(s.buf) }
func (s *FileStream) Size() (uint64, error) { return uint64(len(s.buf)), nil }
func (s *FileStream) Finalize() error     { s.buf = nil; return nil }

// BlobStream wraps a caller-owned byte slice that's already in memory.
type BlobStream struct {
	Data []byte
}

func (s *BlobStream) Prepare() error          { return nil }
func (s *BlobStream) Reader() io.Reader       { return bytes.NewReader(s.Data) }
func (s *BlobStream) Size() (uint64, error)   { return uint64(len(s.Data)), nil }
func (s *BlobStream) Finalize() error         { return nil }

// ProtoStream marshals a protobuf message on Prepare.
type ProtoStream struct {
	Message proto.Message
	buf     []byte
}

func (s *ProtoStream) Prepare() error {
	data, err := proto.Marshal(s.Message)
	if err != nil {
		return litertlmerr.Wrap(litertlmerr.InvalidFormat, "ProtoStream.Prepare", err)
	}
	s.buf = data
	return nil
}

func (s *ProtoStream) Reader() io.Reader       { return bytes.NewReader(s.buf) }
func (s *ProtoStream) Size() (uint64, error)   { return uint64(len(s.buf)), nil }
func (s *ProtoStream) Finalize() error         { s.buf = nil; return nil }

// ZlibStream wraps another Stream, compressing its bytes with DEFLATE and
// prefixing the result with an 8-byte little-endian uncompressed length, so
// a reader can size its output buffer before decompressing.
type ZlibStream struct {
	Inner Stream
	buf   []byte
}

func (s *ZlibStream) Prepare() error {
	if err := s.Inner.Prepare(); err != nil {
		return err
	}
	defer s.Inner.Finalize()

	uncompressedLen, err := s.Inner.Size()
	if err != nil {
		return err
	}

	var out bytes.Buffer
	var lenPrefix [8]byte
	binary.LittleEndian.PutUint64(lenPrefix[:], uncompressedLen)
	out.Write(lenPrefix[:])

	zw := zlib.NewWriter(&out)
	if _, err := io.CopyBuffer(zw, s.Inner.Reader(), make([]byte, chunkSize)); err != nil {
		return litertlmerr.Wrap(litertlmerr.Internal, "ZlibStream.Prepare", err)
	}
	if err := zw.Close(); err != nil {
		return litertlmerr.Wrap(litertlmerr.Internal, "ZlibStream.Prepare", err)
	}

	s.buf = out.Bytes()
	return nil
}

func (s *ZlibStream) Reader() io.Reader     { return bytes.NewReader(s.buf) }
func (s *ZlibStream) Size() (uint64, error) { return uint64(len(s.buf)), nil }
func (s *ZlibStream) Finalize() error       { s.buf = nil; return nil }

// Decompress reverses ZlibStream's framing: an 8-byte LE uncompressed length
// followed by a zlib-wrapped DEFLATE stream.
func Decompress(data []byte) ([]byte, error) {
	if len(data) < 8 {
		return nil, litertlmerr.New(litertlmerr.DataLoss, "section.Decompress",
			"zlib section too short for length prefix: %d bytes", len(data))
	}
	uncompressedLen := binary.LittleEndian.Uint64(data[:8])

	zr, err := zlib.NewReader(bytes.NewReader(data[8:]))
	if err != nil {
		return nil, litertlmerr.Wrap(litertlmerr.DataLoss, "section.Decompress", err)
	}
	defer zr.Close()

	out := make([]byte, 0, uncompressedLen)
	buf := bytes.NewBuffer(out)
	if _, err := io.Copy(buf, zr); err != nil {
		return nil, litertlmerr.Wrap(litertlmerr.DataLoss, "section.Decompress", err)
	}
	if uint64(buf.Len()) != uncompressedLen {
		return nil, litertlmerr.New(litertlmerr.DataLoss, "section.Decompress",
			"decompressed %d bytes, header promised %d", buf.Len(), uncompressedLen)
	}
	return buf.Bytes(), nil
}
