package container

import (
	"encoding/binary"
	"fmt"

	"github.com/litert-lm/litertlm-go/internal/container/fbschema"
	"github.com/litert-lm/litertlm-go/internal/litertlmerr"
	"github.com/litert-lm/litertlm-go/internal/mmap"
	"github.com/litert-lm/litertlm-go/internal/section"
)

// sectionKey identifies a section by its data type and, where relevant, the
// "name" metadata key (the archive's notion of model_kind).
type sectionKey struct {
	dataType fbschema.AnySectionDataType
	name     string
}

// ModelKind distinguishes the several TFLite payloads a single archive can
// carry (the main decoder plus optional encoders/adapters for other
// modalities).
type ModelKind string

const (
	ModelKindPrefillDecode ModelKind = "PrefillDecode"
	ModelKindEmbedder      ModelKind = "Embedder"
	ModelKindVisionEncoder ModelKind = "VisionEncoder"
	ModelKindVisionAdapter ModelKind = "VisionAdapter"
	ModelKindAudioEncoder  ModelKind = "AudioEncoder"
	ModelKindAudioAdapter  ModelKind = "AudioAdapter"
)

// modelKindByName maps the "name" metadata strings a TFLite section carries
// to the ModelKind the reader indexes it under. "none" and a missing name
// both collide onto PrefillDecode, rather than being indexed as two
// different (and both wrong) keys.
var modelKindByName = map[string]ModelKind{
	"tf_lite_prefill_decode":  ModelKindPrefillDecode,
	"tf_lite_embedder":        ModelKindEmbedder,
	"tf_lite_vision_encoder":  ModelKindVisionEncoder,
	"tf_lite_vision_adapter":  ModelKindVisionAdapter,
	"tf_lite_audio_encoder":   ModelKindAudioEncoder,
	"tf_lite_audio_adapter":   ModelKindAudioAdapter,
	"none":                    ModelKindPrefillDecode,
	"":                        ModelKindPrefillDecode,
}

func resolveModelKind(name string) ModelKind {
	if k, ok := modelKindByName[name]; ok {
		return k
	}
	return ModelKind(name)
}

// Reader is a read-only view over an archive, backed by a memory-mapped
// file. Section payloads are read straight off the mapping without a copy.
type Reader struct {
	view    *mmap.View
	header  *fbschema.Header
	version Version

	index    map[sectionKey]int
	warnings []string
}

// IsLiteRTLMFile reports whether content begins with the archive magic.
func IsLiteRTLMFile(content []byte) bool {
	if len(content) < len(Magic) {
		return false
	}
	for i, b := range Magic {
		if content[i] != b {
			return false
		}
	}
	return true
}

// Open memory-maps path and parses its header.
func Open(path string) (*Reader, error) {
	view, err := mmap.Open(path)
	if err != nil {
		return nil, err
	}

	data := view.Bytes()
	if !IsLiteRTLMFile(data) {
		view.Close()
		return nil, litertlmerr.New(litertlmerr.InvalidFormat, "container.Open",
			"%s is not a LiteRTLM archive (bad magic)", path)
	}
	if len(data) < headerEndOffsetFieldOffset+8 {
		view.Close()
		return nil, litertlmerr.New(litertlmerr.InvalidFormat, "container.Open",
			"%s is truncated before the fixed preamble ends", path)
	}

	version := Version{
		Major: binary.LittleEndian.Uint32(data[8:12]),
		Minor: binary.LittleEndian.Uint32(data[12:16]),
		Patch: binary.LittleEndian.Uint32(data[16:20]),
	}
	headerEnd := binary.LittleEndian.Uint64(data[headerEndOffsetFieldOffset : headerEndOffsetFieldOffset+8])
	if headerEnd < headerBeginOffset || uint64(len(data)) < headerEnd {
		view.Close()
		return nil, litertlmerr.New(litertlmerr.InvalidFormat, "container.Open",
			"%s has an out-of-range header_end_offset %d", path, headerEnd)
	}

	header, err := fbschema.Decode(data[headerBeginOffset:headerEnd])
	if err != nil {
		view.Close()
		return nil, fmt.Errorf("decode header of %s: %w", path, err)
	}

	r := &Reader{view: view, header: header, version: version}
	r.buildIndex()
	return r, nil
}

func (r *Reader) buildIndex() {
	r.index = make(map[sectionKey]int, len(r.header.Sections))
	for i, s := range r.header.Sections {
		name := sectionName(s)
		if s.DataType == fbschema.DataTypeTFLiteModel {
			name = string(resolveModelKind(name))
		}
		key := sectionKey{dataType: s.DataType, name: name}
		if _, exists := r.index[key]; exists {
			r.warnings = append(r.warnings, fmt.Sprintf(
				"duplicate section for data_type=%d name=%q at index %d ignored (first match wins)",
				key.dataType, key.name, i))
			continue
		}
		r.index[key] = i
	}
}

func sectionName(s fbschema.Section) string {
	for _, kv := range s.Items {
		if kv.Key == "name" && kv.Value.Kind == fbschema.ValueString {
			return kv.Value.Str
		}
	}
	return ""
}

// Warnings returns recoverable anomalies found while indexing the archive
// (e.g. duplicate sections).
func (r *Reader) Warnings() []string { return r.warnings }

// Version reports the archive's format version.
func (r *Reader) Version() Version { return r.version }

// NumSections returns how many sections the archive contains.
func (r *Reader) NumSections() int { return len(r.header.Sections) }

// Section returns the parsed section descriptor at idx.
func (r *Reader) Section(idx int) (fbschema.Section, error) {
	if idx < 0 || idx >= len(r.header.Sections) {
		return fbschema.Section{}, litertlmerr.New(litertlmerr.InvalidArgument,
			"container.Reader.Section", "section index %d out of range [0,%d)", idx, len(r.header.Sections))
	}
	return r.header.Sections[idx], nil
}

// SystemMetadata returns the archive-level key/value pairs.
func (r *Reader) SystemMetadata() []fbschema.KeyValuePair { return r.header.SystemMetadata }

// bytesForSection returns the raw payload bytes for section idx, which may
// still be zlib-framed (callers of the Get* helpers below handle that).
func (r *Reader) bytesForSection(idx int) ([]byte, error) {
	s, err := r.Section(idx)
	if err != nil {
		return nil, err
	}
	data := r.view.Bytes()
	if s.EndOffset > uint64(len(data)) || s.BeginOffset > s.EndOffset {
		return nil, litertlmerr.New(litertlmerr.DataLoss, "container.Reader.bytesForSection",
			"section %d range [%d,%d) exceeds file size %d", idx, s.BeginOffset, s.EndOffset, len(data))
	}
	return data[s.BeginOffset:s.EndOffset], nil
}

// sectionView returns a cloned, independently-owned View scoped to section
// idx's byte range, so the returned handle remains valid after Reader.Close
// unmaps the rest of the archive.
func (r *Reader) sectionView(idx int) (*mmap.View, error) {
	s, err := r.Section(idx)
	if err != nil {
		return nil, err
	}
	data := r.view.Bytes()
	if s.EndOffset > uint64(len(data)) || s.BeginOffset > s.EndOffset {
		return nil, litertlmerr.New(litertlmerr.DataLoss, "container.Reader.sectionView",
			"section %d range [%d,%d) exceeds file size %d", idx, s.BeginOffset, s.EndOffset, len(data))
	}
	return r.view.Slice(int(s.BeginOffset), int(s.EndOffset-s.BeginOffset))
}

// GetTFLiteModel returns a shared-ownership view of the TFLite payload for
// the given model kind, resolved per the "name" metadata convention
// described in buildIndex/resolveModelKind. Unlike GetTFLiteModelFromSection,
// the returned View is cloned off the reader's mapping, so a caller that
// keeps it (e.g. to hand off to an inference runtime) may call Reader.Close
// first without the bytes going stale.
func (r *Reader) GetTFLiteModel(kind ModelKind) (*mmap.View, error) {
	idx, ok := r.index[sectionKey{dataType: fbschema.DataTypeTFLiteModel, name: string(kind)}]
	if !ok {
		return nil, litertlmerr.New(litertlmerr.NotFound, "container.Reader.GetTFLiteModel",
			"no TFLite section for model kind %q", kind)
	}
	return r.sectionView(idx)
}

func (r *Reader) firstIndexOf(dataType fbschema.AnySectionDataType) (int, bool) {
	for i, s := range r.header.Sections {
		if s.DataType == dataType {
			return i, true
		}
	}
	return 0, false
}

// GetSectionRange returns the byte range of section idx within the file.
func (r *Reader) GetSectionRange(idx int) (begin, end uint64, err error) {
	s, err := r.Section(idx)
	if err != nil {
		return 0, 0, err
	}
	return s.BeginOffset, s.EndOffset, nil
}

// GetTFLiteModelFromSection returns the raw TFLite flatbuffer bytes at idx.
func (r *Reader) GetTFLiteModelFromSection(idx int) ([]byte, error) {
	s, err := r.Section(idx)
	if err != nil {
		return nil, err
	}
	if s.DataType != fbschema.DataTypeTFLiteModel {
		return nil, litertlmerr.New(litertlmerr.InvalidArgument, "container.Reader.GetTFLiteModelFromSection",
			"section %d is not a TFLite model (data_type=%d)", idx, s.DataType)
	}
	return r.bytesForSection(idx)
}

// GetAnyTFLiteModel returns the first TFLite section's bytes, convenient
// when the caller knows there's exactly one.
func (r *Reader) GetAnyTFLiteModel() ([]byte, error) {
	idx, ok := r.firstIndexOf(fbschema.DataTypeTFLiteModel)
	if !ok {
		return nil, litertlmerr.New(litertlmerr.NotFound, "container.Reader.GetAnyTFLiteModel", "no TFLite section present")
	}
	return r.GetTFLiteModelFromSection(idx)
}

// GetLLMMetadataFromSection returns the raw (possibly still proto-encoded)
// bytes of the LlmMetadata section at idx.
func (r *Reader) GetLLMMetadataFromSection(idx int) ([]byte, error) {
	s, err := r.Section(idx)
	if err != nil {
		return nil, err
	}
	if s.DataType != fbschema.DataTypeLlmMetadataProto {
		return nil, litertlmerr.New(litertlmerr.InvalidArgument, "container.Reader.GetLLMMetadataFromSection",
			"section %d is not LlmMetadata (data_type=%d)", idx, s.DataType)
	}
	return r.bytesForSection(idx)
}

// GetAnyLLMMetadata returns the first LlmMetadata section's raw bytes.
func (r *Reader) GetAnyLLMMetadata() ([]byte, error) {
	idx, ok := r.firstIndexOf(fbschema.DataTypeLlmMetadataProto)
	if !ok {
		return nil, litertlmerr.New(litertlmerr.NotFound, "container.Reader.GetAnyLLMMetadata", "no LlmMetadata section present")
	}
	return r.GetLLMMetadataFromSection(idx)
}

// GetSentencePieceTokenizerFromSection returns the SentencePiece model bytes
// at idx.
func (r *Reader) GetSentencePieceTokenizerFromSection(idx int) ([]byte, error) {
	s, err := r.Section(idx)
	if err != nil {
		return nil, err
	}
	if s.DataType != fbschema.DataTypeSPTokenizer {
		return nil, litertlmerr.New(litertlmerr.InvalidArgument, "container.Reader.GetSentencePieceTokenizerFromSection",
			"section %d is not an SP tokenizer (data_type=%d)", idx, s.DataType)
	}
	return r.bytesForSection(idx)
}

// GetAnySentencePieceTokenizer returns the first SentencePiece section's bytes.
func (r *Reader) GetAnySentencePieceTokenizer() ([]byte, error) {
	idx, ok := r.firstIndexOf(fbschema.DataTypeSPTokenizer)
	if !ok {
		return nil, litertlmerr.New(litertlmerr.NotFound, "container.Reader.GetAnySentencePieceTokenizer", "no SP tokenizer section present")
	}
	return r.GetSentencePieceTokenizerFromSection(idx)
}

// GetHuggingFaceTokenizerFromSection returns the tokenizer.json bytes at
// idx, decompressing if the section was written zlib-wrapped.
func (r *Reader) GetHuggingFaceTokenizerFromSection(idx int) ([]byte, error) {
	raw, err := r.bytesForSection(idx)
	if err != nil {
		return nil, err
	}
	s, _ := r.Section(idx)
	if s.DataType != fbschema.DataTypeHFTokenizerZlib {
		return raw, nil
	}
	return section.Decompress(raw)
}

// GetAnyHuggingFaceTokenizer returns the first HF tokenizer section's bytes.
func (r *Reader) GetAnyHuggingFaceTokenizer() ([]byte, error) {
	idx, ok := r.firstIndexOf(fbschema.DataTypeHFTokenizerZlib)
	if !ok {
		return nil, litertlmerr.New(litertlmerr.NotFound, "container.Reader.GetAnyHuggingFaceTokenizer", "no HF tokenizer section present")
	}
	return r.GetHuggingFaceTokenizerFromSection(idx)
}

// GetGenericBinaryFromSection returns the raw bytes of a generic-binary
// section at idx.
func (r *Reader) GetGenericBinaryFromSection(idx int) ([]byte, error) {
	s, err := r.Section(idx)
	if err != nil {
		return nil, err
	}
	if s.DataType != fbschema.DataTypeGenericBinaryData {
		return nil, litertlmerr.New(litertlmerr.InvalidArgument, "container.Reader.GetGenericBinaryFromSection",
			"section %d is not generic binary data (data_type=%d)", idx, s.DataType)
	}
	return r.bytesForSection(idx)
}

// GetAnyGenericBinary returns the first generic-binary section's bytes.
func (r *Reader) GetAnyGenericBinary() ([]byte, error) {
	idx, ok := r.firstIndexOf(fbschema.DataTypeGenericBinaryData)
	if !ok {
		return nil, litertlmerr.New(litertlmerr.NotFound, "container.Reader.GetAnyGenericBinary", "no generic binary section present")
	}
	return r.GetGenericBinaryFromSection(idx)
}

// Close releases the underlying memory mapping.
func (r *Reader) Close() error { return r.view.Close() }
