// Package fbschema encodes and decodes the FlatBuffers header payload that
// sits between byte offset 32 and header_end_offset in a LiteRTLM archive.
// There is no .fbs-generated code here: the table layouts are small and
// fixed, so they're built and read directly against the flatbuffers runtime
// package, the same way a handful of generated-code files would look once
// compiled.
package fbschema

import (
	flatbuffers "github.com/google/flatbuffers/go"

	"github.com/litert-lm/litertlm-go/internal/litertlmerr"
)

// AnySectionDataType mirrors the archive's section-kind union discriminant.
type AnySectionDataType int8

const (
	DataTypeNone              AnySectionDataType = 0
	DataTypeDeprecated        AnySectionDataType = 1
	DataTypeTFLiteModel       AnySectionDataType = 2
	DataTypeSPTokenizer       AnySectionDataType = 3
	DataTypeLlmMetadataProto  AnySectionDataType = 4
	DataTypeGenericBinaryData AnySectionDataType = 5
	DataTypeHFTokenizerZlib   AnySectionDataType = 6
)

// ValueKind discriminates the VData union carried by each KeyValuePair.
type ValueKind int8

const (
	ValueNone ValueKind = iota
	ValueString
	ValueInt32
	ValueInt64
	ValueUInt32
	ValueUInt64
	ValueFloat32
	ValueBool
)

// Value is a Go-native stand-in for the VData union; exactly one field is
// meaningful, selected by Kind.
type Value struct {
	Kind ValueKind
	Str  string
	I32  int32
	I64  int64
	U32  uint32
	U64  uint64
	F32  float32
	Bool bool
}

func StringValue(s string) Value   { return Value{Kind: ValueString, Str: s} }
func Int32Value(v int32) Value     { return Value{Kind: ValueInt32, I32: v} }
func Int64Value(v int64) Value     { return Value{Kind: ValueInt64, I64: v} }
func UInt32Value(v uint32) Value   { return Value{Kind: ValueUInt32, U32: v} }
func UInt64Value(v uint64) Value   { return Value{Kind: ValueUInt64, U64: v} }
func Float32Value(v float32) Value { return Value{Kind: ValueFloat32, F32: v} }
func BoolValue(v bool) Value       { return Value{Kind: ValueBool, Bool: v} }

// KeyValuePair is the header's sole metadata carrier, attached both to the
// root (system metadata) and to each section.
type KeyValuePair struct {
	Key   string
	Value Value
}

// Section describes one payload region: its byte range in the file and the
// metadata items recorded for it.
type Section struct {
	Items       []KeyValuePair
	BeginOffset uint64
	EndOffset   uint64
	DataType    AnySectionDataType
}

// Header is the root FlatBuffers table, LiteRTLMMetaData.
type Header struct {
	SystemMetadata []KeyValuePair
	Sections       []Section
}

// --- encode ---

// wrapScalar builds the one-field wrapper table flatbuffers requires for a
// union member that isn't itself a table or string, returning its offset.
func wrapScalar(b *flatbuffers.Builder, v Value) flatbuffers.UOffsetT {
	switch v.Kind {
	case ValueInt32:
		b.StartObject(1)
		b.PrependInt32Slot(0, v.I32, 0)
		return b.EndObject()
	case ValueInt64:
		b.StartObject(1)
		b.PrependInt64Slot(0, v.I64, 0)
		return b.EndObject()
	case ValueUInt32:
		b.StartObject(1)
		b.PrependUint32Slot(0, v.U32, 0)
		return b.EndObject()
	case ValueUInt64:
		b.StartObject(1)
		b.PrependUint64Slot(0, v.U64, 0)
		return b.EndObject()
	case ValueFloat32:
		b.StartObject(1)
		b.PrependFloat32Slot(0, v.F32, 0)
		return b.EndObject()
	case ValueBool:
		b.StartObject(1)
		b.PrependBoolSlot(0, v.Bool, false)
		return b.EndObject()
	default:
		return 0
	}
}

func buildKeyValuePair(b *flatbuffers.Builder, kv KeyValuePair) flatbuffers.UOffsetT {
	var valueOff flatbuffers.UOffsetT
	switch kv.Value.Kind {
	case ValueString:
		valueOff = b.CreateString(kv.Value.Str)
	case ValueNone:
		valueOff = 0
	default:
		valueOff = wrapScalar(b, kv.Value)
	}
	keyOff := b.CreateString(kv.Key)

	b.StartObject(3)
	b.PrependUOffsetTSlot(0, keyOff, 0)
	b.PrependByteSlot(1, byte(kv.Value.Kind), 0)
	if valueOff != 0 {
		b.PrependUOffsetTSlot(2, valueOff, 0)
	}
	return b.EndObject()
}

func buildKeyValuePairVector(b *flatbuffers.Builder, items []KeyValuePair) flatbuffers.UOffsetT {
	offs := make([]flatbuffers.UOffsetT, len(items))
	for i, kv := range items {
		offs[i] = buildKeyValuePair(b, kv)
	}
	b.StartVector(4, len(offs), 4)
	for i := len(offs) - 1; i >= 0; i-- {
		b.PrependUOffsetT(offs[i])
	}
	return b.EndVector(len(offs))
}

func buildSection(b *flatbuffers.Builder, s Section) flatbuffers.UOffsetT {
	itemsOff := buildKeyValuePairVector(b, s.Items)

	b.StartObject(4)
	b.PrependUOffsetTSlot(0, itemsOff, 0)
	b.PrependUint64Slot(1, s.BeginOffset, 0)
	b.PrependUint64Slot(2, s.EndOffset, 0)
	b.PrependInt8Slot(3, int8(s.DataType), 0)
	return b.EndObject()
}

// Encode serializes h as a finished FlatBuffers buffer.
func Encode(h Header) []byte {
	b := flatbuffers.NewBuilder(1024)

	sectionOffs := make([]flatbuffers.UOffsetT, len(h.Sections))
	for i, s := range h.Sections {
		sectionOffs[i] = buildSection(b, s)
	}
	b.StartVector(4, len(sectionOffs), 4)
	for i := len(sectionOffs) - 1; i >= 0; i-- {
		b.PrependUOffsetT(sectionOffs[i])
	}
	sectionsVec := b.EndVector(len(sectionOffs))

	systemOff := buildKeyValuePairVector(b, h.SystemMetadata)

	b.StartObject(2)
	b.PrependUOffsetTSlot(0, systemOff, 0)
	b.PrependUOffsetTSlot(1, sectionsVec, 0)
	root := b.EndObject()

	b.Finish(root)
	return b.FinishedBytes()
}

// --- decode ---

func readKeyValuePair(t *flatbuffers.Table) KeyValuePair {
	kv := KeyValuePair{}

	if o := t.Offset(4); o != 0 { // field 0: key
		kv.Key = string(t.ByteVector(o + t.Pos))
	}

	var kind byte
	if o := t.Offset(6); o != 0 { // field 1: value_type
		kind = t.GetByte(o + t.Pos)
	}
	kv.Value.Kind = ValueKind(kind)

	if o := t.Offset(8); o != 0 { // field 2: value
		switch kv.Value.Kind {
		case ValueString:
			kv.Value.Str = string(t.ByteVector(o + t.Pos))
		case ValueInt32, ValueInt64, ValueUInt32, ValueUInt64, ValueFloat32, ValueBool:
			valuePos := t.Indirect(o + t.Pos)
			wrapper := &flatbuffers.Table{Bytes: t.Bytes, Pos: valuePos}
			if fo := wrapper.Offset(4); fo != 0 {
				base := fo + wrapper.Pos
				switch kv.Value.Kind {
				case ValueInt32:
					kv.Value.I32 = wrapper.GetInt32(base)
				case ValueInt64:
					kv.Value.I64 = wrapper.GetInt64(base)
				case ValueUInt32:
					kv.Value.U32 = wrapper.GetUint32(base)
				case ValueUInt64:
					kv.Value.U64 = wrapper.GetUint64(base)
				case ValueFloat32:
					kv.Value.F32 = wrapper.GetFloat32(base)
				case ValueBool:
					kv.Value.Bool = wrapper.GetBool(base)
				}
			}
		}
	}
	return kv
}

func readKeyValuePairVector(t *flatbuffers.Table, vtableOffset flatbuffers.VOffsetT) []KeyValuePair {
	o := t.Offset(vtableOffset)
	if o == 0 {
		return nil
	}
	vecPos := t.Vector(o + t.Pos)
	n := t.VectorLen(o + t.Pos)
	items := make([]KeyValuePair, n)
	for i := 0; i < n; i++ {
		elemPos := vecPos + flatbuffers.UOffsetT(i)*4
		indirect := t.Indirect(elemPos)
		elem := &flatbuffers.Table{Bytes: t.Bytes, Pos: indirect}
		items[i] = readKeyValuePair(elem)
	}
	return items
}

func readSection(t *flatbuffers.Table) Section {
	s := Section{}
	s.Items = readKeyValuePairVector(t, 4) // field 0

	if o := t.Offset(6); o != 0 { // field 1: begin_offset
		s.BeginOffset = t.GetUint64(o + t.Pos)
	}
	if o := t.Offset(8); o != 0 { // field 2: end_offset
		s.EndOffset = t.GetUint64(o + t.Pos)
	}
	if o := t.Offset(10); o != 0 { // field 3: data_type
		s.DataType = AnySectionDataType(t.GetInt8(o + t.Pos))
	}
	return s
}

// Decode parses a finished FlatBuffers buffer produced by Encode.
func Decode(buf []byte) (*Header, error) {
	if len(buf) < 4 {
		return nil, litertlmerr.New(litertlmerr.InvalidFormat, "fbschema.Decode",
			"buffer too short to contain a root offset: %d bytes", len(buf))
	}
	rootOff := flatbuffers.GetUOffsetT(buf)
	root := &flatbuffers.Table{Bytes: buf, Pos: rootOff}

	h := &Header{}
	h.SystemMetadata = readKeyValuePairVector(root, 4) // field 0

	if o := root.Offset(6); o != 0 { // field 1: section_metadata
		vecPos := root.Vector(o + root.Pos)
		n := root.VectorLen(o + root.Pos)
		h.Sections = make([]Section, n)
		for i := 0; i < n; i++ {
			elemPos := vecPos + flatbuffers.UOffsetT(i)*4
			indirect := root.Indirect(elemPos)
			elem := &flatbuffers.Table{Bytes: root.Bytes, Pos: indirect}
			h.Sections[i] = readSection(elem)
		}
	}
	return h, nil
}
