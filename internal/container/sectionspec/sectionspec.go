// Package sectionspec parses the writer CLI's --section_metadata flag and
// dispatches input files to a section kind by extension, mirroring the
// grammar and priority rules of the original writer's flag parser.
package sectionspec

import (
	"path/filepath"
	"strconv"
	"strings"

	"github.com/litert-lm/litertlm-go/internal/container/fbschema"
	"github.com/litert-lm/litertlm-go/internal/litertlmerr"
)

// Section names used in the --section_metadata flag, matching the writer's
// filename-derived defaults.
const (
	NameTokenizer      = "tokenizer"
	NameTFLite         = "tflite"
	NameLlmMetadata    = "llm_metadata"
	NameBinaryData     = "binary_data"
	NameHFTokenizerZlib = "hf_tokenizer_zlib"
)

// Kind describes how an input file's extension maps to a section: its
// flatbuffers data type, the default metadata name, and whether the file's
// bytes should be zlib-wrapped before writing.
type Kind struct {
	DataType fbschema.AnySectionDataType
	Name     string
	Zlib     bool
	// TextProto is set for the .pbtext/.prototext variants, which the
	// caller must render through a text-format proto parser before
	// treating as binary LlmMetadata bytes.
	TextProto bool
}

// KindForFile classifies filename by extension, following the writer's
// dispatch table: unrecognized extensions fall back to GenericBinaryData
// rather than failing. A .json file other than tokenizer.json is rejected
// with InvalidArgument.
func KindForFile(filename string) (Kind, error) {
	base := filepath.Base(filename)
	ext := filepath.Ext(base)

	switch {
	case ext == ".tflite":
		return Kind{DataType: fbschema.DataTypeTFLiteModel, Name: NameTFLite}, nil
	case ext == ".pb" || ext == ".proto":
		return Kind{DataType: fbschema.DataTypeLlmMetadataProto, Name: NameLlmMetadata}, nil
	case ext == ".pbtext" || ext == ".prototext":
		return Kind{DataType: fbschema.DataTypeLlmMetadataProto, Name: NameLlmMetadata, TextProto: true}, nil
	case ext == ".spiece":
		return Kind{DataType: fbschema.DataTypeSPTokenizer, Name: NameTokenizer}, nil
	case strings.HasSuffix(base, "tokenizer.json"):
		return Kind{DataType: fbschema.DataTypeHFTokenizerZlib, Name: NameHFTokenizerZlib, Zlib: true}, nil
	case ext == ".json":
		return Kind{}, litertlmerr.New(litertlmerr.InvalidArgument, "sectionspec.KindForFile",
			"unsupported JSON file %q: only tokenizer.json is recognized", filename)
	default:
		return Kind{DataType: fbschema.DataTypeGenericBinaryData, Name: NameBinaryData}, nil
	}
}

// Spec is one ';'-separated entry of --section_metadata: a section name and
// its ordered key=value pairs.
type Spec struct {
	Name  string
	Items []fbschema.KeyValuePair
}

// Parse validates and decodes the --section_metadata flag against the
// section names derived from the input file list (in order), returning one
// Spec per input file. An empty flag value yields a Spec with no Items per
// file and skips the order/count check entirely.
func Parse(flagValue string, fileSectionNames []string) ([]Spec, error) {
	if flagValue == "" {
		specs := make([]Spec, len(fileSectionNames))
		for i, name := range fileSectionNames {
			specs[i] = Spec{Name: name}
		}
		return specs, nil
	}

	parts := strings.Split(flagValue, ";")
	if len(parts) != len(fileSectionNames) {
		return nil, litertlmerr.New(litertlmerr.InvalidArgument, "sectionspec.Parse",
			"mismatch in number of sections between input files (%d) and section_metadata (%d)",
			len(fileSectionNames), len(parts))
	}

	specs := make([]Spec, len(parts))
	for i, part := range parts {
		nameAndKVs := strings.SplitN(part, ":", 2)
		if len(nameAndKVs) != 2 {
			return nil, litertlmerr.New(litertlmerr.InvalidArgument, "sectionspec.Parse",
				"invalid section metadata format %q: expected 'section_name:key1=value1,...'", part)
		}
		name := nameAndKVs[0]
		if name != fileSectionNames[i] {
			return nil, litertlmerr.New(litertlmerr.InvalidArgument, "sectionspec.Parse",
				"order mismatch at index %d: filename implies section %q, section_metadata says %q",
				i, fileSectionNames[i], name)
		}

		spec := Spec{Name: name}
		if kvStr := nameAndKVs[1]; kvStr != "" {
			for _, kv := range strings.Split(kvStr, ",") {
				if kv == "" {
					continue
				}
				key, value, err := parseKeyValuePair(kv)
				if err != nil {
					return nil, litertlmerr.Wrap(litertlmerr.InvalidArgument, "sectionspec.Parse", err)
				}
				spec.Items = append(spec.Items, fbschema.KeyValuePair{Key: key, Value: ConvertValue(value)})
			}
		}
		specs[i] = spec
	}
	return specs, nil
}

func parseKeyValuePair(s string) (key, value string, err error) {
	parts := strings.SplitN(s, "=", 2)
	if len(parts) != 2 {
		return "", "", litertlmerr.New(litertlmerr.InvalidArgument, "sectionspec.parseKeyValuePair",
			"invalid key-value pair %q", s)
	}
	return parts[0], parts[1], nil
}

// ConvertValue infers value's type in the same priority order as the
// writer's ConvertKeyValue: int32, int64, uint32, uint64, float32, bool,
// then string as the catch-all.
func ConvertValue(value string) fbschema.Value {
	if v, err := strconv.ParseInt(value, 10, 32); err == nil {
		return fbschema.Int32Value(int32(v))
	}
	if v, err := strconv.ParseInt(value, 10, 64); err == nil {
		return fbschema.Int64Value(v)
	}
	if v, err := strconv.ParseUint(value, 10, 32); err == nil {
		return fbschema.UInt32Value(uint32(v))
	}
	if v, err := strconv.ParseUint(value, 10, 64); err == nil {
		return fbschema.UInt64Value(v)
	}
	if v, err := strconv.ParseFloat(value, 32); err == nil {
		return fbschema.Float32Value(float32(v))
	}
	if value == "true" || value == "false" {
		return fbschema.BoolValue(value == "true")
	}
	return fbschema.StringValue(value)
}
