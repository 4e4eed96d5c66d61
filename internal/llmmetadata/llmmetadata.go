// Package llmmetadata encodes and decodes the LlmMetadata proto payload
// stored inside an LlmMetadataProto section. Rather than pull in a full
// protoc-generated message (there's no .proto/.pb.go for this schema in the
// retrieval pack to generate from), it speaks the wire format directly with
// google.golang.org/protobuf/encoding/protowire — the same package
// protoc-gen-go's output calls into under the hood.
package llmmetadata

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/litert-lm/litertlm-go/internal/litertlmerr"
)

// Token mirrors the source schema's TokenizerParameters.Token message: a
// token can be identified by numeric id, string spelling, or both.
type Token struct {
	TokenId  int64
	TokenStr string
}

const (
	fieldTokenId  = 1
	fieldTokenStr = 2

	fieldStartToken = 1
	fieldStopTokens = 2
)

func (t Token) marshalAppend(b []byte) []byte {
	if t.TokenId != 0 {
		b = protowire.AppendTag(b, fieldTokenId, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(t.TokenId))
	}
	if t.TokenStr != "" {
		b = protowire.AppendTag(b, fieldTokenStr, protowire.BytesType)
		b = protowire.AppendString(b, t.TokenStr)
	}
	return b
}

func unmarshalToken(data []byte) (Token, error) {
	var t Token
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return t, protowire.ParseError(n)
		}
		data = data[n:]
		switch num {
		case fieldTokenId:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return t, protowire.ParseError(n)
			}
			t.TokenId = int64(v)
			data = data[n:]
		case fieldTokenStr:
			v, n := protowire.ConsumeString(data)
			if n < 0 {
				return t, protowire.ParseError(n)
			}
			t.TokenStr = v
			data = data[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return t, protowire.ParseError(n)
			}
			data = data[n:]
		}
	}
	return t, nil
}

// LlmMetadata is the tokenizer-adjacent metadata embedded next to a model:
// the start-of-sequence token and the set of tokens that terminate
// generation.
type LlmMetadata struct {
	StartToken Token
	StopTokens []Token
}

// Marshal encodes m using proto3 wire rules: tag+length-delimited submessage
// for StartToken, repeated tag+length-delimited entries for StopTokens.
func (m LlmMetadata) Marshal() ([]byte, error) {
	var b []byte

	startBytes := m.StartToken.marshalAppend(nil)
	if len(startBytes) > 0 {
		b = protowire.AppendTag(b, fieldStartToken, protowire.BytesType)
		b = protowire.AppendBytes(b, startBytes)
	}

	for _, tok := range m.StopTokens {
		tokBytes := tok.marshalAppend(nil)
		b = protowire.AppendTag(b, fieldStopTokens, protowire.BytesType)
		b = protowire.AppendBytes(b, tokBytes)
	}

	return b, nil
}

// Unmarshal decodes data produced by Marshal (or the same wire shape written
// by the source runtime).
func Unmarshal(data []byte) (LlmMetadata, error) {
	var m LlmMetadata
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return m, litertlmerr.Wrap(litertlmerr.InvalidFormat, "llmmetadata.Unmarshal", protowire.ParseError(n))
		}
		data = data[n:]

		switch num {
		case fieldStartToken:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return m, litertlmerr.Wrap(litertlmerr.InvalidFormat, "llmmetadata.Unmarshal", protowire.ParseError(n))
			}
			tok, err := unmarshalToken(v)
			if err != nil {
				return m, litertlmerr.Wrap(litertlmerr.InvalidFormat, "llmmetadata.Unmarshal.StartToken", err)
			}
			m.StartToken = tok
			data = data[n:]
		case fieldStopTokens:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return m, litertlmerr.Wrap(litertlmerr.InvalidFormat, "llmmetadata.Unmarshal", protowire.ParseError(n))
			}
			tok, err := unmarshalToken(v)
			if err != nil {
				return m, litertlmerr.Wrap(litertlmerr.InvalidFormat, "llmmetadata.Unmarshal.StopTokens", err)
			}
			m.StopTokens = append(m.StopTokens, tok)
			data = data[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return m, litertlmerr.Wrap(litertlmerr.InvalidFormat, "llmmetadata.Unmarshal", protowire.ParseError(n))
			}
			data = data[n:]
		}
	}
	return m, nil
}

// StopTokenIds projects StopTokens down to the numeric ids a constraint
// factory needs for EOS inference.
func (m LlmMetadata) StopTokenIds() []uint32 {
	ids := make([]uint32, 0, len(m.StopTokens))
	for _, t := range m.StopTokens {
		if t.TokenId != 0 {
			ids = append(ids, uint32(t.TokenId))
		}
	}
	return ids
}

func (t Token) String() string {
	if t.TokenStr != "" {
		return fmt.Sprintf("%d(%q)", t.TokenId, t.TokenStr)
	}
	return fmt.Sprintf("%d", t.TokenId)
}
