// Package jsonschema compiles a JSON Schema document's `type` keyword into
// the same byte-level automaton the regex and lark packages build, so a
// schema like `{"type":"string"}` can constrain decoding the same way a
// hand-written regex or grammar does. Schema composition (properties,
// object/array structure, $ref, oneOf, …) is out of scope — see DESIGN.md.
package jsonschema

import (
	"fmt"

	"github.com/litert-lm/litertlm-go/internal/decode/constraintapi"
	"github.com/litert-lm/litertlm-go/internal/decode/regex"
	"github.com/litert-lm/litertlm-go/internal/toolcompile"
)

// Compile parses schemaJSON and builds an Engine that accepts exactly the
// primitive values its `type` keyword describes.
func Compile(schemaJSON string, tok constraintapi.Tokenizer, eos uint32) (constraintapi.Engine, error) {
	v, err := toolcompile.ParseOrdered([]byte(schemaJSON))
	if err != nil {
		return nil, fmt.Errorf("parse schema: %w", err)
	}
	pattern, err := patternFor(v)
	if err != nil {
		return nil, err
	}
	return regex.CompileString(pattern, tok, eos)
}

// patternFor maps a schema's `type` to the regex a JSON value of that type
// matches. Strings are delimited by real `"` characters, not the
// <escape>-tag convention the FC/Lark formats use, since a JSON-schema
// constraint produces actual JSON text.
func patternFor(schema toolcompile.Value) (string, error) {
	if schema.Kind != toolcompile.KindObject {
		return "", fmt.Errorf("schema must be a JSON object")
	}
	t, ok := schema.Get("type")
	if !ok || t.Kind != toolcompile.KindString {
		return "", fmt.Errorf(`schema must have a string "type" field`)
	}
	switch t.Str {
	case "string":
		return `"[^"]*"`, nil
	case "boolean":
		return `true|false`, nil
	case "integer":
		return `-?[0-9]+`, nil
	case "number":
		return `-?[0-9]+(\.[0-9]+)?`, nil
	case "null":
		return `null`, nil
	default:
		return "", fmt.Errorf("unsupported schema type %q", t.Str)
	}
}
