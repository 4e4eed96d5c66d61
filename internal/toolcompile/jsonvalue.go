// Package toolcompile formats tool declarations (JSON Schema function
// specs) into the textual forms a model's prompt template embeds — the FC
// wire format and a Python function-signature rendering — and compiles a
// set of tool declarations into a grammar a decode.Engine can enforce.
package toolcompile

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Kind discriminates a parsed JSON value. Object/Array preserve source
// order, unlike a map[string]any built by the stdlib's default Unmarshal.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

// KV is one entry of an ordered JSON object.
type KV struct {
	Key   string
	Value Value
}

// Value is a JSON value that remembers the field order of any object it
// contains, since the FC and Python formatters emit fields in declaration
// order.
type Value struct {
	Kind   Kind
	Bool   bool
	Number json.Number
	Str    string
	Array  []Value
	Object []KV
}

// Get returns the value of key in an object, and whether it was present.
func (v Value) Get(key string) (Value, bool) {
	for _, kv := range v.Object {
		if kv.Key == key {
			return kv.Value, true
		}
	}
	return Value{}, false
}

// ParseOrdered parses data as a single JSON value, preserving object key
// order (needed since tool declarations are formatted field-by-field in
// the order the caller wrote them).
func ParseOrdered(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	v, err := parseValue(dec)
	if err != nil {
		return Value{}, err
	}
	return v, nil
}

func parseValue(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return Value{}, err
	}
	return parseToken(dec, tok)
}

func parseToken(dec *json.Decoder, tok json.Token) (Value, error) {
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			return parseObject(dec)
		case '[':
			return parseArray(dec)
		default:
			return Value{}, fmt.Errorf("unexpected delimiter %q", t)
		}
	case string:
		return Value{Kind: KindString, Str: t}, nil
	case json.Number:
		return Value{Kind: KindNumber, Number: t}, nil
	case bool:
		return Value{Kind: KindBool, Bool: t}, nil
	case nil:
		return Value{Kind: KindNull}, nil
	default:
		return Value{}, fmt.Errorf("unsupported JSON token %T", tok)
	}
}

func parseObject(dec *json.Decoder) (Value, error) {
	v := Value{Kind: KindObject}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return Value{}, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return Value{}, fmt.Errorf("object key was not a string: %v", keyTok)
		}
		val, err := parseValue(dec)
		if err != nil {
			return Value{}, err
		}
		v.Object = append(v.Object, KV{Key: key, Value: val})
	}
	if _, err := dec.Token(); err != nil { // consume '}'
		return Value{}, err
	}
	return v, nil
}

func parseArray(dec *json.Decoder) (Value, error) {
	v := Value{Kind: KindArray}
	for dec.More() {
		val, err := parseValue(dec)
		if err != nil {
			return Value{}, err
		}
		v.Array = append(v.Array, val)
	}
	if _, err := dec.Token(); err != nil { // consume ']'
		return Value{}, err
	}
	return v, nil
}
