package toolcompile

import (
	"fmt"
	"strings"
)

// jsonSchemaTypes is the set of `type` values FormatToolAsFc uppercases when
// it appears as a plain "type" string field inside a tool's parameter
// schema — matching the FC wire format's convention of shouting primitive
// type names.
var jsonSchemaTypes = map[string]bool{
	"string": true, "number": true, "integer": true,
	"object": true, "array": true, "boolean": true, "null": true,
}

// FormatValueAsFc renders v in the FC format: unquoted keys, strings
// wrapped in <escape> tags, everything else as its literal JSON spelling.
func FormatValueAsFc(v Value) (string, error) {
	var sb strings.Builder
	if err := writeValueAsFc(&sb, v, ""); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func writeValueAsFc(sb *strings.Builder, v Value, keyHint string) error {
	switch v.Kind {
	case KindString:
		s := v.Str
		if keyHint == "type" && jsonSchemaTypes[s] {
			s = strings.ToUpper(s)
		}
		sb.WriteString("<escape>")
		sb.WriteString(s)
		sb.WriteString("<escape>")
	case KindNumber:
		sb.WriteString(v.Number.String())
	case KindBool:
		if v.Bool {
			sb.WriteString("true")
		} else {
			sb.WriteString("false")
		}
	case KindNull:
		sb.WriteString("null")
	case KindArray:
		sb.WriteString("[")
		for i, elem := range v.Array {
			if i > 0 {
				sb.WriteString(",")
			}
			if err := writeValueAsFc(sb, elem, ""); err != nil {
				return err
			}
		}
		sb.WriteString("]")
	case KindObject:
		sb.WriteString("{")
		for i, kv := range v.Object {
			if i > 0 {
				sb.WriteString(",")
			}
			sb.WriteString(kv.Key)
			sb.WriteString(":")
			if err := writeValueAsFc(sb, kv.Value, kv.Key); err != nil {
				return err
			}
		}
		sb.WriteString("}")
	default:
		return fmt.Errorf("unsupported value kind %v", v.Kind)
	}
	return nil
}

// FormatToolAsFc renders a tool declaration as `declaration:NAME{ ... }`.
func FormatToolAsFc(tool Value) (string, error) {
	if tool.Kind != KindObject {
		return "", fmt.Errorf("tool must be a JSON object, got %v", kindName(tool.Kind))
	}
	name, ok := tool.Get("name")
	if !ok || name.Kind != KindString {
		return "", fmt.Errorf("tool name is required and must be a string")
	}

	var sb strings.Builder
	sb.WriteString("declaration:")
	sb.WriteString(name.Str)
	sb.WriteString("{")
	first := true
	for _, kv := range tool.Object {
		if kv.Key == "name" {
			continue
		}
		if !first {
			sb.WriteString(",")
		}
		first = false
		sb.WriteString(kv.Key)
		sb.WriteString(":")
		if err := writeValueAsFc(&sb, kv.Value, kv.Key); err != nil {
			return "", err
		}
	}
	sb.WriteString("}")
	return sb.String(), nil
}

func kindName(k Kind) string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "boolean"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "unknown"
	}
}
