package toolcompile

import (
	"fmt"
	"strings"
)

// FormatValueAsPython renders v the way a Python literal of the same shape
// would print: true/false become True/False, null becomes None, objects
// without a "type" key become dicts, objects with one become a constructor
// call (used for JSON-Schema type nodes rendered inline).
func FormatValueAsPython(v Value) (string, error) {
	var sb strings.Builder
	if err := writeValueAsPython(&sb, v); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func writeValueAsPython(sb *strings.Builder, v Value) error {
	switch v.Kind {
	case KindString:
		sb.WriteString(fmt.Sprintf("%q", v.Str))
	case KindNumber:
		sb.WriteString(v.Number.String())
	case KindBool:
		if v.Bool {
			sb.WriteString("True")
		} else {
			sb.WriteString("False")
		}
	case KindNull:
		sb.WriteString("None")
	case KindArray:
		sb.WriteString("[")
		for i, elem := range v.Array {
			if i > 0 {
				sb.WriteString(", ")
			}
			if err := writeValueAsPython(sb, elem); err != nil {
				return err
			}
		}
		sb.WriteString("]")
	case KindObject:
		if _, hasType := v.Get("type"); hasType {
			return writeConstructorCall(sb, v)
		}
		sb.WriteString("{")
		for i, kv := range v.Object {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(fmt.Sprintf("%q: ", kv.Key))
			if err := writeValueAsPython(sb, kv.Value); err != nil {
				return err
			}
		}
		sb.WriteString("}")
	default:
		return fmt.Errorf("unsupported value kind %v", v.Kind)
	}
	return nil
}

func writeConstructorCall(sb *strings.Builder, v Value) error {
	typ, _ := v.Get("type")
	sb.WriteString(typ.Str)
	sb.WriteString("(")
	first := true
	for _, kv := range v.Object {
		if kv.Key == "type" {
			continue
		}
		if !first {
			sb.WriteString(", ")
		}
		first = false
		sb.WriteString(kv.Key)
		sb.WriteString("=")
		if err := writeValueAsPython(sb, kv.Value); err != nil {
			return err
		}
	}
	sb.WriteString(")")
	return nil
}

// pythonType maps a JSON Schema "type" to a Python type annotation.
func pythonType(schema Value) string {
	typeVal, ok := schema.Get("type")
	if !ok || typeVal.Kind != KindString {
		return "Any"
	}
	switch typeVal.Str {
	case "string":
		return "str"
	case "integer":
		return "int"
	case "number":
		return "float"
	case "boolean":
		return "bool"
	case "null":
		return "None"
	case "array":
		items, ok := schema.Get("items")
		if !ok {
			return "list"
		}
		return fmt.Sprintf("list[%s]", pythonType(items))
	case "object":
		return "dict"
	default:
		return "Any"
	}
}

// FormatToolAsPython renders a tool declaration as a Python function
// signature with a docstring summarizing each parameter, matching the shape
// a model was trained to read function declarations in.
func FormatToolAsPython(tool Value) (string, error) {
	if tool.Kind != KindObject {
		return "", fmt.Errorf("tool must be a JSON object, got %v", kindName(tool.Kind))
	}
	name, ok := tool.Get("name")
	if !ok || name.Kind != KindString {
		return "", fmt.Errorf("tool name is required and must be a string")
	}
	description, _ := tool.Get("description")

	params, _ := tool.Get("parameters")
	properties, _ := params.Get("properties")
	required := map[string]bool{}
	if req, ok := params.Get("required"); ok {
		for _, r := range req.Array {
			required[r.Str] = true
		}
	}

	var sb strings.Builder
	sb.WriteString("def ")
	sb.WriteString(name.Str)
	sb.WriteString("(\n")
	for _, kv := range properties.Object {
		sb.WriteString("    ")
		sb.WriteString(kv.Key)
		sb.WriteString(": ")
		typ := pythonType(kv.Value)
		if required[kv.Key] {
			sb.WriteString(typ)
		} else {
			sb.WriteString(typ)
			sb.WriteString(" | None = None")
		}
		sb.WriteString(",\n")
	}
	sb.WriteString(") -> dict:\n")
	sb.WriteString("  \"\"\"")
	sb.WriteString(description.Str)
	if len(properties.Object) > 0 {
		sb.WriteString("\n\n  Args:\n")
		for _, kv := range properties.Object {
			desc, _ := kv.Value.Get("description")
			sb.WriteString("    ")
			sb.WriteString(kv.Key)
			sb.WriteString(": ")
			sb.WriteString(desc.Str)
			sb.WriteString("\n")
		}
		sb.WriteString("  \"\"\"")
	} else {
		sb.WriteString("\n  \"\"\"")
	}
	return sb.String(), nil
}
