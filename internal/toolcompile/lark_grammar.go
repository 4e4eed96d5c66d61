package toolcompile

import (
	"fmt"
	"regexp"
	"strings"
)

// Mode selects which combination of free text and function calls a
// compiled grammar allows.
type Mode int

const (
	// TextOnly allows only free-form text. Its text rule is /.*/, which
	// matches any bytes, control tokens and function call syntax included.
	TextOnly Mode = iota
	// FunctionCallsOnly requires the output to be one function call.
	FunctionCallsOnly
	// TextAndOrFunctionCalls allows either, or text followed by a call.
	TextAndOrFunctionCalls
)

// ControlTokens names the five literal markers a grammar stitches around
// free text and function-call blocks: a code-fence pair bracketing the
// call, a quote pair bracketing string values inside it, and the marker
// that follows a call while the model waits for its result.
type ControlTokens struct {
	CodeFenceStart    string
	CodeFenceEnd      string
	OpenQuote         string
	CloseQuote        string
	FunctionRespStart string
}

// DefaultControlTokens are the runtime's compiled-in defaults.
var DefaultControlTokens = ControlTokens{
	CodeFenceStart:    "<start_function_call>",
	CodeFenceEnd:      "<end_function_call>",
	OpenQuote:         "<escape>",
	CloseQuote:        "<escape>",
	FunctionRespStart: "<start_function_response>",
}

// FormatToolsAsLarkGrammar synthesizes a Lark-like grammar text (consumed
// by internal/decode/lark) that accepts calls to any of tools, or free
// text, depending on mode. A function call is rendered as
// CodeFenceStart "call:" <tool name> <JSON object of real arguments>
// CodeFenceEnd FunctionRespStart, matching how the runtime actually emits
// and re-reads a call, rather than the tool's own schema declaration text.
// Free text is the rule /.*/, which does not exclude the control tokens, so
// only FunctionCallsOnly limits calls to the declared tools; TextOnly and
// TextAndOrFunctionCalls grammars accept any output.
func FormatToolsAsLarkGrammar(tools []Value, opts ControlTokens, mode Mode) (string, error) {
	if mode == TextAndOrFunctionCalls && len(tools) == 0 {
		mode = TextOnly
	}
	if mode != TextOnly && len(tools) == 0 {
		return "", fmt.Errorf("at least one tool is required for mode %v", mode)
	}

	var sb strings.Builder
	switch mode {
	case TextOnly:
		sb.WriteString("start: text\n")
		sb.WriteString(`text: /.*/` + "\n")

	case FunctionCallsOnly:
		pattern, err := functionCallPattern(tools, opts)
		if err != nil {
			return "", err
		}
		sb.WriteString("start: function_call\n")
		sb.WriteString("function_call: /" + pattern + "/\n")

	case TextAndOrFunctionCalls:
		pattern, err := functionCallPattern(tools, opts)
		if err != nil {
			return "", err
		}
		sb.WriteString("start: text | function_call | text function_call\n")
		sb.WriteString(`text: /.*/` + "\n")
		sb.WriteString("function_call: /" + pattern + "/\n")

	default:
		return "", fmt.Errorf("unknown mode %v", mode)
	}

	return sb.String(), nil
}

// functionCallPattern builds the single regex that a function-call block
// must match: CodeFenceStart "call:" TOOL_UNION object CodeFenceEnd
// FunctionRespStart, where TOOL_UNION alternates real tool names and
// object is a JSON value body (bare-identifier keys, OpenQuote/CloseQuote
// delimited strings) accepting real argument values. Nested objects
// aren't supported — the grammar this repo compiles to flattens to a
// single regular expression with no recursive rule nesting, so object
// values stop at one level of arrays of primitives; see DESIGN.md.
func functionCallPattern(tools []Value, opts ControlTokens) (string, error) {
	names := make([]string, len(tools))
	for i, tool := range tools {
		name, ok := tool.Get("name")
		if !ok || name.Kind != KindString || name.Str == "" {
			return "", fmt.Errorf("tool %d has no string name", i)
		}
		names[i] = regexp.QuoteMeta(name.Str)
	}
	toolUnion := "(?:" + strings.Join(names, "|") + ")"

	// String bodies stop at the closing quote's first byte rather than
	// doing a true substring exclusion, which a plain character class
	// can't express; fine for the default "<escape>" tokens and any
	// marker that doesn't otherwise occur inside argument values.
	quoteGuard := "<"
	if len(opts.CloseQuote) > 0 {
		quoteGuard = regexp.QuoteMeta(opts.CloseQuote[:1])
	}
	str := regexp.QuoteMeta(opts.OpenQuote) + "[^" + quoteGuard + "]*" + regexp.QuoteMeta(opts.CloseQuote)
	number := `-?[0-9]+(?:\.[0-9]+)?`
	primitive := "(?:" + str + "|" + number + "|true|false|null)"
	array := `\[(?:` + primitive + `(?:,` + primitive + `)*)?\]`
	value := "(?:" + primitive + "|" + array + ")"
	key := `[a-zA-Z_][a-zA-Z0-9_]*`
	pair := key + ":" + value
	object := `\{(?:` + pair + `(?:,` + pair + `)*)?\}`

	call := regexp.QuoteMeta(opts.CodeFenceStart) + "call:" + toolUnion + object + regexp.QuoteMeta(opts.CodeFenceEnd)
	return call + regexp.QuoteMeta(opts.FunctionRespStart), nil
}
