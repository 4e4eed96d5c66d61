// Package lark compiles the three fixed grammar shapes produced by
// internal/toolcompile (TextOnly, FunctionCallsOnly, TextAndOrFunctionCalls)
// into the same byte-level automaton the regex package builds. It doesn't
// implement a general Lark parser — the original's llguidance engine does
// that over a full Lark+JSON-schema surface, which is out of scope here;
// only the restricted composition this repo's tool compiler emits is
// supported. See DESIGN.md.
package lark

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/litert-lm/litertlm-go/internal/decode/constraintapi"
	"github.com/litert-lm/litertlm-go/internal/decode/regex"
)

// Compile parses a grammar string emitted by toolcompile.FormatToolsAsLarkGrammar
// and builds an Engine for it.
//
// The grammar text follows a restricted shape: one or more `rule: body`
// lines, string literals in double quotes, a `/regex/` literal standing in
// for a whole body, `|` for alternation, and `rule1 rule2` for concatenation
// by reference. This is translated directly into an equivalent regular
// expression and handed to the regex package, rather than re-implementing
// automaton construction a second time.
func Compile(grammar string, tok constraintapi.Tokenizer, eos uint32) (constraintapi.Engine, error) {
	rules, order, err := parseRules(grammar)
	if err != nil {
		return nil, err
	}
	if len(order) == 0 {
		return nil, fmt.Errorf("grammar has no rules")
	}

	pattern, err := expandRule(order[0], rules, map[string]bool{})
	if err != nil {
		return nil, err
	}
	return regex.CompileString(pattern, tok, eos)
}

var ruleLineRE = regexp.MustCompile(`(?s)^\s*([a-zA-Z_][a-zA-Z0-9_]*)\s*:\s*(.+?)\s*$`)

func parseRules(grammar string) (map[string]string, []string, error) {
	rules := map[string]string{}
	var order []string
	for _, line := range strings.Split(grammar, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		m := ruleLineRE.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		name, body := m[1], m[2]
		if _, exists := rules[name]; !exists {
			order = append(order, name)
		}
		rules[name] = body
	}
	if len(rules) == 0 {
		return nil, nil, fmt.Errorf("no `name: body` rules found in grammar text")
	}
	return rules, order, nil
}

var tokenRE = regexp.MustCompile(`"(?:[^"\\]|\\.)*"|[a-zA-Z_][a-zA-Z0-9_]*|\||\(|\)`)

// regexLiteralRE matches a whole rule body written as a Lark regex literal,
// e.g. `/.*/ `. FormatToolsAsLarkGrammar emits exactly this for its `text`
// rule; the inner pattern is already valid regexp/syntax, so it's passed
// straight through instead of being re-tokenized as call syntax.
var regexLiteralRE = regexp.MustCompile(`^/(.*)/$`)

// expandRule turns one rule body into a regex fragment, inlining any
// identifier it references. visiting guards against accidental recursion,
// which a well-formed tool grammar never produces (its start rule only
// references rules whose bodies are /regex/ literals).
func expandRule(name string, rules map[string]string, visiting map[string]bool) (string, error) {
	if visiting[name] {
		return "", fmt.Errorf("cyclic grammar rule %q", name)
	}
	body, ok := rules[name]
	if !ok {
		return "", fmt.Errorf("undefined grammar rule %q", name)
	}
	visiting[name] = true
	defer delete(visiting, name)

	if m := regexLiteralRE.FindStringSubmatch(strings.TrimSpace(body)); m != nil {
		return "(?:" + m[1] + ")", nil
	}

	tokens := tokenRE.FindAllString(body, -1)
	var out strings.Builder
	for _, tok := range tokens {
		switch {
		case tok == "|":
			out.WriteString("|")
		case tok == "(" || tok == ")":
			out.WriteString(tok)
		case strings.HasPrefix(tok, `"`):
			out.WriteString(regexp.QuoteMeta(strings.Trim(tok, `"`)))
		default:
			sub, err := expandRule(tok, rules, visiting)
			if err != nil {
				return "", err
			}
			out.WriteString("(?:")
			out.WriteString(sub)
			out.WriteString(")")
		}
	}
	return out.String(), nil
}
