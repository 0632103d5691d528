package repl

import (
	"reflect"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"

	ppxbuiltin "github.com/ardnew/ppx/builtin"
)

// exprLangBuiltins defines signatures for expr-lang's builtin functions.
// Source: https://expr-lang.org/docs/language-definition
var exprLangBuiltins = map[string]struct {
	signature string
	params    []string
}{
	"len":       {"len(v)", []string{"v"}},
	"all":       {"all(array, predicate)", []string{"array", "predicate"}},
	"any":       {"any(array, predicate)", []string{"array", "predicate"}},
	"none":      {"none(array, predicate)", []string{"array", "predicate"}},
	"map":       {"map(array, mapper)", []string{"array", "mapper"}},
	"filter":    {"filter(array, predicate)", []string{"array", "predicate"}},
	"count":     {"count(array, predicate)", []string{"array", "predicate"}},
	"sum":       {"sum(array)", []string{"array"}},
	"min":       {"min(array)", []string{"array"}},
	"max":       {"max(array)", []string{"array"}},
	"join":      {"join(array, separator)", []string{"array", "separator"}},
	"split":     {"split(string, separator)", []string{"string", "separator"}},
	"replace":   {"replace(string, old, new)", []string{"string", "old", "new"}},
	"trim":      {"trim(string)", []string{"string"}},
	"upper":     {"upper(string)", []string{"string"}},
	"lower":     {"lower(string)", []string{"string"}},
	"repeat":    {"repeat(string, n)", []string{"string", "n"}},
	"int":       {"int(v)", []string{"v"}},
	"float":     {"float(v)", []string{"v"}},
	"string":    {"string(v)", []string{"v"}},
	"hasPrefix": {"hasPrefix(string, prefix)", []string{"string", "prefix"}},
	"hasSuffix": {"hasSuffix(string, suffix)", []string{"string", "suffix"}},
	"env":       {"env(name)", []string{"name"}},
}

// statementSignatures lists the syntax of every statement keyword. Words in
// upper case are parameters, the others are literal.
var statementSignatures = map[string][]string{
	"set":     {"NAME", "=", "EXPR"},
	"let":     {"NAME", "=", "EXPR"},
	"append":  {"NAME", "EXPR"},
	"unset":   {"NAME"},
	"exec":    {"EXPR"},
	"output":  {"[EXPR]"},
	"for":     {"NAME", "in", "EXPR"},
	"collect": {"NAME"},
	"end":     {},
}

var (
	syntaxStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	syntaxNameStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("6")).Bold(true)
	syntaxParamStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
)

// functionCall represents a detected function call in the input.
type functionCall struct {
	name     string // function name
	argIndex int    // current argument index (0-based)
	inCall   bool   // true if cursor is inside parameter list
}

// detectFunctionCall analyzes the input to determine if the cursor is inside
// a function call's parameter list.
func detectFunctionCall(input string, cursor int) functionCall {
	cursor = min(cursor, len(input))

	// Scan backward for the unmatched '(' before the cursor.
	open, depth := -1, 0

	for i := cursor - 1; i >= 0 && open < 0; i-- {
		switch input[i] {
		case ')':
			depth++
		case '(':
			if depth == 0 {
				open = i
			}

			depth--
		}
	}

	if open < 0 {
		return functionCall{}
	}

	start := open

	for start > 0 {
		r, size := utf8.DecodeLastRuneInString(input[:start])
		if r != '_' && r != '.' &&
			(r < 'a' || r > 'z') && (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			break
		}

		start -= size
	}

	name := input[start:open]
	if name == "" {
		return functionCall{}
	}

	// Count commas at depth 0 in the parameter list.
	arg := 0
	depth = 0

	for i := open + 1; i < cursor; i++ {
		switch input[i] {
		case '(', '[':
			depth++
		case ')', ']':
			depth--
		case ',':
			if depth == 0 {
				arg++
			}
		}
	}

	return functionCall{name: name, argIndex: arg, inCall: true}
}

// getSignature returns the signature of an expr-lang builtin function or a
// function of the expr environment.
// Returns empty string if the function is not found.
func getSignature(name string) (signature string, params []string) {
	if b, ok := exprLangBuiltins[name]; ok {
		return b.signature, b.params
	}

	t, ok := ppxbuiltin.ExprFunc(name)
	if !ok {
		return "", nil
	}

	params = make([]string, t.NumIn())

	for i := range params {
		if t.IsVariadic() && i == len(params)-1 {
			params[i] = "..." + formatTypeName(t.In(i).Elem())
		} else {
			params[i] = formatTypeName(t.In(i))
		}
	}

	return name + "(" + strings.Join(params, ", ") + ")", params
}

// formatTypeName converts a reflect.Type to a readable parameter name.
func formatTypeName(t reflect.Type) string {
	switch t.Kind() {
	case reflect.Func:
		return "func"
	case reflect.String:
		return "string"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return "int"
	case reflect.Float32, reflect.Float64:
		return "float"
	case reflect.Bool:
		return "bool"
	case reflect.Slice:
		return "array"
	case reflect.Map:
		return "map"
	case reflect.Pointer:
		return formatTypeName(t.Elem())
	default:
		return "arg"
	}
}

// statement represents a statement being typed in the input.
type statement struct {
	keyword  string
	argIndex int // parameter under the cursor, -1 while typing the keyword
}

// detectStatement reports the statement around the cursor, if the cursor is
// inside an unterminated "{%" directive that starts with a known keyword.
func detectStatement(input string, cursor int) (statement, bool) {
	cursor = min(cursor, len(input))
	head := input[:cursor]

	open := strings.LastIndex(head, "{%")
	if open < 0 || strings.Contains(head[open:], "%}") {
		return statement{}, false
	}

	body := head[open+2:]
	words := strings.Fields(body)

	if len(words) == 0 {
		return statement{}, false
	}

	sig, ok := statementSignatures[words[0]]
	if !ok {
		return statement{}, false
	}

	typing := !strings.HasSuffix(body, " ") && !strings.HasSuffix(body, "\t")

	if len(words) == 1 && typing {
		return statement{keyword: words[0], argIndex: -1}, true
	}

	// Literal words advance past their position, everything else fills the
	// next parameter. The last parameter absorbs the rest.
	arg := len(words) - 1
	if typing {
		arg--
	}

	params := 0
	for _, w := range sig {
		if isParam(w) {
			params++
		}
	}

	idx := 0

	for k := 0; k < arg && k < len(sig); k++ {
		if isParam(sig[k]) {
			idx++
		}
	}

	if params == 0 {
		idx = -1
	} else {
		idx = min(idx, params-1)
	}

	return statement{keyword: words[0], argIndex: idx}, true
}

func isParam(word string) bool {
	return strings.ToUpper(word) == word && strings.ToLower(word) != word
}

// highlight renders parts, setting apart the one at index current. Parts
// rejected by counts are not indexed.
func highlight(parts []string, current int, counts func(string) bool) []string {
	out := make([]string, len(parts))
	n := 0

	for i, p := range parts {
		style := syntaxStyle

		if counts(p) {
			if n == current {
				style = syntaxParamStyle
			}

			n++
		}

		out[i] = style.Render(p)
	}

	return out
}

// renderStatementHint renders the syntax of keyword with the parameter at
// index current highlighted.
func renderStatementHint(keyword string, current int) string {
	words := highlight(statementSignatures[keyword], current, isParam)

	return syntaxNameStyle.Render(keyword) + strings.Join(append([]string{""}, words...), " ")
}

// renderSignatureHint renders a function signature with the parameter at
// index current highlighted.
func renderSignatureHint(signature string, params []string, current int) string {
	name, _, ok := strings.Cut(signature, "(")

	switch {
	case signature == "":
		return ""
	case !ok:
		return syntaxStyle.Render(signature)
	}

	all := func(string) bool { return true }

	return syntaxNameStyle.Render(name) +
		syntaxStyle.Render("(") +
		strings.Join(highlight(params, current, all), syntaxStyle.Render(", ")) +
		syntaxStyle.Render(")")
}
