package repl

import (
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/expr-lang/expr/builtin"
	"github.com/sahilm/fuzzy"

	ppxbuiltin "github.com/ardnew/ppx/builtin"
)

// directive identifies the kind of directive enclosing the cursor.
type directive int

const (
	directiveNone directive = iota
	directiveEcho
	directiveStatement
	directiveExpr
)

var directiveDelims = []struct {
	open, close string
	kind        directive
}{
	{"{{", "}}", directiveEcho},
	{"{%", "%}", directiveStatement},
	{"{=", "=}", directiveExpr},
}

// enclosing returns the innermost unterminated directive opened before the
// cursor, and the byte offset just past its opening delimiter.
func enclosing(input string, cursor int) (directive, int) {
	head := input[:min(cursor, len(input))]

	kind, start := directiveNone, -1

	for _, d := range directiveDelims {
		open := strings.LastIndex(head, d.open)
		if open < 0 || strings.Contains(head[open+len(d.open):], d.close) {
			continue
		}

		if open > start {
			kind, start = d.kind, open+len(d.open)
		}
	}

	return kind, start
}

// isWordBoundary returns true if the rune is a word delimiter for completion
// purposes: whitespace, directive delimiters and operators.
func isWordBoundary(r rune) bool {
	switch r {
	case ' ', '\t', '"',
		'{', '}', '%', '=',
		'(', ')', '[', ']',
		'+', '-', '*', '/', '~',
		'<', '>', '!', '&', '|',
		',', '?', ':', ';', '.':
		return true
	}

	return false
}

// wordBounds returns the current word at the cursor position and its byte
// boundaries within input.
// Returns an empty word when the cursor sits on a boundary.
func wordBounds(input string, cursor int) (word string, start, end int) {
	cursor = min(cursor, len(input))

	start = cursor

	for start > 0 {
		r, size := utf8.DecodeLastRuneInString(input[:start])
		if isWordBoundary(r) {
			break
		}

		start -= size
	}

	end = cursor

	for end < len(input) {
		r, size := utf8.DecodeRuneInString(input[end:])
		if isWordBoundary(r) {
			break
		}

		end += size
	}

	return input[start:end], start, end
}

// parentPath returns the dotted path that qualifies the word starting at
// wordStart, e.g. "path" for the word "jo" in "path.jo". Returns the empty
// string for unqualified words.
func parentPath(input string, wordStart int) string {
	prefix := input[:wordStart]
	if !strings.HasSuffix(prefix, ".") {
		return ""
	}

	prefix = strings.TrimRight(prefix, ".")

	pos := len(prefix)

	for pos > 0 {
		r, size := utf8.DecodeLastRuneInString(prefix[:pos])
		if r != '.' && isWordBoundary(r) {
			break
		}

		pos -= size
	}

	return prefix[pos:]
}

// candidates returns the names that are valid completions for the word
// starting at wordStart. Statement keywords complete the first word of a
// statement and heap names complete identifiers in every directive. Inside
// expr directives the expr environment and expr-lang builtins are added, and
// qualified words complete the members of their parent. Plain text has no
// completions.
func candidates(input string, wordStart int, heap []string) []string {
	kind, start := enclosing(input, wordStart)

	switch kind {
	case directiveStatement:
		if strings.TrimSpace(input[start:wordStart]) == "" {
			return ppxbuiltin.Keywords
		}

		return heap

	case directiveEcho:
		return heap

	case directiveExpr:
		if parent := parentPath(input, wordStart); parent != "" {
			return ppxbuiltin.ExprLookup(parent)
		}

		env := ppxbuiltin.ExprLookup("")

		names := make([]string, 0, len(heap)+len(env)+len(builtin.Names))
		names = append(names, heap...)
		names = append(names, env...)

		return append(names, builtin.Names...)

	default:
		return nil
	}
}

// completion holds the fuzzy matches for the word under the cursor and the
// state of tab-cycling through them.
type completion struct {
	matches    fuzzy.Matches
	start, end int       // byte offsets of the word
	selected   int       // index into matches while cycling, else -1
	cycling    bool
	saved      lineState // input before cycling began
}

// refresh recomputes the matches for the input. With autoConfirm set, a
// single match the word already spells out is accepted.
func (m *model) refresh(autoConfirm bool) {
	input := m.input.Value()

	var word string

	word, m.comp.start, m.comp.end = wordBounds(input, m.input.Position())
	m.comp.matches = nil

	if word != "" {
		cands := commandNames()
		if m.mode == modeEval {
			cands = candidates(input, m.comp.start, m.session.Names())
		}

		if len(cands) > 0 {
			m.comp.matches = fuzzy.Find(word, cands)
		}
	}

	if !m.comp.cycling {
		m.comp.selected = -1
	}

	if autoConfirm && len(m.comp.matches) == 1 && word == m.comp.matches[0].Str {
		m.comp.accept()
	}
}

func (c *completion) accept() {
	c.cycling = false
	c.selected = -1
	c.matches = nil
}

// cycle moves the selection by step, wrapping around, and writes the
// selected candidate into the input. A lone match is accepted outright.
func (m model) cycle(step int) model {
	n := len(m.comp.matches)

	switch {
	case n == 0:
		return m

	case n == 1:
		m.replaceWord(m.comp.matches[0].Str)
		m.comp.accept()

		return m

	case m.comp.cycling:
		m.comp.selected = (m.comp.selected + step + n) % n

	default:
		m.comp.cycling = true
		m.comp.saved = lineState{text: m.input.Value(), cursor: m.input.Position()}
		m.comp.selected = 0

		if step < 0 {
			m.comp.selected = n - 1
		}
	}

	m.replaceWord(m.comp.matches[m.comp.selected].Str)

	return m
}

func (m *model) replaceWord(s string) {
	input := m.input.Value()

	m.input.SetValue(input[:m.comp.start] + s + input[m.comp.end:])
	m.comp.end = m.comp.start + len(s)
	m.input.SetCursor(m.comp.end)
}

// render draws the matches on one line, ellipsized to width, with matched
// characters highlighted and the selection set apart.
func (c completion) render(width int) string {
	if len(c.matches) == 0 || width <= 0 {
		return ""
	}

	const sep = "  "

	ellipsis := hintStyle.Render("...")
	room := width - lipgloss.Width(ellipsis)

	var b strings.Builder

	for i, match := range c.matches {
		entry := renderCandidate(match, c.cycling && i == c.selected)
		if i > 0 {
			entry = sep + entry
		}

		if i > 0 && lipgloss.Width(b.String())+lipgloss.Width(entry) > room {
			b.WriteString(sep + ellipsis)

			break
		}

		b.WriteString(entry)
	}

	return b.String()
}

var (
	matchStyle         = suggestionStyle.Bold(true)
	selectedMatchStyle = selectedStyle.Bold(true)
)

// renderCandidate highlights the matched characters of a candidate.
// Functions are suffixed with "()".
func renderCandidate(match fuzzy.Match, selected bool) string {
	base, hit := suggestionStyle, matchStyle
	if selected {
		base, hit = selectedStyle, selectedMatchStyle
	}

	var b strings.Builder

	next := 0

	for i, r := range match.Str {
		style := base
		if next < len(match.MatchedIndexes) && match.MatchedIndexes[next] == i {
			style = hit
			next++
		}

		b.WriteString(style.Render(string(r)))
	}

	if isFunction(match.Str) {
		b.WriteString(base.Render("()"))
	}

	return b.String()
}

// previewWidth bounds the value previews printed by the list command.
const previewWidth = 40

// formatPreview returns a single-line preview of a heap value.
func formatPreview(value string) string {
	value = strings.ReplaceAll(value, "\n", `\n`)

	if utf8.RuneCountInString(value) > previewWidth {
		r := []rune(value)

		return string(r[:previewWidth-3]) + "..."
	}

	return value
}

// isFunction reports whether name is an expr-lang builtin function.
func isFunction(name string) bool {
	_, ok := builtin.Index[name]

	return ok
}
