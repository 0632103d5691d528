package repl

import (
	"slices"
	"strings"
	"testing"

	ppxbuiltin "github.com/ardnew/ppx/builtin"
)

func TestWordBounds(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		cursor    int
		wantWord  string
		wantStart int
		wantEnd   int
	}{
		{"simple", "foo", 3, "foo", 0, 3},
		{"echo", "{{ na", 5, "na", 3, 5},
		{"echo without space", "{{na", 4, "na", 2, 4},
		{"statement value", "{% set x = fo", 13, "fo", 11, 13},
		{"expr call", "{= upper(na", 11, "na", 9, 11},
		{"between_operators", "a+b", 2, "b", 2, 3},
		{"mid_word", "foobar", 3, "foobar", 0, 6},
		{"at_start", "foo", 0, "foo", 0, 3},
		{"empty_at_boundary", "{{ ", 3, "", 3, 3},
		{"after_dot", "x.y", 3, "y", 2, 3},
		{"after_tilde", `"a" ~ b`, 7, "b", 6, 7},
		{"multibyte", "{{ héllo", 9, "héllo", 3, 9},
		{"cursor_past_end", "abc", 10, "abc", 0, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			word, start, end := wordBounds(tt.input, tt.cursor)

			if word != tt.wantWord || start != tt.wantStart || end != tt.wantEnd {
				t.Errorf("wordBounds(%q, %d) = (%q, %d, %d), want (%q, %d, %d)",
					tt.input, tt.cursor, word, start, end,
					tt.wantWord, tt.wantStart, tt.wantEnd)
			}
		})
	}
}

func TestEnclosing(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantKind  directive
		wantStart int
	}{
		{"plain text", "hello", directiveNone, -1},
		{"echo", "{{ a", directiveEcho, 2},
		{"statement", "{% se", directiveStatement, 2},
		{"expr", "{= upper(", directiveExpr, 2},
		{"closed echo", "{{ a }} b", directiveNone, -1},
		{"after closed echo", "{{ a }} {% se", directiveStatement, 10},
		{"closed statement", "{% end %}x", directiveNone, -1},
		{"latest opener", "{% set a = 1 %}{= a", directiveExpr, 17},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, start := enclosing(tt.input, len(tt.input))

			if kind != tt.wantKind || start != tt.wantStart {
				t.Errorf("enclosing(%q) = (%d, %d), want (%d, %d)",
					tt.input, kind, start, tt.wantKind, tt.wantStart)
			}
		})
	}
}

func TestCandidates(t *testing.T) {
	heap := []string{"greeting", "name"}

	tests := []struct {
		name     string
		input    string
		contains []string
		excludes []string
		wantNone bool
	}{
		{name: "plain text", input: "na", wantNone: true},
		{name: "statement keyword", input: "{% se", contains: ppxbuiltin.Keywords, excludes: heap},
		{name: "statement argument", input: "{% set x = na", contains: heap, excludes: []string{"collect"}},
		{name: "echo", input: "{{ na", contains: heap, excludes: []string{"upper", "set"}},
		{name: "expr", input: "{= up", contains: []string{"greeting", "upper", "len", "path", "mung"}},
		{name: "expr member", input: "{= path.jo", contains: []string{"join", "base"}, excludes: []string{"greeting", "upper"}},
		{name: "expr unknown parent", input: "{= greeting.x", wantNone: true},
		{name: "echo ignores parent", input: "{{ path.na", contains: heap, excludes: []string{"join"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, start, _ := wordBounds(tt.input, len(tt.input))
			got := candidates(tt.input, start, heap)

			if tt.wantNone {
				if len(got) != 0 {
					t.Errorf("candidates(%q) = %v, want none", tt.input, got)
				}

				return
			}

			for _, c := range tt.contains {
				if !slices.Contains(got, c) {
					t.Errorf("candidates(%q) missing %q", tt.input, c)
				}
			}

			for _, c := range tt.excludes {
				if slices.Contains(got, c) {
					t.Errorf("candidates(%q) contains %q", tt.input, c)
				}
			}
		})
	}
}

func TestParentPath(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"{= foo", ""},
		{"{= path.jo", "path"},
		{"{= a.b.c", "a.b"},
		{"{= upper(file.ex", "file"},
		{"{= x + mung.pre", "mung"},
		{`{= "s".le`, ""},
	}

	for _, tt := range tests {
		_, start, _ := wordBounds(tt.input, len(tt.input))
		if got := parentPath(tt.input, start); got != tt.want {
			t.Errorf("parentPath(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestFormatPreview(t *testing.T) {
	if got := formatPreview("a\nb"); got != `a\nb` {
		t.Errorf("formatPreview() = %q, want %q", got, `a\nb`)
	}

	long := strings.Repeat("é", previewWidth+5)

	got := formatPreview(long)
	if !strings.HasSuffix(got, "...") || len([]rune(got)) != previewWidth {
		t.Errorf("formatPreview() = %q, want %d runes ending in ...", got, previewWidth)
	}
}

func TestIsFunction(t *testing.T) {
	if !isFunction("upper") {
		t.Error("isFunction(upper) = false, want true")
	}

	if isFunction("greeting") {
		t.Error("isFunction(greeting) = true, want false")
	}
}
