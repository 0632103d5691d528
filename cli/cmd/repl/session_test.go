package repl

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/ardnew/ppx/builtin"
	"github.com/ardnew/ppx/compile"
	"github.com/ardnew/ppx/source"
	"github.com/ardnew/ppx/unit"
)

func newTestSession(t *testing.T) *Session {
	t.Helper()

	return NewSession(context.Background(),
		unit.WithPlugins(builtin.Template(), builtin.Expr()),
		unit.WithHeap(map[string]string{"name": "World"}),
	)
}

func TestSessionEval(t *testing.T) {
	ctx := context.Background()
	s := newTestSession(t)

	steps := []struct {
		text string
		want string
	}{
		{"Hello, {{ name }}!", "Hello, World!"},
		{"{% set x = 1 %}", ""},
		{"{{ x + 1 }}", "2"},
		{"{% set x = x * 10 %}{{ x }}", "10"},
		{"{= x + 5 =}", "15"},
		{"{{ x + 1 }}", "11"},
	}

	for i, step := range steps {
		got, err := s.Eval(ctx, step.text)
		if err != nil {
			t.Fatalf("step %d: Eval(%q) error = %v", i, step.text, err)
		}

		if got != step.want {
			t.Errorf("step %d: Eval(%q) = %q, want %q", i, step.text, got, step.want)
		}
	}

	if s.Count() != len(steps) {
		t.Errorf("Count() = %d, want %d", s.Count(), len(steps))
	}
}

func TestSessionEval_ErrorKeepsHeap(t *testing.T) {
	ctx := context.Background()
	s := newTestSession(t)

	if _, err := s.Eval(ctx, "{% set kept = 3 %}"); err != nil {
		t.Fatal(err)
	}

	if _, err := s.Eval(ctx, "{% bogus %}"); !errors.Is(err, compile.ErrSyntax) {
		t.Fatalf("Eval() error = %v, want %v", err, compile.ErrSyntax)
	}

	got, err := s.Eval(ctx, "{{ kept }}")
	if err != nil || got != "3" {
		t.Errorf("Eval() = (%q, %v), want 3", got, err)
	}
}

func TestSessionValueAndNames(t *testing.T) {
	ctx := context.Background()
	s := newTestSession(t)

	if _, err := s.Eval(ctx, `{% set a = "x" ~ "y" %}{% let b = a ~ "z" %}`); err != nil {
		t.Fatal(err)
	}

	names := s.Names()
	for _, want := range []string{"a", "b", "name"} {
		if !slices.Contains(names, want) {
			t.Errorf("Names() = %v, missing %q", names, want)
		}
	}

	for name, want := range map[string]string{"a": "xy", "b": "xyz", "missing": ""} {
		got, err := s.Value(name)
		if err != nil || got != want {
			t.Errorf("Value(%q) = (%q, %v), want %q", name, got, err, want)
		}
	}
}

func TestSessionPreload(t *testing.T) {
	ctx := context.Background()
	s := newTestSession(t)

	err := s.Preload(ctx,
		source.NewDocument("header", `<h1>{{ title }}</h1>`),
		source.NewDocument("setup", `{% set title = "Index" %}`),
	)
	if err != nil {
		t.Fatal(err)
	}

	got, err := s.Eval(ctx, `{% exec "setup" %}{% exec "header" %}`)
	if err != nil {
		t.Fatal(err)
	}

	if got != "<h1>Index</h1>" {
		t.Errorf("Eval() = %q, want %q", got, "<h1>Index</h1>")
	}

	docs := s.Documents()
	for _, want := range []string{"header", "setup", sessionDocument} {
		if !slices.Contains(docs, want) {
			t.Errorf("Documents() = %v, missing %q", docs, want)
		}
	}
}

func TestSessionReset(t *testing.T) {
	ctx := context.Background()
	s := newTestSession(t)

	if _, err := s.Eval(ctx, "{% set x = 1 %}"); err != nil {
		t.Fatal(err)
	}

	s.Reset(ctx)

	if slices.Contains(s.Names(), "x") {
		t.Errorf("Names() = %v after Reset, want no x", s.Names())
	}

	got, err := s.Eval(ctx, "[{{ x }}]{{ name }}")
	if err != nil || got != "[]World" {
		t.Errorf("Eval() = (%q, %v), want %q", got, err, "[]World")
	}
}
