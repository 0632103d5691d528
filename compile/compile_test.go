package compile

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/ardnew/ppx/source"
	"github.com/ardnew/ppx/tree"
	"github.com/ardnew/ppx/vm"
)

var (
	kindWord = tree.NewKind("word", tree.WeightDefault)
	kindMark = tree.NewKind("mark", tree.WeightDefault)
)

// echo emits a Write of the node text.
var echo = Func(func(_ Compiler, _ *Compilation, n tree.Node) (Result, error) {
	return Emit(vm.Write{Text: n.Text(), Source: vm.At(n)}), nil
})

// tagged emits a Write of a fixed tag.
func tagged(tag string) Compiler {
	return Func(func(_ Compiler, _ *Compilation, n tree.Node) (Result, error) {
		return Emit(vm.Write{Text: tag, Source: vm.At(n)}), nil
	})
}

var skip = Func(func(Compiler, *Compilation, tree.Node) (Result, error) { return Skip, nil })

// children compiles the children of any node with root.
var children = Func(func(root Compiler, c *Compilation, n tree.Node) (Result, error) {
	b, err := Sequence(root, c, n, n.Children())

	return Emit(b), err
})

func words(t *testing.T, text string) *Compilation {
	t.Helper()

	c := New(source.NewDocument("words", text))

	for _, w := range strings.Fields(text) {
		at := strings.Index(text, w)
		if _, _, err := c.Tree().Offer(source.Reference{Pos: at, Len: len(w)}, kindWord); err != nil {
			t.Fatal(err)
		}
	}

	return c
}

func output(t *testing.T, inst vm.Instruction) string {
	t.Helper()

	var buf bytes.Buffer
	if err := inst.Exec(nil, vm.NewMemory(vm.WithConsole(&buf))); err != nil {
		t.Fatal(err)
	}

	return buf.String()
}

func TestResult(t *testing.T) {
	if !Skip.Skipped() || !Emit(nil).Skipped() {
		t.Error("Skip and Emit(nil) must be skips")
	}

	r := Emit(vm.Write{Text: "x"})
	if r.Skipped() {
		t.Error("Emit(write) is a skip")
	}

	if got := Skip.Or(r); got.Skipped() {
		t.Error("Skip.Or(r) skipped")
	}

	if inst, ok := r.Or(Skip).Instruction(); !ok || inst.(vm.Write).Text != "x" {
		t.Errorf("r.Or(Skip) = %v", inst)
	}
}

func TestMandatory(t *testing.T) {
	c := words(t, "alpha")
	n := c.Root().Children()[0]

	_, err := Mandatory(skip).Compile(skip, c, n)

	var ce *Error
	if !errors.As(err, &ce) || !errors.Is(err, ErrUnrecognized) {
		t.Fatalf("error = %v, want compile.Error wrapping ErrUnrecognized", err)
	}

	if ce.Node != n {
		t.Errorf("error node = %v, want %v", ce.Node, n)
	}

	if msg := err.Error(); !strings.Contains(msg, "words:1:1") || !strings.Contains(msg, "word[0:5)") {
		t.Errorf("error message %q does not name the node", msg)
	}

	if _, err := Mandatory(echo).Compile(echo, c, n); err != nil {
		t.Errorf("Mandatory(echo) error = %v", err)
	}
}

func TestFirstAndCombine(t *testing.T) {
	c := words(t, "x")
	n := c.Root().Children()[0]

	tests := []struct {
		name     string
		compiler Compiler
		want     string
		skipped  bool
	}{
		{"first skips", First(skip, tagged("a"), tagged("b")), "a", false},
		{"first none", First(skip, skip), "", true},
		{"combine all", Combine(tagged("a"), skip, tagged("b")), "ab", false},
		{"combine none", Combine(skip), "", true},
		{"guard match", Guard(tagged("g"), kindWord), "g", false},
		{"guard miss", Guard(tagged("g"), kindMark), "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := tt.compiler.Compile(tt.compiler, c, n)
			if err != nil {
				t.Fatal(err)
			}

			if r.Skipped() != tt.skipped {
				t.Fatalf("Skipped() = %v, want %v", r.Skipped(), tt.skipped)
			}

			if inst, ok := r.Instruction(); ok {
				if got := output(t, inst); got != tt.want {
					t.Errorf("output = %q, want %q", got, tt.want)
				}
			}
		})
	}
}

func TestCombineError(t *testing.T) {
	c := words(t, "x")
	boom := errors.New("boom")

	failing := Func(func(Compiler, *Compilation, tree.Node) (Result, error) { return Skip, boom })

	if _, err := Combine(tagged("a"), failing).Compile(nil, c, c.Root()); !errors.Is(err, boom) {
		t.Errorf("error = %v, want boom", err)
	}
}

func TestDispatchOrder(t *testing.T) {
	c := words(t, "x")
	n := c.Root().Children()[0]

	d := Dispatch(
		On(kindMark, tagged("mark")),
		Always(skip),
		On(kindWord, tagged("first")),
		Always(tagged("any")),
		On(kindWord, tagged("second")),
	)

	if d.Len() != 5 {
		t.Errorf("Len() = %d, want 5", d.Len())
	}

	r, err := d.Compile(d, c, n)
	if err != nil {
		t.Fatal(err)
	}

	inst, _ := r.Instruction()
	if got := output(t, inst); got != "first" {
		t.Errorf("dispatched to %q, want first", got)
	}

	// the root kind has no rule of its own
	r, err = d.Compile(d, c, c.Root())
	if err != nil {
		t.Fatal(err)
	}

	inst, _ = r.Instruction()
	if got := output(t, inst); got != "any" {
		t.Errorf("dispatched root to %q, want any", got)
	}
}

func TestCompilationCompile(t *testing.T) {
	c := words(t, "one two three")

	if _, ok := c.Program(); ok {
		t.Fatal("program set before compile")
	}

	root := Dispatch(On(tree.KindRoot, children), On(kindWord, echo))
	if err := c.Compile(root); err != nil {
		t.Fatal(err)
	}

	prog, ok := c.Program()
	if !ok {
		t.Fatal("no program after compile")
	}

	if got := output(t, prog); got != "onetwothree" {
		t.Errorf("output = %q, want onetwothree", got)
	}

	if c.Name() != "words" || c.Root().Kind() != tree.KindRoot {
		t.Errorf("Name() = %q, Root() = %v", c.Name(), c.Root())
	}
}

func TestCompilationUnrecognizedChild(t *testing.T) {
	c := words(t, "one two")

	root := Dispatch(On(tree.KindRoot, children))

	err := c.Compile(root)
	if !errors.Is(err, ErrUnrecognized) {
		t.Fatalf("error = %v, want ErrUnrecognized", err)
	}

	var ce *Error
	if errors.As(err, &ce) && ce.Node.Text() != "one" {
		t.Errorf("error names %q, want one", ce.Node.Text())
	}

	if _, ok := c.Program(); ok {
		t.Error("program set after failed compile")
	}
}

func TestErrorf(t *testing.T) {
	c := words(t, "x")

	err := Errorf(c.Root(), "unexpected %q", "}")
	if !errors.Is(err, ErrSyntax) {
		t.Errorf("error = %v, want ErrSyntax", err)
	}

	if !strings.Contains(err.Error(), `unexpected "}"`) {
		t.Errorf("message %q lacks detail", err.Error())
	}
}
