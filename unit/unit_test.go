package unit

import (
	"bytes"
	"context"
	"errors"
	"reflect"
	"strings"
	"sync"
	"testing"

	"github.com/ardnew/ppx/compile"
	"github.com/ardnew/ppx/parse"
	"github.com/ardnew/ppx/source"
	"github.com/ardnew/ppx/tree"
	"github.com/ardnew/ppx/vm"
)

var kindCall = tree.NewKind("call", tree.WeightDefault)

// calls is a plugin for documents of plain text where "@NAME" executes the
// document NAME.
func calls() Plugin {
	root := compile.Func(func(root compile.Compiler, c *compile.Compilation, n tree.Node) (compile.Result, error) {
		b := vm.Block{Source: vm.At(n)}
		doc := c.Document()
		pos := n.Ref().Pos

		gap := func(end int) {
			if end > pos {
				b.Items = append(b.Items, vm.Write{Text: doc.Slice(source.Reference{Pos: pos, Len: end - pos})})
			}
		}

		for _, ch := range n.Children() {
			gap(ch.Ref().Pos)

			r, err := compile.Mandatory(root).Compile(root, c, ch)
			if err != nil {
				return compile.Skip, err
			}

			inst, _ := r.Instruction()
			b.Items = append(b.Items, inst)
			pos = ch.Ref().End()
		}

		gap(n.Ref().End())

		return compile.Emit(b), nil
	})

	call := compile.Func(func(_ compile.Compiler, _ *compile.Compilation, n tree.Node) (compile.Result, error) {
		return compile.Emit(vm.Block{Source: vm.At(n), Items: []vm.Instruction{
			vm.Push{Value: vm.Constant(strings.TrimPrefix(n.Text(), "@")), Source: vm.At(n)},
			vm.Exec{Source: vm.At(n)},
		}}), nil
	})

	return Plugin{
		Name:    "calls",
		Parsers: []parse.Parser{parse.Term(kindCall, parse.MustPattern(`@\w+`))},
		Compilers: []compile.Rule{
			compile.On(tree.KindRoot, root),
			compile.On(kindCall, call),
		},
	}
}

func newUnit(buf *bytes.Buffer, opts ...Option) *Unit {
	return New(append([]Option{WithConsole(buf), WithPlugins(calls())}, opts...)...)
}

func TestRunCrossDocument(t *testing.T) {
	var buf bytes.Buffer

	u := newUnit(&buf)

	a := source.NewDocument("A", "a[@B]")
	b := source.NewDocument("B", "b@C")
	c := source.NewDocument("C", "c")

	if err := u.Run(context.Background(), a, b, c); err != nil {
		t.Fatal(err)
	}

	if got := buf.String(); got != "a[bc]" {
		t.Errorf("output = %q, want a[bc]", got)
	}

	if got := u.Environment().Names(); !reflect.DeepEqual(got, []string{"A", "B", "C"}) {
		t.Errorf("Names() = %v", got)
	}
}

func TestExecMissing(t *testing.T) {
	tests := []struct {
		name    string
		prepare func(*Environment)
		want    error
	}{
		{"no compilation", func(*Environment) {}, vm.ErrNoCompilation},
		{"no program", func(env *Environment) {
			env.Add(compile.New(source.NewDocument("B", "b")))
		}, vm.ErrNoProgram},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer

			u := newUnit(&buf)
			tt.prepare(u.Environment())

			err := u.Run(context.Background(), source.NewDocument("A", "a@B"))

			var ee *vm.ExecutionError
			if !errors.As(err, &ee) || !errors.Is(err, tt.want) {
				t.Fatalf("error = %v, want ExecutionError wrapping %v", err, tt.want)
			}

			if ee.Unit != "B" {
				t.Errorf("Unit = %q, want B", ee.Unit)
			}

			if !strings.Contains(err.Error(), `"B"`) {
				t.Errorf("message %q does not name B", err.Error())
			}

			// output before the failing instruction is kept
			if buf.String() != "a" {
				t.Errorf("output = %q, want a", buf.String())
			}
		})
	}
}

func TestListenerEvents(t *testing.T) {
	var (
		buf    bytes.Buffer
		mu     sync.Mutex
		events []Event
		depth  = -1
	)

	record := Plugin{Name: "record", Listeners: []Listener{
		func(_ context.Context, ev Event, s State) error {
			mu.Lock()
			defer mu.Unlock()

			events = append(events, ev)

			if ev == PostExecute {
				depth = s.Memory.Len()
			}

			return nil
		},
	}}

	u := newUnit(&buf, WithPlugins(record), WithOptimize(-1))
	if err := u.Run(context.Background(), source.NewDocument("A", "x")); err != nil {
		t.Fatal(err)
	}

	want := []Event{
		PostParse, PostAnalyze, PreCompile, PostCompile, PostOptimize,
		PreExecute, PostExecute, MemoryDestroyed,
	}
	if !reflect.DeepEqual(events, want) {
		t.Errorf("events = %v, want %v", events, want)
	}

	if depth != 0 {
		t.Errorf("stack depth after execute = %d, want 0", depth)
	}
}

func TestListenerAbort(t *testing.T) {
	var buf bytes.Buffer

	stop := errors.New("stop")
	abort := Plugin{Listeners: []Listener{
		When(func(context.Context, Event, State) error { return stop }, PreExecute),
	}}

	u := newUnit(&buf, WithPlugins(abort))

	if err := u.Run(context.Background(), source.NewDocument("A", "x")); !errors.Is(err, stop) {
		t.Errorf("error = %v, want stop", err)
	}

	if buf.Len() != 0 {
		t.Errorf("output = %q, want none", buf.String())
	}
}

func TestAnalyzeFixedPoint(t *testing.T) {
	var buf bytes.Buffer

	passes := 0
	upper := AnalyzerFunc(func(_ context.Context, _ *compile.Compilation, n tree.Node) (bool, error) {
		if n.IsRoot() {
			passes++
		}

		if !n.Is(kindCall) {
			return false, nil
		}

		return n.SetNote("upper", strings.ToUpper(n.Text())), nil
	})

	u := newUnit(&buf, WithPlugins(Plugin{Analyzers: []Analyzer{upper}}))

	c, err := u.Build(context.Background(), source.NewDocument("A", "ab@b cd@c"))
	if err != nil {
		t.Fatal(err)
	}

	if passes != 2 {
		t.Errorf("passes = %d, want 2", passes)
	}

	var notes []string

	for n := range c.Tree().All() {
		if v, ok := n.Note("upper"); ok {
			notes = append(notes, v)
		}
	}

	if want := []string{"@B", "@C"}; !reflect.DeepEqual(notes, want) {
		t.Errorf("notes = %q, want %q", notes, want)
	}
}

func TestAnalyzeNoFixedPoint(t *testing.T) {
	var buf bytes.Buffer

	always := AnalyzerFunc(func(context.Context, *compile.Compilation, tree.Node) (bool, error) {
		return true, nil
	})

	u := newUnit(&buf, WithMaxPasses(3), WithPlugins(Plugin{Analyzers: []Analyzer{always}}))

	if _, err := u.Build(context.Background(), source.NewDocument("A", "x")); !errors.Is(err, parse.ErrNoFixedPoint) {
		t.Errorf("error = %v, want ErrNoFixedPoint", err)
	}
}

func TestInitializeReuse(t *testing.T) {
	var buf bytes.Buffer

	u := newUnit(&buf)
	ctx := context.Background()

	first, err := u.Build(ctx, source.NewDocument("A", "same"))
	if err != nil {
		t.Fatal(err)
	}

	again, err := u.Build(ctx, source.NewDocument("A", "same"))
	if err != nil {
		t.Fatal(err)
	}

	if again != first {
		t.Error("unchanged document was rebuilt")
	}

	changed, err := u.Build(ctx, source.NewDocument("A", "different"))
	if err != nil {
		t.Fatal(err)
	}

	if changed == first {
		t.Error("changed document reused the old compilation")
	}

	if c, _ := u.Environment().Lookup("A"); c != changed {
		t.Error("environment holds a stale compilation")
	}
}

func TestRunIndependentFailure(t *testing.T) {
	var buf bytes.Buffer

	boom := errors.New("boom")
	failing := Plugin{Parsers: []parse.Parser{
		parse.Func(func(_ context.Context, scope tree.Node) ([]parse.Candidate, error) {
			if scope.Document().Name() == "bad" {
				return nil, boom
			}

			return nil, nil
		}),
	}}

	u := newUnit(&buf, WithPlugins(failing))

	err := u.Run(context.Background(),
		source.NewDocument("main", "ok"),
		source.NewDocument("bad", "x"),
	)
	if !errors.Is(err, boom) {
		t.Errorf("error = %v, want boom", err)
	}

	if buf.String() != "ok" {
		t.Errorf("output = %q, want ok", buf.String())
	}
}

func TestOptimizeWithoutProgram(t *testing.T) {
	u := New()
	c, _ := u.Initialize(source.NewDocument("A", "x"))

	if err := u.Optimize(context.Background(), c, -1); !errors.Is(err, vm.ErrNoProgram) {
		t.Errorf("error = %v, want ErrNoProgram", err)
	}

	if err := u.Execute(context.Background(), c); !errors.Is(err, vm.ErrNoProgram) {
		t.Errorf("error = %v, want ErrNoProgram", err)
	}
}

func TestEventString(t *testing.T) {
	if got := MemoryDestroyed.String(); got != "memory-destroyed" {
		t.Errorf("String() = %q", got)
	}

	if got := Event(42).String(); got != "Event(42)" {
		t.Errorf("String() = %q", got)
	}
}
