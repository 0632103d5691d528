package builtin

import (
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/ast"
	exprvm "github.com/expr-lang/expr/vm"

	"github.com/ardnew/ppx/compile"
	"github.com/ardnew/ppx/parse"
	"github.com/ardnew/ppx/pkg"
	"github.com/ardnew/ppx/tree"
	"github.com/ardnew/ppx/unit"
	"github.com/ardnew/ppx/vm"
)

var (
	ErrExprCompile = pkg.NewError("failed to compile expression")
	ErrExprRun     = pkg.NewError("failed to evaluate expression")
)

// Expr returns the plugin for {= expr =} directives. The expression is
// compiled once and evaluated by expr-lang each time it runs. Heap bindings
// the expression names are evaluated on each run and shadow [ExprEnv].
func Expr() unit.Plugin {
	return unit.Plugin{
		Name:      "expr",
		Parsers:   []parse.Parser{parse.Enclosure(KindExpr, parse.MustPair(`\{=`, `=\}`))},
		Compilers: []compile.Rule{compile.On(KindExpr, compile.Func(compileExpr))},
	}
}

func compileExpr(_ compile.Compiler, _ *compile.Compilation, n tree.Node) (compile.Result, error) {
	b, ok := n.Slot("body")
	if !ok {
		return compile.Skip, nil
	}

	text := strings.TrimSpace(b.Text())
	if text == "" {
		return compile.Skip, compile.Errorf(n, "empty expression")
	}

	ids := identifiers{}

	program, err := expr.Compile(text, expr.AllowUndefinedVariables(), expr.Patch(ids))
	if err != nil {
		return compile.Skip, &compile.Error{
			Node: n,
			Err:  ErrExprCompile.Wrap(err).With(slog.String("source", text)),
		}
	}

	return compile.Emit(vm.Block{Source: vm.At(n), Items: []vm.Instruction{
		Eval{Program: program, Text: text, Names: ids.sorted(), Source: vm.At(n)},
		vm.Echo{Source: vm.At(n)},
	}}), nil
}

// identifiers collects the names an expression reads.
type identifiers map[string]struct{}

func (ids identifiers) Visit(node *ast.Node) {
	if n, ok := (*node).(*ast.IdentifierNode); ok {
		ids[n.Value] = struct{}{}
	}
}

func (ids identifiers) sorted() []string {
	names := make([]string, 0, len(ids))
	for name := range ids {
		names = append(names, name)
	}

	slices.Sort(names)

	return names
}

// Eval runs a compiled expr-lang program and pushes its result. Names are
// the identifiers the program reads; only those heap bindings are evaluated.
type Eval struct {
	Program *exprvm.Program
	Text    string
	Names   []string
	vm.Source
}

// Exec implements vm.Instruction.
func (i Eval) Exec(_ vm.Registry, m *vm.Memory) error {
	env := ExprEnv()

	for _, name := range i.Names {
		v, ok := m.Lookup(name)
		if !ok {
			continue
		}

		s, err := v.Eval(m)
		if err != nil {
			return &vm.ExecutionError{Node: i.Node, Err: err}
		}

		env[name] = typed(s)
	}

	out, err := exprvm.Run(i.Program, env)
	if err != nil {
		return &vm.ExecutionError{
			Node: i.Node,
			Err:  ErrExprRun.Wrap(err).With(slog.String("source", i.Text)),
		}
	}

	m.Push(vm.Constant(format(out)))

	return nil
}

// Optimize implements vm.Instruction. Negative modes strip the origin.
func (i Eval) Optimize(mode int) vm.Instruction {
	if mode < 0 {
		i.Source = vm.Source{}
	}

	return i
}

func (i Eval) String() string { return "expr " + strconv.Quote(i.Text) }

// typed converts heap text to the number it spells, if any.
func typed(s string) any {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return int(n)
	}

	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}

	return s
}

func format(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case []any:
		parts := make([]string, len(x))
		for k, e := range x {
			parts[k] = format(e)
		}

		return strings.Join(parts, ",")
	default:
		return fmt.Sprint(x)
	}
}
