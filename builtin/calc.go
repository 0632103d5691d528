package builtin

import (
	"strings"

	"github.com/ardnew/ppx/compile"
	"github.com/ardnew/ppx/parse"
	"github.com/ardnew/ppx/source"
	"github.com/ardnew/ppx/tree"
	"github.com/ardnew/ppx/unit"
	"github.com/ardnew/ppx/vm"
)

// Calc returns the plugin that evaluates a whole document as one expression
// and prints its value.
func Calc() unit.Plugin {
	return unit.Plugin{
		Name:      "calc",
		Parsers:   []parse.Parser{tokens()},
		Compilers: []compile.Rule{compile.On(tree.KindRoot, compile.Func(calc))},
	}
}

func calc(_ compile.Compiler, c *compile.Compilation, n tree.Node) (compile.Result, error) {
	toks := n.Children()
	doc := c.Document()
	pos := n.Ref().Pos

	blank := func(end int) error {
		gap := strings.TrimSpace(doc.Slice(source.Reference{Pos: pos, Len: end - pos}))
		if gap != "" {
			return compile.Errorf(n, "unexpected %q", gap)
		}

		return nil
	}

	for _, t := range toks {
		if err := blank(t.Ref().Pos); err != nil {
			return compile.Skip, err
		}

		pos = t.Ref().End()
	}

	if err := blank(n.Ref().End()); err != nil {
		return compile.Skip, err
	}

	b := vm.Block{Source: vm.At(n)}
	if len(toks) == 0 {
		return compile.Emit(b), nil
	}

	p := newExprParser(n, toks)

	v, err := p.expression()
	if err != nil {
		return compile.Skip, err
	}

	if err := p.end(); err != nil {
		return compile.Skip, err
	}

	b.Items = append(v, vm.Echo{Source: vm.At(n)})

	return compile.Emit(b), nil
}
