package builtin

import (
	"context"

	"github.com/ardnew/ppx/compile"
	"github.com/ardnew/ppx/parse"
	"github.com/ardnew/ppx/source"
	"github.com/ardnew/ppx/tree"
	"github.com/ardnew/ppx/unit"
	"github.com/ardnew/ppx/vm"
)

// noteKeyword is the note holding the leading keyword of a statement or
// block.
const noteKeyword = "keyword"

// Keywords lists the statement keywords of [Template].
var Keywords = []string{"set", "let", "append", "unset", "exec", "output", "for", "collect", "end"}

// Template returns the template plugin.
func Template() unit.Plugin {
	statements := parse.Enclosure(KindStatement, parse.MustPair(`\{%`, `%\}`))

	return unit.Plugin{
		Name: "template",
		Parsers: []parse.Parser{
			parse.Enclosure(KindEcho, parse.MustPair(`\{\{`, `\}\}`)),
			statements,
			parse.Enclosure(KindBlock, parse.MustPair(blockOpen, blockClose)),
			// Statement bodies, block headers included, are tokenized within
			// the regions the statement delimiters isolate.
			parse.Pseudo(statements, "body", tokens()),
			parse.Hierarchy(tokens(), parse.BodyOf(KindEcho)),
		},
		Analyzers: []unit.Analyzer{unit.AnalyzerFunc(keywords)},
		Compilers: []compile.Rule{
			compile.On(tree.KindRoot, compile.Func(region)),
			compile.On(KindEcho, compile.Func(echo)),
			compile.On(KindStatement, compile.Func(statement)),
			compile.On(KindBlock, compile.Func(block)),
		},
	}
}

// keywords notes the leading keyword of statements and blocks.
func keywords(_ context.Context, _ *compile.Compilation, n tree.Node) (bool, error) {
	switch {
	case n.Is(KindStatement):
		if kw, ok := leading(n); ok {
			return n.SetNote(noteKeyword, kw), nil
		}

	case n.Is(KindBlock):
		if h, ok := header(n); ok {
			if kw, ok := leading(h); ok {
				return n.SetNote(noteKeyword, kw), nil
			}
		}
	}

	return false, nil
}

// leading returns the first identifier of a statement.
func leading(stmt tree.Node) (string, bool) {
	toks, _ := body(stmt)
	if len(toks) == 0 || !toks[0].Is(KindIdent) {
		return "", false
	}

	return toks[0].Text(), true
}

// header returns the statement opening a block.
func header(n tree.Node) (tree.Node, bool) {
	open, ok := n.Slot("open")
	if !ok {
		return tree.Node{}, false
	}

	for _, c := range open.Children() {
		if c.Is(KindStatement) {
			return c, true
		}
	}

	return tree.Node{}, false
}

// region compiles the text of n and the constructs inside it, in order.
func region(root compile.Compiler, c *compile.Compilation, n tree.Node) (compile.Result, error) {
	b, err := compileRegion(root, c, n)
	if err != nil {
		return compile.Skip, err
	}

	return compile.Emit(b), nil
}

func compileRegion(root compile.Compiler, c *compile.Compilation, n tree.Node) (vm.Block, error) {
	b := vm.Block{Source: vm.At(n)}
	doc := c.Document()
	pos := n.Ref().Pos

	text := func(end int) {
		if end > pos {
			b.Items = append(b.Items, vm.Write{
				Text:   doc.Slice(source.Reference{Pos: pos, Len: end - pos}),
				Source: vm.At(n),
			})
		}
	}

	for _, ch := range n.Children() {
		text(ch.Ref().Pos)

		r, err := compile.Mandatory(root).Compile(root, c, ch)
		if err != nil {
			return b, err
		}

		inst, _ := r.Instruction()
		b.Items = append(b.Items, inst)
		pos = ch.Ref().End()
	}

	text(n.Ref().End())

	return b, nil
}

func echo(_ compile.Compiler, _ *compile.Compilation, n tree.Node) (compile.Result, error) {
	toks, _ := body(n)
	p := newExprParser(n, toks)

	v, err := p.expression()
	if err != nil {
		return compile.Skip, err
	}

	if err := p.end(); err != nil {
		return compile.Skip, err
	}

	return compile.Emit(vm.Block{
		Items:  append(v, vm.Echo{Source: vm.At(n)}),
		Source: vm.At(n),
	}), nil
}

func statement(_ compile.Compiler, _ *compile.Compilation, n tree.Node) (compile.Result, error) {
	toks, _ := body(n)
	p := newExprParser(n, toks)

	kw, err := p.ident()
	if err != nil {
		return compile.Skip, err
	}

	if noted, ok := n.Note(noteKeyword); ok {
		kw = noted
	}

	at := vm.At(n)

	var out []vm.Instruction

	switch kw {
	case "set", "let":
		name, err := p.ident()
		if err != nil {
			return compile.Skip, err
		}

		if err := p.expect("="); err != nil {
			return compile.Skip, err
		}

		v, err := p.expression()
		if err != nil {
			return compile.Skip, err
		}

		out = v
		if kw == "set" {
			out = append(out, vm.Force{Source: at})
		}

		out = append(out, vm.Push{Value: vm.Constant(name), Source: at}, vm.Alloc{Source: at})

	case "append":
		name, err := p.ident()
		if err != nil {
			return compile.Skip, err
		}

		v, err := p.expression()
		if err != nil {
			return compile.Skip, err
		}

		// An unbound accumulator loads as Null, which starts the list.
		out = append([]vm.Instruction{
			vm.Push{Value: vm.Constant(name), Source: at},
			vm.Load{Source: at},
		}, v...)
		out = append(out,
			vm.Apply{Op: vm.OpAppend, Arity: 2, Source: at},
			vm.Force{Source: at},
			vm.Push{Value: vm.Constant(name), Source: at},
			vm.Alloc{Source: at},
		)

	case "unset":
		name, err := p.ident()
		if err != nil {
			return compile.Skip, err
		}

		out = []vm.Instruction{vm.Push{Value: vm.Constant(name), Source: at}, vm.Unset{Source: at}}

	case "exec":
		v, err := p.expression()
		if err != nil {
			return compile.Skip, err
		}

		out = append(v, vm.Exec{Source: at})

	case "output":
		out = []vm.Instruction{vm.Push{Value: vm.Null{}, Source: at}}

		if !p.done() {
			v, err := p.expression()
			if err != nil {
				return compile.Skip, err
			}

			out = v
		}

		out = append(out, vm.Redirect{Source: at})

	case "end":
		return compile.Skip, compile.Errorf(n, "end without a matching block")

	case "for", "collect":
		return compile.Skip, compile.Errorf(n, "%s without a matching end", kw)

	default:
		return compile.Skip, compile.Errorf(n, "unknown statement %q", kw)
	}

	if err := p.end(); err != nil {
		return compile.Skip, err
	}

	return compile.Emit(vm.Block{Items: out, Source: at}), nil
}

func block(root compile.Compiler, c *compile.Compilation, n tree.Node) (compile.Result, error) {
	h, ok := header(n)
	if !ok {
		return compile.Skip, compile.Errorf(n, "block without a header")
	}

	toks, _ := body(h)
	p := newExprParser(h, toks)

	kw, err := p.ident()
	if err != nil {
		return compile.Skip, err
	}

	inner, ok := n.Slot("body")
	if !ok {
		return compile.Skip, compile.Errorf(n, "block without a body")
	}

	at := vm.At(n)

	switch kw {
	case "for":
		name, err := p.ident()
		if err != nil {
			return compile.Skip, err
		}

		if err := p.expect("in"); err != nil {
			return compile.Skip, err
		}

		var out []vm.Instruction

		if rest := p.rest(); len(rest) == 1 && rest[0].Is(KindArray) {
			elems, err := elements(rest[0])
			if err != nil {
				return compile.Skip, err
			}

			out = append(out, vm.Push{Value: vm.Null{}, Source: at})
			for k := len(elems) - 1; k >= 0; k-- {
				out = append(out, elems[k]...)
			}

			p.pos = len(p.toks)
		} else {
			v, err := p.expression()
			if err != nil {
				return compile.Skip, err
			}

			out = append(v, vm.Split{Sep: ",", Source: at})
		}

		if err := p.end(); err != nil {
			return compile.Skip, err
		}

		loop, err := compileRegion(root, c, inner)
		if err != nil {
			return compile.Skip, err
		}

		out = append(out, vm.Repeat{
			Sentinel: vm.Null{},
			Body: vm.Block{Source: at, Items: []vm.Instruction{
				vm.Push{Value: vm.Constant(name), Source: at},
				vm.Alloc{Source: at},
				loop,
			}},
			Source: at,
		})

		return compile.Emit(vm.Block{Items: out, Source: at}), nil

	case "collect":
		name, err := p.ident()
		if err != nil {
			return compile.Skip, err
		}

		if err := p.end(); err != nil {
			return compile.Skip, err
		}

		inside, err := compileRegion(root, c, inner)
		if err != nil {
			return compile.Skip, err
		}

		return compile.Emit(vm.Block{Source: at, Items: []vm.Instruction{
			vm.Gather{Body: inside, Source: at},
			vm.Force{Source: at},
			vm.Push{Value: vm.Constant(name), Source: at},
			vm.Alloc{Source: at},
		}}), nil

	default:
		return compile.Skip, compile.Errorf(h, "unknown block %q", kw)
	}
}
