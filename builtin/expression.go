package builtin

import (
	"strconv"

	"github.com/ardnew/ppx/compile"
	"github.com/ardnew/ppx/tree"
	"github.com/ardnew/ppx/vm"
)

type binaryOp struct {
	op   vm.Op
	prec int
}

var binaryOps = map[string]binaryOp{
	"~": {vm.OpConcat, 1},
	"+": {vm.OpAdd, 2},
	"-": {vm.OpSub, 2},
	"*": {vm.OpMul, 3},
	"/": {vm.OpDiv, 3},
	"%": {vm.OpRem, 3},
}

// exprParser compiles a token sequence into instructions that push the
// value of an expression.
type exprParser struct {
	at   tree.Node
	toks []tree.Node
	pos  int
}

func newExprParser(at tree.Node, toks []tree.Node) *exprParser {
	return &exprParser{at: at, toks: toks}
}

func (p *exprParser) done() bool { return p.pos >= len(p.toks) }

func (p *exprParser) peek() (tree.Node, bool) {
	if p.done() {
		return tree.Node{}, false
	}

	return p.toks[p.pos], true
}

func (p *exprParser) next() (tree.Node, bool) {
	n, ok := p.peek()
	if ok {
		p.pos++
	}

	return n, ok
}

// rest returns the unconsumed tokens.
func (p *exprParser) rest() []tree.Node { return p.toks[p.pos:] }

// ident consumes an identifier.
func (p *exprParser) ident() (string, error) {
	n, ok := p.next()
	if !ok {
		return "", compile.Errorf(p.at, "expected a name")
	}

	if !n.Is(KindIdent) {
		return "", compile.Errorf(n, "expected a name, found %q", n.Text())
	}

	return n.Text(), nil
}

// expect consumes a token with the given text.
func (p *exprParser) expect(text string) error {
	n, ok := p.next()
	if !ok {
		return compile.Errorf(p.at, "expected %q", text)
	}

	if n.Text() != text {
		return compile.Errorf(n, "expected %q, found %q", text, n.Text())
	}

	return nil
}

// end fails if tokens remain.
func (p *exprParser) end() error {
	if n, ok := p.peek(); ok {
		return compile.Errorf(n, "unexpected %q", n.Text())
	}

	return nil
}

// expression parses a complete expression.
func (p *exprParser) expression() ([]vm.Instruction, error) {
	if p.done() {
		return nil, compile.Errorf(p.at, "expected an expression")
	}

	return p.binary(1)
}

func (p *exprParser) binary(min int) ([]vm.Instruction, error) {
	lhs, err := p.unary()
	if err != nil {
		return nil, err
	}

	for {
		n, ok := p.peek()
		if !ok || !n.Is(KindOperator) {
			return lhs, nil
		}

		b, ok := binaryOps[n.Text()]
		if !ok || b.prec < min {
			return lhs, nil
		}

		p.pos++

		rhs, err := p.binary(b.prec + 1)
		if err != nil {
			return nil, err
		}

		lhs = append(lhs, rhs...)
		lhs = append(lhs, vm.Apply{Op: b.op, Arity: 2, Source: vm.At(n)})
	}
}

func (p *exprParser) unary() ([]vm.Instruction, error) {
	n, ok := p.peek()
	if ok && n.Is(KindOperator) && (n.Text() == "-" || n.Text() == "+") {
		p.pos++

		v, err := p.unary()
		if err != nil {
			return nil, err
		}

		if n.Text() == "+" {
			return v, nil
		}

		return append(v, vm.Apply{Op: vm.OpNeg, Arity: 1, Source: vm.At(n)}), nil
	}

	return p.primary()
}

func (p *exprParser) primary() ([]vm.Instruction, error) {
	n, ok := p.next()
	if !ok {
		return nil, compile.Errorf(p.at, "unexpected end of expression")
	}

	switch {
	case n.Is(KindNumber):
		return []vm.Instruction{vm.Push{Value: vm.Constant(n.Text()), Source: vm.At(n)}}, nil

	case n.Is(KindString):
		s, err := strconv.Unquote(n.Text())
		if err != nil {
			return nil, &compile.Error{Node: n, Err: compile.ErrSyntax.Wrap(err)}
		}

		return []vm.Instruction{vm.Push{Value: vm.Constant(s), Source: vm.At(n)}}, nil

	case n.Is(KindIdent):
		ref := vm.Ref(n.Text())
		ref.Origin = n

		return []vm.Instruction{vm.Push{Value: ref, Source: vm.At(n)}}, nil

	case n.Is(KindGroup):
		toks, _ := body(n)

		q := newExprParser(n, toks)

		v, err := q.expression()
		if err != nil {
			return nil, err
		}

		return v, q.end()

	case n.Is(KindArray):
		elems, err := elements(n)
		if err != nil {
			return nil, err
		}

		var out []vm.Instruction
		for _, e := range elems {
			out = append(out, e...)
		}

		return append(out, vm.Apply{Op: vm.OpList, Arity: len(elems), Source: vm.At(n)}), nil

	default:
		return nil, compile.Errorf(n, "unexpected %q", n.Text())
	}
}

// elements compiles the comma-separated elements of an array.
func elements(n tree.Node) ([][]vm.Instruction, error) {
	toks, _ := body(n)
	q := newExprParser(n, toks)

	var out [][]vm.Instruction

	for !q.done() {
		e, err := q.expression()
		if err != nil {
			return nil, err
		}

		out = append(out, e)

		if q.done() {
			break
		}

		if err := q.expect(","); err != nil {
			return nil, err
		}
	}

	return out, nil
}
