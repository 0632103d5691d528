package builtin

import (
	"github.com/ardnew/ppx/parse"
	"github.com/ardnew/ppx/tree"
)

// Kinds of the built-in constructs.
var (
	KindEcho      = tree.NewKind("echo", tree.WeightDefault)
	KindStatement = tree.NewKind("statement", tree.WeightDefault)
	KindBlock     = tree.NewKind("block", tree.WeightDefault)
	KindExpr      = tree.NewKind("expr", tree.WeightDefault)
	KindNumber    = tree.NewKind("number", tree.WeightDefault)
	KindString    = tree.NewKind("string", tree.WeightDefault)
	KindIdent     = tree.NewKind("ident", tree.WeightDefault)
	KindOperator  = tree.NewKind("operator", tree.WeightDefault)
	KindGroup     = tree.NewKind("group", tree.WeightDefault)
	KindArray     = tree.NewKind("array", tree.WeightDefault)
)

const (
	stringPattern = `"(?:[^"\\]|\\.)*"`
	blockOpen     = `\{%\s*(?:for|collect)\b(?:[^%]|%[^}])*%\}`
	blockClose    = `\{%\s*end\s*%\}`
)

// tokens returns the parser for the lexical elements of expressions.
func tokens() parse.Parser {
	return parse.Combine(
		parse.Term(KindNumber, parse.MustPattern(`\b\d+(?:\.\d+)?\b`)),
		parse.Term(KindString, parse.MustPattern(stringPattern)),
		parse.Term(KindIdent, parse.MustPattern(`[A-Za-z_][A-Za-z0-9_]*`)),
		parse.Term(KindOperator, parse.MustPattern(`[-+*/%~=,]`)),
		parse.Enclosure(KindGroup, parse.MustPair(`\(`, `\)`).Skipping(stringPattern)),
		parse.Enclosure(KindArray, parse.MustPair(`\[`, `\]`).Skipping(stringPattern)),
	)
}

// body returns the children of the body slot of n.
func body(n tree.Node) ([]tree.Node, bool) {
	b, ok := n.Slot("body")
	if !ok {
		return nil, false
	}

	return b.Children(), true
}
