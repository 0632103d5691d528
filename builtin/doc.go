// Package builtin provides the plugins shipped with ppx.
//
// [Template] copies text to the console and runs the directives embedded
// in it:
//
//	{{ expr }}                 echo an expression
//	{% set NAME = expr %}      bind NAME to the current value of expr
//	{% let NAME = expr %}      bind NAME to expr, evaluated on every read
//	{% append NAME expr %}     append to a comma-separated accumulator
//	{% unset NAME %}           remove a binding
//	{% exec expr %}            run the document named by expr
//	{% output [expr] %}        redirect output into a binding, or restore it
//	{% for NAME in expr %} ... {% end %}
//	{% collect NAME %} ... {% end %}
//
// Expressions are numbers, "strings", identifiers, ( ) groups, [ ] arrays,
// the arithmetic operators + - * / %, unary minus, and ~ concatenation.
//
// [Calc] treats a whole document as a single expression and prints its
// value. [Expr] adds {= expr =} directives evaluated by expr-lang against the
// current bindings.
package builtin
