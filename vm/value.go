package vm

//go:generate go tool stringer --linecomment --type Op --output op_string.go

import (
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/ardnew/ppx/tree"
)

// Value is an operand on the stack or in the heap.
// The variants are [Null], [Constant] and [Lazy].
type Value interface {
	// Eval returns the text of the value as seen by m.
	Eval(m *Memory) (string, error)
	String() string
	value()
}

// Null is the absent value. It evaluates to empty text.
type Null struct{}

// Eval implements Value.
func (Null) Eval(*Memory) (string, error) { return "", nil }

func (Null) String() string { return "null" }

func (Null) value() {}

// Constant is literal text.
type Constant string

// Eval implements Value.
func (c Constant) Eval(*Memory) (string, error) { return string(c), nil }

func (c Constant) String() string { return strconv.Quote(string(c)) }

func (Constant) value() {}

// Op is the operator of a [Lazy] value.
type Op int

const (
	OpAdd    Op = iota // +
	OpSub              // -
	OpMul              // *
	OpDiv              // /
	OpRem              // %
	OpNeg              // neg
	OpConcat           // ~
	OpLoad             // load
	OpAppend           // append
	OpList             // list
)

// Arity returns the number of operands op takes, or -1 if it takes any
// number.
func (op Op) Arity() int {
	switch op {
	case OpNeg, OpLoad:
		return 1
	case OpList:
		return -1
	default:
		return 2
	}
}

// Pure reports whether the result of op depends only on its operands.
func (op Op) Pure() bool { return op != OpLoad }

// Lazy is an expression evaluated each time it is read.
type Lazy struct {
	Origin   tree.Node
	Operands []Value
	Op       Op
}

// Ref returns a Lazy value that reads the heap address addr when evaluated.
func Ref(addr string) Lazy {
	return Lazy{Op: OpLoad, Operands: []Value{Constant(addr)}}
}

// Eval implements Value. Errors carry the origin node of the expression.
func (l Lazy) Eval(m *Memory) (string, error) {
	if err := m.enter(); err != nil {
		return "", fail(l.Origin, err)
	}
	defer m.leave()

	s, err := l.eval(m)

	return s, fail(l.Origin, err)
}

func (l Lazy) eval(m *Memory) (string, error) {
	if n := l.Op.Arity(); n >= 0 && len(l.Operands) != n {
		return "", ErrOperands.With(
			slog.String("op", l.Op.String()),
			slog.Int("want", n),
			slog.Int("got", len(l.Operands)),
		)
	}

	args := make([]string, len(l.Operands))
	for i, v := range l.Operands {
		s, err := v.Eval(m)
		if err != nil {
			return "", err
		}

		args[i] = s
	}

	switch l.Op {
	case OpLoad:
		return m.Get(args[0]).Eval(m)

	case OpConcat:
		return args[0] + args[1], nil

	case OpAppend:
		if IsNull(l.Operands[0]) {
			return args[1], nil
		}

		return args[0] + "," + args[1], nil

	case OpList:
		return strings.Join(args, ","), nil

	case OpNeg:
		x, err := parseNumber(args[0])
		if err != nil {
			return "", err
		}

		return x.neg().String(), nil

	case OpAdd, OpSub, OpMul, OpDiv, OpRem:
		x, err := parseNumber(args[0])
		if err != nil {
			return "", err
		}

		y, err := parseNumber(args[1])
		if err != nil {
			return "", err
		}

		z, err := arith(l.Op, x, y)
		if err != nil {
			return "", err
		}

		return z.String(), nil

	default:
		return "", ErrOperator.With(slog.Int("op", int(l.Op)))
	}
}

func (l Lazy) String() string {
	var sb strings.Builder

	sb.WriteByte('(')
	sb.WriteString(l.Op.String())

	for _, v := range l.Operands {
		sb.WriteByte(' ')
		sb.WriteString(v.String())
	}

	sb.WriteByte(')')

	return sb.String()
}

func (Lazy) value() {}

// IsNull reports whether v is nil or [Null].
func IsNull(v Value) bool {
	if v == nil {
		return true
	}

	_, ok := v.(Null)

	return ok
}

// Equal reports whether a and b are the same value as seen by m.
// Null equals only Null; other values compare by text.
func Equal(m *Memory, a, b Value) (bool, error) {
	if na, nb := IsNull(a), IsNull(b); na || nb {
		return na == nb, nil
	}

	x, err := a.Eval(m)
	if err != nil {
		return false, err
	}

	y, err := b.Eval(m)
	if err != nil {
		return false, err
	}

	return x == y, nil
}

// number is an integer or floating-point operand.
type number struct {
	f     float64
	i     int64
	isInt bool
}

func parseNumber(s string) (number, error) {
	t := strings.TrimSpace(s)

	if i, err := strconv.ParseInt(t, 10, 64); err == nil {
		return number{i: i, f: float64(i), isInt: true}, nil
	}

	if f, err := strconv.ParseFloat(t, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		return number{f: f}, nil
	}

	return number{}, ErrNotNumber.With(slog.String("operand", s))
}

func (n number) neg() number {
	if n.isInt && n.i != math.MinInt64 {
		return number{i: -n.i, f: -n.f, isInt: true}
	}

	return number{f: -n.f}
}

func (n number) String() string {
	if n.isInt {
		return strconv.FormatInt(n.i, 10)
	}

	if n.f == math.Trunc(n.f) && math.Abs(n.f) < 1<<53 {
		return strconv.FormatInt(int64(n.f), 10)
	}

	return strconv.FormatFloat(n.f, 'g', -1, 64)
}

// arith applies a numeric operator. Integer operands use integer arithmetic
// unless the result overflows int64 or a division does not divide evenly.
func arith(op Op, x, y number) (number, error) {
	if (op == OpDiv || op == OpRem) && y.f == 0 {
		return number{}, ErrDivideByZero
	}

	if x.isInt && y.isInt {
		if z, ok := intArith(op, x.i, y.i); ok {
			return number{i: z, f: float64(z), isInt: true}, nil
		}
	}

	switch op {
	case OpAdd:
		return number{f: x.f + y.f}, nil
	case OpSub:
		return number{f: x.f - y.f}, nil
	case OpMul:
		return number{f: x.f * y.f}, nil
	case OpDiv:
		return number{f: x.f / y.f}, nil
	case OpRem:
		return number{f: math.Mod(x.f, y.f)}, nil
	}

	return number{}, ErrOperator.With(slog.String("op", op.String()))
}

// intArith applies op to integers. It reports false when the result is not
// an exact int64.
func intArith(op Op, x, y int64) (int64, bool) {
	switch op {
	case OpAdd:
		z := x + y

		return z, (z > x) == (y > 0)
	case OpSub:
		z := x - y

		return z, (z < x) == (y > 0)
	case OpMul:
		if x == 0 || y == 0 {
			return 0, true
		}

		z := x * y

		return z, z/y == x && !(x == -1 && y == math.MinInt64) && !(y == -1 && x == math.MinInt64)
	case OpRem:
		if y == -1 {
			return 0, true
		}

		return x % y, true
	case OpDiv:
		if x%y != 0 || (x == math.MinInt64 && y == -1) {
			return 0, false
		}

		return x / y, true
	}

	return 0, false
}
