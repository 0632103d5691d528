package vm

import (
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"github.com/ardnew/ppx/pkg"
	"github.com/ardnew/ppx/tree"
)

var (
	ErrStackEmpty    = pkg.NewError("pop on empty stack")
	ErrStackDepth    = pkg.NewError("stack index out of range")
	ErrNoFrame       = pkg.NewError("no open frame")
	ErrNotNumber     = pkg.NewError("operand is not a number")
	ErrDivideByZero  = pkg.NewError("division by zero")
	ErrOperator      = pkg.NewError("unknown operator")
	ErrOperands      = pkg.NewError("wrong number of operands")
	ErrDepth         = pkg.NewError("maximum evaluation depth exceeded")
	ErrNoRegistry    = pkg.NewError("no registry to resolve documents")
	ErrNoCompilation = pkg.NewError("no such compilation")
	ErrNoProgram     = pkg.NewError("compilation has no compiled instruction")
)

// ExecutionError reports a failure while running an instruction.
// It carries the source node the failing instruction was compiled from (when
// the program still has origins) and the name of the document involved.
type ExecutionError struct {
	Err  error
	Node tree.Node
	Unit string
}

// Error implements the error interface.
func (e *ExecutionError) Error() string {
	var sb strings.Builder

	sb.WriteString("execution failed")

	if e.Unit != "" {
		sb.WriteString(" in ")
		sb.WriteString(strconv.Quote(e.Unit))
	}

	if e.Node.Valid() {
		line, col := e.Node.Document().Position(e.Node.Ref().Pos)

		sb.WriteString(" at ")
		sb.WriteString(e.Node.Document().Name())
		sb.WriteByte(':')
		sb.WriteString(strconv.Itoa(line))
		sb.WriteByte(':')
		sb.WriteString(strconv.Itoa(col))
		sb.WriteString(" (")
		sb.WriteString(e.Node.String())
		sb.WriteByte(')')
	}

	if e.Err != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}

	return sb.String()
}

// Unwrap returns the underlying cause.
func (e *ExecutionError) Unwrap() error { return e.Err }

// LogValue implements slog.LogValuer.
func (e *ExecutionError) LogValue() slog.Value {
	attrs := []slog.Attr{slog.String("error", "execution failed")}

	if e.Err != nil {
		attrs = append(attrs, slog.String("cause", e.Err.Error()))
	}

	if e.Unit != "" {
		attrs = append(attrs, slog.String("unit", e.Unit))
	}

	if e.Node.Valid() {
		attrs = append(attrs, slog.Any("tree", e.Node))
	}

	return slog.GroupValue(attrs...)
}

// fail wraps err in an ExecutionError located at n. Errors that already
// carry a location are returned unchanged.
func fail(n tree.Node, err error) error {
	if err == nil {
		return nil
	}

	var ee *ExecutionError
	if errors.As(err, &ee) {
		if !ee.Node.Valid() && n.Valid() {
			ee.Node = n
		}

		return err
	}

	return &ExecutionError{Node: n, Err: err}
}
