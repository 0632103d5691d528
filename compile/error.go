package compile

import (
	"fmt"
	"log/slog"

	"github.com/ardnew/ppx/pkg"
	"github.com/ardnew/ppx/tree"
)

var (
	ErrUnrecognized = pkg.NewError("no compiler recognizes node")
	ErrSyntax       = pkg.NewError("invalid syntax")
)

// Error reports a failure to compile a node.
type Error struct {
	Err  error
	Node tree.Node
}

func (e *Error) Error() string {
	if !e.Node.Valid() {
		return "compile failed: " + e.Err.Error()
	}

	doc := e.Node.Document()
	line, col := doc.Position(e.Node.Ref().Pos)

	return fmt.Sprintf("compile failed at %s:%d:%d (%v): %v",
		doc.Name(), line, col, e.Node, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// LogValue implements slog.LogValuer.
func (e *Error) LogValue() slog.Value {
	attrs := []slog.Attr{slog.Any("error", e.Err)}
	if e.Node.Valid() {
		attrs = append(attrs, slog.Any("node", e.Node))
	}

	return slog.GroupValue(attrs...)
}

// Errorf returns an [Error] at n wrapping a syntax error with a formatted
// message.
func Errorf(n tree.Node, format string, args ...any) error {
	return &Error{Node: n, Err: ErrSyntax.Wrap(fmt.Errorf(format, args...))}
}
