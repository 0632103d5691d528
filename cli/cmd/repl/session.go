package repl

import (
	"bytes"
	"context"
	"log/slog"

	"github.com/ardnew/ppx/source"
	"github.com/ardnew/ppx/unit"
	"github.com/ardnew/ppx/vm"
)

// sessionDocument names the document every evaluated line is built as.
const sessionDocument = "repl"

// Session evaluates documents one at a time against a heap that persists
// between them.
type Session struct {
	unit  *unit.Unit
	mem   *vm.Memory
	out   *bytes.Buffer
	count int
}

// NewSession returns a session whose unit is configured by opts. The console
// of the unit is replaced by the session.
func NewSession(ctx context.Context, opts ...unit.Option) *Session {
	s := &Session{out: new(bytes.Buffer)}
	s.unit = unit.New(append(opts, unit.WithConsole(s.out))...)
	s.mem = s.unit.NewMemory(ctx)

	return s
}

// Preload builds docs into the session environment so evaluated lines can
// exec them.
func (s *Session) Preload(ctx context.Context, docs ...*source.Document) error {
	_, err := s.unit.BuildAll(ctx, docs...)

	return err
}

// Eval builds text and executes it against the session heap. It returns what
// the execution wrote to the console, even when execution fails midway.
func (s *Session) Eval(ctx context.Context, text string) (string, error) {
	s.count++

	defer s.out.Reset()

	c, err := s.unit.Build(ctx, source.NewDocument(sessionDocument, text))
	if err != nil {
		return "", err
	}

	err = s.unit.ExecuteIn(ctx, c, s.mem)

	return s.out.String(), err
}

// Count returns the number of evaluations since the session started.
func (s *Session) Count() int { return s.count }

// Names returns the sorted heap addresses.
func (s *Session) Names() []string { return s.mem.Names() }

// Value evaluates the heap entry at name.
func (s *Session) Value(name string) (string, error) {
	return s.mem.Eval(s.mem.Get(name))
}

// Documents returns the names of the documents in the session environment.
func (s *Session) Documents() []string { return s.unit.Environment().Names() }

// Reset discards the heap and stack.
func (s *Session) Reset(ctx context.Context) {
	s.mem = s.unit.NewMemory(ctx)
}

// LogValue implements slog.LogValuer.
func (s *Session) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("count", s.count),
		slog.Int("heap", len(s.mem.Names())),
		slog.Int("documents", len(s.Documents())),
	)
}
