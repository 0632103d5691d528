package vm

import (
	"context"
	"io"
	"iter"
	"log/slog"
	"maps"
	"os"
	"slices"
)

// DefaultMaxDepth bounds nested evaluation and cross-document execution.
const DefaultMaxDepth = 1024

// Memory is the state of one execution: a value stack, a heap of named
// values, write-capture frames and a console sink.
// A Memory is not safe for concurrent use.
type Memory struct {
	ctx      context.Context
	console  io.Writer
	output   io.Writer
	heap     map[string]Value
	stack    []Value
	frames   [][]Value
	depth    int
	maxDepth int
}

// Option configures a Memory.
type Option func(*Memory)

// WithConsole sets the default console. A nil writer discards output.
func WithConsole(w io.Writer) Option {
	return func(m *Memory) {
		if w == nil {
			w = io.Discard
		}

		m.output = w
	}
}

// WithContext sets the context checked between loop iterations.
func WithContext(ctx context.Context) Option {
	return func(m *Memory) { m.ctx = ctx }
}

// WithHeap presets heap entries as constants.
func WithHeap(vars map[string]string) Option {
	return func(m *Memory) {
		for k, v := range vars {
			m.heap[k] = Constant(v)
		}
	}
}

// WithMaxDepth bounds nested evaluation and execution.
func WithMaxDepth(n int) Option {
	return func(m *Memory) {
		if n > 0 {
			m.maxDepth = n
		}
	}
}

// NewMemory returns an empty Memory writing its console to standard output.
func NewMemory(opts ...Option) *Memory {
	m := &Memory{
		ctx:      context.Background(),
		output:   os.Stdout,
		heap:     make(map[string]Value),
		maxDepth: DefaultMaxDepth,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.console = m.output

	return m
}

// Err returns the error of the memory's context, if any.
func (m *Memory) Err() error { return m.ctx.Err() }

// Push pushes v onto the stack. A nil value is pushed as [Null].
func (m *Memory) Push(v Value) {
	if v == nil {
		v = Null{}
	}

	m.stack = append(m.stack, v)
}

// Pop removes and returns the top of the stack.
func (m *Memory) Pop() (Value, error) {
	if len(m.stack) == 0 {
		return nil, ErrStackEmpty
	}

	v := m.stack[len(m.stack)-1]
	m.stack = m.stack[:len(m.stack)-1]

	return v, nil
}

// Peek returns the value depth entries below the top of the stack.
func (m *Memory) Peek(depth int) (Value, error) {
	if len(m.stack) == 0 {
		return nil, ErrStackEmpty
	}

	i := len(m.stack) - 1 - depth
	if depth < 0 || i < 0 {
		return nil, ErrStackDepth.With(slog.Int("depth", depth), slog.Int("len", len(m.stack)))
	}

	return m.stack[i], nil
}

// Swap exchanges the top of the stack with the value depth entries below it.
func (m *Memory) Swap(depth int) error {
	if _, err := m.Peek(depth); err != nil {
		return err
	}

	top := len(m.stack) - 1
	m.stack[top], m.stack[top-depth] = m.stack[top-depth], m.stack[top]

	return nil
}

// Len returns the number of values on the stack.
func (m *Memory) Len() int { return len(m.stack) }

// Set binds addr to v in the heap and records the write in the innermost
// open frame.
func (m *Memory) Set(addr string, v Value) {
	if v == nil {
		v = Null{}
	}

	m.heap[addr] = v

	if n := len(m.frames); n > 0 {
		m.frames[n-1] = append(m.frames[n-1], v)
	}
}

// Get returns the value bound to addr, or [Null] if it is unbound.
func (m *Memory) Get(addr string) Value {
	if v, ok := m.Lookup(addr); ok {
		return v
	}

	return Null{}
}

// Lookup returns the value bound to addr and whether it is bound.
func (m *Memory) Lookup(addr string) (Value, bool) {
	v, ok := m.heap[addr]

	return v, ok
}

// Unset removes addr from the heap. It reports whether addr was bound.
func (m *Memory) Unset(addr string) bool {
	_, ok := m.heap[addr]
	delete(m.heap, addr)

	return ok
}

// Names returns the bound heap addresses in sorted order.
func (m *Memory) Names() []string { return slices.Sorted(maps.Keys(m.heap)) }

// Heap returns an iterator over the heap in address order.
func (m *Memory) Heap() iter.Seq2[string, Value] {
	return func(yield func(string, Value) bool) {
		for _, k := range m.Names() {
			if !yield(k, m.heap[k]) {
				return
			}
		}
	}
}

// PushFrame opens a capture frame. Heap writes are recorded into the
// innermost open frame until it is closed.
func (m *Memory) PushFrame() { m.frames = append(m.frames, nil) }

// DumpFrame closes the innermost frame and discards its record.
func (m *Memory) DumpFrame() error {
	_, err := m.JoinFrame()

	return err
}

// JoinFrame closes the innermost frame and returns the values written while
// it was open, in write order. The heap is left as it is.
func (m *Memory) JoinFrame() ([]Value, error) {
	n := len(m.frames)
	if n == 0 {
		return nil, ErrNoFrame
	}

	rec := m.frames[n-1]
	m.frames = m.frames[:n-1]

	return rec, nil
}

// Frames returns the number of open frames.
func (m *Memory) Frames() int { return len(m.frames) }

// Console returns the current console sink.
func (m *Memory) Console() io.Writer { return m.console }

// Redirect sends subsequent console output to w.
func (m *Memory) Redirect(w io.Writer) { m.console = w }

// ResetConsole restores the default console.
func (m *Memory) ResetConsole() { m.console = m.output }

// Eval evaluates v against m. A nil value evaluates as [Null].
func (m *Memory) Eval(v Value) (string, error) {
	if v == nil {
		return "", nil
	}

	return v.Eval(m)
}

func (m *Memory) enter() error {
	if m.depth >= m.maxDepth {
		return ErrDepth.With(slog.Int("max", m.maxDepth))
	}

	m.depth++

	return nil
}

func (m *Memory) leave() { m.depth-- }

// heapWriter appends console output to a heap address. The text already
// bound there is evaluated and replaced by a [Constant].
type heapWriter struct {
	m    *Memory
	addr string
}

func (w heapWriter) Write(p []byte) (int, error) {
	prev, err := w.m.Eval(w.m.Get(w.addr))
	if err != nil {
		return 0, err
	}

	w.m.Set(w.addr, Constant(prev+string(p)))

	return len(p), nil
}
