package vm

import (
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/ardnew/ppx/tree"
)

// Instruction is one executable step of a program.
type Instruction interface {
	// Exec runs the instruction against m, resolving other documents
	// through r.
	Exec(r Registry, m *Memory) error
	// Optimize returns an equivalent instruction. A negative mode also strips
	// source nodes. Optimize never modifies its receiver and is idempotent.
	Optimize(mode int) Instruction
	// Origin returns the node the instruction was compiled from.
	Origin() tree.Node
	String() string
}

// Registry resolves the program compiled for a document name.
type Registry interface {
	Program(name string) (Instruction, error)
}

// Source records the node an instruction was compiled from.
type Source struct{ Node tree.Node }

// Origin implements part of Instruction.
func (s Source) Origin() tree.Node { return s.Node }

func (s Source) strip(mode int) Source {
	if mode < 0 {
		return Source{}
	}

	return s
}

// At returns a Source for n.
func At(n tree.Node) Source { return Source{Node: n} }

// Push pushes a value.
type Push struct {
	Value Value
	Source
}

// Exec implements [Instruction].
func (i Push) Exec(_ Registry, m *Memory) error {
	m.Push(i.Value)

	return nil
}

// Optimize implements [Instruction].
func (i Push) Optimize(mode int) Instruction {
	i.Source = i.strip(mode)
	if l, ok := i.Value.(Lazy); ok && mode < 0 {
		i.Value = stripLazy(l)
	}

	return i
}

// String returns the listing form of the instruction.
func (i Push) String() string { return "push " + valueString(i.Value) }

// Dup pushes a copy of the value Depth entries below the top.
type Dup struct {
	Source
	Depth int
}

// Exec implements [Instruction].
func (i Dup) Exec(_ Registry, m *Memory) error {
	v, err := m.Peek(i.Depth)
	if err != nil {
		return fail(i.Node, err)
	}

	m.Push(v)

	return nil
}

// Optimize implements [Instruction].
func (i Dup) Optimize(mode int) Instruction {
	i.Source = i.strip(mode)

	return i
}

// String returns the listing form of the instruction.
func (i Dup) String() string { return "dup " + strconv.Itoa(i.Depth) }

// Swap exchanges the top of the stack with the value Depth entries below.
type Swap struct {
	Source
	Depth int
}

// Exec implements [Instruction].
func (i Swap) Exec(_ Registry, m *Memory) error {
	return fail(i.Node, m.Swap(i.Depth))
}

// Optimize implements [Instruction].
func (i Swap) Optimize(mode int) Instruction {
	i.Source = i.strip(mode)

	return i
}

// String returns the listing form of the instruction.
func (i Swap) String() string { return "swap " + strconv.Itoa(i.Depth) }

// Drop pops Count values.
type Drop struct {
	Source
	Count int
}

// Exec implements [Instruction].
func (i Drop) Exec(_ Registry, m *Memory) error {
	for range i.Count {
		if _, err := m.Pop(); err != nil {
			return fail(i.Node, err)
		}
	}

	return nil
}

// Optimize implements [Instruction].
func (i Drop) Optimize(mode int) Instruction {
	i.Source = i.strip(mode)

	return i
}

// String returns the listing form of the instruction.
func (i Drop) String() string { return "drop " + strconv.Itoa(i.Count) }

// Alloc pops an address and then a value, and binds the address to the
// value.
type Alloc struct{ Source }

// Exec implements [Instruction].
func (i Alloc) Exec(_ Registry, m *Memory) error {
	addr, err := popText(m)
	if err != nil {
		return fail(i.Node, err)
	}

	v, err := m.Pop()
	if err != nil {
		return fail(i.Node, err)
	}

	m.Set(addr, v)

	return nil
}

// Optimize implements [Instruction].
func (i Alloc) Optimize(mode int) Instruction {
	i.Source = i.strip(mode)

	return i
}

// String returns the listing form of the instruction.
func (Alloc) String() string { return "alloc" }

// Load pops an address and pushes the value bound to it.
type Load struct{ Source }

// Exec implements [Instruction].
func (i Load) Exec(_ Registry, m *Memory) error {
	addr, err := popText(m)
	if err != nil {
		return fail(i.Node, err)
	}

	m.Push(m.Get(addr))

	return nil
}

// Optimize implements [Instruction].
func (i Load) Optimize(mode int) Instruction {
	i.Source = i.strip(mode)

	return i
}

// String returns the listing form of the instruction.
func (Load) String() string { return "load" }

// Unset pops an address and removes its binding.
type Unset struct{ Source }

// Exec implements [Instruction].
func (i Unset) Exec(_ Registry, m *Memory) error {
	addr, err := popText(m)
	if err != nil {
		return fail(i.Node, err)
	}

	m.Unset(addr)

	return nil
}

// Optimize implements [Instruction].
func (i Unset) Optimize(mode int) Instruction {
	i.Source = i.strip(mode)

	return i
}

// String returns the listing form of the instruction.
func (Unset) String() string { return "unset" }

// Apply pops Arity operands and pushes a [Lazy] value combining them with
// Op. The first operand is the deepest.
type Apply struct {
	Source
	Op    Op
	Arity int
}

// Exec implements [Instruction].
func (i Apply) Exec(_ Registry, m *Memory) error {
	if n := i.Op.Arity(); n >= 0 && n != i.Arity {
		return fail(i.Node, ErrOperands.With(
			slog.String("op", i.Op.String()),
			slog.Int("want", n),
			slog.Int("got", i.Arity),
		))
	}

	args := make([]Value, i.Arity)
	for k := i.Arity - 1; k >= 0; k-- {
		v, err := m.Pop()
		if err != nil {
			return fail(i.Node, err)
		}

		args[k] = v
	}

	m.Push(Lazy{Op: i.Op, Operands: args, Origin: i.Node})

	return nil
}

// Optimize implements [Instruction].
func (i Apply) Optimize(mode int) Instruction {
	i.Source = i.strip(mode)

	return i
}

// String returns the listing form of the instruction.
func (i Apply) String() string { return "apply " + i.Op.String() + " " + strconv.Itoa(i.Arity) }

// Force replaces the top of the stack with its evaluated text.
type Force struct{ Source }

// Exec implements [Instruction].
func (i Force) Exec(_ Registry, m *Memory) error {
	s, err := popText(m)
	if err != nil {
		return fail(i.Node, err)
	}

	m.Push(Constant(s))

	return nil
}

// Optimize implements [Instruction].
func (i Force) Optimize(mode int) Instruction {
	i.Source = i.strip(mode)

	return i
}

// String returns the listing form of the instruction.
func (Force) String() string { return "force" }

// Echo pops a value and writes its text to the console.
type Echo struct{ Source }

// Exec implements [Instruction].
func (i Echo) Exec(_ Registry, m *Memory) error {
	s, err := popText(m)
	if err != nil {
		return fail(i.Node, err)
	}

	_, err = io.WriteString(m.Console(), s)

	return fail(i.Node, err)
}

// Optimize implements [Instruction].
func (i Echo) Optimize(mode int) Instruction {
	i.Source = i.strip(mode)

	return i
}

// String returns the listing form of the instruction.
func (Echo) String() string { return "echo" }

// Write writes constant text to the console.
type Write struct {
	Source
	Text string
}

// Exec implements [Instruction].
func (i Write) Exec(_ Registry, m *Memory) error {
	_, err := io.WriteString(m.Console(), i.Text)

	return fail(i.Node, err)
}

// Optimize implements [Instruction].
func (i Write) Optimize(mode int) Instruction {
	i.Source = i.strip(mode)

	return i
}

// String returns the listing form of the instruction.
func (i Write) String() string { return "write " + strconv.Quote(i.Text) }

// Redirect pops a value. Null restores the default console; any other value
// names a heap address that receives subsequent console output.
type Redirect struct{ Source }

// Exec implements [Instruction].
func (i Redirect) Exec(_ Registry, m *Memory) error {
	v, err := m.Pop()
	if err != nil {
		return fail(i.Node, err)
	}

	if IsNull(v) {
		m.ResetConsole()

		return nil
	}

	addr, err := v.Eval(m)
	if err != nil {
		return fail(i.Node, err)
	}

	m.Redirect(heapWriter{m: m, addr: addr})

	return nil
}

// Optimize implements [Instruction].
func (i Redirect) Optimize(mode int) Instruction {
	i.Source = i.strip(mode)

	return i
}

// String returns the listing form of the instruction.
func (Redirect) String() string { return "redirect" }

// Split pops a value, splits its text on Sep and pushes a Null sentinel
// followed by the trimmed parts in reverse, leaving the first part on top.
type Split struct {
	Source
	Sep string
}

// Exec implements [Instruction].
func (i Split) Exec(_ Registry, m *Memory) error {
	s, err := popText(m)
	if err != nil {
		return fail(i.Node, err)
	}

	m.Push(Null{})

	if strings.TrimSpace(s) == "" {
		return nil
	}

	parts := strings.Split(s, i.Sep)
	for k := len(parts) - 1; k >= 0; k-- {
		m.Push(Constant(strings.TrimSpace(parts[k])))
	}

	return nil
}

// Optimize implements [Instruction].
func (i Split) Optimize(mode int) Instruction {
	i.Source = i.strip(mode)

	return i
}

// String returns the listing form of the instruction.
func (i Split) String() string { return "split " + strconv.Quote(i.Sep) }

// Exec pops a document name and runs the program compiled for it against
// the same memory.
type Exec struct{ Source }

// Exec implements [Instruction].
func (i Exec) Exec(r Registry, m *Memory) error {
	name, err := popText(m)
	if err != nil {
		return fail(i.Node, err)
	}

	if r == nil {
		return &ExecutionError{Node: i.Node, Unit: name, Err: ErrNoRegistry}
	}

	prog, err := r.Program(name)
	if err != nil {
		return &ExecutionError{Node: i.Node, Unit: name, Err: err}
	}

	if err := m.enter(); err != nil {
		return &ExecutionError{Node: i.Node, Unit: name, Err: err}
	}
	defer m.leave()

	return prog.Exec(r, m)
}

// Optimize implements [Instruction].
func (i Exec) Optimize(mode int) Instruction {
	i.Source = i.strip(mode)

	return i
}

// String returns the listing form of the instruction.
func (Exec) String() string { return "exec" }

// Repeat runs Body until the top of the stack equals Sentinel, then pops
// the sentinel. A nil Sentinel is [Null].
type Repeat struct {
	Body     Instruction
	Sentinel Value
	Source
}

// Exec implements [Instruction].
func (i Repeat) Exec(r Registry, m *Memory) error {
	for {
		if err := m.Err(); err != nil {
			return fail(i.Node, err)
		}

		top, err := m.Peek(0)
		if err != nil {
			return fail(i.Node, err)
		}

		done, err := Equal(m, top, i.Sentinel)
		if err != nil {
			return fail(i.Node, err)
		}

		if done {
			_, err := m.Pop()

			return fail(i.Node, err)
		}

		if err := i.Body.Exec(r, m); err != nil {
			return err
		}
	}
}

// Optimize implements [Instruction].
func (i Repeat) Optimize(mode int) Instruction {
	i.Source = i.strip(mode)
	i.Body = i.Body.Optimize(mode)

	return i
}

// String returns the listing form of the instruction.
func (i Repeat) String() string { return "repeat until " + valueString(i.Sentinel) }

// Gather runs Body inside a capture frame and pushes the values written
// during it as a comma-joined list.
type Gather struct {
	Body Instruction
	Source
}

// Exec implements [Instruction].
func (i Gather) Exec(r Registry, m *Memory) error {
	m.PushFrame()

	if err := i.Body.Exec(r, m); err != nil {
		_ = m.DumpFrame()

		return err
	}

	vals, err := m.JoinFrame()
	if err != nil {
		return fail(i.Node, err)
	}

	m.Push(Lazy{Op: OpList, Operands: vals, Origin: i.Node})

	return nil
}

// Optimize implements [Instruction].
func (i Gather) Optimize(mode int) Instruction {
	i.Source = i.strip(mode)
	i.Body = i.Body.Optimize(mode)

	return i
}

// String returns the listing form of the instruction.
func (Gather) String() string { return "gather" }

// Block runs Items in order.
type Block struct {
	Items []Instruction
	Source
}

// Exec implements [Instruction].
func (i Block) Exec(r Registry, m *Memory) error {
	for _, it := range i.Items {
		if err := it.Exec(r, m); err != nil {
			return err
		}
	}

	return nil
}

// String returns the listing form of the instruction.
func (i Block) String() string { return "block " + strconv.Itoa(len(i.Items)) }

// popText pops a value and evaluates it.
func popText(m *Memory) (string, error) {
	v, err := m.Pop()
	if err != nil {
		return "", err
	}

	return v.Eval(m)
}

func valueString(v Value) string {
	if v == nil {
		return Null{}.String()
	}

	return v.String()
}

// stripLazy removes origins from l and its operands.
func stripLazy(l Lazy) Lazy {
	ops := make([]Value, len(l.Operands))
	for k, v := range l.Operands {
		if sub, ok := v.(Lazy); ok {
			v = stripLazy(sub)
		}

		ops[k] = v
	}

	return Lazy{Op: l.Op, Operands: ops}
}
