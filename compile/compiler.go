package compile

import (
	"github.com/ardnew/ppx/tree"
	"github.com/ardnew/ppx/vm"
)

// Result is the outcome of a [Compiler]: either an instruction or a skip.
// The zero Result is [Skip].
type Result struct {
	inst vm.Instruction
}

// Skip reports that a compiler does not apply to a node.
var Skip = Result{}

// Emit reports the instruction compiled for a node. Emit(nil) is [Skip].
func Emit(inst vm.Instruction) Result { return Result{inst: inst} }

// Instruction returns the emitted instruction.
func (r Result) Instruction() (vm.Instruction, bool) { return r.inst, r.inst != nil }

// Skipped reports whether r is a skip.
func (r Result) Skipped() bool { return r.inst == nil }

// Or returns r, or other if r is a skip.
func (r Result) Or(other Result) Result {
	if r.Skipped() {
		return other
	}

	return r
}

// Compiler compiles a node of a compilation. Compilers use root to compile
// nodes below n.
type Compiler interface {
	Compile(root Compiler, c *Compilation, n tree.Node) (Result, error)
}

// Func adapts a function to the Compiler interface.
type Func func(root Compiler, c *Compilation, n tree.Node) (Result, error)

// Compile implements Compiler.
func (f Func) Compile(root Compiler, c *Compilation, n tree.Node) (Result, error) {
	return f(root, c, n)
}

// Mandatory returns a compiler that fails with [ErrUnrecognized] where c
// skips.
func Mandatory(c Compiler) Compiler {
	return Func(func(root Compiler, cc *Compilation, n tree.Node) (Result, error) {
		r, err := c.Compile(root, cc, n)
		if err != nil {
			return Skip, err
		}

		if r.Skipped() {
			return Skip, &Error{Node: n, Err: ErrUnrecognized}
		}

		return r, nil
	})
}

// First returns a compiler that tries each compiler in order and returns the
// first emitted result.
func First(cs ...Compiler) Compiler {
	return Func(func(root Compiler, cc *Compilation, n tree.Node) (Result, error) {
		for _, c := range cs {
			r, err := c.Compile(root, cc, n)
			if err != nil || !r.Skipped() {
				return r, err
			}
		}

		return Skip, nil
	})
}

// Combine returns a compiler that runs every compiler against the same node
// and emits a block of their instructions in order. It skips when none of
// them emits.
func Combine(cs ...Compiler) Compiler {
	return Func(func(root Compiler, cc *Compilation, n tree.Node) (Result, error) {
		var items []vm.Instruction

		for _, c := range cs {
			r, err := c.Compile(root, cc, n)
			if err != nil {
				return Skip, err
			}

			if inst, ok := r.Instruction(); ok {
				items = append(items, inst)
			}
		}

		if len(items) == 0 {
			return Skip, nil
		}

		return Emit(vm.Block{Items: items, Source: vm.At(n)}), nil
	})
}

// Guard returns a compiler that applies c only to nodes of the given kinds.
func Guard(c Compiler, kinds ...tree.Kind) Compiler {
	return Func(func(root Compiler, cc *Compilation, n tree.Node) (Result, error) {
		if !n.Is(kinds...) {
			return Skip, nil
		}

		return c.Compile(root, cc, n)
	})
}

// Sequence compiles nodes in order with root and returns a block of the
// emitted instructions. Every node must be recognized.
func Sequence(root Compiler, c *Compilation, at tree.Node, nodes []tree.Node) (vm.Block, error) {
	b := vm.Block{Source: vm.At(at)}

	for _, n := range nodes {
		r, err := Mandatory(root).Compile(root, c, n)
		if err != nil {
			return b, err
		}

		inst, _ := r.Instruction()
		b.Items = append(b.Items, inst)
	}

	return b, nil
}
