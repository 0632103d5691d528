package compile

import (
	"log/slog"
	"sync"

	"github.com/ardnew/ppx/source"
	"github.com/ardnew/ppx/tree"
	"github.com/ardnew/ppx/vm"
)

// Compilation pairs the tree of a document with the program compiled from
// it.
type Compilation struct {
	tree    *tree.Tree
	program vm.Instruction
	mu      sync.RWMutex
}

// New returns a compilation with an empty tree over doc.
func New(doc *source.Document) *Compilation {
	return &Compilation{tree: tree.New(doc)}
}

// Name returns the name of the document.
func (c *Compilation) Name() string { return c.tree.Document().Name() }

// Document returns the compiled document.
func (c *Compilation) Document() *source.Document { return c.tree.Document() }

// Tree returns the tree of the document.
func (c *Compilation) Tree() *tree.Tree { return c.tree }

// Root returns the root node of the tree.
func (c *Compilation) Root() tree.Node { return c.tree.Root() }

// Program returns the compiled program, if any.
func (c *Compilation) Program() (vm.Instruction, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.program, c.program != nil
}

// SetProgram replaces the compiled program.
func (c *Compilation) SetProgram(inst vm.Instruction) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.program = inst
}

// Compile folds the root of the tree with root and stores the result. The
// root node must be recognized.
func (c *Compilation) Compile(root Compiler) error {
	r, err := Mandatory(root).Compile(root, c, c.Root())
	if err != nil {
		return err
	}

	inst, _ := r.Instruction()
	c.SetProgram(inst)

	return nil
}

// LogValue implements slog.LogValuer.
func (c *Compilation) LogValue() slog.Value {
	_, ok := c.Program()

	return slog.GroupValue(
		slog.String("name", c.Name()),
		slog.Int("nodes", c.tree.Len()),
		slog.Bool("compiled", ok),
	)
}
