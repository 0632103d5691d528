package unit

import (
	"log/slog"
	"maps"
	"slices"
	"sync"

	"github.com/ardnew/ppx/compile"
	"github.com/ardnew/ppx/source"
	"github.com/ardnew/ppx/vm"
)

// Environment is the registry of compilations shared by the documents of a
// run. It implements [vm.Registry] and is safe for concurrent use.
type Environment struct {
	units map[string]*compile.Compilation
	mu    sync.RWMutex
}

// NewEnvironment returns an empty environment.
func NewEnvironment() *Environment {
	return &Environment{units: make(map[string]*compile.Compilation)}
}

// Initialize returns the compilation registered for the name of doc if its
// content is unchanged. Otherwise it registers a new compilation for doc and
// reports it as fresh.
func (e *Environment) Initialize(doc *source.Document) (c *compile.Compilation, fresh bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if c, ok := e.units[doc.Name()]; ok && c.Document().Sum() == doc.Sum() {
		return c, false
	}

	c = compile.New(doc)
	e.units[doc.Name()] = c

	return c, true
}

// Add registers c under its name, replacing any previous compilation.
func (e *Environment) Add(c *compile.Compilation) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.units[c.Name()] = c
}

// Remove drops the compilation registered under name.
func (e *Environment) Remove(name string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	delete(e.units, name)
}

// Lookup returns the compilation registered under name.
func (e *Environment) Lookup(name string) (*compile.Compilation, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	c, ok := e.units[name]

	return c, ok
}

// Names returns the registered names in order.
func (e *Environment) Names() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return slices.Sorted(maps.Keys(e.units))
}

// Program implements vm.Registry.
func (e *Environment) Program(name string) (vm.Instruction, error) {
	c, ok := e.Lookup(name)
	if !ok {
		return nil, vm.ErrNoCompilation.With(slog.String("name", name))
	}

	prog, ok := c.Program()
	if !ok {
		return nil, vm.ErrNoProgram.With(slog.String("name", name))
	}

	return prog, nil
}
