package unit

//go:generate go tool stringer --linecomment --type Event --output event_string.go

import (
	"context"
	"slices"

	"github.com/ardnew/ppx/compile"
	"github.com/ardnew/ppx/parse"
	"github.com/ardnew/ppx/tree"
	"github.com/ardnew/ppx/vm"
)

// Plugin contributes the behavior of one family of constructs.
//
// Parsers and analyzers run in registration order, plugin by plugin.
// Compiler rules of all plugins are tried in the same order, first emitting
// rule wins.
type Plugin struct {
	Name      string
	Parsers   []parse.Parser
	Analyzers []Analyzer
	Compilers []compile.Rule
	Listeners []Listener
}

// Analyzer inspects one node and may reclassify or annotate it. It reports
// whether it modified anything.
type Analyzer interface {
	Analyze(ctx context.Context, c *compile.Compilation, n tree.Node) (bool, error)
}

// AnalyzerFunc adapts a function to the Analyzer interface.
type AnalyzerFunc func(ctx context.Context, c *compile.Compilation, n tree.Node) (bool, error)

// Analyze implements Analyzer.
func (f AnalyzerFunc) Analyze(ctx context.Context, c *compile.Compilation, n tree.Node) (bool, error) {
	return f(ctx, c, n)
}

// Event identifies a point in the life of a compilation.
type Event int

const (
	PostParse       Event = iota // post-parse
	PostAnalyze                  // post-analyze
	PreCompile                   // pre-compile
	PostCompile                  // post-compile
	PostOptimize                 // post-optimize
	PreExecute                   // pre-execute
	PostExecute                  // post-execute
	MemoryDestroyed              // memory-destroyed
)

// State is what a listener can observe. Memory is set only for execution
// events.
type State struct {
	Env         *Environment
	Compilation *compile.Compilation
	Memory      *vm.Memory
}

// Listener is notified of events. A returned error aborts the stage.
// Listeners of documents built concurrently are called concurrently.
type Listener func(ctx context.Context, ev Event, s State) error

// When returns a listener calling fn only for the given events.
func When(fn Listener, events ...Event) Listener {
	return func(ctx context.Context, ev Event, s State) error {
		if !slices.Contains(events, ev) {
			return nil
		}

		return fn(ctx, ev, s)
	}
}
