package unit

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"maps"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ardnew/ppx/compile"
	"github.com/ardnew/ppx/log"
	"github.com/ardnew/ppx/parse"
	"github.com/ardnew/ppx/source"
	"github.com/ardnew/ppx/vm"
)

// Unit runs documents through parse, analyze, compile, optimize and execute.
type Unit struct {
	env       *Environment
	compiler  *compile.Dispatcher
	logger    log.Logger
	console   io.Writer
	heap      map[string]string
	plugins   []Plugin
	parsers   []parse.Parser
	mode      int
	maxPasses int
	maxDepth  int
	optimize  bool
}

// Option configures a Unit.
type Option func(*Unit)

// WithLogger sets the logger. The zero logger discards everything.
func WithLogger(l log.Logger) Option {
	return func(u *Unit) { u.logger = l }
}

// WithConsole sets the console of every execution. The default is
// standard output.
func WithConsole(w io.Writer) Option {
	return func(u *Unit) { u.console = w }
}

// WithPlugins appends plugins.
func WithPlugins(ps ...Plugin) Option {
	return func(u *Unit) { u.plugins = append(u.plugins, ps...) }
}

// WithHeap presets heap entries of every execution.
func WithHeap(vars map[string]string) Option {
	return func(u *Unit) {
		if u.heap == nil {
			u.heap = make(map[string]string, len(vars))
		}

		maps.Copy(u.heap, vars)
	}
}

// WithEnvironment shares env instead of a private environment.
func WithEnvironment(env *Environment) Option {
	return func(u *Unit) { u.env = env }
}

// WithMaxPasses bounds the fixed-point passes of parse and analyze.
func WithMaxPasses(n int) Option {
	return func(u *Unit) { u.maxPasses = n }
}

// WithMaxDepth bounds nested evaluation during execution.
func WithMaxDepth(n int) Option {
	return func(u *Unit) { u.maxDepth = n }
}

// WithOptimize optimizes every build at the given mode.
func WithOptimize(mode int) Option {
	return func(u *Unit) {
		u.optimize = true
		u.mode = mode
	}
}

// New returns a Unit configured by opts.
func New(opts ...Option) *Unit {
	u := &Unit{console: os.Stdout}

	for _, opt := range opts {
		opt(u)
	}

	if u.env == nil {
		u.env = NewEnvironment()
	}

	if u.maxPasses <= 0 {
		u.maxPasses = parse.DefaultMaxPasses
	}

	u.compiler = compile.Dispatch()

	for _, p := range u.plugins {
		u.parsers = append(u.parsers, p.Parsers...)
		for _, r := range p.Compilers {
			u.compiler.Add(r)
		}
	}

	return u
}

// Environment returns the environment of u.
func (u *Unit) Environment() *Environment { return u.env }

// Compiler returns the root compiler combining the rules of all plugins.
func (u *Unit) Compiler() compile.Compiler { return u.compiler }

// Initialize returns the compilation of doc, reusing an unchanged one.
func (u *Unit) Initialize(doc *source.Document) (*compile.Compilation, bool) {
	c, fresh := u.env.Initialize(doc)

	u.logger.Trace("initialize",
		slog.String("unit", doc.Name()),
		slog.String("key", doc.Key()),
		slog.Bool("fresh", fresh),
	)

	return c, fresh
}

// Parse runs the parsers of all plugins over c to a fixed point.
func (u *Unit) Parse(ctx context.Context, c *compile.Compilation) error {
	_, err := parse.Fix(ctx, c.Tree(), u.parsers, parse.Options{
		MaxPasses: u.maxPasses,
		OnPass: func(pass, changes int) {
			u.logger.TraceContext(ctx, "parse pass",
				slog.String("unit", c.Name()),
				slog.Int("pass", pass),
				slog.Int("changes", changes),
			)
		},
	})
	if err != nil {
		return err
	}

	return u.notify(ctx, PostParse, State{Env: u.env, Compilation: c})
}

// Analyze runs the analyzers of all plugins over every node of c until a
// pass modifies nothing.
func (u *Unit) Analyze(ctx context.Context, c *compile.Compilation) error {
	var analyzers []Analyzer
	for _, p := range u.plugins {
		analyzers = append(analyzers, p.Analyzers...)
	}

	for pass := 1; len(analyzers) > 0; pass++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		if pass > u.maxPasses {
			return parse.ErrNoFixedPoint.With(
				slog.String("stage", "analyze"),
				slog.String("unit", c.Name()),
			)
		}

		changes := 0

		for n := range c.Tree().All() {
			for _, a := range analyzers {
				modified, err := a.Analyze(ctx, c, n)
				if err != nil {
					return err
				}

				if modified {
					changes++
				}
			}
		}

		u.logger.TraceContext(ctx, "analyze pass",
			slog.String("unit", c.Name()),
			slog.Int("pass", pass),
			slog.Int("changes", changes),
		)

		if changes == 0 {
			break
		}
	}

	return u.notify(ctx, PostAnalyze, State{Env: u.env, Compilation: c})
}

// Compile folds the tree of c into its program.
func (u *Unit) Compile(ctx context.Context, c *compile.Compilation) error {
	s := State{Env: u.env, Compilation: c}

	if err := u.notify(ctx, PreCompile, s); err != nil {
		return err
	}

	if err := c.Compile(u.compiler); err != nil {
		return err
	}

	u.logger.TraceContext(ctx, "compile done", slog.String("unit", c.Name()))

	return u.notify(ctx, PostCompile, s)
}

// Optimize replaces the program of c with its optimized form.
func (u *Unit) Optimize(ctx context.Context, c *compile.Compilation, mode int) error {
	prog, ok := c.Program()
	if !ok {
		return vm.ErrNoProgram.With(slog.String("name", c.Name()))
	}

	c.SetProgram(prog.Optimize(mode))

	u.logger.TraceContext(ctx, "optimize done",
		slog.String("unit", c.Name()),
		slog.Int("mode", mode),
	)

	return u.notify(ctx, PostOptimize, State{Env: u.env, Compilation: c})
}

// NewMemory returns a memory configured for executions of u.
func (u *Unit) NewMemory(ctx context.Context) *vm.Memory {
	return vm.NewMemory(
		vm.WithContext(ctx),
		vm.WithConsole(u.console),
		vm.WithHeap(u.heap),
		vm.WithMaxDepth(u.maxDepth),
	)
}

// Execute runs the program of c against a fresh memory, which is discarded
// afterwards.
func (u *Unit) Execute(ctx context.Context, c *compile.Compilation) error {
	m := u.NewMemory(ctx)

	err := u.ExecuteIn(ctx, c, m)

	return errors.Join(err, u.notify(ctx, MemoryDestroyed, State{Env: u.env, Compilation: c}))
}

// ExecuteIn runs the program of c against m.
func (u *Unit) ExecuteIn(ctx context.Context, c *compile.Compilation, m *vm.Memory) error {
	prog, ok := c.Program()
	if !ok {
		return &vm.ExecutionError{Unit: c.Name(), Err: vm.ErrNoProgram}
	}

	s := State{Env: u.env, Compilation: c, Memory: m}

	if err := u.notify(ctx, PreExecute, s); err != nil {
		return err
	}

	start := time.Now()

	if err := prog.Exec(u.env, m); err != nil {
		var ee *vm.ExecutionError
		if errors.As(err, &ee) && ee.Unit == "" {
			ee.Unit = c.Name()
		}

		return err
	}

	u.logger.TraceContext(ctx, "execute done",
		slog.String("unit", c.Name()),
		slog.Duration("elapsed", time.Since(start)),
	)

	return u.notify(ctx, PostExecute, s)
}

// Build runs every stage up to compile (and optimize, if configured) for
// doc. An unchanged document that is already compiled is not rebuilt.
func (u *Unit) Build(ctx context.Context, doc *source.Document) (*compile.Compilation, error) {
	c, fresh := u.Initialize(doc)
	if _, ok := c.Program(); ok && !fresh {
		return c, nil
	}

	stages := []func(context.Context, *compile.Compilation) error{
		u.Parse, u.Analyze, u.Compile,
	}

	if u.optimize {
		stages = append(stages, func(ctx context.Context, c *compile.Compilation) error {
			return u.Optimize(ctx, c, u.mode)
		})
	}

	for _, stage := range stages {
		if err := stage(ctx, c); err != nil {
			u.logger.DebugContext(ctx, "build failed",
				slog.String("unit", c.Name()),
				slog.Any("error", err),
			)

			return nil, err
		}
	}

	u.logger.DebugContext(ctx, "built",
		slog.String("unit", c.Name()),
		slog.Int("nodes", c.Tree().Len()),
	)

	return c, nil
}

// BuildAll builds docs in parallel. A failing document does not stop the
// others; failures are joined. The compilations are returned in the order of
// docs, nil for the failed ones.
func (u *Unit) BuildAll(ctx context.Context, docs ...*source.Document) ([]*compile.Compilation, error) {
	out := make([]*compile.Compilation, len(docs))
	errs := make([]error, len(docs))

	var g errgroup.Group

	for k, doc := range docs {
		g.Go(func() error {
			out[k], errs[k] = u.Build(ctx, doc)

			return nil
		})
	}

	_ = g.Wait()

	return out, errors.Join(errs...)
}

// Run builds docs and executes the first of them. The first document is
// executed even when others fail to build.
func (u *Unit) Run(ctx context.Context, docs ...*source.Document) error {
	if len(docs) == 0 {
		return nil
	}

	cs, err := u.BuildAll(ctx, docs...)
	if cs[0] == nil {
		return err
	}

	return errors.Join(err, u.Execute(ctx, cs[0]))
}

func (u *Unit) notify(ctx context.Context, ev Event, s State) error {
	for _, p := range u.plugins {
		for _, l := range p.Listeners {
			if err := l(ctx, ev, s); err != nil {
				return err
			}
		}
	}

	return nil
}
