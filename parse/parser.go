package parse

import (
	"context"
	"log/slog"
	"runtime"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/ardnew/ppx/pkg"
	"github.com/ardnew/ppx/source"
	"github.com/ardnew/ppx/tree"
)

var (
	ErrPattern      = pkg.NewError("invalid pattern")
	ErrNoFixedPoint = pkg.NewError("parsing did not reach a fixed point")
)

// Part is a named sub-range of a [Candidate]. Applying the candidate stores
// the part's node in the candidate node's slot of the same name.
type Part struct {
	Name string
	Ref  source.Reference
	Kind tree.Kind
}

// Candidate is a construct discovered by a [Parser].
type Candidate struct {
	Parts []Part
	Ref   source.Reference
	Kind  tree.Kind
}

// Parser discovers candidates within a scope node. Parsers must not modify
// the tree.
type Parser interface {
	Discover(ctx context.Context, scope tree.Node) ([]Candidate, error)
}

// Func adapts a function to the Parser interface.
type Func func(ctx context.Context, scope tree.Node) ([]Candidate, error)

// Discover implements Parser.
func (f Func) Discover(ctx context.Context, scope tree.Node) ([]Candidate, error) {
	return f(ctx, scope)
}

// Apply offers every candidate and its parts to t. It returns the number of
// nodes inserted and slots changed.
func Apply(t *tree.Tree, cands []Candidate) (int, error) {
	n := 0

	for _, c := range cands {
		whole, added, err := t.Offer(c.Ref, c.Kind)
		if err != nil {
			return n, err
		}

		if added {
			n++
		}

		for _, p := range c.Parts {
			part, added, err := t.Offer(p.Ref, p.Kind)
			if err != nil {
				return n, err
			}

			if added {
				n++
			}

			if whole.SetSlot(p.Name, part) {
				n++
			}
		}
	}

	return n, nil
}

// Term returns a parser that reports each match of c as a leaf of kind k.
func Term(k tree.Kind, c Crawler) Parser {
	return Func(func(_ context.Context, scope tree.Node) ([]Candidate, error) {
		matches := c.Crawl(scope.Document(), scope.Ref())
		out := make([]Candidate, 0, len(matches))

		for _, m := range matches {
			out = append(out, Candidate{Kind: k, Ref: m.Whole})
		}

		return out, nil
	})
}

// Enclosure returns a parser that reports each pair found by p as a node of
// kind k with "open", "close" and "body" slots.
func Enclosure(k tree.Kind, p *Pair) Parser {
	kinds := map[string]tree.Kind{
		"open":  tree.KindOpen,
		"close": tree.KindClose,
		"body":  tree.KindBody,
	}

	return Func(func(_ context.Context, scope tree.Node) ([]Candidate, error) {
		matches := p.Crawl(scope.Document(), scope.Ref())
		out := make([]Candidate, 0, len(matches))

		for _, m := range matches {
			c := Candidate{Kind: k, Ref: m.Whole}
			for _, g := range m.Groups {
				c.Parts = append(c.Parts, Part{Name: g.Name, Ref: g.Ref, Kind: kinds[g.Name]})
			}

			out = append(out, c)
		}

		return out, nil
	})
}

// Filter selects scope nodes.
type Filter func(tree.Node) bool

// OfKind selects nodes of any of the given kinds.
func OfKind(kinds ...tree.Kind) Filter {
	return func(n tree.Node) bool { return n.Is(kinds...) }
}

// BodyOf selects body nodes whose parent is of any of the given kinds.
func BodyOf(kinds ...tree.Kind) Filter {
	return func(n tree.Node) bool {
		if !n.Is(tree.KindBody) {
			return false
		}

		p, ok := n.Parent()

		return ok && p.Is(kinds...)
	}
}

// Hierarchy returns a parser that runs inner over the scope node and every
// node below it that f selects (all of them if f is nil). Nodes are visited
// in parallel.
func Hierarchy(inner Parser, f Filter) Parser {
	return Func(func(ctx context.Context, scope tree.Node) ([]Candidate, error) {
		var nodes []tree.Node

		for n := range scope.Descendants() {
			if f == nil || f(n) {
				nodes = append(nodes, n)
			}
		}

		results := make([][]Candidate, len(nodes))

		g, ctx := errgroup.WithContext(ctx)
		g.SetLimit(runtime.GOMAXPROCS(0))

		for k, n := range nodes {
			g.Go(func() error {
				c, err := inner.Discover(ctx, n)
				results[k] = c

				return err
			})
		}

		if err := g.Wait(); err != nil {
			return nil, err
		}

		return union(results...), nil
	})
}

// Combine returns a parser that runs every parser over the same scope in
// parallel and reports the union of their candidates.
func Combine(parsers ...Parser) Parser {
	return Func(func(ctx context.Context, scope tree.Node) ([]Candidate, error) {
		results := make([][]Candidate, len(parsers))

		g, ctx := errgroup.WithContext(ctx)

		for k, p := range parsers {
			g.Go(func() error {
				c, err := p.Discover(ctx, scope)
				results[k] = c

				return err
			})
		}

		if err := g.Wait(); err != nil {
			return nil, err
		}

		return union(results...), nil
	})
}

// Pseudo returns a parser that first runs selector over the scope, then runs
// inner over each selected region and reports only inner's candidates. The
// region of a selected candidate is its part named slot, or the whole
// candidate when it has no such part. Selected regions are parsed in scratch
// trees and never offered themselves.
func Pseudo(selector Parser, slot string, inner Parser) Parser {
	return Func(func(ctx context.Context, scope tree.Node) ([]Candidate, error) {
		selected, err := selector.Discover(ctx, scope)
		if err != nil {
			return nil, err
		}

		results := make([][]Candidate, 0, len(selected))

		for _, c := range selected {
			region := c.Ref

			for _, p := range c.Parts {
				if p.Name == slot {
					region = p.Ref
				}
			}

			scratch := tree.NewScoped(scope.Document(), region)

			found, err := inner.Discover(ctx, scratch.Root())
			if err != nil {
				return nil, err
			}

			results = append(results, found)
		}

		return union(results...), nil
	})
}

// union concatenates candidate lists, dropping repeated (kind, range) pairs.
func union(lists ...[]Candidate) []Candidate {
	type key struct {
		ref  source.Reference
		kind tree.Kind
	}

	seen := make(map[key]struct{})

	var out []Candidate

	for _, list := range lists {
		for _, c := range list {
			k := key{ref: c.Ref, kind: c.Kind}
			if _, ok := seen[k]; ok {
				continue
			}

			seen[k] = struct{}{}
			out = append(out, c)
		}
	}

	return out
}

// Options controls [Fix].
type Options struct {
	// OnPass is called after every pass with the pass number and the number
	// of changes it made.
	OnPass func(pass, changes int)
	// MaxPasses bounds the number of passes. Zero means [DefaultMaxPasses].
	MaxPasses int
}

// DefaultMaxPasses is the pass limit used by [Fix] when none is given.
const DefaultMaxPasses = 64

// Fix runs parsers over the root of t in order, applying each parser's
// candidates before the next runs, and repeats until a pass changes
// nothing. It returns the number of passes run.
func Fix(ctx context.Context, t *tree.Tree, parsers []Parser, opts Options) (int, error) {
	limit := opts.MaxPasses
	if limit <= 0 {
		limit = DefaultMaxPasses
	}

	for pass := 1; ; pass++ {
		if err := ctx.Err(); err != nil {
			return pass - 1, err
		}

		if pass > limit {
			return pass - 1, ErrNoFixedPoint.With(
				slog.String("document", t.Document().Name()),
				slog.Int("passes", limit),
			)
		}

		changes := 0

		for _, p := range parsers {
			cands, err := p.Discover(ctx, t.Root())
			if err != nil {
				return pass, err
			}

			n, err := Apply(t, cands)
			changes += n

			if err != nil {
				return pass, err
			}
		}

		if opts.OnPass != nil {
			opts.OnPass(pass, changes)
		}

		if changes == 0 {
			return pass, nil
		}
	}
}

// Parse builds the tree of doc by running parsers to a fixed point.
func Parse(ctx context.Context, doc *source.Document, parsers ...Parser) (*tree.Tree, error) {
	t := tree.New(doc)

	_, err := Fix(ctx, t, parsers, Options{})

	return t, err
}

// Sorted returns the candidates ordered by range and kind name.
func Sorted(cands []Candidate) []Candidate {
	out := slices.Clone(cands)
	slices.SortFunc(out, func(a, b Candidate) int {
		if c := a.Ref.Compare(b.Ref); c != 0 {
			return c
		}

		if a.Kind.String() < b.Kind.String() {
			return -1
		}

		if a.Kind.String() > b.Kind.String() {
			return 1
		}

		return 0
	})

	return out
}
