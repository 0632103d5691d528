package parse

import (
	"regexp"
	"slices"

	"github.com/ardnew/ppx/source"
)

// Group is a named sub-span of a [Match].
type Group struct {
	Name string
	Ref  source.Reference
}

// Match is one occurrence found by a [Crawler].
type Match struct {
	Groups []Group
	Whole  source.Reference
}

// Group returns the sub-span with the given name.
func (m Match) Group(name string) (source.Reference, bool) {
	for _, g := range m.Groups {
		if g.Name == name {
			return g.Ref, true
		}
	}

	return source.Reference{}, false
}

// Crawler finds occurrences of a pattern within a scope of a document.
type Crawler interface {
	Crawl(doc *source.Document, scope source.Reference) []Match
}

// Pattern is a [Crawler] for a regular expression. Each named capture group
// that participates in a match is reported as a [Group]. Empty matches are
// ignored.
type Pattern struct {
	re *regexp.Regexp
}

// NewPattern compiles expr into a Pattern.
func NewPattern(expr string) (*Pattern, error) {
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, ErrPattern.Wrap(err)
	}

	return &Pattern{re: re}, nil
}

// MustPattern is like [NewPattern] but panics if expr does not compile.
func MustPattern(expr string) *Pattern {
	p, err := NewPattern(expr)
	if err != nil {
		panic(err)
	}

	return p
}

// String returns the source text of the pattern.
func (p *Pattern) String() string { return p.re.String() }

// Crawl implements Crawler.
func (p *Pattern) Crawl(doc *source.Document, scope source.Reference) []Match {
	text := doc.Slice(scope)
	names := p.re.SubexpNames()

	var out []Match

	for _, loc := range p.re.FindAllStringSubmatchIndex(text, -1) {
		if loc[0] == loc[1] {
			continue
		}

		m := Match{Whole: span(scope, loc[0], loc[1])}

		for k := 1; k < len(names); k++ {
			if names[k] == "" || loc[2*k] < 0 {
				continue
			}

			m.Groups = append(m.Groups, Group{Name: names[k], Ref: span(scope, loc[2*k], loc[2*k+1])})
		}

		out = append(out, m)
	}

	return out
}

// Pair is a [Crawler] for balanced delimiters. It reports every matched
// open/close pair, tracking nesting depth, as a match with the groups
// "open", "close" and "body". Unbalanced delimiters are ignored.
//
// When the open and close patterns are the same, delimiters alternate and do
// not nest. Delimiters inside or straddling a match of the optional skip
// pattern are ignored.
type Pair struct {
	open  *regexp.Regexp
	close *regexp.Regexp
	skip  *regexp.Regexp
}

// NewPair compiles the open and close patterns into a Pair.
func NewPair(open, close string) (*Pair, error) {
	o, err := regexp.Compile(open)
	if err != nil {
		return nil, ErrPattern.Wrap(err)
	}

	c, err := regexp.Compile(close)
	if err != nil {
		return nil, ErrPattern.Wrap(err)
	}

	return &Pair{open: o, close: c}, nil
}

// MustPair is like [NewPair] but panics if a pattern does not compile.
func MustPair(open, close string) *Pair {
	p, err := NewPair(open, close)
	if err != nil {
		panic(err)
	}

	return p
}

// Skipping returns a copy of p that ignores delimiters inside matches of
// expr. It panics if expr does not compile.
func (p *Pair) Skipping(expr string) *Pair {
	q := *p
	q.skip = regexp.MustCompile(expr)

	return &q
}

type delimiter struct {
	ref   source.Reference
	open  bool
	close bool
}

// Crawl implements Crawler.
func (p *Pair) Crawl(doc *source.Document, scope source.Reference) []Match {
	text := doc.Slice(scope)

	var skip []source.Reference
	if p.skip != nil {
		for _, loc := range p.skip.FindAllStringIndex(text, -1) {
			skip = append(skip, span(scope, loc[0], loc[1]))
		}
	}

	visible := func(r source.Reference) bool {
		return !slices.ContainsFunc(skip, func(s source.Reference) bool {
			switch d, outer := source.Dominate(r, s); d {
			case source.None:
				return false
			case source.Contain:
				return !outer
			default:
				return true
			}
		})
	}

	var delims []delimiter

	for _, loc := range p.open.FindAllStringIndex(text, -1) {
		if r := span(scope, loc[0], loc[1]); loc[0] != loc[1] && visible(r) {
			delims = append(delims, delimiter{ref: r, open: true})
		}
	}

	for _, loc := range p.close.FindAllStringIndex(text, -1) {
		r := span(scope, loc[0], loc[1])
		if loc[0] == loc[1] || !visible(r) {
			continue
		}

		if k := slices.IndexFunc(delims, func(d delimiter) bool { return d.ref == r }); k >= 0 {
			delims[k].close = true

			continue
		}

		delims = append(delims, delimiter{ref: r, close: true})
	}

	slices.SortFunc(delims, func(a, b delimiter) int { return a.ref.Compare(b.ref) })

	var (
		out   []Match
		stack []source.Reference
	)

	cursor := scope.Pos

	for _, d := range delims {
		if d.ref.Pos < cursor {
			continue
		}

		switch {
		case d.close && len(stack) > 0:
			o := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			out = append(out, Match{
				Whole: o.Span(d.ref),
				Groups: []Group{
					{Name: "open", Ref: o},
					{Name: "close", Ref: d.ref},
					{Name: "body", Ref: o.Between(d.ref)},
				},
			})

		case d.open:
			stack = append(stack, d.ref)

		default:
			continue
		}

		cursor = d.ref.End()
	}

	slices.SortFunc(out, func(a, b Match) int { return a.Whole.Compare(b.Whole) })

	return out
}

func span(scope source.Reference, lo, hi int) source.Reference {
	return source.Reference{Pos: scope.Pos + lo, Len: hi - lo}
}
