package parse

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/ardnew/ppx/source"
	"github.com/ardnew/ppx/tree"
)

var (
	kindGroup  = tree.NewKind("group", tree.WeightDefault)
	kindWord   = tree.NewKind("word", tree.WeightDefault)
	kindNumber = tree.NewKind("number", tree.WeightDefault)
)

func ref(pos, n int) source.Reference { return source.Reference{Pos: pos, Len: n} }

func texts(doc *source.Document, ms []Match) []string {
	out := make([]string, len(ms))
	for i, m := range ms {
		out[i] = doc.Slice(m.Whole)
	}

	return out
}

func TestPatternCrawl(t *testing.T) {
	doc := source.NewDocument("p", "key=val other=thing")
	p := MustPattern(`(?P<key>\w+)=(?P<val>\w*)`)

	got := p.Crawl(doc, doc.Whole())
	if want := []string{"key=val", "other=thing"}; !reflect.DeepEqual(texts(doc, got), want) {
		t.Fatalf("Crawl() = %q, want %q", texts(doc, got), want)
	}

	if r, ok := got[1].Group("val"); !ok || doc.Slice(r) != "thing" {
		t.Errorf("Group(val) = %v %v", r, ok)
	}

	// scoped to the second assignment only
	got = p.Crawl(doc, ref(8, 11))
	if want := []string{"other=thing"}; !reflect.DeepEqual(texts(doc, got), want) {
		t.Errorf("scoped Crawl() = %q, want %q", texts(doc, got), want)
	}

	if got[0].Whole != ref(8, 11) {
		t.Errorf("scoped match at %v, want %v", got[0].Whole, ref(8, 11))
	}
}

func TestPatternInvalid(t *testing.T) {
	if _, err := NewPattern(`(`); !errors.Is(err, ErrPattern) {
		t.Errorf("NewPattern error = %v, want ErrPattern", err)
	}

	if _, err := NewPair(`(`, `\)`); !errors.Is(err, ErrPattern) {
		t.Errorf("NewPair error = %v, want ErrPattern", err)
	}
}

func TestPairCrawl(t *testing.T) {
	tests := []struct {
		name   string
		pair   *Pair
		text   string
		want   []string
		bodies []string
	}{
		{
			name:   "nested",
			pair:   MustPair(`\(`, `\)`),
			text:   "(a(b)c)",
			want:   []string{"(a(b)c)", "(b)"},
			bodies: []string{"a(b)c", "b"},
		},
		{
			name:   "unbalanced",
			pair:   MustPair(`\(`, `\)`),
			text:   ")(x",
			want:   []string{},
			bodies: []string{},
		},
		{
			name:   "multi-character",
			pair:   MustPair(`\{\{`, `\}\}`),
			text:   "a {{ b }} c {{d}}",
			want:   []string{"{{ b }}", "{{d}}"},
			bodies: []string{" b ", "d"},
		},
		{
			name:   "same delimiter",
			pair:   MustPair(`"`, `"`),
			text:   `"a" x "b"`,
			want:   []string{`"a"`, `"b"`},
			bodies: []string{"a", "b"},
		},
		{
			name:   "skipped",
			pair:   MustPair(`\(`, `\)`).Skipping(`'[^']*'`),
			text:   "(a ')' b)",
			want:   []string{"(a ')' b)"},
			bodies: []string{"a ')' b"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := source.NewDocument(tt.name, tt.text)
			got := tt.pair.Crawl(doc, doc.Whole())

			if g := texts(doc, got); !reflect.DeepEqual(g, tt.want) {
				t.Fatalf("Crawl() = %q, want %q", g, tt.want)
			}

			for i, m := range got {
				body, ok := m.Group("body")
				if !ok || doc.Slice(body) != tt.bodies[i] {
					t.Errorf("body %d = %q, want %q", i, doc.Slice(body), tt.bodies[i])
				}
			}
		})
	}
}

func TestEnclosureFix(t *testing.T) {
	doc := source.NewDocument("brackets", "(()()())")
	tr := tree.New(doc)

	passes, err := Fix(context.Background(), tr,
		[]Parser{Enclosure(kindGroup, MustPair(`\(`, `\)`))}, Options{})
	if err != nil {
		t.Fatal(err)
	}

	if passes != 2 {
		t.Errorf("passes = %d, want 2", passes)
	}

	want := "root(group(open body(" +
		"group(open close body) group(open close body) group(open close body)" +
		") close))"
	if got := tr.Root().Shape(); got != want {
		t.Errorf("Shape() =\n\t%s\nwant\n\t%s", got, want)
	}

	outer := tr.Root().Children()[0]
	for name, text := range map[string]string{"open": "(", "close": ")", "body": "()()()"} {
		n, ok := outer.Slot(name)
		if !ok || n.Text() != text {
			t.Errorf("slot %s = %v %q, want %q", name, n, n.Text(), text)
		}
	}
}

func TestHierarchy(t *testing.T) {
	doc := source.NewDocument("words", "skip (one (two) three) skip")

	groups := Enclosure(kindGroup, MustPair(`\(`, `\)`))
	words := Hierarchy(Term(kindWord, MustPattern(`[a-z]+`)), BodyOf(kindGroup))

	tr, err := Parse(context.Background(), doc, groups, words)
	if err != nil {
		t.Fatal(err)
	}

	var got []string

	for n := range tr.All() {
		if n.Is(kindWord) {
			got = append(got, n.Text())
		}
	}

	if want := []string{"one", "two", "three"}; !reflect.DeepEqual(got, want) {
		t.Errorf("words = %q, want %q", got, want)
	}
}

func TestCombine(t *testing.T) {
	doc := source.NewDocument("mixed", "a 1 b 22")

	p := Combine(
		Term(kindWord, MustPattern(`[a-z]+`)),
		Term(kindNumber, MustPattern(`[0-9]+`)),
		Term(kindWord, MustPattern(`[a-z]+`)),
	)

	cands, err := p.Discover(context.Background(), tree.New(doc).Root())
	if err != nil {
		t.Fatal(err)
	}

	if len(cands) != 4 {
		t.Fatalf("len(candidates) = %d, want 4", len(cands))
	}

	sorted := Sorted(cands)
	for i, want := range []tree.Kind{kindWord, kindNumber, kindWord, kindNumber} {
		if sorted[i].Kind != want {
			t.Errorf("candidate %d kind = %v, want %v", i, sorted[i].Kind, want)
		}
	}
}

func TestPseudo(t *testing.T) {
	doc := source.NewDocument("quoted", `out "in side" out`)

	p := Pseudo(
		Term(tree.KindNone, MustPattern(`"(?P<inner>[^"]*)"`)),
		"inner",
		Term(kindWord, MustPattern(`[a-z]+`)),
	)

	tr, err := Parse(context.Background(), doc, p)
	if err != nil {
		t.Fatal(err)
	}

	if got, want := tr.Root().Shape(), "root(word word)"; got != want {
		t.Errorf("Shape() = %q, want %q", got, want)
	}
}

func TestPseudoSlot(t *testing.T) {
	doc := source.NewDocument("slot", `x "a b" y`)

	selector := Func(func(_ context.Context, scope tree.Node) ([]Candidate, error) {
		var out []Candidate
		for _, m := range MustPattern(`"(?P<inner>[^"]*)"`).Crawl(scope.Document(), scope.Ref()) {
			c := Candidate{Kind: kindGroup, Ref: m.Whole}
			for _, g := range m.Groups {
				c.Parts = append(c.Parts, Part{Name: g.Name, Ref: g.Ref, Kind: kindWord})
			}

			out = append(out, c)
		}

		return out, nil
	})

	cands, err := Pseudo(selector, "inner", Term(kindWord, MustPattern(`[a-z]`))).
		Discover(context.Background(), tree.New(doc).Root())
	if err != nil {
		t.Fatal(err)
	}

	if len(cands) != 2 || cands[0].Ref != ref(3, 1) || cands[1].Ref != ref(5, 1) {
		t.Errorf("candidates = %+v", cands)
	}
}

func TestApplyOverlap(t *testing.T) {
	doc := source.NewDocument("overlap", "abcdef")
	tr := tree.New(doc)

	_, err := Apply(tr, []Candidate{
		{Kind: kindWord, Ref: ref(0, 3)},
		{Kind: kindWord, Ref: ref(2, 3)},
	})

	var se *tree.StructureError
	if !errors.As(err, &se) || !errors.Is(err, tree.ErrOverlap) {
		t.Fatalf("Apply error = %v, want StructureError", err)
	}
}

func TestFixNoFixedPoint(t *testing.T) {
	doc := source.NewDocument("grow", "abcdefghijklmnop")
	next := 0

	grow := Func(func(context.Context, tree.Node) ([]Candidate, error) {
		next++

		return []Candidate{{Kind: kindWord, Ref: ref(next, 1)}}, nil
	})

	var seen []int

	passes, err := Fix(context.Background(), tree.New(doc), []Parser{grow}, Options{
		MaxPasses: 3,
		OnPass:    func(pass, _ int) { seen = append(seen, pass) },
	})
	if !errors.Is(err, ErrNoFixedPoint) {
		t.Fatalf("Fix error = %v, want ErrNoFixedPoint", err)
	}

	if passes != 3 || !reflect.DeepEqual(seen, []int{1, 2, 3}) {
		t.Errorf("passes = %d, seen = %v", passes, seen)
	}
}

func TestFixCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	doc := source.NewDocument("cancel", "x")

	_, err := Fix(ctx, tree.New(doc), []Parser{Term(kindWord, MustPattern(`x`))}, Options{})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Fix error = %v, want context.Canceled", err)
	}
}

func TestParseOrderIndependent(t *testing.T) {
	doc := source.NewDocument("order", "(a (b) c)")
	groups := Enclosure(kindGroup, MustPair(`\(`, `\)`))
	words := Term(kindWord, MustPattern(`[a-z]`))

	a, err := Parse(context.Background(), doc, groups, words)
	if err != nil {
		t.Fatal(err)
	}

	b, err := Parse(context.Background(), doc, words, groups)
	if err != nil {
		t.Fatal(err)
	}

	if a.Root().Shape() != b.Root().Shape() {
		t.Errorf("shapes differ:\n\t%s\n\t%s", a.Root().Shape(), b.Root().Shape())
	}
}

func BenchmarkEnclosure(b *testing.B) {
	doc := source.NewDocument("bench", "((()())(()(())))((()()))")
	p := Enclosure(kindGroup, MustPair(`\(`, `\)`))

	for b.Loop() {
		if _, err := Parse(context.Background(), doc, p); err != nil {
			b.Fatal(err)
		}
	}
}
