package tree

import (
	"iter"
	"log/slog"
	"maps"
	"slices"
	"sync"

	"github.com/ardnew/ppx/pkg"
	"github.com/ardnew/ppx/source"
)

var (
	ErrOverlap    = pkg.NewError("overlapping references")
	ErrOutOfScope = pkg.NewError("reference outside of tree scope")
)

// noParent marks the root node.
const noParent = -1

// Sketch is the mutable classification attached to a node.
type Sketch struct {
	// Slots names distinguished children (for example the anchors and body
	// of an enclosure) by node index.
	Slots map[string]int
	// Notes holds free-form annotations written by analyzers.
	Notes map[string]string
	Kind  Kind
}

func (s Sketch) clone() Sketch {
	return Sketch{Kind: s.Kind, Slots: maps.Clone(s.Slots), Notes: maps.Clone(s.Notes)}
}

type node struct {
	sketch   Sketch
	children []int
	ref      source.Reference
	parent   int
}

// Tree is the range-dominance tree of one document.
// It is safe for concurrent use; offers are serialized.
type Tree struct {
	doc   *source.Document
	nodes []node
	mu    sync.RWMutex
}

// New returns a tree over the whole of doc.
func New(doc *source.Document) *Tree {
	return NewScoped(doc, doc.Whole())
}

// NewScoped returns a tree whose root covers only scope.
// Such trees hold candidates for a single region of a document.
func NewScoped(doc *source.Document, scope source.Reference) *Tree {
	return &Tree{
		doc: doc,
		nodes: []node{{
			ref:    scope,
			sketch: Sketch{Kind: KindRoot},
			parent: noParent,
		}},
	}
}

// Document returns the document the tree indexes.
func (t *Tree) Document() *source.Document { return t.doc }

// Root returns the root node.
func (t *Tree) Root() Node { return Node{t: t, id: 0} }

// Len returns the number of nodes in the tree, including the root.
func (t *Tree) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return len(t.nodes)
}

// Node returns the node with index id.
func (t *Tree) Node(id int) (Node, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if id < 0 || id >= len(t.nodes) {
		return Node{}, false
	}

	return Node{t: t, id: id}, true
}

// Offer inserts a node of the given kind covering ref.
//
// It returns the node that now represents (ref, kind) and whether that node
// was newly inserted. Offering a range and kind already present returns the
// existing node. A different kind over the same range as an existing node is
// kept: the lower ranked of the two nests below the other. A range that
// straddles an existing range is rejected with a [*StructureError].
//
// ref must be contained by the scope of t. A zero-length ref on the scope's
// boundary is not, and is rejected with [ErrOutOfScope].
func (t *Tree) Offer(ref source.Reference, kind Kind) (Node, bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	root := t.nodes[0].ref
	if ref.Len < 0 || !source.Contains(root, ref) {
		return Node{}, false, ErrOutOfScope.With(
			slog.String("document", t.doc.Name()),
			slog.String("ref", ref.String()),
			slog.String("scope", root.String()),
		)
	}

	id, added, err := t.insert(0, ref, kind)
	if err != nil {
		return Node{}, false, err
	}

	return Node{t: t, id: id}, added, nil
}

// insert places (ref, kind) below parent p, which must enclose ref and
// outrank kind.
func (t *Tree) insert(p int, ref source.Reference, kind Kind) (int, bool, error) {
	for {
		var adopt []int

		descend := noParent

		for _, c := range t.nodes[p].children {
			cn := &t.nodes[c]

			switch d, outer := source.Dominate(ref, cn.ref); d {
			case source.Part:
				return 0, false, &StructureError{
					Document:     t.doc.Name(),
					Offered:      ref,
					OfferedKind:  kind,
					Existing:     cn.ref,
					ExistingKind: cn.sketch.Kind,
				}

			case source.Exact:
				switch rank := compareKinds(kind, cn.sketch.Kind); {
				case kind == cn.sketch.Kind:
					return c, false, nil
				case rank > 0:
					adopt = append(adopt, c)
				default:
					descend = c
				}

			case source.Contain:
				if outer {
					adopt = append(adopt, c)
				} else {
					descend = c
				}

			case source.None:
			}
		}

		if descend == noParent {
			return t.link(p, ref, kind, adopt), true, nil
		}

		p = descend
	}
}

// link appends a new node under p and moves the adopted children of p below
// it.
func (t *Tree) link(p int, ref source.Reference, kind Kind, adopt []int) int {
	id := len(t.nodes)
	t.nodes = append(t.nodes, node{
		ref:      ref,
		sketch:   Sketch{Kind: kind},
		parent:   p,
		children: adopt,
	})

	for _, c := range adopt {
		t.nodes[c].parent = id
	}

	siblings := slices.DeleteFunc(t.nodes[p].children, func(c int) bool {
		return slices.Contains(adopt, c)
	})

	at, _ := slices.BinarySearchFunc(siblings, id, t.compare)
	t.nodes[p].children = slices.Insert(siblings, at, id)

	return id
}

// compare orders sibling nodes.
func (t *Tree) compare(a, b int) int {
	na, nb := &t.nodes[a], &t.nodes[b]
	if c := na.ref.Compare(nb.ref); c != 0 {
		return c
	}

	return compareKinds(na.sketch.Kind, nb.sketch.Kind)
}

// All returns an iterator over every node in pre-order.
func (t *Tree) All() iter.Seq[Node] { return t.Root().Descendants() }

// LogValue implements slog.LogValuer.
func (t *Tree) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("document", t.doc.Name()),
		slog.Int("nodes", t.Len()),
	)
}
