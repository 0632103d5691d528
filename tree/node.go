package tree

import (
	"iter"
	"log/slog"
	"slices"

	"github.com/ardnew/ppx/source"
)

// Node is a handle to one node of a [Tree].
// The zero Node is invalid.
type Node struct {
	t  *Tree
	id int
}

// Valid reports whether n refers to a node.
func (n Node) Valid() bool { return n.t != nil }

// ID returns the arena index of n.
func (n Node) ID() int { return n.id }

// Tree returns the tree n belongs to.
func (n Node) Tree() *Tree { return n.t }

// Document returns the document n indexes.
func (n Node) Document() *source.Document { return n.t.doc }

// IsRoot reports whether n is the root of its tree.
func (n Node) IsRoot() bool { return n.Valid() && n.id == 0 }

// Ref returns the range covered by n.
func (n Node) Ref() source.Reference {
	n.t.mu.RLock()
	defer n.t.mu.RUnlock()

	return n.t.nodes[n.id].ref
}

// Text returns the document text covered by n.
func (n Node) Text() string { return n.t.doc.Slice(n.Ref()) }

// Kind returns the kind recorded in the sketch of n.
func (n Node) Kind() Kind {
	n.t.mu.RLock()
	defer n.t.mu.RUnlock()

	return n.t.nodes[n.id].sketch.Kind
}

// Is reports whether the kind of n is any of kinds.
func (n Node) Is(kinds ...Kind) bool {
	return n.Valid() && slices.Contains(kinds, n.Kind())
}

// SetKind reclassifies n. Sibling order is fixed at insertion and is not
// affected.
func (n Node) SetKind(k Kind) {
	n.t.mu.Lock()
	defer n.t.mu.Unlock()

	n.t.nodes[n.id].sketch.Kind = k
}

// Sketch returns a copy of the sketch of n.
func (n Node) Sketch() Sketch {
	n.t.mu.RLock()
	defer n.t.mu.RUnlock()

	return n.t.nodes[n.id].sketch.clone()
}

// Slot returns the node stored in the named slot of n.
func (n Node) Slot(name string) (Node, bool) {
	n.t.mu.RLock()
	defer n.t.mu.RUnlock()

	id, ok := n.t.nodes[n.id].sketch.Slots[name]
	if !ok {
		return Node{}, false
	}

	return Node{t: n.t, id: id}, true
}

// SetSlot stores m in the named slot of n. It reports whether the slot
// changed.
func (n Node) SetSlot(name string, m Node) bool {
	n.t.mu.Lock()
	defer n.t.mu.Unlock()

	s := &n.t.nodes[n.id].sketch
	if id, ok := s.Slots[name]; ok && id == m.id {
		return false
	}

	if s.Slots == nil {
		s.Slots = make(map[string]int)
	}

	s.Slots[name] = m.id

	return true
}

// Note returns the annotation stored under key.
func (n Node) Note(key string) (string, bool) {
	n.t.mu.RLock()
	defer n.t.mu.RUnlock()

	v, ok := n.t.nodes[n.id].sketch.Notes[key]

	return v, ok
}

// SetNote stores an annotation under key. It reports whether the note
// changed.
func (n Node) SetNote(key, value string) bool {
	n.t.mu.Lock()
	defer n.t.mu.Unlock()

	s := &n.t.nodes[n.id].sketch
	if v, ok := s.Notes[key]; ok && v == value {
		return false
	}

	if s.Notes == nil {
		s.Notes = make(map[string]string)
	}

	s.Notes[key] = value

	return true
}

// Parent returns the parent of n. The root has no parent.
func (n Node) Parent() (Node, bool) {
	n.t.mu.RLock()
	defer n.t.mu.RUnlock()

	p := n.t.nodes[n.id].parent
	if p == noParent {
		return Node{}, false
	}

	return Node{t: n.t, id: p}, true
}

// Children returns the ordered children of n.
func (n Node) Children() []Node {
	n.t.mu.RLock()
	defer n.t.mu.RUnlock()

	ids := n.t.nodes[n.id].children
	out := make([]Node, len(ids))

	for i, id := range ids {
		out[i] = Node{t: n.t, id: id}
	}

	return out
}

// Descendants returns an iterator over n and every node below it, in
// pre-order. The shape is captured when iteration starts.
func (n Node) Descendants() iter.Seq[Node] {
	return func(yield func(Node) bool) {
		n.t.mu.RLock()

		order := make([]int, 0, len(n.t.nodes))
		stack := []int{n.id}

		for len(stack) > 0 {
			id := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			order = append(order, id)

			ch := n.t.nodes[id].children
			for i := len(ch) - 1; i >= 0; i-- {
				stack = append(stack, ch[i])
			}
		}

		n.t.mu.RUnlock()

		for _, id := range order {
			if !yield(Node{t: n.t, id: id}) {
				return
			}
		}
	}
}

// String formats n as its kind followed by its range.
func (n Node) String() string {
	if !n.Valid() {
		return "<nil>"
	}

	return n.Kind().String() + n.Ref().String()
}

// LogValue implements slog.LogValuer.
func (n Node) LogValue() slog.Value {
	if !n.Valid() {
		return slog.StringValue("<nil>")
	}

	line, col := n.t.doc.Position(n.Ref().Pos)

	return slog.GroupValue(
		slog.String("document", n.t.doc.Name()),
		slog.String("kind", n.Kind().String()),
		slog.String("ref", n.Ref().String()),
		slog.Int("line", line),
		slog.Int("col", col),
	)
}
