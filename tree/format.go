package tree

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/goccy/go-yaml"
)

// Outline is a serializable snapshot of a subtree.
type Outline struct {
	Kind     string            `json:"kind"               yaml:"kind"`
	Range    string            `json:"range"              yaml:"range"`
	Text     string            `json:"text,omitempty"     yaml:"text,omitempty"`
	Slots    map[string]string `json:"slots,omitempty"    yaml:"slots,omitempty"`
	Notes    map[string]string `json:"notes,omitempty"    yaml:"notes,omitempty"`
	Children []Outline         `json:"children,omitempty" yaml:"children,omitempty"`
}

// Outline returns a snapshot of n and its descendants.
// Text is only recorded for leaves.
func (n Node) Outline() Outline {
	s := n.Sketch()
	o := Outline{
		Kind:  s.Kind.String(),
		Range: n.Ref().String(),
		Notes: s.Notes,
	}

	for _, name := range slices.Sorted(maps.Keys(s.Slots)) {
		if o.Slots == nil {
			o.Slots = make(map[string]string, len(s.Slots))
		}

		m := Node{t: n.t, id: s.Slots[name]}
		o.Slots[name] = m.String()
	}

	children := n.Children()
	if len(children) == 0 {
		o.Text = n.Text()
	}

	for _, c := range children {
		o.Children = append(o.Children, c.Outline())
	}

	return o
}

// Shape returns a compact bracketed rendering of the kinds in the subtree
// rooted at n, e.g. "root(group(open body close))".
func (n Node) Shape() string {
	var sb strings.Builder

	var walk func(Node)

	walk = func(m Node) {
		sb.WriteString(m.Kind().String())

		children := m.Children()
		if len(children) == 0 {
			return
		}

		sb.WriteByte('(')

		for i, c := range children {
			if i > 0 {
				sb.WriteByte(' ')
			}

			walk(c)
		}

		sb.WriteByte(')')
	}

	walk(n)

	return sb.String()
}

// FormatJSON writes the tree outline as JSON to the writer.
func (t *Tree) FormatJSON(_ context.Context, w io.Writer, indent int) error {
	var (
		data []byte
		err  error
	)

	if indent > 0 {
		data, err = json.MarshalIndent(t.Root().Outline(), "", strings.Repeat(" ", indent))
	} else {
		data, err = json.Marshal(t.Root().Outline())
	}

	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(w, string(data))

	return err
}

// FormatYAML writes the tree outline as YAML to the writer.
func (t *Tree) FormatYAML(ctx context.Context, w io.Writer, indent int) error {
	var opts []yaml.EncodeOption
	if indent > 0 {
		opts = append(opts, yaml.Indent(indent))
	} else {
		opts = append(opts, yaml.Flow(true))
	}

	data, err := yaml.MarshalContext(ctx, t.Root().Outline(), opts...)
	if err != nil {
		return err
	}

	_, err = fmt.Fprint(w, string(data))

	return err
}
