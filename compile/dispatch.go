package compile

import (
	"github.com/ardnew/ppx/tree"
)

// Rule binds a compiler to a node kind. A rule with [tree.KindNone] applies
// to every node.
type Rule struct {
	Compiler Compiler
	Kind     tree.Kind
}

// On returns a rule applying c to nodes of kind k.
func On(k tree.Kind, c Compiler) Rule { return Rule{Kind: k, Compiler: c} }

// Always returns a rule applying c to every node.
func Always(c Compiler) Rule { return Rule{Kind: tree.KindNone, Compiler: c} }

// Dispatcher routes each node to the rules for its kind, tried in
// registration order; the first emitted result wins.
type Dispatcher struct {
	byKind map[tree.Kind][]int
	rules  []Rule
}

// Dispatch returns a dispatcher over rules.
func Dispatch(rules ...Rule) *Dispatcher {
	d := &Dispatcher{byKind: make(map[tree.Kind][]int)}
	for _, r := range rules {
		d.Add(r)
	}

	return d
}

// Add registers a rule after the existing ones.
func (d *Dispatcher) Add(r Rule) {
	d.byKind[r.Kind] = append(d.byKind[r.Kind], len(d.rules))
	d.rules = append(d.rules, r)
}

// Len returns the number of registered rules.
func (d *Dispatcher) Len() int { return len(d.rules) }

// Compile implements Compiler.
func (d *Dispatcher) Compile(root Compiler, c *Compilation, n tree.Node) (Result, error) {
	for _, k := range d.candidates(n.Kind()) {
		r, err := d.rules[k].Compiler.Compile(root, c, n)
		if err != nil || !r.Skipped() {
			return r, err
		}
	}

	return Skip, nil
}

// candidates merges the rules for k with the rules for every kind, keeping
// registration order.
func (d *Dispatcher) candidates(k tree.Kind) []int {
	kinded, all := d.byKind[k], d.byKind[tree.KindNone]
	if k == tree.KindNone {
		return all
	}

	out := make([]int, 0, len(kinded)+len(all))

	for len(kinded) > 0 || len(all) > 0 {
		switch {
		case len(all) == 0 || (len(kinded) > 0 && kinded[0] < all[0]):
			out = append(out, kinded[0])
			kinded = kinded[1:]
		default:
			out = append(out, all[0])
			all = all[1:]
		}
	}

	return out
}
