package source

//go:generate go tool stringer --linecomment --type Dominance --output dominance_string.go

// Dominance classifies how two references overlap.
type Dominance int

const (
	None    Dominance = iota // none
	Exact                    // exact
	Contain                  // contain
	Part                     // part
)

// Dominate returns the relation between a and b.
//
// When the relation is [Contain], outer reports whether a is the enclosing
// reference. Zero-length references that only touch the boundary of another
// reference are unrelated.
func Dominate(a, b Reference) (d Dominance, outer bool) {
	switch {
	case a == b:
		return Exact, false

	case a.End() <= b.Pos || b.End() <= a.Pos:
		return None, false

	case a.Pos <= b.Pos && b.End() <= a.End():
		return Contain, true

	case b.Pos <= a.Pos && a.End() <= b.End():
		return Contain, false

	default:
		return Part, false
	}
}

// Contains reports whether a encloses b or equals it.
func Contains(a, b Reference) bool {
	d, outer := Dominate(a, b)

	return d == Exact || (d == Contain && outer)
}
