package source

import (
	"cmp"
	"strconv"
)

// Reference is a half-open byte range [Pos, Pos+Len) of a Document.
type Reference struct {
	Pos int
	Len int
}

// End returns the exclusive end offset of r.
func (r Reference) End() int { return r.Pos + r.Len }

// Empty reports whether r has zero length.
func (r Reference) Empty() bool { return r.Len == 0 }

// Shift returns r moved by off bytes.
func (r Reference) Shift(off int) Reference { return Reference{Pos: r.Pos + off, Len: r.Len} }

// Span returns the smallest Reference covering both r and o.
func (r Reference) Span(o Reference) Reference {
	pos := min(r.Pos, o.Pos)

	return Reference{Pos: pos, Len: max(r.End(), o.End()) - pos}
}

// Between returns the gap from the end of r to the start of o.
// The gap is empty when o does not start after r.
func (r Reference) Between(o Reference) Reference {
	return Reference{Pos: r.End(), Len: max(0, o.Pos-r.End())}
}

// Compare orders references by start ascending and then length descending,
// so that an enclosing range sorts before the ranges it encloses.
func (r Reference) Compare(o Reference) int {
	if c := cmp.Compare(r.Pos, o.Pos); c != 0 {
		return c
	}

	return cmp.Compare(o.Len, r.Len)
}

// String formats r as "[pos:end)".
func (r Reference) String() string {
	return "[" + strconv.Itoa(r.Pos) + ":" + strconv.Itoa(r.End()) + ")"
}
