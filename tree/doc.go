// Package tree builds the range-dominance tree of a document.
//
// A [Tree] is an arena of nodes addressed by index. Every node covers a
// [source.Reference] and carries a [Sketch] describing what kind of construct
// the range is. Nodes are only ever added, through [Tree.Offer], which places
// a candidate range at the unique position that keeps the tree consistent:
//
//   - children lie inside (or exactly on) their parent's range,
//   - siblings never overlap and are ordered by start ascending, length
//     descending, then kind weight,
//   - a candidate that encloses existing siblings adopts them,
//   - a candidate that straddles the boundary of an existing range is
//     rejected with a [StructureError].
//
// The resulting shape depends only on the set of offered ranges and kinds,
// never on the order in which they were offered.
package tree
