// Package parse discovers constructs in a document and offers them to its
// tree.
//
// Discovery is split in two steps. A [Parser] only reads: it returns the
// [Candidate] ranges it finds within a scope. [Apply] then offers those
// candidates to the tree one at a time. Because discovery never mutates the
// tree, independent parsers run in parallel ([Combine], [Hierarchy]), and
// because tree insertion is order independent, the result does not depend on
// scheduling.
//
// [Fix] repeats a list of parsers until a full pass adds nothing, so parsers
// may build on the nodes found by others in earlier passes.
package parse
