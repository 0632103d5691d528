// Package source defines the immutable text inputs of the preprocessor and
// the half-open ranges used to address them.
//
// A [Document] pairs a name with its text. A [Reference] is a span of a
// document's text. The [Dominate] relation classifies how two references
// overlap and drives tree construction in package tree.
package source
