// Package compile folds a parsed tree into a [vm.Instruction].
//
// A [Compiler] either recognizes a node and emits an instruction or skips
// it, reported through [Result]. Compilers are composed: [First] takes the
// first emitting compiler, [Combine] keeps every emitted instruction in a
// [vm.Block], [Mandatory] turns a skip into an [Error], and [Dispatch]
// routes a node to the rules registered for its kind.
//
// Every compiler receives the root compiler of the current run so that
// constructs can compile their children without knowing which plugin
// handles them.
package compile
