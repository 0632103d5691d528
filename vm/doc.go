// Package vm executes compiled programs.
//
// A program is a graph of [Instruction] values run against a [Memory]: a
// value stack, a heap of named values, a stack of write-capture frames and a
// console sink. Values are [Null], [Constant] text or [Lazy] expressions
// evaluated on demand against the memory they are read from. Lazy values are
// never cached; reading one twice around a heap mutation observes both
// states.
//
// Instructions that reference other documents resolve them through a
// [Registry], normally the environment that compiled them.
package vm
