// Package unit drives documents through the processing stages.
//
// A [Unit] holds a set of [Plugin] values and an [Environment]. Building a
// document initializes its compilation in the environment, runs the plugin
// parsers and analyzers to a fixed point, and compiles (and optionally
// optimizes) the tree. Executing a compilation runs its program against a
// fresh [vm.Memory], resolving cross-document execution through the
// environment.
//
// Listeners registered by plugins observe each stage through [Event]
// notifications.
package unit
