// Package profile provides optional runtime profiling for ppx.
//
// # Overview
//
// Profiling is implemented with [github.com/pkg/profile] and compiled in only
// when the "pprof" build tag is given:
//
//	go build -tags pprof -o ppx .
//
// Without the tag, [Modes] is empty and [Profiler.Start] returns a [Stopper]
// that does nothing, so callers never need to check the build configuration.
//
// # Modes
//
//   - allocs:    memory allocation profiling (all allocations)
//   - block:     blocking on synchronization primitives
//   - clock:     wall-clock profiling
//   - cpu:       CPU profiling
//   - goroutine: goroutine profiling
//   - heap:      heap profiling (live allocations)
//   - mem:       general memory profiling
//   - mutex:     mutex contention
//   - thread:    thread creation
//   - trace:     execution trace
//
// # Usage
//
//	p := profile.New(
//	    profile.WithMode("cpu"),
//	    profile.WithPath("/tmp/ppx"),
//	)
//	defer p.Start().Stop()
//
// The ppx command exposes the same settings as flags:
//
//	ppx --pprof-mode=cpu --pprof-dir=./profiles run index.ppx
//
// The default output directory is the "pprof" subdirectory of the ppx cache
// directory, e.g. $XDG_CACHE_HOME/ppx/pprof.
//
// # Analysis
//
// Profile files are named after the mode (cpu.pprof, mem.pprof, trace.out)
// and are read with go tool pprof:
//
//	go tool pprof -http=: ./ppx profiles/cpu.pprof
//	go tool pprof -base=old.pprof new.pprof
//	go tool trace profiles/trace.out
//
// Block and mutex profiling can add significant overhead, and execution
// traces grow quickly. Prefer them for short runs.
package profile

// Tag is the build tag required to enable pprof profiling.
const Tag = `pprof`
