// Package profile provides optional runtime profiling for tlisp.
//
// Profiling uses [github.com/pkg/profile] and is compiled in only with the
// "pprof" build tag:
//
//	go build -tags pprof .
//	./tlisp --pprof-mode cpu eval '(fib 25)'
//
// Without the tag every [Profiler] is a no-op and [Modes] is empty. With it,
// [net/http/pprof] handlers are registered as well.
//
// Profile files are written to the configured directory with names matching
// the mode (cpu.pprof, mem.pprof, ...). Analyze them with go tool pprof:
//
//	go tool pprof -http=: ~/.cache/tlisp/pprof/cpu.pprof
package profile

// Tag is the build tag required to enable pprof profiling.
const Tag = `pprof`
