// Package profile wraps [github.com/pkg/profile] for optional runtime
// profiling of the resgen command.
//
// Profiling is compiled in only with the pprof build tag:
//
//	go build -tags pprof .
//	resgen --pprof-mode=cpu --pprof-dir=/tmp/resgen compile
//
// Without the tag [Modes] is empty and [Profiler.Start] does nothing.
// Profiles are analyzed with go tool pprof, for example:
//
//	go tool pprof -http=: /tmp/resgen/cpu.pprof
package profile

// Tag is the build tag required to enable profiling.
const Tag = `pprof`
