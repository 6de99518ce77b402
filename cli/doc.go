// Package cli contains the command line interface for resgen.
//
// # Usage
//
//	resgen [flags] <command> [args]
//
// Without a command, resgen compiles the resource directories into Go source:
//
//	resgen -r res -r shared/res --out internal/res/r_generated.go
//
// The commands are:
//
//   - compile: generate Go source (the default)
//   - check: compile without writing and print a summary
//   - dump: print the generated identifiers as YAML or JSON
//   - eval: evaluate expressions against the resources
//   - repl: browse the resources interactively
//   - init: write a configuration file, optionally with sample resources
//
// # Resources
//
//   - --res, -r: resource directory, repeatable (default: res)
//   - --tests-dir: test-only resource directory (default: <first res>/tests)
//   - --[no-]tests: compile test-only resources
//   - --profile, -P: build profile (default: dev)
//
// Directories listed in RESGEN_PATH, separated by the OS path list
// separator, are read after those given by --res.
//
// # Configuration
//
// Flag defaults are read from config.yaml and config.json in the user
// configuration directory (for example ~/.config/resgen). The YAML file
// holds its settings under the top-level key "config"; flags of a command
// may be nested under the command name:
//
//	config:
//	  res: [res]
//	  profile: prod
//	  compile:
//	    out: internal/res/r_generated.go
//
// Command-line flags and environment variables override both files.
//
// # Logging Options
//
//   - --log-level: minimum log level (trace, debug, info, warn, error)
//   - --log-format: log output format (json, text)
//   - --log-time-layout: timestamp layout (RFC3339, Kitchen, ...)
//   - --log-caller: include caller information
//   - --[no-]log-pretty: colorize text output on terminals
//
// # Profiling Options
//
// Profiling is only available when built with the pprof build tag:
//
//	go build -tags pprof -o resgen .
//
//   - --pprof-mode: enable profiling (cpu, heap, allocs, ...)
//   - --pprof-dir: profile output directory (default: <cache>/pprof)
package cli
