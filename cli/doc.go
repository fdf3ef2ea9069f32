// Package cli contains the command line interface for tlisp.
//
// # Usage
//
// With no command, tlisp evaluates its arguments as tlisp source and prints
// each result:
//
//	tlisp '(define x 4)' '(* x x)'
//	=> 4
//	=> 16
//
// Without arguments it starts the REPL when stdin is a terminal, otherwise it
// evaluates stdin as a session:
//
//	echo '(+ 1 2)' | tlisp
//	=> 3
//
// Source files given with --source are evaluated silently first, in order,
// into the same root environment:
//
//	tlisp -s prelude.tl '(greet "world")'
//
// # Commands
//
//   - eval: Evaluate expressions (default)
//   - repl: Start the interactive REPL
//   - fmt native|json|yaml|ast: Reformat data without evaluating it
//   - init: Write the configuration file from current flag values
//
// # Configuration Loader
//
// The package includes a Kong configuration loader ([resolve]) that evaluates
// a configuration file written in tlisp in a sandboxed interpreter and
// converts its root bindings to Kong flag values:
//
//	; ~/.config/tlisp/config
//	(define log-level "debug")
//	(define max-depth 5000)
//	(define host 1)
//
// A config.json next to it is read with [kong.JSON]. Command-line flags
// always take precedence.
//
// # Logging Options
//
//   - --log-level: Set minimum log level (trace, debug, info, warn, error)
//   - --log-format: Set log output format (json, text)
//   - --log-time-layout: Set timestamp format (RFC3339, RFC3339Nano, etc.)
//   - --log-caller: Include caller information in log output
//   - --log-pretty: Colorize log output
//
// # Interpreter Options
//
//   - --source, -s: Preload source files ('-' for stdin)
//   - --max-depth: Bound evaluation depth (0 disables the limit)
//   - --host: Bind host builtins such as getenv, path-cat and expr
//
// # Profiling Options
//
// Profiling is only available when built with the pprof build tag:
//
//	go build -tags pprof -o tlisp .
//
//   - --pprof-mode: Enable profiling (allocs, block, clock, cpu, goroutine,
//     heap, mem, mutex, thread, trace)
//   - --pprof-dir: Set profile output directory (default:
//     ~/.cache/tlisp/pprof)
package cli
