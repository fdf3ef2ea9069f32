// Package log is the structured logger shared by the tlisp interpreter and
// its command line front end. It wraps [log/slog] with a fixed set of
// levels, functional options applied at creation time, and pretty handlers
// tuned for reading interpreter traces at a terminal.
//
// # Levels
//
// Five levels are defined. [LevelTrace] sits below [LevelDebug] and is
// where the interpreter reports each evaluation step and each new binding:
//
//	logger := log.Make(os.Stderr, log.WithLevel(log.LevelTrace))
//	in := lang.New(lang.WithLogger(logger))
//
// [Logger.Tracing] lets callers skip building trace attributes when the
// records would be dropped anyway.
//
// # Interpreter Attributes
//
// Trace records carry [DepthKey] and [ExprKey]. The pretty text handler
// indents each record by its depth, so the trace of a nested call reads as
// a tree:
//
//	level=TRACE msg=eval expr=(f 2)
//	level=TRACE   msg=eval expr=(+ n 1)
//
// Interpreter errors log as a group whose first member is [KindKey]. The
// pretty text handler prints such a group as "Kind: message" and moves the
// failing scope, under [ScopeKey], to a line of its own.
//
// # Output
//
// [FormatText] (default) and [FormatJSON] are supported, each with a plain
// [log/slog] handler or a colorized pretty one selected by [WithPretty].
// Timestamps follow [WithTimeLayout]; the named layouts are listed by
// [TimeLayouts].
//
// # Default Logger
//
// Package-level functions such as [Info] and [TraceContext] write through
// a default logger on standard error, which [Config] reconfigures. The
// command line applies its --log-* flags there before parsing completes.
package log
