// Package host provides native functions that expose the host system to tlisp
// programs: platform and user information, the process environment,
// filesystem predicates, path manipulation, PATH-list munging and evaluation
// of expr-lang expressions against tlisp bindings.
//
// None of these are bound by default. Install them with
//
//	in := lang.New(lang.WithBuiltins(host.Builtins()...))
//
// Predicates follow the tlisp convention of returning 1 or 0.
package host
