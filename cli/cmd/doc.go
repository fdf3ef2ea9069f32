// Package cmd implements the tlisp subcommands: eval, repl, fmt and init.
//
// Global state shared by the commands (the kong context, the preloaded
// source files and the interpreter options selected by global flags) is
// passed through [context.Context] by the parent package.
package cmd

var (
	// CacheIdentifier is the kong variable identifier containing the path to
	// the runtime cache directory.
	CacheIdentifier = "cache"

	// ConfigIdentifier is the kong variable identifier containing the path to
	// the configuration file.
	ConfigIdentifier = "config"
)
