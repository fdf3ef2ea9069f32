package cmd

import (
	"context"
	"io"

	"github.com/ardnew/tlisp/cli/cmd/repl"
	"github.com/ardnew/tlisp/lang"
	"github.com/ardnew/tlisp/log"
)

// Repl starts the interactive REPL.
type Repl struct {
	History bool `default:"true" help:"Read and append the history file in the cache directory" negatable:""`
}

// Run executes the repl command.
func (r *Repl) Run(ctx context.Context) error {
	return startREPL(ctx, r.History)
}

func startREPL(ctx context.Context, history bool) error {
	var cacheDir string

	if ktx := kongContextFrom(ctx); ktx != nil && history {
		cacheDir = ktx.Model.Vars()[CacheIdentifier]
	}

	return repl.Run(
		ctx,
		func(out io.Writer) (*lang.Interp, error) { return newInterp(ctx, out) },
		cacheDir,
		log.Default(),
	)
}
