package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/ardnew/tlisp/lang"
	"github.com/ardnew/tlisp/log"
	"github.com/ardnew/tlisp/pkg"
)

// Eval evaluates expressions given as arguments. Without arguments it reads
// a session from stdin, or starts the REPL when stdin is a terminal.
type Eval struct {
	Exprs []string `arg:"" help:"Expressions to evaluate" name:"expr" optional:""`
}

// Run executes the eval command.
func (e *Eval) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	if len(e.Exprs) == 0 && isTerminal(os.Stdin) {
		return startREPL(ctx, true)
	}

	in, err := newInterp(ctx, output)
	if err != nil {
		return err
	}

	return e.run(ctx, in, os.Stdin)
}

// run evaluates the expressions, or every form read from stdin when there
// are none, echoing each result.
func (e *Eval) run(ctx context.Context, in *lang.Interp, stdin io.Reader) error {
	var failed, total int

	if len(e.Exprs) == 0 {
		n, err := in.Run(ctx, stdin, true)
		if err != nil {
			// A read error has not been reported by the session.
			if _, werr := fmt.Fprintln(in.Output(), lang.WrapError(err).Report()); werr != nil {
				return werr
			}

			n++
		}

		failed = n
	} else {
		for _, src := range e.Exprs {
			n, t, err := evalSource(ctx, in, src)
			if err != nil {
				return err
			}

			failed += n
			total += t
		}
	}

	log.DebugContext(ctx, "eval complete",
		slog.Int("forms", total),
		slog.Int("failed", failed))

	if failed > 0 {
		return pkg.ErrEvaluate.Wrapf("%d forms failed", failed)
	}

	return nil
}

// evalSource reads and evaluates every form of src, reporting results and
// errors on the interpreter's output. It returns the number of failed and
// total forms; the error is non-nil only when output cannot be written.
func evalSource(
	ctx context.Context,
	in *lang.Interp,
	src string,
) (failed, total int, err error) {
	forms, rerr := lang.Read(src)

	for _, form := range forms {
		total++

		if err := in.Print(ctx, form, true); err != nil {
			var ee *lang.Error
			if !errors.As(err, &ee) {
				return failed, total, err
			}

			failed++
		}
	}

	if rerr != nil {
		total++
		failed++

		if _, err := fmt.Fprintln(in.Output(), lang.WrapError(rerr).Report()); err != nil {
			return failed, total, err
		}
	}

	return failed, total, nil
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
