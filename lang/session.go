package lang

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
)

// Run reads every top-level form from r and evaluates each in the root
// environment. When echo is set, every result is written to the output sink
// as "=> value". An evaluation error is written as its [Error.Report] and
// the session continues with the next form.
//
// Run returns the number of forms that failed to evaluate. A read error ends
// the session and is returned, since the reader cannot resynchronize.
func (in *Interp) Run(ctx context.Context, r io.Reader, echo bool) (int, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return 0, WrapError(err)
	}

	rd := NewReader(string(data))
	failed := 0

	for {
		if err := ctx.Err(); err != nil {
			return failed, err
		}

		expr, err := rd.Next()
		if errors.Is(err, io.EOF) {
			return failed, nil
		}

		if err != nil {
			in.logger.DebugContext(ctx, "read failed", slog.Any("error", err))

			return failed, err
		}

		if err := in.Print(ctx, expr, echo); err != nil {
			var ee *Error
			if !errors.As(err, &ee) {
				return failed, err
			}

			failed++
		}
	}
}

// Print evaluates expr in the root environment and writes either its result
// (when echo is set) or its error report to the output sink. The evaluation
// error, if any, is returned after it has been reported.
func (in *Interp) Print(ctx context.Context, expr Value, echo bool) error {
	v, err := in.Eval(ctx, expr, in.root)
	if err != nil {
		ee := WrapError(err)

		in.logger.DebugContext(ctx, "evaluation failed", slog.Any("error", ee))

		if _, werr := fmt.Fprintln(in.out, ee.Report()); werr != nil {
			return werr
		}

		return ee
	}

	if echo {
		if _, werr := fmt.Fprintln(in.out, "=>", v); werr != nil {
			return werr
		}
	}

	return nil
}

// Load evaluates every form from r in the root environment without echo or
// reports. It stops at the first error.
func (in *Interp) Load(ctx context.Context, r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return WrapError(err)
	}

	_, err = in.EvalString(ctx, string(data))

	return err
}
