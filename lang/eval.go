package lang

import (
	"context"
	"log/slog"

	"github.com/ardnew/tlisp/log"
)

// Eval evaluates expr in env. A nil env means the root environment.
//
// Numbers, Texts, the empty List and function values evaluate to themselves.
// A Symbol evaluates to its binding. A non-empty List is either a special
// form, dispatched with its arguments unevaluated, or an application whose
// head and arguments are evaluated left to right.
//
// A returned error is always an [*Error] that records the innermost failing
// expression and a snapshot of its scope.
func (in *Interp) Eval(ctx context.Context, expr Value, env *Env) (Value, error) {
	if env == nil {
		env = in.root
	}

	in.depth++
	defer func() { in.depth-- }()

	if in.maxDepth > 0 && in.depth > in.maxDepth {
		return nil, ErrMaxDepthExceeded.
			With(slog.Int("max_depth", in.maxDepth)).
			At(expr, env)
	}

	if in.logger.Tracing(ctx) {
		in.logger.TraceContext(ctx, "eval",
			slog.Int(log.DepthKey, in.depth),
			slog.String(log.ExprKey, expr.String()))
	}

	v, err := in.eval(ctx, expr, env)
	if err != nil {
		return nil, asError(err, expr, env)
	}

	return v, nil
}

func (in *Interp) eval(ctx context.Context, expr Value, env *Env) (Value, error) {
	switch x := expr.(type) {
	case Symbol:
		v, ok := env.Lookup(x)
		if !ok {
			return nil, ErrNotDefined.Wrapf("%s", x).
				With(slog.String("symbol", string(x)))
		}

		return v, nil

	case List:
		if len(x) == 0 {
			return x, nil
		}

		if sym, ok := x[0].(Symbol); ok {
			if f := LookupForm(sym); f != FormNone {
				return forms[f].handle(ctx, in, x[1:], env)
			}
		}

		head, err := in.Eval(ctx, x[0], env)
		if err != nil {
			return nil, err
		}

		if !callable(head) {
			return nil, ErrNotApplicable.Wrapf("%s is a %s", head, head.Type())
		}

		args := make([]Value, len(x)-1)

		for i, a := range x[1:] {
			if args[i], err = in.Eval(ctx, a, env); err != nil {
				return nil, err
			}
		}

		return in.Apply(ctx, head, args)

	case nil:
		return Nil, nil

	default:
		return expr, nil
	}
}

// Apply calls fn with already evaluated args.
func (in *Interp) Apply(ctx context.Context, fn Value, args []Value) (Value, error) {
	switch f := fn.(type) {
	case *Builtin:
		if len(args) < f.MinArgs || (f.MaxArgs >= 0 && len(args) > f.MaxArgs) {
			return nil, ErrArgCount.Wrapf("%s expects %s, got %d",
				f.Name, arity(f.MinArgs, f.MaxArgs), len(args))
		}

		return f.Fn(ctx, in, args)

	case *Closure:
		if len(args) != len(f.Params) {
			return nil, ErrArgCount.Wrapf("%s expects %s, got %d",
				f, arity(len(f.Params), len(f.Params)), len(args))
		}

		frame := NewEnv(f.Env)
		for i, p := range f.Params {
			frame.Define(p, args[i])
		}

		return in.Eval(ctx, f.Body, frame)

	default:
		return nil, ErrNotApplicable.Wrapf("%s is a %s", fn, fn.Type())
	}
}

// evalBody evaluates body in order in env and returns the last result, or
// the empty list when body is empty.
func (in *Interp) evalBody(ctx context.Context, body List, env *Env) (Value, error) {
	var (
		last Value = Nil
		err  error
	)

	for _, expr := range body {
		if last, err = in.Eval(ctx, expr, env); err != nil {
			return nil, err
		}
	}

	return last, nil
}

func callable(v Value) bool {
	switch v.(type) {
	case *Closure, *Builtin:
		return true
	default:
		return false
	}
}
