package host

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"unicode"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/ardnew/tlisp/lang"
)

// Errors raised by the expr builtin.
var (
	ErrExprCompile  = lang.NewError(lang.KindRuntime, "expression compilation failed")
	ErrExprEvaluate = lang.NewError(lang.KindRuntime, "expression evaluation failed")
	ErrBindings     = lang.NewError(lang.KindType, "bindings must be a list of (name value) pairs")
)

func builtinExpr(ctx context.Context, in *lang.Interp, args []lang.Value) (lang.Value, error) {
	source, err := textArg("expr", args[0])
	if err != nil {
		return nil, err
	}

	env := exprEnv(ctx, in)

	if len(args) > 1 {
		if err := bindPairs(env, args[1]); err != nil {
			return nil, err
		}
	}

	program, err := expr.Compile(source, expr.Env(env))
	if err != nil {
		return nil, ErrExprCompile.Wrap(err).With(slog.String("source", source))
	}

	result, err := vm.Run(program, env)
	if err != nil {
		return nil, ErrExprEvaluate.Wrap(err).With(slog.String("source", source))
	}

	return lang.FromNative(result), nil
}

// exprEnv collects every root binding that has an expr identifier. Data
// become their native form and closures become callables. Native builtins
// are left out so they never shadow expr's own functions. The process
// environment is reachable through env(name).
func exprEnv(ctx context.Context, in *lang.Interp) map[string]any {
	env := make(map[string]any)
	root := in.Root()

	for _, name := range root.Names() {
		id, ok := identifier(string(name))
		if !ok {
			continue
		}

		v, _ := root.Lookup(name)

		switch fn := v.(type) {
		case *lang.Closure:
			env[id] = callable(ctx, in, fn)
		case *lang.Builtin, *lang.Error:
		default:
			env[id] = lang.ToNative(v)
		}
	}

	env["env"] = os.Getenv

	return env
}

func callable(ctx context.Context, in *lang.Interp, fn lang.Value) func(...any) (any, error) {
	return func(args ...any) (any, error) {
		vals := make([]lang.Value, len(args))
		for i, a := range args {
			vals[i] = lang.FromNative(a)
		}

		v, err := in.Apply(ctx, fn, vals)
		if err != nil {
			return nil, err
		}

		return lang.ToNative(v), nil
	}
}

func bindPairs(env map[string]any, v lang.Value) error {
	pairs, ok := v.(lang.List)
	if !ok {
		return ErrBindings.Wrapf("got %s", v.Type())
	}

	for _, p := range pairs {
		pair, ok := p.(lang.List)
		if !ok || len(pair) != 2 {
			return ErrBindings.Wrapf("bad pair %s", p)
		}

		name, err := textArg("expr", pair[0])
		if err != nil {
			return ErrBindings.Wrap(err)
		}

		id, ok := identifier(name)
		if !ok {
			return ErrBindings.Wrapf("%q is not an identifier", name)
		}

		env[id] = lang.ToNative(pair[1])
	}

	return nil
}

//nolint:gochecknoglobals
var reserved = map[string]bool{
	"and": true, "or": true, "not": true, "in": true, "matches": true,
	"contains": true, "startsWith": true, "endsWith": true, "let": true,
	"if": true, "else": true, "true": true, "false": true, "nil": true,
	"env": true,
}

// identifier maps a tlisp symbol to an expr identifier by replacing hyphens
// with underscores. Names that still contain other punctuation are rejected.
func identifier(name string) (string, bool) {
	if name == "" {
		return "", false
	}

	id := strings.ReplaceAll(name, "-", "_")
	if reserved[id] {
		return "", false
	}

	for i, r := range id {
		switch {
		case r == '_', unicode.IsLetter(r):
		case unicode.IsDigit(r) && i > 0:
		default:
			return "", false
		}
	}

	return id, true
}
