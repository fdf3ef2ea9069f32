package lang

import (
	"context"
	"log/slog"

	"github.com/ardnew/tlisp/log"
)

// Form identifies a special form. Special forms receive their arguments
// unevaluated and decide themselves what to evaluate.
type Form int

// Special forms.
const (
	FormNone Form = iota
	FormIf
	FormDo
	FormScope
	FormDefun
	FormDefine
	FormLambda
	FormQuote
	FormFor
	FormWhile
)

type formHandler func(ctx context.Context, in *Interp, args List, env *Env) (Value, error)

type formSpec struct {
	name   Symbol
	params []string
	handle formHandler
}

// forms is indexed by Form. It is populated in init to break the
// initialization cycle through Interp.Eval.
//
//nolint:gochecknoglobals
var forms [FormWhile + 1]formSpec

//nolint:gochecknoglobals
var formByName map[Symbol]Form

//nolint:gochecknoinits
func init() {
	forms = [...]formSpec{
		FormNone:   {},
		FormIf:     {"if", []string{"cond", "then", "[else]"}, evalIf},
		FormDo:     {"do", []string{"...body"}, evalDo},
		FormScope:  {"scope", []string{"...body"}, evalScope},
		FormDefun:  {"defun", []string{"name", "params", "body"}, evalDefun},
		FormDefine: {"define", []string{"name", "value"}, evalDefine},
		FormLambda: {"lambda", []string{"params", "body"}, evalLambda},
		FormQuote:  {"quote", []string{"datum"}, evalQuote},
		FormFor:    {"for", []string{"name", "list", "...body"}, evalFor},
		FormWhile:  {"while", []string{"cond", "...body"}, evalWhile},
	}

	formByName = make(map[Symbol]Form, len(forms))
	for f := FormIf; f <= FormWhile; f++ {
		formByName[forms[f].name] = f
	}
}

// LookupForm returns the special form named by sym, or FormNone.
func LookupForm(sym Symbol) Form { return formByName[sym] }

// Forms returns every special form in declaration order.
func Forms() []Form {
	out := make([]Form, 0, len(forms)-1)
	for f := FormIf; f <= FormWhile; f++ {
		out = append(out, f)
	}

	return out
}

// String returns the keyword of the form.
func (f Form) String() string {
	if f <= FormNone || f > FormWhile {
		return ""
	}

	return string(forms[f].name)
}

// Params returns the documented parameter names of the form.
func (f Form) Params() []string {
	if f <= FormNone || f > FormWhile {
		return nil
	}

	return forms[f].params
}

// ---------------------------------------------------------------------------
// Handlers
// ---------------------------------------------------------------------------

func evalIf(ctx context.Context, in *Interp, args List, env *Env) (Value, error) {
	if len(args) != 2 && len(args) != 3 {
		return nil, ErrArgCount.Wrapf("if expects 2 or 3 arguments, got %d", len(args))
	}

	c, err := in.Eval(ctx, args[0], env)
	if err != nil {
		return nil, err
	}

	if Truthy(c) {
		return in.Eval(ctx, args[1], env)
	}

	if len(args) == 3 {
		return in.Eval(ctx, args[2], env)
	}

	return Nil, nil
}

func evalDo(ctx context.Context, in *Interp, args List, env *Env) (Value, error) {
	return in.evalBody(ctx, args, env)
}

func evalScope(ctx context.Context, in *Interp, args List, env *Env) (Value, error) {
	return in.evalBody(ctx, args, NewEnv(env))
}

func evalDefun(ctx context.Context, in *Interp, args List, env *Env) (Value, error) {
	if len(args) != 3 {
		return nil, ErrArgCount.Wrapf("defun expects 3 arguments, got %d", len(args))
	}

	name, ok := args[0].(Symbol)
	if !ok {
		return nil, ErrTypeMismatch.Wrapf("defun name must be a symbol, got %s", args[0].Type())
	}

	params, err := paramList(args[1])
	if err != nil {
		return nil, err
	}

	fn := &Closure{Name: name, Params: params, Body: args[2], Env: env}
	env.Define(name, fn)

	in.logger.TraceContext(ctx, "defun",
		slog.Int(log.DepthKey, in.depth),
		slog.String("name", string(name)),
		slog.Int("params", len(params)))

	return fn, nil
}

func evalDefine(ctx context.Context, in *Interp, args List, env *Env) (Value, error) {
	if len(args) != 2 {
		return nil, ErrArgCount.Wrapf("define expects 2 arguments, got %d", len(args))
	}

	name, ok := args[0].(Symbol)
	if !ok {
		return nil, ErrTypeMismatch.Wrapf("define name must be a symbol, got %s", args[0].Type())
	}

	v, err := in.Eval(ctx, args[1], env)
	if err != nil {
		return nil, err
	}

	env.Define(name, v)

	in.logger.TraceContext(ctx, "define",
		slog.Int(log.DepthKey, in.depth),
		slog.String("name", string(name)),
		slog.String("type", v.Type().String()))

	return v, nil
}

func evalLambda(_ context.Context, _ *Interp, args List, env *Env) (Value, error) {
	if len(args) != 2 {
		return nil, ErrArgCount.Wrapf("lambda expects 2 arguments, got %d", len(args))
	}

	params, err := paramList(args[0])
	if err != nil {
		return nil, err
	}

	return &Closure{Params: params, Body: args[1], Env: env}, nil
}

func evalQuote(_ context.Context, _ *Interp, args List, _ *Env) (Value, error) {
	if len(args) != 1 {
		return nil, ErrArgCount.Wrapf("quote expects 1 argument, got %d", len(args))
	}

	return args[0], nil
}

func evalFor(ctx context.Context, in *Interp, args List, env *Env) (Value, error) {
	if len(args) < 2 {
		return nil, ErrArgCount.Wrapf("for expects at least 2 arguments, got %d", len(args))
	}

	name, ok := args[0].(Symbol)
	if !ok {
		return nil, ErrTypeMismatch.Wrapf("for variable must be a symbol, got %s", args[0].Type())
	}

	v, err := in.Eval(ctx, args[1], env)
	if err != nil {
		return nil, err
	}

	items, ok := v.(List)
	if !ok {
		return nil, ErrTypeMismatch.Wrapf("for expects a list, got %s", v.Type())
	}

	var last Value = Nil

	for _, item := range items {
		frame := NewEnv(env)
		frame.Define(name, item)

		if last, err = in.evalBody(ctx, args[2:], frame); err != nil {
			return nil, err
		}
	}

	return last, nil
}

func evalWhile(ctx context.Context, in *Interp, args List, env *Env) (Value, error) {
	if len(args) < 1 {
		return nil, ErrArgCount.Wrapf("while expects at least 1 argument, got %d", len(args))
	}

	var last Value = Nil

	for {
		if err := ctx.Err(); err != nil {
			return nil, WrapError(err)
		}

		c, err := in.Eval(ctx, args[0], env)
		if err != nil {
			return nil, err
		}

		if !Truthy(c) {
			return last, nil
		}

		if last, err = in.evalBody(ctx, args[1:], NewEnv(env)); err != nil {
			return nil, err
		}
	}
}

// paramList validates a parameter list: a List of Symbols.
func paramList(v Value) ([]Symbol, error) {
	list, ok := v.(List)
	if !ok {
		return nil, ErrBadParams.Wrapf("got %s", v.Type())
	}

	params := make([]Symbol, len(list))

	for i, p := range list {
		sym, ok := p.(Symbol)
		if !ok {
			return nil, ErrBadParams.Wrapf("parameter %d is %s", i, p.Type())
		}

		params[i] = sym
	}

	return params, nil
}
