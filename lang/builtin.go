package lang

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// variadic marks a builtin with no upper arity bound.
const variadic = -1

// builtins returns the native functions bound in every root environment.
// A fresh set is built each call so no Builtin is shared between roots.
func builtins() []*Builtin {
	return []*Builtin{
		{Name: "+", Params: []string{"...xs"}, MinArgs: 0, MaxArgs: variadic, Fn: builtinAdd},
		{Name: "-", Params: []string{"x", "...xs"}, MinArgs: 1, MaxArgs: variadic, Fn: builtinSub},
		{Name: "*", Params: []string{"...xs"}, MinArgs: 0, MaxArgs: variadic, Fn: builtinMul},
		{Name: "/", Params: []string{"x", "y", "...xs"}, MinArgs: 2, MaxArgs: variadic, Fn: builtinQuo},

		{Name: "<", Params: []string{"a", "b", "...more"}, MinArgs: 2, MaxArgs: variadic, Fn: compare("<", func(c int) bool { return c < 0 })},
		{Name: "<=", Params: []string{"a", "b", "...more"}, MinArgs: 2, MaxArgs: variadic, Fn: compare("<=", func(c int) bool { return c <= 0 })},
		{Name: ">", Params: []string{"a", "b", "...more"}, MinArgs: 2, MaxArgs: variadic, Fn: compare(">", func(c int) bool { return c > 0 })},
		{Name: ">=", Params: []string{"a", "b", "...more"}, MinArgs: 2, MaxArgs: variadic, Fn: compare(">=", func(c int) bool { return c >= 0 })},
		{Name: "=", Params: []string{"a", "b", "...more"}, MinArgs: 2, MaxArgs: variadic, Fn: builtinEqual},
		{Name: "not", Params: []string{"x"}, MinArgs: 1, MaxArgs: 1, Fn: builtinNot},

		{Name: "list", Params: []string{"...xs"}, MinArgs: 0, MaxArgs: variadic, Fn: builtinList},
		{Name: "len", Params: []string{"seq"}, MinArgs: 1, MaxArgs: 1, Fn: builtinLen},
		{Name: "first", Params: []string{"list"}, MinArgs: 1, MaxArgs: 1, Fn: builtinFirst},
		{Name: "tail", Params: []string{"list"}, MinArgs: 1, MaxArgs: 1, Fn: builtinTail},
		{Name: "nth", Params: []string{"list", "index"}, MinArgs: 2, MaxArgs: 2, Fn: builtinNth},
		{Name: "cons", Params: []string{"x", "list"}, MinArgs: 2, MaxArgs: 2, Fn: builtinCons},
		{Name: "filter", Params: []string{"pred", "list"}, MinArgs: 2, MaxArgs: 2, Fn: builtinFilter},
		{Name: "map", Params: []string{"fn", "list"}, MinArgs: 2, MaxArgs: 2, Fn: builtinMap},

		{Name: "str", Params: []string{"...xs"}, MinArgs: 0, MaxArgs: variadic, Fn: builtinStr},
		{Name: "type", Params: []string{"x"}, MinArgs: 1, MaxArgs: 1, Fn: builtinType},
		{Name: "print", Params: []string{"x"}, MinArgs: 1, MaxArgs: 1, Fn: builtinPrint},
	}
}

// Signature returns the call template of a function value, such as
// "(nth list index)", or the empty string for other values.
func Signature(v Value) string {
	var (
		name   string
		params []string
	)

	switch f := v.(type) {
	case *Builtin:
		name, params = string(f.Name), f.Params

	case *Closure:
		name = string(f.Name)
		if name == "" {
			name = "lambda"
		}

		for _, p := range f.Params {
			params = append(params, string(p))
		}

	default:
		return ""
	}

	return "(" + strings.Join(append([]string{name}, params...), " ") + ")"
}

func arity(lo, hi int) string {
	plural := func(n int) string {
		if n == 1 {
			return "1 argument"
		}

		return strconv.Itoa(n) + " arguments"
	}

	switch {
	case hi < 0:
		return "at least " + plural(lo)
	case lo == hi:
		return plural(lo)
	default:
		return strconv.Itoa(lo) + " to " + plural(hi)
	}
}

// ---------------------------------------------------------------------------
// Arithmetic
// ---------------------------------------------------------------------------

func numbers(op string, args []Value) ([]Number, error) {
	nums := make([]Number, len(args))

	for i, a := range args {
		n, ok := a.(Number)
		if !ok {
			return nil, ErrTypeMismatch.Wrapf("%s expects numbers, argument %d is %s", op, i+1, a.Type())
		}

		nums[i] = n
	}

	return nums, nil
}

func builtinAdd(_ context.Context, _ *Interp, args []Value) (Value, error) {
	if len(args) == 0 {
		return zero, nil
	}

	switch args[0].(type) {
	case List:
		out := List{}

		for i, a := range args {
			l, ok := a.(List)
			if !ok {
				return nil, ErrTypeMismatch.Wrapf("+ expects lists, argument %d is %s", i+1, a.Type())
			}

			out = append(out, l...)
		}

		return out, nil

	case Text:
		var sb strings.Builder

		for i, a := range args {
			t, ok := a.(Text)
			if !ok {
				return nil, ErrTypeMismatch.Wrapf("+ expects texts, argument %d is %s", i+1, a.Type())
			}

			sb.WriteString(string(t))
		}

		return Text(sb.String()), nil
	}

	nums, err := numbers("+", args)
	if err != nil {
		return nil, err
	}

	sum := zero
	for _, n := range nums {
		sum = sum.Add(n)
	}

	return sum, nil
}

func builtinSub(_ context.Context, _ *Interp, args []Value) (Value, error) {
	nums, err := numbers("-", args)
	if err != nil {
		return nil, err
	}

	if len(nums) == 1 {
		return zero.Sub(nums[0]), nil
	}

	acc := nums[0]
	for _, n := range nums[1:] {
		acc = acc.Sub(n)
	}

	return acc, nil
}

func builtinMul(_ context.Context, _ *Interp, args []Value) (Value, error) {
	nums, err := numbers("*", args)
	if err != nil {
		return nil, err
	}

	prod := one
	for _, n := range nums {
		prod = prod.Mul(n)
	}

	return prod, nil
}

func builtinQuo(_ context.Context, _ *Interp, args []Value) (Value, error) {
	nums, err := numbers("/", args)
	if err != nil {
		return nil, err
	}

	acc := nums[0]

	for _, n := range nums[1:] {
		if n.IsZero() {
			return nil, ErrDivideByZero
		}

		acc = acc.Quo(n)
	}

	return acc, nil
}

// ---------------------------------------------------------------------------
// Comparison
// ---------------------------------------------------------------------------

func compare(op string, holds func(int) bool) NativeFunc {
	return func(_ context.Context, _ *Interp, args []Value) (Value, error) {
		for i := 1; i < len(args); i++ {
			c, err := order(op, args[i-1], args[i])
			if err != nil {
				return nil, err
			}

			if !holds(c) {
				return zero, nil
			}
		}

		return one, nil
	}
}

// order compares two Numbers or two Texts.
func order(op string, a, b Value) (int, error) {
	switch x := a.(type) {
	case Number:
		if y, ok := b.(Number); ok {
			return x.Cmp(y), nil
		}

	case Text:
		if y, ok := b.(Text); ok {
			return strings.Compare(string(x), string(y)), nil
		}
	}

	return 0, ErrTypeMismatch.Wrapf("%s cannot compare %s with %s", op, a.Type(), b.Type())
}

func builtinEqual(_ context.Context, _ *Interp, args []Value) (Value, error) {
	for i := 1; i < len(args); i++ {
		if !Equal(args[i-1], args[i]) {
			return zero, nil
		}
	}

	return one, nil
}

func builtinNot(_ context.Context, _ *Interp, args []Value) (Value, error) {
	return Bool(!Truthy(args[0])), nil
}

// ---------------------------------------------------------------------------
// Lists
// ---------------------------------------------------------------------------

func listArg(op string, v Value) (List, error) {
	l, ok := v.(List)
	if !ok {
		return nil, ErrTypeMismatch.Wrapf("%s expects a list, got %s", op, v.Type())
	}

	return l, nil
}

func builtinList(_ context.Context, _ *Interp, args []Value) (Value, error) {
	return append(List{}, args...), nil
}

func builtinLen(_ context.Context, _ *Interp, args []Value) (Value, error) {
	switch x := args[0].(type) {
	case List:
		return Int(int64(len(x))), nil

	case Text:
		return Int(int64(utf8.RuneCountInString(string(x)))), nil

	default:
		return nil, ErrTypeMismatch.Wrapf("len expects a list or text, got %s", x.Type())
	}
}

func builtinFirst(_ context.Context, _ *Interp, args []Value) (Value, error) {
	l, err := listArg("first", args[0])
	if err != nil {
		return nil, err
	}

	if len(l) == 0 {
		return nil, ErrEmptyList.Wrapf("first of ()")
	}

	return l[0], nil
}

func builtinTail(_ context.Context, _ *Interp, args []Value) (Value, error) {
	l, err := listArg("tail", args[0])
	if err != nil {
		return nil, err
	}

	if len(l) == 0 {
		return nil, ErrEmptyList.Wrapf("tail of ()")
	}

	return append(List{}, l[1:]...), nil
}

func builtinNth(_ context.Context, _ *Interp, args []Value) (Value, error) {
	l, err := listArg("nth", args[0])
	if err != nil {
		return nil, err
	}

	n, ok := args[1].(Number)
	if !ok {
		return nil, ErrTypeMismatch.Wrapf("nth index must be a number, got %s", args[1].Type())
	}

	i, ok := n.Int()
	if !ok || i < 0 || i >= len(l) {
		return nil, ErrIndexRange.Wrapf("index %s, length %d", n, len(l))
	}

	return l[i], nil
}

func builtinCons(_ context.Context, _ *Interp, args []Value) (Value, error) {
	l, err := listArg("cons", args[1])
	if err != nil {
		return nil, err
	}

	return append(List{args[0]}, l...), nil
}

func builtinFilter(ctx context.Context, in *Interp, args []Value) (Value, error) {
	l, err := listArg("filter", args[1])
	if err != nil {
		return nil, err
	}

	out := List{}

	for _, item := range l {
		keep, err := in.Apply(ctx, args[0], []Value{item})
		if err != nil {
			return nil, err
		}

		if Truthy(keep) {
			out = append(out, item)
		}
	}

	return out, nil
}

func builtinMap(ctx context.Context, in *Interp, args []Value) (Value, error) {
	l, err := listArg("map", args[1])
	if err != nil {
		return nil, err
	}

	out := make(List, len(l))

	for i, item := range l {
		if out[i], err = in.Apply(ctx, args[0], []Value{item}); err != nil {
			return nil, err
		}
	}

	return out, nil
}

// ---------------------------------------------------------------------------
// Text and output
// ---------------------------------------------------------------------------

func builtinStr(_ context.Context, _ *Interp, args []Value) (Value, error) {
	var sb strings.Builder

	for _, a := range args {
		sb.WriteString(Display(a))
	}

	return Text(sb.String()), nil
}

func builtinType(_ context.Context, _ *Interp, args []Value) (Value, error) {
	return Text(args[0].Type().String()), nil
}

func builtinPrint(_ context.Context, in *Interp, args []Value) (Value, error) {
	if _, err := fmt.Fprintln(in.out, Display(args[0])); err != nil {
		return nil, WrapError(err)
	}

	return args[0], nil
}
