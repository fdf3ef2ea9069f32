package host

import (
	"context"
	"os"

	"github.com/ardnew/tlisp/lang"
)

const variadic = -1

// Builtins returns a fresh set of host functions.
func Builtins() []*lang.Builtin {
	return []*lang.Builtin{
		{Name: "hostname", MaxArgs: 0, Fn: text(getHostname)},
		{Name: "user", MaxArgs: 0, Fn: text(getUsername)},
		{Name: "shell", MaxArgs: 0, Fn: text(getShell)},
		{Name: "cwd", MaxArgs: 0, Fn: text(getCwd)},
		{Name: "platform", MaxArgs: 0, Fn: triple(getPlatform)},
		{Name: "target", MaxArgs: 0, Fn: triple(getTarget)},
		{Name: "getenv", Params: []string{"name", "default"}, MinArgs: 1, MaxArgs: 2, Fn: builtinGetenv},

		{Name: "file-exists?", Params: []string{"path"}, MinArgs: 1, MaxArgs: 1, Fn: predicate("file-exists?", fileExists)},
		{Name: "file-dir?", Params: []string{"path"}, MinArgs: 1, MaxArgs: 1, Fn: predicate("file-dir?", fileIsDir)},
		{Name: "file-regular?", Params: []string{"path"}, MinArgs: 1, MaxArgs: 1, Fn: predicate("file-regular?", fileIsRegular)},
		{Name: "file-symlink?", Params: []string{"path"}, MinArgs: 1, MaxArgs: 1, Fn: predicate("file-symlink?", fileIsSymlink)},

		{Name: "path-abs", Params: []string{"path"}, MinArgs: 1, MaxArgs: 1, Fn: builtinPathAbs},
		{Name: "path-cat", Params: []string{"...elems"}, MaxArgs: variadic, Fn: builtinPathCat},
		{Name: "path-rel", Params: []string{"from", "to"}, MinArgs: 2, MaxArgs: 2, Fn: builtinPathRel},
		{Name: "path-prefix", Params: []string{"list", "...prefix"}, MinArgs: 1, MaxArgs: variadic, Fn: builtinPathPrefix},
		{Name: "path-prefix-if", Params: []string{"pred", "list", "...prefix"}, MinArgs: 2, MaxArgs: variadic, Fn: builtinPathPrefixIf},

		{Name: "expr", Params: []string{"src", "bindings"}, MinArgs: 1, MaxArgs: 2, Fn: builtinExpr},
	}
}

func text(fn func() string) lang.NativeFunc {
	return func(context.Context, *lang.Interp, []lang.Value) (lang.Value, error) {
		return lang.Text(fn()), nil
	}
}

func triple(fn func() target) lang.NativeFunc {
	return func(context.Context, *lang.Interp, []lang.Value) (lang.Value, error) {
		t := fn()

		return lang.List{lang.Text(t.OS), lang.Text(t.Arch)}, nil
	}
}

func predicate(op string, fn func(string) bool) lang.NativeFunc {
	return func(_ context.Context, _ *lang.Interp, args []lang.Value) (lang.Value, error) {
		p, err := textArg(op, args[0])
		if err != nil {
			return nil, err
		}

		return lang.Bool(fn(p)), nil
	}
}

// textArg accepts text or a symbol.
func textArg(op string, v lang.Value) (string, error) {
	switch x := v.(type) {
	case lang.Text:
		return string(x), nil
	case lang.Symbol:
		return string(x), nil
	default:
		return "", lang.ErrTypeMismatch.Wrapf("%s expects text, got %s", op, v.Type())
	}
}

func textArgs(op string, args []lang.Value) ([]string, error) {
	out := make([]string, len(args))

	for i, a := range args {
		s, err := textArg(op, a)
		if err != nil {
			return nil, err
		}

		out[i] = s
	}

	return out, nil
}

func builtinGetenv(_ context.Context, _ *lang.Interp, args []lang.Value) (lang.Value, error) {
	name, err := textArg("getenv", args[0])
	if err != nil {
		return nil, err
	}

	if v, ok := os.LookupEnv(name); ok {
		return lang.Text(v), nil
	}

	if len(args) > 1 {
		return args[1], nil
	}

	return lang.Text(""), nil
}
