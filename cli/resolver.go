package cli

import (
	"context"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/ardnew/tlisp/lang"
	"github.com/ardnew/tlisp/log"
)

// configMaxDepth bounds evaluation of the configuration file.
const configMaxDepth = 1000

// resolve returns a [kong.ConfigurationLoader] for configuration files written
// in tlisp itself.
//
// It can be used with [kong.Configuration] like this:
//
//	kong.Configuration(resolve(ctx), "/path/to/config")
//
// The file is evaluated in a fresh interpreter that has only the core
// builtins and discards output. Every binding left in its root environment
// becomes a configuration value named by the binding:
//
//	(define log-level "debug")
//	(define log-pretty 0)
//	(define source '("~/.config/tlisp/prelude.tl"))
//
// is applied to kong as
//
//	--log-level=debug --no-log-pretty --source=~/.config/tlisp/prelude.tl
//
// Names may use hyphens or underscores. Numbers become their decimal text,
// which kong also accepts for boolean flags; lists become arrays.
// Command-line flags override config file values. A file that fails to
// evaluate contributes the bindings defined before the failure.
func resolve(ctx context.Context) kong.ConfigurationLoader {
	return func(r io.Reader) (kong.Resolver, error) {
		in := lang.New(
			lang.WithOutput(io.Discard),
			lang.WithMaxDepth(configMaxDepth),
		)

		if err := in.Load(ctx, r); err != nil {
			log.WarnContext(ctx, "configuration file failed to evaluate",
				slog.Any("error", err))
		}

		return bindingsToConfig(in.Root()), nil
	}
}

// config implements [kong.Resolver] for tlisp configuration files.
type config map[string]any

// Validate implements [kong.Resolver].
func (config) Validate(*kong.Application) error { return nil }

// Resolve implements [kong.Resolver].
func (c config) Resolve(
	_ *kong.Context,
	_ *kong.Path,
	flag *kong.Flag,
) (any, error) {
	for _, name := range []string{
		flag.Name,
		strings.ReplaceAll(flag.Name, "-", "_"),
		strings.ReplaceAll(flag.Name, "_", "-"),
	} {
		if value, ok := c[name]; ok {
			return value, nil
		}
	}

	// Not found: let kong use defaults.
	return nil, nil //nolint:nilnil
}

// bindingsToConfig converts the local bindings of env to configuration
// values. Functions are skipped.
func bindingsToConfig(env *lang.Env) config {
	c := make(config)

	for _, name := range env.Bindings() {
		v, _ := env.Local(name)

		switch v.(type) {
		case *lang.Builtin, *lang.Closure, *lang.Error:
			continue
		}

		c[string(name)] = configValue(lang.ToNative(v))
	}

	return c
}

// configValue renders numbers as text since kong parses flag values from
// strings.
func configValue(x any) any {
	switch v := x.(type) {
	case int:
		return strconv.Itoa(v)

	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)

	case []any:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = configValue(e)
		}

		return out

	default:
		return v
	}
}
