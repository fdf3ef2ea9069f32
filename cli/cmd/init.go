package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"reflect"
	"slices"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/ardnew/tlisp/lang"
	"github.com/ardnew/tlisp/log"
	"github.com/ardnew/tlisp/pkg"
	"github.com/ardnew/tlisp/profile"
)

// defaultConfigIndent is the number of spaces to use for indentation
// when generating the default configuration file.
const defaultConfigIndent = 2

// Init generates a default configuration file with current flag values.
type Init struct {
	Force bool `help:"Overwrite existing configuration file" short:"f"`
}

// Run executes the init command.
func (i *Init) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	ktx := kongContextFrom(ctx)

	confPath, ok := ktx.Model.Vars()[ConfigIdentifier]
	if !ok {
		panic("internal error: config path undefined")
	}

	_, err = os.Stat(confPath)
	if err == nil && !i.Force {
		return ErrWriteConfig.
			With(slog.String("file", confPath)).
			With(slog.Bool("exists", true)).
			Wrap(ErrFileExists)
	}

	file, err := os.Create(confPath)
	if err != nil {
		return ErrWriteConfig.
			With(slog.String("file", confPath)).
			Wrap(err)
	}
	defer file.Close()

	forms := i.buildForms(ktx)

	_, err = fmt.Fprintf(file, "; %s configuration\n\n", pkg.Name)
	if err == nil {
		err = lang.Format(ctx, file, forms, defaultConfigIndent)
	}

	if err != nil {
		return ErrWriteConfig.
			With(slog.String("file", confPath)).
			Wrap(err)
	}

	log.DebugContext(
		ctx,
		"initialized configuration file",
		slog.String("path", confPath),
		slog.Int("bindings", len(forms)),
	)

	return nil
}

// buildForms returns one (define name value) form per flag that has a value.
func (i *Init) buildForms(ktx *kong.Context) []lang.Value {
	prefixIgnore := []string{"help", "version", profile.Tag}

	var forms []lang.Value

	for _, flag := range ktx.Model.Flags {
		if flag.Hidden || slices.ContainsFunc(prefixIgnore, func(s string) bool {
			return strings.HasPrefix(flag.Name, s)
		}) {
			continue
		}

		val := flagValue(ktx.FlagValue(flag))
		if val != nil {
			forms = append(forms, lang.List{
				lang.Symbol("define"), lang.Symbol(flag.Name), val,
			})
		}
	}

	return forms
}

// flagValue returns the tlisp datum for a flag value, or nil if unset.
// Booleans become 1 or 0 and lists become quoted lists.
func flagValue(val any) lang.Value {
	if val == nil {
		return nil
	}

	switch v := val.(type) {
	case bool:
		return lang.Bool(v)

	case string:
		if v == "" {
			return nil
		}

		return lang.Text(v)

	case float32:
		return lang.Float(float64(v))

	case float64:
		return lang.Float(v)
	}

	rv := reflect.ValueOf(val)

	switch rv.Kind() {
	case reflect.Bool:
		return lang.Bool(rv.Bool())

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return lang.Int(rv.Int())

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32:
		return lang.Int(int64(rv.Uint()))

	case reflect.Slice:
		if rv.Len() == 0 {
			return nil
		}

		elems := make(lang.List, 0, rv.Len())
		for j := range rv.Len() {
			if e := flagValue(rv.Index(j).Interface()); e != nil {
				elems = append(elems, e)
			}
		}

		return lang.List{lang.Symbol("quote"), elems}

	default:
		s := fmt.Sprint(val)
		if s == "" {
			return nil
		}

		return lang.Text(s)
	}
}
