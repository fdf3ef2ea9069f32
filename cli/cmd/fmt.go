package cmd

import (
	"context"
	"io"
	"log/slog"

	"github.com/ardnew/tlisp/lang"
	"github.com/ardnew/tlisp/log"
)

// Fmt reads tlisp data and writes it back in the chosen format. The input is
// never evaluated.
type Fmt struct {
	Native Native `cmd:"" default:"withargs" help:"Format as S-expressions (default)."`
	JSON   JSON   `cmd:""                    help:"Format as JSON."`
	YAML   YAML   `cmd:""                    help:"Format as YAML."`
	AST    AST    `cmd:""                    help:"Format as a typed syntax tree."`
}

// Native formats input as S-expressions.
type Native struct {
	Indent int `default:"2" help:"Indent width; 0 writes each form on one line" short:"i"`

	Source string `arg:"" default:"-" help:"Source input file or '-' for default stdin." name:"source"`
}

// Run executes the native command.
func (f *Native) Run(ctx context.Context) error {
	return formatSource(ctx, f.Source, "native", f.Indent, lang.Format)
}

// JSON formats input as a JSON array.
type JSON struct {
	Indent int `default:"2" help:"Indent width for JSON output" short:"i"`

	Source string `arg:"" default:"-" help:"Source input file or '-' for default stdin." name:"source"`
}

// Run executes the json command.
func (j *JSON) Run(ctx context.Context) error {
	return formatSource(ctx, j.Source, "json", j.Indent, lang.FormatJSON)
}

// YAML formats input as a YAML sequence.
type YAML struct {
	Indent int `default:"2" help:"Indent width for YAML output; 0 selects flow style" short:"i"`

	Source string `arg:"" default:"-" help:"Source input file or '-' for default stdin." name:"source"`
}

// Run executes the yaml command.
func (y *YAML) Run(ctx context.Context) error {
	return formatSource(ctx, y.Source, "yaml", y.Indent, lang.FormatYAML)
}

// AST formats input as a typed syntax tree.
type AST struct {
	Indent int `default:"2" help:"Indent width per tree level" short:"i"`

	Source string `arg:"" default:"-" help:"Source input file or '-' for default stdin." name:"source"`
}

// Run executes the ast command.
func (a *AST) Run(ctx context.Context) error {
	return formatSource(ctx, a.Source, "ast", a.Indent, lang.FormatAST)
}

type formatFunc func(context.Context, io.Writer, []lang.Value, int) error

// formatSource reads every datum from source and writes it to output with
// format.
func formatSource(
	ctx context.Context,
	source, name string,
	indent int,
	format formatFunc,
) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	r, done, err := openSource(source)
	if err != nil {
		return err
	}
	defer done()

	src, err := io.ReadAll(r)
	if err != nil {
		return ErrReadSource.
			With(slog.String("file", source)).
			Wrap(err)
	}

	data, err := lang.Read(string(src))
	if err != nil {
		return lang.WrapError(err).
			With(slog.String("format", name))
	}

	log.TraceContext(ctx, "formatting",
		slog.String("format", name),
		slog.Int("forms", len(data)))

	if err := format(ctx, output, data, indent); err != nil {
		return ErrFormat.
			With(slog.String("format", name)).
			Wrap(err)
	}

	return nil
}
