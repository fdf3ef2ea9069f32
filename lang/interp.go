package lang

import (
	"context"
	"errors"
	"io"
	"os"

	"github.com/ardnew/tlisp/log"
)

// DefaultMaxDepth is the default limit on nested evaluation.
const DefaultMaxDepth = 10000

// Interp is an interpreter context. It owns the root environment, the output
// sink used by print and the session echo, a logger and the recursion limit.
//
// An Interp is not safe for concurrent use.
type Interp struct {
	root     *Env
	out      io.Writer
	logger   log.Logger
	maxDepth int
	depth    int
	extra    []*Builtin
}

// Option is a functional option for configuring an [Interp].
type Option func(*Interp)

// WithOutput sets the sink written by print and by session echo.
func WithOutput(w io.Writer) Option {
	return func(in *Interp) {
		if w == nil {
			w = io.Discard
		}

		in.out = w
	}
}

// WithLogger sets the logger for evaluation tracing.
func WithLogger(logger log.Logger) Option {
	return func(in *Interp) { in.logger = logger }
}

// WithMaxDepth sets the maximum evaluation depth. A value of zero or less
// disables the limit.
func WithMaxDepth(n int) Option {
	return func(in *Interp) { in.maxDepth = n }
}

// WithBuiltins binds additional native functions in every root environment
// the interpreter creates, including after [Interp.Reset].
func WithBuiltins(b ...*Builtin) Option {
	return func(in *Interp) { in.extra = append(in.extra, b...) }
}

// New returns an interpreter with a fresh root environment.
func New(opts ...Option) *Interp {
	in := &Interp{
		out:      os.Stdout,
		maxDepth: DefaultMaxDepth,
	}

	for _, opt := range opts {
		opt(in)
	}

	in.Reset()

	return in
}

// Reset discards every user binding by replacing the root environment.
func (in *Interp) Reset() {
	root := NewEnv(nil)

	for _, b := range builtins() {
		root.Define(b.Name, b)
	}

	for _, b := range in.extra {
		root.Define(b.Name, b)
	}

	in.root = root
	in.depth = 0
}

// Root returns the root environment.
func (in *Interp) Root() *Env { return in.root }

// Output returns the output sink.
func (in *Interp) Output() io.Writer { return in.out }

// Logger returns the interpreter's logger.
func (in *Interp) Logger() log.Logger { return in.logger }

// MaxDepth returns the evaluation depth limit.
func (in *Interp) MaxDepth() int { return in.maxDepth }

// Define binds name to v in the root environment.
func (in *Interp) Define(name string, v Value) { in.root.Define(Symbol(name), v) }

// Lookup resolves name in the root environment.
func (in *Interp) Lookup(name string) (Value, bool) {
	return in.root.Lookup(Symbol(name))
}

// EvalString reads every form in src and evaluates them in order in the root
// environment. It returns the value of the last form, or the empty list when
// src holds no forms. Evaluation stops at the first error.
func (in *Interp) EvalString(ctx context.Context, src string) (Value, error) {
	r := NewReader(src)

	var last Value = Nil

	for {
		expr, err := r.Next()
		if errors.Is(err, io.EOF) {
			return last, nil
		}

		if err != nil {
			return nil, err
		}

		if last, err = in.Eval(ctx, expr, in.root); err != nil {
			return nil, err
		}
	}
}
