package lang

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/ardnew/tlisp/log"
)

//go:generate go tool stringer --linecomment --type ErrorKind --output kind_string.go

// ErrorKind classifies an [Error].
type ErrorKind int

// Error kinds. Each line comment is the name the kind is printed as.
const (
	KindRead        ErrorKind = iota + 1 // ReadError
	KindLookup                           // LookupError
	KindApplication                      // ApplicationError
	KindArity                            // ArityError
	KindType                             // TypeError
	KindRuntime                          // RuntimeError
)

// Predefined errors (sentinel values).
var (
	ErrUnclosedList    = NewError(KindRead, "unmatched '('")
	ErrUnexpectedClose = NewError(KindRead, "unexpected ')'")
	ErrUnclosedText    = NewError(KindRead, "unterminated string literal")
	ErrBadEscape       = NewError(KindRead, "invalid escape sequence")
	ErrQuoteNoDatum    = NewError(KindRead, "quote marker without datum")
	ErrNumberRange     = NewError(KindRead, "number literal out of range")
	ErrNestingDepth    = NewError(KindRead, "maximum nesting depth exceeded")

	ErrNotDefined    = NewError(KindLookup, "atom not defined")
	ErrNotApplicable = NewError(KindApplication, "not applicable")
	ErrArgCount      = NewError(KindArity, "argument count mismatch")
	ErrTypeMismatch  = NewError(KindType, "type mismatch")
	ErrBadParams     = NewError(KindType, "parameter list must contain only symbols")

	ErrDivideByZero     = NewError(KindRuntime, "division by zero")
	ErrEmptyList        = NewError(KindRuntime, "empty list")
	ErrIndexRange       = NewError(KindRuntime, "index out of range")
	ErrMaxDepthExceeded = NewError(KindRuntime, "maximum recursion depth exceeded")
)

// Error is a failure value. It carries a kind, a message, an optional wrapped
// cause and structured logging attributes, plus the expression that failed
// and a snapshot of the scope active at the time.
//
// Error values are immutable; every method that adds information returns a
// copy. Two Errors match under [errors.Is] when their kind and message are
// the same, so a decorated copy still matches the sentinel it came from.
type Error struct {
	kind  ErrorKind
	msg   string
	err   error       // Wrapped error (for errors.Unwrap)
	attrs []slog.Attr // Attributes for structured logging
	expr  Value       // Innermost failing expression
	scope string      // Rendered scope snapshot
}

// NewError creates a new Error of the given kind.
func NewError(kind ErrorKind, msg string) *Error {
	return &Error{kind: kind, msg: msg}
}

// WrapError wraps a standard error into a runtime Error. An Error found in
// the chain of err is returned as is.
func WrapError(err error) *Error {
	ee := &Error{}
	if errors.As(err, &ee) {
		return ee
	}

	return &Error{kind: KindRuntime, err: err}
}

// Error implements the error interface.
func (e *Error) Error() string {
	part := make([]string, 0, 2)

	if e.msg != "" {
		part = append(part, e.msg)
	}

	if e.err != nil {
		part = append(part, e.err.Error())
	}

	return strings.Join(part, ": ")
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *Error) Unwrap() error { return e.err }

// Is reports whether target is an Error of the same kind and message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)

	return ok && t.kind == e.kind && t.msg == e.msg
}

// Kind returns the error classification.
func (e *Error) Kind() ErrorKind { return e.kind }

// Message returns the message without the wrapped cause.
func (e *Error) Message() string { return e.msg }

// Expr returns the innermost expression that failed, or nil.
func (e *Error) Expr() Value { return e.expr }

// Scope returns the rendered scope snapshot taken at failure time.
func (e *Error) Scope() string { return e.scope }

// LogValue implements slog.LogValuer for rich structured logging.
func (e *Error) LogValue() slog.Value {
	attrs := make([]slog.Attr, 0, len(e.attrs)+4)

	attrs = append(attrs, slog.String(log.KindKey, e.kind.String()))

	if e.msg != "" {
		attrs = append(attrs, slog.String(log.ErrorKey, e.msg))
	}

	if e.err != nil {
		attrs = append(attrs, slog.String("cause", e.err.Error()))
	}

	if e.expr != nil {
		attrs = append(attrs, slog.String(log.ExprKey, e.expr.String()))
	}

	attrs = append(attrs, e.attrs...)

	if e.scope != "" {
		attrs = append(attrs, slog.String(log.ScopeKey, e.scope))
	}

	return slog.GroupValue(attrs...)
}

// Wrap creates a new Error wrapping another error.
func (e *Error) Wrap(err error) *Error {
	c := *e
	c.err = err

	return &c
}

// Wrapf creates a new Error wrapping a formatted message.
func (e *Error) Wrapf(format string, args ...any) *Error {
	//nolint:err113
	return e.Wrap(fmt.Errorf(format, args...))
}

// With adds attributes to the error for structured logging.
// This creates a new Error instance to maintain immutability.
func (e *Error) With(attrs ...slog.Attr) *Error {
	newAttrs := make([]slog.Attr, len(e.attrs)+len(attrs))
	copy(newAttrs, e.attrs)
	copy(newAttrs[len(e.attrs):], attrs)

	c := *e
	c.attrs = newAttrs

	return &c
}

// At records the failing expression and a snapshot of env. An Error that
// already carries an expression is returned unchanged, so the innermost
// failure survives propagation through enclosing forms.
func (e *Error) At(expr Value, env *Env) *Error {
	if e.expr != nil {
		return e
	}

	c := *e
	c.expr = expr
	c.scope = env.Snapshot()

	return &c
}

// Report renders the error the way the interactive session prints it.
func (e *Error) Report() string {
	if e.expr == nil {
		var sb strings.Builder

		sb.WriteString("error: ")
		sb.WriteString(e.Error())

		for _, a := range e.attrs {
			if a.Key == "line" || a.Key == "column" {
				sb.WriteString(" [" + a.Key + " " + a.Value.String() + "]")
			}
		}

		return sb.String()
	}

	return "error: the expression " + e.expr.String() +
		" failed in scope " + e.scope +
		" with message " + strconv.Quote(e.Error())
}

// Type implements [Value].
func (*Error) Type() Type { return TypeError }

// String implements [Value].
func (e *Error) String() string { return "<error " + strconv.Quote(e.Error()) + ">" }

func (*Error) value() {}

// asError converts err into an *Error decorated with the failing expression.
func asError(err error, expr Value, env *Env) *Error {
	return WrapError(err).At(expr, env)
}
