package lang

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/big"
	"strconv"
	"strings"

	"github.com/nukata/goarith"
)

// Value is the closed set of runtime values: [Number], [Text], [Symbol],
// [List], [*Closure], [*Builtin] and [*Error]. A List is used both as data
// and as code; only the evaluation context tells them apart.
type Value interface {
	// Type returns the variant tag of the value.
	Type() Type

	// String returns the printed representation of the value as shown by the
	// "=>" echo. Text is quoted; use [Display] for the unquoted form.
	String() string

	value()
}

//go:generate go tool stringer --linecomment --type Type --output type_string.go

// Type indicates the variant of a [Value].
type Type int

// Value variants. Each line comment is the name the variant is printed as.
const (
	TypeNumber  Type = iota // number
	TypeText                // text
	TypeSymbol              // symbol
	TypeList                // list
	TypeClosure             // closure
	TypeBuiltin             // builtin
	TypeError               // error
)

// ---------------------------------------------------------------------------
// Number
// ---------------------------------------------------------------------------

// Number is a numeric value. Integer arithmetic never overflows: results
// that do not fit a machine word are promoted to big integers.
type Number struct {
	n goarith.Number
}

//nolint:gochecknoglobals
var (
	zero = Int(0)
	one  = Int(1)
)

// Int returns the Number with integer value i.
func Int(i int64) Number { return Number{goarith.AsNumber(i)} }

// Uint returns the Number with integer value u. Values above the int64 range
// become big integers.
func Uint(u uint64) Number {
	if u > math.MaxInt64 {
		return Number{goarith.AsNumber(new(big.Int).SetUint64(u))}
	}

	return Int(int64(u))
}

// Float returns the Number with floating-point value f.
func Float(f float64) Number { return Number{goarith.AsNumber(f)} }

// Bool returns 1 for true and 0 for false.
func Bool(b bool) Number {
	if b {
		return one
	}

	return zero
}

// parseAtom converts a bare token into a Number when it is a numeric
// literal and into a Symbol otherwise. A literal that is numeric in form but
// exceeds the float64 range is an error rather than a Symbol.
func parseAtom(tok string) (Value, error) {
	if !looksNumeric(tok) {
		return Symbol(tok), nil
	}

	if z, ok := new(big.Int).SetString(tok, 10); ok {
		return Number{goarith.AsNumber(z)}, nil
	}

	f, err := strconv.ParseFloat(tok, 64)
	if errors.Is(err, strconv.ErrRange) {
		return nil, ErrNumberRange.With(slog.String("literal", tok))
	}

	if err != nil {
		return Symbol(tok), nil
	}

	return Float(f), nil
}

// looksNumeric reports whether s starts like a number literal: a digit, or a
// sign or decimal point followed by a digit. This keeps symbols such as "+",
// "-", "inf" and "nan" out of the numeric domain.
func looksNumeric(s string) bool {
	isDigit := func(c byte) bool { return c >= '0' && c <= '9' }

	switch {
	case s == "":
		return false

	case isDigit(s[0]):
		return true

	case s[0] == '+' || s[0] == '-':
		if len(s) > 1 && s[1] == '.' {
			return len(s) > 2 && isDigit(s[2])
		}

		return len(s) > 1 && isDigit(s[1])

	case s[0] == '.':
		return len(s) > 1 && isDigit(s[1])

	default:
		return false
	}
}

// Type implements [Value].
func (Number) Type() Type { return TypeNumber }

// String implements [Value].
func (n Number) String() string {
	if n.n == nil {
		return "0"
	}

	return fmt.Sprint(n.n)
}

func (Number) value() {}

// IsZero reports whether n equals zero.
func (n Number) IsZero() bool { return n.Cmp(zero) == 0 }

// IsInteger reports whether n holds an exact integer.
func (n Number) IsInteger() bool {
	_, isFloat := n.num().(goarith.Float64)

	return !isFloat
}

// Int returns n as an int if it is an integer that fits.
func (n Number) Int() (int, bool) {
	if !n.IsInteger() {
		return 0, false
	}

	i, err := strconv.Atoi(n.String())
	if err != nil {
		return 0, false
	}

	return i, true
}

// Float64 returns the nearest float64 to n.
func (n Number) Float64() float64 {
	f, _ := strconv.ParseFloat(n.String(), 64)

	return f
}

// Cmp compares n and m and returns -1, 0 or +1.
func (n Number) Cmp(m Number) int { return n.num().Cmp(m.num()) }

// Add returns n + m.
func (n Number) Add(m Number) Number { return Number{n.num().Add(m.num())} }

// Sub returns n - m.
func (n Number) Sub(m Number) Number { return Number{n.num().Sub(m.num())} }

// Mul returns n * m.
func (n Number) Mul(m Number) Number { return Number{n.num().Mul(m.num())} }

// Quo returns n / m, truncated toward zero when both operands are integers.
// The caller must ensure m is not zero.
func (n Number) Quo(m Number) Number {
	if n.IsInteger() && m.IsInteger() {
		q, _ := n.num().QuoRem(m.num())

		return Number{q}
	}

	return Number{n.num().RQuo(m.num())}
}

func (n Number) num() goarith.Number {
	if n.n == nil {
		return zero.n
	}

	return n.n
}

// ---------------------------------------------------------------------------
// Text, Symbol, List
// ---------------------------------------------------------------------------

// Text is an immutable string value.
type Text string

// Type implements [Value].
func (Text) Type() Type { return TypeText }

// String implements [Value].
func (t Text) String() string { return strconv.Quote(string(t)) }

func (Text) value() {}

// Symbol is a name. Symbols compare by name.
type Symbol string

// Type implements [Value].
func (Symbol) Type() Type { return TypeSymbol }

// String implements [Value].
func (s Symbol) String() string { return string(s) }

func (Symbol) value() {}

// List is an ordered sequence of values. The empty List is the nil result.
type List []Value

// Nil is the empty list.
//
//nolint:gochecknoglobals
var Nil = List{}

// Type implements [Value].
func (List) Type() Type { return TypeList }

// String implements [Value].
func (l List) String() string {
	var sb strings.Builder

	sb.WriteByte('(')

	for i, v := range l {
		if i > 0 {
			sb.WriteByte(' ')
		}

		sb.WriteString(v.String())
	}

	sb.WriteByte(')')

	return sb.String()
}

func (List) value() {}

// ---------------------------------------------------------------------------
// Closure, Builtin
// ---------------------------------------------------------------------------

// Closure is a user-defined function. Env is the environment active where
// the closure was created; several closures may share it.
type Closure struct {
	Name   Symbol // empty for lambda
	Params []Symbol
	Body   Value
	Env    *Env
}

// Type implements [Value].
func (*Closure) Type() Type { return TypeClosure }

// String implements [Value].
func (c *Closure) String() string {
	params := make(List, len(c.Params))
	for i, p := range c.Params {
		params[i] = p
	}

	if c.Name == "" {
		return "<lambda " + params.String() + ">"
	}

	return "<function " + string(c.Name) + " " + params.String() + ">"
}

func (*Closure) value() {}

// NativeFunc is the implementation of a [Builtin]. Args have already been
// evaluated and their count checked against the builtin's arity.
type NativeFunc func(ctx context.Context, in *Interp, args []Value) (Value, error)

// Builtin is a native function. It is not inspectable as data.
type Builtin struct {
	Name    Symbol
	Params  []string // documentation only, e.g. {"list", "...more"}
	MinArgs int
	MaxArgs int // negative means unbounded
	Fn      NativeFunc
}

// Type implements [Value].
func (*Builtin) Type() Type { return TypeBuiltin }

// String implements [Value].
func (b *Builtin) String() string { return "<builtin " + string(b.Name) + ">" }

func (*Builtin) value() {}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// Truthy reports the truth value of v: zero and the empty list are false,
// everything else is true.
func Truthy(v Value) bool {
	switch x := v.(type) {
	case Number:
		return !x.IsZero()

	case List:
		return len(x) > 0

	default:
		return v != nil
	}
}

// Equal reports whether a and b are structurally equal. Values of different
// types are never equal. Closures and builtins compare by identity.
func Equal(a, b Value) bool {
	switch x := a.(type) {
	case Number:
		y, ok := b.(Number)

		return ok && x.Cmp(y) == 0

	case Text:
		y, ok := b.(Text)

		return ok && x == y

	case Symbol:
		y, ok := b.(Symbol)

		return ok && x == y

	case List:
		y, ok := b.(List)
		if !ok || len(x) != len(y) {
			return false
		}

		for i := range x {
			if !Equal(x[i], y[i]) {
				return false
			}
		}

		return true

	default:
		return a == b
	}
}

// Display returns the printed form of v used by print and str: like
// [Value.String] except that Text is written without quotes.
func Display(v Value) string {
	if t, ok := v.(Text); ok {
		return string(t)
	}

	if v == nil {
		return Nil.String()
	}

	return v.String()
}
