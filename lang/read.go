package lang

import (
	"errors"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Position identifies a location in source text. Line and Column are 1-based.
type Position struct {
	Offset int
	Line   int
	Column int
}

// String returns the position as "line:column".
func (p Position) String() string {
	return strconv.Itoa(p.Line) + ":" + strconv.Itoa(p.Column)
}

// WithPosition attaches source location attributes to the error.
func (e *Error) WithPosition(pos Position) *Error {
	return e.With(
		slog.Int("line", pos.Line),
		slog.Int("column", pos.Column),
	)
}

// Read converts all of src into a sequence of top-level Data.
func Read(src string) ([]Value, error) {
	r := NewReader(src)

	var out []Value

	for {
		v, err := r.Next()
		if errors.Is(err, io.EOF) {
			return out, nil
		}

		if err != nil {
			return out, err
		}

		out = append(out, v)
	}
}

// ReadOne reads exactly one datum from src. Trailing input other than
// whitespace and comments is ignored.
func ReadOne(src string) (Value, error) {
	return NewReader(src).Next()
}

// MaxReadDepth is the deepest nesting of lists and quote markers a Reader
// accepts before it reports [ErrNestingDepth].
const MaxReadDepth = 10000

// maxEscapeLen is the length of the longest escape sequence, "\UXXXXXXXX".
const maxEscapeLen = 10

// Incomplete reports whether err indicates input that ended in the middle of
// a list or string literal, so a front end may ask for more lines.
func Incomplete(err error) bool {
	return errors.Is(err, ErrUnclosedList) || errors.Is(err, ErrUnclosedText)
}

// Reader converts source text into Data one top-level form at a time.
// All state is per Reader, so independent Readers may be used freely.
type Reader struct {
	input []byte
	pos   int
	line  int
	col   int
	depth int
}

// NewReader returns a Reader over src.
func NewReader(src string) *Reader {
	return &Reader{input: []byte(src), line: 1, col: 1}
}

// Position returns the current read position.
func (r *Reader) Position() Position {
	return Position{Offset: r.pos, Line: r.line, Column: r.col}
}

// Next returns the next top-level datum, or io.EOF when the input holds
// nothing but whitespace and comments.
func (r *Reader) Next() (Value, error) {
	r.skipWhitespaceAndComments()

	if r.eof() {
		return nil, io.EOF
	}

	return r.readDatum()
}

func (r *Reader) readDatum() (Value, error) {
	pos := r.Position()

	if r.depth >= MaxReadDepth {
		return nil, ErrNestingDepth.WithPosition(pos).
			With(slog.Int("max", MaxReadDepth))
	}

	r.depth++
	defer func() { r.depth-- }()

	switch r.peek() {
	case '(':
		r.advance()

		return r.readList(pos)

	case ')':
		return nil, ErrUnexpectedClose.WithPosition(pos)

	case '\'':
		r.advance()
		r.skipWhitespaceAndComments()

		if r.eof() || r.peek() == ')' {
			return nil, ErrQuoteNoDatum.WithPosition(pos)
		}

		d, err := r.readDatum()
		if err != nil {
			return nil, err
		}

		return List{Symbol(FormQuote.String()), d}, nil

	case '"':
		r.advance()

		return r.readText(pos)

	default:
		return r.readAtom()
	}
}

func (r *Reader) readList(open Position) (Value, error) {
	list := List{}

	for {
		r.skipWhitespaceAndComments()

		if r.eof() {
			return nil, ErrUnclosedList.WithPosition(open)
		}

		if r.peek() == ')' {
			r.advance()

			return list, nil
		}

		d, err := r.readDatum()
		if err != nil {
			return nil, err
		}

		list = append(list, d)
	}
}

func (r *Reader) readText(open Position) (Value, error) {
	var sb strings.Builder

	for !r.eof() {
		c := r.peek()
		r.advance()

		switch c {
		case '"':
			return Text(sb.String()), nil

		case '\\':
			if r.eof() {
				return nil, ErrUnclosedText.WithPosition(open)
			}

			if err := r.readEscape(&sb); err != nil {
				return nil, err
			}

		default:
			sb.WriteRune(c)
		}
	}

	return nil, ErrUnclosedText.WithPosition(open)
}

// readEscape decodes the escape sequence whose backslash was just consumed.
// It accepts the Go string literal escapes, which include every form
// [strconv.Quote] produces, so printed Text always reads back.
func (r *Reader) readEscape(sb *strings.Builder) error {
	esc := r.Position()
	seq := string(r.input[r.pos-1 : min(len(r.input), r.pos-1+maxEscapeLen)])

	v, multibyte, tail, err := strconv.UnquoteChar(seq, '"')
	if err != nil {
		_, n := utf8.DecodeRuneInString(seq[1:])

		return ErrBadEscape.WithPosition(esc).
			With(slog.String("escape", seq[:1+n]))
	}

	for range len(seq) - len(tail) - 1 {
		r.advance()
	}

	if v < utf8.RuneSelf || !multibyte {
		sb.WriteByte(byte(v))
	} else {
		sb.WriteRune(v)
	}

	return nil
}

func (r *Reader) readAtom() (Value, error) {
	pos := r.Position()
	start := r.pos

	for !r.eof() && !isDelimiter(r.peek()) {
		r.advance()
	}

	v, err := parseAtom(string(r.input[start:r.pos]))
	if err != nil {
		var e *Error
		if errors.As(err, &e) {
			return nil, e.WithPosition(pos)
		}

		return nil, err
	}

	return v, nil
}

// Helper methods

func (r *Reader) peek() rune {
	if r.eof() {
		return 0
	}

	c, _ := utf8.DecodeRune(r.input[r.pos:])

	return c
}

func (r *Reader) advance() {
	if r.eof() {
		return
	}

	c, size := utf8.DecodeRune(r.input[r.pos:])

	r.pos += size
	if c == '\n' {
		r.line++
		r.col = 1
	} else {
		r.col++
	}
}

func (r *Reader) eof() bool {
	return r.pos >= len(r.input)
}

func (r *Reader) skipWhitespaceAndComments() {
	for !r.eof() {
		switch c := r.peek(); {
		case unicode.IsSpace(c):
			r.advance()

		case c == ';':
			for !r.eof() && r.peek() != '\n' {
				r.advance()
			}

		default:
			return
		}
	}
}

func isDelimiter(c rune) bool {
	switch c {
	case '(', ')', '\'', '"', ';':
		return true
	default:
		return unicode.IsSpace(c)
	}
}
