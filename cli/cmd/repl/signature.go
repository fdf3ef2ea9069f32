package repl

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/ardnew/tlisp/lang"
)

// signatureHintStyle styles for parameter hints.
var (
	signatureStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	signatureNameStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("6")).
				Bold(true)
	currentParamStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("11")).
				Bold(true)
)

// functionCall represents the innermost open call at the cursor.
type functionCall struct {
	name     string // operator of the call, empty when it is not an atom
	argIndex int    // current argument index (0-based), -1 on the operator
	inCall   bool   // true if the cursor is inside an unclosed list
	inText   bool   // true if the cursor is inside a text literal
}

// detectFunctionCall analyzes the input up to cursor and reports the
// innermost list left open there, its operator and which argument the cursor
// is on. Text literals and comments are skipped.
func detectFunctionCall(input string, cursor int) functionCall {
	cursor = min(max(cursor, 0), len(input))

	var (
		open   []int
		inText bool
	)

	for i := 0; i < cursor; i++ {
		switch c := input[i]; {
		case inText:
			switch c {
			case '\\':
				i++
			case '"':
				inText = false
			}

		case c == '"':
			inText = true

		case c == ';':
			for i < cursor && input[i] != '\n' {
				i++
			}

		case c == '(':
			open = append(open, i)

		case c == ')':
			if len(open) > 0 {
				open = open[:len(open)-1]
			}
		}
	}

	if len(open) == 0 {
		return functionCall{inText: inText}
	}

	items, touching := splitItems(input[open[len(open)-1]+1 : cursor])

	call := functionCall{inCall: true, inText: inText}

	if len(items) > 0 && isAtom(items[0]) {
		call.name = items[0]
	}

	// The item under the cursor; item 0 is the operator.
	item := len(items)
	if touching {
		item--
	}

	call.argIndex = item - 1

	return call
}

// splitItems splits seg into its top-level data. touching reports whether
// seg ends inside or directly after the last datum.
func splitItems(seg string) (items []string, touching bool) {
	i := 0

	for i < len(seg) {
		switch seg[i] {
		case ' ', '\t', '\n', '\r':
			i++

			continue

		case ';':
			for i < len(seg) && seg[i] != '\n' {
				i++
			}

			continue
		}

		start := i
		i = skipDatum(seg, i)
		items = append(items, seg[start:i])
	}

	touching = len(seg) > 0 && !strings.ContainsRune(" \t\n\r", rune(seg[len(seg)-1]))

	return items, touching
}

// skipDatum returns the offset just past the datum starting at seg[i], or
// len(seg) when it is unterminated.
func skipDatum(seg string, i int) int {
	switch seg[i] {
	case '\'':
		if i+1 < len(seg) {
			return skipDatum(seg, i+1)
		}

		return i + 1

	case '"':
		for i++; i < len(seg); i++ {
			switch seg[i] {
			case '\\':
				i++
			case '"':
				return i + 1
			}
		}

		return len(seg)

	case '(':
		depth := 0

		for ; i < len(seg); i++ {
			switch seg[i] {
			case '"':
				i = skipDatum(seg, i) - 1
			case '(':
				depth++
			case ')':
				depth--
				if depth == 0 {
					return i + 1
				}
			}
		}

		return len(seg)

	case ')':
		return i + 1

	default:
		for ; i < len(seg) && !isDelimiter(rune(seg[i])); i++ {
		}

		return i
	}
}

// isDelimiter reports whether r ends an atom.
func isDelimiter(r rune) bool {
	return strings.ContainsRune(" \t\n\r()\";'", r)
}

func isAtom(s string) bool {
	return s != "" && !strings.ContainsFunc(s, isDelimiter)
}

// getSignature returns the operator and parameter names of the special form
// or function bound to name, or ok false when name is neither.
func getSignature(in *lang.Interp, name string) (params []string, ok bool) {
	if f := lang.LookupForm(lang.Symbol(name)); f != lang.FormNone {
		return f.Params(), true
	}

	v, found := in.Lookup(name)
	if !found {
		return nil, false
	}

	switch fn := v.(type) {
	case *lang.Builtin:
		return fn.Params, true

	case *lang.Closure:
		params = make([]string, len(fn.Params))
		for i, p := range fn.Params {
			params[i] = string(p)
		}

		return params, true

	default:
		return nil, false
	}
}

// renderSignatureHint renders "(name p1 p2 ...)" with the parameter at
// argIndex highlighted. A variadic "...name" parameter is highlighted for
// every index at or beyond it; the operator is highlighted when argIndex is
// negative.
func renderSignatureHint(name string, params []string, argIndex int) string {
	var b strings.Builder

	b.WriteString(signatureStyle.Render("("))

	if argIndex < 0 {
		b.WriteString(currentParamStyle.Render(name))
	} else {
		b.WriteString(signatureNameStyle.Render(name))
	}

	for i, param := range params {
		b.WriteString(signatureStyle.Render(" "))

		variadic := strings.HasPrefix(param, "...")

		if argIndex == i || (variadic && argIndex >= i) {
			b.WriteString(currentParamStyle.Render(param))
		} else {
			b.WriteString(signatureStyle.Render(param))
		}
	}

	b.WriteString(signatureStyle.Render(")"))

	return b.String()
}
