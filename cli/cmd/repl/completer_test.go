package repl

import (
	"bytes"
	"slices"
	"strings"
	"testing"

	"github.com/ardnew/tlisp/host"
	"github.com/ardnew/tlisp/lang"
	"github.com/ardnew/tlisp/log"
)

func testModel(t *testing.T, opts ...lang.Option) model {
	t.Helper()

	out := new(bytes.Buffer)
	opts = append([]lang.Option{lang.WithOutput(out)}, opts...)

	return newModel(t.Context(), lang.New(opts...), out, NewHistory(""), log.Default())
}

func TestWordBounds(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		cursor    int
		boundary  func(rune) bool
		wantWord  string
		wantStart int
		wantEnd   int
	}{
		{"simple", "foo", 3, isDelimiter, "foo", 0, 3},
		{"after_paren", "(fo", 3, isDelimiter, "fo", 1, 3},
		{"operator_symbol", "(+ 1 2", 2, isDelimiter, "+", 1, 2},
		{"hyphenated", "(path-pre", 9, isDelimiter, "path-pre", 1, 9},
		{"predicate", "(file-exists?", 13, isDelimiter, "file-exists?", 1, 13},
		{"after_quote", "'sym", 4, isDelimiter, "sym", 1, 4},
		{"mid_word", "(foobar)", 3, isDelimiter, "foobar", 1, 7},
		{"empty_at_boundary", "(f ", 3, isDelimiter, "", 3, 3},
		{"cursor_clamped", "abc", 10, isDelimiter, "abc", 0, 3},
		{"expr_after_plus", `(expr "a + fo`, 13, isExprBoundary, "fo", 11, 13},
		{"expr_member", `(expr "bar.baz`, 14, isExprBoundary, "baz", 11, 14},
		{"expr_call", `(expr "len(x`, 12, isExprBoundary, "x", 11, 12},
		{"expr_hyphen", `(expr "a-b`, 10, isExprBoundary, "b", 9, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			word, start, end := wordBounds(tt.input, tt.cursor, tt.boundary)
			if word != tt.wantWord || start != tt.wantStart || end != tt.wantEnd {
				t.Errorf("wordBounds(%q, %d) = (%q, %d, %d), want (%q, %d, %d)",
					tt.input, tt.cursor, word, start, end,
					tt.wantWord, tt.wantStart, tt.wantEnd)
			}
		})
	}
}

func TestSymbolCandidates(t *testing.T) {
	m := testModel(t)

	if _, err := m.in.EvalString(t.Context(), "(define answer 42)"); err != nil {
		t.Fatal(err)
	}

	got := symbolCandidates(m.in)

	if !slices.IsSorted(got) {
		t.Errorf("candidates not sorted: %v", got)
	}

	if len(slices.Compact(slices.Clone(got))) != len(got) {
		t.Errorf("candidates contain duplicates: %v", got)
	}

	for _, want := range []string{"answer", "define", "defun", "first", "+", "while"} {
		if !slices.Contains(got, want) {
			t.Errorf("candidates missing %q", want)
		}
	}
}

func TestExprCandidates(t *testing.T) {
	got := exprCandidates()

	if !slices.IsSorted(got) {
		t.Errorf("expr candidates not sorted")
	}

	for _, want := range []string{"len", "upper", "filter"} {
		if !slices.Contains(got, want) {
			t.Errorf("expr candidates missing %q", want)
		}
	}
}

func matchStrings(m model) []string {
	matches, _, _ := m.computeMatches()

	out := make([]string, len(matches))
	for i, match := range matches {
		out[i] = match.Str
	}

	return out
}

func TestComputeMatches(t *testing.T) {
	t.Run("symbols", func(t *testing.T) {
		m := testModel(t)
		m.input.SetValue("(fir")

		got := matchStrings(m)
		if len(got) == 0 || got[0] != "first" {
			t.Errorf("matches = %v, want first ranked first", got)
		}
	})

	t.Run("empty_word", func(t *testing.T) {
		m := testModel(t)
		m.input.SetValue("(first ")

		if got := matchStrings(m); len(got) != 0 {
			t.Errorf("matches = %v, want none", got)
		}
	})

	t.Run("control_mode", func(t *testing.T) {
		m := testModel(t)
		m.mode = modeCtrl
		m.input.SetValue("ed")

		if got := matchStrings(m); !slices.Equal(got, []string{"edit"}) {
			t.Errorf("matches = %v, want [edit]", got)
		}
	})

	t.Run("text_literal", func(t *testing.T) {
		m := testModel(t)
		m.input.SetValue(`(print "fir`)

		if got := matchStrings(m); len(got) != 0 {
			t.Errorf("matches inside text = %v, want none", got)
		}
	})

	t.Run("expr_unbound", func(t *testing.T) {
		m := testModel(t)
		m.input.SetValue(`(expr "upp`)

		if got := matchStrings(m); len(got) != 0 {
			t.Errorf("matches = %v, want none without host builtins", got)
		}
	})

	t.Run("expr_program", func(t *testing.T) {
		m := testModel(t, lang.WithBuiltins(host.Builtins()...))
		m.input.SetValue(`(expr "x + upp`)

		got := matchStrings(m)
		if len(got) == 0 || got[0] != "upper" {
			t.Errorf("matches = %v, want upper ranked first", got)
		}

		_, start, end := m.computeMatches()
		if start != 11 || end != 14 {
			t.Errorf("word bounds = (%d, %d), want (11, 14)", start, end)
		}
	})

	t.Run("pending_lines", func(t *testing.T) {
		m := testModel(t, lang.WithBuiltins(host.Builtins()...))
		m.pending = "(expr \"a +\n"
		m.input.SetValue("upp")

		got := matchStrings(m)
		if len(got) == 0 || got[0] != "upper" {
			t.Errorf("matches = %v, want upper ranked first", got)
		}
	})
}

func TestRenderCandidateBar(t *testing.T) {
	m := testModel(t)
	m.input.SetValue("(p")

	matches, _, _ := m.computeMatches()
	if len(matches) < 2 {
		t.Fatalf("want several matches, got %d", len(matches))
	}

	full := stripANSI(renderCandidateBar(matches, -1, false, 1000))
	for _, match := range matches {
		if !strings.Contains(full, match.Str) {
			t.Errorf("bar %q missing %q", full, match.Str)
		}
	}

	narrow := stripANSI(renderCandidateBar(matches, 0, true, 4))
	if !strings.HasSuffix(narrow, "...") {
		t.Errorf("narrow bar %q not ellipsized", narrow)
	}

	if got := renderCandidateBar(nil, 0, false, 80); got != "" {
		t.Errorf("empty bar = %q", got)
	}
}
