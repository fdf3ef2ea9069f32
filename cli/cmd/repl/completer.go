package repl

import (
	"maps"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"
	"github.com/expr-lang/expr/builtin"
	"github.com/sahilm/fuzzy"

	"github.com/ardnew/tlisp/lang"
)

// ctrlCommands are the available control-mode commands.
var ctrlCommands = []string{"help", "list", "edit", "reset", "clear", "quit"}

// exprOperator is the host builtin whose text argument is an expr-lang
// program.
const exprOperator = "expr"

// isExprBoundary returns true if the rune delimits a word inside an
// expr-lang program: whitespace, member access, quotes and the operator and
// punctuation characters.
func isExprBoundary(r rune) bool {
	switch r {
	case '.', ' ', '\t', '"', '\'',
		'(', ')', '[', ']',
		'+', '-', '*', '/', '%',
		'<', '>', '=', '!',
		'&', '|', ',', '?', ':', ';':
		return true
	}

	return false
}

// wordBounds returns the word at the cursor position and its byte boundaries
// within input. Returns an empty word when the cursor sits between two
// boundaries.
func wordBounds(
	input string,
	cursor int,
	boundary func(rune) bool,
) (word string, start, end int) {
	cursor = min(max(cursor, 0), len(input))

	start = cursor

	for start > 0 {
		r, size := utf8.DecodeLastRuneInString(input[:start])
		if boundary(r) {
			break
		}

		start -= size
	}

	end = cursor

	for end < len(input) {
		r, size := utf8.DecodeRuneInString(input[end:])
		if boundary(r) {
			break
		}

		end += size
	}

	return input[start:end], start, end
}

// cursorOffset returns the byte offset of the cursor within the input value.
func cursorOffset(ti textinput.Model) int {
	r := []rune(ti.Value())

	return len(string(r[:min(ti.Position(), len(r))]))
}

// symbolCandidates returns every name visible in the root environment plus
// the special form keywords, without duplicates.
func symbolCandidates(in *lang.Interp) []string {
	names := make(map[string]struct{})

	for _, name := range in.Root().Names() {
		names[string(name)] = struct{}{}
	}

	for _, f := range lang.Forms() {
		names[f.String()] = struct{}{}
	}

	return slices.Sorted(maps.Keys(names))
}

// exprCandidates returns the expr-lang builtin function names.
func exprCandidates() []string {
	return slices.Sorted(maps.Keys(builtin.Index))
}

// computeMatches calculates the fuzzy match results for the word at the cursor.
// It returns the matches (ranked best-first) and the word boundaries. An empty
// word has no matches, so the hint line stays visible.
func (m model) computeMatches() (
	matches fuzzy.Matches,
	wordStart, wordEnd int,
) {
	input := m.input.Value()
	cursor := cursorOffset(m.input)

	var (
		boundary   = isDelimiter
		candidates []string
	)

	switch call := detectFunctionCall(m.pending+input, len(m.pending)+cursor); {
	case m.mode == modeCtrl:
		candidates = ctrlCommands

	case call.inText:
		// Only the program text of (expr "...") completes.
		if call.name == exprOperator && call.argIndex == 0 {
			if _, ok := m.in.Lookup(exprOperator); ok {
				boundary = isExprBoundary
				candidates = exprCandidates()
			}
		}

	default:
		candidates = symbolCandidates(m.in)
	}

	word, wordStart, wordEnd := wordBounds(input, cursor, boundary)

	if word == "" || len(candidates) == 0 {
		return nil, wordStart, wordEnd
	}

	return fuzzy.Find(word, candidates), wordStart, wordEnd
}

// renderCandidateBar builds the single-line completion bar, ellipsized to fit
// within the given terminal width. Each candidate is rendered with its matched
// characters highlighted. The selected candidate (when tabbing) uses the
// selected style.
func renderCandidateBar(
	matches fuzzy.Matches,
	suggIdx int,
	tabActive bool,
	width int,
) string {
	if len(matches) == 0 || width <= 0 {
		return ""
	}

	const sep = "  "

	sepWidth := lipgloss.Width(sep)
	ellipsis := hintStyle.Render("...")
	ellipsisWidth := lipgloss.Width(ellipsis)

	var b strings.Builder

	used := 0

	for i, match := range matches {
		rendered := renderCandidate(match, tabActive && i == suggIdx)

		entryWidth := lipgloss.Width(rendered)
		if i > 0 {
			entryWidth += sepWidth
		}

		// Reserve room for the ellipsis unless this is the last candidate.
		reserve := ellipsisWidth
		if i == len(matches)-1 {
			reserve = 0
		}

		if i > 0 && used+entryWidth+reserve > width {
			b.WriteString(sep)
			b.WriteString(ellipsis)

			break
		}

		if i > 0 {
			b.WriteString(sep)
		}

		b.WriteString(rendered)

		used += entryWidth
	}

	return b.String()
}

// renderCandidate renders a single candidate with matched characters
// highlighted.
func renderCandidate(match fuzzy.Match, selected bool) string {
	baseStyle := suggestionStyle
	highlightStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("4")).
		Bold(true)

	if selected {
		baseStyle = selectedStyle
		highlightStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("4")).
			Bold(true)
	}

	matched := make(map[int]bool, len(match.MatchedIndexes))
	for _, idx := range match.MatchedIndexes {
		matched[idx] = true
	}

	var b strings.Builder

	for i, r := range match.Str {
		if matched[i] {
			b.WriteString(highlightStyle.Render(string(r)))
		} else {
			b.WriteString(baseStyle.Render(string(r)))
		}
	}

	return b.String()
}
