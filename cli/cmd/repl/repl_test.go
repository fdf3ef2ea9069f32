package repl

import (
	"errors"
	"io"
	"regexp"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ardnew/tlisp/lang"
)

var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*[A-Za-z]`)

func stripANSI(s string) string { return ansiPattern.ReplaceAllString(s, "") }

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []outputLine
	}{
		{"result", "(+ 1 2)", []outputLine{{outputResult, "=> 3"}}},
		{
			"print_then_result", `(print "hi") 5`,
			[]outputLine{
				{outputPrint, "hi"},
				{outputResult, `=> "hi"`},
				{outputResult, "=> 5"},
			},
		},
		{"comment_only", "; nothing", nil},
		{"trailing_close", "1 )", []outputLine{{outputResult, "=> 1"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := testModel(t)

			got, incomplete := m.evaluate(t.Context(), tt.src)
			if incomplete {
				t.Fatal("unexpectedly incomplete")
			}

			// A read error follows the forms read before it.
			if tt.name == "trailing_close" {
				if len(got) != 2 || got[1].kind != outputError {
					t.Fatalf("lines = %v, want result then error", got)
				}

				got = got[:1]
			}

			if len(got) != len(tt.want) {
				t.Fatalf("lines = %v, want %v", got, tt.want)
			}

			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("line %d = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestEvaluate_Errors(t *testing.T) {
	m := testModel(t)

	lines, _ := m.evaluate(t.Context(), "(first '()) (+ 2 2)")
	if len(lines) != 2 {
		t.Fatalf("lines = %v, want error then result", lines)
	}

	if lines[0].kind != outputError || !strings.HasPrefix(lines[0].text, "error: ") {
		t.Errorf("line 0 = %v, want an error report", lines[0])
	}

	if lines[1] != (outputLine{outputResult, "=> 4"}) {
		t.Errorf("line 1 = %v, want => 4", lines[1])
	}
}

func TestEvaluate_Incomplete(t *testing.T) {
	m := testModel(t)

	for _, src := range []string{"(define x", `(print "open`, "(+ 1 2) (define y"} {
		lines, incomplete := m.evaluate(t.Context(), src)
		if !incomplete || lines != nil {
			t.Errorf("evaluate(%q) = %v, %v, want incomplete", src, lines, incomplete)
		}
	}

	if _, ok := m.in.Lookup("y"); ok {
		t.Error("forms before an unclosed one were evaluated")
	}
}

func TestExecuteInput_Continuation(t *testing.T) {
	m := testModel(t)

	m.input.SetValue("(define x")
	m, _ = m.executeInput()

	if m.pending != "(define x\n" {
		t.Fatalf("pending = %q", m.pending)
	}

	if got := stripANSI(m.input.Prompt); got != contPrompt {
		t.Errorf("prompt = %q, want continuation", got)
	}

	// A blank line keeps the form open.
	m, _ = m.executeInput()
	if m.pending != "(define x\n\n" {
		t.Fatalf("pending after blank = %q", m.pending)
	}

	m.input.SetValue("  (* 6 7))")
	m, cmd := m.executeInput()

	if cmd == nil {
		t.Error("no output command")
	}

	if m.pending != "" {
		t.Errorf("pending = %q after completion", m.pending)
	}

	if got := stripANSI(m.input.Prompt); got != evalPrompt {
		t.Errorf("prompt = %q, want eval prompt", got)
	}

	if v, ok := m.in.Lookup("x"); !ok || !lang.Equal(v, lang.Int(42)) {
		t.Errorf("x = %v, %v, want 42", v, ok)
	}

	var lines []string
	for _, e := range m.history.Entries() {
		lines = append(lines, e.Line)
	}

	if got := strings.Join(lines, "|"); got != "(define x|(* 6 7))" {
		t.Errorf("history = %q", got)
	}
}

func TestCtrlC_DiscardsPending(t *testing.T) {
	m := testModel(t)

	m.input.SetValue("(+ 1")
	m, _ = m.executeInput()
	m.input.SetValue("2")

	m, _ = m.handleKey(tea.KeyMsg{Type: tea.KeyCtrlC})

	if m.pending != "" || m.input.Value() != "" || m.quitting {
		t.Errorf("after Ctrl+C: pending %q, input %q, quitting %v",
			m.pending, m.input.Value(), m.quitting)
	}

	m, cmd := m.handleKey(tea.KeyMsg{Type: tea.KeyCtrlC})
	if !m.quitting || cmd == nil {
		t.Error("Ctrl+C on an empty line did not quit")
	}
}

func TestExecuteCommand(t *testing.T) {
	m := testModel(t)

	if _, err := m.in.EvalString(t.Context(), "(define answer 42) (defun sq (n) (* n n))"); err != nil {
		t.Fatal(err)
	}

	list := stripANSI(m.listBindings())
	for _, want := range []string{"answer 42", "sq (sq n)"} {
		if !strings.Contains(list, want) {
			t.Errorf("list %q missing %q", list, want)
		}
	}

	if strings.Contains(list, "first") {
		t.Errorf("list %q includes builtins", list)
	}

	m, cmd := m.executeCommand("reset")
	if cmd == nil {
		t.Error("reset printed nothing")
	}

	if _, ok := m.in.Lookup("answer"); ok {
		t.Error("answer still bound after reset")
	}

	if _, ok := m.in.Lookup("first"); !ok {
		t.Error("builtins missing after reset")
	}

	if got := stripANSI(m.listBindings()); !strings.Contains(got, "no bindings") {
		t.Errorf("list after reset = %q", got)
	}

	for _, name := range []string{"help", "h", "clear", "bogus"} {
		if _, cmd := m.executeCommand(name); cmd == nil {
			t.Errorf("%s returned no command", name)
		}
	}

	m, _ = m.executeCommand("quit")
	if !m.quitting {
		t.Error("quit did not set quitting")
	}
}

func TestUpdate_EditMessages(t *testing.T) {
	m := testModel(t)

	if _, err := m.in.EvalString(t.Context(), "(define old 1)"); err != nil {
		t.Fatal(err)
	}

	forms, err := lang.Read(`(define x 2) (print "loaded") (first '())`)
	if err != nil {
		t.Fatal(err)
	}

	next, cmd := m.Update(editMsg{forms: forms})
	m = next.(model)

	if cmd == nil {
		t.Error("edit printed nothing")
	}

	if _, ok := m.in.Lookup("old"); ok {
		t.Error("old binding survived edit")
	}

	if v, ok := m.in.Lookup("x"); !ok || !lang.Equal(v, lang.Int(2)) {
		t.Errorf("x = %v, %v, want 2", v, ok)
	}

	if m.out.Len() != 0 {
		t.Errorf("output not drained: %q", m.out.String())
	}

	next, _ = m.Update(editDeclinedMsg{})
	if !next.(model).quitting {
		t.Error("declined edit did not quit")
	}

	for _, msg := range []tea.Msg{editCancelledMsg{}, editErrorMsg{err: ErrEditorFailed}} {
		if _, cmd := m.Update(msg); cmd == nil {
			t.Errorf("%T printed nothing", msg)
		}
	}
}

func TestHistoryNavigation(t *testing.T) {
	m := testModel(t)

	m.input.SetValue("(+ 1 2)")
	m, _ = m.executeInput()

	m, _ = m.switchToMode(modeCtrl)
	m.input.SetValue("help")
	m, _ = m.executeInput()
	m, _ = m.switchToMode(modeEval)

	steps := []struct {
		key      tea.KeyType
		wantText string
		wantMode inputMode
	}{
		{tea.KeyUp, "help", modeCtrl},
		{tea.KeyUp, "(+ 1 2)", modeEval},
		{tea.KeyUp, "(+ 1 2)", modeEval},
		{tea.KeyDown, "help", modeCtrl},
		{tea.KeyDown, "", modeCtrl},
	}

	for i, s := range steps {
		m, _ = m.handleKey(tea.KeyMsg{Type: s.key})

		if m.input.Value() != s.wantText || m.mode != s.wantMode {
			t.Errorf("step %d: text %q mode %d, want %q mode %d",
				i, m.input.Value(), m.mode, s.wantText, s.wantMode)
		}
	}

	if m.historyIdx != m.history.Len() {
		t.Errorf("historyIdx = %d, want %d", m.historyIdx, m.history.Len())
	}

	m, _ = m.switchToMode(modeEval)
	m, _ = m.handleKey(tea.KeyMsg{Type: tea.KeyShiftUp})

	if m.input.Value() != "(+ 1 2)" || m.mode != modeEval {
		t.Errorf("Shift+Up: text %q mode %d, want eval entry", m.input.Value(), m.mode)
	}
}

func TestAltNavigationRestoresMode(t *testing.T) {
	m := testModel(t)

	m, _ = m.switchToMode(modeCtrl)
	m.input.SetValue("list")
	m, _ = m.executeInput()
	m, _ = m.switchToMode(modeEval)

	m.input.SetValue("(draft")

	m, _ = m.handleKey(tea.KeyMsg{Type: tea.KeyUp, Alt: true})
	if m.mode != modeCtrl || m.input.Value() != "list" {
		t.Fatalf("Alt+Up: text %q mode %d", m.input.Value(), m.mode)
	}

	m, _ = m.handleKey(tea.KeyMsg{Type: tea.KeyDown, Alt: true})
	if m.mode != modeEval || m.input.Value() != "(draft" {
		t.Errorf("Alt+Down: text %q mode %d, want original input", m.input.Value(), m.mode)
	}
}

func TestToggleModePreservesInput(t *testing.T) {
	m := testModel(t)

	m.input.SetValue("(+ 1")
	m, _ = m.handleKey(tea.KeyMsg{Type: tea.KeyEsc})

	if m.mode != modeCtrl || m.input.Value() != "" {
		t.Fatalf("after Esc: mode %d text %q", m.mode, m.input.Value())
	}

	m.input.SetValue("he")
	m, _ = m.handleKey(tea.KeyMsg{Type: tea.KeyEsc})

	if m.mode != modeEval || m.input.Value() != "(+ 1" {
		t.Errorf("after second Esc: mode %d text %q", m.mode, m.input.Value())
	}

	if m.ctrlText != "he" {
		t.Errorf("ctrlText = %q, want he", m.ctrlText)
	}
}

func TestTabCompletion(t *testing.T) {
	m := testModel(t)

	m, _ = m.handleKey(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("(prin")})
	if len(m.matches) != 1 {
		t.Fatalf("matches = %v, want exactly print", m.matches)
	}

	m, _ = m.handleKey(tea.KeyMsg{Type: tea.KeyTab})

	if got := m.input.Value(); got != "(print" {
		t.Errorf("after Tab = %q, want (print", got)
	}
}

func TestHintLine(t *testing.T) {
	m := testModel(t)

	if got := stripANSI(m.hintLine()); !strings.Contains(got, "Esc for commands") {
		t.Errorf("empty hint = %q", got)
	}

	m.input.SetValue("(first ")

	if got := stripANSI(m.hintLine()); got != "(first list)" {
		t.Errorf("call hint = %q, want signature", got)
	}

	m.input.SetValue("")
	m.pending = "(print \"open\n"

	if got := stripANSI(m.hintLine()); !strings.Contains(got, "Continue the form") {
		t.Errorf("pending hint = %q", got)
	}
}

func TestInitFlushesOutput(t *testing.T) {
	m := testModel(t)

	if _, err := m.in.EvalString(t.Context(), `(print "preloaded")`); err != nil {
		t.Fatal(err)
	}

	if m.Init() == nil {
		t.Error("Init returned no command")
	}

	if m.out.Len() != 0 {
		t.Errorf("output not drained: %q", m.out.String())
	}
}

func TestExecuteCommand_ResetReloadsSources(t *testing.T) {
	m := testModel(t)

	loads := 0
	m.newInterp = func(out io.Writer) (*lang.Interp, error) {
		loads++

		in := lang.New(lang.WithOutput(out))
		in.Define("preloaded", lang.Int(1))

		return in, nil
	}

	if _, err := m.in.EvalString(t.Context(), "(define scratch 2)"); err != nil {
		t.Fatal(err)
	}

	m, _ = m.executeCommand("reset")

	if _, ok := m.in.Lookup("preloaded"); !ok || loads != 1 {
		t.Errorf("reset did not reload sources (loads = %d)", loads)
	}

	if _, ok := m.in.Lookup("scratch"); ok {
		t.Error("scratch binding survived reset")
	}

	// A failing reload still clears the session in place.
	m.newInterp = func(io.Writer) (*lang.Interp, error) {
		return nil, errors.New("source vanished")
	}

	before := m.in

	m, cmd := m.executeCommand("reset")
	if cmd == nil {
		t.Error("failed reset printed nothing")
	}

	if m.in != before {
		t.Error("failed reset replaced the interpreter")
	}

	if _, ok := m.in.Lookup("preloaded"); ok {
		t.Error("failed reset kept the preloaded binding")
	}
}
