package repl

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ardnew/tlisp/lang"
	"github.com/ardnew/tlisp/log"
)

// editMsg is sent when editing completes with at least one form. The kept
// closures were not written to the editor and are restored from root, the
// root environment at the time the edit began.
type editMsg struct {
	forms []lang.Value
	kept  []binding
	root  *lang.Env
}

// editCancelledMsg is sent when the edited file holds no forms.
type editCancelledMsg struct{}

// editDeclinedMsg is sent when the user declined to re-edit after a read
// error.
type editDeclinedMsg struct{}

// editErrorMsg is sent when the edit process encounters any other error.
type editErrorMsg struct{ err error }

const (
	evalPrompt = "λ "
	contPrompt = "… "
	ctrlPrompt = " :"
)

func helpMessage() string {
	return `
: Commands (press Esc to toggle mode):

  help     Print this cruft
  list     List session bindings
  edit     Edit session bindings in external $EDITOR
  reset    Discard session bindings and reload --source files
  clear    Clear screen
  quit     Exit REPL

Usage:
  Type a form to evaluate it; unclosed forms continue on the next line
  Completions appear automatically as you type
  Press Tab / Shift-Tab to cycle through candidates
  Press Space to accept the current candidate
  Press Esc to toggle between eval and command modes
  Use Up/Down arrows for history navigation (mode switches automatically)
  Use Shift+Up/Shift+Down for history navigation within current mode only
  Use Alt+Up/Alt+Down to switch to command mode and navigate command history
    (restores original mode when reaching end of history)
  Press Ctrl+C to discard the current line, or on an empty line to exit
  Press Ctrl+D on an empty line to exit
`
}

// inputMode represents the current input mode.
type inputMode int

const (
	modeEval inputMode = iota
	modeCtrl
)

// Styles.
var (
	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("6")).
			Bold(true)
	ctrlPromptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("5")).
			Bold(true)
	inputStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
	resultStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	errorStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	hintStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	suggestionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	selectedStyle   = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("4"))
)

// outputKind classifies a line of evaluation output.
type outputKind int

const (
	outputPrint outputKind = iota
	outputResult
	outputError
	outputHint
)

type outputLine struct {
	kind outputKind
	text string
}

func renderOutput(lines []outputLine) string {
	out := make([]string, len(lines))

	for i, l := range lines {
		switch l.kind {
		case outputResult:
			out[i] = resultStyle.Render(l.text)
		case outputError:
			out[i] = errorStyle.Render(l.text)
		case outputHint:
			out[i] = hintStyle.Render(l.text)
		default:
			out[i] = l.text
		}
	}

	return strings.Join(out, "\n")
}

// model is the Bubble Tea model for the REPL.
type model struct {
	ctxFunc          func() context.Context
	input            textinput.Model
	in               *lang.Interp
	newInterp        func(io.Writer) (*lang.Interp, error) // nil resets in place
	out              *bytes.Buffer // interpreter output sink
	logger           log.Logger
	history          *History
	historyIdx       int
	pending          string        // lines of an unfinished form
	matches          fuzzy.Matches // current fuzzy match results
	wordStart        int           // byte offset of current word start
	wordEnd          int           // byte offset of current word end
	suggIdx          int           // selected candidate index
	tabActive        bool          // whether user is tab-cycling
	preTabText       string        // input text before tab-cycling began
	preTabCursor     int           // cursor position before tab-cycling began
	altNavActive     bool          // whether user is in Alt+Up/Down navigation
	altNavOrigMode   inputMode     // original mode before Alt navigation
	altNavOrigText   string        // original text before Alt navigation
	altNavOrigCursor int           // original cursor position before Alt navigation
	width            int           // terminal width for ellipsization
	quitting         bool
	mode             inputMode
	evalText         string
	evalCursor       int
	ctrlText         string
	ctrlCursor       int
}

// Run starts the REPL over the interpreter returned by newInterp, which must
// direct its output to the given writer. The history file is kept in
// cacheDir; an empty cacheDir keeps history in memory only.
func Run(
	ctx context.Context,
	newInterp func(out io.Writer) (*lang.Interp, error),
	cacheDir string,
	logger log.Logger,
) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	out := new(bytes.Buffer)

	in, err := newInterp(out)
	if err != nil {
		return err
	}

	logger.TraceContext(
		ctx,
		"repl start",
		slog.String("cache_dir", cacheDir),
		slog.Int("bindings", in.Root().Len()),
	)

	var path string
	if cacheDir != "" {
		path = filepath.Join(cacheDir, baseHistory)
	}

	history := NewHistory(path)
	if err := history.Load(); err != nil {
		logger.WarnContext(ctx, "could not load history", slog.Any("error", err))
	}

	logger.TraceContext(
		ctx,
		"repl history loaded",
		slog.Int("entry_count", history.Len()),
	)

	m := newModel(ctx, in, out, history, logger)
	m.newInterp = newInterp

	p := tea.NewProgram(m, tea.WithContext(ctx))
	_, err = p.Run()

	return err
}

const defaultWidth = 80

func newModel(
	ctx context.Context,
	in *lang.Interp,
	out *bytes.Buffer,
	history *History,
	logger log.Logger,
) model {
	ti := textinput.New()
	ti.Prompt = promptStyle.Render(evalPrompt)
	ti.Focus()
	ti.CharLimit = 4096
	ti.Width = defaultWidth

	return model{
		ctxFunc:    func() context.Context { return ctx },
		input:      ti,
		in:         in,
		out:        out,
		logger:     logger,
		history:    history,
		historyIdx: history.Len(),
		width:      defaultWidth,
		mode:       modeEval,
	}
}

func (m model) Init() tea.Cmd {
	// Output written while the interpreter was prepared, such as by print
	// in a preloaded source file.
	if lines := m.drain(); len(lines) > 0 {
		return tea.Batch(textinput.Blink, tea.Println(renderOutput(lines)))
	}

	return textinput.Blink
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.input.Width = msg.Width - lipgloss.Width(evalPrompt) - 2

		return m, nil

	case editMsg:
		m.in.Reset()
		m.pending = ""
		m.setPrompt()

		lines := m.evalForms(m.ctxFunc(), msg.forms, false)
		lines = append(lines, outputLine{
			outputResult,
			fmt.Sprintf("✔ — bindings replaced (%d forms)", len(msg.forms)),
		})

		if kept := restore(msg.kept, msg.root, m.in.Root()); len(kept) > 0 {
			lines = append(lines, outputLine{
				outputHint,
				fmt.Sprintf("  kept with captured scope: %s", joinSymbols(kept)),
			})
		}

		m.logger.TraceContext(
			m.ctxFunc(),
			"repl edit complete",
			slog.Int("bindings", m.in.Root().Len()),
		)

		return m, tea.Println(renderOutput(lines))

	case editCancelledMsg:
		return m, tea.Println(hintStyle.Render("🗴 — edit cancelled."))

	case editDeclinedMsg:
		m.quitting = true

		return m, tea.Quit

	case editErrorMsg:
		return m, tea.Println(
			errorStyle.Render("🗴 — error: " + msg.err.Error()),
		)
	}

	var cmd tea.Cmd

	m.input, cmd = m.input.Update(msg)

	return m, cmd
}

func (m model) View() string {
	if m.quitting {
		return ""
	}

	return m.input.View() + "\n" + m.hintLine() + "\n"
}

// hintLine renders the line shown below the input.
func (m model) hintLine() string {
	input := m.input.Value()

	if m.historyIdx < m.history.Len() {
		return hintStyle.Render(fmt.Sprintf("%s/%d",
			lipgloss.NewStyle().Bold(true).Render(strconv.Itoa(m.historyIdx+1)),
			m.history.Len()))
	}

	if m.tabActive && len(m.matches) > 0 {
		return renderCandidateBar(m.matches, m.suggIdx, m.tabActive, m.width)
	}

	if m.mode == modeEval {
		call := detectFunctionCall(m.pending+input, len(m.pending)+cursorOffset(m.input))
		if call.inCall && !call.inText && call.name != "" {
			if params, ok := getSignature(m.in, call.name); ok {
				return renderSignatureHint(call.name, params, call.argIndex)
			}
		}
	}

	switch {
	case len(m.matches) > 0:
		return renderCandidateBar(m.matches, m.suggIdx, m.tabActive, m.width)

	case strings.TrimSpace(input) != "":
		return ""

	case m.mode == modeCtrl:
		return hintStyle.Render("Type: " + strings.Join(ctrlCommands, ", ") + " (press Esc to return)")

	case m.pending != "":
		return hintStyle.Render("Continue the form, or press Ctrl+C to discard it")

	default:
		return hintStyle.Render("Type a form or press Esc for commands")
	}
}

// setPrompt selects the prompt for the current mode and pending input.
func (m *model) setPrompt() {
	switch {
	case m.mode == modeCtrl:
		m.input.Prompt = ctrlPromptStyle.Render(ctrlPrompt)
	case m.pending != "":
		m.input.Prompt = promptStyle.Render(contPrompt)
	default:
		m.input.Prompt = promptStyle.Render(evalPrompt)
	}
}

func (m model) handleKey(msg tea.KeyMsg) (model, tea.Cmd) {
	m.logger.TraceContext(
		m.ctxFunc(),
		"repl keypress",
		slog.String("key", msg.String()),
		slog.Int("type", int(msg.Type)),
	)

	switch msg.Type {
	case tea.KeyCtrlC:
		if m.input.Value() == "" && m.pending == "" {
			m.quitting = true

			return m, tea.Quit
		}

		m.input.SetValue("")
		m.pending = ""
		m.setPrompt()
		m.tabActive = false
		m.altNavActive = false
		m.historyIdx = m.history.Len()
		refreshMatches(&m, false)

		return m, nil

	case tea.KeyCtrlD:
		if m.input.Value() == "" && m.pending == "" {
			m.quitting = true

			return m, tea.Quit
		}

		return m, nil

	case tea.KeyEnter:
		if !m.tabActive || len(m.matches) == 0 {
			m.altNavActive = false

			return m.executeInput()
		}
		// Lock in the current tab candidate without executing.
		m.tabActive = false
		m.altNavActive = false
		refreshMatches(&m, true)

		return m, nil

	case tea.KeyTab:
		return m.cycleCandidates(1)

	case tea.KeyShiftTab:
		return m.cycleCandidates(-1)

	case tea.KeyUp:
		if msg.Alt {
			return m.historyCtrl(-1)
		}

		return m.historyStep(-1)

	case tea.KeyDown:
		if msg.Alt {
			return m.historyCtrl(1)
		}

		return m.historyStep(1)

	case tea.KeyShiftUp:
		return m.historyInMode(-1)

	case tea.KeyShiftDown:
		return m.historyInMode(1)

	case tea.KeyEsc:
		if m.tabActive {
			m.tabActive = false
			m.input.SetValue(m.preTabText)
			m.input.SetCursor(m.preTabCursor)
			refreshMatches(&m, false)

			return m, nil
		}

		m.altNavActive = false

		return m.toggleMode()

	case tea.KeyRunes, tea.KeySpace:
		// Space is a "breaking" key while tab-cycling.
		if m.tabActive && msg.String() == " " {
			m.tabActive = false
		}

		var cmd tea.Cmd

		m.historyIdx = m.history.Len()
		m.input, cmd = m.input.Update(msg)
		refreshMatches(&m, true)

		return m, cmd
	}

	// For any other key (backspace, delete, arrows, etc.),
	// update input and recompute matches without auto-confirm.
	var cmd tea.Cmd

	m.tabActive = false
	m.altNavActive = false
	m.historyIdx = m.history.Len()
	m.input, cmd = m.input.Update(msg)
	refreshMatches(&m, false)

	return m, cmd
}

// cycleCandidates moves the tab selection by step, wrapping around. A single
// candidate is completed and confirmed immediately.
func (m model) cycleCandidates(step int) (model, tea.Cmd) {
	n := len(m.matches)
	if n == 0 {
		return m, nil
	}

	if n == 1 {
		replaceCurrentWord(&m, m.matches[0].Str)
		m.tabActive = false
		m.suggIdx = -1
		m.matches = nil

		return m, nil
	}

	if m.tabActive {
		m.suggIdx = (m.suggIdx + step + n) % n
	} else {
		m.tabActive = true
		m.preTabText = m.input.Value()
		m.preTabCursor = m.input.Position()

		m.suggIdx = 0
		if step < 0 {
			m.suggIdx = n - 1
		}
	}

	replaceCurrentWord(&m, m.matches[m.suggIdx].Str)

	return m, nil
}

// replaceCurrentWord replaces the current word boundaries in the input with
// the given replacement text and repositions the cursor.
func replaceCurrentWord(m *model, replacement string) {
	input := m.input.Value()
	head := input[:m.wordStart] + replacement

	m.input.SetValue(head + input[m.wordEnd:])
	m.input.SetCursor(utf8.RuneCountInString(head))

	m.wordEnd = len(head)
}

// refreshMatches recomputes fuzzy matches for the current input state.
// When autoConfirm is true it also confirms the completion when exactly one
// candidate remains and the typed word already equals that candidate.
// autoConfirm should be false for deletions and cursor navigation so that
// the user can freely edit without unexpected completions.
func refreshMatches(m *model, autoConfirm bool) {
	m.matches, m.wordStart, m.wordEnd = m.computeMatches()

	if !m.tabActive {
		m.suggIdx = -1
	}

	if !autoConfirm || len(m.matches) != 1 {
		return
	}

	if m.input.Value()[m.wordStart:m.wordEnd] == m.matches[0].Str {
		m.tabActive = false
		m.suggIdx = -1
		m.matches = nil
	}
}

func (m model) executeInput() (model, tea.Cmd) {
	raw := m.input.Value()
	input := strings.TrimSpace(raw)

	if input == "" && (m.mode == modeCtrl || m.pending == "") {
		return m, nil
	}

	m.evalText = ""
	m.evalCursor = 0
	m.ctrlText = ""
	m.ctrlCursor = 0
	m.input.SetValue("")
	m.matches = nil

	if m.mode == modeCtrl {
		m.addHistory(input, modeCtrl)
		m.logger.TraceContext(
			m.ctxFunc(),
			"repl command",
			slog.String("input", input),
		)

		return m.executeCommand(input)
	}

	m.addHistory(input, modeEval)

	echoCmd := tea.Println(promptStyle.Render(m.promptText()) + inputStyle.Render(raw))

	src := m.pending + raw + "\n"

	lines, incomplete := m.evaluate(m.ctxFunc(), src)
	if incomplete {
		m.pending = src
		m.setPrompt()

		return m, echoCmd
	}

	m.pending = ""
	m.setPrompt()

	m.logger.TraceContext(
		m.ctxFunc(),
		"repl eval",
		slog.String("input", src),
		slog.Int("lines", len(lines)),
	)

	if len(lines) == 0 {
		return m, echoCmd
	}

	return m, tea.Sequence(echoCmd, tea.Println(renderOutput(lines)))
}

func (m model) promptText() string {
	if m.pending != "" {
		return contPrompt
	}

	return evalPrompt
}

func (m *model) addHistory(line string, mode inputMode) {
	if err := m.history.Add(line, mode); err != nil {
		m.logger.DebugContext(m.ctxFunc(), "history write failed",
			slog.Any("error", err))
	}

	m.historyIdx = m.history.Len()
}

// evaluate reads every form of src and evaluates each in the root
// environment. It reports incomplete without evaluating anything when src
// ends inside a list or text literal.
func (m model) evaluate(ctx context.Context, src string) (lines []outputLine, incomplete bool) {
	forms, err := lang.Read(src)
	if lang.Incomplete(err) {
		return nil, true
	}

	lines = m.evalForms(ctx, forms, true)

	if err != nil {
		lines = append(lines, outputLine{outputError, lang.WrapError(err).Report()})
	}

	return lines, false
}

// evalForms evaluates forms in order, collecting printed output, error
// reports and, when echo is set, each result.
func (m model) evalForms(ctx context.Context, forms []lang.Value, echo bool) []outputLine {
	var lines []outputLine

	for _, form := range forms {
		v, err := m.in.Eval(ctx, form, m.in.Root())
		lines = append(lines, m.drain()...)

		switch {
		case err != nil:
			lines = append(lines, outputLine{outputError, lang.WrapError(err).Report()})
		case echo:
			lines = append(lines, outputLine{outputResult, "=> " + v.String()})
		}
	}

	return lines
}

// drain returns and clears the interpreter output.
func (m model) drain() []outputLine {
	text := strings.TrimSuffix(m.out.String(), "\n")
	m.out.Reset()

	if text == "" {
		return nil
	}

	split := strings.Split(text, "\n")
	lines := make([]outputLine, len(split))

	for i, s := range split {
		lines[i] = outputLine{outputPrint, s}
	}

	return lines
}

func (m model) executeCommand(input string) (model, tea.Cmd) {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return m, nil
	}

	echoCmd := tea.Println(ctrlPromptStyle.Render(ctrlPrompt) + inputStyle.Render(input))

	cmd := parts[0]

	m.logger.TraceContext(
		m.ctxFunc(),
		"repl exec command",
		slog.String("command", cmd),
		slog.Any("args", parts[1:]),
	)

	switch cmd {
	case "q", "quit", "exit":
		m.quitting = true

		return m, tea.Sequence(echoCmd, tea.Quit)

	case "h", "help":
		return m, tea.Sequence(echoCmd, tea.Println(helpMessage()))

	case "l", "list":
		return m, tea.Sequence(echoCmd, tea.Println(m.listBindings()))

	case "r", "reset":
		m.pending = ""

		if err := m.reset(); err != nil {
			return m, tea.Sequence(echoCmd,
				tea.Println(errorStyle.Render("✘ — reset without --source files: "+err.Error())))
		}

		return m, tea.Sequence(echoCmd,
			tea.Println(resultStyle.Render("✔ — session reset")))

	case "c", "clear":
		return m, tea.ClearScreen

	case "e", "edit":
		return m, tea.Sequence(echoCmd, m.editCmd())

	default:
		return m, tea.Println(
			errorStyle.Render("Unknown command: " + cmd + " (try 'help')"),
		)
	}
}

// reset replaces the interpreter with a fresh one from newInterp, which
// preloads the --source files again. Without a factory, or when it fails,
// the current interpreter is reset in place and err is returned.
func (m *model) reset() error {
	if m.newInterp == nil {
		m.in.Reset()

		return nil
	}

	in, err := m.newInterp(m.out)
	if err != nil {
		m.in.Reset()

		return err
	}

	m.in = in

	return nil
}

func (m model) editCmd() tea.Cmd {
	root := m.in.Root()
	editable, kept := partition(userBindings(root), root)

	cmd := &editCommand{
		forms:   bindingForms(editable),
		kept:    kept,
		ctxFunc: m.ctxFunc,
		logger:  m.logger,
	}

	return tea.Exec(cmd, func(err error) tea.Msg {
		switch {
		case errors.Is(err, ErrEditDeclined):
			return editDeclinedMsg{}

		case err != nil:
			return editErrorMsg{err: err}

		case cmd.edited == nil:
			return editCancelledMsg{}

		default:
			return editMsg{forms: cmd.edited, kept: kept, root: root}
		}
	})
}

func (m model) listBindings() string {
	bindings := userBindings(m.in.Root())
	if len(bindings) == 0 {
		return hintStyle.Render("  (no bindings)")
	}

	var b strings.Builder

	for _, bd := range bindings {
		fmt.Fprintf(&b, "  %s %s\n", bd.name, hintStyle.Render(preview(bd.value)))
	}

	return strings.TrimSuffix(b.String(), "\n")
}

// showHistory loads history entry i into the input, switching to its mode.
func (m model) showHistory(i int) model {
	entry, err := m.history.Entry(i)
	if err != nil {
		return m
	}

	if m.mode != entry.Mode {
		m, _ = m.switchToMode(entry.Mode)
	}

	m.historyIdx = i
	m.input.SetValue(entry.Line)
	m.input.SetCursor(utf8.RuneCountInString(entry.Line))
	refreshMatches(&m, false)

	return m
}

// clearHistoryView leaves history navigation with an empty input.
func (m model) clearHistoryView() model {
	m.historyIdx = m.history.Len()
	m.input.SetValue("")
	refreshMatches(&m, false)

	return m
}

// historyStep moves through all history entries by step (-1 older, +1
// newer), switching modes as needed.
func (m model) historyStep(step int) (model, tea.Cmd) {
	i := m.historyIdx + step

	switch {
	case i < 0:
		return m, nil
	case i >= m.history.Len():
		return m.clearHistoryView(), nil
	default:
		return m.showHistory(i), nil
	}
}

// findHistory returns the index of the nearest entry in direction step from
// the current position whose mode is mode, or -1.
func (m model) findHistory(step int, mode inputMode) int {
	for i := m.historyIdx + step; i >= 0 && i < m.history.Len(); i += step {
		if entry, err := m.history.Entry(i); err == nil && entry.Mode == mode {
			return i
		}
	}

	return -1
}

// historyInMode moves through history entries of the current mode only.
func (m model) historyInMode(step int) (model, tea.Cmd) {
	if i := m.findHistory(step, m.mode); i >= 0 {
		return m.showHistory(i), nil
	}

	if step > 0 && m.historyIdx < m.history.Len() {
		return m.clearHistoryView(), nil
	}

	return m, nil
}

// historyCtrl moves through command history, switching to command mode
// first. Running off either end restores the original mode and input.
func (m model) historyCtrl(step int) (model, tea.Cmd) {
	if !m.altNavActive {
		m.altNavActive = true
		m.altNavOrigMode = m.mode
		m.altNavOrigText = m.input.Value()
		m.altNavOrigCursor = m.input.Position()

		if m.mode != modeCtrl {
			m, _ = m.switchToMode(modeCtrl)
		}
	}

	if i := m.findHistory(step, modeCtrl); i >= 0 {
		return m.showHistory(i), nil
	}

	m.altNavActive = false

	if m.altNavOrigMode != m.mode {
		m, _ = m.switchToMode(m.altNavOrigMode)
	}

	m.input.SetValue(m.altNavOrigText)
	m.input.SetCursor(m.altNavOrigCursor)
	m.historyIdx = m.history.Len()
	refreshMatches(&m, false)

	return m, nil
}

// toggleMode switches between eval and control modes, preserving input state.
func (m model) toggleMode() (model, tea.Cmd) {
	if m.mode == modeEval {
		return m.switchToMode(modeCtrl)
	}

	return m.switchToMode(modeEval)
}

// switchToMode switches to the specified mode, preserving input state.
func (m model) switchToMode(mode inputMode) (model, tea.Cmd) {
	if m.mode == modeEval {
		m.evalText = m.input.Value()
		m.evalCursor = m.input.Position()
	} else {
		m.ctrlText = m.input.Value()
		m.ctrlCursor = m.input.Position()
	}

	m.mode = mode
	m.setPrompt()

	if mode == modeEval {
		m.input.SetValue(m.evalText)
		m.input.SetCursor(m.evalCursor)
	} else {
		m.input.SetValue(m.ctrlText)
		m.input.SetCursor(m.ctrlCursor)
	}

	refreshMatches(&m, false)

	return m, nil
}
