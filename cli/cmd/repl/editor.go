package repl

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"github.com/ardnew/tlisp/lang"
	"github.com/ardnew/tlisp/log"
)

const (
	defaultEditor = "vi"
	editIndent    = 2
)

// editCommand implements [tea.ExecCommand] for the edit-read-retry loop. It
// writes the given forms to a temp file, opens the user's editor, and reads
// the result back. On a read error the user is prompted to re-edit;
// declining exits the program.
type editCommand struct {
	forms   []lang.Value
	kept    []binding // closures with a captured scope, listed in the header
	ctxFunc func() context.Context
	logger  log.Logger
	edited  []lang.Value // nil when the user cleared the file
	stdin   io.Reader
	stdout  io.Writer
	stderr  io.Writer
}

// SetStdin sets the stdin reader for the command.
func (c *editCommand) SetStdin(r io.Reader) { c.stdin = r }

// SetStdout sets the stdout writer for the command.
func (c *editCommand) SetStdout(w io.Writer) { c.stdout = w }

// SetStderr sets the stderr writer for the command.
func (c *editCommand) SetStderr(w io.Writer) { c.stderr = w }

// Run executes the edit-read-retry loop. If the user declines to re-edit
// after a read error, it returns [ErrEditDeclined].
func (c *editCommand) Run() error {
	ctx := c.ctxFunc()

	var buf bytes.Buffer

	buf.WriteString("; Edit the session bindings. Saving replaces them all;\n")
	buf.WriteString("; a file without forms cancels.\n")

	if len(c.kept) > 0 {
		names := make([]lang.Symbol, len(c.kept))
		for i, b := range c.kept {
			names[i] = b.name
		}

		buf.WriteString("; Closures with a captured scope are not shown and are kept\n")
		buf.WriteString("; unless redefined here: " + joinSymbols(names) + "\n")
	}

	buf.WriteByte('\n')

	if err := lang.Format(ctx, &buf, c.forms, editIndent); err != nil {
		return fmt.Errorf("format bindings: %w", err)
	}

	f, err := os.CreateTemp("", "tlisp-repl-*.tl")
	if err != nil {
		return err
	}

	tmpPath := f.Name()

	defer os.Remove(tmpPath)

	if err := f.Close(); err != nil {
		return err
	}

	content := buf.Bytes()
	prompt := bufio.NewScanner(c.stdin)

	for {
		if err := os.WriteFile(tmpPath, content, 0o600); err != nil {
			return err
		}

		data, err := runEditor(ctx, c.stdin, c.stdout, c.stderr, tmpPath)
		if err != nil {
			return err
		}

		forms, readErr := lang.Read(string(data))

		c.logger.TraceContext(
			ctx,
			"editor read attempt",
			slog.Int("content_length", len(data)),
			slog.Int("forms", len(forms)),
			slog.Bool("success", readErr == nil),
		)

		if readErr == nil {
			if len(forms) > 0 {
				c.edited = forms
			}

			return nil
		}

		fmt.Fprintf(c.stderr, "\n%s\n", lang.WrapError(readErr).Report())
		fmt.Fprint(c.stdout, "Re-edit? [Y/n] ")

		if !prompt.Scan() {
			return ErrEditDeclined
		}

		switch strings.TrimSpace(strings.ToLower(prompt.Text())) {
		case "n", "no":
			return ErrEditDeclined
		}

		content = data
	}
}

// runEditor launches the user's editor on the given file path and returns
// the edited file content.
func runEditor(
	ctx context.Context,
	stdin io.Reader,
	stdout io.Writer,
	stderr io.Writer,
	path string,
) ([]byte, error) {
	// EDITOR may carry arguments, such as "code --wait".
	args := strings.Fields(os.Getenv("EDITOR"))
	if len(args) == 0 {
		args = []string{defaultEditor}
	}

	cmd := exec.CommandContext(ctx, args[0], append(args[1:], path)...)
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	if err := cmd.Run(); err != nil {
		return nil, ErrEditorFailed.Wrapf("%s: %w", args[0], err)
	}

	return os.ReadFile(path)
}
