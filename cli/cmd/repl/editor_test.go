package repl

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/ardnew/tlisp/lang"
	"github.com/ardnew/tlisp/log"
)

// fakeEditor installs a shell script as $EDITOR that runs body with the file
// path in $1.
func fakeEditor(t *testing.T, body string) {
	t.Helper()

	if runtime.GOOS == "windows" {
		t.Skip("shell script editor unsupported")
	}

	script := filepath.Join(t.TempDir(), "editor.sh")
	if err := os.WriteFile(script, []byte("#!/bin/sh\n"+body+"\n"), 0o700); err != nil {
		t.Fatal(err)
	}

	t.Setenv("EDITOR", script)
}

func runEdit(t *testing.T, forms []lang.Value, stdin string) (*editCommand, string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer

	c := &editCommand{
		forms:   forms,
		ctxFunc: t.Context,
		logger:  log.Default(),
	}
	c.SetStdin(strings.NewReader(stdin))
	c.SetStdout(&stdout)
	c.SetStderr(&stderr)

	err := c.Run()

	return c, stdout.String() + stderr.String(), err
}

func TestEditCommand_Unchanged(t *testing.T) {
	fakeEditor(t, "exit 0")

	forms, err := lang.Read(`(define x 1) (defun sq (n) (* n n))`)
	if err != nil {
		t.Fatal(err)
	}

	c, _, err := runEdit(t, forms, "")
	if err != nil {
		t.Fatalf("Run() = %v", err)
	}

	if len(c.edited) != len(forms) {
		t.Fatalf("edited %d forms, want %d", len(c.edited), len(forms))
	}

	for i := range forms {
		if !lang.Equal(c.edited[i], forms[i]) {
			t.Errorf("form %d = %s, want %s", i, c.edited[i], forms[i])
		}
	}
}

func TestEditCommand_Replaced(t *testing.T) {
	fakeEditor(t, `printf '(define y 2)\n' > "$1"`)

	c, _, err := runEdit(t, nil, "")
	if err != nil {
		t.Fatalf("Run() = %v", err)
	}

	want := lang.List{lang.Symbol("define"), lang.Symbol("y"), lang.Int(2)}
	if len(c.edited) != 1 || !lang.Equal(c.edited[0], want) {
		t.Errorf("edited = %v, want [%s]", c.edited, want)
	}
}

func TestEditCommand_Cleared(t *testing.T) {
	fakeEditor(t, `printf '; nothing\n' > "$1"`)

	c, _, err := runEdit(t, []lang.Value{lang.Int(1)}, "")
	if err != nil {
		t.Fatalf("Run() = %v", err)
	}

	if c.edited != nil {
		t.Errorf("edited = %v, want nil", c.edited)
	}
}

func TestEditCommand_ReadErrorDeclined(t *testing.T) {
	fakeEditor(t, `printf '(define y' > "$1"`)

	for _, stdin := range []string{"n\n", "no\n", ""} {
		_, out, err := runEdit(t, nil, stdin)
		if !errors.Is(err, ErrEditDeclined) {
			t.Errorf("stdin %q: Run() = %v, want ErrEditDeclined", stdin, err)
		}

		if !strings.Contains(out, "Re-edit?") {
			t.Errorf("stdin %q: output %q missing prompt", stdin, out)
		}
	}
}

func TestEditCommand_ReadErrorRetried(t *testing.T) {
	// The first run leaves an unclosed list; the second fixes it.
	marker := filepath.Join(t.TempDir(), "ran")
	fakeEditor(t, `if [ -e "`+marker+`" ]; then printf '(define y 3)' > "$1"; `+
		`else : > "`+marker+`"; printf '(define y' > "$1"; fi`)

	c, _, err := runEdit(t, nil, "y\n")
	if err != nil {
		t.Fatalf("Run() = %v", err)
	}

	want := lang.List{lang.Symbol("define"), lang.Symbol("y"), lang.Int(3)}
	if len(c.edited) != 1 || !lang.Equal(c.edited[0], want) {
		t.Errorf("edited = %v, want [%s]", c.edited, want)
	}
}

func TestEditCommand_EditorFails(t *testing.T) {
	fakeEditor(t, "exit 3")

	_, _, err := runEdit(t, nil, "")
	if !errors.Is(err, ErrEditorFailed) || errors.Is(err, ErrEditDeclined) {
		t.Errorf("Run() = %v, want ErrEditorFailed", err)
	}
}
