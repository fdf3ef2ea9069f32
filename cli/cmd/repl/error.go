package repl

import "github.com/ardnew/tlisp/pkg"

// Errors reported by the REPL session. Each is a [pkg.Error] chain, so a
// wrapped copy carrying details still matches its sentinel under errors.Is.
var (
	// ErrHistoryIndex is returned by [History.Entry] for an index outside
	// the recorded history.
	ErrHistoryIndex = pkg.MakeErrorf("history index out of range")

	// ErrEditDeclined is returned by the binding editor when the user chooses
	// not to re-edit a buffer that failed to read.
	ErrEditDeclined = pkg.MakeErrorf("binding edit declined")

	// ErrEditorFailed wraps the failure of the external $EDITOR process.
	ErrEditorFailed = pkg.MakeErrorf("editor failed")
)
