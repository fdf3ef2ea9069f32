package repl

import (
	"bytes"
	"testing"

	"github.com/ardnew/tlisp/host"
	"github.com/ardnew/tlisp/lang"
)

// BenchmarkDetectFunctionCall benchmarks call detection over a multi-line
// form with nested lists, text and comments.
func BenchmarkDetectFunctionCall(b *testing.B) {
	input := "(defun fact (n) ; recursive\n" +
		"  (if (<= n 1) \"(base)\" (* n (fact (- n 1) " +
		"(filter (lambda (x) (> x 0)) '(1 2 3))"

	for i := 0; i < b.N; i++ {
		_ = detectFunctionCall(input, len(input))
	}
}

// BenchmarkGetSignature_Form benchmarks lookup of a special form signature.
func BenchmarkGetSignature_Form(b *testing.B) {
	in := lang.New(lang.WithOutput(&bytes.Buffer{}))

	for i := 0; i < b.N; i++ {
		_, _ = getSignature(in, "defun")
	}
}

// BenchmarkGetSignature_HostBuiltin benchmarks lookup of a builtin bound in
// the root environment.
func BenchmarkGetSignature_HostBuiltin(b *testing.B) {
	in := lang.New(
		lang.WithOutput(&bytes.Buffer{}),
		lang.WithBuiltins(host.Builtins()...),
	)

	for i := 0; i < b.N; i++ {
		_, _ = getSignature(in, "path-prefix-if")
	}
}

// BenchmarkSymbolCandidates benchmarks collecting completion candidates.
func BenchmarkSymbolCandidates(b *testing.B) {
	in := lang.New(
		lang.WithOutput(&bytes.Buffer{}),
		lang.WithBuiltins(host.Builtins()...),
	)

	for i := 0; i < b.N; i++ {
		_ = symbolCandidates(in)
	}
}
