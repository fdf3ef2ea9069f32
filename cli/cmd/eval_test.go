package cmd

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/ardnew/tlisp/lang"
	"github.com/ardnew/tlisp/pkg"
)

func TestEvalExprs(t *testing.T) {
	tests := []struct {
		name    string
		exprs   []string
		want    []string
		wantErr bool
	}{
		{
			name:  "single",
			exprs: []string{"(+ 1 2)"},
			want:  []string{"=> 3"},
		},
		{
			name:  "several_forms_per_argument",
			exprs: []string{"(define x 5) (* x 2)", "x"},
			want:  []string{"=> 5", "=> 10", "=> 5"},
		},
		{
			name:  "print_then_result",
			exprs: []string{`(print "hi")`},
			want:  []string{"hi", `=> "hi"`},
		},
		{
			name:    "error_continues",
			exprs:   []string{"(first '())", "(+ 1 1)"},
			want:    []string{"error: the expression (first (quote ())) failed", "=> 2"},
			wantErr: true,
		},
		{
			name:    "read_error_after_complete_forms",
			exprs:   []string{"1 (+ 1"},
			want:    []string{"=> 1", "error: unmatched '('"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer

			in := lang.New(lang.WithOutput(&out))
			e := &Eval{Exprs: tt.exprs}

			err := e.run(t.Context(), in, strings.NewReader(""))
			if (err != nil) != tt.wantErr {
				t.Fatalf("run() error = %v, wantErr %v", err, tt.wantErr)
			}

			if err != nil && !errors.Is(err, pkg.ErrEvaluate) {
				t.Errorf("run() error = %v, want %v", err, pkg.ErrEvaluate)
			}

			lines := strings.Split(strings.TrimSuffix(out.String(), "\n"), "\n")
			if len(lines) != len(tt.want) {
				t.Fatalf("output lines = %q, want %d lines", lines, len(tt.want))
			}

			for i, want := range tt.want {
				if !strings.HasPrefix(lines[i], want) {
					t.Errorf("line %d = %q, want prefix %q", i, lines[i], want)
				}
			}
		})
	}
}

func TestEvalStdinSession(t *testing.T) {
	var out bytes.Buffer

	in := lang.New(lang.WithOutput(&out))
	e := &Eval{}

	err := e.run(t.Context(), in, strings.NewReader("(define x 2)\n(* x x)\n"))
	if err != nil {
		t.Fatalf("run() error = %v", err)
	}

	if out.String() != "=> 2\n=> 4\n" {
		t.Errorf("output = %q", out.String())
	}

	out.Reset()

	err = e.run(t.Context(), in, strings.NewReader("(undefined) x (+ x"))
	if !errors.Is(err, pkg.ErrEvaluate) {
		t.Fatalf("run() error = %v, want %v", err, pkg.ErrEvaluate)
	}

	if !strings.Contains(err.Error(), "2 forms failed") {
		t.Errorf("run() error = %q, want failure count", err.Error())
	}

	lines := strings.Split(strings.TrimSuffix(out.String(), "\n"), "\n")
	if len(lines) != 3 || lines[1] != "=> 2" || !strings.HasPrefix(lines[2], "error: unmatched") {
		t.Errorf("output = %q", lines)
	}
}

func TestEvalUsesSharedEnvironment(t *testing.T) {
	var out bytes.Buffer

	in := lang.New(lang.WithOutput(&out))
	in.Define("preloaded", lang.Int(7))

	e := &Eval{Exprs: []string{"(+ preloaded 1)"}}
	if err := e.run(t.Context(), in, nil); err != nil {
		t.Fatal(err)
	}

	if out.String() != "=> 8\n" {
		t.Errorf("output = %q, want => 8", out.String())
	}
}
