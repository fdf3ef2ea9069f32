package repl

import (
	"strings"
	"testing"

	"github.com/ardnew/tlisp/lang"
)

func TestUserBindings(t *testing.T) {
	m := testModel(t)

	if _, err := m.in.EvalString(t.Context(), `
		(define zed "last")
		(define add +)
		(defun sq (n) (* n n))
		(define xs '(1 2))
	`); err != nil {
		t.Fatal(err)
	}

	got := userBindings(m.in.Root())

	var names []string
	for _, b := range got {
		names = append(names, string(b.name))
	}

	if want := "add sq xs zed"; strings.Join(names, " ") != want {
		t.Errorf("userBindings = %v, want %s", names, want)
	}
}

func TestBindingForms_Recreate(t *testing.T) {
	src := `
		(define n 2.5)
		(define s "text")
		(define sym 'abc)
		(define xs '(1 (2 3)))
		(define plus +)
		(defun sq (x) (* x x))
		(define twice (lambda (x) (* 2 x)))
		(define alias sq)
	`

	m := testModel(t)
	if _, err := m.in.EvalString(t.Context(), src); err != nil {
		t.Fatal(err)
	}

	forms := bindingForms(userBindings(m.in.Root()))

	var b strings.Builder
	if err := lang.Format(t.Context(), &b, forms, 0); err != nil {
		t.Fatal(err)
	}

	text := b.String()
	for _, want := range []string{
		"(define n 2.5)",
		`(define s "text")`,
		"(define sym (quote abc))",
		"(define xs (quote (1 (2 3))))",
		"(define plus +)",
		"(defun sq (x) (* x x))",
		"(define twice (lambda (x) (* 2 x)))",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("forms missing %s:\n%s", want, text)
		}
	}

	// Evaluating the forms in a fresh session restores the bindings.
	fresh := testModel(t)
	for _, form := range forms {
		if _, err := fresh.in.Eval(t.Context(), form, fresh.in.Root()); err != nil {
			t.Fatalf("eval %s: %v", form, err)
		}
	}

	for expr, want := range map[string]lang.Value{
		"(sq 3)":     lang.Int(9),
		"(twice 4)":  lang.Int(8),
		"(plus 1 2)": lang.Int(3),
		"(first xs)": lang.Int(1),
		"sym":        lang.Symbol("abc"),
		"(alias 5)":  lang.Int(25),
		"(len s)":    lang.Int(4),
	} {
		got, err := fresh.in.EvalString(t.Context(), expr)
		if err != nil || !lang.Equal(got, want) {
			t.Errorf("%s = %v, %v, want %s", expr, got, err, want)
		}
	}
}

func TestPreview(t *testing.T) {
	m := testModel(t)

	first, _ := m.in.Lookup("first")

	tests := []struct {
		v    lang.Value
		want string
	}{
		{lang.Int(7), "7"},
		{lang.Text("hi"), `"hi"`},
		{first, "(first list)"},
		{&lang.Closure{Params: []lang.Symbol{"a", "b"}}, "(lambda a b)"},
		{lang.Text(strings.Repeat("x", 60)), `"` + strings.Repeat("x", 36) + "..."},
	}

	for _, tt := range tests {
		if got := preview(tt.v); got != tt.want {
			t.Errorf("preview(%v) = %q, want %q", tt.v, got, tt.want)
		}
	}
}

func TestEdit_KeepsCapturedClosures(t *testing.T) {
	m := testModel(t)

	if _, err := m.in.EvalString(t.Context(), `
		(define base 1)
		(define f (scope (define k 10) (lambda (n) (+ n (+ k base)))))
		(define g (scope (define k 20) (lambda (n) (+ n k))))
	`); err != nil {
		t.Fatal(err)
	}

	root := m.in.Root()
	editable, kept := partition(userBindings(root), root)

	if len(editable) != 1 || editable[0].name != "base" {
		t.Errorf("editable = %v, want [base]", editable)
	}

	if len(kept) != 2 || kept[0].name != "f" || kept[1].name != "g" {
		t.Fatalf("kept = %v, want [f g]", kept)
	}

	// The edit changes base and redefines g. f keeps its k and sees the new
	// base through the new root.
	forms, err := lang.Read("(define base 100) (define g (lambda (n) n))")
	if err != nil {
		t.Fatal(err)
	}

	next, _ := m.Update(editMsg{forms: forms, kept: kept, root: root})
	m = next.(model)

	for src, want := range map[string]lang.Value{
		"(f 1)": lang.Int(111),
		"(g 1)": lang.Int(1),
	} {
		v, err := m.in.EvalString(t.Context(), src)
		if err != nil {
			t.Errorf("%s: %v", src, err)

			continue
		}

		if !lang.Equal(v, want) {
			t.Errorf("%s = %s, want %s", src, v, want)
		}
	}
}
