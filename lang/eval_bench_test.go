package lang

import (
	"bytes"
	"testing"
)

// BenchmarkEval benchmarks evaluation of representative programs.
func BenchmarkEval(b *testing.B) {
	tests := []struct {
		name    string
		prelude string
		expr    string
	}{
		{
			name:    "arithmetic",
			prelude: "(define x 10) (define y 20)",
			expr:    "(+ (* x y) (- y x) (/ y 2))",
		},
		{
			name:    "factorial",
			prelude: "(defun fact (n) (if (<= n 1) 1 (* n (fact (- n 1)))))",
			expr:    "(fact 20)",
		},
		{
			name:    "fibonacci",
			prelude: "(defun fib (n) (if (< n 2) n (+ (fib (- n 1)) (fib (- n 2)))))",
			expr:    "(fib 15)",
		},
		{
			name: "quicksort",
			prelude: `(defun qs (xs)
				(if (= (len xs) 0) xs
					(+ (qs (filter (lambda (x) (< x (first xs))) (tail xs)))
					   (list (first xs))
					   (qs (filter (lambda (x) (>= x (first xs))) (tail xs))))))`,
			expr: "(qs '(5 3 9 1 7 2 8 6 4 0))",
		},
		{
			name:    "for",
			prelude: "",
			expr:    "(for x '(1 2 3 4 5 6 7 8 9 10) (* x x))",
		},
	}

	for _, tt := range tests {
		b.Run(tt.name, func(b *testing.B) {
			in := New(WithOutput(&bytes.Buffer{}))

			if _, err := in.EvalString(b.Context(), tt.prelude); err != nil {
				b.Fatalf("prelude error: %v", err)
			}

			expr, err := ReadOne(tt.expr)
			if err != nil {
				b.Fatalf("read error: %v", err)
			}

			b.ReportAllocs()

			for b.Loop() {
				if _, err := in.Eval(b.Context(), expr, nil); err != nil {
					b.Fatalf("eval error: %v", err)
				}
			}
		})
	}
}

// BenchmarkRead benchmarks the reader on a nested program.
func BenchmarkRead(b *testing.B) {
	const src = `(defun qs (xs) (if (= (len xs) 0) xs (+ (qs (filter (lambda (x) (< x (first xs))) (tail xs))) (list (first xs)) (qs (filter (lambda (x) (>= x (first xs))) (tail xs))))))`

	b.ReportAllocs()

	for b.Loop() {
		if _, err := Read(src); err != nil {
			b.Fatal(err)
		}
	}
}
