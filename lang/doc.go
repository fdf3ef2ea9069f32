// Package lang implements tlisp, a small embeddable S-expression language:
// a reader that turns text into symbolic data and a tree-walking evaluator
// that interprets that data as code under lexical scoping.
//
// # Syntax
//
// Atoms are separated by whitespace and parentheses. A token that parses as
// a number is a [Number]; a span delimited by double quotes is [Text]; any
// other token is a [Symbol]. Parentheses delimit a [List]. The quote marker
// is sugar applied by the reader, so 'x reads as (quote x). A semicolon
// starts a comment that runs to the end of the line.
//
//	; factorial
//	(defun fact (n)
//	  (if (<= n 1) 1 (* n (fact (- n 1)))))
//	(fact 20)                            ; => 2432902008176640000
//	(filter (lambda (n) (> n 2)) '(1 2 3 4)) ; => (3 4)
//
// # Evaluation
//
// Numbers, Text and the empty list evaluate to themselves. A symbol
// evaluates to its binding in the current [Env]; an unbound symbol is a
// lookup error. A non-empty list whose head names a special form is
// dispatched to that form with its arguments unevaluated. Any other list is
// an application: the head and then each argument are evaluated left to
// right, and the head must yield a [*Closure] or [*Builtin].
//
// Special forms:
//
//	(if cond then [else])    (do body...)        (scope body...)
//	(defun name params body) (define name value) (lambda params body)
//	(quote datum)            (for name list body...)
//	(while cond body...)
//
// There is no boolean type. Zero and the empty list are false; every other
// value is true. Predicates return 1 or 0.
//
// # Scoping
//
// Environments are frames chained by parent links. define always writes to
// the innermost frame, so scope, closure application and each iteration of
// for and while get an isolated binding region. Closures capture the frame
// active where they were created and share it with every other closure
// created there.
//
// # Errors
//
// Every failure is an [*Error] with an [ErrorKind], a message, the innermost
// expression that failed and a snapshot of its scope. Errors match their
// sentinels under [errors.Is]:
//
//	_, err := in.EvalString(ctx, "fact")
//	errors.Is(err, lang.ErrNotDefined) // true
//
// Nested evaluation is bounded by [DefaultMaxDepth] (see [WithMaxDepth]);
// exceeding it is reported as [ErrMaxDepthExceeded] rather than exhausting
// the host stack.
package lang
