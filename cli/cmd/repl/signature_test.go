package repl

import (
	"slices"
	"testing"
)

func TestDetectFunctionCall(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		wantName   string
		wantIndex  int
		wantInCall bool
		wantInText bool
	}{
		{"no_call", "x", "", 0, false, false},
		{"empty_list", "(", "", -1, true, false},
		{"on_operator", "(add", "add", -1, true, false},
		{"first_arg_empty", "(add ", "add", 0, true, false},
		{"first_arg", "(add 1", "add", 0, true, false},
		{"second_arg_empty", "(add 1 ", "add", 1, true, false},
		{"after_nested", "(add (mul 2 3) ", "add", 1, true, false},
		{"inside_nested", "(add (mul ", "mul", 0, true, false},
		{"closed_call", "(add 1) ", "", 0, false, false},
		{"paren_in_text", `(print "a (b" `, "print", 1, true, false},
		{"in_text", `(print "ab`, "print", 0, true, true},
		{"comment", "(add ; (x\n 1", "add", 0, true, false},
		{"quoted_list", "(for x '(1 2) ", "for", 2, true, false},
		{"list_operator", "((lambda (x) x) ", "", 0, true, false},
		{"second_line", "(define x\n  ", "define", 1, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := detectFunctionCall(tt.input, len(tt.input))

			if got.name != tt.wantName {
				t.Errorf("name = %q, want %q", got.name, tt.wantName)
			}

			if got.argIndex != tt.wantIndex {
				t.Errorf("argIndex = %d, want %d", got.argIndex, tt.wantIndex)
			}

			if got.inCall != tt.wantInCall {
				t.Errorf("inCall = %v, want %v", got.inCall, tt.wantInCall)
			}

			if got.inText != tt.wantInText {
				t.Errorf("inText = %v, want %v", got.inText, tt.wantInText)
			}
		})
	}
}

func TestDetectFunctionCall_Cursor(t *testing.T) {
	input := "(add (mul 2 3) 4)"

	if got := detectFunctionCall(input, 10); got.name != "mul" || got.argIndex != 0 {
		t.Errorf("at 10 = %+v, want mul arg 0", got)
	}

	if got := detectFunctionCall(input, 16); got.name != "add" || got.argIndex != 1 {
		t.Errorf("at 16 = %+v, want add arg 1", got)
	}

	if got := detectFunctionCall(input, 100); got.inCall {
		t.Errorf("past end = %+v, want outside any call", got)
	}
}

func TestSplitItems(t *testing.T) {
	tests := []struct {
		seg          string
		want         []string
		wantTouching bool
	}{
		{"", nil, false},
		{"a b", []string{"a", "b"}, true},
		{"a b ", []string{"a", "b"}, false},
		{`f "x y" (1 (2)) 'z`, []string{"f", `"x y"`, "(1 (2))", "'z"}, true},
		{"f ; note\n g", []string{"f", "g"}, true},
		{`f "open`, []string{"f", `"open`}, true},
	}

	for _, tt := range tests {
		items, touching := splitItems(tt.seg)
		if !slices.Equal(items, tt.want) || touching != tt.wantTouching {
			t.Errorf("splitItems(%q) = %q, %v, want %q, %v",
				tt.seg, items, touching, tt.want, tt.wantTouching)
		}
	}
}

func TestGetSignature(t *testing.T) {
	m := testModel(t)

	if _, err := m.in.EvalString(t.Context(), `
		(defun sq (n) (* n n))
		(define answer 42)
	`); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		want   []string
		wantOK bool
	}{
		{"if", []string{"cond", "then", "[else]"}, true},
		{"for", []string{"name", "list", "...body"}, true},
		{"first", []string{"list"}, true},
		{"+", []string{"...xs"}, true},
		{"sq", []string{"n"}, true},
		{"answer", nil, false},
		{"missing", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := getSignature(m.in, tt.name)
			if ok != tt.wantOK || !slices.Equal(got, tt.want) {
				t.Errorf("getSignature(%q) = %q, %v, want %q, %v",
					tt.name, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestRenderSignatureHint(t *testing.T) {
	tests := []struct {
		name     string
		params   []string
		argIndex int
	}{
		{"first", []string{"list"}, 0},
		{"+", []string{"...xs"}, 4},
		{"if", []string{"cond", "then", "[else]"}, -1},
		{"now", nil, 0},
	}

	want := []string{
		"(first list)",
		"(+ ...xs)",
		"(if cond then [else])",
		"(now)",
	}

	for i, tt := range tests {
		got := stripANSI(renderSignatureHint(tt.name, tt.params, tt.argIndex))
		if got != want[i] {
			t.Errorf("renderSignatureHint(%q) = %q, want %q", tt.name, got, want[i])
		}
	}
}
