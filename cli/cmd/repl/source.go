package repl

import (
	"strings"

	"github.com/ardnew/tlisp/lang"
)

// previewWidth is the widest value preview shown by the list command.
const previewWidth = 40

// binding is a name bound in the root environment by the user.
type binding struct {
	name  lang.Symbol
	value lang.Value
}

// userBindings returns the root bindings that were not installed by the
// interpreter itself, sorted by name.
func userBindings(env *lang.Env) []binding {
	var out []binding

	for _, name := range env.Bindings() {
		v, _ := env.Local(name)

		switch x := v.(type) {
		case *lang.Builtin:
			if x.Name == name {
				continue
			}

		case *lang.Error, nil:
			continue
		}

		out = append(out, binding{name: name, value: v})
	}

	return out
}

// captured reports whether b is a closure created inside a local scope. The
// bindings it captured have no source form, so it is carried across an edit
// instead of being written to the editor.
func (b binding) captured(root *lang.Env) bool {
	c, ok := b.value.(*lang.Closure)

	return ok && c.Env != root
}

// partition splits bindings into those rendered for editing and the
// captured closures kept as they are.
func partition(bindings []binding, root *lang.Env) (editable, kept []binding) {
	for _, b := range bindings {
		if b.captured(root) {
			kept = append(kept, b)
		} else {
			editable = append(editable, b)
		}
	}

	return editable, kept
}

// restore binds the kept closures in root once the edited forms have been
// evaluated, skipping any name the edit bound itself. Their captured scopes
// are moved from the discarded root old onto root. It returns the names it
// restored.
func restore(kept []binding, old, root *lang.Env) []lang.Symbol {
	var names []lang.Symbol

	for _, b := range kept {
		if _, ok := root.Local(b.name); ok {
			continue
		}

		if c, ok := b.value.(*lang.Closure); ok {
			c.Env.Reroot(old, root)
		}

		root.Define(b.name, b.value)
		names = append(names, b.name)
	}

	return names
}

// bindingForms renders bindings as the forms that recreate them.
func bindingForms(bindings []binding) []lang.Value {
	forms := make([]lang.Value, 0, len(bindings))

	for _, b := range bindings {
		forms = append(forms, bindingForm(b))
	}

	return forms
}

func bindingForm(b binding) lang.Value {
	define := lang.Symbol(lang.FormDefine.String())

	switch v := b.value.(type) {
	case *lang.Closure:
		params := make(lang.List, len(v.Params))
		for i, p := range v.Params {
			params[i] = p
		}

		if v.Name == b.name {
			return lang.List{lang.Symbol(lang.FormDefun.String()), b.name, params, v.Body}
		}

		return lang.List{define, b.name,
			lang.List{lang.Symbol(lang.FormLambda.String()), params, v.Body}}

	case *lang.Builtin:
		return lang.List{define, b.name, v.Name}

	case lang.List, lang.Symbol:
		return lang.List{define, b.name, lang.List{lang.Symbol(lang.FormQuote.String()), v}}

	default:
		return lang.List{define, b.name, v}
	}
}

func joinSymbols(names []lang.Symbol) string {
	s := make([]string, len(names))
	for i, n := range names {
		s[i] = string(n)
	}

	return strings.Join(s, " ")
}

// preview returns a short rendering of a bound value.
func preview(v lang.Value) string {
	s := lang.Signature(v)
	if s == "" {
		s = v.String()
	}

	if r := []rune(s); len(r) > previewWidth {
		return string(r[:previewWidth-3]) + "..."
	}

	return s
}
