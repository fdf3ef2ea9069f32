package lang

import (
	"maps"
	"slices"
	"strings"
)

// Env is one frame of the lexical scope chain: a mapping from Symbol to
// Value plus an optional parent. Lookup walks the chain outward and the
// first binding found wins. Definitions always write into the receiver
// frame, never into an ancestor.
//
// Frames are shared by reference. Every closure created in a frame keeps it
// alive, and a definition made after capture is visible to all of them.
type Env struct {
	vars   map[Symbol]Value
	parent *Env
}

// NewEnv returns an empty frame whose parent is parent (nil for a root).
func NewEnv(parent *Env) *Env {
	return &Env{vars: make(map[Symbol]Value), parent: parent}
}

// Parent returns the enclosing frame, or nil for a root frame.
func (e *Env) Parent() *Env { return e.parent }

// Reroot makes root the outermost ancestor of e in place of old. It reports
// false and changes nothing when old is not a proper ancestor of e. Frames
// are changed in place, so every closure sharing them sees the new root;
// this is how captured scopes survive [Interp.Reset].
func (e *Env) Reroot(old, root *Env) bool {
	for f := e; f != nil && f != old; f = f.parent {
		if f.parent == old {
			f.parent = root

			return true
		}
	}

	return false
}

// Define binds name to v in this frame, replacing any binding in this frame.
func (e *Env) Define(name Symbol, v Value) { e.vars[name] = v }

// Lookup resolves name from this frame outward.
func (e *Env) Lookup(name Symbol) (Value, bool) {
	for f := e; f != nil; f = f.parent {
		if v, ok := f.vars[name]; ok {
			return v, true
		}
	}

	return nil, false
}

// Local resolves name in this frame only.
func (e *Env) Local(name Symbol) (Value, bool) {
	v, ok := e.vars[name]

	return v, ok
}

// Names returns every name visible from this frame, sorted and without
// duplicates.
func (e *Env) Names() []Symbol {
	seen := make(map[Symbol]struct{})

	for f := e; f != nil; f = f.parent {
		for k := range f.vars {
			seen[k] = struct{}{}
		}
	}

	return slices.Sorted(maps.Keys(seen))
}

// Bindings returns the names bound in this frame, sorted.
func (e *Env) Bindings() []Symbol {
	return slices.Sorted(maps.Keys(e.vars))
}

// Len returns the number of bindings in this frame.
func (e *Env) Len() int { return len(e.vars) }

// Snapshot renders the bindings of this frame as "{ name: value, ... }".
// Builtins are omitted; an empty frame renders as "{ }".
func (e *Env) Snapshot() string {
	if e == nil {
		return "{ }"
	}

	var sb strings.Builder

	sb.WriteString("{ ")

	n := 0

	for _, k := range e.Bindings() {
		v := e.vars[k]
		if _, ok := v.(*Builtin); ok {
			continue
		}

		if n > 0 {
			sb.WriteString(", ")
		}

		sb.WriteString(string(k))
		sb.WriteString(": ")
		sb.WriteString(v.String())

		n++
	}

	if n > 0 {
		sb.WriteByte(' ')
	}

	sb.WriteByte('}')

	return sb.String()
}
