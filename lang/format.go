package lang

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/goccy/go-yaml"
)

// lineWidth is the widest list Format keeps on a single line.
const lineWidth = 72

// Format writes data as S-expressions. With indent zero every top-level form
// is written on one line; otherwise lists wider than the line are broken
// with each element on its own line, indented by indent spaces per level.
func Format(_ context.Context, w io.Writer, data []Value, indent int) error {
	for i, v := range data {
		if i > 0 && indent > 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}

		var sb strings.Builder

		formatValue(&sb, v, indent, 0)

		if _, err := fmt.Fprintln(w, sb.String()); err != nil {
			return err
		}
	}

	return nil
}

func formatValue(sb *strings.Builder, v Value, indent, depth int) {
	l, ok := v.(List)
	if !ok || indent == 0 || len(l) == 0 ||
		depth*indent+len(l.String()) <= lineWidth {
		sb.WriteString(v.String())

		return
	}

	sb.WriteByte('(')
	formatValue(sb, l[0], indent, depth+1)

	pad := strings.Repeat(" ", (depth+1)*indent)

	for _, e := range l[1:] {
		sb.WriteByte('\n')
		sb.WriteString(pad)
		formatValue(sb, e, indent, depth+1)
	}

	sb.WriteByte(')')
}

// FormatJSON writes data as a JSON array of native values (see [ToNative]).
func FormatJSON(_ context.Context, w io.Writer, data []Value, indent int) error {
	var (
		jsonData []byte
		err      error
	)

	native := nativeSlice(data)

	if indent > 0 {
		jsonData, err = json.MarshalIndent(native, "", strings.Repeat(" ", indent))
	} else {
		jsonData, err = json.Marshal(native)
	}

	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(w, string(jsonData))

	return err
}

// FormatYAML writes data as a YAML sequence of native values.
func FormatYAML(ctx context.Context, w io.Writer, data []Value, indent int) error {
	var opts []yaml.EncodeOption
	if indent > 0 {
		opts = append(opts, yaml.Indent(indent))
	} else {
		opts = append(opts, yaml.Flow(true))
	}

	yamlData, err := yaml.MarshalContext(ctx, nativeSlice(data), opts...)
	if err != nil {
		return err
	}

	_, err = fmt.Fprint(w, string(yamlData))

	return err
}

// FormatAST writes a typed tree dump of data, one node per line.
func FormatAST(_ context.Context, w io.Writer, data []Value, indent int) error {
	if indent <= 0 {
		indent = 2
	}

	var sb strings.Builder

	for _, v := range data {
		dumpValue(&sb, v, indent, 0)
	}

	_, err := io.WriteString(w, sb.String())

	return err
}

func dumpValue(sb *strings.Builder, v Value, indent, depth int) {
	sb.WriteString(strings.Repeat(" ", depth*indent))
	sb.WriteString(v.Type().String())

	if l, ok := v.(List); ok {
		sb.WriteString(" [" + strconv.Itoa(len(l)) + "]\n")

		for _, e := range l {
			dumpValue(sb, e, indent, depth+1)
		}

		return
	}

	sb.WriteString(" " + v.String() + "\n")
}

func nativeSlice(data []Value) []any {
	out := make([]any, len(data))
	for i, v := range data {
		out[i] = ToNative(v)
	}

	return out
}

// ToNative converts v into plain Go data: Numbers become int, float64 or,
// for integers beyond int, their decimal string; Text and Symbol become
// string; Lists become []any. Function and error values become their
// printed representation.
func ToNative(v Value) any {
	switch x := v.(type) {
	case Number:
		if i, ok := x.Int(); ok {
			return i
		}

		if x.IsInteger() {
			return x.String()
		}

		return x.Float64()

	case Text:
		return string(x)

	case Symbol:
		return string(x)

	case List:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = ToNative(e)
		}

		return out

	case nil:
		return nil

	default:
		return v.String()
	}
}

// FromNative converts plain Go data into a Value. Maps become lists of
// (key value) pairs sorted by key; booleans become 1 or 0; values of any
// other type become their fmt rendering as Text.
func FromNative(x any) Value {
	switch y := x.(type) {
	case nil:
		return Nil
	case Value:
		return y
	case bool:
		return Bool(y)
	case int:
		return Int(int64(y))
	case int64:
		return Int(y)
	case uint:
		return Uint(uint64(y))
	case uint64:
		return Uint(y)
	case float64:
		return Float(y)
	case float32:
		return Float(float64(y))
	case string:
		return Text(y)
	case []any:
		out := make(List, len(y))
		for i, e := range y {
			out[i] = FromNative(e)
		}

		return out
	case []string:
		out := make(List, len(y))
		for i, e := range y {
			out[i] = Text(e)
		}

		return out
	case map[string]any:
		out := make(List, 0, len(y))
		for _, k := range slices.Sorted(maps.Keys(y)) {
			out = append(out, List{Text(k), FromNative(y[k])})
		}

		return out
	default:
		return Text(fmt.Sprint(x))
	}
}
