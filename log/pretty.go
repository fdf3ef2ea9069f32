package log

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"
)

// Attribute keys the pretty handlers know about. The interpreter logs each
// evaluation step with DepthKey and ExprKey, and its errors resolve to a
// group that starts with KindKey and may carry ErrorKey and ScopeKey.
const (
	DepthKey = "depth" // evaluation depth of a trace record
	ExprKey  = "expr"  // printed form of an expression
	KindKey  = "kind"  // error kind, first member of an error group
	ErrorKey = "error" // error message
	ScopeKey = "scope" // bindings visible where an error occurred
)

// maxIndent caps the indentation of deeply nested evaluation traces.
const maxIndent = 32

// ANSI color codes for pretty printing.
const (
	colorReset   = "\033[0m"
	colorGray    = "\033[90m"
	colorRed     = "\033[31m"
	colorGreen   = "\033[32m"
	colorYellow  = "\033[33m"
	colorBlue    = "\033[34m"
	colorMagenta = "\033[35m"
	colorCyan    = "\033[36m"
)

func paint(buf *bytes.Buffer, color, s string) {
	buf.WriteString(color)
	buf.WriteString(s)
	buf.WriteString(colorReset)
}

func levelColor(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return colorRed
	case level >= slog.LevelWarn:
		return colorYellow
	case level >= slog.LevelInfo:
		return colorGreen
	case level >= slog.LevelDebug:
		return colorBlue
	default:
		return colorMagenta
	}
}

// builtin passes a record's built-in attribute through the ReplaceAttr hook.
// It reports false when the hook drops the attribute.
func builtin(opts *slog.HandlerOptions, a slog.Attr) (slog.Attr, bool) {
	if opts.ReplaceAttr != nil {
		a = opts.ReplaceAttr(nil, a)
	}

	return a, a.Key != ""
}

// recordDepth returns the evaluation depth carried by r, or zero.
func recordDepth(r slog.Record) int {
	depth := 0

	r.Attrs(func(a slog.Attr) bool {
		if isDepth(a) {
			depth = int(a.Value.Int64())

			return false
		}

		return true
	})

	return depth
}

func isDepth(a slog.Attr) bool {
	return a.Key == DepthKey && a.Value.Kind() == slog.KindInt64
}

// isErrorGroup reports whether the members of a group are the attributes of
// an interpreter error.
func isErrorGroup(members []slog.Attr) bool {
	return len(members) > 0 && members[0].Key == KindKey
}

// prettyTextHandler implements a colorized text handler for log messages.
//
// Trace records carrying [DepthKey] are indented by depth so that nested
// evaluation reads as a tree, and error groups print as "Kind: message"
// with the failing scope on a continuation line.
type prettyTextHandler struct {
	opts   slog.HandlerOptions
	mu     *sync.Mutex
	w      io.Writer
	attrs  []slog.Attr // from WithAttrs, keys already qualified
	prefix string      // qualifies record keys, such as "eval.call."
}

func newPrettyTextHandler(
	w io.Writer,
	opts *slog.HandlerOptions,
) *prettyTextHandler {
	return &prettyTextHandler{
		opts: *opts,
		mu:   &sync.Mutex{},
		w:    w,
	}
}

func (h *prettyTextHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.opts.Level.Level()
}

func (h *prettyTextHandler) Handle(_ context.Context, r slog.Record) error {
	var (
		buf   bytes.Buffer
		notes []string
	)

	if !r.Time.IsZero() {
		if a, ok := builtin(&h.opts, slog.Time(slog.TimeKey, r.Time)); ok {
			h.writeAttr(&buf, "", a, &notes)
		}
	}

	if a, ok := builtin(&h.opts, slog.Any(slog.LevelKey, r.Level)); ok {
		separate(&buf)
		writeKey(&buf, a.Key)
		paint(&buf, levelColor(r.Level), a.Value.String())
	}

	if h.opts.AddSource {
		if src := r.Source(); src != nil {
			loc := slog.String(slog.SourceKey, fmt.Sprintf("%s:%d", src.File, src.Line))
			h.writeAttr(&buf, "", loc, &notes)
		}
	}

	depth := 0
	if h.prefix == "" {
		depth = recordDepth(r)
	}

	separate(&buf)
	buf.WriteString(strings.Repeat("  ", min(depth, maxIndent)))
	writeKey(&buf, slog.MessageKey)
	paint(&buf, colorCyan, r.Message)

	for _, a := range h.attrs {
		h.writeAttr(&buf, "", a, &notes)
	}

	r.Attrs(func(a slog.Attr) bool {
		if h.prefix != "" || !isDepth(a) {
			h.writeAttr(&buf, h.prefix, a, &notes)
		}

		return true
	})

	for _, note := range notes {
		buf.WriteString("\n    ")
		buf.WriteString(note)
	}

	buf.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()

	_, err := h.w.Write(buf.Bytes())

	return err
}

func (h *prettyTextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	c := *h
	c.attrs = make([]slog.Attr, len(h.attrs), len(h.attrs)+len(attrs))
	copy(c.attrs, h.attrs)

	for _, a := range attrs {
		c.attrs = append(c.attrs, slog.Attr{Key: h.prefix + a.Key, Value: a.Value})
	}

	return &c
}

func (h *prettyTextHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}

	c := *h
	c.prefix = h.prefix + name + "."

	return &c
}

func separate(buf *bytes.Buffer) {
	if buf.Len() > 0 {
		buf.WriteByte(' ')
	}
}

func writeKey(buf *bytes.Buffer, key string) {
	paint(buf, colorGray, key)
	buf.WriteByte('=')
}

// writeAttr writes a under the key prefix. Groups are flattened into dotted
// keys. Text that belongs below the record line is appended to notes.
func (h *prettyTextHandler) writeAttr(
	buf *bytes.Buffer,
	prefix string,
	a slog.Attr,
	notes *[]string,
) {
	a.Value = a.Value.Resolve()

	if a.Value.Kind() != slog.KindGroup {
		if a.Key == "" {
			return
		}

		separate(buf)
		writeKey(buf, prefix+a.Key)
		writeValue(buf, a.Value)

		return
	}

	members := a.Value.Group()

	if a.Key != "" && isErrorGroup(members) {
		h.writeError(buf, prefix+a.Key, members, notes)

		return
	}

	if a.Key != "" {
		prefix += a.Key + "."
	}

	for _, m := range members {
		h.writeAttr(buf, prefix, m, notes)
	}
}

// writeError writes an interpreter error group as "key=Kind: message"
// followed by its remaining members. The scope goes to notes.
func (h *prettyTextHandler) writeError(
	buf *bytes.Buffer,
	key string,
	members []slog.Attr,
	notes *[]string,
) {
	var kind, msg string

	rest := make([]slog.Attr, 0, len(members))

	for _, m := range members {
		switch m.Key {
		case KindKey:
			kind = m.Value.String()

		case ErrorKey:
			msg = m.Value.String()

		case ScopeKey:
			var note bytes.Buffer

			paint(&note, colorGray, key+"."+ScopeKey+" ")
			note.WriteString(m.Value.String())
			*notes = append(*notes, note.String())

		default:
			rest = append(rest, m)
		}
	}

	separate(buf)
	writeKey(buf, key)

	if msg != "" {
		kind += ": " + msg
	}

	paint(buf, colorRed, kind)

	for _, m := range rest {
		h.writeAttr(buf, key+".", m, notes)
	}
}

func writeValue(buf *bytes.Buffer, v slog.Value) {
	switch v.Kind() {
	case slog.KindString:
		paint(buf, colorCyan, v.String())

	case slog.KindInt64:
		paint(buf, colorYellow, strconv.FormatInt(v.Int64(), 10))

	case slog.KindUint64:
		paint(buf, colorYellow, strconv.FormatUint(v.Uint64(), 10))

	case slog.KindFloat64:
		paint(buf, colorYellow, strconv.FormatFloat(v.Float64(), 'g', -1, 64))

	case slog.KindBool:
		if v.Bool() {
			paint(buf, colorGreen, "true")
		} else {
			paint(buf, colorRed, "false")
		}

	case slog.KindDuration:
		paint(buf, colorMagenta, v.Duration().String())

	case slog.KindTime:
		paint(buf, colorBlue, v.Time().String())

	case slog.KindAny:
		if err, ok := v.Any().(error); ok {
			paint(buf, colorRed, err.Error())
		} else {
			paint(buf, colorCyan, v.String())
		}

	default:
		paint(buf, colorCyan, v.String())
	}
}

// prettyJSONHandler implements a pretty-printed JSON handler for log messages.
// Groups nest as indented objects.
type prettyJSONHandler struct {
	opts   slog.HandlerOptions
	mu     *sync.Mutex
	w      io.Writer
	attrs  []slog.Attr // from WithAttrs, already nested in groups
	groups []string
}

func newPrettyJSONHandler(
	w io.Writer,
	opts *slog.HandlerOptions,
) *prettyJSONHandler {
	return &prettyJSONHandler{
		opts: *opts,
		mu:   &sync.Mutex{},
		w:    w,
	}
}

func (h *prettyJSONHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.opts.Level.Level()
}

func (h *prettyJSONHandler) Handle(_ context.Context, r slog.Record) error {
	fields := make([]slog.Attr, 0, len(h.attrs)+r.NumAttrs()+4)

	if !r.Time.IsZero() {
		if a, ok := builtin(&h.opts, slog.Time(slog.TimeKey, r.Time)); ok {
			fields = append(fields, a)
		}
	}

	if a, ok := builtin(&h.opts, slog.Any(slog.LevelKey, r.Level)); ok {
		fields = append(fields, slog.String(a.Key, a.Value.String()))
	}

	if h.opts.AddSource {
		if src := r.Source(); src != nil {
			fields = append(fields,
				slog.String(slog.SourceKey, fmt.Sprintf("%s:%d", src.File, src.Line)))
		}
	}

	fields = append(fields, slog.String(slog.MessageKey, r.Message))
	fields = append(fields, h.attrs...)

	record := make([]slog.Attr, 0, r.NumAttrs())

	r.Attrs(func(a slog.Attr) bool {
		record = append(record, a)

		return true
	})

	fields = append(fields, h.nest(record)...)

	var buf bytes.Buffer

	writeJSONObject(&buf, fields, 0)
	buf.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()

	_, err := h.w.Write(buf.Bytes())

	return err
}

// nest wraps attrs in the handler's open groups, innermost last.
func (h *prettyJSONHandler) nest(attrs []slog.Attr) []slog.Attr {
	if len(attrs) == 0 {
		return nil
	}

	for i := len(h.groups) - 1; i >= 0; i-- {
		attrs = []slog.Attr{{Key: h.groups[i], Value: slog.GroupValue(attrs...)}}
	}

	return attrs
}

func (h *prettyJSONHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	c := *h
	c.attrs = append(h.attrs[:len(h.attrs):len(h.attrs)], h.nest(attrs)...)

	return &c
}

func (h *prettyJSONHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}

	c := *h
	c.groups = append(h.groups[:len(h.groups):len(h.groups)], name)

	return &c
}

// members resolves attrs, drops empty ones and splices the members of groups
// with an empty key into the enclosing object.
func members(attrs []slog.Attr) []slog.Attr {
	out := make([]slog.Attr, 0, len(attrs))

	for _, a := range attrs {
		a.Value = a.Value.Resolve()

		switch {
		case a.Value.Kind() == slog.KindGroup && a.Key == "":
			out = append(out, members(a.Value.Group())...)

		case a.Key != "":
			out = append(out, a)
		}
	}

	return out
}

func writeJSONObject(buf *bytes.Buffer, attrs []slog.Attr, depth int) {
	pad := strings.Repeat("  ", depth+1)

	buf.WriteString("{\n")

	for i, a := range members(attrs) {
		if i > 0 {
			buf.WriteString(",\n")
		}

		buf.WriteString(pad)
		paint(buf, colorGray, a.Key)
		buf.WriteString(": ")

		if a.Value.Kind() == slog.KindGroup {
			writeJSONObject(buf, a.Value.Group(), depth+1)
		} else {
			writeJSONValue(buf, a.Value)
		}
	}

	buf.WriteString("\n")
	buf.WriteString(pad[2:])
	buf.WriteString("}")
}

func writeJSONValue(buf *bytes.Buffer, v slog.Value) {
	if v.Kind() == slog.KindAny && v.Any() == nil {
		paint(buf, colorGray, "null")

		return
	}

	writeValue(buf, v)
}
