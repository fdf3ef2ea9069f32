package log

//go:generate go tool stringer --linecomment --type Level,Format --output config_string.go

import (
	"io"
	"iter"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// Level represents the severity of a log message.
type Level slog.Level

const levelTraceMask = -8

const (
	LevelTrace Level = Level(levelTraceMask)  // trace
	LevelDebug Level = Level(slog.LevelDebug) // debug
	LevelInfo  Level = Level(slog.LevelInfo)  // info
	LevelWarn  Level = Level(slog.LevelWarn)  // warn
	LevelError Level = Level(slog.LevelError) // error
)

// DefaultLevel is the default log level.
const DefaultLevel = LevelInfo

// levels lists the named levels from least to most severe.
//
//nolint:gochecknoglobals
var levels = []Level{LevelTrace, LevelDebug, LevelInfo, LevelWarn, LevelError}

// Levels returns an iterator over the names of all defined log levels.
func Levels() iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, level := range levels {
			if !yield(level.String()) {
				return
			}
		}
	}
}

// label returns the upper-case name printed in log records. A level between
// the named ones is printed in slog's offset form, such as "INFO+2".
func (l Level) label() string {
	for _, named := range levels {
		if l == named {
			return strings.ToUpper(l.String())
		}
	}

	return slog.Level(l).String()
}

// ParseLevel parses a string representation of a log level.
// Valid level strings are "TRACE", "DEBUG", "INFO", "WARN", and "ERROR",
// optionally followed by a "+" or "-" and an integer offset.
// See [slog.Level.UnmarshalText] for details.
func ParseLevel(s string) Level {
	// slog does not know trace.
	if strings.EqualFold(s, LevelTrace.String()) {
		return LevelTrace
	}

	l := new(slog.Level)

	if err := l.UnmarshalText([]byte(s)); err != nil {
		return DefaultLevel
	}

	return Level(*l)
}

// Format represents the output format for log messages.
type Format int

const (
	FormatText Format = iota // text
	FormatJSON               // json
)

// DefaultFormat is the default log message format. Interpreter traces are
// read by people at a terminal, so text is the default.
const DefaultFormat = FormatText

// Formats returns an iterator over the names of all defined log formats.
func Formats() iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, format := range []Format{FormatText, FormatJSON} {
			if !yield(format.String()) {
				return
			}
		}
	}
}

// ParseFormat parses a string representation of a log format.
// Valid format strings are "json" and "text".
func ParseFormat(s string) Format {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case FormatJSON.String():
		return FormatJSON
	case FormatText.String():
		return FormatText
	default:
		return DefaultFormat
	}
}

// FormatTime defines a function that formats a time.Time value as a string.
type FormatTime func(time.Time) string

// DefaultTimeLayout is the default used when no valid time layout is provided.
const DefaultTimeLayout = time.RFC3339

// DefaultCaller is the default setting for including caller information
// in log output.
const DefaultCaller = false

// DefaultPretty is the default setting for pretty printing log output.
const DefaultPretty = true

// config holds the configuration options for a Logger.
type config struct {
	mutex      *sync.RWMutex
	output     io.Writer
	formatTime FormatTime
	level      Level
	format     Format
	caller     bool
	pretty     bool
}

// makeConfig creates a new config with defaults applied, overridden by any
// provided options.
func makeConfig(w io.Writer, opts ...Option) config {
	var c config

	c.mutex = &sync.RWMutex{}

	return apply(apply(c, WithDefaults(w)), opts...)
}

// clone creates a copy of the config with a separate mutex and applies any
// provided options.
func (c config) clone(opts ...Option) config {
	c.mutex = &sync.RWMutex{}

	return apply(c, opts...)
}

// replaceAttr rewrites the built-in time and level attributes of every
// record: timestamps use the configured layout (or are dropped when it is
// empty) and levels print as "TRACE" rather than "DEBUG-4".
func (c config) replaceAttr(_ []string, a slog.Attr) slog.Attr {
	switch a.Key {
	case slog.TimeKey:
		if t, ok := a.Value.Any().(time.Time); ok {
			formatted := c.formatTime(t)
			if formatted == "" {
				return slog.Attr{}
			}

			a.Value = slog.StringValue(formatted)
		}

	case slog.LevelKey:
		if level, ok := a.Value.Any().(slog.Level); ok {
			a.Value = slog.StringValue(Level(level).label())
		}
	}

	return a
}

// handler creates a slog.Handler based on the current configuration.
// The optional opts can be used to override specific configuration values.
func (c config) handler(opts ...Option) slog.Handler {
	cfg := apply(c, opts...)

	hopts := &slog.HandlerOptions{
		AddSource:   cfg.caller,
		Level:       slog.Level(cfg.level),
		ReplaceAttr: cfg.replaceAttr,
	}

	switch {
	case cfg.pretty && cfg.format == FormatText:
		return newPrettyTextHandler(cfg.output, hopts)

	case cfg.pretty && cfg.format == FormatJSON:
		return newPrettyJSONHandler(cfg.output, hopts)

	case cfg.format == FormatText:
		return slog.NewTextHandler(cfg.output, hopts)

	case cfg.format == FormatJSON:
		return slog.NewJSONHandler(cfg.output, hopts)

	default:
		return slog.DiscardHandler
	}
}

// WithDefaults returns a functional option that sets the default configuration.
// The default configuration is [DefaultTimeLayout], [DefaultLevel],
// [DefaultFormat], [DefaultCaller] and [DefaultPretty].
func WithDefaults(w io.Writer) Option {
	formatTime := makeFormatTimeFunc(DefaultTimeLayout)

	return update(func(c *config) {
		c.output = orDiscard(w)
		c.formatTime = formatTime
		c.level = DefaultLevel
		c.format = DefaultFormat
		c.caller = DefaultCaller
		c.pretty = DefaultPretty
	})
}

// WithOutput returns a functional option that sets the output [io.Writer]
// for log messages.
// If a nil writer is provided, [io.Discard] is used instead.
func WithOutput(w io.Writer) Option {
	return update(func(c *config) { c.output = orDiscard(w) })
}

// WithLevel returns a functional option that sets the minimum log level.
// Messages below this level are discarded. [LevelTrace] enables the
// interpreter's per-expression evaluation trace.
func WithLevel(level Level) Option {
	return update(func(c *config) { c.level = level })
}

// WithFormat returns a functional option that sets the output format
// for log messages.
func WithFormat(format Format) Option {
	return update(func(c *config) { c.format = format })
}

// WithTimeLayout returns a functional option that sets the layout used to
// format log timestamps.
//
// The layout may name one of the layouts listed in [TimeLayouts], matched
// without regard to case or punctuation. Otherwise, it is passed verbatim
// to [time.Time.Format].
//
// The name "none", or a layout that is empty after trimming whitespace,
// disables timestamps.
func WithTimeLayout(layout string) Option {
	formatTime := makeFormatTimeFunc(layout)

	return update(func(c *config) { c.formatTime = formatTime })
}

// WithCaller returns a functional option that controls whether caller
// information is included in log output.
func WithCaller(enable bool) Option {
	return update(func(c *config) { c.caller = enable })
}

// WithPretty returns a functional option that controls whether log output
// uses pretty printing with colors and formatting.
// For text format: evaluation traces are indented by depth and interpreter
// errors are printed with their scope beneath them.
// For JSON format: multiline with indentation and colors.
func WithPretty(enable bool) Option {
	return update(func(c *config) { c.pretty = enable })
}

func orDiscard(w io.Writer) io.Writer {
	if w == nil {
		return io.Discard
	}

	return w
}

// timeLayout maps named layouts to their corresponding time.Time constants.
//
//nolint:gochecknoglobals
var timeLayout = map[string]string{
	"rfc3339":     time.RFC3339,
	"rfc3339nano": time.RFC3339Nano,
	"datetime":    time.DateTime,
	"timeonly":    time.TimeOnly,
	"kitchen":     time.Kitchen,
	"stampmilli":  time.StampMilli,
	"none":        "",
}

// TimeLayouts returns an iterator over the layout names accepted by
// [WithTimeLayout].
func TimeLayouts() iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, name := range []string{
			"RFC3339", "RFC3339Nano", "DateTime", "TimeOnly", "Kitchen", "StampMilli", "none",
		} {
			if !yield(name) {
				return
			}
		}
	}
}

func makeFormatTimeFunc(layout string) FormatTime {
	// Names are matched on letters and digits only.
	// Custom layouts are used verbatim.
	key := strings.Map(
		func(r rune) rune {
			if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
				return r
			}

			return -1
		},
		strings.ToLower(layout),
	)

	if std, ok := timeLayout[key]; ok {
		layout = std
	}

	if strings.TrimSpace(layout) == "" {
		return func(time.Time) string { return "" }
	}

	return func(t time.Time) string { return t.Format(layout) }
}
