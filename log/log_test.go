package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"testing"
)

func TestLogger_Make_DefaultConfiguration(t *testing.T) {
	var buf bytes.Buffer
	logger := Make(&buf)

	if logger.config.level != LevelInfo {
		t.Errorf("expected default level Info, got %v", logger.config.level)
	}
	if logger.config.caller {
		t.Error("expected caller disabled by default")
	}
	if logger.config.format != FormatText {
		t.Errorf("expected default format text, got %v", logger.config.format)
	}
	if logger.Level() != LevelInfo || logger.Format() != FormatText {
		t.Errorf("accessors = %v, %v", logger.Level(), logger.Format())
	}
}

func TestLogger_Make_WithLevel_FiltersMessages(t *testing.T) {
	var buf bytes.Buffer
	logger := Make(&buf, WithLevel(LevelDebug))

	logger.Debug("debug message")
	if !strings.Contains(buf.String(), "debug message") {
		t.Error("debug message not logged after setting level to Debug")
	}

	buf.Reset()
	logger2 := Make(&buf, WithLevel(LevelError))
	logger2.Info("info message")
	if buf.Len() > 0 {
		t.Error("info message logged when level is Error")
	}

	logger2.Error("error message")
	if !strings.Contains(buf.String(), "error message") {
		t.Error("error message not logged at Error level")
	}
}

func TestLogger_Trace_RendersLevelName(t *testing.T) {
	var buf bytes.Buffer
	logger := Make(&buf, WithLevel(LevelTrace), WithPretty(false))

	logger.Trace("deep detail", slog.String("form", "define"))

	output := buf.String()
	if !strings.Contains(output, "level=TRACE") {
		t.Errorf("expected TRACE level in output, got: %s", output)
	}
	if !strings.Contains(output, "form=define") {
		t.Errorf("expected attribute in output, got: %s", output)
	}

	buf.Reset()
	Make(&buf, WithLevel(LevelDebug)).Trace("hidden")
	if buf.Len() > 0 {
		t.Errorf("trace logged at debug level: %s", buf.String())
	}
}

func TestLogger_Make_WithTimeFormat_SetsLayout(t *testing.T) {
	tests := []struct {
		name     string
		format   string
		contains string
	}{
		{"rfc3339 named", "RFC3339", "T"},
		{"rfc3339 nano named", "RFC3339Nano", "."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := Make(&buf, WithTimeLayout(tt.format), WithPretty(false))
			logger.Info("test")

			output := buf.String()
			if !strings.Contains(output, tt.contains) {
				t.Errorf(
					"expected time format to contain %q, got: %s",
					tt.contains,
					output,
				)
			}
		})
	}
}

func TestLogger_Make_WithCaller_IncludesSource(t *testing.T) {
	var buf bytes.Buffer
	logger := Make(&buf, WithCaller(true), WithPretty(false))
	logger.Info("test message")

	if !strings.Contains(buf.String(), "source") {
		t.Error("caller info not included when enabled")
	}

	buf.Reset()
	logger2 := Make(&buf, WithCaller(false), WithPretty(false))
	logger2.Info("test message")

	if strings.Contains(buf.String(), "source") {
		t.Error("caller info included when disabled")
	}
}

func TestLogger_Make_WithFormat_SetsOutputFormat(t *testing.T) {
	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		logger := Make(&buf, WithFormat(FormatJSON), WithPretty(false))
		logger.Info("test message", slog.String("key", "value"))

		var result map[string]any
		if err := json.Unmarshal(buf.Bytes(), &result); err != nil {
			t.Fatalf("failed to parse JSON output: %v", err)
		}
		if result["msg"] != "test message" {
			t.Errorf("expected msg=test message, got %v", result["msg"])
		}
		if result["key"] != "value" {
			t.Errorf("expected key=value, got %v", result["key"])
		}
	})

	t.Run("text", func(t *testing.T) {
		var buf bytes.Buffer
		logger := Make(&buf, WithFormat(FormatText), WithPretty(false))
		logger.Info("test message", slog.String("key", "value"))

		output := buf.String()
		if !strings.Contains(output, "test message") {
			t.Error("message not found in text output")
		}
		if !strings.Contains(output, "key=value") {
			t.Error("key=value not found in text output")
		}
	})
}

func TestLogger_LogMethods_RespectLevelFiltering(t *testing.T) {
	tests := []struct {
		name     string
		logFunc  func(Logger, string, ...slog.Attr)
		minLevel Level
		logged   bool
	}{
		{"trace at trace", (Logger).Trace, LevelTrace, true},
		{"trace at debug", (Logger).Trace, LevelDebug, false},
		{"debug at debug", (Logger).Debug, LevelDebug, true},
		{"debug at info", (Logger).Debug, LevelInfo, false},
		{"info at info", (Logger).Info, LevelInfo, true},
		{"info at warn", (Logger).Info, LevelWarn, false},
		{"warn at warn", (Logger).Warn, LevelWarn, true},
		{"warn at error", (Logger).Warn, LevelError, false},
		{"error at error", (Logger).Error, LevelError, true},
		{"error at debug", (Logger).Error, LevelDebug, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := Make(&buf, WithLevel(tt.minLevel))
			tt.logFunc(logger, "test message")

			if hasOutput := buf.Len() > 0; hasOutput != tt.logged {
				t.Errorf(
					"expected logged=%v, got output length=%d",
					tt.logged,
					buf.Len(),
				)
			}
		})
	}
}

// syncBuffer serializes writes from concurrent loggers.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.Write(p)
}

func TestLogger_ConcurrentCalls_ThreadSafe(t *testing.T) {
	var out syncBuffer
	logger := Make(&out, WithPretty(false))

	var wg sync.WaitGroup
	for i := range 100 {
		wg.Go(func() {
			logger.Info("concurrent message", slog.Int("id", i))
		})
	}
	wg.Wait()

	lines := strings.Split(strings.TrimSpace(out.buf.String()), "\n")
	if len(lines) != 100 {
		t.Errorf("expected 100 log lines, got %d", len(lines))
	}
}

func TestLogger_With_AddsAttributes(t *testing.T) {
	var buf bytes.Buffer
	logger := Make(&buf, WithFormat(FormatJSON), WithPretty(false))

	loggerWith := logger.With(slog.String("key", "value"))
	loggerWith.Info("test message")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to unmarshal log entry: %v", err)
	}

	if val, ok := entry["key"]; !ok || val != "value" {
		t.Errorf("expected key=value in log entry, got %v", val)
	}
}

func TestLogger_Wrap_OverridesOptions(t *testing.T) {
	var buf bytes.Buffer
	base := Make(&buf, WithLevel(LevelError), WithPretty(false))

	wrapped := base.Wrap(WithLevel(LevelDebug))
	wrapped.Debug("now visible")

	if !strings.Contains(buf.String(), "now visible") {
		t.Error("Wrap did not override the level")
	}

	if base.Level() != LevelError {
		t.Errorf("Wrap mutated the base logger: level %v", base.Level())
	}
}

func TestLogger_ZeroValue_Safety(t *testing.T) {
	var l Logger
	// Should not panic
	l.Trace("test")
	l.Debug("test")
	l.Info("test")
	l.Warn("test")
	l.Error("test")

	l2 := l.With(slog.String("key", "value"))
	if l2.Logger != nil {
		t.Error("expected nil logger from zero value With")
	}
}

func TestLogger_EdgeCases(t *testing.T) {
	var buf bytes.Buffer
	l := Make(&buf, WithTimeLayout("none"), WithFormat(FormatJSON), WithPretty(false))
	l.Info("test")

	// With empty time layout, the time field should be omitted by ReplaceAttr
	if output := buf.String(); strings.Contains(output, `"time"`) {
		t.Errorf("expected no time field, got: %s", output)
	}
}

func TestPackage_ContextFunctions_UseDefaultLogger(t *testing.T) {
	original := defaultLog
	defer func() { defaultLog = original }()

	tests := []struct {
		name    string
		logFunc func(string, ...slog.Attr)
	}{
		{"TraceContext", func(msg string, attrs ...slog.Attr) {
			TraceContext(t.Context(), msg, attrs...)
		}},
		{"DebugContext", func(msg string, attrs ...slog.Attr) {
			DebugContext(t.Context(), msg, attrs...)
		}},
		{"InfoContext", func(msg string, attrs ...slog.Attr) {
			InfoContext(t.Context(), msg, attrs...)
		}},
		{"WarnContext", func(msg string, attrs ...slog.Attr) {
			WarnContext(t.Context(), msg, attrs...)
		}},
		{"ErrorContext", func(msg string, attrs ...slog.Attr) {
			ErrorContext(t.Context(), msg, attrs...)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			Config(WithOutput(&buf), WithLevel(LevelTrace))

			tt.logFunc("package context test")

			if !strings.Contains(buf.String(), "package context test") {
				t.Error("expected message to be logged using package context function")
			}

			if Default().Level() != LevelTrace {
				t.Errorf("Default().Level() = %v, want trace", Default().Level())
			}
		})
	}
}

func BenchmarkLogger_Info(b *testing.B) {
	var buf bytes.Buffer
	logger := Make(&buf, WithPretty(false))

	for b.Loop() {
		buf.Reset()
		logger.Info("benchmark message")
	}
}

func BenchmarkLogger_Info_WithAttributes(b *testing.B) {
	var buf bytes.Buffer
	logger := Make(&buf, WithPretty(false))

	for b.Loop() {
		buf.Reset()
		logger.Info("benchmark message",
			slog.String("key1", "value1"),
			slog.Int("key2", 42),
		)
	}
}
