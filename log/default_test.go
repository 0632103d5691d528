package log

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

// captureDefault points the package logger at a buffer for the duration of
// the test.
func captureDefault(t *testing.T, opts ...Option) *bytes.Buffer {
	t.Helper()

	saved := std.Load()
	t.Cleanup(func() { std.Store(saved) })

	var buf bytes.Buffer

	Config(append([]Option{WithOutput(&buf), WithPretty(false), WithFormat(FormatText)}, opts...)...)

	return &buf
}

func TestPackageFunctions(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name string
		emit func(string)
		want string
	}{
		{"trace", func(m string) { Trace(m) }, "TRACE"},
		{"debug", func(m string) { Debug(m) }, "DEBUG"},
		{"info", func(m string) { Info(m) }, "INFO"},
		{"warn", func(m string) { Warn(m) }, "WARN"},
		{"error", func(m string) { Error(m) }, "ERROR"},
		{"trace context", func(m string) { TraceContext(ctx, m) }, "TRACE"},
		{"debug context", func(m string) { DebugContext(ctx, m) }, "DEBUG"},
		{"info context", func(m string) { InfoContext(ctx, m) }, "INFO"},
		{"warn context", func(m string) { WarnContext(ctx, m) }, "WARN"},
		{"error context", func(m string) { ErrorContext(ctx, m) }, "ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := captureDefault(t, WithLevel(LevelTrace))

			tt.emit(tt.name)

			out := buf.String()
			if !strings.Contains(out, "level="+tt.want) || !strings.Contains(out, tt.name) {
				t.Errorf("output %q, want level %s", out, tt.want)
			}
		})
	}
}

func TestConfigAccumulates(t *testing.T) {
	buf := captureDefault(t)

	Config(WithLevel(LevelWarn))

	if Default().Level() != LevelWarn || Default().Format() != FormatText {
		t.Errorf("Default() level, format = %v, %v", Default().Level(), Default().Format())
	}

	Info("dropped")
	With(slog.String("unit", "stdin")).Warn("kept")

	if out := buf.String(); strings.Contains(out, "dropped") || !strings.Contains(out, "unit=stdin") {
		t.Errorf("output = %q", out)
	}
}

func TestPackageCaller(t *testing.T) {
	buf := captureDefault(t, WithCaller(true))

	Info("here")

	if !strings.Contains(buf.String(), "default_test.go") {
		t.Errorf("output %q does not name the calling file", buf.String())
	}
}
