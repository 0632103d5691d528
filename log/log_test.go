package log

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"testing"
)

func record(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()

	var m map[string]any
	if err := json.Unmarshal(buf.Bytes(), &m); err != nil {
		t.Fatalf("invalid record %q: %v", buf.String(), err)
	}

	return m
}

func plainJSON(buf *bytes.Buffer, opts ...Option) Logger {
	return Make(buf, append([]Option{WithPretty(false)}, opts...)...)
}

func TestMakeDefaults(t *testing.T) {
	l := Make(nil)

	if l.Level() != DefaultLevel {
		t.Errorf("Level() = %v, want %v", l.Level(), DefaultLevel)
	}

	if l.Format() != DefaultFormat {
		t.Errorf("Format() = %v, want %v", l.Format(), DefaultFormat)
	}

	if l.settings.caller != DefaultCaller || l.settings.pretty != DefaultPretty {
		t.Errorf("caller, pretty = %v, %v", l.settings.caller, l.settings.pretty)
	}

	l.Error("discarded")
}

func TestLevelFiltering(t *testing.T) {
	emitters := map[Level]func(Logger, string){
		LevelTrace: func(l Logger, m string) { l.Trace(m) },
		LevelDebug: func(l Logger, m string) { l.Debug(m) },
		LevelInfo:  func(l Logger, m string) { l.Info(m) },
		LevelWarn:  func(l Logger, m string) { l.Warn(m) },
		LevelError: func(l Logger, m string) { l.Error(m) },
	}

	for _, floor := range levels {
		for level, emit := range emitters {
			var buf bytes.Buffer

			emit(plainJSON(&buf, WithLevel(floor)), "msg")

			if want := level >= floor; (buf.Len() > 0) != want {
				t.Errorf("floor %v, emit %v: wrote %v, want %v", floor, level, buf.Len() > 0, want)

				continue
			}

			if buf.Len() > 0 {
				if got := record(t, &buf)["level"]; got != strings.ToUpper(level.String()) {
					t.Errorf("level = %v, want %v", got, strings.ToUpper(level.String()))
				}
			}
		}
	}
}

func TestContextMethods(t *testing.T) {
	type key struct{}

	var seen []any

	ctx := context.WithValue(context.Background(), key{}, "ctx")
	h := &ctxHandler{Handler: slog.DiscardHandler, seen: func(c context.Context) {
		seen = append(seen, c.Value(key{}))
	}}

	l := Logger{Logger: slog.New(h), settings: newSettings(nil, WithLevel(LevelTrace))}
	l.TraceContext(ctx, "a")
	l.DebugContext(ctx, "b")
	l.InfoContext(ctx, "c")
	l.WarnContext(ctx, "d")
	l.ErrorContext(ctx, "e")

	if len(seen) != 5 {
		t.Fatalf("handled %d records, want 5", len(seen))
	}

	for i, v := range seen {
		if v != "ctx" {
			t.Errorf("record %d context value = %v", i, v)
		}
	}
}

type ctxHandler struct {
	slog.Handler
	seen func(context.Context)
}

func (h *ctxHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *ctxHandler) Handle(ctx context.Context, _ slog.Record) error {
	h.seen(ctx)

	return nil
}

func TestCaller(t *testing.T) {
	var buf bytes.Buffer

	plainJSON(&buf, WithCaller(true)).Info("here")

	src, ok := record(t, &buf)[slog.SourceKey].(map[string]any)
	if !ok {
		t.Fatalf("record has no source: %s", buf.String())
	}

	if file, _ := src["file"].(string); !strings.HasSuffix(file, "log_test.go") {
		t.Errorf("source file = %q, want log_test.go", file)
	}

	buf.Reset()
	plainJSON(&buf).Info("here")

	if _, ok := record(t, &buf)[slog.SourceKey]; ok {
		t.Error("source recorded with caller disabled")
	}
}

func TestFormats(t *testing.T) {
	tests := []struct {
		format Format
		pretty bool
		want   []string
	}{
		{FormatJSON, false, []string{`"msg":"hello"`, `"n":1`}},
		{FormatText, false, []string{"msg=hello", "n=1"}},
		{FormatJSON, true, []string{"{\n", "hello", "\n}\n"}},
		{FormatText, true, []string{"INFO", "hello", "n", "=", "1"}},
		{Format(99), false, nil},
	}

	for _, tt := range tests {
		t.Run(tt.format.String(), func(t *testing.T) {
			var buf bytes.Buffer

			Make(&buf, WithFormat(tt.format), WithPretty(tt.pretty)).Info("hello", slog.Int("n", 1))

			if tt.want == nil && buf.Len() > 0 {
				t.Errorf("wrote %q, want nothing", buf.String())
			}

			for _, w := range tt.want {
				if !strings.Contains(buf.String(), w) {
					t.Errorf("output %q missing %q", buf.String(), w)
				}
			}
		})
	}
}

func TestWith(t *testing.T) {
	var buf bytes.Buffer

	base := plainJSON(&buf)
	l := base.With(slog.String("unit", "index"))

	if same := base.With(); same.Logger != base.Logger {
		t.Error("With() without attributes returned a new logger")
	}

	l.Info("built")

	if got := record(t, &buf)["unit"]; got != "index" {
		t.Errorf("unit = %v, want index", got)
	}

	buf.Reset()
	base.Info("built")

	if _, ok := record(t, &buf)["unit"]; ok {
		t.Error("With() modified the receiver")
	}
}

func TestWrap(t *testing.T) {
	var buf bytes.Buffer

	base := plainJSON(&buf, WithLevel(LevelWarn))
	debug := base.Wrap(WithLevel(LevelDebug))

	if base.Level() != LevelWarn || debug.Level() != LevelDebug {
		t.Errorf("levels = %v, %v", base.Level(), debug.Level())
	}

	if debug.Format() != FormatJSON {
		t.Errorf("Wrap() lost format: %v", debug.Format())
	}

	debug.Debug("kept")

	if !strings.Contains(buf.String(), "kept") {
		t.Errorf("output %q missing message", buf.String())
	}
}

func TestZeroLogger(t *testing.T) {
	var l Logger

	l.Trace("x")
	l.ErrorContext(context.Background(), "x")

	if l.With(slog.Int("a", 1)).Logger != nil {
		t.Error("With() on zero logger allocated")
	}

	if l.Level() != DefaultLevel || l.Format() != DefaultFormat {
		t.Error("zero logger does not report defaults")
	}

	if w := l.Wrap(WithLevel(LevelError)); w.Level() != LevelError {
		t.Errorf("Wrap() on zero logger level = %v", w.Level())
	}
}

func TestNilContext(t *testing.T) {
	var buf bytes.Buffer

	//nolint:staticcheck
	plainJSON(&buf).InfoContext(nil, "nil context")

	if !strings.Contains(buf.String(), "nil context") {
		t.Errorf("output %q missing message", buf.String())
	}
}

func TestConcurrentUse(t *testing.T) {
	var (
		buf safeBuffer
		wg  sync.WaitGroup
	)

	l := Make(&buf, WithFormat(FormatText), WithPretty(false))

	for i := range 16 {
		wg.Go(func() {
			l.With(slog.Int("worker", i)).Info("tick")
			l.Wrap(WithLevel(LevelError)).Info("dropped")
		})
	}

	wg.Wait()

	if n := strings.Count(buf.String(), "tick"); n != 16 {
		t.Errorf("wrote %d records, want 16", n)
	}
}

type safeBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *safeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.Write(p)
}

func (b *safeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.String()
}

func BenchmarkInfo(b *testing.B) {
	for name, caller := range map[string]bool{"plain": false, "caller": true} {
		l := Make(nil, WithCaller(caller), WithPretty(false))

		b.Run(name, func(b *testing.B) {
			for b.Loop() {
				l.Info("message", slog.String("key", "value"))
			}
		})
	}
}

func BenchmarkInfoFiltered(b *testing.B) {
	l := Make(nil, WithLevel(LevelError))

	for b.Loop() {
		l.Info("message", slog.String("key", "value"))
	}
}
