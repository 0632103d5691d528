package log

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestPrettyText(t *testing.T) {
	var buf bytes.Buffer

	l := Make(&buf, WithFormat(FormatText), WithTimeLayout("none"))
	l = l.With(slog.String("unit", "index"))

	l.Logger.WithGroup("vm").Info("exec",
		slog.Int("depth", 2),
		slog.Bool("raw", true),
		slog.Duration("took", time.Millisecond),
		slog.Group("doc", slog.String("name", "header")),
	)

	out := buf.String()

	for _, want := range []string{"INFO exec", "unit=index", "vm.depth=2", "vm.raw=true", "vm.took=1ms", "doc.name=header"} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q missing %q", out, want)
		}
	}

	if !strings.HasSuffix(out, "\n") || strings.Count(out, "\n") != 1 {
		t.Errorf("output %q is not a single line", out)
	}
}

func TestPrettyJSON(t *testing.T) {
	var buf bytes.Buffer

	l := Make(&buf, WithFormat(FormatJSON), WithTimeLayout("none"))
	l.With(slog.String("unit", "index")).Warn("slow", slog.Any("missing", nil))

	out := buf.String()

	for _, want := range []string{"level: WARN", "msg: slow", "unit: index", "missing: null"} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q missing %q", out, want)
		}
	}
}
