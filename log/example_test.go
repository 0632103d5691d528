package log_test

import (
	"context"
	"log/slog"
	"os"

	"github.com/ardnew/ppx/log"
)

func plain(opts ...log.Option) log.Logger {
	return log.Make(os.Stdout,
		append([]log.Option{log.WithPretty(false), log.WithTimeLayout("none")}, opts...)...)
}

func Example() {
	logger := plain()
	logger.Info("build", slog.String("unit", "index"), slog.Int("passes", 2))

	// Output:
	// {"level":"INFO","msg":"build","unit":"index","passes":2}
}

func Example_levels() {
	logger := plain(log.WithLevel(log.LevelWarn), log.WithFormat(log.FormatText))

	logger.Trace("parse pass")
	logger.Info("built")
	logger.Warn("could not load history", slog.String("path", "repl_history"))

	// Output:
	// level=WARN msg="could not load history" path=repl_history
}

func Example_trace() {
	logger := plain(log.WithLevel(log.LevelTrace), log.WithFormat(log.FormatText))
	logger.Trace("optimize done", slog.Int("instructions", 12))

	// Output:
	// level=TRACE msg="optimize done" instructions=12
}

func ExampleLogger_With() {
	logger := plain(log.WithFormat(log.FormatText)).With(slog.String("unit", "repl"))

	logger.InfoContext(context.Background(), "execute done")

	// Output:
	// level=INFO msg="execute done" unit=repl
}

func ExampleLogger_Wrap() {
	logger := plain()
	logger.Wrap(log.WithFormat(log.FormatText)).Info("wrapped")
	logger.Info("original")

	// Output:
	// level=INFO msg=wrapped
	// {"level":"INFO","msg":"original"}
}
