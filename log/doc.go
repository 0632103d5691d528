// Package log writes leveled, structured records for ppx on top of
// [log/slog].
//
// A [Logger] is an immutable value holding its settings and a handler
// built from them. [Make] creates one from functional options and
// [Logger.Wrap] derives a new one with some settings changed:
//
//	l := log.Make(os.Stderr, log.WithLevel(log.LevelDebug), log.WithFormat(log.FormatText))
//	l.Debug("built", slog.String("unit", "index"), slog.Int("passes", 2))
//
// Records carry typed [slog.Attr] values only. [Logger.With] adds
// attributes to every record written by the returned logger.
//
// # Levels
//
// [LevelTrace] sits below [LevelDebug] and reports the individual stages of
// a build (parse passes, analysis, compilation, execution). Level names are
// written upper-case in every format.
//
// # Package Logger
//
// The package-level functions write through [Default], which starts with
// the defaults on standard error. [Config] applies options over its current
// settings and is safe to call while other goroutines are logging.
//
// # Formats
//
// [FormatJSON] and [FormatText] correspond to the slog handlers of the same
// encoding. With [WithPretty], records are colorized with lipgloss styles
// when the output is a terminal, and JSON records span several lines.
//
// [WithTimeLayout] accepts the names of the [time] layout constants or any
// custom layout. A blank layout or "none" omits timestamps.
package log
