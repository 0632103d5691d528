package log

import (
	"io"
	"log/slog"
	"strings"
	"time"
)

// DefaultTimeLayout is the timestamp layout of a logger configured without
// [WithTimeLayout].
const DefaultTimeLayout = time.RFC3339

// DefaultCaller reports whether source locations are recorded by default.
const DefaultCaller = false

// DefaultPretty reports whether colorized output is enabled by default.
const DefaultPretty = true

// FormatTime renders a timestamp. An empty result omits the timestamp.
type FormatTime func(time.Time) string

// Option modifies the settings of a [Logger].
type Option func(*settings)

// settings is copied by value into each Logger, so options applied by
// [Logger.Wrap] never affect the logger they were derived from.
type settings struct {
	output io.Writer
	stamp  FormatTime
	level  Level
	format Format
	caller bool
	pretty bool
}

func newSettings(w io.Writer, opts ...Option) settings {
	var s settings

	WithDefaults(w)(&s)

	return s.with(opts...)
}

func (s settings) with(opts ...Option) settings {
	for _, opt := range opts {
		if opt != nil {
			opt(&s)
		}
	}

	return s
}

func (s settings) handlerOptions() *slog.HandlerOptions {
	return &slog.HandlerOptions{
		AddSource:   s.caller,
		Level:       slog.Level(s.level),
		ReplaceAttr: s.replace,
	}
}

func (s settings) replace(_ []string, a slog.Attr) slog.Attr {
	switch a.Key {
	case slog.TimeKey:
		if t, ok := a.Value.Any().(time.Time); ok {
			text := s.stamp(t)
			if text == "" {
				return slog.Attr{}
			}

			a.Value = slog.StringValue(text)
		}

	case slog.LevelKey:
		if l, ok := a.Value.Any().(slog.Level); ok {
			a.Value = slog.StringValue(Level(l).label())
		}
	}

	return a
}

func (s settings) handler() slog.Handler {
	opts := s.handlerOptions()

	switch {
	case s.format == FormatJSON && s.pretty:
		return newPrettyJSONHandler(s.output, opts)
	case s.format == FormatJSON:
		return slog.NewJSONHandler(s.output, opts)
	case s.format == FormatText && s.pretty:
		return newPrettyTextHandler(s.output, opts)
	case s.format == FormatText:
		return slog.NewTextHandler(s.output, opts)
	}

	return slog.DiscardHandler
}

// WithDefaults resets every setting to its default and writes to w.
func WithDefaults(w io.Writer) Option {
	return func(s *settings) {
		*s = settings{
			stamp:  timeFormatter(DefaultTimeLayout),
			level:  DefaultLevel,
			format: DefaultFormat,
			caller: DefaultCaller,
			pretty: DefaultPretty,
		}

		WithOutput(w)(s)
	}
}

// WithOutput sets the destination of log records. A nil writer discards them.
func WithOutput(w io.Writer) Option {
	return func(s *settings) {
		if w == nil {
			w = io.Discard
		}

		s.output = w
	}
}

// WithLevel sets the minimum level of records written.
func WithLevel(level Level) Option {
	return func(s *settings) { s.level = level }
}

// WithFormat sets the record encoding.
func WithFormat(format Format) Option {
	return func(s *settings) { s.format = format }
}

// WithCaller enables the source location of the logging call in each record.
func WithCaller(enable bool) Option {
	return func(s *settings) { s.caller = enable }
}

// WithPretty enables colorized output. Pretty JSON records span multiple
// lines.
func WithPretty(enable bool) Option {
	return func(s *settings) { s.pretty = enable }
}

// WithTimeLayout sets the timestamp layout. Names of the layout constants in
// package [time] are recognized regardless of case and punctuation, along
// with a few shorthands such as "ms" and "none". Any other layout is passed
// to [time.Time.Format] verbatim. A blank layout omits timestamps.
func WithTimeLayout(layout string) Option {
	stamp := timeFormatter(layout)

	return func(s *settings) { s.stamp = stamp }
}

var namedLayouts = map[string]string{
	"ansic":       time.ANSIC,
	"unixdate":    time.UnixDate,
	"rubydate":    time.RubyDate,
	"rfc822":      time.RFC822,
	"rfc822z":     time.RFC822Z,
	"rfc850":      time.RFC850,
	"rfc1123":     time.RFC1123,
	"rfc1123z":    time.RFC1123Z,
	"rfc3339":     time.RFC3339,
	"rfc3339nano": time.RFC3339Nano,
	"kitchen":     time.Kitchen,
	"datetime":    time.DateTime,
	"dateonly":    time.DateOnly,
	"timeonly":    time.TimeOnly,
	"stamp":       time.Stamp,
	"stampmilli":  time.StampMilli,
	"stampmicro":  time.StampMicro,
	"stampnano":   time.StampNano,
	"ms":          time.StampMilli,
	"us":          time.StampMicro,
	"ns":          time.StampNano,
	"none":        "",
}

func timeFormatter(layout string) FormatTime {
	key := strings.Map(func(r rune) rune {
		switch {
		case 'a' <= r && r <= 'z', '0' <= r && r <= '9':
			return r
		}

		return -1
	}, strings.ToLower(layout))

	if named, ok := namedLayouts[key]; ok {
		layout = named
	} else if key == "" {
		layout = ""
	}

	if layout == "" {
		return func(time.Time) string { return "" }
	}

	return func(t time.Time) string { return t.Format(layout) }
}
