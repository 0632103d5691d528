package cli

import (
	"context"
	"log/slog"
	"slices"
	"strconv"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/ardnew/ppx/log"
)

// logLevel and logFormat reconfigure the package logger as soon as kong
// decodes them, so errors reported later in parsing use the new settings.
type (
	logLevel  string
	logFormat string
)

func (l *logLevel) UnmarshalText(text []byte) error {
	*l = logLevel(text)
	log.Config(log.WithLevel(log.ParseLevel(string(text))))

	return nil
}

func (f *logFormat) UnmarshalText(text []byte) error {
	*f = logFormat(text)
	log.Config(log.WithFormat(log.ParseFormat(string(text))))

	return nil
}

type logConfig struct {
	Level      logLevel  `default:"info"    enum:"${logLevelEnum}"  help:"Set log level (${enum})."`
	Format     logFormat `default:"json"    enum:"${logFormatEnum}" help:"Set log format (${enum})."`
	TimeLayout string    `default:"RFC3339"                         help:"Set timestamp format."`
	Caller     bool      `default:"false"                           help:"Include caller information."       negatable:""`
	Pretty     bool      `default:"true"                            help:"Enable colorized pretty printing." negatable:""`
}

func (*logConfig) vars() kong.Vars {
	return kong.Vars{
		"logLevelEnum":  strings.Join(slices.Collect(log.Levels()), ","),
		"logFormatEnum": strings.Join(slices.Collect(log.Formats()), ","),
	}
}

func (*logConfig) group() kong.Group {
	return kong.Group{Key: "log", Title: "Logging options"}
}

// start applies every logging flag once parsing is complete.
func (f *logConfig) start(ctx context.Context) {
	log.Config(
		log.WithLevel(log.ParseLevel(string(f.Level))),
		log.WithFormat(log.ParseFormat(string(f.Format))),
		log.WithTimeLayout(f.TimeLayout),
		log.WithCaller(f.Caller),
		log.WithPretty(f.Pretty),
	)

	log.DebugContext(ctx, "logger configured",
		slog.String("level", string(f.Level)),
		slog.String("format", string(f.Format)),
		slog.String("time_layout", f.TimeLayout),
		slog.Bool("caller", f.Caller),
		slog.Bool("pretty", f.Pretty),
	)
}

// scan applies the logging flags found in args before kong parses them.
// Boolean flags have no TextUnmarshaler, so scan is the only place they
// take effect early.
func (f *logConfig) scan(args []string) {
	setters := map[string]func(string){
		"level":  func(v string) { _ = f.Level.UnmarshalText([]byte(v)) },
		"format": func(v string) { _ = f.Format.UnmarshalText([]byte(v)) },
	}

	switches := map[string]func(bool) log.Option{
		"pretty": func(on bool) log.Option { f.Pretty = on; return log.WithPretty(on) },
		"caller": func(on bool) log.Option { f.Caller = on; return log.WithCaller(on) },
	}

	for i := 0; i < len(args); i++ {
		flag, negated := logFlag(args[i])
		if flag == "" {
			continue
		}

		name, value, assigned := strings.Cut(flag, "=")

		if set, ok := setters[name]; ok && !negated {
			if !assigned && i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
				i++
				value = args[i]
			}

			set(value)

			continue
		}

		toggle, ok := switches[name]
		if !ok {
			continue
		}

		on := true

		if assigned {
			b, err := strconv.ParseBool(value)
			if err != nil {
				continue
			}

			on = b
		}

		log.Config(toggle(on != negated))
	}
}

// logFlag strips the --log- or --no-log- prefix from arg. It returns the
// empty string for any other argument.
func logFlag(arg string) (flag string, negated bool) {
	if flag, ok := strings.CutPrefix(arg, "--no-log-"); ok {
		return flag, true
	}

	flag, _ = strings.CutPrefix(arg, "--log-")
	if flag == arg {
		return "", false
	}

	return flag, false
}
