package cmd

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/ardnew/ppx/builtin"
	"github.com/ardnew/ppx/log"
	"github.com/ardnew/ppx/parse"
	"github.com/ardnew/ppx/unit"
	"github.com/ardnew/ppx/vm"
)

// Document modes select the plugins a unit is built with.
const (
	ModeTemplate = "template"
	ModeCalc     = "calc"
)

// Plugins returns the plugins of the document mode.
func Plugins(mode string) ([]unit.Plugin, error) {
	switch mode {
	case ModeTemplate, "":
		return []unit.Plugin{builtin.Template(), builtin.Expr()}, nil

	case ModeCalc:
		return []unit.Plugin{builtin.Calc()}, nil

	default:
		return nil, ErrMode.With(slog.String("mode", mode))
	}
}

// Engine holds the flags shared by every command that builds documents.
type Engine struct {
	Define    map[string]string `help:"Preset a heap entry"                       placeholder:"NAME=VALUE"                      short:"D"`
	Mode      string            `default:"template" enum:"template,calc"          help:"Document syntax (${enum})"              short:"M"`
	MaxDepth  int               `default:"${maxDepth}"                            help:"Limit nested evaluation and exec depth"`
	MaxPasses int               `default:"${maxPasses}"                           help:"Limit parse and analyze passes"`
}

// EngineVars returns the kong variables referenced by [Engine] tags.
func EngineVars() map[string]string {
	return map[string]string{
		"maxDepth":  strconv.Itoa(vm.DefaultMaxDepth),
		"maxPasses": strconv.Itoa(parse.DefaultMaxPasses),
	}
}

// newUnit returns a unit configured by the engine flags. Options in extra are
// applied last.
func (e Engine) newUnit(ctx context.Context, extra ...unit.Option) (*unit.Unit, error) {
	opts, err := e.options(ctx)
	if err != nil {
		return nil, err
	}

	return unit.New(append(opts, extra...)...), nil
}

func (e Engine) options(ctx context.Context) ([]unit.Option, error) {
	plugins, err := Plugins(e.Mode)
	if err != nil {
		return nil, err
	}

	logger := log.Default().With(slog.String("mode", e.Mode))

	logger.TraceContext(ctx, "engine",
		slog.Int("plugins", len(plugins)),
		slog.Int("defines", len(e.Define)),
		slog.Int("max_depth", e.MaxDepth),
		slog.Int("max_passes", e.MaxPasses),
	)

	return []unit.Option{
		unit.WithLogger(logger),
		unit.WithConsole(outputFrom(ctx)),
		unit.WithPlugins(plugins...),
		unit.WithHeap(e.Define),
		unit.WithMaxDepth(e.MaxDepth),
		unit.WithMaxPasses(e.MaxPasses),
	}, nil
}
