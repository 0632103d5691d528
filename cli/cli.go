package cli

import (
	"context"

	"github.com/alecthomas/kong"

	"github.com/ardnew/ppx/cli/cmd"
	"github.com/ardnew/ppx/pkg"
)

// CLI is the top-level command-line interface for ppx.
type CLI struct {
	Log   logConfig   `embed:"" group:"log"   prefix:"log-"`
	Pprof pprofConfig `embed:"" group:"pprof" prefix:"pprof-"`

	Path []string `help:"Directory searched for documents, before ${pathEnv}" short:"I" type:"path"`

	Init cmd.Init `cmd:"" help:"Initialize configuration file"`
	Tree cmd.Tree `cmd:"" help:"Print the structural tree of a document"`
	Repl cmd.Repl `cmd:"" help:"Preprocess interactively, one line at a time"`

	Run cmd.Run `cmd:"" default:"withargs" help:"Preprocess documents"`
}

// Run parses args and runs the selected command. Parse errors print usage
// and call exit.
func Run(ctx context.Context, exit func(code int), args ...string) error {
	if err := makeDirs(); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var cli CLI

	// Logging flags take effect before parsing so parse errors honor them.
	cli.Log.scan(args)

	parser, err := kong.New(&cli, cli.options(ctx, exit)...)
	if err != nil {
		return err
	}

	ktx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	ctx = cmd.WithContext(ctx, ktx)
	ctx = cmd.WithSearchPath(ctx, searchPath(cli.Path))

	cli.Log.start(ctx)

	defer cli.Pprof.start(ctx)()

	return ktx.Run(ctx, &cli)
}

func (cli *CLI) options(ctx context.Context, exit func(int)) []kong.Option {
	yamlConfig := configFile(".yaml")

	return []kong.Option{
		kong.Name(pkg.Name),
		kong.Description(pkg.Description),
		kong.UsageOnError(),
		kong.Exit(exit),
		kong.ExplicitGroups([]kong.Group{cli.Log.group(), cli.Pprof.group()}),
		kong.BindSingletonProvider(func() context.Context { return ctx }),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			Summary:             true,
			Tree:                true,
			NoExpandSubcommands: true,
		}),
		kong.Configuration(kong.JSON, configFile(".json")),
		kong.Configuration(resolve, yamlConfig),
		kong.Vars{
			cmd.ConfigIdentifier: yamlConfig,
			cmd.CacheIdentifier:  cacheDir(),
			"pathEnv":            pkg.PathEnv,
		}.
			CloneWith(cmd.EngineVars()).
			CloneWith(cli.Log.vars()).
			CloneWith(cli.Pprof.vars()),
	}
}
