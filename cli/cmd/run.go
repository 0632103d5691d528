package cmd

import (
	"context"
	"io"
	"log/slog"
	"slices"

	"github.com/ardnew/ppx/log"
	"github.com/ardnew/ppx/source"
	"github.com/ardnew/ppx/unit"
	"github.com/ardnew/ppx/vm"
)

// Run builds every source and executes the main document.
type Run struct {
	Engine `embed:""`

	Main     string `help:"Name of the document to execute (default: first source)" short:"m"`
	Optimize int    `default:"0"                                                      help:"Optimization mode (0 fuses output, non-zero folds constants, negative strips origins)" short:"O"`
	Raw      bool   `help:"Skip the optimize stage"`
	Listing  bool   `help:"Print the instruction listing of the main document instead of executing it" short:"l"`

	Sources []string `arg:"" help:"Source files, documents on the search path or '-' for stdin" name:"source" optional:""`
}

// Run executes the run command.
func (r *Run) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	docs, err := Load(ctx, r.Sources...)
	if err != nil {
		return err
	}

	docs, err = promote(docs, r.Main)
	if err != nil {
		return err
	}

	var opts []unit.Option
	if !r.Raw {
		opts = append(opts, unit.WithOptimize(r.Optimize))
	}

	u, err := r.newUnit(ctx, opts...)
	if err != nil {
		return err
	}

	log.DebugContext(ctx, "run",
		slog.String("main", docs[0].Name()),
		slog.Int("documents", len(docs)),
		slog.Bool("listing", r.Listing),
	)

	if r.Listing {
		return listing(ctx, u, outputFrom(ctx), docs)
	}

	return u.Run(ctx, docs...)
}

// promote moves the document named main to the front of docs.
func promote(docs []*source.Document, main string) ([]*source.Document, error) {
	if main == "" {
		return docs, nil
	}

	i := slices.IndexFunc(docs, func(d *source.Document) bool {
		return d.Name() == main
	})
	if i < 0 {
		return nil, ErrMain.With(slog.String("main", main))
	}

	out := make([]*source.Document, 0, len(docs))
	out = append(out, docs[i])
	out = append(out, docs[:i]...)

	return append(out, docs[i+1:]...), nil
}

// listing builds docs and writes the program of the first one to w.
func listing(ctx context.Context, u *unit.Unit, w io.Writer, docs []*source.Document) error {
	cs, err := u.BuildAll(ctx, docs...)
	if cs[0] == nil {
		return err
	}

	if prog, ok := cs[0].Program(); ok {
		if _, werr := io.WriteString(w, vm.Listing(prog)); werr != nil {
			return werr
		}
	}

	return err
}
