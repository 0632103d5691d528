package cmd

import (
	"context"
	"log/slog"
)

// Tree parses a source and prints its structural tree.
type Tree struct {
	Engine `embed:""`

	Format string `default:"yaml" enum:"yaml,json" help:"Output format (${enum})"  short:"F"`
	Indent int    `default:"2"                     help:"Indent width for output" short:"i"`

	Source string `arg:"" default:"-" help:"Source file, document on the search path or '-' for stdin" name:"source"`
}

// Run executes the tree command.
func (t *Tree) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	docs, err := Load(ctx, t.Source)
	if err != nil {
		return err
	}

	u, err := t.newUnit(ctx)
	if err != nil {
		return err
	}

	c, _ := u.Initialize(docs[0])

	if err := u.Parse(ctx, c); err != nil {
		return err
	}

	if err := u.Analyze(ctx, c); err != nil {
		return err
	}

	out := outputFrom(ctx)

	switch t.Format {
	case "json":
		err = c.Tree().FormatJSON(ctx, out, t.Indent)
	default:
		err = c.Tree().FormatYAML(ctx, out, t.Indent)
	}

	return err
}

// LogValue implements slog.LogValuer.
func (t *Tree) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("source", t.Source),
		slog.String("format", t.Format),
		slog.String("mode", t.Mode),
	)
}
