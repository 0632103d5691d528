package cmd

import (
	"context"

	"github.com/ardnew/ppx/cli/cmd/repl"
	"github.com/ardnew/ppx/log"
)

// Repl preprocesses one line at a time with a heap that persists between
// lines.
type Repl struct {
	Engine `embed:""`

	Sources []string `arg:"" help:"Documents made available to exec" name:"source" optional:""`
}

// Run executes the repl command.
func (r *Repl) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	opts, err := r.options(ctx)
	if err != nil {
		return err
	}

	s := repl.NewSession(ctx, opts...)

	if len(r.Sources) > 0 {
		docs, err := Load(ctx, r.Sources...)
		if err != nil {
			return err
		}

		if err := s.Preload(ctx, docs...); err != nil {
			return err
		}
	}

	cacheDir, _ := kongVar(ctx, CacheIdentifier)

	return repl.Run(ctx, s, cacheDir, log.Default())
}
