package cmd

import "github.com/ardnew/ppx/pkg"

var (
	ErrYAMLMarshal = pkg.NewError("marshal YAML")
	ErrWriteConfig = pkg.NewError("write configuration file")
	ErrFileExists  = pkg.NewError("file exists (use --force to overwrite)")
	ErrSource      = pkg.NewError("failed to load source")
	ErrNotFound    = pkg.NewError("source not found")
	ErrDuplicate   = pkg.NewError("duplicate document name")
	ErrMain        = pkg.NewError("main document not loaded")
	ErrMode        = pkg.NewError("unknown document mode")
)
