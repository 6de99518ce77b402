package cmd

import "github.com/ardnew/resgen/pkg"

var (
	ErrNoContext   = pkg.NewError("command context not initialized")
	ErrMarshal     = pkg.NewError("marshal manifest")
	ErrWriteOutput = pkg.NewError("write generated source")
	ErrWriteConfig = pkg.NewError("write configuration file")
	ErrFileExists  = pkg.NewError("file exists (use --force to overwrite)")
)
