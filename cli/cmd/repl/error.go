package repl

import "github.com/ardnew/resgen/pkg"

var (
	ErrOutOfBounds = pkg.NewError("history index out of range")
	ErrNoFile      = pkg.NewError("no resource file to edit")
)
