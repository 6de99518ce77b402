package cmd

import (
	"context"

	"github.com/ardnew/resgen/cli/cmd/repl"
	"github.com/ardnew/resgen/compile"
	"github.com/ardnew/resgen/log"
)

// Repl browses the compiled resources interactively.
type Repl struct{}

// Run executes the repl command.
func (r *Repl) Run(ctx context.Context) error {
	return repl.Run(ctx,
		func(ctx context.Context) (*compile.Result, error) { return load(ctx) },
		variable(ctx, CacheIdentifier),
		log.Default(),
	)
}
