package cmd

import (
	"context"
	"io"
	"os"

	"github.com/alecthomas/kong"

	"github.com/ardnew/resgen/compile"
	"github.com/ardnew/resgen/log"
)

type (
	contextKey   struct{}
	resourcesKey struct{}
)

// WithContext returns a context carrying ktx.
func WithContext(ctx context.Context, ktx *kong.Context) context.Context {
	return context.WithValue(ctx, contextKey{}, ktx)
}

func kongContextFrom(ctx context.Context) *kong.Context {
	ktx, _ := ctx.Value(contextKey{}).(*kong.Context)

	return ktx
}

// variable returns the kong variable name, or "" without a kong context.
func variable(ctx context.Context, name string) string {
	ktx := kongContextFrom(ctx)
	if ktx == nil {
		return ""
	}

	return ktx.Model.Vars()[name]
}

// Resources selects the resource directories compiled by commands.
type Resources struct {
	Dirs       []string
	SearchPath string
	TestsDir   string
	Tests      bool
	Profile    string
	Workers    int
}

// WithResources returns a context carrying r.
func WithResources(ctx context.Context, r Resources) context.Context {
	return context.WithValue(ctx, resourcesKey{}, r)
}

func resourcesFrom(ctx context.Context) Resources {
	if r, ok := ctx.Value(resourcesKey{}).(Resources); ok {
		return r
	}

	return Resources{Tests: true}
}

func (r Resources) options() []compile.Option {
	return []compile.Option{
		compile.WithDirs(r.Dirs...),
		compile.WithSearchPath(r.SearchPath),
		compile.WithTestsDir(r.TestsDir),
		compile.WithTests(r.Tests),
		compile.WithProfile(r.Profile),
		compile.WithWorkers(r.Workers),
	}
}

// load compiles the resources selected by ctx.
func load(ctx context.Context, extra ...compile.Option) (*compile.Result, error) {
	opts := append(resourcesFrom(ctx).options(), compile.WithLogger(log.Default()))

	return compile.Run(ctx, append(opts, extra...)...)
}

func stdout(w io.Writer) io.Writer {
	if w == nil {
		return os.Stdout
	}

	return w
}
