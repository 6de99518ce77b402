// Package compile runs the resource compiler from resource directories to
// generated Go source.
//
// A run reads the main resource directories and, optionally, a directory of
// test-only resources. Each set is profile-filtered, parsed, merged, built
// into a model, resolved and checked; the test set resolves against the
// main set as its fallback. Both are then handed to the emitter. Any hard
// failure aborts the run without output.
package compile

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/ardnew/resgen/check"
	"github.com/ardnew/resgen/emit"
	"github.com/ardnew/resgen/filter"
	"github.com/ardnew/resgen/ir"
	"github.com/ardnew/resgen/log"
	"github.com/ardnew/resgen/parse"
	"github.com/ardnew/resgen/pkg"
	"github.com/ardnew/resgen/resolve"
	"github.com/ardnew/resgen/source"
)

// DefaultDir is the resource directory used when none is configured.
const DefaultDir = "res"

// TestsDir is the name of the test-only resource directory inside the
// first resource directory.
const TestsDir = "tests"

// PathEnv lists extra resource directories.
const PathEnv = "RESGEN_PATH"

var (
	ErrParse  = pkg.NewError("failed to parse resources")
	ErrFilter = pkg.NewError("failed to apply build profile")
)

// Result is the outcome of a successful run.
type Result struct {
	Program *check.Program
	// Tests is nil when no test-only resources were loaded.
	Tests       *check.Program
	Output      emit.Output
	Fingerprint uint64
	Files       []source.File
}

// Len returns the number of main and test-only resources.
func (r *Result) Len() int {
	n := r.Program.Len()
	if r.Tests != nil {
		n += r.Tests.Len()
	}

	return n
}

// Option configures a run.
type Option func(options) options

type options struct {
	logger   log.Logger
	dirs     []string
	pathEnv  string
	testsDir string
	tests    bool
	profile  string
	pkg      string
	testsTag string
	workers  int
}

func makeOptions(opts ...Option) options {
	o := options{
		logger:  log.Nop(),
		tests:   true,
		profile: filter.DefaultProfile,
		pkg:     emit.DefaultPackage,
	}

	for _, opt := range opts {
		o = opt(o)
	}

	if len(o.dirs) == 0 {
		o.dirs = []string{DefaultDir}
	}

	if o.testsDir == "" {
		o.testsDir = filepath.Join(o.dirs[0], TestsDir)
	}

	return o
}

// WithLogger sets the logger passed to every stage.
func WithLogger(l log.Logger) Option {
	return func(o options) options {
		o.logger = l

		return o
	}
}

// WithDirs sets the main resource directories, read in the given order.
func WithDirs(dirs ...string) Option {
	return func(o options) options {
		for _, d := range dirs {
			if d != "" {
				o.dirs = append(o.dirs, d)
			}
		}

		return o
	}
}

// WithSearchPath appends the directories listed in env, a
// [os.PathListSeparator]-separated list, after the configured directories.
func WithSearchPath(env string) Option {
	return func(o options) options {
		o.pathEnv = env

		return o
	}
}

// WithTestsDir overrides the test-only resource directory.
func WithTestsDir(dir string) Option {
	return func(o options) options {
		o.testsDir = dir

		return o
	}
}

// WithTests enables or disables loading test-only resources.
func WithTests(enable bool) Option {
	return func(o options) options {
		o.tests = enable

		return o
	}
}

// WithProfile selects the build profile.
func WithProfile(profile string) Option {
	return func(o options) options {
		if profile != "" {
			o.profile = profile
		}

		return o
	}
}

// WithPackage sets the package name of the generated source.
func WithPackage(name string) Option {
	return func(o options) options {
		if name != "" {
			o.pkg = name
		}

		return o
	}
}

// WithTestsTag gates the test-only source behind a build tag.
func WithTestsTag(tag string) Option {
	return func(o options) options {
		o.testsTag = tag

		return o
	}
}

// WithWorkers bounds the number of files read concurrently.
func WithWorkers(n int) Option {
	return func(o options) options {
		o.workers = n

		return o
	}
}

// Run reads the configured directories and compiles them. A missing main
// directory yields empty output; a test directory that cannot be read is
// skipped.
func Run(ctx context.Context, opts ...Option) (*Result, error) {
	o := makeOptions(opts...)

	srcOpts := []source.Option{
		source.WithLogger(o.logger),
		source.WithWorkers(o.workers),
	}

	for _, dir := range o.dirs {
		if _, err := os.Stat(dir); err != nil {
			o.logger.WarnContext(ctx, "resource directory not found, generating empty resources",
				slog.String("dir", dir),
			)
		}
	}

	var main []source.File

	for _, dir := range source.SearchPath(o.pathEnv, o.dirs...) {
		files, err := source.ReadDir(ctx, dir, false, srcOpts...)
		if err != nil {
			if errors.Is(err, source.ErrNoDirectory) {
				continue
			}

			return nil, err
		}

		main = append(main, files...)
	}

	var tests []source.File

	if o.tests {
		files, err := source.ReadDir(ctx, o.testsDir, true, srcOpts...)

		switch {
		case errors.Is(err, source.ErrNoDirectory):
			o.logger.DebugContext(ctx, "no test resources", slog.String("dir", o.testsDir))
		case err != nil:
			o.logger.WarnContext(ctx, "failed to load test resources",
				slog.String("dir", o.testsDir),
				slog.Any("error", err),
			)
		default:
			tests = files
		}
	}

	return run(ctx, main, tests, o)
}

// Files compiles resource files already held in memory. tests may be
// empty.
func Files(ctx context.Context, main, tests []source.File, opts ...Option) (*Result, error) {
	return run(ctx, main, tests, makeOptions(opts...))
}

func run(ctx context.Context, main, tests []source.File, o options) (*Result, error) {
	res := &Result{Files: append(append([]source.File{}, main...), tests...)}
	res.Fingerprint = source.Fingerprint(res.Files...)

	o.logger.DebugContext(ctx, "compiling resources",
		slog.Int("files", len(main)),
		slog.Int("test_files", len(tests)),
		slog.String("profile", o.profile),
	)

	prog, err := program(ctx, main, nil, o)
	if err != nil {
		return nil, err
	}

	res.Program = prog

	if len(tests) > 0 {
		if res.Tests, err = program(ctx, tests, prog, o); err != nil {
			return nil, err
		}
	}

	res.Output, err = emit.Generate(ctx, res.Program, res.Tests,
		emit.WithLogger(o.logger),
		emit.WithPackage(o.pkg),
		emit.WithTestsTag(o.testsTag),
	)
	if err != nil {
		return nil, err
	}

	o.logger.InfoContext(ctx, "compiled resources",
		slog.Int("resources", res.Len()),
		slog.Bool("tests", res.Output.HasTests),
		slog.Uint64("fingerprint", res.Fingerprint),
	)

	return res, nil
}

// program runs one resource set through the pipeline up to checking.
func program(ctx context.Context, files []source.File, fallback *check.Program, o options) (*check.Program, error) {
	parsed := make([]ir.File, 0, len(files))

	var errs pkg.Errors

	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		data, filtered := filter.Profile(f.Data, o.profile)

		rs, err := parse.Bytes(ctx, f.Path, data, parse.WithLogger(o.logger))
		if err != nil {
			errs.Add(err)

			continue
		}

		// Unfiltered input would keep the declarations of every profile.
		if !filtered {
			errs.Add(ErrFilter.With(
				slog.String("path", f.Path),
				slog.String("profile", o.profile),
			))

			continue
		}

		parsed = append(parsed, ir.File{Path: f.Path, Resources: rs})
	}

	if errs.Len() > 0 {
		return nil, ErrParse.Wrap(errs.Join())
	}

	m, err := ir.Build(ctx, ir.Merge(parsed...), ir.WithLogger(o.logger))
	if err != nil {
		return nil, err
	}

	resOpts := []resolve.Option{resolve.WithLogger(o.logger)}
	chkOpts := []check.Option{check.WithLogger(o.logger)}

	if fallback != nil {
		resOpts = append(resOpts, resolve.WithFallback(fallback.Resolution()))
		chkOpts = append(chkOpts, check.WithFallback(fallback))
	}

	r, err := resolve.Resolve(ctx, m, resOpts...)
	if err != nil {
		return nil, err
	}

	return check.Run(ctx, r, chkOpts...)
}
