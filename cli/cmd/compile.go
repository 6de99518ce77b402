package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/zeebo/xxh3"

	"github.com/ardnew/resgen/compile"
	"github.com/ardnew/resgen/emit"
	"github.com/ardnew/resgen/log"
)

// DefaultOut is the default path of the generated file.
const DefaultOut = "r_generated.go"

// Compile generates Go source from the resource directories.
type Compile struct {
	Out      string `default:"r_generated.go" help:"Generated file path"                                              short:"o" type:"path"`
	Package  string `default:"res" help:"Package name of the generated files"                          short:"p"`
	TestsTag string `help:"Build tag gating test-only resources, instead of a _test.go file" name:"tests-tag"`
	Stdout   bool   `help:"Write generated source to stdout instead of files"`

	out io.Writer
}

// Run executes the compile command.
func (c *Compile) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	res, err := load(ctx,
		compile.WithPackage(c.Package),
		compile.WithTestsTag(c.TestsTag),
	)
	if err != nil {
		return err
	}

	if c.Stdout {
		w := stdout(c.out)

		if _, err := w.Write(res.Output.Source); err != nil {
			return ErrWriteOutput.Wrap(err)
		}

		if res.Output.HasTests {
			if _, err := fmt.Fprintf(w, "\n%s", res.Output.TestSource); err != nil {
				return ErrWriteOutput.Wrap(err)
			}
		}

		return nil
	}

	out := c.Out
	if out == "" {
		out = DefaultOut
	}

	if err := writeGenerated(ctx, out, res.Output.Source); err != nil {
		return err
	}

	testsOut := testsPath(out, res.Output.TestsTag)

	for _, stale := range []string{testsPath(out, ""), testsPath(out, "tag")} {
		if res.Output.HasTests && stale == testsOut {
			continue
		}

		if err := removeGenerated(ctx, stale); err != nil {
			return err
		}
	}

	if res.Output.HasTests {
		if err := writeGenerated(ctx, testsOut, res.Output.TestSource); err != nil {
			return err
		}
	}

	log.InfoContext(ctx, "compiled resources",
		slog.String("out", out),
		slog.Int("resources", res.Len()),
		slog.Int("files", len(res.Files)),
		slog.String("fingerprint", fmt.Sprintf("%016x", res.Fingerprint)),
	)

	return nil
}

// testsPath returns the path of the test-only source generated beside out.
// Without a build tag it is a _test.go file so that the go tool excludes it
// from ordinary builds.
func testsPath(out, tag string) string {
	base := strings.TrimSuffix(out, ".go")
	if tag == "" {
		return base + "_test.go"
	}

	return base + "_tests.go"
}

// writeGenerated writes data to path unless path already holds it.
func writeGenerated(ctx context.Context, path string, data []byte) error {
	if prev, err := os.ReadFile(path); err == nil && xxh3.Hash(prev) == xxh3.Hash(data) {
		log.DebugContext(ctx, "generated file unchanged", slog.String("file", path))

		return nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return ErrWriteOutput.With(slog.String("file", path)).Wrap(err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil { //nolint:gosec
		return ErrWriteOutput.With(slog.String("file", path)).Wrap(err)
	}

	log.DebugContext(ctx, "wrote generated file",
		slog.String("file", path),
		slog.Int("bytes", len(data)),
	)

	return nil
}

// removeGenerated removes path if it exists and was generated by resgen.
func removeGenerated(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}

	if err != nil {
		return ErrWriteOutput.With(slog.String("file", path)).Wrap(err)
	}

	if !bytes.HasPrefix(data, []byte(emit.Header)) {
		return nil
	}

	if err := os.Remove(path); err != nil {
		return ErrWriteOutput.With(slog.String("file", path)).Wrap(err)
	}

	log.DebugContext(ctx, "removed stale generated file", slog.String("file", path))

	return nil
}
