// Package source locates and reads resource files.
//
// A resource directory is scanned non-recursively for files with the
// resource extension. Files are read concurrently but always returned in
// lexical order of their names, so that every later stage of the compiler
// sees the same sequence for the same directory contents.
package source

import (
	"context"
	"encoding/binary"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"

	"github.com/ardnew/mung"
	"github.com/klauspost/readahead"
	"github.com/zeebo/xxh3"
	"golang.org/x/sync/errgroup"

	"github.com/ardnew/resgen/log"
	"github.com/ardnew/resgen/pkg"
)

// Ext is the file name extension of resource files.
const Ext = ".xml"

var (
	ErrNoDirectory = pkg.NewError("resource directory not found")
	ErrReadFile    = pkg.NewError("failed to read resource file")
)

// File is the raw content of one resource file.
type File struct {
	Path string
	Data []byte
	Hash uint64
	// Test marks files that belong to the test-only resource set.
	Test bool
}

// Option configures [ReadDir].
type Option func(options) options

type options struct {
	logger  log.Logger
	ext     string
	workers int
}

func makeOptions(opts ...Option) options {
	o := options{
		logger:  log.Nop(),
		ext:     Ext,
		workers: runtime.GOMAXPROCS(0),
	}

	for _, opt := range opts {
		o = opt(o)
	}

	return o
}

// WithLogger sets the logger used to report progress.
func WithLogger(l log.Logger) Option {
	return func(o options) options {
		o.logger = l

		return o
	}
}

// WithWorkers bounds the number of files read concurrently.
// Values less than 1 are ignored.
func WithWorkers(n int) Option {
	return func(o options) options {
		if n > 0 {
			o.workers = n
		}

		return o
	}
}

// WithExt overrides the file name extension selected by [ReadDir].
func WithExt(ext string) Option {
	return func(o options) options {
		if ext != "" && !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}

		o.ext = ext

		return o
	}
}

// ReadDir reads every resource file directly inside dir.
func ReadDir(ctx context.Context, dir string, test bool, opts ...Option) ([]File, error) {
	o := makeOptions(opts...)

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoDirectory.With(slog.String("dir", dir)).Wrap(err)
		}

		return nil, ErrReadFile.With(slog.String("dir", dir)).Wrap(err)
	}

	var paths []string

	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), o.ext) {
			continue
		}

		paths = append(paths, filepath.Join(dir, e.Name()))
	}

	slices.Sort(paths)

	o.logger.DebugContext(ctx, "scanned resource directory",
		slog.String("dir", dir),
		slog.Int("files", len(paths)),
		slog.Bool("test", test),
	)

	files := make([]File, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.workers)

	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			f, err := ReadFile(path, test)
			if err != nil {
				return err
			}

			files[i] = f

			o.logger.TraceContext(gctx, "read resource file",
				slog.String("path", path),
				slog.Int("bytes", len(f.Data)),
			)

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return files, nil
}

// ReadFile reads a single resource file.
func ReadFile(path string, test bool) (File, error) {
	f, err := os.Open(path)
	if err != nil {
		return File{}, ErrReadFile.With(slog.String("path", path)).Wrap(err)
	}
	defer f.Close()

	ra := readahead.NewReader(f)
	defer ra.Close()

	data, err := io.ReadAll(ra)
	if err != nil {
		return File{}, ErrReadFile.With(slog.String("path", path)).Wrap(err)
	}

	return Make(path, data, test), nil
}

// Make returns a File for content already held in memory.
func Make(path string, data []byte, test bool) File {
	return File{Path: path, Data: data, Hash: xxh3.Hash(data), Test: test}
}

// Fingerprint returns a digest identifying the exact sequence of files.
// Any change to order, path, content or test marking changes the result.
func Fingerprint(files ...File) uint64 {
	h := xxh3.New()

	var word [8]byte

	for _, f := range files {
		_, _ = io.WriteString(h, f.Path)
		_, _ = h.Write([]byte{0})

		binary.LittleEndian.PutUint64(word[:], f.Hash)
		_, _ = h.Write(word[:])

		if f.Test {
			_, _ = h.Write([]byte{1})
		} else {
			_, _ = h.Write([]byte{0})
		}
	}

	return h.Sum64()
}

// SearchPath returns the resource directories to compile: dirs in the given
// order followed by the entries of env, a list separated by
// [os.PathListSeparator]. Entries that are not existing directories and
// repeated entries are removed.
func SearchPath(env string, dirs ...string) []string {
	joined := mung.Make(
		mung.WithSubjectItems(env),
		mung.WithDelim(string(os.PathListSeparator)),
		mung.WithPrefixItems(dirs...),
	).String()

	var path []string

	for _, dir := range filepath.SplitList(joined) {
		if dir == "" {
			continue
		}

		dir = filepath.Clean(dir)
		if slices.Contains(path, dir) || !isDir(dir) {
			continue
		}

		path = append(path, dir)
	}

	return path
}

func isDir(path string) bool {
	info, err := os.Stat(path)

	return err == nil && info.IsDir()
}
