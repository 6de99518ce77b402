// Package parse reads resource declarations from XML resource files.
//
// A file is decoded as a stream of tokens applied one at a time to an
// explicit parser state. Namespace elements extend the name of everything
// they enclose, doc elements document the next declaration, and array and
// template elements accumulate their content until they close. Malformed
// markup fails the whole file; a malformed declaration is dropped with a
// warning.
package parse

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/ardnew/resgen/log"
	"github.com/ardnew/resgen/pkg"
)

var ErrMalformedInput = pkg.NewError("malformed resource file")

// Option configures [Parse].
type Option func(options) options

type options struct {
	logger log.Logger
}

// WithLogger sets the logger that reports dropped declarations.
func WithLogger(l log.Logger) Option {
	return func(o options) options {
		o.logger = l

		return o
	}
}

// Bytes parses the resource file content data read from path.
func Bytes(ctx context.Context, path string, data []byte, opts ...Option) ([]Resource, error) {
	return Parse(ctx, path, bytes.NewReader(data), opts...)
}

// Parse parses one resource file, returning its declarations in document
// order.
func Parse(ctx context.Context, path string, r io.Reader, opts ...Option) ([]Resource, error) {
	o := options{logger: log.Nop()}

	for _, opt := range opts {
		o = opt(o)
	}

	dec := xml.NewDecoder(r)
	dec.Strict = true
	dec.Entity = xml.HTMLEntity

	s := &state{ctx: ctx, logger: o.logger}

	var out []Resource

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		offset := dec.InputOffset()
		line, _ := dec.InputPos()

		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return nil, malformed(path, dec, err)
		}

		pos := Position{File: path, Offset: offset, Line: line}

		var (
			res Resource
			ok  bool
		)

		switch t := tok.(type) {
		case xml.StartElement:
			s.start(t, pos)
		case xml.CharData:
			res, ok = s.text(string(t))
		case xml.EndElement:
			res, ok = s.end(t)
		}

		if ok {
			out = append(out, res)
		}
	}

	if len(s.tags) > 0 {
		return nil, malformed(path, dec, fmt.Errorf("unclosed element <%s>", s.top()))
	}

	o.logger.TraceContext(ctx, "parsed resource file",
		slog.String("file", path),
		slog.Int("resources", len(out)),
	)

	return out, nil
}

func malformed(path string, dec *xml.Decoder, err error) error {
	offset := dec.InputOffset()
	line, _ := dec.InputPos()

	var syn *xml.SyntaxError
	if errors.As(err, &syn) {
		line = syn.Line
	}

	return ErrMalformedInput.With(
		slog.String("file", path),
		slog.Int64("offset", offset),
		slog.Int("line", line),
	).Wrap(fmt.Errorf("%s: XML error at byte %d: %w", path, offset, err))
}
