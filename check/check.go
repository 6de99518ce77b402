// Package check types a resolved resource set: it classifies numbers,
// compiles templates and drops the declarations that cannot be typed.
package check

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ardnew/resgen/ir"
	"github.com/ardnew/resgen/kind"
	"github.com/ardnew/resgen/log"
	"github.com/ardnew/resgen/numeric"
	"github.com/ardnew/resgen/pkg"
	"github.com/ardnew/resgen/resolve"
	"github.com/ardnew/resgen/tmpl"
)

// Program is a typed resource set ready for code generation.
type Program struct {
	res      *resolve.Resolution
	fallback *Program

	numbers   map[*ir.Node]numeric.Value
	arrays    map[*ir.Node]Array
	templates map[*ir.Node]tmpl.Compiled
	dropped   map[*ir.Node]bool
}

// Array is a typed array. Exactly one of its item slices is used,
// depending on Elem.
type Array struct {
	Elem    kind.Kind
	Numbers numeric.Array
	Bools   []bool
	Strings []string
}

// Len returns the number of items in a.
func (a Array) Len() int {
	switch a.Elem {
	case kind.Number:
		return len(a.Numbers.Items)
	case kind.Bool:
		return len(a.Bools)
	default:
		return len(a.Strings)
	}
}

// Option configures [Run].
type Option func(options) options

type options struct {
	logger   log.Logger
	fallback *Program
}

// WithLogger sets the logger that reports dropped declarations.
func WithLogger(l log.Logger) Option {
	return func(o options) options {
		o.logger = l

		return o
	}
}

// WithFallback sets the program that holds resources referenced from res
// but declared in its fallback resolution.
func WithFallback(p *Program) Option {
	return func(o options) options {
		o.fallback = p

		return o
	}
}

// Run types every resource of res. Numeric literals that do not fit an
// explicit type fail the run; all of them are reported together.
func Run(ctx context.Context, res *resolve.Resolution, opts ...Option) (*Program, error) {
	o := options{logger: log.Nop()}

	for _, opt := range opts {
		o = opt(o)
	}

	p := &Program{
		res:       res,
		fallback:  o.fallback,
		numbers:   make(map[*ir.Node]numeric.Value),
		arrays:    make(map[*ir.Node]Array),
		templates: make(map[*ir.Node]tmpl.Compiled),
		dropped:   make(map[*ir.Node]bool),
	}

	var errs pkg.Errors

	for n := range res.Model().All() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		switch v := n.Value.(type) {
		case ir.Number:
			num, err := numeric.Classify(v.Literal, v.Type)
			if errors.Is(err, numeric.ErrNotNumeric) {
				p.drop(ctx, o.logger, n, "not a number", slog.String("text", v.Literal))

				continue
			}

			if err != nil {
				errs.Add(fmt.Errorf("%s: %w", n, err))

				continue
			}

			p.numbers[n] = num

		case ir.Array:
			a, err := p.array(ctx, o.logger, n, v)
			if err != nil {
				errs.Add(fmt.Errorf("%s: %w", n, err))

				continue
			}

			p.arrays[n] = a

		case ir.Template:
			p.templates[n] = tmpl.Compile(v.Text, v.Params)
		}
	}

	if errs.Len() > 0 {
		return nil, errs.Join()
	}

	for n := range res.Model().All() {
		if _, ok := n.Value.(ir.Reference); !ok {
			continue
		}

		if _, ok := res.Text(n); ok {
			continue
		}

		if t := res.Target(n); p.Dropped(t) {
			p.drop(ctx, o.logger, n, "reference to dropped resource",
				slog.String("target", t.String()),
			)
		}
	}

	return p, nil
}

func (p *Program) drop(ctx context.Context, l log.Logger, n *ir.Node, why string, attrs ...slog.Attr) {
	p.dropped[n] = true

	l.WarnContext(ctx, "dropping resource: "+why, append([]slog.Attr{
		slog.String("resource", n.String()),
		slog.String("pos", n.Origin.String()),
	}, attrs...)...)
}

func (p *Program) array(ctx context.Context, l log.Logger, n *ir.Node, v ir.Array) (Array, error) {
	a := Array{Elem: v.Elem}

	switch v.Elem {
	case kind.Number:
		num, err := numeric.ClassifyArray(v.Items, v.Spec)
		if err != nil {
			return Array{}, err
		}

		for _, item := range num.Dropped {
			l.WarnContext(ctx, "dropping non-numeric array item",
				slog.String("resource", n.String()),
				slog.String("item", item),
			)
		}

		a.Numbers = num

	case kind.Bool:
		for _, item := range v.Items {
			switch strings.ToLower(item) {
			case "true":
				a.Bools = append(a.Bools, true)
			case "false":
				a.Bools = append(a.Bools, false)
			default:
				l.WarnContext(ctx, "dropping non-boolean array item",
					slog.String("resource", n.String()),
					slog.String("item", item),
				)
			}
		}

	default:
		a.Strings = append([]string(nil), v.Items...)
	}

	return a, nil
}
