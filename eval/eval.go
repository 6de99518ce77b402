// Package eval evaluates expressions against compiled resources.
//
// The environment mirrors the generated Go API: each kind is a nested map
// named like its namespace variable (String.ui.TITLE becomes
// String.Ui.TITLE), the flat namespace is the map R (RTests for test-only
// resources), and every template is a function named by its sanitized
// full name.
package eval

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/zeebo/xxh3"

	"github.com/ardnew/resgen/check"
	"github.com/ardnew/resgen/compile"
	"github.com/ardnew/resgen/emit"
	"github.com/ardnew/resgen/kind"
	"github.com/ardnew/resgen/log"
	"github.com/ardnew/resgen/pkg"
	"github.com/ardnew/resgen/tmpl"
)

var (
	ErrCompile  = pkg.NewError("expression compilation failed")
	ErrEvaluate = pkg.NewError("expression evaluation failed")
	ErrEmpty    = pkg.NewError("empty expression")
)

// Env is an expression environment. It is safe for concurrent use.
type Env struct {
	vars   map[string]any
	funcs  map[string]tmpl.Compiled
	opts   []expr.Option
	names  []string
	logger log.Logger

	programs sync.Map
}

// Option configures [New].
type Option func(options) options

type options struct {
	logger log.Logger
}

// WithLogger sets the logger that reports evaluations.
func WithLogger(l log.Logger) Option {
	return func(o options) options {
		o.logger = l

		return o
	}
}

// New returns the environment of res.
func New(res *compile.Result, opts ...Option) *Env {
	o := options{logger: log.Nop()}

	for _, opt := range opts {
		o = opt(o)
	}

	e := &Env{
		vars:   make(map[string]any),
		funcs:  make(map[string]tmpl.Compiled),
		logger: o.logger,
	}

	e.add(res.Output.Main, res.Program)

	if res.Output.Tests != nil && res.Tests != nil {
		e.add(res.Output.Tests, res.Tests)
	}

	names := make([]string, 0, len(e.funcs))
	for name := range e.funcs {
		names = append(names, name)
	}

	sort.Strings(names)

	for _, name := range names {
		if _, ok := e.vars[name]; ok {
			e.logger.Warn("template function shadows a variable, skipping",
				slog.String("name", name),
			)
			delete(e.funcs, name)

			continue
		}

		c := e.funcs[name]
		e.opts = append(e.opts, expr.Function(name, func(args ...any) (any, error) {
			return c.Render(args...)
		}))
	}

	for name := range e.funcs {
		e.names = append(e.names, name)
	}

	e.names = append(e.names, paths("", e.vars)...)
	slices.Sort(e.names)

	return e
}

func (e *Env) add(l *emit.Layout, prog *check.Program) {
	flat := make(map[string]any)
	e.vars[l.Scope().Flat] = flat

	for _, ent := range l.Entries() {
		v, ok := prog.Value(ent.Node)
		if !ok {
			continue
		}

		v = native(v)

		if c, ok := v.(tmpl.Compiled); ok {
			name := kind.Sanitize(ent.Key)
			if p := l.Scope().Prefix; p != "" {
				name = p + "_" + name
			}

			e.funcs[name] = c
			v = c.Signature()
		}

		flat[ent.Field] = v

		if ent.Var == "" {
			continue
		}

		m, _ := e.vars[ent.Var].(map[string]any)
		if m == nil {
			m = make(map[string]any)
			e.vars[ent.Var] = m
		}

		for _, seg := range ent.Path[:len(ent.Path)-1] {
			child, _ := m[seg].(map[string]any)
			if child == nil {
				child = make(map[string]any)
				m[seg] = child
			}

			m = child
		}

		m[ent.Path[len(ent.Path)-1]] = v
	}
}

// native converts build-time values to types expressions can operate on.
func native(v any) any {
	switch v := v.(type) {
	case *big.Rat:
		f, _ := v.Float64()

		return f
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = native(item)
		}

		return out
	}

	return v
}

func paths(prefix string, m map[string]any) []string {
	var out []string

	for k, v := range m {
		name := k
		if prefix != "" {
			name = prefix + "." + k
		}

		out = append(out, name)

		if child, ok := v.(map[string]any); ok {
			out = append(out, paths(name, child)...)
		}
	}

	return out
}

// Names returns every variable path and function name, sorted.
func (e *Env) Names() []string { return slices.Clone(e.names) }

// Funcs returns the template functions with their Go signatures.
func (e *Env) Funcs() map[string]string {
	out := make(map[string]string, len(e.funcs))
	for name, c := range e.funcs {
		out[name] = c.FuncType()
	}

	return out
}

// Vars returns the top-level variables.
func (e *Env) Vars() map[string]any { return e.vars }

// Eval compiles and runs src. Compiled programs are cached by source.
func (e *Env) Eval(ctx context.Context, src string) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	src = strings.TrimSpace(src)
	if src == "" {
		return nil, ErrEmpty
	}

	prog, err := e.compile(src)
	if err != nil {
		return nil, err
	}

	out, err := vm.Run(prog, e.vars)
	if err != nil {
		return nil, ErrEvaluate.Wrap(err).With(slog.String("source", src))
	}

	e.logger.TraceContext(ctx, "evaluated expression",
		slog.String("source", src),
		slog.String("result", fmt.Sprint(out)),
	)

	return out, nil
}

func (e *Env) compile(src string) (*vm.Program, error) {
	key := xxh3.HashString(src)

	if p, ok := e.programs.Load(key); ok {
		return p.(*vm.Program), nil
	}

	opts := append([]expr.Option{expr.Env(e.vars)}, e.opts...)

	p, err := expr.Compile(src, opts...)
	if err != nil {
		return nil, ErrCompile.Wrap(err).With(slog.String("source", src))
	}

	e.programs.Store(key, p)

	return p, nil
}
