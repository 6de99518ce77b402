// Package resolve binds references between resources.
//
// A pure reference aliases its target and must exist: every dangling pure
// reference in a model is reported together, and a chain of pure
// references that loops back on itself is an error. References embedded
// in text are substituted with the text of their targets. An embedded
// reference that cannot be resolved, or that would re-enter a resource
// already being resolved, keeps its literal marker text instead.
package resolve

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/ardnew/resgen/ir"
	"github.com/ardnew/resgen/kind"
	"github.com/ardnew/resgen/log"
	"github.com/ardnew/resgen/pkg"
	"github.com/ardnew/resgen/ref"
)

var (
	ErrDanglingReference = pkg.NewError("dangling reference")
	ErrReferenceCycle    = pkg.NewError("reference cycle")
)

// Resolution is a model with its references bound.
type Resolution struct {
	model    *ir.Model
	fallback *Resolution
	logger   log.Logger

	direct map[*ir.Node]*ir.Node
	target map[*ir.Node]*ir.Node
	text   map[*ir.Node]string
}

// Option configures [Resolve].
type Option func(options) options

type options struct {
	logger   log.Logger
	fallback *Resolution
}

// WithLogger sets the logger that reports unresolved embedded references.
func WithLogger(l log.Logger) Option {
	return func(o options) options {
		o.logger = l

		return o
	}
}

// WithFallback continues lookups that fail in the model being resolved in
// an already resolved model.
func WithFallback(r *Resolution) Option {
	return func(o options) options {
		o.fallback = r

		return o
	}
}

// Resolve binds every reference of m.
func Resolve(ctx context.Context, m *ir.Model, opts ...Option) (*Resolution, error) {
	o := options{logger: log.Nop()}

	for _, opt := range opts {
		o = opt(o)
	}

	r := &Resolution{
		model:    m,
		fallback: o.fallback,
		logger:   o.logger,
		direct:   make(map[*ir.Node]*ir.Node),
		target:   make(map[*ir.Node]*ir.Node),
		text:     make(map[*ir.Node]string),
	}

	var (
		errs   pkg.Errors
		inline = make(map[*ir.Node][]ref.Part)
	)

	for n := range m.All() {
		v, ok := n.Value.(ir.Reference)
		if !ok {
			continue
		}

		t, err := r.bind(n, v.Ref)
		if err != nil {
			// @url/base/path with only url/base declared reads as the
			// text of url/base followed by /path.
			if r.shortened(v.Ref) {
				inline[n] = []ref.Part{{Ref: v.Ref, IsRef: true}}

				continue
			}

			errs.Add(err)

			continue
		}

		r.direct[n] = t
	}

	if errs.Len() > 0 {
		return nil, ErrDanglingReference.Wrap(errs.Join())
	}

	if err := r.follow(ctx); err != nil {
		return nil, err
	}

	for n := range m.All() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if v, ok := n.Value.(ir.Interpolation); ok {
			r.text[n] = r.interpolate(ctx, n, v.Parts)
		} else if parts, ok := inline[n]; ok {
			r.text[n] = r.interpolate(ctx, n, parts)
		}
	}

	return r, nil
}

// bind finds the direct target of a pure reference declared by n.
func (r *Resolution) bind(n *ir.Node, to ref.Ref) (*ir.Node, error) {
	k, ok := kind.Parse(to.Kind)
	if !ok || !r.has(k) {
		return nil, fmt.Errorf(
			"Invalid reference in %s: resource type '%s' does not exist",
			n, to.Kind,
		)
	}

	t, ok := r.Lookup(k, to.Key)
	if !ok {
		return nil, fmt.Errorf(
			"Unresolved reference in %s: %s does not exist%s",
			n, to, r.suggest(k, to),
		)
	}

	return t, nil
}

// shortened reports whether a reference with a missing key names an
// existing resource once its key is cut at a '/' boundary.
func (r *Resolution) shortened(to ref.Ref) bool {
	k, ok := kind.Parse(to.Kind)
	if !ok {
		return false
	}

	for _, split := range to.Prefixes()[1:] {
		if _, ok := r.Lookup(k, split.Ref.Key); ok {
			return true
		}
	}

	return false
}

func (r *Resolution) has(k kind.Kind) bool {
	for s := r; s != nil; s = s.fallback {
		if s.model.Has(k) {
			return true
		}
	}

	return false
}

// suggest returns a hint naming the closest existing key, if any.
func (r *Resolution) suggest(k kind.Kind, to ref.Ref) string {
	var keys []string

	for s := r; s != nil; s = s.fallback {
		keys = append(keys, s.model.Keys(k)...)
	}

	matches := fuzzy.Find(ir.ParseKey(to.Key).Path(), keys)
	if len(matches) == 0 {
		return ""
	}

	return " (did you mean @" + to.Kind + "/" + matches[0].Str + "?)"
}

// follow records the ultimate target of every pure reference.
func (r *Resolution) follow(ctx context.Context) error {
	const (
		visiting = iota + 1
		done
	)

	state := make(map[*ir.Node]int, len(r.direct))

	var errs pkg.Errors

	for n := range r.model.All() {
		if _, ok := r.direct[n]; !ok || state[n] == done {
			continue
		}

		var chain []*ir.Node

		cur := n
		for {
			if state[cur] == visiting {
				errs.Add(cycleError(chain, cur))

				cur = nil

				break
			}

			if t, ok := r.target[cur]; ok || state[cur] == done {
				cur = t

				break
			}

			next, ok := r.next(cur)
			if !ok {
				break
			}

			state[cur] = visiting
			chain = append(chain, cur)
			cur = next
		}

		for _, c := range chain {
			state[c] = done

			if cur != nil {
				r.target[c] = cur
			}
		}
	}

	if errs.Len() > 0 {
		return ErrReferenceCycle.Wrap(errs.Join())
	}

	r.logger.TraceContext(ctx, "bound references", slog.Int("count", len(r.target)))

	return nil
}

// next returns the direct target of n when n is a pure reference, in this
// resolution or the one it falls back on.
func (r *Resolution) next(n *ir.Node) (*ir.Node, bool) {
	for s := r; s != nil; s = s.fallback {
		if t, ok := s.direct[n]; ok {
			return t, true
		}
	}

	return nil, false
}

func cycleError(chain []*ir.Node, back *ir.Node) error {
	var b strings.Builder

	start := 0
	for i, c := range chain {
		if c == back {
			start = i
		}
	}

	for _, c := range chain[start:] {
		b.WriteString(c.String())
		b.WriteString(" -> ")
	}

	b.WriteString(back.String())

	return fmt.Errorf("Reference cycle: %s", b.String())
}

// interpolate substitutes the embedded references of n.
func (r *Resolution) interpolate(ctx context.Context, n *ir.Node, parts []ref.Part) string {
	visited := map[string]bool{token(n): true}

	return r.join(ctx, n, parts, visited)
}

func (r *Resolution) join(ctx context.Context, n *ir.Node, parts []ref.Part, visited map[string]bool) string {
	var b strings.Builder

	for _, p := range parts {
		if !p.IsRef {
			b.WriteString(p.Text)

			continue
		}

		s, ok := r.embed(ctx, p.Ref, visited)
		if !ok {
			r.logger.DebugContext(ctx, "keeping unresolved reference text",
				slog.String("resource", n.String()),
				slog.String("reference", p.Ref.String()),
			)

			s = p.Raw()
		}

		b.WriteString(s)
	}

	return b.String()
}

// embed returns the text of the resource named by an embedded marker,
// trying the whole marker first and then each shorter key at a '/'
// boundary, with the cut text appended.
func (r *Resolution) embed(ctx context.Context, to ref.Ref, visited map[string]bool) (string, bool) {
	k, ok := kind.Parse(to.Kind)
	if !ok {
		return "", false
	}

	for _, split := range to.Prefixes() {
		n, ok := r.Lookup(k, split.Ref.Key)
		if !ok {
			continue
		}

		tok := token(n)
		if visited[tok] {
			return "", false
		}

		visited[tok] = true
		s, ok := r.textOf(ctx, n, visited)
		delete(visited, tok)

		if !ok {
			return "", false
		}

		return s + split.Suffix, true
	}

	return "", false
}

func (r *Resolution) textOf(ctx context.Context, n *ir.Node, visited map[string]bool) (string, bool) {
	switch v := n.Value.(type) {
	case ir.Literal:
		return v.Text, true
	case ir.Number:
		return strings.TrimSpace(v.Literal), true
	case ir.Bool:
		return strconv.FormatBool(v.Value), true
	case ir.Reference:
		return r.embed(ctx, v.Ref, visited)
	case ir.Interpolation:
		return r.join(ctx, n, v.Parts, visited), true
	}

	return "", false
}

func token(n *ir.Node) string {
	return n.Kind.String() + ":" + n.Key.Path()
}

// Model returns the resolved model.
func (r *Resolution) Model() *ir.Model { return r.model }

// Fallback returns the resolution lookups fall back on, if any.
func (r *Resolution) Fallback() *Resolution { return r.fallback }

// Lookup finds a resource in this resolution, then in its fallback.
func (r *Resolution) Lookup(k kind.Kind, key string) (*ir.Node, bool) {
	for s := r; s != nil; s = s.fallback {
		if n, ok := s.model.Lookup(k, key); ok {
			return n, true
		}
	}

	return nil, false
}

// Owns reports whether n belongs to this resolution rather than its
// fallback.
func (r *Resolution) Owns(n *ir.Node) bool {
	m, ok := r.model.Lookup(n.Kind, n.Key.Path())

	return ok && m == n
}

// Direct returns the resource a pure reference names.
func (r *Resolution) Direct(n *ir.Node) (*ir.Node, bool) {
	return r.next(n)
}

// Target returns the first resource in the chain of pure references
// starting at n that is not itself a reference. A node that is not a
// reference is its own target.
func (r *Resolution) Target(n *ir.Node) *ir.Node {
	for s := r; s != nil; s = s.fallback {
		if t, ok := s.target[n]; ok {
			return t
		}
	}

	return n
}

// Text returns the substituted text of an interpolation. A pure reference
// that only resolves once shortened also has text.
func (r *Resolution) Text(n *ir.Node) (string, bool) {
	for s := r; s != nil; s = s.fallback {
		if t, ok := s.text[n]; ok {
			return t, true
		}
	}

	return "", false
}
