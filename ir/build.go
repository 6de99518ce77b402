// Package ir holds the intermediate representation of a resource set.
//
// A [Table] merges the declarations of several files. [Build] turns the
// table into a [Model]: one node per resource keyed by sanitized namespace
// path, with references and interpolations recognized and a sorted
// namespace [Tree] per kind.
package ir

import (
	"context"
	"iter"
	"log/slog"
	"slices"

	"github.com/ardnew/resgen/kind"
	"github.com/ardnew/resgen/log"
	"github.com/ardnew/resgen/parse"
	"github.com/ardnew/resgen/ref"
)

// Node is one resource of the model.
type Node struct {
	Kind   kind.Kind
	Key    Key
	Value  Value
	Doc    string
	Origin parse.Position
}

// Ref returns the reference naming n.
func (n *Node) Ref() ref.Ref {
	return ref.Ref{Kind: n.Kind.String(), Key: n.Key.Path()}
}

func (n *Node) String() string { return n.Kind.String() + "." + n.Key.Path() }

// Model is the built resource set.
type Model struct {
	nodes map[kind.Kind][]*Node
	index map[kind.Kind]map[string]*Node
	trees map[kind.Kind]*Tree
}

// Option configures [Build].
type Option func(options) options

type options struct {
	logger log.Logger
}

// WithLogger sets the logger that reports duplicate and unnamed resources.
func WithLogger(l log.Logger) Option {
	return func(o options) options {
		o.logger = l

		return o
	}
}

// Build converts the declarations of t into a model. When a kind declares
// the same key more than once, the last declaration wins.
func Build(ctx context.Context, t *Table, opts ...Option) (*Model, error) {
	o := options{logger: log.Nop()}

	for _, opt := range opts {
		o = opt(o)
	}

	m := &Model{
		nodes: make(map[kind.Kind][]*Node),
		index: make(map[kind.Kind]map[string]*Node),
		trees: make(map[kind.Kind]*Tree),
	}

	for k, entries := range t.All() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		index := make(map[string]*Node, len(entries))

		for _, r := range entries {
			n := &Node{
				Kind:   k,
				Key:    ParseKey(r.Name),
				Value:  convert(r.Value),
				Doc:    r.Doc,
				Origin: r.Pos,
			}

			if !n.Key.Valid() {
				o.logger.WarnContext(ctx, "dropping resource with empty name",
					slog.String("kind", k.String()),
					slog.String("name", r.Name),
					slog.String("pos", r.Pos.String()),
				)

				continue
			}

			path := n.Key.Path()

			if prev, dup := index[path]; dup {
				o.logger.WarnContext(ctx, "duplicate resource, last declaration wins",
					slog.String("resource", n.String()),
					slog.String("previous", prev.Origin.String()),
					slog.String("current", n.Origin.String()),
				)

				*prev = *n

				continue
			}

			index[path] = n
			m.nodes[k] = append(m.nodes[k], n)
		}

		tree := newTree()
		for _, n := range m.nodes[k] {
			tree.insert(n)
		}

		tree.sort()

		m.index[k] = index
		m.trees[k] = tree
	}

	return m, nil
}

// convert recognizes references in declaration text.
func convert(v parse.Value) Value {
	switch v := v.(type) {
	case parse.Text:
		if r, ok := ref.Parse(v.Text); ok {
			return Reference{Ref: r}
		}

		if ref.HasMarker(v.Text) {
			return Interpolation{Parts: ref.Scan(v.Text)}
		}

		return Literal{Text: v.Text}

	case parse.Number:
		return Number{Literal: v.Literal, Type: v.Type}

	case parse.Bool:
		return Bool{Value: v.Value}

	case parse.Array:
		return Array{Elem: v.Elem, Spec: v.Spec, Items: v.Items}

	case parse.Template:
		return Template{Text: v.Text, Params: v.Params}
	}

	return Literal{}
}

// Kinds yields the kinds that have at least one resource, in kind order.
func (m *Model) Kinds() iter.Seq[kind.Kind] {
	return func(yield func(kind.Kind) bool) {
		for k := range kind.All() {
			if m.Has(k) && !yield(k) {
				return
			}
		}
	}
}

// Has reports whether kind k has any resource.
func (m *Model) Has(k kind.Kind) bool {
	return m != nil && len(m.nodes[k]) > 0
}

// Nodes returns the resources of kind k in declaration order.
func (m *Model) Nodes(k kind.Kind) []*Node {
	if m == nil {
		return nil
	}

	return m.nodes[k]
}

// All yields every resource, grouped by kind in kind order.
func (m *Model) All() iter.Seq[*Node] {
	return func(yield func(*Node) bool) {
		for k := range m.Kinds() {
			for _, n := range m.nodes[k] {
				if !yield(n) {
					return
				}
			}
		}
	}
}

// Lookup returns the resource of kind k named key. The key is sanitized
// the same way declared names are.
func (m *Model) Lookup(k kind.Kind, key string) (*Node, bool) {
	if m == nil {
		return nil, false
	}

	n, ok := m.index[k][ParseKey(key).Path()]

	return n, ok
}

// Tree returns the namespace tree of kind k.
func (m *Model) Tree(k kind.Kind) *Tree {
	if m == nil {
		return nil
	}

	return m.trees[k]
}

// Keys returns the sorted paths of every resource of kind k.
func (m *Model) Keys(k kind.Kind) []string {
	nodes := m.Nodes(k)
	keys := make([]string, len(nodes))

	for i, n := range nodes {
		keys[i] = n.Key.Path()
	}

	slices.Sort(keys)

	return keys
}

// Len returns the number of resources in m.
func (m *Model) Len() int {
	if m == nil {
		return 0
	}

	n := 0
	for _, nodes := range m.nodes {
		n += len(nodes)
	}

	return n
}
