package check

import (
	"github.com/ardnew/resgen/ir"
	"github.com/ardnew/resgen/kind"
	"github.com/ardnew/resgen/numeric"
	"github.com/ardnew/resgen/resolve"
	"github.com/ardnew/resgen/tmpl"
)

func (p *Program) Resolution() *resolve.Resolution { return p.res }

func (p *Program) Model() *ir.Model { return p.res.Model() }

func (p *Program) Fallback() *Program { return p.fallback }

// Owns reports whether n is declared in this program rather than its
// fallback.
func (p *Program) Owns(n *ir.Node) bool { return p.res.Owns(n) }

func (p *Program) Number(n *ir.Node) (numeric.Value, bool) {
	for s := p; s != nil; s = s.fallback {
		if v, ok := s.numbers[n]; ok {
			return v, true
		}
	}

	return numeric.Value{}, false
}

func (p *Program) Array(n *ir.Node) (Array, bool) {
	for s := p; s != nil; s = s.fallback {
		if v, ok := s.arrays[n]; ok {
			return v, true
		}
	}

	return Array{}, false
}

func (p *Program) Template(n *ir.Node) (tmpl.Compiled, bool) {
	for s := p; s != nil; s = s.fallback {
		if v, ok := s.templates[n]; ok {
			return v, true
		}
	}

	return tmpl.Compiled{}, false
}

// Dropped reports whether n was left out of the program.
func (p *Program) Dropped(n *ir.Node) bool {
	for s := p; s != nil; s = s.fallback {
		if s.dropped[n] {
			return true
		}
	}

	return false
}

// Nodes returns the resources of kind k that were not dropped, in
// declaration order.
func (p *Program) Nodes(k kind.Kind) []*ir.Node {
	var nodes []*ir.Node

	for _, n := range p.Model().Nodes(k) {
		if !p.dropped[n] {
			nodes = append(nodes, n)
		}
	}

	return nodes
}

// Len returns the number of resources that were not dropped.
func (p *Program) Len() int {
	return p.Model().Len() - len(p.dropped)
}

// Value returns the build-time value of n: a string, bool, number of the
// classified Go type, *big.Rat, slice or [tmpl.Compiled].
func (p *Program) Value(n *ir.Node) (any, bool) {
	if p.Dropped(n) {
		return nil, false
	}

	if s, ok := p.res.Text(n); ok {
		return s, true
	}

	switch v := n.Value.(type) {
	case ir.Literal:
		return v.Text, true

	case ir.Bool:
		return v.Value, true

	case ir.Number:
		num, ok := p.Number(n)
		if !ok {
			return nil, false
		}

		return num.Go(), true

	case ir.Reference:
		t := p.res.Target(n)
		if t == n {
			return nil, false
		}

		return p.Value(t)

	case ir.Array:
		a, ok := p.Array(n)
		if !ok {
			return nil, false
		}

		switch a.Elem {
		case kind.Number:
			items := make([]any, len(a.Numbers.Items))
			for i, item := range a.Numbers.Items {
				items[i] = item.Go()
			}

			return items, true
		case kind.Bool:
			return a.Bools, true
		default:
			return a.Strings, true
		}

	case ir.Template:
		return p.Template(n)
	}

	return nil, false
}
