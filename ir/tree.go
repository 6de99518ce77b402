package ir

import (
	"iter"
	"maps"
	"slices"
	"strings"
)

// Tree is the namespace hierarchy of one kind.
type Tree struct {
	children map[string]*Tree
	leaves   []*Node
}

func newTree() *Tree {
	return &Tree{children: make(map[string]*Tree)}
}

func (t *Tree) insert(n *Node) {
	node := t

	for _, seg := range n.Key.Namespace {
		child, ok := node.children[seg]
		if !ok {
			child = newTree()
			node.children[seg] = child
		}

		node = child
	}

	node.leaves = append(node.leaves, n)
}

func (t *Tree) sort() {
	slices.SortStableFunc(t.leaves, func(a, b *Node) int {
		return strings.Compare(a.Key.Name, b.Key.Name)
	})

	for _, c := range t.children {
		c.sort()
	}
}

// Children yields the child namespaces in lexical order of their names.
func (t *Tree) Children() iter.Seq2[string, *Tree] {
	return func(yield func(string, *Tree) bool) {
		if t == nil {
			return
		}

		for _, name := range slices.Sorted(maps.Keys(t.children)) {
			if !yield(name, t.children[name]) {
				return
			}
		}
	}
}

// Child returns the child namespace with the given name.
func (t *Tree) Child(name string) (*Tree, bool) {
	if t == nil {
		return nil, false
	}

	c, ok := t.children[name]

	return c, ok
}

// Leaves returns the resources declared directly in t, sorted by name.
func (t *Tree) Leaves() []*Node {
	if t == nil {
		return nil
	}

	return t.leaves
}

// Empty reports whether t holds no resources.
func (t *Tree) Empty() bool {
	return t == nil || len(t.children) == 0 && len(t.leaves) == 0
}

// Walk yields every resource under t depth-first, child namespaces before
// leaves.
func (t *Tree) Walk() iter.Seq[*Node] {
	return func(yield func(*Node) bool) {
		t.walk(yield)
	}
}

func (t *Tree) walk(yield func(*Node) bool) bool {
	for _, c := range t.Children() {
		if !c.walk(yield) {
			return false
		}
	}

	for _, n := range t.Leaves() {
		if !yield(n) {
			return false
		}
	}

	return true
}
