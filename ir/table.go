package ir

import (
	"iter"

	"github.com/ardnew/resgen/kind"
	"github.com/ardnew/resgen/parse"
)

// File is the parse result of one resource file.
type File struct {
	Path      string
	Resources []parse.Resource
}

// Table groups the declarations of many files by kind. Within a kind,
// declarations keep file order, then document order.
type Table struct {
	entries map[kind.Kind][]parse.Resource
}

// Merge returns a table holding the declarations of files in order.
func Merge(files ...File) *Table {
	t := &Table{entries: make(map[kind.Kind][]parse.Resource)}

	for _, f := range files {
		t.Add(f)
	}

	return t
}

// Add appends the declarations of f.
func (t *Table) Add(f File) {
	if t.entries == nil {
		t.entries = make(map[kind.Kind][]parse.Resource)
	}

	for _, r := range f.Resources {
		t.entries[r.Kind] = append(t.entries[r.Kind], r)
	}
}

// Entries returns the declarations of kind k.
func (t *Table) Entries(k kind.Kind) []parse.Resource {
	if t == nil {
		return nil
	}

	return t.entries[k]
}

// All yields every kind with its declarations, in kind order.
func (t *Table) All() iter.Seq2[kind.Kind, []parse.Resource] {
	return func(yield func(kind.Kind, []parse.Resource) bool) {
		for k := range kind.All() {
			if e := t.Entries(k); len(e) > 0 && !yield(k, e) {
				return
			}
		}
	}
}

// Len returns the number of declarations in t.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}

	n := 0
	for _, e := range t.entries {
		n += len(e)
	}

	return n
}
