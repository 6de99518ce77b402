package emit

import (
	"context"
	"log/slog"
	"slices"
	"strconv"
	"strings"

	"github.com/ardnew/resgen/check"
	"github.com/ardnew/resgen/ir"
	"github.com/ardnew/resgen/kind"
	"github.com/ardnew/resgen/log"
	"github.com/ardnew/resgen/numeric"
)

// Scope names the identifiers of one generated file.
type Scope struct {
	// Prefix is prepended to every exported identifier.
	Prefix string
	// Flat is the name of the flat namespace variable.
	Flat string
	// Rat is the name of the decimal constructor helper.
	Rat string
}

var (
	MainScope  = Scope{Prefix: "", Flat: "R", Rat: "resgenRat"}
	TestsScope = Scope{Prefix: "RTests", Flat: "RTests", Rat: "resgenTestsRat"}
)

// typeBase returns the prefix of unexported type names.
func (s Scope) typeBase() string {
	if s.Prefix == "" {
		return ""
	}

	return strings.ToLower(s.Prefix[:1]) + s.Prefix[1:]
}

func (s Scope) flatType() string {
	return strings.ToLower(s.Flat[:1]) + s.Flat[1:] + "Flat"
}

// Storage is how a definition is declared.
type Storage int

const (
	Const Storage = iota
	Var
	Func
)

func (s Storage) String() string {
	switch s {
	case Var:
		return "var"
	case Func:
		return "func"
	default:
		return "const"
	}
}

// Entry describes the generated names of one resource.
type Entry struct {
	Kind    string `json:"kind"              yaml:"kind"`
	Key     string `json:"key"               yaml:"key"`
	Ident   string `json:"ident"             yaml:"ident"`
	Nested  string `json:"nested"            yaml:"nested"`
	Flat    string `json:"flat"              yaml:"flat"`
	Type    string `json:"type"              yaml:"type"`
	Storage string `json:"storage"           yaml:"storage"`
	Alias   string `json:"alias,omitempty"   yaml:"alias,omitempty"`
	Doc     string `json:"doc,omitempty"     yaml:"doc,omitempty"`
	Value   any    `json:"value,omitempty"   yaml:"value,omitempty"`
	Origin  string `json:"origin,omitempty"  yaml:"origin,omitempty"`

	Node *ir.Node `json:"-" yaml:"-"`
	// Var and Path locate the resource in the nested namespace variable.
	Var  string   `json:"-" yaml:"-"`
	Path []string `json:"-" yaml:"-"`
	// Field is the name of the resource in the flat namespace.
	Field string `json:"-" yaml:"-"`
}

// Namespace is a generated struct type mirroring one namespace.
type Namespace struct {
	Type   string
	Fields []Field
}

// Field is a member of a namespace struct: either a child namespace or a
// resource.
type Field struct {
	Name  string
	Type  string
	Child *Namespace
	Node  *ir.Node
}

// Layout assigns the generated names of one program.
type Layout struct {
	scope    Scope
	prog     *check.Program
	fallback *Layout
	logger   log.Logger

	used   map[string]bool
	ident  map[*ir.Node]string
	roots  []root
	flat   []Field
	byNode map[*ir.Node]*Entry
	entry  []*Entry
}

type root struct {
	kind kind.Kind
	name string
	ns   *Namespace
}

// Plan lays out the generated names of prog. Identifiers of resources
// that prog reaches through its fallback come from fallback.
func Plan(ctx context.Context, prog *check.Program, scope Scope, fallback *Layout, logger log.Logger) *Layout {
	l := &Layout{
		scope:    scope,
		prog:     prog,
		fallback: fallback,
		logger:   logger,
		used:     make(map[string]bool),
		ident:    make(map[*ir.Node]string),
		byNode:   make(map[*ir.Node]*Entry),
	}

	l.used[scope.Flat] = true
	l.used[scope.Rat] = true
	l.used[scope.flatType()] = true

	for k := range kind.All() {
		l.used[scope.Prefix+k.Title()] = true
	}

	for k := range prog.Model().Kinds() {
		for _, n := range l.sorted(k) {
			l.ident[n] = l.unique(l.defIdent(n))

			e := &Entry{
				Kind:    k.String(),
				Key:     n.Key.Path(),
				Ident:   l.ident[n],
				Type:    l.goType(n),
				Storage: l.storage(n).String(),
				Doc:     n.Doc,
				Origin:  n.Origin.String(),
				Node:    n,
			}

			if v, ok := prog.Value(n); ok {
				e.Value = manifestValue(v)
			}

			l.entry = append(l.entry, e)
			l.byNode[n] = e
		}
	}

	for _, e := range l.entry {
		if d, ok := l.alias(e.Node); ok {
			e.Alias = l.identOf(d)
		}
	}

	for k := range prog.Model().Kinds() {
		name := scope.Prefix + k.Title()

		ns := l.namespace(k, prog.Model().Tree(k), l.typeName(strings.ToLower(k.Title())), []string{})
		if ns == nil {
			continue
		}

		l.roots = append(l.roots, root{kind: k, name: name, ns: ns})
	}

	l.flatten(ctx)

	return l
}

func (l *Layout) sorted(k kind.Kind) []*ir.Node {
	nodes := l.prog.Nodes(k)

	slices.SortStableFunc(nodes, func(a, b *ir.Node) int {
		return strings.Compare(a.Key.Path(), b.Key.Path())
	})

	return nodes
}

// unique returns name, or name with a numeric suffix when it is taken,
// and marks the result taken.
func (l *Layout) unique(name string) string {
	name = suffixed(name, func(s string) bool { return l.used[s] })
	l.used[name] = true

	return name
}

func suffixed(name string, taken func(string) bool) string {
	if !taken(name) {
		return name
	}

	for i := 2; ; i++ {
		if s := name + "_" + strconv.Itoa(i); !taken(s) {
			return s
		}
	}
}

// defIdent returns the identifier of the definition of n:
// <Kind>_<namespace segments>_<LEAF>. Template leaves keep their case.
func (l *Layout) defIdent(n *ir.Node) string {
	parts := []string{l.scope.Prefix + n.Kind.Title()}
	parts = append(parts, n.Key.Namespace...)

	if n.Kind == kind.Template {
		parts = append(parts, n.Key.Name)
	} else {
		parts = append(parts, kind.Upper(n.Key.Name))
	}

	return strings.Join(parts, "_")
}

func (l *Layout) typeName(base string) string {
	if p := l.scope.typeBase(); p != "" {
		base = p + kind.Export(base)
	}

	return l.unique(base + "NS")
}

// namespace builds the struct type of tree t. It returns nil when no
// resource below t survived checking.
func (l *Layout) namespace(k kind.Kind, t *ir.Tree, typ string, path []string) *Namespace {
	ns := &Namespace{Type: typ}
	base := strings.TrimSuffix(typ, "NS")
	fields := make(map[string]bool)

	field := func(name string) string {
		name = suffixed(name, func(s string) bool { return fields[s] })
		fields[name] = true

		return name
	}

	for seg, child := range t.Children() {
		name := field(kind.Export(seg))

		c := l.namespace(k, child, l.unique(base+kind.Export(seg)+"NS"), append(slices.Clone(path), name))
		if c == nil {
			delete(fields, name)

			continue
		}

		ns.Fields = append(ns.Fields, Field{Name: name, Type: c.Type, Child: c})
	}

	for _, n := range t.Leaves() {
		if l.prog.Dropped(n) {
			continue
		}

		name := kind.Export(kind.Upper(n.Key.Name))
		if k == kind.Template {
			name = kind.Export(n.Key.Name)
		}

		name = field(name)
		ns.Fields = append(ns.Fields, Field{Name: name, Type: l.goType(n), Node: n})

		if e := l.byNode[n]; e != nil {
			e.Var = l.scope.Prefix + k.Title()
			e.Path = append(slices.Clone(path), name)
			e.Nested = e.Var + "." + strings.Join(e.Path, ".")
		}
	}

	if len(ns.Fields) == 0 {
		delete(l.used, typ)

		return nil
	}

	return ns
}

// flatten assigns the flat namespace field of every resource. Names that
// collide across kinds take a kind suffix.
func (l *Layout) flatten(ctx context.Context) {
	fields := make(map[string]*ir.Node)
	taken := func(s string) bool { return fields[s] != nil }

	for _, e := range l.entry {
		n := e.Node

		name := kind.Export(kind.Upper(n.Key.Path()))
		if n.Kind == kind.Template {
			name = kind.Export(kind.Sanitize(n.Key.Path()))
		}

		if prev, ok := fields[name]; ok {
			renamed := suffixed(name+"_"+strings.ToUpper(n.Kind.String()), taken)

			l.logger.WarnContext(ctx, "flat name collision, adding kind suffix",
				slog.String("name", name),
				slog.String("resource", n.String()),
				slog.String("other", prev.String()),
				slog.String("renamed", renamed),
			)

			name = renamed
		}

		fields[name] = n
		e.Field = name
		e.Flat = l.scope.Flat + "." + name
		l.flat = append(l.flat, Field{Name: name, Type: e.Type, Node: n})
	}
}

// identOf returns the definition identifier of n, which may belong to the
// fallback layout.
func (l *Layout) identOf(n *ir.Node) string {
	for s := l; s != nil; s = s.fallback {
		if id, ok := s.ident[n]; ok {
			return id
		}
	}

	return ""
}

// alias returns the resource a pure reference is declared as an alias of.
func (l *Layout) alias(n *ir.Node) (*ir.Node, bool) {
	if _, ok := n.Value.(ir.Reference); !ok {
		return nil, false
	}

	if _, ok := l.prog.Resolution().Text(n); ok {
		return nil, false
	}

	return l.prog.Resolution().Direct(n)
}

// target returns the resource whose value n has.
func (l *Layout) target(n *ir.Node) *ir.Node {
	if _, ok := l.alias(n); ok {
		return l.prog.Resolution().Target(n)
	}

	return n
}

func (l *Layout) storage(n *ir.Node) Storage {
	if _, ok := l.alias(n); ok {
		if s := l.storage(l.target(n)); s != Const {
			return Var
		}

		return Const
	}

	if _, ok := l.prog.Resolution().Text(n); ok {
		return Const
	}

	switch n.Value.(type) {
	case ir.Number:
		if num, _ := l.prog.Number(n); num.Repr == numeric.Decimal {
			return Var
		}
	case ir.Array:
		return Var
	case ir.Template:
		return Func
	}

	return Const
}

// goType returns the Go type of the value of n.
func (l *Layout) goType(n *ir.Node) string {
	t := l.target(n)

	if _, ok := l.prog.Resolution().Text(t); ok {
		return "string"
	}

	switch t.Value.(type) {
	case ir.Bool:
		return "bool"

	case ir.Number:
		num, _ := l.prog.Number(t)

		return numberType(num.Repr)

	case ir.Array:
		a, _ := l.prog.Array(t)

		switch a.Elem {
		case kind.Number:
			return "[]" + numberType(a.Numbers.Repr)
		case kind.Bool:
			return "[]bool"
		default:
			return "[]string"
		}

	case ir.Template:
		c, _ := l.prog.Template(t)

		return c.FuncType()
	}

	return "string"
}

func numberType(r numeric.Repr) string {
	if r == numeric.Decimal {
		return "func() *big.Rat"
	}

	return r.GoType()
}

// Scope returns the naming scope of l.
func (l *Layout) Scope() Scope { return l.scope }

// Entries returns the generated names of every resource, grouped by kind
// and sorted by key.
func (l *Layout) Entries() []Entry {
	out := make([]Entry, len(l.entry))
	for i, e := range l.entry {
		out[i] = *e
	}

	return out
}

// Roots yields the nested namespace variable of each kind.
func (l *Layout) Roots() []Field {
	out := make([]Field, len(l.roots))
	for i, r := range l.roots {
		out[i] = Field{Name: r.name, Type: r.ns.Type, Child: r.ns}
	}

	return out
}

// Ident returns the definition identifier of n.
func (l *Layout) Ident(n *ir.Node) string { return l.identOf(n) }

// manifestValue converts build-time values to plain data.
func manifestValue(v any) any {
	switch v := v.(type) {
	case interface{ RatString() string }:
		return v.RatString()
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = manifestValue(item)
		}

		return out
	case interface{ Signature() string }:
		return v.Signature()
	}

	return v
}
