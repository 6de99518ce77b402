// Package emit generates Go source declaring a checked resource set.
//
// Each generated file holds, per kind, a block of definitions named
// <Kind>_<namespace>_<LEAF>, a variable per kind whose nested struct
// fields mirror the namespace tree, and a flat variable re-exporting
// every resource under its full upper-cased name. References are emitted
// as aliases of their targets. Test-only resources go to a second file
// whose identifiers carry the RTests prefix and which is compiled only
// for tests.
package emit

import (
	"bytes"
	"context"
	"fmt"
	"go/format"
	"go/token"
	"log/slog"
	"strconv"
	"strings"

	"github.com/ardnew/resgen/check"
	"github.com/ardnew/resgen/ir"
	"github.com/ardnew/resgen/kind"
	"github.com/ardnew/resgen/log"
	"github.com/ardnew/resgen/numeric"
	"github.com/ardnew/resgen/pkg"
)

// Header is the first line of every generated file.
const Header = "// Code generated by resgen. DO NOT EDIT."

// DefaultPackage is the package name of generated files.
const DefaultPackage = "res"

var (
	ErrInvalidPackage = pkg.NewError("invalid package name")
	ErrFormat         = pkg.NewError("generated source does not format")
)

// Output is the generated source of a resource set.
type Output struct {
	Package string
	Source  []byte
	// TestSource declares the test-only resources. It is empty unless
	// HasTests is set.
	TestSource []byte
	HasTests   bool
	// TestsTag is the build tag gating TestSource, or empty when
	// TestSource belongs in a _test.go file.
	TestsTag string

	Main  *Layout
	Tests *Layout
}

// Option configures [Generate].
type Option func(options) options

type options struct {
	logger   log.Logger
	pkg      string
	testsTag string
}

// WithPackage sets the package name of the generated files.
func WithPackage(name string) Option {
	return func(o options) options {
		if name != "" {
			o.pkg = name
		}

		return o
	}
}

// WithTestsTag gates the test-only file behind a build tag instead of the
// _test.go file name suffix.
func WithTestsTag(tag string) Option {
	return func(o options) options {
		o.testsTag = tag

		return o
	}
}

// WithLogger sets the logger that reports naming conflicts.
func WithLogger(l log.Logger) Option {
	return func(o options) options {
		o.logger = l

		return o
	}
}

// Generate renders main and, when it has resources, tests. tests may be nil.
func Generate(ctx context.Context, main, tests *check.Program, opts ...Option) (Output, error) {
	o := options{logger: log.Nop(), pkg: DefaultPackage}

	for _, opt := range opts {
		o = opt(o)
	}

	if !token.IsIdentifier(o.pkg) {
		return Output{}, ErrInvalidPackage.With(slog.String("package", o.pkg))
	}

	out := Output{Package: o.pkg, TestsTag: o.testsTag}

	out.Main = Plan(ctx, main, MainScope, nil, o.logger)

	src, err := out.Main.render(o.pkg, "")
	if err != nil {
		return Output{}, err
	}

	out.Source = src

	if tests == nil || tests.Len() == 0 {
		return out, nil
	}

	out.Tests = Plan(ctx, tests, TestsScope, out.Main, o.logger)

	if out.TestSource, err = out.Tests.render(o.pkg, o.testsTag); err != nil {
		return Output{}, err
	}

	out.HasTests = true

	o.logger.DebugContext(ctx, "generated test resources",
		slog.Int("resources", tests.Len()),
		slog.String("tag", o.testsTag),
	)

	return out, nil
}

// renderer accumulates the body of one file and the imports it needs.
type renderer struct {
	*Layout

	body bytes.Buffer

	fmt  bool
	big  bool
	sync bool
}

func (r *renderer) w(format string, args ...any) {
	fmt.Fprintf(&r.body, format, args...)
}

func (r *renderer) typ(t string) string {
	if strings.Contains(t, "big.Rat") {
		r.big = true
	}

	return t
}

func (l *Layout) render(pkgName, tag string) ([]byte, error) {
	r := &renderer{Layout: l}

	for k := range kind.All() {
		r.definitions(k)
	}

	for _, root := range l.roots {
		r.types(root.ns)
	}

	if len(l.roots) > 0 {
		r.w("var (\n")

		for _, root := range l.roots {
			r.w("\t%s = ", root.name)
			r.literal(root.ns, 1)
			r.w("\n")
		}

		r.w(")\n\n")
	}

	r.flatNamespace()

	if r.sync {
		r.helper()
	}

	var head bytes.Buffer

	fmt.Fprintf(&head, "%s\n\n", Header)

	if tag != "" {
		fmt.Fprintf(&head, "//go:build %s\n\n", tag)
	}

	fmt.Fprintf(&head, "package %s\n\n", pkgName)

	var imports []string

	if r.fmt {
		imports = append(imports, `"fmt"`)
	}

	if r.big {
		imports = append(imports, `"math/big"`)
	}

	if r.sync {
		imports = append(imports, `"sync"`)
	}

	if len(imports) > 0 {
		fmt.Fprintf(&head, "import (\n\t%s\n)\n\n", strings.Join(imports, "\n\t"))
	}

	head.Write(r.body.Bytes())

	src, err := format.Source(head.Bytes())
	if err != nil {
		return nil, ErrFormat.Wrap(err)
	}

	return src, nil
}

// definitions writes the const, var and func declarations of kind k.
func (r *renderer) definitions(k kind.Kind) {
	var consts, vars, funcs []*Entry

	for _, e := range r.entry {
		if e.Node.Kind != k {
			continue
		}

		switch r.storage(e.Node) {
		case Const:
			consts = append(consts, e)
		case Var:
			vars = append(vars, e)
		case Func:
			funcs = append(funcs, e)
		}
	}

	if len(consts)+len(vars)+len(funcs) == 0 {
		return
	}

	r.w("// %s resources.\n\n", k.Title())

	if len(consts) > 0 {
		r.w("const (\n")

		for _, e := range consts {
			r.doc(e.Doc, "\t")
			r.w("\t%s%s = %s\n", e.Ident, r.constType(e.Node), r.expr(e))
		}

		r.w(")\n\n")
	}

	if len(vars) > 0 {
		r.w("var (\n")

		for _, e := range vars {
			r.items(e)
			r.doc(e.Doc, "\t")
			r.w("\t%s = %s\n", e.Ident, r.expr(e))
		}

		r.w(")\n\n")
	}

	for _, e := range funcs {
		c, _ := r.prog.Template(e.Node)
		if c.UsesFmt() {
			r.fmt = true
		}

		r.doc(e.Doc, "")
		r.w("func %s(%s) string {\n\t%s\n}\n\n", e.Ident, c.Signature(), c.Body())
	}
}

func (r *renderer) doc(doc, indent string) {
	for line := range strings.SplitSeq(doc, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			r.w("%s// %s\n", indent, line)
		}
	}
}

// constType returns the explicit type of a numeric constant definition.
func (r *renderer) constType(n *ir.Node) string {
	if _, ok := r.alias(n); ok {
		return ""
	}

	if _, ok := r.prog.Resolution().Text(n); ok {
		return ""
	}

	if _, ok := n.Value.(ir.Number); ok {
		num, _ := r.prog.Number(n)

		return " " + num.Repr.GoType()
	}

	return ""
}

// items declares the lazily constructed items of a decimal array.
func (r *renderer) items(e *Entry) {
	if _, ok := r.alias(e.Node); ok {
		return
	}

	a, ok := r.prog.Array(e.Node)
	if !ok || a.Elem != kind.Number || a.Numbers.Repr != numeric.Decimal {
		return
	}

	for i, item := range a.Numbers.Items {
		r.w("\t%s_ITEM_%d = %s\n", e.Ident, i, r.decimal(item.Literal))
	}
}

func (r *renderer) decimal(literal string) string {
	r.big, r.sync = true, true

	return fmt.Sprintf("sync.OnceValue(func() *big.Rat { return %s(%s) })",
		r.scope.Rat, strconv.Quote(literal))
}

// expr returns the initializer of the definition of e.
func (r *renderer) expr(e *Entry) string {
	n := e.Node

	if d, ok := r.alias(n); ok {
		r.typ(e.Type)

		return r.identOf(d)
	}

	if s, ok := r.prog.Resolution().Text(n); ok {
		return strconv.Quote(s)
	}

	switch v := n.Value.(type) {
	case ir.Literal:
		return strconv.Quote(v.Text)

	case ir.Bool:
		return strconv.FormatBool(v.Value)

	case ir.Number:
		num, _ := r.prog.Number(n)
		if num.Repr == numeric.Decimal {
			return r.decimal(num.Literal)
		}

		return num.Literal

	case ir.Array:
		a, _ := r.prog.Array(n)

		var items []string

		switch a.Elem {
		case kind.Number:
			for i, item := range a.Numbers.Items {
				if a.Numbers.Repr == numeric.Decimal {
					items = append(items, e.Ident+"_ITEM_"+strconv.Itoa(i))
				} else {
					items = append(items, item.Literal)
				}
			}

		case kind.Bool:
			for _, b := range a.Bools {
				items = append(items, strconv.FormatBool(b))
			}

		default:
			for _, s := range a.Strings {
				items = append(items, strconv.Quote(s))
			}
		}

		return r.typ(e.Type) + "{" + strings.Join(items, ", ") + "}"
	}

	return `""`
}

// types declares the struct type of ns and of every namespace below it.
func (r *renderer) types(ns *Namespace) {
	r.w("type %s struct {\n", ns.Type)

	for _, f := range ns.Fields {
		r.w("\t%s %s\n", f.Name, r.typ(f.Type))
	}

	r.w("}\n\n")

	for _, f := range ns.Fields {
		if f.Child != nil {
			r.types(f.Child)
		}
	}
}

// literal writes the composite literal initializing ns.
func (r *renderer) literal(ns *Namespace, depth int) {
	indent := strings.Repeat("\t", depth+1)

	r.w("%s{\n", ns.Type)

	for _, f := range ns.Fields {
		r.w("%s%s: ", indent, f.Name)

		if f.Child != nil {
			r.literal(f.Child, depth+1)
		} else {
			r.w("%s", r.identOf(f.Node))
		}

		r.w(",\n")
	}

	r.w("%s}", strings.Repeat("\t", depth))
}

func (r *renderer) flatNamespace() {
	typ := r.scope.flatType()
	fields := r.Layout.flat

	if len(fields) == 0 {
		r.w("type %s struct{}\n\n", typ)
		r.w("// %s re-exports every resource by its full name.\n", r.scope.Flat)
		r.w("var %s = %s{}\n\n", r.scope.Flat, typ)

		return
	}

	r.w("type %s struct {\n", typ)

	for _, f := range fields {
		r.w("\t%s %s\n", f.Name, r.typ(f.Type))
	}

	r.w("}\n\n")

	r.w("// %s re-exports every resource by its full name.\n", r.scope.Flat)
	r.w("var %s = %s{\n", r.scope.Flat, typ)

	for _, f := range fields {
		r.w("\t%s: %s,\n", f.Name, r.identOf(f.Node))
	}

	r.w("}\n\n")
}

func (r *renderer) helper() {
	r.w("func %s(s string) *big.Rat {\n", r.scope.Rat)
	r.w("\tv, ok := new(big.Rat).SetString(s)\n")
	r.w("\tif !ok {\n")
	r.w("\t\tpanic(\"resgen: invalid decimal literal \" + s)\n")
	r.w("\t}\n\n")
	r.w("\treturn v\n")
	r.w("}\n")
}
