package parse

import (
	"strconv"

	"github.com/ardnew/resgen/kind"
	"github.com/ardnew/resgen/tmpl"
)

// Resource is one declaration read from a resource file.
type Resource struct {
	// Name is the declared name prefixed by the enclosing namespaces,
	// joined with '/'.
	Name  string
	Kind  kind.Kind
	Value Value
	Doc   string
	Pos   Position
}

// Position locates a declaration in its file.
type Position struct {
	File   string
	Offset int64
	Line   int
}

func (p Position) String() string {
	if p.Line > 0 {
		return p.File + ":" + strconv.Itoa(p.Line)
	}

	return p.File
}

// Value is the payload of a [Resource].
type Value interface {
	value()
}

// Text is the text of a textual declaration, or of any declaration whose
// content is a pure reference.
type Text struct {
	Text string
}

// Number is an unclassified numeric literal with its explicit type, if any.
type Number struct {
	Literal string
	Type    string
}

type Bool struct {
	Value bool
}

// Array holds the raw item text of an array declaration.
type Array struct {
	Elem  kind.Kind
	Spec  string
	Items []string
}

// Template holds raw template text and its ordered parameters.
type Template struct {
	Text   string
	Params []tmpl.Param
}

func (Text) value()     {}
func (Number) value()   {}
func (Bool) value()     {}
func (Array) value()    {}
func (Template) value() {}
