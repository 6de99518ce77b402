package ir

import (
	"github.com/ardnew/resgen/kind"
	"github.com/ardnew/resgen/ref"
	"github.com/ardnew/resgen/tmpl"
)

// Value is the payload of a [Node].
type Value interface {
	value()
}

// Literal is plain text.
type Literal struct {
	Text string
}

type Bool struct {
	Value bool
}

// Number is an unclassified numeric literal.
type Number struct {
	Literal string
	Type    string
}

// Reference aliases another resource.
type Reference struct {
	Ref ref.Ref
}

// Interpolation is text with embedded references.
type Interpolation struct {
	Parts []ref.Part
}

type Array struct {
	Elem  kind.Kind
	Spec  string
	Items []string
}

type Template struct {
	Text   string
	Params []tmpl.Param
}

func (Literal) value()       {}
func (Bool) value()          {}
func (Number) value()        {}
func (Reference) value()     {}
func (Interpolation) value() {}
func (Array) value()         {}
func (Template) value()      {}
