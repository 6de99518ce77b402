// Package kind defines the closed set of resource kinds and the identifier
// rules shared by every stage of the compiler.
package kind

import (
	"iter"
	"strings"
	"unicode"
)

// Kind is the canonical semantic type family of a resource.
type Kind int

const (
	Invalid Kind = iota
	String
	Number
	Bool
	Color
	URL
	Dimension
	Template
	Array
)

var names = [...]string{
	Invalid:   "invalid",
	String:    "string",
	Number:    "number",
	Bool:      "bool",
	Color:     "color",
	URL:       "url",
	Dimension: "dimension",
	Template:  "template",
	Array:     "array",
}

// titles are the prefixes of generated identifiers.
var titles = [...]string{
	Invalid:   "Invalid",
	String:    "String",
	Number:    "Number",
	Bool:      "Bool",
	Color:     "Color",
	URL:       "URL",
	Dimension: "Dimension",
	Template:  "Template",
	Array:     "Array",
}

// aliases maps textual tag names onto canonical kinds.
var aliases = map[string]Kind{
	"string":    String,
	"number":    Number,
	"int":       Number,
	"integer":   Number,
	"float":     Number,
	"double":    Number,
	"bool":      Bool,
	"boolean":   Bool,
	"color":     Color,
	"url":       URL,
	"dimension": Dimension,
	"template":  Template,
	"array":     Array,
}

// Parse returns the canonical kind of a tag or reference kind name.
func Parse(name string) (Kind, bool) {
	k, ok := aliases[strings.ToLower(strings.TrimSpace(name))]

	return k, ok
}

// All yields every valid kind in declaration order.
func All() iter.Seq[Kind] {
	return func(yield func(Kind) bool) {
		for k := String; k <= Array; k++ {
			if !yield(k) {
				return
			}
		}
	}
}

// Valid reports whether k is one of the declared kinds.
func (k Kind) Valid() bool { return k > Invalid && k <= Array }

func (k Kind) String() string {
	if k < 0 || int(k) >= len(names) {
		return names[Invalid]
	}

	return names[k]
}

// Title returns the exported identifier prefix used for k.
func (k Kind) Title() string {
	if k < 0 || int(k) >= len(titles) {
		return titles[Invalid]
	}

	return titles[k]
}

// Scalar reports whether values of k are single literal strings in the
// source document.
func (k Kind) Scalar() bool {
	switch k {
	case String, Number, Bool, Color, URL, Dimension:
		return true
	default:
		return false
	}
}

// Textual reports whether values of k are rendered as Go strings.
func (k Kind) Textual() bool {
	switch k {
	case String, Color, URL, Dimension:
		return true
	default:
		return false
	}
}

// MarshalText implements [encoding.TextMarshaler].
func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// Sanitize replaces every rune that is not a letter, digit or underscore
// with an underscore.
func Sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}

		return '_'
	}, s)
}

// Upper sanitizes s and converts it to upper case.
func Upper(s string) string { return strings.ToUpper(Sanitize(s)) }

// Export returns the sanitized s with its first rune upper-cased.
// An "X" is prepended when the result would not be an exported identifier.
func Export(s string) string {
	s = Sanitize(s)
	if s == "" {
		return "X"
	}

	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])

	if !unicode.IsUpper(r[0]) {
		return "X" + string(r)
	}

	return string(r)
}
