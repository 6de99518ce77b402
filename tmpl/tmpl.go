// Package tmpl compiles parameterized template text into a format string and
// an ordered list of parameter slots.
//
// Placeholders are written {name}. A placeholder becomes a slot only when
// name is a declared parameter; any other brace text, including an opening
// brace with no closing brace, is kept literally.
package tmpl

import (
	"fmt"
	"go/token"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/ardnew/resgen/kind"
	"github.com/ardnew/resgen/pkg"
)

var (
	ErrArgCount = pkg.NewError("wrong number of template arguments")
	ErrArgType  = pkg.NewError("invalid template argument")
)

// Type is the declared type of a template parameter.
type Type int

const (
	String Type = iota
	Int
	Float
	Bool
)

func (t Type) String() string {
	switch t {
	case Int:
		return "int"
	case Float:
		return "float"
	case Bool:
		return "bool"
	default:
		return "string"
	}
}

// GoType returns the Go type of parameters of type t.
func (t Type) GoType() string {
	switch t {
	case Int:
		return "int64"
	case Float:
		return "float64"
	case Bool:
		return "bool"
	default:
		return "string"
	}
}

// Verb returns the fmt verb that formats parameters of type t.
func (t Type) Verb() string {
	switch t {
	case Int:
		return "%d"
	case Float:
		return "%v"
	case Bool:
		return "%t"
	default:
		return "%s"
	}
}

var floatTypes = map[string]bool{
	"f32": true, "f64": true, "float": true, "double": true,
}

// TypeOf returns the parameter type declared by a nested element of kind k.
// tag is the element name and numType its type attribute, which together
// distinguish integer from floating-point number parameters.
func TypeOf(k kind.Kind, tag, numType string) Type {
	switch k {
	case kind.Number:
		if floatTypes[strings.ToLower(tag)] || floatTypes[strings.ToLower(numType)] {
			return Float
		}

		return Int
	case kind.Bool:
		return Bool
	default:
		return String
	}
}

// Param is a declared template parameter.
type Param struct {
	Name string
	Type Type
}

// Ident returns the Go identifier used for the parameter.
func (p Param) Ident() string { return Ident(p.Name) }

// Ident converts name into a valid Go parameter identifier.
func Ident(name string) string {
	id := kind.Sanitize(name)
	if id == "" {
		id = "_"
	}

	if id[0] >= '0' && id[0] <= '9' {
		id = "_" + id
	}

	if token.IsKeyword(id) || id == "fmt" {
		id += "_"
	}

	return id
}

// Part is either literal text or the index of a parameter slot.
type Part struct {
	Text  string
	Param int
}

// Slot reports whether p refers to a parameter.
func (p Part) Slot() bool { return p.Param >= 0 }

// Compiled is a template ready for rendering or code generation.
type Compiled struct {
	Text   string
	Params []Param
	Parts  []Part
}

// Compile scans text for placeholders naming one of params.
// Parameters repeating an earlier name or identifier are ignored.
func Compile(text string, params []Param) Compiled {
	c := Compiled{Text: text}

	index := make(map[string]int, len(params))
	idents := make(map[string]bool, len(params))

	for _, p := range params {
		if _, dup := index[p.Name]; dup || idents[p.Ident()] {
			continue
		}

		index[p.Name] = len(c.Params)
		idents[p.Ident()] = true
		c.Params = append(c.Params, p)
	}

	var lit strings.Builder

	for rest := text; rest != ""; {
		open := strings.IndexByte(rest, '{')
		if open < 0 {
			lit.WriteString(rest)

			break
		}

		closing := strings.IndexByte(rest[open+1:], '}')
		if closing < 0 {
			lit.WriteString(rest)

			break
		}

		name := rest[open+1 : open+1+closing]

		i, ok := index[name]
		if !ok {
			lit.WriteString(rest[:open+closing+2])
			rest = rest[open+closing+2:]

			continue
		}

		lit.WriteString(rest[:open])

		if lit.Len() > 0 {
			c.Parts = append(c.Parts, Part{Text: lit.String(), Param: -1})
			lit.Reset()
		}

		c.Parts = append(c.Parts, Part{Param: i})
		rest = rest[open+closing+2:]
	}

	if lit.Len() > 0 {
		c.Parts = append(c.Parts, Part{Text: lit.String(), Param: -1})
	}

	return c
}

// Format returns the fmt format string of the template. Literal percent
// signs are escaped.
func (c Compiled) Format() string {
	var b strings.Builder

	for _, p := range c.Parts {
		if p.Slot() {
			b.WriteString(c.Params[p.Param].Type.Verb())
		} else {
			b.WriteString(strings.ReplaceAll(p.Text, "%", "%%"))
		}
	}

	return b.String()
}

// Literal returns the template text when it has no parameter slots.
func (c Compiled) Literal() (string, bool) {
	var b strings.Builder

	for _, p := range c.Parts {
		if p.Slot() {
			return "", false
		}

		b.WriteString(p.Text)
	}

	return b.String(), true
}

// Args returns the parameter identifiers in slot order.
func (c Compiled) Args() []string {
	var args []string

	for _, p := range c.Parts {
		if p.Slot() {
			args = append(args, c.Params[p.Param].Ident())
		}
	}

	return args
}

// Signature returns the Go parameter list of the generated function,
// without parentheses.
func (c Compiled) Signature() string {
	list := make([]string, len(c.Params))

	for i, p := range c.Params {
		list[i] = p.Ident() + " " + p.Type.GoType()
	}

	return strings.Join(list, ", ")
}

// FuncType returns the Go type of the generated function.
func (c Compiled) FuncType() string {
	return "func(" + c.Signature() + ") string"
}

// Body returns the Go statement implementing the generated function.
func (c Compiled) Body() string {
	if s, ok := c.Literal(); ok {
		return "return " + strconv.Quote(s)
	}

	return "return fmt.Sprintf(" + strconv.Quote(c.Format()) + ", " +
		strings.Join(c.Args(), ", ") + ")"
}

// UsesFmt reports whether the generated function calls into package fmt.
func (c Compiled) UsesFmt() bool {
	_, ok := c.Literal()

	return !ok
}

// Render evaluates the template with args given in parameter order,
// producing exactly what the generated function returns.
func (c Compiled) Render(args ...any) (string, error) {
	if len(args) != len(c.Params) {
		return "", ErrArgCount.With(
			slog.Int("expected", len(c.Params)),
			slog.Int("got", len(args)),
		)
	}

	values := make([]any, len(args))

	for i, p := range c.Params {
		v, err := convert(p, args[i])
		if err != nil {
			return "", err
		}

		values[i] = v
	}

	if s, ok := c.Literal(); ok {
		return s, nil
	}

	slots := make([]any, 0, len(c.Parts))

	for _, p := range c.Parts {
		if p.Slot() {
			slots = append(slots, values[p.Param])
		}
	}

	return fmt.Sprintf(c.Format(), slots...), nil
}

func convert(p Param, arg any) (any, error) {
	fail := func() (any, error) {
		return nil, ErrArgType.With(
			slog.String("param", p.Name),
			slog.String("type", p.Type.String()),
			slog.String("value", fmt.Sprint(arg)),
		)
	}

	switch p.Type {
	case String:
		if s, ok := arg.(string); ok {
			return s, nil
		}

		return fail()

	case Bool:
		if b, ok := arg.(bool); ok {
			return b, nil
		}

		return fail()

	case Int:
		switch v := arg.(type) {
		case int:
			return int64(v), nil
		case int8:
			return int64(v), nil
		case int16:
			return int64(v), nil
		case int32:
			return int64(v), nil
		case int64:
			return v, nil
		case uint8:
			return int64(v), nil
		case uint16:
			return int64(v), nil
		case uint32:
			return int64(v), nil
		case float64:
			if v == math.Trunc(v) && v >= math.MinInt64 && v < math.MaxInt64 {
				return int64(v), nil
			}
		}

		return fail()

	case Float:
		switch v := arg.(type) {
		case float64:
			return v, nil
		case float32:
			return float64(v), nil
		case int:
			return float64(v), nil
		case int64:
			return float64(v), nil
		}

		return fail()
	}

	return fail()
}
