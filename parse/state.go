package parse

import (
	"context"
	"encoding/xml"
	"log/slog"
	"strings"

	"github.com/ardnew/resgen/kind"
	"github.com/ardnew/resgen/log"
	"github.com/ardnew/resgen/numeric"
	"github.com/ardnew/resgen/ref"
	"github.com/ardnew/resgen/tmpl"
)

// Element names with structural meaning.
const (
	tagRoot      = "resources"
	tagNamespace = "ns"
	tagDoc       = "doc"
	tagArray     = "array"
	tagItem      = "item"
	tagTemplate  = "template"
)

// state is the parser state of one file. Each token is applied by one of
// start, text or end.
type state struct {
	ctx    context.Context
	logger log.Logger

	tags []string
	ns   []string

	doc     *docState
	pending string

	decl     *declState
	array    *arrayState
	template *templateState
}

type docState struct {
	chunks []string
	depth  int
}

type declState struct {
	tag     string
	kind    kind.Kind
	name    string
	numType string
	depth   int
	pos     Position
	done    bool
}

type arrayState struct {
	name  string
	elem  kind.Kind
	spec  string
	items []string
	item  *strings.Builder
	pos   Position
}

type templateState struct {
	name   string
	chunks []string
	params []tmpl.Param
	depth  int
	pos    Position
}

func (s *state) depth() int { return len(s.tags) }

func (s *state) top() string {
	if len(s.tags) == 0 {
		return ""
	}

	return s.tags[len(s.tags)-1]
}

// qualify prefixes name with the enclosing namespaces. Unnamed namespaces
// contribute nothing.
func (s *state) qualify(name string) string {
	if name == "" {
		return ""
	}

	path := make([]string, 0, len(s.ns)+1)

	for _, seg := range s.ns {
		if seg != "" {
			path = append(path, seg)
		}
	}

	return strings.Join(append(path, name), "/")
}

func (s *state) start(t xml.StartElement, pos Position) {
	tag := strings.ToLower(t.Name.Local)
	s.tags = append(s.tags, tag)

	switch {
	case s.doc != nil:
		// markup inside documentation is ignored

	case tag == tagDoc:
		s.doc = &docState{depth: s.depth()}

	case tag == tagRoot:

	case tag == tagNamespace:
		s.ns = append(s.ns, attr(t, "name"))

	case s.array != nil:
		if tag == tagItem {
			s.array.item = &strings.Builder{}
		}

	case tag == tagArray:
		s.array = s.openArray(t, pos)

	case s.template != nil:
		s.param(t, tag)

	case tag == tagTemplate:
		s.template = &templateState{
			name:  s.qualify(attr(t, "name")),
			depth: s.depth(),
			pos:   pos,
		}

	default:
		k, known := declKind(tag)

		name := attr(t, "name")
		if name == "" {
			s.decl = nil

			return
		}

		if !known {
			s.logger.DebugContext(s.ctx, "unknown element treated as string",
				slog.String("element", tag),
				slog.String("name", name),
				slog.String("pos", pos.String()),
			)
		}

		s.decl = &declState{
			tag:     tag,
			kind:    k,
			name:    s.qualify(name),
			numType: attr(t, "type"),
			depth:   s.depth(),
			pos:     pos,
		}
	}
}

func (s *state) text(data string) (Resource, bool) {
	switch {
	case s.doc != nil:
		if s.depth() == s.doc.depth {
			if chunk := collapse(data); chunk != "" {
				s.doc.chunks = append(s.doc.chunks, chunk)
			}
		}

	case s.array != nil:
		if s.array.item != nil && s.top() == tagItem {
			s.array.item.WriteString(data)
		}

	case s.template != nil:
		if s.depth() == s.template.depth {
			if chunk := collapse(data); chunk != "" {
				s.template.chunks = append(s.template.chunks, chunk)
			}
		}

	case s.decl != nil && !s.decl.done && s.depth() == s.decl.depth:
		text := strings.TrimSpace(data)
		if text == "" {
			return Resource{}, false
		}

		s.decl.done = true

		return s.scalar(s.decl, text)
	}

	return Resource{}, false
}

func (s *state) end(t xml.EndElement) (Resource, bool) {
	tag := strings.ToLower(t.Name.Local)

	depth := s.depth()
	if depth > 0 {
		s.tags = s.tags[:depth-1]
	}

	switch {
	case s.doc != nil:
		if depth == s.doc.depth {
			s.pending = strings.Join(s.doc.chunks, " ")
			s.doc = nil
		}

	case tag == tagNamespace:
		if len(s.ns) > 0 {
			s.ns = s.ns[:len(s.ns)-1]
		}

	case s.array != nil:
		switch tag {
		case tagItem:
			if s.array.item != nil {
				if item := strings.TrimSpace(s.array.item.String()); item != "" {
					s.array.items = append(s.array.items, item)
				}

				s.array.item = nil
			}

		case tagArray:
			a := s.array
			s.array = nil

			return s.produce(a.name, kind.Array, a.pos, Array{
				Elem:  a.elem,
				Spec:  a.spec,
				Items: a.items,
			})
		}

	case s.template != nil:
		if tag == tagTemplate && depth == s.template.depth {
			tpl := s.template
			s.template = nil

			return s.produce(tpl.name, kind.Template, tpl.pos, Template{
				Text:   strings.Join(tpl.chunks, " "),
				Params: tpl.params,
			})
		}

	case s.decl != nil && depth == s.decl.depth:
		s.decl = nil
	}

	return Resource{}, false
}

func (s *state) openArray(t xml.StartElement, pos Position) *arrayState {
	a := &arrayState{
		name: s.qualify(attr(t, "name")),
		elem: kind.String,
		pos:  pos,
	}

	if typ := attr(t, "type"); typ != "" {
		if numeric.IsType(typ) {
			a.elem, a.spec = kind.Number, typ
		} else if k, ok := kind.Parse(typ); ok && k.Scalar() {
			a.elem = k
		} else {
			s.logger.WarnContext(s.ctx, "unknown array element type, using string",
				slog.String("type", typ),
				slog.String("name", a.name),
				slog.String("pos", pos.String()),
			)
		}
	}

	if spec := attr(t, "spec"); spec != "" {
		a.elem, a.spec = kind.Number, spec
	}

	return a
}

// param records a typed element nested in a template as a parameter.
func (s *state) param(t xml.StartElement, tag string) {
	name := attr(t, "name")
	if name == "" {
		return
	}

	k, known := declKind(tag)
	if !known {
		s.logger.DebugContext(s.ctx, "ignoring unknown template parameter element",
			slog.String("element", tag),
			slog.String("template", s.template.name),
		)

		return
	}

	s.template.params = append(s.template.params, tmpl.Param{
		Name: name,
		Type: tmpl.TypeOf(k, tag, attr(t, "type")),
	})
}

func (s *state) scalar(d *declState, text string) (Resource, bool) {
	if _, ok := ref.Parse(text); ok {
		return s.produce(d.name, d.kind, d.pos, Text{Text: text})
	}

	switch d.kind {
	case kind.Bool:
		switch strings.ToLower(text) {
		case "true":
			return s.produce(d.name, d.kind, d.pos, Bool{Value: true})
		case "false":
			return s.produce(d.name, d.kind, d.pos, Bool{Value: false})
		}

		s.pending = ""
		s.logger.WarnContext(s.ctx, "dropping bool with non-boolean text",
			slog.String("name", d.name),
			slog.String("text", text),
			slog.String("pos", d.pos.String()),
		)

		return Resource{}, false

	case kind.Number:
		return s.produce(d.name, d.kind, d.pos, Number{
			Literal: text,
			Type:    d.numType,
		})

	default:
		return s.produce(d.name, d.kind, d.pos, Text{Text: text})
	}
}

// produce completes a declaration, attaching the pending documentation.
func (s *state) produce(name string, k kind.Kind, pos Position, v Value) (Resource, bool) {
	doc := s.pending
	s.pending = ""

	if name == "" {
		s.logger.DebugContext(s.ctx, "dropping unnamed declaration",
			slog.String("kind", k.String()),
			slog.String("pos", pos.String()),
		)

		return Resource{}, false
	}

	return Resource{Name: name, Kind: k, Value: v, Doc: doc, Pos: pos}, true
}

// declKind returns the kind of a scalar declaration element. Elements that
// are not scalar kinds are read as strings.
func declKind(tag string) (kind.Kind, bool) {
	k, ok := kind.Parse(tag)
	if !ok || !k.Scalar() {
		return kind.String, false
	}

	return k, true
}

func attr(t xml.StartElement, name string) string {
	for _, a := range t.Attr {
		if a.Name.Local == name {
			return strings.TrimSpace(a.Value)
		}
	}

	return ""
}

// collapse trims text and reduces each inner run of whitespace to one space.
func collapse(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
