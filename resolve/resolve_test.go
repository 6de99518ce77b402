package resolve

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ardnew/resgen/ir"
	"github.com/ardnew/resgen/kind"
	"github.com/ardnew/resgen/parse"
)

type decl struct {
	kind kind.Kind
	name string
	text string
}

func build(t *testing.T, decls ...decl) *ir.Model {
	t.Helper()

	var rs []parse.Resource

	for _, d := range decls {
		var v parse.Value = parse.Text{Text: d.text}

		switch d.kind {
		case kind.Number:
			if !strings.HasPrefix(d.text, "@") {
				v = parse.Number{Literal: d.text}
			}
		case kind.Bool:
			if !strings.HasPrefix(d.text, "@") {
				v = parse.Bool{Value: d.text == "true"}
			}
		case kind.Array:
			v = parse.Array{Elem: kind.String, Items: []string{d.text}}
		}

		rs = append(rs, parse.Resource{Name: d.name, Kind: d.kind, Value: v})
	}

	m, err := ir.Build(context.Background(), ir.Merge(ir.File{Resources: rs}))
	if err != nil {
		t.Fatal(err)
	}

	return m
}

func lookup(t *testing.T, r *Resolution, k kind.Kind, key string) *ir.Node {
	t.Helper()

	n, ok := r.Lookup(k, key)
	if !ok {
		t.Fatalf("expected %s/%s to exist", k, key)
	}

	return n
}

func TestResolve_PureReferenceChain(t *testing.T) {
	m := build(t,
		decl{kind.Color, "brand", "#FF0000"},
		decl{kind.Color, "ui/colors/primary", "@color/brand"},
		decl{kind.Color, "button", "@color/ui/colors/primary"},
	)

	r, err := Resolve(context.Background(), m)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	brand := lookup(t, r, kind.Color, "brand")
	primary := lookup(t, r, kind.Color, "ui/colors/primary")
	button := lookup(t, r, kind.Color, "button")

	if got := r.Target(button); got != brand {
		t.Errorf("expected button to resolve to brand, got %v", got)
	}

	if got, _ := r.Direct(button); got != primary {
		t.Errorf("expected direct target primary, got %v", got)
	}

	if got := r.Target(brand); got != brand {
		t.Errorf("expected brand to be its own target, got %v", got)
	}
}

func TestResolve_Dangling(t *testing.T) {
	m := build(t,
		decl{kind.String, "title", "Hello"},
		decl{kind.String, "a", "@string/tile"},
		decl{kind.String, "b", "@widget/x"},
		decl{kind.String, "c", "@color/x"},
	)

	_, err := Resolve(context.Background(), m)
	if !errors.Is(err, ErrDanglingReference) {
		t.Fatalf("expected ErrDanglingReference, got %v", err)
	}

	msg := err.Error()

	for _, expected := range []string{
		"Unresolved reference in string.a: @string/tile does not exist (did you mean @string/title?)",
		"Invalid reference in string.b: resource type 'widget' does not exist",
		"Invalid reference in string.c: resource type 'color' does not exist",
	} {
		if !strings.Contains(msg, expected) {
			t.Errorf("expected %q in error:\n%s", expected, msg)
		}
	}
}

func TestResolve_PureCycle(t *testing.T) {
	m := build(t,
		decl{kind.String, "a", "@string/b"},
		decl{kind.String, "b", "@string/a"},
	)

	_, err := Resolve(context.Background(), m)
	if !errors.Is(err, ErrReferenceCycle) {
		t.Fatalf("expected ErrReferenceCycle, got %v", err)
	}

	if !strings.Contains(err.Error(), "string.a -> string.b -> string.a") {
		t.Errorf("expected cycle chain in %q", err.Error())
	}
}

func TestResolve_Interpolation(t *testing.T) {
	m := build(t,
		decl{kind.String, "app_name", "MyApp"},
		decl{kind.String, "welcome", "Welcome to @string/app_name!"},
		decl{kind.String, "alias", "@string/app_name"},
		decl{kind.String, "nested", "[@string/welcome] via @string/alias"},
		decl{kind.URL, "api_base", "https://api.example.com"},
		decl{kind.URL, "users", "@url/api_base/v2/users"},
		decl{kind.Number, "max", "5"},
		decl{kind.Bool, "debug", "true"},
		decl{kind.String, "limits", "max=@number/max debug=@bool/debug"},
		decl{kind.String, "missing", "Hi @string/nobody and @color/none"},
		decl{kind.Array, "list", "x"},
		decl{kind.String, "bad_target", "see @array/list"},
		decl{kind.String, "ping", "ping @string/pong"},
		decl{kind.String, "pong", "pong @string/ping"},
		decl{kind.String, "self", "me @string/self"},
	)

	r, err := Resolve(context.Background(), m)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tests := map[string]struct {
		k        kind.Kind
		expected string
	}{
		"welcome":    {kind.String, "Welcome to MyApp!"},
		"nested":     {kind.String, "[Welcome to MyApp!] via MyApp"},
		"users":      {kind.URL, "https://api.example.com/v2/users"},
		"limits":     {kind.String, "max=5 debug=true"},
		"missing":    {kind.String, "Hi @string/nobody and @color/none"},
		"bad_target": {kind.String, "see @array/list"},
		"ping":       {kind.String, "ping pong @string/ping"},
		"pong":       {kind.String, "pong ping @string/pong"},
		"self":       {kind.String, "me @string/self"},
	}

	for key, tt := range tests {
		t.Run(key, func(t *testing.T) {
			got, ok := r.Text(lookup(t, r, tt.k, key))
			if !ok {
				t.Fatal("expected interpolated text")
			}

			if got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestResolve_Fallback(t *testing.T) {
	main := build(t,
		decl{kind.String, "app_name", "MyApp"},
	)

	tests := build(t,
		decl{kind.String, "fixture", "@string/app_name"},
		decl{kind.String, "banner", "Testing @string/app_name"},
	)

	mr, err := Resolve(context.Background(), main)
	if err != nil {
		t.Fatal(err)
	}

	tr, err := Resolve(context.Background(), tests, WithFallback(mr))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	fixture := lookup(t, tr, kind.String, "fixture")
	app := lookup(t, tr, kind.String, "app_name")

	if tr.Target(fixture) != app {
		t.Error("expected test fixture to alias the main resource")
	}

	if tr.Owns(app) || !tr.Owns(fixture) || !mr.Owns(app) {
		t.Error("unexpected ownership")
	}

	if got, _ := tr.Text(lookup(t, tr, kind.String, "banner")); got != "Testing MyApp" {
		t.Errorf("expected fallback interpolation, got %q", got)
	}

	if _, err := Resolve(context.Background(), tests); !errors.Is(err, ErrDanglingReference) {
		t.Errorf("expected dangling reference without fallback, got %v", err)
	}
}
