package ref

import (
	"slices"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		text     string
		expected Ref
		ok       bool
	}{
		{"@string/app_name", Ref{"string", "app_name"}, true},
		{"@color/ui/colors/primary", Ref{"color", "ui/colors/primary"}, true},
		{"@widget/x", Ref{"widget", "x"}, true},
		{"@string/", Ref{}, false},
		{"@/name", Ref{}, false},
		{"@string", Ref{}, false},
		{"Welcome to @string/app_name", Ref{}, false},
		{"@string/a @string/b", Ref{}, false},
		{"@string/a@string/b", Ref{}, false},
		{"plain", Ref{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got, ok := Parse(tt.text)
			if ok != tt.ok || got != tt.expected {
				t.Errorf("expected (%v, %v), got (%v, %v)", tt.expected, tt.ok, got, ok)
			}
		})
	}
}

func TestScan(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected []Part
	}{
		{
			name: "single marker",
			text: "Welcome to @string/app_name!",
			expected: []Part{
				{Text: "Welcome to "},
				{Ref: Ref{"string", "app_name"}, IsRef: true},
				{Text: "!"},
			},
		},
		{
			name: "nested key and trailing slash",
			text: "@url/api/base/ is up",
			expected: []Part{
				{Ref: Ref{"url", "api/base"}, IsRef: true},
				{Text: "/ is up"},
			},
		},
		{
			name:     "unknown kind is literal",
			text:     "mail me@example/com",
			expected: []Part{{Text: "mail me@example/com"}},
		},
		{
			name: "adjacent markers",
			text: "@string/a@number/b",
			expected: []Part{
				{Ref: Ref{"string", "a"}, IsRef: true},
				{Ref: Ref{"number", "b"}, IsRef: true},
			},
		},
		{
			name:     "lone at sign",
			text:     "50 @ 3",
			expected: []Part{{Text: "50 @ 3"}},
		},
		{
			name: "unicode literal text",
			text: "ü @bool/on ß",
			expected: []Part{
				{Text: "ü "},
				{Ref: Ref{"bool", "on"}, IsRef: true},
				{Text: " ß"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Scan(tt.text)
			if !slices.Equal(got, tt.expected) {
				t.Errorf("expected %+v, got %+v", tt.expected, got)
			}
		})
	}
}

func TestHasMarker(t *testing.T) {
	if !HasMarker("x @color/red y") {
		t.Error("expected marker")
	}

	if HasMarker("user@host/path") {
		t.Error("expected no marker for unknown kind")
	}
}

func TestPrefixes(t *testing.T) {
	got := Ref{"url", "api_base/v2/users"}.Prefixes()

	expected := []Split{
		{Ref: Ref{"url", "api_base/v2/users"}},
		{Ref: Ref{"url", "api_base/v2"}, Suffix: "/users"},
		{Ref: Ref{"url", "api_base"}, Suffix: "/v2/users"},
	}

	if !slices.Equal(got, expected) {
		t.Errorf("expected %+v, got %+v", expected, got)
	}
}
