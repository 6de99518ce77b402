package filter

import (
	"strings"
	"testing"
)

func TestProfile(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		profile  string
		contains []string
		excludes []string
	}{
		{
			name: "mismatched subtree removed",
			input: `<resources>
  <string name="base">Base</string>
  <ns name="api" profile="prod">
    <url name="host">https://example.com</url>
  </ns>
  <url name="host" profile="dev">http://localhost</url>
</resources>`,
			profile:  "dev",
			contains: []string{`name="base"`, "http://localhost"},
			excludes: []string{"example.com", `name="api"`},
		},
		{
			name:     "self-closing mismatch removed",
			input:    `<resources><string name="a" profile="prod"/><string name="b">B</string></resources>`,
			profile:  "dev",
			contains: []string{`name="b"`},
			excludes: []string{`name="a"`},
		},
		{
			name:     "matching profile kept",
			input:    `<resources><string name="a" profile="prod">A &amp; B</string></resources>`,
			profile:  "prod",
			contains: []string{`name="a"`, "A &amp; B"},
		},
		{
			name: "html entities decoded like the parser",
			input: `<resources>
  <string name="nbsp">a&nbsp;b &copy; c</string>
  <url name="host" profile="dev">http://localhost</url>
  <url name="host" profile="prod">https://example.com</url>
</resources>`,
			profile:  "dev",
			contains: []string{"a\u00a0b \u00a9 c", "http://localhost"},
			excludes: []string{"example.com"},
		},
		{
			name:     "nested depth restored after skip",
			input:    `<resources><ns name="x" profile="prod"><ns name="y"><string name="z">Z</string></ns></ns><string name="after">ok</string></resources>`,
			profile:  "dev",
			contains: []string{`name="after"`, ">ok<"},
			excludes: []string{`name="z"`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, ok := Profile([]byte(tt.input), tt.profile)
			if !ok {
				t.Fatal("expected filtering to succeed")
			}

			got := string(out)

			for _, s := range tt.contains {
				if !strings.Contains(got, s) {
					t.Errorf("expected output to contain %q, got %q", s, got)
				}
			}

			for _, s := range tt.excludes {
				if strings.Contains(got, s) {
					t.Errorf("expected output not to contain %q, got %q", s, got)
				}
			}
		})
	}
}

func TestProfile_MalformedReturnsOriginal(t *testing.T) {
	input := `<resources><string name="a" profile="dev">A</resources>`

	out, ok := Profile([]byte(input), "dev")
	if ok {
		t.Error("expected filtering to fail on malformed input")
	}

	if string(out) != input {
		t.Errorf("expected original input, got %q", out)
	}
}

func TestProfile_NoAttributeUntouched(t *testing.T) {
	input := `<?xml version="1.0"?><resources><!-- c --><string name="a">A</string></resources>`

	out, ok := Profile([]byte(input), "dev")
	if !ok || string(out) != input {
		t.Errorf("expected input unchanged, got %q (ok=%v)", out, ok)
	}
}
