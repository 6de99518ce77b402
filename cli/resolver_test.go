package cli

import (
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/alecthomas/kong"
)

type resolverCLI struct {
	Res      []string `default:"res"`
	Profile  string   `default:"dev"`
	LogLevel string   `default:"info" name:"log-level"`
	Workers  int
	Tests    bool `default:"true" negatable:""`

	Compile struct {
		Out string `default:"r_generated.go"`
	} `cmd:""`
}

func parseWith(t *testing.T, config string, args ...string) resolverCLI {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(config), 0o600); err != nil {
		t.Fatal(err)
	}

	var cli resolverCLI

	parser, err := kong.New(&cli, kong.Configuration(resolve(baseConfig), path))
	if err != nil {
		t.Fatal(err)
	}

	if _, err := parser.Parse(append([]string{"compile"}, args...)); err != nil {
		t.Fatal(err)
	}

	return cli
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name     string
		config   string
		args     []string
		expected resolverCLI
	}{
		{
			name:   "empty file",
			config: "",
			expected: resolverCLI{
				Res: []string{"res"}, Profile: "dev", LogLevel: "info", Tests: true,
			},
		},
		{
			name: "config section",
			config: `config:
  res: [a, b]
  profile: prod
  log-level: debug
  workers: 4
  tests: false
`,
			expected: resolverCLI{
				Res: []string{"a", "b"}, Profile: "prod", LogLevel: "debug", Workers: 4,
			},
		},
		{
			name:   "document root",
			config: "profile: staging\nlog_level: warn\n",
			expected: resolverCLI{
				Res: []string{"res"}, Profile: "staging", LogLevel: "warn", Tests: true,
			},
		},
		{
			name: "command section",
			config: `config:
  out: top.go
  compile:
    out: nested.go
`,
			expected: resolverCLI{
				Res: []string{"res"}, Profile: "dev", LogLevel: "info", Tests: true,
			},
		},
		{
			name:   "flags override",
			config: "config:\n  profile: prod\n",
			args:   []string{"--profile", "qa"},
			expected: resolverCLI{
				Res: []string{"res"}, Profile: "qa", LogLevel: "info", Tests: true,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseWith(t, tt.config, tt.args...)

			if !slices.Equal(got.Res, tt.expected.Res) {
				t.Errorf("Res: expected %v, got %v", tt.expected.Res, got.Res)
			}

			if got.Profile != tt.expected.Profile {
				t.Errorf("Profile: expected %q, got %q", tt.expected.Profile, got.Profile)
			}

			if got.LogLevel != tt.expected.LogLevel {
				t.Errorf("LogLevel: expected %q, got %q", tt.expected.LogLevel, got.LogLevel)
			}

			if got.Workers != tt.expected.Workers {
				t.Errorf("Workers: expected %d, got %d", tt.expected.Workers, got.Workers)
			}

			if got.Tests != tt.expected.Tests {
				t.Errorf("Tests: expected %v, got %v", tt.expected.Tests, got.Tests)
			}
		})
	}
}

func TestResolve_CommandSection(t *testing.T) {
	got := parseWith(t, "config:\n  out: top.go\n  compile:\n    out: nested.go\n")
	if got.Compile.Out != "nested.go" {
		t.Errorf("expected nested command value, got %q", got.Compile.Out)
	}

	got = parseWith(t, "config:\n  out: top.go\n")
	if got.Compile.Out != "top.go" {
		t.Errorf("expected top-level value, got %q", got.Compile.Out)
	}
}

func TestResolve_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("config: [unterminated"), 0o600); err != nil {
		t.Fatal(err)
	}

	var cli resolverCLI

	if _, err := kong.New(&cli, kong.Configuration(resolve(baseConfig), path)); err == nil {
		t.Error("expected error for malformed configuration")
	}
}

func TestValue(t *testing.T) {
	tests := []struct {
		in       any
		expected any
	}{
		{uint64(3), "3"},
		{int64(-2), "-2"},
		{1.5, "1.5"},
		{"text", "text"},
		{true, true},
	}

	for _, tt := range tests {
		if got := value(tt.in); got != tt.expected {
			t.Errorf("value(%v) = %v, expected %v", tt.in, got, tt.expected)
		}
	}

	list, ok := value([]any{uint64(1), "x", true}).([]any)
	if !ok || len(list) != 3 || list[0] != "1" || list[1] != "x" || list[2] != true {
		t.Errorf("unexpected list conversion %v", list)
	}
}
