package cli

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestMain(m *testing.M) {
	home, err := os.MkdirTemp("", "resgen-cli")
	if err != nil {
		panic(err)
	}

	os.Setenv("XDG_CONFIG_HOME", filepath.Join(home, "config")) //nolint:errcheck
	os.Setenv("XDG_CACHE_HOME", filepath.Join(home, "cache"))   //nolint:errcheck

	if err := mkdirAllRequired(); err != nil {
		panic(err)
	}

	code := m.Run()

	os.RemoveAll(home) //nolint:errcheck
	os.Exit(code)
}

const profileXML = `<resources>
  <string name="app_name">My App</string>
  <url name="host" profile="dev">http://localhost</url>
  <url name="host" profile="prod">https://example.com</url>
</resources>`

func exitFatal(t *testing.T) func(int) {
	t.Helper()

	return func(code int) { t.Fatalf("unexpected exit %d", code) }
}

func TestRun_Compile(t *testing.T) {
	dir := t.TempDir()
	res := filepath.Join(dir, "res")
	out := filepath.Join(dir, "gen", "r_generated.go")

	if err := os.MkdirAll(res, 0o755); err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(filepath.Join(res, "values.xml"), []byte(profileXML), 0o600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name     string
		config   string
		args     []string
		expected string
	}{
		{name: "defaults", expected: "http://localhost"},
		{name: "flag", args: []string{"--profile", "prod"}, expected: "https://example.com"},
		{name: "config file", config: "config:\n  profile: prod\n", expected: "https://example.com"},
		{name: "flag over config", config: "config:\n  profile: prod\n", args: []string{"-P", "dev"}, expected: "http://localhost"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := os.WriteFile(configPath(baseConfig+".yaml"), []byte(tt.config), 0o600); err != nil {
				t.Fatal(err)
			}

			args := append([]string{"compile", "-r", res, "-o", out}, tt.args...)

			if err := Run(context.Background(), exitFatal(t), args...); err != nil {
				t.Fatal(err)
			}

			data, err := os.ReadFile(out)
			if err != nil {
				t.Fatal(err)
			}

			if !strings.Contains(string(data), tt.expected) {
				t.Errorf("expected generated source to contain %q", tt.expected)
			}
		})
	}

	if err := os.Remove(configPath(baseConfig + ".yaml")); err != nil {
		t.Fatal(err)
	}
}

func TestRun_Error(t *testing.T) {
	dir := t.TempDir()

	if err := os.WriteFile(filepath.Join(dir, "broken.xml"), []byte("<resources><string"), 0o600); err != nil {
		t.Fatal(err)
	}

	if err := Run(context.Background(), exitFatal(t), "check", "-r", dir); err == nil {
		t.Error("expected error for malformed resources")
	}
}

func TestLogConfig_Scan(t *testing.T) {
	tests := []struct {
		args   []string
		pretty bool
		caller bool
	}{
		{args: nil, pretty: true},
		{args: []string{"--no-log-pretty"}, pretty: false},
		{args: []string{"--log-caller", "compile"}, pretty: true, caller: true},
		{args: []string{"--log-caller=false", "--log-pretty=false"}},
		{args: []string{"--", "--log-caller"}, pretty: true},
	}

	for _, tt := range tests {
		t.Run(strings.Join(tt.args, " "), func(t *testing.T) {
			f := logConfig{Pretty: true}
			f.scan(tt.args)

			if f.Pretty != tt.pretty || f.Caller != tt.caller {
				t.Errorf("expected pretty=%v caller=%v, got pretty=%v caller=%v",
					tt.pretty, tt.caller, f.Pretty, f.Caller)
			}
		})
	}
}
