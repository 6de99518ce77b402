package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/goccy/go-yaml"

	"github.com/ardnew/resgen/emit"
)

const valuesXML = `<resources>
  <string name="app_name">My App</string>
  <ns name="ui">
    <string name="title">@string/app_name</string>
  </ns>
  <number name="max_retries">3</number>
  <url name="host" profile="prod">https://example.com</url>
  <url name="host" profile="dev">http://localhost</url>
</resources>`

const fixturesXML = `<resources>
  <string name="fixture">Fixture for @string/app_name</string>
</resources>`

func write(t *testing.T, path, content string) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

// resources writes a resource directory with test-only resources and
// returns a context selecting it.
func resources(t *testing.T, tests bool) (context.Context, string) {
	t.Helper()

	root := t.TempDir()
	dir := filepath.Join(root, "res")

	write(t, filepath.Join(dir, "values.xml"), valuesXML)
	write(t, filepath.Join(dir, "tests", "fixtures.xml"), fixturesXML)

	ctx := WithResources(context.Background(), Resources{
		Dirs:    []string{dir},
		Tests:   tests,
		Profile: "dev",
	})

	return ctx, root
}

func exists(path string) bool {
	_, err := os.Stat(path)

	return err == nil
}

func TestCompile_Run(t *testing.T) {
	ctx, root := resources(t, true)
	out := filepath.Join(root, "gen", "r_generated.go")

	if err := (&Compile{Out: out, Package: "res"}).Run(ctx); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}

	if !bytes.HasPrefix(data, []byte(emit.Header)) {
		t.Errorf("expected generated header, got %q", data[:min(len(data), 60)])
	}

	if !bytes.Contains(data, []byte("http://localhost")) || bytes.Contains(data, []byte("example.com")) {
		t.Error("expected dev profile resources only")
	}

	testFile := filepath.Join(root, "gen", "r_generated_test.go")
	if !exists(testFile) {
		t.Fatal("expected test-only resources in a _test.go file")
	}

	// Gating the tests behind a tag replaces the _test.go file.
	if err := (&Compile{Out: out, TestsTag: "restests"}).Run(ctx); err != nil {
		t.Fatal(err)
	}

	tagged := filepath.Join(root, "gen", "r_generated_tests.go")
	if !exists(tagged) || exists(testFile) {
		t.Errorf("expected only %s, got _test.go=%v _tests.go=%v", tagged, exists(testFile), exists(tagged))
	}

	data, err = os.ReadFile(tagged)
	if err != nil {
		t.Fatal(err)
	}

	if !bytes.Contains(data, []byte("//go:build restests")) {
		t.Error("expected build constraint in tagged test source")
	}

	// Without test resources every stale test file is removed.
	ctx = WithResources(ctx, Resources{Dirs: resourcesFrom(ctx).Dirs, Profile: "dev"})

	if err := (&Compile{Out: out}).Run(ctx); err != nil {
		t.Fatal(err)
	}

	if exists(tagged) || exists(testFile) {
		t.Error("expected stale test sources removed")
	}
}

func TestCompile_KeepsForeignFiles(t *testing.T) {
	ctx, root := resources(t, false)
	out := filepath.Join(root, "r_generated.go")
	handwritten := filepath.Join(root, "r_generated_test.go")

	write(t, handwritten, "package res\n")

	if err := (&Compile{Out: out}).Run(ctx); err != nil {
		t.Fatal(err)
	}

	if !exists(handwritten) {
		t.Error("expected file without generated header to survive")
	}
}

func TestCompile_Unchanged(t *testing.T) {
	ctx, root := resources(t, false)
	out := filepath.Join(root, "r_generated.go")

	if err := (&Compile{Out: out}).Run(ctx); err != nil {
		t.Fatal(err)
	}

	before, err := os.Stat(out)
	if err != nil {
		t.Fatal(err)
	}

	if err := os.Chmod(out, 0o444); err != nil {
		t.Fatal(err)
	}

	// An unchanged file is not rewritten, so its read-only mode is no obstacle.
	if err := (&Compile{Out: out}).Run(ctx); err != nil {
		t.Fatalf("expected unchanged output to be skipped, got %v", err)
	}

	after, err := os.Stat(out)
	if err != nil {
		t.Fatal(err)
	}

	if !after.ModTime().Equal(before.ModTime()) {
		t.Error("expected unchanged file not rewritten")
	}
}

func TestCompile_Stdout(t *testing.T) {
	ctx, _ := resources(t, true)

	var buf bytes.Buffer

	if err := (&Compile{Package: "strings", Stdout: true, out: &buf}).Run(ctx); err != nil {
		t.Fatal(err)
	}

	got := buf.String()

	for _, want := range []string{"package strings", `"My App"`, "RTests"} {
		if !strings.Contains(got, want) {
			t.Errorf("expected output to contain %q", want)
		}
	}
}

func TestCompile_MalformedInput(t *testing.T) {
	ctx, root := resources(t, false)

	write(t, filepath.Join(resourcesFrom(ctx).Dirs[0], "broken.xml"), `<resources><string name="x">`)

	err := (&Compile{Out: filepath.Join(root, "r_generated.go")}).Run(ctx)
	if err == nil {
		t.Fatal("expected error")
	}

	if exists(filepath.Join(root, "r_generated.go")) {
		t.Error("expected no output on failure")
	}
}

func TestTestsPath(t *testing.T) {
	tests := []struct {
		out      string
		tag      string
		expected string
	}{
		{"r_generated.go", "", "r_generated_test.go"},
		{"r_generated.go", "restests", "r_generated_tests.go"},
		{"gen/res", "", "gen/res_test.go"},
	}

	for _, tt := range tests {
		if got := testsPath(tt.out, tt.tag); got != tt.expected {
			t.Errorf("testsPath(%q, %q) = %q, expected %q", tt.out, tt.tag, got, tt.expected)
		}
	}
}

func TestCheck_Run(t *testing.T) {
	ctx, _ := resources(t, true)

	var buf bytes.Buffer

	if err := (&Check{out: &buf}).Run(ctx); err != nil {
		t.Fatal(err)
	}

	got := buf.String()

	for _, want := range []string{"5 resources in 2 files", "string", "number", "url", "tests", "fingerprint"} {
		if !strings.Contains(got, want) {
			t.Errorf("expected summary to contain %q, got:\n%s", want, got)
		}
	}
}

func TestDump_Run(t *testing.T) {
	ctx, _ := resources(t, true)

	t.Run("yaml", func(t *testing.T) {
		var buf bytes.Buffer

		if err := (&Dump{Format: "yaml", Indent: 2, out: &buf}).Run(ctx); err != nil {
			t.Fatal(err)
		}

		var m manifest
		if err := yaml.Unmarshal(buf.Bytes(), &m); err != nil {
			t.Fatal(err)
		}

		if len(m.Resources) != 4 || len(m.Tests) != 1 {
			t.Errorf("expected 4 resources and 1 test, got %d and %d", len(m.Resources), len(m.Tests))
		}

		if m.Package != "res" {
			t.Errorf("expected package res, got %q", m.Package)
		}
	})

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer

		if err := (&Dump{Format: "json", Indent: 4, out: &buf}).Run(ctx); err != nil {
			t.Fatal(err)
		}

		var m manifest
		if err := json.Unmarshal(buf.Bytes(), &m); err != nil {
			t.Fatal(err)
		}

		if len(m.Files) != 2 {
			t.Errorf("expected 2 files, got %v", m.Files)
		}

		if !strings.Contains(buf.String(), "\n    \"package\"") {
			t.Error("expected four-space indentation")
		}
	})
}

func TestEval_Run(t *testing.T) {
	ctx, _ := resources(t, true)

	var buf bytes.Buffer

	e := &Eval{
		Exprs: []string{`String.Ui.TITLE`, `Number.MAX_RETRIES + 1`, `RTests.FIXTURE`},
		out:   &buf,
	}

	if err := e.Run(ctx); err != nil {
		t.Fatal(err)
	}

	expected := "My App\n4\nFixture for My App\n"
	if buf.String() != expected {
		t.Errorf("expected %q, got %q", expected, buf.String())
	}

	if err := (&Eval{Exprs: []string{`1 +`}, out: &buf}).Run(ctx); err == nil {
		t.Error("expected evaluation error")
	}
}

type initCLI struct {
	Res     []string `default:"res" short:"r"`
	Profile string   `default:"prod"`
	Secret  string   `default:"x"    hidden:""`
	Workers int      `default:"4"`

	Init Init `cmd:""`
}

func initContext(t *testing.T, dir string) (context.Context, string) {
	t.Helper()

	confPath := filepath.Join(t.TempDir(), "config.yaml")

	var cli initCLI

	parser, err := kong.New(&cli, kong.Vars{ConfigIdentifier: confPath})
	if err != nil {
		t.Fatal(err)
	}

	kctx, err := parser.Parse([]string{"init", "-r", dir})
	if err != nil {
		t.Fatal(err)
	}

	ctx := WithContext(context.Background(), kctx)
	ctx = WithResources(ctx, Resources{Dirs: []string{dir}})

	return ctx, confPath
}

func TestInit_Run(t *testing.T) {
	tests := []struct {
		name      string
		existing  bool
		force     bool
		expectErr error
	}{
		{name: "new file"},
		{name: "existing without force", existing: true, expectErr: ErrFileExists},
		{name: "existing with force", existing: true, force: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := filepath.Join(t.TempDir(), "res")
			ctx, confPath := initContext(t, dir)

			if tt.existing {
				write(t, confPath, "old")
			}

			err := (&Init{Force: tt.force}).Run(ctx)
			if tt.expectErr != nil {
				if !errors.Is(err, tt.expectErr) {
					t.Fatalf("expected %v, got %v", tt.expectErr, err)
				}

				return
			}

			if err != nil {
				t.Fatal(err)
			}

			data, err := os.ReadFile(confPath)
			if err != nil {
				t.Fatal(err)
			}

			var doc map[string]map[string]any
			if err := yaml.Unmarshal(data, &doc); err != nil {
				t.Fatalf("invalid yaml %q: %v", data, err)
			}

			conf := doc[ConfigIdentifier]
			if conf["profile"] != "prod" {
				t.Errorf("expected profile prod, got %v", conf["profile"])
			}

			if _, ok := conf["secret"]; ok {
				t.Error("expected hidden flag omitted")
			}

			if _, ok := conf["help"]; ok {
				t.Error("expected help flag omitted")
			}

			if res, ok := conf["res"].([]any); !ok || len(res) != 1 || res[0] != dir {
				t.Errorf("expected res [%s], got %v", dir, conf["res"])
			}
		})
	}
}

func TestInit_Sample(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "res")
	ctx, _ := initContext(t, dir)

	if err := (&Init{Sample: true}).Run(ctx); err != nil {
		t.Fatal(err)
	}

	if !exists(filepath.Join(dir, sampleFile)) {
		t.Fatal("expected sample resource file")
	}

	// The sample compiles.
	var buf bytes.Buffer

	if err := (&Eval{Exprs: []string{`greeting("Ann", 2)`, `URL.Api.HOST`}, out: &buf}).Run(ctx); err != nil {
		t.Fatal(err)
	}

	expected := "Hello Ann, you have 2 messages!\nhttp://localhost:8080\n"
	if buf.String() != expected {
		t.Errorf("expected %q, got %q", expected, buf.String())
	}
}

func TestInit_NoContext(t *testing.T) {
	if err := (&Init{}).Run(context.Background()); !errors.Is(err, ErrNoContext) {
		t.Errorf("expected ErrNoContext, got %v", err)
	}
}
