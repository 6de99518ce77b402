package compile

import (
	"bytes"
	"context"
	"errors"
	"math/big"
	"os"
	"path/filepath"
	"testing"

	"github.com/ardnew/resgen/kind"
	"github.com/ardnew/resgen/parse"
	"github.com/ardnew/resgen/resolve"
	"github.com/ardnew/resgen/source"
)

const stringsXML = `<resources>
  <string name="app_name">My App</string>
  <string name="welcome">Welcome to @string/app_name!</string>
</resources>`

const numbersXML = `<resources>
  <number name="max_retries">3</number>
  <string name="retry_label">Retries</string>
</resources>`

const testsXML = `<resources>
  <string name="fixture">@string/app_name</string>
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

func value(t *testing.T, res *Result, k kind.Kind, key string) any {
	t.Helper()

	n, ok := res.Program.Model().Lookup(k, key)
	if !ok {
		t.Fatalf("expected %s/%s to exist", k, key)
	}

	v, ok := res.Program.Value(n)
	if !ok {
		t.Fatalf("expected %s/%s to have a value", k, key)
	}

	return v
}

func TestRun(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "res")
	write(t, filepath.Join(dir, "strings.xml"), stringsXML)
	write(t, filepath.Join(dir, "numbers.xml"), numbersXML)
	write(t, filepath.Join(dir, "ignored.txt"), "not a resource")
	write(t, filepath.Join(dir, TestsDir, "fixtures.xml"), testsXML)

	res, err := Run(context.Background(), WithDirs(dir))
	if err != nil {
		t.Fatal(err)
	}

	if len(res.Files) != 3 {
		t.Fatalf("expected 3 files, got %d", len(res.Files))
	}

	if !res.Output.HasTests || res.Tests == nil {
		t.Fatal("expected test resources")
	}

	if got := res.Len(); got != 5 {
		t.Errorf("expected 5 resources, got %d", got)
	}

	if got := value(t, res, kind.String, "welcome"); got != "Welcome to My App!" {
		t.Errorf("expected interpolated welcome, got %v", got)
	}

	for _, want := range []string{"String_APP_NAME", "Number_MAX_RETRIES", "var R = rFlat{"} {
		if !bytes.Contains(res.Output.Source, []byte(want)) {
			t.Errorf("expected source to contain %q", want)
		}
	}

	if !bytes.Contains(res.Output.TestSource, []byte("RTestsString_FIXTURE = String_APP_NAME")) {
		t.Errorf("expected test source to alias the main resource:\n%s", res.Output.TestSource)
	}
}

func TestRun_NoTests(t *testing.T) {
	dir := t.TempDir()
	write(t, filepath.Join(dir, "strings.xml"), stringsXML)
	write(t, filepath.Join(dir, TestsDir, "fixtures.xml"), testsXML)

	res, err := Run(context.Background(), WithDirs(dir), WithTests(false))
	if err != nil {
		t.Fatal(err)
	}

	if res.Output.HasTests || res.Tests != nil {
		t.Error("expected no test resources")
	}
}

func TestRun_MissingDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "absent")

	res, err := Run(context.Background(), WithDirs(dir))
	if err != nil {
		t.Fatal(err)
	}

	if res.Len() != 0 {
		t.Errorf("expected no resources, got %d", res.Len())
	}

	if !bytes.Contains(res.Output.Source, []byte("var R = rFlat{}")) {
		t.Errorf("expected empty flat namespace:\n%s", res.Output.Source)
	}
}

func TestRun_SearchPath(t *testing.T) {
	root := t.TempDir()
	first := filepath.Join(root, "first")
	extra := filepath.Join(root, "extra")

	write(t, filepath.Join(first, "strings.xml"), stringsXML)
	write(t, filepath.Join(extra, "numbers.xml"), numbersXML)

	res, err := Run(context.Background(),
		WithDirs(first),
		WithSearchPath(extra+string(os.PathListSeparator)+filepath.Join(root, "nope")),
	)
	if err != nil {
		t.Fatal(err)
	}

	if _, ok := res.Program.Model().Lookup(kind.Number, "max_retries"); !ok {
		t.Error("expected resources from the search path")
	}
}

func TestFiles_Profile(t *testing.T) {
	src := `<resources>
  <string name="nbsp">a&nbsp;b</string>
  <string name="api" profile="dev">http://localhost</string>
  <string name="api" profile="prod">https://example.com</string>
</resources>`

	files := []source.File{source.Make("api.xml", []byte(src), false)}

	tests := []struct {
		profile  string
		expected string
	}{
		{"", "http://localhost"},
		{"dev", "http://localhost"},
		{"prod", "https://example.com"},
	}

	for _, tt := range tests {
		t.Run("profile="+tt.profile, func(t *testing.T) {
			res, err := Files(context.Background(), files, nil, WithProfile(tt.profile))
			if err != nil {
				t.Fatal(err)
			}

			if got := value(t, res, kind.String, "api"); got != tt.expected {
				t.Errorf("expected %q, got %v", tt.expected, got)
			}

			if got := value(t, res, kind.String, "nbsp"); got != "a\u00a0b" {
				t.Errorf("expected entity decoded, got %q", got)
			}

			for _, other := range []string{"http://localhost", "https://example.com"} {
				if other != tt.expected && bytes.Contains(res.Output.Source, []byte(other)) {
					t.Errorf("expected %q filtered out of generated source", other)
				}
			}
		})
	}
}

func TestFiles_NumberAliases(t *testing.T) {
	src := `<resources>
  <float name="pi">3.14159265358979323846</float>
  <double name="e">2.5</double>
  <int name="big">123456789012345678901234567890</int>
  <integer name="small">42</integer>
  <int name="narrow" type="u8">7</int>
</resources>`

	res, err := Files(context.Background(),
		[]source.File{source.Make("numbers.xml", []byte(src), false)}, nil)
	if err != nil {
		t.Fatal(err)
	}

	for _, key := range []string{"pi", "big"} {
		r, ok := value(t, res, kind.Number, key).(*big.Rat)
		if !ok {
			t.Errorf("expected %s to fall back to a decimal, got %T", key, value(t, res, kind.Number, key))

			continue
		}

		if key == "pi" && r.FloatString(20) != "3.14159265358979323846" {
			t.Errorf("expected pi kept exactly, got %s", r.FloatString(20))
		}
	}

	if got, ok := value(t, res, kind.Number, "e").(float64); !ok || got != 2.5 {
		t.Errorf("expected float64 2.5, got %T %v", value(t, res, kind.Number, "e"), got)
	}

	if got, ok := value(t, res, kind.Number, "small").(int64); !ok || got != 42 {
		t.Errorf("expected int64 42, got %T %v", value(t, res, kind.Number, "small"), got)
	}

	if got, ok := value(t, res, kind.Number, "narrow").(uint8); !ok || got != 7 {
		t.Errorf("expected uint8 7, got %T %v", value(t, res, kind.Number, "narrow"), got)
	}
}

func TestFiles_Errors(t *testing.T) {
	tests := []struct {
		name     string
		files    []source.File
		expected []error
	}{
		{
			name: "malformed",
			files: []source.File{
				source.Make("a.xml", []byte(`<resources><string name="x">`), false),
				source.Make("b.xml", []byte(`<resources><string name="y">ok</string>`), false),
			},
			expected: []error{ErrParse, parse.ErrMalformedInput},
		},
		{
			name: "dangling",
			files: []source.File{
				source.Make("a.xml", []byte(`<resources><string name="x">@string/missing</string></resources>`), false),
			},
			expected: []error{resolve.ErrDanglingReference},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Files(context.Background(), tt.files, nil)
			if err == nil {
				t.Fatalf("expected error, got result with %d resources", res.Len())
			}

			for _, want := range tt.expected {
				if !errors.Is(err, want) {
					t.Errorf("expected %v to match %v", err, want)
				}
			}
		})
	}
}

func TestFiles_Fingerprint(t *testing.T) {
	a := []source.File{source.Make("a.xml", []byte(stringsXML), false)}
	b := []source.File{source.Make("a.xml", []byte(numbersXML), false)}

	ctx := context.Background()

	r1, err := Files(ctx, a, nil)
	if err != nil {
		t.Fatal(err)
	}

	r2, err := Files(ctx, a, nil)
	if err != nil {
		t.Fatal(err)
	}

	r3, err := Files(ctx, b, nil)
	if err != nil {
		t.Fatal(err)
	}

	if r1.Fingerprint != r2.Fingerprint {
		t.Error("expected equal fingerprints for equal input")
	}

	if r1.Fingerprint == r3.Fingerprint {
		t.Error("expected different fingerprints for different input")
	}

	if !bytes.Equal(r1.Output.Source, r2.Output.Source) {
		t.Error("expected byte-identical output for equal input")
	}
}

func TestFiles_Package(t *testing.T) {
	files := []source.File{source.Make("a.xml", []byte(stringsXML), false)}

	res, err := Files(context.Background(), files, nil, WithPackage("assets"))
	if err != nil {
		t.Fatal(err)
	}

	if !bytes.Contains(res.Output.Source, []byte("package assets")) {
		t.Errorf("expected package clause:\n%s", res.Output.Source)
	}
}
