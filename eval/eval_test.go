package eval

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/ardnew/resgen/compile"
	"github.com/ardnew/resgen/source"
)

const mainXML = `<resources>
  <string name="app_name">My App</string>
  <ns name="ui">
    <string name="title">@string/app_name</string>
  </ns>
  <number name="max_retries">3</number>
  <number name="ratio">0.5</number>
  <bool name="debug">true</bool>
  <array name="sizes" type="i32"><item>1</item><item>2</item><item>3</item></array>
  <template name="greeting">
    <string name="name"/>
    <int name="count"/>
    Hello {name}, you have {count} messages!
  </template>
</resources>`

const testsXML = `<resources>
  <string name="fixture">Fixture for @string/app_name</string>
  <template name="probe"><string name="x"/>probe {x}</template>
</resources>`

func env(t *testing.T) *Env {
	t.Helper()

	res, err := compile.Files(context.Background(),
		[]source.File{source.Make("res/values.xml", []byte(mainXML), false)},
		[]source.File{source.Make("res/tests/values.xml", []byte(testsXML), true)},
	)
	if err != nil {
		t.Fatal(err)
	}

	return New(res)
}

func TestEnv_Eval(t *testing.T) {
	e := env(t)

	tests := []struct {
		src      string
		expected string
	}{
		{`String.APP_NAME`, "My App"},
		{`String.Ui.TITLE`, "My App"},
		{`R.UI_TITLE`, "My App"},
		{`Number.MAX_RETRIES * 2`, "6"},
		{`R.RATIO + 0.25`, "0.75"},
		{`!Bool.DEBUG`, "false"},
		{`len(Array.SIZES)`, "3"},
		{`greeting("Alice", 5)`, "Hello Alice, you have 5 messages!"},
		{`upper(R.APP_NAME)`, `MY APP`},
		{`RTests.FIXTURE`, `Fixture for My App`},
		{`RTests_probe("ok")`, `probe ok`},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			got, err := e.Eval(context.Background(), tt.src)
			if err != nil {
				t.Fatal(err)
			}

			if s := Format(got); s != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, s)
			}
		})
	}
}

func TestEnv_EvalErrors(t *testing.T) {
	e := env(t)

	tests := []struct {
		src      string
		expected error
	}{
		{"", ErrEmpty},
		{"   ", ErrEmpty},
		{"String.APP_NAME +", ErrCompile},
		{`greeting("Alice")`, ErrEvaluate},
		{`greeting(1, 2)`, ErrEvaluate},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			_, err := e.Eval(context.Background(), tt.src)
			if !errors.Is(err, tt.expected) {
				t.Errorf("expected %v, got %v", tt.expected, err)
			}
		})
	}
}

func TestEnv_EvalCanceled(t *testing.T) {
	e := env(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := e.Eval(ctx, "1"); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestEnv_Names(t *testing.T) {
	names := env(t).Names()

	for _, want := range []string{
		"String", "String.Ui", "String.Ui.TITLE", "R", "R.APP_NAME",
		"greeting", "RTests", "RTests.FIXTURE", "RTests_probe",
	} {
		if !slices.Contains(names, want) {
			t.Errorf("expected names to contain %q, got %v", want, names)
		}
	}

	if !slices.IsSorted(names) {
		t.Error("expected sorted names")
	}
}

func TestEnv_Funcs(t *testing.T) {
	funcs := env(t).Funcs()

	if got := funcs["greeting"]; got != "func(name string, count int64) string" {
		t.Errorf("expected greeting signature, got %q", got)
	}
}

func TestFormat(t *testing.T) {
	tests := []struct {
		value    any
		expected string
	}{
		{nil, "nil"},
		{"plain", "plain"},
		{"", `""`},
		{"a\tb", `"a\tb"`},
		{" padded", `" padded"`},
		{true, "true"},
		{int64(42), "42"},
		{1.5, "1.5"},
		{[]any{1, 2}, "[1, 2]"},
	}

	for _, tt := range tests {
		if got := Format(tt.value); got != tt.expected {
			t.Errorf("Format(%#v): expected %q, got %q", tt.value, tt.expected, got)
		}
	}
}
