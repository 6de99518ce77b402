package cmd

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/ardnew/resgen/compile"
	"github.com/ardnew/resgen/log"
	"github.com/ardnew/resgen/profile"
)

// defaultConfigIndent is the number of spaces used for indentation when
// generating the configuration file.
const defaultConfigIndent = 2

// sampleFile is the name of the resource file written by init --sample.
const sampleFile = "values.xml"

const sampleResources = `<?xml version="1.0" encoding="utf-8"?>
<resources>
  <doc>Application name shown in the title bar.</doc>
  <string name="app_name">My App</string>
  <string name="welcome">Welcome to @string/app_name!</string>

  <ns name="api">
    <url name="host" profile="dev">http://localhost:8080</url>
    <url name="host" profile="prod">https://api.example.com</url>
    <number name="timeout_seconds">30</number>
  </ns>

  <bool name="debug" profile="dev">true</bool>
  <bool name="debug" profile="prod">false</bool>

  <color name="accent">#FF6200EE</color>
  <number name="ratio">0.75</number>

  <array name="retry_delays" type="i32">
    <item>100</item>
    <item>500</item>
    <item>2500</item>
  </array>

  <template name="greeting">
    <string name="name"/>
    <int name="count"/>
    Hello {name}, you have {count} messages!
  </template>
</resources>
`

// Init generates a configuration file with the current flag values.
type Init struct {
	Force  bool `help:"Overwrite existing files"                         short:"f"`
	Sample bool `help:"Also write a sample resource file to the first resource directory"`
}

// Run executes the init command.
func (i *Init) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	ktx := kongContextFrom(ctx)
	if ktx == nil {
		return ErrNoContext
	}

	confPath, ok := ktx.Model.Vars()[ConfigIdentifier]
	if !ok {
		panic("internal error: config namespace undefined")
	}

	data, err := yaml.MarshalWithOptions(
		yaml.MapSlice{{Key: ConfigIdentifier, Value: i.settings(ctx)}},
		yaml.Indent(defaultConfigIndent),
		yaml.IndentSequence(true),
	)
	if err != nil {
		return ErrWriteConfig.With(slog.String("file", confPath)).Wrap(err)
	}

	if err := i.create(confPath, data); err != nil {
		return ErrWriteConfig.With(slog.String("file", confPath)).Wrap(err)
	}

	log.DebugContext(ctx, "initialized configuration file", slog.String("path", confPath))

	if !i.Sample {
		return nil
	}

	dir := compile.DefaultDir
	if dirs := resourcesFrom(ctx).Dirs; len(dirs) > 0 {
		dir = dirs[0]
	}

	path := filepath.Join(dir, sampleFile)

	if err := i.create(path, []byte(sampleResources)); err != nil {
		return ErrWriteOutput.With(slog.String("file", path)).Wrap(err)
	}

	log.DebugContext(ctx, "wrote sample resources", slog.String("path", path))

	return nil
}

// create writes data to a new file at path, replacing an existing file only
// when forced.
func (i *Init) create(path string, data []byte) error {
	if _, err := os.Stat(path); err == nil && !i.Force {
		return ErrFileExists.With(slog.Bool("exists", true))
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o644) //nolint:gosec
}

// settings returns the set values of the application flags in declaration
// order.
func (i *Init) settings(ctx context.Context) yaml.MapSlice {
	ktx := kongContextFrom(ctx)

	prefixIgnore := []string{"help", "version", profile.Tag}

	var out yaml.MapSlice

	for _, flag := range ktx.Model.Flags {
		if flag.Hidden || slices.ContainsFunc(prefixIgnore, func(s string) bool {
			return strings.HasPrefix(flag.Name, s)
		}) {
			continue
		}

		if v := setting(ktx.FlagValue(flag)); v != nil {
			out = append(out, yaml.MapItem{Key: flag.Name, Value: v})
		}
	}

	return out
}

// setting returns v, or nil when v is unset.
func setting(v any) any {
	switch v := v.(type) {
	case nil:
		return nil
	case string:
		if v == "" {
			return nil
		}
	case []string:
		if len(v) == 0 {
			return nil
		}
	case []int:
		if len(v) == 0 {
			return nil
		}
	case []bool:
		if len(v) == 0 {
			return nil
		}
	case []float64:
		if len(v) == 0 {
			return nil
		}
	}

	return v
}
