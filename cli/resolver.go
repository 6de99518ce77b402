package cli

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/goccy/go-yaml"
)

// resolve returns a [kong.ConfigurationLoader] reading YAML configuration.
//
// Flags are read from the mapping under the top-level key name, or from the
// document root when that key is absent. Keys may spell flag names with
// hyphens or underscores. Flags of a subcommand may also be nested under
// the command name:
//
//	config:
//	  res: [res, shared/res]
//	  profile: prod
//	  log-level: debug
//	  compile:
//	    out: internal/res/r_generated.go
//	    package: res
//
// Command-line flags override configuration values.
func resolve(name string) kong.ConfigurationLoader {
	return func(r io.Reader) (kong.Resolver, error) {
		var doc map[string]any

		if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
			if errors.Is(err, io.EOF) {
				return config{}, nil
			}

			return nil, err
		}

		if section, ok := doc[name].(map[string]any); ok {
			return config(section), nil
		}

		return config(doc), nil
	}
}

// config implements [kong.Resolver] over a decoded YAML mapping.
type config map[string]any

// Validate implements [kong.Resolver].
func (config) Validate(*kong.Application) error { return nil }

// Resolve implements [kong.Resolver].
func (c config) Resolve(_ *kong.Context, parent *kong.Path, flag *kong.Flag) (any, error) {
	if parent != nil && parent.Command != nil {
		if section, ok := c.lookup(parent.Command.Name).(map[string]any); ok {
			if v := config(section).lookup(flag.Name); v != nil {
				return value(v), nil
			}
		}
	}

	if v := c.lookup(flag.Name); v != nil {
		return value(v), nil
	}

	return nil, nil
}

func (c config) lookup(name string) any {
	if v, ok := c[name]; ok {
		return v
	}

	if v, ok := c[strings.ReplaceAll(name, "-", "_")]; ok {
		return v
	}

	return nil
}

// value converts decoded YAML scalars to the forms kong decodes.
func value(v any) any {
	switch v := v.(type) {
	case uint64:
		return strconv.FormatUint(v, 10)
	case int64:
		return strconv.FormatInt(v, 10)
	case int:
		return strconv.Itoa(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			if _, ok := item.(bool); ok {
				out[i] = item
			} else {
				out[i] = fmt.Sprint(value(item))
			}
		}

		return out
	}

	return v
}
