package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/goccy/go-yaml"

	"github.com/ardnew/resgen/emit"
)

// manifest lists the generated names of every resource.
type manifest struct {
	Package     string       `json:"package"         yaml:"package"`
	Fingerprint string       `json:"fingerprint"     yaml:"fingerprint"`
	Files       []string     `json:"files"           yaml:"files"`
	Resources   []emit.Entry `json:"resources"       yaml:"resources"`
	Tests       []emit.Entry `json:"tests,omitempty" yaml:"tests,omitempty"`
}

// Dump prints a manifest of the generated identifiers.
type Dump struct {
	Format string `default:"yaml" enum:"yaml,json" help:"Manifest format (${enum})" short:"F"`
	Indent int    `default:"2"                     help:"Indentation width"`
	Flow   bool   `help:"Use YAML flow style"`

	out io.Writer
}

// Run executes the dump command.
func (d *Dump) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	res, err := load(ctx)
	if err != nil {
		return err
	}

	m := manifest{
		Package:     res.Output.Package,
		Fingerprint: fmt.Sprintf("%016x", res.Fingerprint),
		Resources:   res.Output.Main.Entries(),
	}

	for _, f := range res.Files {
		m.Files = append(m.Files, f.Path)
	}

	if res.Output.Tests != nil {
		m.Tests = res.Output.Tests.Entries()
	}

	data, err := d.marshal(ctx, m)
	if err != nil {
		return ErrMarshal.Wrap(err)
	}

	_, err = stdout(d.out).Write(data)

	return err
}

func (d *Dump) marshal(ctx context.Context, m manifest) ([]byte, error) {
	indent := max(d.Indent, 1)

	if d.Format == "json" {
		data, err := json.MarshalIndent(m, "", fmt.Sprintf("%*s", indent, ""))
		if err != nil {
			return nil, err
		}

		return append(data, '\n'), nil
	}

	return yaml.MarshalContext(ctx, m, yaml.Indent(indent), yaml.Flow(d.Flow))
}
