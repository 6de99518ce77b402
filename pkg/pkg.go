//nolint:gochecknoglobals
package pkg

import (
	_ "embed"
	"strings"
)

//go:embed VERSION
var version string

// Version returns the semantic version of resgen embedded at build time.
func Version() string { return strings.TrimSpace(version) }

const (
	// Name is the command name. It prefixes environment variables, names the
	// user configuration directory, and appears in generated file headers.
	Name = "resgen"
	// Description is a short summary of the project used in help output.
	Description = "Typed resource constant compiler"
)

// EnvPrefix is the prefix of every environment variable read by resgen.
var EnvPrefix = strings.ToUpper(Name) + "_"

// AuthorInfo represents an individual author's name and email address.
type AuthorInfo struct {
	Name  string
	Email string
}

// Author lists the primary author(s) of the project for display in metadata.
var Author = []AuthorInfo{
	{"ardnew", "andrew@ardnew.com"},
}
