package ir

import (
	"strings"

	"github.com/ardnew/resgen/kind"
)

// Sep separates namespace segments in resource names.
const Sep = "/"

// Key identifies a resource within its kind.
type Key struct {
	Namespace []string
	Name      string
}

// ParseKey splits name into sanitized namespace segments and leaf name.
// Empty segments are dropped.
func ParseKey(name string) Key {
	var segs []string

	for seg := range strings.SplitSeq(name, Sep) {
		if seg = strings.TrimSpace(seg); seg != "" {
			segs = append(segs, kind.Sanitize(seg))
		}
	}

	if len(segs) == 0 {
		return Key{}
	}

	return Key{Namespace: segs[:len(segs)-1], Name: segs[len(segs)-1]}
}

// Path returns the sanitized full name of k.
func (k Key) Path() string {
	if len(k.Namespace) == 0 {
		return k.Name
	}

	return strings.Join(k.Namespace, Sep) + Sep + k.Name
}

// Segments returns the namespace segments followed by the leaf name.
func (k Key) Segments() []string {
	return append(append([]string(nil), k.Namespace...), k.Name)
}

func (k Key) String() string { return k.Path() }

// Valid reports whether k names a resource.
func (k Key) Valid() bool { return k.Name != "" }
