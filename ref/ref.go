// Package ref recognizes resource reference markers of the form @kind/key.
package ref

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ardnew/resgen/kind"
)

// Ref names another resource by kind and key.
// Kind holds the name as written, which is not necessarily a valid kind.
type Ref struct {
	Kind string
	Key  string
}

func (r Ref) String() string { return "@" + r.Kind + "/" + r.Key }

// Token returns the "kind:key" string identifying the target during
// cycle detection.
func (r Ref) Token() string { return r.Kind + ":" + r.Key }

// Parse reports whether text is a pure reference: a single marker with no
// surrounding text and no whitespace.
func Parse(text string) (Ref, bool) {
	if !strings.HasPrefix(text, "@") || strings.Count(text, "@") != 1 {
		return Ref{}, false
	}

	if strings.IndexFunc(text, unicode.IsSpace) >= 0 {
		return Ref{}, false
	}

	k, key, ok := strings.Cut(text[1:], "/")
	if !ok || k == "" || key == "" {
		return Ref{}, false
	}

	return Ref{Kind: k, Key: key}, true
}

// Part is one segment of an interpolated string: literal text, or a
// reference when IsRef is set.
type Part struct {
	Text  string
	Ref   Ref
	IsRef bool
}

// Raw returns the source text of the part.
func (p Part) Raw() string {
	if p.IsRef {
		return p.Ref.String()
	}

	return p.Text
}

// Scan splits text into literal and reference parts.
//
// A marker is recognized when '@' is followed by a known kind name, a '/',
// and at least one key character. Keys consist of letters, digits, '_' and
// '-', and may contain '/' between key characters. Keys are matched
// greedily; callers may shorten them at '/' boundaries with [Ref.Prefixes].
func Scan(text string) []Part {
	var (
		parts []Part
		lit   strings.Builder
	)

	flush := func() {
		if lit.Len() > 0 {
			parts = append(parts, Part{Text: lit.String()})
			lit.Reset()
		}
	}

	for i := 0; i < len(text); {
		if text[i] != '@' {
			r, size := utf8.DecodeRuneInString(text[i:])
			lit.WriteRune(r)
			i += size

			continue
		}

		r, n, ok := marker(text[i+1:])
		if !ok {
			lit.WriteByte('@')
			i++

			continue
		}

		flush()

		parts = append(parts, Part{Ref: r, IsRef: true})
		i += 1 + n
	}

	flush()

	return parts
}

// HasMarker reports whether text contains at least one reference marker.
func HasMarker(text string) bool {
	for _, p := range Scan(text) {
		if p.IsRef {
			return true
		}
	}

	return false
}

// marker matches "kind/key" at the start of s and returns its length.
func marker(s string) (Ref, int, bool) {
	slash := strings.IndexByte(s, '/')
	if slash <= 0 {
		return Ref{}, 0, false
	}

	name := s[:slash]
	if _, ok := kind.Parse(name); !ok || strings.ToLower(name) != name {
		return Ref{}, 0, false
	}

	end := slash + 1

	for end < len(s) {
		r, size := utf8.DecodeRuneInString(s[end:])
		if r == '/' && end > slash+1 {
			next, _ := utf8.DecodeRuneInString(s[end+size:])
			if !keyRune(next) {
				break
			}
		} else if !keyRune(r) {
			break
		}

		end += size
	}

	if end == slash+1 {
		return Ref{}, 0, false
	}

	return Ref{Kind: name, Key: s[slash+1 : end]}, end, true
}

func keyRune(r rune) bool {
	return r == '_' || r == '-' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// Prefixes returns r followed by every shorter reference obtained by cutting
// its key at a '/' boundary, longest first, each with the text removed.
func (r Ref) Prefixes() []Split {
	splits := []Split{{Ref: r}}

	key := r.Key
	for {
		i := strings.LastIndexByte(key, '/')
		if i <= 0 {
			return splits
		}

		key = key[:i]
		splits = append(splits, Split{
			Ref:    Ref{Kind: r.Kind, Key: key},
			Suffix: r.Key[len(key):],
		})
	}
}

// Split is a candidate reading of a greedy marker.
type Split struct {
	Ref    Ref
	Suffix string
}
