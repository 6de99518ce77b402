// Package filter removes declarations that belong to other build profiles.
//
// An element carrying a profile attribute survives only when the attribute
// equals the active profile; otherwise the element and its whole subtree are
// dropped. Elements without the attribute are always kept.
package filter

import (
	"bytes"
	"encoding/xml"
	"errors"
	"io"
)

// Attr is the name of the attribute selecting a build profile.
const Attr = "profile"

// DefaultProfile is the profile used when none is configured.
const DefaultProfile = "dev"

// Profile returns data without the subtrees whose profile attribute differs
// from profile. Comments, processing instructions and directives are not
// preserved. Entities are decoded with the same rules the parser uses. The
// second result is false when data could not be tokenized; data is then
// returned unchanged so that the parser reports the problem against the
// original text. Documents that never mention the attribute are
// returned as they are.
func Profile(data []byte, profile string) ([]byte, bool) {
	if !bytes.Contains(data, []byte(Attr)) {
		return data, true
	}

	out, err := filter(data, profile)
	if err != nil {
		return data, false
	}

	return out, true
}

func filter(data []byte, profile string) ([]byte, error) {
	var out bytes.Buffer

	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Strict = true
	dec.Entity = xml.HTMLEntity

	enc := xml.NewEncoder(&out)

	skip := 0

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if skip > 0 {
				skip++

				continue
			}

			if p, ok := attr(t, Attr); ok && p != profile {
				skip = 1

				continue
			}

			err = enc.EncodeToken(strip(t))

		case xml.EndElement:
			if skip > 0 {
				skip--

				continue
			}

			t.Name.Space = ""
			err = enc.EncodeToken(t)

		case xml.CharData:
			if skip == 0 {
				err = enc.EncodeToken(t)
			}
		}

		if err != nil {
			return nil, err
		}
	}

	if err := enc.Flush(); err != nil {
		return nil, err
	}

	return out.Bytes(), nil
}

func attr(t xml.StartElement, name string) (string, bool) {
	for _, a := range t.Attr {
		if a.Name.Space == "" && a.Name.Local == name {
			return a.Value, true
		}
	}

	return "", false
}

// strip drops namespace declarations resolved by the decoder, which the
// encoder would otherwise emit a second time.
func strip(t xml.StartElement) xml.StartElement {
	t = t.Copy()
	t.Name.Space = ""

	attrs := t.Attr[:0]

	for _, a := range t.Attr {
		if a.Name.Space == "xmlns" || (a.Name.Space == "" && a.Name.Local == "xmlns") {
			continue
		}

		a.Name.Space = ""
		attrs = append(attrs, a)
	}

	t.Attr = attrs

	return t
}
