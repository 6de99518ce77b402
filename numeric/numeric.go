// Package numeric classifies numeric literals into the narrowest Go
// representation that holds them exactly.
package numeric

import (
	"fmt"
	"log/slog"
	"math/big"
	"regexp"
	"strconv"
	"strings"

	"github.com/ardnew/resgen/pkg"
)

var (
	ErrInvalidLiteral = pkg.NewError("invalid numeric literal")
	ErrUnknownType    = pkg.NewError("unknown numeric type")
	// ErrNotNumeric reports untyped text that is not a number at all.
	// Callers drop the declaration instead of failing.
	ErrNotNumeric = pkg.NewError("not a numeric literal")
)

// MaxFloatDigits is the number of significant decimal digits a float64
// is trusted to hold exactly.
const MaxFloatDigits = 15

// Repr is a storage representation of a number.
type Repr int

const (
	Int64 Repr = iota
	Int8
	Int16
	Int32
	Uint8
	Uint16
	Uint32
	Uint64
	Float32
	Float64
	Decimal
)

var specs = [...]string{
	Int64:   "i64",
	Int8:    "i8",
	Int16:   "i16",
	Int32:   "i32",
	Uint8:   "u8",
	Uint16:  "u16",
	Uint32:  "u32",
	Uint64:  "u64",
	Float32: "f32",
	Float64: "f64",
	Decimal: "bigdecimal",
}

var goTypes = [...]string{
	Int64:   "int64",
	Int8:    "int8",
	Int16:   "int16",
	Int32:   "int32",
	Uint8:   "uint8",
	Uint16:  "uint16",
	Uint32:  "uint32",
	Uint64:  "uint64",
	Float32: "float32",
	Float64: "float64",
	Decimal: "*big.Rat",
}

var typeAliases = map[string]Repr{
	"int":     Int64,
	"integer": Int64,
	"long":    Int64,
	"float":   Float64,
	"double":  Float64,
	"decimal": Decimal,
}

// Spec returns the type name accepted by [ParseType].
func (r Repr) Spec() string { return specs[r] }

func (r Repr) String() string { return specs[r] }

// GoType returns the Go type that stores values of representation r.
func (r Repr) GoType() string { return goTypes[r] }

// Signed reports whether r is a signed fixed-width integer.
func (r Repr) Signed() bool { return r >= Int64 && r <= Int32 }

// Unsigned reports whether r is an unsigned fixed-width integer.
func (r Repr) Unsigned() bool { return r >= Uint8 && r <= Uint64 }

// Float reports whether r is a floating-point type.
func (r Repr) Float() bool { return r == Float32 || r == Float64 }

// Const reports whether values of r can be Go constants.
func (r Repr) Const() bool { return r != Decimal }

func (r Repr) bits() int {
	switch r {
	case Int8, Uint8:
		return 8
	case Int16, Uint16:
		return 16
	case Int32, Uint32, Float32:
		return 32
	default:
		return 64
	}
}

// ParseType returns the representation named by an explicit type
// annotation.
func ParseType(name string) (Repr, bool) {
	name = strings.ToLower(strings.TrimSpace(name))

	for r, s := range specs {
		if s == name {
			return Repr(r), true
		}
	}

	r, ok := typeAliases[name]

	return r, ok
}

// IsType reports whether name is an explicit numeric type annotation.
func IsType(name string) bool {
	_, ok := ParseType(name)

	return ok
}

// Value is a classified literal.
type Value struct {
	Repr Repr
	// Literal is the canonical source text of the value: integers without
	// leading zeros or sign, floats always with a decimal point or exponent.
	Literal string
}

// GoType returns the Go type of v.
func (v Value) GoType() string { return v.Repr.GoType() }

var syntax = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?$`)

// Classify selects the representation of literal. An empty explicit type
// selects the narrowest safe representation automatically, otherwise the
// literal must fit the named type exactly.
func Classify(literal, explicit string) (Value, error) {
	literal = strings.TrimSpace(literal)

	if explicit = strings.TrimSpace(explicit); explicit != "" {
		r, ok := ParseType(explicit)
		if !ok {
			return Value{}, ErrUnknownType.With(
				slog.String("literal", literal),
				slog.String("type", explicit),
			)
		}

		return As(literal, r)
	}

	if !syntax.MatchString(literal) {
		return Value{}, ErrNotNumeric.With(slog.String("literal", literal))
	}

	if !fractional(literal) {
		if v, err := As(literal, Int64); err == nil {
			return v, nil
		}

		return Value{Repr: Decimal, Literal: decimal(literal)}, nil
	}

	if SignificantDigits(literal) <= MaxFloatDigits {
		if v, err := As(literal, Float64); err == nil {
			return v, nil
		}
	}

	return Value{Repr: Decimal, Literal: decimal(literal)}, nil
}

// As parses literal strictly as representation r.
func As(literal string, r Repr) (Value, error) {
	literal = strings.TrimSpace(literal)

	fail := func() (Value, error) {
		return Value{}, ErrInvalidLiteral.With(
			slog.String("literal", literal),
			slog.String("type", r.Spec()),
		).Wrap(fmt.Errorf("%q does not fit in %s", literal, r.Spec()))
	}

	if !syntax.MatchString(literal) {
		return fail()
	}

	switch {
	case r.Signed():
		i, err := strconv.ParseInt(strings.TrimPrefix(literal, "+"), 10, r.bits())
		if err != nil {
			return fail()
		}

		return Value{Repr: r, Literal: strconv.FormatInt(i, 10)}, nil

	case r.Unsigned():
		u, err := strconv.ParseUint(strings.TrimPrefix(literal, "+"), 10, r.bits())
		if err != nil {
			return fail()
		}

		return Value{Repr: r, Literal: strconv.FormatUint(u, 10)}, nil

	case r.Float():
		f, err := strconv.ParseFloat(literal, r.bits())
		if err != nil {
			return fail()
		}

		return Value{Repr: r, Literal: FormatFloat(f, r.bits())}, nil
	}

	if _, ok := new(big.Rat).SetString(decimal(literal)); !ok {
		return fail()
	}

	return Value{Repr: Decimal, Literal: decimal(literal)}, nil
}

// FormatFloat formats f in its shortest exact form, ensuring the result
// reads as a floating-point literal.
func FormatFloat(f float64, bits int) string {
	s := strconv.FormatFloat(f, 'g', -1, bits)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}

	return s
}

// SignificantDigits counts the mantissa digits of literal, ignoring
// leading zeros.
func SignificantDigits(literal string) int {
	n := 0
	leading := true

	for _, c := range literal {
		switch {
		case c == 'e' || c == 'E':
			return n
		case c == '0' && leading:
		case c >= '0' && c <= '9':
			leading = false
			n++
		}
	}

	return n
}

func fractional(literal string) bool {
	return strings.ContainsAny(literal, ".eE")
}

func decimal(literal string) string {
	return strings.TrimPrefix(literal, "+")
}

// Go returns v as a value of its Go type.
func (v Value) Go() any {
	switch {
	case v.Repr.Signed():
		i, _ := strconv.ParseInt(v.Literal, 10, 64)

		switch v.Repr {
		case Int8:
			return int8(i)
		case Int16:
			return int16(i)
		case Int32:
			return int32(i)
		default:
			return i
		}

	case v.Repr.Unsigned():
		u, _ := strconv.ParseUint(v.Literal, 10, 64)

		switch v.Repr {
		case Uint8:
			return uint8(u)
		case Uint16:
			return uint16(u)
		case Uint32:
			return uint32(u)
		default:
			return u
		}

	case v.Repr == Float32:
		f, _ := strconv.ParseFloat(v.Literal, 32)

		return float32(f)

	case v.Repr == Float64:
		f, _ := strconv.ParseFloat(v.Literal, 64)

		return f
	}

	r, _ := new(big.Rat).SetString(v.Literal)

	return r
}
