package numeric

import (
	"log/slog"
	"strings"
)

// Array is a classified sequence of numeric literals sharing one
// representation.
type Array struct {
	Repr  Repr
	Items []Value
	// Dropped holds the items skipped because they were not numbers.
	Dropped []string
}

// ClassifyArray selects a common representation for items. An explicit spec
// is applied strictly to every item. Without one, the array is int64 when
// every item is an integer that fits, float64 when any item is fractional and
// no item exceeds the float precision, and decimal otherwise.
func ClassifyArray(items []string, spec string) (Array, error) {
	if spec = strings.TrimSpace(spec); spec != "" {
		r, ok := ParseType(spec)
		if !ok {
			return Array{}, ErrUnknownType.With(slog.String("type", spec))
		}

		a := Array{Repr: r, Items: make([]Value, 0, len(items))}

		for _, item := range items {
			v, err := As(item, r)
			if err != nil {
				return Array{}, err
			}

			a.Items = append(a.Items, v)
		}

		return a, nil
	}

	var (
		a        Array
		literals []string
		integers = true
		fits     = true
		digits   = 0
	)

	for _, item := range items {
		item = strings.TrimSpace(item)
		if !syntax.MatchString(item) {
			a.Dropped = append(a.Dropped, item)

			continue
		}

		literals = append(literals, item)
		digits = max(digits, SignificantDigits(item))

		if fractional(item) {
			integers = false
		} else if _, err := As(item, Int64); err != nil {
			fits = false
		}
	}

	switch {
	case integers && fits:
		a.Repr = Int64
	case !integers && digits <= MaxFloatDigits:
		a.Repr = Float64
	default:
		a.Repr = Decimal
	}

	a.Items = make([]Value, 0, len(literals))

	for _, item := range literals {
		v, err := As(item, a.Repr)
		if err != nil {
			// float64 overflow moves the whole array to decimal
			d, _ := ClassifyArray(literals, Decimal.Spec())
			d.Dropped = a.Dropped

			return d, nil
		}

		a.Items = append(a.Items, v)
	}

	return a, nil
}
