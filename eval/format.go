package eval

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/goccy/go-yaml"
)

// Format renders an evaluation result on one line. Strings are quoted only
// when they would otherwise be ambiguous; maps and slices use YAML flow
// style.
func Format(v any) string {
	switch v := v.(type) {
	case nil:
		return "nil"

	case string:
		if needsQuoting(v) {
			return strconv.Quote(v)
		}

		return v

	case bool:
		return strconv.FormatBool(v)

	case float32:
		return strconv.FormatFloat(float64(v), 'g', -1, 32)

	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)

	case *big.Rat:
		return v.RatString()

	case []any, []string, []bool, map[string]any:
		out, err := yaml.MarshalWithOptions(v, yaml.Flow(true))
		if err != nil {
			return fmt.Sprint(v)
		}

		return strings.TrimSpace(string(out))
	}

	return fmt.Sprint(v)
}

func needsQuoting(s string) bool {
	if s == "" || strings.TrimSpace(s) != s {
		return true
	}

	return strings.ContainsAny(s, "\"\\\n\r\t")
}
