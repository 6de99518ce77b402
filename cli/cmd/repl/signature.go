package repl

import (
	"strings"
	"unicode"
)

// call locates the innermost function call enclosing a cursor.
type call struct {
	name string
	arg  int
}

// callAt returns the innermost unclosed call before cursor. Quoted strings
// are skipped.
func callAt(input string, cursor int) (call, bool) {
	cursor = min(cursor, len(input))

	var (
		stack []call
		quote rune
	)

	runes := []rune(input[:cursor])

	for i := 0; i < len(runes); i++ {
		r := runes[i]

		if quote != 0 {
			switch r {
			case '\\':
				i++
			case quote:
				quote = 0
			}

			continue
		}

		switch r {
		case '"', '\'', '`':
			quote = r
		case '(':
			stack = append(stack, call{name: identBefore(runes[:i])})
		case ')':
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		case ',':
			if len(stack) > 0 {
				stack[len(stack)-1].arg++
			}
		}
	}

	if len(stack) == 0 || stack[len(stack)-1].name == "" {
		return call{}, false
	}

	return stack[len(stack)-1], true
}

func identBefore(runes []rune) string {
	end := len(runes)
	for end > 0 && unicode.IsSpace(runes[end-1]) {
		end--
	}

	start := end
	for start > 0 {
		r := runes[start-1]
		if r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			break
		}

		start--
	}

	return string(runes[start:end])
}

// params splits the parameter list of a Go function type.
func params(funcType string) []string {
	inner, ok := strings.CutPrefix(funcType, "func(")
	if !ok {
		return nil
	}

	inner, _, _ = strings.Cut(inner, ")")
	if inner == "" {
		return nil
	}

	return strings.Split(inner, ", ")
}

// renderSignature renders name with its parameters, highlighting the
// parameter at index arg.
func renderSignature(name, funcType string, arg int) string {
	list := params(funcType)

	parts := make([]string, len(list))
	for i, p := range list {
		if i == arg {
			parts[i] = selectedStyle.Render(p)
		} else {
			parts[i] = hintStyle.Render(p)
		}
	}

	return suggestionStyle.Render(name) + hintStyle.Render("(") +
		strings.Join(parts, hintStyle.Render(", ")) +
		hintStyle.Render(") string")
}
