package repl

import (
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/expr-lang/expr/builtin"
	"github.com/sahilm/fuzzy"
)

// commands are the REPL commands, typed after a leading colon.
var commands = []string{"clear", "edit", "help", "list", "quit", "reload"}

// builtinNames are the functions expr-lang provides.
var builtinNames = func() []string {
	names := make([]string, 0, len(builtin.Builtins))
	for _, fn := range builtin.Builtins {
		names = append(names, fn.Name)
	}

	slices.Sort(names)

	return names
}()

// isWordBoundary reports whether r separates completion words.
func isWordBoundary(r rune) bool {
	return strings.ContainsRune(".:() \t[]+-*/%<>=!&|,?;\"'", r)
}

// wordBounds returns the word around cursor and its byte offsets in input.
func wordBounds(input string, cursor int) (word string, start, end int) {
	cursor = min(cursor, len(input))

	for start = cursor; start > 0; {
		r, size := utf8.DecodeLastRuneInString(input[:start])
		if isWordBoundary(r) {
			break
		}

		start -= size
	}

	for end = cursor; end < len(input); {
		r, size := utf8.DecodeRuneInString(input[end:])
		if isWordBoundary(r) {
			break
		}

		end += size
	}

	return input[start:end], start, end
}

// parentPath returns the member-access chain preceding the word starting at
// wordStart: "String.Ui" for "len(String.Ui.TI".
func parentPath(input string, wordStart int) string {
	prefix := input[:wordStart]
	if !strings.HasSuffix(prefix, ".") {
		return ""
	}

	prefix = strings.TrimSuffix(prefix, ".")
	pos := len(prefix)

	for pos > 0 {
		r, size := utf8.DecodeLastRuneInString(prefix[:pos])
		if r != '.' && isWordBoundary(r) {
			break
		}

		pos -= size
	}

	return prefix[pos:]
}

// candidates returns the members of parent among names, a sorted list of
// dot-separated paths. The empty parent selects top-level names and the
// expression builtins.
func candidates(names []string, parent string) []string {
	var out []string

	if parent == "" {
		for _, n := range names {
			if !strings.Contains(n, ".") {
				out = append(out, n)
			}
		}

		return append(out, builtinNames...)
	}

	for _, n := range names {
		rest, ok := strings.CutPrefix(n, parent+".")
		if ok && rest != "" && !strings.Contains(rest, ".") {
			out = append(out, rest)
		}
	}

	return out
}

// complete ranks the completions of the word at cursor. After a dot every
// member is offered; an empty top-level word offers nothing.
func complete(names []string, input string, cursor int) (fuzzy.Matches, int, int) {
	word, start, end := wordBounds(input, cursor)

	var list []string

	switch {
	case strings.HasPrefix(input, ":"):
		if strings.Contains(input[:start], " ") {
			return nil, start, end
		}

		list = commands

	default:
		parent := parentPath(input, start)
		list = candidates(names, parent)

		if word == "" {
			if parent == "" {
				return nil, start, end
			}

			all := make(fuzzy.Matches, len(list))
			for i, s := range list {
				all[i] = fuzzy.Match{Str: s, Index: i}
			}

			return all, start, end
		}
	}

	if word == "" {
		return nil, start, end
	}

	return fuzzy.Find(word, list), start, end
}

// renderMatches renders the completion bar within width columns.
func renderMatches(matches fuzzy.Matches, selected int, active bool, width int) string {
	if len(matches) == 0 || width <= 0 {
		return ""
	}

	const sep = "  "

	more := hintStyle.Render("...")

	var (
		b    strings.Builder
		used int
	)

	for i, m := range matches {
		item := renderMatch(m, active && i == selected)

		w := lipgloss.Width(item)
		if i > 0 {
			w += len(sep)
		}

		if i > 0 && used+w+lipgloss.Width(more) > width {
			b.WriteString(sep + more)

			break
		}

		if i > 0 {
			b.WriteString(sep)
		}

		b.WriteString(item)
		used += w
	}

	return b.String()
}

func renderMatch(m fuzzy.Match, selected bool) string {
	base, bold := suggestionStyle, suggestionStyle.Bold(true)
	if selected {
		base, bold = selectedStyle, selectedStyle.Bold(true)
	}

	hit := make(map[int]bool, len(m.MatchedIndexes))
	for _, i := range m.MatchedIndexes {
		hit[i] = true
	}

	var b strings.Builder

	for i, r := range m.Str {
		if hit[i] {
			b.WriteString(bold.Render(string(r)))
		} else {
			b.WriteString(base.Render(string(r)))
		}
	}

	return b.String()
}
