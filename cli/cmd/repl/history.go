package repl

import (
	"bufio"
	"errors"
	"io/fs"
	"os"
	"slices"
	"strings"
	"sync"
)

const baseHistory = "history.utf8"

// Line prefixes of the history file.
const (
	evalPrefix    = "E:"
	commandPrefix = "C:"
)

// Entry is one line of history.
type Entry struct {
	Line string
	// Command marks REPL commands, as opposed to expressions.
	Command bool
}

func (e Entry) encode() string {
	if e.Command {
		return commandPrefix + e.Line
	}

	return evalPrefix + e.Line
}

func decode(line string) Entry {
	if s, ok := strings.CutPrefix(line, commandPrefix); ok {
		return Entry{Line: s, Command: true}
	}

	s, _ := strings.CutPrefix(line, evalPrefix)

	return Entry{Line: s}
}

// History is the persistent input history of the REPL. A repeated entry
// moves to the end instead of appearing twice.
type History struct {
	path    string
	mu      sync.RWMutex
	entries []Entry
}

// NewHistory returns an empty history stored at path.
func NewHistory(path string) *History { return &History{path: path} }

// Load replaces the entries with the content of the history file. A missing
// file is not an error.
func (h *History) Load() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	f, err := os.Open(h.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}

	if err != nil {
		return err
	}
	defer f.Close()

	h.entries = nil

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			h.entries = append(h.entries, decode(line))
		}
	}

	return scanner.Err()
}

// Add records e and persists the history.
func (h *History) Add(e Entry) error {
	e.Line = strings.TrimSpace(e.Line)
	if e.Line == "" {
		return nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if n := len(h.entries); n > 0 && h.entries[n-1] == e {
		return nil
	}

	i := slices.Index(h.entries, e)
	if i >= 0 {
		h.entries = slices.Delete(h.entries, i, i+1)
	}

	h.entries = append(h.entries, e)

	if i >= 0 {
		return h.rewrite()
	}

	f, err := os.OpenFile(h.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = f.WriteString(e.encode() + "\n")

	return err
}

// rewrite replaces the history file. h.mu must be held.
func (h *History) rewrite() error {
	var b strings.Builder

	for _, e := range h.entries {
		b.WriteString(e.encode())
		b.WriteByte('\n')
	}

	return os.WriteFile(h.path, []byte(b.String()), 0o600)
}

// Entry returns the entry at index i, oldest first.
func (h *History) Entry(i int) (Entry, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if i < 0 || i >= len(h.entries) {
		return Entry{}, ErrOutOfBounds
	}

	return h.entries[i], nil
}

func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.entries)
}

// Entries returns a copy of all entries, oldest first.
func (h *History) Entries() []Entry {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return slices.Clone(h.entries)
}
