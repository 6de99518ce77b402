package repl

import (
	"os"
	"os/exec"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

const defaultEditor = "vi"

// editDoneMsg reports that the editor exited.
type editDoneMsg struct {
	path string
	err  error
}

// edit suspends the REPL and opens path in $EDITOR.
func edit(path string) tea.Cmd {
	args := strings.Fields(os.Getenv("EDITOR"))
	if len(args) == 0 {
		args = []string{defaultEditor}
	}

	c := exec.Command(args[0], append(args[1:], path)...) //nolint:gosec

	return tea.ExecProcess(c, func(err error) tea.Msg {
		return editDoneMsg{path: path, err: err}
	})
}
